package ipc

import (
	"fmt"

	"github.com/sarchlab/kipc/idgen"
	"github.com/sarchlab/kipc/sched"
)

// State is the position of a kernel message in the rendezvous protocol.
type State int8

const (
	// Waiting messages sit in a port's pending queue.
	Waiting State = iota
	// Received messages have been taken by a receiver and await Respond.
	Received
	// Responded is terminal: the response is in the sender's buffer.
	Responded
	// Rejected is terminal: the port closed before the message was taken.
	Rejected
)

func (s State) String() string {
	switch s {
	case Waiting:
		return "waiting"
	case Received:
		return "received"
	case Responded:
		return "responded"
	case Rejected:
		return "rejected"
	default:
		return fmt.Sprintf("state(%d)", int8(s))
	}
}

func (s State) terminal() bool {
	return s == Responded || s == Rejected
}

func (s State) canMoveTo(next State) bool {
	switch s {
	case Waiting:
		return next == Received || next == Rejected
	case Received:
		return next == Responded
	default:
		return false
	}
}

// A kernelMessage wraps one in-flight Send. It lives exactly as long as the
// Send call that created it.
type kernelMessage struct {
	id       idgen.ID
	msg      *Message
	src      sched.ProcessID
	priority int
	state    State

	// The sending thread waits here. Guarded by the owning port's lock.
	waiters sched.WaitQueue
}

func (km *kernelMessage) moveTo(next State) {
	if !km.state.canMoveTo(next) {
		panic(fmt.Sprintf("message %s: illegal transition %s -> %s",
			km.id, km.state, next))
	}

	km.state = next
}

// MsgInfo is a snapshot of a kernel message passed to hooks.
type MsgInfo struct {
	ID       idgen.ID
	Port     PortID
	Type     uint32
	Src      sched.ProcessID
	Priority int
	State    State
}

func (km *kernelMessage) info(port PortID) MsgInfo {
	return MsgInfo{
		ID:       km.id,
		Port:     port,
		Type:     km.msg.Type,
		Src:      km.src,
		Priority: km.priority,
		State:    km.state,
	}
}
