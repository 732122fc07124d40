package ipc

import (
	"fmt"
	"sync"

	"github.com/sarchlab/kipc/hooking"
	"github.com/sarchlab/kipc/sched"
)

// HookPosMsgSend marks when a message is appended to a port's queue.
var HookPosMsgSend = &hooking.HookPos{Name: "Msg Send"}

// HookPosMsgRecv marks when a receiver takes a message from the queue.
var HookPosMsgRecv = &hooking.HookPos{Name: "Msg Recv"}

// HookPosMsgRespond marks when a response is written back to the sender.
var HookPosMsgRespond = &hooking.HookPos{Name: "Msg Respond"}

// HookPosMsgReject marks when a pending message is rejected.
var HookPosMsgReject = &hooking.HookPos{Name: "Msg Reject"}

// HookPosPortClose marks when a port is closed.
var HookPosPortClose = &hooking.HookPos{Name: "Port Close"}

// Stats is a snapshot of a port's queues and counters.
type Stats struct {
	ID               PortID `json:"id"`
	Name             string `json:"name"`
	Closed           bool   `json:"closed"`
	Pending          int    `json:"pending"`
	InFlight         int    `json:"in_flight"`
	WaitingReceivers int    `json:"waiting_receivers"`
	Sent             uint64 `json:"sent"`
	Received         uint64 `json:"received"`
	Responded        uint64 `json:"responded"`
	Rejected         uint64 `json:"rejected"`
}

// A Port is a rendezvous point. Its pending queue, receiver wait queue,
// closed flag, handle table and hooks are guarded by one lock.
//
// Hooks run with that lock held. A hook must not call back into the port.
type Port struct {
	hooking.HookableBase

	id   PortID
	name string

	lock      sync.Mutex
	pending   msgDeque
	receivers sched.WaitQueue
	closed    bool
	handles   handleTable

	sent, received, responded, rejected uint64
}

// NewPort creates an open port. Ports are normally created by a Registry.
func NewPort(id PortID) *Port {
	return &Port{
		id:   id,
		name: fmt.Sprintf("Port%d", id),
	}
}

// ID returns the port id.
func (p *Port) ID() PortID {
	return p.id
}

// Name returns the port name used in logs and traces.
func (p *Port) Name() string {
	return p.name
}

// AcceptHook registers a hook on the port.
func (p *Port) AcceptHook(hook hooking.Hook) {
	p.lock.Lock()
	defer p.lock.Unlock()

	p.HookableBase.AcceptHook(hook)
}

// NumHooks returns the number of hooks registered on the port.
func (p *Port) NumHooks() int {
	p.lock.Lock()
	defer p.lock.Unlock()

	return p.HookableBase.NumHooks()
}

// Closed reports whether the port has been closed.
func (p *Port) Closed() bool {
	p.lock.Lock()
	defer p.lock.Unlock()

	return p.closed
}

// Stats returns a consistent snapshot of the port.
func (p *Port) Stats() Stats {
	p.lock.Lock()
	defer p.lock.Unlock()

	return Stats{
		ID:               p.id,
		Name:             p.name,
		Closed:           p.closed,
		Pending:          p.pending.Len(),
		InFlight:         p.handles.inUse(),
		WaitingReceivers: p.receivers.Len(),
		Sent:             p.sent,
		Received:         p.received,
		Responded:        p.responded,
		Rejected:         p.rejected,
	}
}

// Close tears the port down. Every pending message is rejected and its
// sender woken, and every receiver blocked on the port is woken to observe
// the closed port. Closing a closed port does nothing.
//
// Messages already taken by a receiver are not rejected; their senders wait
// for Respond.
func (p *Port) Close() {
	p.lock.Lock()
	defer p.lock.Unlock()

	if p.closed {
		return
	}

	p.closed = true

	for km := p.pending.Pop(); km != nil; km = p.pending.Pop() {
		p.reject(km)
	}

	p.receivers.WakeAll()

	if p.HookableBase.NumHooks() > 0 {
		p.InvokeHook(hooking.HookCtx{
			Domain: p,
			Pos:    HookPosPortClose,
			Item:   p.id,
		})
	}
}

func (p *Port) enqueue(km *kernelMessage) {
	p.pending.Push(km)
	p.sent++

	p.invokeMsgHook(HookPosMsgSend, km, nil)

	p.receivers.WakeOne()
}

// reject must be called with km already unlinked from the pending queue.
func (p *Port) reject(km *kernelMessage) {
	km.moveTo(Rejected)
	p.rejected++

	p.invokeMsgHook(HookPosMsgReject, km, nil)

	km.waiters.WakeAll()
}

func (p *Port) invokeMsgHook(
	pos *hooking.HookPos,
	km *kernelMessage,
	detail any,
) {
	if p.HookableBase.NumHooks() == 0 {
		return
	}

	p.InvokeHook(hooking.HookCtx{
		Domain: p,
		Pos:    pos,
		Item:   km.info(p.id),
		Detail: detail,
	})
}
