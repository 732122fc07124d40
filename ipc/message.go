// Package ipc implements synchronous, rendezvous-style message passing
// between processes through ports.
//
// A sender blocks in Send until a receiver has taken its message with Recv
// and answered it with Respond, or until the port is closed. All processes
// share one address space, so the kernel never copies the sender's buffer
// while the message is in flight: the responder writes the response straight
// into it.
package ipc

import "github.com/sarchlab/kipc/sched"

const (
	// PayloadSize is the size of the fixed payload area of a Message.
	PayloadSize = 128

	// ResponseSize is the size of the response region. It overlays the
	// beginning of the payload area.
	ResponseSize = 64
)

// PortID identifies a port in a Registry.
type PortID uint32

// A Message is the fixed-shape record exchanged through a port.
//
// The request and the response share Data: In covers the whole payload area
// and Out covers its first ResponseSize bytes. Respond overwrites Out and
// leaves the rest of the request untouched.
type Message struct {
	Type     uint32
	PID      sched.ProcessID
	Priority int
	Data     [PayloadSize]byte

	// InBuf and OutBuf reference memory owned by the sender. They are
	// handed to the receiver by reference, never copied.
	InBuf  []byte
	OutBuf []byte
}

// In returns the request region.
func (m *Message) In() []byte {
	return m.Data[:]
}

// Out returns the response region.
func (m *Message) Out() []byte {
	return m.Data[:ResponseSize]
}

// SetPayload copies b into the payload area and returns the number of bytes
// copied.
func (m *Message) SetPayload(b []byte) int {
	return copy(m.Data[:], b)
}
