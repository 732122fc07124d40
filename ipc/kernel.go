package ipc

import (
	"github.com/sarchlab/kipc/idgen"
	"github.com/sarchlab/kipc/sched"
)

// A Registry resolves port ids. A port returned by Resolve must stay valid
// until it is passed to Release.
type Registry interface {
	// Resolve returns the live port with the given id and takes a
	// reference on it. Unknown ids yield ErrInvalidPort.
	Resolve(id PortID) (*Port, error)

	// Release drops a reference taken by Resolve.
	Release(p *Port)
}

// A MemoryRegion describes a range of the kernel's address space.
type MemoryRegion struct {
	Name string
	Base uintptr
	Size uintptr
}

// Env holds the kernel memory-map references recorded once at start-up.
type Env struct {
	KernelMap    *MemoryRegion
	KernelObject *MemoryRegion
}

// Kernel implements the rendezvous protocol over the ports of a Registry.
type Kernel struct {
	env   Env
	ports Registry
	ids   idgen.Generator
}

// NewKernel performs the one-time initialization of the message subsystem.
func NewKernel(env Env, ports Registry) *Kernel {
	if ports == nil {
		panic("registry must not be nil")
	}

	return &Kernel{
		env:   env,
		ports: ports,
		ids:   idgen.New(),
	}
}

// Env returns the references recorded at initialization.
func (k *Kernel) Env() Env {
	return k.env
}

// Send delivers msg to the port and blocks until a receiver has responded or
// the port has rejected the message.
//
// msg must stay untouched by the caller until Send returns. On success the
// response is in msg.Out() and msg.PID holds the process id of the
// responder.
func (k *Kernel) Send(th *sched.Thread, id PortID, msg *Message) error {
	threadMustBeValid(th)
	msgMustBeValid(msg)

	p, err := k.ports.Resolve(id)
	if err != nil {
		return err
	}
	defer k.ports.Release(p)

	msg.PID = th.Process
	msg.Priority = th.Priority

	km := &kernelMessage{
		id:       k.ids.Generate(),
		msg:      msg,
		src:      th.Process,
		priority: th.Priority,
		state:    Waiting,
	}

	p.lock.Lock()

	if p.closed {
		p.lock.Unlock()
		return ErrPortClosed
	}

	p.enqueue(km)

	for !km.state.terminal() {
		_ = km.waiters.Wait(&p.lock, sched.Forever)
	}

	state, responder := km.state, km.src

	p.lock.Unlock()

	if state == Rejected {
		return ErrRejected
	}

	msg.PID = responder

	return nil
}

// Recv blocks until the port has a pending message, copies the oldest one
// into out and returns the handle to respond with. It returns ErrPortClosed
// once the port is closed.
func (k *Kernel) Recv(th *sched.Thread, id PortID, out *Message) (Handle, error) {
	threadMustBeValid(th)
	msgMustBeValid(out)

	p, err := k.ports.Resolve(id)
	if err != nil {
		return Handle{}, err
	}
	defer k.ports.Release(p)

	p.lock.Lock()

	for p.pending.Len() == 0 && !p.closed {
		_ = p.receivers.Wait(&p.lock, sched.Forever)
	}

	if p.closed {
		if km := p.pending.Pop(); km != nil {
			p.reject(km)
		}

		p.lock.Unlock()

		return Handle{}, ErrPortClosed
	}

	km := p.pending.Pop()
	km.moveTo(Received)
	p.received++

	slot, gen := p.handles.put(km)
	p.invokeMsgHook(HookPosMsgRecv, km, th.Process)

	p.lock.Unlock()

	*out = *km.msg

	return Handle{port: p, slot: slot, gen: gen}, nil
}

// Respond writes the response region of resp into the buffer of the message
// behind h and wakes its sender. It never blocks.
func (k *Kernel) Respond(th *sched.Thread, h Handle, resp *Message) error {
	threadMustBeValid(th)
	msgMustBeValid(resp)

	if !h.Valid() {
		return ErrInvalidHandle
	}

	p := h.port

	p.lock.Lock()
	defer p.lock.Unlock()

	km, ok := p.handles.take(h.slot, h.gen)
	if !ok {
		return ErrInvalidHandle
	}

	copy(km.msg.Out(), resp.Out())

	km.moveTo(Responded)
	km.src = th.Process
	p.responded++

	p.invokeMsgHook(HookPosMsgRespond, km, th.Process)

	km.waiters.WakeAll()

	return nil
}

func threadMustBeValid(th *sched.Thread) {
	if th == nil {
		panic("thread must not be nil")
	}
}

func msgMustBeValid(msg *Message) {
	if msg == nil {
		panic("message must not be nil")
	}
}
