package ipc

import (
	"sync"

	"github.com/sarchlab/kipc/sched"
)

// staticRegistry resolves a fixed set of ports and counts references.
type staticRegistry struct {
	mu    sync.Mutex
	ports map[PortID]*Port
	refs  map[PortID]int
}

func newStaticRegistry(ids ...PortID) *staticRegistry {
	r := &staticRegistry{
		ports: make(map[PortID]*Port),
		refs:  make(map[PortID]int),
	}

	for _, id := range ids {
		r.ports[id] = NewPort(id)
	}

	return r
}

func (r *staticRegistry) Resolve(id PortID) (*Port, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.ports[id]
	if !ok {
		return nil, ErrInvalidPort
	}

	r.refs[id]++

	return p, nil
}

func (r *staticRegistry) Release(p *Port) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.refs[p.ID()]--
}

func (r *staticRegistry) port(id PortID) *Port {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.ports[id]
}

func (r *staticRegistry) refCount(id PortID) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.refs[id]
}

type sendResult struct {
	msg *Message
	err error
}

// sendAsync runs Send in a new goroutine and reports its outcome.
func sendAsync(
	k *Kernel,
	th *sched.Thread,
	id PortID,
	payload string,
) <-chan sendResult {
	done := make(chan sendResult, 1)

	msg := &Message{}
	msg.SetPayload([]byte(payload))

	go func() {
		err := k.Send(th, id, msg)
		done <- sendResult{msg: msg, err: err}
	}()

	return done
}

func payloadString(b []byte) string {
	n := 0
	for n < len(b) && b[n] != 0 {
		n++
	}

	return string(b[:n])
}
