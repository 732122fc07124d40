// Package portreg owns the lifecycle of ports: creation, lookup with
// reference counting, and destruction.
package portreg

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/sarchlab/kipc/hooking"
	"github.com/sarchlab/kipc/ipc"
)

// ErrNoSpace is returned by Create when every port id is in use.
var ErrNoSpace = errors.New("portreg: port table full")

// ErrPortInUse is returned by CreateWithID when the id is taken.
var ErrPortInUse = errors.New("portreg: port id in use")

type entry struct {
	port      *ipc.Port
	refs      int
	destroyed bool
}

// A Registry maps port ids to live ports. A destroyed port stops resolving
// immediately, but its id is only reused after every reference taken by
// Resolve has been released.
type Registry struct {
	mu       sync.Mutex
	entries  []*entry
	maxPorts int
	hooks    []hooking.Hook
}

var _ ipc.Registry = (*Registry)(nil)

// Builder configures a Registry.
type Builder struct {
	maxPorts int
	hooks    []hooking.Hook
}

// MakeBuilder creates a builder with default parameters.
func MakeBuilder() Builder {
	return Builder{
		maxPorts: 64,
	}
}

// WithMaxPorts sets the size of the port table.
func (b Builder) WithMaxPorts(n int) Builder {
	b.maxPorts = n
	return b
}

// WithHook adds a hook that is attached to every port the registry creates.
func (b Builder) WithHook(hook hooking.Hook) Builder {
	b.hooks = append(append([]hooking.Hook(nil), b.hooks...), hook)
	return b
}

func (b Builder) parametersMustBeValid() {
	if b.maxPorts <= 0 {
		panic("max ports must be positive")
	}
}

// Build creates the registry.
func (b Builder) Build() *Registry {
	b.parametersMustBeValid()

	return &Registry{
		maxPorts: b.maxPorts,
		hooks:    b.hooks,
	}
}

// AcceptHook attaches a hook to every existing port and to every port created
// afterwards.
func (r *Registry) AcceptHook(hook hooking.Hook) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.hooks = append(r.hooks, hook)

	for _, e := range r.entries {
		if e != nil && !e.destroyed {
			e.port.AcceptHook(hook)
		}
	}
}

// NumHooks returns the number of hooks given to new ports.
func (r *Registry) NumHooks() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.hooks)
}

// Create opens a new port on the lowest free id.
func (r *Registry) Create() (ipc.PortID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := -1

	for i, e := range r.entries {
		if e == nil {
			id = i
			break
		}
	}

	if id < 0 {
		if len(r.entries) >= r.maxPorts {
			return 0, ErrNoSpace
		}

		r.entries = append(r.entries, nil)
		id = len(r.entries) - 1
	}

	return r.open(ipc.PortID(id)), nil
}

// CreateWithID opens a port on a well-known id. The id must be below the
// table size and free, including of references to a destroyed port.
func (r *Registry) CreateWithID(id ipc.PortID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if int(id) >= r.maxPorts {
		return fmt.Errorf("port %d: %w", id, ErrNoSpace)
	}

	if r.lookup(id) != nil {
		return fmt.Errorf("port %d: %w", id, ErrPortInUse)
	}

	for len(r.entries) <= int(id) {
		r.entries = append(r.entries, nil)
	}

	r.open(id)

	return nil
}

func (r *Registry) open(id ipc.PortID) ipc.PortID {
	p := ipc.NewPort(id)
	for _, h := range r.hooks {
		p.AcceptHook(h)
	}

	r.entries[id] = &entry{port: p}

	return id
}

// Resolve returns the live port with the given id and takes a reference.
func (r *Registry) Resolve(id ipc.PortID) (*ipc.Port, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e := r.lookup(id)
	if e == nil || e.destroyed {
		return nil, ipc.ErrInvalidPort
	}

	e.refs++

	return e.port, nil
}

// Release drops a reference taken by Resolve.
func (r *Registry) Release(p *ipc.Port) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e := r.lookup(p.ID())
	if e == nil || e.port != p || e.refs == 0 {
		log.Panicf("releasing %s without a reference", p.Name())
	}

	e.refs--

	if e.destroyed && e.refs == 0 {
		r.entries[p.ID()] = nil
	}
}

// Destroy closes the port and removes it from the table. Senders and
// receivers already inside the port observe the close.
func (r *Registry) Destroy(id ipc.PortID) error {
	r.mu.Lock()

	e := r.lookup(id)
	if e == nil || e.destroyed {
		r.mu.Unlock()
		return fmt.Errorf("destroying port %d: %w", id, ipc.ErrInvalidPort)
	}

	e.destroyed = true
	if e.refs == 0 {
		r.entries[id] = nil
	}

	r.mu.Unlock()

	e.port.Close()

	return nil
}

// Lookup returns the live port with the given id without taking a reference.
func (r *Registry) Lookup(id ipc.PortID) (*ipc.Port, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e := r.lookup(id)
	if e == nil || e.destroyed {
		return nil, false
	}

	return e.port, true
}

// Ports returns the live ports ordered by id.
func (r *Registry) Ports() []*ipc.Port {
	r.mu.Lock()
	defer r.mu.Unlock()

	ports := make([]*ipc.Port, 0, len(r.entries))
	for _, e := range r.entries {
		if e != nil && !e.destroyed {
			ports = append(ports, e.port)
		}
	}

	return ports
}

// Refs returns the number of outstanding references on the port id.
func (r *Registry) Refs(id ipc.PortID) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	e := r.lookup(id)
	if e == nil {
		return 0
	}

	return e.refs
}

func (r *Registry) lookup(id ipc.PortID) *entry {
	if int(id) >= len(r.entries) {
		return nil
	}

	return r.entries[id]
}
