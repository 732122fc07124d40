// Package system puts a kernel, its port registry and the optional recording
// and monitoring services together.
package system

import (
	"fmt"
	"sync"

	"github.com/sarchlab/kipc/datarecording"
	"github.com/sarchlab/kipc/ipc"
	"github.com/sarchlab/kipc/monitoring"
	"github.com/sarchlab/kipc/portreg"
	"github.com/sarchlab/kipc/tracing"
)

// A System owns a kernel and the services around it.
type System struct {
	id string

	kernel   *ipc.Kernel
	registry *portreg.Registry

	recorder   datarecording.DataRecorder
	tracer     *tracing.MsgTracer
	monitor    *monitoring.Monitor
	monitorURL string

	mu         sync.Mutex
	nameIndex  map[string]ipc.PortID
	terminated bool
}

// ID returns the unique id of the run.
func (s *System) ID() string {
	return s.id
}

// Kernel returns the kernel.
func (s *System) Kernel() *ipc.Kernel {
	return s.kernel
}

// Registry returns the port registry.
func (s *System) Registry() *portreg.Registry {
	return s.registry
}

// Recorder returns the data recorder, or nil when recording is off.
func (s *System) Recorder() datarecording.DataRecorder {
	return s.recorder
}

// Tracer returns the message tracer, or nil when recording is off.
func (s *System) Tracer() *tracing.MsgTracer {
	return s.tracer
}

// Monitor returns the monitor, or nil when monitoring is off.
func (s *System) Monitor() *monitoring.Monitor {
	return s.monitor
}

// MonitorURL returns the address of the monitor, or "" when monitoring is
// off.
func (s *System) MonitorURL() string {
	return s.monitorURL
}

// CreatePort creates a port and binds it to a service name.
func (s *System) CreatePort(name string) (ipc.PortID, error) {
	return s.bind(name, s.registry.Create)
}

// CreatePortWithID creates a port on a well-known id and binds it to a
// service name.
func (s *System) CreatePortWithID(name string, id ipc.PortID) error {
	_, err := s.bind(name, func() (ipc.PortID, error) {
		return id, s.registry.CreateWithID(id)
	})

	return err
}

func (s *System) bind(
	name string,
	create func() (ipc.PortID, error),
) (ipc.PortID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.nameIndex[name]; ok {
		return 0, fmt.Errorf("port %q already exists", name)
	}

	id, err := create()
	if err != nil {
		return 0, fmt.Errorf("creating port %q: %w", name, err)
	}

	s.nameIndex[name] = id

	return id, nil
}

// PortByName returns the id of the port bound to name.
func (s *System) PortByName(name string) (ipc.PortID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.nameIndex[name]

	return id, ok
}

// DestroyPort closes the port bound to name and forgets the name.
func (s *System) DestroyPort(name string) error {
	s.mu.Lock()
	id, ok := s.nameIndex[name]
	delete(s.nameIndex, name)
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("port %q: %w", name, ipc.ErrInvalidPort)
	}

	return s.registry.Destroy(id)
}

// Terminate destroys every port, stops the monitor and closes the recording.
// Senders still waiting on a destroyed port are rejected. Calling Terminate
// again does nothing.
func (s *System) Terminate() error {
	s.mu.Lock()
	if s.terminated {
		s.mu.Unlock()
		return nil
	}

	s.terminated = true
	s.nameIndex = make(map[string]ipc.PortID)
	s.mu.Unlock()

	for _, p := range s.registry.Ports() {
		// A port destroyed concurrently is already closed.
		_ = s.registry.Destroy(p.ID())
	}

	if s.monitor != nil {
		if err := s.monitor.StopServer(); err != nil {
			return fmt.Errorf("stopping monitor: %w", err)
		}
	}

	if s.recorder != nil {
		s.tracer.Terminate()

		if err := s.recorder.Close(); err != nil {
			return fmt.Errorf("closing recorder: %w", err)
		}
	}

	return nil
}
