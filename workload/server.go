// Package workload drives a kernel with request/response traffic: a server
// loop that answers a port and concurrent clients that send to it.
package workload

import (
	"errors"
	"sync/atomic"

	"github.com/sarchlab/kipc/ipc"
	"github.com/sarchlab/kipc/sched"
)

// A Handler fills resp from req.
type Handler interface {
	Handle(req *ipc.Message, resp *ipc.Message)
}

// HandlerFunc adapts a function to a Handler.
type HandlerFunc func(req *ipc.Message, resp *ipc.Message)

// Handle calls f.
func (f HandlerFunc) Handle(req *ipc.Message, resp *ipc.Message) {
	f(req, resp)
}

// Echo answers with the first ipc.ResponseSize bytes of the request.
var Echo = HandlerFunc(func(req *ipc.Message, resp *ipc.Message) {
	resp.Type = req.Type
	copy(resp.Out(), req.In())
})

// PingPong answers "pong" to "ping" and echoes everything else.
var PingPong = HandlerFunc(func(req *ipc.Message, resp *ipc.Message) {
	if string(req.In()[:5]) == "ping\x00" {
		resp.SetPayload([]byte("pong"))
		return
	}

	Echo(req, resp)
})

// A Server answers every message sent to one port.
type Server struct {
	kernel  *ipc.Kernel
	thread  *sched.Thread
	port    ipc.PortID
	handler Handler
	served  atomic.Uint64
}

// NewServer creates a server that receives on port as thread th.
func NewServer(
	k *ipc.Kernel,
	th *sched.Thread,
	port ipc.PortID,
	handler Handler,
) *Server {
	return &Server{
		kernel:  k,
		thread:  th,
		port:    port,
		handler: handler,
	}
}

// Served returns the number of messages answered so far.
func (s *Server) Served() uint64 {
	return s.served.Load()
}

// Serve loops until the port is closed. A closed port ends the loop without
// error.
func (s *Server) Serve() error {
	for {
		var req ipc.Message

		h, err := s.kernel.Recv(s.thread, s.port, &req)
		if errors.Is(err, ipc.ErrPortClosed) {
			return nil
		}

		if err != nil {
			return err
		}

		var resp ipc.Message
		s.handler.Handle(&req, &resp)

		if err := s.kernel.Respond(s.thread, h, &resp); err != nil {
			return err
		}

		s.served.Add(1)
	}
}
