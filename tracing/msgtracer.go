// Package tracing records message lifecycle events into a data recorder so
// that a run can be inspected after it ends.
package tracing

import (
	"sync"
	"time"

	"github.com/sarchlab/kipc/datarecording"
	"github.com/sarchlab/kipc/hooking"
	"github.com/sarchlab/kipc/ipc"
	"github.com/tebeka/atexit"
)

// TableName is the table MsgTracer writes into.
const TableName = "msg_trace"

// closedState is stored in the State column of port close events.
const closedState = "closed"

// MsgEvent is one row of the trace table.
type MsgEvent struct {
	Time     int64
	Pos      string
	MsgID    uint64
	Port     uint32
	Type     uint32
	Src      uint32
	Priority int
	State    string
}

// A TimeTeller tells the time stamped on events.
type TimeTeller interface {
	CurrentTime() time.Time
}

type wallClock struct{}

func (wallClock) CurrentTime() time.Time {
	return time.Now()
}

// MsgTracer is a hook that turns port hook invocations into MsgEvents.
type MsgTracer struct {
	mu         sync.Mutex
	timeTeller TimeTeller
	backend    datarecording.DataRecorder
	enabled    bool
	count      int
}

// NewMsgTracer creates the trace table in the recorder and returns an enabled
// tracer. Buffered events are flushed when the program exits through atexit.
func NewMsgTracer(recorder datarecording.DataRecorder) *MsgTracer {
	return NewMsgTracerWithTimeTeller(recorder, wallClock{})
}

// NewMsgTracerWithTimeTeller is NewMsgTracer with a custom clock.
func NewMsgTracerWithTimeTeller(
	recorder datarecording.DataRecorder,
	timeTeller TimeTeller,
) *MsgTracer {
	recorder.CreateTable(TableName, MsgEvent{})

	t := &MsgTracer{
		timeTeller: timeTeller,
		backend:    recorder,
		enabled:    true,
	}

	atexit.Register(func() {
		t.Terminate()
	})

	return t
}

// CollectTrace attaches the tracer to a port or a registry.
func CollectTrace(domain hooking.Hookable, tracer *MsgTracer) {
	domain.AcceptHook(tracer)
}

// StartTracing resumes recording.
func (t *MsgTracer) StartTracing() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.enabled = true
}

// StopTracing pauses recording. Hook invocations are dropped until
// StartTracing is called.
func (t *MsgTracer) StopTracing() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.enabled = false
}

// IsTracing reports whether events are being recorded.
func (t *MsgTracer) IsTracing() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.enabled
}

// NumEvents returns how many events have been recorded.
func (t *MsgTracer) NumEvents() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.count
}

// Func records the hook invocation.
func (t *MsgTracer) Func(ctx hooking.HookCtx) {
	event, ok := t.eventOf(ctx)
	if !ok {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.enabled {
		return
	}

	event.Time = t.timeTeller.CurrentTime().UnixNano()
	t.backend.InsertData(TableName, event)
	t.count++
}

func (t *MsgTracer) eventOf(ctx hooking.HookCtx) (MsgEvent, bool) {
	switch item := ctx.Item.(type) {
	case ipc.MsgInfo:
		return MsgEvent{
			Pos:      ctx.Pos.Name,
			MsgID:    uint64(item.ID),
			Port:     uint32(item.Port),
			Type:     item.Type,
			Src:      uint32(item.Src),
			Priority: item.Priority,
			State:    item.State.String(),
		}, true
	case ipc.PortID:
		return MsgEvent{
			Pos:   ctx.Pos.Name,
			Port:  uint32(item),
			State: closedState,
		}, true
	default:
		return MsgEvent{}, false
	}
}

// Terminate flushes buffered events.
func (t *MsgTracer) Terminate() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.backend.Flush()
}
