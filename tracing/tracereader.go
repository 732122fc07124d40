package tracing

import (
	"context"

	"github.com/sarchlab/kipc/datarecording"
	"github.com/sarchlab/kipc/ipc"
)

// EventQuery selects events from a trace.
type EventQuery struct {
	// Port restricts the result to one port when HasPort is set.
	Port    ipc.PortID
	HasPort bool

	// Limit caps the number of events. Zero means no limit.
	Limit int
}

// TraceReader reads back the events written by MsgTracer.
type TraceReader struct {
	reader datarecording.DataReader
}

// NewTraceReader wraps a data reader.
func NewTraceReader(reader datarecording.DataReader) *TraceReader {
	reader.MapTable(TableName, MsgEvent{})

	return &TraceReader{reader: reader}
}

// Events returns the matching events in recording order, and the number of
// matching events regardless of the limit.
func (r *TraceReader) Events(
	ctx context.Context,
	query EventQuery,
) ([]MsgEvent, int, error) {
	params := datarecording.QueryParams{
		OrderBy: "rowid",
		Limit:   query.Limit,
	}

	if query.HasPort {
		params.Where = "Port = ?"
		params.Args = []any{uint32(query.Port)}
	}

	rows, total, err := r.reader.Query(ctx, TableName, params)
	if err != nil {
		return nil, 0, err
	}

	events := make([]MsgEvent, 0, len(rows))
	for _, row := range rows {
		events = append(events, *row.(*MsgEvent))
	}

	return events, total, nil
}

// CountByPos returns the number of events recorded at each hook position.
func (r *TraceReader) CountByPos(ctx context.Context) (map[string]int, error) {
	positions := []string{
		ipc.HookPosMsgSend.Name,
		ipc.HookPosMsgRecv.Name,
		ipc.HookPosMsgRespond.Name,
		ipc.HookPosMsgReject.Name,
		ipc.HookPosPortClose.Name,
	}

	counts := make(map[string]int, len(positions))

	for _, pos := range positions {
		_, total, err := r.reader.Query(ctx, TableName,
			datarecording.QueryParams{
				Where: "Pos = ?",
				Args:  []any{pos},
				Limit: 1,
			})
		if err != nil {
			return nil, err
		}

		counts[pos] = total
	}

	return counts, nil
}
