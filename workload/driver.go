package workload

import (
	"context"
	"encoding/binary"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/sarchlab/kipc/ipc"
	"github.com/sarchlab/kipc/sched"
	"golang.org/x/sync/errgroup"
)

// A Progress is told about requests as they start and finish.
type Progress interface {
	IncrementInProgress(amount uint64)
	MoveInProgressToFinished(amount uint64)
}

// A Driver runs concurrent clients that send to one port.
type Driver struct {
	Kernel *ipc.Kernel
	Port   ipc.PortID

	// Clients is the number of concurrent clients. Each runs on its own
	// thread in its own process, numbered from FirstProcess.
	Clients      int
	FirstProcess sched.ProcessID

	// Requests is the number of requests each client sends.
	Requests int

	// Check validates a response. Request i of client c carries c and i as
	// two little-endian uint32 at the start of the payload.
	Check func(client, request int, resp *ipc.Message) error

	Progress Progress
}

// Result summarizes a Driver run.
type Result struct {
	Responded uint64
	Elapsed   time.Duration
}

// Throughput returns responded requests per second.
func (r Result) Throughput() float64 {
	if r.Elapsed <= 0 {
		return 0
	}

	return float64(r.Responded) / r.Elapsed.Seconds()
}

// Run starts every client and waits for them. The first failure stops the
// clients at their next request and is returned.
func (d Driver) Run(ctx context.Context) (Result, error) {
	var responded atomic.Uint64

	start := time.Now()
	g, ctx := errgroup.WithContext(ctx)

	for c := 0; c < d.Clients; c++ {
		c := c
		th := sched.NewThread(
			sched.ThreadID(c),
			d.FirstProcess+sched.ProcessID(c),
			0,
		)

		g.Go(func() error {
			for i := 0; i < d.Requests; i++ {
				if err := ctx.Err(); err != nil {
					return err
				}

				if err := d.request(th, c, i); err != nil {
					return err
				}

				responded.Add(1)
			}

			return nil
		})
	}

	err := g.Wait()

	return Result{
		Responded: responded.Load(),
		Elapsed:   time.Since(start),
	}, err
}

func (d Driver) request(th *sched.Thread, client, request int) error {
	msg := &ipc.Message{}
	binary.LittleEndian.PutUint32(msg.Data[0:], uint32(client))
	binary.LittleEndian.PutUint32(msg.Data[4:], uint32(request))

	if d.Progress != nil {
		d.Progress.IncrementInProgress(1)
	}

	err := d.Kernel.Send(th, d.Port, msg)

	if d.Progress != nil {
		d.Progress.MoveInProgressToFinished(1)
	}

	if err != nil {
		return fmt.Errorf("client %d request %d: %w", client, request, err)
	}

	if d.Check != nil {
		return d.Check(client, request, msg)
	}

	return nil
}

// CheckEcho verifies that a response echoes its request header.
func CheckEcho(client, request int, resp *ipc.Message) error {
	gotClient := binary.LittleEndian.Uint32(resp.Data[0:])
	gotRequest := binary.LittleEndian.Uint32(resp.Data[4:])

	if int(gotClient) != client || int(gotRequest) != request {
		return fmt.Errorf("client %d request %d: got response for %d/%d",
			client, request, gotClient, gotRequest)
	}

	return nil
}
