package workload_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/kipc/ipc"
	"github.com/sarchlab/kipc/monitoring"
	"github.com/sarchlab/kipc/portreg"
	"github.com/sarchlab/kipc/sched"
	"github.com/sarchlab/kipc/workload"
)

var _ = Describe("Server", func() {
	var (
		reg  *portreg.Registry
		k    *ipc.Kernel
		port ipc.PortID
	)

	BeforeEach(func() {
		reg = portreg.MakeBuilder().Build()
		k = ipc.NewKernel(ipc.Env{}, reg)
		port, _ = reg.Create()
	})

	serve := func(s *workload.Server) <-chan error {
		done := make(chan error, 1)
		go func() { done <- s.Serve() }()
		return done
	}

	It("should answer ping with pong", func() {
		s := workload.NewServer(k, sched.NewThread(1, 7, 0), port,
			workload.PingPong)
		done := serve(s)

		msg := &ipc.Message{}
		msg.SetPayload([]byte("ping"))
		Expect(k.Send(sched.NewThread(2, 8, 0), port, msg)).To(Succeed())

		Expect(string(msg.Out()[:4])).To(Equal("pong"))
		Expect(msg.PID).To(Equal(sched.ProcessID(7)))
		Expect(s.Served()).To(Equal(uint64(1)))

		Expect(reg.Destroy(port)).To(Succeed())
		Eventually(done).Should(Receive(BeNil()))
	})

	It("should echo other requests", func() {
		s := workload.NewServer(k, sched.NewThread(1, 7, 0), port,
			workload.PingPong)
		done := serve(s)

		msg := &ipc.Message{}
		msg.SetPayload([]byte("hello"))
		Expect(k.Send(sched.NewThread(2, 8, 0), port, msg)).To(Succeed())
		Expect(string(msg.Out()[:5])).To(Equal("hello"))

		Expect(reg.Destroy(port)).To(Succeed())
		Eventually(done).Should(Receive(BeNil()))
	})

	It("should stop with an error on an unknown port", func() {
		s := workload.NewServer(k, sched.NewThread(1, 7, 0), 42,
			workload.Echo)

		Expect(s.Serve()).To(MatchError(ipc.ErrInvalidPort))
	})
})

var _ = Describe("Driver", func() {
	var (
		reg  *portreg.Registry
		k    *ipc.Kernel
		port ipc.PortID
	)

	BeforeEach(func() {
		reg = portreg.MakeBuilder().Build()
		k = ipc.NewKernel(ipc.Env{}, reg)
		port, _ = reg.Create()
	})

	It("should run concurrent clients against several servers", func() {
		const servers = 3

		served := make(chan error, servers)
		for i := 0; i < servers; i++ {
			s := workload.NewServer(k,
				sched.NewThread(sched.ThreadID(100+i), 1, 0), port,
				workload.Echo)
			go func() { served <- s.Serve() }()
		}

		bar := monitoring.NewMonitor().CreateProgressBar("clients", 8*50)

		res, err := workload.Driver{
			Kernel:       k,
			Port:         port,
			Clients:      8,
			FirstProcess: 10,
			Requests:     50,
			Check:        workload.CheckEcho,
			Progress:     bar,
		}.Run(context.Background())

		Expect(err).NotTo(HaveOccurred())
		Expect(res.Responded).To(Equal(uint64(400)))
		Expect(res.Throughput()).To(BeNumerically(">", 0))

		snap := bar.Snapshot()
		Expect(snap.Finished).To(Equal(uint64(400)))
		Expect(snap.InProgress).To(BeZero())

		Expect(reg.Destroy(port)).To(Succeed())
		for i := 0; i < servers; i++ {
			Eventually(served).Should(Receive(BeNil()))
		}
	})

	It("should report a failed send", func() {
		Expect(reg.Destroy(port)).To(Succeed())

		res, err := workload.Driver{
			Kernel:   k,
			Port:     port,
			Clients:  2,
			Requests: 3,
		}.Run(context.Background())

		Expect(err).To(MatchError(ipc.ErrInvalidPort))
		Expect(res.Responded).To(BeZero())
	})

	It("should stop on a failed check", func() {
		s := workload.NewServer(k, sched.NewThread(1, 1, 0), port,
			workload.HandlerFunc(func(_, resp *ipc.Message) {
				resp.SetPayload([]byte{0xff, 0xff, 0xff, 0xff})
			}))
		done := make(chan error, 1)
		go func() { done <- s.Serve() }()

		_, err := workload.Driver{
			Kernel:   k,
			Port:     port,
			Clients:  1,
			Requests: 5,
			Check:    workload.CheckEcho,
		}.Run(context.Background())

		Expect(err).To(HaveOccurred())
		Expect(errors.Is(err, ipc.ErrPortClosed)).To(BeFalse())

		Expect(reg.Destroy(port)).To(Succeed())
		Eventually(done).Should(Receive(BeNil()))
	})

	It("should not start on a cancelled context", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		res, err := workload.Driver{
			Kernel:   k,
			Port:     port,
			Clients:  4,
			Requests: 10,
		}.Run(ctx)

		Expect(err).To(MatchError(context.Canceled))
		Expect(res.Responded).To(BeZero())
	})
})
