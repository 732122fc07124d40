package system_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/kipc/datarecording"
	"github.com/sarchlab/kipc/ipc"
	"github.com/sarchlab/kipc/portreg"
	"github.com/sarchlab/kipc/sched"
	"github.com/sarchlab/kipc/system"
	"github.com/sarchlab/kipc/tracing"
)

var _ = Describe("Builder", func() {
	It("should refuse inconsistent options", func() {
		Expect(func() {
			system.MakeBuilder().WithMonitorPort(8080).Build()
		}).To(Panic())

		Expect(func() {
			system.MakeBuilder().WithOutputFileName("x").Build()
		}).To(Panic())

		Expect(func() {
			system.MakeBuilder().WithMaxPorts(0).Build()
		}).To(Panic())
	})

	It("should build a bare system", func() {
		s := system.MakeBuilder().
			WithEnv(ipc.Env{KernelMap: &ipc.MemoryRegion{Name: "kmap"}}).
			Build()
		defer s.Terminate()

		Expect(s.ID()).NotTo(BeEmpty())
		Expect(s.Kernel().Env().KernelMap.Name).To(Equal("kmap"))
		Expect(s.Recorder()).To(BeNil())
		Expect(s.Tracer()).To(BeNil())
		Expect(s.Monitor()).To(BeNil())
		Expect(s.MonitorURL()).To(BeEmpty())
	})
})

var _ = Describe("System", func() {
	var s *system.System

	AfterEach(func() {
		Expect(s.Terminate()).To(Succeed())
	})

	It("should bind ports to names", func() {
		s = system.MakeBuilder().WithMaxPorts(2).Build()

		echo, err := s.CreatePort("echo")
		Expect(err).NotTo(HaveOccurred())

		_, err = s.CreatePort("echo")
		Expect(err).To(HaveOccurred())

		_, err = s.CreatePort("log")
		Expect(err).NotTo(HaveOccurred())

		_, err = s.CreatePort("fs")
		Expect(err).To(MatchError(portreg.ErrNoSpace))

		id, ok := s.PortByName("echo")
		Expect(ok).To(BeTrue())
		Expect(id).To(Equal(echo))

		Expect(s.DestroyPort("echo")).To(Succeed())
		_, ok = s.PortByName("echo")
		Expect(ok).To(BeFalse())
		Expect(s.DestroyPort("echo")).To(MatchError(ipc.ErrInvalidPort))
	})

	It("should bind well-known ids", func() {
		s = system.MakeBuilder().Build()

		Expect(s.CreatePortWithID("pingpong", 7)).To(Succeed())
		Expect(s.CreatePortWithID("other", 7)).
			To(MatchError(portreg.ErrPortInUse))

		id, ok := s.PortByName("pingpong")
		Expect(ok).To(BeTrue())
		Expect(id).To(Equal(ipc.PortID(7)))
		_, ok = s.PortByName("other")
		Expect(ok).To(BeFalse())
	})

	It("should reject waiting senders on terminate", func() {
		s = system.MakeBuilder().Build()
		id, _ := s.CreatePort("echo")

		done := make(chan error, 1)
		go func() {
			done <- s.Kernel().Send(sched.NewThread(1, 1, 0), id, &ipc.Message{})
		}()

		p, _ := s.Registry().Lookup(id)
		Eventually(func() int { return p.Stats().Pending }).Should(Equal(1))

		Expect(s.Terminate()).To(Succeed())
		Eventually(done).Should(Receive(MatchError(ipc.ErrRejected)))
		Expect(s.Registry().Ports()).To(BeEmpty())
	})

	It("should log message events", func() {
		buf := new(bytes.Buffer)
		s = system.MakeBuilder().WithMsgLogger(log.New(buf, "", 0)).Build()

		_, err := s.CreatePort("echo")
		Expect(err).NotTo(HaveOccurred())
		Expect(s.DestroyPort("echo")).To(Succeed())

		Expect(buf.String()).To(Equal("Port0,Port Close\n"))
	})

	It("should record message events", func() {
		path := filepath.Join(GinkgoT().TempDir(), "run")
		s = system.MakeBuilder().
			WithRecording().
			WithOutputFileName(path).
			Build()
		Expect(s.Tracer()).NotTo(BeNil())

		id, _ := s.CreatePort("echo")
		done := make(chan error, 1)
		go func() {
			done <- s.Kernel().Send(sched.NewThread(1, 1, 0), id, &ipc.Message{})
		}()

		var in ipc.Message
		server := sched.NewThread(2, 2, 0)
		h, err := s.Kernel().Recv(server, id, &in)
		Expect(err).NotTo(HaveOccurred())
		Expect(s.Kernel().Respond(server, h, &ipc.Message{})).To(Succeed())
		Eventually(done).Should(Receive(BeNil()))

		Expect(s.Terminate()).To(Succeed())

		reader := tracing.NewTraceReader(
			datarecording.NewReader(path + ".sqlite3"))
		counts, err := reader.CountByPos(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(counts[ipc.HookPosMsgRespond.Name]).To(Equal(1))
		Expect(counts[ipc.HookPosPortClose.Name]).To(Equal(1))
	})

	It("should serve the monitor", func() {
		s = system.MakeBuilder().WithMonitoring().Build()
		_, err := s.CreatePort("echo")
		Expect(err).NotTo(HaveOccurred())

		rsp, err := http.Get(s.MonitorURL() + "/api/ports")
		Expect(err).NotTo(HaveOccurred())
		defer rsp.Body.Close()

		var stats []ipc.Stats
		Expect(json.NewDecoder(rsp.Body).Decode(&stats)).To(Succeed())
		Expect(stats).To(HaveLen(1))
	})
})
