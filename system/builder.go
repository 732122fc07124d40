package system

import (
	"log"

	"github.com/rs/xid"
	"github.com/sarchlab/kipc/datarecording"
	"github.com/sarchlab/kipc/hooking"
	"github.com/sarchlab/kipc/ipc"
	"github.com/sarchlab/kipc/monitoring"
	"github.com/sarchlab/kipc/portreg"
	"github.com/sarchlab/kipc/tracing"
)

// Builder can be used to build a System.
type Builder struct {
	env            ipc.Env
	maxPorts       int
	monitorOn      bool
	monitorPort    int
	recordOn       bool
	outputFileName string
	logger         *log.Logger
}

// MakeBuilder creates a builder with monitoring and recording turned off.
func MakeBuilder() Builder {
	return Builder{
		maxPorts: 64,
	}
}

// WithEnv sets the kernel memory map references.
func (b Builder) WithEnv(env ipc.Env) Builder {
	b.env = env
	return b
}

// WithMaxPorts sets the size of the port table.
func (b Builder) WithMaxPorts(n int) Builder {
	b.maxPorts = n
	return b
}

// WithMonitoring turns on the web monitor.
func (b Builder) WithMonitoring() Builder {
	b.monitorOn = true
	return b
}

// WithMonitorPort sets the TCP port of the monitoring server.
func (b Builder) WithMonitorPort(port int) Builder {
	b.monitorPort = port
	return b
}

// WithRecording records every message lifecycle event into a SQLite file.
func (b Builder) WithRecording() Builder {
	b.recordOn = true
	return b
}

// WithOutputFileName sets the recording file name, without the .sqlite3
// suffix.
func (b Builder) WithOutputFileName(filename string) Builder {
	b.outputFileName = filename
	return b
}

// WithMsgLogger logs every message lifecycle event into logger.
func (b Builder) WithMsgLogger(logger *log.Logger) Builder {
	b.logger = logger
	return b
}

func (b Builder) parametersMustBeValid() {
	if !b.monitorOn && b.monitorPort != 0 {
		panic("monitor port cannot be set when monitoring is disabled")
	}

	if !b.recordOn && b.outputFileName != "" {
		panic("output file cannot be set when recording is disabled")
	}
}

// Build builds the system. The monitor, if enabled, is already serving when
// Build returns.
func (b Builder) Build() *System {
	b.parametersMustBeValid()

	s := &System{
		id:        xid.New().String(),
		nameIndex: make(map[string]ipc.PortID),
	}

	var hooks []hooking.Hook

	if b.recordOn {
		outputPath := b.outputFileName
		if outputPath == "" {
			outputPath = "kipc_" + s.id
		}

		s.recorder = datarecording.New(outputPath)
		s.tracer = tracing.NewMsgTracer(s.recorder)
		hooks = append(hooks, s.tracer)
	}

	if b.logger != nil {
		hooks = append(hooks, ipc.NewMsgLogger(b.logger))
	}

	regBuilder := portreg.MakeBuilder().WithMaxPorts(b.maxPorts)
	for _, h := range hooks {
		regBuilder = regBuilder.WithHook(h)
	}

	s.registry = regBuilder.Build()
	s.kernel = ipc.NewKernel(b.env, s.registry)

	if b.monitorOn {
		s.monitor = monitoring.NewMonitor()
		if b.monitorPort > 0 {
			s.monitor.WithPortNumber(b.monitorPort)
		}

		s.monitor.RegisterPorts(s.registry)
		s.monitorURL = s.monitor.StartServer()
	}

	return s
}
