package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/sarchlab/kipc/monitoring"
	"github.com/sarchlab/kipc/system"
)

// buildSystem creates the system described by c.
func buildSystem(c config) *system.System {
	b := system.MakeBuilder().WithMaxPorts(c.MaxPorts)

	if c.Monitor {
		b = b.WithMonitoring().WithMonitorPort(c.MonitorPort)
	}

	if c.Record {
		b = b.WithRecording().WithOutputFileName(c.Output)
	}

	if c.Verbose {
		b = b.WithMsgLogger(log.New(os.Stderr, "", log.Lmicroseconds))
	}

	s := b.Build()

	if c.OpenBrowser {
		if err := monitoring.OpenBrowser(s.MonitorURL()); err != nil {
			fmt.Fprintf(os.Stderr, "Cannot open browser: %s\n", err)
		}
	}

	return s
}
