package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

const (
	flagEnvFile     = "env-file"
	flagMonitor     = "monitor"
	flagMonitorPort = "monitor-port"
	flagOpenBrowser = "open-browser"
	flagRecord      = "record"
	flagOutput      = "output"
	flagMaxPorts    = "max-ports"
	flagVerbose     = "verbose"
)

// envOf maps flags to the environment variables that provide their defaults.
var envOf = map[string]string{
	flagMonitor:     "KIPC_MONITOR",
	flagMonitorPort: "KIPC_MONITOR_PORT",
	flagOpenBrowser: "KIPC_OPEN_BROWSER",
	flagRecord:      "KIPC_RECORD",
	flagOutput:      "KIPC_OUTPUT",
	flagMaxPorts:    "KIPC_MAX_PORTS",
	flagVerbose:     "KIPC_VERBOSE",
}

type config struct {
	Monitor     bool
	MonitorPort int
	OpenBrowser bool
	Record      bool
	Output      string
	MaxPorts    int
	Verbose     bool
}

// loadConfig reads the flags. A flag the user did not set takes its value
// from the environment, which the env file fills without overriding
// variables that are already set.
func loadConfig(flags *pflag.FlagSet) (config, error) {
	envFile, err := flags.GetString(flagEnvFile)
	if err != nil {
		return config{}, err
	}

	err = godotenv.Load(envFile)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return config{}, fmt.Errorf("loading %s: %w", envFile, err)
	}

	for flag, env := range envOf {
		f := flags.Lookup(flag)
		if f == nil || f.Changed {
			continue
		}

		value, ok := os.LookupEnv(env)
		if !ok {
			continue
		}

		if err := f.Value.Set(value); err != nil {
			return config{}, fmt.Errorf("%s=%q: %w", env, value, err)
		}
	}

	var c config

	c.Monitor, _ = flags.GetBool(flagMonitor)
	c.MonitorPort, _ = flags.GetInt(flagMonitorPort)
	c.OpenBrowser, _ = flags.GetBool(flagOpenBrowser)
	c.Record, _ = flags.GetBool(flagRecord)
	c.Output, _ = flags.GetString(flagOutput)
	c.MaxPorts, _ = flags.GetInt(flagMaxPorts)
	c.Verbose, _ = flags.GetBool(flagVerbose)

	return c, c.validate()
}

func (c config) validate() error {
	if c.MonitorPort != 0 && !c.Monitor {
		return errors.New("--" + flagMonitorPort + " needs --" + flagMonitor)
	}

	if c.OpenBrowser && !c.Monitor {
		return errors.New("--" + flagOpenBrowser + " needs --" + flagMonitor)
	}

	if c.Output != "" && !c.Record {
		return errors.New("--" + flagOutput + " needs --" + flagRecord)
	}

	if c.MaxPorts <= 0 {
		return errors.New("--" + flagMaxPorts + " must be positive, got " +
			strconv.Itoa(c.MaxPorts))
	}

	return nil
}
