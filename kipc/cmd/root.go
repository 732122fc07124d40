// Package cmd provides the command-line interface of kipc.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
)

var cfg config

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "kipc",
	Short: "kipc runs message-passing workloads on an in-process kernel.",
	Long: `kipc runs message-passing workloads on an in-process kernel. ` +
		`Runs can be watched live with the web monitor and recorded into ` +
		`a SQLite trace that the trace command reads back.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		var err error

		cfg, err = loadConfig(cmd.Flags())

		return err
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String(flagEnvFile, ".env", "File to read KIPC_* defaults from")
	flags.Bool(flagMonitor, false, "Serve the web monitor")
	flags.Int(flagMonitorPort, 0, "TCP port of the web monitor")
	flags.Bool(flagOpenBrowser, false, "Open the web monitor in a browser")
	flags.Bool(flagRecord, false, "Record message events into a SQLite file")
	flags.String(flagOutput, "", "Recording file name without extension")
	flags.Int(flagMaxPorts, 64, "Size of the port table")
	flags.Bool(flagVerbose, false, "Log every message event to stderr")
}

// Execute adds all child commands to the root command and sets flags
// appropriately. It exits through atexit so that recordings are flushed.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		atexit.Exit(1)
	}

	atexit.Exit(0)
}
