package cmd

import (
	"fmt"
	"os"

	"github.com/sarchlab/kipc/datarecording"
	"github.com/sarchlab/kipc/hooking"
	"github.com/sarchlab/kipc/ipc"
	"github.com/sarchlab/kipc/tracing"
	"github.com/spf13/cobra"
)

var traceCmd = &cobra.Command{
	Use:   "trace FILE",
	Short: "Print the message events of a recording.",
	Long: "`trace FILE [--port N] [--limit N]` prints the events recorded " +
		"with --record, followed by the number of events per position.",
	Args: cobra.ExactArgs(1),
	// Reading a trace needs none of the run options.
	PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		port, _ := cmd.Flags().GetInt("port")
		limit, _ := cmd.Flags().GetInt("limit")

		if _, err := os.Stat(args[0]); err != nil {
			return err
		}

		reader := datarecording.NewReader(args[0])
		defer reader.Close()

		traces := tracing.NewTraceReader(reader)

		query := tracing.EventQuery{Limit: limit}
		if port >= 0 {
			query.Port = ipc.PortID(port)
			query.HasPort = true
		}

		events, total, err := traces.Events(cmd.Context(), query)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()

		fmt.Fprintf(out, "%-20s %-12s %6s %5s %5s %5s %4s %s\n",
			"time", "pos", "msg", "port", "type", "src", "prio", "state")

		for _, e := range events {
			fmt.Fprintf(out, "%-20d %-12s %6d %5d %5d %5d %4d %s\n",
				e.Time, e.Pos, e.MsgID, e.Port, e.Type, e.Src, e.Priority,
				e.State)
		}

		fmt.Fprintf(out, "%d of %d events\n", len(events), total)

		counts, err := traces.CountByPos(cmd.Context())
		if err != nil {
			return err
		}

		for _, pos := range []*hooking.HookPos{
			ipc.HookPosMsgSend,
			ipc.HookPosMsgRecv,
			ipc.HookPosMsgRespond,
			ipc.HookPosMsgReject,
			ipc.HookPosPortClose,
		} {
			fmt.Fprintf(out, "%-12s %d\n", pos.Name, counts[pos.Name])
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(traceCmd)
	traceCmd.Flags().Int("port", -1, "Only show events of this port")
	traceCmd.Flags().Int("limit", 0, "Maximum number of events to show")
}
