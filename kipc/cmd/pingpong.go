package cmd

import (
	"errors"
	"fmt"

	"github.com/sarchlab/kipc/ipc"
	"github.com/sarchlab/kipc/sched"
	"github.com/sarchlab/kipc/workload"
	"github.com/spf13/cobra"
)

const (
	pingPongPort    = 7
	pingPongServer  = sched.ProcessID(1)
	pingPongClient  = sched.ProcessID(2)
	pingPongService = "pingpong"
)

var pingpongCmd = &cobra.Command{
	Use:   "pingpong",
	Short: "Exchange ping and pong between a client and a server.",
	Long: "`pingpong --count N` starts a server on port 7 and sends it N " +
		"pings, printing every answer.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) (err error) {
		count, _ := cmd.Flags().GetInt("count")

		s := buildSystem(cfg)
		defer func() { err = errors.Join(err, s.Terminate()) }()
		k := s.Kernel()

		port := ipc.PortID(pingPongPort)
		if err := s.CreatePortWithID(pingPongService, port); err != nil {
			return err
		}

		server := workload.NewServer(k,
			sched.NewThread(1, pingPongServer, 1), port, workload.PingPong)

		served := make(chan error, 1)
		go func() { served <- server.Serve() }()

		client := sched.NewThread(2, pingPongClient, 4)

		for i := 0; i < count; i++ {
			msg := &ipc.Message{}
			msg.SetPayload([]byte("ping"))

			if err := k.Send(client, port, msg); err != nil {
				return fmt.Errorf("ping %d: %w", i, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s from pid %d\n",
				cString(msg.Out()), msg.PID)
		}

		if err := s.DestroyPort(pingPongService); err != nil {
			return err
		}

		return <-served
	},
}

func init() {
	rootCmd.AddCommand(pingpongCmd)
	pingpongCmd.Flags().Int("count", 1, "Number of pings to send")
}

func cString(b []byte) string {
	n := 0
	for n < len(b) && b[n] != 0 {
		n++
	}

	return string(b[:n])
}
