package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/sarchlab/kipc/monitoring"
	"github.com/sarchlab/kipc/sched"
	"github.com/sarchlab/kipc/workload"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var stressCmd = &cobra.Command{
	Use:   "stress",
	Short: "Hammer one port with concurrent clients.",
	Long: "`stress --servers S --clients C --requests R` runs S echo servers " +
		"and C clients that each send R requests, then checks every " +
		"response and reports the throughput.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) (err error) {
		flags := cmd.Flags()
		servers, _ := flags.GetInt("servers")
		clients, _ := flags.GetInt("clients")
		requests, _ := flags.GetInt("requests")
		linger, _ := flags.GetDuration("linger")

		if servers <= 0 || clients <= 0 {
			return errors.New("servers and clients must be positive")
		}

		s := buildSystem(cfg)
		defer func() { err = errors.Join(err, s.Terminate()) }()

		port, err := s.CreatePort("stress")
		if err != nil {
			return err
		}

		var serving errgroup.Group
		for i := 0; i < servers; i++ {
			srv := workload.NewServer(s.Kernel(),
				sched.NewThread(sched.ThreadID(i), 1, 1), port, workload.Echo)
			serving.Go(srv.Serve)
		}

		driver := workload.Driver{
			Kernel:       s.Kernel(),
			Port:         port,
			Clients:      clients,
			FirstProcess: 100,
			Requests:     requests,
			Check:        workload.CheckEcho,
		}

		var bar *monitoring.ProgressBar
		if m := s.Monitor(); m != nil {
			bar = m.CreateProgressBar("stress",
				uint64(clients)*uint64(requests))
			driver.Progress = bar
		}

		res, runErr := driver.Run(cmd.Context())

		fmt.Fprintf(cmd.OutOrStdout(),
			"%d responses in %s (%.0f msg/s)\n",
			res.Responded, res.Elapsed.Round(time.Microsecond),
			res.Throughput())

		if bar != nil && linger > 0 {
			fmt.Fprintf(cmd.ErrOrStderr(),
				"Keeping the monitor up for %s\n", linger)
			time.Sleep(linger)
			s.Monitor().CompleteProgressBar(bar)
		}

		if err := s.DestroyPort("stress"); err != nil {
			return err
		}

		if err := serving.Wait(); err != nil {
			return err
		}

		return runErr
	},
}

func init() {
	rootCmd.AddCommand(stressCmd)
	stressCmd.Flags().Int("servers", 2, "Number of echo servers")
	stressCmd.Flags().Int("clients", 16, "Number of concurrent clients")
	stressCmd.Flags().Int("requests", 1000, "Requests per client")
	stressCmd.Flags().Duration("linger", 0,
		"How long to keep the monitor up after the run")
}
