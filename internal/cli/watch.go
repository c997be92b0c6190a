package cli

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

func newWatchCmd() *cobra.Command {
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch the environment files and report health continuously",
		Long: `Watch the managed files for changes and re-run the health check on
every change, plus on a periodic interval as a safety net. Health
transitions and drift are logged as they happen.

Press Ctrl-C to stop.

Examples:
  envctl watch
  envctl watch --interval 30s`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := newMonitor()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			fmt.Printf("Watching %s for changes. Press Ctrl-C to stop.\n", resolveProjectDir())
			return m.Watch(ctx, interval)
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", 0, "Periodic re-check interval (default from policy)")

	return cmd
}
