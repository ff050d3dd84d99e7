package worker

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jespino/bookmap/internal/app"
	"github.com/jespino/bookmap/pkg/worker"
)

func WorkerCmd() *cobra.Command {
	return &cobra.Command{
		Use:    "worker",
		Short:  "Serve layout requests over stdin/stdout",
		Hidden: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := app.Load(cmd)
			if err != nil {
				return err
			}
			defer env.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger := env.Logger.With().Str("component", "worker").Int("pid", os.Getpid()).Logger()
			logger.Debug().Msg("worker started")
			defer logger.Debug().Msg("worker stopped")

			return worker.Serve(ctx, os.Stdin, os.Stdout, env.Pipeline())
		},
	}
}
