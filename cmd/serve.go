package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func newServeCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the task API on APP_PORT",
		Long: `Boot every provider and serve the task API until interrupted.

Examples:
  planteuf serve
  APP_PORT=9000 planteuf serve --env-file .env.production
  planteuf serve --config planteuf.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			a, err := newApplication(opts)
			if err != nil {
				return err
			}
			defer func() {
				if closeErr := a.Close(); closeErr != nil && err == nil {
					err = closeErr
				}
			}()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.Run(ctx)
		},
	}
}
