package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/LeJamon/goXRPLmm/internal/agent"
)

// watchCmd runs the full agent loop (default action).
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run the liquidity agent",
	Long: `Run the full agent loop: connect to both ledger endpoints, refresh the
rate oracle and reconcile resting offers on their schedules, and answer newly
opened trust lines from the account's transaction stream.

This is the default command when no subcommand is specified. The process
exits when either ledger connection drops; restarting is the supervisor's
job.`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	// Run the agent when invoked without a subcommand.
	rootCmd.RunE = runWatch
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadRuntime()
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return agent.New(cfg, log).Run(ctx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("agent stopped", zap.Error(err))
		return err
	}
	log.Info("agent shut down")
	return nil
}
