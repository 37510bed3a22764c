package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/LeJamon/goXRPLmm/internal/agent"
)

// refillCmd runs the balance refiller on its own.
var refillCmd = &cobra.Command{
	Use:   "refill",
	Short: "Keep the testnet account funded from the faucet",
	Long: `Watch the trading account's balance and request a faucet top-up whenever
it sinks below the configured floor. Meant for testnet operation as a
standalone process next to the main agent.`,
	RunE: runRefill,
}

func init() {
	rootCmd.AddCommand(refillCmd)
}

func runRefill(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadRuntime()
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := agent.RunRefiller(ctx, cfg, log); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("refiller stopped", zap.Error(err))
		return err
	}
	log.Info("refiller shut down")
	return nil
}
