package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/LeJamon/goXRPLmm/internal/maker"
	"github.com/LeJamon/goXRPLmm/internal/xrpl"
)

// setupCmd prepares the trading account for issuing.
var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Enable DefaultRipple on the trading account",
	Long: `One-time account preparation: set the DefaultRipple flag so issued
currencies can ripple between the agent's trust lines. Safe to run again on
an already configured account.`,
	RunE: runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadRuntime()
	if err != nil {
		return err
	}
	defer log.Sync()
	ctx := cmd.Context()

	client := xrpl.NewClient(cfg.Ledger.TradeEndpoint,
		xrpl.WithNetworkID(cfg.Agent.NetworkID),
		xrpl.WithLogger(log))
	if err := client.Connect(ctx); err != nil {
		return fmt.Errorf("connect trade endpoint %s: %w", cfg.Ledger.TradeEndpoint, err)
	}
	defer client.Close()

	submitter := maker.NewSubmitter(client, cfg.Agent.Seed, log)
	tx := &xrpl.AccountSet{
		TransactionType: "AccountSet",
		Account:         cfg.Agent.Account,
		SetFlag:         xrpl.AsfDefaultRipple,
	}
	result, err := submitter.SubmitWithRetry(ctx, tx)
	if err != nil {
		return fmt.Errorf("submit account setup: %w", err)
	}
	if !result.Succeeded() {
		return fmt.Errorf("account setup rejected: %s", result.EngineResult)
	}
	log.Info("default ripple enabled", zap.String("account", cfg.Agent.Account))
	return nil
}
