package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/LeJamon/goXRPLmm/internal/maker"
	"github.com/LeJamon/goXRPLmm/internal/xrpl"
)

// cancelOffersCmd wipes every resting offer of the trading account.
var cancelOffersCmd = &cobra.Command{
	Use:   "cancel-offers",
	Short: "Cancel all resting offers of the trading account",
	Long: `Query the full resting-offer list and cancel every entry one by one,
spaced by the configured pacing delay. Useful before retiring an account or
reconfiguring the wall sizes from scratch.`,
	RunE: runCancelOffers,
}

func init() {
	rootCmd.AddCommand(cancelOffersCmd)
}

func runCancelOffers(cmd *cobra.Command, args []string) error {
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

	result, err := client.AccountOffers(ctx, cfg.Agent.Account, cfg.Maker.OfferLimit)
	if err != nil {
		return fmt.Errorf("query resting offers: %w", err)
	}
	if len(result.Offers) == 0 {
		log.Info("no resting offers to cancel")
		return nil
	}

	submitter := maker.NewSubmitter(client, cfg.Agent.Seed, log)
	cancelled := 0
	for _, offer := range result.Offers {
		if err := pace(ctx, cfg.Maker.PacingDelay); err != nil {
			return err
		}
		tx := &xrpl.OfferCancel{
			TransactionType: "OfferCancel",
			Account:         cfg.Agent.Account,
			OfferSequence:   offer.Seq,
		}
		if _, err := submitter.SubmitWithRetry(ctx, tx); err != nil {
			log.Warn("cancel errored", zap.Uint32("seq", offer.Seq), zap.Error(err))
			continue
		}
		cancelled++
	}
	log.Info("offers cancelled", zap.Int("count", cancelled), zap.Int("total", len(result.Offers)))
	return nil
}

func pace(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	select {
	case <-time.After(delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
