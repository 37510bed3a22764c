// Package agent assembles the full liquidity-provisioning loop: rate oracle,
// offer reconciler, trust-line watcher and the optional balance refiller, all
// driven by second-aligned schedules over two ledger connections.
package agent

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/LeJamon/goXRPLmm/internal/config"
	"github.com/LeJamon/goXRPLmm/internal/maker"
	"github.com/LeJamon/goXRPLmm/internal/oracle"
	"github.com/LeJamon/goXRPLmm/internal/watcher"
	"github.com/LeJamon/goXRPLmm/internal/xrpl"
)

// Schedules with a seconds field. Refresh fires on the minute, reconcile ten
// seconds later so each cycle works from a fresh table.
const (
	refreshSchedule   = "0 * * * * *"
	reconcileSchedule = "10 * * * * *"
	refillSchedule    = "*/10 * * * * *"
)

// Agent owns the two ledger connections and the scheduled cycles.
type Agent struct {
	cfg *config.Config
	log *zap.Logger
}

// New builds an agent from validated configuration.
func New(cfg *config.Config, log *zap.Logger) *Agent {
	return &Agent{cfg: cfg, log: log}
}

// Run connects, performs one initial refresh and reconcile pass, subscribes
// to the trading account's transaction stream and then lets the schedules
// drive. It returns when the context is cancelled or when either ledger
// connection drops. Connection loss is fatal on purpose: the process exits
// and the supervisor restarts it with a clean slate.
func (a *Agent) Run(ctx context.Context) error {
	supported, err := config.LoadSupported(a.cfg.Oracle.SupportedFile)
	if err != nil {
		return fmt.Errorf("load supported currencies: %w", err)
	}

	live := xrpl.NewClient(a.cfg.Ledger.LiveEndpoint,
		xrpl.WithLogger(a.log.Named("live")))
	trade := xrpl.NewClient(a.cfg.Ledger.TradeEndpoint,
		xrpl.WithNetworkID(a.cfg.Agent.NetworkID),
		xrpl.WithLogger(a.log.Named("trade")))

	if err := live.Connect(ctx); err != nil {
		return fmt.Errorf("connect live endpoint %s: %w", a.cfg.Ledger.LiveEndpoint, err)
	}
	defer live.Close()
	if err := trade.Connect(ctx); err != nil {
		return fmt.Errorf("connect trade endpoint %s: %w", a.cfg.Ledger.TradeEndpoint, err)
	}
	defer trade.Close()

	table := oracle.NewRateTable()
	rateOracle := oracle.New(table, live, oracle.NewFeed(a.cfg.Oracle.FeedURL),
		supported, a.cfg.Oracle, a.log.Named("oracle"))
	submitter := maker.NewSubmitter(trade, a.cfg.Agent.Seed, a.log.Named("submitter"))
	reconciler := maker.NewReconciler(a.cfg.Agent.Account, table, trade, submitter,
		a.cfg.Maker, a.log.Named("maker"))
	trustWatcher := watcher.New(a.cfg.Agent.Account, table, supported,
		rateOracle, reconciler, submitter, a.cfg.Maker.WallAmountXRP, a.log.Named("watcher"))

	// Prime the table and the book before the stream starts delivering.
	rateOracle.Refresh(ctx)
	reconciler.Reconcile(ctx)

	trade.OnTransaction(trustWatcher.HandleTransaction)
	if err := trade.SubscribeAccounts(ctx, a.cfg.Agent.Account); err != nil {
		return fmt.Errorf("subscribe to account stream: %w", err)
	}

	scheduler := cron.New(cron.WithSeconds())
	if _, err := scheduler.AddFunc(refreshSchedule, func() {
		rateOracle.Refresh(context.Background())
	}); err != nil {
		return fmt.Errorf("schedule oracle refresh: %w", err)
	}
	if _, err := scheduler.AddFunc(reconcileSchedule, func() {
		reconciler.Reconcile(context.Background())
	}); err != nil {
		return fmt.Errorf("schedule reconciliation: %w", err)
	}
	if a.cfg.Faucet.URL != "" {
		refill := newRefiller(trade, a.cfg.Agent.Account, a.cfg.Faucet, a.log.Named("refill"))
		if _, err := scheduler.AddFunc(refillSchedule, func() {
			refill.Check(context.Background())
		}); err != nil {
			return fmt.Errorf("schedule balance refill: %w", err)
		}
	}
	scheduler.Start()
	defer scheduler.Stop()

	a.log.Info("agent running",
		zap.String("account", a.cfg.Agent.Account),
		zap.Int("currencies", table.Len()))

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-live.Done():
		return fmt.Errorf("live ledger connection lost: %w", live.Err())
	case <-trade.Done():
		return fmt.Errorf("trade ledger connection lost: %w", trade.Err())
	}
}

// RunRefiller runs only the balance refiller, for operating the faucet loop
// as its own process next to the main agent. Same crash-only contract as
// Run.
func RunRefiller(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	if cfg.Faucet.URL == "" {
		return fmt.Errorf("no faucet URL configured")
	}

	trade := xrpl.NewClient(cfg.Ledger.TradeEndpoint,
		xrpl.WithLogger(log.Named("trade")))
	if err := trade.Connect(ctx); err != nil {
		return fmt.Errorf("connect trade endpoint %s: %w", cfg.Ledger.TradeEndpoint, err)
	}
	defer trade.Close()

	refill := newRefiller(trade, cfg.Agent.Account, cfg.Faucet, log.Named("refill"))
	refill.Check(ctx)

	scheduler := cron.New(cron.WithSeconds())
	if _, err := scheduler.AddFunc(refillSchedule, func() {
		refill.Check(context.Background())
	}); err != nil {
		return fmt.Errorf("schedule balance refill: %w", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-trade.Done():
		return fmt.Errorf("trade ledger connection lost: %w", trade.Err())
	}
}
