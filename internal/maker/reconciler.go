package maker

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/LeJamon/goXRPLmm/internal/amount"
	"github.com/LeJamon/goXRPLmm/internal/config"
	"github.com/LeJamon/goXRPLmm/internal/oracle"
	"github.com/LeJamon/goXRPLmm/internal/xrpl"
)

// OffersClient is the slice of the ledger client the reconciler needs.
type OffersClient interface {
	AccountOffers(ctx context.Context, account string, limit int) (*xrpl.AccountOffersResult, error)
}

// TxSubmitter submits a transaction under the bounded-retry contract.
type TxSubmitter interface {
	SubmitWithRetry(ctx context.Context, tx any) (*xrpl.SubmitResult, error)
}

// Reconciler walks the rate table each cycle and converges the account's
// resting offers toward one sell wall and one buy wall per currency, priced
// a fixed spread around the oracle rate.
type Reconciler struct {
	account   string
	table     *oracle.RateTable
	offers    OffersClient
	submitter TxSubmitter
	cfg       config.MakerConfig
	log       *zap.Logger

	running atomic.Bool
}

// NewReconciler builds a reconciler for the given account.
func NewReconciler(
	account string,
	table *oracle.RateTable,
	offers OffersClient,
	submitter TxSubmitter,
	cfg config.MakerConfig,
	log *zap.Logger,
) *Reconciler {
	return &Reconciler{
		account:   account,
		table:     table,
		offers:    offers,
		submitter: submitter,
		cfg:       cfg,
		log:       log,
	}
}

// Reconcile runs one full pass. Overlapping invocations are collapsed with a
// skip, the same policy the oracle applies to its refresh cycles. A currency
// with no rate is never touched: stale offers for unsupported currencies are
// someone else's cleanup.
func (r *Reconciler) Reconcile(ctx context.Context) {
	if !r.running.CompareAndSwap(false, true) {
		r.log.Warn("reconciliation still running, skipping this cycle")
		return
	}
	defer r.running.Store(false)

	result, err := r.offers.AccountOffers(ctx, r.account, r.cfg.OfferLimit)
	if err != nil {
		r.log.Error("failed to query resting offers", zap.Error(err))
		return
	}

	for _, currencyCode := range r.table.Currencies() {
		rate, ok := r.table.Rate(currencyCode)
		if !ok || rate <= 0 {
			continue
		}

		decision := Decide(currencyCode, rate, result.Offers, r.cfg.WallAmountXRP, r.cfg.ToleranceFor(currencyCode))
		if !decision.Refresh {
			continue
		}

		r.log.Info("refreshing walls",
			zap.String("currency", currencyCode),
			zap.Float64("rate", rate),
			zap.Uint32("sell_replace_seq", decision.SellReplaceSeq),
			zap.Uint32("buy_replace_seq", decision.BuyReplaceSeq))
		r.apply(ctx, currencyCode, rate, decision)
	}
}

// apply executes one currency's decision: place both walls (replacing in
// place where a sequence was chosen), then cancel leftover duplicates. Every
// mutating call is preceded by the pacing delay so each lands in its own
// sequence slot.
func (r *Reconciler) apply(ctx context.Context, currencyCode string, rate float64, decision Decision) {
	r.pace(ctx)
	r.placeSell(ctx, currencyCode, rate*(1-r.cfg.Spread), decision.SellReplaceSeq)

	r.pace(ctx)
	r.placeBuy(ctx, currencyCode, rate*(1+r.cfg.Spread), decision.BuyReplaceSeq)

	for _, seq := range decision.ExtraSellCancels {
		r.pace(ctx)
		r.cancel(ctx, seq)
	}
	for _, seq := range decision.ExtraBuyCancels {
		r.pace(ctx)
		r.cancel(ctx, seq)
	}
}

// placeSell offers the currency against the full wall of base asset.
func (r *Reconciler) placeSell(ctx context.Context, currencyCode string, rate float64, replaceSeq uint32) {
	value := amount.Normalize(r.cfg.WallAmountXRP * rate)
	tx := &xrpl.OfferCreate{
		TransactionType: "OfferCreate",
		Account:         r.account,
		TakerGets:       xrpl.IssuedAmount(currencyCode, r.account, value),
		TakerPays:       xrpl.DropsAmount(amount.XRPToDrops(r.cfg.WallAmountXRP)),
		Flags:           xrpl.TfSell,
		OfferSequence:   replaceSeq,
	}
	if _, err := r.submitter.SubmitWithRetry(ctx, tx); err != nil {
		r.log.Debug("sell wall submission errored", zap.String("currency", currencyCode), zap.Error(err))
	}
}

// placeBuy offers the full wall of base asset against the currency.
func (r *Reconciler) placeBuy(ctx context.Context, currencyCode string, rate float64, replaceSeq uint32) {
	value := amount.Normalize(r.cfg.WallAmountXRP * rate)
	tx := &xrpl.OfferCreate{
		TransactionType: "OfferCreate",
		Account:         r.account,
		TakerGets:       xrpl.DropsAmount(amount.XRPToDrops(r.cfg.WallAmountXRP)),
		TakerPays:       xrpl.IssuedAmount(currencyCode, r.account, value),
		OfferSequence:   replaceSeq,
	}
	if _, err := r.submitter.SubmitWithRetry(ctx, tx); err != nil {
		r.log.Debug("buy wall submission errored", zap.String("currency", currencyCode), zap.Error(err))
	}
}

// cancel removes one leftover duplicate offer.
func (r *Reconciler) cancel(ctx context.Context, seq uint32) {
	tx := &xrpl.OfferCancel{
		TransactionType: "OfferCancel",
		Account:         r.account,
		OfferSequence:   seq,
	}
	if _, err := r.submitter.SubmitWithRetry(ctx, tx); err != nil {
		r.log.Debug("offer cancel errored", zap.Uint32("seq", seq), zap.Error(err))
	}
}

// pace waits the configured inter-call delay, honoring cancellation.
func (r *Reconciler) pace(ctx context.Context) {
	if r.cfg.PacingDelay <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(r.cfg.PacingDelay):
	}
}
