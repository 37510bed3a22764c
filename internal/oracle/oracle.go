package oracle

import (
	"context"
	"math"
	"strconv"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/LeJamon/goXRPLmm/internal/config"
	"github.com/LeJamon/goXRPLmm/internal/currency"
	"github.com/LeJamon/goXRPLmm/internal/xrpl"
)

// LinesClient is the slice of the ledger client the oracle needs.
type LinesClient interface {
	AccountLines(ctx context.Context, account string, limit int) (*xrpl.AccountLinesResult, error)
}

// Prices is the slice of the price feed the oracle needs.
type Prices interface {
	CurrentPrices(ctx context.Context) (map[string]float64, error)
}

// Oracle merges two rate sources into the shared RateTable: the trust-line
// limits of a well-known reference account, and the external price feed
// resolved through the supported-currency list. Each source fails
// independently; a failing source means no update from it this cycle, never
// a crash.
type Oracle struct {
	table     *RateTable
	lines     LinesClient
	feed      Prices
	supported *config.SupportedStore

	referenceAccount string
	lineLimit        int
	log              *zap.Logger

	running atomic.Bool
}

// New builds an oracle writing into table.
func New(
	table *RateTable,
	lines LinesClient,
	feed Prices,
	supported *config.SupportedStore,
	cfg config.OracleConfig,
	log *zap.Logger,
) *Oracle {
	return &Oracle{
		table:            table,
		lines:            lines,
		feed:             feed,
		supported:        supported,
		referenceAccount: cfg.ReferenceAccount,
		lineLimit:        cfg.LineLimit,
		log:              log,
	}
}

// Refresh runs both sources once. Overlapping invocations are collapsed: if
// a prior refresh is still in flight the call is skipped with a log line
// rather than run concurrently against the single-writer table.
func (o *Oracle) Refresh(ctx context.Context) {
	if !o.running.CompareAndSwap(false, true) {
		o.log.Warn("refresh still running, skipping this cycle")
		return
	}
	defer o.running.Store(false)

	o.refreshTrustLines(ctx)
	o.refreshFeed(ctx)
}

// refreshTrustLines is source A: every trust line of the reference account
// contributes |limit| as the rate for its currency.
func (o *Oracle) refreshTrustLines(ctx context.Context) {
	result, err := o.lines.AccountLines(ctx, o.referenceAccount, o.lineLimit)
	if err != nil {
		o.log.Error("trust-line source failed", zap.Error(err))
		return
	}

	updated := 0
	for _, line := range result.Lines {
		limit, err := strconv.ParseFloat(line.Limit, 64)
		if err != nil {
			o.log.Warn("skipping trust line with unparseable limit",
				zap.String("currency", line.Currency), zap.String("limit", line.Limit))
			continue
		}
		o.table.Set(line.Currency, math.Abs(limit))
		updated++
	}
	o.log.Debug("trust-line rates updated", zap.Int("count", updated))
}

// refreshFeed is source B: each supported-list symbol is normalized,
// case-folded and looked up in the feed document; hits overwrite the table
// entry keyed by the original symbol. Symbols that no longer resolve are
// pruned from the persisted list.
func (o *Oracle) refreshFeed(ctx context.Context) {
	prices, err := o.feed.CurrentPrices(ctx)
	if err != nil {
		o.log.Error("price-feed source failed", zap.Error(err))
		return
	}

	symbols := o.supported.Symbols()
	resolved := make([]string, 0, len(symbols))
	for _, symbol := range symbols {
		key := strings.ToLower(currency.Normalize(symbol))
		price, ok := prices[key]
		if !ok {
			o.log.Warn("supported currency no longer resolves in feed",
				zap.String("symbol", symbol), zap.String("feed_key", key))
			continue
		}
		o.table.Set(symbol, price)
		resolved = append(resolved, symbol)
	}

	if len(resolved) != len(symbols) {
		if _, err := o.supported.Replace(resolved); err != nil {
			o.log.Error("failed to persist pruned supported list", zap.Error(err))
		}
	}
	o.log.Debug("feed rates updated", zap.Int("count", len(resolved)))
}
