// Package watcher reacts to new trust lines opened against the agent's
// account. Each newly created credit line earns its counterparty a small
// starter payment sized by the current oracle rate, or an on-ledger notice
// when the currency has no rate at all.
package watcher

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/LeJamon/goXRPLmm/internal/amount"
	"github.com/LeJamon/goXRPLmm/internal/config"
	"github.com/LeJamon/goXRPLmm/internal/currency"
	"github.com/LeJamon/goXRPLmm/internal/oracle"
	"github.com/LeJamon/goXRPLmm/internal/xrpl"
)

// rewardFraction of the wall notional is gifted per new trust line, before
// the trust-limit cap.
const rewardFraction = 0.01

// noticeDrops is the symbolic amount attached to the unsupported-currency
// notice, one drop.
const noticeDrops = "1"

// noticeMemoType tags the memo on the unsupported-currency notice.
const noticeMemoType = "unsupported-currency"

// Refresher triggers one oracle refresh cycle.
type Refresher interface {
	Refresh(ctx context.Context)
}

// Reconciler triggers one offer reconciliation cycle.
type Reconciler interface {
	Reconcile(ctx context.Context)
}

// TxSubmitter submits a transaction with the bounded retry policy.
type TxSubmitter interface {
	SubmitWithRetry(ctx context.Context, tx any) (*xrpl.SubmitResult, error)
}

// Watcher inspects streamed transactions for trust lines newly extended to
// the agent and answers each with a reward payment.
type Watcher struct {
	account    string
	table      *oracle.RateTable
	supported  *config.SupportedStore
	refresher  Refresher
	reconciler Reconciler
	submitter  TxSubmitter
	wallXRP    float64
	log        *zap.Logger
}

// New builds a watcher for the given agent account.
func New(
	account string,
	table *oracle.RateTable,
	supported *config.SupportedStore,
	refresher Refresher,
	reconciler Reconciler,
	submitter TxSubmitter,
	wallXRP float64,
	log *zap.Logger,
) *Watcher {
	return &Watcher{
		account:    account,
		table:      table,
		supported:  supported,
		refresher:  refresher,
		reconciler: reconciler,
		submitter:  submitter,
		wallXRP:    wallXRP,
		log:        log,
	}
}

// newLine is one freshly created trust line extracted from transaction
// metadata.
type newLine struct {
	currency     string
	counterparty string
	limit        float64
}

// HandleTransaction processes one streamed transaction. Anything that goes
// wrong here is logged and swallowed so the stream subscription survives.
func (w *Watcher) HandleTransaction(event *xrpl.TransactionEvent) {
	defer func() {
		if r := recover(); r != nil {
			w.log.Error("panic while handling streamed transaction", zap.Any("panic", r))
		}
	}()

	if event == nil || !w.isTrustSetSuccess(event) {
		return
	}
	ctx := context.Background()
	for _, line := range extractNewLines(event.Meta, w.account) {
		w.handleNewLine(ctx, line)
	}
}

func (w *Watcher) isTrustSetSuccess(event *xrpl.TransactionEvent) bool {
	if event.EngineResult != xrpl.EngineResultSuccess || event.Meta == nil {
		return false
	}
	var tx struct {
		TransactionType string `json:"TransactionType"`
	}
	if err := json.Unmarshal(event.TransactionJSON(), &tx); err != nil {
		w.log.Debug("undecodable streamed transaction", zap.Error(err))
		return false
	}
	return tx.TransactionType == "TrustSet"
}

// extractNewLines walks the metadata for created trust-line entries with a
// balance object and returns the counterparty-side details of each.
func extractNewLines(meta *xrpl.TxMeta, account string) []newLine {
	var lines []newLine
	for _, node := range meta.AffectedNodes {
		created := node.CreatedNode
		if created == nil || created.LedgerEntryType != "RippleState" {
			continue
		}
		balance, ok := created.NewFields["Balance"].(map[string]any)
		if !ok {
			continue
		}
		code, _ := balance["currency"].(string)
		if code == "" {
			continue
		}
		// The limit pair straddles the line. The side whose issuer is not
		// the agent is the counterparty that just opened it.
		issuer, limit := limitSide(created.NewFields, "HighLimit")
		if issuer == account {
			issuer, limit = limitSide(created.NewFields, "LowLimit")
		}
		if issuer == "" {
			continue
		}
		lines = append(lines, newLine{currency: code, counterparty: issuer, limit: limit})
	}
	return lines
}

func limitSide(fields map[string]any, key string) (issuer string, limit float64) {
	side, ok := fields[key].(map[string]any)
	if !ok {
		return "", 0
	}
	issuer, _ = side["issuer"].(string)
	if raw, ok := side["value"].(string); ok {
		limit, _ = strconv.ParseFloat(raw, 64)
	}
	return issuer, limit
}

func (w *Watcher) handleNewLine(ctx context.Context, line newLine) {
	w.log.Info("new trust line opened",
		zap.String("currency", line.currency),
		zap.String("counterparty", line.counterparty),
		zap.Float64("limit", line.limit))

	rate, ok := w.table.Rate(line.currency)
	if !ok {
		rate, ok = w.resolveUnknown(ctx, line.currency)
	}
	if !ok {
		w.sendNotice(ctx, line)
		return
	}
	w.sendReward(ctx, line, rate)
}

// resolveUnknown registers the currency as supported and runs one refresh
// and reconcile pass inline, then re-checks the table.
func (w *Watcher) resolveUnknown(ctx context.Context, currencyCode string) (float64, bool) {
	if _, err := w.supported.Add(currencyCode); err != nil {
		w.log.Warn("could not persist supported currency", zap.String("currency", currencyCode), zap.Error(err))
	}
	w.refresher.Refresh(ctx)
	w.reconciler.Reconcile(ctx)
	return w.table.Rate(currencyCode)
}

// RewardAmount sizes the starter payment for a new trust line. The reward is
// a fixed fraction of the wall notional at the current rate, never more than
// half the counterparty's declared limit, and zero for a non-positive limit.
func RewardAmount(wallXRP, rate, trustLimit float64) float64 {
	if trustLimit <= 0 {
		return 0
	}
	reward := wallXRP * rewardFraction * rate
	if trustLimit/2 < reward {
		reward = trustLimit / 2
	}
	return reward
}

func (w *Watcher) sendReward(ctx context.Context, line newLine, rate float64) {
	reward := RewardAmount(w.wallXRP, rate, line.limit)
	if reward <= 0 {
		w.log.Info("zero reward, skipping payment",
			zap.String("currency", line.currency),
			zap.Float64("limit", line.limit))
		return
	}

	value := amount.Normalize(reward)
	w.log.Info("sending trust line reward",
		zap.String("currency", line.currency),
		zap.String("destination", line.counterparty),
		zap.String("value", value))

	tx := &xrpl.Payment{
		TransactionType: "Payment",
		Account:         w.account,
		Destination:     line.counterparty,
		Amount:          xrpl.IssuedAmount(line.currency, w.account, value),
	}
	if _, err := w.submitter.SubmitWithRetry(ctx, tx); err != nil {
		w.log.Warn("reward payment errored", zap.String("currency", line.currency), zap.Error(err))
	}
}

// sendNotice answers a trust line in a currency with no resolvable rate with
// a one-drop payment whose memo says so.
func (w *Watcher) sendNotice(ctx context.Context, line newLine) {
	name := currency.Normalize(line.currency)
	message := fmt.Sprintf("The currency %s is not yet supported by this agent.", name)
	if name != line.currency {
		message = fmt.Sprintf("The currency %s (%s) is not yet supported by this agent.", name, line.currency)
	}
	w.log.Info("unsupported currency, sending notice",
		zap.String("currency", line.currency),
		zap.String("destination", line.counterparty))

	tx := &xrpl.Payment{
		TransactionType: "Payment",
		Account:         w.account,
		Destination:     line.counterparty,
		Amount:          xrpl.DropsAmount(noticeDrops),
		Memos: []xrpl.Memo{{Memo: xrpl.MemoFields{
			MemoType: memoHex(noticeMemoType),
			MemoData: memoHex(message),
		}}},
	}
	if _, err := w.submitter.SubmitWithRetry(ctx, tx); err != nil {
		w.log.Warn("notice payment errored", zap.String("currency", line.currency), zap.Error(err))
	}
}

// memoHex encodes a memo field as uppercase hex UTF-8.
func memoHex(s string) string {
	return strings.ToUpper(hex.EncodeToString([]byte(s)))
}
