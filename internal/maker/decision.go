// Package maker keeps the agent's resting offers reconciled against the
// oracle rate: one sell and one buy wall per currency, replaced in place when
// they drift and collapsed when duplicates appear.
package maker

import (
	"math"

	"github.com/LeJamon/goXRPLmm/internal/amount"
	"github.com/LeJamon/goXRPLmm/internal/xrpl"
)

// Decision is the per-currency outcome of one reconciliation pass. Sequence
// numbers consumed for replace-by-sequence never reappear in the cancel
// lists.
type Decision struct {
	// Refresh means both walls are re-placed this cycle.
	Refresh bool
	// SellReplaceSeq, when nonzero, is the resting sell offer the new sell
	// wall replaces atomically. Zero means plain create.
	SellReplaceSeq uint32
	// BuyReplaceSeq is the buy-side counterpart.
	BuyReplaceSeq uint32
	// ExtraSellCancels are duplicate sell offers to cancel, in the order the
	// ledger listed them.
	ExtraSellCancels []uint32
	// ExtraBuyCancels are the buy-side counterparts.
	ExtraBuyCancels []uint32
}

// Decide classifies the account's resting offers against one currency and
// its oracle rate, and decides whether the walls need refreshing. It is pure:
// no I/O, no clock.
//
// An offer is a sell wall when it gives the currency and asks base asset, a
// buy wall when it gives base asset and asks the currency; anything else is
// ignored for this currency. The walls are refreshed when a side is missing,
// the sell side drifted outside the tolerance band, a side has duplicates,
// or either side's base-asset notional fell below half the wall.
func Decide(currencyCode string, rate float64, offers []xrpl.AccountOffer, wallXRP, tolerancePct float64) Decision {
	refresh := true
	lowDepth := false
	var sellSeqs, buySeqs []uint32

	targetQuality := 1 / rate

	for _, offer := range offers {
		switch {
		case !offer.TakerGets.IsNative() && offer.TakerPays.IsNative():
			// Sell wall shape: gives IOU, asks drops.
			if offer.TakerGets.Currency != currencyCode {
				continue
			}
			sellSeqs = append(sellSeqs, offer.Seq)

			offerXRP, err := amount.DropsToXRP(offer.TakerPays.Value)
			if err == nil && offerXRP < wallXRP/2 {
				lowDepth = true
			}

			quality, err := offer.Quality.Float64()
			if err != nil {
				continue
			}
			offerQuality := quality / amount.DropsPerXRP
			deviation := math.Abs(offerQuality*100/targetQuality - 100)
			if deviation <= tolerancePct {
				refresh = false
			}

		case offer.TakerGets.IsNative() && !offer.TakerPays.IsNative():
			// Buy wall shape: gives drops, asks IOU. Only depth is policed
			// on this side.
			if offer.TakerPays.Currency != currencyCode {
				continue
			}
			buySeqs = append(buySeqs, offer.Seq)

			offerXRP, err := amount.DropsToXRP(offer.TakerGets.Value)
			if err == nil && offerXRP < wallXRP/2 {
				lowDepth = true
			}
		}
	}

	if !refresh && len(sellSeqs) == 1 && len(buySeqs) == 1 && !lowDepth {
		return Decision{}
	}

	decision := Decision{Refresh: true}
	if len(sellSeqs) > 0 {
		// The first-listed duplicate is reused for the atomic replace; the
		// rest are cancelled outright.
		decision.SellReplaceSeq = sellSeqs[0]
		decision.ExtraSellCancels = sellSeqs[1:]
	}
	if len(buySeqs) > 0 {
		decision.BuyReplaceSeq = buySeqs[0]
		decision.ExtraBuyCancels = buySeqs[1:]
	}
	return decision
}
