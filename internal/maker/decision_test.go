package maker

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/LeJamon/goXRPLmm/internal/xrpl"
)

const testWall = 100000.0

// sellOffer builds a resting sell wall: gives currency, asks xrp (in XRP).
// quality is expressed as base-asset per currency-unit; the wire carries it
// drops-scaled.
func sellOffer(seq uint32, currencyCode string, quality, xrp float64) xrpl.AccountOffer {
	return xrpl.AccountOffer{
		Seq:       seq,
		TakerGets: xrpl.IssuedAmount(currencyCode, "rAGENT", "1"),
		TakerPays: xrpl.DropsAmount(fmt.Sprintf("%.0f", xrp*1_000_000)),
		Quality:   json.Number(fmt.Sprintf("%f", quality*1_000_000)),
	}
}

// buyOffer builds a resting buy wall: gives xrp, asks currency.
func buyOffer(seq uint32, currencyCode string, xrp float64) xrpl.AccountOffer {
	return xrpl.AccountOffer{
		Seq:       seq,
		TakerGets: xrpl.DropsAmount(fmt.Sprintf("%.0f", xrp*1_000_000)),
		TakerPays: xrpl.IssuedAmount(currencyCode, "rAGENT", "1"),
		Quality:   json.Number("1"),
	}
}

func TestDecideRefreshSellCreateBuy(t *testing.T) {
	// Rate 2.0 means target quality 0.5; a sell at 0.525 deviates 5%, past
	// the 2% band. No buy offer exists.
	offers := []xrpl.AccountOffer{sellOffer(811, "ABC", 0.525, testWall)}

	decision := Decide("ABC", 2.0, offers, testWall, 2.0)

	assert.True(t, decision.Refresh)
	assert.Equal(t, uint32(811), decision.SellReplaceSeq, "existing sequence is consumed for the replace")
	assert.Zero(t, decision.BuyReplaceSeq, "buy side is a plain create")
	assert.Empty(t, decision.ExtraSellCancels, "the consumed sequence is never cancelled")
	assert.Empty(t, decision.ExtraBuyCancels)
}

func TestDecideCollapsesDuplicates(t *testing.T) {
	// Two duplicate in-band sells plus a healthy buy: the duplicates force a
	// refresh, the first-listed sequence is reused, the second cancelled.
	offers := []xrpl.AccountOffer{
		sellOffer(100, "ABC", 0.5, testWall),
		sellOffer(105, "ABC", 0.5, testWall),
		buyOffer(110, "ABC", testWall),
	}

	decision := Decide("ABC", 2.0, offers, testWall, 2.0)

	assert.True(t, decision.Refresh)
	assert.Equal(t, uint32(100), decision.SellReplaceSeq)
	assert.Equal(t, []uint32{105}, decision.ExtraSellCancels)
	assert.Equal(t, uint32(110), decision.BuyReplaceSeq)
	assert.Empty(t, decision.ExtraBuyCancels)
}

func TestDecideLeavesHealthyWallsAlone(t *testing.T) {
	offers := []xrpl.AccountOffer{
		sellOffer(100, "ABC", 0.505, testWall), // 1% deviation, inside the band
		buyOffer(110, "ABC", testWall),
	}

	decision := Decide("ABC", 2.0, offers, testWall, 2.0)
	assert.False(t, decision.Refresh)
}

func TestDecideWiderToleranceBand(t *testing.T) {
	offers := []xrpl.AccountOffer{
		sellOffer(100, "ABC", 0.525, testWall), // 5% deviation
		buyOffer(110, "ABC", testWall),
	}

	assert.True(t, Decide("ABC", 2.0, offers, testWall, 2.0).Refresh)
	assert.False(t, Decide("ABC", 2.0, offers, testWall, 10.0).Refresh,
		"a per-currency override can tolerate the same drift")
}

func TestDecideMissingSides(t *testing.T) {
	t.Run("no offers at all", func(t *testing.T) {
		decision := Decide("ABC", 2.0, nil, testWall, 2.0)
		assert.True(t, decision.Refresh)
		assert.Zero(t, decision.SellReplaceSeq)
		assert.Zero(t, decision.BuyReplaceSeq)
	})

	t.Run("buy only", func(t *testing.T) {
		decision := Decide("ABC", 2.0, []xrpl.AccountOffer{buyOffer(110, "ABC", testWall)}, testWall, 2.0)
		assert.True(t, decision.Refresh, "a missing sell side forces a refresh")
		assert.Equal(t, uint32(110), decision.BuyReplaceSeq)
	})
}

func TestDecideLowDepth(t *testing.T) {
	t.Run("shallow sell", func(t *testing.T) {
		offers := []xrpl.AccountOffer{
			sellOffer(100, "ABC", 0.5, testWall/2-1),
			buyOffer(110, "ABC", testWall),
		}
		assert.True(t, Decide("ABC", 2.0, offers, testWall, 2.0).Refresh)
	})

	t.Run("shallow buy", func(t *testing.T) {
		offers := []xrpl.AccountOffer{
			sellOffer(100, "ABC", 0.5, testWall),
			buyOffer(110, "ABC", testWall/4),
		}
		assert.True(t, Decide("ABC", 2.0, offers, testWall, 2.0).Refresh,
			"buy-side depth is policed even though buy deviation is not")
	})
}

func TestDecideIgnoresForeignOffers(t *testing.T) {
	offers := []xrpl.AccountOffer{
		sellOffer(100, "ABC", 0.505, testWall),
		buyOffer(110, "ABC", testWall),
		// Another currency's walls.
		sellOffer(200, "XYZ", 9.99, 1),
		buyOffer(210, "XYZ", 1),
		// An IOU-for-IOU offer matches neither wall shape.
		{
			Seq:       300,
			TakerGets: xrpl.IssuedAmount("ABC", "rAGENT", "1"),
			TakerPays: xrpl.IssuedAmount("XYZ", "rAGENT", "1"),
			Quality:   json.Number("1"),
		},
	}

	decision := Decide("ABC", 2.0, offers, testWall, 2.0)
	assert.False(t, decision.Refresh, "foreign and mismatched offers never disturb a healthy pair")
}
