package xrpl

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountOfferDecoding(t *testing.T) {
	// A sell offer: gives an issued currency, asks drops.
	payload := `{
		"flags": 524288,
		"seq": 811,
		"taker_gets": {"currency": "USD", "issuer": "rEXAMPLE", "value": "61437"},
		"taker_pays": "100000000000",
		"quality": "1627752.038"
	}`

	var offer AccountOffer
	require.NoError(t, json.Unmarshal([]byte(payload), &offer))

	assert.Equal(t, uint32(811), offer.Seq)
	assert.False(t, offer.TakerGets.IsNative())
	assert.Equal(t, "USD", offer.TakerGets.Currency)
	assert.True(t, offer.TakerPays.IsNative())
	assert.Equal(t, "100000000000", offer.TakerPays.Value)

	quality, err := offer.Quality.Float64()
	require.NoError(t, err)
	assert.InDelta(t, 1627752.038, quality, 1e-6)
}

func TestAccountOfferNumericQuality(t *testing.T) {
	payload := `{"seq": 12, "taker_gets": "5000000", "taker_pays":
		{"currency": "EUR", "issuer": "rEXAMPLE", "value": "3"}, "quality": 1.5}`

	var offer AccountOffer
	require.NoError(t, json.Unmarshal([]byte(payload), &offer))
	quality, err := offer.Quality.Float64()
	require.NoError(t, err)
	assert.Equal(t, 1.5, quality)
}

func TestAmountMarshal(t *testing.T) {
	native, err := json.Marshal(DropsAmount("1500000"))
	require.NoError(t, err)
	assert.JSONEq(t, `"1500000"`, string(native))

	issued, err := json.Marshal(IssuedAmount("USD", "rEXAMPLE", "0.5"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"currency":"USD","issuer":"rEXAMPLE","value":"0.5"}`, string(issued))
}

func TestSubmitResultSucceeded(t *testing.T) {
	assert.True(t, (&SubmitResult{EngineResult: "tesSUCCESS"}).Succeeded())
	assert.False(t, (&SubmitResult{EngineResult: "tecUNFUNDED_OFFER"}).Succeeded())
	assert.False(t, (&SubmitResult{}).Succeeded())

	var missing *SubmitResult
	assert.False(t, missing.Succeeded())
}

func TestTransactionEventPayloadVariants(t *testing.T) {
	legacy := &TransactionEvent{Transaction: json.RawMessage(`{"a":1}`)}
	assert.JSONEq(t, `{"a":1}`, string(legacy.TransactionJSON()))

	v2 := &TransactionEvent{TxJSON: json.RawMessage(`{"b":2}`)}
	assert.JSONEq(t, `{"b":2}`, string(v2.TransactionJSON()))
}
