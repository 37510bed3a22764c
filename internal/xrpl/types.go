// Package xrpl is a websocket client for the XRP Ledger covering the small
// request surface the agent needs: account queries, transaction submission
// in sign-and-submit mode, and account subscriptions.
package xrpl

import (
	"encoding/json"
	"fmt"
)

// Amount is a ledger amount: either native drops (serialized as a plain
// string) or an issued currency object with currency, issuer and value.
type Amount struct {
	Currency string `json:"currency,omitempty"`
	Issuer   string `json:"issuer,omitempty"`
	Value    string `json:"value,omitempty"`
}

// DropsAmount builds a native amount from an integer drops string.
func DropsAmount(drops string) Amount {
	return Amount{Value: drops}
}

// IssuedAmount builds an issued-currency amount.
func IssuedAmount(currency, issuer, value string) Amount {
	return Amount{Currency: currency, Issuer: issuer, Value: value}
}

// IsNative reports whether the amount is denominated in the base asset.
func (a Amount) IsNative() bool {
	return a.Currency == ""
}

// MarshalJSON renders native amounts as a bare drops string and issued
// amounts as the currency/issuer/value object.
func (a Amount) MarshalJSON() ([]byte, error) {
	if a.IsNative() {
		return json.Marshal(a.Value)
	}
	return json.Marshal(map[string]string{
		"currency": a.Currency,
		"issuer":   a.Issuer,
		"value":    a.Value,
	})
}

// UnmarshalJSON accepts both wire forms.
func (a *Amount) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		a.Currency = ""
		a.Issuer = ""
		return json.Unmarshal(data, &a.Value)
	}
	var obj struct {
		Currency string `json:"currency"`
		Issuer   string `json:"issuer"`
		Value    string `json:"value"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("invalid amount: %w", err)
	}
	a.Currency = obj.Currency
	a.Issuer = obj.Issuer
	a.Value = obj.Value
	return nil
}

// TrustLine is a single entry of an account_lines response.
type TrustLine struct {
	Account   string `json:"account"`
	Currency  string `json:"currency"`
	Balance   string `json:"balance"`
	Limit     string `json:"limit"`
	LimitPeer string `json:"limit_peer"`
}

// AccountLinesResult is the result payload of the account_lines method.
type AccountLinesResult struct {
	Account string      `json:"account"`
	Lines   []TrustLine `json:"lines"`
}

// AccountOffer is a single resting offer from account_offers. Quality is the
// ledger-native exchange measure (taker_pays per taker_gets, drops-scaled
// when one side is native); rippled emits it as a string or a number.
type AccountOffer struct {
	Flags     uint32      `json:"flags"`
	Seq       uint32      `json:"seq"`
	TakerGets Amount      `json:"taker_gets"`
	TakerPays Amount      `json:"taker_pays"`
	Quality   json.Number `json:"quality"`
}

// AccountOffersResult is the result payload of the account_offers method.
type AccountOffersResult struct {
	Account string         `json:"account"`
	Offers  []AccountOffer `json:"offers"`
}

// AccountInfoResult is the subset of account_info the agent reads.
type AccountInfoResult struct {
	AccountData struct {
		Account  string `json:"Account"`
		Balance  string `json:"Balance"`
		Sequence uint32 `json:"Sequence"`
	} `json:"account_data"`
}

// EngineResultSuccess is the sole engine result treated as success.
const EngineResultSuccess = "tesSUCCESS"

// SubmitResult is the tagged outcome of a submit call. Anything other than a
// tesSUCCESS engine result is a failure for the caller's purposes.
type SubmitResult struct {
	EngineResult        string          `json:"engine_result"`
	EngineResultCode    int             `json:"engine_result_code"`
	EngineResultMessage string          `json:"engine_result_message"`
	Accepted            bool            `json:"accepted"`
	TxJSON              json.RawMessage `json:"tx_json"`
}

// Succeeded reports whether the ledger provisionally applied the transaction.
func (r *SubmitResult) Succeeded() bool {
	return r != nil && r.EngineResult == EngineResultSuccess
}

// Transaction flag and type constants for the transactions the agent builds.
const (
	// TfSell marks an OfferCreate as a sell offer.
	TfSell uint32 = 0x00080000

	// AsfDefaultRipple enables rippling on the account's trust lines.
	AsfDefaultRipple uint32 = 8
)

// OfferCreate places (or atomically replaces, when OfferSequence is set) a
// resting offer.
type OfferCreate struct {
	TransactionType string `json:"TransactionType"`
	Account         string `json:"Account"`
	TakerGets       Amount `json:"TakerGets"`
	TakerPays       Amount `json:"TakerPays"`
	Flags           uint32 `json:"Flags,omitempty"`
	OfferSequence   uint32 `json:"OfferSequence,omitempty"`
}

// OfferCancel removes the resting offer identified by OfferSequence.
type OfferCancel struct {
	TransactionType string `json:"TransactionType"`
	Account         string `json:"Account"`
	OfferSequence   uint32 `json:"OfferSequence"`
}

// Memo is the nested memo wrapper the wire format requires. MemoType and
// MemoData carry uppercase-hex UTF-8 per the ledger convention.
type Memo struct {
	Memo MemoFields `json:"Memo"`
}

// MemoFields are the inner memo fields.
type MemoFields struct {
	MemoType string `json:"MemoType,omitempty"`
	MemoData string `json:"MemoData,omitempty"`
}

// Payment transfers an amount to a destination account.
type Payment struct {
	TransactionType string `json:"TransactionType"`
	Account         string `json:"Account"`
	Destination     string `json:"Destination"`
	Amount          Amount `json:"Amount"`
	Memos           []Memo `json:"Memos,omitempty"`
}

// AccountSet changes account-level flags.
type AccountSet struct {
	TransactionType string `json:"TransactionType"`
	Account         string `json:"Account"`
	SetFlag         uint32 `json:"SetFlag,omitempty"`
}

// TransactionEvent is a message from the transaction stream of an account
// subscription, matching the rippled stream format.
type TransactionEvent struct {
	Type                string          `json:"type"`
	EngineResult        string          `json:"engine_result"`
	EngineResultCode    int             `json:"engine_result_code"`
	EngineResultMessage string          `json:"engine_result_message"`
	LedgerIndex         uint32          `json:"ledger_index,omitempty"`
	Validated           bool            `json:"validated"`
	Transaction         json.RawMessage `json:"transaction"`
	TxJSON              json.RawMessage `json:"tx_json,omitempty"`
	Meta                *TxMeta         `json:"meta,omitempty"`
}

// TransactionJSON returns whichever transaction payload variant the stream
// message carries.
func (e *TransactionEvent) TransactionJSON() json.RawMessage {
	if len(e.Transaction) > 0 {
		return e.Transaction
	}
	return e.TxJSON
}

// TxMeta is transaction metadata: the list of ledger entries the transaction
// touched.
type TxMeta struct {
	AffectedNodes     []AffectedNode `json:"AffectedNodes"`
	TransactionIndex  uint32         `json:"TransactionIndex"`
	TransactionResult string         `json:"TransactionResult"`
}

// AffectedNode wraps exactly one of the three node change kinds.
type AffectedNode struct {
	CreatedNode  *NodeFields `json:"CreatedNode,omitempty"`
	ModifiedNode *NodeFields `json:"ModifiedNode,omitempty"`
	DeletedNode  *NodeFields `json:"DeletedNode,omitempty"`
}

// NodeFields describes a single created, modified or deleted ledger entry.
type NodeFields struct {
	LedgerEntryType string         `json:"LedgerEntryType"`
	LedgerIndex     string         `json:"LedgerIndex"`
	NewFields       map[string]any `json:"NewFields,omitempty"`
	FinalFields     map[string]any `json:"FinalFields,omitempty"`
	PreviousFields  map[string]any `json:"PreviousFields,omitempty"`
}
