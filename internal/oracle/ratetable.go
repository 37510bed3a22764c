// Package oracle derives the agent's canonical exchange rates from an
// on-ledger reference account and an external price feed.
package oracle

import (
	"sort"
	"sync"
)

// RateTable is the process-wide mapping from currency symbol to the latest
// known rate ("units of base asset per unit of currency" inverse convention).
// It has a single writer (the oracle) and concurrent readers; entries are
// only ever overwritten, so a stale rate persists until a refresh replaces
// it. Readers must tolerate an empty or partially updated table.
type RateTable struct {
	mu    sync.RWMutex
	rates map[string]float64
}

// NewRateTable returns an empty table.
func NewRateTable() *RateTable {
	return &RateTable{rates: make(map[string]float64)}
}

// Set records a rate. Non-positive rates are dropped: a currency with no
// positive rate is simply unknown.
func (t *RateTable) Set(currency string, rate float64) {
	if rate <= 0 {
		return
	}
	t.mu.Lock()
	t.rates[currency] = rate
	t.mu.Unlock()
}

// Rate looks up the rate for a currency.
func (t *RateTable) Rate(currency string) (float64, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	rate, ok := t.rates[currency]
	return rate, ok
}

// Has reports whether a rate is known for the currency.
func (t *RateTable) Has(currency string) bool {
	_, ok := t.Rate(currency)
	return ok
}

// Currencies returns the known currency symbols in sorted order, so a
// reconciliation cycle visits them deterministically.
func (t *RateTable) Currencies() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	currencies := make([]string, 0, len(t.rates))
	for currency := range t.rates {
		currencies = append(currencies, currency)
	}
	sort.Strings(currencies)
	return currencies
}

// Len returns the number of known rates.
func (t *RateTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.rates)
}
