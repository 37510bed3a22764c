package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Feed fetches the external market-data document for the base asset.
type Feed struct {
	url    string
	client *http.Client
}

// NewFeed builds a feed client for the given document URL.
func NewFeed(url string) *Feed {
	return &Feed{
		url:    url,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// feedDocument is the subset of the market-data response the oracle reads.
type feedDocument struct {
	MarketData struct {
		CurrentPrice map[string]float64 `json:"current_price"`
	} `json:"market_data"`
}

// CurrentPrices returns the base asset's price keyed by lowercase currency
// symbol.
func (f *Feed) CurrentPrices(ctx context.Context) (map[string]float64, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build feed request: %w", err)
	}

	response, err := f.client.Do(request)
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed returned status %s", response.Status)
	}

	var doc feedDocument
	if err := json.NewDecoder(response.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode feed response: %w", err)
	}
	if doc.MarketData.CurrentPrice == nil {
		return nil, fmt.Errorf("feed response has no market_data.current_price")
	}
	return doc.MarketData.CurrentPrice, nil
}
