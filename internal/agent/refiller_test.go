package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/LeJamon/goXRPLmm/internal/config"
	"github.com/LeJamon/goXRPLmm/internal/xrpl"
)

type fakeBalance struct {
	drops string
	err   error
}

func (f *fakeBalance) AccountInfo(ctx context.Context, account string) (*xrpl.AccountInfoResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	result := &xrpl.AccountInfoResult{}
	result.AccountData.Account = account
	result.AccountData.Balance = f.drops
	return result, nil
}

// fakeFaucet records top-up requests.
type fakeFaucet struct {
	server   *httptest.Server
	requests []string
}

func newFakeFaucet(t *testing.T) *fakeFaucet {
	t.Helper()
	f := &fakeFaucet{}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Destination string `json:"destination"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		f.requests = append(f.requests, body.Destination)
		fmt.Fprint(w, `{"account":{"address":"`+body.Destination+`"}}`)
	}))
	t.Cleanup(f.server.Close)
	return f
}

func newTestRefiller(client balanceClient, faucetURL string, floor float64) *refiller {
	cfg := config.FaucetConfig{URL: faucetURL, FloorXRP: floor}
	return newRefiller(client, "rAGENTxxxxxxxxxxxxxxxxxxxxxxxxxxxx", cfg, zap.NewNop())
}

func TestRefillBelowFloor(t *testing.T) {
	faucet := newFakeFaucet(t)
	// 500 XRP against a 1000 XRP floor.
	r := newTestRefiller(&fakeBalance{drops: "500000000"}, faucet.server.URL, 1000)

	r.Check(context.Background())

	require.Len(t, faucet.requests, 1)
	assert.Equal(t, "rAGENTxxxxxxxxxxxxxxxxxxxxxxxxxxxx", faucet.requests[0])
}

func TestNoRefillAtOrAboveFloor(t *testing.T) {
	faucet := newFakeFaucet(t)
	r := newTestRefiller(&fakeBalance{drops: "1000000000"}, faucet.server.URL, 1000)

	r.Check(context.Background())
	assert.Empty(t, faucet.requests)
}

func TestRefillToleratesQueryFailure(t *testing.T) {
	faucet := newFakeFaucet(t)
	r := newTestRefiller(&fakeBalance{err: fmt.Errorf("not connected")}, faucet.server.URL, 1000)

	assert.NotPanics(t, func() { r.Check(context.Background()) })
	assert.Empty(t, faucet.requests)
}

func TestRefillToleratesFaucetError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "out of funds", http.StatusServiceUnavailable)
	}))
	t.Cleanup(server.Close)

	r := newTestRefiller(&fakeBalance{drops: "0"}, server.URL, 1000)
	assert.NotPanics(t, func() { r.Check(context.Background()) })
}
