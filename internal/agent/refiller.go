package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/LeJamon/goXRPLmm/internal/amount"
	"github.com/LeJamon/goXRPLmm/internal/config"
	"github.com/LeJamon/goXRPLmm/internal/xrpl"
)

// balanceClient is the slice of the ledger client the refiller needs.
type balanceClient interface {
	AccountInfo(ctx context.Context, account string) (*xrpl.AccountInfoResult, error)
}

// refiller keeps a testnet account funded by asking the faucet for a top-up
// whenever the balance sinks below the configured floor.
type refiller struct {
	client  balanceClient
	http    *http.Client
	account string
	cfg     config.FaucetConfig
	log     *zap.Logger

	running atomic.Bool
}

func newRefiller(client balanceClient, account string, cfg config.FaucetConfig, log *zap.Logger) *refiller {
	return &refiller{
		client:  client,
		http:    &http.Client{Timeout: 30 * time.Second},
		account: account,
		cfg:     cfg,
		log:     log,
	}
}

// Check reads the current balance and requests faucet funds if it is below
// the floor. A slow faucet round still in flight collapses the next firing.
func (r *refiller) Check(ctx context.Context) {
	if !r.running.CompareAndSwap(false, true) {
		return
	}
	defer r.running.Store(false)

	info, err := r.client.AccountInfo(ctx, r.account)
	if err != nil {
		r.log.Warn("balance query failed", zap.Error(err))
		return
	}
	balance, err := amount.DropsToXRP(info.AccountData.Balance)
	if err != nil {
		r.log.Warn("unreadable balance", zap.String("balance", info.AccountData.Balance), zap.Error(err))
		return
	}
	if balance >= r.cfg.FloorXRP {
		return
	}

	r.log.Info("balance below floor, requesting faucet funds",
		zap.Float64("balance", balance),
		zap.Float64("floor", r.cfg.FloorXRP))
	if err := r.requestFunds(ctx); err != nil {
		r.log.Warn("faucet request failed", zap.Error(err))
	}
}

func (r *refiller) requestFunds(ctx context.Context) error {
	body, err := json.Marshal(map[string]string{"destination": r.account})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("faucet returned %s", resp.Status)
	}
	payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	r.log.Info("faucet funds requested", zap.ByteString("response", payload))
	return nil
}
