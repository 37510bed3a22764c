package maker

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/LeJamon/goXRPLmm/internal/xrpl"
)

// SubmitClient is the slice of the ledger client the submitter needs.
type SubmitClient interface {
	Submit(ctx context.Context, tx any, secret string) (*xrpl.SubmitResult, error)
}

// Submitter wraps ledger submission with the agent's bounded retry policy:
// one attempt, and on any failure or non-success engine result exactly one
// retry with the identical transaction. A still-failing retry is logged with
// the full payload and abandoned; the failure never escalates past the
// current cycle.
type Submitter struct {
	client SubmitClient
	secret string
	log    *zap.Logger
}

// NewSubmitter builds a submitter signing with the given account secret.
func NewSubmitter(client SubmitClient, secret string, log *zap.Logger) *Submitter {
	return &Submitter{client: client, secret: secret, log: log}
}

// SubmitWithRetry applies the retry policy to one transaction.
func (s *Submitter) SubmitWithRetry(ctx context.Context, tx any) (*xrpl.SubmitResult, error) {
	result, err := s.client.Submit(ctx, tx, s.secret)
	if err == nil && result.Succeeded() {
		return result, nil
	}
	s.log.Debug("submission failed, retrying once",
		zap.Error(err), zap.String("engine_result", engineResultOf(result)))

	result, err = s.client.Submit(ctx, tx, s.secret)
	if err == nil && result.Succeeded() {
		return result, nil
	}

	payload, _ := json.Marshal(tx)
	s.log.Error("submission failed after retry, giving up",
		zap.ByteString("tx", payload),
		zap.String("engine_result", engineResultOf(result)),
		zap.Error(err))
	return result, err
}

func engineResultOf(result *xrpl.SubmitResult) string {
	if result == nil {
		return ""
	}
	return result.EngineResult
}
