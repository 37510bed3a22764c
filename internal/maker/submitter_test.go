package maker

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/LeJamon/goXRPLmm/internal/xrpl"
)

// scriptedClient returns one canned outcome per call and records every
// transaction it saw.
type scriptedClient struct {
	results []*xrpl.SubmitResult
	errs    []error
	seen    []any
	secrets []string
}

func (c *scriptedClient) Submit(ctx context.Context, tx any, secret string) (*xrpl.SubmitResult, error) {
	call := len(c.seen)
	c.seen = append(c.seen, tx)
	c.secrets = append(c.secrets, secret)
	if call >= len(c.results) {
		return nil, fmt.Errorf("unexpected call %d", call)
	}
	return c.results[call], c.errs[call]
}

func success() *xrpl.SubmitResult {
	return &xrpl.SubmitResult{EngineResult: xrpl.EngineResultSuccess}
}

func failure(code string) *xrpl.SubmitResult {
	return &xrpl.SubmitResult{EngineResult: code}
}

func TestSubmitterFirstAttemptSucceeds(t *testing.T) {
	client := &scriptedClient{
		results: []*xrpl.SubmitResult{success()},
		errs:    []error{nil},
	}
	submitter := NewSubmitter(client, "shhSECRET", zap.NewNop())

	result, err := submitter.SubmitWithRetry(context.Background(), &xrpl.OfferCancel{OfferSequence: 1})
	require.NoError(t, err)
	assert.True(t, result.Succeeded())
	assert.Len(t, client.seen, 1, "a success is never retried")
	assert.Equal(t, "shhSECRET", client.secrets[0])
}

func TestSubmitterRetriesExactlyOnce(t *testing.T) {
	t.Run("retry succeeds", func(t *testing.T) {
		client := &scriptedClient{
			results: []*xrpl.SubmitResult{failure("telINSUF_FEE_P"), success()},
			errs:    []error{nil, nil},
		}
		submitter := NewSubmitter(client, "s", zap.NewNop())

		tx := &xrpl.OfferCancel{OfferSequence: 7}
		result, err := submitter.SubmitWithRetry(context.Background(), tx)
		require.NoError(t, err)
		assert.True(t, result.Succeeded())
		require.Len(t, client.seen, 2)
		assert.Same(t, client.seen[0], client.seen[1], "the retry carries the identical transaction")
	})

	t.Run("retry also fails", func(t *testing.T) {
		client := &scriptedClient{
			results: []*xrpl.SubmitResult{failure("tecUNFUNDED_OFFER"), failure("tecUNFUNDED_OFFER")},
			errs:    []error{nil, nil},
		}
		submitter := NewSubmitter(client, "s", zap.NewNop())

		result, err := submitter.SubmitWithRetry(context.Background(), &xrpl.OfferCancel{OfferSequence: 7})
		require.NoError(t, err)
		assert.False(t, result.Succeeded())
		assert.Len(t, client.seen, 2, "exactly one retry, never more")
	})

	t.Run("transport error then success", func(t *testing.T) {
		client := &scriptedClient{
			results: []*xrpl.SubmitResult{nil, success()},
			errs:    []error{fmt.Errorf("write: broken pipe"), nil},
		}
		submitter := NewSubmitter(client, "s", zap.NewNop())

		result, err := submitter.SubmitWithRetry(context.Background(), &xrpl.OfferCancel{OfferSequence: 7})
		require.NoError(t, err)
		assert.True(t, result.Succeeded())
		assert.Len(t, client.seen, 2)
	})
}
