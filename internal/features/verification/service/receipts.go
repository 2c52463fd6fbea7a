package service

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/rs/zerolog"

	"daily-claim-backend/internal/common/errors"
	"daily-claim-backend/internal/features/verification/models"
	"daily-claim-backend/internal/platform/evm"
)

// ReceiptFinder asks the endpoint pool, in order, about a transaction hash.
// The first endpoint that knows the hash answers.
type ReceiptFinder struct {
	pool        *evm.Pool
	dialer      evm.Dialer
	callTimeout time.Duration
	logger      zerolog.Logger
}

func NewReceiptFinder(pool *evm.Pool, dialer evm.Dialer, callTimeout time.Duration, logger zerolog.Logger) *ReceiptFinder {
	return &ReceiptFinder{pool: pool, dialer: dialer, callTimeout: callTimeout, logger: logger}
}

// Lookup reports pending when every reachable endpoint has never seen the hash.
// It fails only when no endpoint could be queried at all.
func (f *ReceiptFinder) Lookup(ctx context.Context, hash common.Hash) (*models.ReceiptLookup, error) {
	var lastErr error
	answered := false
	tried := 0

	for _, endpoint := range f.pool.Endpoints() {
		if err := ctx.Err(); err != nil {
			lastErr = err
			break
		}
		tried++

		lookup, err := f.lookupAt(ctx, endpoint, hash)
		if err != nil {
			f.logger.Warn().
				Str("endpoint", string(endpoint)).
				Str("tx_hash", hash.Hex()).
				Err(err).
				Msg("Receipt lookup failed, trying next")
			lastErr = err
			continue
		}
		answered = true
		if lookup != nil {
			return lookup, nil
		}
	}

	if answered {
		return &models.ReceiptLookup{Status: models.StatusPending}, nil
	}
	return nil, errors.NewAllEndpointsExhaustedError(tried, lastErr)
}

// lookupAt returns nil, nil when the endpoint does not know the hash.
func (f *ReceiptFinder) lookupAt(ctx context.Context, endpoint evm.Endpoint, hash common.Hash) (*models.ReceiptLookup, error) {
	if f.callTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.callTimeout)
		defer cancel()
	}

	client, err := f.dialer.Dial(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	receipt, err := client.TransactionReceipt(ctx, hash)
	switch {
	case err == nil:
		lookup := &models.ReceiptLookup{Status: models.StatusReverted, Endpoint: string(endpoint)}
		if receipt.Status == types.ReceiptStatusSuccessful {
			lookup.Status = models.StatusConfirmed
		}
		if receipt.BlockNumber != nil {
			lookup.BlockNumber = receipt.BlockNumber.Uint64()
		}
		return lookup, nil
	case !stderrors.Is(err, ethereum.NotFound):
		return nil, err
	}

	_, _, err = client.TransactionByHash(ctx, hash)
	switch {
	case err == nil:
		return &models.ReceiptLookup{Status: models.StatusPending, Endpoint: string(endpoint)}, nil
	case stderrors.Is(err, ethereum.NotFound):
		return nil, nil
	default:
		return nil, err
	}
}
