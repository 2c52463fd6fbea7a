package resolver

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"daily-claim-backend/internal/common/errors"
	"daily-claim-backend/internal/features/claimstatus/models"
	"daily-claim-backend/internal/platform/evm"
)

// Resolver reads the claim state of an address from the first endpoint in the
// pool that has the contract deployed and answers every required read.
// It never caches: each call walks the pool from the start.
type Resolver struct {
	pool        *evm.Pool
	dialer      evm.Dialer
	contract    common.Address
	decimals    int32
	callTimeout time.Duration
	logger      zerolog.Logger
}

func New(pool *evm.Pool, dialer evm.Dialer, contract common.Address, decimals int32, callTimeout time.Duration, logger zerolog.Logger) *Resolver {
	return &Resolver{
		pool:        pool,
		dialer:      dialer,
		contract:    contract,
		decimals:    decimals,
		callTimeout: callTimeout,
		logger:      logger,
	}
}

// Resolve fails with ALL_ENDPOINTS_EXHAUSTED, carrying the last endpoint error,
// when no endpoint yields a snapshot.
func (r *Resolver) Resolve(ctx context.Context, user common.Address) (*models.ContractSnapshot, error) {
	var lastErr error
	tried := 0

	for _, endpoint := range r.pool.Endpoints() {
		if err := ctx.Err(); err != nil {
			lastErr = err
			break
		}
		tried++

		snapshot, err := r.resolveAt(ctx, endpoint, user)
		if err != nil {
			r.logger.Warn().
				Str("endpoint", string(endpoint)).
				Str("address", user.Hex()).
				Err(err).
				Msg("Endpoint failed, trying next")
			lastErr = err
			continue
		}

		r.logger.Debug().
			Str("endpoint", string(endpoint)).
			Str("address", user.Hex()).
			Msg("Claim state resolved")
		return snapshot, nil
	}

	return nil, errors.NewAllEndpointsExhaustedError(tried, lastErr)
}

func (r *Resolver) resolveAt(ctx context.Context, endpoint evm.Endpoint, user common.Address) (*models.ContractSnapshot, error) {
	if r.callTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.callTimeout)
		defer cancel()
	}

	client, err := r.dialer.Dial(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	code, err := client.CodeAt(ctx, r.contract, nil)
	if err != nil {
		return nil, fmt.Errorf("get code: %w", err)
	}
	if len(code) == 0 {
		return nil, fmt.Errorf("no contract code at %s", r.contract.Hex())
	}

	lastClaimed, err := r.readUint(ctx, client, evm.MethodLastClaimed, user)
	if err != nil {
		return nil, err
	}
	cooldown, err := r.readUint(ctx, client, evm.MethodClaimCooldown)
	if err != nil {
		return nil, err
	}
	amount, err := r.readUint(ctx, client, evm.MethodClaimAmount)
	if err != nil {
		return nil, err
	}

	if !new(big.Int).Add(lastClaimed, cooldown).IsInt64() {
		return nil, fmt.Errorf("timestamp out of range: lastClaimed=%s cooldown=%s", lastClaimed, cooldown)
	}

	return &models.ContractSnapshot{
		LastClaimedAt:   lastClaimed.Int64(),
		CooldownSeconds: cooldown.Int64(),
		ClaimAmount:     r.format(amount),
		TokenBalance:    r.tokenBalance(ctx, client, endpoint, user),
		SourceEndpoint:  endpoint,
	}, nil
}

// tokenBalance is best effort: any failure yields "0" and is only logged.
func (r *Resolver) tokenBalance(ctx context.Context, client evm.ChainReader, endpoint evm.Endpoint, user common.Address) string {
	vals, err := evm.CallABI(ctx, client, evm.AirdropABI, r.contract, evm.MethodRewardToken)
	if err != nil {
		r.logBalanceFailure(endpoint, user, err)
		return "0"
	}
	token, ok := vals[0].(common.Address)
	if !ok {
		r.logBalanceFailure(endpoint, user, fmt.Errorf("unexpected token address type %T", vals[0]))
		return "0"
	}

	vals, err = evm.CallABI(ctx, client, evm.ERC20ABI, token, evm.MethodBalanceOf, user)
	if err != nil {
		r.logBalanceFailure(endpoint, user, err)
		return "0"
	}
	balance, ok := vals[0].(*big.Int)
	if !ok {
		r.logBalanceFailure(endpoint, user, fmt.Errorf("unexpected balance type %T", vals[0]))
		return "0"
	}
	return r.format(balance)
}

func (r *Resolver) logBalanceFailure(endpoint evm.Endpoint, user common.Address, err error) {
	r.logger.Warn().
		Str("endpoint", string(endpoint)).
		Str("address", user.Hex()).
		Err(err).
		Msg("Token balance unavailable, reporting zero")
}

func (r *Resolver) readUint(ctx context.Context, client evm.ChainReader, method string, args ...interface{}) (*big.Int, error) {
	vals, err := evm.CallABI(ctx, client, evm.AirdropABI, r.contract, method, args...)
	if err != nil {
		return nil, err
	}
	n, ok := vals[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("%s: unexpected type %T", method, vals[0])
	}
	return n, nil
}

func (r *Resolver) format(v *big.Int) string {
	return decimal.NewFromBigInt(v, -r.decimals).String()
}
