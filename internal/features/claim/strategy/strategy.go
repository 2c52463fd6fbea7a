// Package strategy submits the claim through the wallet bridge, trying the
// known request encodings until one yields a transaction identifier.
package strategy

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"daily-claim-backend/internal/common/errors"
	"daily-claim-backend/internal/features/claim/txid"
	"daily-claim-backend/internal/features/claim/wallet"
	"daily-claim-backend/internal/platform/evm"
)

type ID string

const (
	// ABILookup uses the claim entry of the contract's declared interface,
	// or the minimal fragment when the interface has none.
	ABILookup      ID = "abi_lookup"
	StructuredCall ID = "structured_call"
	RawSelector    ID = "raw_selector"
)

const zeroAmount = "0x0"

// claimFragment is the minimal ABI entry for claim().
var claimFragment = json.RawMessage(`{"type":"function","name":"claim","inputs":[],"outputs":[],"stateMutability":"nonpayable"}`)

// Candidate is one request ready to be submitted.
type Candidate struct {
	ID      ID
	Request wallet.Request
}

// Attempt records one submission for the duration of a claim action.
type Attempt struct {
	StrategyID  ID
	Shape       wallet.Shape
	RawResponse json.RawMessage
	ExtractedID string
	Err         error
}

type Result struct {
	TransactionID string
	Reference     string
	Strategy      ID
	Attempts      []Attempt
}

// ReferenceStore is the correlation slot.
type ReferenceStore interface {
	Put(ctx context.Context, address, reference string) error
}

type Executor struct {
	bridge      wallet.Bridge
	refs        ReferenceStore
	declaredABI string
	timeout     time.Duration
	logger      zerolog.Logger
	now         func() time.Time
}

// NewExecutor builds an executor for a contract whose interface is declaredABI.
// timeout bounds each bridge call.
func NewExecutor(bridge wallet.Bridge, refs ReferenceStore, declaredABI string, timeout time.Duration, logger zerolog.Logger) *Executor {
	return &Executor{
		bridge:      bridge,
		refs:        refs,
		declaredABI: declaredABI,
		timeout:     timeout,
		logger:      logger,
		now:         time.Now,
	}
}

// NewReference returns a fresh correlation reference: claim-<unix millis>-<random>.
func NewReference(now time.Time) string {
	return fmt.Sprintf("claim-%d-%s", now.UnixMilli(), uuid.NewString())
}

// Candidates builds every request up front, in trial order.
func (e *Executor) Candidates(contract common.Address) []Candidate {
	address := contract.Hex()
	return []Candidate{
		{ID: ABILookup, Request: wallet.ContractCallRequest{Transaction: []wallet.ContractCall{{
			Address:      address,
			ABI:          []json.RawMessage{e.claimEntry()},
			FunctionName: evm.MethodClaim,
			Args:         []interface{}{},
		}}}},
		{ID: StructuredCall, Request: wallet.ContractCallRequest{Transaction: []wallet.ContractCall{{
			Address:      address,
			ABI:          []json.RawMessage{claimFragment},
			FunctionName: evm.MethodClaim,
			Args:         []interface{}{},
		}}}},
		{ID: RawSelector, Request: wallet.RawCallRequest{Transactions: []wallet.RawCall{{
			Recipient: address,
			Calldata:  hexutil.Encode(evm.ClaimSelector()),
			Amount:    zeroAmount,
		}}}},
	}
}

func (e *Executor) claimEntry() json.RawMessage {
	var entries []json.RawMessage
	if err := json.Unmarshal([]byte(e.declaredABI), &entries); err != nil {
		e.logger.Warn().Err(err).Msg("Declared ABI unreadable, using claim fragment")
		return claimFragment
	}

	var available []string
	for _, entry := range entries {
		var head struct {
			Type string `json:"type"`
			Name string `json:"name"`
		}
		if err := json.Unmarshal(entry, &head); err != nil || head.Type != "function" {
			continue
		}
		if head.Name == evm.MethodClaim {
			return entry
		}
		available = append(available, head.Name)
	}

	e.logger.Warn().Strs("functions", available).Msg("claim not found in declared ABI, using claim fragment")
	return claimFragment
}

// Execute submits the claim for user. The reference is generated and stored
// before anything is submitted. When the bridge reports its shapes, exactly
// one request is submitted; otherwise candidates are tried in order and the
// first one yielding an identifier wins.
func (e *Executor) Execute(ctx context.Context, contract common.Address, user string) (*Result, error) {
	reference := NewReference(e.now())
	if err := e.refs.Put(ctx, user, reference); err != nil {
		e.logger.Warn().Str("reference", reference).Err(err).Msg("Failed to store claim reference")
	}

	candidates := e.Candidates(contract)
	result := &Result{Reference: reference}

	if chosen, ok, err := e.negotiate(ctx, candidates); ok {
		if err != nil {
			return result, errors.NewNoViableStrategyError(0, err)
		}
		candidates = []Candidate{chosen}
	}

	var lastErr error
	for _, c := range candidates {
		if err := ctx.Err(); err != nil {
			lastErr = err
			break
		}

		attempt := e.submit(ctx, c)
		result.Attempts = append(result.Attempts, attempt)

		if attempt.ExtractedID != "" {
			result.TransactionID = attempt.ExtractedID
			result.Strategy = c.ID
			e.logger.Info().
				Str("strategy", string(c.ID)).
				Str("reference", reference).
				Str("tx_id", attempt.ExtractedID).
				Msg("Claim submitted")
			return result, nil
		}

		lastErr = attempt.Err
		if lastErr == nil {
			lastErr = fmt.Errorf("%s: no transaction identifier in response", c.ID)
		}
		e.logger.Warn().
			Str("strategy", string(c.ID)).
			Str("reference", reference).
			Err(lastErr).
			Msg("Strategy failed")
	}

	return result, errors.NewNoViableStrategyError(len(result.Attempts), lastErr)
}

// negotiate picks the first candidate the bridge reports as supported. ok is
// false when the bridge cannot report shapes, in which case trial is used.
func (e *Executor) negotiate(ctx context.Context, candidates []Candidate) (Candidate, bool, error) {
	reporter, ok := e.bridge.(wallet.CapabilityReporter)
	if !ok {
		return Candidate{}, false, nil
	}

	callCtx, cancel := e.withTimeout(ctx)
	defer cancel()

	shapes, err := reporter.SupportedShapes(callCtx)
	if err != nil || len(shapes) == 0 {
		e.logger.Warn().Err(err).Msg("Bridge shapes unavailable, trying strategies in order")
		return Candidate{}, false, nil
	}

	for _, c := range candidates {
		for _, s := range shapes {
			if c.Request.Shape() == s {
				return c, true, nil
			}
		}
	}
	return Candidate{}, true, fmt.Errorf("bridge supports none of the claim encodings (reported %v)", shapes)
}

func (e *Executor) submit(ctx context.Context, c Candidate) Attempt {
	callCtx, cancel := e.withTimeout(ctx)
	defer cancel()

	attempt := Attempt{StrategyID: c.ID, Shape: c.Request.Shape()}
	raw, err := e.bridge.SendTransaction(callCtx, c.Request)
	attempt.RawResponse = raw
	if err != nil {
		attempt.Err = err
		return attempt
	}
	attempt.ExtractedID = txid.ExtractJSON(raw)
	return attempt
}

func (e *Executor) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, e.timeout)
}
