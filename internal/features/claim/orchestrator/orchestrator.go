// Package orchestrator sequences a claim: gating, eligibility check,
// submission, advisory verification and the local cooldown timer.
package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"daily-claim-backend/internal/common/errors"
	"daily-claim-backend/internal/common/validation"
	"daily-claim-backend/internal/features/claim/strategy"
	"daily-claim-backend/internal/features/claim/wallet"
	statusmodels "daily-claim-backend/internal/features/claimstatus/models"
	verifymodels "daily-claim-backend/internal/features/verification/models"
)

type State string

const (
	StateIdle                State = "idle"
	StateCheckingEligibility State = "checking_eligibility"
	StateSubmitting          State = "submitting"
	StateVerifying           State = "verifying"
	StateSuccess             State = "success"
)

const (
	msgSocialIncomplete = "Please follow all social channels before claiming"
	msgClaimFailed      = "Failed to claim tokens. Please try again."
)

type StatusReader interface {
	GetStatus(ctx context.Context, address string) (*statusmodels.ClaimStatus, error)
}

type Verifier interface {
	Verify(ctx context.Context, req *verifymodels.VerifyRequest) (*verifymodels.VerifyResponse, error)
}

type Submitter interface {
	Execute(ctx context.Context, contract common.Address, user string) (*strategy.Result, error)
}

type TimerStore interface {
	Set(ctx context.Context, address string, next time.Time) error
	Active(ctx context.Context, address string, now time.Time) (time.Time, bool, error)
}

// ReferenceReader reads back the correlation reference of the last attempt.
type ReferenceReader interface {
	Get(ctx context.Context, address string) (string, bool, error)
}

type Checklist interface {
	MarkFollowed(ctx context.Context, address, platform string) error
	Missing(ctx context.Context, address string) ([]string, error)
}

type Deps struct {
	Status    StatusReader
	Verifier  Verifier
	Submitter Submitter
	Bridge    wallet.Bridge
	Timers     TimerStore
	Checklist  Checklist
	References ReferenceReader
}

type Config struct {
	Contract    common.Address
	ClaimAmount decimal.Decimal
	Cooldown    time.Duration
	MaxRetries  int
	RetryDelay  time.Duration
	// CallTimeout bounds each backend and bridge probe call.
	CallTimeout time.Duration
}

// View is a consistent snapshot for rendering.
type View struct {
	Address     string
	State       State
	Error       string
	Balance     decimal.Decimal
	NextClaimAt time.Time
	RetriesLeft int
	CanRetry    bool
	InFlight    bool

	// PendingReference is the reference of the last submitted attempt, kept
	// across restarts until its slot expires.
	PendingReference string
}

// Countdown is the time left on the ClaimTimer.
type Countdown struct {
	Hours   int
	Minutes int
	Seconds int
}

func (c Countdown) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", c.Hours, c.Minutes, c.Seconds)
}

// Orchestrator owns the claim state of one user address. Only one claim may
// be in flight at a time.
type Orchestrator struct {
	deps   Deps
	cfg    Config
	logger zerolog.Logger
	now    func() time.Time
	sleep  func(ctx context.Context, d time.Duration) error

	mu          sync.Mutex
	address     string
	state       State
	lastError   string
	balance     decimal.Decimal
	nextClaimAt time.Time
	retries     int
	inFlight    bool
	reference   string
}

func New(deps Deps, cfg Config, logger zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		deps:   deps,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
		sleep:  sleepContext,
		state:  StateIdle,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// SetAddress switches the active user. The retry counter and any shown error
// are reset.
func (o *Orchestrator) SetAddress(address string) error {
	if !validation.IsValidAddress(address) {
		return errors.NewInvalidAddressError(address)
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	normalized := validation.NormalizeAddress(address)
	if normalized != o.address {
		o.address = normalized
		o.retries = 0
		o.lastError = ""
		o.state = StateIdle
		o.balance = decimal.Zero
		o.nextClaimAt = time.Time{}
		o.reference = ""
	}
	return nil
}

// Mount loads the displayed balance, the pending reference and the persisted
// ClaimTimer. A failed balance read is logged and leaves the balance unchanged.
// Results are dropped when the address changed meanwhile.
func (o *Orchestrator) Mount(ctx context.Context) error {
	address, err := o.activeAddress()
	if err != nil {
		return err
	}

	callCtx, cancel := o.withTimeout(ctx)
	status, err := o.deps.Status.GetStatus(callCtx, address)
	cancel()
	if err != nil {
		o.logger.Warn().Str("address", address).Err(err).Msg("Failed to fetch balance")
	} else if balance, err := decimal.NewFromString(status.Balance); err != nil {
		o.logger.Warn().Str("address", address).Str("balance", status.Balance).Err(err).Msg("Unparseable balance")
	} else {
		o.mu.Lock()
		if address == o.address {
			o.balance = balance
		}
		o.mu.Unlock()
	}

	o.loadReference(ctx, address)
	return o.Refresh(ctx)
}

func (o *Orchestrator) loadReference(ctx context.Context, address string) {
	if o.deps.References == nil {
		return
	}
	reference, ok, err := o.deps.References.Get(ctx, address)
	if err != nil {
		o.logger.Warn().Str("address", address).Err(err).Msg("Failed to read claim reference")
		return
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if address != o.address {
		return
	}
	if ok {
		o.reference = reference
	} else {
		o.reference = ""
	}
}

// Refresh re-reads the ClaimTimer, clearing it once expired.
func (o *Orchestrator) Refresh(ctx context.Context) error {
	address, err := o.activeAddress()
	if err != nil {
		return err
	}

	next, ok, err := o.deps.Timers.Active(ctx, address, o.now())
	if err != nil {
		return err
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if address != o.address {
		return nil
	}
	if ok {
		o.nextClaimAt = next
	} else {
		o.nextClaimAt = time.Time{}
	}
	return nil
}

func (o *Orchestrator) MarkFollowed(ctx context.Context, platform string) error {
	address, err := o.activeAddress()
	if err != nil {
		return err
	}
	return o.deps.Checklist.MarkFollowed(ctx, address, platform)
}

// Countdown is zero when no timer is active.
func (o *Orchestrator) Countdown(now time.Time) Countdown {
	o.mu.Lock()
	next := o.nextClaimAt
	o.mu.Unlock()

	left := next.Sub(now)
	if next.IsZero() || left <= 0 {
		return Countdown{}
	}
	secs := int(left / time.Second)
	return Countdown{Hours: secs / 3600, Minutes: secs % 3600 / 60, Seconds: secs % 60}
}

func (o *Orchestrator) View() View {
	o.mu.Lock()
	defer o.mu.Unlock()
	left := o.cfg.MaxRetries - o.retries
	if left < 0 {
		left = 0
	}
	return View{
		Address:     o.address,
		State:       o.state,
		Error:       o.lastError,
		Balance:     o.balance,
		NextClaimAt: o.nextClaimAt,
		RetriesLeft: left,
		CanRetry:    o.canRetryLocked(),
		InFlight:    o.inFlight,

		PendingReference: o.reference,
	}
}

// CanRetry reports whether the retry control is offered for the shown error.
func (o *Orchestrator) CanRetry() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.canRetryLocked()
}

func (o *Orchestrator) canRetryLocked() bool {
	return o.lastError != "" && !o.inFlight && o.retries < o.cfg.MaxRetries
}

// Retry re-runs the claim after the retry delay. At most MaxRetries retries
// are allowed per address.
func (o *Orchestrator) Retry(ctx context.Context) error {
	o.mu.Lock()
	if !o.canRetryLocked() {
		o.mu.Unlock()
		return errors.New(errors.ErrCodeRetryExhausted, "No retries left").
			WithDetail("max_retries", o.cfg.MaxRetries)
	}
	o.retries++
	o.lastError = ""
	attempt := o.retries
	o.mu.Unlock()

	o.logger.Info().Int("retry", attempt).Msg("Retrying claim")
	if err := o.sleep(ctx, o.cfg.RetryDelay); err != nil {
		return err
	}
	return o.Claim(ctx)
}

// Claim runs one claim attempt. Gating failures are reported without any
// backend or bridge submission.
func (o *Orchestrator) Claim(ctx context.Context) error {
	address, err := o.begin()
	if err != nil {
		return err
	}

	err = o.run(ctx, address)

	o.mu.Lock()
	defer o.mu.Unlock()
	o.inFlight = false
	if err != nil {
		o.state = StateIdle
		o.lastError = errors.UserMessage(err, msgClaimFailed)
		o.logger.Error().Str("address", address).Err(err).Msg("Claim failed")
		return err
	}
	o.state = StateSuccess
	o.lastError = ""
	return nil
}

func (o *Orchestrator) begin() (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.address == "" {
		return "", errors.NewInvalidAddressError("")
	}
	if o.inFlight {
		return "", errors.New(errors.ErrCodeClaimInFlight, "A claim is already in progress")
	}
	o.inFlight = true
	o.lastError = ""
	return o.address, nil
}

func (o *Orchestrator) run(ctx context.Context, address string) error {
	if err := o.gate(ctx, address); err != nil {
		return err
	}

	o.setState(StateCheckingEligibility)
	if err := o.checkEligibility(ctx, address); err != nil {
		return err
	}

	o.setState(StateSubmitting)
	result, err := o.deps.Submitter.Execute(ctx, o.cfg.Contract, address)
	if err != nil {
		return err
	}

	o.mu.Lock()
	o.reference = result.Reference
	o.mu.Unlock()

	o.setState(StateVerifying)
	o.verify(ctx, address, result)

	o.commit(ctx, address)
	return nil
}

func (o *Orchestrator) gate(ctx context.Context, address string) error {
	missing, err := o.deps.Checklist.Missing(ctx, address)
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		return errors.New(errors.ErrCodeSocialIncomplete, msgSocialIncomplete).
			WithDetail("missing", strings.Join(missing, ","))
	}

	callCtx, cancel := o.withTimeout(ctx)
	installed := o.deps.Bridge.Installed(callCtx)
	cancel()
	if !installed {
		return errors.NewBridgeUnavailableError()
	}

	next, active, err := o.deps.Timers.Active(ctx, address, o.now())
	if err != nil {
		o.logger.Warn().Str("address", address).Err(err).Msg("Failed to read claim timer")
		return nil
	}
	if active {
		left := next.Sub(o.now()).Round(time.Second)
		return errors.New(errors.ErrCodeCooldownActive, fmt.Sprintf("Next claim available in %s", left)).
			WithDetail("next_claim_at", next.UnixMilli())
	}
	return nil
}

// checkEligibility treats a failed read as eligible: the contract rejects an
// ineligible claim on-chain anyway.
func (o *Orchestrator) checkEligibility(ctx context.Context, address string) error {
	callCtx, cancel := o.withTimeout(ctx)
	defer cancel()

	status, err := o.deps.Status.GetStatus(callCtx, address)
	if err != nil {
		o.logger.Warn().Str("address", address).Err(err).Msg("Eligibility check failed, proceeding with claim")
		return nil
	}
	if !status.Success || !status.CanClaim {
		return errors.NewIneligibleError(status.Reason)
	}
	return nil
}

func (o *Orchestrator) verify(ctx context.Context, address string, result *strategy.Result) {
	callCtx, cancel := o.withTimeout(ctx)
	defer cancel()

	resp, err := o.deps.Verifier.Verify(callCtx, &verifymodels.VerifyRequest{
		TransactionID: result.TransactionID,
		Reference:     result.Reference,
		UserAddress:   address,
	})
	switch {
	case err != nil:
		o.logger.Warn().
			Str("reference", result.Reference).
			Err(errors.Wrap(err, errors.ErrCodeVerificationFailed, "Verification request failed")).
			Msg("Verification failed, continuing")
	case !resp.Success:
		o.logger.Warn().
			Str("reference", result.Reference).
			Str("message", resp.Message).
			Msg("Verification warning, continuing")
	default:
		o.logger.Info().Str("reference", result.Reference).Str("message", resp.Message).Msg("Claim verified")
	}
}

// commit records a successful submission: a new cooldown window and the
// claimed amount added to the displayed balance.
func (o *Orchestrator) commit(ctx context.Context, address string) {
	next := o.now().Add(o.cfg.Cooldown)
	if err := o.deps.Timers.Set(ctx, address, next); err != nil {
		o.logger.Error().Str("address", address).Err(err).Msg("Failed to persist claim timer")
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	o.nextClaimAt = next
	o.balance = o.balance.Add(o.cfg.ClaimAmount)
}

func (o *Orchestrator) setState(s State) {
	o.mu.Lock()
	o.state = s
	o.mu.Unlock()
	o.logger.Debug().Str("state", string(s)).Msg("Claim state changed")
}

func (o *Orchestrator) activeAddress() (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.address == "" {
		return "", errors.NewInvalidAddressError("")
	}
	return o.address, nil
}

func (o *Orchestrator) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if o.cfg.CallTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, o.cfg.CallTimeout)
}
