package orchestrator

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"daily-claim-backend/internal/common/errors"
	"daily-claim-backend/internal/features/claim/store"
	"daily-claim-backend/internal/features/claim/strategy"
	"daily-claim-backend/internal/features/claim/wallet"
	statusmodels "daily-claim-backend/internal/features/claimstatus/models"
	verifymodels "daily-claim-backend/internal/features/verification/models"
	"daily-claim-backend/internal/platform/evm"
	"daily-claim-backend/internal/platform/redis/redistest"
)

const user = "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"

var (
	contract  = common.HexToAddress("0x1F53330Bc66d9e38e4fE4561D515A73eD59787b6")
	platforms = []string{"telegram", "twitter", "youtube"}
	fixedNow  = time.UnixMilli(1_718_000_000_000)
)

type stubStatus struct {
	mu     sync.Mutex
	status *statusmodels.ClaimStatus
	err    error
	calls  int
	during func()
}

func (s *stubStatus) GetStatus(context.Context, string) (*statusmodels.ClaimStatus, error) {
	if s.during != nil {
		s.during()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.status, s.err
}

type stubVerifier struct {
	got  *verifymodels.VerifyRequest
	resp *verifymodels.VerifyResponse
	err  error
}

func (v *stubVerifier) Verify(_ context.Context, req *verifymodels.VerifyRequest) (*verifymodels.VerifyResponse, error) {
	v.got = req
	return v.resp, v.err
}

type stubBridge struct {
	installed bool
	probes    int
	sends     int
	reply     string
	err       error
}

func (b *stubBridge) Installed(context.Context) bool {
	b.probes++
	return b.installed
}

func (b *stubBridge) SendTransaction(context.Context, wallet.Request) (json.RawMessage, error) {
	b.sends++
	if b.err != nil {
		return nil, b.err
	}
	return json.RawMessage(b.reply), nil
}

type harness struct {
	o        *Orchestrator
	fake     *redistest.Fake
	status   *stubStatus
	verifier *stubVerifier
	bridge   *stubBridge
	timers   *store.Timers
	refs     *store.References
	delays   []time.Duration
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		fake: redistest.NewFake(),
		status: &stubStatus{status: &statusmodels.ClaimStatus{
			Success: true, Address: user, CanClaim: true, ClaimAmount: "1", Balance: "12.5",
		}},
		verifier: &stubVerifier{resp: &verifymodels.VerifyResponse{Success: true, Message: "ok"}},
		bridge:   &stubBridge{installed: true, reply: `{"finalPayload":{"status":"success","transaction_id":"0xabc"}}`},
	}
	h.timers = store.NewTimers(h.fake)
	checklist := store.NewChecklist(h.fake, platforms)
	h.refs = store.NewReferences(h.fake, time.Hour)
	executor := strategy.NewExecutor(h.bridge, h.refs, evm.AirdropABIJSON, time.Second, zerolog.Nop())

	h.o = New(Deps{
		Status:     h.status,
		Verifier:   h.verifier,
		Submitter:  executor,
		Bridge:     h.bridge,
		Timers:     h.timers,
		Checklist:  checklist,
		References: h.refs,
	}, Config{
		Contract:    contract,
		ClaimAmount: decimal.NewFromInt(1),
		Cooldown:    24 * time.Hour,
		MaxRetries:  3,
		RetryDelay:  500 * time.Millisecond,
		CallTimeout: time.Second,
	}, zerolog.Nop())
	h.o.now = func() time.Time { return fixedNow }
	h.o.sleep = func(_ context.Context, d time.Duration) error {
		h.delays = append(h.delays, d)
		return nil
	}

	require.NoError(t, h.o.SetAddress(user))
	return h
}

func (h *harness) followAll(t *testing.T) {
	t.Helper()
	for _, p := range platforms {
		require.NoError(t, h.o.MarkFollowed(context.Background(), p))
	}
}

func TestClaimRefusedWhenChecklistIncomplete(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.o.MarkFollowed(context.Background(), "telegram"))
	require.NoError(t, h.o.MarkFollowed(context.Background(), "twitter"))

	err := h.o.Claim(context.Background())
	assert.True(t, errors.HasCode(err, errors.ErrCodeSocialIncomplete))

	assert.Zero(t, h.status.calls)
	assert.Zero(t, h.bridge.probes)
	assert.Zero(t, h.bridge.sends)
	assert.Nil(t, h.verifier.got)

	view := h.o.View()
	assert.Equal(t, StateIdle, view.State)
	assert.Equal(t, "Please follow all social channels before claiming", view.Error)
	assert.False(t, view.InFlight)
}

func TestClaimRefusedWhenBridgeMissing(t *testing.T) {
	h := newHarness(t)
	h.followAll(t)
	h.bridge.installed = false

	err := h.o.Claim(context.Background())
	assert.True(t, errors.HasCode(err, errors.ErrCodeBridgeUnavailable))
	assert.Zero(t, h.status.calls)
	assert.Zero(t, h.bridge.sends)
	assert.Equal(t, "Wallet is not installed. Please install it first.", h.o.View().Error)
}

func TestClaimEndToEnd(t *testing.T) {
	h := newHarness(t)
	h.followAll(t)
	ctx := context.Background()

	require.NoError(t, h.o.Mount(ctx))
	assert.True(t, decimal.RequireFromString("12.5").Equal(h.o.View().Balance))

	require.NoError(t, h.o.Claim(ctx))

	view := h.o.View()
	assert.Equal(t, StateSuccess, view.State)
	assert.Empty(t, view.Error)
	assert.True(t, decimal.RequireFromString("13.5").Equal(view.Balance))
	assert.Equal(t, fixedNow.UnixMilli()+86_400_000, view.NextClaimAt.UnixMilli())

	stored, ok, err := h.timers.Get(ctx, user)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, fixedNow.UnixMilli()+86_400_000, stored.UnixMilli())

	require.NotNil(t, h.verifier.got)
	assert.Equal(t, "0xabc", h.verifier.got.TransactionID)
	assert.Equal(t, user, h.verifier.got.UserAddress)
	assert.Regexp(t, `^claim-1718000000000-`, h.verifier.got.Reference)
	assert.Equal(t, 1, h.bridge.sends)

	assert.Equal(t, Countdown{Hours: 24}, h.o.Countdown(fixedNow))
}

func TestEligibilityReadFailureProceeds(t *testing.T) {
	h := newHarness(t)
	h.followAll(t)
	h.status.err = errors.NewExternalAPIError("claim status", stderrors.New("connection refused"))
	h.status.status = nil

	require.NoError(t, h.o.Claim(context.Background()))
	assert.Equal(t, 1, h.bridge.sends)
	assert.Equal(t, StateSuccess, h.o.View().State)
}

func TestIneligibleShowsReason(t *testing.T) {
	h := newHarness(t)
	h.followAll(t)
	h.status.status = &statusmodels.ClaimStatus{Success: true, CanClaim: false, Reason: "Next claim available in 3h0m0s"}

	err := h.o.Claim(context.Background())
	assert.True(t, errors.HasCode(err, errors.ErrCodeIneligible))
	assert.Equal(t, "Next claim available in 3h0m0s", h.o.View().Error)
	assert.Zero(t, h.bridge.sends)

	h.status.status = &statusmodels.ClaimStatus{Success: true, CanClaim: false}
	_ = h.o.Claim(context.Background())
	assert.Equal(t, "You are not eligible to claim at this time", h.o.View().Error)
}

func TestVerificationFailureIsAdvisory(t *testing.T) {
	h := newHarness(t)
	h.followAll(t)
	h.verifier.err = stderrors.New("backend down")

	require.NoError(t, h.o.Claim(context.Background()))
	assert.Equal(t, StateSuccess, h.o.View().State)

	h2 := newHarness(t)
	h2.followAll(t)
	h2.verifier.resp = &verifymodels.VerifyResponse{Success: false, Message: "Claim transaction reverted on-chain"}
	require.NoError(t, h2.o.Claim(context.Background()))
}

func TestSubmissionFailureSurfacesMessage(t *testing.T) {
	h := newHarness(t)
	h.followAll(t)
	h.bridge.reply = `{"status":"pending"}`

	err := h.o.Claim(context.Background())
	assert.True(t, errors.HasCode(err, errors.ErrCodeNoViableStrategy))
	assert.Equal(t,
		"Could not obtain a valid transaction ID after multiple attempts. Please try again or contact support.",
		h.o.View().Error)
	assert.Nil(t, h.verifier.got)

	_, ok, err := h.timers.Get(context.Background(), user)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRetryBound(t *testing.T) {
	h := newHarness(t)
	h.followAll(t)
	h.bridge.err = stderrors.New("user rejected")
	ctx := context.Background()

	require.Error(t, h.o.Claim(ctx))
	assert.True(t, h.o.CanRetry())

	for i := 1; i <= 3; i++ {
		require.Error(t, h.o.Retry(ctx))
		assert.Equal(t, 3-i, h.o.View().RetriesLeft)
	}

	assert.False(t, h.o.CanRetry())
	assert.NotEmpty(t, h.o.View().Error)

	err := h.o.Retry(ctx)
	assert.True(t, errors.HasCode(err, errors.ErrCodeRetryExhausted))
	assert.Equal(t, 4*3, h.bridge.sends)
	assert.Equal(t, []time.Duration{500 * time.Millisecond, 500 * time.Millisecond, 500 * time.Millisecond}, h.delays)
}

func TestSetAddressResetsRetries(t *testing.T) {
	h := newHarness(t)
	h.followAll(t)
	h.bridge.err = stderrors.New("user rejected")
	ctx := context.Background()

	_ = h.o.Claim(ctx)
	for i := 0; i < 3; i++ {
		_ = h.o.Retry(ctx)
	}
	require.False(t, h.o.CanRetry())

	require.NoError(t, h.o.SetAddress("0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359"))
	view := h.o.View()
	assert.Equal(t, 3, view.RetriesLeft)
	assert.Empty(t, view.Error)

	assert.True(t, errors.HasCode(h.o.SetAddress("nope"), errors.ErrCodeInvalidAddress))
}

func TestLocalCooldownGate(t *testing.T) {
	h := newHarness(t)
	h.followAll(t)
	require.NoError(t, h.timers.Set(context.Background(), user, fixedNow.Add(2*time.Hour)))

	err := h.o.Claim(context.Background())
	assert.True(t, errors.HasCode(err, errors.ErrCodeCooldownActive))
	assert.Equal(t, "Next claim available in 2h0m0s", h.o.View().Error)
	assert.Zero(t, h.status.calls)
	assert.Zero(t, h.bridge.sends)
}

func TestRefreshClearsExpiredTimer(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.timers.Set(ctx, user, fixedNow.Add(90*time.Minute+5*time.Second)))

	require.NoError(t, h.o.Refresh(ctx))
	assert.Equal(t, Countdown{Hours: 1, Minutes: 30, Seconds: 5}, h.o.Countdown(fixedNow))
	assert.Equal(t, "01:30:05", h.o.Countdown(fixedNow).String())

	h.o.now = func() time.Time { return fixedNow.Add(2 * time.Hour) }
	require.NoError(t, h.o.Refresh(ctx))
	assert.Equal(t, Countdown{}, h.o.Countdown(fixedNow))
	assert.Empty(t, h.fake.Keys())
}

type blockingSubmitter struct {
	entered chan struct{}
	release chan struct{}
}

func (s *blockingSubmitter) Execute(context.Context, common.Address, string) (*strategy.Result, error) {
	close(s.entered)
	<-s.release
	return &strategy.Result{TransactionID: "0x1", Reference: "claim-1-x"}, nil
}

func TestOnlyOneClaimInFlight(t *testing.T) {
	h := newHarness(t)
	h.followAll(t)
	sub := &blockingSubmitter{entered: make(chan struct{}), release: make(chan struct{})}
	h.o.deps.Submitter = sub

	done := make(chan error, 1)
	go func() { done <- h.o.Claim(context.Background()) }()
	<-sub.entered

	assert.True(t, h.o.View().InFlight)
	assert.Equal(t, StateSubmitting, h.o.View().State)
	err := h.o.Claim(context.Background())
	assert.True(t, errors.HasCode(err, errors.ErrCodeClaimInFlight))

	close(sub.release)
	require.NoError(t, <-done)
	assert.False(t, h.o.View().InFlight)
}

func TestClaimWithoutAddress(t *testing.T) {
	o := New(Deps{}, Config{}, zerolog.Nop())
	assert.True(t, errors.HasCode(o.Claim(context.Background()), errors.ErrCodeInvalidAddress))
}

func TestMountLoadsPendingReference(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.refs.Put(context.Background(), user, "claim-1718000000000-abc"))

	require.NoError(t, h.o.Mount(context.Background()))
	assert.Equal(t, "claim-1718000000000-abc", h.o.View().PendingReference)
}

func TestClaimKeepsReferenceAcrossRemount(t *testing.T) {
	h := newHarness(t)
	h.followAll(t)

	require.NoError(t, h.o.Claim(context.Background()))
	reference := h.o.View().PendingReference
	require.NotEmpty(t, reference)
	assert.Equal(t, h.verifier.got.Reference, reference)

	require.NoError(t, h.o.SetAddress("0x0000000000000000000000000000000000000001"))
	assert.Empty(t, h.o.View().PendingReference)

	require.NoError(t, h.o.SetAddress(user))
	require.NoError(t, h.o.Mount(context.Background()))
	assert.Equal(t, reference, h.o.View().PendingReference)
}

func TestMountDropsBalanceOfPreviousAddress(t *testing.T) {
	h := newHarness(t)
	const other = "0x0000000000000000000000000000000000000001"
	h.status.during = func() {
		h.status.during = nil
		require.NoError(t, h.o.SetAddress(other))
	}

	require.NoError(t, h.o.Mount(context.Background()))

	view := h.o.View()
	assert.Equal(t, other, view.Address)
	assert.True(t, view.Balance.IsZero())
}
