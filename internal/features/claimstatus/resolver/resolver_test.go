package resolver

import (
	"context"
	"math"
	stderrors "errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"daily-claim-backend/internal/common/errors"
	"daily-claim-backend/internal/platform/evm"
)

var (
	contractAddr = common.HexToAddress("0x1F53330Bc66d9e38e4fE4561D515A73eD59787b6")
	tokenAddr    = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	userAddr     = common.HexToAddress("0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed")
)

type evmABI = abi.ABI

func ether(whole, tenths int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(whole*10+tenths), big.NewInt(1e17))
}

type fakeChain struct {
	code     []byte
	codeErr  error
	outputs  map[string][]byte
	failures map[string]error
}

func healthyChain(t *testing.T, lastClaimed, cooldown int64) *fakeChain {
	t.Helper()
	pack := func(abiDef evmABI, method string, v interface{}) []byte {
		out, err := abiDef.Methods[method].Outputs.Pack(v)
		require.NoError(t, err)
		return out
	}
	return &fakeChain{
		code: []byte{0x60, 0x80},
		outputs: map[string][]byte{
			evm.MethodLastClaimed:   pack(evm.AirdropABI, evm.MethodLastClaimed, big.NewInt(lastClaimed)),
			evm.MethodClaimCooldown: pack(evm.AirdropABI, evm.MethodClaimCooldown, big.NewInt(cooldown)),
			evm.MethodClaimAmount:   pack(evm.AirdropABI, evm.MethodClaimAmount, ether(1, 0)),
			evm.MethodRewardToken:   pack(evm.AirdropABI, evm.MethodRewardToken, tokenAddr),
			evm.MethodBalanceOf:     pack(evm.ERC20ABI, evm.MethodBalanceOf, ether(12, 5)),
		},
		failures: map[string]error{},
	}
}

func (f *fakeChain) CodeAt(ctx context.Context, account common.Address, _ *big.Int) ([]byte, error) {
	if f.codeErr != nil {
		return nil, f.codeErr
	}
	if account != contractAddr {
		return nil, nil
	}
	return f.code, nil
}

func (f *fakeChain) CallContract(ctx context.Context, call ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	for _, def := range []evmABI{evm.AirdropABI, evm.ERC20ABI} {
		method, err := def.MethodById(call.Data[:4])
		if err != nil {
			continue
		}
		if err, ok := f.failures[method.Name]; ok {
			return nil, err
		}
		return f.outputs[method.Name], nil
	}
	return nil, stderrors.New("execution reverted")
}

func (f *fakeChain) TransactionReceipt(context.Context, common.Hash) (*types.Receipt, error) {
	return nil, ethereum.NotFound
}

func (f *fakeChain) TransactionByHash(context.Context, common.Hash) (*types.Transaction, bool, error) {
	return nil, false, ethereum.NotFound
}

func (f *fakeChain) Close() {}

type fakeDialer struct {
	mu     sync.Mutex
	chains map[evm.Endpoint]*fakeChain
	errs   map[evm.Endpoint]error
	dialed []evm.Endpoint
}

func (d *fakeDialer) Dial(_ context.Context, endpoint evm.Endpoint) (evm.Client, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dialed = append(d.dialed, endpoint)
	if err := d.errs[endpoint]; err != nil {
		return nil, err
	}
	return d.chains[endpoint], nil
}

func newResolver(d *fakeDialer, endpoints ...string) *Resolver {
	return New(evm.NewPool(endpoints), d, contractAddr, 18, time.Second, zerolog.Nop())
}

func TestResolveFirstHealthyEndpointWins(t *testing.T) {
	d := &fakeDialer{
		chains: map[evm.Endpoint]*fakeChain{
			"http://no-code": {code: nil},
			"http://broken":  {codeErr: stderrors.New("502 bad gateway")},
			"http://good":    healthyChain(t, 0, 86400),
			"http://later":   healthyChain(t, 0, 86400),
		},
	}
	r := newResolver(d, "http://no-code", "http://broken", "http://good", "http://later")

	snapshot, err := r.Resolve(context.Background(), userAddr)
	require.NoError(t, err)

	assert.Equal(t, evm.Endpoint("http://good"), snapshot.SourceEndpoint)
	assert.Equal(t, []evm.Endpoint{"http://no-code", "http://broken", "http://good"}, d.dialed)
	assert.Equal(t, int64(0), snapshot.LastClaimedAt)
	assert.Equal(t, int64(86400), snapshot.CooldownSeconds)
	assert.Equal(t, "1", snapshot.ClaimAmount)
	assert.Equal(t, "12.5", snapshot.TokenBalance)
}

func TestResolveAllEndpointsExhausted(t *testing.T) {
	d := &fakeDialer{
		chains: map[evm.Endpoint]*fakeChain{
			"http://a": {code: nil},
		},
		errs: map[evm.Endpoint]error{
			"http://b": stderrors.New("dial tcp: i/o timeout"),
		},
	}
	r := newResolver(d, "http://a", "http://b")

	snapshot, err := r.Resolve(context.Background(), userAddr)
	assert.Nil(t, snapshot)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeAllEndpointsExhausted))

	appErr, ok := errors.AsAppError(err)
	require.True(t, ok)
	assert.Contains(t, appErr.Cause.Error(), "i/o timeout")
	assert.Equal(t, 2, appErr.Details["endpoints_tried"])
}

func TestResolveEmptyPool(t *testing.T) {
	r := newResolver(&fakeDialer{})

	_, err := r.Resolve(context.Background(), userAddr)
	assert.True(t, errors.HasCode(err, errors.ErrCodeAllEndpointsExhausted))
}

func TestResolveFailedReadMovesToNextEndpoint(t *testing.T) {
	flaky := healthyChain(t, 0, 60)
	flaky.failures[evm.MethodClaimCooldown] = stderrors.New("rate limited")
	d := &fakeDialer{chains: map[evm.Endpoint]*fakeChain{
		"http://flaky": flaky,
		"http://good":  healthyChain(t, 1_700_000_000, 60),
	}}
	r := newResolver(d, "http://flaky", "http://good")

	snapshot, err := r.Resolve(context.Background(), userAddr)
	require.NoError(t, err)
	assert.Equal(t, evm.Endpoint("http://good"), snapshot.SourceEndpoint)
	assert.Equal(t, int64(1_700_000_000), snapshot.LastClaimedAt)
}

func TestResolveBalanceFailureIsNotFatal(t *testing.T) {
	chain := healthyChain(t, 0, 60)
	chain.failures[evm.MethodRewardToken] = stderrors.New("execution reverted")
	d := &fakeDialer{chains: map[evm.Endpoint]*fakeChain{"http://a": chain}}

	snapshot, err := newResolver(d, "http://a").Resolve(context.Background(), userAddr)
	require.NoError(t, err)
	assert.Equal(t, "0", snapshot.TokenBalance)
	assert.Equal(t, "1", snapshot.ClaimAmount)
}

func TestResolveStopsOnCancelledContext(t *testing.T) {
	d := &fakeDialer{chains: map[evm.Endpoint]*fakeChain{"http://a": healthyChain(t, 0, 60)}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newResolver(d, "http://a").Resolve(ctx, userAddr)
	assert.True(t, errors.HasCode(err, errors.ErrCodeAllEndpointsExhausted))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, d.dialed)
}

func TestResolveRejectsOverflowingCooldown(t *testing.T) {
	d := &fakeDialer{chains: map[evm.Endpoint]*fakeChain{
		"http://overflow": healthyChain(t, 1_700_000_000, math.MaxInt64),
		"http://good":     healthyChain(t, 1_700_000_000, 86400),
	}}

	snapshot, err := newResolver(d, "http://overflow", "http://good").Resolve(context.Background(), userAddr)
	require.NoError(t, err)
	assert.Equal(t, evm.Endpoint("http://good"), snapshot.SourceEndpoint)
	assert.Equal(t, int64(86400), snapshot.CooldownSeconds)
}
