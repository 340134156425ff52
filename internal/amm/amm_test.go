package amm

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"testing"
	"time"

	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elys-network/wamm/internal/oracle"
	"github.com/elys-network/wamm/internal/pool"
	"github.com/elys-network/wamm/internal/types"
	"github.com/elys-network/wamm/internal/vault"
)

var (
	t0      = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	denoms  = []string{"uatom", "uosmo"}
	par     = sdkmath.NewInt(100_00000000)
	noLimit = sdkmath.ZeroInt()
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type memSink struct {
	mu     sync.Mutex
	events []types.Event
}

func (s *memSink) Record(_ context.Context, event types.Event, _ types.PoolSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *memSink) Types() []types.EventType {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.EventType, len(s.events))
	for i, e := range s.events {
		out[i] = e.Type
	}
	return out
}

// flakyTransfer fails the first failPushes PushTo calls.
type flakyTransfer struct {
	*vault.Ledger
	failPushes int
}

func (f *flakyTransfer) PushTo(ctx context.Context, payee string, coins sdk.Coins) error {
	if f.failPushes > 0 {
		f.failPushes--
		return errors.New("custody offline")
	}
	return f.Ledger.PushTo(ctx, payee, coins)
}

type harness struct {
	amm    *AMM
	ledger *vault.Ledger
	feeds  []*oracle.StaticFeed
	clock  *testClock
	sink   *memSink
}

func newHarness(t *testing.T, mutate func(*pool.State), transfer func(*vault.Ledger) vault.TokenTransfer) *harness {
	t.Helper()
	h := &harness{
		ledger: vault.NewLedger(),
		clock:  &testClock{now: t0},
		sink:   &memSink{},
	}
	feeds := make([]oracle.Feed, len(denoms))
	for i := range denoms {
		feed := oracle.NewStaticFeed(par)
		h.feeds = append(h.feeds, feed)
		feeds[i] = feed
	}

	st, err := pool.NewState(denoms, feeds, types.PoolParameters{
		Fees:              types.FeeParameters{BaseFeeBps: 30, DynamicFeeRangeBps: 70},
		RebalanceInterval: 24 * time.Hour,
	}, t0)
	require.NoError(t, err)
	if mutate != nil {
		mutate(st)
		// Fund custody with whatever the mutated state claims to hold.
		if coins := st.Coins(st.Reserves()); !coins.IsZero() {
			require.NoError(t, h.ledger.Credit(vault.PoolAccount, coins))
		}
	}

	var tt vault.TokenTransfer = h.ledger
	if transfer != nil {
		tt = transfer(h.ledger)
	}
	h.amm, err = NewAMM(Config{State: st, Transfer: tt, Sink: h.sink, Clock: h.clock.Now})
	require.NoError(t, err)
	return h
}

func (h *harness) fund(t *testing.T, account, coins string) {
	t.Helper()
	parsed, err := sdk.ParseCoinsNormalized(coins)
	require.NoError(t, err)
	require.NoError(t, h.ledger.Credit(account, parsed))
}

func ints(values ...int64) []sdkmath.Int {
	out := make([]sdkmath.Int, len(values))
	for i, v := range values {
		out[i] = sdkmath.NewInt(v)
	}
	return out
}

func assertAmounts(t *testing.T, expected []int64, got []sdkmath.Int) {
	t.Helper()
	require.Len(t, got, len(expected))
	for i, want := range expected {
		assert.Equal(t, fmt.Sprint(want), got[i].String(), "index %d", i)
	}
}

func assertInvariants(t *testing.T, a *AMM) {
	t.Helper()
	a.mu.RLock()
	defer a.mu.RUnlock()
	require.NoError(t, a.state.Validate())
}

func TestNewAMMValidation(t *testing.T) {
	_, err := NewAMM(Config{Transfer: vault.NewLedger()})
	assert.ErrorContains(t, err, "pool state cannot be nil")

	st, err := pool.NewState(denoms, []oracle.Feed{oracle.NewStaticFeed(par), oracle.NewStaticFeed(par)},
		types.PoolParameters{RebalanceInterval: time.Hour}, t0)
	require.NoError(t, err)
	_, err = NewAMM(Config{State: st})
	assert.ErrorContains(t, err, "token transfer cannot be nil")

	st.Shares["ghost"] = sdkmath.NewInt(1)
	_, err = NewAMM(Config{State: st, Transfer: vault.NewLedger()})
	assert.ErrorContains(t, err, "inconsistent")
}

func TestDeposit(t *testing.T) {
	h := newHarness(t, nil, nil)
	ctx := context.Background()
	h.fund(t, "alice", "1000uatom,1000uosmo")
	h.fund(t, "bob", "100uatom,500uosmo")

	res, err := h.amm.Deposit(ctx, "alice", ints(1000, 1000))
	require.NoError(t, err)
	assert.True(t, res.Shares.Equal(pool.BootstrapShares))
	assert.NotEmpty(t, res.OperationID)

	res, err = h.amm.Deposit(ctx, "bob", ints(100, 500))
	require.NoError(t, err)
	assert.Equal(t, "100000000000000000", res.Shares.String())

	snap := h.amm.Snapshot()
	assert.Equal(t, "1100000000000000000", snap.TotalShares.String())
	assert.Equal(t, "1100", snap.Assets[0].Reserve.String())
	assert.Equal(t, "1500", snap.Assets[1].Reserve.String())
	assert.Equal(t, "1100uatom,1500uosmo", h.ledger.Balance(vault.PoolAccount).String())
	assert.True(t, h.ledger.Balance("bob").IsZero())
	assert.Equal(t, []types.EventType{types.EventLiquidityAdded, types.EventLiquidityAdded}, h.sink.Types())
	assertInvariants(t, h.amm)
}

func TestDepositTransferFailureLeavesStateUnchanged(t *testing.T) {
	h := newHarness(t, nil, nil)
	h.fund(t, "alice", "10uatom,10uosmo")
	before := h.amm.Snapshot()

	_, err := h.amm.Deposit(context.Background(), "alice", ints(1000, 1000))
	require.ErrorIs(t, err, types.ErrTransferFailed)
	assert.ErrorIs(t, err, types.ErrExternalCall)
	assert.ErrorIs(t, err, vault.ErrInsufficientFunds)

	assert.Equal(t, before, h.amm.Snapshot())
	assert.Empty(t, h.sink.Types())
}

func TestDepositRejectsBadInput(t *testing.T) {
	h := newHarness(t, nil, nil)
	ctx := context.Background()

	_, err := h.amm.Deposit(ctx, "alice", ints(1000))
	assert.ErrorIs(t, err, types.ErrInvalidAmountsLength)

	_, err = h.amm.Deposit(ctx, "", ints(1, 1))
	assert.ErrorIs(t, err, types.ErrMissingAccount)
}

func TestDepositOracleFailureAborts(t *testing.T) {
	h := newHarness(t, nil, nil)
	h.fund(t, "alice", "1000uatom,1000uosmo")
	before := h.amm.Snapshot()

	h.feeds[0].Set(sdkmath.ZeroInt())
	_, err := h.amm.Deposit(context.Background(), "alice", ints(1000, 1000))
	require.ErrorIs(t, err, types.ErrNonPositivePrice)
	assert.Equal(t, before, h.amm.Snapshot())
	assert.Equal(t, "1000uatom,1000uosmo", h.ledger.Balance("alice").String())
}

func TestOversizedAmountsFailWithoutPanicking(t *testing.T) {
	h := newHarness(t, nil, nil)
	ctx := context.Background()
	large := sdkmath.NewIntWithDecimal(6, 76)
	largest := sdkmath.NewIntFromBigInt(new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1)))
	before := h.amm.Snapshot()

	// 6e76 fits in 256 bits, but 6e76 * 100e8 does not.
	var err error
	require.NotPanics(t, func() {
		_, err = h.amm.Deposit(ctx, "whale", []sdkmath.Int{large, large})
	})
	require.ErrorIs(t, err, types.ErrOverflow)
	assert.ErrorIs(t, err, types.ErrInput)
	assert.Equal(t, before, h.amm.Snapshot())
	assert.Empty(t, h.sink.Types())

	h.fund(t, "alice", "1000uatom,1000uosmo")
	_, err = h.amm.Deposit(ctx, "alice", ints(1000, 1000))
	require.NoError(t, err)
	before = h.amm.Snapshot()

	tests := []struct {
		name   string
		amount sdkmath.Int
		err    error
	}{
		{"input reserve above 256 bits", largest, types.ErrOverflow},
		{"output beyond reserve", large, types.ErrInsufficientReserve},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var err error
			require.NotPanics(t, func() {
				_, err = h.amm.Quote(ctx, 0, 1, tc.amount)
			})
			assert.ErrorIs(t, err, tc.err)

			require.NotPanics(t, func() {
				_, err = h.amm.Swap(ctx, "trader", 0, 1, tc.amount, noLimit)
			})
			assert.ErrorIs(t, err, tc.err)
		})
	}

	require.NotPanics(t, func() {
		_, err = h.amm.Deposit(ctx, "whale", []sdkmath.Int{largest, largest})
	})
	assert.ErrorIs(t, err, types.ErrOverflow)

	assert.Equal(t, before, h.amm.Snapshot())
	fee, err := h.amm.DynamicFee(ctx, 0, 1)
	require.NoError(t, err)
	assert.Equal(t, uint32(65), fee)
	assertInvariants(t, h.amm)
}

func TestSwapEqualWeightsScenario(t *testing.T) {
	h := newHarness(t, nil, nil)
	ctx := context.Background()
	h.fund(t, "alice", "1000uatom,1000uosmo")
	h.fund(t, "trader", "100uatom")

	_, err := h.amm.Deposit(ctx, "alice", ints(1000, 1000))
	require.NoError(t, err)
	h.clock.Advance(time.Hour)

	res, err := h.amm.Swap(ctx, "trader", 0, 1, sdkmath.NewInt(100), noLimit)
	require.NoError(t, err)
	assert.Equal(t, "100", res.AmountOut.String())
	// Post-swap reserves [1100, 900] make the pair all of the pool: 30 + 70*100/200.
	assert.Equal(t, uint32(65), res.FeeBps)
	assert.True(t, res.FeeAmount.IsZero())
	assert.False(t, res.Rebalanced)

	snap := h.amm.Snapshot()
	assertAmounts(t, []int64{1100, 900}, []sdkmath.Int{snap.Assets[0].Reserve, snap.Assets[1].Reserve})
	assert.Equal(t, "100uosmo", h.ledger.Balance("trader").String())
	assertInvariants(t, h.amm)
}

func TestSwapAccruesFeeToFundAndProtocol(t *testing.T) {
	h := newHarness(t, nil, nil)
	ctx := context.Background()
	h.fund(t, "alice", "1000000uatom,1000000uosmo")
	h.fund(t, "trader", "100000uosmo")

	_, err := h.amm.Deposit(ctx, "alice", ints(1_000_000, 1_000_000))
	require.NoError(t, err)

	// Asset 1 is worth twice asset 0, so the fund half is doubled into asset 0 units.
	h.feeds[1].Set(sdkmath.NewInt(200_00000000))

	res, err := h.amm.Swap(ctx, "trader", 1, 0, sdkmath.NewInt(100_000), noLimit)
	require.NoError(t, err)
	assert.Equal(t, "200000", res.AmountOut.String())
	// volatility 50, utilization 100: 30 + 70*150/200 = 82
	assert.Equal(t, uint32(82), res.FeeBps)
	assert.Equal(t, "820", res.FeeAmount.String())

	snap := h.amm.Snapshot()
	assert.Equal(t, "820", snap.ImpermanentLossFund.String())
	assert.Equal(t, "820", snap.FundContributed.String())
	assert.Equal(t, "410", snap.ProtocolRevenue[1].String())
	assert.True(t, snap.ProtocolRevenue[0].IsZero())
	assertInvariants(t, h.amm)
}

func TestSwapRejections(t *testing.T) {
	h := newHarness(t, nil, nil)
	ctx := context.Background()
	h.fund(t, "alice", "1000uatom,1000uosmo")
	h.fund(t, "trader", "5000uatom")
	_, err := h.amm.Deposit(ctx, "alice", ints(1000, 1000))
	require.NoError(t, err)

	before := h.amm.Snapshot()
	events := len(h.sink.Types())

	tests := []struct {
		name    string
		in, out int
		amount  sdkmath.Int
		minOut  sdkmath.Int
		err     error
	}{
		{"identical assets", 0, 0, sdkmath.NewInt(10), noLimit, types.ErrIdenticalAssets},
		{"index out of range", 0, 2, sdkmath.NewInt(10), noLimit, types.ErrAssetOutOfRange},
		{"zero input", 0, 1, sdkmath.ZeroInt(), noLimit, types.ErrNonPositiveAmount},
		{"below minimum output", 0, 1, sdkmath.NewInt(100), sdkmath.NewInt(101), types.ErrOutputBelowMinimum},
		{"output exceeds reserve", 0, 1, sdkmath.NewInt(1001), noLimit, types.ErrInsufficientReserve},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := h.amm.Swap(ctx, "trader", tc.in, tc.out, tc.amount, tc.minOut)
			assert.ErrorIs(t, err, tc.err)
		})
	}

	_, err = h.amm.Swap(ctx, "trader", 0, 1, sdkmath.NewInt(100), sdkmath.NewInt(101))
	assert.ErrorIs(t, err, types.ErrSlippage)
	_, err = h.amm.Swap(ctx, "trader", 0, 1, sdkmath.NewInt(1001), noLimit)
	assert.ErrorIs(t, err, types.ErrSolvency)

	assert.Equal(t, before, h.amm.Snapshot())
	assert.Len(t, h.sink.Types(), events)
	assert.Equal(t, "5000uatom", h.ledger.Balance("trader").String())
}

func TestSwapOracleFailureAborts(t *testing.T) {
	h := newHarness(t, nil, nil)
	ctx := context.Background()
	h.fund(t, "alice", "1000uatom,1000uosmo")
	h.fund(t, "trader", "100uatom")
	_, err := h.amm.Deposit(ctx, "alice", ints(1000, 1000))
	require.NoError(t, err)
	before := h.amm.Snapshot()

	h.feeds[1].Set(sdkmath.ZeroInt())
	_, err = h.amm.Swap(ctx, "trader", 0, 1, sdkmath.NewInt(100), noLimit)
	require.ErrorIs(t, err, types.ErrNonPositivePrice)
	assert.ErrorIs(t, err, types.ErrExternalCall)
	assert.Equal(t, before, h.amm.Snapshot())
}

func TestSwapTriggersDueRebalance(t *testing.T) {
	h := newHarness(t, nil, nil)
	ctx := context.Background()
	h.fund(t, "alice", "1000uatom,1000uosmo")
	h.fund(t, "trader", "100uatom")
	_, err := h.amm.Deposit(ctx, "alice", ints(1000, 1000))
	require.NoError(t, err)

	h.clock.Advance(24 * time.Hour)
	res, err := h.amm.Swap(ctx, "trader", 0, 1, sdkmath.NewInt(100), noLimit)
	require.NoError(t, err)

	// Priced with the entry weights, then weights follow the post-swap values.
	assert.Equal(t, "100", res.AmountOut.String())
	require.True(t, res.Rebalanced)
	assert.Equal(t, "550000000000000000", res.Weights[0].String())
	assert.Equal(t, "450000000000000000", res.Weights[1].String())

	snap := h.amm.Snapshot()
	assert.Equal(t, h.clock.Now(), snap.LastRebalance)
	assert.Equal(t, "550000000000000000", snap.Assets[0].Weight.String())
}

func TestSwapPushFailureRefundsInput(t *testing.T) {
	var flaky *flakyTransfer
	h := newHarness(t, nil, func(l *vault.Ledger) vault.TokenTransfer {
		flaky = &flakyTransfer{Ledger: l}
		return flaky
	})
	ctx := context.Background()
	h.fund(t, "alice", "1000uatom,1000uosmo")
	h.fund(t, "trader", "100uatom")
	_, err := h.amm.Deposit(ctx, "alice", ints(1000, 1000))
	require.NoError(t, err)
	before := h.amm.Snapshot()

	flaky.failPushes = 1
	_, err = h.amm.Swap(ctx, "trader", 0, 1, sdkmath.NewInt(100), noLimit)
	require.ErrorIs(t, err, types.ErrTransferFailed)

	assert.Equal(t, before, h.amm.Snapshot())
	assert.Equal(t, "100uatom", h.ledger.Balance("trader").String())
	assert.Equal(t, "1000uatom,1000uosmo", h.ledger.Balance(vault.PoolAccount).String())
}

func TestSwapRoundTripIsNeverProfitable(t *testing.T) {
	h := newHarness(t, func(st *pool.State) {
		st.Assets[0].Weight = sdkmath.NewIntWithDecimal(3, 17)
		st.Assets[1].Weight = sdkmath.NewIntWithDecimal(7, 17)
	}, nil)
	ctx := context.Background()
	h.feeds[0].Set(sdkmath.NewInt(1_23456789))
	h.feeds[1].Set(sdkmath.NewInt(9_87654321))
	h.fund(t, "alice", "1000000uatom,1000000uosmo")
	h.fund(t, "trader", "5000uatom")
	_, err := h.amm.Deposit(ctx, "alice", ints(1_000_000, 1_000_000))
	require.NoError(t, err)

	there, err := h.amm.Swap(ctx, "trader", 0, 1, sdkmath.NewInt(5000), noLimit)
	require.NoError(t, err)
	back, err := h.amm.Swap(ctx, "trader", 1, 0, there.AmountOut, noLimit)
	require.NoError(t, err)

	assert.True(t, back.AmountOut.LTE(sdkmath.NewInt(5000)), "round trip returned %s", back.AmountOut)
	assertInvariants(t, h.amm)
}

func TestQuoteMatchesSwapAndDoesNotMutate(t *testing.T) {
	h := newHarness(t, nil, nil)
	ctx := context.Background()
	h.fund(t, "alice", "1000000uatom,1000000uosmo")
	h.fund(t, "trader", "50000uatom")
	_, err := h.amm.Deposit(ctx, "alice", ints(1_000_000, 1_000_000))
	require.NoError(t, err)
	before := h.amm.Snapshot()

	quote, err := h.amm.Quote(ctx, 0, 1, sdkmath.NewInt(50_000))
	require.NoError(t, err)
	assert.Equal(t, before, h.amm.Snapshot())

	fee, err := h.amm.DynamicFee(ctx, 0, 1)
	require.NoError(t, err)
	// Utilization is already 100 before the swap.
	assert.Equal(t, uint32(65), fee)

	res, err := h.amm.Swap(ctx, "trader", 0, 1, sdkmath.NewInt(50_000), quote.AmountOut)
	require.NoError(t, err)
	assert.Equal(t, *quote, res.SwapQuote)
}

func TestWithdrawFullScenario(t *testing.T) {
	h := newHarness(t, func(st *pool.State) {
		st.Assets[0].Reserve = sdkmath.NewInt(1100)
		st.Assets[1].Reserve = sdkmath.NewInt(900)
		st.Shares["alice"] = pool.BootstrapShares
		st.TotalShares = pool.BootstrapShares
	}, nil)

	res, err := h.amm.Withdraw(context.Background(), "alice", pool.BootstrapShares)
	require.NoError(t, err)

	assertAmounts(t, []int64{1100, 900}, res.Amounts)
	// Equal weights always report a loss, but the empty fund cannot pay it.
	assert.True(t, res.CompensationOwed.IsPositive())
	assert.True(t, res.Compensation.IsZero())
	assert.Equal(t, "1100uatom,900uosmo", h.ledger.Balance("alice").String())

	snap := h.amm.Snapshot()
	assert.True(t, snap.TotalShares.IsZero())
	assert.Empty(t, snap.Shares)
	assertInvariants(t, h.amm)
}

func TestWithdrawCompensationIsAllOrNothing(t *testing.T) {
	setup := func(fund int64) func(*pool.State) {
		return func(st *pool.State) {
			st.Assets[0].Reserve = sdkmath.NewInt(1000)
			st.Assets[1].Reserve = sdkmath.NewInt(1000)
			st.Shares["alice"] = pool.BootstrapShares
			st.Shares["bob"] = pool.BootstrapShares
			st.TotalShares = pool.BootstrapShares.MulRaw(2)
			st.ImpermanentLossFund = sdkmath.NewInt(fund)
			st.FundContributed = sdkmath.NewInt(fund)
		}
	}

	t.Run("fund covers the loss", func(t *testing.T) {
		h := newHarness(t, setup(600), nil)
		res, err := h.amm.Withdraw(context.Background(), "alice", pool.BootstrapShares)
		require.NoError(t, err)

		// Half the shares: loss (2000e8 - 1000e8) / 2 at price 100 -> 500 units of asset 0.
		assert.Equal(t, "500", res.CompensationOwed.String())
		assert.Equal(t, "500", res.Compensation.String())
		assertAmounts(t, []int64{1000, 500}, res.Amounts)

		snap := h.amm.Snapshot()
		assert.Equal(t, "100", snap.ImpermanentLossFund.String())
		assert.Equal(t, "500", snap.FundPaidOut.String())
		assert.True(t, snap.Assets[0].Reserve.IsZero())
		assertInvariants(t, h.amm)
	})

	t.Run("fund too small pays nothing", func(t *testing.T) {
		h := newHarness(t, setup(499), nil)
		res, err := h.amm.Withdraw(context.Background(), "alice", pool.BootstrapShares)
		require.NoError(t, err)

		assert.True(t, res.Compensation.IsZero())
		assertAmounts(t, []int64{500, 500}, res.Amounts)
		assert.Equal(t, "499", h.amm.Snapshot().ImpermanentLossFund.String())
	})
}

func TestWithdrawRejections(t *testing.T) {
	var flaky *flakyTransfer
	h := newHarness(t, func(st *pool.State) {
		st.Assets[0].Reserve = sdkmath.NewInt(1000)
		st.Assets[1].Reserve = sdkmath.NewInt(1000)
		st.Shares["alice"] = pool.BootstrapShares
		st.TotalShares = pool.BootstrapShares
	}, func(l *vault.Ledger) vault.TokenTransfer {
		flaky = &flakyTransfer{Ledger: l}
		return flaky
	})
	ctx := context.Background()
	before := h.amm.Snapshot()

	_, err := h.amm.Withdraw(ctx, "bob", sdkmath.NewInt(1))
	assert.ErrorIs(t, err, types.ErrInsufficientShares)

	_, err = h.amm.Withdraw(ctx, "alice", sdkmath.ZeroInt())
	assert.ErrorIs(t, err, types.ErrNonPositiveAmount)

	flaky.failPushes = 1
	_, err = h.amm.Withdraw(ctx, "alice", pool.BootstrapShares)
	assert.ErrorIs(t, err, types.ErrTransferFailed)

	assert.Equal(t, before, h.amm.Snapshot())
	assert.Empty(t, h.sink.Types())
}

func TestRebalanceTiming(t *testing.T) {
	h := newHarness(t, nil, nil)
	ctx := context.Background()
	h.fund(t, "alice", "1000uatom,3000uosmo")
	_, err := h.amm.Deposit(ctx, "alice", ints(1000, 3000))
	require.NoError(t, err)

	_, err = h.amm.Rebalance(ctx)
	require.ErrorIs(t, err, types.ErrRebalanceTooSoon)
	assert.ErrorIs(t, err, types.ErrTiming)
	assert.False(t, h.amm.RebalanceDue())

	h.clock.Advance(24 * time.Hour)
	assert.True(t, h.amm.RebalanceDue())
	weights, err := h.amm.Rebalance(ctx)
	require.NoError(t, err)
	assertAmounts(t, []int64{250000000000000000, 750000000000000000}, weights)

	h.clock.Advance(time.Hour)
	_, err = h.amm.Rebalance(ctx)
	require.ErrorIs(t, err, types.ErrTiming)
	assertAmounts(t, []int64{250000000000000000, 750000000000000000},
		[]sdkmath.Int{h.amm.Snapshot().Assets[0].Weight, h.amm.Snapshot().Assets[1].Weight})
}

func TestKeeperTickRebalancesWhenDue(t *testing.T) {
	h := newHarness(t, nil, nil)
	ctx := context.Background()
	h.fund(t, "alice", "1000uatom,3000uosmo")
	_, err := h.amm.Deposit(ctx, "alice", ints(1000, 3000))
	require.NoError(t, err)

	h.amm.keeperTick(ctx)
	assert.Equal(t, []types.EventType{types.EventLiquidityAdded}, h.sink.Types())

	h.clock.Advance(24 * time.Hour)
	h.amm.keeperTick(ctx)
	assert.Equal(t, []types.EventType{types.EventLiquidityAdded, types.EventWeightsRebalanced}, h.sink.Types())
}

func TestAdminOperations(t *testing.T) {
	h := newHarness(t, nil, nil)
	ctx := context.Background()

	err := h.amm.SetFeeParams(ctx, types.FeeParameters{BaseFeeBps: 10_001})
	assert.ErrorIs(t, err, types.ErrInvalidFee)
	err = h.amm.SetFeeParams(ctx, types.FeeParameters{BaseFeeBps: 5, DynamicFeeRangeBps: 10_001})
	assert.ErrorIs(t, err, types.ErrInvalidFee)
	require.NoError(t, h.amm.SetFeeParams(ctx, types.FeeParameters{BaseFeeBps: 10, DynamicFeeRangeBps: 10_000}))
	assert.Equal(t, types.FeeParameters{BaseFeeBps: 10, DynamicFeeRangeBps: 10_000}, h.amm.Snapshot().Fees)

	err = h.amm.SetRebalanceInterval(ctx, 59*time.Minute)
	require.ErrorIs(t, err, types.ErrIntervalTooShort)
	assert.ErrorIs(t, err, types.ErrTiming)
	require.NoError(t, h.amm.SetRebalanceInterval(ctx, time.Hour))
	assert.Equal(t, time.Hour, h.amm.Snapshot().RebalanceInterval)

	assert.Equal(t, []types.EventType{types.EventFeesUpdated, types.EventIntervalUpdated}, h.sink.Types())
}

func TestPauseGatesMutatingOperations(t *testing.T) {
	h := newHarness(t, nil, nil)
	ctx := context.Background()
	h.fund(t, "alice", "1000uatom,1000uosmo")

	require.NoError(t, h.amm.Pause(ctx))
	require.NoError(t, h.amm.Pause(ctx))
	assert.True(t, h.amm.Paused())

	_, err := h.amm.Deposit(ctx, "alice", ints(1000, 1000))
	assert.ErrorIs(t, err, types.ErrPaused)
	_, err = h.amm.Swap(ctx, "alice", 0, 1, sdkmath.NewInt(1), noLimit)
	assert.ErrorIs(t, err, types.ErrPaused)
	_, err = h.amm.Withdraw(ctx, "alice", sdkmath.NewInt(1))
	assert.ErrorIs(t, err, types.ErrPaused)
	_, err = h.amm.Rebalance(ctx)
	assert.ErrorIs(t, err, types.ErrPaused)

	require.NoError(t, h.amm.SetFeeParams(ctx, types.FeeParameters{BaseFeeBps: 1}))

	require.NoError(t, h.amm.Unpause(ctx))
	_, err = h.amm.Deposit(ctx, "alice", ints(1000, 1000))
	require.NoError(t, err)

	assert.Equal(t, []types.EventType{
		types.EventPoolPaused, types.EventFeesUpdated, types.EventPoolUnpaused, types.EventLiquidityAdded,
	}, h.sink.Types())
}

func TestConcurrentOperationsPreserveShareSum(t *testing.T) {
	h := newHarness(t, nil, nil)
	ctx := context.Background()
	h.fund(t, "seed", "1000000uatom,1000000uosmo")
	_, err := h.amm.Deposit(ctx, "seed", ints(1_000_000, 1_000_000))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		account := fmt.Sprintf("lp%d", i)
		h.fund(t, account, "10000uatom,10000uosmo")
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 5; j++ {
				if _, err := h.amm.Deposit(ctx, account, ints(1000, 1000)); err != nil {
					t.Errorf("deposit: %v", err)
					return
				}
				if _, err := h.amm.Swap(ctx, account, j%2, 1-j%2, sdkmath.NewInt(100), noLimit); err != nil {
					t.Errorf("swap: %v", err)
					return
				}
				_, _ = h.amm.Quote(ctx, 0, 1, sdkmath.NewInt(10))
			}
			if _, err := h.amm.Withdraw(ctx, account, h.amm.SharesOf(account)); err != nil {
				t.Errorf("withdraw: %v", err)
			}
		}()
	}
	wg.Wait()

	assertInvariants(t, h.amm)
	snap := h.amm.Snapshot()
	assert.True(t, snap.TotalShares.Equal(pool.BootstrapShares))
}
