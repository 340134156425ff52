// Package amm is the facade over a single weighted-reserve pool. It
// serialises every mutating operation, runs the pricing, liquidity and
// rebalance engines on a working copy of the pool, performs the token
// transfers, and commits the copy only once every external call succeeded.
package amm

import (
	"context"
	"fmt"
	"sync"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/elys-network/wamm/internal/logger"
	"github.com/elys-network/wamm/internal/pool"
	"github.com/elys-network/wamm/internal/pricing"
	"github.com/elys-network/wamm/internal/types"
	"github.com/elys-network/wamm/internal/vault"
)

// AMM owns one pool and the collaborators it needs.
type AMM struct {
	mu sync.RWMutex

	state    *pool.State
	transfer vault.TokenTransfer
	sink     EventSink
	now      func() time.Time
	logger   zerolog.Logger
}

// Config holds the dependencies for creating a new AMM instance
type Config struct {
	State    *pool.State
	Transfer vault.TokenTransfer
	// Sink receives committed events. Defaults to a LogSink.
	Sink EventSink
	// Clock defaults to time.Now.
	Clock func() time.Time
}

// NewAMM creates a facade over cfg.State. The AMM takes ownership of the
// state; callers must not touch it afterwards.
func NewAMM(cfg Config) (*AMM, error) {
	if err := validateAMMConfig(cfg); err != nil {
		return nil, fmt.Errorf("AMM configuration validation failed: %w", err)
	}

	a := &AMM{
		state:    cfg.State,
		transfer: cfg.Transfer,
		sink:     cfg.Sink,
		now:      cfg.Clock,
		logger:   logger.GetForComponent("amm_facade"),
	}
	if a.sink == nil {
		a.sink = NewLogSink()
	}
	if a.now == nil {
		a.now = time.Now
	}

	a.logger.Info().
		Strs("denoms", a.state.Denoms()).
		Uint32("baseFeeBps", a.state.Fees.BaseFeeBps).
		Uint32("dynamicFeeRangeBps", a.state.Fees.DynamicFeeRangeBps).
		Dur("rebalanceInterval", a.state.RebalanceInterval).
		Bool("paused", a.state.Paused).
		Msg("AMM instance created")

	return a, nil
}

func validateAMMConfig(cfg Config) error {
	if cfg.State == nil {
		return fmt.Errorf("pool state cannot be nil")
	}
	if cfg.Transfer == nil {
		return fmt.Errorf("token transfer cannot be nil")
	}
	if err := cfg.State.Validate(); err != nil {
		return fmt.Errorf("pool state is inconsistent: %w", err)
	}
	return nil
}

// beginOp returns an operation ID and a logger carrying it.
func (a *AMM) beginOp(operation string) (string, zerolog.Logger) {
	opID := uuid.New().String()
	return opID, a.logger.With().Str("op_id", opID).Str("operation", operation).Logger()
}

// commit swaps in the working copy and publishes the event. Caller holds the write lock.
func (a *AMM) commit(ctx context.Context, work *pool.State, event types.Event, opLogger zerolog.Logger) {
	a.state = work
	if err := a.sink.Record(ctx, event, work.Snapshot()); err != nil {
		opLogger.Error().Err(err).Str("event", string(event.Type)).Msg("Failed to record committed event")
	}
}

func (a *AMM) checkActive() error {
	if a.state.Paused {
		return types.ErrPaused
	}
	return nil
}

// Snapshot returns a point-in-time copy of the pool.
func (a *AMM) Snapshot() types.PoolSnapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.state.Snapshot()
}

// Paused reports whether mutating operations are currently rejected.
func (a *AMM) Paused() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.state.Paused
}

// SharesOf returns account's share balance.
func (a *AMM) SharesOf(account string) sdkmath.Int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.state.SharesOf(account)
}

// Price returns the oracle price of asset i.
func (a *AMM) Price(ctx context.Context, i int) (sdkmath.Int, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.state.GetPrice(ctx, i)
}

// DynamicFee returns the fee a swap from in to out would pay right now.
func (a *AMM) DynamicFee(ctx context.Context, in, out int) (uint32, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if err := a.state.CheckPair(in, out); err != nil {
		return 0, err
	}
	prices, err := a.state.Prices(ctx)
	if err != nil {
		return 0, err
	}
	return pricing.DynamicFee(a.state, prices, in, out)
}

// Quote simulates a swap against the current state without changing it.
// The result is stale as soon as another operation commits.
func (a *AMM) Quote(ctx context.Context, in, out int, amountIn sdkmath.Int) (*SwapQuote, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	work := a.state.Clone()
	quote, _, err := priceSwap(ctx, work, in, out, amountIn)
	if err != nil {
		return nil, err
	}
	return quote, nil
}
