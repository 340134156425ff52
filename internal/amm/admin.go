package amm

import (
	"context"
	"time"

	sdkmath "cosmossdk.io/math"

	"github.com/elys-network/wamm/internal/pool"
	"github.com/elys-network/wamm/internal/rebalance"
	"github.com/elys-network/wamm/internal/types"
)

// Rebalance recomputes weights from current reserve values. It fails with
// ErrRebalanceTooSoon until the interval has elapsed.
func (a *AMM) Rebalance(ctx context.Context) ([]sdkmath.Int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	opID, opLogger := a.beginOp("rebalance")
	if err := a.checkActive(); err != nil {
		return nil, err
	}

	now := a.now()
	if err := rebalance.CheckDue(a.state, now); err != nil {
		return nil, err
	}

	work := a.state.Clone()
	prices, err := work.Prices(ctx)
	if err != nil {
		opLogger.Error().Err(err).Msg("Rebalance aborted: oracle read failed")
		return nil, err
	}
	weights, err := rebalance.Rebalance(work, prices, now)
	if err != nil {
		opLogger.Warn().Err(err).Msg("Rebalance rejected")
		return nil, err
	}

	a.commit(ctx, work, types.Event{
		OperationID: opID,
		Type:        types.EventWeightsRebalanced,
		Timestamp:   now,
		Weights:     weights,
	}, opLogger)

	opLogger.Info().Interface("weights", weights).Msg("Weights rebalanced")
	return weights, nil
}

// SetFeeParams replaces the fee schedule. Each component must be at most 10000 bps.
func (a *AMM) SetFeeParams(ctx context.Context, fees types.FeeParameters) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	opID, opLogger := a.beginOp("set_fee_params")
	if err := pool.ValidateFees(fees); err != nil {
		return err
	}

	work := a.state.Clone()
	work.Fees = fees
	a.commit(ctx, work, types.Event{
		OperationID: opID,
		Type:        types.EventFeesUpdated,
		Timestamp:   a.now(),
		Fees:        &fees,
	}, opLogger)

	opLogger.Info().
		Uint32("baseFeeBps", fees.BaseFeeBps).
		Uint32("dynamicFeeRangeBps", fees.DynamicFeeRangeBps).
		Msg("Fee parameters updated")
	return nil
}

// SetRebalanceInterval changes the rebalance cadence. Intervals below one hour
// are rejected with ErrIntervalTooShort.
func (a *AMM) SetRebalanceInterval(ctx context.Context, interval time.Duration) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	opID, opLogger := a.beginOp("set_rebalance_interval")
	if err := pool.ValidateInterval(interval); err != nil {
		return err
	}

	work := a.state.Clone()
	work.RebalanceInterval = interval
	a.commit(ctx, work, types.Event{
		OperationID:       opID,
		Type:              types.EventIntervalUpdated,
		Timestamp:         a.now(),
		RebalanceInterval: interval,
	}, opLogger)

	opLogger.Info().Dur("rebalanceInterval", interval).Msg("Rebalance interval updated")
	return nil
}

// Pause rejects deposits, withdrawals, swaps and rebalances until Unpause.
// Admin operations keep working while paused.
func (a *AMM) Pause(ctx context.Context) error {
	return a.setPaused(ctx, true)
}

func (a *AMM) Unpause(ctx context.Context) error {
	return a.setPaused(ctx, false)
}

func (a *AMM) setPaused(ctx context.Context, paused bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.state.Paused == paused {
		return nil
	}

	eventType, operation := types.EventPoolUnpaused, "unpause"
	if paused {
		eventType, operation = types.EventPoolPaused, "pause"
	}
	opID, opLogger := a.beginOp(operation)

	work := a.state.Clone()
	work.Paused = paused
	a.commit(ctx, work, types.Event{OperationID: opID, Type: eventType, Timestamp: a.now()}, opLogger)

	opLogger.Info().Bool("paused", paused).Msg("Pool pause state changed")
	return nil
}
