package amm

import (
	"context"
	"errors"
	"time"

	"github.com/elys-network/wamm/internal/rebalance"
	"github.com/elys-network/wamm/internal/types"
)

// RebalanceDue reports whether a rebalance would currently be accepted.
func (a *AMM) RebalanceDue() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return !a.state.Paused && rebalance.Due(a.state, a.now())
}

// RunKeeper rebalances the pool whenever it falls due, checking every
// checkEvery, until ctx is cancelled. Swaps also rebalance when due, so the
// keeper only matters for quiet pools.
func (a *AMM) RunKeeper(ctx context.Context, checkEvery time.Duration) {
	a.logger.Info().Dur("checkEvery", checkEvery).Msg("Starting rebalance keeper")

	ticker := time.NewTicker(checkEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			a.logger.Info().Msg("Rebalance keeper stopped due to context cancellation")
			return
		case <-ticker.C:
			a.keeperTick(ctx)
		}
	}
}

func (a *AMM) keeperTick(ctx context.Context) {
	if !a.RebalanceDue() {
		return
	}
	weights, err := a.Rebalance(ctx)
	switch {
	case err == nil:
		a.logger.Info().Int("assets", len(weights)).Msg("Keeper rebalanced pool")
	case errors.Is(err, types.ErrTiming), errors.Is(err, types.ErrPaused):
		// Another operation got there first.
	case errors.Is(err, types.ErrEmptyPool):
		a.logger.Debug().Msg("Keeper skipped rebalance of empty pool")
	default:
		a.logger.Error().Err(err).Msg("Keeper rebalance failed")
	}
}
