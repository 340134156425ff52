// Package rebalance recomputes pool weights from current reserve values.
package rebalance

import (
	"fmt"
	"time"

	sdkmath "cosmossdk.io/math"

	"github.com/elys-network/wamm/internal/pool"
	"github.com/elys-network/wamm/internal/types"
	"github.com/elys-network/wamm/internal/utils"
)

// Due reports whether the rebalance interval has elapsed at now.
func Due(st *pool.State, now time.Time) bool {
	return !now.Before(NextRebalance(st))
}

// NextRebalance is the earliest time Rebalance will be accepted.
func NextRebalance(st *pool.State) time.Time {
	return st.LastRebalance.Add(st.RebalanceInterval)
}

// CheckDue returns ErrRebalanceTooSoon when the interval has not elapsed at now.
func CheckDue(st *pool.State, now time.Time) error {
	if !Due(st, now) {
		return fmt.Errorf("%w: next rebalance at %s", types.ErrRebalanceTooSoon, NextRebalance(st).Format(time.RFC3339))
	}
	return nil
}

// Rebalance sets weight[i] = value[i]*1e18/totalValue and stamps now as the
// last rebalance. Rounding leaves the weights at most N-1 units below 1e18.
// The state is not modified on error.
func Rebalance(st *pool.State, prices []sdkmath.Int, now time.Time) ([]sdkmath.Int, error) {
	if err := CheckDue(st, now); err != nil {
		return nil, err
	}

	total, err := st.TotalValue(prices)
	if err != nil {
		return nil, err
	}
	if !total.IsPositive() {
		return nil, types.ErrEmptyPool
	}

	weights := make([]sdkmath.Int, st.Len())
	for i := range st.Assets {
		value, err := st.ValueOf(i, prices)
		if err != nil {
			return nil, err
		}
		if weights[i], err = utils.MulDiv(value, pool.WeightBase, total); err != nil {
			return nil, err
		}
	}

	for i, weight := range weights {
		st.Assets[i].Weight = weight
	}
	st.LastRebalance = now
	return weights, nil
}
