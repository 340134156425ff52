// Package liquidity mints and burns pool shares and sizes impermanent-loss
// compensation for withdrawing depositors.
package liquidity

import (
	"fmt"

	sdkmath "cosmossdk.io/math"

	"github.com/elys-network/wamm/internal/pool"
	"github.com/elys-network/wamm/internal/types"
	"github.com/elys-network/wamm/internal/utils"
)

// MintShares credits amounts to the reserves and mints shares to depositor.
//
// The first deposit into an empty pool mints pool.BootstrapShares whatever the
// amounts, so it must fund every asset. Later deposits mint the smallest
// amounts[i]*TotalShares/reserve[i] across assets holding a reserve.
// A deposit that would leave the pool value at prices beyond 256 bits fails
// with ErrOverflow and leaves st unchanged.
func MintShares(st *pool.State, prices []sdkmath.Int, depositor string, amounts []sdkmath.Int) (sdkmath.Int, error) {
	if depositor == "" {
		return sdkmath.Int{}, types.ErrMissingAccount
	}
	if err := st.CheckAmounts(amounts); err != nil {
		return sdkmath.Int{}, err
	}

	minted, err := sharesFor(st, amounts)
	if err != nil {
		return sdkmath.Int{}, err
	}
	if !minted.IsPositive() {
		return sdkmath.Int{}, types.ErrZeroShares
	}

	reserves := make([]sdkmath.Int, len(amounts))
	for i, amount := range amounts {
		if reserves[i], err = utils.SafeAdd(st.Assets[i].Reserve, amount); err != nil {
			return sdkmath.Int{}, fmt.Errorf("reserve %d: %w", i, err)
		}
	}
	if _, err := pool.ReserveValue(reserves, prices); err != nil {
		return sdkmath.Int{}, fmt.Errorf("pool value after deposit: %w", err)
	}
	totalShares, err := utils.SafeAdd(st.TotalShares, minted)
	if err != nil {
		return sdkmath.Int{}, err
	}

	for i, reserve := range reserves {
		st.Assets[i].Reserve = reserve
	}
	st.Shares[depositor] = st.SharesOf(depositor).Add(minted)
	st.TotalShares = totalShares
	return minted, nil
}

func sharesFor(st *pool.State, amounts []sdkmath.Int) (sdkmath.Int, error) {
	if st.TotalShares.IsZero() {
		for i, amount := range amounts {
			if !amount.IsPositive() {
				return sdkmath.Int{}, fmt.Errorf("%w: first deposit must fund asset %d", types.ErrNonPositiveAmount, i)
			}
		}
		return pool.BootstrapShares, nil
	}

	var minted sdkmath.Int
	for i, amount := range amounts {
		reserve := st.Assets[i].Reserve
		if reserve.IsZero() {
			continue
		}
		candidate, err := utils.MulDiv(amount, st.TotalShares, reserve)
		if err != nil {
			return sdkmath.Int{}, err
		}
		if minted.IsNil() || candidate.LT(minted) {
			minted = candidate
		}
	}
	if minted.IsNil() {
		return sdkmath.Int{}, types.ErrEmptyPool
	}
	return minted, nil
}

// BurnShares removes shares from depositor and returns the proportional
// amount of every reserve, which is debited from the pool.
func BurnShares(st *pool.State, depositor string, shares sdkmath.Int) ([]sdkmath.Int, error) {
	if depositor == "" {
		return nil, types.ErrMissingAccount
	}
	if shares.IsNil() || !shares.IsPositive() {
		return nil, types.ErrNonPositiveAmount
	}
	balance := st.SharesOf(depositor)
	if balance.LT(shares) {
		return nil, fmt.Errorf("%w: %s holds %s, requested %s", types.ErrInsufficientShares, depositor, balance, shares)
	}

	amounts := make([]sdkmath.Int, st.Len())
	for i, asset := range st.Assets {
		amount, err := utils.MulDiv(shares, asset.Reserve, st.TotalShares)
		if err != nil {
			return nil, err
		}
		amounts[i] = amount
	}

	for i, amount := range amounts {
		st.Assets[i].Reserve = st.Assets[i].Reserve.Sub(amount)
	}
	if remaining := balance.Sub(shares); remaining.IsZero() {
		delete(st.Shares, depositor)
	} else {
		st.Shares[depositor] = remaining
	}
	st.TotalShares = st.TotalShares.Sub(shares)
	return amounts, nil
}

// ImpermanentLossCompensation returns the compensation owed for shares, in
// units of asset 0. It is computed on the pre-burn state:
//
//	initial = sum(reserve*price)
//	current = sum(reserve*price*weight/1e18)
//	owed    = (initial-current) * shares/TotalShares, zero when current >= initial
//
// The caller decides whether the impermanent-loss fund can pay it.
func ImpermanentLossCompensation(st *pool.State, prices []sdkmath.Int, shares sdkmath.Int) (sdkmath.Int, error) {
	if shares.IsNil() || !shares.IsPositive() {
		return sdkmath.Int{}, types.ErrNonPositiveAmount
	}
	if !st.TotalShares.IsPositive() {
		return sdkmath.Int{}, types.ErrEmptyPool
	}
	if shares.GT(st.TotalShares) {
		return sdkmath.Int{}, fmt.Errorf("%w: %s of %s outstanding", types.ErrInsufficientShares, shares, st.TotalShares)
	}
	if len(prices) != st.Len() {
		return sdkmath.Int{}, fmt.Errorf("%w: %d prices for %d assets", types.ErrInvalidAmountsLength, len(prices), st.Len())
	}
	if !prices[0].IsPositive() {
		return sdkmath.Int{}, fmt.Errorf("%w: asset 0", types.ErrNonPositivePrice)
	}

	fraction, err := utils.MulDiv(shares, pool.WeightBase, st.TotalShares)
	if err != nil {
		return sdkmath.Int{}, err
	}

	initial := sdkmath.ZeroInt()
	current := sdkmath.ZeroInt()
	for i, asset := range st.Assets {
		value, err := st.ValueOf(i, prices)
		if err != nil {
			return sdkmath.Int{}, err
		}
		weighted, err := utils.MulDiv(value, asset.Weight, pool.WeightBase)
		if err != nil {
			return sdkmath.Int{}, err
		}
		if initial, err = utils.SafeAdd(initial, value); err != nil {
			return sdkmath.Int{}, err
		}
		if current, err = utils.SafeAdd(current, weighted); err != nil {
			return sdkmath.Int{}, err
		}
	}
	if current.GTE(initial) {
		return sdkmath.ZeroInt(), nil
	}

	owedValue, err := utils.MulDiv(initial.Sub(current), fraction, pool.WeightBase)
	if err != nil {
		return sdkmath.Int{}, err
	}
	return owedValue.Quo(prices[0]), nil
}
