// Package pricing computes swap outputs and the dynamic fee of a pool.
// Every function is pure: prices are passed in, the state is only read.
package pricing

import (
	"fmt"

	sdkmath "cosmossdk.io/math"

	"github.com/elys-network/wamm/internal/pool"
	"github.com/elys-network/wamm/internal/types"
	"github.com/elys-network/wamm/internal/utils"
)

// BpsDenominator converts basis points to a fraction.
const BpsDenominator = 10_000

var (
	hundred    = sdkmath.NewInt(100)
	twoHundred = sdkmath.NewInt(200)
)

// QuoteSwapOutput prices inAmount of asset in as an amount of asset out:
//
//	out = inAmount * price[in] * weight[out] / (weight[in] * price[out])
//
// The price scale cancels, and the whole expression is evaluated with a single
// rounding step.
func QuoteSwapOutput(st *pool.State, prices []sdkmath.Int, in, out int, inAmount sdkmath.Int) (sdkmath.Int, error) {
	if err := st.CheckPair(in, out); err != nil {
		return sdkmath.Int{}, err
	}
	if err := checkPrices(st, prices, in, out); err != nil {
		return sdkmath.Int{}, err
	}
	if inAmount.IsNil() || inAmount.IsNegative() {
		return sdkmath.Int{}, types.ErrNonPositiveAmount
	}

	wIn, wOut := st.Assets[in].Weight, st.Assets[out].Weight
	if !wIn.IsPositive() {
		return sdkmath.Int{}, fmt.Errorf("%w: asset %d", types.ErrZeroWeight, in)
	}
	if !wOut.IsPositive() {
		return sdkmath.Int{}, fmt.Errorf("%w: asset %d", types.ErrZeroWeight, out)
	}

	denominator, err := utils.MulDiv(wIn, prices[out], sdkmath.OneInt())
	if err != nil {
		return sdkmath.Int{}, err
	}
	return utils.MulMulDiv(inAmount, prices[in], wOut, denominator)
}

// DynamicFee returns the fee in basis points for a swap from in to out.
//
// Volatility is the price gap as a percentage of the input price. Utilization
// is the traded pair's share of total pool value as a percentage, zero for an
// empty pool. The dynamic component scales the configured range by their
// average, and the result is capped at base + range.
func DynamicFee(st *pool.State, prices []sdkmath.Int, in, out int) (uint32, error) {
	if err := st.CheckPair(in, out); err != nil {
		return 0, err
	}
	if err := checkPrices(st, prices, in, out); err != nil {
		return 0, err
	}

	pIn, pOut := prices[in], prices[out]
	volatility, err := utils.MulDiv(pIn.Sub(pOut).Abs(), hundred, pIn)
	if err != nil {
		return 0, err
	}

	utilization := sdkmath.ZeroInt()
	total, err := st.TotalValue(prices)
	if err != nil {
		return 0, err
	}
	if total.IsPositive() {
		vIn, err := st.ValueOf(in, prices)
		if err != nil {
			return 0, err
		}
		vOut, err := st.ValueOf(out, prices)
		if err != nil {
			return 0, err
		}
		if utilization, err = utils.MulDiv(vIn.Add(vOut), hundred, total); err != nil {
			return 0, err
		}
	}

	base := sdkmath.NewIntFromUint64(uint64(st.Fees.BaseFeeBps))
	feeRange := sdkmath.NewIntFromUint64(uint64(st.Fees.DynamicFeeRangeBps))

	dynamic, err := utils.MulDiv(feeRange, volatility.Add(utilization), twoHundred)
	if err != nil {
		return 0, err
	}

	fee := sdkmath.MinInt(base.Add(dynamic), base.Add(feeRange))
	return uint32(fee.Uint64()), nil
}

// FeeAmount applies feeBps to amount, rounding down.
func FeeAmount(amount sdkmath.Int, feeBps uint32) (sdkmath.Int, error) {
	return utils.MulDiv(amount, sdkmath.NewIntFromUint64(uint64(feeBps)), sdkmath.NewInt(BpsDenominator))
}

func checkPrices(st *pool.State, prices []sdkmath.Int, indices ...int) error {
	if len(prices) != st.Len() {
		return fmt.Errorf("%w: %d prices for %d assets", types.ErrInvalidAmountsLength, len(prices), st.Len())
	}
	for _, i := range indices {
		if prices[i].IsNil() || !prices[i].IsPositive() {
			return fmt.Errorf("%w: asset %d", types.ErrNonPositivePrice, i)
		}
	}
	return nil
}
