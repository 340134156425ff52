/*
This file contains the fixed-point helpers shared by the pool math: a
multiply-then-divide over big integers with an explicit overflow guard, parsing
of caller supplied amounts, and conversion to floats for display only.
*/

package utils

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"strings"

	sdkmath "cosmossdk.io/math"

	"github.com/elys-network/wamm/internal/types"
)

// MaxBitLen bounds every intermediate product.
const MaxBitLen = 256

var (
	ErrInvalidPrecision = errors.New("precision is invalid")
	ErrAmountNil        = errors.New("amount is nil")
	ErrAmountNegative   = errors.New("amount is negative")
	ErrNotFinite        = errors.New("value is not finite")
	ErrConversionFailed = errors.New("conversion failed")
	ErrDivisionByZero   = errors.New("division by zero")
)

// MulDiv returns floor(a*b/c). The product is formed at full precision so no
// rounding happens before the single division.
func MulDiv(a, b, c sdkmath.Int) (sdkmath.Int, error) {
	return MulMulDiv(a, b, sdkmath.OneInt(), c)
}

// MulMulDiv returns floor(a*b*d/c) with one rounding step.
func MulMulDiv(a, b, d, c sdkmath.Int) (sdkmath.Int, error) {
	if a.IsNil() || b.IsNil() || c.IsNil() || d.IsNil() {
		return sdkmath.Int{}, ErrAmountNil
	}
	if c.IsZero() {
		return sdkmath.Int{}, ErrDivisionByZero
	}

	product := new(big.Int).Mul(a.BigInt(), b.BigInt())
	product.Mul(product, d.BigInt())
	if product.BitLen() > 2*MaxBitLen {
		return sdkmath.Int{}, types.ErrOverflow
	}

	quotient := product.Quo(product, c.BigInt())
	if quotient.BitLen() > MaxBitLen {
		return sdkmath.Int{}, types.ErrOverflow
	}
	return sdkmath.NewIntFromBigInt(quotient), nil
}

// SafeAdd returns a+b, or ErrOverflow when the sum does not fit in MaxBitLen
// bits. sdkmath.Int.Add panics in that case.
func SafeAdd(a, b sdkmath.Int) (sdkmath.Int, error) {
	if a.IsNil() || b.IsNil() {
		return sdkmath.Int{}, ErrAmountNil
	}
	sum := new(big.Int).Add(a.BigInt(), b.BigInt())
	if sum.BitLen() > MaxBitLen {
		return sdkmath.Int{}, types.ErrOverflow
	}
	return sdkmath.NewIntFromBigInt(sum), nil
}

// ParseAmount parses a non-negative base-unit integer such as "1000".
func ParseAmount(raw string) (sdkmath.Int, error) {
	raw = strings.TrimSpace(raw)
	amount, ok := sdkmath.NewIntFromString(raw)
	if !ok {
		return sdkmath.Int{}, fmt.Errorf("%w: %q is not an integer", ErrConversionFailed, raw)
	}
	if amount.IsNegative() {
		return sdkmath.Int{}, ErrAmountNegative
	}
	return amount, nil
}

// ParseAmounts parses one amount per entry.
func ParseAmounts(raw []string) ([]sdkmath.Int, error) {
	amounts := make([]sdkmath.Int, len(raw))
	for i, entry := range raw {
		amount, err := ParseAmount(entry)
		if err != nil {
			return nil, fmt.Errorf("amount %d: %w", i, err)
		}
		amounts[i] = amount
	}
	return amounts, nil
}

// SDKIntToFloat64 scales amount down by 10^precision. Display use only.
func SDKIntToFloat64(amount sdkmath.Int, precision int) (float64, error) {
	if precision < 0 || precision > 18 {
		return 0, fmt.Errorf("%w: %d (must be between 0 and 18)", ErrInvalidPrecision, precision)
	}
	if amount.IsNil() {
		return 0, ErrAmountNil
	}
	if amount.IsNegative() {
		return 0, ErrAmountNegative
	}

	result := sdkmath.LegacyNewDecFromIntWithPrec(amount, int64(precision))
	resultFloat, err := result.Float64()
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrConversionFailed, err)
	}
	if math.IsNaN(resultFloat) || math.IsInf(resultFloat, 0) {
		return 0, fmt.Errorf("%w: result is %f", ErrNotFinite, resultFloat)
	}
	return resultFloat, nil
}
