// Package oracle defines the price capability the pool consumes and two feed
// implementations. Prices carry 8 implied decimals.
package oracle

import (
	"context"
	"fmt"

	sdkmath "cosmossdk.io/math"

	"github.com/elys-network/wamm/internal/types"
)

// PriceExponent is the number of implied decimals in every oracle price.
const PriceExponent = 8

// PriceDecimals is the fixed-point scale of every oracle price.
var PriceDecimals = sdkmath.NewInt(100_000_000)

// Feed is the per-asset oracle handle.
type Feed interface {
	LatestPrice(ctx context.Context) (sdkmath.Int, error)
}

// Read queries feed and rejects anything but a strictly positive price.
func Read(ctx context.Context, feed Feed) (sdkmath.Int, error) {
	if feed == nil {
		return sdkmath.Int{}, types.ErrPriceUnavailable
	}
	price, err := feed.LatestPrice(ctx)
	if err != nil {
		return sdkmath.Int{}, fmt.Errorf("%w: %w", types.ErrPriceUnavailable, err)
	}
	if price.IsNil() || !price.IsPositive() {
		return sdkmath.Int{}, types.ErrNonPositivePrice
	}
	return price, nil
}
