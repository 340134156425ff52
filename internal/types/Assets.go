/*

This is a custom type for pool assets as they are persisted and served over the API.

*/

package types

import (
	"time"

	sdkmath "cosmossdk.io/math"
)

type AssetSnapshot struct {
	Denom   string      `json:"denom"`   // e.g., "uatom"
	Reserve sdkmath.Int `json:"reserve"` // Amount of the asset held by the pool
	Weight  sdkmath.Int `json:"weight"`  // Target weight, 1e18 = 100%
}

// PriceData holds a single oracle observation (8 implied decimals)
type PriceData struct {
	Timestamp time.Time   `json:"timestamp"`
	Price     sdkmath.Int `json:"price"`
}
