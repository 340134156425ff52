/*

This file contains the tunable parameters of the pool: the fee schedule and the rebalance cadence.

*/

package types

import "time"

// FeeParameters drives the dynamic fee. Both values are in basis points.
type FeeParameters struct {
	BaseFeeBps         uint32 `json:"base_fee_bps"`          // Fee charged regardless of market conditions.
	DynamicFeeRangeBps uint32 `json:"dynamic_fee_range_bps"` // Maximum extra fee added on top of the base fee.
}

// PoolParameters holds everything needed to construct a fresh pool besides its assets.
type PoolParameters struct {
	Fees              FeeParameters `json:"fees"`
	RebalanceInterval time.Duration `json:"rebalance_interval"`
}
