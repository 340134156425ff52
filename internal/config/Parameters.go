/*

This file contains the default parameters for a freshly created pool.

*/

package config

import (
	"time"

	"github.com/elys-network/wamm/internal/types"
)

// DefaultOracleMaxAge bounds reuse of an HTTP price observation.
const DefaultOracleMaxAge = 30 * time.Second

// DefaultPoolParameters is used for any value not overridden by the environment.
var DefaultPoolParameters = types.PoolParameters{
	Fees: types.FeeParameters{
		BaseFeeBps: 30, // 0.30% floor, the usual tier for volatile pairs.

		DynamicFeeRangeBps: 70, // Up to 1.00% total when the pair diverges or dominates the pool.
	},

	RebalanceInterval: 24 * time.Hour, // Weights follow reserve values once a day.
}
