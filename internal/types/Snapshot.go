/*

This is a custom type for the pool state snapshot which is persisted after every
committed operation and returned by the API.

*/

package types

import (
	"time"

	sdkmath "cosmossdk.io/math"
)

type PoolSnapshot struct {
	Assets              []AssetSnapshot        `json:"assets"`
	TotalShares         sdkmath.Int            `json:"total_shares"`
	Shares              map[string]sdkmath.Int `json:"shares"`
	Fees                FeeParameters          `json:"fees"`
	ImpermanentLossFund sdkmath.Int            `json:"impermanent_loss_fund"` // Denominated in asset 0
	FundContributed     sdkmath.Int            `json:"fund_contributed"`
	FundPaidOut         sdkmath.Int            `json:"fund_paid_out"`
	ProtocolRevenue     []sdkmath.Int          `json:"protocol_revenue"` // Per asset, in that asset's units
	LastRebalance       time.Time              `json:"last_rebalance"`
	RebalanceInterval   time.Duration          `json:"rebalance_interval"`
	Paused              bool                   `json:"paused"`
}
