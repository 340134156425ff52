/*

This file contains the observability events emitted by the pool after an operation commits.

*/

package types

import (
	"time"

	sdkmath "cosmossdk.io/math"
)

// EventType defines the kind of committed operation.
type EventType string

const (
	EventLiquidityAdded    EventType = "LIQUIDITY_ADDED"
	EventLiquidityRemoved  EventType = "LIQUIDITY_REMOVED"
	EventSwapExecuted      EventType = "SWAP_EXECUTED"
	EventFeesUpdated       EventType = "FEES_UPDATED"
	EventWeightsRebalanced EventType = "WEIGHTS_REBALANCED"
	EventIntervalUpdated   EventType = "INTERVAL_UPDATED"
	EventPoolPaused        EventType = "POOL_PAUSED"
	EventPoolUnpaused      EventType = "POOL_UNPAUSED"
)

// Event is informational only; nothing in the pool reads it back.
type Event struct {
	OperationID string    `json:"operation_id"`
	Type        EventType `json:"type"`
	Timestamp   time.Time `json:"timestamp"`
	Account     string    `json:"account,omitempty"` // Depositor, withdrawer or trader

	// Fields for LIQUIDITY_ADDED / LIQUIDITY_REMOVED
	Amounts      []sdkmath.Int `json:"amounts,omitempty"`
	Shares       sdkmath.Int   `json:"shares,omitempty"`
	Compensation sdkmath.Int   `json:"compensation,omitempty"` // Impermanent-loss payout in asset 0

	// Fields for SWAP_EXECUTED
	InIndex   int         `json:"in_index"`
	OutIndex  int         `json:"out_index"`
	AmountIn  sdkmath.Int `json:"amount_in,omitempty"`
	AmountOut sdkmath.Int `json:"amount_out,omitempty"`
	FeeBps    uint32      `json:"fee_bps,omitempty"`
	FeeAmount sdkmath.Int `json:"fee_amount,omitempty"`

	// Fields for FEES_UPDATED / INTERVAL_UPDATED
	Fees              *FeeParameters `json:"fees,omitempty"`
	RebalanceInterval time.Duration  `json:"rebalance_interval,omitempty"`

	// Fields for WEIGHTS_REBALANCED (also set on a swap that triggered one)
	Weights []sdkmath.Int `json:"weights,omitempty"`
}
