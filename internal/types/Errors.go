/*

This file contains the error taxonomy shared by every pool component.

Each specific error wraps exactly one category sentinel so callers can branch on
the category with errors.Is while logs keep the precise cause.

*/

package types

import (
	"errors"
	"fmt"
)

// Error categories
var (
	// ErrInput marks malformed requests rejected before any state mutation.
	ErrInput = errors.New("invalid input")
	// ErrSlippage marks swaps whose priced output is below the caller's minimum.
	ErrSlippage = errors.New("slippage exceeded")
	// ErrSolvency marks payouts the pool or a fund cannot cover.
	ErrSolvency = errors.New("insufficient funds")
	// ErrTiming marks operations attempted before they are allowed.
	ErrTiming = errors.New("operation attempted too early")
	// ErrExternalCall marks failures of the oracle or token transfer collaborators.
	ErrExternalCall = errors.New("external call failed")
)

// Input errors
var (
	ErrInvalidAmountsLength = fmt.Errorf("%w: amounts length does not match asset count", ErrInput)
	ErrIdenticalAssets      = fmt.Errorf("%w: input and output asset are identical", ErrInput)
	ErrAssetOutOfRange      = fmt.Errorf("%w: asset index out of range", ErrInput)
	ErrNonPositiveAmount    = fmt.Errorf("%w: amount must be positive", ErrInput)
	ErrZeroWeight           = fmt.Errorf("%w: asset weight is zero", ErrInput)
	ErrZeroShares           = fmt.Errorf("%w: deposit too small to mint shares", ErrInput)
	ErrInvalidFee           = fmt.Errorf("%w: fee must not exceed 10000 bps", ErrInput)
	ErrTooFewAssets         = fmt.Errorf("%w: pool requires at least two assets", ErrInput)
	ErrInvalidDenom         = fmt.Errorf("%w: invalid asset denom", ErrInput)
	ErrDuplicateDenom       = fmt.Errorf("%w: duplicate asset denom", ErrInput)
	ErrMissingAccount       = fmt.Errorf("%w: account is required", ErrInput)
	ErrPaused               = fmt.Errorf("%w: pool is paused", ErrInput)
	ErrOverflow             = fmt.Errorf("%w: arithmetic overflow", ErrInput)
)

// Slippage errors
var (
	ErrOutputBelowMinimum = fmt.Errorf("%w: output below requested minimum", ErrSlippage)
	ErrZeroOutput         = fmt.Errorf("%w: output rounds to zero", ErrSlippage)
)

// Solvency errors
var (
	ErrInsufficientReserve = fmt.Errorf("%w: output reserve below requested amount", ErrSolvency)
	ErrInsufficientShares  = fmt.Errorf("%w: depositor share balance too low", ErrSolvency)
	ErrEmptyPool           = fmt.Errorf("%w: pool holds no value", ErrSolvency)
)

// Timing errors
var (
	ErrRebalanceTooSoon = fmt.Errorf("%w: rebalance interval has not elapsed", ErrTiming)
	ErrIntervalTooShort = fmt.Errorf("%w: rebalance interval below one hour", ErrTiming)
)

// External call errors
var (
	ErrNonPositivePrice = fmt.Errorf("%w: oracle returned a non-positive price", ErrExternalCall)
	ErrPriceUnavailable = fmt.Errorf("%w: oracle price unavailable", ErrExternalCall)
	ErrTransferFailed   = fmt.Errorf("%w: token transfer failed", ErrExternalCall)
)
