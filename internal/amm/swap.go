package amm

import (
	"context"
	"fmt"

	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/elys-network/wamm/internal/pool"
	"github.com/elys-network/wamm/internal/pricing"
	"github.com/elys-network/wamm/internal/rebalance"
	"github.com/elys-network/wamm/internal/types"
	"github.com/elys-network/wamm/internal/utils"
)

// SwapQuote is the priced outcome of a swap.
type SwapQuote struct {
	AmountOut sdkmath.Int `json:"amount_out"`
	FeeBps    uint32      `json:"fee_bps"`
	FeeAmount sdkmath.Int `json:"fee_amount"` // Charged on the input side, in input units
}

// SwapResult is returned by a committed swap.
type SwapResult struct {
	SwapQuote
	OperationID string        `json:"operation_id"`
	Rebalanced  bool          `json:"rebalanced"`
	Weights     []sdkmath.Int `json:"weights,omitempty"` // Set when the swap triggered a rebalance
}

// priceSwap moves work through the swap pricing steps: the input is credited,
// the output is quoted with the weights as they stood on entry, checked
// against the output reserve and debited, and the fee is computed on the
// updated reserves. It returns the prices it read so the caller can reuse them.
func priceSwap(ctx context.Context, work *pool.State, in, out int, amountIn sdkmath.Int) (*SwapQuote, []sdkmath.Int, error) {
	if err := work.CheckPair(in, out); err != nil {
		return nil, nil, err
	}
	if amountIn.IsNil() || !amountIn.IsPositive() {
		return nil, nil, types.ErrNonPositiveAmount
	}

	prices, err := work.Prices(ctx)
	if err != nil {
		return nil, nil, err
	}

	if work.Assets[in].Reserve, err = utils.SafeAdd(work.Assets[in].Reserve, amountIn); err != nil {
		return nil, nil, fmt.Errorf("reserve %d: %w", in, err)
	}

	amountOut, err := pricing.QuoteSwapOutput(work, prices, in, out, amountIn)
	if err != nil {
		return nil, nil, err
	}
	if !amountOut.IsPositive() {
		return nil, nil, types.ErrZeroOutput
	}
	if work.Assets[out].Reserve.LT(amountOut) {
		return nil, nil, fmt.Errorf("%w: reserve %s, requested %s", types.ErrInsufficientReserve, work.Assets[out].Reserve, amountOut)
	}
	work.Assets[out].Reserve = work.Assets[out].Reserve.Sub(amountOut)

	feeBps, err := pricing.DynamicFee(work, prices, in, out)
	if err != nil {
		return nil, nil, err
	}
	feeAmount, err := pricing.FeeAmount(amountIn, feeBps)
	if err != nil {
		return nil, nil, err
	}

	return &SwapQuote{AmountOut: amountOut, FeeBps: feeBps, FeeAmount: feeAmount}, prices, nil
}

// accrueFee splits feeAmount (in units of asset in) between the
// impermanent-loss fund, converted to asset 0 units at oracle prices, and the
// protocol revenue of asset in. Odd units go to the protocol.
func accrueFee(work *pool.State, prices []sdkmath.Int, in int, feeAmount sdkmath.Int) error {
	fundShare := feeAmount.QuoRaw(2)
	protocolShare := feeAmount.Sub(fundShare)

	fundUnits, err := utils.MulDiv(fundShare, prices[in], prices[0])
	if err != nil {
		return err
	}

	fund, err := utils.SafeAdd(work.ImpermanentLossFund, fundUnits)
	if err != nil {
		return err
	}
	contributed, err := utils.SafeAdd(work.FundContributed, fundUnits)
	if err != nil {
		return err
	}
	revenue, err := utils.SafeAdd(work.ProtocolRevenue[in], protocolShare)
	if err != nil {
		return err
	}

	work.ImpermanentLossFund = fund
	work.FundContributed = contributed
	work.ProtocolRevenue[in] = revenue
	return nil
}

// Swap exchanges amountIn of asset in for asset out on behalf of trader.
// The swap fails with ErrOutputBelowMinimum when the priced output is below
// minAmountOut. A due rebalance runs as part of the same operation.
func (a *AMM) Swap(ctx context.Context, trader string, in, out int, amountIn, minAmountOut sdkmath.Int) (*SwapResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	opID, opLogger := a.beginOp("swap")
	opLogger.Debug().
		Str("trader", trader).
		Int("in", in).
		Int("out", out).
		Str("amountIn", amountIn.String()).
		Msg("Swap requested")

	if err := a.checkActive(); err != nil {
		return nil, err
	}
	if trader == "" {
		return nil, types.ErrMissingAccount
	}
	if minAmountOut.IsNil() {
		minAmountOut = sdkmath.ZeroInt()
	}
	if minAmountOut.IsNegative() {
		return nil, fmt.Errorf("%w: minimum output", types.ErrNonPositiveAmount)
	}

	now := a.now()
	work := a.state.Clone()

	quote, prices, err := priceSwap(ctx, work, in, out, amountIn)
	if err != nil {
		opLogger.Warn().Err(err).Msg("Swap rejected during pricing")
		return nil, err
	}
	if quote.AmountOut.LT(minAmountOut) {
		opLogger.Warn().
			Str("amountOut", quote.AmountOut.String()).
			Str("minAmountOut", minAmountOut.String()).
			Msg("Swap rejected by slippage protection")
		return nil, fmt.Errorf("%w: quoted %s, minimum %s", types.ErrOutputBelowMinimum, quote.AmountOut, minAmountOut)
	}

	if err := accrueFee(work, prices, in, quote.FeeAmount); err != nil {
		return nil, err
	}

	result := &SwapResult{SwapQuote: *quote, OperationID: opID}
	if rebalance.Due(work, now) {
		weights, err := rebalance.Rebalance(work, prices, now)
		if err != nil {
			opLogger.Error().Err(err).Msg("Swap aborted: triggered rebalance failed")
			return nil, err
		}
		result.Rebalanced = true
		result.Weights = weights
	}

	inCoins := sdk.NewCoins(sdk.NewCoin(work.Assets[in].Denom, amountIn))
	outCoins := sdk.NewCoins(sdk.NewCoin(work.Assets[out].Denom, quote.AmountOut))

	if err := a.transfer.PullFrom(ctx, trader, inCoins); err != nil {
		opLogger.Error().Err(err).Msg("Swap aborted: input transfer failed")
		return nil, fmt.Errorf("%w: pull %s: %w", types.ErrTransferFailed, inCoins, err)
	}
	if err := a.transfer.PushTo(ctx, trader, outCoins); err != nil {
		opLogger.Error().Err(err).Msg("Swap aborted: output transfer failed, refunding input")
		if refundErr := a.transfer.PushTo(ctx, trader, inCoins); refundErr != nil {
			opLogger.Error().Err(refundErr).Str("coins", inCoins.String()).Msg("Refund of swap input failed")
			return nil, fmt.Errorf("%w: push %s: %w (refund failed: %v)", types.ErrTransferFailed, outCoins, err, refundErr)
		}
		return nil, fmt.Errorf("%w: push %s: %w", types.ErrTransferFailed, outCoins, err)
	}

	event := types.Event{
		OperationID: opID,
		Type:        types.EventSwapExecuted,
		Timestamp:   now,
		Account:     trader,
		InIndex:     in,
		OutIndex:    out,
		AmountIn:    amountIn,
		AmountOut:   quote.AmountOut,
		FeeBps:      quote.FeeBps,
		FeeAmount:   quote.FeeAmount,
		Weights:     result.Weights,
	}
	a.commit(ctx, work, event, opLogger)

	opLogger.Info().
		Str("trader", trader).
		Str("in", inCoins.String()).
		Str("out", outCoins.String()).
		Uint32("feeBps", quote.FeeBps).
		Bool("rebalanced", result.Rebalanced).
		Msg("Swap executed")

	return result, nil
}
