package amm

import (
	"context"
	"fmt"

	sdkmath "cosmossdk.io/math"

	"github.com/elys-network/wamm/internal/liquidity"
	"github.com/elys-network/wamm/internal/pool"
	"github.com/elys-network/wamm/internal/types"
	"github.com/elys-network/wamm/internal/utils"
)

// DepositResult is returned by a committed deposit.
type DepositResult struct {
	OperationID string      `json:"operation_id"`
	Shares      sdkmath.Int `json:"shares"`
}

// WithdrawResult is returned by a committed withdrawal.
type WithdrawResult struct {
	OperationID string        `json:"operation_id"`
	Amounts     []sdkmath.Int `json:"amounts"`
	// Compensation is the impermanent-loss payout in asset 0 units, already
	// included in Amounts[0]. Zero when nothing was owed or the fund could not cover it.
	Compensation sdkmath.Int `json:"compensation"`
	// CompensationOwed is what the depositor was owed before the fund check.
	CompensationOwed sdkmath.Int `json:"compensation_owed"`
}

// Deposit pulls one amount per asset from depositor and mints shares for it.
func (a *AMM) Deposit(ctx context.Context, depositor string, amounts []sdkmath.Int) (*DepositResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	opID, opLogger := a.beginOp("deposit")
	if err := a.checkActive(); err != nil {
		return nil, err
	}

	work := a.state.Clone()
	prices, err := work.Prices(ctx)
	if err != nil {
		opLogger.Error().Err(err).Msg("Deposit aborted: oracle read failed")
		return nil, err
	}
	minted, err := liquidity.MintShares(work, prices, depositor, amounts)
	if err != nil {
		opLogger.Warn().Err(err).Str("depositor", depositor).Msg("Deposit rejected")
		return nil, err
	}

	coins := work.Coins(amounts)
	if err := a.transfer.PullFrom(ctx, depositor, coins); err != nil {
		opLogger.Error().Err(err).Str("depositor", depositor).Str("coins", coins.String()).Msg("Deposit aborted: transfer failed")
		return nil, fmt.Errorf("%w: pull %s: %w", types.ErrTransferFailed, coins, err)
	}

	event := types.Event{
		OperationID: opID,
		Type:        types.EventLiquidityAdded,
		Timestamp:   a.now(),
		Account:     depositor,
		Amounts:     amounts,
		Shares:      minted,
	}
	a.commit(ctx, work, event, opLogger)

	opLogger.Info().
		Str("depositor", depositor).
		Str("coins", coins.String()).
		Str("shares", minted.String()).
		Str("totalShares", work.TotalShares.String()).
		Msg("Liquidity added")

	return &DepositResult{OperationID: opID, Shares: minted}, nil
}

// Withdraw burns shares of depositor and pays out the proportional reserves
// plus any impermanent-loss compensation the fund can cover in full.
func (a *AMM) Withdraw(ctx context.Context, depositor string, shares sdkmath.Int) (*WithdrawResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	opID, opLogger := a.beginOp("withdraw")
	if err := a.checkActive(); err != nil {
		return nil, err
	}
	if depositor == "" {
		return nil, types.ErrMissingAccount
	}
	if shares.IsNil() || !shares.IsPositive() {
		return nil, types.ErrNonPositiveAmount
	}
	if balance := a.state.SharesOf(depositor); balance.LT(shares) {
		return nil, fmt.Errorf("%w: %s holds %s, requested %s", types.ErrInsufficientShares, depositor, balance, shares)
	}

	work := a.state.Clone()
	prices, err := work.Prices(ctx)
	if err != nil {
		opLogger.Error().Err(err).Msg("Withdrawal aborted: oracle read failed")
		return nil, err
	}

	owed, err := liquidity.ImpermanentLossCompensation(work, prices, shares)
	if err != nil {
		return nil, err
	}
	amounts, err := liquidity.BurnShares(work, depositor, shares)
	if err != nil {
		return nil, err
	}
	paid := payCompensation(work, owed)
	if owed.IsPositive() && paid.IsZero() {
		opLogger.Info().
			Str("owed", owed.String()).
			Str("fund", work.ImpermanentLossFund.String()).
			Msg("Impermanent-loss compensation skipped, fund cannot cover it")
	}

	payout := append([]sdkmath.Int(nil), amounts...)
	if payout[0], err = utils.SafeAdd(payout[0], paid); err != nil {
		return nil, err
	}

	coins := work.Coins(payout)
	if err := a.transfer.PushTo(ctx, depositor, coins); err != nil {
		opLogger.Error().Err(err).Str("depositor", depositor).Str("coins", coins.String()).Msg("Withdrawal aborted: transfer failed")
		return nil, fmt.Errorf("%w: push %s: %w", types.ErrTransferFailed, coins, err)
	}

	event := types.Event{
		OperationID:  opID,
		Type:         types.EventLiquidityRemoved,
		Timestamp:    a.now(),
		Account:      depositor,
		Amounts:      payout,
		Shares:       shares,
		Compensation: paid,
	}
	a.commit(ctx, work, event, opLogger)

	opLogger.Info().
		Str("depositor", depositor).
		Str("coins", coins.String()).
		Str("shares", shares.String()).
		Str("compensation", paid.String()).
		Msg("Liquidity removed")

	return &WithdrawResult{OperationID: opID, Amounts: payout, Compensation: paid, CompensationOwed: owed}, nil
}

// payCompensation pays owed from the impermanent-loss fund only if the fund,
// and the asset 0 reserve backing it, cover the whole amount. Returns what was paid.
func payCompensation(work *pool.State, owed sdkmath.Int) sdkmath.Int {
	if !owed.IsPositive() || owed.GT(work.ImpermanentLossFund) || owed.GT(work.Assets[0].Reserve) {
		return sdkmath.ZeroInt()
	}
	work.ImpermanentLossFund = work.ImpermanentLossFund.Sub(owed)
	work.FundPaidOut = work.FundPaidOut.Add(owed)
	work.Assets[0].Reserve = work.Assets[0].Reserve.Sub(owed)
	return owed
}
