package vault

import (
	"context"
	"errors"
	"fmt"
	"sync"

	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/rs/zerolog"

	"github.com/elys-network/wamm/internal/logger"
)

var (
	ErrInvalidAccount    = errors.New("account is invalid")
	ErrInvalidCoins      = errors.New("coins are invalid")
	ErrInsufficientFunds = errors.New("insufficient funds")
)

// PoolAccount is the ledger account holding pool custody.
const PoolAccount = "pool"

// Ledger is an in-memory TokenTransfer. Balances are kept per account.
type Ledger struct {
	mu       sync.Mutex
	balances map[string]sdk.Coins
	logger   zerolog.Logger
}

func NewLedger() *Ledger {
	return &Ledger{
		balances: make(map[string]sdk.Coins),
		logger:   logger.GetForComponent("token_ledger"),
	}
}

// Credit mints coins into account. Used to fund depositors.
func (l *Ledger) Credit(account string, coins sdk.Coins) error {
	if err := validateTransfer(account, coins); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[account] = l.balances[account].Add(coins...)
	l.logger.Debug().Str("account", account).Str("coins", coins.String()).Msg("Credited account")
	return nil
}

// Balance returns the coins held by account.
func (l *Ledger) Balance(account string) sdk.Coins {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[account]
}

func (l *Ledger) PullFrom(ctx context.Context, payer string, coins sdk.Coins) error {
	return l.move(ctx, payer, PoolAccount, coins)
}

func (l *Ledger) PushTo(ctx context.Context, payee string, coins sdk.Coins) error {
	return l.move(ctx, PoolAccount, payee, coins)
}

func (l *Ledger) move(ctx context.Context, from, to string, coins sdk.Coins) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateTransfer(from, coins); err != nil {
		return err
	}
	if err := validateTransfer(to, coins); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	remaining, negative := l.balances[from].SafeSub(coins...)
	if negative {
		l.logger.Warn().
			Str("from", from).
			Str("to", to).
			Str("requested", coins.String()).
			Str("available", l.balances[from].String()).
			Msg("Transfer rejected")
		return fmt.Errorf("%w: %s holds %s, needs %s", ErrInsufficientFunds, from, l.balances[from], coins)
	}

	l.balances[from] = remaining
	l.balances[to] = l.balances[to].Add(coins...)
	l.logger.Debug().Str("from", from).Str("to", to).Str("coins", coins.String()).Msg("Transfer completed")
	return nil
}

func validateTransfer(account string, coins sdk.Coins) error {
	if account == "" {
		return ErrInvalidAccount
	}
	if err := coins.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidCoins, err)
	}
	return nil
}
