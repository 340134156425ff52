package vault

import (
	"context"

	sdk "github.com/cosmos/cosmos-sdk/types"
)

// TokenTransfer moves tokens between accounts and the pool's custody.
// Implementations either move the full amount or return an error; a failed
// call must leave balances untouched.
type TokenTransfer interface {
	// PullFrom moves coins from payer into pool custody.
	PullFrom(ctx context.Context, payer string, coins sdk.Coins) error

	// PushTo moves coins from pool custody to payee.
	PushTo(ctx context.Context, payee string, coins sdk.Coins) error
}
