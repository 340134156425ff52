// Package pool holds the state of a single weighted-reserve pool.
//
// A State is owned by exactly one caller at a time. Mutating operations work
// on a Clone and swap it in only once every external call has succeeded, so a
// failed operation never leaves partial updates behind.
package pool

import (
	"context"
	"fmt"
	"time"

	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/elys-network/wamm/internal/oracle"
	"github.com/elys-network/wamm/internal/types"
	"github.com/elys-network/wamm/internal/utils"
)

const (
	// MaxFeeBps is 100% expressed in basis points.
	MaxFeeBps = 10_000
	// MinRebalanceInterval is the shortest interval the admin surface accepts.
	MinRebalanceInterval = time.Hour
)

var (
	// WeightBase is the fixed-point base of asset weights.
	WeightBase = sdkmath.NewIntWithDecimal(1, 18)
	// BootstrapShares is minted to the first depositor of an empty pool.
	BootstrapShares = sdkmath.NewIntWithDecimal(1, 18)
)

// Asset is one entry of the pool's fixed asset table.
type Asset struct {
	Denom   string
	Reserve sdkmath.Int
	Weight  sdkmath.Int
	Feed    oracle.Feed
}

// State is the complete mutable state of a pool.
type State struct {
	Assets      []Asset
	TotalShares sdkmath.Int
	Shares      map[string]sdkmath.Int
	Fees        types.FeeParameters

	// ImpermanentLossFund is denominated in Assets[0] units.
	ImpermanentLossFund sdkmath.Int
	FundContributed     sdkmath.Int
	FundPaidOut         sdkmath.Int

	// ProtocolRevenue is the protocol half of swap fees, per asset, in that asset's units.
	ProtocolRevenue []sdkmath.Int

	LastRebalance     time.Time
	RebalanceInterval time.Duration
	Paused            bool
}

// NewState creates an empty pool with equal weights. Any remainder of the
// weight division goes to asset 0 so the weights sum exactly to WeightBase.
func NewState(denoms []string, feeds []oracle.Feed, params types.PoolParameters, now time.Time) (*State, error) {
	if err := validateAssetTable(denoms, feeds); err != nil {
		return nil, err
	}
	if err := ValidateFees(params.Fees); err != nil {
		return nil, err
	}
	if err := ValidateInterval(params.RebalanceInterval); err != nil {
		return nil, err
	}

	n := sdkmath.NewInt(int64(len(denoms)))
	weight := WeightBase.Quo(n)
	remainder := WeightBase.Sub(weight.Mul(n))

	st := &State{
		Assets:              make([]Asset, len(denoms)),
		TotalShares:         sdkmath.ZeroInt(),
		Shares:              make(map[string]sdkmath.Int),
		Fees:                params.Fees,
		ImpermanentLossFund: sdkmath.ZeroInt(),
		FundContributed:     sdkmath.ZeroInt(),
		FundPaidOut:         sdkmath.ZeroInt(),
		ProtocolRevenue:     make([]sdkmath.Int, len(denoms)),
		LastRebalance:       now,
		RebalanceInterval:   params.RebalanceInterval,
	}
	for i, denom := range denoms {
		st.Assets[i] = Asset{
			Denom:   denom,
			Reserve: sdkmath.ZeroInt(),
			Weight:  weight,
			Feed:    feeds[i],
		}
		st.ProtocolRevenue[i] = sdkmath.ZeroInt()
	}
	st.Assets[0].Weight = weight.Add(remainder)

	return st, nil
}

func validateAssetTable(denoms []string, feeds []oracle.Feed) error {
	if len(denoms) < 2 {
		return types.ErrTooFewAssets
	}
	if len(feeds) != len(denoms) {
		return fmt.Errorf("%w: %d feeds for %d assets", types.ErrInvalidAmountsLength, len(feeds), len(denoms))
	}
	seen := make(map[string]struct{}, len(denoms))
	for i, denom := range denoms {
		if err := sdk.ValidateDenom(denom); err != nil {
			return fmt.Errorf("%w: %q: %v", types.ErrInvalidDenom, denom, err)
		}
		if _, dup := seen[denom]; dup {
			return fmt.Errorf("%w: %s", types.ErrDuplicateDenom, denom)
		}
		seen[denom] = struct{}{}
		if feeds[i] == nil {
			return fmt.Errorf("%w: no feed for %s", types.ErrPriceUnavailable, denom)
		}
	}
	return nil
}

// ValidateFees rejects any fee component above 100%.
func ValidateFees(fees types.FeeParameters) error {
	if fees.BaseFeeBps > MaxFeeBps {
		return fmt.Errorf("%w: base fee %d bps", types.ErrInvalidFee, fees.BaseFeeBps)
	}
	if fees.DynamicFeeRangeBps > MaxFeeBps {
		return fmt.Errorf("%w: dynamic fee range %d bps", types.ErrInvalidFee, fees.DynamicFeeRangeBps)
	}
	return nil
}

// ValidateInterval rejects rebalance intervals shorter than MinRebalanceInterval.
func ValidateInterval(interval time.Duration) error {
	if interval < MinRebalanceInterval {
		return fmt.Errorf("%w: got %s", types.ErrIntervalTooShort, interval)
	}
	return nil
}

// Len returns the fixed number of assets.
func (s *State) Len() int {
	return len(s.Assets)
}

// CheckIndex rejects indices outside the asset table.
func (s *State) CheckIndex(i int) error {
	if i < 0 || i >= len(s.Assets) {
		return fmt.Errorf("%w: %d (pool has %d assets)", types.ErrAssetOutOfRange, i, len(s.Assets))
	}
	return nil
}

// CheckPair validates a swap pair: both in range and distinct.
func (s *State) CheckPair(in, out int) error {
	if in == out {
		return fmt.Errorf("%w: index %d", types.ErrIdenticalAssets, in)
	}
	if err := s.CheckIndex(in); err != nil {
		return err
	}
	return s.CheckIndex(out)
}

// CheckAmounts validates a per-asset amount vector.
func (s *State) CheckAmounts(amounts []sdkmath.Int) error {
	if len(amounts) != len(s.Assets) {
		return fmt.Errorf("%w: got %d, want %d", types.ErrInvalidAmountsLength, len(amounts), len(s.Assets))
	}
	for i, amount := range amounts {
		if amount.IsNil() || amount.IsNegative() {
			return fmt.Errorf("%w: asset %d", types.ErrNonPositiveAmount, i)
		}
	}
	return nil
}

// GetPrice reads the oracle for asset i.
func (s *State) GetPrice(ctx context.Context, i int) (sdkmath.Int, error) {
	if err := s.CheckIndex(i); err != nil {
		return sdkmath.Int{}, err
	}
	price, err := oracle.Read(ctx, s.Assets[i].Feed)
	if err != nil {
		return sdkmath.Int{}, fmt.Errorf("asset %d (%s): %w", i, s.Assets[i].Denom, err)
	}
	return price, nil
}

// Prices reads every asset's oracle once, in index order.
func (s *State) Prices(ctx context.Context) ([]sdkmath.Int, error) {
	prices := make([]sdkmath.Int, len(s.Assets))
	for i := range s.Assets {
		price, err := s.GetPrice(ctx, i)
		if err != nil {
			return nil, err
		}
		prices[i] = price
	}
	return prices, nil
}

// ValueOf returns reserve[i]*price[i] in price units.
func (s *State) ValueOf(i int, prices []sdkmath.Int) (sdkmath.Int, error) {
	return utils.MulDiv(s.Assets[i].Reserve, prices[i], sdkmath.OneInt())
}

// TotalValue sums ValueOf over every asset.
func (s *State) TotalValue(prices []sdkmath.Int) (sdkmath.Int, error) {
	return ReserveValue(s.Reserves(), prices)
}

// ReserveValue returns sum(reserves[i]*prices[i]). It fails with ErrOverflow
// when any product or the sum does not fit in 256 bits.
func ReserveValue(reserves, prices []sdkmath.Int) (sdkmath.Int, error) {
	if len(prices) != len(reserves) {
		return sdkmath.Int{}, fmt.Errorf("%w: %d prices for %d assets", types.ErrInvalidAmountsLength, len(prices), len(reserves))
	}
	total := sdkmath.ZeroInt()
	for i, reserve := range reserves {
		value, err := utils.MulDiv(reserve, prices[i], sdkmath.OneInt())
		if err != nil {
			return sdkmath.Int{}, err
		}
		if total, err = utils.SafeAdd(total, value); err != nil {
			return sdkmath.Int{}, err
		}
	}
	return total, nil
}

// SharesOf returns the recorded balance of account, zero when unknown.
func (s *State) SharesOf(account string) sdkmath.Int {
	if shares, ok := s.Shares[account]; ok {
		return shares
	}
	return sdkmath.ZeroInt()
}

// ShareSum adds up every depositor balance.
func (s *State) ShareSum() sdkmath.Int {
	sum := sdkmath.ZeroInt()
	for _, shares := range s.Shares {
		sum = sum.Add(shares)
	}
	return sum
}

// Validate checks the state invariants: share supply matches balances, no
// negative reserve, and the impermanent-loss fund never exceeds what was paid in.
func (s *State) Validate() error {
	if !s.TotalShares.Equal(s.ShareSum()) {
		return fmt.Errorf("total shares %s do not match balances %s", s.TotalShares, s.ShareSum())
	}
	for i, asset := range s.Assets {
		if asset.Reserve.IsNegative() {
			return fmt.Errorf("asset %d (%s) has negative reserve %s", i, asset.Denom, asset.Reserve)
		}
		if asset.Weight.IsNegative() {
			return fmt.Errorf("asset %d (%s) has negative weight %s", i, asset.Denom, asset.Weight)
		}
	}
	if s.ImpermanentLossFund.GT(s.FundContributed.Sub(s.FundPaidOut)) {
		return fmt.Errorf("impermanent loss fund %s exceeds contributions %s minus payouts %s",
			s.ImpermanentLossFund, s.FundContributed, s.FundPaidOut)
	}
	return nil
}

// Clone returns a deep copy. sdkmath.Int values are immutable so copying the
// slices and the share map is enough.
func (s *State) Clone() *State {
	cp := *s
	cp.Assets = append([]Asset(nil), s.Assets...)
	cp.ProtocolRevenue = append([]sdkmath.Int(nil), s.ProtocolRevenue...)
	cp.Shares = make(map[string]sdkmath.Int, len(s.Shares))
	for account, shares := range s.Shares {
		cp.Shares[account] = shares
	}
	return &cp
}

// Weights returns the current weight vector.
func (s *State) Weights() []sdkmath.Int {
	weights := make([]sdkmath.Int, len(s.Assets))
	for i, asset := range s.Assets {
		weights[i] = asset.Weight
	}
	return weights
}

// Reserves returns the current reserve vector.
func (s *State) Reserves() []sdkmath.Int {
	reserves := make([]sdkmath.Int, len(s.Assets))
	for i, asset := range s.Assets {
		reserves[i] = asset.Reserve
	}
	return reserves
}

// Denoms returns the asset denoms in index order.
func (s *State) Denoms() []string {
	denoms := make([]string, len(s.Assets))
	for i, asset := range s.Assets {
		denoms[i] = asset.Denom
	}
	return denoms
}

// Coins builds a transfer payload from a per-asset amount vector; zero entries are dropped.
func (s *State) Coins(amounts []sdkmath.Int) sdk.Coins {
	coins := make([]sdk.Coin, 0, len(amounts))
	for i, amount := range amounts {
		if amount.IsPositive() {
			coins = append(coins, sdk.NewCoin(s.Assets[i].Denom, amount))
		}
	}
	return sdk.NewCoins(coins...)
}
