package pool

import (
	"fmt"

	sdkmath "cosmossdk.io/math"

	"github.com/elys-network/wamm/internal/oracle"
	"github.com/elys-network/wamm/internal/types"
)

// Snapshot returns a serialisable copy of the state. Feeds are not included.
func (s *State) Snapshot() types.PoolSnapshot {
	snap := types.PoolSnapshot{
		Assets:              make([]types.AssetSnapshot, len(s.Assets)),
		TotalShares:         s.TotalShares,
		Shares:              make(map[string]sdkmath.Int, len(s.Shares)),
		Fees:                s.Fees,
		ImpermanentLossFund: s.ImpermanentLossFund,
		FundContributed:     s.FundContributed,
		FundPaidOut:         s.FundPaidOut,
		ProtocolRevenue:     append([]sdkmath.Int(nil), s.ProtocolRevenue...),
		LastRebalance:       s.LastRebalance,
		RebalanceInterval:   s.RebalanceInterval,
		Paused:              s.Paused,
	}
	for i, asset := range s.Assets {
		snap.Assets[i] = types.AssetSnapshot{Denom: asset.Denom, Reserve: asset.Reserve, Weight: asset.Weight}
	}
	for account, shares := range s.Shares {
		snap.Shares[account] = shares
	}
	return snap
}

// Restore rebuilds a State from a snapshot, attaching feeds by index. The
// snapshot's denoms must match the configured asset table exactly.
func Restore(snap types.PoolSnapshot, denoms []string, feeds []oracle.Feed) (*State, error) {
	if err := validateAssetTable(denoms, feeds); err != nil {
		return nil, err
	}
	if len(snap.Assets) != len(denoms) {
		return nil, fmt.Errorf("%w: snapshot has %d assets, configuration has %d",
			types.ErrInvalidAmountsLength, len(snap.Assets), len(denoms))
	}
	if len(snap.ProtocolRevenue) != len(denoms) {
		return nil, fmt.Errorf("%w: snapshot has %d revenue entries for %d assets",
			types.ErrInvalidAmountsLength, len(snap.ProtocolRevenue), len(denoms))
	}

	st := &State{
		Assets:              make([]Asset, len(denoms)),
		TotalShares:         snap.TotalShares,
		Shares:              make(map[string]sdkmath.Int, len(snap.Shares)),
		Fees:                snap.Fees,
		ImpermanentLossFund: snap.ImpermanentLossFund,
		FundContributed:     snap.FundContributed,
		FundPaidOut:         snap.FundPaidOut,
		ProtocolRevenue:     append([]sdkmath.Int(nil), snap.ProtocolRevenue...),
		LastRebalance:       snap.LastRebalance,
		RebalanceInterval:   snap.RebalanceInterval,
		Paused:              snap.Paused,
	}
	for i, asset := range snap.Assets {
		if asset.Denom != denoms[i] {
			return nil, fmt.Errorf("%w: snapshot asset %d is %s, configuration has %s",
				types.ErrInvalidDenom, i, asset.Denom, denoms[i])
		}
		st.Assets[i] = Asset{Denom: asset.Denom, Reserve: asset.Reserve, Weight: asset.Weight, Feed: feeds[i]}
	}
	for account, shares := range snap.Shares {
		st.Shares[account] = shares
	}

	if err := ValidateFees(st.Fees); err != nil {
		return nil, err
	}
	if err := ValidateInterval(st.RebalanceInterval); err != nil {
		return nil, err
	}
	if err := st.Validate(); err != nil {
		return nil, fmt.Errorf("snapshot violates pool invariants: %w", err)
	}
	return st, nil
}
