package staking

import (
	"github.com/holiman/uint256"

	"trovechain/native/decmath"
)

// PoolState is the global accounting of the fee staking pool.
type PoolState struct {
	TotalStaked *uint256.Int
	// Fees earned per unit staked, scaled by 1e18.
	FColl   *uint256.Int
	FStable *uint256.Int

	// Rounding remainders carried into the next fee.
	LastCollError   *uint256.Int
	LastStableError *uint256.Int

	// Fees received while nothing was staked. They stay in the staking
	// account and are never paid out.
	UndistributedColl   *uint256.Int
	UndistributedStable *uint256.Int
}

// NewPoolState returns an empty pool.
func NewPoolState() *PoolState {
	return &PoolState{
		TotalStaked:         new(uint256.Int),
		FColl:               new(uint256.Int),
		FStable:             new(uint256.Int),
		LastCollError:       new(uint256.Int),
		LastStableError:     new(uint256.Int),
		UndistributedColl:   new(uint256.Int),
		UndistributedStable: new(uint256.Int),
	}
}

func (p *PoolState) Clone() *PoolState {
	if p == nil {
		return nil
	}
	return &PoolState{
		TotalStaked:         decmath.Clone(p.TotalStaked),
		FColl:               decmath.Clone(p.FColl),
		FStable:             decmath.Clone(p.FStable),
		LastCollError:       decmath.Clone(p.LastCollError),
		LastStableError:     decmath.Clone(p.LastStableError),
		UndistributedColl:   decmath.Clone(p.UndistributedColl),
		UndistributedStable: decmath.Clone(p.UndistributedStable),
	}
}

// Snapshot records the accumulators a stake last settled against.
type Snapshot struct {
	FColl   *uint256.Int
	FStable *uint256.Int
}

// Stake is the reward token amount an account has locked.
type Stake struct {
	Amount   *uint256.Int
	Snapshot Snapshot
}

func (s *Stake) Clone() *Stake {
	if s == nil {
		return nil
	}
	return &Stake{
		Amount: decmath.Clone(s.Amount),
		Snapshot: Snapshot{
			FColl:   decmath.Clone(s.Snapshot.FColl),
			FStable: decmath.Clone(s.Snapshot.FStable),
		},
	}
}

// Receipt summarises a stake, unstake or claim.
type Receipt struct {
	CollGain   *uint256.Int
	StableGain *uint256.Int
	Moved      *uint256.Int
	NewStake   *uint256.Int
}

// View is the read model of one staker.
type View struct {
	Staked     *uint256.Int
	CollGain   *uint256.Int
	StableGain *uint256.Int
}
