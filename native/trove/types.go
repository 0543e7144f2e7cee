package trove

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"trovechain/native/decmath"
	"trovechain/native/stability"
)

// Status tracks the lifecycle of a position.
type Status uint8

const (
	StatusNonExistent Status = iota
	StatusActive
	StatusClosedByOwner
	StatusClosedByLiquidation
	StatusClosedByRedemption
)

func (s Status) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusClosedByOwner:
		return "closedByOwner"
	case StatusClosedByLiquidation:
		return "closedByLiquidation"
	case StatusClosedByRedemption:
		return "closedByRedemption"
	default:
		return "nonExistent"
	}
}

// RewardSnapshot records the redistribution accumulators a position last
// absorbed.
type RewardSnapshot struct {
	Coll *uint256.Int
	Debt *uint256.Int
}

// Trove is a collateralised debt position.
type Trove struct {
	Debt       *uint256.Int
	Coll       *uint256.Int
	Stake      *uint256.Int
	Status     Status
	ArrayIndex uint64
	Snapshot   RewardSnapshot
}

// Clone returns a deep copy of the trove.
func (t *Trove) Clone() *Trove {
	if t == nil {
		return nil
	}
	return &Trove{
		Debt:       decmath.Clone(t.Debt),
		Coll:       decmath.Clone(t.Coll),
		Stake:      decmath.Clone(t.Stake),
		Status:     t.Status,
		ArrayIndex: t.ArrayIndex,
		Snapshot: RewardSnapshot{
			Coll: decmath.Clone(t.Snapshot.Coll),
			Debt: decmath.Clone(t.Snapshot.Debt),
		},
	}
}

func emptyTrove() *Trove {
	return &Trove{
		Debt:     new(uint256.Int),
		Coll:     new(uint256.Int),
		Stake:    new(uint256.Int),
		Snapshot: RewardSnapshot{Coll: new(uint256.Int), Debt: new(uint256.Int)},
	}
}

// Globals holds the system wide accounting owned by the trove manager.
type Globals struct {
	// Redistribution accumulators: rewards per unit staked.
	LColl         *uint256.Int
	LDebt         *uint256.Int
	LastCollError *uint256.Int
	LastDebtError *uint256.Int

	TotalStakes             *uint256.Int
	TotalStakesSnapshot     *uint256.Int
	TotalCollateralSnapshot *uint256.Int

	// Debt recorded against the active pool and debt redistributed but not
	// yet applied to positions. Pool collateral lives in the token ledger.
	ActiveDebt  *uint256.Int
	DefaultDebt *uint256.Int

	BaseRate             *uint256.Int
	LastFeeOperationTime uint64
	GenesisTime          uint64
}

// NewGlobals returns zeroed accounting.
func NewGlobals() *Globals {
	return &Globals{
		LColl:                   new(uint256.Int),
		LDebt:                   new(uint256.Int),
		LastCollError:           new(uint256.Int),
		LastDebtError:           new(uint256.Int),
		TotalStakes:             new(uint256.Int),
		TotalStakesSnapshot:     new(uint256.Int),
		TotalCollateralSnapshot: new(uint256.Int),
		ActiveDebt:              new(uint256.Int),
		DefaultDebt:             new(uint256.Int),
		BaseRate:                new(uint256.Int),
	}
}

// Clone returns a deep copy of the globals.
func (g *Globals) Clone() *Globals {
	if g == nil {
		return nil
	}
	return &Globals{
		LColl:                   decmath.Clone(g.LColl),
		LDebt:                   decmath.Clone(g.LDebt),
		LastCollError:           decmath.Clone(g.LastCollError),
		LastDebtError:           decmath.Clone(g.LastDebtError),
		TotalStakes:             decmath.Clone(g.TotalStakes),
		TotalStakesSnapshot:     decmath.Clone(g.TotalStakesSnapshot),
		TotalCollateralSnapshot: decmath.Clone(g.TotalCollateralSnapshot),
		ActiveDebt:              decmath.Clone(g.ActiveDebt),
		DefaultDebt:             decmath.Clone(g.DefaultDebt),
		BaseRate:                decmath.Clone(g.BaseRate),
		LastFeeOperationTime:    g.LastFeeOperationTime,
		GenesisTime:             g.GenesisTime,
	}
}

// TroveResult reports the state of a position after a borrower operation.
type TroveResult struct {
	Owner      common.Address
	Status     Status
	Coll       *uint256.Int
	Debt       *uint256.Int
	Stake      *uint256.Int
	NICR       *uint256.Int
	ICR        *uint256.Int
	Fee        *uint256.Int
	ArrayIndex uint64
}

// TroveView is the read model of a position including pending rewards.
type TroveView struct {
	Owner       common.Address
	Status      Status
	Coll        *uint256.Int
	Debt        *uint256.Int
	Stake       *uint256.Int
	PendingColl *uint256.Int
	PendingDebt *uint256.Int
	EntireColl  *uint256.Int
	EntireDebt  *uint256.Int
	ICR         *uint256.Int
	NICR        *uint256.Int
	Surplus     *uint256.Int
}

// LiquidationMode records which rule applied to a liquidated position.
type LiquidationMode string

const (
	ModeNormal         LiquidationMode = "normal"
	ModeRedistribution LiquidationMode = "redistribution"
	ModeCappedOffset   LiquidationMode = "capped_offset"
)

// LiquidatedTrove describes one position closed by a liquidation.
type LiquidatedTrove struct {
	Owner common.Address
	Debt  *uint256.Int
	Coll  *uint256.Int
	Mode  LiquidationMode
}

// LiquidationResult aggregates a single, sequential or batch liquidation.
type LiquidationResult struct {
	Liquidated []LiquidatedTrove
	// LiquidatedDebt is the debt of every closed position.
	LiquidatedDebt *uint256.Int
	// LiquidatedColl excludes gas compensation and collateral surplus.
	LiquidatedColl        *uint256.Int
	CollGasCompensation   *uint256.Int
	StableGasCompensation *uint256.Int
	DebtOffset            *uint256.Int
	CollToStabilityPool   *uint256.Int
	DebtRedistributed     *uint256.Int
	CollRedistributed     *uint256.Int
	CollSurplus           *uint256.Int
	RecoveryModeAtStart   bool
	Offset                *stability.OffsetResult
}

// RedeemedTrove describes the effect of a redemption on one position.
type RedeemedTrove struct {
	Owner     common.Address
	StableLot *uint256.Int
	CollLot   *uint256.Int
	NewDebt   *uint256.Int
	NewColl   *uint256.Int
	Closed    bool
}

// RedemptionResult aggregates one redemption.
type RedemptionResult struct {
	Attempted     *uint256.Int
	Redeemed      *uint256.Int
	CollDrawn     *uint256.Int
	CollFee       *uint256.Int
	CollSent      *uint256.Int
	BaseRate      *uint256.Int
	Troves        []RedeemedTrove
	PartialCancel bool
}

// RedemptionHints are precomputed inputs that keep a redemption bounded.
type RedemptionHints struct {
	FirstHint       common.Address
	PartialNICR     *uint256.Int
	TruncatedAmount *uint256.Int
}

// SystemView summarises the system wide accounting.
type SystemView struct {
	Price                   *uint256.Int
	TCR                     *uint256.Int
	RecoveryMode            bool
	EntireColl              *uint256.Int
	EntireDebt              *uint256.Int
	ActiveColl              *uint256.Int
	ActiveDebt              *uint256.Int
	DefaultColl             *uint256.Int
	DefaultDebt             *uint256.Int
	LColl                   *uint256.Int
	LDebt                   *uint256.Int
	TotalStakes             *uint256.Int
	TotalStakesSnapshot     *uint256.Int
	TotalCollateralSnapshot *uint256.Int
	BaseRate                *uint256.Int
	BorrowingRate           *uint256.Int
	RedemptionRate          *uint256.Int
	TroveCount              uint64
}
