package stability

import (
	"github.com/holiman/uint256"

	"trovechain/native/decmath"
)

// ScaleFactor is the divisor applied to P when it would otherwise drop below
// the representable range, and to deposits spanning one scale change.
var ScaleFactor = uint256.NewInt(1_000_000_000)

// PoolState is the global accounting state of the pool.
type PoolState struct {
	// P is the running product of (1 - loss per unit staked).
	P             *uint256.Int
	CurrentScale  uint64
	CurrentEpoch  uint64
	TotalDeposits *uint256.Int

	// Rounding remainders carried into the next offset or issuance.
	LastCollateralError *uint256.Int
	LastDebtLossError   *uint256.Int
	LastRewardError     *uint256.Int
}

// NewPoolState returns the state of a fresh pool: P at one unit and no
// deposits.
func NewPoolState() *PoolState {
	return &PoolState{
		P:                   decmath.One(),
		TotalDeposits:       new(uint256.Int),
		LastCollateralError: new(uint256.Int),
		LastDebtLossError:   new(uint256.Int),
		LastRewardError:     new(uint256.Int),
	}
}

// Clone returns a deep copy of the pool state.
func (p *PoolState) Clone() *PoolState {
	if p == nil {
		return nil
	}
	return &PoolState{
		P:                   decmath.Clone(p.P),
		CurrentScale:        p.CurrentScale,
		CurrentEpoch:        p.CurrentEpoch,
		TotalDeposits:       decmath.Clone(p.TotalDeposits),
		LastCollateralError: decmath.Clone(p.LastCollateralError),
		LastDebtLossError:   decmath.Clone(p.LastDebtLossError),
		LastRewardError:     decmath.Clone(p.LastRewardError),
	}
}

// Snapshot freezes the global accumulators at the time a deposit was last
// modified.
type Snapshot struct {
	P     *uint256.Int
	S     *uint256.Int
	G     *uint256.Int
	Scale uint64
	Epoch uint64
}

// Deposit is a depositor's stake in the pool. The compounded value and the
// pending gains are derived from it on read.
type Deposit struct {
	Initial  *uint256.Int
	Snapshot Snapshot
}

// Clone returns a deep copy of the deposit.
func (d *Deposit) Clone() *Deposit {
	if d == nil {
		return nil
	}
	return &Deposit{
		Initial: decmath.Clone(d.Initial),
		Snapshot: Snapshot{
			P:     decmath.Clone(d.Snapshot.P),
			S:     decmath.Clone(d.Snapshot.S),
			G:     decmath.Clone(d.Snapshot.G),
			Scale: d.Snapshot.Scale,
			Epoch: d.Snapshot.Epoch,
		},
	}
}

// Receipt summarises a depositor facing operation.
type Receipt struct {
	CollateralGain *uint256.Int
	RewardGain     *uint256.Int
	// DepositLoss is the part of the previous initial value consumed by
	// offsets since the last modification.
	DepositLoss *uint256.Int
	// Moved is the amount deposited or withdrawn by the operation.
	Moved      *uint256.Int
	NewDeposit *uint256.Int
}

// OffsetResult reports how an offset changed the global accumulators.
type OffsetResult struct {
	Applied            bool
	CollateralPerUnit  *uint256.Int
	DebtLossPerUnit    *uint256.Int
	EpochAdvanced      bool
	ScaleAdvanced      bool
	P                  *uint256.Int
	CurrentScale       uint64
	CurrentEpoch       uint64
	TotalDepositsAfter *uint256.Int
}

// View is the read model of a single depositor.
type View struct {
	Initial        *uint256.Int
	Compounded     *uint256.Int
	CollateralGain *uint256.Int
	RewardGain     *uint256.Int
	Snapshot       Snapshot
}
