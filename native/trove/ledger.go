package trove

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"trovechain/native/bank"
	"trovechain/native/decmath"
)

// pendingRewards returns the redistributed collateral and debt a position
// has earned since its last snapshot. Inactive positions earn nothing.
func pendingRewards(t *Trove, g *Globals) (*uint256.Int, *uint256.Int) {
	if t.Status != StatusActive || t.Stake.IsZero() {
		return new(uint256.Int), new(uint256.Int)
	}
	one := decmath.One()
	collPer := decmath.Sub(g.LColl, t.Snapshot.Coll)
	debtPer := decmath.Sub(g.LDebt, t.Snapshot.Debt)
	return decmath.MulDiv(t.Stake, collPer, one), decmath.MulDiv(t.Stake, debtPer, one)
}

func hasPendingRewards(t *Trove, g *Globals) bool {
	if t.Status != StatusActive {
		return false
	}
	return t.Snapshot.Coll.Lt(g.LColl)
}

// entirePosition returns the stored position together with its pending
// rewards folded in.
func (e *Engine) entirePosition(owner common.Address) (*Trove, *uint256.Int, *uint256.Int, error) {
	t, err := e.loadTrove(owner)
	if err != nil {
		return nil, nil, nil, err
	}
	g, err := e.globals()
	if err != nil {
		return nil, nil, nil, err
	}
	pendingColl, pendingDebt := pendingRewards(t, g)
	return t, decmath.Add(t.Coll, pendingColl), decmath.Add(t.Debt, pendingDebt), nil
}

// NominalICR returns the price independent ratio of owner's position
// including pending rewards. It is the ordering key of the sorted list.
func (e *Engine) NominalICR(owner common.Address) (*uint256.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	_, coll, debt, err := e.entirePosition(owner)
	if err != nil {
		return nil, err
	}
	return decmath.ComputeNominalCR(coll, debt), nil
}

// CurrentICR returns owner's collateral ratio at price including pending
// rewards.
func (e *Engine) CurrentICR(owner common.Address, price *uint256.Int) (*uint256.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if err := requirePrice(price); err != nil {
		return nil, err
	}
	_, coll, debt, err := e.entirePosition(owner)
	if err != nil {
		return nil, err
	}
	return decmath.ComputeCR(coll, debt, price), nil
}

// applyPendingRewards folds owner's share of redistributions into the
// position and moves the backing out of the default pool.
func (e *Engine) applyPendingRewards(owner common.Address) error {
	t, err := e.loadTrove(owner)
	if err != nil {
		return err
	}
	g, err := e.globals()
	if err != nil {
		return err
	}
	if !hasPendingRewards(t, g) {
		return nil
	}
	pendingColl, pendingDebt := pendingRewards(t, g)
	t.Coll = decmath.Add(t.Coll, pendingColl)
	t.Debt = decmath.Add(t.Debt, pendingDebt)
	t.Snapshot = RewardSnapshot{Coll: decmath.Clone(g.LColl), Debt: decmath.Clone(g.LDebt)}
	if err := e.state.PutTrove(owner, t); err != nil {
		return err
	}
	return e.movePendingToActive(pendingDebt, pendingColl)
}

func (e *Engine) movePendingToActive(debt, coll *uint256.Int) error {
	g, err := e.globals()
	if err != nil {
		return err
	}
	g.DefaultDebt = decmath.Sub(g.DefaultDebt, debt)
	g.ActiveDebt = decmath.Add(g.ActiveDebt, debt)
	if err := e.state.PutTroveGlobals(g); err != nil {
		return err
	}
	return e.tokens.Transfer(bank.TokenCollateral, bank.DefaultPool, bank.ActivePool, coll)
}

func (e *Engine) updateRewardSnapshots(t *Trove) error {
	g, err := e.globals()
	if err != nil {
		return err
	}
	t.Snapshot = RewardSnapshot{Coll: decmath.Clone(g.LColl), Debt: decmath.Clone(g.LDebt)}
	return nil
}

// computeNewStake scales collateral by the stake to collateral ratio recorded
// at the last liquidation so earlier stakers keep their share of rewards.
func computeNewStake(coll *uint256.Int, g *Globals) *uint256.Int {
	if g.TotalCollateralSnapshot.IsZero() {
		return decmath.Clone(coll)
	}
	return decmath.MulDiv(coll, g.TotalStakesSnapshot, g.TotalCollateralSnapshot)
}

// updateStakeAndTotalStakes recomputes t's stake from its collateral. The
// caller persists t.
func (e *Engine) updateStakeAndTotalStakes(t *Trove) (*uint256.Int, error) {
	g, err := e.globals()
	if err != nil {
		return nil, err
	}
	stake := computeNewStake(t.Coll, g)
	g.TotalStakes = decmath.Add(decmath.Sub(g.TotalStakes, t.Stake), stake)
	t.Stake = stake
	if err := e.state.PutTroveGlobals(g); err != nil {
		return nil, err
	}
	return decmath.Clone(stake), nil
}

func (e *Engine) removeStake(owner common.Address) error {
	t, err := e.loadTrove(owner)
	if err != nil {
		return err
	}
	g, err := e.globals()
	if err != nil {
		return err
	}
	g.TotalStakes = decmath.Sub(g.TotalStakes, t.Stake)
	t.Stake = new(uint256.Int)
	if err := e.state.PutTroveGlobals(g); err != nil {
		return err
	}
	return e.state.PutTrove(owner, t)
}

// redistribute spreads debt and coll over every active stake. Division
// remainders are carried into the next redistribution.
func (e *Engine) redistribute(debt, coll *uint256.Int) error {
	if debt.IsZero() {
		return nil
	}
	g, err := e.globals()
	if err != nil {
		return err
	}
	if g.TotalStakes.IsZero() {
		return ErrNoStakes
	}
	one := decmath.One()
	collNumerator := decmath.Add(decmath.Mul(coll, one), g.LastCollError)
	debtNumerator := decmath.Add(decmath.Mul(debt, one), g.LastDebtError)
	collPer := decmath.Div(collNumerator, g.TotalStakes)
	debtPer := decmath.Div(debtNumerator, g.TotalStakes)
	g.LastCollError = decmath.Sub(collNumerator, decmath.Mul(collPer, g.TotalStakes))
	g.LastDebtError = decmath.Sub(debtNumerator, decmath.Mul(debtPer, g.TotalStakes))
	g.LColl = decmath.Add(g.LColl, collPer)
	g.LDebt = decmath.Add(g.LDebt, debtPer)
	g.ActiveDebt = decmath.Sub(g.ActiveDebt, debt)
	g.DefaultDebt = decmath.Add(g.DefaultDebt, debt)
	if err := e.state.PutTroveGlobals(g); err != nil {
		return err
	}
	return e.tokens.Transfer(bank.TokenCollateral, bank.ActivePool, bank.DefaultPool, coll)
}

// updateSystemSnapshots records the stake to collateral ratio after a
// liquidation. collRemainder is collateral still in the active pool that
// is about to leave as gas compensation.
func (e *Engine) updateSystemSnapshots(collRemainder *uint256.Int) error {
	g, err := e.globals()
	if err != nil {
		return err
	}
	activeColl, err := e.balance(bank.TokenCollateral, bank.ActivePool)
	if err != nil {
		return err
	}
	defaultColl, err := e.balance(bank.TokenCollateral, bank.DefaultPool)
	if err != nil {
		return err
	}
	g.TotalStakesSnapshot = decmath.Clone(g.TotalStakes)
	g.TotalCollateralSnapshot = decmath.Add(decmath.Sub(activeColl, collRemainder), defaultColl)
	return e.state.PutTroveGlobals(g)
}

func (e *Engine) addTroveOwner(owner common.Address, t *Trove) error {
	count, err := e.state.TroveOwnerCount()
	if err != nil {
		return err
	}
	if err := e.state.PutTroveOwnerAt(count, owner); err != nil {
		return err
	}
	t.ArrayIndex = count
	return e.state.PutTroveOwnerCount(count + 1)
}

// removeTroveOwner swaps the last owner into the freed slot.
func (e *Engine) removeTroveOwner(owner common.Address, index uint64) error {
	count, err := e.state.TroveOwnerCount()
	if err != nil {
		return err
	}
	if count == 0 || index >= count {
		return ErrTroveNotActive
	}
	last := count - 1
	if index != last {
		moved, err := e.state.TroveOwnerAt(last)
		if err != nil {
			return err
		}
		if err := e.state.PutTroveOwnerAt(index, moved); err != nil {
			return err
		}
		mt, err := e.loadTrove(moved)
		if err != nil {
			return err
		}
		mt.ArrayIndex = index
		if err := e.state.PutTrove(moved, mt); err != nil {
			return err
		}
	}
	if err := e.state.DeleteTroveOwnerAt(last); err != nil {
		return err
	}
	return e.state.PutTroveOwnerCount(last)
}

// closeTrove zeroes owner's position and drops it from the owner array and
// the sorted list. The last position in the system cannot be closed.
func (e *Engine) closeTrove(owner common.Address, status Status) error {
	count, err := e.state.TroveOwnerCount()
	if err != nil {
		return err
	}
	size, err := e.list.Size()
	if err != nil {
		return err
	}
	if count <= 1 || size <= 1 {
		return ErrOnlyOneTrove
	}
	t, err := e.loadTrove(owner)
	if err != nil {
		return err
	}
	index := t.ArrayIndex
	closed := emptyTrove()
	closed.Status = status
	if err := e.state.PutTrove(owner, closed); err != nil {
		return err
	}
	if err := e.removeTroveOwner(owner, index); err != nil {
		return err
	}
	return e.list.Remove(owner)
}

func (e *Engine) addSurplus(owner common.Address, amount *uint256.Int) error {
	current, err := e.state.CollSurplus(owner)
	if err != nil {
		return err
	}
	return e.state.PutCollSurplus(owner, decmath.Add(decmath.Clone(current), amount))
}
