package trove

import (
	"errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"trovechain/native/bank"
	nativecommon "trovechain/native/common"
	"trovechain/native/decmath"
)

// singleLiquidation carries the values produced by liquidating one position.
type singleLiquidation struct {
	owner              common.Address
	mode               LiquidationMode
	entireDebt         *uint256.Int
	entireColl         *uint256.Int
	collGasComp        *uint256.Int
	stableGasComp      *uint256.Int
	debtToOffset       *uint256.Int
	collToSP           *uint256.Int
	debtToRedistribute *uint256.Int
	collToRedistribute *uint256.Int
	collSurplus        *uint256.Int
}

func zeroLiquidation(owner common.Address) *singleLiquidation {
	return &singleLiquidation{
		owner:              owner,
		entireDebt:         new(uint256.Int),
		entireColl:         new(uint256.Int),
		collGasComp:        new(uint256.Int),
		stableGasComp:      new(uint256.Int),
		debtToOffset:       new(uint256.Int),
		collToSP:           new(uint256.Int),
		debtToRedistribute: new(uint256.Int),
		collToRedistribute: new(uint256.Int),
		collSurplus:        new(uint256.Int),
	}
}

type liquidationTotals struct {
	troves             []LiquidatedTrove
	collInSequence     *uint256.Int
	debtInSequence     *uint256.Int
	collGasComp        *uint256.Int
	stableGasComp      *uint256.Int
	debtToOffset       *uint256.Int
	collToSP           *uint256.Int
	debtToRedistribute *uint256.Int
	collToRedistribute *uint256.Int
	collSurplus        *uint256.Int
}

func newLiquidationTotals() *liquidationTotals {
	return &liquidationTotals{
		collInSequence:     new(uint256.Int),
		debtInSequence:     new(uint256.Int),
		collGasComp:        new(uint256.Int),
		stableGasComp:      new(uint256.Int),
		debtToOffset:       new(uint256.Int),
		collToSP:           new(uint256.Int),
		debtToRedistribute: new(uint256.Int),
		collToRedistribute: new(uint256.Int),
		collSurplus:        new(uint256.Int),
	}
}

func (t *liquidationTotals) add(s *singleLiquidation) {
	if s.entireDebt.IsZero() {
		return
	}
	t.troves = append(t.troves, LiquidatedTrove{
		Owner: s.owner,
		Debt:  decmath.Clone(s.entireDebt),
		Coll:  decmath.Clone(s.entireColl),
		Mode:  s.mode,
	})
	t.collInSequence = decmath.Add(t.collInSequence, s.entireColl)
	t.debtInSequence = decmath.Add(t.debtInSequence, s.entireDebt)
	t.collGasComp = decmath.Add(t.collGasComp, s.collGasComp)
	t.stableGasComp = decmath.Add(t.stableGasComp, s.stableGasComp)
	t.debtToOffset = decmath.Add(t.debtToOffset, s.debtToOffset)
	t.collToSP = decmath.Add(t.collToSP, s.collToSP)
	t.debtToRedistribute = decmath.Add(t.debtToRedistribute, s.debtToRedistribute)
	t.collToRedistribute = decmath.Add(t.collToRedistribute, s.collToRedistribute)
	t.collSurplus = decmath.Add(t.collSurplus, s.collSurplus)
}

// Liquidate closes a single position if it is eligible at price.
func (e *Engine) Liquidate(owner common.Address, price *uint256.Int, liquidator common.Address) (*LiquidationResult, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	t, err := e.loadTrove(owner)
	if err != nil {
		return nil, err
	}
	if t.Status != StatusActive {
		return nil, ErrTroveNotActive
	}
	res, err := e.BatchLiquidate([]common.Address{owner}, price, liquidator)
	if errors.Is(err, ErrNothingToLiquidate) {
		return nil, ErrNotLiquidatable
	}
	return res, err
}

// BatchLiquidate liquidates every eligible position in owners. Ineligible
// or inactive entries are skipped.
func (e *Engine) BatchLiquidate(owners []common.Address, price *uint256.Int, liquidator common.Address) (*LiquidationResult, error) {
	if err := nativecommon.Guard(e.pauses, moduleName, "liquidate"); err != nil {
		return nil, err
	}
	if err := e.ready(); err != nil {
		return nil, err
	}
	if err := requirePrice(price); err != nil {
		return nil, err
	}
	if len(owners) == 0 {
		return nil, ErrEmptyBatch
	}
	if limit := e.limits.MaxBatchLiquidations; limit > 0 && uint64(len(owners)) > limit {
		return nil, ErrBatchTooLarge
	}
	spDeposits, err := e.pool.TotalDeposits()
	if err != nil {
		return nil, err
	}
	recovery, err := e.RecoveryMode(price)
	if err != nil {
		return nil, err
	}
	var totals *liquidationTotals
	if recovery {
		totals, err = e.batchRecoveryMode(owners, price, decmath.Clone(spDeposits))
	} else {
		totals, err = e.batchNormalMode(owners, price, decmath.Clone(spDeposits))
	}
	if err != nil {
		return nil, err
	}
	return e.finalizeLiquidation(totals, recovery, liquidator)
}

// LiquidateTroves walks up to n positions from the riskiest end of the
// sorted list and liquidates them until one is no longer eligible.
func (e *Engine) LiquidateTroves(n uint64, price *uint256.Int, liquidator common.Address) (*LiquidationResult, error) {
	if err := nativecommon.Guard(e.pauses, moduleName, "liquidate"); err != nil {
		return nil, err
	}
	if err := e.ready(); err != nil {
		return nil, err
	}
	if err := requirePrice(price); err != nil {
		return nil, err
	}
	if limit := e.limits.MaxBatchLiquidations; limit > 0 && n > limit {
		n = limit
	}
	spDeposits, err := e.pool.TotalDeposits()
	if err != nil {
		return nil, err
	}
	recovery, err := e.RecoveryMode(price)
	if err != nil {
		return nil, err
	}
	var totals *liquidationTotals
	if recovery {
		totals, err = e.sequenceRecoveryMode(n, price, decmath.Clone(spDeposits))
	} else {
		totals, err = e.sequenceNormalMode(n, price, decmath.Clone(spDeposits))
	}
	if err != nil {
		return nil, err
	}
	return e.finalizeLiquidation(totals, recovery, liquidator)
}

func (e *Engine) batchNormalMode(owners []common.Address, price, remainingSP *uint256.Int) (*liquidationTotals, error) {
	totals := newLiquidationTotals()
	for _, owner := range owners {
		icr, err := e.CurrentICR(owner, price)
		if err != nil {
			return nil, err
		}
		if !icr.Lt(e.params.MCR) {
			continue
		}
		single, err := e.liquidateNormalMode(owner, remainingSP)
		if err != nil {
			return nil, err
		}
		remainingSP = decmath.Sub(remainingSP, single.debtToOffset)
		totals.add(single)
	}
	return totals, nil
}

func (e *Engine) sequenceNormalMode(n uint64, price, remainingSP *uint256.Int) (*liquidationTotals, error) {
	totals := newLiquidationTotals()
	for i := uint64(0); i < n; i++ {
		owner, err := e.list.Last()
		if err != nil {
			return nil, err
		}
		if owner == (common.Address{}) {
			break
		}
		icr, err := e.CurrentICR(owner, price)
		if err != nil {
			return nil, err
		}
		if !icr.Lt(e.params.MCR) {
			break
		}
		single, err := e.liquidateNormalMode(owner, remainingSP)
		if err != nil {
			return nil, err
		}
		remainingSP = decmath.Sub(remainingSP, single.debtToOffset)
		totals.add(single)
	}
	return totals, nil
}

// recoveryCursor tracks the running system totals while a recovery mode
// liquidation walks positions, so the mode can flip back to normal midway.
type recoveryCursor struct {
	remainingSP  *uint256.Int
	systemDebt   *uint256.Int
	systemColl   *uint256.Int
	backToNormal bool
}

func (e *Engine) newRecoveryCursor(remainingSP *uint256.Int) (*recoveryCursor, error) {
	debt, err := e.EntireSystemDebt()
	if err != nil {
		return nil, err
	}
	coll, err := e.EntireSystemColl()
	if err != nil {
		return nil, err
	}
	return &recoveryCursor{remainingSP: remainingSP, systemDebt: debt, systemColl: coll}, nil
}

// step liquidates owner under the rules of the cursor's current mode. It
// reports false when the walk should not treat owner as liquidated.
func (e *Engine) step(c *recoveryCursor, owner common.Address, icr, price *uint256.Int, totals *liquidationTotals) (bool, error) {
	if !c.backToNormal {
		if !icr.Lt(e.params.MCR) && c.remainingSP.IsZero() {
			return false, nil
		}
		tcr := decmath.ComputeCR(c.systemColl, c.systemDebt, price)
		single, err := e.liquidateRecoveryMode(owner, icr, c.remainingSP, tcr, price)
		if err != nil {
			return false, err
		}
		c.remainingSP = decmath.Sub(c.remainingSP, single.debtToOffset)
		c.systemDebt = decmath.Sub(c.systemDebt, single.debtToOffset)
		removed := decmath.Add(decmath.Add(single.collToSP, single.collGasComp), single.collSurplus)
		c.systemColl = decmath.Sub(c.systemColl, removed)
		totals.add(single)
		c.backToNormal = !e.potentialRecoveryMode(c.systemColl, c.systemDebt, price)
		return true, nil
	}
	if !icr.Lt(e.params.MCR) {
		return false, nil
	}
	single, err := e.liquidateNormalMode(owner, c.remainingSP)
	if err != nil {
		return false, err
	}
	c.remainingSP = decmath.Sub(c.remainingSP, single.debtToOffset)
	totals.add(single)
	return true, nil
}

func (e *Engine) batchRecoveryMode(owners []common.Address, price, remainingSP *uint256.Int) (*liquidationTotals, error) {
	cursor, err := e.newRecoveryCursor(remainingSP)
	if err != nil {
		return nil, err
	}
	totals := newLiquidationTotals()
	for _, owner := range owners {
		t, err := e.loadTrove(owner)
		if err != nil {
			return nil, err
		}
		if t.Status != StatusActive {
			continue
		}
		icr, err := e.CurrentICR(owner, price)
		if err != nil {
			return nil, err
		}
		if _, err := e.step(cursor, owner, icr, price, totals); err != nil {
			return nil, err
		}
	}
	return totals, nil
}

func (e *Engine) sequenceRecoveryMode(n uint64, price, remainingSP *uint256.Int) (*liquidationTotals, error) {
	cursor, err := e.newRecoveryCursor(remainingSP)
	if err != nil {
		return nil, err
	}
	totals := newLiquidationTotals()
	owner, err := e.list.Last()
	if err != nil {
		return nil, err
	}
	first, err := e.list.First()
	if err != nil {
		return nil, err
	}
	for i := uint64(0); i < n && owner != first && owner != (common.Address{}); i++ {
		// The predecessor is read before owner leaves the list.
		next, err := e.list.Prev(owner)
		if err != nil {
			return nil, err
		}
		icr, err := e.CurrentICR(owner, price)
		if err != nil {
			return nil, err
		}
		ok, err := e.step(cursor, owner, icr, price, totals)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		owner = next
	}
	return totals, nil
}

// liquidateNormalMode offsets as much of owner's debt as the pool can absorb
// and redistributes the rest.
func (e *Engine) liquidateNormalMode(owner common.Address, remainingSP *uint256.Int) (*singleLiquidation, error) {
	single, pendingDebt, pendingColl, err := e.prepareLiquidation(owner)
	if err != nil {
		return nil, err
	}
	if err := e.movePendingToActive(pendingDebt, pendingColl); err != nil {
		return nil, err
	}
	if err := e.removeStake(owner); err != nil {
		return nil, err
	}
	single.mode = ModeNormal
	collToLiquidate := decmath.Sub(single.entireColl, single.collGasComp)
	e.offsetAndRedistribute(single, single.entireDebt, collToLiquidate, remainingSP)
	if err := e.closeTrove(owner, StatusClosedByLiquidation); err != nil {
		return nil, err
	}
	return single, nil
}

// liquidateRecoveryMode applies the recovery mode rules to one position.
// Positions that no rule covers are left untouched and report zeros.
func (e *Engine) liquidateRecoveryMode(owner common.Address, icr, remainingSP, tcr, price *uint256.Int) (*singleLiquidation, error) {
	count, err := e.state.TroveOwnerCount()
	if err != nil {
		return nil, err
	}
	if count <= 1 {
		return zeroLiquidation(owner), nil
	}
	switch {
	case !icr.Gt(decmath.One()):
		single, pendingDebt, pendingColl, err := e.prepareLiquidation(owner)
		if err != nil {
			return nil, err
		}
		if err := e.movePendingToActive(pendingDebt, pendingColl); err != nil {
			return nil, err
		}
		if err := e.removeStake(owner); err != nil {
			return nil, err
		}
		single.mode = ModeRedistribution
		single.debtToRedistribute = decmath.Clone(single.entireDebt)
		single.collToRedistribute = decmath.Sub(single.entireColl, single.collGasComp)
		if err := e.closeTrove(owner, StatusClosedByLiquidation); err != nil {
			return nil, err
		}
		return single, nil
	case icr.Lt(e.params.MCR):
		return e.liquidateNormalMode(owner, remainingSP)
	case icr.Lt(tcr):
		single, pendingDebt, pendingColl, err := e.prepareLiquidation(owner)
		if err != nil {
			return nil, err
		}
		if single.entireDebt.Gt(remainingSP) {
			return zeroLiquidation(owner), nil
		}
		if err := e.movePendingToActive(pendingDebt, pendingColl); err != nil {
			return nil, err
		}
		if err := e.removeStake(owner); err != nil {
			return nil, err
		}
		e.cappedOffset(single, price)
		if err := e.closeTrove(owner, StatusClosedByLiquidation); err != nil {
			return nil, err
		}
		if !single.collSurplus.IsZero() {
			if err := e.addSurplus(owner, single.collSurplus); err != nil {
				return nil, err
			}
		}
		return single, nil
	}
	return zeroLiquidation(owner), nil
}

func (e *Engine) prepareLiquidation(owner common.Address) (*singleLiquidation, *uint256.Int, *uint256.Int, error) {
	t, err := e.loadTrove(owner)
	if err != nil {
		return nil, nil, nil, err
	}
	g, err := e.globals()
	if err != nil {
		return nil, nil, nil, err
	}
	pendingColl, pendingDebt := pendingRewards(t, g)
	single := zeroLiquidation(owner)
	single.entireColl = decmath.Add(t.Coll, pendingColl)
	single.entireDebt = decmath.Add(t.Debt, pendingDebt)
	single.collGasComp = decmath.Div(single.entireColl, uint256.NewInt(e.params.PercentDivisor))
	single.stableGasComp = decmath.Clone(e.params.GasCompensation)
	return single, pendingDebt, pendingColl, nil
}

func (e *Engine) offsetAndRedistribute(single *singleLiquidation, debt, coll, remainingSP *uint256.Int) {
	if remainingSP.IsZero() {
		single.debtToRedistribute = decmath.Clone(debt)
		single.collToRedistribute = decmath.Clone(coll)
		return
	}
	single.debtToOffset = decmath.Min(debt, remainingSP)
	single.collToSP = decmath.MulDiv(coll, single.debtToOffset, debt)
	single.debtToRedistribute = decmath.Sub(debt, single.debtToOffset)
	single.collToRedistribute = decmath.Sub(coll, single.collToSP)
}

// cappedOffset offsets the whole debt but only hands the pool collateral
// worth MCR times the debt. The rest is left to the owner as surplus.
func (e *Engine) cappedOffset(single *singleLiquidation, price *uint256.Int) {
	capped := decmath.MulDiv(single.entireDebt, e.params.MCR, price)
	single.mode = ModeCappedOffset
	single.collGasComp = decmath.Div(capped, uint256.NewInt(e.params.PercentDivisor))
	single.debtToOffset = decmath.Clone(single.entireDebt)
	single.collToSP = decmath.Sub(capped, single.collGasComp)
	single.collSurplus = decmath.Sub(single.entireColl, capped)
	single.debtToRedistribute = new(uint256.Int)
	single.collToRedistribute = new(uint256.Int)
}

// finalizeLiquidation moves the aggregated amounts between pools and pays
// the liquidator.
func (e *Engine) finalizeLiquidation(totals *liquidationTotals, recovery bool, liquidator common.Address) (*LiquidationResult, error) {
	if totals.debtInSequence.IsZero() {
		return nil, ErrNothingToLiquidate
	}
	offset, err := e.pool.Offset(totals.debtToOffset, totals.collToSP)
	if err != nil {
		return nil, err
	}
	if err := e.subActiveDebt(totals.debtToOffset); err != nil {
		return nil, err
	}
	if err := e.redistribute(totals.debtToRedistribute, totals.collToRedistribute); err != nil {
		return nil, err
	}
	if !totals.collSurplus.IsZero() {
		if err := e.tokens.Transfer(bank.TokenCollateral, bank.ActivePool, bank.CollSurplusPool, totals.collSurplus); err != nil {
			return nil, err
		}
	}
	if err := e.updateSystemSnapshots(totals.collGasComp); err != nil {
		return nil, err
	}
	if err := e.tokens.Transfer(bank.TokenStable, bank.GasPool, liquidator, totals.stableGasComp); err != nil {
		return nil, err
	}
	if err := e.tokens.Transfer(bank.TokenCollateral, bank.ActivePool, liquidator, totals.collGasComp); err != nil {
		return nil, err
	}
	liquidatedColl := decmath.Sub(decmath.Sub(totals.collInSequence, totals.collGasComp), totals.collSurplus)
	return &LiquidationResult{
		Liquidated:            totals.troves,
		LiquidatedDebt:        totals.debtInSequence,
		LiquidatedColl:        liquidatedColl,
		CollGasCompensation:   totals.collGasComp,
		StableGasCompensation: totals.stableGasComp,
		DebtOffset:            totals.debtToOffset,
		CollToStabilityPool:   totals.collToSP,
		DebtRedistributed:     totals.debtToRedistribute,
		CollRedistributed:     totals.collToRedistribute,
		CollSurplus:           totals.collSurplus,
		RecoveryModeAtStart:   recovery,
		Offset:                offset,
	}, nil
}
