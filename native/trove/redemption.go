package trove

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"trovechain/native/bank"
	nativecommon "trovechain/native/common"
	"trovechain/native/decmath"
)

// RedeemRequest exchanges stablecoins for collateral at face value.
type RedeemRequest struct {
	Amount *uint256.Int
	// FirstHint is the position with the lowest ICR at or above MCR. An
	// invalid hint falls back to a walk from the tail of the list.
	FirstHint common.Address
	// UpperPartialHint and LowerPartialHint locate the reinsert position of
	// the last, partially redeemed position whose expected new NICR is
	// PartialNICR.
	UpperPartialHint common.Address
	LowerPartialHint common.Address
	PartialNICR      *uint256.Int
	MaxIterations    uint64
	MaxFee           *uint256.Int
}

// Redeem burns up to req.Amount of redeemer's stablecoins against the
// riskiest positions at or above MCR and pays out collateral net of the
// redemption fee.
func (e *Engine) Redeem(redeemer common.Address, req RedeemRequest, price *uint256.Int) (*RedemptionResult, error) {
	if err := nativecommon.Guard(e.pauses, moduleName, "redeem"); err != nil {
		return nil, err
	}
	if err := e.ready(); err != nil {
		return nil, err
	}
	if err := requirePrice(price); err != nil {
		return nil, err
	}
	if req.MaxFee == nil || req.MaxFee.Lt(e.params.RedemptionFeeFloor) || req.MaxFee.Gt(decmath.One()) {
		return nil, ErrMaxFeeRange
	}
	g, err := e.globals()
	if err != nil {
		return nil, err
	}
	bootstrapEnd := g.GenesisTime + uint64(e.params.BootstrapPeriod/time.Second)
	if e.timestamp() < bootstrapEnd {
		return nil, ErrBootstrapPeriod
	}
	tcr, err := e.TCR(price)
	if err != nil {
		return nil, err
	}
	if tcr.Lt(e.params.MCR) {
		return nil, ErrTCRBelowMCR
	}
	amount := decmath.Clone(req.Amount)
	if amount.IsZero() {
		return nil, ErrZeroAmount
	}
	bal, err := e.balance(bank.TokenStable, redeemer)
	if err != nil {
		return nil, err
	}
	if bal.Lt(amount) {
		return nil, ErrInsufficientStable
	}
	supplyAtStart, err := e.EntireSystemDebt()
	if err != nil {
		return nil, err
	}

	current, err := e.firstRedemptionCandidate(req.FirstHint, price)
	if err != nil {
		return nil, err
	}
	iterations := e.redemptionIterations(req.MaxIterations)
	partialNICR := decmath.Clone(req.PartialNICR)
	remaining := decmath.Clone(amount)
	result := &RedemptionResult{
		Attempted: decmath.Clone(amount),
		Redeemed:  new(uint256.Int),
		CollDrawn: new(uint256.Int),
	}
	for current != (common.Address{}) && !remaining.IsZero() && iterations > 0 {
		iterations--
		next, err := e.list.Prev(current)
		if err != nil {
			return nil, err
		}
		if err := e.applyPendingRewards(current); err != nil {
			return nil, err
		}
		single, cancelled, err := e.redeemFromTrove(current, remaining, price, partialNICR, req.UpperPartialHint, req.LowerPartialHint)
		if err != nil {
			return nil, err
		}
		if cancelled {
			result.PartialCancel = true
			break
		}
		result.Troves = append(result.Troves, *single)
		result.Redeemed = decmath.Add(result.Redeemed, single.StableLot)
		result.CollDrawn = decmath.Add(result.CollDrawn, single.CollLot)
		remaining = decmath.Sub(remaining, single.StableLot)
		current = next
	}
	if result.CollDrawn.IsZero() {
		return nil, ErrUnableToRedeem
	}

	rate, err := e.updateBaseRateFromRedemption(result.CollDrawn, price, supplyAtStart)
	if err != nil {
		return nil, err
	}
	fee := decmath.MulFrac(result.CollDrawn, e.redemptionRate(rate))
	if !fee.Lt(result.CollDrawn) {
		return nil, ErrFeeEatsCollateral
	}
	if err := requireUserAcceptsFee(fee, result.CollDrawn, req.MaxFee); err != nil {
		return nil, err
	}
	if err := e.tokens.Transfer(bank.TokenCollateral, bank.ActivePool, bank.StakingPool, fee); err != nil {
		return nil, err
	}
	if e.fees != nil {
		if err := e.fees.IncreaseCollFee(fee); err != nil {
			return nil, err
		}
	}
	if err := e.tokens.Burn(bank.TokenStable, redeemer, result.Redeemed); err != nil {
		return nil, err
	}
	if err := e.subActiveDebt(result.Redeemed); err != nil {
		return nil, err
	}
	sent := decmath.Sub(result.CollDrawn, fee)
	if err := e.tokens.Transfer(bank.TokenCollateral, bank.ActivePool, redeemer, sent); err != nil {
		return nil, err
	}
	result.CollFee = fee
	result.CollSent = sent
	result.BaseRate = rate
	return result, nil
}

func (e *Engine) redemptionIterations(requested uint64) uint64 {
	limit := e.limits.MaxRedemptionIterations
	switch {
	case requested == 0 && limit == 0:
		return ^uint64(0)
	case requested == 0:
		return limit
	case limit > 0 && requested > limit:
		return limit
	}
	return requested
}

// firstRedemptionCandidate returns hint when it is the riskiest position
// at or above MCR and otherwise walks up from the tail.
func (e *Engine) firstRedemptionCandidate(hint common.Address, price *uint256.Int) (common.Address, error) {
	ok, err := e.validFirstRedemptionHint(hint, price)
	if err != nil {
		return common.Address{}, err
	}
	if ok {
		return hint, nil
	}
	return e.firstAboveMCR(price)
}

func (e *Engine) firstAboveMCR(price *uint256.Int) (common.Address, error) {
	current, err := e.list.Last()
	if err != nil {
		return common.Address{}, err
	}
	for current != (common.Address{}) {
		icr, err := e.CurrentICR(current, price)
		if err != nil {
			return common.Address{}, err
		}
		if !icr.Lt(e.params.MCR) {
			break
		}
		if current, err = e.list.Prev(current); err != nil {
			return common.Address{}, err
		}
	}
	return current, nil
}

func (e *Engine) validFirstRedemptionHint(hint common.Address, price *uint256.Int) (bool, error) {
	if hint == (common.Address{}) {
		return false, nil
	}
	listed, err := e.list.Contains(hint)
	if err != nil || !listed {
		return false, err
	}
	icr, err := e.CurrentICR(hint, price)
	if err != nil {
		return false, err
	}
	if icr.Lt(e.params.MCR) {
		return false, nil
	}
	next, err := e.list.Next(hint)
	if err != nil {
		return false, err
	}
	if next == (common.Address{}) {
		return true, nil
	}
	nextICR, err := e.CurrentICR(next, price)
	if err != nil {
		return false, err
	}
	return nextICR.Lt(e.params.MCR), nil
}

// redeemFromTrove redeems up to maxAmount from owner's position. A partial
// redemption whose resulting NICR differs from partialNICR, or that would
// leave less than the minimum net debt, is cancelled.
func (e *Engine) redeemFromTrove(owner common.Address, maxAmount, price, partialNICR *uint256.Int, upperHint, lowerHint common.Address) (*RedeemedTrove, bool, error) {
	t, err := e.loadTrove(owner)
	if err != nil {
		return nil, false, err
	}
	gasComp := e.params.GasCompensation
	stableLot := decmath.Min(maxAmount, decmath.Sub(t.Debt, gasComp))
	collLot := decmath.MulDiv(stableLot, decmath.One(), price)
	newDebt := decmath.Sub(t.Debt, stableLot)
	newColl := decmath.Sub(t.Coll, collLot)
	single := &RedeemedTrove{
		Owner:     owner,
		StableLot: stableLot,
		CollLot:   collLot,
		NewDebt:   newDebt,
		NewColl:   newColl,
	}

	if newDebt.Eq(gasComp) {
		if err := e.removeStake(owner); err != nil {
			return nil, false, err
		}
		if err := e.closeTrove(owner, StatusClosedByRedemption); err != nil {
			return nil, false, err
		}
		if err := e.tokens.Burn(bank.TokenStable, bank.GasPool, gasComp); err != nil {
			return nil, false, err
		}
		if err := e.subActiveDebt(gasComp); err != nil {
			return nil, false, err
		}
		if err := e.addSurplus(owner, newColl); err != nil {
			return nil, false, err
		}
		if err := e.tokens.Transfer(bank.TokenCollateral, bank.ActivePool, bank.CollSurplusPool, newColl); err != nil {
			return nil, false, err
		}
		single.Closed = true
		return single, false, nil
	}

	newNICR := decmath.ComputeNominalCR(newColl, newDebt)
	if !newNICR.Eq(partialNICR) || decmath.Sub(newDebt, gasComp).Lt(e.params.MinNetDebt) {
		return nil, true, nil
	}
	if err := e.list.ReInsert(owner, newNICR, upperHint, lowerHint); err != nil {
		return nil, false, err
	}
	t.Debt = newDebt
	t.Coll = newColl
	if _, err := e.updateStakeAndTotalStakes(t); err != nil {
		return nil, false, err
	}
	if err := e.state.PutTrove(owner, t); err != nil {
		return nil, false, err
	}
	return single, false, nil
}
