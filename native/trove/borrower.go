package trove

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"trovechain/native/bank"
	nativecommon "trovechain/native/common"
	"trovechain/native/decmath"
	"trovechain/native/stability"
)

// OpenRequest describes a new position.
type OpenRequest struct {
	Coll     *uint256.Int
	Borrow   *uint256.Int
	MaxFee   *uint256.Int
	PrevHint common.Address
	NextHint common.Address
}

// AdjustRequest changes collateral and debt of an existing position. At most
// one of CollDeposit and CollWithdrawal may be non-zero.
type AdjustRequest struct {
	CollDeposit    *uint256.Int
	CollWithdrawal *uint256.Int
	DebtChange     *uint256.Int
	DebtIncrease   bool
	MaxFee         *uint256.Int
	PrevHint       common.Address
	NextHint       common.Address
}

func (r AdjustRequest) normalize() AdjustRequest {
	r.CollDeposit = decmath.Clone(r.CollDeposit)
	r.CollWithdrawal = decmath.Clone(r.CollWithdrawal)
	r.DebtChange = decmath.Clone(r.DebtChange)
	return r
}

// OpenTrove locks req.Coll from owner and mints req.Borrow stablecoins
// against it.
func (e *Engine) OpenTrove(owner common.Address, req OpenRequest, price *uint256.Int) (*TroveResult, error) {
	if err := nativecommon.Guard(e.pauses, moduleName, "open"); err != nil {
		return nil, err
	}
	if err := e.ready(); err != nil {
		return nil, err
	}
	if err := requirePrice(price); err != nil {
		return nil, err
	}
	coll := decmath.Clone(req.Coll)
	borrow := decmath.Clone(req.Borrow)
	recovery, err := e.RecoveryMode(price)
	if err != nil {
		return nil, err
	}
	if err := e.requireValidMaxFee(req.MaxFee, recovery); err != nil {
		return nil, err
	}
	t, err := e.loadTrove(owner)
	if err != nil {
		return nil, err
	}
	if t.Status == StatusActive {
		return nil, ErrTroveActive
	}
	if coll.IsZero() {
		return nil, ErrZeroAmount
	}

	fee := new(uint256.Int)
	netDebt := decmath.Clone(borrow)
	if !recovery {
		fee, err = e.triggerBorrowingFee(borrow, req.MaxFee)
		if err != nil {
			return nil, err
		}
		netDebt = decmath.Add(netDebt, fee)
	}
	if netDebt.Lt(e.params.MinNetDebt) {
		return nil, ErrBelowMinNetDebt
	}
	compositeDebt := decmath.Add(netDebt, e.params.GasCompensation)
	icr := decmath.ComputeCR(coll, compositeDebt, price)
	nicr := decmath.ComputeNominalCR(coll, compositeDebt)
	if recovery {
		if icr.Lt(e.params.CCR) {
			return nil, ErrICRBelowCCR
		}
	} else {
		if icr.Lt(e.params.MCR) {
			return nil, ErrICRBelowMCR
		}
		if err := e.requireNewTCRAboveCCR(coll, true, compositeDebt, true, price); err != nil {
			return nil, err
		}
	}

	t = emptyTrove()
	t.Status = StatusActive
	t.Coll = coll
	t.Debt = compositeDebt
	if err := e.updateRewardSnapshots(t); err != nil {
		return nil, err
	}
	if _, err := e.updateStakeAndTotalStakes(t); err != nil {
		return nil, err
	}
	if err := e.addTroveOwner(owner, t); err != nil {
		return nil, err
	}
	if err := e.state.PutTrove(owner, t); err != nil {
		return nil, err
	}
	if err := e.list.Insert(owner, nicr, req.PrevHint, req.NextHint); err != nil {
		return nil, err
	}

	if err := e.tokens.Transfer(bank.TokenCollateral, owner, bank.ActivePool, coll); err != nil {
		return nil, err
	}
	if err := e.addActiveDebt(compositeDebt); err != nil {
		return nil, err
	}
	if err := e.tokens.Mint(bank.TokenStable, owner, borrow); err != nil {
		return nil, err
	}
	if err := e.tokens.Mint(bank.TokenStable, bank.GasPool, e.params.GasCompensation); err != nil {
		return nil, err
	}
	return e.result(owner, t, fee, price), nil
}

// AdjustTrove applies a collateral and/or debt change to owner's position.
func (e *Engine) AdjustTrove(owner common.Address, req AdjustRequest, price *uint256.Int) (*TroveResult, error) {
	if err := nativecommon.Guard(e.pauses, moduleName, "adjust"); err != nil {
		return nil, err
	}
	return e.adjust(owner, req.normalize(), price, false)
}

// adjust implements AdjustTrove. When collPrefunded is set the deposit has
// already been moved into the active pool.
func (e *Engine) adjust(owner common.Address, req AdjustRequest, price *uint256.Int, collPrefunded bool) (*TroveResult, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if err := requirePrice(price); err != nil {
		return nil, err
	}
	recovery, err := e.RecoveryMode(price)
	if err != nil {
		return nil, err
	}
	if req.DebtIncrease {
		if err := e.requireValidMaxFee(req.MaxFee, recovery); err != nil {
			return nil, err
		}
		if req.DebtChange.IsZero() {
			return nil, ErrZeroAmount
		}
	}
	if !req.CollDeposit.IsZero() && !req.CollWithdrawal.IsZero() {
		return nil, ErrSingularCollChange
	}
	if req.CollDeposit.IsZero() && req.CollWithdrawal.IsZero() && req.DebtChange.IsZero() {
		return nil, ErrNoAdjustment
	}
	t, err := e.loadTrove(owner)
	if err != nil {
		return nil, err
	}
	if t.Status != StatusActive {
		return nil, ErrTroveNotActive
	}
	if err := e.applyPendingRewards(owner); err != nil {
		return nil, err
	}
	if t, err = e.loadTrove(owner); err != nil {
		return nil, err
	}

	fee := new(uint256.Int)
	netDebtChange := decmath.Clone(req.DebtChange)
	if req.DebtIncrease && !recovery {
		fee, err = e.triggerBorrowingFee(req.DebtChange, req.MaxFee)
		if err != nil {
			return nil, err
		}
		netDebtChange = decmath.Add(netDebtChange, fee)
	}
	if req.CollWithdrawal.Gt(t.Coll) {
		return nil, ErrCollWithdrawalLimit
	}
	if !req.DebtIncrease && !netDebtChange.IsZero() {
		if netDebtChange.Gt(decmath.Sub(t.Debt, e.params.GasCompensation)) {
			return nil, ErrRepaymentTooLarge
		}
	}

	collIncrease := !req.CollDeposit.IsZero()
	collChange := req.CollDeposit
	if !collIncrease {
		collChange = req.CollWithdrawal
	}
	newColl := applyChange(t.Coll, collChange, collIncrease)
	newDebt := applyChange(t.Debt, netDebtChange, req.DebtIncrease)
	oldICR := decmath.ComputeCR(t.Coll, t.Debt, price)
	newICR := decmath.ComputeCR(newColl, newDebt, price)

	if recovery {
		if !req.CollWithdrawal.IsZero() {
			return nil, ErrCollWithdrawalRM
		}
		if req.DebtIncrease {
			if newICR.Lt(e.params.CCR) {
				return nil, ErrICRBelowCCR
			}
			if newICR.Lt(oldICR) {
				return nil, ErrICRDecrease
			}
		}
	} else {
		if newICR.Lt(e.params.MCR) {
			return nil, ErrICRBelowMCR
		}
		if err := e.requireNewTCRAboveCCR(collChange, collIncrease, netDebtChange, req.DebtIncrease, price); err != nil {
			return nil, err
		}
	}
	if !req.DebtIncrease && !netDebtChange.IsZero() {
		netDebt := decmath.Sub(t.Debt, e.params.GasCompensation)
		if decmath.Sub(netDebt, netDebtChange).Lt(e.params.MinNetDebt) {
			return nil, ErrBelowMinNetDebt
		}
		bal, err := e.balance(bank.TokenStable, owner)
		if err != nil {
			return nil, err
		}
		if bal.Lt(netDebtChange) {
			return nil, ErrInsufficientStable
		}
	}

	t.Coll = newColl
	t.Debt = newDebt
	if _, err := e.updateStakeAndTotalStakes(t); err != nil {
		return nil, err
	}
	if err := e.state.PutTrove(owner, t); err != nil {
		return nil, err
	}
	if err := e.list.ReInsert(owner, decmath.ComputeNominalCR(newColl, newDebt), req.PrevHint, req.NextHint); err != nil {
		return nil, err
	}

	if req.DebtIncrease {
		if err := e.tokens.Mint(bank.TokenStable, owner, req.DebtChange); err != nil {
			return nil, err
		}
		if err := e.addActiveDebt(netDebtChange); err != nil {
			return nil, err
		}
	} else if !netDebtChange.IsZero() {
		if err := e.tokens.Burn(bank.TokenStable, owner, netDebtChange); err != nil {
			return nil, err
		}
		if err := e.subActiveDebt(netDebtChange); err != nil {
			return nil, err
		}
	}
	switch {
	case collIncrease && !collPrefunded:
		if err := e.tokens.Transfer(bank.TokenCollateral, owner, bank.ActivePool, collChange); err != nil {
			return nil, err
		}
	case !collIncrease && !collChange.IsZero():
		if err := e.tokens.Transfer(bank.TokenCollateral, bank.ActivePool, owner, collChange); err != nil {
			return nil, err
		}
	}
	return e.result(owner, t, fee, price), nil
}

// CloseTrove repays owner's entire debt and returns the collateral.
func (e *Engine) CloseTrove(owner common.Address, price *uint256.Int) (*TroveResult, error) {
	if err := nativecommon.Guard(e.pauses, moduleName, "close"); err != nil {
		return nil, err
	}
	if err := e.ready(); err != nil {
		return nil, err
	}
	if err := requirePrice(price); err != nil {
		return nil, err
	}
	t, err := e.loadTrove(owner)
	if err != nil {
		return nil, err
	}
	if t.Status != StatusActive {
		return nil, ErrTroveNotActive
	}
	recovery, err := e.RecoveryMode(price)
	if err != nil {
		return nil, err
	}
	if recovery {
		return nil, ErrCloseInRecovery
	}
	if err := e.applyPendingRewards(owner); err != nil {
		return nil, err
	}
	if t, err = e.loadTrove(owner); err != nil {
		return nil, err
	}
	coll, debt := t.Coll, t.Debt
	repay := decmath.Sub(debt, e.params.GasCompensation)
	bal, err := e.balance(bank.TokenStable, owner)
	if err != nil {
		return nil, err
	}
	if bal.Lt(repay) {
		return nil, ErrInsufficientStable
	}
	if err := e.requireNewTCRAboveCCR(coll, false, debt, false, price); err != nil {
		return nil, err
	}
	if err := e.removeStake(owner); err != nil {
		return nil, err
	}
	if err := e.closeTrove(owner, StatusClosedByOwner); err != nil {
		return nil, err
	}
	if err := e.tokens.Burn(bank.TokenStable, owner, repay); err != nil {
		return nil, err
	}
	if err := e.tokens.Burn(bank.TokenStable, bank.GasPool, e.params.GasCompensation); err != nil {
		return nil, err
	}
	if err := e.subActiveDebt(debt); err != nil {
		return nil, err
	}
	if err := e.tokens.Transfer(bank.TokenCollateral, bank.ActivePool, owner, coll); err != nil {
		return nil, err
	}
	return &TroveResult{
		Owner:  owner,
		Status: StatusClosedByOwner,
		Coll:   coll,
		Debt:   debt,
		Stake:  new(uint256.Int),
		NICR:   new(uint256.Int),
		ICR:    new(uint256.Int),
		Fee:    new(uint256.Int),
	}, nil
}

// ClaimCollateral pays out the surplus left to owner by a capped liquidation
// or a redemption that closed the position.
func (e *Engine) ClaimCollateral(owner common.Address) (*uint256.Int, error) {
	if err := nativecommon.Guard(e.pauses, moduleName, "claim"); err != nil {
		return nil, err
	}
	if err := e.ready(); err != nil {
		return nil, err
	}
	surplus, err := e.state.CollSurplus(owner)
	if err != nil {
		return nil, err
	}
	if surplus == nil || surplus.IsZero() {
		return nil, ErrNoSurplus
	}
	amount := decmath.Clone(surplus)
	if err := e.state.PutCollSurplus(owner, new(uint256.Int)); err != nil {
		return nil, err
	}
	if err := e.tokens.Transfer(bank.TokenCollateral, bank.CollSurplusPool, owner, amount); err != nil {
		return nil, err
	}
	return amount, nil
}

// AddColl tops up owner's collateral.
func (e *Engine) AddColl(owner common.Address, amount, price *uint256.Int, prevHint, nextHint common.Address) (*TroveResult, error) {
	return e.AdjustTrove(owner, AdjustRequest{CollDeposit: amount, PrevHint: prevHint, NextHint: nextHint}, price)
}

// WithdrawColl releases collateral to owner.
func (e *Engine) WithdrawColl(owner common.Address, amount, price *uint256.Int, prevHint, nextHint common.Address) (*TroveResult, error) {
	return e.AdjustTrove(owner, AdjustRequest{CollWithdrawal: amount, PrevHint: prevHint, NextHint: nextHint}, price)
}

// WithdrawDebt mints additional stablecoin against owner's position.
func (e *Engine) WithdrawDebt(owner common.Address, amount, maxFee, price *uint256.Int, prevHint, nextHint common.Address) (*TroveResult, error) {
	return e.AdjustTrove(owner, AdjustRequest{
		DebtChange:   amount,
		DebtIncrease: true,
		MaxFee:       maxFee,
		PrevHint:     prevHint,
		NextHint:     nextHint,
	}, price)
}

// RepayDebt burns stablecoin from owner against the position's debt.
func (e *Engine) RepayDebt(owner common.Address, amount, price *uint256.Int, prevHint, nextHint common.Address) (*TroveResult, error) {
	return e.AdjustTrove(owner, AdjustRequest{DebtChange: amount, PrevHint: prevHint, NextHint: nextHint}, price)
}

// WithdrawGainToTrove moves owner's stability pool collateral gain into
// owner's position.
func (e *Engine) WithdrawGainToTrove(owner common.Address, price *uint256.Int, prevHint, nextHint common.Address) (*stability.Receipt, *TroveResult, error) {
	if err := nativecommon.Guard(e.pauses, moduleName, "adjust"); err != nil {
		return nil, nil, err
	}
	if err := e.ready(); err != nil {
		return nil, nil, err
	}
	t, err := e.loadTrove(owner)
	if err != nil {
		return nil, nil, err
	}
	if t.Status != StatusActive {
		return nil, nil, ErrTroveNotActive
	}
	gain, err := e.pool.CollateralGain(owner)
	if err != nil {
		return nil, nil, err
	}
	if gain == nil || gain.IsZero() {
		return nil, nil, ErrNoCollateralGain
	}
	req := AdjustRequest{
		CollDeposit: decmath.Clone(gain),
		PrevHint:    prevHint,
		NextHint:    nextHint,
	}.normalize()
	// The checks in adjust must see the system before the gain arrives.
	res, err := e.adjust(owner, req, price, true)
	if err != nil {
		return nil, nil, err
	}
	receipt, err := e.pool.MoveGainTo(owner, bank.ActivePool)
	if err != nil {
		return nil, nil, err
	}
	if !receipt.CollateralGain.Eq(gain) {
		return nil, nil, nativecommon.ErrArithmetic
	}
	return receipt, res, nil
}

// WithdrawFromPool withdraws from the stability pool. Principal cannot leave
// while the riskiest position is liquidatable.
func (e *Engine) WithdrawFromPool(owner common.Address, amount, price *uint256.Int) (*stability.Receipt, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	amount = decmath.Clone(amount)
	if !amount.IsZero() {
		if err := requirePrice(price); err != nil {
			return nil, err
		}
		tail, err := e.list.Last()
		if err != nil {
			return nil, err
		}
		if tail != (common.Address{}) {
			icr, err := e.CurrentICR(tail, price)
			if err != nil {
				return nil, err
			}
			if icr.Lt(e.params.MCR) {
				return nil, ErrUndercollateralized
			}
		}
	}
	return e.pool.Withdraw(owner, amount)
}

func applyChange(base, change *uint256.Int, increase bool) *uint256.Int {
	if increase {
		return decmath.Add(base, change)
	}
	return decmath.Sub(base, change)
}

// requireNewTCRAboveCCR checks the system ratio after the given changes.
func (e *Engine) requireNewTCRAboveCCR(collChange *uint256.Int, collIncrease bool, debtChange *uint256.Int, debtIncrease bool, price *uint256.Int) error {
	coll, err := e.EntireSystemColl()
	if err != nil {
		return err
	}
	debt, err := e.EntireSystemDebt()
	if err != nil {
		return err
	}
	coll = applyChange(coll, collChange, collIncrease)
	debt = applyChange(debt, debtChange, debtIncrease)
	if e.potentialRecoveryMode(coll, debt, price) {
		return ErrTCRBelowCCR
	}
	return nil
}

func (e *Engine) addActiveDebt(amount *uint256.Int) error {
	g, err := e.globals()
	if err != nil {
		return err
	}
	g.ActiveDebt = decmath.Add(g.ActiveDebt, amount)
	return e.state.PutTroveGlobals(g)
}

func (e *Engine) subActiveDebt(amount *uint256.Int) error {
	g, err := e.globals()
	if err != nil {
		return err
	}
	g.ActiveDebt = decmath.Sub(g.ActiveDebt, amount)
	return e.state.PutTroveGlobals(g)
}

func (e *Engine) result(owner common.Address, t *Trove, fee, price *uint256.Int) *TroveResult {
	return &TroveResult{
		Owner:      owner,
		Status:     t.Status,
		Coll:       decmath.Clone(t.Coll),
		Debt:       decmath.Clone(t.Debt),
		Stake:      decmath.Clone(t.Stake),
		NICR:       decmath.ComputeNominalCR(t.Coll, t.Debt),
		ICR:        decmath.ComputeCR(t.Coll, t.Debt, price),
		Fee:        decmath.Clone(fee),
		ArrayIndex: t.ArrayIndex,
	}
}
