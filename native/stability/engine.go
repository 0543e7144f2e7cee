package stability

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"trovechain/native/bank"
	nativecommon "trovechain/native/common"
	"trovechain/native/decmath"
)

var (
	errNilState         = errors.New("stability pool: state not configured")
	errNilTokens        = errors.New("stability pool: token ledger not configured")
	ErrZeroAmount       = nativecommon.NewError(nativecommon.KindPreconditionFailed, "stability pool: amount must be positive")
	ErrNoDeposit        = nativecommon.NewError(nativecommon.KindPreconditionFailed, "stability pool: depositor has no deposit")
	ErrWithdrawTooLarge = nativecommon.NewError(nativecommon.KindInvalidOperation, "stability pool: withdrawal exceeds compounded deposit")
	ErrOffsetTooLarge   = nativecommon.NewError(nativecommon.KindInvalidOperation, "stability pool: debt to offset exceeds total deposits")
	ErrProductUnderflow = nativecommon.NewError(nativecommon.KindArithmetic, "stability pool: product P reached zero")
)

const moduleName = "stability"

type poolState interface {
	StabilityPool() (*PoolState, error)
	PutStabilityPool(pool *PoolState) error
	StabilitySum(epoch, scale uint64) (*uint256.Int, error)
	PutStabilitySum(epoch, scale uint64, value *uint256.Int) error
	StabilityRewardSum(epoch, scale uint64) (*uint256.Int, error)
	PutStabilityRewardSum(epoch, scale uint64, value *uint256.Int) error
	StabilityDeposit(owner common.Address) (*Deposit, error)
	PutStabilityDeposit(owner common.Address, deposit *Deposit) error
	DeleteStabilityDeposit(owner common.Address) error
}

type tokenLedger interface {
	Transfer(token bank.Token, from, to common.Address, amount *uint256.Int) error
	Burn(token bank.Token, from common.Address, amount *uint256.Int) error
}

// IssuanceSource hands out reward tokens accrued since the previous call.
// The tokens are held by bank.CommunityIssuance until claimed.
type IssuanceSource interface {
	Issue() (*uint256.Int, error)
}

// Engine implements the product-sum accounting of the stability pool. Every
// depositor is tracked in constant space and no operation iterates over
// depositors.
type Engine struct {
	state    poolState
	tokens   tokenLedger
	issuance IssuanceSource
	pauses   nativecommon.PauseView
}

// NewEngine constructs an unbound engine.
func NewEngine() *Engine { return &Engine{} }

// SetState wires the engine to the external persistence layer.
func (e *Engine) SetState(state poolState) { e.state = state }

// SetTokens configures the ledger used for stablecoin, collateral and reward
// transfers.
func (e *Engine) SetTokens(tokens tokenLedger) { e.tokens = tokens }

// SetIssuance configures the reward token source pulled on each depositor
// facing operation and on every offset.
func (e *Engine) SetIssuance(src IssuanceSource) { e.issuance = src }

func (e *Engine) SetPauses(p nativecommon.PauseView) {
	if e == nil {
		return
	}
	e.pauses = p
}

// Pool returns a copy of the global accounting state.
func (e *Engine) Pool() (*PoolState, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	pool, err := e.state.StabilityPool()
	if err != nil {
		return nil, err
	}
	if pool == nil {
		return NewPoolState(), nil
	}
	return pool.Clone(), nil
}

// TotalDeposits returns the stablecoin currently held for depositors.
func (e *Engine) TotalDeposits() (*uint256.Int, error) {
	pool, err := e.Pool()
	if err != nil {
		return nil, err
	}
	return pool.TotalDeposits, nil
}

// Provide deposits amount of stablecoin for owner after paying out any
// pending gains.
func (e *Engine) Provide(owner common.Address, amount *uint256.Int) (*Receipt, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if err := nativecommon.Guard(e.pauses, moduleName, "provide"); err != nil {
		return nil, err
	}
	if amount == nil || amount.IsZero() {
		return nil, ErrZeroAmount
	}
	if err := e.triggerIssuance(); err != nil {
		return nil, err
	}
	view, err := e.view(owner)
	if err != nil {
		return nil, err
	}
	if err := e.payRewardGain(owner, view.RewardGain); err != nil {
		return nil, err
	}
	if err := e.tokens.Transfer(bank.TokenStable, owner, bank.StabilityPool, amount); err != nil {
		return nil, err
	}
	pool, err := e.Pool()
	if err != nil {
		return nil, err
	}
	pool.TotalDeposits = decmath.Add(pool.TotalDeposits, amount)
	if err := e.state.PutStabilityPool(pool); err != nil {
		return nil, err
	}
	newDeposit := decmath.Add(view.Compounded, amount)
	if err := e.updateDeposit(owner, newDeposit); err != nil {
		return nil, err
	}
	if err := e.tokens.Transfer(bank.TokenCollateral, bank.StabilityPool, owner, view.CollateralGain); err != nil {
		return nil, err
	}
	return &Receipt{
		CollateralGain: view.CollateralGain,
		RewardGain:     view.RewardGain,
		DepositLoss:    decmath.Sub(view.Initial, view.Compounded),
		Moved:          decmath.Clone(amount),
		NewDeposit:     newDeposit,
	}, nil
}

// Withdraw returns amount of the compounded deposit to owner and pays out
// pending gains. A zero amount only claims gains. The caller is responsible
// for rejecting withdrawals while undercollateralised positions exist.
func (e *Engine) Withdraw(owner common.Address, amount *uint256.Int) (*Receipt, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if err := nativecommon.Guard(e.pauses, moduleName, "withdraw"); err != nil {
		return nil, err
	}
	if amount == nil {
		amount = new(uint256.Int)
	}
	deposit, err := e.state.StabilityDeposit(owner)
	if err != nil {
		return nil, err
	}
	if deposit == nil || deposit.Initial == nil || deposit.Initial.IsZero() {
		return nil, fmt.Errorf("%w: %s", ErrNoDeposit, owner.Hex())
	}
	if err := e.triggerIssuance(); err != nil {
		return nil, err
	}
	view, err := e.view(owner)
	if err != nil {
		return nil, err
	}
	if amount.Gt(view.Compounded) {
		return nil, fmt.Errorf("%w: %s requested %s, compounded %s", ErrWithdrawTooLarge, owner.Hex(),
			decmath.Format(amount), decmath.Format(view.Compounded))
	}
	if err := e.payRewardGain(owner, view.RewardGain); err != nil {
		return nil, err
	}
	if err := e.tokens.Transfer(bank.TokenStable, bank.StabilityPool, owner, amount); err != nil {
		return nil, err
	}
	pool, err := e.Pool()
	if err != nil {
		return nil, err
	}
	pool.TotalDeposits = decmath.Sub(pool.TotalDeposits, amount)
	if err := e.state.PutStabilityPool(pool); err != nil {
		return nil, err
	}
	newDeposit := decmath.Sub(view.Compounded, amount)
	if err := e.updateDeposit(owner, newDeposit); err != nil {
		return nil, err
	}
	if err := e.tokens.Transfer(bank.TokenCollateral, bank.StabilityPool, owner, view.CollateralGain); err != nil {
		return nil, err
	}
	return &Receipt{
		CollateralGain: view.CollateralGain,
		RewardGain:     view.RewardGain,
		DepositLoss:    decmath.Sub(view.Initial, view.Compounded),
		Moved:          decmath.Clone(amount),
		NewDeposit:     newDeposit,
	}, nil
}

// MoveGainTo pays out the reward gain to owner, resets the deposit to its
// compounded value and transfers the collateral gain to dest instead of the
// depositor. It backs moving collateral gains into a position.
func (e *Engine) MoveGainTo(owner, dest common.Address) (*Receipt, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if err := nativecommon.Guard(e.pauses, moduleName, "withdraw"); err != nil {
		return nil, err
	}
	deposit, err := e.state.StabilityDeposit(owner)
	if err != nil {
		return nil, err
	}
	if deposit == nil || deposit.Initial == nil || deposit.Initial.IsZero() {
		return nil, fmt.Errorf("%w: %s", ErrNoDeposit, owner.Hex())
	}
	if err := e.triggerIssuance(); err != nil {
		return nil, err
	}
	view, err := e.view(owner)
	if err != nil {
		return nil, err
	}
	if err := e.payRewardGain(owner, view.RewardGain); err != nil {
		return nil, err
	}
	if err := e.updateDeposit(owner, view.Compounded); err != nil {
		return nil, err
	}
	if err := e.tokens.Transfer(bank.TokenCollateral, bank.StabilityPool, dest, view.CollateralGain); err != nil {
		return nil, err
	}
	return &Receipt{
		CollateralGain: view.CollateralGain,
		RewardGain:     view.RewardGain,
		DepositLoss:    decmath.Sub(view.Initial, view.Compounded),
		Moved:          new(uint256.Int),
		NewDeposit:     view.Compounded,
	}, nil
}

// DepositView returns the derived balances of owner. Depositors without a
// deposit report zeros.
func (e *Engine) DepositView(owner common.Address) (*View, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	return e.view(owner)
}

// CompoundedDeposit returns the current stablecoin value of owner's deposit.
func (e *Engine) CompoundedDeposit(owner common.Address) (*uint256.Int, error) {
	view, err := e.DepositView(owner)
	if err != nil {
		return nil, err
	}
	return view.Compounded, nil
}

// CollateralGain returns the collateral owner may claim.
func (e *Engine) CollateralGain(owner common.Address) (*uint256.Int, error) {
	view, err := e.DepositView(owner)
	if err != nil {
		return nil, err
	}
	return view.CollateralGain, nil
}

// RewardGain returns the reward tokens owner may claim.
func (e *Engine) RewardGain(owner common.Address) (*uint256.Int, error) {
	view, err := e.DepositView(owner)
	if err != nil {
		return nil, err
	}
	return view.RewardGain, nil
}

func (e *Engine) ready() error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if e.tokens == nil {
		return errNilTokens
	}
	return nil
}

func (e *Engine) view(owner common.Address) (*View, error) {
	deposit, err := e.state.StabilityDeposit(owner)
	if err != nil {
		return nil, err
	}
	zero := &View{
		Initial:        new(uint256.Int),
		Compounded:     new(uint256.Int),
		CollateralGain: new(uint256.Int),
		RewardGain:     new(uint256.Int),
	}
	if deposit == nil || deposit.Initial == nil || deposit.Initial.IsZero() {
		return zero, nil
	}
	pool, err := e.Pool()
	if err != nil {
		return nil, err
	}
	compounded := compoundedStake(deposit.Initial, deposit.Snapshot, pool)
	collGain, err := gainFromSnapshot(deposit.Initial, deposit.Snapshot.S, deposit.Snapshot, e.state.StabilitySum)
	if err != nil {
		return nil, err
	}
	rewardGain, err := gainFromSnapshot(deposit.Initial, deposit.Snapshot.G, deposit.Snapshot, e.state.StabilityRewardSum)
	if err != nil {
		return nil, err
	}
	return &View{
		Initial:        decmath.Clone(deposit.Initial),
		Compounded:     compounded,
		CollateralGain: collGain,
		RewardGain:     rewardGain,
		Snapshot:       deposit.Clone().Snapshot,
	}, nil
}

// compoundedStake applies the product of loss factors since the snapshot.
// A deposit from an earlier epoch was fully consumed. More than one scale
// change since the snapshot leaves less than one billionth of the deposit,
// which is treated as zero.
func compoundedStake(initial *uint256.Int, snap Snapshot, pool *PoolState) *uint256.Int {
	if snap.Epoch < pool.CurrentEpoch {
		return new(uint256.Int)
	}
	if snap.P == nil || snap.P.IsZero() {
		return new(uint256.Int)
	}
	var compounded *uint256.Int
	switch pool.CurrentScale - snap.Scale {
	case 0:
		compounded = decmath.MulDiv(initial, pool.P, snap.P)
	case 1:
		compounded = decmath.Div(decmath.MulDiv(initial, pool.P, snap.P), ScaleFactor)
	default:
		return new(uint256.Int)
	}
	// Residues below one billionth of the initial value are rounding noise.
	if compounded.Lt(decmath.Div(initial, ScaleFactor)) {
		return new(uint256.Int)
	}
	return compounded
}

type sumReader func(epoch, scale uint64) (*uint256.Int, error)

// gainFromSnapshot accumulates the sum growth within the snapshot's epoch:
// the remainder of the snapshot scale plus the next scale, which is already
// expressed in units 1e9 smaller.
func gainFromSnapshot(initial, snapSum *uint256.Int, snap Snapshot, read sumReader) (*uint256.Int, error) {
	if snap.P == nil || snap.P.IsZero() {
		return new(uint256.Int), nil
	}
	current, err := read(snap.Epoch, snap.Scale)
	if err != nil {
		return nil, err
	}
	next, err := read(snap.Epoch, snap.Scale+1)
	if err != nil {
		return nil, err
	}
	first := decmath.Sub(decmath.Clone(current), decmath.Clone(snapSum))
	second := decmath.Div(decmath.Clone(next), ScaleFactor)
	gain := decmath.MulDiv(initial, decmath.Add(first, second), snap.P)
	return decmath.Div(gain, decmath.One()), nil
}
