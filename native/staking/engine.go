package staking

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
	errNilState   = errors.New("staking: state not configured")
	errNilTokens  = errors.New("staking: token ledger not configured")
	ErrZeroAmount = nativecommon.NewError(nativecommon.KindPreconditionFailed, "staking: amount must be non-zero")
	ErrNoStake    = nativecommon.NewError(nativecommon.KindPreconditionFailed, "staking: user must have a non-zero stake")
)

const moduleName = "staking"

type stakingState interface {
	StakingPool() (*PoolState, error)
	PutStakingPool(pool *PoolState) error
	StakingPosition(owner common.Address) (*Stake, error)
	PutStakingPosition(owner common.Address, stake *Stake) error
	DeleteStakingPosition(owner common.Address) error
}

type tokenLedger interface {
	Transfer(token bank.Token, from, to common.Address, amount *uint256.Int) error
}

// Engine shares protocol fees among reward token stakers. Borrowing fees
// accrue in stablecoin and redemption fees in collateral; both are held by
// bank.StakingPool until a staker settles.
type Engine struct {
	state  stakingState
	tokens tokenLedger
	pauses nativecommon.PauseView
}

func NewEngine() *Engine { return &Engine{} }

func (e *Engine) SetState(state stakingState) { e.state = state }

func (e *Engine) SetTokens(tokens tokenLedger) { e.tokens = tokens }

func (e *Engine) SetPauses(p nativecommon.PauseView) {
	if e == nil {
		return
	}
	e.pauses = p
}

// Pool returns a copy of the staking accumulators.
func (e *Engine) Pool() (*PoolState, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	pool, err := e.state.StakingPool()
	if err != nil {
		return nil, err
	}
	if pool == nil {
		return NewPoolState(), nil
	}
	return pool.Clone(), nil
}

// Stake locks amount of reward token for owner. Pending fee gains are paid
// out first.
func (e *Engine) Stake(owner common.Address, amount *uint256.Int) (*Receipt, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if err := nativecommon.Guard(e.pauses, moduleName, "stake"); err != nil {
		return nil, err
	}
	if amount == nil || amount.IsZero() {
		return nil, ErrZeroAmount
	}
	view, err := e.view(owner)
	if err != nil {
		return nil, err
	}
	if err := e.tokens.Transfer(bank.TokenReward, owner, bank.StakingPool, amount); err != nil {
		return nil, err
	}
	newStake := decmath.Add(view.Staked, amount)
	if err := e.settle(owner, view, newStake, func(pool *PoolState) {
		pool.TotalStaked = decmath.Add(pool.TotalStaked, amount)
	}); err != nil {
		return nil, err
	}
	return &Receipt{
		CollGain:   view.CollGain,
		StableGain: view.StableGain,
		Moved:      decmath.Clone(amount),
		NewStake:   newStake,
	}, nil
}

// Unstake returns up to amount of owner's stake and pays out pending gains.
// Requests above the stake are clamped to it; a zero amount only claims.
func (e *Engine) Unstake(owner common.Address, amount *uint256.Int) (*Receipt, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if err := nativecommon.Guard(e.pauses, moduleName, "unstake"); err != nil {
		return nil, err
	}
	view, err := e.view(owner)
	if err != nil {
		return nil, err
	}
	if view.Staked.IsZero() {
		return nil, fmt.Errorf("%w: %s", ErrNoStake, owner.Hex())
	}
	moved := new(uint256.Int)
	if amount != nil {
		moved = decmath.Min(amount, view.Staked)
	}
	newStake := decmath.Sub(view.Staked, moved)
	if err := e.settle(owner, view, newStake, func(pool *PoolState) {
		pool.TotalStaked = decmath.Sub(pool.TotalStaked, moved)
	}); err != nil {
		return nil, err
	}
	if err := e.tokens.Transfer(bank.TokenReward, bank.StakingPool, owner, moved); err != nil {
		return nil, err
	}
	return &Receipt{
		CollGain:   view.CollGain,
		StableGain: view.StableGain,
		Moved:      moved,
		NewStake:   newStake,
	}, nil
}

// Claim pays out owner's pending gains without touching the stake.
func (e *Engine) Claim(owner common.Address) (*Receipt, error) {
	return e.Unstake(owner, nil)
}

// IncreaseStableFee distributes a borrowing fee already credited to
// bank.StakingPool.
func (e *Engine) IncreaseStableFee(fee *uint256.Int) error {
	return e.distribute(fee, func(p *PoolState) (**uint256.Int, **uint256.Int, **uint256.Int) {
		return &p.FStable, &p.LastStableError, &p.UndistributedStable
	})
}

// IncreaseCollFee distributes a redemption fee already credited to
// bank.StakingPool.
func (e *Engine) IncreaseCollFee(fee *uint256.Int) error {
	return e.distribute(fee, func(p *PoolState) (**uint256.Int, **uint256.Int, **uint256.Int) {
		return &p.FColl, &p.LastCollError, &p.UndistributedColl
	})
}

func (e *Engine) distribute(fee *uint256.Int, fields func(p *PoolState) (**uint256.Int, **uint256.Int, **uint256.Int)) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if fee == nil || fee.IsZero() {
		return nil
	}
	pool, err := e.Pool()
	if err != nil {
		return err
	}
	acc, lastErr, undistributed := fields(pool)
	if pool.TotalStaked.IsZero() {
		*undistributed = decmath.Add(*undistributed, fee)
		return e.state.PutStakingPool(pool)
	}
	numerator := decmath.Add(decmath.Mul(fee, decmath.One()), *lastErr)
	perUnit := decmath.Div(numerator, pool.TotalStaked)
	*lastErr = decmath.Sub(numerator, decmath.Mul(perUnit, pool.TotalStaked))
	*acc = decmath.Add(*acc, perUnit)
	return e.state.PutStakingPool(pool)
}

// StakeView returns owner's stake and pending gains.
func (e *Engine) StakeView(owner common.Address) (*View, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	return e.view(owner)
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
	out := &View{Staked: new(uint256.Int), CollGain: new(uint256.Int), StableGain: new(uint256.Int)}
	stake, err := e.state.StakingPosition(owner)
	if err != nil {
		return nil, err
	}
	if stake == nil || stake.Amount == nil || stake.Amount.IsZero() {
		return out, nil
	}
	pool, err := e.Pool()
	if err != nil {
		return nil, err
	}
	out.Staked = decmath.Clone(stake.Amount)
	out.CollGain = pendingGain(stake.Amount, pool.FColl, stake.Snapshot.FColl)
	out.StableGain = pendingGain(stake.Amount, pool.FStable, stake.Snapshot.FStable)
	return out, nil
}

func pendingGain(amount, current, snapshot *uint256.Int) *uint256.Int {
	if snapshot == nil {
		snapshot = new(uint256.Int)
	}
	return decmath.MulFrac(amount, decmath.Sub(current, snapshot))
}

// settle pays view's gains, applies the total change and records the new
// stake against the current accumulators.
func (e *Engine) settle(owner common.Address, view *View, newStake *uint256.Int, apply func(pool *PoolState)) error {
	if err := e.tokens.Transfer(bank.TokenStable, bank.StakingPool, owner, view.StableGain); err != nil {
		return err
	}
	if err := e.tokens.Transfer(bank.TokenCollateral, bank.StakingPool, owner, view.CollGain); err != nil {
		return err
	}
	pool, err := e.Pool()
	if err != nil {
		return err
	}
	apply(pool)
	if err := e.state.PutStakingPool(pool); err != nil {
		return err
	}
	if newStake.IsZero() {
		return e.state.DeleteStakingPosition(owner)
	}
	return e.state.PutStakingPosition(owner, &Stake{
		Amount: decmath.Clone(newStake),
		Snapshot: Snapshot{
			FColl:   decmath.Clone(pool.FColl),
			FStable: decmath.Clone(pool.FStable),
		},
	})
}
