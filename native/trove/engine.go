package trove

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"trovechain/native/bank"
	nativecommon "trovechain/native/common"
	"trovechain/native/decmath"
	"trovechain/native/stability"
)

const moduleName = "trove"

type engineState interface {
	Trove(owner common.Address) (*Trove, error)
	PutTrove(owner common.Address, trove *Trove) error
	TroveGlobals() (*Globals, error)
	PutTroveGlobals(globals *Globals) error
	TroveOwnerCount() (uint64, error)
	TroveOwnerAt(index uint64) (common.Address, error)
	PutTroveOwnerAt(index uint64, owner common.Address) error
	DeleteTroveOwnerAt(index uint64) error
	PutTroveOwnerCount(count uint64) error
	CollSurplus(owner common.Address) (*uint256.Int, error)
	PutCollSurplus(owner common.Address, amount *uint256.Int) error
}

type sortedList interface {
	Insert(id common.Address, nicr *uint256.Int, prevHint, nextHint common.Address) error
	Remove(id common.Address) error
	ReInsert(id common.Address, nicr *uint256.Int, prevHint, nextHint common.Address) error
	Contains(id common.Address) (bool, error)
	Size() (uint64, error)
	First() (common.Address, error)
	Last() (common.Address, error)
	Next(id common.Address) (common.Address, error)
	Prev(id common.Address) (common.Address, error)
	FindInsertPosition(nicr *uint256.Int, prevHint, nextHint common.Address) (common.Address, common.Address, error)
}

type stabilityPool interface {
	TotalDeposits() (*uint256.Int, error)
	Offset(debtToOffset, collToAdd *uint256.Int) (*stability.OffsetResult, error)
	Withdraw(owner common.Address, amount *uint256.Int) (*stability.Receipt, error)
	MoveGainTo(owner, dest common.Address) (*stability.Receipt, error)
	CollateralGain(owner common.Address) (*uint256.Int, error)
}

// feeDistributor credits fees already paid into bank.StakingPool to stakers.
type feeDistributor interface {
	IncreaseStableFee(fee *uint256.Int) error
	IncreaseCollFee(fee *uint256.Int) error
}

type tokenLedger interface {
	BalanceOf(token bank.Token, owner common.Address) (*uint256.Int, error)
	Transfer(token bank.Token, from, to common.Address, amount *uint256.Int) error
	Mint(token bank.Token, to common.Address, amount *uint256.Int) error
	Burn(token bank.Token, from common.Address, amount *uint256.Int) error
}

// Engine is the trove manager: it owns positions, the redistribution ledger,
// the fee model and drives liquidations and redemptions against the sorted
// list and the stability pool.
type Engine struct {
	state  engineState
	list   sortedList
	pool   stabilityPool
	tokens tokenLedger
	fees   feeDistributor
	params Params
	limits Limits
	now    func() time.Time
	pauses nativecommon.PauseView
}

// NewEngine constructs a trove manager with the supplied parameters.
func NewEngine(params Params, limits Limits) *Engine {
	return &Engine{params: params.clone(), limits: limits}
}

// SetState wires the engine to the external persistence layer.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetSortedList configures the ordered position index.
func (e *Engine) SetSortedList(list sortedList) { e.list = list }

// SetStabilityPool configures the pool used to offset liquidated debt.
func (e *Engine) SetStabilityPool(pool stabilityPool) { e.pool = pool }

// SetTokens configures the token ledger.
func (e *Engine) SetTokens(tokens tokenLedger) { e.tokens = tokens }

// SetFeeDistributor configures who is credited with borrowing and
// redemption fees. Without one the fees stay in bank.StakingPool.
func (e *Engine) SetFeeDistributor(fees feeDistributor) { e.fees = fees }

// SetClock injects the time source used by the fee model.
func (e *Engine) SetClock(now func() time.Time) { e.now = now }

func (e *Engine) SetPauses(p nativecommon.PauseView) {
	if e == nil {
		return
	}
	e.pauses = p
}

// Params returns a copy of the configured parameters.
func (e *Engine) Params() Params { return e.params.clone() }

// Limits returns the configured work bounds.
func (e *Engine) Limits() Limits { return e.limits }

// Genesis records the deployment time used by the redemption bootstrap
// period and the fee decay clock. Calling it again is a no-op.
func (e *Engine) Genesis() error {
	if err := e.ready(); err != nil {
		return err
	}
	g, err := e.globals()
	if err != nil {
		return err
	}
	if g.GenesisTime != 0 {
		return nil
	}
	ts := e.timestamp()
	g.GenesisTime = ts
	g.LastFeeOperationTime = ts
	return e.state.PutTroveGlobals(g)
}

func (e *Engine) ready() error {
	switch {
	case e == nil || e.state == nil:
		return errNilState
	case e.list == nil:
		return errNilList
	case e.pool == nil:
		return errNilPool
	case e.tokens == nil:
		return errNilTokens
	case e.now == nil:
		return errNilClock
	}
	return nil
}

func (e *Engine) timestamp() uint64 {
	ts := e.now().Unix()
	if ts < 0 {
		return 0
	}
	return uint64(ts)
}

func (e *Engine) globals() (*Globals, error) {
	g, err := e.state.TroveGlobals()
	if err != nil {
		return nil, err
	}
	if g == nil {
		return NewGlobals(), nil
	}
	return g.Clone(), nil
}

func (e *Engine) loadTrove(owner common.Address) (*Trove, error) {
	t, err := e.state.Trove(owner)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return emptyTrove(), nil
	}
	return t.Clone(), nil
}

func (e *Engine) balance(token bank.Token, owner common.Address) (*uint256.Int, error) {
	bal, err := e.tokens.BalanceOf(token, owner)
	if err != nil {
		return nil, err
	}
	return decmath.Clone(bal), nil
}

func requirePrice(price *uint256.Int) error {
	if price == nil || price.IsZero() {
		return ErrZeroPrice
	}
	return nil
}

// EntireSystemColl is the collateral held by the active and default pools.
func (e *Engine) EntireSystemColl() (*uint256.Int, error) {
	active, err := e.balance(bank.TokenCollateral, bank.ActivePool)
	if err != nil {
		return nil, err
	}
	def, err := e.balance(bank.TokenCollateral, bank.DefaultPool)
	if err != nil {
		return nil, err
	}
	return decmath.Add(active, def), nil
}

// EntireSystemDebt is the debt recorded by the active and default pools.
func (e *Engine) EntireSystemDebt() (*uint256.Int, error) {
	g, err := e.globals()
	if err != nil {
		return nil, err
	}
	return decmath.Add(g.ActiveDebt, g.DefaultDebt), nil
}

// TCR returns the total collateral ratio of the system at price.
func (e *Engine) TCR(price *uint256.Int) (*uint256.Int, error) {
	coll, err := e.EntireSystemColl()
	if err != nil {
		return nil, err
	}
	debt, err := e.EntireSystemDebt()
	if err != nil {
		return nil, err
	}
	return decmath.ComputeCR(coll, debt, price), nil
}

// RecoveryMode reports whether the TCR sits below the critical ratio.
func (e *Engine) RecoveryMode(price *uint256.Int) (bool, error) {
	tcr, err := e.TCR(price)
	if err != nil {
		return false, err
	}
	return tcr.Lt(e.params.CCR), nil
}

func (e *Engine) potentialRecoveryMode(coll, debt, price *uint256.Int) bool {
	return decmath.ComputeCR(coll, debt, price).Lt(e.params.CCR)
}

// TroveCount returns the number of active positions.
func (e *Engine) TroveCount() (uint64, error) {
	if e == nil || e.state == nil {
		return 0, errNilState
	}
	return e.state.TroveOwnerCount()
}

// TroveOwnerAt returns the owner stored at index of the owner array.
func (e *Engine) TroveOwnerAt(index uint64) (common.Address, error) {
	if e == nil || e.state == nil {
		return common.Address{}, errNilState
	}
	return e.state.TroveOwnerAt(index)
}

// Trove returns the stored position without pending rewards applied.
func (e *Engine) Trove(owner common.Address) (*Trove, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	return e.loadTrove(owner)
}

// TroveView returns the position of owner including pending rewards.
func (e *Engine) TroveView(owner common.Address, price *uint256.Int) (*TroveView, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if err := requirePrice(price); err != nil {
		return nil, err
	}
	t, err := e.loadTrove(owner)
	if err != nil {
		return nil, err
	}
	g, err := e.globals()
	if err != nil {
		return nil, err
	}
	pendingColl, pendingDebt := pendingRewards(t, g)
	entireColl := decmath.Add(t.Coll, pendingColl)
	entireDebt := decmath.Add(t.Debt, pendingDebt)
	surplus, err := e.state.CollSurplus(owner)
	if err != nil {
		return nil, err
	}
	return &TroveView{
		Owner:       owner,
		Status:      t.Status,
		Coll:        t.Coll,
		Debt:        t.Debt,
		Stake:       t.Stake,
		PendingColl: pendingColl,
		PendingDebt: pendingDebt,
		EntireColl:  entireColl,
		EntireDebt:  entireDebt,
		ICR:         decmath.ComputeCR(entireColl, entireDebt, price),
		NICR:        decmath.ComputeNominalCR(entireColl, entireDebt),
		Surplus:     decmath.Clone(surplus),
	}, nil
}

// SystemView summarises the global accounting at price.
func (e *Engine) SystemView(price *uint256.Int) (*SystemView, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if err := requirePrice(price); err != nil {
		return nil, err
	}
	g, err := e.globals()
	if err != nil {
		return nil, err
	}
	activeColl, err := e.balance(bank.TokenCollateral, bank.ActivePool)
	if err != nil {
		return nil, err
	}
	defaultColl, err := e.balance(bank.TokenCollateral, bank.DefaultPool)
	if err != nil {
		return nil, err
	}
	count, err := e.state.TroveOwnerCount()
	if err != nil {
		return nil, err
	}
	entireColl := decmath.Add(activeColl, defaultColl)
	entireDebt := decmath.Add(g.ActiveDebt, g.DefaultDebt)
	tcr := decmath.ComputeCR(entireColl, entireDebt, price)
	decayed := e.decayedBaseRate(g)
	return &SystemView{
		Price:                   decmath.Clone(price),
		TCR:                     tcr,
		RecoveryMode:            tcr.Lt(e.params.CCR),
		EntireColl:              entireColl,
		EntireDebt:              entireDebt,
		ActiveColl:              activeColl,
		ActiveDebt:              g.ActiveDebt,
		DefaultColl:             defaultColl,
		DefaultDebt:             g.DefaultDebt,
		LColl:                   g.LColl,
		LDebt:                   g.LDebt,
		TotalStakes:             g.TotalStakes,
		TotalStakesSnapshot:     g.TotalStakesSnapshot,
		TotalCollateralSnapshot: g.TotalCollateralSnapshot,
		BaseRate:                g.BaseRate,
		BorrowingRate:           e.borrowingRate(decayed),
		RedemptionRate:          e.redemptionRate(decayed),
		TroveCount:              count,
	}, nil
}
