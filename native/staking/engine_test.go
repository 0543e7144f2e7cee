package staking

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"trovechain/native/bank"
	nativecommon "trovechain/native/common"
	"trovechain/native/decmath"
)

type mockState struct {
	pool     *PoolState
	stakes   map[common.Address]*Stake
	balances map[bank.Token]map[common.Address]*uint256.Int
	supply   map[bank.Token]*uint256.Int
}

func newMockState() *mockState {
	return &mockState{
		stakes:   make(map[common.Address]*Stake),
		balances: make(map[bank.Token]map[common.Address]*uint256.Int),
		supply:   make(map[bank.Token]*uint256.Int),
	}
}

func (m *mockState) StakingPool() (*PoolState, error) { return m.pool.Clone(), nil }
func (m *mockState) PutStakingPool(pool *PoolState) error {
	m.pool = pool.Clone()
	return nil
}
func (m *mockState) StakingPosition(owner common.Address) (*Stake, error) {
	return m.stakes[owner].Clone(), nil
}
func (m *mockState) PutStakingPosition(owner common.Address, stake *Stake) error {
	m.stakes[owner] = stake.Clone()
	return nil
}
func (m *mockState) DeleteStakingPosition(owner common.Address) error {
	delete(m.stakes, owner)
	return nil
}
func (m *mockState) TokenBalance(token bank.Token, owner common.Address) (*uint256.Int, error) {
	return m.balances[token][owner], nil
}
func (m *mockState) PutTokenBalance(token bank.Token, owner common.Address, amount *uint256.Int) error {
	if m.balances[token] == nil {
		m.balances[token] = make(map[common.Address]*uint256.Int)
	}
	m.balances[token][owner] = amount
	return nil
}
func (m *mockState) TokenSupply(token bank.Token) (*uint256.Int, error) { return m.supply[token], nil }
func (m *mockState) PutTokenSupply(token bank.Token, amount *uint256.Int) error {
	m.supply[token] = amount
	return nil
}

type pauseMap map[string]bool

func (p pauseMap) IsPaused(flow string) bool { return p[flow] }

var (
	stakerA = common.HexToAddress("0xa1")
	stakerB = common.HexToAddress("0xb1")
)

func newTestEngine(t *testing.T) (*Engine, *mockState, *bank.Ledger) {
	t.Helper()
	state := newMockState()
	ledger := bank.NewLedger(state)
	engine := NewEngine()
	engine.SetState(state)
	engine.SetTokens(ledger)
	require.NoError(t, ledger.Mint(bank.TokenReward, stakerA, decmath.Units(1_000)))
	require.NoError(t, ledger.Mint(bank.TokenReward, stakerB, decmath.Units(1_000)))
	return engine, state, ledger
}

// payFees credits the staking account and notifies the engine the way the
// borrowing and redemption paths do.
func payFees(t *testing.T, engine *Engine, ledger *bank.Ledger, stable, coll *uint256.Int) {
	t.Helper()
	if !stable.IsZero() {
		require.NoError(t, ledger.Mint(bank.TokenStable, bank.StakingPool, stable))
	}
	if !coll.IsZero() {
		require.NoError(t, ledger.Mint(bank.TokenCollateral, bank.StakingPool, coll))
	}
	require.NoError(t, engine.IncreaseStableFee(stable))
	require.NoError(t, engine.IncreaseCollFee(coll))
}

func balance(t *testing.T, ledger *bank.Ledger, token bank.Token, owner common.Address) *uint256.Int {
	t.Helper()
	bal, err := ledger.BalanceOf(token, owner)
	require.NoError(t, err)
	return bal
}

func TestStakeRequiresAmount(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	_, err := engine.Stake(stakerA, nil)
	require.ErrorIs(t, err, ErrZeroAmount)
	_, err = engine.Stake(stakerA, new(uint256.Int))
	require.ErrorIs(t, err, ErrZeroAmount)

	_, err = engine.Unstake(stakerA, decmath.Units(1))
	require.ErrorIs(t, err, ErrNoStake)
	_, err = engine.Claim(stakerA)
	require.ErrorIs(t, err, ErrNoStake)
	require.Equal(t, nativecommon.KindPreconditionFailed, nativecommon.KindOf(err))

	_, err = NewEngine().Stake(stakerA, decmath.Units(1))
	require.Error(t, err)
}

func TestFeesWithoutStakersAreUndistributed(t *testing.T) {
	engine, _, ledger := newTestEngine(t)
	payFees(t, engine, ledger, decmath.Units(10), decmath.Units(2))

	pool, err := engine.Pool()
	require.NoError(t, err)
	require.Equal(t, decmath.Units(10), pool.UndistributedStable)
	require.Equal(t, decmath.Units(2), pool.UndistributedColl)
	require.True(t, pool.FStable.IsZero())

	_, err = engine.Stake(stakerA, decmath.Units(100))
	require.NoError(t, err)
	view, err := engine.StakeView(stakerA)
	require.NoError(t, err)
	require.True(t, view.StableGain.IsZero())
	require.True(t, view.CollGain.IsZero())
}

func TestSoleStakerEarnsEveryFee(t *testing.T) {
	engine, _, ledger := newTestEngine(t)
	receipt, err := engine.Stake(stakerA, decmath.Units(100))
	require.NoError(t, err)
	require.Equal(t, decmath.Units(100), receipt.NewStake)
	require.Equal(t, decmath.Units(900), balance(t, ledger, bank.TokenReward, stakerA))
	require.Equal(t, decmath.Units(100), balance(t, ledger, bank.TokenReward, bank.StakingPool))

	payFees(t, engine, ledger, decmath.Units(10), decmath.Units(1))
	view, err := engine.StakeView(stakerA)
	require.NoError(t, err)
	require.Equal(t, decmath.Units(10), view.StableGain)
	require.Equal(t, decmath.Units(1), view.CollGain)

	receipt, err = engine.Claim(stakerA)
	require.NoError(t, err)
	require.Equal(t, decmath.Units(10), receipt.StableGain)
	require.True(t, receipt.Moved.IsZero())
	require.Equal(t, decmath.Units(100), receipt.NewStake)
	require.Equal(t, decmath.Units(10), balance(t, ledger, bank.TokenStable, stakerA))
	require.Equal(t, decmath.Units(1), balance(t, ledger, bank.TokenCollateral, stakerA))
	require.True(t, balance(t, ledger, bank.TokenStable, bank.StakingPool).IsZero())

	view, err = engine.StakeView(stakerA)
	require.NoError(t, err)
	require.True(t, view.StableGain.IsZero())
}

func TestGainsFollowStakeShares(t *testing.T) {
	engine, _, ledger := newTestEngine(t)
	_, err := engine.Stake(stakerA, decmath.Units(100))
	require.NoError(t, err)
	_, err = engine.Stake(stakerB, decmath.Units(300))
	require.NoError(t, err)

	payFees(t, engine, ledger, decmath.Units(40), new(uint256.Int))

	// A top-up pays the pending gain and restarts from the new snapshot.
	receipt, err := engine.Stake(stakerA, decmath.Units(100))
	require.NoError(t, err)
	require.Equal(t, decmath.Units(10), receipt.StableGain)
	require.Equal(t, decmath.Units(200), receipt.NewStake)
	require.Equal(t, decmath.Units(10), balance(t, ledger, bank.TokenStable, stakerA))

	payFees(t, engine, ledger, decmath.Units(50), new(uint256.Int))
	viewA, err := engine.StakeView(stakerA)
	require.NoError(t, err)
	require.Equal(t, decmath.Units(20), viewA.StableGain)
	viewB, err := engine.StakeView(stakerB)
	require.NoError(t, err)
	require.Equal(t, decmath.Units(60), viewB.StableGain)

	pool, err := engine.Pool()
	require.NoError(t, err)
	require.Equal(t, decmath.Units(500), pool.TotalStaked)
}

func TestUnstakeClampsToStake(t *testing.T) {
	engine, state, ledger := newTestEngine(t)
	_, err := engine.Stake(stakerA, decmath.Units(100))
	require.NoError(t, err)
	payFees(t, engine, ledger, decmath.Units(5), new(uint256.Int))

	receipt, err := engine.Unstake(stakerA, decmath.Units(40))
	require.NoError(t, err)
	require.Equal(t, decmath.Units(40), receipt.Moved)
	require.Equal(t, decmath.Units(60), receipt.NewStake)
	require.Equal(t, decmath.Units(5), receipt.StableGain)

	receipt, err = engine.Unstake(stakerA, decmath.Units(1_000))
	require.NoError(t, err)
	require.Equal(t, decmath.Units(60), receipt.Moved)
	require.True(t, receipt.NewStake.IsZero())
	require.True(t, receipt.StableGain.IsZero())
	require.Equal(t, decmath.Units(1_000), balance(t, ledger, bank.TokenReward, stakerA))
	require.NotContains(t, state.stakes, stakerA)

	pool, err := engine.Pool()
	require.NoError(t, err)
	require.True(t, pool.TotalStaked.IsZero())
}

func TestFeeRemainderCarriesForward(t *testing.T) {
	engine, _, ledger := newTestEngine(t)
	_, err := engine.Stake(stakerA, decmath.Units(3))
	require.NoError(t, err)

	// One wei over three units rounds the per unit gain to zero.
	payFees(t, engine, ledger, uint256.NewInt(1), new(uint256.Int))
	pool, err := engine.Pool()
	require.NoError(t, err)
	require.True(t, pool.FStable.IsZero())
	require.Equal(t, decmath.One(), pool.LastStableError)

	payFees(t, engine, ledger, uint256.NewInt(2), new(uint256.Int))
	pool, err = engine.Pool()
	require.NoError(t, err)
	require.Equal(t, uint256.NewInt(1), pool.FStable)
	require.True(t, pool.LastStableError.IsZero())

	view, err := engine.StakeView(stakerA)
	require.NoError(t, err)
	require.Equal(t, uint256.NewInt(3), view.StableGain)
}

func TestStakingHonoursPauses(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	_, err := engine.Stake(stakerA, decmath.Units(10))
	require.NoError(t, err)

	engine.SetPauses(pauseMap{"staking.unstake": true})
	_, err = engine.Unstake(stakerA, decmath.Units(1))
	require.ErrorIs(t, err, nativecommon.ErrModulePaused)
	_, err = engine.Stake(stakerA, decmath.Units(1))
	require.NoError(t, err)

	engine.SetPauses(pauseMap{"staking": true})
	_, err = engine.Stake(stakerA, decmath.Units(1))
	require.ErrorIs(t, err, nativecommon.ErrModulePaused)
}
