package trove

import (
	"fmt"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"trovechain/native/bank"
	"trovechain/native/decmath"
	"trovechain/native/sortedtroves"
	"trovechain/native/stability"
)

// memState backs every module the trove manager talks to.
type memState struct {
	troves   map[common.Address]*Trove
	globals  *Globals
	owners   map[uint64]common.Address
	count    uint64
	surplus  map[common.Address]*uint256.Int
	meta     *sortedtroves.Meta
	nodes    map[common.Address]*sortedtroves.Node
	balances map[bank.Token]map[common.Address]*uint256.Int
	supply   map[bank.Token]*uint256.Int
	pool     *stability.PoolState
	sums     map[string]*uint256.Int
	rewards  map[string]*uint256.Int
	deposits map[common.Address]*stability.Deposit
}

func newMemState() *memState {
	return &memState{
		troves:   make(map[common.Address]*Trove),
		owners:   make(map[uint64]common.Address),
		surplus:  make(map[common.Address]*uint256.Int),
		nodes:    make(map[common.Address]*sortedtroves.Node),
		balances: make(map[bank.Token]map[common.Address]*uint256.Int),
		supply:   make(map[bank.Token]*uint256.Int),
		sums:     make(map[string]*uint256.Int),
		rewards:  make(map[string]*uint256.Int),
		deposits: make(map[common.Address]*stability.Deposit),
	}
}

func (m *memState) Trove(owner common.Address) (*Trove, error) { return m.troves[owner].Clone(), nil }
func (m *memState) PutTrove(owner common.Address, t *Trove) error {
	m.troves[owner] = t.Clone()
	return nil
}
func (m *memState) TroveGlobals() (*Globals, error) { return m.globals.Clone(), nil }
func (m *memState) PutTroveGlobals(g *Globals) error {
	m.globals = g.Clone()
	return nil
}
func (m *memState) TroveOwnerCount() (uint64, error) { return m.count, nil }
func (m *memState) TroveOwnerAt(index uint64) (common.Address, error) {
	return m.owners[index], nil
}
func (m *memState) PutTroveOwnerAt(index uint64, owner common.Address) error {
	m.owners[index] = owner
	return nil
}
func (m *memState) DeleteTroveOwnerAt(index uint64) error {
	delete(m.owners, index)
	return nil
}
func (m *memState) PutTroveOwnerCount(count uint64) error {
	m.count = count
	return nil
}
func (m *memState) CollSurplus(owner common.Address) (*uint256.Int, error) {
	return decmath.Clone(m.surplus[owner]), nil
}
func (m *memState) PutCollSurplus(owner common.Address, amount *uint256.Int) error {
	m.surplus[owner] = decmath.Clone(amount)
	return nil
}

func (m *memState) SortedTrovesMeta() (*sortedtroves.Meta, error) { return m.meta.Clone(), nil }
func (m *memState) PutSortedTrovesMeta(meta *sortedtroves.Meta) error {
	m.meta = meta.Clone()
	return nil
}
func (m *memState) SortedTrovesNode(id common.Address) (*sortedtroves.Node, error) {
	return m.nodes[id].Clone(), nil
}
func (m *memState) PutSortedTrovesNode(id common.Address, node *sortedtroves.Node) error {
	m.nodes[id] = node.Clone()
	return nil
}
func (m *memState) DeleteSortedTrovesNode(id common.Address) error {
	delete(m.nodes, id)
	return nil
}

func (m *memState) TokenBalance(token bank.Token, owner common.Address) (*uint256.Int, error) {
	return decmath.Clone(m.balances[token][owner]), nil
}
func (m *memState) PutTokenBalance(token bank.Token, owner common.Address, amount *uint256.Int) error {
	if m.balances[token] == nil {
		m.balances[token] = make(map[common.Address]*uint256.Int)
	}
	m.balances[token][owner] = decmath.Clone(amount)
	return nil
}
func (m *memState) TokenSupply(token bank.Token) (*uint256.Int, error) {
	return decmath.Clone(m.supply[token]), nil
}
func (m *memState) PutTokenSupply(token bank.Token, amount *uint256.Int) error {
	m.supply[token] = decmath.Clone(amount)
	return nil
}

func slot(epoch, scale uint64) string { return fmt.Sprintf("%d/%d", epoch, scale) }

func (m *memState) StabilityPool() (*stability.PoolState, error) { return m.pool.Clone(), nil }
func (m *memState) PutStabilityPool(pool *stability.PoolState) error {
	m.pool = pool.Clone()
	return nil
}
func (m *memState) StabilitySum(epoch, scale uint64) (*uint256.Int, error) {
	return decmath.Clone(m.sums[slot(epoch, scale)]), nil
}
func (m *memState) PutStabilitySum(epoch, scale uint64, value *uint256.Int) error {
	m.sums[slot(epoch, scale)] = decmath.Clone(value)
	return nil
}
func (m *memState) StabilityRewardSum(epoch, scale uint64) (*uint256.Int, error) {
	return decmath.Clone(m.rewards[slot(epoch, scale)]), nil
}
func (m *memState) PutStabilityRewardSum(epoch, scale uint64, value *uint256.Int) error {
	m.rewards[slot(epoch, scale)] = decmath.Clone(value)
	return nil
}
func (m *memState) StabilityDeposit(owner common.Address) (*stability.Deposit, error) {
	return m.deposits[owner].Clone(), nil
}
func (m *memState) PutStabilityDeposit(owner common.Address, deposit *stability.Deposit) error {
	m.deposits[owner] = deposit.Clone()
	return nil
}
func (m *memState) DeleteStabilityDeposit(owner common.Address) error {
	delete(m.deposits, owner)
	return nil
}

type harness struct {
	t      *testing.T
	state  *memState
	ledger *bank.Ledger
	list   *sortedtroves.List
	pool   *stability.Engine
	engine *Engine
	now    time.Time
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{t: t, state: newMemState(), now: time.Unix(1_700_000_000, 0)}
	h.ledger = bank.NewLedger(h.state)
	h.list = sortedtroves.NewList(0)
	h.list.SetState(h.state)
	require.NoError(t, h.list.Init(1_000))
	h.pool = stability.NewEngine()
	h.pool.SetState(h.state)
	h.pool.SetTokens(h.ledger)
	h.engine = NewEngine(DefaultParams(), DefaultLimits())
	h.engine.SetState(h.state)
	h.engine.SetSortedList(h.list)
	h.engine.SetStabilityPool(h.pool)
	h.engine.SetTokens(h.ledger)
	h.engine.SetClock(func() time.Time { return h.now })
	h.list.SetNICRSource(h.engine)
	require.NoError(t, h.engine.Genesis())
	return h
}

func addr(n byte) common.Address {
	var a common.Address
	a[19] = n
	a[0] = 0xaa
	return a
}

func units(v uint64) *uint256.Int { return decmath.Units(v) }

// open funds owner with collateral and opens a position at price.
func (h *harness) open(owner common.Address, coll, borrow uint64, price *uint256.Int) *TroveResult {
	h.t.Helper()
	require.NoError(h.t, h.ledger.Mint(bank.TokenCollateral, owner, units(coll)))
	res, err := h.engine.OpenTrove(owner, OpenRequest{
		Coll:   units(coll),
		Borrow: units(borrow),
		MaxFee: decmath.Frac(5, 100),
	}, price)
	require.NoError(h.t, err)
	return res
}

func (h *harness) balance(token bank.Token, owner common.Address) *uint256.Int {
	h.t.Helper()
	bal, err := h.ledger.BalanceOf(token, owner)
	require.NoError(h.t, err)
	return bal
}

func (h *harness) trove(owner common.Address) *Trove {
	h.t.Helper()
	tr, err := h.engine.Trove(owner)
	require.NoError(h.t, err)
	return tr
}

func (h *harness) globals() *Globals {
	h.t.Helper()
	g, err := h.engine.globals()
	require.NoError(h.t, err)
	return g
}

// requireBacked checks that pool balances match the positions they back and
// that every stablecoin in circulation is backed by recorded debt.
func (h *harness) requireBacked() {
	h.t.Helper()
	g := h.globals()
	supply, err := h.ledger.TotalSupply(bank.TokenStable)
	require.NoError(h.t, err)
	require.Equal(h.t, decmath.Add(g.ActiveDebt, g.DefaultDebt).String(), supply.String(), "stable supply")

	count, err := h.engine.TroveCount()
	require.NoError(h.t, err)
	sumColl, sumDebt := new(uint256.Int), new(uint256.Int)
	for i := uint64(0); i < count; i++ {
		owner, err := h.engine.TroveOwnerAt(i)
		require.NoError(h.t, err)
		tr := h.trove(owner)
		require.Equal(h.t, StatusActive, tr.Status)
		require.Equal(h.t, i, tr.ArrayIndex)
		sumColl = decmath.Add(sumColl, tr.Coll)
		sumDebt = decmath.Add(sumDebt, tr.Debt)
	}
	require.Equal(h.t, sumColl.String(), h.balance(bank.TokenCollateral, bank.ActivePool).String(), "active collateral")
	require.Equal(h.t, sumDebt.String(), g.ActiveDebt.String(), "active debt")
	require.NoError(h.t, h.list.Check())
	size, err := h.list.Size()
	require.NoError(h.t, err)
	require.Equal(h.t, count, size)
}
