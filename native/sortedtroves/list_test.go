package sortedtroves

import (
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	nativecommon "trovechain/native/common"
)

type mockState struct {
	meta  *Meta
	nodes map[common.Address]*Node
	nicr  map[common.Address]*uint256.Int
	reads int
}

func newMockState() *mockState {
	return &mockState{
		nodes: make(map[common.Address]*Node),
		nicr:  make(map[common.Address]*uint256.Int),
	}
}

func (m *mockState) SortedTrovesMeta() (*Meta, error) { return m.meta.Clone(), nil }

func (m *mockState) PutSortedTrovesMeta(meta *Meta) error {
	m.meta = meta.Clone()
	return nil
}

func (m *mockState) SortedTrovesNode(id common.Address) (*Node, error) {
	m.reads++
	return m.nodes[id].Clone(), nil
}

func (m *mockState) PutSortedTrovesNode(id common.Address, node *Node) error {
	m.nodes[id] = node.Clone()
	return nil
}

func (m *mockState) DeleteSortedTrovesNode(id common.Address) error {
	delete(m.nodes, id)
	return nil
}

func (m *mockState) NominalICR(id common.Address) (*uint256.Int, error) {
	if v, ok := m.nicr[id]; ok {
		return new(uint256.Int).Set(v), nil
	}
	return new(uint256.Int), nil
}

func addr(b byte) common.Address {
	var a common.Address
	a[19] = b
	return a
}

func newTestList(t *testing.T, maxSize uint64) (*List, *mockState) {
	t.Helper()
	state := newMockState()
	list := NewList(0)
	list.SetState(state)
	list.SetNICRSource(state)
	require.NoError(t, list.Init(maxSize))
	return list, state
}

func (m *mockState) insert(t *testing.T, list *List, id common.Address, nicr uint64) {
	t.Helper()
	m.nicr[id] = uint256.NewInt(nicr)
	require.NoError(t, list.Insert(id, m.nicr[id], common.Address{}, common.Address{}))
}

func collect(t *testing.T, list *List) []common.Address {
	t.Helper()
	var out []common.Address
	require.NoError(t, list.Walk(common.Address{}, 0, func(id common.Address) bool {
		out = append(out, id)
		return true
	}))
	return out
}

func TestInsertKeepsDescendingOrder(t *testing.T) {
	list, state := newTestList(t, 100)
	state.insert(t, list, addr(1), 300)
	state.insert(t, list, addr(2), 100)
	state.insert(t, list, addr(3), 200)
	state.insert(t, list, addr(4), 400)
	state.insert(t, list, addr(5), 200)

	got := collect(t, list)
	require.Len(t, got, 5)
	require.Equal(t, addr(4), got[0])
	require.Equal(t, addr(1), got[1])
	require.Equal(t, addr(2), got[4])
	require.NoError(t, list.Check())

	first, err := list.First()
	require.NoError(t, err)
	require.Equal(t, addr(4), first)
	last, err := list.Last()
	require.NoError(t, err)
	require.Equal(t, addr(2), last)
}

func TestInsertWithExactHintsAvoidsTraversal(t *testing.T) {
	list, state := newTestList(t, 1000)
	for i := byte(1); i <= 50; i++ {
		state.insert(t, list, addr(i), uint64(1000-int(i)*10))
	}
	// addr(25) has NICR 750, addr(26) has 740.
	state.nicr[addr(200)] = uint256.NewInt(745)
	state.reads = 0
	require.NoError(t, list.Insert(addr(200), state.nicr[addr(200)], addr(25), addr(26)))
	if state.reads > 8 {
		t.Fatalf("expected constant work with valid hints, got %d node reads", state.reads)
	}
	prev, err := list.Prev(addr(200))
	require.NoError(t, err)
	require.Equal(t, addr(25), prev)
	next, err := list.Next(addr(200))
	require.NoError(t, err)
	require.Equal(t, addr(26), next)
	require.NoError(t, list.Check())
}

func TestInsertRecoversFromStaleHints(t *testing.T) {
	list, state := newTestList(t, 100)
	state.insert(t, list, addr(1), 500)
	state.insert(t, list, addr(2), 400)
	state.insert(t, list, addr(3), 300)
	state.insert(t, list, addr(4), 200)

	state.nicr[addr(9)] = uint256.NewInt(350)
	// Hints point at the wrong region and at an unlisted id.
	require.NoError(t, list.Insert(addr(9), state.nicr[addr(9)], addr(4), addr(77)))
	got := collect(t, list)
	require.Equal(t, []common.Address{addr(1), addr(2), addr(9), addr(3), addr(4)}, got)

	state.nicr[addr(10)] = uint256.NewInt(150)
	require.NoError(t, list.Insert(addr(10), state.nicr[addr(10)], common.Address{}, addr(1)))
	last, err := list.Last()
	require.NoError(t, err)
	require.Equal(t, addr(10), last)
	require.NoError(t, list.Check())
}

func TestInsertRejections(t *testing.T) {
	list, state := newTestList(t, 2)
	state.insert(t, list, addr(1), 10)

	err := list.Insert(addr(1), uint256.NewInt(5), common.Address{}, common.Address{})
	require.ErrorIs(t, err, ErrAlreadyListed)
	require.Equal(t, nativecommon.KindInvalidOperation, nativecommon.KindOf(err))

	require.ErrorIs(t, list.Insert(common.Address{}, uint256.NewInt(5), common.Address{}, common.Address{}), ErrZeroID)
	require.ErrorIs(t, list.Insert(addr(2), new(uint256.Int), common.Address{}, common.Address{}), ErrZeroNICR)

	state.insert(t, list, addr(2), 20)
	full, err := list.IsFull()
	require.NoError(t, err)
	require.True(t, full)
	err = list.Insert(addr(3), uint256.NewInt(30), common.Address{}, common.Address{})
	if !errors.Is(err, ErrListFull) {
		t.Fatalf("expected ErrListFull, got %v", err)
	}
	require.Equal(t, nativecommon.KindResourceExhausted, nativecommon.KindOf(err))
}

func TestRemoveAndReInsert(t *testing.T) {
	list, state := newTestList(t, 100)
	state.insert(t, list, addr(1), 500)
	state.insert(t, list, addr(2), 400)
	state.insert(t, list, addr(3), 300)

	require.ErrorIs(t, list.Remove(addr(9)), ErrNotListed)

	require.NoError(t, list.Remove(addr(2)))
	ok, err := list.Contains(addr(2))
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, []common.Address{addr(1), addr(3)}, collect(t, list))

	state.nicr[addr(1)] = uint256.NewInt(100)
	require.NoError(t, list.ReInsert(addr(1), state.nicr[addr(1)], common.Address{}, common.Address{}))
	require.Equal(t, []common.Address{addr(3), addr(1)}, collect(t, list))
	require.NoError(t, list.Check())

	require.NoError(t, list.Remove(addr(3)))
	require.NoError(t, list.Remove(addr(1)))
	empty, err := list.IsEmpty()
	require.NoError(t, err)
	require.True(t, empty)
	first, err := list.First()
	require.NoError(t, err)
	require.Equal(t, common.Address{}, first)
}

func TestFindInsertPositionBoundaries(t *testing.T) {
	list, state := newTestList(t, 100)

	prev, next, err := list.FindInsertPosition(uint256.NewInt(5), common.Address{}, common.Address{})
	require.NoError(t, err)
	require.Equal(t, common.Address{}, prev)
	require.Equal(t, common.Address{}, next)

	state.insert(t, list, addr(1), 500)
	state.insert(t, list, addr(2), 300)

	prev, next, err = list.FindInsertPosition(uint256.NewInt(900), common.Address{}, common.Address{})
	require.NoError(t, err)
	require.Equal(t, common.Address{}, prev)
	require.Equal(t, addr(1), next)

	prev, next, err = list.FindInsertPosition(uint256.NewInt(1), addr(1), common.Address{})
	require.NoError(t, err)
	require.Equal(t, addr(2), prev)
	require.Equal(t, common.Address{}, next)

	valid, err := list.ValidInsertPosition(uint256.NewInt(400), addr(1), addr(2))
	require.NoError(t, err)
	require.True(t, valid)
	valid, err = list.ValidInsertPosition(uint256.NewInt(600), addr(1), addr(2))
	require.NoError(t, err)
	require.False(t, valid)
}

func TestSearchStepLimit(t *testing.T) {
	state := newMockState()
	list := NewList(3)
	list.SetState(state)
	list.SetNICRSource(state)
	require.NoError(t, list.Init(100))
	for i := byte(1); i <= 20; i++ {
		tail, err := list.Last()
		require.NoError(t, err)
		state.nicr[addr(i)] = uint256.NewInt(uint64(1000 - int(i)))
		require.NoError(t, list.Insert(addr(i), state.nicr[addr(i)], tail, common.Address{}))
	}
	// Without hints a position near the tail needs a long walk from the head.
	_, _, err := list.FindInsertPosition(uint256.NewInt(985), common.Address{}, common.Address{})
	require.ErrorIs(t, err, ErrSearchExhausted)
	require.Equal(t, nativecommon.KindResourceExhausted, nativecommon.KindOf(err))

	prev, next, err := list.FindInsertPosition(uint256.NewInt(985), addr(14), common.Address{})
	require.NoError(t, err)
	require.Equal(t, addr(14), prev)
	require.Equal(t, addr(15), next)
}
