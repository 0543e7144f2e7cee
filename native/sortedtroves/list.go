package sortedtroves

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	nativecommon "trovechain/native/common"
)

var (
	errNilState        = errors.New("sorted troves: state not configured")
	errNilNICRSource   = errors.New("sorted troves: NICR source not configured")
	ErrListFull        = nativecommon.NewError(nativecommon.KindResourceExhausted, "sorted troves: list is full")
	ErrAlreadyListed   = nativecommon.NewError(nativecommon.KindInvalidOperation, "sorted troves: list already contains the node")
	ErrNotListed       = nativecommon.NewError(nativecommon.KindPreconditionFailed, "sorted troves: list does not contain the id")
	ErrZeroID          = nativecommon.NewError(nativecommon.KindPreconditionFailed, "sorted troves: id cannot be zero")
	ErrZeroNICR        = nativecommon.NewError(nativecommon.KindPreconditionFailed, "sorted troves: NICR must be positive")
	ErrInvalidMaxSize  = nativecommon.NewError(nativecommon.KindInvalidOperation, "sorted troves: size cannot be zero")
	ErrSearchExhausted = nativecommon.NewError(nativecommon.KindResourceExhausted, "sorted troves: insert position search exceeded step limit")
	ErrCorrupted       = nativecommon.NewError(nativecommon.KindArithmetic, "sorted troves: list linkage corrupted")
)

type listState interface {
	SortedTrovesMeta() (*Meta, error)
	PutSortedTrovesMeta(meta *Meta) error
	SortedTrovesNode(id common.Address) (*Node, error)
	PutSortedTrovesNode(id common.Address, node *Node) error
	DeleteSortedTrovesNode(id common.Address) error
}

// List is a doubly linked list of positions sorted by descending NICR. It
// does not store the NICR itself: ordering keys are resolved on demand from
// the NICRSource so pending redistribution rewards are always accounted for.
type List struct {
	state    listState
	nicr     NICRSource
	maxSteps uint64
}

// NewList constructs an unbound list. maxSteps bounds the number of nodes a
// single insert position search may visit; zero disables the bound.
func NewList(maxSteps uint64) *List {
	return &List{maxSteps: maxSteps}
}

// SetState wires the list to its persistence layer.
func (l *List) SetState(state listState) { l.state = state }

// SetNICRSource configures how ordering keys are resolved.
func (l *List) SetNICRSource(src NICRSource) { l.nicr = src }

// Init sets the list capacity. It must be called once before first use.
func (l *List) Init(maxSize uint64) error {
	if maxSize == 0 {
		return ErrInvalidMaxSize
	}
	meta, err := l.meta()
	if err != nil {
		return err
	}
	meta.MaxSize = maxSize
	return l.state.PutSortedTrovesMeta(meta)
}

// Insert adds id between prevHint and nextHint when they are a valid
// position for nicr, otherwise it searches for the correct position starting
// from the hints.
func (l *List) Insert(id common.Address, nicr *uint256.Int, prevHint, nextHint common.Address) error {
	if err := l.ready(); err != nil {
		return err
	}
	meta, err := l.meta()
	if err != nil {
		return err
	}
	if meta.MaxSize > 0 && meta.Size >= meta.MaxSize {
		return ErrListFull
	}
	if id == (common.Address{}) {
		return ErrZeroID
	}
	if nicr == nil || nicr.IsZero() {
		return ErrZeroNICR
	}
	node, err := l.state.SortedTrovesNode(id)
	if err != nil {
		return err
	}
	if node != nil && node.Exists {
		return fmt.Errorf("%w: %s", ErrAlreadyListed, id.Hex())
	}

	prev, next := prevHint, nextHint
	valid, err := l.validInsertPosition(meta, nicr, prev, next)
	if err != nil {
		return err
	}
	if !valid {
		prev, next, err = l.findInsertPosition(meta, nicr, prev, next)
		if err != nil {
			return err
		}
	}
	return l.link(meta, id, prev, next)
}

// Remove unlinks id from the list.
func (l *List) Remove(id common.Address) error {
	if err := l.ready(); err != nil {
		return err
	}
	meta, err := l.meta()
	if err != nil {
		return err
	}
	return l.unlink(meta, id)
}

// ReInsert moves id to the position matching newNICR.
func (l *List) ReInsert(id common.Address, newNICR *uint256.Int, prevHint, nextHint common.Address) error {
	if err := l.ready(); err != nil {
		return err
	}
	if newNICR == nil || newNICR.IsZero() {
		return ErrZeroNICR
	}
	meta, err := l.meta()
	if err != nil {
		return err
	}
	if err := l.unlink(meta, id); err != nil {
		return err
	}
	prev, next := prevHint, nextHint
	valid, err := l.validInsertPosition(meta, newNICR, prev, next)
	if err != nil {
		return err
	}
	if !valid {
		prev, next, err = l.findInsertPosition(meta, newNICR, prev, next)
		if err != nil {
			return err
		}
	}
	return l.link(meta, id, prev, next)
}

// Contains reports whether id is listed.
func (l *List) Contains(id common.Address) (bool, error) {
	if l.state == nil {
		return false, errNilState
	}
	node, err := l.state.SortedTrovesNode(id)
	if err != nil {
		return false, err
	}
	return node != nil && node.Exists, nil
}

// Size returns the number of listed positions.
func (l *List) Size() (uint64, error) {
	meta, err := l.meta()
	if err != nil {
		return 0, err
	}
	return meta.Size, nil
}

// MaxSize returns the configured capacity.
func (l *List) MaxSize() (uint64, error) {
	meta, err := l.meta()
	if err != nil {
		return 0, err
	}
	return meta.MaxSize, nil
}

// IsFull reports whether the list has reached capacity.
func (l *List) IsFull() (bool, error) {
	meta, err := l.meta()
	if err != nil {
		return false, err
	}
	return meta.MaxSize > 0 && meta.Size >= meta.MaxSize, nil
}

// IsEmpty reports whether the list holds no positions.
func (l *List) IsEmpty() (bool, error) {
	meta, err := l.meta()
	if err != nil {
		return false, err
	}
	return meta.Size == 0, nil
}

// First returns the position with the highest NICR.
func (l *List) First() (common.Address, error) {
	meta, err := l.meta()
	if err != nil {
		return common.Address{}, err
	}
	return meta.Head, nil
}

// Last returns the position with the lowest NICR.
func (l *List) Last() (common.Address, error) {
	meta, err := l.meta()
	if err != nil {
		return common.Address{}, err
	}
	return meta.Tail, nil
}

// Next returns the neighbour of id towards the tail, or the zero address.
func (l *List) Next(id common.Address) (common.Address, error) {
	node, err := l.node(id)
	if err != nil || node == nil {
		return common.Address{}, err
	}
	return node.Next, nil
}

// Prev returns the neighbour of id towards the head, or the zero address.
func (l *List) Prev(id common.Address) (common.Address, error) {
	node, err := l.node(id)
	if err != nil || node == nil {
		return common.Address{}, err
	}
	return node.Prev, nil
}

// ValidInsertPosition reports whether (prev, next) brackets nicr.
func (l *List) ValidInsertPosition(nicr *uint256.Int, prev, next common.Address) (bool, error) {
	if err := l.ready(); err != nil {
		return false, err
	}
	meta, err := l.meta()
	if err != nil {
		return false, err
	}
	return l.validInsertPosition(meta, nicr, prev, next)
}

// FindInsertPosition returns the neighbours between which a position with
// the given NICR belongs. It never mutates the list.
func (l *List) FindInsertPosition(nicr *uint256.Int, prevHint, nextHint common.Address) (common.Address, common.Address, error) {
	if err := l.ready(); err != nil {
		return common.Address{}, common.Address{}, err
	}
	meta, err := l.meta()
	if err != nil {
		return common.Address{}, common.Address{}, err
	}
	return l.findInsertPosition(meta, nicr, prevHint, nextHint)
}

func (l *List) ready() error {
	if l == nil || l.state == nil {
		return errNilState
	}
	if l.nicr == nil {
		return errNilNICRSource
	}
	return nil
}

func (l *List) meta() (*Meta, error) {
	if l == nil || l.state == nil {
		return nil, errNilState
	}
	meta, err := l.state.SortedTrovesMeta()
	if err != nil {
		return nil, err
	}
	if meta == nil {
		meta = &Meta{}
	}
	return meta, nil
}

func (l *List) node(id common.Address) (*Node, error) {
	if l == nil || l.state == nil {
		return nil, errNilState
	}
	if id == (common.Address{}) {
		return nil, nil
	}
	node, err := l.state.SortedTrovesNode(id)
	if err != nil {
		return nil, err
	}
	if node == nil || !node.Exists {
		return nil, nil
	}
	return node, nil
}

func (l *List) mustNode(id common.Address) (*Node, error) {
	node, err := l.node(id)
	if err != nil {
		return nil, err
	}
	if node == nil {
		return nil, fmt.Errorf("%w: dangling link to %s", ErrCorrupted, id.Hex())
	}
	return node, nil
}

func (l *List) link(meta *Meta, id, prev, next common.Address) error {
	node := &Node{Exists: true}
	zero := common.Address{}
	switch {
	case prev == zero && next == zero:
		meta.Head = id
		meta.Tail = id
	case prev == zero:
		head, err := l.mustNode(meta.Head)
		if err != nil {
			return err
		}
		node.Next = meta.Head
		head.Prev = id
		if err := l.state.PutSortedTrovesNode(meta.Head, head); err != nil {
			return err
		}
		meta.Head = id
	case next == zero:
		tail, err := l.mustNode(meta.Tail)
		if err != nil {
			return err
		}
		node.Prev = meta.Tail
		tail.Next = id
		if err := l.state.PutSortedTrovesNode(meta.Tail, tail); err != nil {
			return err
		}
		meta.Tail = id
	default:
		prevNode, err := l.mustNode(prev)
		if err != nil {
			return err
		}
		nextNode, err := l.mustNode(next)
		if err != nil {
			return err
		}
		node.Prev = prev
		node.Next = next
		prevNode.Next = id
		nextNode.Prev = id
		if err := l.state.PutSortedTrovesNode(prev, prevNode); err != nil {
			return err
		}
		if err := l.state.PutSortedTrovesNode(next, nextNode); err != nil {
			return err
		}
	}
	if err := l.state.PutSortedTrovesNode(id, node); err != nil {
		return err
	}
	meta.Size++
	return l.state.PutSortedTrovesMeta(meta)
}

func (l *List) unlink(meta *Meta, id common.Address) error {
	node, err := l.node(id)
	if err != nil {
		return err
	}
	if node == nil {
		return fmt.Errorf("%w: %s", ErrNotListed, id.Hex())
	}
	zero := common.Address{}
	if meta.Size > 1 {
		switch id {
		case meta.Head:
			meta.Head = node.Next
			head, err := l.mustNode(meta.Head)
			if err != nil {
				return err
			}
			head.Prev = zero
			if err := l.state.PutSortedTrovesNode(meta.Head, head); err != nil {
				return err
			}
		case meta.Tail:
			meta.Tail = node.Prev
			tail, err := l.mustNode(meta.Tail)
			if err != nil {
				return err
			}
			tail.Next = zero
			if err := l.state.PutSortedTrovesNode(meta.Tail, tail); err != nil {
				return err
			}
		default:
			prevNode, err := l.mustNode(node.Prev)
			if err != nil {
				return err
			}
			nextNode, err := l.mustNode(node.Next)
			if err != nil {
				return err
			}
			prevNode.Next = node.Next
			nextNode.Prev = node.Prev
			if err := l.state.PutSortedTrovesNode(node.Prev, prevNode); err != nil {
				return err
			}
			if err := l.state.PutSortedTrovesNode(node.Next, nextNode); err != nil {
				return err
			}
		}
	} else {
		meta.Head = zero
		meta.Tail = zero
	}
	if err := l.state.DeleteSortedTrovesNode(id); err != nil {
		return err
	}
	meta.Size--
	return l.state.PutSortedTrovesMeta(meta)
}
