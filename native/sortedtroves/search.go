package sortedtroves

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

func (l *List) nominal(id common.Address) (*uint256.Int, error) {
	value, err := l.nicr.NominalICR(id)
	if err != nil {
		return nil, err
	}
	if value == nil {
		return new(uint256.Int), nil
	}
	return value, nil
}

func (l *List) validInsertPosition(meta *Meta, nicr *uint256.Int, prev, next common.Address) (bool, error) {
	zero := common.Address{}
	switch {
	case prev == zero && next == zero:
		return meta.Size == 0, nil
	case prev == zero:
		if meta.Head != next {
			return false, nil
		}
		nextNICR, err := l.nominal(next)
		if err != nil {
			return false, err
		}
		return !nicr.Lt(nextNICR), nil
	case next == zero:
		if meta.Tail != prev {
			return false, nil
		}
		prevNICR, err := l.nominal(prev)
		if err != nil {
			return false, err
		}
		return !nicr.Gt(prevNICR), nil
	default:
		prevNode, err := l.node(prev)
		if err != nil {
			return false, err
		}
		if prevNode == nil || prevNode.Next != next {
			return false, nil
		}
		prevNICR, err := l.nominal(prev)
		if err != nil {
			return false, err
		}
		if nicr.Gt(prevNICR) {
			return false, nil
		}
		nextNICR, err := l.nominal(next)
		if err != nil {
			return false, err
		}
		return !nicr.Lt(nextNICR), nil
	}
}

// findInsertPosition discards hints that are no longer listed or that sit on
// the wrong side of nicr, then walks from whatever remains.
func (l *List) findInsertPosition(meta *Meta, nicr *uint256.Int, prevHint, nextHint common.Address) (common.Address, common.Address, error) {
	zero := common.Address{}
	if meta.Size == 0 {
		return zero, zero, nil
	}
	prev, next := prevHint, nextHint
	if prev != zero {
		ok, err := l.Contains(prev)
		if err != nil {
			return zero, zero, err
		}
		if ok {
			prevNICR, err := l.nominal(prev)
			if err != nil {
				return zero, zero, err
			}
			if nicr.Gt(prevNICR) {
				prev = zero
			}
		} else {
			prev = zero
		}
	}
	if next != zero {
		ok, err := l.Contains(next)
		if err != nil {
			return zero, zero, err
		}
		if ok {
			nextNICR, err := l.nominal(next)
			if err != nil {
				return zero, zero, err
			}
			if nicr.Lt(nextNICR) {
				next = zero
			}
		} else {
			next = zero
		}
	}

	switch {
	case prev == zero && next == zero:
		return l.descend(meta, nicr, meta.Head)
	case prev == zero:
		return l.ascend(meta, nicr, next)
	default:
		return l.descend(meta, nicr, prev)
	}
}

func (l *List) descend(meta *Meta, nicr *uint256.Int, start common.Address) (common.Address, common.Address, error) {
	zero := common.Address{}
	if meta.Head == start {
		startNICR, err := l.nominal(start)
		if err != nil {
			return zero, zero, err
		}
		if !nicr.Lt(startNICR) {
			return zero, start, nil
		}
	}
	prev := start
	next, err := l.Next(prev)
	if err != nil {
		return zero, zero, err
	}
	var steps uint64
	for prev != zero {
		valid, err := l.validInsertPosition(meta, nicr, prev, next)
		if err != nil {
			return zero, zero, err
		}
		if valid {
			break
		}
		steps++
		if l.maxSteps > 0 && steps > l.maxSteps {
			return zero, zero, fmt.Errorf("%w: %d steps", ErrSearchExhausted, l.maxSteps)
		}
		prev = next
		if next, err = l.Next(prev); err != nil {
			return zero, zero, err
		}
	}
	return prev, next, nil
}

func (l *List) ascend(meta *Meta, nicr *uint256.Int, start common.Address) (common.Address, common.Address, error) {
	zero := common.Address{}
	if meta.Tail == start {
		startNICR, err := l.nominal(start)
		if err != nil {
			return zero, zero, err
		}
		if !nicr.Gt(startNICR) {
			return start, zero, nil
		}
	}
	next := start
	prev, err := l.Prev(next)
	if err != nil {
		return zero, zero, err
	}
	var steps uint64
	for next != zero {
		valid, err := l.validInsertPosition(meta, nicr, prev, next)
		if err != nil {
			return zero, zero, err
		}
		if valid {
			break
		}
		steps++
		if l.maxSteps > 0 && steps > l.maxSteps {
			return zero, zero, fmt.Errorf("%w: %d steps", ErrSearchExhausted, l.maxSteps)
		}
		next = prev
		if prev, err = l.Prev(next); err != nil {
			return zero, zero, err
		}
	}
	return prev, next, nil
}

// Walk visits listed positions from head to tail until fn returns false or
// limit positions have been visited. A zero limit visits every position.
func (l *List) Walk(start common.Address, limit int, fn func(id common.Address) bool) error {
	meta, err := l.meta()
	if err != nil {
		return err
	}
	cur := start
	if cur == (common.Address{}) {
		cur = meta.Head
	}
	for visited := 0; cur != (common.Address{}); visited++ {
		if limit > 0 && visited >= limit {
			return nil
		}
		if !fn(cur) {
			return nil
		}
		if cur, err = l.Next(cur); err != nil {
			return err
		}
	}
	return nil
}

// Check walks the entire list and verifies linkage, size and ordering. It is
// linear in the list size and meant for diagnostics.
func (l *List) Check() error {
	if err := l.ready(); err != nil {
		return err
	}
	meta, err := l.meta()
	if err != nil {
		return err
	}
	zero := common.Address{}
	var (
		count    uint64
		prev     common.Address
		prevNICR *uint256.Int
	)
	for cur := meta.Head; cur != zero; {
		node, err := l.mustNode(cur)
		if err != nil {
			return err
		}
		if node.Prev != prev {
			return fmt.Errorf("%w: %s prev link mismatch", ErrCorrupted, cur.Hex())
		}
		nicr, err := l.nominal(cur)
		if err != nil {
			return err
		}
		if prevNICR != nil && nicr.Gt(prevNICR) {
			return fmt.Errorf("%w: %s out of order", ErrCorrupted, cur.Hex())
		}
		count++
		if count > meta.Size {
			return fmt.Errorf("%w: more nodes than recorded size %d", ErrCorrupted, meta.Size)
		}
		prev, prevNICR = cur, nicr
		cur = node.Next
	}
	if prev != meta.Tail {
		return fmt.Errorf("%w: tail mismatch", ErrCorrupted)
	}
	if count != meta.Size {
		return fmt.Errorf("%w: walked %d nodes, recorded %d", ErrCorrupted, count, meta.Size)
	}
	return nil
}
