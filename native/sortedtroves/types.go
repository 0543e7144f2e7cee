package sortedtroves

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Node links a listed position to its neighbours. Next points towards the
// tail (lower NICR), Prev towards the head (higher NICR).
type Node struct {
	Exists bool
	Next   common.Address
	Prev   common.Address
}

// Meta captures the list boundaries and bookkeeping counters.
type Meta struct {
	Head    common.Address
	Tail    common.Address
	Size    uint64
	MaxSize uint64
}

// Clone returns a deep copy of the node.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	clone := *n
	return &clone
}

// Clone returns a deep copy of the metadata.
func (m *Meta) Clone() *Meta {
	if m == nil {
		return nil
	}
	clone := *m
	return &clone
}

// NICRSource resolves the current nominal collateral ratio of a listed
// position, including any rewards it has not yet claimed.
type NICRSource interface {
	NominalICR(id common.Address) (*uint256.Int, error)
}

// NICRFunc adapts a function to the NICRSource interface.
type NICRFunc func(id common.Address) (*uint256.Int, error)

// NominalICR implements NICRSource.
func (f NICRFunc) NominalICR(id common.Address) (*uint256.Int, error) { return f(id) }
