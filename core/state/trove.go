package state

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"trovechain/native/sortedtroves"
	"trovechain/native/trove"
)

// Trove returns the stored position of owner or nil when none exists.
func (tx *Tx) Trove(owner common.Address) (*trove.Trove, error) {
	t := new(trove.Trove)
	ok, err := tx.KVGet(troveKey(owner), t)
	if err != nil || !ok {
		return nil, err
	}
	return t, nil
}

func (tx *Tx) PutTrove(owner common.Address, t *trove.Trove) error {
	return tx.KVPut(troveKey(owner), t)
}

// TroveGlobals returns the system accounting or nil before genesis.
func (tx *Tx) TroveGlobals() (*trove.Globals, error) {
	g := new(trove.Globals)
	ok, err := tx.KVGet(troveGlobalsKeyBytes, g)
	if err != nil || !ok {
		return nil, err
	}
	return g, nil
}

func (tx *Tx) PutTroveGlobals(g *trove.Globals) error {
	return tx.KVPut(troveGlobalsKeyBytes, g)
}

func (tx *Tx) TroveOwnerCount() (uint64, error) {
	var count uint64
	if _, err := tx.KVGet(troveOwnerCountKeyByte, &count); err != nil {
		return 0, err
	}
	return count, nil
}

func (tx *Tx) PutTroveOwnerCount(count uint64) error {
	return tx.KVPut(troveOwnerCountKeyByte, count)
}

func (tx *Tx) TroveOwnerAt(index uint64) (common.Address, error) {
	var owner common.Address
	if _, err := tx.KVGet(troveOwnerKey(index), &owner); err != nil {
		return common.Address{}, err
	}
	return owner, nil
}

func (tx *Tx) PutTroveOwnerAt(index uint64, owner common.Address) error {
	return tx.KVPut(troveOwnerKey(index), owner)
}

func (tx *Tx) DeleteTroveOwnerAt(index uint64) error {
	return tx.KVDelete(troveOwnerKey(index))
}

// CollSurplus returns the claimable collateral of owner.
func (tx *Tx) CollSurplus(owner common.Address) (*uint256.Int, error) {
	amount := new(uint256.Int)
	if _, err := tx.KVGet(surplusKey(owner), amount); err != nil {
		return nil, err
	}
	return amount, nil
}

func (tx *Tx) PutCollSurplus(owner common.Address, amount *uint256.Int) error {
	if amount == nil || amount.IsZero() {
		return tx.KVDelete(surplusKey(owner))
	}
	return tx.KVPut(surplusKey(owner), amount)
}

func (tx *Tx) SortedTrovesMeta() (*sortedtroves.Meta, error) {
	meta := new(sortedtroves.Meta)
	ok, err := tx.KVGet(sortedMetaKeyBytes, meta)
	if err != nil || !ok {
		return nil, err
	}
	return meta, nil
}

func (tx *Tx) PutSortedTrovesMeta(meta *sortedtroves.Meta) error {
	return tx.KVPut(sortedMetaKeyBytes, meta)
}

func (tx *Tx) SortedTrovesNode(id common.Address) (*sortedtroves.Node, error) {
	node := new(sortedtroves.Node)
	ok, err := tx.KVGet(sortedNodeKey(id), node)
	if err != nil || !ok {
		return nil, err
	}
	return node, nil
}

func (tx *Tx) PutSortedTrovesNode(id common.Address, node *sortedtroves.Node) error {
	return tx.KVPut(sortedNodeKey(id), node)
}

func (tx *Tx) DeleteSortedTrovesNode(id common.Address) error {
	return tx.KVDelete(sortedNodeKey(id))
}
