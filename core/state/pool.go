package state

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"trovechain/native/bank"
	"trovechain/native/issuance"
	"trovechain/native/stability"
)

func (tx *Tx) TokenBalance(token bank.Token, owner common.Address) (*uint256.Int, error) {
	amount := new(uint256.Int)
	if _, err := tx.KVGet(balanceKey(token, owner), amount); err != nil {
		return nil, err
	}
	return amount, nil
}

func (tx *Tx) PutTokenBalance(token bank.Token, owner common.Address, amount *uint256.Int) error {
	if amount == nil || amount.IsZero() {
		return tx.KVDelete(balanceKey(token, owner))
	}
	return tx.KVPut(balanceKey(token, owner), amount)
}

func (tx *Tx) TokenSupply(token bank.Token) (*uint256.Int, error) {
	amount := new(uint256.Int)
	if _, err := tx.KVGet(supplyKey(token), amount); err != nil {
		return nil, err
	}
	return amount, nil
}

func (tx *Tx) PutTokenSupply(token bank.Token, amount *uint256.Int) error {
	return tx.KVPut(supplyKey(token), amount)
}

// StabilityPool returns the pool accumulators or nil before the first
// deposit.
func (tx *Tx) StabilityPool() (*stability.PoolState, error) {
	pool := new(stability.PoolState)
	ok, err := tx.KVGet(poolKeyBytes, pool)
	if err != nil || !ok {
		return nil, err
	}
	return pool, nil
}

func (tx *Tx) PutStabilityPool(pool *stability.PoolState) error {
	return tx.KVPut(poolKeyBytes, pool)
}

func (tx *Tx) StabilitySum(epoch, scale uint64) (*uint256.Int, error) {
	sum := new(uint256.Int)
	if _, err := tx.KVGet(poolSumKey(epoch, scale), sum); err != nil {
		return nil, err
	}
	return sum, nil
}

func (tx *Tx) PutStabilitySum(epoch, scale uint64, value *uint256.Int) error {
	return tx.KVPut(poolSumKey(epoch, scale), value)
}

func (tx *Tx) StabilityRewardSum(epoch, scale uint64) (*uint256.Int, error) {
	sum := new(uint256.Int)
	if _, err := tx.KVGet(poolRewardSumKey(epoch, scale), sum); err != nil {
		return nil, err
	}
	return sum, nil
}

func (tx *Tx) PutStabilityRewardSum(epoch, scale uint64, value *uint256.Int) error {
	return tx.KVPut(poolRewardSumKey(epoch, scale), value)
}

func (tx *Tx) StabilityDeposit(owner common.Address) (*stability.Deposit, error) {
	deposit := new(stability.Deposit)
	ok, err := tx.KVGet(poolDepositKey(owner), deposit)
	if err != nil || !ok {
		return nil, err
	}
	return deposit, nil
}

func (tx *Tx) PutStabilityDeposit(owner common.Address, deposit *stability.Deposit) error {
	return tx.KVPut(poolDepositKey(owner), deposit)
}

func (tx *Tx) DeleteStabilityDeposit(owner common.Address) error {
	return tx.KVDelete(poolDepositKey(owner))
}

func (tx *Tx) IssuanceState() (*issuance.State, error) {
	st := new(issuance.State)
	ok, err := tx.KVGet(issuanceStateKeyByte, st)
	if err != nil || !ok {
		return nil, err
	}
	return st, nil
}

func (tx *Tx) PutIssuanceState(st *issuance.State) error {
	return tx.KVPut(issuanceStateKeyByte, st)
}
