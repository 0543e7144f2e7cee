package state

import (
	"github.com/ethereum/go-ethereum/common"

	"trovechain/native/staking"
)

// StakingPool returns the fee accumulators or nil before the first stake or
// fee.
func (tx *Tx) StakingPool() (*staking.PoolState, error) {
	pool := new(staking.PoolState)
	ok, err := tx.KVGet(stakingPoolKeyBytes, pool)
	if err != nil || !ok {
		return nil, err
	}
	return pool, nil
}

func (tx *Tx) PutStakingPool(pool *staking.PoolState) error {
	return tx.KVPut(stakingPoolKeyBytes, pool)
}

func (tx *Tx) StakingPosition(owner common.Address) (*staking.Stake, error) {
	stake := new(staking.Stake)
	ok, err := tx.KVGet(stakingKey(owner), stake)
	if err != nil || !ok {
		return nil, err
	}
	return stake, nil
}

func (tx *Tx) PutStakingPosition(owner common.Address, stake *staking.Stake) error {
	return tx.KVPut(stakingKey(owner), stake)
}

func (tx *Tx) DeleteStakingPosition(owner common.Address) error {
	return tx.KVDelete(stakingKey(owner))
}
