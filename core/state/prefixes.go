package state

import (
	"encoding/binary"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"trovechain/native/bank"
)

var (
	troveGlobalsKeyBytes   = []byte("trove/globals")
	troveOwnerCountKeyByte = []byte("trove/owners/count")
	trovePrefix            = []byte("trove/position/")
	troveOwnerPrefix       = []byte("trove/owners/")
	surplusPrefix          = []byte("trove/surplus/")

	sortedMetaKeyBytes = []byte("sorted/meta")
	sortedNodePrefix   = []byte("sorted/node/")

	balancePrefix = []byte("bank/balance/")
	supplyPrefix  = []byte("bank/supply/")

	poolKeyBytes         = []byte("stability/pool")
	poolSumFormat        = "stability/sum/%d/%d"
	poolRewardSumFormat  = "stability/reward-sum/%d/%d"
	poolDepositPrefix    = []byte("stability/deposit/")
	issuanceStateKeyByte = []byte("issuance/state")

	stakingPoolKeyBytes = []byte("staking/pool")
	stakingPrefix       = []byte("staking/stake/")
)

// hashedKey maps a logical key to its storage key.
func hashedKey(key []byte) []byte {
	return ethcrypto.Keccak256(key)
}

func addressKey(prefix []byte, addr common.Address) []byte {
	buf := make([]byte, len(prefix)+common.AddressLength)
	copy(buf, prefix)
	copy(buf[len(prefix):], addr.Bytes())
	return buf
}

func troveKey(owner common.Address) []byte { return addressKey(trovePrefix, owner) }

func troveOwnerKey(index uint64) []byte {
	buf := make([]byte, len(troveOwnerPrefix)+8)
	copy(buf, troveOwnerPrefix)
	binary.BigEndian.PutUint64(buf[len(troveOwnerPrefix):], index)
	return buf
}

func surplusKey(owner common.Address) []byte { return addressKey(surplusPrefix, owner) }

func sortedNodeKey(id common.Address) []byte { return addressKey(sortedNodePrefix, id) }

func balanceKey(token bank.Token, owner common.Address) []byte {
	buf := make([]byte, 0, len(balancePrefix)+len(token)+1+common.AddressLength)
	buf = append(buf, balancePrefix...)
	buf = append(buf, token...)
	buf = append(buf, ':')
	return append(buf, owner.Bytes()...)
}

func supplyKey(token bank.Token) []byte {
	return append(append([]byte(nil), supplyPrefix...), token...)
}

func poolSumKey(epoch, scale uint64) []byte {
	return []byte(fmt.Sprintf(poolSumFormat, epoch, scale))
}

func poolRewardSumKey(epoch, scale uint64) []byte {
	return []byte(fmt.Sprintf(poolRewardSumFormat, epoch, scale))
}

func poolDepositKey(owner common.Address) []byte { return addressKey(poolDepositPrefix, owner) }

func stakingKey(owner common.Address) []byte { return addressKey(stakingPrefix, owner) }
