package events

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"trovechain/core/types"
)

const (
	// TypeStakeUpdated is emitted when a reward token stake changes or its
	// fee gains are paid.
	TypeStakeUpdated = "staking.stake"

	StakeOperationStake   = "stake"
	StakeOperationUnstake = "unstake"
	StakeOperationClaim   = "claim"
)

// StakeUpdated records a staker facing operation.
type StakeUpdated struct {
	TxID       string
	Owner      common.Address
	Operation  string
	Moved      *uint256.Int
	NewStake   *uint256.Int
	CollGain   *uint256.Int
	StableGain *uint256.Int
}

func (StakeUpdated) EventType() string { return TypeStakeUpdated }

func (e StakeUpdated) Event() *types.Event {
	return &types.Event{Type: TypeStakeUpdated, TxID: e.TxID, Attributes: map[string]string{
		"owner":      formatAddress(e.Owner),
		"operation":  e.Operation,
		"moved":      formatAmount(e.Moved),
		"stake":      formatAmount(e.NewStake),
		"collGain":   formatAmount(e.CollGain),
		"stableGain": formatAmount(e.StableGain),
	}}
}
