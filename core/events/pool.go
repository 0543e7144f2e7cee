package events

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"trovechain/core/types"
)

const (
	// TypeDepositUpdated is emitted when a stability deposit changes.
	TypeDepositUpdated = "stability.deposit"
	// TypePoolOffset is emitted when liquidated debt is absorbed by the pool.
	TypePoolOffset = "stability.offset"
	// TypeEpochUpdated is emitted when an offset empties the pool.
	TypeEpochUpdated = "stability.epoch"
	// TypeScaleUpdated is emitted when P is rescaled.
	TypeScaleUpdated = "stability.scale"

	DepositOperationProvide  = "provide"
	DepositOperationWithdraw = "withdraw"
	DepositOperationGain     = "gainToTrove"
)

// DepositUpdated records a depositor facing operation.
type DepositUpdated struct {
	TxID           string
	Owner          common.Address
	Operation      string
	Moved          *uint256.Int
	NewDeposit     *uint256.Int
	CollateralGain *uint256.Int
	RewardGain     *uint256.Int
}

func (DepositUpdated) EventType() string { return TypeDepositUpdated }

func (e DepositUpdated) Event() *types.Event {
	return &types.Event{Type: TypeDepositUpdated, TxID: e.TxID, Attributes: map[string]string{
		"owner":          formatAddress(e.Owner),
		"operation":      e.Operation,
		"moved":          formatAmount(e.Moved),
		"deposit":        formatAmount(e.NewDeposit),
		"collateralGain": formatAmount(e.CollateralGain),
		"rewardGain":     formatAmount(e.RewardGain),
	}}
}

// PoolOffset carries the accumulators after an offset.
type PoolOffset struct {
	TxID          string
	DebtOffset    *uint256.Int
	CollAdded     *uint256.Int
	P             *uint256.Int
	Scale         uint64
	Epoch         uint64
	TotalDeposits *uint256.Int
}

func (PoolOffset) EventType() string { return TypePoolOffset }

func (e PoolOffset) Event() *types.Event {
	return &types.Event{Type: TypePoolOffset, TxID: e.TxID, Attributes: map[string]string{
		"debtOffset":    formatAmount(e.DebtOffset),
		"collAdded":     formatAmount(e.CollAdded),
		"p":             e.P.String(),
		"scale":         formatUint(e.Scale),
		"epoch":         formatUint(e.Epoch),
		"totalDeposits": formatAmount(e.TotalDeposits),
	}}
}

// EpochUpdated marks the start of a new epoch.
type EpochUpdated struct {
	TxID  string
	Epoch uint64
}

func (EpochUpdated) EventType() string { return TypeEpochUpdated }

func (e EpochUpdated) Event() *types.Event {
	return &types.Event{Type: TypeEpochUpdated, TxID: e.TxID, Attributes: map[string]string{
		"epoch": formatUint(e.Epoch),
	}}
}

// ScaleUpdated marks a rescale of P within the current epoch.
type ScaleUpdated struct {
	TxID  string
	Scale uint64
}

func (ScaleUpdated) EventType() string { return TypeScaleUpdated }

func (e ScaleUpdated) Event() *types.Event {
	return &types.Event{Type: TypeScaleUpdated, TxID: e.TxID, Attributes: map[string]string{
		"scale": formatUint(e.Scale),
	}}
}
