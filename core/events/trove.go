package events

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"trovechain/core/types"
)

const (
	// TypeTroveUpdated is emitted whenever a borrower operation changes a position.
	TypeTroveUpdated = "trove.updated"
	// TypeCollateralClaimed is emitted when surplus collateral is paid out.
	TypeCollateralClaimed = "trove.collateralClaimed"
	// TypeBorrowingFeePaid records the fee minted on a debt increase.
	TypeBorrowingFeePaid = "trove.borrowingFeePaid"

	TroveOperationOpen      = "open"
	TroveOperationAdjust    = "adjust"
	TroveOperationClose     = "close"
	TroveOperationGain      = "gainToTrove"
	TroveOperationRedeem    = "redeem"
	TroveOperationLiquidate = "liquidate"
)

// TroveUpdated captures the stored state of a position after an operation.
type TroveUpdated struct {
	TxID      string
	Owner     common.Address
	Operation string
	Status    string
	Coll      *uint256.Int
	Debt      *uint256.Int
	Stake     *uint256.Int
}

// EventType satisfies the Event interface.
func (TroveUpdated) EventType() string { return TypeTroveUpdated }

// Event converts the payload into a broadcastable event.
func (e TroveUpdated) Event() *types.Event {
	attrs := map[string]string{
		"owner":     formatAddress(e.Owner),
		"operation": e.Operation,
		"coll":      formatAmount(e.Coll),
		"debt":      formatAmount(e.Debt),
		"stake":     formatAmount(e.Stake),
	}
	if e.Status != "" {
		attrs["status"] = e.Status
	}
	return &types.Event{Type: TypeTroveUpdated, TxID: e.TxID, Attributes: attrs}
}

// BorrowingFeePaid records a borrowing fee credited to the staking pool.
type BorrowingFeePaid struct {
	TxID  string
	Owner common.Address
	Fee   *uint256.Int
}

func (BorrowingFeePaid) EventType() string { return TypeBorrowingFeePaid }

func (e BorrowingFeePaid) Event() *types.Event {
	return &types.Event{Type: TypeBorrowingFeePaid, TxID: e.TxID, Attributes: map[string]string{
		"owner": formatAddress(e.Owner),
		"fee":   formatAmount(e.Fee),
	}}
}

// CollateralClaimed records a surplus withdrawal.
type CollateralClaimed struct {
	TxID   string
	Owner  common.Address
	Amount *uint256.Int
}

func (CollateralClaimed) EventType() string { return TypeCollateralClaimed }

func (e CollateralClaimed) Event() *types.Event {
	return &types.Event{Type: TypeCollateralClaimed, TxID: e.TxID, Attributes: map[string]string{
		"owner":  formatAddress(e.Owner),
		"amount": formatAmount(e.Amount),
	}}
}
