package events

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"trovechain/core/types"
)

// TypeRedemption is emitted once per redemption call.
const TypeRedemption = "redemption.executed"

// Redemption captures the stablecoin burned and collateral paid out.
type Redemption struct {
	TxID          string
	Redeemer      common.Address
	Attempted     *uint256.Int
	Redeemed      *uint256.Int
	CollSent      *uint256.Int
	CollFee       *uint256.Int
	BaseRate      *uint256.Int
	Troves        int
	PartialCancel bool
}

func (Redemption) EventType() string { return TypeRedemption }

func (e Redemption) Event() *types.Event {
	return &types.Event{Type: TypeRedemption, TxID: e.TxID, Attributes: map[string]string{
		"redeemer":      formatAddress(e.Redeemer),
		"attempted":     formatAmount(e.Attempted),
		"redeemed":      formatAmount(e.Redeemed),
		"collSent":      formatAmount(e.CollSent),
		"collFee":       formatAmount(e.CollFee),
		"baseRate":      formatAmount(e.BaseRate),
		"troves":        formatUint(uint64(e.Troves)),
		"partialCancel": formatBool(e.PartialCancel),
	}}
}
