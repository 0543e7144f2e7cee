package events

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"trovechain/core/types"
)

const (
	// TypeLiquidation summarises one liquidation call.
	TypeLiquidation = "liquidation.executed"
	// TypeTroveLiquidated is emitted for every position closed by a liquidation.
	TypeTroveLiquidated = "liquidation.trove"
	// TypeRedistribution records the accumulators after debt and collateral
	// were spread over the remaining stakes.
	TypeRedistribution = "liquidation.redistribution"
)

// Liquidation aggregates the totals of a single, sequential or batch call.
type Liquidation struct {
	TxID                  string
	Liquidator            common.Address
	Count                 int
	RecoveryMode          bool
	LiquidatedDebt        *uint256.Int
	LiquidatedColl        *uint256.Int
	CollGasCompensation   *uint256.Int
	StableGasCompensation *uint256.Int
	DebtOffset            *uint256.Int
	DebtRedistributed     *uint256.Int
	CollSurplus           *uint256.Int
}

func (Liquidation) EventType() string { return TypeLiquidation }

func (e Liquidation) Event() *types.Event {
	attrs := map[string]string{
		"liquidator":            formatAddress(e.Liquidator),
		"count":                 formatUint(uint64(e.Count)),
		"recoveryMode":          formatBool(e.RecoveryMode),
		"liquidatedDebt":        formatAmount(e.LiquidatedDebt),
		"liquidatedColl":        formatAmount(e.LiquidatedColl),
		"collGasCompensation":   formatAmount(e.CollGasCompensation),
		"stableGasCompensation": formatAmount(e.StableGasCompensation),
		"debtOffset":            formatAmount(e.DebtOffset),
		"debtRedistributed":     formatAmount(e.DebtRedistributed),
	}
	if e.CollSurplus != nil && !e.CollSurplus.IsZero() {
		attrs["collSurplus"] = formatAmount(e.CollSurplus)
	}
	return &types.Event{Type: TypeLiquidation, TxID: e.TxID, Attributes: attrs}
}

// TroveLiquidated describes one closed position.
type TroveLiquidated struct {
	TxID  string
	Owner common.Address
	Debt  *uint256.Int
	Coll  *uint256.Int
	Mode  string
}

func (TroveLiquidated) EventType() string { return TypeTroveLiquidated }

func (e TroveLiquidated) Event() *types.Event {
	return &types.Event{Type: TypeTroveLiquidated, TxID: e.TxID, Attributes: map[string]string{
		"owner": formatAddress(e.Owner),
		"debt":  formatAmount(e.Debt),
		"coll":  formatAmount(e.Coll),
		"mode":  e.Mode,
	}}
}

// Redistribution carries the updated reward accumulators.
type Redistribution struct {
	TxID                    string
	LColl                   *uint256.Int
	LDebt                   *uint256.Int
	TotalStakesSnapshot     *uint256.Int
	TotalCollateralSnapshot *uint256.Int
}

func (Redistribution) EventType() string { return TypeRedistribution }

func (e Redistribution) Event() *types.Event {
	return &types.Event{Type: TypeRedistribution, TxID: e.TxID, Attributes: map[string]string{
		"lColl":                   formatAmount(e.LColl),
		"lDebt":                   formatAmount(e.LDebt),
		"totalStakesSnapshot":     formatAmount(e.TotalStakesSnapshot),
		"totalCollateralSnapshot": formatAmount(e.TotalCollateralSnapshot),
	}}
}
