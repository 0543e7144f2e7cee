package routes

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"trovechain/core"
	nativecommon "trovechain/native/common"
	"trovechain/native/decmath"
	"trovechain/native/stability"
	"trovechain/native/staking"
	"trovechain/native/trove"
)

var errBadRequest = nativecommon.NewError(nativecommon.KindInvalidOperation, "routes: invalid request")

// Amounts travel as decimal strings with up to 18 fractional digits. Nominal
// ratios (NICR) are raw integers scaled by 1e20.

type openParams struct {
	Owner    string `json:"owner"`
	Coll     string `json:"coll"`
	Borrow   string `json:"borrow"`
	MaxFee   string `json:"maxFee"`
	PrevHint string `json:"prevHint,omitempty"`
	NextHint string `json:"nextHint,omitempty"`
}

type adjustParams struct {
	Owner          string `json:"owner"`
	CollDeposit    string `json:"collDeposit,omitempty"`
	CollWithdrawal string `json:"collWithdrawal,omitempty"`
	DebtChange     string `json:"debtChange,omitempty"`
	DebtIncrease   bool   `json:"debtIncrease,omitempty"`
	MaxFee         string `json:"maxFee,omitempty"`
	PrevHint       string `json:"prevHint,omitempty"`
	NextHint       string `json:"nextHint,omitempty"`
}

type ownerParams struct {
	Owner string `json:"owner"`
}

type amountParams struct {
	Owner  string `json:"owner"`
	Amount string `json:"amount"`
}

type gainParams struct {
	Owner    string `json:"owner"`
	PrevHint string `json:"prevHint,omitempty"`
	NextHint string `json:"nextHint,omitempty"`
}

type liquidateParams struct {
	Owner      string `json:"owner"`
	Liquidator string `json:"liquidator"`
}

type sequenceParams struct {
	N          uint64 `json:"n"`
	Liquidator string `json:"liquidator"`
}

type batchParams struct {
	Owners     []string `json:"owners"`
	Liquidator string   `json:"liquidator"`
}

type redeemParams struct {
	Owner            string `json:"owner"`
	Amount           string `json:"amount"`
	MaxFee           string `json:"maxFee"`
	FirstHint        string `json:"firstHint,omitempty"`
	UpperPartialHint string `json:"upperPartialHint,omitempty"`
	LowerPartialHint string `json:"lowerPartialHint,omitempty"`
	PartialNICR      string `json:"partialNicr,omitempty"`
	MaxIterations    uint64 `json:"maxIterations,omitempty"`
}

type priceParams struct {
	Price string `json:"price"`
}

// parser collects the first conversion failure so handlers can convert a
// whole request before checking for errors.
type parser struct {
	err error
}

func (p *parser) fail(format string, args ...any) {
	if p.err == nil {
		p.err = fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
	}
}

func (p *parser) amount(field, raw string, required bool) *uint256.Int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		if required {
			p.fail("%s is required", field)
		}
		return nil
	}
	value, err := decmath.Parse(raw)
	if err != nil {
		p.fail("%s: %v", field, err)
		return nil
	}
	return value
}

func (p *parser) integer(field, raw string) *uint256.Int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	value, err := uint256.FromDecimal(raw)
	if err != nil {
		p.fail("%s: %v", field, err)
		return nil
	}
	return value
}

func (p *parser) address(field, raw string, required bool) common.Address {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		if required {
			p.fail("%s is required", field)
		}
		return common.Address{}
	}
	if !common.IsHexAddress(raw) {
		p.fail("%s: invalid address %q", field, raw)
		return common.Address{}
	}
	return common.HexToAddress(raw)
}

func formatAmount(v *uint256.Int) string {
	if v == nil {
		return "0"
	}
	return decmath.Format(v)
}

func formatInteger(v *uint256.Int) string {
	if v == nil {
		return "0"
	}
	return v.Dec()
}

func formatHint(a common.Address) string {
	if a == (common.Address{}) {
		return ""
	}
	return a.Hex()
}

type troveResultJSON struct {
	Owner  string `json:"owner"`
	Status string `json:"status"`
	Coll   string `json:"coll"`
	Debt   string `json:"debt"`
	Stake  string `json:"stake"`
	NICR   string `json:"nicr"`
	ICR    string `json:"icr"`
	Fee    string `json:"fee"`
}

func newTroveResult(res *trove.TroveResult) *troveResultJSON {
	if res == nil {
		return nil
	}
	return &troveResultJSON{
		Owner:  res.Owner.Hex(),
		Status: res.Status.String(),
		Coll:   formatAmount(res.Coll),
		Debt:   formatAmount(res.Debt),
		Stake:  formatAmount(res.Stake),
		NICR:   formatInteger(res.NICR),
		ICR:    formatAmount(res.ICR),
		Fee:    formatAmount(res.Fee),
	}
}

type troveViewJSON struct {
	Owner       string `json:"owner"`
	Status      string `json:"status"`
	Coll        string `json:"coll"`
	Debt        string `json:"debt"`
	Stake       string `json:"stake"`
	PendingColl string `json:"pendingColl"`
	PendingDebt string `json:"pendingDebt"`
	EntireColl  string `json:"entireColl"`
	EntireDebt  string `json:"entireDebt"`
	ICR         string `json:"icr"`
	NICR        string `json:"nicr"`
	Surplus     string `json:"collSurplus"`
}

func newTroveView(v *trove.TroveView) *troveViewJSON {
	return &troveViewJSON{
		Owner:       v.Owner.Hex(),
		Status:      v.Status.String(),
		Coll:        formatAmount(v.Coll),
		Debt:        formatAmount(v.Debt),
		Stake:       formatAmount(v.Stake),
		PendingColl: formatAmount(v.PendingColl),
		PendingDebt: formatAmount(v.PendingDebt),
		EntireColl:  formatAmount(v.EntireColl),
		EntireDebt:  formatAmount(v.EntireDebt),
		ICR:         formatAmount(v.ICR),
		NICR:        formatInteger(v.NICR),
		Surplus:     formatAmount(v.Surplus),
	}
}

type receiptJSON struct {
	CollateralGain string `json:"collateralGain"`
	RewardGain     string `json:"rewardGain"`
	DepositLoss    string `json:"depositLoss"`
	Moved          string `json:"moved"`
	NewDeposit     string `json:"newDeposit"`
}

func newReceipt(r *stability.Receipt) *receiptJSON {
	if r == nil {
		return nil
	}
	return &receiptJSON{
		CollateralGain: formatAmount(r.CollateralGain),
		RewardGain:     formatAmount(r.RewardGain),
		DepositLoss:    formatAmount(r.DepositLoss),
		Moved:          formatAmount(r.Moved),
		NewDeposit:     formatAmount(r.NewDeposit),
	}
}

type depositViewJSON struct {
	Owner          string `json:"owner"`
	Initial        string `json:"initial"`
	Compounded     string `json:"compounded"`
	CollateralGain string `json:"collateralGain"`
	RewardGain     string `json:"rewardGain"`
}

type stakeReceiptJSON struct {
	CollGain   string `json:"collGain"`
	StableGain string `json:"stableGain"`
	Moved      string `json:"moved"`
	NewStake   string `json:"newStake"`
}

func newStakeReceipt(r *staking.Receipt) *stakeReceiptJSON {
	if r == nil {
		return nil
	}
	return &stakeReceiptJSON{
		CollGain:   formatAmount(r.CollGain),
		StableGain: formatAmount(r.StableGain),
		Moved:      formatAmount(r.Moved),
		NewStake:   formatAmount(r.NewStake),
	}
}

type stakeViewJSON struct {
	Owner      string `json:"owner"`
	Staked     string `json:"staked"`
	CollGain   string `json:"collGain"`
	StableGain string `json:"stableGain"`
}

type stakingPoolJSON struct {
	TotalStaked         string `json:"totalStaked"`
	FColl               string `json:"fColl"`
	FStable             string `json:"fStable"`
	HeldColl            string `json:"heldColl"`
	HeldStable          string `json:"heldStable"`
	UndistributedColl   string `json:"undistributedColl"`
	UndistributedStable string `json:"undistributedStable"`
}

type gainToTroveJSON struct {
	Receipt *receiptJSON     `json:"receipt"`
	Trove   *troveResultJSON `json:"trove"`
}

type liquidatedTroveJSON struct {
	Owner string `json:"owner"`
	Debt  string `json:"debt"`
	Coll  string `json:"coll"`
	Mode  string `json:"mode"`
}

type liquidationJSON struct {
	Liquidated            []liquidatedTroveJSON `json:"liquidated"`
	LiquidatedDebt        string                `json:"liquidatedDebt"`
	LiquidatedColl        string                `json:"liquidatedColl"`
	CollGasCompensation   string                `json:"collGasCompensation"`
	StableGasCompensation string                `json:"stableGasCompensation"`
	DebtOffset            string                `json:"debtOffset"`
	CollToStabilityPool   string                `json:"collToStabilityPool"`
	DebtRedistributed     string                `json:"debtRedistributed"`
	CollRedistributed     string                `json:"collRedistributed"`
	CollSurplus           string                `json:"collSurplus"`
	RecoveryMode          bool                  `json:"recoveryMode"`
}

func newLiquidation(res *trove.LiquidationResult) *liquidationJSON {
	out := &liquidationJSON{
		Liquidated:            make([]liquidatedTroveJSON, 0, len(res.Liquidated)),
		LiquidatedDebt:        formatAmount(res.LiquidatedDebt),
		LiquidatedColl:        formatAmount(res.LiquidatedColl),
		CollGasCompensation:   formatAmount(res.CollGasCompensation),
		StableGasCompensation: formatAmount(res.StableGasCompensation),
		DebtOffset:            formatAmount(res.DebtOffset),
		CollToStabilityPool:   formatAmount(res.CollToStabilityPool),
		DebtRedistributed:     formatAmount(res.DebtRedistributed),
		CollRedistributed:     formatAmount(res.CollRedistributed),
		CollSurplus:           formatAmount(res.CollSurplus),
		RecoveryMode:          res.RecoveryModeAtStart,
	}
	for _, lt := range res.Liquidated {
		out.Liquidated = append(out.Liquidated, liquidatedTroveJSON{
			Owner: lt.Owner.Hex(),
			Debt:  formatAmount(lt.Debt),
			Coll:  formatAmount(lt.Coll),
			Mode:  string(lt.Mode),
		})
	}
	return out
}

type redeemedTroveJSON struct {
	Owner     string `json:"owner"`
	StableLot string `json:"stableLot"`
	CollLot   string `json:"collLot"`
	NewDebt   string `json:"newDebt"`
	NewColl   string `json:"newColl"`
	Closed    bool   `json:"closed"`
}

type redemptionJSON struct {
	Attempted     string              `json:"attempted"`
	Redeemed      string              `json:"redeemed"`
	CollDrawn     string              `json:"collDrawn"`
	CollFee       string              `json:"collFee"`
	CollSent      string              `json:"collSent"`
	BaseRate      string              `json:"baseRate"`
	Troves        []redeemedTroveJSON `json:"troves"`
	PartialCancel bool                `json:"partialCancel"`
}

func newRedemption(res *trove.RedemptionResult) *redemptionJSON {
	out := &redemptionJSON{
		Attempted:     formatAmount(res.Attempted),
		Redeemed:      formatAmount(res.Redeemed),
		CollDrawn:     formatAmount(res.CollDrawn),
		CollFee:       formatAmount(res.CollFee),
		CollSent:      formatAmount(res.CollSent),
		BaseRate:      formatAmount(res.BaseRate),
		Troves:        make([]redeemedTroveJSON, 0, len(res.Troves)),
		PartialCancel: res.PartialCancel,
	}
	for _, rt := range res.Troves {
		out.Troves = append(out.Troves, redeemedTroveJSON{
			Owner:     rt.Owner.Hex(),
			StableLot: formatAmount(rt.StableLot),
			CollLot:   formatAmount(rt.CollLot),
			NewDebt:   formatAmount(rt.NewDebt),
			NewColl:   formatAmount(rt.NewColl),
			Closed:    rt.Closed,
		})
	}
	return out
}

type redemptionHintsJSON struct {
	FirstHint       string `json:"firstHint"`
	PartialNICR     string `json:"partialNicr"`
	TruncatedAmount string `json:"truncatedAmount"`
}

type insertHintsJSON struct {
	PrevHint string `json:"prevHint"`
	NextHint string `json:"nextHint"`
}

type poolJSON struct {
	TotalDeposits string `json:"totalDeposits"`
	P             string `json:"p"`
	Scale         uint64 `json:"scale"`
	Epoch         uint64 `json:"epoch"`
	SupplyCap     string `json:"rewardSupplyCap"`
	TotalIssued   string `json:"rewardIssued"`
	Undistributed string `json:"rewardUndistributed"`
}

type systemJSON struct {
	Price                   string    `json:"price"`
	TCR                     string    `json:"tcr"`
	RecoveryMode            bool      `json:"recoveryMode"`
	EntireColl              string    `json:"entireColl"`
	EntireDebt              string    `json:"entireDebt"`
	ActiveColl              string    `json:"activeColl"`
	ActiveDebt              string    `json:"activeDebt"`
	DefaultColl             string    `json:"defaultColl"`
	DefaultDebt             string    `json:"defaultDebt"`
	LColl                   string    `json:"lColl"`
	LDebt                   string    `json:"lDebt"`
	TotalStakes             string    `json:"totalStakes"`
	TotalStakesSnapshot     string    `json:"totalStakesSnapshot"`
	TotalCollateralSnapshot string    `json:"totalCollateralSnapshot"`
	BaseRate                string    `json:"baseRate"`
	BorrowingRate           string    `json:"borrowingRate"`
	RedemptionRate          string    `json:"redemptionRate"`
	TroveCount              uint64    `json:"troveCount"`
	Pool                    *poolJSON `json:"stabilityPool"`
}

func newSystem(v *trove.SystemView, pool *core.PoolView) *systemJSON {
	out := &systemJSON{
		Price:                   formatAmount(v.Price),
		TCR:                     formatAmount(v.TCR),
		RecoveryMode:            v.RecoveryMode,
		EntireColl:              formatAmount(v.EntireColl),
		EntireDebt:              formatAmount(v.EntireDebt),
		ActiveColl:              formatAmount(v.ActiveColl),
		ActiveDebt:              formatAmount(v.ActiveDebt),
		DefaultColl:             formatAmount(v.DefaultColl),
		DefaultDebt:             formatAmount(v.DefaultDebt),
		LColl:                   formatAmount(v.LColl),
		LDebt:                   formatAmount(v.LDebt),
		TotalStakes:             formatAmount(v.TotalStakes),
		TotalStakesSnapshot:     formatAmount(v.TotalStakesSnapshot),
		TotalCollateralSnapshot: formatAmount(v.TotalCollateralSnapshot),
		BaseRate:                formatAmount(v.BaseRate),
		BorrowingRate:           formatAmount(v.BorrowingRate),
		RedemptionRate:          formatAmount(v.RedemptionRate),
		TroveCount:              v.TroveCount,
	}
	if pool != nil && pool.State != nil {
		out.Pool = &poolJSON{
			TotalDeposits: formatAmount(pool.State.TotalDeposits),
			P:             formatAmount(pool.State.P),
			Scale:         pool.State.CurrentScale,
			Epoch:         pool.State.CurrentEpoch,
			SupplyCap:     formatAmount(pool.SupplyCap),
			TotalIssued:   formatAmount(pool.TotalIssued),
			Undistributed: formatAmount(pool.Undistributed),
		}
	}
	return out
}

type listEntryJSON struct {
	Owner string `json:"owner"`
	NICR  string `json:"nicr"`
}

type listPageJSON struct {
	Troves []listEntryJSON `json:"troves"`
	Next   string          `json:"next,omitempty"`
}
