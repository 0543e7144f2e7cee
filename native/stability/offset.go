package stability

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"trovechain/native/bank"
	"trovechain/native/decmath"
)

// Offset cancels debtToOffset against the pooled deposits and credits
// collToAdd as collateral gain. The stablecoin backing the cancelled debt is
// burned and the collateral moves from the active pool into the stability
// pool. Decreasing the active pool debt is left to the caller. An empty pool
// or a zero debt makes Offset a no-op.
func (e *Engine) Offset(debtToOffset, collToAdd *uint256.Int) (*OffsetResult, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	pool, err := e.Pool()
	if err != nil {
		return nil, err
	}
	result := &OffsetResult{
		P:                  decmath.Clone(pool.P),
		CurrentScale:       pool.CurrentScale,
		CurrentEpoch:       pool.CurrentEpoch,
		TotalDepositsAfter: decmath.Clone(pool.TotalDeposits),
	}
	if pool.TotalDeposits.IsZero() || debtToOffset == nil || debtToOffset.IsZero() {
		return result, nil
	}
	if debtToOffset.Gt(pool.TotalDeposits) {
		return nil, fmt.Errorf("%w: offset %s, deposits %s", ErrOffsetTooLarge,
			decmath.Format(debtToOffset), decmath.Format(pool.TotalDeposits))
	}
	if collToAdd == nil {
		collToAdd = new(uint256.Int)
	}
	if err := e.triggerIssuance(); err != nil {
		return nil, err
	}
	// Issuance may have updated the pool record.
	if pool, err = e.Pool(); err != nil {
		return nil, err
	}

	collPerUnit, lossPerUnit := computeRewardsPerUnitStaked(pool, collToAdd, debtToOffset)
	advancedEpoch, advancedScale, err := e.updateRewardSumAndProduct(pool, collPerUnit, lossPerUnit)
	if err != nil {
		return nil, err
	}
	pool.TotalDeposits = decmath.Sub(pool.TotalDeposits, debtToOffset)
	if err := e.state.PutStabilityPool(pool); err != nil {
		return nil, err
	}
	if err := e.tokens.Burn(bank.TokenStable, bank.StabilityPool, debtToOffset); err != nil {
		return nil, err
	}
	if err := e.tokens.Transfer(bank.TokenCollateral, bank.ActivePool, bank.StabilityPool, collToAdd); err != nil {
		return nil, err
	}
	return &OffsetResult{
		Applied:            true,
		CollateralPerUnit:  collPerUnit,
		DebtLossPerUnit:    lossPerUnit,
		EpochAdvanced:      advancedEpoch,
		ScaleAdvanced:      advancedScale,
		P:                  decmath.Clone(pool.P),
		CurrentScale:       pool.CurrentScale,
		CurrentEpoch:       pool.CurrentEpoch,
		TotalDepositsAfter: decmath.Clone(pool.TotalDeposits),
	}, nil
}

// computeRewardsPerUnitStaked divides the offset among deposits, feeding
// the previous rounding remainders back into the numerators. The collateral
// gain rounds down. The loss rounds up so depositors never hold more than the
// pool, except for a full offset which is exactly one unit.
func computeRewardsPerUnitStaked(pool *PoolState, collToAdd, debtToOffset *uint256.Int) (*uint256.Int, *uint256.Int) {
	unit := decmath.One()
	total := pool.TotalDeposits

	collNumerator := decmath.Add(decmath.Mul(collToAdd, unit), pool.LastCollateralError)

	var lossPerUnit *uint256.Int
	if debtToOffset.Eq(total) {
		lossPerUnit = unit
		pool.LastDebtLossError = new(uint256.Int)
	} else {
		lossNumerator := decmath.Sub(decmath.Mul(debtToOffset, unit), pool.LastDebtLossError)
		lossPerUnit = decmath.Add(decmath.Div(lossNumerator, total), uint256.NewInt(1))
		pool.LastDebtLossError = decmath.Sub(decmath.Mul(lossPerUnit, total), lossNumerator)
	}

	collPerUnit := decmath.Div(collNumerator, total)
	pool.LastCollateralError = decmath.Sub(collNumerator, decmath.Mul(collPerUnit, total))
	return collPerUnit, lossPerUnit
}

// updateRewardSumAndProduct credits the collateral gain to the current sum
// and folds the loss into P. A total loss starts a new epoch. A product that
// would leave fewer than nine significant digits is rescaled by 1e9 and the
// scale advances; each offset rescales at most once.
func (e *Engine) updateRewardSumAndProduct(pool *PoolState, collPerUnit, lossPerUnit *uint256.Int) (bool, bool, error) {
	unit := decmath.One()
	if lossPerUnit.Gt(unit) {
		return false, false, fmt.Errorf("%w: loss per unit %s", ErrOffsetTooLarge, decmath.Format(lossPerUnit))
	}
	factor := decmath.Sub(unit, lossPerUnit)

	sum, err := e.state.StabilitySum(pool.CurrentEpoch, pool.CurrentScale)
	if err != nil {
		return false, false, err
	}
	marginal := decmath.Mul(collPerUnit, pool.P)
	if err := e.state.PutStabilitySum(pool.CurrentEpoch, pool.CurrentScale, decmath.Add(decmath.Clone(sum), marginal)); err != nil {
		return false, false, err
	}

	if factor.IsZero() {
		pool.CurrentEpoch++
		pool.CurrentScale = 0
		pool.P = decmath.One()
		return true, false, nil
	}

	var (
		newP   *uint256.Int
		scaled bool
	)
	if decmath.MulDiv(pool.P, factor, unit).Lt(ScaleFactor) {
		newP = decmath.MulDiv(decmath.Mul(pool.P, factor), ScaleFactor, unit)
		pool.CurrentScale++
		scaled = true
	} else {
		newP = decmath.MulDiv(pool.P, factor, unit)
	}
	if newP.IsZero() {
		return false, false, ErrProductUnderflow
	}
	pool.P = newP
	return false, scaled, nil
}

// UpdateRewards distributes issued reward tokens across the current deposits.
// Issuance that arrives while the pool is empty is not distributed.
func (e *Engine) UpdateRewards(issued *uint256.Int) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if issued == nil || issued.IsZero() {
		return nil
	}
	pool, err := e.Pool()
	if err != nil {
		return err
	}
	if pool.TotalDeposits.IsZero() {
		return nil
	}
	numerator := decmath.Add(decmath.Mul(issued, decmath.One()), pool.LastRewardError)
	perUnit := decmath.Div(numerator, pool.TotalDeposits)
	pool.LastRewardError = decmath.Sub(numerator, decmath.Mul(perUnit, pool.TotalDeposits))

	g, err := e.state.StabilityRewardSum(pool.CurrentEpoch, pool.CurrentScale)
	if err != nil {
		return err
	}
	marginal := decmath.Mul(perUnit, pool.P)
	if err := e.state.PutStabilityRewardSum(pool.CurrentEpoch, pool.CurrentScale, decmath.Add(decmath.Clone(g), marginal)); err != nil {
		return err
	}
	return e.state.PutStabilityPool(pool)
}

func (e *Engine) triggerIssuance() error {
	if e.issuance == nil {
		return nil
	}
	issued, err := e.issuance.Issue()
	if err != nil {
		return err
	}
	return e.UpdateRewards(issued)
}

func (e *Engine) payRewardGain(owner common.Address, gain *uint256.Int) error {
	if gain == nil || gain.IsZero() {
		return nil
	}
	return e.tokens.Transfer(bank.TokenReward, bank.CommunityIssuance, owner, gain)
}

// updateDeposit records the new initial value together with the current
// accumulators. A zero value removes the deposit.
func (e *Engine) updateDeposit(owner common.Address, value *uint256.Int) error {
	if value == nil || value.IsZero() {
		return e.state.DeleteStabilityDeposit(owner)
	}
	pool, err := e.Pool()
	if err != nil {
		return err
	}
	s, err := e.state.StabilitySum(pool.CurrentEpoch, pool.CurrentScale)
	if err != nil {
		return err
	}
	g, err := e.state.StabilityRewardSum(pool.CurrentEpoch, pool.CurrentScale)
	if err != nil {
		return err
	}
	return e.state.PutStabilityDeposit(owner, &Deposit{
		Initial: decmath.Clone(value),
		Snapshot: Snapshot{
			P:     decmath.Clone(pool.P),
			S:     decmath.Clone(s),
			G:     decmath.Clone(g),
			Scale: pool.CurrentScale,
			Epoch: pool.CurrentEpoch,
		},
	})
}
