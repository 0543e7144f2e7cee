package trove

import (
	"github.com/holiman/uint256"

	"trovechain/native/bank"
	"trovechain/native/decmath"
)

const secondsPerMinute = 60

func (e *Engine) minutesSinceLastFeeOp(g *Globals) uint64 {
	now := e.timestamp()
	if now <= g.LastFeeOperationTime {
		return 0
	}
	return (now - g.LastFeeOperationTime) / secondsPerMinute
}

// decayedBaseRate applies the per minute decay to the stored base rate.
func (e *Engine) decayedBaseRate(g *Globals) *uint256.Int {
	factor := decmath.Pow(e.params.MinuteDecayFactor, e.minutesSinceLastFeeOp(g))
	return decmath.MulFrac(g.BaseRate, factor)
}

func (e *Engine) borrowingRate(baseRate *uint256.Int) *uint256.Int {
	return decmath.Min(decmath.Add(e.params.BorrowingFeeFloor, baseRate), e.params.MaxBorrowingFee)
}

func (e *Engine) redemptionRate(baseRate *uint256.Int) *uint256.Int {
	return decmath.Min(decmath.Add(e.params.RedemptionFeeFloor, baseRate), decmath.One())
}

// BorrowingFee quotes the fee for drawing amount at the current base rate.
func (e *Engine) BorrowingFee(amount *uint256.Int) (*uint256.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if e.now == nil {
		return nil, errNilClock
	}
	g, err := e.globals()
	if err != nil {
		return nil, err
	}
	return decmath.MulFrac(amount, e.borrowingRate(e.decayedBaseRate(g))), nil
}

// RedemptionRate quotes the current redemption fee rate.
func (e *Engine) RedemptionRate() (*uint256.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if e.now == nil {
		return nil, errNilClock
	}
	g, err := e.globals()
	if err != nil {
		return nil, err
	}
	return e.redemptionRate(e.decayedBaseRate(g)), nil
}

// updateLastFeeOpTime only advances in whole minutes so repeated operations
// cannot stall the decay.
func (e *Engine) updateLastFeeOpTime(g *Globals) {
	now := e.timestamp()
	if now >= g.LastFeeOperationTime+secondsPerMinute {
		g.LastFeeOperationTime = now
	}
}

func (e *Engine) decayBaseRateFromBorrowing() error {
	g, err := e.globals()
	if err != nil {
		return err
	}
	decayed := e.decayedBaseRate(g)
	if decayed.Gt(decmath.One()) {
		decayed = decmath.One()
	}
	g.BaseRate = decayed
	e.updateLastFeeOpTime(g)
	return e.state.PutTroveGlobals(g)
}

// updateBaseRateFromRedemption raises the base rate by the redeemed share of
// supply divided by Beta.
func (e *Engine) updateBaseRateFromRedemption(collDrawn, price, totalSupply *uint256.Int) (*uint256.Int, error) {
	g, err := e.globals()
	if err != nil {
		return nil, err
	}
	decayed := e.decayedBaseRate(g)
	redeemedFraction := decmath.MulDiv(collDrawn, price, totalSupply)
	rate := decmath.Add(decayed, decmath.Div(redeemedFraction, uint256.NewInt(e.params.Beta)))
	rate = decmath.Min(rate, decmath.One())
	if rate.IsZero() {
		return nil, ErrUnableToRedeem
	}
	g.BaseRate = rate
	e.updateLastFeeOpTime(g)
	if err := e.state.PutTroveGlobals(g); err != nil {
		return nil, err
	}
	return decmath.Clone(rate), nil
}

// triggerBorrowingFee decays the base rate, charges the fee on amount and
// mints it to the staking pool.
func (e *Engine) triggerBorrowingFee(amount, maxFee *uint256.Int) (*uint256.Int, error) {
	if err := e.decayBaseRateFromBorrowing(); err != nil {
		return nil, err
	}
	g, err := e.globals()
	if err != nil {
		return nil, err
	}
	fee := decmath.MulFrac(amount, e.borrowingRate(g.BaseRate))
	if err := requireUserAcceptsFee(fee, amount, maxFee); err != nil {
		return nil, err
	}
	if err := e.tokens.Mint(bank.TokenStable, bank.StakingPool, fee); err != nil {
		return nil, err
	}
	if e.fees != nil {
		if err := e.fees.IncreaseStableFee(fee); err != nil {
			return nil, err
		}
	}
	return fee, nil
}

func requireUserAcceptsFee(fee, amount, maxFee *uint256.Int) error {
	if amount.IsZero() {
		return nil
	}
	if decmath.DivFrac(fee, amount).Gt(maxFee) {
		return ErrFeeExceedsMax
	}
	return nil
}

func (e *Engine) requireValidMaxFee(maxFee *uint256.Int, recovery bool) error {
	if maxFee == nil {
		return ErrMaxFeeRange
	}
	if maxFee.Gt(decmath.One()) {
		return ErrMaxFeeRange
	}
	if !recovery && maxFee.Lt(e.params.BorrowingFeeFloor) {
		return ErrMaxFeeRange
	}
	return nil
}
