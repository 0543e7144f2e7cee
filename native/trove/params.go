package trove

import (
	"errors"
	"time"

	"github.com/holiman/uint256"

	"trovechain/native/decmath"
)

// Params captures the protocol risk and fee parameters.
type Params struct {
	// MCR is the minimum collateral ratio below which a position can be
	// liquidated in normal mode.
	MCR *uint256.Int
	// CCR is the system collateral ratio below which recovery mode applies.
	CCR *uint256.Int
	// GasCompensation is the flat stablecoin reserve held per position and
	// paid to the liquidator.
	GasCompensation *uint256.Int
	MinNetDebt      *uint256.Int
	// PercentDivisor sets the collateral share paid as gas compensation,
	// i.e. 200 pays 0.5%.
	PercentDivisor     uint64
	BorrowingFeeFloor  *uint256.Int
	RedemptionFeeFloor *uint256.Int
	MaxBorrowingFee    *uint256.Int
	// Beta divides the redeemed supply fraction added to the base rate.
	Beta              uint64
	MinuteDecayFactor *uint256.Int
	// BootstrapPeriod blocks redemptions for this long after genesis.
	BootstrapPeriod time.Duration
}

// Limits bound the work a single operation may perform.
type Limits struct {
	MaxBatchLiquidations    uint64
	MaxRedemptionIterations uint64
	MaxHintTrials           uint64
}

// DefaultParams returns the stock parameter set.
func DefaultParams() Params {
	return Params{
		MCR:                decmath.Frac(110, 100),
		CCR:                decmath.Frac(150, 100),
		GasCompensation:    decmath.Units(200),
		MinNetDebt:         decmath.Units(1800),
		PercentDivisor:     200,
		BorrowingFeeFloor:  decmath.Frac(5, 1000),
		RedemptionFeeFloor: decmath.Frac(5, 1000),
		MaxBorrowingFee:    decmath.Frac(5, 100),
		Beta:               2,
		MinuteDecayFactor:  decmath.MustParse("999037758833783000"),
		BootstrapPeriod:    14 * 24 * time.Hour,
	}
}

// DefaultLimits returns the stock work bounds.
func DefaultLimits() Limits {
	return Limits{
		MaxBatchLiquidations:    200,
		MaxRedemptionIterations: 100,
		MaxHintTrials:           10_000,
	}
}

// Validate ensures the parameters are internally consistent.
func (p Params) Validate() error {
	one := decmath.One()
	switch {
	case p.MCR == nil || p.CCR == nil:
		return errors.New("trove: MCR and CCR must be configured")
	case p.MCR.Lt(one):
		return errors.New("trove: MCR must be at least 100%")
	case p.CCR.Lt(p.MCR):
		return errors.New("trove: CCR must not be below MCR")
	case p.GasCompensation == nil || p.MinNetDebt == nil:
		return errors.New("trove: gas compensation and minimum net debt must be configured")
	case p.MinNetDebt.IsZero():
		return errors.New("trove: minimum net debt must be positive")
	case p.PercentDivisor == 0:
		return errors.New("trove: percent divisor must be positive")
	case p.BorrowingFeeFloor == nil || p.RedemptionFeeFloor == nil || p.MaxBorrowingFee == nil:
		return errors.New("trove: fee parameters must be configured")
	case p.MaxBorrowingFee.Lt(p.BorrowingFeeFloor):
		return errors.New("trove: max borrowing fee below floor")
	case p.MaxBorrowingFee.Gt(one) || p.RedemptionFeeFloor.Gt(one):
		return errors.New("trove: fee rates cannot exceed 100%")
	case p.Beta == 0:
		return errors.New("trove: beta must be positive")
	case p.MinuteDecayFactor == nil || p.MinuteDecayFactor.IsZero() || !p.MinuteDecayFactor.Lt(one):
		return errors.New("trove: minute decay factor must be in (0, 1)")
	case p.BootstrapPeriod < 0:
		return errors.New("trove: bootstrap period cannot be negative")
	}
	return nil
}

func (p Params) clone() Params {
	return Params{
		MCR:                decmath.Clone(p.MCR),
		CCR:                decmath.Clone(p.CCR),
		GasCompensation:    decmath.Clone(p.GasCompensation),
		MinNetDebt:         decmath.Clone(p.MinNetDebt),
		PercentDivisor:     p.PercentDivisor,
		BorrowingFeeFloor:  decmath.Clone(p.BorrowingFeeFloor),
		RedemptionFeeFloor: decmath.Clone(p.RedemptionFeeFloor),
		MaxBorrowingFee:    decmath.Clone(p.MaxBorrowingFee),
		Beta:               p.Beta,
		MinuteDecayFactor:  decmath.Clone(p.MinuteDecayFactor),
		BootstrapPeriod:    p.BootstrapPeriod,
	}
}
