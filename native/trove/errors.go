package trove

import (
	"errors"

	nativecommon "trovechain/native/common"
)

var (
	errNilState  = errors.New("trove manager: state not configured")
	errNilList   = errors.New("trove manager: sorted list not configured")
	errNilPool   = errors.New("trove manager: stability pool not configured")
	errNilTokens = errors.New("trove manager: token ledger not configured")
	errNilClock  = errors.New("trove manager: clock not configured")
)

var (
	ErrZeroAmount          = nativecommon.NewError(nativecommon.KindPreconditionFailed, "trove manager: amount must be positive")
	ErrZeroPrice           = nativecommon.NewError(nativecommon.KindPreconditionFailed, "trove manager: price must be positive")
	ErrTroveNotActive      = nativecommon.NewError(nativecommon.KindPreconditionFailed, "trove manager: trove does not exist or is closed")
	ErrTroveActive         = nativecommon.NewError(nativecommon.KindInvalidOperation, "trove manager: trove is already active")
	ErrOnlyOneTrove        = nativecommon.NewError(nativecommon.KindPreconditionFailed, "trove manager: only one trove in the system")
	ErrNotLiquidatable     = nativecommon.NewError(nativecommon.KindInvalidOperation, "trove manager: trove is not eligible for liquidation")
	ErrNothingToLiquidate  = nativecommon.NewError(nativecommon.KindInvalidOperation, "trove manager: nothing to liquidate")
	ErrEmptyBatch          = nativecommon.NewError(nativecommon.KindPreconditionFailed, "trove manager: calldata address array must not be empty")
	ErrBatchTooLarge       = nativecommon.NewError(nativecommon.KindResourceExhausted, "trove manager: batch exceeds liquidation limit")
	ErrNoStakes            = nativecommon.NewError(nativecommon.KindArithmetic, "trove manager: redistribution with zero total stakes")
	ErrBelowMinNetDebt     = nativecommon.NewError(nativecommon.KindInvalidOperation, "trove manager: net debt must be at least the minimum")
	ErrICRBelowMCR         = nativecommon.NewError(nativecommon.KindInvalidOperation, "trove manager: an operation that would result in ICR < MCR is not permitted")
	ErrICRBelowCCR         = nativecommon.NewError(nativecommon.KindInvalidOperation, "trove manager: operation must leave trove with ICR >= CCR")
	ErrTCRBelowCCR         = nativecommon.NewError(nativecommon.KindInvalidOperation, "trove manager: an operation that would result in TCR < CCR is not permitted")
	ErrICRDecrease         = nativecommon.NewError(nativecommon.KindInvalidOperation, "trove manager: cannot decrease your trove's ICR in recovery mode")
	ErrCollWithdrawalRM    = nativecommon.NewError(nativecommon.KindInvalidOperation, "trove manager: collateral withdrawal not permitted in recovery mode")
	ErrCloseInRecovery     = nativecommon.NewError(nativecommon.KindInvalidOperation, "trove manager: operation not permitted during recovery mode")
	ErrSingularCollChange  = nativecommon.NewError(nativecommon.KindInvalidOperation, "trove manager: cannot withdraw and add collateral")
	ErrNoAdjustment        = nativecommon.NewError(nativecommon.KindPreconditionFailed, "trove manager: there must be either a collateral change or a debt change")
	ErrCollWithdrawalLimit = nativecommon.NewError(nativecommon.KindInvalidOperation, "trove manager: collateral withdrawal exceeds trove collateral")
	ErrRepaymentTooLarge   = nativecommon.NewError(nativecommon.KindInvalidOperation, "trove manager: amount repaid must not be larger than the trove's debt")
	ErrMaxFeeRange         = nativecommon.NewError(nativecommon.KindInvalidOperation, "trove manager: max fee percentage out of range")
	ErrFeeExceedsMax       = nativecommon.NewError(nativecommon.KindInvalidOperation, "trove manager: fee exceeded provided maximum")
	ErrFeeEatsCollateral   = nativecommon.NewError(nativecommon.KindInvalidOperation, "trove manager: fee would eat up all returned collateral")
	ErrBootstrapPeriod     = nativecommon.NewError(nativecommon.KindPreconditionFailed, "trove manager: redemptions are not allowed during bootstrap phase")
	ErrTCRBelowMCR         = nativecommon.NewError(nativecommon.KindPreconditionFailed, "trove manager: cannot redeem when TCR < MCR")
	ErrInsufficientStable  = nativecommon.NewError(nativecommon.KindPreconditionFailed, "trove manager: insufficient stablecoin balance")
	ErrUnableToRedeem      = nativecommon.NewError(nativecommon.KindInvalidOperation, "trove manager: unable to redeem any amount")
	ErrUndercollateralized = nativecommon.NewError(nativecommon.KindPreconditionFailed, "trove manager: cannot withdraw while there are troves with ICR < MCR")
	ErrNoCollateralGain    = nativecommon.NewError(nativecommon.KindPreconditionFailed, "trove manager: caller must have non-zero collateral gain")
	ErrNoSurplus           = nativecommon.NewError(nativecommon.KindPreconditionFailed, "trove manager: no collateral available to claim")
)
