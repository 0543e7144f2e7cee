package core

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.opentelemetry.io/otel/attribute"

	"trovechain/core/events"
	"trovechain/native/stability"
	"trovechain/native/staking"
	"trovechain/native/trove"
)

// OpenTrove opens a position for owner.
func (s *System) OpenTrove(ctx context.Context, owner common.Address, req trove.OpenRequest) (*trove.TroveResult, error) {
	var res *trove.TroveResult
	attrs := []attribute.KeyValue{ownerAttr(owner), amountAttr("coll", req.Coll), amountAttr("borrow", req.Borrow)}
	err := s.execute(ctx, "open", true, attrs, func(m *modules) error {
		var err error
		if res, err = m.troves.OpenTrove(owner, req, m.price); err != nil {
			return err
		}
		m.emitTrove(res, events.TroveOperationOpen)
		return nil
	})
	return res, err
}

// AdjustTrove applies a combined collateral and debt change.
func (s *System) AdjustTrove(ctx context.Context, owner common.Address, req trove.AdjustRequest) (*trove.TroveResult, error) {
	attrs := []attribute.KeyValue{
		ownerAttr(owner),
		amountAttr("collDeposit", req.CollDeposit),
		amountAttr("collWithdrawal", req.CollWithdrawal),
		amountAttr("debtChange", req.DebtChange),
		attribute.Bool("debtIncrease", req.DebtIncrease),
	}
	return s.adjustWith(ctx, "adjust", attrs, func(m *modules) (*trove.TroveResult, error) {
		return m.troves.AdjustTrove(owner, req, m.price)
	})
}

// AddColl tops up owner's collateral.
func (s *System) AddColl(ctx context.Context, owner common.Address, amount *uint256.Int, prevHint, nextHint common.Address) (*trove.TroveResult, error) {
	attrs := []attribute.KeyValue{ownerAttr(owner), amountAttr("amount", amount)}
	return s.adjustWith(ctx, "add_coll", attrs, func(m *modules) (*trove.TroveResult, error) {
		return m.troves.AddColl(owner, amount, m.price, prevHint, nextHint)
	})
}

// WithdrawColl releases collateral to owner.
func (s *System) WithdrawColl(ctx context.Context, owner common.Address, amount *uint256.Int, prevHint, nextHint common.Address) (*trove.TroveResult, error) {
	attrs := []attribute.KeyValue{ownerAttr(owner), amountAttr("amount", amount)}
	return s.adjustWith(ctx, "withdraw_coll", attrs, func(m *modules) (*trove.TroveResult, error) {
		return m.troves.WithdrawColl(owner, amount, m.price, prevHint, nextHint)
	})
}

// WithdrawDebt borrows additional stablecoin.
func (s *System) WithdrawDebt(ctx context.Context, owner common.Address, amount, maxFee *uint256.Int, prevHint, nextHint common.Address) (*trove.TroveResult, error) {
	attrs := []attribute.KeyValue{ownerAttr(owner), amountAttr("amount", amount)}
	return s.adjustWith(ctx, "withdraw_debt", attrs, func(m *modules) (*trove.TroveResult, error) {
		return m.troves.WithdrawDebt(owner, amount, maxFee, m.price, prevHint, nextHint)
	})
}

// RepayDebt burns stablecoin against owner's debt.
func (s *System) RepayDebt(ctx context.Context, owner common.Address, amount *uint256.Int, prevHint, nextHint common.Address) (*trove.TroveResult, error) {
	attrs := []attribute.KeyValue{ownerAttr(owner), amountAttr("amount", amount)}
	return s.adjustWith(ctx, "repay_debt", attrs, func(m *modules) (*trove.TroveResult, error) {
		return m.troves.RepayDebt(owner, amount, m.price, prevHint, nextHint)
	})
}

func (s *System) adjustWith(ctx context.Context, op string, attrs []attribute.KeyValue, fn func(m *modules) (*trove.TroveResult, error)) (*trove.TroveResult, error) {
	var res *trove.TroveResult
	err := s.execute(ctx, op, true, attrs, func(m *modules) error {
		var err error
		if res, err = fn(m); err != nil {
			return err
		}
		m.emitTrove(res, events.TroveOperationAdjust)
		return nil
	})
	return res, err
}

// CloseTrove repays owner's debt and returns the collateral.
func (s *System) CloseTrove(ctx context.Context, owner common.Address) (*trove.TroveResult, error) {
	var res *trove.TroveResult
	err := s.execute(ctx, "close", true, []attribute.KeyValue{ownerAttr(owner)}, func(m *modules) error {
		var err error
		if res, err = m.troves.CloseTrove(owner, m.price); err != nil {
			return err
		}
		m.emitTrove(res, events.TroveOperationClose)
		return nil
	})
	return res, err
}

// ClaimCollateral pays out owner's collateral surplus.
func (s *System) ClaimCollateral(ctx context.Context, owner common.Address) (*uint256.Int, error) {
	var claimed *uint256.Int
	err := s.execute(ctx, "claim", false, []attribute.KeyValue{ownerAttr(owner)}, func(m *modules) error {
		var err error
		if claimed, err = m.troves.ClaimCollateral(owner); err != nil {
			return err
		}
		m.emit(events.CollateralClaimed{TxID: m.txID, Owner: owner, Amount: claimed})
		return nil
	})
	return claimed, err
}

// ProvideToStabilityPool deposits stablecoin into the pool.
func (s *System) ProvideToStabilityPool(ctx context.Context, owner common.Address, amount *uint256.Int) (*stability.Receipt, error) {
	var receipt *stability.Receipt
	attrs := []attribute.KeyValue{ownerAttr(owner), amountAttr("amount", amount)}
	err := s.execute(ctx, "provide", false, attrs, func(m *modules) error {
		var err error
		if receipt, err = m.pool.Provide(owner, amount); err != nil {
			return err
		}
		m.emitDeposit(owner, events.DepositOperationProvide, receipt)
		return nil
	})
	return receipt, err
}

// WithdrawFromStabilityPool withdraws up to the compounded deposit. A zero
// amount only claims gains.
func (s *System) WithdrawFromStabilityPool(ctx context.Context, owner common.Address, amount *uint256.Int) (*stability.Receipt, error) {
	var receipt *stability.Receipt
	attrs := []attribute.KeyValue{ownerAttr(owner), amountAttr("amount", amount)}
	err := s.execute(ctx, "withdraw", true, attrs, func(m *modules) error {
		var err error
		if receipt, err = m.troves.WithdrawFromPool(owner, amount, m.price); err != nil {
			return err
		}
		m.emitDeposit(owner, events.DepositOperationWithdraw, receipt)
		return nil
	})
	return receipt, err
}

// Stake locks reward tokens in the fee staking pool.
func (s *System) Stake(ctx context.Context, owner common.Address, amount *uint256.Int) (*staking.Receipt, error) {
	attrs := []attribute.KeyValue{ownerAttr(owner), amountAttr("amount", amount)}
	return s.stakeWith(ctx, "stake", events.StakeOperationStake, owner, attrs, func(m *modules) (*staking.Receipt, error) {
		return m.staking.Stake(owner, amount)
	})
}

// Unstake releases up to amount of owner's stake. A zero amount only claims
// fee gains.
func (s *System) Unstake(ctx context.Context, owner common.Address, amount *uint256.Int) (*staking.Receipt, error) {
	attrs := []attribute.KeyValue{ownerAttr(owner), amountAttr("amount", amount)}
	return s.stakeWith(ctx, "unstake", events.StakeOperationUnstake, owner, attrs, func(m *modules) (*staking.Receipt, error) {
		return m.staking.Unstake(owner, amount)
	})
}

// ClaimStakingGains pays owner's share of protocol fees.
func (s *System) ClaimStakingGains(ctx context.Context, owner common.Address) (*staking.Receipt, error) {
	attrs := []attribute.KeyValue{ownerAttr(owner)}
	return s.stakeWith(ctx, "claim_stake", events.StakeOperationClaim, owner, attrs, func(m *modules) (*staking.Receipt, error) {
		return m.staking.Claim(owner)
	})
}

func (s *System) stakeWith(ctx context.Context, op, operation string, owner common.Address, attrs []attribute.KeyValue, fn func(m *modules) (*staking.Receipt, error)) (*staking.Receipt, error) {
	var receipt *staking.Receipt
	err := s.execute(ctx, op, false, attrs, func(m *modules) error {
		var err error
		if receipt, err = fn(m); err != nil {
			return err
		}
		m.emit(events.StakeUpdated{
			TxID:       m.txID,
			Owner:      owner,
			Operation:  operation,
			Moved:      receipt.Moved,
			NewStake:   receipt.NewStake,
			CollGain:   receipt.CollGain,
			StableGain: receipt.StableGain,
		})
		return nil
	})
	return receipt, err
}

// WithdrawGainToTrove moves owner's collateral gain into their position.
func (s *System) WithdrawGainToTrove(ctx context.Context, owner, prevHint, nextHint common.Address) (*stability.Receipt, *trove.TroveResult, error) {
	var (
		receipt *stability.Receipt
		res     *trove.TroveResult
	)
	err := s.execute(ctx, "gain_to_trove", true, []attribute.KeyValue{ownerAttr(owner)}, func(m *modules) error {
		var err error
		if receipt, res, err = m.troves.WithdrawGainToTrove(owner, m.price, prevHint, nextHint); err != nil {
			return err
		}
		m.emitDeposit(owner, events.DepositOperationGain, receipt)
		m.emitTrove(res, events.TroveOperationGain)
		return nil
	})
	return receipt, res, err
}

// Liquidate closes a single undercollateralised position.
func (s *System) Liquidate(ctx context.Context, owner, liquidator common.Address) (*trove.LiquidationResult, error) {
	attrs := []attribute.KeyValue{ownerAttr(owner), attribute.String("liquidator", liquidator.Hex())}
	return s.liquidateWith(ctx, "liquidate", liquidator, attrs, func(m *modules) (*trove.LiquidationResult, error) {
		return m.troves.Liquidate(owner, m.price, liquidator)
	})
}

// LiquidateTroves liquidates up to n positions from the riskiest end.
func (s *System) LiquidateTroves(ctx context.Context, n uint64, liquidator common.Address) (*trove.LiquidationResult, error) {
	attrs := []attribute.KeyValue{attribute.Int64("n", int64(n)), attribute.String("liquidator", liquidator.Hex())}
	return s.liquidateWith(ctx, "liquidate_sequence", liquidator, attrs, func(m *modules) (*trove.LiquidationResult, error) {
		return m.troves.LiquidateTroves(n, m.price, liquidator)
	})
}

// BatchLiquidate liquidates every eligible position in owners.
func (s *System) BatchLiquidate(ctx context.Context, owners []common.Address, liquidator common.Address) (*trove.LiquidationResult, error) {
	attrs := []attribute.KeyValue{attribute.Int("batch", len(owners)), attribute.String("liquidator", liquidator.Hex())}
	return s.liquidateWith(ctx, "liquidate_batch", liquidator, attrs, func(m *modules) (*trove.LiquidationResult, error) {
		return m.troves.BatchLiquidate(owners, m.price, liquidator)
	})
}

func (s *System) liquidateWith(ctx context.Context, op string, liquidator common.Address, attrs []attribute.KeyValue, fn func(m *modules) (*trove.LiquidationResult, error)) (*trove.LiquidationResult, error) {
	var res *trove.LiquidationResult
	err := s.execute(ctx, op, true, attrs, func(m *modules) error {
		var err error
		if res, err = fn(m); err != nil {
			return err
		}
		return m.emitLiquidation(res, liquidator)
	})
	if err != nil {
		return nil, err
	}
	s.metrics.RecordLiquidated(len(res.Liquidated))
	s.logger.Info("liquidation committed",
		"operation", op,
		"troves", len(res.Liquidated),
		"debt", formatAmount(res.LiquidatedDebt),
		"offset", formatAmount(res.DebtOffset),
		"redistributed", formatAmount(res.DebtRedistributed),
		"recoveryMode", res.RecoveryModeAtStart,
	)
	if off := res.Offset; off != nil && (off.EpochAdvanced || off.ScaleAdvanced) {
		s.logger.Info("stability pool rescaled", "epoch", off.CurrentEpoch, "scale", off.CurrentScale)
	}
	return res, nil
}

// Redeem exchanges stablecoin for collateral. When the request carries no
// hints they are computed against the current state, and the amount is
// truncated to what the hinted walk can redeem.
func (s *System) Redeem(ctx context.Context, redeemer common.Address, req trove.RedeemRequest) (*trove.RedemptionResult, error) {
	var res *trove.RedemptionResult
	attrs := []attribute.KeyValue{ownerAttr(redeemer), amountAttr("amount", req.Amount)}
	err := s.execute(ctx, "redeem", true, attrs, func(m *modules) error {
		if req.FirstHint == (common.Address{}) && (req.PartialNICR == nil || req.PartialNICR.IsZero()) {
			if err := s.fillRedemptionHints(m, &req); err != nil {
				return err
			}
		}
		var err error
		if res, err = m.troves.Redeem(redeemer, req, m.price); err != nil {
			return err
		}
		for _, rt := range res.Troves {
			status := trove.StatusActive
			if rt.Closed {
				status = trove.StatusClosedByRedemption
			}
			m.emit(events.TroveUpdated{
				TxID:      m.txID,
				Owner:     rt.Owner,
				Operation: events.TroveOperationRedeem,
				Status:    status.String(),
				Coll:      rt.NewColl,
				Debt:      rt.NewDebt,
			})
		}
		m.emit(events.Redemption{
			TxID:          m.txID,
			Redeemer:      redeemer,
			Attempted:     res.Attempted,
			Redeemed:      res.Redeemed,
			CollSent:      res.CollSent,
			CollFee:       res.CollFee,
			BaseRate:      res.BaseRate,
			Troves:        len(res.Troves),
			PartialCancel: res.PartialCancel,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.RecordRedeemed(res.Redeemed)
	s.logger.Info("redemption committed",
		"redeemer", redeemer.Hex(),
		"redeemed", formatAmount(res.Redeemed),
		"troves", len(res.Troves),
		"partialCancel", res.PartialCancel,
	)
	return res, nil
}

func (s *System) fillRedemptionHints(m *modules, req *trove.RedeemRequest) error {
	iterations := req.MaxIterations
	if iterations == 0 {
		iterations = m.troves.Limits().MaxRedemptionIterations
	}
	hints, err := m.troves.RedemptionHints(req.Amount, m.price, iterations)
	if err != nil {
		return err
	}
	req.FirstHint = hints.FirstHint
	req.PartialNICR = hints.PartialNICR
	if !hints.TruncatedAmount.IsZero() {
		req.Amount = hints.TruncatedAmount
	}
	if hints.PartialNICR.IsZero() {
		return nil
	}
	req.UpperPartialHint, req.LowerPartialHint, err = m.troves.InsertHints(hints.PartialNICR, 0, s.sampler)
	return err
}

func (m *modules) emitTrove(res *trove.TroveResult, operation string) {
	if res == nil {
		return
	}
	m.emit(events.TroveUpdated{
		TxID:      m.txID,
		Owner:     res.Owner,
		Operation: operation,
		Status:    res.Status.String(),
		Coll:      res.Coll,
		Debt:      res.Debt,
		Stake:     res.Stake,
	})
	if res.Fee != nil && !res.Fee.IsZero() {
		m.emit(events.BorrowingFeePaid{TxID: m.txID, Owner: res.Owner, Fee: res.Fee})
	}
}

func (m *modules) emitDeposit(owner common.Address, operation string, receipt *stability.Receipt) {
	if receipt == nil {
		return
	}
	m.emit(events.DepositUpdated{
		TxID:           m.txID,
		Owner:          owner,
		Operation:      operation,
		Moved:          receipt.Moved,
		NewDeposit:     receipt.NewDeposit,
		CollateralGain: receipt.CollateralGain,
		RewardGain:     receipt.RewardGain,
	})
}

func (m *modules) emitLiquidation(res *trove.LiquidationResult, liquidator common.Address) error {
	for _, lt := range res.Liquidated {
		m.emit(events.TroveLiquidated{TxID: m.txID, Owner: lt.Owner, Debt: lt.Debt, Coll: lt.Coll, Mode: string(lt.Mode)})
		m.emit(events.TroveUpdated{
			TxID:      m.txID,
			Owner:     lt.Owner,
			Operation: events.TroveOperationLiquidate,
			Status:    trove.StatusClosedByLiquidation.String(),
		})
	}
	m.emit(events.Liquidation{
		TxID:                  m.txID,
		Liquidator:            liquidator,
		Count:                 len(res.Liquidated),
		RecoveryMode:          res.RecoveryModeAtStart,
		LiquidatedDebt:        res.LiquidatedDebt,
		LiquidatedColl:        res.LiquidatedColl,
		CollGasCompensation:   res.CollGasCompensation,
		StableGasCompensation: res.StableGasCompensation,
		DebtOffset:            res.DebtOffset,
		DebtRedistributed:     res.DebtRedistributed,
		CollSurplus:           res.CollSurplus,
	})
	if off := res.Offset; off != nil && off.Applied {
		m.emit(events.PoolOffset{
			TxID:          m.txID,
			DebtOffset:    res.DebtOffset,
			CollAdded:     res.CollToStabilityPool,
			P:             off.P,
			Scale:         off.CurrentScale,
			Epoch:         off.CurrentEpoch,
			TotalDeposits: off.TotalDepositsAfter,
		})
		if off.EpochAdvanced {
			m.emit(events.EpochUpdated{TxID: m.txID, Epoch: off.CurrentEpoch})
		}
		if off.ScaleAdvanced {
			m.emit(events.ScaleUpdated{TxID: m.txID, Scale: off.CurrentScale})
		}
	}
	if res.DebtRedistributed != nil && !res.DebtRedistributed.IsZero() {
		g, err := m.tx.TroveGlobals()
		if err != nil {
			return err
		}
		m.emit(events.Redistribution{
			TxID:                    m.txID,
			LColl:                   g.LColl,
			LDebt:                   g.LDebt,
			TotalStakesSnapshot:     g.TotalStakesSnapshot,
			TotalCollateralSnapshot: g.TotalCollateralSnapshot,
		})
	}
	return nil
}
