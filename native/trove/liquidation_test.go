package trove

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"trovechain/native/bank"
	"trovechain/native/decmath"
)

// threeTroves opens alice (20/2000), bob (100/5000) and carol (13/2000) at a
// price of 200. Dropping the price to 180 leaves only carol below MCR.
func threeTroves(t *testing.T) (*harness, common.Address, common.Address, common.Address) {
	h := newHarness(t)
	price := units(200)
	alice, bob, carol := addr(1), addr(2), addr(3)
	h.open(alice, 20, 2000, price)
	h.open(bob, 100, 5000, price)
	h.open(carol, 13, 2000, price)
	return h, alice, bob, carol
}

func TestLiquidateRedistributesWithEmptyPool(t *testing.T) {
	h, alice, _, carol := threeTroves(t)
	price := units(180)
	liquidator := addr(50)

	_, err := h.engine.Liquidate(alice, price, liquidator)
	require.ErrorIs(t, err, ErrNotLiquidatable)

	res, err := h.engine.Liquidate(carol, price, liquidator)
	require.NoError(t, err)
	require.Len(t, res.Liquidated, 1)
	require.Equal(t, ModeNormal, res.Liquidated[0].Mode)
	require.False(t, res.RecoveryModeAtStart)
	require.Equal(t, units(2210).String(), res.DebtRedistributed.String())
	require.Equal(t, decmath.Frac(12935, 1000).String(), res.CollRedistributed.String())
	require.Equal(t, decmath.Frac(65, 1000).String(), res.CollGasCompensation.String())
	require.True(t, res.DebtOffset.IsZero())
	require.Equal(t, StatusClosedByLiquidation, h.trove(carol).Status)

	require.Equal(t, units(200).String(), h.balance(bank.TokenStable, liquidator).String())
	require.Equal(t, decmath.Frac(65, 1000).String(), h.balance(bank.TokenCollateral, liquidator).String())
	require.Equal(t, decmath.Frac(12935, 1000).String(), h.balance(bank.TokenCollateral, bank.DefaultPool).String())

	g := h.globals()
	require.Equal(t, units(2210).String(), g.DefaultDebt.String())
	require.Equal(t, units(120).String(), g.TotalStakes.String())
	require.Equal(t, units(120).String(), g.TotalStakesSnapshot.String())
	require.Equal(t, decmath.Frac(132935, 1000).String(), g.TotalCollateralSnapshot.String())
	h.requireBacked()

	view, err := h.engine.TroveView(alice, price)
	require.NoError(t, err)
	wantPending := decmath.MulDiv(units(2210), units(20), units(120))
	if decmath.Diff(view.PendingDebt, wantPending).Gt(uint256.NewInt(1_000)) {
		t.Fatalf("pending debt %s, want about %s", view.PendingDebt, wantPending)
	}
	require.False(t, view.PendingDebt.Gt(wantPending))

	// Touching the position folds the rewards in and drains the default pool.
	require.NoError(t, h.ledger.Mint(bank.TokenCollateral, alice, units(1)))
	_, err = h.engine.AdjustTrove(alice, AdjustRequest{CollDeposit: units(1)}, price)
	require.NoError(t, err)
	tr := h.trove(alice)
	require.Equal(t, decmath.Add(units(2210), view.PendingDebt).String(), tr.Debt.String())
	require.Equal(t, decmath.Add(units(21), view.PendingColl).String(), tr.Coll.String())
	require.Equal(t, decmath.Sub(units(2210), view.PendingDebt).String(), h.globals().DefaultDebt.String())
	h.requireBacked()
}

func TestStakeScalesAfterLiquidation(t *testing.T) {
	h, _, _, carol := threeTroves(t)
	price := units(180)
	_, err := h.engine.Liquidate(carol, price, addr(50))
	require.NoError(t, err)

	res := h.open(addr(4), 30, 2000, price)
	want := decmath.MulDiv(units(30), units(120), decmath.Frac(132935, 1000))
	require.Equal(t, want.String(), res.Stake.String())
	require.True(t, res.Stake.Lt(units(30)))
}

func TestLiquidateOffsetsAgainstPool(t *testing.T) {
	h, _, bob, carol := threeTroves(t)
	price := units(180)
	_, err := h.pool.Provide(bob, units(5000))
	require.NoError(t, err)

	_, err = h.engine.WithdrawFromPool(bob, units(1), price)
	require.ErrorIs(t, err, ErrUndercollateralized)
	_, err = h.engine.WithdrawFromPool(bob, nil, price)
	require.NoError(t, err)

	res, err := h.engine.Liquidate(carol, price, addr(50))
	require.NoError(t, err)
	require.Equal(t, units(2210).String(), res.DebtOffset.String())
	require.Equal(t, decmath.Frac(12935, 1000).String(), res.CollToStabilityPool.String())
	require.True(t, res.DebtRedistributed.IsZero())
	require.True(t, res.Offset.Applied)

	deposits, err := h.pool.TotalDeposits()
	require.NoError(t, err)
	require.Equal(t, units(2790).String(), deposits.String())
	require.True(t, h.globals().DefaultDebt.IsZero())
	h.requireBacked()

	gain, err := h.pool.CollateralGain(bob)
	require.NoError(t, err)
	require.Equal(t, decmath.Frac(12935, 1000).String(), gain.String())

	before := h.trove(bob).Coll
	receipt, tres, err := h.engine.WithdrawGainToTrove(bob, price, common.Address{}, common.Address{})
	require.NoError(t, err)
	require.Equal(t, gain.String(), receipt.CollateralGain.String())
	require.Equal(t, decmath.Add(before, gain).String(), tres.Coll.String())
	require.True(t, h.balance(bank.TokenCollateral, bank.StabilityPool).IsZero())
	h.requireBacked()

	_, _, err = h.engine.WithdrawGainToTrove(bob, price, common.Address{}, common.Address{})
	require.ErrorIs(t, err, ErrNoCollateralGain)

	// With the riskiest position healthy again principal can leave.
	_, err = h.engine.WithdrawFromPool(bob, units(100), price)
	require.NoError(t, err)
}

func TestLiquidateTrovesStopsAtHealthyPosition(t *testing.T) {
	h, alice, _, carol := threeTroves(t)
	price := units(180)

	res, err := h.engine.LiquidateTroves(10, price, addr(50))
	require.NoError(t, err)
	require.Len(t, res.Liquidated, 1)
	require.Equal(t, carol, res.Liquidated[0].Owner)
	require.Equal(t, StatusActive, h.trove(alice).Status)
	h.requireBacked()

	_, err = h.engine.LiquidateTroves(10, price, addr(50))
	require.ErrorIs(t, err, ErrNothingToLiquidate)
}

func TestBatchLiquidateSkipsHealthyAndInactive(t *testing.T) {
	h, alice, _, carol := threeTroves(t)
	price := units(180)

	_, err := h.engine.BatchLiquidate(nil, price, addr(50))
	require.ErrorIs(t, err, ErrEmptyBatch)

	res, err := h.engine.BatchLiquidate([]common.Address{alice, carol, carol, addr(77)}, price, addr(50))
	require.NoError(t, err)
	require.Len(t, res.Liquidated, 1)
	require.Equal(t, carol, res.Liquidated[0].Owner)
	h.requireBacked()
}

// recoveryTroves opens alice (25/2000), dave (45/3000) and erin (30/2000) at
// 200 and has dave deposit his stablecoins. At 100 the system TCR is about
// 1.31 and alice sits between MCR and TCR.
func recoveryTroves(t *testing.T) (*harness, common.Address, common.Address, common.Address) {
	h := newHarness(t)
	price := units(200)
	alice, dave, erin := addr(1), addr(4), addr(5)
	h.open(alice, 25, 2000, price)
	h.open(dave, 45, 3000, price)
	h.open(erin, 30, 2000, price)
	_, err := h.pool.Provide(dave, units(3000))
	require.NoError(t, err)
	return h, alice, dave, erin
}

func TestRecoveryModeCappedLiquidation(t *testing.T) {
	h, alice, _, erin := recoveryTroves(t)
	price := units(100)
	liquidator := addr(50)

	recovery, err := h.engine.RecoveryMode(price)
	require.NoError(t, err)
	require.True(t, recovery)

	_, err = h.engine.Liquidate(erin, price, liquidator)
	require.ErrorIs(t, err, ErrNotLiquidatable, "ICR above TCR is safe in recovery mode")

	res, err := h.engine.Liquidate(alice, price, liquidator)
	require.NoError(t, err)
	require.True(t, res.RecoveryModeAtStart)
	require.Len(t, res.Liquidated, 1)
	require.Equal(t, ModeCappedOffset, res.Liquidated[0].Mode)
	require.Equal(t, units(2210).String(), res.DebtOffset.String())
	require.Equal(t, decmath.Frac(2418845, 100000).String(), res.CollToStabilityPool.String())
	require.Equal(t, decmath.Frac(12155, 100000).String(), res.CollGasCompensation.String())
	require.Equal(t, decmath.Frac(69, 100).String(), res.CollSurplus.String())
	require.Equal(t, decmath.Frac(2418845, 100000).String(), res.LiquidatedColl.String())

	deposits, err := h.pool.TotalDeposits()
	require.NoError(t, err)
	require.Equal(t, units(790).String(), deposits.String())
	require.Equal(t, decmath.Frac(69, 100).String(), h.balance(bank.TokenCollateral, bank.CollSurplusPool).String())
	h.requireBacked()

	_, err = h.engine.CloseTrove(erin, price)
	require.ErrorIs(t, err, ErrCloseInRecovery)
	_, err = h.engine.AdjustTrove(erin, AdjustRequest{CollWithdrawal: units(1)}, price)
	require.ErrorIs(t, err, ErrCollWithdrawalRM)

	claimed, err := h.engine.ClaimCollateral(alice)
	require.NoError(t, err)
	require.Equal(t, decmath.Frac(69, 100).String(), claimed.String())
	require.Equal(t, decmath.Frac(69, 100).String(), h.balance(bank.TokenCollateral, alice).String())
	_, err = h.engine.ClaimCollateral(alice)
	require.ErrorIs(t, err, ErrNoSurplus)
}

func TestRecoveryModeRedistributesBelowHundredPercent(t *testing.T) {
	h, alice, _, _ := recoveryTroves(t)
	// At 80 alice's ICR is 2000/2210 < 100%.
	price := units(80)
	res, err := h.engine.Liquidate(alice, price, addr(50))
	require.NoError(t, err)
	require.Equal(t, ModeRedistribution, res.Liquidated[0].Mode)
	require.True(t, res.DebtOffset.IsZero())
	require.Equal(t, units(2210).String(), res.DebtRedistributed.String())
	require.Equal(t, units(2210).String(), h.globals().DefaultDebt.String())
	h.requireBacked()
}

func TestLiquidationThresholdIsStrict(t *testing.T) {
	h, _, _, carol := threeTroves(t)
	liquidator := addr(50)

	// 13 * 187 / 2210 is exactly 1.1.
	atMCR := units(187)
	icr, err := h.engine.CurrentICR(carol, atMCR)
	require.NoError(t, err)
	require.Equal(t, DefaultParams().MCR.String(), icr.String())
	_, err = h.engine.Liquidate(carol, atMCR, liquidator)
	require.ErrorIs(t, err, ErrNotLiquidatable)
	_, err = h.engine.LiquidateTroves(10, atMCR, liquidator)
	require.ErrorIs(t, err, ErrNothingToLiquidate)

	belowMCR := decmath.Sub(units(187), uint256.NewInt(1))
	icr, err = h.engine.CurrentICR(carol, belowMCR)
	require.NoError(t, err)
	require.Equal(t, "1099999999999999999", icr.Dec())
	res, err := h.engine.Liquidate(carol, belowMCR, liquidator)
	require.NoError(t, err)
	require.Len(t, res.Liquidated, 1)
	require.Equal(t, carol, res.Liquidated[0].Owner)
	require.Equal(t, ModeNormal, res.Liquidated[0].Mode)
	h.requireBacked()
}

// switchbackTroves opens whale (60/2000), mid (25/2000) and risky
// (55/5000) at 200 and puts every borrowed stablecoin in the pool. At 100
// the TCR is about 1.45; without risky it is about 1.92 while mid keeps an
// ICR of about 1.13.
func switchbackTroves(t *testing.T) (*harness, common.Address, common.Address, common.Address) {
	h := newHarness(t)
	price := units(200)
	whale, mid, risky := addr(6), addr(7), addr(8)
	h.open(whale, 60, 2000, price)
	h.open(mid, 25, 2000, price)
	h.open(risky, 55, 5000, price)
	for _, d := range []struct {
		owner  common.Address
		amount uint64
	}{{whale, 2000}, {mid, 2000}, {risky, 5000}} {
		_, err := h.pool.Provide(d.owner, units(d.amount))
		require.NoError(t, err)
	}
	return h, whale, mid, risky
}

func TestLiquidateTrovesReturnsToNormalMode(t *testing.T) {
	h, _, mid, risky := switchbackTroves(t)
	price := units(100)

	recovery, err := h.engine.RecoveryMode(price)
	require.NoError(t, err)
	require.True(t, recovery)
	icr, err := h.engine.CurrentICR(mid, price)
	require.NoError(t, err)
	tcr, err := h.engine.TCR(price)
	require.NoError(t, err)
	require.True(t, icr.Lt(tcr))
	require.False(t, icr.Lt(DefaultParams().MCR))

	res, err := h.engine.LiquidateTroves(10, price, addr(50))
	require.NoError(t, err)
	require.True(t, res.RecoveryModeAtStart)
	require.Len(t, res.Liquidated, 1)
	require.Equal(t, risky, res.Liquidated[0].Owner)
	require.Equal(t, ModeNormal, res.Liquidated[0].Mode)
	require.Equal(t, units(5225).String(), res.DebtOffset.String())
	require.True(t, res.DebtRedistributed.IsZero())

	// Once risky is gone mid is judged against MCR and stays open even
	// though the pool could still absorb it.
	require.Equal(t, StatusActive, h.trove(mid).Status)
	deposits, err := h.pool.TotalDeposits()
	require.NoError(t, err)
	require.Equal(t, units(3775).String(), deposits.String())
	recovery, err = h.engine.RecoveryMode(price)
	require.NoError(t, err)
	require.False(t, recovery)
	h.requireBacked()
}

func TestRecoveryModeWouldCapMidPosition(t *testing.T) {
	h, _, mid, _ := switchbackTroves(t)
	res, err := h.engine.Liquidate(mid, units(100), addr(50))
	require.NoError(t, err)
	require.True(t, res.RecoveryModeAtStart)
	require.Equal(t, ModeCappedOffset, res.Liquidated[0].Mode)
	h.requireBacked()
}

func TestLiquidationSplitsBetweenPoolAndRedistribution(t *testing.T) {
	h, alice, bob, carol := threeTroves(t)
	price := units(180)
	_, err := h.pool.Provide(bob, units(1000))
	require.NoError(t, err)

	res, err := h.engine.Liquidate(carol, price, addr(50))
	require.NoError(t, err)
	require.Equal(t, ModeNormal, res.Liquidated[0].Mode)
	require.Equal(t, units(1000).String(), res.DebtOffset.String())
	require.Equal(t, units(1210).String(), res.DebtRedistributed.String())

	collToSP := decmath.MulDiv(decmath.Frac(12935, 1000), units(1000), units(2210))
	require.Equal(t, collToSP.String(), res.CollToStabilityPool.String())
	require.Equal(t, decmath.Sub(decmath.Frac(12935, 1000), collToSP).String(), res.CollRedistributed.String())

	// The offset consumed every deposit.
	require.True(t, res.Offset.Applied)
	require.True(t, res.Offset.EpochAdvanced)
	require.Equal(t, uint64(1), res.Offset.CurrentEpoch)
	deposits, err := h.pool.TotalDeposits()
	require.NoError(t, err)
	require.True(t, deposits.IsZero())
	compounded, err := h.pool.CompoundedDeposit(bob)
	require.NoError(t, err)
	require.True(t, compounded.IsZero())
	gain, err := h.pool.CollateralGain(bob)
	require.NoError(t, err)
	require.False(t, gain.Gt(collToSP))
	require.True(t, decmath.Diff(gain, collToSP).Lt(uint256.NewInt(1_000_000)))

	require.Equal(t, units(1210).String(), h.globals().DefaultDebt.String())
	require.Equal(t, decmath.Sub(decmath.Frac(12935, 1000), collToSP).String(), h.balance(bank.TokenCollateral, bank.DefaultPool).String())
	h.requireBacked()

	view, err := h.engine.TroveView(alice, price)
	require.NoError(t, err)
	require.False(t, view.PendingDebt.IsZero())
}
