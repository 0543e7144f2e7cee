package trove

import (
	"errors"
	"testing"
	"time"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"trovechain/native/bank"
	nativecommon "trovechain/native/common"
	"trovechain/native/decmath"
)

func TestOpenTroveChargesFeeAndMints(t *testing.T) {
	h := newHarness(t)
	price := units(200)
	alice := addr(1)

	res := h.open(alice, 20, 2000, price)
	require.Equal(t, units(10).String(), res.Fee.String())
	require.Equal(t, units(2210).String(), res.Debt.String())
	require.Equal(t, units(20).String(), res.Stake.String())
	require.Equal(t, StatusActive, res.Status)

	require.Equal(t, units(2000).String(), h.balance(bank.TokenStable, alice).String())
	require.Equal(t, units(200).String(), h.balance(bank.TokenStable, bank.GasPool).String())
	require.Equal(t, units(10).String(), h.balance(bank.TokenStable, bank.StakingPool).String())
	require.True(t, h.balance(bank.TokenCollateral, alice).IsZero())
	h.requireBacked()

	require.NoError(t, h.ledger.Mint(bank.TokenCollateral, alice, units(20)))
	_, err := h.engine.OpenTrove(alice, OpenRequest{Coll: units(20), Borrow: units(2000), MaxFee: decmath.Frac(5, 100)}, price)
	if !errors.Is(err, ErrTroveActive) {
		t.Fatalf("expected duplicate open rejection, got %v", err)
	}
}

func TestOpenTroveValidation(t *testing.T) {
	h := newHarness(t)
	price := units(200)
	bob := addr(2)
	require.NoError(t, h.ledger.Mint(bank.TokenCollateral, bob, units(100)))

	cases := []struct {
		name string
		req  OpenRequest
		want error
	}{
		{"below min net debt", OpenRequest{Coll: units(20), Borrow: units(1000), MaxFee: decmath.Frac(5, 100)}, ErrBelowMinNetDebt},
		{"below MCR", OpenRequest{Coll: units(11), Borrow: units(2000), MaxFee: decmath.Frac(5, 100)}, ErrICRBelowMCR},
		{"max fee below floor", OpenRequest{Coll: units(20), Borrow: units(2000), MaxFee: decmath.Frac(1, 1000)}, ErrMaxFeeRange},
		{"max fee above one", OpenRequest{Coll: units(20), Borrow: units(2000), MaxFee: units(2)}, ErrMaxFeeRange},
		{"zero collateral", OpenRequest{Coll: new(uint256.Int), Borrow: units(2000), MaxFee: decmath.Frac(5, 100)}, ErrZeroAmount},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := h.engine.OpenTrove(bob, tc.req, price)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestOpenTroveRespectsPause(t *testing.T) {
	h := newHarness(t)
	h.engine.SetPauses(nativecommon.NewPauseSet([]string{"trove.open"}))
	_, err := h.engine.OpenTrove(addr(1), OpenRequest{Coll: units(20), Borrow: units(2000), MaxFee: decmath.Frac(5, 100)}, units(200))
	if !errors.Is(err, nativecommon.ErrModulePaused) {
		t.Fatalf("expected pause error, got %v", err)
	}
}

func TestAdjustTrove(t *testing.T) {
	h := newHarness(t)
	price := units(200)
	alice, bob := addr(1), addr(2)
	h.open(alice, 20, 2000, price)
	h.open(bob, 100, 5000, price)

	res, err := h.engine.AdjustTrove(alice, AdjustRequest{DebtChange: units(100)}, price)
	require.NoError(t, err)
	require.Equal(t, units(2110).String(), res.Debt.String())
	require.Equal(t, units(1900).String(), h.balance(bank.TokenStable, alice).String())
	h.requireBacked()

	_, err = h.engine.AdjustTrove(alice, AdjustRequest{DebtChange: units(300)}, price)
	require.ErrorIs(t, err, ErrBelowMinNetDebt)

	res, err = h.engine.AdjustTrove(alice, AdjustRequest{CollWithdrawal: units(5)}, price)
	require.NoError(t, err)
	require.Equal(t, units(15).String(), res.Coll.String())
	require.Equal(t, units(5).String(), h.balance(bank.TokenCollateral, alice).String())
	h.requireBacked()

	res, err = h.engine.AdjustTrove(alice, AdjustRequest{
		DebtChange:   units(100),
		DebtIncrease: true,
		MaxFee:       decmath.Frac(5, 100),
	}, price)
	require.NoError(t, err)
	require.Equal(t, decmath.Frac(5, 10).String(), res.Fee.String())
	require.Equal(t, decmath.Frac(22105, 10).String(), res.Debt.String())
	h.requireBacked()

	_, err = h.engine.AdjustTrove(alice, AdjustRequest{CollDeposit: units(1), CollWithdrawal: units(1)}, price)
	require.ErrorIs(t, err, ErrSingularCollChange)
	_, err = h.engine.AdjustTrove(alice, AdjustRequest{}, price)
	require.ErrorIs(t, err, ErrNoAdjustment)
	_, err = h.engine.AdjustTrove(alice, AdjustRequest{CollWithdrawal: units(16)}, price)
	require.ErrorIs(t, err, ErrCollWithdrawalLimit)
	_, err = h.engine.AdjustTrove(alice, AdjustRequest{CollWithdrawal: units(14)}, price)
	require.ErrorIs(t, err, ErrICRBelowMCR)
	_, err = h.engine.AdjustTrove(addr(9), AdjustRequest{CollDeposit: units(1)}, price)
	require.ErrorIs(t, err, ErrTroveNotActive)
}

func TestCloseTrove(t *testing.T) {
	h := newHarness(t)
	price := units(200)
	alice, bob := addr(1), addr(2)
	h.open(alice, 20, 2000, price)
	h.open(bob, 100, 5000, price)

	_, err := h.engine.CloseTrove(alice, price)
	require.ErrorIs(t, err, ErrInsufficientStable)

	// Alice needs the fee portion of her debt from someone else.
	require.NoError(t, h.ledger.Transfer(bank.TokenStable, bob, alice, units(10)))
	res, err := h.engine.CloseTrove(alice, price)
	require.NoError(t, err)
	require.Equal(t, StatusClosedByOwner, res.Status)
	require.Equal(t, StatusClosedByOwner, h.trove(alice).Status)
	require.True(t, h.balance(bank.TokenStable, alice).IsZero())
	require.Equal(t, units(20).String(), h.balance(bank.TokenCollateral, alice).String())
	require.Equal(t, units(200).String(), h.balance(bank.TokenStable, bank.GasPool).String())
	h.requireBacked()

	listed, err := h.list.Contains(alice)
	require.NoError(t, err)
	require.False(t, listed)

	require.NoError(t, h.ledger.Mint(bank.TokenStable, bob, units(1000)))
	_, err = h.engine.CloseTrove(bob, price)
	require.ErrorIs(t, err, ErrOnlyOneTrove)
}

func TestFeeDecaysWithHalfLifeOfTwelveHours(t *testing.T) {
	h := newHarness(t)
	g := h.globals()
	g.BaseRate = decmath.One()
	g.LastFeeOperationTime = uint64(h.now.Unix())
	require.NoError(t, h.state.PutTroveGlobals(g))

	h.now = h.now.Add(12 * time.Hour)
	rate, err := h.engine.RedemptionRate()
	require.NoError(t, err)
	want := decmath.Frac(505, 1000)
	if decmath.Diff(rate, want).Gt(decmath.Frac(1, 1000)) {
		t.Fatalf("expected rate near %s, got %s", decmath.Format(want), decmath.Format(rate))
	}

	fee, err := h.engine.BorrowingFee(units(1000))
	require.NoError(t, err)
	require.Equal(t, units(50).String(), fee.String(), "borrowing fee is capped")
}
