package trove

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"trovechain/native/bank"
	"trovechain/native/decmath"
)

// redemptionTroves opens alice (20/2000), bob (30/2000) and carol
// (100/5000) at 200. Alice is the tail of the list.
func redemptionTroves(t *testing.T) (*harness, common.Address, common.Address, common.Address) {
	h := newHarness(t)
	price := units(200)
	alice, bob, carol := addr(1), addr(2), addr(3)
	h.open(alice, 20, 2000, price)
	h.open(bob, 30, 2000, price)
	h.open(carol, 100, 5000, price)
	return h, alice, bob, carol
}

func TestRedeemBlockedDuringBootstrap(t *testing.T) {
	h, _, _, carol := redemptionTroves(t)
	_, err := h.engine.Redeem(carol, RedeemRequest{Amount: units(100), MaxFee: decmath.One()}, units(200))
	require.ErrorIs(t, err, ErrBootstrapPeriod)
}

func TestRedeemValidation(t *testing.T) {
	h, _, _, carol := redemptionTroves(t)
	h.now = h.now.Add(15 * 24 * time.Hour)
	price := units(200)

	_, err := h.engine.Redeem(carol, RedeemRequest{Amount: units(100), MaxFee: decmath.Frac(1, 1000)}, price)
	require.ErrorIs(t, err, ErrMaxFeeRange)
	_, err = h.engine.Redeem(carol, RedeemRequest{Amount: new(uint256.Int), MaxFee: decmath.One()}, price)
	require.ErrorIs(t, err, ErrZeroAmount)
	_, err = h.engine.Redeem(carol, RedeemRequest{Amount: units(6000), MaxFee: decmath.One()}, price)
	require.ErrorIs(t, err, ErrInsufficientStable)
	_, err = h.engine.Redeem(carol, RedeemRequest{Amount: units(100), MaxFee: decmath.One()}, new(uint256.Int))
	require.ErrorIs(t, err, ErrZeroPrice)
}

func TestRedeemClosesRiskiestTrove(t *testing.T) {
	h, alice, bob, carol := redemptionTroves(t)
	h.now = h.now.Add(15 * 24 * time.Hour)
	price := units(200)

	res, err := h.engine.Redeem(carol, RedeemRequest{Amount: units(2010), MaxFee: decmath.One()}, price)
	require.NoError(t, err)
	require.Len(t, res.Troves, 1)
	require.True(t, res.Troves[0].Closed)
	require.Equal(t, alice, res.Troves[0].Owner)
	require.Equal(t, units(2010).String(), res.Redeemed.String())
	collDrawn := decmath.Frac(1005, 100)
	require.Equal(t, collDrawn.String(), res.CollDrawn.String())

	rate := decmath.Div(decmath.MulDiv(collDrawn, price, units(9645)), uint256.NewInt(2))
	fee := decmath.MulFrac(collDrawn, decmath.Add(decmath.Frac(5, 1000), rate))
	require.Equal(t, rate.String(), res.BaseRate.String())
	require.Equal(t, fee.String(), res.CollFee.String())
	require.Equal(t, decmath.Sub(collDrawn, fee).String(), h.balance(bank.TokenCollateral, carol).String())
	require.Equal(t, fee.String(), h.balance(bank.TokenCollateral, bank.StakingPool).String())
	require.Equal(t, units(2990).String(), h.balance(bank.TokenStable, carol).String())
	require.Equal(t, rate.String(), h.globals().BaseRate.String())

	require.Equal(t, StatusClosedByRedemption, h.trove(alice).Status)
	require.Equal(t, StatusActive, h.trove(bob).Status)
	require.Equal(t, decmath.Frac(995, 100).String(), h.balance(bank.TokenCollateral, bank.CollSurplusPool).String())
	h.requireBacked()

	claimed, err := h.engine.ClaimCollateral(alice)
	require.NoError(t, err)
	require.Equal(t, decmath.Frac(995, 100).String(), claimed.String())
}

func TestRedeemPartiallyWithHints(t *testing.T) {
	h, alice, bob, carol := redemptionTroves(t)
	h.now = h.now.Add(15 * 24 * time.Hour)
	price := units(200)

	hints, err := h.engine.RedemptionHints(units(2500), price, 0)
	require.NoError(t, err)
	require.Equal(t, alice, hints.FirstHint)
	require.Equal(t, units(2220).String(), hints.TruncatedAmount.String())
	wantNICR := decmath.ComputeNominalCR(decmath.Frac(2895, 100), units(2000))
	require.Equal(t, wantNICR.String(), hints.PartialNICR.String())

	res, err := h.engine.Redeem(carol, RedeemRequest{
		Amount:      hints.TruncatedAmount,
		FirstHint:   hints.FirstHint,
		PartialNICR: hints.PartialNICR,
		MaxFee:      decmath.One(),
	}, price)
	require.NoError(t, err)
	require.False(t, res.PartialCancel)
	require.Len(t, res.Troves, 2)
	require.True(t, res.Troves[0].Closed)
	require.False(t, res.Troves[1].Closed)
	require.Equal(t, units(2220).String(), res.Redeemed.String())
	require.Equal(t, decmath.Frac(111, 10).String(), res.CollDrawn.String())

	tr := h.trove(bob)
	require.Equal(t, units(2000).String(), tr.Debt.String())
	require.Equal(t, decmath.Frac(2895, 100).String(), tr.Coll.String())
	require.Equal(t, tr.Coll.String(), tr.Stake.String())
	h.requireBacked()
}

func TestRedeemCancelsStalePartial(t *testing.T) {
	h, _, bob, carol := redemptionTroves(t)
	h.now = h.now.Add(15 * 24 * time.Hour)
	price := units(200)

	res, err := h.engine.Redeem(carol, RedeemRequest{Amount: units(2500), MaxFee: decmath.One()}, price)
	require.NoError(t, err)
	require.True(t, res.PartialCancel)
	require.Len(t, res.Troves, 1)
	require.Equal(t, units(2010).String(), res.Redeemed.String())
	require.Equal(t, units(2990).String(), h.balance(bank.TokenStable, carol).String())
	require.Equal(t, units(2210).String(), h.trove(bob).Debt.String())
	h.requireBacked()
}

func TestApproxHintFindsClosePosition(t *testing.T) {
	h := newHarness(t)
	price := units(200)
	for i := byte(1); i <= 12; i++ {
		h.open(addr(i), 15+uint64(i)*5, 2000, price)
	}
	target := decmath.ComputeNominalCR(units(47), units(2210))

	tail, err := h.list.Last()
	require.NoError(t, err)
	tailNICR, err := h.engine.NominalICR(tail)
	require.NoError(t, err)

	hint, diff, err := h.engine.ApproxHint(target, 50, rand.New(rand.NewPCG(1, 2)))
	require.NoError(t, err)
	listed, err := h.list.Contains(hint)
	require.NoError(t, err)
	require.True(t, listed)
	require.False(t, diff.Gt(decmath.Diff(tailNICR, target)))

	prev, next, err := h.engine.InsertHints(target, 0, NewKeccakSampler(7))
	require.NoError(t, err)
	valid, err := h.list.ValidInsertPosition(target, prev, next)
	require.NoError(t, err)
	require.True(t, valid)

	require.Equal(t, uint64(150), h.engine.DefaultHintTrials(100))
}

func TestKeccakSamplerIsDeterministic(t *testing.T) {
	a, b := NewKeccakSampler(42), NewKeccakSampler(42)
	for i := 0; i < 20; i++ {
		x, y := a.Uint64N(1000), b.Uint64N(1000)
		if x != y {
			t.Fatalf("draw %d diverged: %d != %d", i, x, y)
		}
		if x >= 1000 {
			t.Fatalf("draw %d out of range: %d", i, x)
		}
	}
	require.Equal(t, a.Seed(), b.Seed())
}
