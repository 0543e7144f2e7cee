package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (a *api) provide(w http.ResponseWriter, r *http.Request) {
	var body amountParams
	if err := a.decodeRequest(w, r, &body); err != nil {
		a.writeError(w, r, err)
		return
	}
	var p parser
	owner := p.address("owner", body.Owner, true)
	amount := p.amount("amount", body.Amount, true)
	if p.err != nil {
		a.writeError(w, r, p.err)
		return
	}
	receipt, err := a.system.ProvideToStabilityPool(r.Context(), owner, amount)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newReceipt(receipt))
}

func (a *api) withdraw(w http.ResponseWriter, r *http.Request) {
	var body amountParams
	if err := a.decodeRequest(w, r, &body); err != nil {
		a.writeError(w, r, err)
		return
	}
	var p parser
	owner := p.address("owner", body.Owner, true)
	// A missing amount claims gains only.
	amount := p.amount("amount", body.Amount, false)
	if p.err != nil {
		a.writeError(w, r, p.err)
		return
	}
	receipt, err := a.system.WithdrawFromStabilityPool(r.Context(), owner, amount)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newReceipt(receipt))
}

func (a *api) gainToTrove(w http.ResponseWriter, r *http.Request) {
	var body gainParams
	if err := a.decodeRequest(w, r, &body); err != nil {
		a.writeError(w, r, err)
		return
	}
	var p parser
	owner := p.address("owner", body.Owner, true)
	prev := p.address("prevHint", body.PrevHint, false)
	next := p.address("nextHint", body.NextHint, false)
	if p.err != nil {
		a.writeError(w, r, p.err)
		return
	}
	receipt, res, err := a.system.WithdrawGainToTrove(r.Context(), owner, prev, next)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, gainToTroveJSON{
		Receipt: newReceipt(receipt),
		Trove:   newTroveResult(res),
	})
}

func (a *api) getDeposit(w http.ResponseWriter, r *http.Request) {
	var p parser
	owner := p.address("owner", chi.URLParam(r, "owner"), true)
	if p.err != nil {
		a.writeError(w, r, p.err)
		return
	}
	view, err := a.system.DepositView(owner)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, depositViewJSON{
		Owner:          owner.Hex(),
		Initial:        formatAmount(view.Initial),
		Compounded:     formatAmount(view.Compounded),
		CollateralGain: formatAmount(view.CollateralGain),
		RewardGain:     formatAmount(view.RewardGain),
	})
}
