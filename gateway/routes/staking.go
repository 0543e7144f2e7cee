package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (a *api) stake(w http.ResponseWriter, r *http.Request) {
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
	receipt, err := a.system.Stake(r.Context(), owner, amount)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newStakeReceipt(receipt))
}

func (a *api) unstake(w http.ResponseWriter, r *http.Request) {
	var body amountParams
	if err := a.decodeRequest(w, r, &body); err != nil {
		a.writeError(w, r, err)
		return
	}
	var p parser
	owner := p.address("owner", body.Owner, true)
	amount := p.amount("amount", body.Amount, false)
	if p.err != nil {
		a.writeError(w, r, p.err)
		return
	}
	receipt, err := a.system.Unstake(r.Context(), owner, amount)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newStakeReceipt(receipt))
}

func (a *api) claimStake(w http.ResponseWriter, r *http.Request) {
	var body ownerParams
	if err := a.decodeRequest(w, r, &body); err != nil {
		a.writeError(w, r, err)
		return
	}
	var p parser
	owner := p.address("owner", body.Owner, true)
	if p.err != nil {
		a.writeError(w, r, p.err)
		return
	}
	receipt, err := a.system.ClaimStakingGains(r.Context(), owner)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newStakeReceipt(receipt))
}

func (a *api) getStake(w http.ResponseWriter, r *http.Request) {
	var p parser
	owner := p.address("owner", chi.URLParam(r, "owner"), true)
	if p.err != nil {
		a.writeError(w, r, p.err)
		return
	}
	view, err := a.system.StakeView(owner)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stakeViewJSON{
		Owner:      owner.Hex(),
		Staked:     formatAmount(view.Staked),
		CollGain:   formatAmount(view.CollGain),
		StableGain: formatAmount(view.StableGain),
	})
}

func (a *api) stakingPool(w http.ResponseWriter, r *http.Request) {
	view, err := a.system.StakingPoolView()
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stakingPoolJSON{
		TotalStaked:         formatAmount(view.State.TotalStaked),
		FColl:               view.State.FColl.Dec(),
		FStable:             view.State.FStable.Dec(),
		HeldColl:            formatAmount(view.HeldColl),
		HeldStable:          formatAmount(view.HeldStable),
		UndistributedColl:   formatAmount(view.State.UndistributedColl),
		UndistributedStable: formatAmount(view.State.UndistributedStable),
	})
}
