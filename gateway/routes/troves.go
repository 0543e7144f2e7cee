package routes

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"trovechain/core"
	"trovechain/native/trove"
)

func (a *api) openTrove(w http.ResponseWriter, r *http.Request) {
	var body openParams
	if err := a.decodeRequest(w, r, &body); err != nil {
		a.writeError(w, r, err)
		return
	}
	var p parser
	owner := p.address("owner", body.Owner, true)
	req := trove.OpenRequest{
		Coll:     p.amount("coll", body.Coll, true),
		Borrow:   p.amount("borrow", body.Borrow, true),
		MaxFee:   p.amount("maxFee", body.MaxFee, true),
		PrevHint: p.address("prevHint", body.PrevHint, false),
		NextHint: p.address("nextHint", body.NextHint, false),
	}
	if p.err != nil {
		a.writeError(w, r, p.err)
		return
	}
	res, err := a.system.OpenTrove(r.Context(), owner, req)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newTroveResult(res))
}

func (a *api) adjustTrove(w http.ResponseWriter, r *http.Request) {
	var body adjustParams
	if err := a.decodeRequest(w, r, &body); err != nil {
		a.writeError(w, r, err)
		return
	}
	var p parser
	owner := p.address("owner", body.Owner, true)
	req := trove.AdjustRequest{
		CollDeposit:    p.amount("collDeposit", body.CollDeposit, false),
		CollWithdrawal: p.amount("collWithdrawal", body.CollWithdrawal, false),
		DebtChange:     p.amount("debtChange", body.DebtChange, false),
		DebtIncrease:   body.DebtIncrease,
		MaxFee:         p.amount("maxFee", body.MaxFee, false),
		PrevHint:       p.address("prevHint", body.PrevHint, false),
		NextHint:       p.address("nextHint", body.NextHint, false),
	}
	if p.err != nil {
		a.writeError(w, r, p.err)
		return
	}
	res, err := a.system.AdjustTrove(r.Context(), owner, req)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newTroveResult(res))
}

func (a *api) closeTrove(w http.ResponseWriter, r *http.Request) {
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
	res, err := a.system.CloseTrove(r.Context(), owner)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newTroveResult(res))
}

func (a *api) claimCollateral(w http.ResponseWriter, r *http.Request) {
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
	claimed, err := a.system.ClaimCollateral(r.Context(), owner)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"owner":   owner.Hex(),
		"claimed": formatAmount(claimed),
	})
}

func (a *api) getTrove(w http.ResponseWriter, r *http.Request) {
	var p parser
	owner := p.address("owner", chi.URLParam(r, "owner"), true)
	if p.err != nil {
		a.writeError(w, r, p.err)
		return
	}
	view, err := a.system.TroveView(owner)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newTroveView(view))
}

// listTroves pages through the sorted list in descending NICR order. The
// returned next owner starts the following page.
func (a *api) listTroves(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	var p parser
	start := p.address("start", query.Get("start"), false)
	limit := 0
	if raw := query.Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			p.fail("limit: invalid value %q", raw)
		}
		limit = v
	}
	if p.err != nil {
		a.writeError(w, r, p.err)
		return
	}
	if limit == 0 {
		limit = core.MaxPageSize
	}
	// One extra entry tells whether another page follows.
	fetch := limit + 1
	if fetch > core.MaxPageSize {
		fetch = limit
	}
	entries, err := a.system.List(start, fetch)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	page := listPageJSON{Troves: make([]listEntryJSON, 0, len(entries))}
	if len(entries) > limit {
		page.Next = entries[limit].Owner.Hex()
		entries = entries[:limit]
	}
	for _, entry := range entries {
		page.Troves = append(page.Troves, listEntryJSON{
			Owner: entry.Owner.Hex(),
			NICR:  formatInteger(entry.NICR),
		})
	}
	writeJSON(w, http.StatusOK, page)
}
