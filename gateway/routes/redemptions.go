package routes

import (
	"net/http"
	"strconv"

	"trovechain/native/trove"
)

func (a *api) redeem(w http.ResponseWriter, r *http.Request) {
	var body redeemParams
	if err := a.decodeRequest(w, r, &body); err != nil {
		a.writeError(w, r, err)
		return
	}
	var p parser
	owner := p.address("owner", body.Owner, true)
	req := trove.RedeemRequest{
		Amount:           p.amount("amount", body.Amount, true),
		MaxFee:           p.amount("maxFee", body.MaxFee, true),
		FirstHint:        p.address("firstHint", body.FirstHint, false),
		UpperPartialHint: p.address("upperPartialHint", body.UpperPartialHint, false),
		LowerPartialHint: p.address("lowerPartialHint", body.LowerPartialHint, false),
		PartialNICR:      p.integer("partialNicr", body.PartialNICR),
		MaxIterations:    body.MaxIterations,
	}
	if p.err != nil {
		a.writeError(w, r, p.err)
		return
	}
	res, err := a.system.Redeem(r.Context(), owner, req)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newRedemption(res))
}

func (a *api) redemptionHints(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	var p parser
	amount := p.amount("amount", query.Get("amount"), true)
	iterations := a.system.Config().Limits.MaxRedemptionIterations
	if raw := query.Get("maxIterations"); raw != "" {
		v, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			p.fail("maxIterations: invalid value %q", raw)
		} else if v > 0 {
			iterations = v
		}
	}
	if p.err != nil {
		a.writeError(w, r, p.err)
		return
	}
	hints, err := a.system.RedemptionHints(amount, iterations)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, redemptionHintsJSON{
		FirstHint:       formatHint(hints.FirstHint),
		PartialNICR:     formatInteger(hints.PartialNICR),
		TruncatedAmount: formatAmount(hints.TruncatedAmount),
	})
}

func (a *api) insertHints(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	var p parser
	coll := p.amount("coll", query.Get("coll"), true)
	debt := p.amount("debt", query.Get("debt"), true)
	if p.err == nil && debt.IsZero() {
		p.fail("debt must be positive")
	}
	if p.err != nil {
		a.writeError(w, r, p.err)
		return
	}
	prev, next, err := a.system.InsertHints(coll, debt)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, insertHintsJSON{
		PrevHint: formatHint(prev),
		NextHint: formatHint(next),
	})
}
