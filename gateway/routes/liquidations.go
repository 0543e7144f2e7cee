package routes

import (
	"fmt"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
)

func (a *api) liquidate(w http.ResponseWriter, r *http.Request) {
	var body liquidateParams
	if err := a.decodeRequest(w, r, &body); err != nil {
		a.writeError(w, r, err)
		return
	}
	var p parser
	owner := p.address("owner", body.Owner, true)
	liquidator := p.address("liquidator", body.Liquidator, true)
	if p.err != nil {
		a.writeError(w, r, p.err)
		return
	}
	res, err := a.system.Liquidate(r.Context(), owner, liquidator)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newLiquidation(res))
}

func (a *api) liquidateSequence(w http.ResponseWriter, r *http.Request) {
	var body sequenceParams
	if err := a.decodeRequest(w, r, &body); err != nil {
		a.writeError(w, r, err)
		return
	}
	var p parser
	liquidator := p.address("liquidator", body.Liquidator, true)
	if body.N == 0 {
		p.fail("n must be positive")
	}
	if p.err != nil {
		a.writeError(w, r, p.err)
		return
	}
	res, err := a.system.LiquidateTroves(r.Context(), body.N, liquidator)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newLiquidation(res))
}

func (a *api) liquidateBatch(w http.ResponseWriter, r *http.Request) {
	var body batchParams
	if err := a.decodeRequest(w, r, &body); err != nil {
		a.writeError(w, r, err)
		return
	}
	var p parser
	liquidator := p.address("liquidator", body.Liquidator, true)
	owners := make([]common.Address, 0, len(body.Owners))
	for i, raw := range body.Owners {
		owners = append(owners, p.address(fmt.Sprintf("owners[%d]", i), raw, true))
	}
	if p.err != nil {
		a.writeError(w, r, p.err)
		return
	}
	res, err := a.system.BatchLiquidate(r.Context(), owners, liquidator)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newLiquidation(res))
}
