package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"trovechain/native/bank"
)

func (a *api) systemView(w http.ResponseWriter, r *http.Request) {
	view, err := a.system.SystemView()
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	pool, err := a.system.PoolView()
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newSystem(view, pool))
}

// setPrice records an operator supplied price observation.
func (a *api) setPrice(w http.ResponseWriter, r *http.Request) {
	var body priceParams
	if err := a.decodeRequest(w, r, &body); err != nil {
		a.writeError(w, r, err)
		return
	}
	var p parser
	price := p.amount("price", body.Price, true)
	if p.err == nil && price.IsZero() {
		p.fail("price must be positive")
	}
	if p.err != nil {
		a.writeError(w, r, p.err)
		return
	}
	observed := a.now()
	if err := a.oracle.Set(price, observed); err != nil {
		a.writeError(w, r, err)
		return
	}
	a.logger.Info("price updated", "price", formatAmount(price))
	writeJSON(w, http.StatusOK, map[string]string{
		"price":      formatAmount(price),
		"observedAt": observed.UTC().Format(time.RFC3339),
	})
}

func (a *api) faucet(w http.ResponseWriter, r *http.Request) {
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
	if err := a.system.Faucet(r.Context(), owner, amount); err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"owner":  owner.Hex(),
		"amount": formatAmount(amount),
	})
}

func (a *api) balances(w http.ResponseWriter, r *http.Request) {
	var p parser
	owner := p.address("owner", chi.URLParam(r, "owner"), true)
	if p.err != nil {
		a.writeError(w, r, p.err)
		return
	}
	out := map[string]string{"owner": owner.Hex()}
	for _, token := range []bank.Token{bank.TokenCollateral, bank.TokenStable, bank.TokenReward} {
		balance, err := a.system.Balance(token, owner)
		if err != nil {
			a.writeError(w, r, err)
			return
		}
		out[string(token)] = formatAmount(balance)
	}
	writeJSON(w, http.StatusOK, out)
}
