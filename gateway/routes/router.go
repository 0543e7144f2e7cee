package routes

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"trovechain/core"
	"trovechain/core/pricing"
	"trovechain/gateway/middleware"
)

const defaultBodyLimit = 1 << 20 // 1 MiB

// Group names double as rate limit keys and metric modules.
const (
	GroupTroves       = "troves"
	GroupStability    = "stability"
	GroupStaking      = "staking"
	GroupLiquidations = "liquidations"
	GroupRedemptions  = "redemptions"
	GroupHints        = "hints"
	GroupSystem       = "system"
	GroupOracle       = "oracle"
	GroupFaucet       = "faucet"
)

type Config struct {
	System *core.System
	// Oracle, when set, exposes POST /v1/oracle/price for operators.
	Oracle *pricing.ManualFeed
	// EnableFaucet mounts POST /v1/faucet. The ledger still honours the
	// faucet pause.
	EnableFaucet  bool
	RateLimiter   *middleware.RateLimiter
	Observability *middleware.Observability
	CORS          middleware.CORSConfig
	MaxBodyBytes  int64
	Logger        *slog.Logger
	Now           func() time.Time
}

type api struct {
	system    *core.System
	oracle    *pricing.ManualFeed
	logger    *slog.Logger
	bodyLimit int64
	now       func() time.Time
}

// New builds the public HTTP API over a ledger.
func New(cfg Config) (http.Handler, error) {
	if cfg.System == nil {
		return nil, errNoSystem
	}
	a := &api{
		system:    cfg.System,
		oracle:    cfg.Oracle,
		logger:    cfg.Logger,
		bodyLimit: cfg.MaxBodyBytes,
		now:       cfg.Now,
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}
	if a.bodyLimit <= 0 {
		a.bodyLimit = defaultBodyLimit
	}
	if a.now == nil {
		a.now = time.Now
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(cfg.CORS))

	r.Get("/healthz", a.health)
	r.Handle("/metrics", promhttp.Handler())

	group := func(name string, mount func(chi.Router)) func(chi.Router) {
		return func(sr chi.Router) {
			if cfg.RateLimiter != nil {
				sr.Use(cfg.RateLimiter.Middleware(name))
			}
			if cfg.Observability != nil {
				sr.Use(cfg.Observability.Middleware(name))
			}
			mount(sr)
		}
	}

	r.Route("/v1", func(v1 chi.Router) {
		v1.Route("/troves", group(GroupTroves, func(sr chi.Router) {
			sr.Get("/", a.listTroves)
			sr.Post("/open", a.openTrove)
			sr.Post("/adjust", a.adjustTrove)
			sr.Post("/close", a.closeTrove)
			sr.Post("/claim", a.claimCollateral)
			sr.Get("/{owner}", a.getTrove)
		}))
		v1.Route("/stability", group(GroupStability, func(sr chi.Router) {
			sr.Post("/provide", a.provide)
			sr.Post("/withdraw", a.withdraw)
			sr.Post("/gain-to-trove", a.gainToTrove)
			sr.Get("/{owner}", a.getDeposit)
		}))
		v1.Route("/staking", group(GroupStaking, func(sr chi.Router) {
			sr.Get("/", a.stakingPool)
			sr.Post("/stake", a.stake)
			sr.Post("/unstake", a.unstake)
			sr.Post("/claim", a.claimStake)
			sr.Get("/{owner}", a.getStake)
		}))
		v1.Route("/liquidations", group(GroupLiquidations, func(sr chi.Router) {
			sr.Post("/liquidate", a.liquidate)
			sr.Post("/sequence", a.liquidateSequence)
			sr.Post("/batch", a.liquidateBatch)
		}))
		v1.Route("/redemptions", group(GroupRedemptions, func(sr chi.Router) {
			sr.Post("/", a.redeem)
			sr.Get("/hints", a.redemptionHints)
		}))
		v1.Route("/hints", group(GroupHints, func(sr chi.Router) {
			sr.Get("/insert", a.insertHints)
		}))
		v1.Route("/system", group(GroupSystem, func(sr chi.Router) {
			sr.Get("/", a.systemView)
		}))
		v1.Route("/accounts", group(GroupSystem, func(sr chi.Router) {
			sr.Get("/{owner}", a.balances)
		}))
		if a.oracle != nil {
			v1.Route("/oracle", group(GroupOracle, func(sr chi.Router) {
				sr.Post("/price", a.setPrice)
			}))
		}
		if cfg.EnableFaucet {
			v1.Route("/faucet", group(GroupFaucet, func(sr chi.Router) {
				sr.Post("/", a.faucet)
			}))
		}
	})

	return r, nil
}

func (a *api) health(w http.ResponseWriter, r *http.Request) {
	if ok, err := a.system.Initialized(); err != nil || !ok {
		writeJSONError(w, http.StatusServiceUnavailable, "ledger not initialised", "")
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
