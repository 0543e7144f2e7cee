package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"trovechain/config"
	"trovechain/core"
	"trovechain/core/events"
	"trovechain/core/pricing"
	"trovechain/gateway/middleware"
	"trovechain/gateway/routes"
	"trovechain/observability/logging"
	telemetry "trovechain/observability/otel"
	"trovechain/storage"
)

var version = "dev"

func main() {
	var cfgPath string
	flag.StringVar(&cfgPath, "config", "./config.toml", "path to node configuration")
	flag.Parse()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if env := strings.TrimSpace(os.Getenv("TROVE_ENV")); env != "" {
		cfg.Env = env
	}
	level, err := config.ParseLevel(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.Setup("troved", cfg.Env, level)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, level, logger); err != nil {
		logger.Error("troved exited", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, level slog.Level, logger *slog.Logger) error {
	shutdownTelemetry, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    "troved",
		ServiceVersion: version,
		Environment:    cfg.Env,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		Headers:        telemetry.ParseHeaders(cfg.Telemetry.Headers),
		Metrics:        cfg.Telemetry.Metrics,
		Traces:         cfg.Telemetry.Traces,
	})
	if err != nil {
		return fmt.Errorf("initialise telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			logger.Warn("telemetry shutdown failed", "error", err)
		}
	}()

	sysCfg, err := cfg.SystemConfig()
	if err != nil {
		return err
	}
	allocations, err := cfg.GenesisAllocations()
	if err != nil {
		return err
	}
	price, err := cfg.InitialPrice()
	if err != nil {
		return err
	}

	db, err := storage.NewLevelDB(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	feed := pricing.NewManualFeed(cfg.OracleMaxAge())
	if err := feed.Set(price, time.Now()); err != nil {
		return fmt.Errorf("seed price feed: %w", err)
	}

	system, err := core.NewSystem(db, sysCfg, feed)
	if err != nil {
		return fmt.Errorf("build ledger: %w", err)
	}
	system.SetLogger(logger.With("component", "ledger"))
	system.SetEmitter(events.LogEmitter{Logger: logger.With("component", "events")})
	if err := system.Genesis(ctx, allocations); err != nil {
		return fmt.Errorf("genesis: %w", err)
	}

	handler, err := routes.New(routes.Config{
		System:       system,
		Oracle:       operatorFeed(cfg.Env, feed),
		EnableFaucet: !cfg.Pauses.Faucet,
		RateLimiter:  middleware.NewRateLimiter(rateLimits(cfg.API), logger),
		Observability: middleware.NewObservability(middleware.ObservabilityConfig{
			ServiceName: "troved",
			LogRequests: level <= slog.LevelDebug,
			Enabled:     true,
		}, logger),
		CORS:         middleware.CORSConfig{AllowedOrigins: cfg.API.AllowedOrigins},
		MaxBodyBytes: cfg.API.MaxBodyBytes,
		Logger:       logger.With("component", "api"),
	})
	if err != nil {
		return fmt.Errorf("configure routes: %w", err)
	}

	server := &http.Server{
		Addr:              cfg.ListenAddress,
		Handler:           handler,
		ReadTimeout:       time.Duration(cfg.API.ReadTimeoutSeconds) * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      time.Duration(cfg.API.WriteTimeoutSeconds) * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	listener, err := net.Listen("tcp", cfg.ListenAddress)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", listener.Addr().String(), "data_dir", cfg.DataDir)
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown failed", "error", err)
	}
	logger.Info("stopped")
	return nil
}

// operatorFeed exposes the price setter outside production only.
func operatorFeed(env string, feed *pricing.ManualFeed) *pricing.ManualFeed {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "prod", "production":
		return nil
	default:
		return feed
	}
}

func rateLimits(api config.API) map[string]middleware.RateLimit {
	base := middleware.RateLimit{RatePerSecond: api.RateLimitPerSecond, Burst: api.RateLimitBurst}
	limits := map[string]middleware.RateLimit{}
	for _, group := range []string{
		routes.GroupTroves,
		routes.GroupStability,
		routes.GroupStaking,
		routes.GroupHints,
		routes.GroupSystem,
		routes.GroupOracle,
		routes.GroupFaucet,
	} {
		limits[group] = base
	}
	// Liquidations and redemptions walk the sorted list and cost more.
	heavy := base
	heavy.DefaultTokens = 2
	heavy.Burst = max(base.Burst, 4)
	heavy.Tokens = map[string]int{
		"POST /v1/liquidations/batch":    4,
		"POST /v1/liquidations/sequence": 4,
	}
	limits[routes.GroupLiquidations] = heavy
	limits[routes.GroupRedemptions] = heavy
	return limits
}
