package observability

import (
	"fmt"
	"sync"
	"time"

	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"

	"trovechain/native/decmath"
)

type moduleMetrics struct {
	requests  *prometheus.CounterVec
	errors    *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	throttles *prometheus.CounterVec
}

// LedgerMetrics tracks ledger operations and the system wide accounting.
type LedgerMetrics struct {
	operations   *prometheus.CounterVec
	failures     *prometheus.CounterVec
	latency      *prometheus.HistogramVec
	liquidated   prometheus.Counter
	redeemed     prometheus.Counter
	tcr          prometheus.Gauge
	troves       prometheus.Gauge
	deposits     prometheus.Gauge
	product      prometheus.Gauge
	epoch        prometheus.Gauge
	scale        prometheus.Gauge
	baseRate     prometheus.Gauge
	recoveryMode prometheus.Gauge
}

var (
	moduleMetricsOnce sync.Once
	moduleRegistry    *moduleMetrics

	ledgerMetricsOnce sync.Once
	ledgerRegistry    *LedgerMetrics
)

// ModuleMetrics returns the lazily-initialised registry used to record HTTP
// API activity.
func ModuleMetrics() *moduleMetrics {
	moduleMetricsOnce.Do(func() {
		moduleRegistry = &moduleMetrics{
			requests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "trove",
				Subsystem: "api",
				Name:      "requests_total",
				Help:      "Total API requests segmented by module and method.",
			}, []string{"module", "method", "outcome"}),
			errors: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "trove",
				Subsystem: "api",
				Name:      "errors_total",
				Help:      "Total API errors segmented by module, method, and status code.",
			}, []string{"module", "method", "status"}),
			latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "trove",
				Subsystem: "api",
				Name:      "request_duration_seconds",
				Help:      "Latency distribution for API handlers.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"module", "method"}),
			throttles: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "trove",
				Subsystem: "api",
				Name:      "throttles_total",
				Help:      "Count of requests rejected due to throttling policies.",
			}, []string{"module", "reason"}),
		}
		prometheus.MustRegister(
			moduleRegistry.requests,
			moduleRegistry.errors,
			moduleRegistry.latency,
			moduleRegistry.throttles,
		)
	})
	return moduleRegistry
}

// Observe records the outcome of a request. The status code should be the
// HTTP status that was ultimately written to the response writer.
func (m *moduleMetrics) Observe(module, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	if module == "" {
		module = "unknown"
	}
	if method == "" {
		method = "unknown"
	}
	outcome := "success"
	if status >= 400 {
		outcome = "error"
	}
	m.requests.WithLabelValues(module, method, outcome).Inc()
	if status >= 400 {
		m.errors.WithLabelValues(module, method, fmt.Sprintf("%d", status)).Inc()
	}
	m.latency.WithLabelValues(module, method).Observe(duration.Seconds())
}

// RecordThrottle increments the throttle counter for the supplied module and
// reason. Reasons should be stable strings such as "rate_limit".
func (m *moduleMetrics) RecordThrottle(module, reason string) {
	if m == nil {
		return
	}
	if module == "" {
		module = "unknown"
	}
	if reason == "" {
		reason = "unspecified"
	}
	m.throttles.WithLabelValues(module, reason).Inc()
}

// Ledger returns the singleton ledger metrics registry.
func Ledger() *LedgerMetrics {
	ledgerMetricsOnce.Do(func() {
		gauge := func(name, help string) prometheus.Gauge {
			return prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "trove",
				Subsystem: "ledger",
				Name:      name,
				Help:      help,
			})
		}
		ledgerRegistry = &LedgerMetrics{
			operations: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "trove",
				Subsystem: "ledger",
				Name:      "operations_total",
				Help:      "Ledger operations segmented by operation and outcome.",
			}, []string{"operation", "outcome"}),
			failures: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "trove",
				Subsystem: "ledger",
				Name:      "errors_total",
				Help:      "Rejected ledger operations segmented by operation and error kind.",
			}, []string{"operation", "kind"}),
			latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "trove",
				Subsystem: "ledger",
				Name:      "operation_duration_seconds",
				Help:      "Latency distribution of ledger operations including commit.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"operation"}),
			liquidated: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "trove",
				Subsystem: "ledger",
				Name:      "liquidated_troves_total",
				Help:      "Positions closed by liquidation.",
			}),
			redeemed: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "trove",
				Subsystem: "ledger",
				Name:      "redeemed_stable_total",
				Help:      "Stablecoin redeemed against collateral, in whole units.",
			}),
			tcr:          gauge("tcr", "Total collateral ratio at the last observed price."),
			troves:       gauge("troves", "Number of active positions."),
			deposits:     gauge("stability_deposits", "Total stability pool deposits in whole units."),
			product:      gauge("stability_p", "Running product P of the stability pool as a fraction of one."),
			epoch:        gauge("stability_epoch", "Current stability pool epoch."),
			scale:        gauge("stability_scale", "Current stability pool scale."),
			baseRate:     gauge("base_rate", "Stored fee base rate."),
			recoveryMode: gauge("recovery_mode", "1 while the system is in recovery mode."),
		}
		prometheus.MustRegister(
			ledgerRegistry.operations,
			ledgerRegistry.failures,
			ledgerRegistry.latency,
			ledgerRegistry.liquidated,
			ledgerRegistry.redeemed,
			ledgerRegistry.tcr,
			ledgerRegistry.troves,
			ledgerRegistry.deposits,
			ledgerRegistry.product,
			ledgerRegistry.epoch,
			ledgerRegistry.scale,
			ledgerRegistry.baseRate,
			ledgerRegistry.recoveryMode,
		)
	})
	return ledgerRegistry
}

// ObserveOperation records the outcome and latency of a ledger operation.
// kind is empty on success.
func (m *LedgerMetrics) ObserveOperation(operation, kind string, duration time.Duration) {
	if m == nil {
		return
	}
	outcome := "success"
	if kind != "" {
		outcome = "error"
		m.failures.WithLabelValues(operation, kind).Inc()
	}
	m.operations.WithLabelValues(operation, outcome).Inc()
	m.latency.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordLiquidated adds closed positions to the liquidation counter.
func (m *LedgerMetrics) RecordLiquidated(count int) {
	if m == nil || count <= 0 {
		return
	}
	m.liquidated.Add(float64(count))
}

// RecordRedeemed adds a redeemed stablecoin amount.
func (m *LedgerMetrics) RecordRedeemed(amount *uint256.Int) {
	if m == nil {
		return
	}
	m.redeemed.Add(toFloat(amount))
}

// Snapshot carries the gauges refreshed after every committed operation.
type Snapshot struct {
	TCR           *uint256.Int
	RecoveryMode  bool
	Troves        uint64
	TotalDeposits *uint256.Int
	P             *uint256.Int
	Epoch         uint64
	Scale         uint64
	BaseRate      *uint256.Int
}

// SetSnapshot refreshes the accounting gauges.
func (m *LedgerMetrics) SetSnapshot(s Snapshot) {
	if m == nil {
		return
	}
	if s.TCR != nil && !decmath.IsInfinite(s.TCR) {
		m.tcr.Set(toFloat(s.TCR))
	}
	if s.RecoveryMode {
		m.recoveryMode.Set(1)
	} else {
		m.recoveryMode.Set(0)
	}
	m.troves.Set(float64(s.Troves))
	m.deposits.Set(toFloat(s.TotalDeposits))
	m.product.Set(toFloat(s.P))
	m.epoch.Set(float64(s.Epoch))
	m.scale.Set(float64(s.Scale))
	m.baseRate.Set(toFloat(s.BaseRate))
}

func toFloat(v *uint256.Int) float64 {
	if v == nil {
		return 0
	}
	f, _ := decmath.ToDecimal(v).Float64()
	return f
}
