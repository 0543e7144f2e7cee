package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/holiman/uint256"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"trovechain/core/events"
	"trovechain/core/pricing"
	"trovechain/core/state"
	"trovechain/native/bank"
	nativecommon "trovechain/native/common"
	"trovechain/native/decmath"
	"trovechain/native/issuance"
	"trovechain/native/sortedtroves"
	"trovechain/native/stability"
	"trovechain/native/staking"
	"trovechain/native/trove"
	"trovechain/observability"
	"trovechain/storage"
)

var errNilFeed = errors.New("core: price feed not configured")

// Config carries the protocol parameters and work bounds of a System.
type Config struct {
	Params         trove.Params
	Limits         trove.Limits
	ListMaxSize    uint64
	MaxSearchSteps uint64
	IssuanceCap    *uint256.Int
	IssuanceFactor *uint256.Int
	Pauses         []string
	// HintSeed seeds the sampler used when hints are computed on behalf of
	// the caller.
	HintSeed uint64
}

// DefaultConfig returns the stock protocol configuration.
func DefaultConfig() Config {
	return Config{
		Params:         trove.DefaultParams(),
		Limits:         trove.DefaultLimits(),
		ListMaxSize:    1_000_000,
		MaxSearchSteps: 5_000,
		IssuanceCap:    decmath.Units(32_000_000),
		IssuanceFactor: decmath.MustParse("999998681227695000"),
	}
}

// Validate checks the configuration before any state is touched.
func (c Config) Validate() error {
	if err := c.Params.Validate(); err != nil {
		return err
	}
	if c.ListMaxSize == 0 {
		return sortedtroves.ErrInvalidMaxSize
	}
	if c.MaxSearchSteps == 0 {
		return ErrInvalidSearchSteps
	}
	if _, err := issuance.NewSchedule(c.IssuanceCap, c.IssuanceFactor); err != nil {
		return err
	}
	return nil
}

// System hosts the ledger. It serialises every operation behind one mutex,
// runs it inside a state transaction and emits events only after the
// transaction has been committed.
type System struct {
	mu      sync.Mutex
	state   *state.Manager
	cfg     Config
	pauses  nativecommon.PauseSet
	feed    pricing.PriceFeed
	now     func() time.Time
	emitter events.Emitter
	logger  *slog.Logger
	tracer  trace.Tracer
	metrics *observability.LedgerMetrics
	sampler *trove.KeccakSampler
	// schedule holds the validated issuance curve; bind copies it per
	// transaction.
	schedule *issuance.Schedule
}

// NewSystem wires a ledger over db. Genesis must run before the first
// operation.
func NewSystem(db storage.Database, cfg Config, feed pricing.PriceFeed) (*System, error) {
	if db == nil {
		return nil, fmt.Errorf("core: database required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	schedule, err := issuance.NewSchedule(cfg.IssuanceCap, cfg.IssuanceFactor)
	if err != nil {
		return nil, err
	}
	return &System{
		state:    state.NewManager(db),
		cfg:      cfg,
		pauses:   nativecommon.NewPauseSet(cfg.Pauses),
		feed:     feed,
		now:      time.Now,
		emitter:  events.NoopEmitter{},
		logger:   slog.Default(),
		tracer:   otel.Tracer("trovechain/core"),
		metrics:  observability.Ledger(),
		sampler:  trove.NewKeccakSampler(cfg.HintSeed),
		schedule: schedule,
	}, nil
}

// SetClock injects the time source.
func (s *System) SetClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// SetEmitter configures where committed events are delivered.
func (s *System) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		emitter = events.NoopEmitter{}
	}
	s.emitter = emitter
}

// SetLogger replaces the default logger.
func (s *System) SetLogger(logger *slog.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// SetPriceFeed swaps the oracle.
func (s *System) SetPriceFeed(feed pricing.PriceFeed) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.feed = feed
}

// Config returns the configuration the system was built with.
func (s *System) Config() Config { return s.cfg }

// modules binds one instance of every protocol component to a transaction.
type modules struct {
	tx       *state.Tx
	ledger   *bank.Ledger
	list     *sortedtroves.List
	pool     *stability.Engine
	issuance *issuance.Schedule
	staking  *staking.Engine
	troves   *trove.Engine
	price    *uint256.Int
	txID     string
	events   []events.Event
}

func (m *modules) emit(evt events.Event) { m.events = append(m.events, evt) }

func (s *System) bind(tx *state.Tx) *modules {
	ledger := bank.NewLedger(tx)

	schedule := s.schedule.Copy()
	schedule.SetState(tx)
	schedule.SetTokens(ledger)
	schedule.SetClock(s.now)

	list := sortedtroves.NewList(s.cfg.MaxSearchSteps)
	list.SetState(tx)

	pool := stability.NewEngine()
	pool.SetState(tx)
	pool.SetTokens(ledger)
	pool.SetIssuance(schedule)
	pool.SetPauses(s.pauses)

	stakes := staking.NewEngine()
	stakes.SetState(tx)
	stakes.SetTokens(ledger)
	stakes.SetPauses(s.pauses)

	troves := trove.NewEngine(s.cfg.Params, s.cfg.Limits)
	troves.SetState(tx)
	troves.SetSortedList(list)
	troves.SetStabilityPool(pool)
	troves.SetTokens(ledger)
	troves.SetClock(s.now)
	troves.SetPauses(s.pauses)
	troves.SetFeeDistributor(stakes)
	list.SetNICRSource(troves)

	return &modules{
		tx:       tx,
		ledger:   ledger,
		list:     list,
		pool:     pool,
		issuance: schedule,
		staking:  stakes,
		troves:   troves,
	}
}

// execute runs fn as one atomic ledger operation. Any error, including an
// arithmetic panic raised by the fixed-point layer, discards every write fn
// made.
func (s *System) execute(ctx context.Context, op string, needPrice bool, attrs []attribute.KeyValue, fn func(m *modules) error) error {
	started := time.Now()
	_, span := s.tracer.Start(ctx, "trove."+op, trace.WithAttributes(attrs...))
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	m := s.bind(s.state.Begin())
	m.txID = uuid.NewString()
	span.SetAttributes(attribute.String("tx.id", m.txID))

	err := s.run(m, needPrice, fn)
	if err == nil {
		if cerr := m.tx.Commit(); cerr != nil {
			s.logger.Error("ledger commit failed", "operation", op, "tx", m.txID, "error", cerr)
			err = fmt.Errorf("core: commit %s: %w", op, cerr)
		}
	} else {
		m.tx.Discard()
	}

	kind := ""
	if err != nil {
		kind = string(nativecommon.KindOf(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.Debug("ledger operation rejected", "operation", op, "kind", kind, "error", err)
	}
	s.metrics.ObserveOperation(op, kind, time.Since(started))
	if err != nil {
		return err
	}

	for _, evt := range m.events {
		s.emitter.Emit(evt)
		observability.Events().RecordEvent(evt.EventType())
	}
	s.refreshGauges(m.price)
	return nil
}

func (s *System) run(m *modules, needPrice bool, fn func(m *modules) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			ae, ok := r.(decmath.ArithmeticError)
			if !ok {
				panic(r)
			}
			err = fmt.Errorf("%w: %v", nativecommon.ErrArithmetic, ae)
		}
	}()
	if needPrice {
		if s.feed == nil {
			return errNilFeed
		}
		price, err := pricing.Require(s.feed, s.now())
		if err != nil {
			return err
		}
		m.price = price
	}
	return fn(m)
}

// view runs fn against committed state. fn must not write.
func (s *System) view(needPrice bool, fn func(m *modules) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := s.bind(s.state.Begin())
	defer m.tx.Discard()
	return s.run(m, needPrice, fn)
}

// refreshGauges republishes the accounting gauges from committed state.
// Failures only cost freshness of the gauges.
func (s *System) refreshGauges(price *uint256.Int) {
	m := s.bind(s.state.Begin())
	defer m.tx.Discard()
	snap := observability.Snapshot{}
	_ = s.run(m, false, func(m *modules) error {
		count, err := m.troves.TroveCount()
		if err != nil {
			return err
		}
		snap.Troves = count
		pool, err := m.pool.Pool()
		if err != nil {
			return err
		}
		snap.TotalDeposits = pool.TotalDeposits
		snap.P = pool.P
		snap.Epoch = pool.CurrentEpoch
		snap.Scale = pool.CurrentScale
		g, err := m.tx.TroveGlobals()
		if err != nil || g == nil {
			return err
		}
		snap.BaseRate = g.BaseRate
		if price != nil {
			if snap.TCR, err = m.troves.TCR(price); err != nil {
				return err
			}
			snap.RecoveryMode = snap.TCR.Lt(s.cfg.Params.CCR)
		}
		return nil
	})
	s.metrics.SetSnapshot(snap)
}

func ownerAttr(owner fmt.Stringer) attribute.KeyValue {
	return attribute.String("owner", owner.String())
}

func amountAttr(key string, v *uint256.Int) attribute.KeyValue {
	return attribute.String(key, formatAmount(v))
}

func formatAmount(v *uint256.Int) string {
	if v == nil {
		return "0"
	}
	return decmath.Format(v)
}
