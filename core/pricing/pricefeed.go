package pricing

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/holiman/uint256"

	nativecommon "trovechain/native/common"
	"trovechain/native/decmath"
)

// PriceStatus captures the health classification assigned to an oracle quote.
type PriceStatus string

const (
	// PriceStatusOK indicates the quote passed all configured guardrails.
	PriceStatusOK PriceStatus = "ok"
	// PriceStatusStale signals the quote exceeded the configured freshness window.
	PriceStatusStale PriceStatus = "stale"
)

var (
	// ErrNoPrice is returned before the first observation is recorded.
	ErrNoPrice = nativecommon.NewError(nativecommon.KindPreconditionFailed, "pricing: no price observed")
	// ErrStalePrice is returned by Require when the quote is too old.
	ErrStalePrice = nativecommon.NewError(nativecommon.KindPreconditionFailed, "pricing: stale price")

	errZeroPrice = errors.New("pricing: price must be positive")
)

// Quote is the collateral price in stablecoin units, 18-decimal fixed point.
type Quote struct {
	Price      *uint256.Int
	ObservedAt time.Time
	AgeSeconds uint32
	Status     PriceStatus
}

// PriceFeed exposes the collateral price consumed by the ledger.
type PriceFeed interface {
	// Quote resolves the latest price according to the configured guards.
	Quote(tsNow time.Time) (Quote, error)
}

// Require fetches a quote and rejects stale observations.
func Require(feed PriceFeed, tsNow time.Time) (*uint256.Int, error) {
	if feed == nil {
		return nil, fmt.Errorf("pricing: feed not configured")
	}
	quote, err := feed.Quote(tsNow)
	if err != nil {
		return nil, err
	}
	if quote.Status == PriceStatusStale {
		return nil, fmt.Errorf("%w: age %ds", ErrStalePrice, quote.AgeSeconds)
	}
	return decmath.Clone(quote.Price), nil
}

// ManualFeed is a settable feed driven by an operator or a relayer.
type ManualFeed struct {
	mu       sync.RWMutex
	price    *uint256.Int
	observed time.Time
	maxAge   time.Duration
}

// NewManualFeed constructs a feed. A zero maxAge disables the staleness guard.
func NewManualFeed(maxAge time.Duration) *ManualFeed {
	return &ManualFeed{maxAge: maxAge}
}

// Set records a new observation.
func (f *ManualFeed) Set(price *uint256.Int, observed time.Time) error {
	if price == nil || price.IsZero() {
		return errZeroPrice
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.price = decmath.Clone(price)
	f.observed = observed.UTC()
	return nil
}

// Quote implements PriceFeed.
func (f *ManualFeed) Quote(tsNow time.Time) (Quote, error) {
	if f == nil {
		return Quote{}, fmt.Errorf("pricing: feed not initialised")
	}
	if tsNow.IsZero() {
		tsNow = time.Now()
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.price == nil {
		return Quote{}, ErrNoPrice
	}
	age := computeAgeSeconds(f.observed, tsNow.UTC())
	status := PriceStatusOK
	if f.maxAge > 0 && uint64(age) > uint64(f.maxAge/time.Second) {
		status = PriceStatusStale
	}
	return Quote{Price: decmath.Clone(f.price), ObservedAt: f.observed, AgeSeconds: age, Status: status}, nil
}

func computeAgeSeconds(observed, now time.Time) uint32 {
	if observed.IsZero() || now.IsZero() {
		return math.MaxUint32
	}
	if observed.After(now) {
		return 0
	}
	seconds := now.Sub(observed) / time.Second
	if seconds > math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(seconds)
}
