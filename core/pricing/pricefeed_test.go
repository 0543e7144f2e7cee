package pricing

import (
	"errors"
	"testing"
	"time"

	"trovechain/native/decmath"
)

func TestManualFeedOK(t *testing.T) {
	now := time.Now().UTC()
	feed := NewManualFeed(15 * time.Minute)
	if _, err := feed.Quote(now); !errors.Is(err, ErrNoPrice) {
		t.Fatalf("expected no price, got %v", err)
	}
	if err := feed.Set(decmath.Units(200), now.Add(-30*time.Second)); err != nil {
		t.Fatalf("set: %v", err)
	}
	quote, err := feed.Quote(now)
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if quote.Status != PriceStatusOK {
		t.Fatalf("expected ok status, got %s", quote.Status)
	}
	if quote.AgeSeconds == 0 || quote.AgeSeconds > 31 {
		t.Fatalf("unexpected age seconds: %d", quote.AgeSeconds)
	}
	price, err := Require(feed, now)
	if err != nil {
		t.Fatalf("require: %v", err)
	}
	if !price.Eq(decmath.Units(200)) {
		t.Fatalf("unexpected price: %s", price)
	}
}

func TestManualFeedStale(t *testing.T) {
	now := time.Now().UTC()
	feed := NewManualFeed(time.Minute)
	if err := feed.Set(decmath.Units(200), now.Add(-2*time.Minute)); err != nil {
		t.Fatalf("set: %v", err)
	}
	quote, err := feed.Quote(now)
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if quote.Status != PriceStatusStale {
		t.Fatalf("expected stale status, got %s", quote.Status)
	}
	if _, err := Require(feed, now); !errors.Is(err, ErrStalePrice) {
		t.Fatalf("expected stale price error, got %v", err)
	}
}

func TestManualFeedRejectsZero(t *testing.T) {
	feed := NewManualFeed(0)
	if err := feed.Set(decmath.Zero(), time.Now()); err == nil {
		t.Fatalf("expected zero price rejection")
	}
}

func TestComputeAgeSecondsFuture(t *testing.T) {
	now := time.Now()
	if age := computeAgeSeconds(now.Add(time.Minute), now); age != 0 {
		t.Fatalf("expected zero age for future observation, got %d", age)
	}
}
