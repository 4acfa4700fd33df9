package valuation

import (
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/lootwatch/lootwatchd/internal/store"
	"github.com/lootwatch/lootwatchd/pkg/log"
	"github.com/lootwatch/lootwatchd/pkg/schema"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	log.SetLevel("warn")
	s, err := store.Open("sqlite3", filepath.Join(t.TempDir(), "v.db"))
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestCloudFirstOverride(t *testing.T) {
	s := newTestStore(t)
	scope := schema.NewPlayerScope("s1", "hero")
	season := "s1"

	tLocal := time.Now().Add(-time.Hour)
	tCloud := time.Now()

	if err := s.UpsertPrice(schema.Price{Scope: string(scope), TypeId: 7, Value: 10, Source: schema.SourceManual, UpdatedTs: tLocal}); err != nil {
		t.Fatal(err)
	}
	if err := s.UpsertCloudPrice(schema.CloudPrice{SeasonId: season, TypeId: 7, Median: 20, CloudUpdatedTs: tCloud}); err != nil {
		t.Fatal(err)
	}

	e := New(s, 0)
	v, unpriced, err := e.EffectivePrice(scope, season, 7, false)
	if err != nil {
		t.Fatal(err)
	}
	if unpriced || v != 20 {
		t.Fatalf("expected cloud price 20 to win, got %v unpriced=%v", v, unpriced)
	}

	// A newer manual price should then override the cloud value.
	tLocal2 := tCloud.Add(time.Minute)
	if err := s.UpsertPrice(schema.Price{Scope: string(scope), TypeId: 7, Value: 15, Source: schema.SourceManual, UpdatedTs: tLocal2}); err != nil {
		t.Fatal(err)
	}
	e2 := New(s, 0) // fresh engine to bypass the read-through cache
	v, unpriced, err = e2.EffectivePrice(scope, season, 7, false)
	if err != nil {
		t.Fatal(err)
	}
	if unpriced || v != 15 {
		t.Fatalf("expected newer local price 15 to win, got %v unpriced=%v", v, unpriced)
	}
}

func TestBaseCurrencyAlwaysOne(t *testing.T) {
	s := newTestStore(t)
	e := New(s, 99)

	v, unpriced, err := e.EffectivePrice("scope", "season", 99, true)
	if err != nil {
		t.Fatal(err)
	}
	if unpriced || v != 1 {
		t.Fatalf("expected Base Currency price 1, got %v unpriced=%v", v, unpriced)
	}
}

func TestTradeTaxAppliesToNonBaseCurrency(t *testing.T) {
	s := newTestStore(t)
	scope := schema.NewPlayerScope("s1", "hero")

	if err := s.UpsertPrice(schema.Price{Scope: string(scope), TypeId: 5, Value: 8, Source: schema.SourceManual, UpdatedTs: time.Now()}); err != nil {
		t.Fatal(err)
	}

	e := New(s, 0)
	v, _, err := e.EffectivePrice(scope, "s1", 5, true)
	if err != nil {
		t.Fatal(err)
	}
	expected := 8 * (1 - TradeTaxFraction)
	if math.Abs(v-expected) > 1e-9 {
		t.Fatalf("expected taxed price %v, got %v", expected, v)
	}
}

func TestUnpricedWhenNeitherSourceExists(t *testing.T) {
	s := newTestStore(t)
	e := New(s, 0)

	_, unpriced, err := e.EffectivePrice("scope", "season", 123, false)
	if err != nil {
		t.Fatal(err)
	}
	if !unpriced {
		t.Fatal("expected unpriced result")
	}
}

func TestValueRunGrossMapCostNet(t *testing.T) {
	s := newTestStore(t)
	scope := schema.NewPlayerScope("s1", "hero")

	now := time.Now()
	if err := s.UpsertPrice(schema.Price{Scope: string(scope), TypeId: 1, Value: 2, Source: schema.SourceManual, UpdatedTs: now}); err != nil {
		t.Fatal(err)
	}
	if err := s.UpsertPrice(schema.Price{Scope: string(scope), TypeId: 2, Value: 3, Source: schema.SourceManual, UpdatedTs: now}); err != nil {
		t.Fatal(err)
	}

	deltas := []schema.Delta{
		{TypeId: 1, Quantity: 5, Context: schema.ContextPickItems},
		{TypeId: 2, Quantity: -1, Context: schema.ContextMapOpen},
	}

	e := New(s, 0)
	report, err := e.ValueRun(scope, "s1", 1, deltas, false, true)
	if err != nil {
		t.Fatal(err)
	}
	if report.Gross != 10 {
		t.Fatalf("expected gross 10, got %v", report.Gross)
	}
	if report.MapCost != 3 {
		t.Fatalf("expected mapCost 3, got %v", report.MapCost)
	}
	if report.Net != 7 {
		t.Fatalf("expected net 7, got %v", report.Net)
	}
}

func TestPercentileMatchesExchangeReferencePrice(t *testing.T) {
	p, err := Percentile([]float64{0.10, 0.12, 0.15, 0.20, 1.50}, 0.10)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(p-0.108) > 1e-9 {
		t.Fatalf("expected 0.108, got %v", p)
	}
}
