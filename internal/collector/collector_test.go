package collector

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/lootwatch/lootwatchd/internal/segmenter"
	"github.com/lootwatch/lootwatchd/internal/store"
	"github.com/lootwatch/lootwatchd/pkg/log"
	"github.com/lootwatch/lootwatchd/pkg/schema"
)

func newTestCollector(t *testing.T) (*Collector, *store.Store) {
	t.Helper()
	log.SetLevel("warn")

	s, err := store.Open("sqlite3", filepath.Join(t.TempDir(), "c.db"))
	if err != nil {
		t.Fatal(err)
	}
	classifier := segmenter.NewClassifier([]string{"/Hideout/"}, []string{"nightmare#7"}, nil)
	c := New(s, classifier, 6, schema.GearAllowlist{}, 0, time.Second, nil)
	return c, s
}

func feed(t *testing.T, c *Collector, lines ...string) {
	t.Helper()
	now := time.Now().UTC()
	for _, l := range lines {
		if err := c.HandleLine(now, l); err != nil {
			t.Fatalf("HandleLine(%q): %v", l, err)
		}
	}
}

func TestCollectorAttributesDeltaToOpenRun(t *testing.T) {
	c, s := newTestCollector(t)
	feed(t, c,
		"[PLAYER] SeasonId=s1",
		"[PLAYER] Name=hero",
		"[LEVEL] ENTER uid=/forest/ type=forest id=101",
		"[CTX] BEGIN PickItems",
		"[BAG] MODIFY page=1 slot=0 type=900 num=31",
		"[CTX] END PickItems",
	)

	scope := schema.NewPlayerScope("s1", "hero")
	open, err := s.OpenRun(scope)
	if err != nil {
		t.Fatal(err)
	}
	if open == nil {
		t.Fatal("expected an open run")
	}

	deltas, err := s.DeltasForRun(open.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(deltas) != 1 || deltas[0].Quantity != 31 || deltas[0].Context != schema.ContextPickItems {
		t.Fatalf("unexpected deltas: %+v", deltas)
	}
}

func TestCollectorGearPageExcludedByDefault(t *testing.T) {
	c, s := newTestCollector(t)
	feed(t, c,
		"[PLAYER] SeasonId=s1",
		"[PLAYER] Name=hero",
		"[LEVEL] ENTER uid=/forest/ type=forest id=101",
		"[BAG] MODIFY page=6 slot=0 type=500 num=1",
	)

	scope := schema.NewPlayerScope("s1", "hero")
	open, err := s.OpenRun(scope)
	if err != nil {
		t.Fatal(err)
	}
	deltas, err := s.DeltasForRun(open.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(deltas) != 0 {
		t.Fatalf("expected gear-page event dropped, got %+v", deltas)
	}
}

func TestCollectorSubZoneSpliceKeepsOuterRunAttribution(t *testing.T) {
	c, s := newTestCollector(t)
	feed(t, c,
		"[PLAYER] SeasonId=s1",
		"[PLAYER] Name=hero",
		"[LEVEL] ENTER uid=/forest/ type=forest id=101",
	)
	scope := schema.NewPlayerScope("s1", "hero")
	outer, err := s.OpenRun(scope)
	if err != nil {
		t.Fatal(err)
	}

	feed(t, c, "[LEVEL] ENTER uid=nightmare type=nightmare id=7")
	feed(t, c, "[LEVEL] ENTER uid=/forest/ type=forest id=101") // splice: returns to same outer signature

	open, err := s.OpenRun(scope)
	if err != nil {
		t.Fatal(err)
	}
	if open == nil || open.ID != outer.ID {
		t.Fatalf("expected splice to resume the original outer run %d, got %+v", outer.ID, open)
	}
}

func TestCollectorScopeChangeFlushesOpenRun(t *testing.T) {
	c, s := newTestCollector(t)
	feed(t, c,
		"[PLAYER] SeasonId=s1",
		"[PLAYER] Name=hero",
		"[LEVEL] ENTER uid=/forest/ type=forest id=101",
	)
	scope1 := schema.NewPlayerScope("s1", "hero")
	open1, err := s.OpenRun(scope1)
	if err != nil {
		t.Fatal(err)
	}
	if open1 == nil {
		t.Fatal("expected run open under scope1")
	}

	feed(t, c, "[PLAYER] Name=villain")

	closed, err := s.Run(open1.ID)
	if err != nil {
		t.Fatal(err)
	}
	if closed.Open() {
		t.Fatalf("expected prior scope's run closed on scope change, got %+v", closed)
	}

	scope2 := schema.NewPlayerScope("s1", "villain")
	open2, err := s.OpenRun(scope2)
	if err != nil {
		t.Fatal(err)
	}
	if open2 != nil {
		t.Fatal("expected no open run yet under the new scope")
	}
}

func TestCollectorLearnsExchangePriceAndEnqueuesOutbox(t *testing.T) {
	c, s := newTestCollector(t)
	feed(t, c,
		"[PLAYER] SeasonId=s1",
		"[PLAYER] Name=hero",
		"[EXCHANGE] SEARCH type=42 page=1",
		"[EXCHANGE] LISTING price=0.10",
		"[EXCHANGE] LISTING price=0.12",
		"[EXCHANGE] LISTING price=0.15",
		"[EXCHANGE] LISTING price=0.20",
		"[EXCHANGE] LISTING price=1.50",
		"[EXCHANGE] END",
	)

	scope := schema.NewPlayerScope("s1", "hero")
	price, err := s.LocalPrice(scope, 42)
	if err != nil {
		t.Fatal(err)
	}
	if price == nil {
		t.Fatal("expected a learned price to be stored")
	}
	if price.Value < 0.1079 || price.Value > 0.1081 {
		t.Fatalf("expected reference price ~0.108, got %v", price.Value)
	}

	batch, err := s.OutboxBatch(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(batch) != 1 || batch[0].TypeId != 42 {
		t.Fatalf("expected learned price enqueued, got %+v", batch)
	}
}

func TestCollectorGearPageExchangeListingsIgnored(t *testing.T) {
	c, s := newTestCollector(t)
	feed(t, c,
		"[PLAYER] SeasonId=s1",
		"[PLAYER] Name=hero",
		"[EXCHANGE] SEARCH type=42 page=6",
		"[EXCHANGE] LISTING price=0.10",
		"[EXCHANGE] LISTING price=0.12",
		"[EXCHANGE] LISTING price=0.15",
		"[EXCHANGE] END",
	)

	scope := schema.NewPlayerScope("s1", "hero")
	price, err := s.LocalPrice(scope, 42)
	if err != nil {
		t.Fatal(err)
	}
	if price != nil {
		t.Fatalf("expected gear-page listings to be ignored, got %+v", price)
	}
}
