package cloudsync

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/lootwatch/lootwatchd/internal/store"
	"github.com/lootwatch/lootwatchd/pkg/log"
	"github.com/lootwatch/lootwatchd/pkg/schema"
)

func init() { log.SetLevel("warn") }

func TestFetchSeasonPricesPaginates(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.URL.Query().Get("cursor") == "" {
			json.NewEncoder(w).Encode(pricesPage{
				Prices: []schema.CloudPrice{{TypeId: 1, Median: 5}},
				Next:   "page2",
			})
			return
		}
		json.NewEncoder(w).Encode(pricesPage{Prices: []schema.CloudPrice{{TypeId: 2, Median: 6}}})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k")
	prices, err := c.FetchSeasonPrices(context.Background(), "s1")
	if err != nil {
		t.Fatal(err)
	}
	if len(prices) != 2 || calls != 2 {
		t.Fatalf("expected 2 pages merged into 2 prices, got %d prices over %d calls", len(prices), calls)
	}
}

func TestSubmitPriceRetryableOn429(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k")
	err := c.SubmitPrice(context.Background(), "dev", 1, 1.5, time.Now())
	if err == nil {
		t.Fatal("expected error")
	}
	if !isRetryable(err) {
		t.Fatal("expected 429 to be retryable")
	}
}

func TestSubmitPriceNonRetryableOn400(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k")
	err := c.SubmitPrice(context.Background(), "dev", 1, 1.5, time.Now())
	if err == nil {
		t.Fatal("expected error")
	}
	if isRetryable(err) {
		t.Fatal("expected 400 to be non-retryable")
	}
}

func TestBackoffDue(t *testing.T) {
	now := time.Now()
	if !backoffDue(0, nil, now) {
		t.Fatal("first attempt should always be due")
	}
	recent := now.Add(-time.Second)
	if backoffDue(1, &recent, now) {
		t.Fatal("expected 2^1s backoff to not be due after only 1s")
	}
	older := now.Add(-3 * time.Second)
	if !backoffDue(1, &older, now) {
		t.Fatal("expected 2^1s backoff to be due after 3s")
	}
}

func TestRunUplinkDropsBaseCurrencySubmitsOthers(t *testing.T) {
	s, err := store.Open("sqlite3", filepath.Join(t.TempDir(), "u.db"))
	if err != nil {
		t.Fatal(err)
	}

	base := time.Now().UTC()
	if err := s.EnqueueOutbox(1, 2.5, base); err != nil {
		t.Fatal(err)
	}
	if err := s.EnqueueOutbox(99, 1.0, base.Add(time.Second)); err != nil {
		t.Fatal(err)
	}

	var submitted []schema.TypeId
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req submitPriceRequest
		json.NewDecoder(r.Body).Decode(&req)
		submitted = append(submitted, req.TypeId)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	worker := New(s, NewClient(srv.URL, "k"), "device-1", 99, func() string { return "s1" },
		func() (schema.PlayerScope, bool) { return "", false }, nil)
	worker.runUplink(context.Background())

	batch, err := s.OutboxBatch(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(batch) != 0 {
		t.Fatalf("expected outbox drained, got %+v", batch)
	}
	if len(submitted) != 1 || submitted[0] != 1 {
		t.Fatalf("expected only type 1 submitted, got %v", submitted)
	}
}

func TestRunUplinkLeavesRetryableEntryQueued(t *testing.T) {
	s, err := store.Open("sqlite3", filepath.Join(t.TempDir(), "r.db"))
	if err != nil {
		t.Fatal(err)
	}
	if err := s.EnqueueOutbox(1, 2.5, time.Now().UTC()); err != nil {
		t.Fatal(err)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	worker := New(s, NewClient(srv.URL, "k"), "device-1", 99, func() string { return "s1" },
		func() (schema.PlayerScope, bool) { return "", false }, nil)
	worker.runUplink(context.Background())

	batch, err := s.OutboxBatch(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(batch) != 1 || batch[0].Attempts != 1 {
		t.Fatalf("expected entry retained with 1 attempt recorded, got %+v", batch)
	}
}

func TestRunDownlinkStoresSeasonPricesAndBoundedHistory(t *testing.T) {
	s, err := store.Open("sqlite3", filepath.Join(t.TempDir(), "d.db"))
	if err != nil {
		t.Fatal(err)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.Contains(r.URL.Path, "/history"):
			json.NewEncoder(w).Encode(historyPage{Rows: []schema.PriceHistoryRow{
				{TypeId: 7, HourBucket: time.Now().UTC().Truncate(time.Hour), Median: 3},
			}})
		case strings.Contains(r.URL.Path, "/seasons/"):
			json.NewEncoder(w).Encode(pricesPage{Prices: []schema.CloudPrice{
				{SeasonId: "s1", TypeId: 7, Median: 4, CloudUpdatedTs: time.Now().UTC()},
			}})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	scope := schema.NewPlayerScope("s1", "hero")
	worker := New(s, NewClient(srv.URL, "k"), "device-1", 99, func() string { return "s1" },
		func() (schema.PlayerScope, bool) { return scope, true },
		func(schema.PlayerScope) ([]schema.TypeId, error) { return []schema.TypeId{7}, nil })

	worker.runDownlink(context.Background())

	cp, err := s.CloudPrice("s1", 7)
	if err != nil {
		t.Fatal(err)
	}
	if cp == nil || cp.Median != 4 {
		t.Fatalf("expected cloud price stored, got %+v", cp)
	}

	rows, err := s.PriceHistory(7, time.Now().Add(-73*time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 history row, got %d", len(rows))
	}
}
