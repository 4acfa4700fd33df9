package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"github.com/lootwatch/lootwatchd/internal/collector"
	"github.com/lootwatch/lootwatchd/internal/segmenter"
	"github.com/lootwatch/lootwatchd/internal/store"
	"github.com/lootwatch/lootwatchd/internal/valuation"
	"github.com/lootwatch/lootwatchd/pkg/log"
	"github.com/lootwatch/lootwatchd/pkg/schema"
)

func newTestApi(t *testing.T) (*RestApi, *store.Store, *collector.Collector, *mux.Router) {
	t.Helper()
	log.SetLevel("warn")

	s, err := store.Open("sqlite3", filepath.Join(t.TempDir(), "api.db"))
	if err != nil {
		t.Fatal(err)
	}
	classifier := segmenter.NewClassifier([]string{"/Hideout/"}, []string{"nightmare#7"}, nil)
	c := collector.New(s, classifier, schema.GearPageID, schema.GearAllowlist{}, 0, time.Second, nil)
	v := valuation.New(s, 0)
	cloud := NewCloudController(nil)

	api := New(s, v, c, cloud, nil, 0, nil)
	r := mux.NewRouter()
	api.MountRoutes(r)
	return api, s, c, r
}

func feedLines(t *testing.T, c *collector.Collector, lines ...string) {
	t.Helper()
	now := time.Now().UTC()
	for _, l := range lines {
		if err := c.HandleLine(now, l); err != nil {
			t.Fatalf("HandleLine(%q): %v", l, err)
		}
	}
}

func doRequest(t *testing.T, r *mux.Router, method, target string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	rw := httptest.NewRecorder()
	r.ServeHTTP(rw, req)
	return rw
}

func TestRunsConflictWithoutActiveScope(t *testing.T) {
	_, _, _, r := newTestApi(t)

	rw := doRequest(t, r, http.MethodGet, "/api/runs", nil)
	if rw.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rw.Code, rw.Body.String())
	}
}

func TestStatusBeforeAnyScopeSeen(t *testing.T) {
	_, _, _, r := newTestApi(t)

	rw := doRequest(t, r, http.MethodGet, "/api/status", nil)
	if rw.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rw.Code)
	}
	var status StatusResponse
	if err := json.Unmarshal(rw.Body.Bytes(), &status); err != nil {
		t.Fatal(err)
	}
	if status.Scope != "" || status.OpenRunId != nil {
		t.Fatalf("expected no scope/run yet, got %+v", status)
	}
}

func TestListRunsAfterOpeningOne(t *testing.T) {
	_, _, c, r := newTestApi(t)
	feedLines(t, c,
		"[PLAYER] SeasonId=s1",
		"[PLAYER] Name=hero",
		"[LEVEL] ENTER uid=/forest/ type=forest id=101",
		"[CTX] BEGIN PickItems",
		"[BAG] MODIFY page=1 slot=0 type=900 num=31",
		"[CTX] END PickItems",
	)

	rw := doRequest(t, r, http.MethodGet, "/api/runs", nil)
	if rw.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rw.Code, rw.Body.String())
	}
	var runs []schema.Run
	if err := json.Unmarshal(rw.Body.Bytes(), &runs); err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(runs))
	}

	rw = doRequest(t, r, http.MethodGet, "/api/runs/open", nil)
	if rw.Code != http.StatusOK {
		t.Fatalf("expected 200 for open run, got %d", rw.Code)
	}
}

func TestInventoryReflectsAppliedDeltas(t *testing.T) {
	_, s, c, r := newTestApi(t)
	if err := s.UpsertItem(schema.Item{TypeId: 900, Name: "Widget"}); err != nil {
		t.Fatal(err)
	}
	feedLines(t, c,
		"[PLAYER] SeasonId=s1",
		"[PLAYER] Name=hero",
		"[LEVEL] ENTER uid=/forest/ type=forest id=101",
		"[BAG] MODIFY page=1 slot=0 type=900 num=31",
	)

	rw := doRequest(t, r, http.MethodGet, "/api/inventory", nil)
	if rw.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rw.Code, rw.Body.String())
	}
	var slots []InventorySlot
	if err := json.Unmarshal(rw.Body.Bytes(), &slots); err != nil {
		t.Fatal(err)
	}
	if len(slots) != 1 || slots[0].TypeId != 900 || slots[0].Quantity != 31 || slots[0].Name != "Widget" {
		t.Fatalf("unexpected slots: %+v", slots)
	}
}

func TestPutAndGetPrice(t *testing.T) {
	_, _, c, r := newTestApi(t)
	feedLines(t, c, "[PLAYER] SeasonId=s1", "[PLAYER] Name=hero")

	rw := doRequest(t, r, http.MethodPut, "/api/prices/900", PutPriceRequest{Value: 2.5})
	if rw.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rw.Code, rw.Body.String())
	}

	rw = doRequest(t, r, http.MethodGet, "/api/prices/900", nil)
	if rw.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rw.Code)
	}
	var p schema.Price
	if err := json.Unmarshal(rw.Body.Bytes(), &p); err != nil {
		t.Fatal(err)
	}
	if p.Value != 2.5 || p.Source != schema.SourceManual {
		t.Fatalf("unexpected price: %+v", p)
	}
}

func TestPutPriceRejectsBaseCurrency(t *testing.T) {
	_, _, c, r := newTestApi(t)
	feedLines(t, c, "[PLAYER] SeasonId=s1", "[PLAYER] Name=hero")

	rw := doRequest(t, r, http.MethodPut, "/api/prices/0", PutPriceRequest{Value: 1})
	if rw.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 pricing the base currency, got %d", rw.Code)
	}
}

func TestGetPriceNotFound(t *testing.T) {
	_, _, c, r := newTestApi(t)
	feedLines(t, c, "[PLAYER] SeasonId=s1", "[PLAYER] Name=hero")

	rw := doRequest(t, r, http.MethodGet, "/api/prices/12345", nil)
	if rw.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rw.Code)
	}
}

func TestMigrateLegacySeasonCopiesManualPrices(t *testing.T) {
	_, s, c, r := newTestApi(t)
	old := schema.NewPlayerScope("s0", "hero")
	if err := s.UpsertPrice(schema.Price{Scope: string(old), TypeId: 900, Value: 4, Source: schema.SourceManual, UpdatedTs: time.Now().UTC()}); err != nil {
		t.Fatal(err)
	}
	feedLines(t, c, "[PLAYER] SeasonId=s0", "[PLAYER] Name=hero")

	rw := doRequest(t, r, http.MethodPost, "/api/prices/migrate-legacy-season", MigrateLegacySeasonRequest{FromSeasonId: "s0"})
	if rw.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rw.Code, rw.Body.String())
	}
}

func TestSettingsRoundtrip(t *testing.T) {
	_, _, _, r := newTestApi(t)

	rw := doRequest(t, r, http.MethodPut, "/api/settings", PutSettingsRequest{Key: "trade-tax", Value: true})
	if rw.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", rw.Code, rw.Body.String())
	}

	rw = doRequest(t, r, http.MethodGet, "/api/settings", nil)
	if rw.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rw.Code)
	}
	var settings map[string]interface{}
	if err := json.Unmarshal(rw.Body.Bytes(), &settings); err != nil {
		t.Fatal(err)
	}
	if v, ok := settings["trade-tax"]; !ok || v != true {
		t.Fatalf("expected trade-tax=true in settings, got %+v", settings)
	}
}

func TestSettingsRejectsMissingKey(t *testing.T) {
	_, _, _, r := newTestApi(t)

	rw := doRequest(t, r, http.MethodPut, "/api/settings", PutSettingsRequest{Value: true})
	if rw.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rw.Code)
	}
}

func TestCloudStatusNotConfigured(t *testing.T) {
	_, _, _, r := newTestApi(t)

	rw := doRequest(t, r, http.MethodGet, "/api/cloud/status", nil)
	if rw.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rw.Code)
	}
	var status CloudStatusResponse
	if err := json.Unmarshal(rw.Body.Bytes(), &status); err != nil {
		t.Fatal(err)
	}
	if status.Configured || status.Enabled {
		t.Fatalf("expected neither configured nor enabled, got %+v", status)
	}
}

func TestCloudEnableFailsWhenNotConfigured(t *testing.T) {
	_, _, _, r := newTestApi(t)

	rw := doRequest(t, r, http.MethodPost, "/api/cloud/enable", nil)
	if rw.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rw.Code)
	}
}

func TestMetricsRouteServesPrometheusFormat(t *testing.T) {
	_, _, _, r := newTestApi(t)

	rw := doRequest(t, r, http.MethodGet, "/metrics", nil)
	if rw.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rw.Code)
	}
	if !bytes.Contains(rw.Body.Bytes(), []byte("lootwatch_")) {
		t.Fatalf("expected lootwatch_ series in output, got: %s", rw.Body.String())
	}
}

func TestSwaggerRouteServesSpec(t *testing.T) {
	_, _, _, r := newTestApi(t)

	rw := doRequest(t, r, http.MethodGet, "/swagger/doc.json", nil)
	if rw.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rw.Code, rw.Body.String())
	}
	if !bytes.Contains(rw.Body.Bytes(), []byte("lootwatchd API")) {
		t.Fatalf("expected spec title in output, got: %s", rw.Body.String())
	}
}
