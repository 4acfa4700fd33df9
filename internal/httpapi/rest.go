// Package httpapi implements the thin REST boundary (Component in
// spec.md §6.3): the only writer-facing surface onto the Store, the
// Valuation Engine, and the Cloud Sync Worker's lifecycle. Handlers do
// not themselves apply domain logic beyond parameter parsing and
// response shaping; everything else is delegated to internal/store,
// internal/valuation, and internal/cloudsync.
package httpapi

// @title                      lootwatchd API
// @version                    1.0.0
// @description                Local HTTP API for the loot-tracking daemon: run history, inventory, pricing, and cloud-sync control.

// @tag.name Runs
// @tag.name Inventory
// @tag.name Prices
// @tag.name Stats
// @tag.name Cloud
// @tag.name Settings

// @contact.name               lootwatch
// @contact.url                https://github.com/lootwatch/lootwatchd

// @license.name               MIT License
// @license.url                https://opensource.org/licenses/MIT

// @host                       localhost:8787
// @basePath                   /api

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/lootwatch/lootwatchd/internal/collector"
	"github.com/lootwatch/lootwatchd/internal/httpapi/docs"
	"github.com/lootwatch/lootwatchd/internal/store"
	"github.com/lootwatch/lootwatchd/internal/valuation"
	"github.com/lootwatch/lootwatchd/pkg/lrucache"
	"github.com/lootwatch/lootwatchd/pkg/schema"
)

// blank reference keeps the docs package (which self-registers its
// spec with swag in its init()) from looking unused to a reviewer.
var _ = docs.SwaggerInfo

// RestApi bundles everything a handler needs to serve one request. A
// single instance is shared across all requests; handlers must not
// retain request-scoped state on it.
type RestApi struct {
	Store        *store.Store
	Valuation    *valuation.Engine
	Collector    *collector.Collector
	Cloud        *CloudController
	Icons        *lrucache.HttpHandler
	BaseCurrency schema.TypeId
	Metrics      *Metrics
	StartedAt    time.Time
}

// New constructs a RestApi. icons may be nil if icon proxying is
// disabled (e.g. the "tail" CLI subcommand, which never serves HTTP).
// metrics is the same instance the caller wired as the Collector's
// ChangeNotifier and the Cloud Sync Worker's Observer, so /metrics
// reflects the live pipeline rather than an empty registry of its own;
// passing nil gives the RestApi its own (e.g. in tests that don't care).
func New(s *store.Store, v *valuation.Engine, c *collector.Collector, cloud *CloudController, icons *lrucache.HttpHandler, baseCurrency schema.TypeId, metrics *Metrics) *RestApi {
	if metrics == nil {
		metrics = NewMetrics()
	}
	return &RestApi{
		Store:        s,
		Valuation:    v,
		Collector:    c,
		Cloud:        cloud,
		Icons:        icons,
		BaseCurrency: baseCurrency,
		Metrics:      metrics,
		StartedAt:    time.Now().UTC(),
	}
}

// MountRoutes registers every resource under r's "/api" subrouter, plus
// /metrics and /swagger/ at the router root.
func (api *RestApi) MountRoutes(r *mux.Router) {
	a := r.PathPrefix("/api").Subrouter()
	a.StrictSlash(true)

	a.HandleFunc("/runs", api.listRuns).Methods(http.MethodGet)
	a.HandleFunc("/runs/summary", api.runsSummary).Methods(http.MethodGet)
	a.HandleFunc("/runs/open", api.openRun).Methods(http.MethodGet)
	a.HandleFunc("/runs/report.json", api.runsReportJSON).Methods(http.MethodGet)
	a.HandleFunc("/runs/report.csv", api.runsReportCSV).Methods(http.MethodGet)
	a.HandleFunc("/runs/pause", api.pauseRun).Methods(http.MethodPost)
	a.HandleFunc("/runs/reset", api.resetRuns).Methods(http.MethodPost)
	a.HandleFunc("/runs/{id:[0-9]+}", api.getRun).Methods(http.MethodGet)

	a.HandleFunc("/inventory", api.getInventory).Methods(http.MethodGet)

	a.HandleFunc("/prices", api.listPrices).Methods(http.MethodGet)
	a.HandleFunc("/prices/export", api.exportPrices).Methods(http.MethodGet)
	a.HandleFunc("/prices/migrate-legacy-season", api.migrateLegacySeason).Methods(http.MethodPost)
	a.HandleFunc("/prices/{typeId:[0-9]+}", api.getPrice).Methods(http.MethodGet)
	a.HandleFunc("/prices/{typeId:[0-9]+}", api.putPrice).Methods(http.MethodPut)

	a.HandleFunc("/stats/history", api.statsHistory).Methods(http.MethodGet)

	a.HandleFunc("/cloud/status", api.cloudStatus).Methods(http.MethodGet)
	a.HandleFunc("/cloud/enable", api.cloudEnable).Methods(http.MethodPost)
	a.HandleFunc("/cloud/disable", api.cloudDisable).Methods(http.MethodPost)
	a.HandleFunc("/cloud/sync", api.cloudSyncNow).Methods(http.MethodPost)
	a.HandleFunc("/cloud/prices/{typeId:[0-9]+}", api.cloudPrice).Methods(http.MethodGet)
	a.HandleFunc("/cloud/prices/{typeId:[0-9]+}/history", api.cloudPriceHistory).Methods(http.MethodGet)

	a.HandleFunc("/settings", api.getSettings).Methods(http.MethodGet)
	a.HandleFunc("/settings", api.putSettings).Methods(http.MethodPut)

	a.HandleFunc("/status", api.getStatus).Methods(http.MethodGet)

	if api.Icons != nil {
		a.PathPrefix("/icons/").Handler(api.Icons).Methods(http.MethodGet)
	}

	r.Handle("/metrics", api.Metrics.Handler()).Methods(http.MethodGet)

	r.PathPrefix("/swagger/").Handler(httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"))).Methods(http.MethodGet)
}

// ErrorResponse model
type ErrorResponse struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

func handleError(err error, statusCode int, rw http.ResponseWriter) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(statusCode)
	json.NewEncoder(rw).Encode(ErrorResponse{
		Status: http.StatusText(statusCode),
		Error:  err.Error(),
	})
}

func decode(r io.Reader, val interface{}) error {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	return dec.Decode(val)
}

func writeJSON(rw http.ResponseWriter, status int, val interface{}) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)
	json.NewEncoder(rw).Encode(val)
}

// currentScope resolves the live PlayerScope, failing the request with
// 409 Conflict if none is known yet (no player identity observed).
func (api *RestApi) currentScope(rw http.ResponseWriter) (schema.PlayerScope, bool) {
	scope, ok := api.Collector.CurrentScope()
	if !ok {
		handleError(errNoActiveScope, http.StatusConflict, rw)
		return "", false
	}
	return scope, true
}

var errNoActiveScope = errString("no active player scope: nothing has been observed in the log yet")

type errString string

func (e errString) Error() string { return string(e) }

func queryTypeId(r *http.Request) (schema.TypeId, error) {
	raw := mux.Vars(r)["typeId"]
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, err
	}
	return schema.TypeId(n), nil
}

func queryTypeIdParam(r *http.Request, key string) (schema.TypeId, error) {
	raw := r.URL.Query().Get(key)
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, err
	}
	return schema.TypeId(n), nil
}

func queryTimeRange(r *http.Request) (since, until *time.Time, err error) {
	if v := r.URL.Query().Get("since"); v != "" {
		t, e := time.Parse(time.RFC3339, v)
		if e != nil {
			return nil, nil, e
		}
		since = &t
	}
	if v := r.URL.Query().Get("until"); v != "" {
		t, e := time.Parse(time.RFC3339, v)
		if e != nil {
			return nil, nil, e
		}
		until = &t
	}
	return since, until, nil
}

func queryUint(r *http.Request, key string, def uint64) uint64 {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return def
	}
	return n
}

func (api *RestApi) settingBool(key string, def bool) bool {
	var v bool
	if err := api.Store.GetSetting(key, &v); err != nil {
		return def
	}
	return v
}
