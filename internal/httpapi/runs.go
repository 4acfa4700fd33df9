package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/lootwatch/lootwatchd/internal/segmenter"
	"github.com/lootwatch/lootwatchd/internal/store"
	"github.com/lootwatch/lootwatchd/internal/valuation"
	"github.com/lootwatch/lootwatchd/pkg/schema"
)

// @summary     List runs for the active scope
// @tags        Runs
// @produce     json
// @param       since query string false "RFC3339 lower bound on startTs"
// @param       until query string false "RFC3339 upper bound on startTs"
// @param       page  query int    false "Page number, 1-based (default 1)"
// @param       limit query int    false "Page size (default 50)"
// @success     200   {array}  schema.Run
// @failure     409   {object} ErrorResponse "no active player scope"
// @router      /runs [get]
func (api *RestApi) listRuns(rw http.ResponseWriter, r *http.Request) {
	scope, ok := api.currentScope(rw)
	if !ok {
		return
	}
	since, until, err := queryTimeRange(r)
	if err != nil {
		handleError(err, http.StatusBadRequest, rw)
		return
	}
	limit := queryUint(r, "limit", 50)
	page := queryUint(r, "page", 1)
	if page == 0 {
		page = 1
	}
	offset := (page - 1) * limit

	runs, err := api.Store.ListRuns(store.RunFilter{Scope: scope, Since: since, Until: until}, offset, limit)
	if err != nil {
		handleError(err, http.StatusInternalServerError, rw)
		return
	}
	writeJSON(rw, http.StatusOK, runs)
}

// getRun returns a single run by id, with its consolidated sub-zone
// children attached.
func (api *RestApi) getRun(rw http.ResponseWriter, r *http.Request) {
	id, err := parseID(mux.Vars(r)["id"])
	if err != nil {
		handleError(err, http.StatusBadRequest, rw)
		return
	}
	run, err := api.Store.Run(id)
	if err != nil {
		handleError(err, http.StatusNotFound, rw)
		return
	}
	children, err := api.Store.ChildRuns(id)
	if err != nil {
		handleError(err, http.StatusInternalServerError, rw)
		return
	}
	for _, c := range children {
		run.ConsolidatedChildren = append(run.ConsolidatedChildren, c.ID)
	}
	writeJSON(rw, http.StatusOK, run)
}

// RunsSummary is the aggregate view over a run set: total value, average
// per run, and value per hour, per spec.md §4.7 "Aggregates".
type RunsSummary struct {
	RunCount       int     `json:"runCount"`
	Gross          float64 `json:"gross"`
	Net            float64 `json:"net"`
	AvgPerRun      float64 `json:"avgPerRun"`
	ValuePerHour   float64 `json:"valuePerHour"`
	HasUnpriced    bool    `json:"hasUnpriced"`
	InMapSeconds   float64 `json:"inMapSeconds"`
	WallClockSeconds float64 `json:"wallClockSeconds"`
	PausedSeconds  float64 `json:"pausedSeconds"`
}

// @summary Summarize runs for the active scope over an optional time range
// @tags    Runs
// @produce json
// @param   since query string false "RFC3339 lower bound on startTs"
// @param   until query string false "RFC3339 upper bound on startTs"
// @success 200   {object} RunsSummary
// @router  /runs/summary [get]
func (api *RestApi) runsSummary(rw http.ResponseWriter, r *http.Request) {
	reports, runs, err := api.buildReports(rw, r)
	if err != nil {
		return
	}
	writeJSON(rw, http.StatusOK, api.summarize(reports, runs))
}

// openRun returns the currently open run for the active scope, or 204
// No Content if none is open.
func (api *RestApi) openRun(rw http.ResponseWriter, r *http.Request) {
	scope, ok := api.currentScope(rw)
	if !ok {
		return
	}
	run, err := api.Store.OpenRun(scope)
	if err != nil {
		handleError(err, http.StatusInternalServerError, rw)
		return
	}
	if run == nil {
		rw.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(rw, http.StatusOK, run)
}

// @summary Toggle the real-time paused clock
// @tags    Runs
// @produce json
// @success 200 {object} PauseState
// @router  /runs/pause [post]
func (api *RestApi) pauseRun(rw http.ResponseWriter, r *http.Request) {
	state, err := api.togglePause(time.Now().UTC())
	if err != nil {
		handleError(err, http.StatusInternalServerError, rw)
		return
	}
	writeJSON(rw, http.StatusOK, state)
}

// resetRuns destroys every Run and Delta row for the active scope; Slot
// State, prices, items, and settings all survive (spec.md §4.7 "Reset").
func (api *RestApi) resetRuns(rw http.ResponseWriter, r *http.Request) {
	scope, ok := api.currentScope(rw)
	if !ok {
		return
	}
	if err := api.Store.ResetRuns(scope); err != nil {
		handleError(err, http.StatusInternalServerError, rw)
		return
	}
	rw.WriteHeader(http.StatusNoContent)
}

func parseID(s string) (int64, error) {
	return strconv.ParseInt(s, 10, 64)
}

// buildReports gathers the run set named by the request's time range and
// values each one, shared by the JSON/CSV report routes and the summary.
func (api *RestApi) buildReports(rw http.ResponseWriter, r *http.Request) ([]valuation.RunReport, []schema.Run, error) {
	scope, ok := api.currentScope(rw)
	if !ok {
		return nil, nil, errNoActiveScope
	}
	since, until, err := queryTimeRange(r)
	if err != nil {
		handleError(err, http.StatusBadRequest, rw)
		return nil, nil, err
	}

	runs, err := api.Store.ListRuns(store.RunFilter{Scope: scope, Since: since, Until: until}, 0, 0)
	if err != nil {
		handleError(err, http.StatusInternalServerError, rw)
		return nil, nil, err
	}

	tradeTaxOn := api.settingBool("trade-tax", false)
	mapCostOn := api.settingBool("map-cost", false)
	seasonID := api.Collector.CurrentSeasonID()

	reports := make([]valuation.RunReport, 0, len(runs))
	for _, run := range runs {
		if run.IsSubZone {
			// Sub-run value is folded into its parent's report by the
			// splice; reporting both would double-count.
			continue
		}
		deltas, err := api.Store.DeltasForRun(run.ID)
		if err != nil {
			handleError(err, http.StatusInternalServerError, rw)
			return nil, nil, err
		}
		children, err := api.Store.ChildRuns(run.ID)
		if err != nil {
			handleError(err, http.StatusInternalServerError, rw)
			return nil, nil, err
		}
		for _, child := range children {
			childDeltas, err := api.Store.DeltasForRun(child.ID)
			if err != nil {
				handleError(err, http.StatusInternalServerError, rw)
				return nil, nil, err
			}
			deltas = append(deltas, childDeltas...)
		}
		report, err := api.Valuation.ValueRun(scope, seasonID, run.ID, deltas, tradeTaxOn, mapCostOn)
		if err != nil {
			handleError(err, http.StatusInternalServerError, rw)
			return nil, nil, err
		}
		reports = append(reports, report)
	}
	return reports, runs, nil
}

func inMapSeconds(s *store.Store, runs []schema.Run, now time.Time) float64 {
	total := 0.0
	for _, run := range runs {
		if run.IsSubZone || run.IsHubZone {
			continue
		}
		children, err := s.ChildRuns(run.ID)
		if err != nil {
			children = nil
		}
		total += segmenter.DurationExcludingSubRuns(run, children, now)
	}
	return total
}

func wallClockSeconds(runs []schema.Run, now time.Time) float64 {
	if len(runs) == 0 {
		return 0
	}
	earliest := runs[0].StartTs
	for _, run := range runs {
		if run.StartTs.Before(earliest) {
			earliest = run.StartTs
		}
	}
	d := now.Sub(earliest).Seconds()
	if d < 0 {
		return 0
	}
	return d
}
