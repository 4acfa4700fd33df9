package httpapi

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/lootwatch/lootwatchd/internal/valuation"
	"github.com/lootwatch/lootwatchd/pkg/schema"
)

// RunReportDocument is the cumulative JSON report body: one entry per
// outer run plus the aggregate RunsSummary, over the requested range.
type RunReportDocument struct {
	Runs    []valuation.RunReport `json:"runs"`
	Summary RunsSummary           `json:"summary"`
}

// @summary Cumulative value report (JSON)
// @tags    Runs
// @produce json
// @param   since query string false "RFC3339 lower bound on startTs"
// @param   until query string false "RFC3339 upper bound on startTs"
// @success 200   {object} RunReportDocument
// @router  /runs/report.json [get]
func (api *RestApi) runsReportJSON(rw http.ResponseWriter, r *http.Request) {
	reports, runs, err := api.buildReports(rw, r)
	if err != nil {
		return
	}
	summary := api.summarize(reports, runs)
	writeJSON(rw, http.StatusOK, RunReportDocument{Runs: reports, Summary: summary})
}

// runsReportCSV returns the same per-run report as report.json, one row
// per run, sorted by RunID for a stable diff between exports.
func (api *RestApi) runsReportCSV(rw http.ResponseWriter, r *http.Request) {
	reports, _, err := api.buildReports(rw, r)
	if err != nil {
		return
	}
	sort.Slice(reports, func(i, j int) bool { return reports[i].RunID < reports[j].RunID })

	rw.Header().Set("Content-Type", "text/csv")
	rw.Header().Set("Content-Disposition", `attachment; filename="runs-report.csv"`)
	w := csv.NewWriter(rw)
	w.Write([]string{"runId", "gross", "mapCost", "net", "hasUnpriced"})
	for _, rep := range reports {
		w.Write([]string{
			fmt.Sprintf("%d", rep.RunID),
			fmt.Sprintf("%.4f", rep.Gross),
			fmt.Sprintf("%.4f", rep.MapCost),
			fmt.Sprintf("%.4f", rep.Net),
			fmt.Sprintf("%t", rep.HasUnpriced),
		})
	}
	w.Flush()
}

func (api *RestApi) summarize(reports []valuation.RunReport, runs []schema.Run) RunsSummary {
	mapCostOn := api.settingBool("map-cost", false)
	realTime := api.settingBool("real-time-tracking", false)
	now := time.Now().UTC()

	summary := RunsSummary{RunCount: len(reports)}
	for _, rep := range reports {
		summary.Gross += rep.Gross
		summary.Net += rep.Net
		summary.HasUnpriced = summary.HasUnpriced || rep.HasUnpriced
	}
	if len(reports) > 0 {
		avg, _ := valuation.AvgPerRun(reports, mapCostOn)
		summary.AvgPerRun = avg
	}
	summary.InMapSeconds = inMapSeconds(api.Store, runs, now)
	summary.WallClockSeconds = wallClockSeconds(runs, now)
	summary.PausedSeconds = api.pausedSeconds(now)

	value := summary.Gross
	if mapCostOn {
		value = summary.Net
	}
	summary.ValuePerHour = valuation.ValuePerHour(value, summary.InMapSeconds, summary.WallClockSeconds, summary.PausedSeconds, realTime)
	return summary
}
