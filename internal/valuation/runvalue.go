package valuation

import (
	"time"

	"github.com/lootwatch/lootwatchd/pkg/schema"
)

// RunReport is the gross/mapCost/net breakdown for one run, per
// spec.md §4.7 "Run value".
type RunReport struct {
	RunID        int64
	Gross        float64
	MapCost      float64
	Net          float64
	HasUnpriced  bool
	PerItem      map[schema.TypeId]float64 // signed, preserves losses
}

// ValueRun computes gross, mapCost, and net for the deltas attributed
// to one run. tradeTaxOn and mapCostEnabled are the persisted
// Settings toggles; seasonID scopes cloud-price lookups.
func (e *Engine) ValueRun(scope schema.PlayerScope, seasonID string, runID int64, deltas []schema.Delta, tradeTaxOn, mapCostEnabled bool) (RunReport, error) {
	report := RunReport{RunID: runID, PerItem: make(map[schema.TypeId]float64)}

	for _, d := range deltas {
		switch d.Context {
		case schema.ContextPickItems:
			price, unpriced, err := e.EffectivePrice(scope, seasonID, d.TypeId, tradeTaxOn)
			if err != nil {
				return report, err
			}
			if unpriced {
				report.HasUnpriced = true
				continue
			}
			value := float64(d.Quantity) * price
			report.Gross += value
			report.PerItem[d.TypeId] += value

		case schema.ContextMapOpen:
			price, unpriced, err := e.EffectivePrice(scope, seasonID, d.TypeId, false)
			if err != nil {
				return report, err
			}
			if unpriced {
				report.HasUnpriced = true
				continue
			}
			cost := absInt64(d.Quantity) * price
			report.MapCost += cost
		}
	}

	report.Net = report.Gross
	if mapCostEnabled {
		report.Net -= report.MapCost
	}
	return report, nil
}

func absInt64(n int64) float64 {
	if n < 0 {
		return float64(-n)
	}
	return float64(n)
}

// ValuePerHour implements spec.md §4.7 "Aggregates": either summed
// in-map duration (default) or wall-clock span since session start
// minus explicit paused time (real-time mode).
func ValuePerHour(value float64, inMapSeconds, wallClockSeconds, pausedSeconds float64, realTime bool) float64 {
	seconds := inMapSeconds
	if realTime {
		seconds = wallClockSeconds - pausedSeconds
	}
	if seconds <= 0 {
		return 0
	}
	return value / (seconds / 3600.0)
}

// AvgPerRun returns the mean of per-run gross or net values, depending
// on mapCostEnabled.
func AvgPerRun(reports []RunReport, mapCostEnabled bool) (float64, error) {
	values := make([]float64, 0, len(reports))
	for _, r := range reports {
		if mapCostEnabled {
			values = append(values, r.Net)
		} else {
			values = append(values, r.Gross)
		}
	}
	return Mean(values)
}

// HourBucket floors a timestamp to the start of its hour, the key
// used by price-history and stats/history aggregation.
func HourBucket(t time.Time) time.Time {
	return t.Truncate(time.Hour)
}
