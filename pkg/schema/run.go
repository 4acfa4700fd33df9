package schema

import "time"

// Run is one interval of loot-accruing activity: the span between a
// non-hub zone entry and the next zone transition that closes it. A
// sub-zone excursion opens its own Run, spliced back into the outer run's
// attribution once the player returns (spec.md §4.5).
type Run struct {
	ID                   int64       `db:"id" json:"id"`
	Scope                PlayerScope `db:"scope" json:"scope"`
	StartTs              time.Time   `db:"start_ts" json:"startTs"`
	EndTs                *time.Time  `db:"end_ts" json:"endTs,omitempty"`
	ZoneSignature        string      `db:"zone_signature" json:"zoneSignature"`
	LevelId              int64       `db:"level_id" json:"levelId"`
	LevelType            string      `db:"level_type" json:"levelType"`
	LevelUid             string      `db:"level_uid" json:"levelUid"`
	IsHubZone            bool        `db:"is_hub_zone" json:"isHubZone"`
	IsSubZone            bool        `db:"is_sub_zone" json:"isSubZone"`
	ParentRunID          *int64      `db:"parent_run_id" json:"parentRunId,omitempty"`
	ConsolidatedChildren []int64     `db:"-" json:"consolidatedChildren,omitempty"`
}

func (r Run) Open() bool { return r.EndTs == nil }

// DurationSeconds implements spec.md §4.5 "Duration semantics": end-start
// when closed, now-start when open. Callers presenting an outer run that
// had spliced sub-runs subtract those sub-run intervals separately (see
// internal/valuation, which has access to the full run list).
func (r Run) DurationSeconds(now time.Time) float64 {
	end := now
	if r.EndTs != nil {
		end = *r.EndTs
	}
	d := end.Sub(r.StartTs).Seconds()
	if d < 0 {
		return 0
	}
	return d
}
