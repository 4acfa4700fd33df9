package schema

import "time"

// PriceSource distinguishes a user-entered price from one the exchange
// parser learned from observed listings.
type PriceSource string

const (
	SourceManual          PriceSource = "Manual"
	SourceExchangeLearned PriceSource = "ExchangeLearned"
)

// Price is a locally known value for a TypeId, scoped per-player (Manual)
// or per-season (ExchangeLearned — see internal/store for the exact scope
// key used per source). Base-Currency price rows are never stored.
type Price struct {
	Scope     string      `db:"scope" json:"scope"`
	TypeId    TypeId      `db:"type_id" json:"typeId"`
	Value     float64     `db:"value" json:"value"` // in base currency units
	Source    PriceSource `db:"source" json:"source"`
	UpdatedTs time.Time   `db:"updated_ts" json:"updatedTs"`
}

// CloudPrice is the community-aggregated price for a TypeId within a
// season, downloaded from the remote aggregation service.
type CloudPrice struct {
	SeasonId        string    `db:"season_id" json:"seasonId"`
	TypeId          TypeId    `db:"type_id" json:"typeId"`
	Median          float64   `db:"median" json:"median"`
	P10             float64   `db:"p10" json:"p10"`
	P90             float64   `db:"p90" json:"p90"`
	ContributorCount int      `db:"contributor_count" json:"contributorCount"`
	CloudUpdatedTs  time.Time `db:"cloud_updated_ts" json:"cloudUpdatedTs"`
}

// PriceHistoryRow is one hourly aggregation bucket for a TypeId, as
// returned by the remote's history endpoint.
type PriceHistoryRow struct {
	TypeId           TypeId    `db:"type_id" json:"typeId"`
	HourBucket       time.Time `db:"hour_bucket" json:"hourBucket"`
	Median           float64   `db:"median" json:"median"`
	P10              float64   `db:"p10" json:"p10"`
	P90              float64   `db:"p90" json:"p90"`
	SubmissionCount  int       `db:"submission_count" json:"submissionCount"`
	UniqueDeviceCount int      `db:"unique_device_count" json:"uniqueDeviceCount"`
}
