package store

import (
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/lootwatch/lootwatchd/pkg/schema"
)

// UpsertPrice records a locally known price (Manual or
// ExchangeLearned), keyed per spec by scope and TypeId. A later write
// for the same (scope, typeId) replaces the value and updatedTs.
func (s *Store) UpsertPrice(p schema.Price) error {
	return s.WithTx(func(tx *sqlx.Tx) error {
		_, err := tx.Exec(`INSERT INTO price (scope, type_id, value, source, updated_ts)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(scope, type_id) DO UPDATE SET value = excluded.value, source = excluded.source, updated_ts = excluded.updated_ts`,
			p.Scope, p.TypeId, p.Value, p.Source, p.UpdatedTs)
		return err
	})
}

// LocalPrice returns the stored local price for (scope, typeId), if any.
func (s *Store) LocalPrice(scope schema.PlayerScope, typeID schema.TypeId) (*schema.Price, error) {
	var p schema.Price
	err := s.db.Get(&p, `SELECT scope, type_id, value, source, updated_ts FROM price WHERE scope = ? AND type_id = ?`, scope, typeID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// UpsertCloudPrice stores a downloaded aggregate price for a season.
func (s *Store) UpsertCloudPrice(cp schema.CloudPrice) error {
	return s.WithTx(func(tx *sqlx.Tx) error {
		_, err := tx.Exec(`INSERT INTO cloud_price (season_id, type_id, median, p10, p90, contributor_count, cloud_updated_ts)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(season_id, type_id) DO UPDATE SET median = excluded.median, p10 = excluded.p10, p90 = excluded.p90,
				contributor_count = excluded.contributor_count, cloud_updated_ts = excluded.cloud_updated_ts`,
			cp.SeasonId, cp.TypeId, cp.Median, cp.P10, cp.P90, cp.ContributorCount, cp.CloudUpdatedTs)
		return err
	})
}

// CloudPrice returns the stored cloud aggregate for (season, typeId).
func (s *Store) CloudPrice(seasonID string, typeID schema.TypeId) (*schema.CloudPrice, error) {
	var cp schema.CloudPrice
	err := s.db.Get(&cp, `SELECT season_id, type_id, median, p10, p90, contributor_count, cloud_updated_ts
		FROM cloud_price WHERE season_id = ? AND type_id = ?`, seasonID, typeID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cp, nil
}

// CloudPricesForSeason returns every cloud price cached for a season,
// the read side of the downlink's bulk write.
func (s *Store) CloudPricesForSeason(seasonID string) ([]schema.CloudPrice, error) {
	out := make([]schema.CloudPrice, 0, 256)
	err := s.db.Select(&out, `SELECT season_id, type_id, median, p10, p90, contributor_count, cloud_updated_ts
		FROM cloud_price WHERE season_id = ?`, seasonID)
	return out, err
}

// UpsertPriceHistoryRows replaces the cached hourly history buckets for
// a TypeId, within one transaction.
func (s *Store) UpsertPriceHistoryRows(typeID schema.TypeId, rows []schema.PriceHistoryRow) error {
	return s.WithTx(func(tx *sqlx.Tx) error {
		for _, r := range rows {
			_, err := tx.Exec(`INSERT INTO price_history (type_id, hour_bucket, median, p10, p90, submission_count, unique_device_count)
				VALUES (?, ?, ?, ?, ?, ?, ?)
				ON CONFLICT(type_id, hour_bucket) DO UPDATE SET median = excluded.median, p10 = excluded.p10, p90 = excluded.p90,
					submission_count = excluded.submission_count, unique_device_count = excluded.unique_device_count`,
				typeID, r.HourBucket, r.Median, r.P10, r.P90, r.SubmissionCount, r.UniqueDeviceCount)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// PriceHistory returns cached history buckets for a TypeId since a
// cutoff (the worker keeps the last 72h).
func (s *Store) PriceHistory(typeID schema.TypeId, since time.Time) ([]schema.PriceHistoryRow, error) {
	out := make([]schema.PriceHistoryRow, 0, 72)
	err := s.db.Select(&out, `SELECT type_id, hour_bucket, median, p10, p90, submission_count, unique_device_count
		FROM price_history WHERE type_id = ? AND hour_bucket >= ? ORDER BY hour_bucket`, typeID, since)
	return out, err
}

// AllLocalPrices returns every Manual or ExchangeLearned price row for a
// scope, the read side of the prices export route.
func (s *Store) AllLocalPrices(scope schema.PlayerScope) ([]schema.Price, error) {
	out := make([]schema.Price, 0, 64)
	err := s.db.Select(&out, `SELECT scope, type_id, value, source, updated_ts FROM price WHERE scope = ? ORDER BY type_id`, scope)
	return out, err
}

// CopyManualPrices copies every Manual price row from one scope to
// another, skipping TypeIds the destination scope already has priced.
// Used when a new in-game season starts under a fresh SeasonId but the
// player's manually-entered values should carry over (spec.md §6's
// "migrate-from-legacy-season" resource). Returns the number of rows
// copied.
func (s *Store) CopyManualPrices(from, to schema.PlayerScope) (int, error) {
	var rows []schema.Price
	if err := s.db.Select(&rows, `SELECT scope, type_id, value, source, updated_ts FROM price WHERE scope = ? AND source = ?`, from, schema.SourceManual); err != nil {
		return 0, err
	}

	copied := 0
	err := s.WithTx(func(tx *sqlx.Tx) error {
		for _, p := range rows {
			res, err := tx.Exec(`INSERT INTO price (scope, type_id, value, source, updated_ts)
				VALUES (?, ?, ?, ?, ?)
				ON CONFLICT(scope, type_id) DO NOTHING`,
				to, p.TypeId, p.Value, p.Source, p.UpdatedTs)
			if err != nil {
				return err
			}
			if n, err := res.RowsAffected(); err == nil && n > 0 {
				copied++
			}
		}
		return nil
	})
	return copied, err
}
