package store

import (
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/lootwatch/lootwatchd/pkg/schema"
)

var runColumns = []string{
	"id", "scope", "start_ts", "end_ts", "zone_signature", "level_id",
	"level_type", "level_uid", "is_hub_zone", "is_sub_zone", "parent_run_id",
}

// InsertRun opens a new run row and returns its assigned ID, within an
// in-flight transaction belonging to the Collector's single write path.
func InsertRun(tx *sqlx.Tx, r schema.Run) (int64, error) {
	res, err := tx.Exec(`INSERT INTO run (scope, start_ts, zone_signature, level_id, level_type, level_uid, is_hub_zone, is_sub_zone, parent_run_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.Scope, r.StartTs, r.ZoneSignature, r.LevelId, r.LevelType, r.LevelUid, r.IsHubZone, r.IsSubZone, r.ParentRunID)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// CloseRun stamps a run's end_ts, splicing it closed. Called both on a
// normal zone transition and on a sub-zone return splice.
func CloseRun(tx *sqlx.Tx, runID int64, endTs time.Time) error {
	_, err := tx.Exec(`UPDATE run SET end_ts = ? WHERE id = ?`, endTs, runID)
	return err
}

// OpenRun returns the currently open run for a scope, if any.
func (s *Store) OpenRun(scope schema.PlayerScope) (*schema.Run, error) {
	var r schema.Run
	err := s.db.Get(&r, `SELECT `+columnList(runColumns)+` FROM run WHERE scope = ? AND end_ts IS NULL ORDER BY start_ts DESC LIMIT 1`, scope)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// RunFilter narrows ListRuns. Zero values mean "no filter" for that
// dimension.
type RunFilter struct {
	Scope     schema.PlayerScope
	Since     *time.Time
	Until     *time.Time
	HubZones  bool // include hub-zone runs (excluded by default)
}

// ListRuns returns runs for a scope, newest first, paginated, using
// squirrel to compose the optional filters the same way the teacher
// builds its job listing query.
func (s *Store) ListRuns(f RunFilter, offset, limit uint64) ([]schema.Run, error) {
	q := sq.Select(runColumns...).From("run").Where(sq.Eq{"scope": f.Scope}).OrderBy("start_ts DESC")
	if !f.HubZones {
		q = q.Where(sq.Eq{"is_hub_zone": false})
	}
	if f.Since != nil {
		q = q.Where(sq.GtOrEq{"start_ts": *f.Since})
	}
	if f.Until != nil {
		q = q.Where(sq.LtOrEq{"start_ts": *f.Until})
	}
	if limit > 0 {
		q = q.Offset(offset).Limit(limit)
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}

	runs := make([]schema.Run, 0, limit)
	if err := s.db.Select(&runs, query, args...); err != nil {
		return nil, err
	}
	return runs, nil
}

// ChildRuns returns the sub-zone runs spliced under a parent run, used
// both to compute spliced-out duration and to render consolidated
// children in an API response.
func (s *Store) ChildRuns(parentRunID int64) ([]schema.Run, error) {
	runs := make([]schema.Run, 0, 4)
	err := s.db.Select(&runs, `SELECT `+columnList(runColumns)+` FROM run WHERE parent_run_id = ? ORDER BY start_ts`, parentRunID)
	return runs, err
}

// Run looks up a single run by id.
func (s *Store) Run(id int64) (schema.Run, error) {
	var r schema.Run
	err := s.db.Get(&r, `SELECT `+columnList(runColumns)+` FROM run WHERE id = ?`, id)
	return r, err
}

// ResetRuns destroys all runs and deltas for a scope while preserving
// slot state, prices, items, and settings, per the reset operation's
// contract.
func (s *Store) ResetRuns(scope schema.PlayerScope) error {
	return s.WithTx(func(tx *sqlx.Tx) error {
		if _, err := tx.Exec(`DELETE FROM delta WHERE scope = ?`, scope); err != nil {
			return err
		}
		_, err := tx.Exec(`DELETE FROM run WHERE scope = ?`, scope)
		return err
	})
}

func columnList(cols []string) string {
	out := ""
	for i, c := range cols {
		if i > 0 {
			out += ", "
		}
		out += c
	}
	return out
}
