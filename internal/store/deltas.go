package store

import (
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/lootwatch/lootwatchd/pkg/schema"
)

var deltaColumns = []string{"id", "scope", "run_id", "page_id", "slot_id", "type_id", "quantity", "context", "ts"}

// InsertDelta appends an immutable delta row within an in-flight
// transaction. Deltas are never updated or deleted individually; only
// ResetRuns removes them in bulk.
func InsertDelta(tx *sqlx.Tx, d schema.Delta) (int64, error) {
	res, err := tx.Exec(`INSERT INTO delta (scope, run_id, page_id, slot_id, type_id, quantity, context, ts)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		d.Scope, d.RunID, d.Page, d.Slot, d.TypeId, d.Quantity, d.Context, d.Timestamp)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// DeltasForRun returns every delta attributed to a run, in timestamp
// order, the input to gross/mapCost/net valuation.
func (s *Store) DeltasForRun(runID int64) ([]schema.Delta, error) {
	deltas := make([]schema.Delta, 0, 64)
	err := s.db.Select(&deltas, `SELECT `+columnList(deltaColumns)+` FROM delta WHERE run_id = ? ORDER BY ts`, runID)
	return deltas, err
}

// DeltasForScope returns deltas for a scope within [since, until),
// optionally filtered by context tag, backing stats/history bucketing
// and the cumulative report.
func (s *Store) DeltasForScope(scope schema.PlayerScope, since, until *time.Time, contexts []schema.ContextTag) ([]schema.Delta, error) {
	q := sq.Select(deltaColumns...).From("delta").Where(sq.Eq{"scope": scope}).OrderBy("ts")
	if since != nil {
		q = q.Where(sq.GtOrEq{"ts": *since})
	}
	if until != nil {
		q = q.Where(sq.Lt{"ts": *until})
	}
	if len(contexts) > 0 {
		q = q.Where(sq.Eq{"context": contexts})
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}

	deltas := make([]schema.Delta, 0, 256)
	if err := s.db.Select(&deltas, query, args...); err != nil {
		return nil, err
	}
	return deltas, nil
}

// TypeIdsInScope returns the distinct TypeIds currently present in a
// scope's slot state, used to bound the Cloud Sync Worker's price
// history downlink to items the player actually holds.
func (s *Store) TypeIdsInScope(scope schema.PlayerScope) ([]schema.TypeId, error) {
	ids := make([]schema.TypeId, 0, 64)
	err := s.db.Select(&ids, `SELECT DISTINCT type_id FROM slot_state WHERE scope = ? AND quantity != 0`, scope)
	return ids, err
}
