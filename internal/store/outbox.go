package store

import (
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/lootwatch/lootwatchd/pkg/schema"
)

// EnqueueOutbox appends a pending cloud submission. Only called for
// ExchangeLearned prices of non-Base-Currency TypeIds; the caller is
// responsible for that filter.
func (s *Store) EnqueueOutbox(typeID schema.TypeId, value float64, capturedTs time.Time) error {
	return s.WithTx(func(tx *sqlx.Tx) error {
		_, err := tx.Exec(`INSERT INTO outbox (type_id, value, captured_ts) VALUES (?, ?, ?)`, typeID, value, capturedTs)
		return err
	})
}

// OutboxBatch returns up to limit outbox entries in FIFO order (oldest
// capturedTs first), for the uplink loop to drain.
func (s *Store) OutboxBatch(limit int) ([]schema.OutboxEntry, error) {
	out := make([]schema.OutboxEntry, 0, limit)
	err := s.db.Select(&out, `SELECT id, type_id, value, captured_ts, attempts, last_attempt_ts, last_error
		FROM outbox ORDER BY captured_ts ASC LIMIT ?`, limit)
	return out, err
}

// DeleteOutboxEntry removes an entry after successful submission.
func (s *Store) DeleteOutboxEntry(id int64) error {
	return s.WithTx(func(tx *sqlx.Tx) error {
		_, err := tx.Exec(`DELETE FROM outbox WHERE id = ?`, id)
		return err
	})
}

// MarkOutboxAttempt records a failed submission attempt with its
// error, leaving the entry in place for the next retryable attempt.
func (s *Store) MarkOutboxAttempt(id int64, attemptedAt time.Time, errMsg string) error {
	return s.WithTx(func(tx *sqlx.Tx) error {
		_, err := tx.Exec(`UPDATE outbox SET attempts = attempts + 1, last_attempt_ts = ?, last_error = ? WHERE id = ?`,
			attemptedAt, errMsg, id)
		return err
	})
}
