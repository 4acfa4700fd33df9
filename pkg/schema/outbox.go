package schema

import "time"

// OutboxEntry is a pending cloud price submission. FIFO within a TypeId,
// at-least-once delivery: the worker leaves an entry in place on retryable
// failure and only removes it once the remote accepts the submission.
type OutboxEntry struct {
	ID            int64     `db:"id" json:"id"`
	TypeId        TypeId    `db:"type_id" json:"typeId"`
	Value         float64   `db:"value" json:"value"`
	CapturedTs    time.Time `db:"captured_ts" json:"capturedTs"`
	Attempts      int       `db:"attempts" json:"attempts"`
	LastAttemptTs *time.Time `db:"last_attempt_ts" json:"lastAttemptTs,omitempty"`
	LastError     string    `db:"last_error" json:"lastError,omitempty"`
}
