package cloudsync

import (
	"context"
	"math"
	"time"

	"github.com/lootwatch/lootwatchd/pkg/log"
)

// backoffDue reports whether an entry is due for its next submission
// attempt, given base-2 exponential backoff capped at maxBackoff.
func backoffDue(attempts int, lastAttempt *time.Time, now time.Time) bool {
	if attempts == 0 || lastAttempt == nil {
		return true
	}
	d := time.Duration(math.Pow(2, float64(attempts))) * time.Second
	if d > maxBackoff {
		d = maxBackoff
	}
	return now.Sub(*lastAttempt) >= d
}

// runUplink drains the Outbox in FIFO order, rate-limited to the remote's
// per-device cap. Base-Currency entries are dropped without a submission
// attempt; they should never have been enqueued, but the filter is kept
// here too since it is cheap and the invariant must hold regardless of
// caller discipline.
func (w *Worker) runUplink(ctx context.Context) {
	now := time.Now().UTC()
	batch, err := w.store.OutboxBatch(uplinkBatchSize)
	if err != nil {
		log.Errorf("cloudsync: uplink: reading outbox: %v", err)
		return
	}

	for _, entry := range batch {
		if ctx.Err() != nil {
			return
		}
		if entry.TypeId == w.baseCurrency {
			if err := w.store.DeleteOutboxEntry(entry.ID); err != nil {
				log.Warnf("cloudsync: uplink: dropping base-currency entry %d: %v", entry.ID, err)
			}
			continue
		}
		if !backoffDue(entry.Attempts, entry.LastAttemptTs, now) {
			continue
		}
		if err := w.limiter.Wait(ctx); err != nil {
			return
		}

		err := w.client.SubmitPrice(ctx, w.deviceUUID, entry.TypeId, entry.Value, entry.CapturedTs)
		switch {
		case err == nil:
			if err := w.store.DeleteOutboxEntry(entry.ID); err != nil {
				log.Warnf("cloudsync: uplink: clearing entry %d: %v", entry.ID, err)
			}
			w.observer.UplinkOutcome("success")
		case isRetryable(err):
			if mErr := w.store.MarkOutboxAttempt(entry.ID, now, err.Error()); mErr != nil {
				log.Warnf("cloudsync: uplink: recording attempt for entry %d: %v", entry.ID, mErr)
			}
			w.observer.UplinkOutcome("retry")
		default:
			log.Warnf("cloudsync: uplink: dropping entry %d, non-retryable: %v", entry.ID, err)
			if dErr := w.store.DeleteOutboxEntry(entry.ID); dErr != nil {
				log.Warnf("cloudsync: uplink: dropping entry %d: %v", entry.ID, dErr)
			}
			w.observer.UplinkOutcome("dropped")
		}
	}
}
