// Package playerscope implements Player Context (Component G in
// spec.md §4.6): it observes PlayerField events and computes the
// active PlayerScope, publishing a scope-change notification whenever
// Name or SeasonId changes.
package playerscope

import (
	"time"

	"github.com/lootwatch/lootwatchd/internal/parser"
	"github.com/lootwatch/lootwatchd/pkg/schema"
)

// ChangeEvent is published whenever the active scope changes. The
// Collector is responsible for carrying out the atomic scope-change
// sequence from spec.md §4.6 (flush, load, reset, notify) in response.
type ChangeEvent struct {
	Previous schema.PlayerScope
	Current  schema.PlayerScope
	At       time.Time
}

// Tracker accumulates PlayerField observations and derives the
// current PlayerScope. It has no persistence of its own; the
// Collector owns running the flush/load/reset sequence a ChangeEvent
// triggers.
type Tracker struct {
	playerID string
	seasonID string
	name     string

	current schema.PlayerScope
	known   bool
}

// New constructs an empty Tracker. The zero-value scope is not valid
// until at least one PlayerField observation has been folded in.
func New() *Tracker {
	return &Tracker{}
}

// Current returns the active scope and whether one has been derived
// yet.
func (t *Tracker) Current() (schema.PlayerScope, bool) {
	return t.current, t.known
}

// Feed folds one PlayerField event into the tracker's observed
// identity fields and returns a ChangeEvent if the effective scope
// changed as a result, or nil if it is unchanged (including the very
// first observation that happens not to change anything yet-unknown).
func (t *Tracker) Feed(now time.Time, e parser.Event) *ChangeEvent {
	if e.Kind != parser.PlayerField {
		return nil
	}

	switch e.FieldKey {
	case "PlayerId":
		t.playerID = e.FieldValue
	case "SeasonId":
		t.seasonID = e.FieldValue
	case "Name":
		t.name = e.FieldValue
	default:
		return nil
	}

	next := t.deriveScope()
	if next == "" {
		return nil
	}

	if !t.known {
		t.current = next
		t.known = true
		return &ChangeEvent{Previous: "", Current: next, At: now}
	}

	if next == t.current {
		return nil
	}

	prev := t.current
	t.current = next
	return &ChangeEvent{Previous: prev, Current: next, At: now}
}

func (t *Tracker) deriveScope() schema.PlayerScope {
	if t.playerID != "" {
		return schema.NewPlayerScopeFromID(t.playerID)
	}
	if t.seasonID != "" && t.name != "" {
		return schema.NewPlayerScope(t.seasonID, t.name)
	}
	return ""
}

// SeasonID returns the last observed SeasonId, used by the Cloud Sync
// Worker to determine which season partition to fetch.
func (t *Tracker) SeasonID() string {
	return t.seasonID
}
