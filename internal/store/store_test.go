package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/lootwatch/lootwatchd/pkg/log"
	"github.com/lootwatch/lootwatchd/pkg/schema"
)

func setup(t *testing.T) *Store {
	t.Helper()
	log.SetLevel("warn")

	dbfile := filepath.Join(t.TempDir(), "lootwatch.db")
	s, err := Open("sqlite3", dbfile)
	noErr(t, err)
	return s
}

func noErr(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatal("error is not nil:", err)
	}
}

func TestSlotStateRoundTrip(t *testing.T) {
	s := setup(t)
	scope := schema.NewPlayerScope("s1", "hero")

	err := s.WithTx(func(tx *sqlx.Tx) error {
		return SetSlotState(tx, scope, schema.SlotKey{Page: 1, Slot: 0}, schema.SlotState{TypeId: 42, Quantity: 3})
	})
	noErr(t, err)

	states, err := s.SlotStates(scope)
	noErr(t, err)
	if got := states[schema.SlotKey{Page: 1, Slot: 0}]; got.TypeId != 42 || got.Quantity != 3 {
		t.Fatalf("unexpected slot state: %+v", got)
	}
}

func TestSlotStateEmptyDeletesRow(t *testing.T) {
	s := setup(t)
	scope := schema.NewPlayerScope("s1", "hero")
	key := schema.SlotKey{Page: 1, Slot: 0}

	err := s.WithTx(func(tx *sqlx.Tx) error {
		return SetSlotState(tx, scope, key, schema.SlotState{TypeId: 42, Quantity: 3})
	})
	noErr(t, err)

	err = s.WithTx(func(tx *sqlx.Tx) error {
		return SetSlotState(tx, scope, key, schema.SlotState{})
	})
	noErr(t, err)

	states, err := s.SlotStates(scope)
	noErr(t, err)
	if _, ok := states[key]; ok {
		t.Fatal("expected empty slot state to be removed")
	}
}

func TestRunLifecycle(t *testing.T) {
	s := setup(t)
	scope := schema.NewPlayerScope("s1", "hero")
	start := time.Now().UTC()

	var runID int64
	err := s.WithTx(func(tx *sqlx.Tx) error {
		id, err := InsertRun(tx, schema.Run{Scope: scope, StartTs: start, ZoneSignature: "zone-1", LevelId: 101})
		runID = id
		return err
	})
	noErr(t, err)

	open, err := s.OpenRun(scope)
	noErr(t, err)
	if open == nil || open.ID != runID {
		t.Fatalf("expected open run %d, got %+v", runID, open)
	}

	end := start.Add(time.Minute)
	err = s.WithTx(func(tx *sqlx.Tx) error {
		return CloseRun(tx, runID, end)
	})
	noErr(t, err)

	open, err = s.OpenRun(scope)
	noErr(t, err)
	if open != nil {
		t.Fatal("expected no open run after close")
	}
}

func TestResetRunsPreservesSlotStateAndPrices(t *testing.T) {
	s := setup(t)
	scope := schema.NewPlayerScope("s1", "hero")

	noErr(t, s.WithTx(func(tx *sqlx.Tx) error {
		_, err := InsertRun(tx, schema.Run{Scope: scope, StartTs: time.Now(), ZoneSignature: "z", LevelId: 1})
		return err
	}))
	noErr(t, s.UpsertPrice(schema.Price{Scope: string(scope), TypeId: 5, Value: 1.5, Source: schema.SourceManual, UpdatedTs: time.Now()}))
	noErr(t, s.WithTx(func(tx *sqlx.Tx) error {
		return SetSlotState(tx, scope, schema.SlotKey{Page: 1, Slot: 0}, schema.SlotState{TypeId: 5, Quantity: 1})
	}))

	noErr(t, s.ResetRuns(scope))

	runs, err := s.ListRuns(RunFilter{Scope: scope, HubZones: true}, 0, 0)
	noErr(t, err)
	if len(runs) != 0 {
		t.Fatalf("expected no runs after reset, got %d", len(runs))
	}

	states, err := s.SlotStates(scope)
	noErr(t, err)
	if len(states) != 1 {
		t.Fatal("expected slot state preserved across reset")
	}

	price, err := s.LocalPrice(scope, 5)
	noErr(t, err)
	if price == nil {
		t.Fatal("expected price preserved across reset")
	}
}

func TestSettingsWhitelist(t *testing.T) {
	s := setup(t)

	noErr(t, s.SetSetting("trade-tax", true))
	noErr(t, s.SetSetting("internal-debug-flag", true))

	all, err := s.AllSettings()
	noErr(t, err)

	if _, ok := all["trade-tax"]; !ok {
		t.Fatal("expected whitelisted key in AllSettings")
	}
	if _, ok := all["internal-debug-flag"]; ok {
		t.Fatal("non-whitelisted key leaked through AllSettings")
	}
}

func TestOutboxFIFO(t *testing.T) {
	s := setup(t)
	base := time.Now().UTC()

	noErr(t, s.EnqueueOutbox(1, 10, base))
	noErr(t, s.EnqueueOutbox(2, 20, base.Add(time.Second)))

	batch, err := s.OutboxBatch(10)
	noErr(t, err)
	if len(batch) != 2 || batch[0].TypeId != 1 || batch[1].TypeId != 2 {
		t.Fatalf("expected FIFO order, got %+v", batch)
	}

	noErr(t, s.DeleteOutboxEntry(batch[0].ID))
	batch, err = s.OutboxBatch(10)
	noErr(t, err)
	if len(batch) != 1 {
		t.Fatalf("expected 1 remaining entry, got %d", len(batch))
	}
}
