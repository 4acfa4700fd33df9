package deltaengine

import (
	"testing"

	"github.com/lootwatch/lootwatchd/internal/parser"
	"github.com/lootwatch/lootwatchd/pkg/schema"
)

func TestPickupDelta(t *testing.T) {
	prior := schema.SlotState{TypeId: 100300, Quantity: 640}
	e := parser.Event{Kind: parser.BagModify, TypeId: 100300, Num: 671}

	r := Apply(prior, e)

	if len(r.Deltas) != 1 || r.Deltas[0].SignedQuantity != 31 || r.Deltas[0].TypeId != 100300 {
		t.Fatalf("unexpected deltas: %+v", r.Deltas)
	}
	if r.NextState != (schema.SlotState{TypeId: 100300, Quantity: 671}) {
		t.Fatalf("unexpected next state: %+v", r.NextState)
	}
}

func TestStackSwap(t *testing.T) {
	prior := schema.SlotState{TypeId: 1 /* A */, Quantity: 10}
	e := parser.Event{Kind: parser.BagModify, TypeId: 2 /* B */, Num: 3}

	r := Apply(prior, e)

	if len(r.Deltas) != 2 {
		t.Fatalf("expected 2 deltas, got %+v", r.Deltas)
	}
	if r.Deltas[0] != (SlotDelta{TypeId: 1, SignedQuantity: -10}) {
		t.Fatalf("expected removal delta first, got %+v", r.Deltas[0])
	}
	if r.Deltas[1] != (SlotDelta{TypeId: 2, SignedQuantity: 3}) {
		t.Fatalf("expected addition delta second, got %+v", r.Deltas[1])
	}
	if r.NextState != (schema.SlotState{TypeId: 2, Quantity: 3}) {
		t.Fatalf("unexpected next state: %+v", r.NextState)
	}
}

func TestRemoval(t *testing.T) {
	prior := schema.SlotState{TypeId: 9, Quantity: 1}
	r := Apply(prior, parser.Event{Kind: parser.BagRemove})

	if len(r.Deltas) != 1 || r.Deltas[0] != (SlotDelta{TypeId: 9, SignedQuantity: -1}) {
		t.Fatalf("unexpected deltas: %+v", r.Deltas)
	}
	if !r.NextState.Empty() {
		t.Fatalf("expected empty next state, got %+v", r.NextState)
	}
}

func TestRemovalOnAlreadyEmptyIsNoop(t *testing.T) {
	r := Apply(schema.SlotState{}, parser.Event{Kind: parser.BagRemove})
	if len(r.Deltas) != 0 {
		t.Fatalf("expected no deltas for removal on empty slot, got %+v", r.Deltas)
	}
}

func TestBagModifySameQuantityIsNoop(t *testing.T) {
	prior := schema.SlotState{TypeId: 5, Quantity: 3}
	r := Apply(prior, parser.Event{Kind: parser.BagModify, TypeId: 5, Num: 3})
	if len(r.Deltas) != 0 {
		t.Fatalf("expected no delta when quantity is unchanged, got %+v", r.Deltas)
	}
}

func TestBagInitNeverProducesDeltas(t *testing.T) {
	prior := schema.SlotState{TypeId: 1, Quantity: 99}
	r := Apply(prior, parser.Event{Kind: parser.BagInit, TypeId: 2, Num: 4})
	if len(r.Deltas) != 0 {
		t.Fatalf("expected BagInit to never produce deltas, got %+v", r.Deltas)
	}
	if r.NextState != (schema.SlotState{TypeId: 2, Quantity: 4}) {
		t.Fatalf("unexpected next state: %+v", r.NextState)
	}
}

func TestIsTrackedGearPageAllowlist(t *testing.T) {
	allowlist := schema.GearAllowlist{7: true}
	if IsTracked(schema.GearPageID, 9, schema.GearPageID, allowlist) {
		t.Fatal("expected non-allowlisted gear TypeId to be untracked")
	}
	if !IsTracked(schema.GearPageID, 7, schema.GearPageID, allowlist) {
		t.Fatal("expected allowlisted gear TypeId to be tracked")
	}
	if !IsTracked(1, 9, schema.GearPageID, allowlist) {
		t.Fatal("expected non-gear page to always be tracked")
	}
}
