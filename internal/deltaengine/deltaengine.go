// Package deltaengine implements the Delta Engine (Component E in
// spec.md §4.4): a pure function from current Slot State plus one bag
// event to the next Slot State and zero, one, or two Deltas. It holds
// no state of its own and makes no I/O calls.
package deltaengine

import (
	"github.com/lootwatch/lootwatchd/internal/parser"
	"github.com/lootwatch/lootwatchd/pkg/schema"
)

// SlotDelta is an unscoped, unstamped delta: just the signed quantity
// change for a TypeId. The Collector attaches PlayerScope, RunId,
// SlotKey, context tag, and timestamp before persisting it as a
// schema.Delta.
type SlotDelta struct {
	TypeId         schema.TypeId
	SignedQuantity int64
}

// Result is the outcome of applying one bag event: the slot's next
// state, and the (possibly empty) deltas produced, in order.
type Result struct {
	NextState schema.SlotState
	Deltas    []SlotDelta
}

// Apply runs the four ordered rules from spec.md §4.4 against one bag
// event (BagInit, BagModify, or BagRemove — any other Kind is a
// caller error and returns the state unchanged with no deltas).
// allowed reports whether the slot's page may produce deltas: the
// excluded-page/allowlist check (rule 1) is the caller's
// responsibility to evaluate via IsTracked, since it needs the page's
// allowlist membership which this package does not own.
func Apply(prior schema.SlotState, e parser.Event) Result {
	switch e.Kind {
	case parser.BagInit:
		return Result{NextState: schema.SlotState{TypeId: e.TypeId, Quantity: e.Num}}

	case parser.BagModify:
		return applyBagModify(prior, e)

	case parser.BagRemove:
		return applyBagRemove(prior)

	default:
		return Result{NextState: prior}
	}
}

func applyBagModify(prior schema.SlotState, e parser.Event) Result {
	if prior.Empty() {
		return Result{
			NextState: schema.SlotState{TypeId: e.TypeId, Quantity: e.Num},
			Deltas:    []SlotDelta{{TypeId: e.TypeId, SignedQuantity: e.Num}},
		}
	}

	if prior.TypeId == e.TypeId {
		signed := e.Num - prior.Quantity
		next := schema.SlotState{TypeId: e.TypeId, Quantity: e.Num}
		if signed == 0 {
			return Result{NextState: next}
		}
		return Result{NextState: next, Deltas: []SlotDelta{{TypeId: e.TypeId, SignedQuantity: signed}}}
	}

	// Swap: the slot held a different TypeId. Emit the removal of the
	// old stack before the addition of the new one, in that order.
	return Result{
		NextState: schema.SlotState{TypeId: e.TypeId, Quantity: e.Num},
		Deltas: []SlotDelta{
			{TypeId: prior.TypeId, SignedQuantity: -prior.Quantity},
			{TypeId: e.TypeId, SignedQuantity: e.Num},
		},
	}
}

func applyBagRemove(prior schema.SlotState) Result {
	if prior.Empty() {
		return Result{NextState: prior}
	}
	return Result{
		NextState: schema.SlotState{},
		Deltas:    []SlotDelta{{TypeId: prior.TypeId, SignedQuantity: -prior.Quantity}},
	}
}

// IsTracked implements rule 1: an event on an excluded page is dropped
// unless its TypeId is on the narrow allowlist of tradable sub-types.
func IsTracked(page schema.PageId, typeID schema.TypeId, gearPage schema.PageId, allowlist schema.GearAllowlist) bool {
	if page != gearPage {
		return true
	}
	return allowlist.Allows(typeID)
}
