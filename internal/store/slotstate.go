package store

import (
	"github.com/jmoiron/sqlx"

	"github.com/lootwatch/lootwatchd/pkg/schema"
)

type slotStateRow struct {
	Page     int           `db:"page_id"`
	Slot     int           `db:"slot_id"`
	TypeId   schema.TypeId `db:"type_id"`
	Quantity int64         `db:"quantity"`
}

// SlotStates returns the full absolute slot state for a scope, keyed by
// SlotKey, as loaded on a PlayerField scope change.
func (s *Store) SlotStates(scope schema.PlayerScope) (map[schema.SlotKey]schema.SlotState, error) {
	rows := make([]slotStateRow, 0, 256)
	if err := s.db.Select(&rows, `SELECT page_id, slot_id, type_id, quantity FROM slot_state WHERE scope = ?`, scope); err != nil {
		return nil, err
	}

	out := make(map[schema.SlotKey]schema.SlotState, len(rows))
	for _, r := range rows {
		out[schema.SlotKey{Page: schema.PageId(r.Page), Slot: schema.SlotId(r.Slot)}] = schema.SlotState{
			TypeId:   r.TypeId,
			Quantity: r.Quantity,
		}
	}
	return out, nil
}

// SetSlotState persists the absolute post-delta state of one slot
// within an in-flight transaction, part of the Collector's single
// serialized write path (Slot State + Run + Delta all committed
// together).
func SetSlotState(tx *sqlx.Tx, scope schema.PlayerScope, key schema.SlotKey, state schema.SlotState) error {
	if state.Empty() {
		_, err := tx.Exec(`DELETE FROM slot_state WHERE scope = ? AND page_id = ? AND slot_id = ?`, scope, key.Page, key.Slot)
		return err
	}
	_, err := tx.Exec(`INSERT INTO slot_state (scope, page_id, slot_id, type_id, quantity)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(scope, page_id, slot_id) DO UPDATE SET type_id = excluded.type_id, quantity = excluded.quantity`,
		scope, key.Page, key.Slot, state.TypeId, state.Quantity)
	return err
}
