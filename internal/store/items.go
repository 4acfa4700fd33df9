package store

import (
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/lootwatch/lootwatchd/pkg/schema"
)

// UpsertItem records or updates an item's display metadata. Seeding
// (cmd/lootwatchd init --seed) and first-sight-of-a-new-TypeId during
// collection both go through this.
func (s *Store) UpsertItem(item schema.Item) error {
	return s.WithTx(func(tx *sqlx.Tx) error {
		_, err := tx.Exec(`INSERT INTO item (type_id, name, icon_ref, base_currency)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(type_id) DO UPDATE SET name = excluded.name, icon_ref = excluded.icon_ref, base_currency = excluded.base_currency`,
			item.TypeId, item.Name, item.IconRef, item.BaseCurrency)
		return err
	})
}

// Item looks up one item's metadata by TypeId.
func (s *Store) Item(typeID schema.TypeId) (schema.Item, error) {
	var it schema.Item
	err := s.db.Get(&it, `SELECT type_id, name, icon_ref, base_currency FROM item WHERE type_id = ?`, typeID)
	if err == sql.ErrNoRows {
		return schema.Item{}, fmt.Errorf("store: unknown item %d", typeID)
	}
	return it, err
}

// Items returns every known item, for inventory display and the icon
// proxy's reverse lookup.
func (s *Store) Items() ([]schema.Item, error) {
	items := make([]schema.Item, 0, 128)
	err := s.db.Select(&items, `SELECT type_id, name, icon_ref, base_currency FROM item ORDER BY type_id`)
	return items, err
}

// BaseCurrencyTypeId returns the TypeId flagged as Base Currency, if
// any item is so flagged.
func (s *Store) BaseCurrencyTypeId() (schema.TypeId, bool, error) {
	var id schema.TypeId
	err := s.db.Get(&id, `SELECT type_id FROM item WHERE base_currency = 1 LIMIT 1`)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}
