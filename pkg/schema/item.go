package schema

// TypeId is the game's integer item-type identifier as it appears in the
// log stream.
type TypeId int64

// PageId identifies one of the fixed set of inventory pages the game log
// reports slot contents for.
type PageId int

// SlotId is the index of a cell within a page.
type SlotId int

// SlotKey uniquely identifies one inventory cell.
type SlotKey struct {
	Page PageId
	Slot SlotId
}

// Item is the display metadata for a TypeId. Exactly one TypeId in the
// store is flagged BaseCurrency; it is never priced, taxed, or cloud-synced.
type Item struct {
	TypeId       TypeId `db:"type_id" json:"typeId"`
	Name         string `db:"name" json:"name"`
	IconRef      string `db:"icon_ref" json:"iconRef"`
	BaseCurrency bool   `db:"base_currency" json:"baseCurrency"`
}

// GearPageID is the single PageId excluded from tracking by default.
const GearPageID PageId = 6

// GearAllowlist is the narrow set of TypeIds on the gear page that are
// still tradable sub-types and must not be dropped at the collector
// boundary. Configuration, not code: populated from internal/config.
type GearAllowlist map[TypeId]bool

func (a GearAllowlist) Allows(t TypeId) bool {
	return a != nil && a[t]
}
