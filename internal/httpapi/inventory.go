package httpapi

import "net/http"

// InventorySlot is one occupied cell in the active scope's inventory,
// joined with display metadata when known.
type InventorySlot struct {
	Page     int    `json:"page"`
	Slot     int    `json:"slot"`
	TypeId   int64  `json:"typeId"`
	Quantity int64  `json:"quantity"`
	Name     string `json:"name,omitempty"`
	IconRef  string `json:"iconRef,omitempty"`
}

// @summary List the active scope's current inventory
// @tags    Inventory
// @produce json
// @success 200 {array}  InventorySlot
// @failure 409 {object} ErrorResponse "no active player scope"
// @router  /inventory [get]
func (api *RestApi) getInventory(rw http.ResponseWriter, r *http.Request) {
	scope, ok := api.currentScope(rw)
	if !ok {
		return
	}
	states, err := api.Store.SlotStates(scope)
	if err != nil {
		handleError(err, http.StatusInternalServerError, rw)
		return
	}

	items, err := api.Store.Items()
	if err != nil {
		handleError(err, http.StatusInternalServerError, rw)
		return
	}
	byType := make(map[int64]string, len(items))
	iconByType := make(map[int64]string, len(items))
	for _, it := range items {
		byType[int64(it.TypeId)] = it.Name
		iconByType[int64(it.TypeId)] = it.IconRef
	}

	slots := make([]InventorySlot, 0, len(states))
	for key, state := range states {
		if state.Empty() {
			continue
		}
		slots = append(slots, InventorySlot{
			Page:     int(key.Page),
			Slot:     int(key.Slot),
			TypeId:   int64(state.TypeId),
			Quantity: state.Quantity,
			Name:     byType[int64(state.TypeId)],
			IconRef:  iconByType[int64(state.TypeId)],
		})
	}
	writeJSON(rw, http.StatusOK, slots)
}
