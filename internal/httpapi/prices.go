package httpapi

import (
	"net/http"
	"time"

	"github.com/lootwatch/lootwatchd/pkg/schema"
)

// @summary List every local price known for the active scope
// @tags    Prices
// @produce json
// @success 200 {array} schema.Price
// @router  /prices [get]
func (api *RestApi) listPrices(rw http.ResponseWriter, r *http.Request) {
	scope, ok := api.currentScope(rw)
	if !ok {
		return
	}
	prices, err := api.Store.AllLocalPrices(scope)
	if err != nil {
		handleError(err, http.StatusInternalServerError, rw)
		return
	}
	writeJSON(rw, http.StatusOK, prices)
}

// getPrice returns the active scope's local price for one TypeId, 404
// if nothing is priced yet.
func (api *RestApi) getPrice(rw http.ResponseWriter, r *http.Request) {
	scope, ok := api.currentScope(rw)
	if !ok {
		return
	}
	typeID, err := queryTypeId(r)
	if err != nil {
		handleError(err, http.StatusBadRequest, rw)
		return
	}
	price, err := api.Store.LocalPrice(scope, typeID)
	if err != nil {
		handleError(err, http.StatusInternalServerError, rw)
		return
	}
	if price == nil {
		handleError(errNotPriced, http.StatusNotFound, rw)
		return
	}
	writeJSON(rw, http.StatusOK, price)
}

var errNotPriced = errString("typeId has no stored price")

// PutPriceRequest is the body for setting a Manual price.
type PutPriceRequest struct {
	Value float64 `json:"value"`
}

// @summary Set a manually-entered price for a TypeId
// @tags    Prices
// @accept  json
// @produce json
// @param   typeId  path int              true "TypeId"
// @param   request body PutPriceRequest true "Value in base currency units"
// @success 200 {object} schema.Price
// @failure 400 {object} ErrorResponse "Base Currency cannot be priced"
// @router  /prices/{typeId} [put]
func (api *RestApi) putPrice(rw http.ResponseWriter, r *http.Request) {
	scope, ok := api.currentScope(rw)
	if !ok {
		return
	}
	typeID, err := queryTypeId(r)
	if err != nil {
		handleError(err, http.StatusBadRequest, rw)
		return
	}
	if typeID == api.BaseCurrency {
		handleError(errBaseCurrencyPriced, http.StatusBadRequest, rw)
		return
	}

	var req PutPriceRequest
	if err := decode(r.Body, &req); err != nil {
		handleError(err, http.StatusBadRequest, rw)
		return
	}

	price := schema.Price{Scope: string(scope), TypeId: typeID, Value: req.Value, Source: schema.SourceManual, UpdatedTs: time.Now().UTC()}
	if err := api.Store.UpsertPrice(price); err != nil {
		handleError(err, http.StatusInternalServerError, rw)
		return
	}
	writeJSON(rw, http.StatusOK, price)
}

var errBaseCurrencyPriced = errString("the Base Currency type is never priced")

// exportPrices dumps every local price for the active scope, the same
// payload as listPrices but served with a download filename for the UI's
// backup/export action.
func (api *RestApi) exportPrices(rw http.ResponseWriter, r *http.Request) {
	scope, ok := api.currentScope(rw)
	if !ok {
		return
	}
	prices, err := api.Store.AllLocalPrices(scope)
	if err != nil {
		handleError(err, http.StatusInternalServerError, rw)
		return
	}
	rw.Header().Set("Content-Disposition", `attachment; filename="prices-export.json"`)
	writeJSON(rw, http.StatusOK, prices)
}

// MigrateLegacySeasonRequest names the season a player is carrying
// manually-entered prices over from.
type MigrateLegacySeasonRequest struct {
	FromSeasonId string `json:"fromSeasonId"`
}

// migrateLegacySeason copies Manual prices from a prior season's scope
// into the active scope, for players who want last season's hand-entered
// values to carry over rather than starting unpriced.
func (api *RestApi) migrateLegacySeason(rw http.ResponseWriter, r *http.Request) {
	scope, ok := api.currentScope(rw)
	if !ok {
		return
	}
	var req MigrateLegacySeasonRequest
	if err := decode(r.Body, &req); err != nil {
		handleError(err, http.StatusBadRequest, rw)
		return
	}
	if req.FromSeasonId == "" {
		handleError(errString("fromSeasonId is required"), http.StatusBadRequest, rw)
		return
	}

	name := scopeCharacterName(scope, api.Collector.CurrentSeasonID())
	fromScope := schema.NewPlayerScope(req.FromSeasonId, name)

	copied, err := api.Store.CopyManualPrices(fromScope, scope)
	if err != nil {
		handleError(err, http.StatusInternalServerError, rw)
		return
	}
	writeJSON(rw, http.StatusOK, map[string]int{"copied": copied})
}

// scopeCharacterName strips the "{seasonId}_" prefix a fallback scope
// carries, so the same character name can be recombined with a
// different season. Scopes derived from a stable PlayerId (no
// recoverable season prefix) are returned unmodified; the caller then
// copies from an identical scope string, which is a safe no-op.
func scopeCharacterName(scope schema.PlayerScope, seasonID string) string {
	prefix := seasonID + "_"
	s := string(scope)
	if len(s) > len(prefix) && s[:len(prefix)] == prefix {
		return s[len(prefix):]
	}
	return s
}
