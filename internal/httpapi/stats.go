package httpapi

import (
	"net/http"
	"time"
)

// @summary Cached hourly price-history buckets for a TypeId
// @tags    Stats
// @produce json
// @param   typeId query int    true  "TypeId"
// @param   sinceHours query int false "History window in hours (default 72)"
// @success 200 {array} schema.PriceHistoryRow
// @router  /stats/history [get]
func (api *RestApi) statsHistory(rw http.ResponseWriter, r *http.Request) {
	typeID, err := queryTypeIdParam(r, "typeId")
	if err != nil {
		handleError(err, http.StatusBadRequest, rw)
		return
	}
	hours := queryUint(r, "sinceHours", 72)
	since := time.Now().UTC().Add(-time.Duration(hours) * time.Hour)

	rows, err := api.Store.PriceHistory(typeID, since)
	if err != nil {
		handleError(err, http.StatusInternalServerError, rw)
		return
	}
	writeJSON(rw, http.StatusOK, rows)
}
