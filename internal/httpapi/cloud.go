package httpapi

import (
	"context"
	"net/http"
	"time"
)

// CloudStatusResponse reports whether cloud sync is configured and
// currently running.
type CloudStatusResponse struct {
	Configured bool `json:"configured"`
	Enabled    bool `json:"enabled"`
}

func (api *RestApi) cloudStatus(rw http.ResponseWriter, r *http.Request) {
	writeJSON(rw, http.StatusOK, CloudStatusResponse{
		Configured: api.Cloud.Configured(),
		Enabled:    api.Cloud.Enabled(),
	})
}

func (api *RestApi) cloudEnable(rw http.ResponseWriter, r *http.Request) {
	if !api.Cloud.Configured() {
		handleError(errCloudNotConfigured, http.StatusConflict, rw)
		return
	}
	if err := api.Cloud.Enable(); err != nil {
		handleError(err, http.StatusInternalServerError, rw)
		return
	}
	writeJSON(rw, http.StatusOK, CloudStatusResponse{Configured: true, Enabled: true})
}

func (api *RestApi) cloudDisable(rw http.ResponseWriter, r *http.Request) {
	if err := api.Cloud.Disable(); err != nil {
		handleError(err, http.StatusInternalServerError, rw)
		return
	}
	writeJSON(rw, http.StatusOK, CloudStatusResponse{Configured: api.Cloud.Configured(), Enabled: false})
}

// @summary Run one uplink+downlink pass immediately
// @tags    Cloud
// @produce json
// @success 204
// @failure 409 {object} ErrorResponse "cloud sync not configured"
// @router  /cloud/sync [post]
func (api *RestApi) cloudSyncNow(rw http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()
	if err := api.Cloud.SyncNow(ctx); err != nil {
		handleError(err, http.StatusConflict, rw)
		return
	}
	rw.WriteHeader(http.StatusNoContent)
}

func (api *RestApi) cloudPrice(rw http.ResponseWriter, r *http.Request) {
	typeID, err := queryTypeId(r)
	if err != nil {
		handleError(err, http.StatusBadRequest, rw)
		return
	}
	season := api.Collector.CurrentSeasonID()
	price, err := api.Store.CloudPrice(season, typeID)
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

func (api *RestApi) cloudPriceHistory(rw http.ResponseWriter, r *http.Request) {
	typeID, err := queryTypeId(r)
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
