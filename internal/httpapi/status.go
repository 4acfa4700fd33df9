package httpapi

import (
	"net/http"
	"time"

	"github.com/lootwatch/lootwatchd/pkg/schema"
)

// StatusResponse is the daemon's liveness/summary view, polled by the
// overlay UI and dashboard at a cheap interval.
type StatusResponse struct {
	UptimeSeconds float64            `json:"uptimeSeconds"`
	Scope         schema.PlayerScope `json:"scope,omitempty"`
	SeasonId      string             `json:"seasonId,omitempty"`
	OpenRunId     *int64             `json:"openRunId,omitempty"`
	CloudEnabled  bool               `json:"cloudEnabled"`
}

// @summary Daemon liveness and current scope
// @tags    Runs
// @produce json
// @success 200 {object} StatusResponse
// @router  /status [get]
func (api *RestApi) getStatus(rw http.ResponseWriter, r *http.Request) {
	status := StatusResponse{
		UptimeSeconds: time.Since(api.StartedAt).Seconds(),
		SeasonId:      api.Collector.CurrentSeasonID(),
		CloudEnabled:  api.Cloud.Enabled(),
	}
	if scope, ok := api.Collector.CurrentScope(); ok {
		status.Scope = scope
	}
	if runID, ok := api.Collector.ActiveRunID(); ok {
		status.OpenRunId = &runID
	}
	writeJSON(rw, http.StatusOK, status)
}
