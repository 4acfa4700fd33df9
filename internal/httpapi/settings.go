package httpapi

import "net/http"

// @summary List whitelisted settings
// @tags    Settings
// @produce json
// @success 200 {object} map[string]interface{}
// @router  /settings [get]
func (api *RestApi) getSettings(rw http.ResponseWriter, r *http.Request) {
	settings, err := api.Store.AllSettings()
	if err != nil {
		handleError(err, http.StatusInternalServerError, rw)
		return
	}
	writeJSON(rw, http.StatusOK, settings)
}

// PutSettingsRequest sets one setting key at a time; the UI calls this
// once per toggle, matching the teacher's per-key config update style.
type PutSettingsRequest struct {
	Key   string      `json:"key"`
	Value interface{} `json:"value"`
}

// @summary Set one setting
// @tags    Settings
// @accept  json
// @produce json
// @param   request body PutSettingsRequest true "key/value pair"
// @success 204
// @failure 400 {object} ErrorResponse "unknown or missing key"
// @router  /settings [put]
func (api *RestApi) putSettings(rw http.ResponseWriter, r *http.Request) {
	var req PutSettingsRequest
	if err := decode(r.Body, &req); err != nil {
		handleError(err, http.StatusBadRequest, rw)
		return
	}
	if req.Key == "" {
		handleError(errString("key is required"), http.StatusBadRequest, rw)
		return
	}
	if err := api.Store.SetSetting(req.Key, req.Value); err != nil {
		handleError(err, http.StatusInternalServerError, rw)
		return
	}
	rw.WriteHeader(http.StatusNoContent)
}
