package httpapi

import (
	"database/sql"
	"errors"
	"time"
)

// pauseSettingKey stores the real-time paused-clock state. It is
// deliberately not in the Store's externally-readable settings
// whitelist: it has its own dedicated routes instead of the generic
// settings bulk read.
const pauseSettingKey = "runs-pause-state"

// PauseState tracks accumulated paused time for spec.md §4.7's
// real-time valuePerHour mode: "wall-clock span since session start
// minus explicit paused time".
type PauseState struct {
	Paused             bool       `json:"paused"`
	PausedSince        *time.Time `json:"pausedSince,omitempty"`
	AccumulatedSeconds float64    `json:"accumulatedSeconds"`
}

func (api *RestApi) loadPauseState() (PauseState, error) {
	var state PauseState
	err := api.Store.GetSetting(pauseSettingKey, &state)
	if errors.Is(err, sql.ErrNoRows) {
		return PauseState{}, nil
	}
	return state, err
}

// togglePause flips the paused flag, folding elapsed paused time into
// AccumulatedSeconds when resuming.
func (api *RestApi) togglePause(now time.Time) (PauseState, error) {
	state, err := api.loadPauseState()
	if err != nil {
		return PauseState{}, err
	}

	if state.Paused {
		if state.PausedSince != nil {
			state.AccumulatedSeconds += now.Sub(*state.PausedSince).Seconds()
		}
		state.Paused = false
		state.PausedSince = nil
	} else {
		state.Paused = true
		state.PausedSince = &now
	}

	if err := api.Store.SetSetting(pauseSettingKey, state); err != nil {
		return PauseState{}, err
	}
	return state, nil
}

// pausedSeconds returns the total paused duration as of now, including
// any in-progress pause.
func (api *RestApi) pausedSeconds(now time.Time) float64 {
	state, err := api.loadPauseState()
	if err != nil {
		return 0
	}
	total := state.AccumulatedSeconds
	if state.Paused && state.PausedSince != nil {
		total += now.Sub(*state.PausedSince).Seconds()
	}
	return total
}
