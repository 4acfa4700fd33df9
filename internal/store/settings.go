package store

import (
	"encoding/json"

	"github.com/jmoiron/sqlx"
)

// readableSettings whitelists the keys GetSetting/AllSettings will
// surface over the settings API; anything else persists (SetSetting
// has no whitelist, since the UI itself writes keys before reading
// them back) but is never returned to a caller that didn't ask for it
// by exact key.
var readableSettings = map[string]bool{
	"trade-tax":           true,
	"map-cost":            true,
	"real-time-tracking":  true,
	"log-directory":       true,
	"ui-preferences":      true,
}

// IsSettingReadable reports whether key is in the externally-readable
// whitelist (spec.md's "Settings" contract).
func IsSettingReadable(key string) bool {
	return readableSettings[key]
}

// SetSetting stores a JSON-encodable value under key, replacing any
// prior value, mirroring the teacher's REPLACE-based UpdateConfig.
func (s *Store) SetSetting(key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.WithTx(func(tx *sqlx.Tx) error {
		_, err := tx.Exec(`INSERT INTO setting (key, value) VALUES (?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, string(raw))
		return err
	})
}

// GetSetting decodes the stored value for key into out. It returns
// sql.ErrNoRows if the key has never been set.
func (s *Store) GetSetting(key string, out interface{}) error {
	var raw string
	if err := s.db.Get(&raw, `SELECT value FROM setting WHERE key = ?`, key); err != nil {
		return err
	}
	return json.Unmarshal([]byte(raw), out)
}

// AllSettings returns every whitelisted setting as raw JSON values,
// keyed by name, for the settings API's bulk read.
func (s *Store) AllSettings() (map[string]json.RawMessage, error) {
	rows, err := s.db.Query(`SELECT key, value FROM setting`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]json.RawMessage)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		if IsSettingReadable(key) {
			out[key] = json.RawMessage(value)
		}
	}
	return out, rows.Err()
}
