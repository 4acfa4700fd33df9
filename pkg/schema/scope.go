package schema

import "fmt"

// PlayerScope partitions Slot State, Runs, Deltas, and (together with
// SeasonId) Prices. It is derived from observed player-identity lines: a
// stable PlayerId if one is observed, otherwise "{SeasonId}_{Name}".
type PlayerScope string

// NewPlayerScope builds the fallback scope from season and character name.
func NewPlayerScope(seasonID, name string) PlayerScope {
	return PlayerScope(fmt.Sprintf("%s_%s", seasonID, name))
}

// NewPlayerScopeFromID builds a scope directly from a stable player id.
func NewPlayerScopeFromID(playerID string) PlayerScope {
	return PlayerScope(playerID)
}
