package segmenter

import (
	"fmt"
	"strings"
)

// Classifier derives a zone signature from a raw level path/id and
// answers hub/sub-zone membership questions against the configured
// pattern tables (spec.md §4.5 "Zone signature" / "Hub detection").
// All three tables are configuration, not code (spec.md §9 Open
// Question (a)).
type Classifier struct {
	hubPathPatterns   []string
	subZoneSignatures map[string]bool
	zoneAliases       map[string]string
}

// NewClassifier builds a Classifier from the three configured tables.
func NewClassifier(hubPathPatterns []string, subZoneSignatures []string, zoneAliases map[string]string) *Classifier {
	subs := make(map[string]bool, len(subZoneSignatures))
	for _, s := range subZoneSignatures {
		subs[s] = true
	}
	return &Classifier{
		hubPathPatterns:   hubPathPatterns,
		subZoneSignatures: subs,
		zoneAliases:       zoneAliases,
	}
}

// Signature derives the zone signature for a LevelEnter event. An
// explicit alias for levelUid takes precedence over the default
// "levelId mod 100" disambiguation rule, covering special zones that
// do not follow the pattern.
func (c *Classifier) Signature(levelUid string, levelID int64) string {
	if alias, ok := c.zoneAliases[levelUid]; ok {
		return alias
	}
	return fmt.Sprintf("%s#%d", levelUid, levelID%100)
}

// IsHub reports whether levelUid matches a configured hub path
// pattern. Patterns are plain substrings, matching the teacher's
// simple-substring convention for path-based classification.
func (c *Classifier) IsHub(levelUid string) bool {
	for _, p := range c.hubPathPatterns {
		if strings.Contains(levelUid, p) {
			return true
		}
	}
	return false
}

// IsSubZone reports whether signature is in the configured sub-zone
// set (e.g. "nightmare", "arcana", trial variants).
func (c *Classifier) IsSubZone(signature string) bool {
	return c.subZoneSignatures[signature]
}
