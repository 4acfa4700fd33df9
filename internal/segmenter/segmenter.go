// Package segmenter implements the Run Segmenter (Component F in
// spec.md §4.5): a state machine converting LevelEnter events into run
// lifecycles, including the sub-zone splice.
package segmenter

import (
	"time"

	"github.com/lootwatch/lootwatchd/internal/util"
	"github.com/lootwatch/lootwatchd/pkg/schema"
)

// State is one of the three segmenter states from spec.md §4.5.
type State int

const (
	Idle State = iota
	InMap
	InSubZone
)

// OpenIntent describes a run the Collector must insert. RunID is left
// zero; the Collector fills it in via Commit after the Store assigns
// one.
type OpenIntent struct {
	ZoneSignature string
	LevelId       int64
	LevelType     string
	LevelUid      string
	IsHubZone     bool
	IsSubZone     bool
	ParentRunID   *int64
}

// Transition is the effect of feeding one LevelEnter event: zero or
// more runs to close (outer closures happen before the splice check,
// so at most two: an outer and its sub-run), and at most one run to
// open. The Collector executes closures and the open within the same
// write transaction, then calls Commit with the assigned run id if
// Open is non-nil.
type Transition struct {
	CloseRunIDs []int64
	Open        *OpenIntent
	// Splice is true when the new zone closes a sub-run and resumes
	// attribution to its still-open outer run without opening anything
	// new — the outer run id is the sole entry in CloseRunIDs is NOT
	// set in this case; SpliceOuterRunID names the run that remains
	// open and receiving deltas.
	Splice           bool
	SpliceOuterRunID int64
}

// Segmenter tracks one PlayerScope's run lifecycle. It is reset to
// Idle on every PlayerScope change (spec.md §4.6).
type Segmenter struct {
	classifier *Classifier

	state      State
	outerRunID int64
	subRunID   int64

	outerSignature string
	outerLevelID   int64
}

// New constructs a Segmenter in the Idle state.
func New(classifier *Classifier) *Segmenter {
	return &Segmenter{classifier: classifier, state: Idle}
}

// Reset returns the segmenter to Idle, discarding any in-flight run
// tracking. Called on a PlayerScope change; the caller is responsible
// for having already closed any open runs against the prior scope
// before calling Reset.
func (s *Segmenter) Reset() {
	s.state = Idle
	s.outerRunID = 0
	s.subRunID = 0
}

// State returns the current lifecycle state, mainly for tests and the
// status API.
func (s *Segmenter) State() State { return s.state }

// Feed processes one LevelEnter event and returns the Transition the
// Collector must apply.
func (s *Segmenter) Feed(now time.Time, levelUid, levelType string, levelID int64) Transition {
	sig := s.classifier.Signature(levelUid, levelID)

	switch {
	case s.classifier.IsHub(levelUid):
		return s.toHub(now)

	case s.classifier.IsSubZone(sig):
		return s.enterSubZone(now, sig, levelID, levelType, levelUid)

	default:
		return s.enterRegularZone(now, sig, levelID, levelType, levelUid)
	}
}

func (s *Segmenter) toHub(now time.Time) Transition {
	var closed []int64
	if s.state == InSubZone {
		closed = append(closed, s.subRunID, s.outerRunID)
	} else if s.state == InMap {
		closed = append(closed, s.outerRunID)
	}
	s.Reset()
	return Transition{CloseRunIDs: closed}
}

func (s *Segmenter) enterSubZone(now time.Time, sig string, levelID int64, levelType, levelUid string) Transition {
	switch s.state {
	case InMap:
		parent := s.outerRunID
		return Transition{
			Open: &OpenIntent{
				ZoneSignature: sig, LevelId: levelID, LevelType: levelType, LevelUid: levelUid,
				IsSubZone: true, ParentRunID: &parent,
			},
		}
	case Idle:
		return Transition{
			Open: &OpenIntent{ZoneSignature: sig, LevelId: levelID, LevelType: levelType, LevelUid: levelUid, IsSubZone: true},
		}
	default: // InSubZone: a second nested sub-zone closes the first and opens a new one under the same outer
		return Transition{
			CloseRunIDs: []int64{s.subRunID},
			Open: &OpenIntent{
				ZoneSignature: sig, LevelId: levelID, LevelType: levelType, LevelUid: levelUid,
				IsSubZone: true, ParentRunID: &s.outerRunID,
			},
		}
	}
}

func (s *Segmenter) enterRegularZone(now time.Time, sig string, levelID int64, levelType, levelUid string) Transition {
	switch s.state {
	case Idle:
		return Transition{Open: &OpenIntent{ZoneSignature: sig, LevelId: levelID, LevelType: levelType, LevelUid: levelUid}}

	case InMap:
		if sig == s.outerSignature && levelID == s.outerLevelID {
			return Transition{
				CloseRunIDs: []int64{s.outerRunID},
				Open:        &OpenIntent{ZoneSignature: sig, LevelId: levelID, LevelType: levelType, LevelUid: levelUid},
			}
		}
		return Transition{
			CloseRunIDs: []int64{s.outerRunID},
			Open:        &OpenIntent{ZoneSignature: sig, LevelId: levelID, LevelType: levelType, LevelUid: levelUid},
		}

	default: // InSubZone
		if sig == s.outerSignature {
			// Splice: close the sub-run, resume attribution to the
			// still-open outer run. Nothing new opens.
			outer := s.outerRunID
			return Transition{CloseRunIDs: []int64{s.subRunID}, Splice: true, SpliceOuterRunID: outer}
		}
		return Transition{
			CloseRunIDs: []int64{s.subRunID, s.outerRunID},
			Open:        &OpenIntent{ZoneSignature: sig, LevelId: levelID, LevelType: levelType, LevelUid: levelUid},
		}
	}
}

// Commit records the ids the Collector assigned while applying a
// Transition: newRunID is the id of the run just opened (zero if
// Transition.Open was nil), and is ignored for a Splice transition,
// whose SpliceOuterRunID already names the run that remains current.
func (s *Segmenter) Commit(t Transition, newRunID int64) {
	if t.Splice {
		s.state = InMap
		s.outerRunID = t.SpliceOuterRunID
		s.subRunID = 0
		return
	}
	if t.Open == nil {
		return
	}
	if t.Open.IsSubZone {
		if t.Open.ParentRunID != nil {
			s.state = InSubZone
			s.outerRunID = *t.Open.ParentRunID
			s.subRunID = newRunID
		} else {
			// Standalone sub-zone run entered from Idle: tracked as its
			// own run, not nested under anything.
			s.state = InMap
			s.outerRunID = newRunID
			s.outerSignature = t.Open.ZoneSignature
			s.outerLevelID = t.Open.LevelId
		}
		return
	}
	s.state = InMap
	s.outerRunID = newRunID
	s.outerSignature = t.Open.ZoneSignature
	s.outerLevelID = t.Open.LevelId
}

// DurationExcludingSubRuns implements the duration-semantics rule for
// an outer run with spliced sub-runs: its presented duration excludes
// the wall-clock intervals its sub-runs occupied.
func DurationExcludingSubRuns(outer schema.Run, children []schema.Run, now time.Time) float64 {
	total := outer.DurationSeconds(now)
	for _, c := range children {
		total -= c.DurationSeconds(now)
	}
	return util.Max(0, total)
}
