package segmenter

import (
	"testing"
	"time"
)

func testClassifier() *Classifier {
	return NewClassifier(
		[]string{"/Hideout/"},
		[]string{"nightmare#7"},
		map[string]string{},
	)
}

func TestEnterRegularZoneFromIdle(t *testing.T) {
	s := New(testClassifier())
	now := time.Now()

	tr := s.Feed(now, "/World/Z1", "map", 107)
	if tr.Open == nil || len(tr.CloseRunIDs) != 0 {
		t.Fatalf("expected a fresh open with no closures, got %+v", tr)
	}
	s.Commit(tr, 1)
	if s.State() != InMap {
		t.Fatalf("expected InMap, got %v", s.State())
	}
}

func TestSubZoneSpliceSequence(t *testing.T) {
	s := New(testClassifier())
	now := time.Now()

	tr := s.Feed(now, "/World/Z1", "map", 107) // outer Z1
	s.Commit(tr, 100)

	tr = s.Feed(now, "/World/Nightmare", "nightmare", 7) // sub-zone
	if tr.Open == nil || !tr.Open.IsSubZone || tr.Open.ParentRunID == nil || *tr.Open.ParentRunID != 100 {
		t.Fatalf("expected sub-zone open with parent 100, got %+v", tr)
	}
	s.Commit(tr, 101)
	if s.State() != InSubZone {
		t.Fatalf("expected InSubZone, got %v", s.State())
	}

	tr = s.Feed(now, "/World/Z1", "map", 107) // return to outer: splice
	if !tr.Splice || tr.SpliceOuterRunID != 100 || len(tr.CloseRunIDs) != 1 || tr.CloseRunIDs[0] != 101 {
		t.Fatalf("expected splice closing sub-run 101 and resuming outer 100, got %+v", tr)
	}
	s.Commit(tr, 0)
	if s.State() != InMap {
		t.Fatalf("expected InMap after splice, got %v", s.State())
	}

	tr = s.Feed(now, "/Hideout/", "hub", 1) // back to hub
	if len(tr.CloseRunIDs) != 1 || tr.CloseRunIDs[0] != 100 {
		t.Fatalf("expected outer run 100 closed at hub entry, got %+v", tr)
	}
	s.Commit(tr, 0)
	if s.State() != Idle {
		t.Fatalf("expected Idle after hub entry, got %v", s.State())
	}
}

func TestHubFromIdleOpensNothing(t *testing.T) {
	s := New(testClassifier())
	tr := s.Feed(time.Now(), "/Hideout/", "hub", 1)
	if tr.Open != nil || len(tr.CloseRunIDs) != 0 {
		t.Fatalf("expected no-op entering hub from Idle, got %+v", tr)
	}
}

func TestSameZoneReentryClosesAndReopens(t *testing.T) {
	s := New(testClassifier())
	now := time.Now()

	tr := s.Feed(now, "/World/Z1", "map", 107)
	s.Commit(tr, 1)

	tr = s.Feed(now, "/World/Z1", "map", 107)
	if len(tr.CloseRunIDs) != 1 || tr.CloseRunIDs[0] != 1 || tr.Open == nil {
		t.Fatalf("expected close-then-reopen on identical zone re-entry, got %+v", tr)
	}
}
