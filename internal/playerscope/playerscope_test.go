package playerscope

import (
	"testing"
	"time"

	"github.com/lootwatch/lootwatchd/internal/parser"
)

func field(key, value string) parser.Event {
	return parser.Event{Kind: parser.PlayerField, FieldKey: key, FieldValue: value}
}

func TestFirstObservationPublishesChange(t *testing.T) {
	tr := New()
	now := time.Now()

	tr.Feed(now, field("SeasonId", "s7"))
	ev := tr.Feed(now, field("Name", "Heroine"))

	if ev == nil {
		t.Fatal("expected a ChangeEvent on first fully-derived scope")
	}
	if ev.Current != "s7_Heroine" {
		t.Fatalf("unexpected scope: %v", ev.Current)
	}
}

func TestPlayerIdTakesPrecedenceOverSeasonName(t *testing.T) {
	tr := New()
	now := time.Now()

	tr.Feed(now, field("PlayerId", "stable-123"))
	cur, ok := tr.Current()
	if !ok || cur != "stable-123" {
		t.Fatalf("expected stable id scope, got %v ok=%v", cur, ok)
	}
}

func TestNameChangeTriggersNewScope(t *testing.T) {
	tr := New()
	now := time.Now()
	tr.Feed(now, field("SeasonId", "s7"))
	tr.Feed(now, field("Name", "Heroine"))

	ev := tr.Feed(now, field("Name", "OtherChar"))
	if ev == nil {
		t.Fatal("expected a ChangeEvent on name change")
	}
	if ev.Previous != "s7_Heroine" || ev.Current != "s7_OtherChar" {
		t.Fatalf("unexpected transition: %+v", ev)
	}
}

func TestNoChangeNoEvent(t *testing.T) {
	tr := New()
	now := time.Now()
	tr.Feed(now, field("SeasonId", "s7"))
	tr.Feed(now, field("Name", "Heroine"))

	ev := tr.Feed(now, field("SeasonId", "s7"))
	if ev != nil {
		t.Fatalf("expected no change event when scope is unchanged, got %+v", ev)
	}
}
