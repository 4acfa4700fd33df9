package parser

import (
	"testing"

	"github.com/lootwatch/lootwatchd/pkg/schema"
)

func TestParseLineBagModify(t *testing.T) {
	e := ParseLine("[BAG] MODIFY page=1 slot=4 type=900 num=12")
	if e.Kind != BagModify || e.Page != 1 || e.Slot != 4 || e.TypeId != 900 || e.Num != 12 {
		t.Fatalf("unexpected event: %+v", e)
	}
}

func TestParseLineBagRemove(t *testing.T) {
	e := ParseLine("[BAG] REMOVE page=1 slot=4")
	if e.Kind != BagRemove || e.Page != 1 || e.Slot != 4 {
		t.Fatalf("unexpected event: %+v", e)
	}
}

func TestParseLineContextTag(t *testing.T) {
	e := ParseLine("[CTX] BEGIN PickItems")
	if e.Kind != ContextBegin || e.Context != schema.ContextPickItems {
		t.Fatalf("unexpected event: %+v", e)
	}

	e = ParseLine("[CTX] BEGIN SomeUnknownTag")
	if e.Kind != ContextBegin || e.Context != schema.ContextOther {
		t.Fatalf("expected unknown tag to map to Other, got %+v", e)
	}
}

func TestParseLineLevelEnter(t *testing.T) {
	e := ParseLine("[LEVEL] ENTER uid=abc123 type=nightmare id=207")
	if e.Kind != LevelEnter || e.LevelUid != "abc123" || e.LevelType != "nightmare" || e.LevelId != 207 {
		t.Fatalf("unexpected event: %+v", e)
	}
}

func TestParseLineExchangeFragments(t *testing.T) {
	e := ParseLine("[EXCHANGE] SEARCH type=42")
	if e.Kind != ExchangeFragment || e.ExchangeKind != ExchangeSearchRequest || e.ExchangeType != 42 {
		t.Fatalf("unexpected search event: %+v", e)
	}

	e = ParseLine("[EXCHANGE] LISTING price=0.5")
	if e.Kind != ExchangeFragment || e.ExchangeKind != ExchangeListing || e.UnitPrice != 0.5 {
		t.Fatalf("unexpected listing event: %+v", e)
	}

	e = ParseLine("[EXCHANGE] END")
	if e.Kind != ExchangeFragment || e.ExchangeKind != ExchangeEndOfResponse {
		t.Fatalf("unexpected end event: %+v", e)
	}
}

func TestParseLineExchangeSearchCarriesOriginPage(t *testing.T) {
	e := ParseLine("[EXCHANGE] SEARCH type=42 page=6")
	if e.Kind != ExchangeFragment || e.ExchangeKind != ExchangeSearchRequest || e.ExchangeType != 42 || e.Page != 6 {
		t.Fatalf("unexpected event: %+v", e)
	}
}

func TestParseLinePlayerField(t *testing.T) {
	e := ParseLine("[PLAYER] Name=Heroine")
	if e.Kind != PlayerField || e.FieldKey != "Name" || e.FieldValue != "Heroine" {
		t.Fatalf("unexpected event: %+v", e)
	}
}

func TestParseLineUnrecognizedIsNone(t *testing.T) {
	e := ParseLine("garbage line that matches nothing")
	if e.Kind != None {
		t.Fatalf("expected None, got %+v", e)
	}
}

func TestParseLineBagInitDistinctFromModify(t *testing.T) {
	e := ParseLine("[BAG] INIT page=1 slot=0 type=5 num=3")
	if e.Kind != BagInit {
		t.Fatalf("expected BagInit, got %+v", e)
	}
}
