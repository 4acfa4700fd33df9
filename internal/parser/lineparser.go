package parser

import (
	"regexp"
	"strconv"

	"github.com/lootwatch/lootwatchd/pkg/schema"
)

// Each pattern matches one line shape the client log emits. Capture
// groups are positional; ParseLine relies on MatchString order, not on
// named groups, since the teacher's own line classifiers do the same.
var (
	bagModifyRe = regexp.MustCompile(`^\[BAG\] MODIFY page=(\d+) slot=(\d+) type=(\d+) num=(-?\d+)$`)
	bagInitRe   = regexp.MustCompile(`^\[BAG\] INIT page=(\d+) slot=(\d+) type=(\d+) num=(\d+)$`)
	bagRemoveRe = regexp.MustCompile(`^\[BAG\] REMOVE page=(\d+) slot=(\d+)$`)

	contextBeginRe = regexp.MustCompile(`^\[CTX\] BEGIN (\w+)$`)
	contextEndRe   = regexp.MustCompile(`^\[CTX\] END (\w+)$`)

	levelEnterRe = regexp.MustCompile(`^\[LEVEL\] ENTER uid=(\S+) type=(\w+) id=(\d+)$`)
	levelOpenRe  = regexp.MustCompile(`^\[LEVEL\] OPEN$`)

	playerFieldRe = regexp.MustCompile(`^\[PLAYER\] (\w+)=(.*)$`)

	exchangeSearchRe  = regexp.MustCompile(`^\[EXCHANGE\] SEARCH type=(\d+)(?: page=(\d+))?$`)
	exchangeListingRe = regexp.MustCompile(`^\[EXCHANGE\] LISTING price=([0-9.]+)$`)
	exchangeEndRe     = regexp.MustCompile(`^\[EXCHANGE\] END$`)
)

var contextTagByName = map[string]schema.ContextTag{
	"PickItems":    schema.ContextPickItems,
	"MapOpen":      schema.ContextMapOpen,
	"Recycle":      schema.ContextRecycle,
	"ExchangeBuy":  schema.ContextExchangeBuy,
	"ExchangeSell": schema.ContextExchangeSell,
}

// ParseLine is a total, pure function from a complete text line (no
// trailing newline, no partial-line fragments — the tailer guarantees
// that) to exactly one Event. Unrecognized lines yield Kind == None,
// never an error: a forward-compatible log addition must not break
// collection of everything else.
func ParseLine(line string) Event {
	if m := bagModifyRe.FindStringSubmatch(line); m != nil {
		return Event{
			Kind:   BagModify,
			Page:   schema.PageId(atoi(m[1])),
			Slot:   schema.SlotId(atoi(m[2])),
			TypeId: schema.TypeId(atoi(m[3])),
			Num:    int64(atoi(m[4])),
		}
	}
	if m := bagInitRe.FindStringSubmatch(line); m != nil {
		return Event{
			Kind:   BagInit,
			Page:   schema.PageId(atoi(m[1])),
			Slot:   schema.SlotId(atoi(m[2])),
			TypeId: schema.TypeId(atoi(m[3])),
			Num:    int64(atoi(m[4])),
		}
	}
	if m := bagRemoveRe.FindStringSubmatch(line); m != nil {
		return Event{
			Kind: BagRemove,
			Page: schema.PageId(atoi(m[1])),
			Slot: schema.SlotId(atoi(m[2])),
		}
	}
	if m := contextBeginRe.FindStringSubmatch(line); m != nil {
		return Event{Kind: ContextBegin, Context: resolveContext(m[1])}
	}
	if m := contextEndRe.FindStringSubmatch(line); m != nil {
		return Event{Kind: ContextEnd, Context: resolveContext(m[1])}
	}
	if m := levelEnterRe.FindStringSubmatch(line); m != nil {
		return Event{
			Kind:      LevelEnter,
			LevelUid:  m[1],
			LevelType: m[2],
			LevelId:   int64(atoi(m[3])),
		}
	}
	if levelOpenRe.MatchString(line) {
		return Event{Kind: LevelOpen}
	}
	if m := exchangeSearchRe.FindStringSubmatch(line); m != nil {
		var page schema.PageId
		if m[2] != "" {
			page = schema.PageId(atoi(m[2]))
		}
		return Event{Kind: ExchangeFragment, ExchangeKind: ExchangeSearchRequest, ExchangeType: schema.TypeId(atoi(m[1])), Page: page}
	}
	if m := exchangeListingRe.FindStringSubmatch(line); m != nil {
		price, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return Event{Kind: None}
		}
		return Event{Kind: ExchangeFragment, ExchangeKind: ExchangeListing, UnitPrice: price}
	}
	if exchangeEndRe.MatchString(line) {
		return Event{Kind: ExchangeFragment, ExchangeKind: ExchangeEndOfResponse}
	}
	if m := playerFieldRe.FindStringSubmatch(line); m != nil {
		return Event{Kind: PlayerField, FieldKey: m[1], FieldValue: m[2]}
	}

	return Event{Kind: None}
}

func resolveContext(name string) schema.ContextTag {
	if tag, ok := contextTagByName[name]; ok {
		return tag
	}
	return schema.ContextOther
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
