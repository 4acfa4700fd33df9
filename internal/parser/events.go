// Package parser is the pure Line Parser (Component C): a total
// function from one log line to exactly one Event value. It holds no
// state and makes no I/O calls, the same shape the teacher uses for
// its own stdlib-regexp line classifiers.
package parser

import "github.com/lootwatch/lootwatchd/pkg/schema"

// EventKind discriminates the Event union. The zero value is None.
type EventKind int

const (
	None EventKind = iota
	BagModify
	BagInit
	BagRemove
	ContextBegin
	ContextEnd
	LevelEnter
	LevelOpen
	PlayerField
	ExchangeFragment
)

// ExchangeFragmentKind discriminates the payloads the Exchange Parser
// correlates into a PriceLearned emission.
type ExchangeFragmentKind int

const (
	ExchangeSearchRequest ExchangeFragmentKind = iota
	ExchangeListing
	ExchangeEndOfResponse
)

// Event is the parsed form of one log line. Only the fields relevant
// to Kind are populated; callers switch on Kind first.
type Event struct {
	Kind EventKind

	// BagModify, BagInit, BagRemove. Also carried by an ExchangeFragment
	// search-request event, naming the inventory page the search was
	// opened from (zero if the line predates that optional field).
	Page   schema.PageId
	Slot   schema.SlotId
	TypeId schema.TypeId
	Num    int64

	// ContextBegin, ContextEnd
	Context schema.ContextTag

	// LevelEnter
	LevelUid  string
	LevelType string
	LevelId   int64

	// PlayerField
	FieldKey   string
	FieldValue string

	// ExchangeFragment
	ExchangeKind ExchangeFragmentKind
	ExchangeType schema.TypeId // TypeId named by a search request or listing
	UnitPrice    float64       // listing fragments only
}
