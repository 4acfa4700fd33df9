// Package collector implements the Collector (Component H in spec.md
// §4.1-§4.6): the single live pipeline that drives the Log Tailer's
// line stream through the Line Parser, Exchange Parser, Delta Engine,
// Run Segmenter, and Player Context, and owns the one serialized write
// path onto the Store.
package collector

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/lootwatch/lootwatchd/internal/deltaengine"
	"github.com/lootwatch/lootwatchd/internal/parser"
	"github.com/lootwatch/lootwatchd/internal/parser/exchange"
	"github.com/lootwatch/lootwatchd/internal/playerscope"
	"github.com/lootwatch/lootwatchd/internal/segmenter"
	"github.com/lootwatch/lootwatchd/internal/store"
	"github.com/lootwatch/lootwatchd/internal/tailer"
	"github.com/lootwatch/lootwatchd/pkg/log"
	"github.com/lootwatch/lootwatchd/pkg/schema"
)

// ChangeNotifier is told about state transitions the live HTTP layer
// cares about: a run opening, a scope change, a price being learned.
// Collector calls these synchronously from within the write path, so
// implementations must not block.
type ChangeNotifier interface {
	RunChanged(scope schema.PlayerScope, runID int64)
	ScopeChanged(evt playerscope.ChangeEvent)
	PriceLearned(typeID schema.TypeId, value float64)
	DeltaApplied(context schema.ContextTag)
}

// NopNotifier discards every notification; used when nothing observes
// the live pipeline (e.g. the "tail" CLI subcommand).
type NopNotifier struct{}

func (NopNotifier) RunChanged(schema.PlayerScope, int64) {}
func (NopNotifier) ScopeChanged(playerscope.ChangeEvent) {}
func (NopNotifier) PriceLearned(schema.TypeId, float64)  {}
func (NopNotifier) DeltaApplied(schema.ContextTag)       {}

// Collector owns one PlayerScope's worth of live in-memory state
// (segmenter, scope tracker, exchange window, slot cache) and the
// Store writes that make each event durable. It is not safe for
// concurrent use: the Tailer drives it from a single goroutine, which
// is what lets the Delta Engine's "previous value" invariant hold
// without any locking of its own.
type Collector struct {
	store      *store.Store
	classifier *segmenter.Classifier
	gearPage   schema.PageId
	allowlist  schema.GearAllowlist
	baseCurr   schema.TypeId

	scope    *playerscope.Tracker
	seg      *segmenter.Segmenter
	exch     *exchange.Machine
	notifier ChangeNotifier

	// activeRunID is the run bag deltas currently attribute to: the
	// outer run in InMap, the sub-run in InSubZone, or nil in Idle.
	activeRunID *int64

	slots         map[schema.SlotKey]schema.SlotState
	openContext   map[schema.ContextTag]int
	exchangePages map[schema.TypeId]schema.PageId // last search page per TypeId, since listing fragments carry no PageId
}

// New constructs a Collector. exchangeTimeout is T_req from spec.md
// §4.3; zero selects exchange.DefaultRequestTimeout.
func New(s *store.Store, classifier *segmenter.Classifier, gearPage schema.PageId, allowlist schema.GearAllowlist, baseCurrency schema.TypeId, exchangeTimeout time.Duration, notifier ChangeNotifier) *Collector {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &Collector{
		store:         s,
		classifier:    classifier,
		gearPage:      gearPage,
		allowlist:     allowlist,
		baseCurr:      baseCurrency,
		scope:         playerscope.New(),
		seg:           segmenter.New(classifier),
		exch:          exchange.New(exchangeTimeout, baseCurrency, allowlist),
		notifier:      notifier,
		slots:         map[schema.SlotKey]schema.SlotState{},
		openContext:   map[schema.ContextTag]int{},
		exchangePages: map[schema.TypeId]schema.PageId{},
	}
}

// CurrentScope returns the PlayerScope currently resolved, if any.
func (c *Collector) CurrentScope() (schema.PlayerScope, bool) {
	return c.scope.Current()
}

// CurrentSeasonID returns the SeasonId of the current scope, empty if
// none is resolved yet.
func (c *Collector) CurrentSeasonID() string {
	return c.scope.SeasonID()
}

// ActiveRunID returns the run bag deltas are currently attributed to.
func (c *Collector) ActiveRunID() (int64, bool) {
	if c.activeRunID == nil {
		return 0, false
	}
	return *c.activeRunID, true
}

// Prime folds a batch of backward-scanned lines (spec.md §4.1 "Large-file
// cold start") through the Player Context only, so the active PlayerScope
// is known before live tailing — and hence before the write path — opens.
// Bag, level, and exchange events in the prime batch are deliberately not
// applied, to avoid writing duplicate deltas for events live tailing will
// re-observe once it reaches true EOF.
func (c *Collector) Prime(lines []string) error {
	now := time.Now().UTC()
	for _, line := range lines {
		e := parser.ParseLine(line)
		if e.Kind != parser.PlayerField {
			continue
		}
		if evt := c.scope.Feed(now, e); evt != nil {
			if err := c.applyScopeChange(*evt); err != nil {
				return err
			}
		}
	}
	return nil
}

// Run drives the Collector from a Tailer's line stream until ctx is
// cancelled. offsetFn persists the tailer position after each line.
func (c *Collector) Run(ctx context.Context, t *tailer.Tailer, offsetFn tailer.OffsetFunc) error {
	return t.Run(ctx, func(line string) error {
		return c.HandleLine(time.Now().UTC(), line)
	}, offsetFn)
}

// HandleLine parses one line and applies its effect. It is the sole
// entry point into the serialized write path.
func (c *Collector) HandleLine(now time.Time, line string) error {
	e := parser.ParseLine(line)

	if learned := c.exch.Tick(now); learned != nil {
		c.applyPriceLearned(*learned)
	}

	switch e.Kind {
	case parser.None, parser.LevelOpen:
		return nil

	case parser.PlayerField:
		if evt := c.scope.Feed(now, e); evt != nil {
			return c.applyScopeChange(*evt)
		}
		return nil

	case parser.ContextBegin:
		c.openContext[e.Context]++
		return nil

	case parser.ContextEnd:
		if c.openContext[e.Context] > 0 {
			c.openContext[e.Context]--
		}
		return nil

	case parser.LevelEnter:
		return c.applyLevelEnter(now, e)

	case parser.BagInit, parser.BagModify, parser.BagRemove:
		return c.applyBagEvent(now, e)

	case parser.ExchangeFragment:
		return c.applyExchangeFragment(now, e)
	}
	return nil
}

// currentContext implements spec.md §4.4 "Tagging": the innermost open
// context bracket, or Other when none is open.
func (c *Collector) currentContext() schema.ContextTag {
	for tag, count := range c.openContext {
		if count > 0 {
			return tag
		}
	}
	return schema.ContextOther
}

func (c *Collector) applyBagEvent(now time.Time, e parser.Event) error {
	if !deltaengine.IsTracked(e.Page, e.TypeId, c.gearPage, c.allowlist) {
		return nil
	}

	key := schema.SlotKey{Page: e.Page, Slot: e.Slot}
	prior := c.slots[key]
	if e.Kind == parser.BagRemove {
		// BagRemove carries no TypeId; resolve it from the cached
		// prior slot state per spec.md §4.2.
		e.TypeId = prior.TypeId
	}

	result := deltaengine.Apply(prior, e)

	scope, ok := c.scope.Current()
	if !ok {
		// No PlayerScope resolved yet: keep the local slot cache
		// coherent for when it does resolve, but there is nowhere
		// durable to write deltas to yet.
		c.slots[key] = result.NextState
		return nil
	}

	context := c.currentContext()
	runID := c.activeRunID

	err := c.store.WithTx(func(tx *sqlx.Tx) error {
		if err := store.SetSlotState(tx, scope, key, result.NextState); err != nil {
			return err
		}
		for _, d := range result.Deltas {
			delta := schema.Delta{
				Scope:     scope,
				RunID:     runID,
				Page:      key.Page,
				Slot:      key.Slot,
				TypeId:    d.TypeId,
				Quantity:  d.SignedQuantity,
				Context:   context,
				Timestamp: now,
			}
			if _, err := store.InsertDelta(tx, delta); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	c.slots[key] = result.NextState
	if len(result.Deltas) > 0 {
		c.notifier.DeltaApplied(context)
	}
	return nil
}

func (c *Collector) applyLevelEnter(now time.Time, e parser.Event) error {
	scope, ok := c.scope.Current()
	if !ok {
		return nil
	}

	t := c.seg.Feed(now, e.LevelUid, e.LevelType, e.LevelId)

	var newRunID int64
	err := c.store.WithTx(func(tx *sqlx.Tx) error {
		for _, id := range t.CloseRunIDs {
			if err := store.CloseRun(tx, id, now); err != nil {
				return err
			}
		}
		if t.Open != nil {
			id, err := store.InsertRun(tx, schema.Run{
				Scope:         scope,
				StartTs:       now,
				ZoneSignature: t.Open.ZoneSignature,
				LevelId:       t.Open.LevelId,
				LevelType:     t.Open.LevelType,
				LevelUid:      t.Open.LevelUid,
				IsHubZone:     t.Open.IsHubZone,
				IsSubZone:     t.Open.IsSubZone,
				ParentRunID:   t.Open.ParentRunID,
			})
			if err != nil {
				return err
			}
			newRunID = id
		}
		return nil
	})
	if err != nil {
		return err
	}

	c.seg.Commit(t, newRunID)

	switch {
	case t.Splice:
		id := t.SpliceOuterRunID
		c.activeRunID = &id
	case t.Open != nil:
		id := newRunID
		c.activeRunID = &id
		c.notifier.RunChanged(scope, newRunID)
	default:
		c.activeRunID = nil
	}
	return nil
}

// applyScopeChange executes spec.md §4.6's atomic sequence: flush any
// open run to the prior scope, load the new scope's slot state, reset
// segmenter state to Idle, and notify observers (including the Cloud
// Sync Worker, via ChangeNotifier) to re-evaluate the season partition.
func (c *Collector) applyScopeChange(evt playerscope.ChangeEvent) error {
	if c.activeRunID != nil {
		if err := c.store.WithTx(func(tx *sqlx.Tx) error {
			return store.CloseRun(tx, *c.activeRunID, evt.At)
		}); err != nil {
			return err
		}
	}
	c.activeRunID = nil
	c.seg.Reset()
	c.openContext = map[schema.ContextTag]int{}
	c.exchangePages = map[schema.TypeId]schema.PageId{}

	if evt.Current == "" {
		c.slots = map[schema.SlotKey]schema.SlotState{}
		c.notifier.ScopeChanged(evt)
		return nil
	}

	states, err := c.store.SlotStates(evt.Current)
	if err != nil {
		return err
	}
	c.slots = states

	c.notifier.ScopeChanged(evt)
	return nil
}

// applyExchangeFragment feeds one fragment to the Exchange Parser.
// isGearPage is derived from the page the matching search request was
// opened on, since listing fragments carry no PageId of their own in
// the wire format.
func (c *Collector) applyExchangeFragment(now time.Time, e parser.Event) error {
	if e.ExchangeKind == parser.ExchangeSearchRequest {
		c.exchangePages[e.ExchangeType] = e.Page
	}
	isGearPage := c.exchangePages[e.ExchangeType] == c.gearPage

	if learned := c.exch.Feed(now, e, isGearPage); learned != nil {
		c.applyPriceLearned(*learned)
	}
	return nil
}

func (c *Collector) applyPriceLearned(p exchange.PriceLearned) {
	scope, ok := c.scope.Current()
	if !ok {
		return
	}
	now := time.Now().UTC()

	price := schema.Price{Scope: string(scope), TypeId: p.TypeId, Value: p.ReferencePrice, Source: schema.SourceExchangeLearned, UpdatedTs: now}
	if err := c.store.UpsertPrice(price); err != nil {
		log.Errorf("collector: storing learned price for type %d: %v", p.TypeId, err)
		return
	}

	if p.TypeId != c.baseCurr {
		if err := c.store.EnqueueOutbox(p.TypeId, p.ReferencePrice, now); err != nil {
			log.Errorf("collector: enqueueing outbox for type %d: %v", p.TypeId, err)
		}
	}

	c.notifier.PriceLearned(p.TypeId, p.ReferencePrice)
}
