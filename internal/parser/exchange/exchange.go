// Package exchange implements the Exchange Parser (Component D in
// spec.md §4.3): a stateful machine that correlates a search-request
// ExchangeFragment with the listing fragments that follow it and
// emits a learned reference price once the window closes.
package exchange

import (
	"time"

	"github.com/lootwatch/lootwatchd/internal/parser"
	"github.com/lootwatch/lootwatchd/internal/valuation"
	"github.com/lootwatch/lootwatchd/pkg/schema"
)

// DefaultRequestTimeout is T_req from spec.md §4.3.
const DefaultRequestTimeout = 10 * time.Second

// MinListings is the minimum number of observed listings required
// before a reference price is emitted; below this the window closes
// silently.
const MinListings = 3

// PriceLearned is emitted when a search window closes with enough
// listings to compute a reference price.
type PriceLearned struct {
	TypeId         schema.TypeId
	ReferencePrice float64
}

// Machine tracks one in-flight search window. It is not safe for
// concurrent use; the Collector drives it from a single goroutine
// alongside the rest of the live pipeline.
type Machine struct {
	requestTimeout time.Duration
	gearAllowlist  schema.GearAllowlist
	baseCurrency   schema.TypeId

	open      bool
	typeID    schema.TypeId
	deadline  time.Time
	listings  []float64
}

// New constructs a Machine. baseCurrency and gearAllowlist gate the
// exclusions from spec.md §4.3: Base Currency is never learned, and
// gear-page listings (anything not on the allowlist, reported via the
// isGearPage flag on Feed) are ignored.
func New(requestTimeout time.Duration, baseCurrency schema.TypeId, gearAllowlist schema.GearAllowlist) *Machine {
	if requestTimeout <= 0 {
		requestTimeout = DefaultRequestTimeout
	}
	return &Machine{requestTimeout: requestTimeout, baseCurrency: baseCurrency, gearAllowlist: gearAllowlist}
}

// Tick closes the window on timeout without a new fragment arriving,
// letting the Collector drive window expiry from its own poll loop
// clock rather than a dedicated timer goroutine per window.
func (m *Machine) Tick(now time.Time) *PriceLearned {
	if m.open && now.After(m.deadline) {
		return m.close()
	}
	return nil
}

// Feed consumes one ExchangeFragment event. isGearPage marks a listing
// fragment as belonging to the excluded gear page (the listing itself
// carries no PageId in the wire format; the Collector knows which page
// a given search was opened from and passes it through).
func (m *Machine) Feed(now time.Time, e parser.Event, isGearPage bool) *PriceLearned {
	if e.Kind != parser.ExchangeFragment {
		return nil
	}

	switch e.ExchangeKind {
	case parser.ExchangeSearchRequest:
		learned := m.closeIfOpen()
		if e.ExchangeType == m.baseCurrency {
			m.open = false
			return learned
		}
		m.open = true
		m.typeID = e.ExchangeType
		m.deadline = now.Add(m.requestTimeout)
		m.listings = m.listings[:0]
		return learned

	case parser.ExchangeListing:
		if !m.open {
			return nil
		}
		if now.After(m.deadline) {
			learned := m.close()
			return learned
		}
		if isGearPage && !m.gearAllowlist.Allows(m.typeID) {
			return nil
		}
		m.listings = append(m.listings, e.UnitPrice)
		return nil

	case parser.ExchangeEndOfResponse:
		return m.close()
	}
	return nil
}

func (m *Machine) closeIfOpen() *PriceLearned {
	if !m.open {
		return nil
	}
	return m.close()
}

func (m *Machine) close() *PriceLearned {
	m.open = false
	defer func() { m.listings = nil }()

	if len(m.listings) < MinListings {
		return nil
	}
	if m.typeID == m.baseCurrency {
		return nil
	}

	p, err := valuation.Percentile(m.listings, 0.10)
	if err != nil {
		return nil
	}
	return &PriceLearned{TypeId: m.typeID, ReferencePrice: p}
}
