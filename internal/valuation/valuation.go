// Package valuation implements the Valuation Engine (Component I in
// spec.md §4.7): a read-only service combining local prices, cloud
// prices, the trade-tax toggle, and the map-cost toggle into effective
// per-item values and per-run aggregates.
package valuation

import (
	"time"

	"github.com/lootwatch/lootwatchd/internal/store"
	"github.com/lootwatch/lootwatchd/pkg/lrucache"
	"github.com/lootwatch/lootwatchd/pkg/schema"
)

// TradeTaxFraction is the 1/8 fee from spec.md §4.7, applied to
// non-Base-Currency items only when the trade-tax toggle is on.
const TradeTaxFraction = 1.0 / 8.0

// Engine resolves effective prices and run-level aggregates. Reads are
// cached read-through per (scope, typeId) with a short TTL, since
// price rows change at most once per cloud downlink or exchange
// observation.
type Engine struct {
	store        *store.Store
	baseCurrency schema.TypeId
	cache        *lrucache.Cache
}

// New constructs an Engine backed by s. baseCurrency identifies the
// TypeId with unit value 1 that is never priced or taxed.
func New(s *store.Store, baseCurrency schema.TypeId) *Engine {
	return &Engine{store: s, baseCurrency: baseCurrency, cache: lrucache.New(4096)}
}

// EffectivePrice implements spec.md §4.7 step 1-2: Base Currency is
// always 1; otherwise the local-vs-cloud price with the later
// updatedTs wins (tie → cloud). taxApplied reports, separately from
// the returned value, whether the trade-tax toggle is currently on —
// callers decide whether to apply it (map-cost valuations never do).
func (e *Engine) EffectivePrice(scope schema.PlayerScope, seasonID string, typeID schema.TypeId, tradeTaxOn bool) (value float64, unpriced bool, err error) {
	if typeID == e.baseCurrency {
		return 1, false, nil
	}

	cacheKey := string(scope) + "/" + seasonID + "/" + itoa(int64(typeID))
	v := e.cache.Get(cacheKey, func() (interface{}, time.Duration, int) {
		val, unp, cerr := e.resolvePrice(scope, seasonID, typeID)
		if cerr != nil {
			return cerr, 0, 0
		}
		return priceResult{value: val, unpriced: unp}, 30 * time.Second, 16
	})

	if cerr, ok := v.(error); ok {
		return 0, true, cerr
	}
	res := v.(priceResult)
	if res.unpriced {
		return 0, true, nil
	}

	out := res.value
	if tradeTaxOn {
		out *= 1 - TradeTaxFraction
	}
	return out, false, nil
}

type priceResult struct {
	value    float64
	unpriced bool
}

func (e *Engine) resolvePrice(scope schema.PlayerScope, seasonID string, typeID schema.TypeId) (float64, bool, error) {
	local, err := e.store.LocalPrice(scope, typeID)
	if err != nil {
		return 0, false, err
	}
	cloud, err := e.store.CloudPrice(seasonID, typeID)
	if err != nil {
		return 0, false, err
	}

	switch {
	case local == nil && cloud == nil:
		return 0, true, nil
	case local == nil:
		return cloud.Median, false, nil
	case cloud == nil:
		return local.Value, false, nil
	default:
		if cloud.CloudUpdatedTs.After(local.UpdatedTs) || cloud.CloudUpdatedTs.Equal(local.UpdatedTs) {
			return cloud.Median, false, nil
		}
		return local.Value, false, nil
	}
}


func itoa(n int64) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
