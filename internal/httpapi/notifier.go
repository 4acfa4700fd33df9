package httpapi

import (
	"github.com/lootwatch/lootwatchd/internal/playerscope"
	"github.com/lootwatch/lootwatchd/pkg/schema"
)

// ChangeObserver adapts collector.ChangeNotifier onto the daemon's
// Prometheus series, so the REST layer's /metrics reflects the live
// pipeline without the collector importing prometheus itself.
type ChangeObserver struct {
	metrics *Metrics
}

// NewChangeObserver wraps m as a collector.ChangeNotifier.
func NewChangeObserver(m *Metrics) *ChangeObserver {
	return &ChangeObserver{metrics: m}
}

func (o *ChangeObserver) RunChanged(scope schema.PlayerScope, runID int64) {
	o.metrics.RunOpened()
}

func (o *ChangeObserver) ScopeChanged(evt playerscope.ChangeEvent) {}

func (o *ChangeObserver) PriceLearned(typeID schema.TypeId, value float64) {
	o.metrics.PriceLearned()
}

func (o *ChangeObserver) DeltaApplied(context schema.ContextTag) {
	o.metrics.DeltaApplied(string(context))
}
