package httpapi

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the daemon's Prometheus series, served at /metrics. A
// private Registry (rather than the global DefaultRegisterer) keeps
// repeated RestApi construction in tests from panicking on duplicate
// registration.
type Metrics struct {
	registry *prometheus.Registry

	deltasProcessed  *prometheus.CounterVec
	runsOpened       prometheus.Counter
	pricesLearned    prometheus.Counter
	uplinkAttempts   *prometheus.CounterVec
	downlinkRowsRead prometheus.Counter
}

// NewMetrics builds and registers the series.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		deltasProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lootwatch_deltas_processed_total",
			Help: "Deltas written by the collector, labeled by context tag.",
		}, []string{"context"}),
		runsOpened: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lootwatch_runs_opened_total",
			Help: "Runs opened (zone entry).",
		}),
		pricesLearned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lootwatch_prices_learned_total",
			Help: "Prices learned from exchange listings.",
		}),
		uplinkAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lootwatch_cloud_uplink_attempts_total",
			Help: "Cloud uplink submissions, labeled by outcome.",
		}, []string{"outcome"}),
		downlinkRowsRead: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lootwatch_cloud_downlink_rows_total",
			Help: "Rows stored by the cloud downlink (season prices + history buckets).",
		}),
	}
	m.registry.MustRegister(m.deltasProcessed, m.runsOpened, m.pricesLearned, m.uplinkAttempts, m.downlinkRowsRead)
	return m
}

// Handler returns the promhttp handler scoped to this Metrics' registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// DeltaApplied and RunOpened satisfy collector.ChangeNotifier's metrics
// half (see notifier.go); UplinkOutcome and DownlinkRows satisfy
// cloudsync.Observer.
func (m *Metrics) DeltaApplied(context string)  { m.deltasProcessed.WithLabelValues(context).Inc() }
func (m *Metrics) RunOpened()                   { m.runsOpened.Inc() }
func (m *Metrics) PriceLearned()                { m.pricesLearned.Inc() }
func (m *Metrics) UplinkOutcome(outcome string) { m.uplinkAttempts.WithLabelValues(outcome).Inc() }
func (m *Metrics) DownlinkRows(n int)           { m.downlinkRowsRead.Add(float64(n)) }
