package monitoring

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects the platform's operational counters on a private
// prometheus registry.
type Metrics struct {
	reg *prometheus.Registry

	OrdersPlaced    prometheus.Counter
	Advancements    *prometheus.CounterVec
	Pickups         prometheus.Counter
	Conflicts       prometheus.Counter
	QueueDepth      *prometheus.GaugeVec
	EstimateSeconds prometheus.Histogram
}

// New creates and registers the metrics set
func New() *Metrics {
	r := prometheus.NewRegistry()

	placed := prometheus.NewCounter(prometheus.CounterOpts{Name: "forchetta_orders_placed_total"})
	advancements := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "forchetta_queue_advancements_total"}, []string{"outcome"})
	pickups := prometheus.NewCounter(prometheus.CounterOpts{Name: "forchetta_pickups_confirmed_total"})
	conflicts := prometheus.NewCounter(prometheus.CounterOpts{Name: "forchetta_advancement_conflicts_total"})
	depth := prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: "forchetta_queue_depth"}, []string{"restaurant_id"})
	estimate := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "forchetta_estimate_seconds",
		Buckets: prometheus.DefBuckets,
	})

	r.MustRegister(placed, advancements, pickups, conflicts, depth, estimate)
	return &Metrics{
		reg:             r,
		OrdersPlaced:    placed,
		Advancements:    advancements,
		Pickups:         pickups,
		Conflicts:       conflicts,
		QueueDepth:      depth,
		EstimateSeconds: estimate,
	}
}

// Handler serves the registry in the prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}
