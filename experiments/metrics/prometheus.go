package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus holds the evaluation metrics exported on /metrics
type Prometheus struct {
	evaluations *prometheus.CounterVec
	visited     *prometheus.CounterVec
	pruned      *prometheus.CounterVec
	duration    *prometheus.HistogramVec
}

func NewPrometheus(reg prometheus.Registerer) *Prometheus {
	factory := promauto.With(reg)
	return &Prometheus{
		evaluations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gametree_evaluations_total",
			Help: "Completed tree evaluations by algorithm",
		}, []string{"algorithm"}),
		visited: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gametree_nodes_visited_total",
			Help: "Nodes visited by evaluations",
		}, []string{"algorithm"}),
		pruned: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gametree_nodes_pruned_total",
			Help: "Nodes skipped by alpha-beta cutoffs",
		}, []string{"algorithm"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gametree_evaluation_duration_seconds",
			Help:    "Tree evaluation duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.000001, 4, 10), // 1µs to ~260ms
		}, []string{"algorithm"}),
	}
}

// Collector returns a collector that counts one run in memory and publishes
// it when the run completes
func (p *Prometheus) Collector() Collector {
	return &prometheusCollector{collector: &collector{}, sink: p}
}

type prometheusCollector struct {
	*collector
	sink *Prometheus
}

func (c *prometheusCollector) Complete(value float64) SearchMetric {
	m := c.collector.Complete(value)
	c.sink.evaluations.WithLabelValues(m.Algorithm).Inc()
	c.sink.visited.WithLabelValues(m.Algorithm).Add(float64(m.Visited))
	c.sink.pruned.WithLabelValues(m.Algorithm).Add(float64(m.Pruned))
	c.sink.duration.WithLabelValues(m.Algorithm).Observe(m.Duration.Seconds())
	return m
}
