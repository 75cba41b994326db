package server

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the server's Prometheus collectors.
type Metrics struct {
	Aggregations        *prometheus.CounterVec
	AggregationDuration prometheus.Histogram
	RowsLoaded          prometheus.Gauge
	Votes               *prometheus.CounterVec
}

// NewMetrics registers the collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Aggregations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sockenstudie_aggregations_total",
			Help: "Snapshots computed, by group filter.",
		}, []string{"group"}),
		AggregationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sockenstudie_aggregation_duration_seconds",
			Help:    "Time spent filtering and aggregating one snapshot.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
		}),
		RowsLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sockenstudie_rows_loaded",
			Help: "Rows in the currently served dataset.",
		}),
		Votes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sockenstudie_votes_total",
			Help: "Vote operations, by action and result.",
		}, []string{"action", "result"}),
	}
	reg.MustRegister(m.Aggregations, m.AggregationDuration, m.RowsLoaded, m.Votes)
	return m
}

func voteResult(accepted bool, reason string) string {
	if accepted {
		return "accepted"
	}
	return reason
}
