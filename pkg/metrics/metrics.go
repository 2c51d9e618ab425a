package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Feed metrics
	ChartLoads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orgchart_chart_loads_total",
			Help: "Chart feed loads by result",
		},
		[]string{"result"}, // ok, invalid_feed, source_error
	)

	NormalizeWarnings = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orgchart_normalize_warnings_total",
			Help: "Warnings raised while normalizing chart feeds",
		},
		[]string{"kind"},
	)

	// Graph metrics
	GraphNodes = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "orgchart_graph_nodes",
			Help: "Number of entities in the loaded chart",
		},
		[]string{"chart"},
	)

	GraphEdges = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "orgchart_graph_edges",
			Help: "Number of ownership edges in the loaded chart",
		},
		[]string{"chart"},
	)

	ValidationErrors = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "orgchart_validation_errors",
			Help: "Referential and range errors found in the loaded chart",
		},
		[]string{"chart"},
	)

	// Filter metrics
	FilterPasses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orgchart_filter_passes_total",
		Help: "Filter passes evaluated",
	})

	MatchedNodes = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "orgchart_filter_matched_nodes",
		Help:    "Nodes matched per filter pass",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	})

	// Cache metrics
	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orgchart_cache_hits_total",
		Help: "Chart graph cache hits",
	})

	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orgchart_cache_misses_total",
		Help: "Chart graph cache misses",
	})
)

// RecordGraph updates the size and validation gauges for a chart.
func RecordGraph(chartID string, nodes, edges, validationErrors int) {
	GraphNodes.WithLabelValues(chartID).Set(float64(nodes))
	GraphEdges.WithLabelValues(chartID).Set(float64(edges))
	ValidationErrors.WithLabelValues(chartID).Set(float64(validationErrors))
}

// ForgetChart drops the per-chart series once a chart disappears from the feed.
func ForgetChart(chartID string) {
	GraphNodes.DeleteLabelValues(chartID)
	GraphEdges.DeleteLabelValues(chartID)
	ValidationErrors.DeleteLabelValues(chartID)
}
