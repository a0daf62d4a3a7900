package metrics

import "github.com/prometheus/client_golang/prometheus"

// Engine Prometheus metrics.
var (
	SearchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mangareach",
			Name:      "search_total",
			Help:      "Total number of ranked result assemblies",
		},
		[]string{"mode"}, // "query" / "tag" / "none"
	)

	SearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "mangareach",
			Name:      "search_duration_seconds",
			Help:      "Ranked result assembly duration in seconds",
			Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		},
		[]string{"mode"},
	)

	RelatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "mangareach",
			Name:      "related_total",
			Help:      "Total number of related-item computations",
		},
	)

	FavoriteTogglesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "mangareach",
			Name:      "favorite_toggles_total",
			Help:      "Total number of favorite toggles",
		},
	)

	CatalogWorks = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "mangareach",
			Name:      "catalog_works",
			Help:      "Number of works in the loaded catalog",
		},
	)
)

// RegisterEngineMetrics registers engine metrics explicitly (no init()).
func RegisterEngineMetrics() {
	prometheus.MustRegister(SearchTotal)
	prometheus.MustRegister(SearchDuration)
	prometheus.MustRegister(RelatedTotal)
	prometheus.MustRegister(FavoriteTogglesTotal)
	prometheus.MustRegister(CatalogWorks)
}
