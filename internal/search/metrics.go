package search

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("shapereach.search")

var (
	levelsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shapereach_search_levels_total",
		Help: "Search levels completed",
	})

	discoveredShapes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "shapereach_search_discovered_shapes",
		Help: "Shapes discovered by the most recent search level",
	})

	levelDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "shapereach_search_level_duration_seconds",
		Help:    "Time to expand one search level",
		Buckets: []float64{0.001, 0.01, 0.1, 1, 10, 60},
	})

	operations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shapereach_search_operations_total",
		Help: "Shape operations applied during search",
	}, []string{"kind"})
)
