package selection

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Refresh outcomes.
const (
	outcomeApplied = "applied"
	outcomeNoop    = "noop"
	outcomeStale   = "stale"
	outcomeFailed  = "failed"
)

var (
	// RefreshTotal counts variant refreshes by outcome.
	RefreshTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_variant_refresh_total",
			Help: "Total number of variant refreshes by outcome (applied, noop, stale, failed)",
		},
		[]string{"outcome"},
	)

	// RefreshDuration observes the catalog round-trip of a variant refresh.
	RefreshDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "storefront_variant_refresh_duration_seconds",
			Help:    "Duration of catalog round-trips issued by variant refreshes in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)
)

// OpenViews reports the number of views held by registries.
var OpenViews = promauto.NewGauge(
	prometheus.GaugeOpts{
		Name: "storefront_open_views",
		Help: "Number of product views currently held in memory",
	},
)
