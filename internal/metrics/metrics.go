// internal/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RatingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "peer_ratings_total",
			Help: "Total number of submitted peer ratings",
		},
		[]string{"class", "group"},
	)

	RatingScoreHistogram = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "peer_rating_score",
			Help:    "Distribution of submitted rating scores",
			Buckets: prometheus.LinearBuckets(1, 1, 5),
		},
		[]string{"class", "group"},
	)

	OptionFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "option_fetches_total",
			Help: "Option-list fetches by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method", "status"},
	)
)
