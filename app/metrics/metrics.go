// Package metrics defines the Prometheus instrumentation for the
// curation pipeline and the HTTP API.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Pipeline metrics
	ArticlesFetched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "personaflow_articles_fetched_total",
			Help: "Total number of article candidates discovered per source kind",
		},
		[]string{"kind", "status"},
	)

	ExtractionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "personaflow_extractions_total",
			Help: "Total number of body extraction attempts",
		},
		[]string{"status"},
	)

	LLMCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "personaflow_llm_calls_total",
			Help: "Total number of embedding and scoring calls",
		},
		[]string{"operation", "status"},
	)

	ArticlesRanked = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "personaflow_articles_ranked_total",
			Help: "Total number of admission decisions",
		},
		[]string{"decision"},
	)

	RunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "personaflow_run_duration_seconds",
			Help:    "Pipeline run duration in seconds per final state",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		},
		[]string{"state"},
	)

	// Feedback metrics
	FeedbackActions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "personaflow_feedback_actions_total",
			Help: "Total number of reader feedback actions",
		},
		[]string{"action"},
	)

	// Application health metrics
	ApplicationInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "personaflow_application_info",
			Help: "Application information",
		},
		[]string{"version"},
	)
)

// Init seeds static metric values.
func Init(version string) {
	ApplicationInfo.WithLabelValues(version).Set(1)
}
