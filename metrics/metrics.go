// Package metrics 는 파이프라인 Prometheus 지표를 정의한다. /metrics 에서 노출된다.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"viral-recipes/models"
)

var (
	// Cycle Metrics
	CyclesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "viralrecipes_cycles_total",
			Help: "Total number of completed pipeline cycles",
		},
	)

	CycleDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "viralrecipes_cycle_duration_seconds",
			Help:    "Duration of pipeline cycles in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		},
	)

	// ItemsTotal 는 단계별 누적 건수다.
	ItemsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "viralrecipes_items_total",
			Help: "Total number of items per pipeline stage",
		},
		[]string{"stage"}, // scanned, viral, processed, duplicate, published, queued, rejected, error
	)

	OrchestratorState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "viralrecipes_orchestrator_state",
			Help: "Orchestrator state (0=idle, 1=running, 2=sleeping, 3=stopping, 4=stopped)",
		},
	)

	// Source Metrics
	SourcePollDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "viralrecipes_source_poll_duration_seconds",
			Help:    "Duration of source polls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"source"},
	)

	SourcePollErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "viralrecipes_source_poll_errors_total",
			Help: "Total number of failed source polls",
		},
		[]string{"source"},
	)

	// Dedup Metrics
	DedupWindowSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "viralrecipes_dedup_window_entries",
			Help: "Current number of fingerprints in the dedup window",
		},
	)

	DedupDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "viralrecipes_dedup_decisions_total",
			Help: "Total number of dedup decisions by stage",
		},
		[]string{"stage"}, // none, exact, similar
	)

	// Publish Metrics
	PublishAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "viralrecipes_publish_attempts_total",
			Help: "Total number of CMS publish attempts",
		},
		[]string{"result"}, // success, transient, rejected
	)

	PendingQueueSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "viralrecipes_pending_recipes",
			Help: "Current number of recipes waiting for approval",
		},
	)

	// Enrichment Metrics
	EnrichDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "viralrecipes_enrich_duration_seconds",
			Help:    "Duration of extraction and enrichment per item",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"result"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)
)

// RecordCycle 는 끝난 사이클의 통계를 누적 지표에 반영한다.
func RecordCycle(s models.CycleStats) {
	CyclesTotal.Inc()
	CycleDuration.Observe(s.Duration().Seconds())

	ItemsTotal.WithLabelValues("scanned").Add(float64(s.Scanned))
	ItemsTotal.WithLabelValues("viral").Add(float64(s.ViralDetected))
	ItemsTotal.WithLabelValues("processed").Add(float64(s.Processed))
	ItemsTotal.WithLabelValues("duplicate").Add(float64(s.DuplicatesDropped))
	ItemsTotal.WithLabelValues("published").Add(float64(s.Published))
	ItemsTotal.WithLabelValues("queued").Add(float64(s.QueuedForReview))
	ItemsTotal.WithLabelValues("rejected").Add(float64(s.Rejected))
	ItemsTotal.WithLabelValues("error").Add(float64(s.Errors))
}

func RecordSourcePoll(source string, duration time.Duration, err error) {
	SourcePollDuration.WithLabelValues(source).Observe(duration.Seconds())
	if err != nil {
		SourcePollErrors.WithLabelValues(source).Inc()
	}
}

func RecordEnrich(duration time.Duration, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	EnrichDuration.WithLabelValues(result).Observe(duration.Seconds())
}
