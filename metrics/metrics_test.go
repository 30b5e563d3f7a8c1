package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"viral-recipes/models"
)

func TestRecordCycle(t *testing.T) {
	before := testutil.ToFloat64(ItemsTotal.WithLabelValues("published"))
	cyclesBefore := testutil.ToFloat64(CyclesTotal)

	start := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
	RecordCycle(models.CycleStats{
		Scanned:   10,
		Published: 3,
		StartedAt: start,
		EndedAt:   start.Add(2 * time.Second),
	})

	assert.Equal(t, before+3, testutil.ToFloat64(ItemsTotal.WithLabelValues("published")))
	assert.Equal(t, cyclesBefore+1, testutil.ToFloat64(CyclesTotal))
}

func TestRecordSourcePoll(t *testing.T) {
	before := testutil.ToFloat64(SourcePollErrors.WithLabelValues("tiktok"))

	RecordSourcePoll("tiktok", time.Second, nil)
	RecordSourcePoll("tiktok", time.Second, errors.New("boom"))

	assert.Equal(t, before+1, testutil.ToFloat64(SourcePollErrors.WithLabelValues("tiktok")))
}

func TestCircuitBreakerMetrics(t *testing.T) {
	CircuitBreakerState.WithLabelValues("cms").Set(2)
	assert.Equal(t, float64(2), testutil.ToFloat64(CircuitBreakerState.WithLabelValues("cms")))

	CircuitBreakerRequests.WithLabelValues("cms", "rejected").Inc()
	CircuitBreakerTransitions.WithLabelValues("cms", "closed", "open").Inc()
}
