package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ReconciliationMetrics records submission and conflict review outcomes.
type ReconciliationMetrics struct {
	submissions     *prometheus.CounterVec
	duplicateChecks *prometheus.CounterVec
	resolutions     *prometheus.CounterVec
	commitDuration  *prometheus.HistogramVec
}

// NewReconciliationMetrics registers the reconciliation metrics on the provided registerer.
func NewReconciliationMetrics(reg prometheus.Registerer) *ReconciliationMetrics {
	if reg == nil {
		return &ReconciliationMetrics{}
	}
	submissions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "count_submissions_total",
		Help: "Count submissions by final outcome.",
	}, []string{"outcome"})
	duplicateChecks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "duplicate_checks_total",
		Help: "Duplicate existence checks by result.",
	}, []string{"result"})
	resolutions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "conflict_resolutions_total",
		Help: "Sync conflict resolutions by verdict and outcome.",
	}, []string{"resolution", "outcome"})
	commitDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "count_commit_duration_seconds",
		Help:    "Duration of count commits in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})
	reg.MustRegister(submissions, duplicateChecks, resolutions, commitDuration)
	return &ReconciliationMetrics{
		submissions:     submissions,
		duplicateChecks: duplicateChecks,
		resolutions:     resolutions,
		commitDuration:  commitDuration,
	}
}

// IncSubmission increments the submission counter for the given outcome.
func (m *ReconciliationMetrics) IncSubmission(outcome string) {
	if m == nil || m.submissions == nil {
		return
	}
	m.submissions.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncDuplicateCheck increments the duplicate-check counter for the given result.
func (m *ReconciliationMetrics) IncDuplicateCheck(result string) {
	if m == nil || m.duplicateChecks == nil {
		return
	}
	m.duplicateChecks.WithLabelValues(normalizeLabel(result)).Inc()
}

// IncResolution increments the resolution counter for the verdict/outcome pair.
func (m *ReconciliationMetrics) IncResolution(resolution, outcome string) {
	if m == nil || m.resolutions == nil {
		return
	}
	m.resolutions.WithLabelValues(normalizeLabel(resolution), normalizeLabel(outcome)).Inc()
}

// ObserveCommitDuration records how long a commit took for the given kind.
func (m *ReconciliationMetrics) ObserveCommitDuration(kind string, duration time.Duration) {
	if m == nil || m.commitDuration == nil {
		return
	}
	m.commitDuration.WithLabelValues(normalizeLabel(kind)).Observe(duration.Seconds())
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
