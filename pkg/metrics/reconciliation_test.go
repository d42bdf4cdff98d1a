package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestReconciliationMetricsExport(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewReconciliationMetrics(reg)

	metrics.IncSubmission("created")
	metrics.IncDuplicateCheck("degraded")
	metrics.IncResolution("accept_server", "resolved")
	metrics.ObserveCommitDuration("create", 120*time.Millisecond)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "count_submissions_total", "outcome", "created"); err != nil {
		t.Fatalf("fetch submissions: %v", err)
	} else if got != 1 {
		t.Fatalf("expected submissions=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "duplicate_checks_total", "result", "degraded"); err != nil {
		t.Fatalf("fetch duplicate checks: %v", err)
	} else if got != 1 {
		t.Fatalf("expected duplicate checks=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "conflict_resolutions_total", "resolution", "accept_server"); err != nil {
		t.Fatalf("fetch resolutions: %v", err)
	} else if got != 1 {
		t.Fatalf("expected resolutions=1, got %f", got)
	}

	if got, err := fetchHistogramSum(mfs, "count_commit_duration_seconds", "kind", "create"); err != nil {
		t.Fatalf("fetch commit duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}
}

func TestReconciliationMetricsNilSafe(t *testing.T) {
	var metrics *ReconciliationMetrics
	metrics.IncSubmission("created")
	metrics.IncDuplicateCheck("found")
	metrics.IncResolution("accept_local", "failed")
	metrics.ObserveCommitDuration("add", time.Second)
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("histogram %q missing label %s=%s", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}
