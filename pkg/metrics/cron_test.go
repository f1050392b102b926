package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCronJobMetricsObserveRun(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCronJobMetrics(reg)

	m.ObserveRun("placement_reconcile", 250*time.Millisecond, nil)
	m.ObserveRun("placement_reconcile", time.Second, errors.New("db down"))
	m.ObserveRun("", time.Millisecond, nil)
	m.IncSkippedCycle()

	mfs, err := reg.Gather()
	require.NoError(t, err)

	runs := family(t, mfs, "extro_cron_job_runs_total")
	assert.Equal(t, 1.0, counterWith(runs, map[string]string{"job": "placement_reconcile", "result": ResultSuccess}))
	assert.Equal(t, 1.0, counterWith(runs, map[string]string{"job": "placement_reconcile", "result": ResultFailure}))
	assert.Equal(t, 1.0, counterWith(runs, map[string]string{"job": "unknown", "result": ResultSuccess}))

	hist := family(t, mfs, "extro_cron_job_duration_seconds")
	for _, metric := range hist.GetMetric() {
		if hasLabels(metric, map[string]string{"job": "placement_reconcile"}) {
			assert.EqualValues(t, 2, metric.GetHistogram().GetSampleCount())
			assert.InDelta(t, 1.25, metric.GetHistogram().GetSampleSum(), 1e-9)
		}
	}

	last := family(t, mfs, "extro_cron_job_last_success_timestamp_seconds")
	require.Len(t, last.GetMetric(), 2, "failed runs do not touch the gauge")

	skipped := family(t, mfs, "extro_cron_cycles_skipped_total")
	assert.Equal(t, 1.0, skipped.GetMetric()[0].GetCounter().GetValue())
}

func TestNilCronJobMetricsIsSafe(t *testing.T) {
	var m *CronJobMetrics
	m.ObserveRun("job", time.Second, nil)
	m.IncSkippedCycle()
	NewCronJobMetrics(nil).ObserveRun("job", time.Second, errors.New("x"))
}

func family(t *testing.T, mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	t.Helper()
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	t.Fatalf("metric %q not gathered", name)
	return nil
}

func counterWith(mf *dto.MetricFamily, labels map[string]string) float64 {
	for _, metric := range mf.GetMetric() {
		if hasLabels(metric, labels) {
			return metric.GetCounter().GetValue()
		}
	}
	return 0
}

func hasLabels(metric *dto.Metric, labels map[string]string) bool {
	matched := 0
	for _, pair := range metric.GetLabel() {
		if want, ok := labels[pair.GetName()]; ok {
			if pair.GetValue() != want {
				return false
			}
			matched++
		}
	}
	return matched == len(labels)
}
