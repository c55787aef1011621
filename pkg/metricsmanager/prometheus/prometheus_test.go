package metricsmanager

import (
	"testing"

	"github.com/kubescape/pgtree/pkg/exporters"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestPrometheusMetric(t *testing.T) {
	p := NewPrometheusMetric("127.0.0.1:0")

	p.ReportSnapshot(120)
	p.ReportTargets(3)
	p.ReportRender(7)
	p.ReportRender(5)
	p.ReportSignal(exporters.SignalSent)
	p.ReportSignal(exporters.SignalSent)
	p.ReportSignal(exporters.SignalDenied)
	p.ReportFailedRun()

	assert.Equal(t, float64(120), testutil.ToFloat64(p.processesGauge))
	assert.Equal(t, float64(3), testutil.ToFloat64(p.targetsGauge))
	assert.Equal(t, float64(5), testutil.ToFloat64(p.linesGauge))
	assert.Equal(t, float64(2), testutil.ToFloat64(p.renderCounter))
	assert.Equal(t, float64(1), testutil.ToFloat64(p.failedRunCounter))
	assert.Equal(t, float64(2), testutil.ToFloat64(p.signalCounter.WithLabelValues("sent")))
	assert.Equal(t, float64(1), testutil.ToFloat64(p.signalCounter.WithLabelValues("denied")))

	count, err := testutil.GatherAndCount(p.Registry())
	assert.NoError(t, err)
	assert.Equal(t, 7, count)
}

func TestPrometheusMetricDestroyWithoutStart(t *testing.T) {
	p := NewPrometheusMetric("127.0.0.1:0")
	p.Destroy()
}
