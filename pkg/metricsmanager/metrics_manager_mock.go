package metricsmanager

import (
	"sync/atomic"

	"github.com/goradd/maps"
	"github.com/kubescape/pgtree/pkg/exporters"
)

var _ MetricsManager = (*MetricsMock)(nil)

type MetricsMock struct {
	FailedRunCounter atomic.Int32
	RenderCounter    atomic.Int32
	Processes        atomic.Int64
	Targets          atomic.Int64
	Lines            atomic.Int64
	SignalCounter    maps.SafeMap[exporters.SignalResult, int]
}

func NewMetricsMock() *MetricsMock {
	return &MetricsMock{}
}

func (m *MetricsMock) Start() {
}

func (m *MetricsMock) Destroy() {
	m.FailedRunCounter.Store(0)
	m.RenderCounter.Store(0)
	m.Processes.Store(0)
	m.Targets.Store(0)
	m.Lines.Store(0)
	m.SignalCounter.Clear()
}

func (m *MetricsMock) ReportSnapshot(processes int) {
	m.Processes.Store(int64(processes))
}

func (m *MetricsMock) ReportTargets(targets int) {
	m.Targets.Store(int64(targets))
}

func (m *MetricsMock) ReportRender(lines int) {
	m.RenderCounter.Add(1)
	m.Lines.Store(int64(lines))
}

func (m *MetricsMock) ReportSignal(result exporters.SignalResult) {
	m.SignalCounter.Set(result, m.SignalCounter.Get(result)+1)
}

func (m *MetricsMock) ReportFailedRun() {
	m.FailedRunCounter.Add(1)
}
