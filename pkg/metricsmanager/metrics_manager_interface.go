package metricsmanager

import "github.com/kubescape/pgtree/pkg/exporters"

// MetricsManager is an interface for reporting metrics
type MetricsManager interface {
	Start()
	Destroy()
	ReportSnapshot(processes int)
	ReportTargets(targets int)
	ReportRender(lines int)
	ReportSignal(result exporters.SignalResult)
	ReportFailedRun()
}
