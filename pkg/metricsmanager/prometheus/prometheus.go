package metricsmanager

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/kubescape/go-logger"
	"github.com/kubescape/go-logger/helpers"
	"github.com/kubescape/pgtree/pkg/exporters"
	"github.com/kubescape/pgtree/pkg/metricsmanager"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const signalResultLabel = "result"

var _ metricsmanager.MetricsManager = (*PrometheusMetric)(nil)

type PrometheusMetric struct {
	addr     string
	registry *prometheus.Registry
	server   *http.Server

	processesGauge   prometheus.Gauge
	targetsGauge     prometheus.Gauge
	linesGauge       prometheus.Gauge
	renderCounter    prometheus.Counter
	failedRunCounter prometheus.Counter
	signalCounter    *prometheus.CounterVec
}

// NewPrometheusMetric registers the metrics on a private registry served on addr.
func NewPrometheusMetric(addr string) *PrometheusMetric {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &PrometheusMetric{
		addr:     addr,
		registry: registry,
		processesGauge: factory.NewGauge(prometheus.GaugeOpts{
			Name: "pgtree_snapshot_processes",
			Help: "The number of processes in the last snapshot",
		}),
		targetsGauge: factory.NewGauge(prometheus.GaugeOpts{
			Name: "pgtree_matched_processes",
			Help: "The number of processes selected by the last search",
		}),
		linesGauge: factory.NewGauge(prometheus.GaugeOpts{
			Name: "pgtree_rendered_processes",
			Help: "The number of processes printed by the last run",
		}),
		renderCounter: factory.NewCounter(prometheus.CounterOpts{
			Name: "pgtree_runs_total",
			Help: "The total number of completed runs",
		}),
		failedRunCounter: factory.NewCounter(prometheus.CounterOpts{
			Name: "pgtree_failed_runs_total",
			Help: "The total number of runs that failed before rendering",
		}),
		signalCounter: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pgtree_signals_total",
			Help: "The total number of signal attempts by result",
		}, []string{signalResultLabel}),
	}
}

// Registry exposes the registry, mostly for tests.
func (p *PrometheusMetric) Registry() *prometheus.Registry {
	return p.registry
}

func (p *PrometheusMetric) Start() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{}))
	p.server = &http.Server{
		Addr:              p.addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.L().Info("starting metrics server", helpers.String("addr", p.addr))
		if err := p.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.L().Error("metrics server stopped", helpers.Error(err))
		}
	}()
}

func (p *PrometheusMetric) Destroy() {
	if p.server == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := p.server.Shutdown(ctx); err != nil {
		logger.L().Warning("failed to stop metrics server", helpers.Error(err))
	}
}

func (p *PrometheusMetric) ReportSnapshot(processes int) {
	p.processesGauge.Set(float64(processes))
}

func (p *PrometheusMetric) ReportTargets(targets int) {
	p.targetsGauge.Set(float64(targets))
}

func (p *PrometheusMetric) ReportRender(lines int) {
	p.renderCounter.Inc()
	p.linesGauge.Set(float64(lines))
}

func (p *PrometheusMetric) ReportSignal(result exporters.SignalResult) {
	p.signalCounter.WithLabelValues(string(result)).Inc()
}

func (p *PrometheusMetric) ReportFailedRun() {
	p.failedRunCounter.Inc()
}
