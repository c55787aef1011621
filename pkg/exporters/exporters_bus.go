package exporters

import (
	"github.com/kubescape/go-logger"
	"github.com/kubescape/go-logger/helpers"
	"github.com/spf13/afero"
)

type ExportersConfig struct {
	StdoutExporter  bool   `mapstructure:"stdoutExporter"`
	CsvExporterPath string `mapstructure:"csvExporterPath"`
}

// ExporterBus is the single point of contact for all exporters,
// the dispatcher sends every signal attempt through it.
type ExporterBus struct {
	exporters []Exporter
}

var _ Exporter = (*ExporterBus)(nil)

// InitExporters initializes the configured exporters. An empty bus is valid.
func InitExporters(exportersConfig ExportersConfig, fs afero.Fs) *ExporterBus {
	var exporters []Exporter
	if stdoutExp := InitStdoutExporter(exportersConfig.StdoutExporter); stdoutExp != nil {
		exporters = append(exporters, stdoutExp)
	}
	if exportersConfig.CsvExporterPath != "" {
		csvExp, err := InitCsvExporter(fs, exportersConfig.CsvExporterPath)
		if err != nil {
			logger.L().Warning("failed to initialize csv exporter", helpers.String("path", exportersConfig.CsvExporterPath), helpers.Error(err))
		} else {
			exporters = append(exporters, csvExp)
		}
	}
	logger.L().Debug("exporters initialized", helpers.Int("count", len(exporters)))

	return &ExporterBus{exporters: exporters}
}

// Len returns the number of active exporters.
func (e *ExporterBus) Len() int {
	return len(e.exporters)
}

func (e *ExporterBus) SendKillEvent(event KillEvent) {
	for _, exporter := range e.exporters {
		exporter.SendKillEvent(event)
	}
}
