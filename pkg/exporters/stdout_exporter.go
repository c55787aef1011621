package exporters

import (
	"io"
	"os"

	log "github.com/sirupsen/logrus"
)

type StdoutExporter struct {
	logger *log.Logger
}

// InitStdoutExporter returns a JSON exporter writing to stderr, so that the
// audit trail never mixes with the rendered tree.
func InitStdoutExporter(useStdout bool) *StdoutExporter {
	if !useStdout {
		return nil
	}
	return newStdoutExporter(os.Stderr)
}

func newStdoutExporter(out io.Writer) *StdoutExporter {
	logger := log.New()
	logger.SetFormatter(&log.JSONFormatter{})
	logger.SetOutput(out)

	return &StdoutExporter{
		logger: logger,
	}
}

func (exporter *StdoutExporter) SendKillEvent(event KillEvent) {
	entry := exporter.logger.WithFields(log.Fields{
		"runID":  event.RunID,
		"pid":    event.Pid,
		"ppid":   event.Ppid,
		"user":   event.User,
		"comm":   event.Comm,
		"args":   event.Args,
		"signal": event.Signal,
		"result": string(event.Result),
	}).WithTime(event.Timestamp)

	switch event.Result {
	case SignalDenied, SignalFailed:
		entry.WithField("error", event.Error).Warn("signal not delivered")
	default:
		entry.Info("signal " + string(event.Result))
	}
}
