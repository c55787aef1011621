package exporters

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/kubescape/go-logger"
	"github.com/kubescape/go-logger/helpers"
	"github.com/spf13/afero"
)

var csvHeaders = []string{
	"Run ID",
	"PID",
	"PPID",
	"User",
	"Comm",
	"Args",
	"Signal",
	"Result",
	"Error",
	"Timestamp",
}

// CsvExporter is an exporter that appends signal attempts to a csv file
type CsvExporter struct {
	fs      afero.Fs
	CsvPath string
}

// InitCsvExporter initializes a new CsvExporter, writing the headers when the file is new.
func InitCsvExporter(fs afero.Fs, csvPath string) (*CsvExporter, error) {
	exists, err := afero.Exists(fs, csvPath)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", csvPath, err)
	}
	if !exists {
		if err := writeHeaders(fs, csvPath); err != nil {
			return nil, err
		}
	}

	return &CsvExporter{
		fs:      fs,
		CsvPath: csvPath,
	}, nil
}

func writeHeaders(fs afero.Fs, csvPath string) error {
	csvFile, err := fs.OpenFile(csvPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("create %s: %w", csvPath, err)
	}
	defer csvFile.Close()

	csvWriter := csv.NewWriter(csvFile)
	if err := csvWriter.Write(csvHeaders); err != nil {
		return fmt.Errorf("write headers: %w", err)
	}
	csvWriter.Flush()
	return csvWriter.Error()
}

// SendKillEvent appends one row per signal attempt
func (ce *CsvExporter) SendKillEvent(event KillEvent) {
	csvFile, err := ce.fs.OpenFile(ce.CsvPath, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		logger.L().Error("failed to open csv exporter file", helpers.String("path", ce.CsvPath), helpers.Error(err))
		return
	}
	defer csvFile.Close()

	csvWriter := csv.NewWriter(csvFile)
	defer csvWriter.Flush()

	if err := csvWriter.Write([]string{
		event.RunID,
		event.Pid,
		event.Ppid,
		event.User,
		event.Comm,
		event.Args,
		strconv.Itoa(event.Signal),
		string(event.Result),
		event.Error,
		event.Timestamp.Format(time.RFC3339),
	}); err != nil {
		logger.L().Error("failed to write kill event", helpers.String("pid", event.Pid), helpers.Error(err))
	}
}
