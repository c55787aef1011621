package exporters

import (
	"encoding/csv"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCsvExporter(t *testing.T) {
	fs := afero.NewMemMapFs()
	csvExporter, err := InitCsvExporter(fs, "/var/log/pgtree.csv")
	require.NoError(t, err)
	require.NotNil(t, csvExporter)

	ts := time.Date(2024, 8, 12, 10, 10, 0, 0, time.UTC)
	csvExporter.SendKillEvent(KillEvent{
		RunID:     "run",
		Pid:       "20",
		Ppid:      "10",
		User:      "joknarf",
		Comm:      "sleep",
		Args:      "/bin/sleep 60",
		Signal:    15,
		Result:    SignalSent,
		Timestamp: ts,
	})
	csvExporter.SendKillEvent(KillEvent{
		RunID:     "run",
		Pid:       "30",
		Signal:    15,
		Result:    SignalDenied,
		Error:     "operation not permitted",
		Timestamp: ts,
	})

	// a second exporter on the same file keeps the existing rows
	again, err := InitCsvExporter(fs, "/var/log/pgtree.csv")
	require.NoError(t, err)
	assert.Equal(t, "/var/log/pgtree.csv", again.CsvPath)

	f, err := fs.Open("/var/log/pgtree.csv")
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, csvHeaders, rows[0])
	assert.Equal(t, []string{"run", "20", "10", "joknarf", "sleep", "/bin/sleep 60", "15", "sent", "", "2024-08-12T10:10:00Z"}, rows[1])
	assert.Equal(t, "denied", rows[2][7])
	assert.Equal(t, "operation not permitted", rows[2][8])
}

func TestCsvExporterReadOnlyFs(t *testing.T) {
	_, err := InitCsvExporter(afero.NewReadOnlyFs(afero.NewMemMapFs()), "/pgtree.csv")
	assert.Error(t, err)
}
