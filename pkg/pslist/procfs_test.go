package pslist

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kubescape/pgtree/pkg/processtree/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixtureProc = "testdata/proc"

func TestNewProcfsSourceUnsupportedField(t *testing.T) {
	_, err := NewProcfsSource(fixtureProc, []string{"stime", "wchan"}, false)
	assert.ErrorIs(t, err, ErrUnsupportedField)
}

func TestProcfsSnapshot(t *testing.T) {
	source, err := NewProcfsSource(fixtureProc, []string{"state", "nlwp", "vsz"}, true)
	require.NoError(t, err)
	source.workers = 2

	rows, err := source.Snapshot(context.Background())
	require.NoError(t, err)

	pids := make([]string, 0, len(rows))
	for _, row := range rows {
		pids = append(pids, row.Pid)
	}
	assert.Equal(t, []string{"1", "2", "10", "20"}, pids)

	assert.Equal(t, store.Row{
		Pid:    "1",
		Ppid:   "0",
		User:   "0",
		Comm:   "systemd",
		Args:   "/sbin/init splash",
		Fields: map[string]string{"state": "S", "nlwp": "1", "vsz": "172 MB"},
	}, rows[0])
	assert.Equal(t, "[kthreadd]", rows[1].Args)
	assert.Equal(t, "1000", rows[2].User)
	assert.Equal(t, "/bin/sleep 60", rows[3].Args)
	assert.Equal(t, "4", rows[3].Fields["nlwp"])
}

func TestProcfsUsernameCache(t *testing.T) {
	source, err := NewProcfsSource(fixtureProc, nil, false)
	require.NoError(t, err)
	var lookups atomic.Int32
	source.lookupUser = func(uid string) (string, error) {
		lookups.Add(1)
		if uid == "0" {
			return "root", nil
		}
		return "", errors.New("unknown user")
	}

	rows, err := source.Snapshot(context.Background())
	require.NoError(t, err)
	users := map[string]string{}
	for _, row := range rows {
		users[row.Pid] = row.User
	}
	assert.Equal(t, map[string]string{"1": "root", "2": "root", "10": "1000", "20": "1000"}, users)
	assert.LessOrEqual(t, lookups.Load(), int32(4))

	lookups.Store(0)
	_, err = source.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Zero(t, lookups.Load())
}

func TestProcfsTimeFields(t *testing.T) {
	source, err := NewProcfsSource(fixtureProc, []string{"etime", "pcpu"}, true)
	require.NoError(t, err)
	// btime 1700000000 in the fixture, processes start 0.07s after boot
	source.now = func() time.Time { return time.Unix(1700000000+3661, 0) }

	rows, err := source.Snapshot(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, rows)
	assert.Equal(t, "01:01:00", rows[0].Fields["etime"])
	assert.Equal(t, "0.1", rows[0].Fields["pcpu"])
}

func TestProcfsSnapshotCanceled(t *testing.T) {
	source, err := NewProcfsSource(fixtureProc, nil, true)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = source.Snapshot(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFormatStartTime(t *testing.T) {
	now := time.Date(2024, time.March, 10, 18, 30, 0, 0, time.UTC)
	tests := []struct {
		name  string
		start time.Time
		want  string
	}{
		{name: "today", start: time.Date(2024, time.March, 10, 9, 5, 0, 0, time.UTC), want: "09:05"},
		{name: "this year", start: time.Date(2024, time.January, 2, 9, 5, 0, 0, time.UTC), want: "Jan02"},
		{name: "older", start: time.Date(2022, time.March, 10, 9, 5, 0, 0, time.UTC), want: "2022"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatStartTime(tt.start, now))
		})
	}
}

func TestFormatElapsed(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{d: 0, want: "00:00"},
		{d: -time.Second, want: "00:00"},
		{d: 75 * time.Second, want: "01:15"},
		{d: 2*time.Hour + 3*time.Minute + 4*time.Second, want: "02:03:04"},
		{d: 49*time.Hour + 5*time.Second, want: "2-01:00:05"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, formatElapsed(tt.d))
		})
	}
}
