package pslist

import (
	"bytes"
	"context"
	"testing"

	"github.com/kubescape/pgtree/pkg/processtree/store"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileSourceYAML(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/snap.yaml", []byte(`
- pid: "1"
  ppid: "0"
  user: root
  comm: init
  args: /init
  fields:
    stime: Aug12
- pid: "10"
  ppid: "1"
  user: joknarf
  comm: bash
  args: -bash
`), 0o644))

	rows, err := NewFileSource(fs, "/snap.yaml").Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []store.Row{
		{Pid: "1", Ppid: "0", User: "root", Comm: "init", Args: "/init", Fields: map[string]string{"stime": "Aug12"}},
		{Pid: "10", Ppid: "1", User: "joknarf", Comm: "bash", Args: "-bash"},
	}, rows)
}

func TestFileSourceJSON(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/snap.json", []byte(`[{"pid":"1","ppid":"0","user":"root","comm":"init","args":"/init"}]`), 0o644))

	rows, err := NewFileSource(fs, "/snap.json").Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []store.Row{{Pid: "1", Ppid: "0", User: "root", Comm: "init", Args: "/init"}}, rows)
}

func TestFileSourceErrors(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/bad.yaml", []byte("pid: [1"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/nopid.yaml", []byte("- comm: init\n"), 0o644))

	for _, path := range []string{"/missing.yaml", "/bad.yaml", "/nopid.yaml"} {
		_, err := NewFileSource(fs, path).Snapshot(context.Background())
		assert.Error(t, err, path)
	}
}

func TestWriteSnapshotRoundTrip(t *testing.T) {
	rows := []store.Row{
		{Pid: "0", Ppid: "0", User: "root", Comm: "sched"},
		{Pid: "1", Ppid: "0", User: "root", Comm: "init", Args: "/init", Fields: map[string]string{"stime": "Aug12"}},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteSnapshot(&buf, rows))

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/snap.yaml", buf.Bytes(), 0o644))
	got, err := NewFileSource(fs, "/snap.yaml").Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, rows, got)
}
