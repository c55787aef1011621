package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRows() []Row {
	return []Row{
		{Pid: "0", Ppid: "0", User: "root", Comm: "sched", Args: "[sched]"},
		{Pid: "1", Ppid: "0", User: "root", Comm: "init", Args: "/init", Fields: map[string]string{"stime": "Aug12"}},
		{Pid: "10", Ppid: "1", User: "joknarf", Comm: "bash", Args: "-bash"},
		{Pid: "20", Ppid: "10", User: "joknarf", Comm: "sleep", Args: "/bin/sleep 60"},
		{Pid: "30", Ppid: "10", User: "joknarf", Comm: "top", Args: "/bin/top"},
		{Pid: "40", Ppid: "1", User: "root", Comm: "bash", Args: "-bash"},
	}
}

func TestLoad(t *testing.T) {
	s := Load(sampleRows(), LoadOptions{})

	assert.Equal(t, 6, s.Len())
	assert.Equal(t, []string{"0", "1", "10", "20", "30", "40"}, s.Pids())
	assert.Equal(t, []string{"0"}, s.ChildrenOf(NoParent))
	assert.Equal(t, []string{"1"}, s.ChildrenOf("0"))
	assert.Equal(t, []string{"10", "40"}, s.ChildrenOf("1"))
	assert.Equal(t, []string{"20", "30"}, s.ChildrenOf("10"))
	assert.Empty(t, s.ChildrenOf("20"))

	rec, ok := s.Record("1")
	require.True(t, ok)
	assert.Equal(t, "0", rec.Ppid)
	assert.Equal(t, "init", rec.Comm)
	assert.Equal(t, "Aug12", rec.Field("stime"))
	assert.Equal(t, "", rec.Field("pcpu"))

	_, ok = s.Record("99")
	assert.False(t, ok)
}

func TestLoadSelfParented(t *testing.T) {
	s := Load([]Row{
		{Pid: "5", Ppid: "5", Comm: "loop"},
		{Pid: "6", Ppid: NoParent, Comm: "orphan"},
	}, LoadOptions{})

	rec, ok := s.Record("5")
	require.True(t, ok)
	assert.Equal(t, NoParent, rec.Ppid)
	assert.Equal(t, []string{"5", "6"}, s.ChildrenOf(NoParent))
	assert.Empty(t, s.ChildrenOf("5"))
}

func TestLoadDuplicatePid(t *testing.T) {
	s := Load([]Row{
		{Pid: "1", Ppid: "0", Comm: "init"},
		{Pid: "7", Ppid: "1", Comm: "first"},
		{Pid: "7", Ppid: "1", Comm: "second"},
	}, LoadOptions{})

	rec, ok := s.Record("7")
	require.True(t, ok)
	assert.Equal(t, "second", rec.Comm)
	assert.Equal(t, []string{"7"}, s.ChildrenOf("1"))
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, []string{"1", "7"}, s.Pids())
}

func TestLoadExcludeIdle(t *testing.T) {
	s := Load(sampleRows(), LoadOptions{ExcludeIdle: true})

	assert.False(t, s.Has(IdlePid))
	assert.Empty(t, s.ChildrenOf(IdlePid))
	assert.Empty(t, s.ChildrenOf(NoParent))
	assert.Equal(t, []string{"1", "10", "20", "30", "40"}, s.Pids())
	assert.Equal(t, InitPid, s.DefaultRoot())
}

func TestDefaultRoot(t *testing.T) {
	tests := []struct {
		name string
		rows []Row
		want string
	}{
		{
			name: "idle process is a parent",
			rows: sampleRows(),
			want: IdlePid,
		},
		{
			name: "no idle process",
			rows: []Row{{Pid: "1", Ppid: "0"}},
			want: IdlePid,
		},
		{
			name: "idle process without children",
			rows: []Row{{Pid: "1", Ppid: NoParent}},
			want: InitPid,
		},
		{
			name: "empty snapshot",
			want: InitPid,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Load(tt.rows, LoadOptions{}).DefaultRoot())
		})
	}
}
