package builder

import (
	"testing"

	"github.com/kubescape/pgtree/pkg/processtree/store"
	"github.com/stretchr/testify/assert"
)

// rows of the reference scenario, without an idle process record
func scenarioRows() []store.Row {
	return []store.Row{
		{Pid: "1", Ppid: "0", User: "root", Comm: "init", Args: "/init"},
		{Pid: "10", Ppid: "1", User: "joknarf", Comm: "bash", Args: "-bash"},
		{Pid: "20", Ppid: "10", User: "joknarf", Comm: "sleep", Args: "/bin/sleep 60"},
		{Pid: "30", Ppid: "10", User: "joknarf", Comm: "top", Args: "/bin/top"},
		{Pid: "40", Ppid: "1", User: "root", Comm: "bash", Args: "-bash"},
	}
}

func TestBuild(t *testing.T) {
	withIdle := append([]store.Row{{Pid: "0", Ppid: "0", User: "root", Comm: "sched"}}, scenarioRows()...)

	tests := []struct {
		name      string
		rows      []store.Row
		opts      store.LoadOptions
		targets   []string
		children  map[string][]string
		roots     []string
		isTargets []string
	}{
		{
			name:    "single target without idle record",
			rows:    scenarioRows(),
			targets: []string{"10"},
			children: map[string][]string{
				"10": {"20", "30"},
				"1":  {"10"},
				"0":  {"1"},
			},
			roots:     []string{"1"},
			isTargets: []string{"10"},
		},
		{
			name:    "single target with idle record",
			rows:    withIdle,
			targets: []string{"10"},
			children: map[string][]string{
				"10":           {"20", "30"},
				"1":            {"10"},
				"0":            {"1"},
				store.NoParent: {"0"},
			},
			roots:     []string{"0"},
			isTargets: []string{"10"},
		},
		{
			name:    "idle record excluded",
			rows:    withIdle,
			opts:    store.LoadOptions{ExcludeIdle: true},
			targets: []string{"10"},
			children: map[string][]string{
				"10": {"20", "30"},
				"1":  {"10"},
				"0":  {"1"},
			},
			roots:     []string{"1"},
			isTargets: []string{"10"},
		},
		{
			name:     "unknown target",
			rows:     scenarioRows(),
			targets:  []string{"999"},
			children: map[string][]string{},
		},
		{
			name:    "ancestor chains merge without duplicates",
			rows:    scenarioRows(),
			targets: []string{"30", "40", "20"},
			children: map[string][]string{
				"10": {"30", "20"},
				"1":  {"10", "40"},
				"0":  {"1"},
			},
			roots:     []string{"1"},
			isTargets: []string{"20", "30", "40"},
		},
		{
			name:    "descendants of a target are kept in snapshot order",
			rows:    scenarioRows(),
			targets: []string{"1"},
			children: map[string][]string{
				"1":  {"10", "40"},
				"10": {"20", "30"},
				"0":  {"1"},
			},
			roots:     []string{"1"},
			isTargets: []string{"1"},
		},
		{
			name: "self parented process is a root",
			rows: []store.Row{
				{Pid: "5", Ppid: "5", Comm: "loop"},
				{Pid: "6", Ppid: "5", Comm: "child"},
			},
			targets: []string{"6"},
			children: map[string][]string{
				"5":            {"6"},
				store.NoParent: {"5"},
			},
			roots:     []string{"5"},
			isTargets: []string{"6"},
		},
		{
			name: "parent loop terminates",
			rows: []store.Row{
				{Pid: "7", Ppid: "8", Comm: "a"},
				{Pid: "8", Ppid: "7", Comm: "b"},
			},
			targets: []string{"7"},
			children: map[string][]string{
				"7": {"8"},
				"8": {"7"},
			},
			roots:     []string{"8"},
			isTargets: []string{"7"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := store.Load(tt.rows, tt.opts)
			f := Build(s, tt.targets)

			assert.Equal(t, tt.children, f.Children)
			assert.Equal(t, tt.roots, f.Roots)
			assert.ElementsMatch(t, tt.isTargets, f.Targets.ToSlice())
			assert.Equal(t, len(tt.roots) == 0, f.Empty())
		})
	}
}

func TestBuildIsDeterministic(t *testing.T) {
	s := store.Load(scenarioRows(), store.LoadOptions{})
	targets := []string{"30", "40"}

	first := Build(s, targets)
	second := Build(s, targets)

	assert.Equal(t, first.Children, second.Children)
	assert.Equal(t, first.Roots, second.Roots)
}

func TestBuildDoesNotAliasStore(t *testing.T) {
	s := store.Load(scenarioRows(), store.LoadOptions{})
	f := Build(s, []string{"1", "40"})

	f.Children["1"][0] = "changed"
	assert.Equal(t, []string{"10", "40"}, s.ChildrenOf("1"))
}
