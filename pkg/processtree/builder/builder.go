package builder

import (
	"slices"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/kubescape/pgtree/pkg/processtree/store"
)

// Forest is the part of the process table connecting a set of targets:
// their ancestor chains up to the top level roots and their full subtrees.
type Forest struct {
	// Children maps a pid to the children included in the forest.
	Children map[string][]string
	// Roots are the top level processes, in target discovery order.
	Roots []string
	// Targets are the selected pids that exist in the store.
	Targets mapset.Set[string]
}

// ChildrenOf returns the children of pid that belong to the forest.
func (f *Forest) ChildrenOf(pid string) []string {
	return f.Children[pid]
}

// IsTarget reports whether pid was selected.
func (f *Forest) IsTarget(pid string) bool {
	return f.Targets.Contains(pid)
}

// Empty reports whether nothing can be shown.
func (f *Forest) Empty() bool {
	return len(f.Roots) == 0
}

// Build computes the forest of the given targets. Targets unknown to the
// store are ignored.
func Build(s *store.Store, targets []string) *Forest {
	f := &Forest{
		Children: make(map[string][]string),
		Targets:  mapset.NewThreadUnsafeSet[string](),
	}
	for _, pid := range targets {
		if s.Has(pid) {
			f.Targets.Add(pid)
		}
	}

	f.addDescendants(s, targets)
	f.addAncestors(s, targets)
	return f
}

// addDescendants copies the whole subtree of every target. A pid already
// present as a key is never expanded twice.
func (f *Forest) addDescendants(s *store.Store, targets []string) {
	stack := slices.Clone(targets)
	slices.Reverse(stack)
	for len(stack) > 0 {
		pid := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if _, done := f.Children[pid]; done {
			continue
		}
		children := s.ChildrenOf(pid)
		if len(children) == 0 {
			continue
		}
		f.Children[pid] = slices.Clone(children)
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, children[i])
		}
	}
}

// addAncestors links every target to its parent chain up to a process whose
// parent is unknown, which becomes a top level root.
func (f *Forest) addAncestors(s *store.Store, targets []string) {
	roots := mapset.NewThreadUnsafeSet[string]()
	for _, pid := range targets {
		if !s.Has(pid) {
			continue
		}
		visited := mapset.NewThreadUnsafeSet[string]()
		last := pid
		for {
			rec, ok := s.Record(pid)
			if !ok || !visited.Add(pid) {
				// unknown parent, or a parent loop in the snapshot
				break
			}
			f.link(rec.Ppid, pid)
			last = pid
			pid = rec.Ppid
		}
		if roots.Add(last) {
			f.Roots = append(f.Roots, last)
		}
	}
}

func (f *Forest) link(ppid, pid string) {
	if slices.Contains(f.Children[ppid], pid) {
		return
	}
	f.Children[ppid] = append(f.Children[ppid], pid)
}
