package pslist

import (
	"github.com/kubescape/pgtree/pkg/processtree/store"
)

// WithIdleRow prepends a synthetic idle process row when some process claims
// pid 0 as parent but the snapshot does not list it, so that such processes
// share a single root.
func WithIdleRow(rows []store.Row) []store.Row {
	orphans := false
	for _, row := range rows {
		if row.Pid == store.IdlePid {
			return rows
		}
		if row.Ppid == store.IdlePid {
			orphans = true
		}
	}
	if !orphans {
		return rows
	}
	idle := store.Row{
		Pid:  store.IdlePid,
		Ppid: store.IdlePid,
		User: "root",
		Comm: "sched",
	}
	return append([]store.Row{idle}, rows...)
}
