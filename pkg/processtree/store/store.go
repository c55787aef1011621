package store

import (
	"slices"
)

const (
	// NoParent is the ppid recorded for processes that have no parent,
	// including those that claim to be their own parent.
	NoParent = "-1"
	// IdlePid is the kernel scheduler/idle process.
	IdlePid = "0"
	// InitPid is the first user space process.
	InitPid = "1"
)

// Row is one parsed line of a process snapshot.
type Row struct {
	Pid    string            `json:"pid"`
	Ppid   string            `json:"ppid"`
	User   string            `json:"user"`
	Comm   string            `json:"comm"`
	Args   string            `json:"args"`
	Fields map[string]string `json:"fields,omitempty"`
}

// ProcessRecord holds the attributes of a single process.
type ProcessRecord struct {
	Pid    string
	Ppid   string
	User   string
	Comm   string
	Args   string
	Fields map[string]string
}

// Field returns the value of an extra display field, or an empty string.
func (r *ProcessRecord) Field(name string) string {
	if r == nil || r.Fields == nil {
		return ""
	}
	return r.Fields[name]
}

// LoadOptions controls snapshot ingestion.
type LoadOptions struct {
	// ExcludeIdle drops the idle process and its children list.
	ExcludeIdle bool
}

// Store is the process table of one snapshot plus its parent to children index.
// It is built once by Load and only read afterwards.
type Store struct {
	records  map[string]*ProcessRecord
	children map[string][]string
	order    []string
}

// New returns an empty store.
func New() *Store {
	return &Store{
		records:  make(map[string]*ProcessRecord),
		children: make(map[string][]string),
	}
}

// Load builds a store from snapshot rows, keeping their order for siblings.
func Load(rows []Row, opts LoadOptions) *Store {
	s := &Store{
		records:  make(map[string]*ProcessRecord, len(rows)),
		children: make(map[string][]string),
		order:    make([]string, 0, len(rows)),
	}
	for _, row := range rows {
		s.add(row)
	}
	if opts.ExcludeIdle {
		s.remove(IdlePid)
	}
	return s
}

func (s *Store) add(row Row) {
	ppid := row.Ppid
	if ppid == row.Pid {
		ppid = NoParent
	}

	if _, exists := s.records[row.Pid]; !exists {
		s.order = append(s.order, row.Pid)
	}
	// last write wins on duplicate pids
	s.records[row.Pid] = &ProcessRecord{
		Pid:    row.Pid,
		Ppid:   ppid,
		User:   row.User,
		Comm:   row.Comm,
		Args:   row.Args,
		Fields: row.Fields,
	}

	siblings := s.children[ppid]
	if n := len(siblings); n > 0 && siblings[n-1] == row.Pid {
		return
	}
	s.children[ppid] = append(siblings, row.Pid)
}

func (s *Store) remove(pid string) {
	rec, ok := s.records[pid]
	if !ok {
		return
	}
	delete(s.records, pid)
	delete(s.children, pid)
	s.order = slices.DeleteFunc(s.order, func(p string) bool { return p == pid })
	if siblings, ok := s.children[rec.Ppid]; ok {
		siblings = slices.DeleteFunc(slices.Clone(siblings), func(p string) bool { return p == pid })
		if len(siblings) == 0 {
			delete(s.children, rec.Ppid)
		} else {
			s.children[rec.Ppid] = siblings
		}
	}
}

// Record returns the process record of pid.
func (s *Store) Record(pid string) (*ProcessRecord, bool) {
	rec, ok := s.records[pid]
	return rec, ok
}

// Has reports whether pid is part of the snapshot.
func (s *Store) Has(pid string) bool {
	_, ok := s.records[pid]
	return ok
}

// ChildrenOf returns the children of pid in snapshot order.
// The returned slice must not be modified.
func (s *Store) ChildrenOf(pid string) []string {
	return s.children[pid]
}

// HasChildren reports whether pid is the parent of at least one process.
func (s *Store) HasChildren(pid string) bool {
	return len(s.children[pid]) > 0
}

// Pids returns every pid in snapshot order.
func (s *Store) Pids() []string {
	return slices.Clone(s.order)
}

// Len returns the number of processes.
func (s *Store) Len() int {
	return len(s.records)
}

// DefaultRoot is the pid shown when no process was selected: the idle
// process when it is a parent, init otherwise.
func (s *Store) DefaultRoot() string {
	if s.HasChildren(IdlePid) {
		return IdlePid
	}
	return InitPid
}
