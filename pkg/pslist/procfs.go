package pslist

import (
	"context"
	"fmt"
	"os"
	"os/user"
	"runtime"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/facette/natsort"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/kubescape/go-logger"
	"github.com/kubescape/go-logger/helpers"
	"github.com/kubescape/pgtree/pkg/processtree/store"
	"github.com/panjf2000/ants/v2"
	"github.com/prometheus/procfs"
)

const userCacheSize = 1024

var procfsFields = []string{"stime", "etime", "pcpu", "%cpu", "rss", "vsz", "nlwp", "state"}

// ProcfsSource reads the process table directly from a procfs mount.
type ProcfsSource struct {
	root       string
	fs         procfs.FS
	fields     []string
	useUID     bool
	workers    int
	users      *lru.Cache[string, string]
	lookupUser func(uid string) (string, error)
	now        func() time.Time
}

var _ Source = (*ProcfsSource)(nil)

// NewProcfsSource validates fields and opens the procfs mounted at root.
func NewProcfsSource(root string, fields []string, useUID bool) (*ProcfsSource, error) {
	for _, field := range fields {
		if !slices.Contains(procfsFields, field) {
			return nil, fmt.Errorf("procfs source, field %q: %w", field, ErrUnsupportedField)
		}
	}
	fs, err := procfs.NewFS(root)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize procfs: %w", err)
	}
	users, err := lru.New[string, string](userCacheSize)
	if err != nil {
		return nil, err
	}
	return &ProcfsSource{
		root:       root,
		fs:         fs,
		fields:     fields,
		useUID:     useUID,
		workers:    runtime.NumCPU(),
		users:      users,
		lookupUser: lookupUsername,
		now:        time.Now,
	}, nil
}

func (p *ProcfsSource) Snapshot(ctx context.Context) ([]store.Row, error) {
	entries, err := os.ReadDir(p.root)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", p.root, err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if _, err := strconv.Atoi(entry.Name()); err != nil {
			continue
		}
		names = append(names, entry.Name())
	}
	// same order as ps -e
	natsort.Sort(names)

	pool, err := ants.NewPool(max(p.workers, 1))
	if err != nil {
		return nil, fmt.Errorf("creating procfs worker pool: %w", err)
	}
	defer pool.Release()

	results := make([]*store.Row, len(names))
	var wg sync.WaitGroup
	for i, name := range names {
		if ctx.Err() != nil {
			break
		}
		pid, _ := strconv.Atoi(name)
		wg.Add(1)
		task := func() {
			defer wg.Done()
			row, err := p.readRow(pid)
			if err != nil {
				// vanished during the scan
				logger.L().Debug("skipping process", helpers.Int("pid", pid), helpers.Error(err))
				return
			}
			results[i] = row
		}
		if err := pool.Submit(task); err != nil {
			task()
		}
	}
	wg.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rows := make([]store.Row, 0, len(results))
	for _, row := range results {
		if row != nil {
			rows = append(rows, *row)
		}
	}
	return rows, nil
}

func (p *ProcfsSource) readRow(pid int) (*store.Row, error) {
	proc, err := p.fs.Proc(pid)
	if err != nil {
		return nil, err
	}
	stat, err := proc.Stat()
	if err != nil {
		return nil, err
	}

	row := &store.Row{
		Pid:  strconv.Itoa(pid),
		Ppid: strconv.Itoa(stat.PPID),
		Comm: stat.Comm,
	}
	if status, err := proc.NewStatus(); err == nil {
		row.User = p.username(strconv.FormatUint(uint64(status.UIDs[1]), 10))
	}
	if cmdline, err := proc.CmdLine(); err == nil && len(cmdline) > 0 {
		row.Args = strings.Join(cmdline, " ")
	} else {
		row.Args = "[" + stat.Comm + "]"
	}

	if len(p.fields) > 0 {
		row.Fields = make(map[string]string, len(p.fields))
		for _, field := range p.fields {
			row.Fields[field] = p.field(stat, field)
		}
	}
	return row, nil
}

func (p *ProcfsSource) field(stat procfs.ProcStat, field string) string {
	switch field {
	case "state":
		return stat.State
	case "nlwp":
		return strconv.Itoa(stat.NumThreads)
	case "rss":
		return humanize.Bytes(uint64(max(stat.ResidentMemory(), 0)))
	case "vsz":
		return humanize.Bytes(uint64(stat.VirtualMemory()))
	}

	startSec, err := stat.StartTime()
	if err != nil {
		return "-"
	}
	start := time.Unix(0, int64(startSec*float64(time.Second)))
	now := p.now()
	switch field {
	case "stime":
		return formatStartTime(start, now)
	case "etime":
		return formatElapsed(now.Sub(start))
	case "pcpu", "%cpu":
		elapsed := now.Sub(start).Seconds()
		if elapsed <= 0 {
			return "0.0"
		}
		return strconv.FormatFloat(stat.CPUTime()/elapsed*100, 'f', 1, 64)
	}
	return ""
}

func (p *ProcfsSource) username(uid string) string {
	if p.useUID {
		return uid
	}
	if name, ok := p.users.Get(uid); ok {
		return name
	}
	name, err := p.lookupUser(uid)
	if err != nil {
		name = uid
	}
	p.users.Add(uid, name)
	return name
}

func lookupUsername(uid string) (string, error) {
	u, err := user.LookupId(uid)
	if err != nil {
		return "", err
	}
	return u.Username, nil
}

// formatStartTime renders a start time the way ps stime does: clock time for
// today, month and day for this year, the year otherwise.
func formatStartTime(start, now time.Time) string {
	start = start.In(now.Location())
	switch {
	case start.YearDay() == now.YearDay() && start.Year() == now.Year():
		return start.Format("15:04")
	case start.Year() == now.Year():
		return start.Format("Jan02")
	default:
		return start.Format("2006")
	}
}

// formatElapsed renders [[dd-]hh:]mm:ss.
func formatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	days := total / 86400
	hours := total / 3600 % 24
	minutes := total / 60 % 60
	seconds := total % 60
	switch {
	case days > 0:
		return fmt.Sprintf("%d-%02d:%02d:%02d", days, hours, minutes, seconds)
	case hours > 0:
		return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
	default:
		return fmt.Sprintf("%02d:%02d", minutes, seconds)
	}
}
