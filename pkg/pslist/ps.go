package pslist

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"path"
	"runtime"
	"strings"

	"github.com/kubescape/pgtree/pkg/processtree/store"
)

// column widths requested from ps, the header is made of dashes so that
// every column gets exactly this width
const (
	pidWidth   = 20
	userWidth  = 30
	fieldWidth = 50
	commWidth  = 130
)

type runFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

// PsSource reads the process table from the ps command.
type PsSource struct {
	fields []string
	useUID bool
	goos   string
	run    runFunc
}

var _ Source = (*PsSource)(nil)

func NewPsSource(fields []string, useUID bool) *PsSource {
	return &PsSource{
		fields: fields,
		useUID: useUID,
		goos:   runtime.GOOS,
		run:    runCommand,
	}
}

func (p *PsSource) Snapshot(ctx context.Context) ([]store.Row, error) {
	out, err := p.run(ctx, "ps", p.argv()...)
	if err != nil {
		return nil, err
	}
	return parsePs(string(out), p.fields), nil
}

func (p *PsSource) argv() []string {
	user := "user"
	if p.useUID {
		user = "uid"
	}
	comm := "ucomm"
	if p.goos == "solaris" || p.goos == "illumos" {
		comm = "comm"
	}

	args := []string{
		"-e",
		"-o", "pid=" + strings.Repeat("-", pidWidth),
		"-o", "ppid=" + strings.Repeat("-", pidWidth),
		"-o", user + "=" + strings.Repeat("-", userWidth),
	}
	for _, field := range p.fields {
		args = append(args, "-o", p.psField(field)+"="+strings.Repeat("-", fieldWidth))
	}
	return append(args,
		"-o", comm+"="+strings.Repeat("-", commWidth),
		"-o", "args")
}

func (p *PsSource) psField(field string) string {
	if field == "stime" && (p.goos == "darwin" || p.goos == "aix") {
		return "start"
	}
	return field
}

// parsePs splits fixed width ps output, the first line being the header.
func parsePs(out string, fields []string) []store.Row {
	lines := strings.Split(out, "\n")
	if len(lines) == 0 {
		return nil
	}
	rows := make([]store.Row, 0, len(lines)-1)
	for _, line := range lines[1:] {
		if strings.TrimSpace(line) == "" {
			continue
		}
		start := 0
		next := func(width int) string {
			value := column(line, start, width)
			start += width + 1
			return value
		}

		row := store.Row{
			Pid:  next(pidWidth),
			Ppid: next(pidWidth),
			User: next(userWidth),
		}
		if len(fields) > 0 {
			row.Fields = make(map[string]string, len(fields))
			for _, field := range fields {
				row.Fields[field] = next(fieldWidth)
			}
		}
		if comm := next(commWidth); comm != "" {
			row.Comm = path.Base(comm)
		}
		if start < len(line) {
			row.Args = strings.TrimSpace(line[start:])
		}
		if row.Pid == "" {
			continue
		}
		rows = append(rows, row)
	}
	return rows
}

func column(line string, start, width int) string {
	if start >= len(line) {
		return ""
	}
	end := min(start+width, len(line))
	return strings.TrimSpace(line[start:end])
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return stdout.Bytes(), &CommandError{
				Cmd:      name,
				ExitCode: exitErr.ExitCode(),
				Stderr:   strings.TrimSpace(stderr.String()),
				Err:      err,
			}
		}
		return nil, err
	}
	return stdout.Bytes(), nil
}
