package pslist

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"github.com/kubescape/go-logger"
	"github.com/kubescape/go-logger/helpers"
	"github.com/kubescape/pgtree/pkg/processtree/store"
	"github.com/spf13/afero"
)

const (
	SourceAuto   = "auto"
	SourcePs     = "ps"
	SourceProcfs = "procfs"
	SourceFile   = "file"

	DefaultProcfsPath = "/proc"
)

// ErrUnsupportedField is returned when a source cannot produce a requested display field.
var ErrUnsupportedField = errors.New("unsupported field")

// Source produces one snapshot of the process table.
type Source interface {
	Snapshot(ctx context.Context) ([]store.Row, error)
}

// CommandError is returned when the process listing command fails.
type CommandError struct {
	Cmd      string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *CommandError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("%s exited with code %d: %s", e.Cmd, e.ExitCode, e.Stderr)
	}
	return fmt.Sprintf("%s exited with code %d", e.Cmd, e.ExitCode)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// Options selects and configures a Source.
type Options struct {
	Kind         string
	Fields       []string
	UseUID       bool
	ProcfsPath   string
	SnapshotFile string
	// Fs is used for snapshot files and to probe the procfs mount.
	Fs afero.Fs
}

// NewSource returns the source described by opts. With SourceAuto a snapshot
// file wins, then procfs on linux when mounted, then ps.
func NewSource(opts Options) (Source, error) {
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	if opts.ProcfsPath == "" {
		opts.ProcfsPath = DefaultProcfsPath
	}

	kind := opts.Kind
	if kind == "" || kind == SourceAuto {
		kind = detect(opts)
		logger.L().Debug("snapshot source selected", helpers.String("source", kind))
	}

	switch kind {
	case SourcePs:
		return NewPsSource(opts.Fields, opts.UseUID), nil
	case SourceProcfs:
		return NewProcfsSource(opts.ProcfsPath, opts.Fields, opts.UseUID)
	case SourceFile:
		if opts.SnapshotFile == "" {
			return nil, errors.New("file source needs a snapshot file")
		}
		return NewFileSource(opts.Fs, opts.SnapshotFile), nil
	default:
		return nil, fmt.Errorf("unknown snapshot source %q", kind)
	}
}

func detect(opts Options) string {
	if opts.SnapshotFile != "" {
		return SourceFile
	}
	if runtime.GOOS == "linux" {
		if ok, err := afero.DirExists(opts.Fs, opts.ProcfsPath); err == nil && ok {
			return SourceProcfs
		}
	}
	return SourcePs
}
