package pgrep

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/kubescape/pgtree/pkg/processtree/store"
)

// pgrep exits with 1 when nothing matched
const exitNoMatch = 1

type runFunc func(ctx context.Context, path string, args ...string) (stdout []byte, exitCode int, stderr string, err error)

// External runs the system pgrep command.
type External struct {
	path string
	run  runFunc
}

var _ Matcher = (*External)(nil)

// NewExternal locates pgrep on PATH.
func NewExternal() (*External, error) {
	path, err := lookPath()
	if err != nil {
		return nil, err
	}
	return &External{path: path, run: runPgrep}, nil
}

func (e *External) Match(ctx context.Context, _ *store.Store, opts Options) ([]string, error) {
	out, code, stderr, err := e.run(ctx, e.path, opts.Argv()...)
	if err != nil {
		if code == exitNoMatch {
			return nil, nil
		}
		if stderr != "" {
			return nil, fmt.Errorf("pgrep: %s: %w", stderr, err)
		}
		return nil, fmt.Errorf("pgrep: %w", err)
	}
	return strings.Fields(string(out)), nil
}

func runPgrep(ctx context.Context, path string, args ...string) ([]byte, int, string, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	code := 0
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code = exitErr.ExitCode()
	}
	return stdout.Bytes(), code, strings.TrimSpace(stderr.String()), err
}
