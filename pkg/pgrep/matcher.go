package pgrep

import (
	"context"
	"errors"
	"fmt"
	"os/exec"

	"github.com/kubescape/go-logger"
	"github.com/kubescape/go-logger/helpers"
	"github.com/kubescape/pgtree/pkg/processtree/store"
)

const (
	EngineAuto    = "auto"
	EngineBuiltin = "builtin"
	EnginePgrep   = "pgrep"
)

// ErrUnsupportedOption is returned by the builtin matcher for criteria it cannot evaluate.
var ErrUnsupportedOption = errors.New("unsupported pgrep option")

// Matcher returns the pids of a snapshot matching the search criteria.
type Matcher interface {
	Match(ctx context.Context, s *store.Store, opts Options) ([]string, error)
}

// NewMatcher returns the matcher for engine. The builtin engine hands over
// to pgrep for options it does not support when pgrep is installed.
func NewMatcher(engine string) (Matcher, error) {
	external, extErr := NewExternal()
	switch engine {
	case "", EngineAuto:
		if extErr == nil {
			return external, nil
		}
		logger.L().Debug("pgrep not found, using builtin matcher", helpers.Error(extErr))
		return &Builtin{}, nil
	case EngineBuiltin:
		if extErr == nil {
			return &fallback{primary: &Builtin{}, secondary: external}, nil
		}
		return &Builtin{}, nil
	case EnginePgrep:
		if extErr != nil {
			return nil, extErr
		}
		return external, nil
	default:
		return nil, fmt.Errorf("unknown search engine %q", engine)
	}
}

type fallback struct {
	primary   Matcher
	secondary Matcher
}

func (f *fallback) Match(ctx context.Context, s *store.Store, opts Options) ([]string, error) {
	pids, err := f.primary.Match(ctx, s, opts)
	if errors.Is(err, ErrUnsupportedOption) {
		logger.L().Debug("falling back to pgrep", helpers.Error(err))
		return f.secondary.Match(ctx, s, opts)
	}
	return pids, err
}

func lookPath() (string, error) {
	path, err := exec.LookPath("pgrep")
	if err != nil {
		return "", fmt.Errorf("looking for pgrep: %w", err)
	}
	return path, nil
}
