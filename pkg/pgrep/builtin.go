package pgrep

import (
	"context"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/kubescape/pgtree/pkg/processtree/store"
)

// Builtin matches against the snapshot itself: comm or args with a regular
// expression, users by name and parents by pid.
type Builtin struct{}

var _ Matcher = (*Builtin)(nil)

func (b *Builtin) Match(ctx context.Context, s *store.Store, opts Options) ([]string, error) {
	if names := opts.unsupported(); len(names) > 0 {
		return nil, fmt.Errorf("%s: %w", strings.Join(names, " "), ErrUnsupportedOption)
	}
	re, err := compile(opts)
	if err != nil {
		return nil, err
	}

	var pids []string
	for _, pid := range s.Pids() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		// never report the idle process
		if pid == store.IdlePid {
			continue
		}
		rec, _ := s.Record(pid)
		if matches(rec, re, opts) != opts.Invert {
			pids = append(pids, pid)
		}
	}
	return pids, nil
}

func compile(opts Options) (*regexp.Regexp, error) {
	pattern := opts.Pattern
	if opts.Exact {
		pattern = "^(?:" + pattern + ")$"
	}
	if opts.IgnoreCase {
		pattern = "(?i)" + pattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", opts.Pattern, err)
	}
	return re, nil
}

func matches(rec *store.ProcessRecord, re *regexp.Regexp, opts Options) bool {
	value := rec.Comm
	if opts.Full {
		value = rec.Args
	}
	if !re.MatchString(value) {
		return false
	}
	if len(opts.Users) > 0 && !slices.Contains(opts.Users, rec.User) {
		return false
	}
	if len(opts.Parents) > 0 && !slices.Contains(opts.Parents, rec.Ppid) {
		return false
	}
	return true
}
