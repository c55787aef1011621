package pgrep

import (
	"context"

	"github.com/kubescape/pgtree/pkg/processtree/store"
)

var _ Matcher = (*MatcherMock)(nil)

type MatcherMock struct {
	Pids  []string
	Err   error
	Calls []Options
}

func (m *MatcherMock) Match(_ context.Context, _ *store.Store, opts Options) ([]string, error) {
	m.Calls = append(m.Calls, opts)
	return m.Pids, m.Err
}
