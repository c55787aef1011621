package pslist

import (
	"context"

	"github.com/kubescape/pgtree/pkg/processtree/store"
)

var _ Source = (*SourceMock)(nil)

type SourceMock struct {
	Rows  []store.Row
	Err   error
	Calls int
}

func (s *SourceMock) Snapshot(_ context.Context) ([]store.Row, error) {
	s.Calls++
	if s.Err != nil {
		return nil, s.Err
	}
	rows := make([]store.Row, len(s.Rows))
	copy(rows, s.Rows)
	return rows, nil
}
