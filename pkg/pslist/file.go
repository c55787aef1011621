package pslist

import (
	"context"
	"fmt"
	"io"

	"github.com/kubescape/pgtree/pkg/processtree/store"
	"github.com/spf13/afero"
	"sigs.k8s.io/yaml"
)

// FileSource replays a snapshot saved as a YAML or JSON list of rows.
type FileSource struct {
	fs   afero.Fs
	path string
}

var _ Source = (*FileSource)(nil)

func NewFileSource(fs afero.Fs, path string) *FileSource {
	return &FileSource{fs: fs, path: path}
}

func (f *FileSource) Snapshot(_ context.Context) ([]store.Row, error) {
	data, err := afero.ReadFile(f.fs, f.path)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot file: %w", err)
	}
	var rows []store.Row
	if err := yaml.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("parsing snapshot file %s: %w", f.path, err)
	}
	for i, row := range rows {
		if row.Pid == "" {
			return nil, fmt.Errorf("snapshot file %s: row %d has no pid", f.path, i)
		}
	}
	return rows, nil
}

// WriteSnapshot encodes rows in the format FileSource reads.
func WriteSnapshot(w io.Writer, rows []store.Row) error {
	if rows == nil {
		rows = []store.Row{}
	}
	data, err := yaml.Marshal(rows)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	_, err = w.Write(data)
	return err
}
