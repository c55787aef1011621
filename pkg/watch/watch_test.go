package watch

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/kubescape/pgtree/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcherRun(t *testing.T) {
	var out bytes.Buffer
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls := 0
	err := NewWatcher(5*time.Millisecond, &out).Run(ctx, func(context.Context) error {
		calls++
		out.WriteString("tree\n")
		if calls == 3 {
			cancel()
		}
		if calls == 2 {
			return errors.New("snapshot failed")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, 3, strings.Count(out.String(), utils.ClearScreen))
	assert.True(t, strings.HasPrefix(out.String(), utils.ClearScreen+"tree\n"))
}

func TestWatcherCanceledBeforeStart(t *testing.T) {
	var out bytes.Buffer
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := NewWatcher(time.Hour, &out).Run(ctx, func(context.Context) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	// the first iteration always runs
	assert.Equal(t, 1, calls)
}
