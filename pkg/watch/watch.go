package watch

import (
	"context"
	"io"
	"time"

	"github.com/kubescape/go-logger"
	"github.com/kubescape/go-logger/helpers"
	"github.com/kubescape/pgtree/pkg/utils"
)

// Watcher repeats an iteration every interval until its context is done.
type Watcher struct {
	interval time.Duration
	out      io.Writer
}

func NewWatcher(interval time.Duration, out io.Writer) *Watcher {
	return &Watcher{interval: interval, out: out}
}

// Run clears the screen before each iteration. Iteration errors are logged
// and do not stop the loop.
func (w *Watcher) Run(ctx context.Context, iteration func(ctx context.Context) error) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.iterate(ctx, iteration)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if ctx.Err() != nil {
				return nil
			}
			w.iterate(ctx, iteration)
		}
	}
}

func (w *Watcher) iterate(ctx context.Context, iteration func(ctx context.Context) error) {
	if _, err := io.WriteString(w.out, utils.ClearScreen); err != nil {
		logger.L().Warning("clearing screen", helpers.Error(err))
	}
	if err := iteration(ctx); err != nil && ctx.Err() == nil {
		logger.L().Warning("watch iteration failed", helpers.Error(err))
	}
}
