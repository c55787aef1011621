package runner

import (
	"context"
	"errors"
	"fmt"

	"github.com/kubescape/go-logger"
	"github.com/kubescape/go-logger/helpers"
	"github.com/kubescape/pgtree/pkg/killer"
	"github.com/kubescape/pgtree/pkg/metricsmanager"
	"github.com/kubescape/pgtree/pkg/pgrep"
	"github.com/kubescape/pgtree/pkg/processtree/builder"
	"github.com/kubescape/pgtree/pkg/processtree/store"
	"github.com/kubescape/pgtree/pkg/pslist"
)

// ErrNoMatch is returned when the search criteria matched no process.
var ErrNoMatch = errors.New("no process matched")

// Request describes one snapshot, select, display and act pass.
type Request struct {
	// Pids selects targets explicitly and bypasses the search.
	Pids     []string
	Search   pgrep.Options
	Load     store.LoadOptions
	Dispatch killer.Options
}

// Result is what a run produced.
type Result struct {
	Targets []string
	Outcome killer.Outcome
}

// Runner ties a snapshot source, a matcher and a dispatcher together.
type Runner struct {
	source     pslist.Source
	matcher    pgrep.Matcher
	dispatcher *killer.Dispatcher
	metrics    metricsmanager.MetricsManager
	runID      string
}

func NewRunner(source pslist.Source, matcher pgrep.Matcher, dispatcher *killer.Dispatcher, metrics metricsmanager.MetricsManager, runID string) *Runner {
	return &Runner{
		source:     source,
		matcher:    matcher,
		dispatcher: dispatcher,
		metrics:    metrics,
		runID:      runID,
	}
}

// Run takes a snapshot, selects the targets and dispatches. A search matching
// nothing returns ErrNoMatch without output.
func (r *Runner) Run(ctx context.Context, req Request) (Result, error) {
	result, err := r.run(ctx, req)
	if err != nil && !errors.Is(err, ErrNoMatch) {
		r.metrics.ReportFailedRun()
	}
	return result, err
}

func (r *Runner) run(ctx context.Context, req Request) (Result, error) {
	rows, err := r.source.Snapshot(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("taking process snapshot: %w", err)
	}
	s := store.Load(pslist.WithIdleRow(rows), req.Load)
	r.metrics.ReportSnapshot(s.Len())

	targets, err := r.targets(ctx, s, req)
	if err != nil {
		return Result{}, err
	}
	r.metrics.ReportTargets(len(targets))
	logger.L().Debug("targets selected",
		helpers.String("runID", r.runID),
		helpers.Int("processes", s.Len()),
		helpers.Int("targets", len(targets)))
	if len(targets) == 0 {
		return Result{}, ErrNoMatch
	}

	forest := builder.Build(s, targets)
	outcome, err := r.dispatcher.Dispatch(ctx, s, forest, req.Dispatch)
	return Result{Targets: targets, Outcome: outcome}, err
}

func (r *Runner) targets(ctx context.Context, s *store.Store, req Request) ([]string, error) {
	switch {
	case len(req.Pids) > 0:
		return req.Pids, nil
	case !req.Search.Empty():
		pids, err := r.matcher.Match(ctx, s, req.Search)
		if err != nil {
			return nil, fmt.Errorf("searching processes: %w", err)
		}
		return pids, nil
	default:
		return []string{s.DefaultRoot()}, nil
	}
}
