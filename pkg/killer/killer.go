package killer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/kubescape/go-logger"
	"github.com/kubescape/go-logger/helpers"
	"github.com/kubescape/pgtree/pkg/exporters"
	"github.com/kubescape/pgtree/pkg/metricsmanager"
	"github.com/kubescape/pgtree/pkg/processtree/builder"
	"github.com/kubescape/pgtree/pkg/processtree/render"
	"github.com/kubescape/pgtree/pkg/processtree/store"
	"go.uber.org/multierr"
	"golang.org/x/sys/unix"
)

// Options controls one dispatch.
type Options struct {
	Render render.Options
	// Signal is sent to the selected processes, 0 only renders.
	Signal unix.Signal
	// Confirmed skips the interactive confirmation.
	Confirmed bool
	// KillSelf allows signaling the running process when it is selected.
	KillSelf bool
	// Wait is how long to wait for the signaled processes to exit.
	Wait time.Duration
}

// Outcome reports what a dispatch did.
type Outcome struct {
	Render    render.Result
	Aborted   bool
	Signaled  []string
	Gone      []string
	Denied    []string
	Skipped   []string
	Survivors []string
}

// Dispatcher renders a forest and optionally signals the selected processes.
type Dispatcher struct {
	renderer  *render.Renderer
	out       io.Writer
	signaler  Signaler
	confirmer Confirmer
	exporter  exporters.Exporter
	metrics   metricsmanager.MetricsManager
	selfPid   int
	runID     string
}

// NewDispatcher creates a dispatcher. A nil confirmer means no confirmation
// can be asked for.
func NewDispatcher(renderer *render.Renderer, out io.Writer, signaler Signaler, confirmer Confirmer, exporter exporters.Exporter, metrics metricsmanager.MetricsManager, selfPid int, runID string) *Dispatcher {
	return &Dispatcher{
		renderer:  renderer,
		out:       out,
		signaler:  signaler,
		confirmer: confirmer,
		exporter:  exporter,
		metrics:   metrics,
		selfPid:   selfPid,
		runID:     runID,
	}
}

// Dispatch renders the forest, then signals the selected processes when
// opts.Signal is set. Signal failures for single processes do not stop the batch.
func (d *Dispatcher) Dispatch(ctx context.Context, s *store.Store, f *builder.Forest, opts Options) (Outcome, error) {
	if opts.Signal == 0 {
		result, err := d.renderer.Render(s, f, opts.Render)
		d.metrics.ReportRender(result.Lines)
		return Outcome{Render: result}, err
	}

	// show the whole matched forest before asking anything
	renderOpts := opts.Render
	renderOpts.ChildrenOnly = false
	result, err := d.renderer.Render(s, f, renderOpts)
	d.metrics.ReportRender(result.Lines)
	outcome := Outcome{Render: result}
	if err != nil {
		return outcome, err
	}
	if len(result.Selected) == 0 {
		return outcome, nil
	}

	if _, err := fmt.Fprintln(d.out, "kill "+strings.Join(result.Selected, " ")); err != nil {
		return outcome, err
	}
	if !opts.Confirmed {
		if d.confirmer == nil {
			return outcome, ErrConfirmationUnavailable
		}
		ok, err := d.confirmer.Confirm(ConfirmPrompt)
		if err != nil {
			return outcome, err
		}
		if !ok {
			outcome.Aborted = true
			logger.L().Debug("kill aborted by operator", helpers.String("runID", d.runID))
			return outcome, nil
		}
	}

	var errs error
	for _, pid := range result.Selected {
		if ctx.Err() != nil {
			return outcome, multierr.Append(errs, ctx.Err())
		}
		res, err := d.signal(pid, opts)
		d.report(s, pid, opts.Signal, res, err)
		switch res {
		case exporters.SignalSent:
			outcome.Signaled = append(outcome.Signaled, pid)
		case exporters.SignalGone:
			outcome.Gone = append(outcome.Gone, pid)
		case exporters.SignalDenied:
			outcome.Denied = append(outcome.Denied, pid)
			fmt.Fprintf(d.out, "kill %s: Permission error\n", pid)
		case exporters.SignalSkipped:
			outcome.Skipped = append(outcome.Skipped, pid)
		default:
			errs = multierr.Append(errs, fmt.Errorf("kill %s: %w", pid, err))
		}
	}

	if opts.Wait > 0 && len(outcome.Signaled) > 0 {
		outcome.Survivors = d.waitForExit(ctx, outcome.Signaled, opts.Wait)
		if len(outcome.Survivors) > 0 {
			logger.L().Warning("processes still running after signal",
				helpers.String("pids", strings.Join(outcome.Survivors, " ")),
				helpers.String("wait", opts.Wait.String()))
		}
	}
	return outcome, errs
}

func (d *Dispatcher) signal(pid string, opts Options) (exporters.SignalResult, error) {
	n, err := strconv.Atoi(pid)
	if err != nil {
		return exporters.SignalFailed, fmt.Errorf("invalid pid %q", pid)
	}
	// kill(2) treats 0 and negative pids as process groups
	if n <= 0 || (n == d.selfPid && !opts.KillSelf) {
		return exporters.SignalSkipped, nil
	}
	err = d.signaler.Signal(n, opts.Signal)
	switch {
	case err == nil:
		return exporters.SignalSent, nil
	case errors.Is(err, unix.ESRCH):
		return exporters.SignalGone, err
	case errors.Is(err, unix.EPERM):
		return exporters.SignalDenied, err
	default:
		return exporters.SignalFailed, err
	}
}

func (d *Dispatcher) report(s *store.Store, pid string, sig unix.Signal, res exporters.SignalResult, err error) {
	event := exporters.KillEvent{
		RunID:     d.runID,
		Pid:       pid,
		Signal:    int(sig),
		Result:    res,
		Timestamp: time.Now().UTC(),
	}
	if rec, ok := s.Record(pid); ok {
		event.Ppid = rec.Ppid
		event.User = rec.User
		event.Comm = rec.Comm
		event.Args = rec.Args
	}
	if err != nil {
		event.Error = err.Error()
	}
	d.exporter.SendKillEvent(event)
	d.metrics.ReportSignal(res)

	if res != exporters.SignalSent {
		logger.L().Debug("signal not sent",
			helpers.String("pid", pid),
			helpers.String("result", string(res)),
			helpers.Error(err))
	}
}

// waitForExit polls the signaled processes until they are gone or timeout
// expires, and returns the ones still alive.
func (d *Dispatcher) waitForExit(ctx context.Context, pids []string, timeout time.Duration) []string {
	remaining := pids
	check := func() ([]string, error) {
		var alivePids []string
		for _, pid := range remaining {
			n, _ := strconv.Atoi(pid)
			if alive(d.signaler, n) {
				alivePids = append(alivePids, pid)
			}
		}
		remaining = alivePids
		if len(alivePids) > 0 {
			return alivePids, fmt.Errorf("%d processes still running", len(alivePids))
		}
		return nil, nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 20 * time.Millisecond
	b.MaxInterval = 500 * time.Millisecond
	if _, err := backoff.Retry(ctx, check, backoff.WithBackOff(b), backoff.WithMaxElapsedTime(timeout)); err == nil {
		return nil
	}
	return remaining
}
