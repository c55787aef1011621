package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/kubescape/go-logger"
	"github.com/kubescape/go-logger/helpers"
	"github.com/kubescape/pgtree/pkg/config"
	"github.com/kubescape/pgtree/pkg/exporters"
	"github.com/kubescape/pgtree/pkg/killer"
	"github.com/kubescape/pgtree/pkg/metricsmanager"
	metricprometheus "github.com/kubescape/pgtree/pkg/metricsmanager/prometheus"
	"github.com/kubescape/pgtree/pkg/pgrep"
	"github.com/kubescape/pgtree/pkg/processtree/render"
	"github.com/kubescape/pgtree/pkg/processtree/store"
	"github.com/kubescape/pgtree/pkg/pslist"
	"github.com/kubescape/pgtree/pkg/runner"
	"github.com/kubescape/pgtree/pkg/utils"
	"github.com/kubescape/pgtree/pkg/watch"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/sys/unix"
)

type streams struct {
	in       io.Reader
	out      io.Writer
	err      io.Writer
	terminal bool
}

type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}

func usageError(err error) error {
	return &exitError{code: utils.ExitCodeUsage, err: err}
}

type flags struct {
	configDir string
	term      bool
	kill      bool
	pids      []string
	search    pgrep.Options
	output    string
}

func execute(ctx context.Context, args []string, st streams) int {
	cmd := newRootCmd(st)
	cmd.SetArgs(args)
	cmd.SetIn(st.in)
	cmd.SetOut(st.out)
	cmd.SetErr(st.err)

	err := cmd.ExecuteContext(ctx)
	code := exitCode(err)
	if err != nil && code != utils.ExitCodeNoMatch && code != utils.ExitCodeAborted {
		fmt.Fprintln(st.err, "pgtree:", err)
	}
	return code
}

func exitCode(err error) int {
	var exitErr *exitError
	switch {
	case err == nil:
		return utils.ExitCodeSuccess
	case errors.As(err, &exitErr):
		return exitErr.code
	case errors.Is(err, runner.ErrNoMatch):
		return utils.ExitCodeNoMatch
	default:
		return utils.ExitCodeError
	}
}

func newRootCmd(st streams) *cobra.Command {
	var f flags

	rootCmd := &cobra.Command{
		Use:   "pgtree [flags] [pattern]",
		Short: "Show the process hierarchy of matching processes, optionally killing them",
		Long: `pgtree displays the ancestors and descendants of the processes selected by a
pgrep style search, explicit pids, or the whole process table by default.
Selected processes are prefixed with a marker. With -k or -K the selected
processes and all their descendants are signaled after confirmation.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) > 1 {
				return usageError(fmt.Errorf("accepts at most one pattern, received %d", len(args)))
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				f.search.Pattern = args[0]
			}
			return runTree(cmd, st, f)
		},
	}
	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError(err)
	})

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&f.configDir, "config", defaultConfigDir(), "Directory holding config.yaml or config.json")
	pf.String("log-level", "warning", "Log level (debug, info, warning, error)")
	pf.String("source", "auto", "Process snapshot source: auto, ps, procfs or file")
	pf.String("snapshot-file", "", "Replay a snapshot saved with the snapshot command")
	pf.String("procfs-path", "/proc", "procfs mount point")
	pf.StringSliceP("field", "O", []string{"stime"}, "Extra ps field displayed before args")
	pf.BoolP("uid", "I", false, "Show numeric uid instead of user name")

	fl := rootCmd.Flags()
	fl.BoolP("children-only", "c", false, "Display selected processes and their children only")
	fl.BoolVarP(&f.term, "term", "k", false, "Send TERM to selected processes and their children")
	fl.BoolVarP(&f.kill, "kill", "K", false, "Send KILL to selected processes and their children")
	fl.String("signal", "0", "Signal name or number sent to selected processes")
	fl.BoolP("yes", "y", false, "Do not ask for confirmation before signaling")
	fl.Bool("kill-self", false, "Allow signaling pgtree itself when selected")
	fl.Duration("wait", 0, "Wait up to this long for signaled processes to exit")
	fl.StringP("color", "C", config.ColorAuto, "Color output: auto, always/yes or never/no")
	fl.BoolP("wrap", "w", true, "Let the terminal wrap long lines")
	fl.BoolP("ascii", "a", false, "Use ascii tree characters")
	fl.Int("max-args-width", 0, "Truncate the args column to this many characters")
	fl.BoolP("exclude-idle", "1", false, "Do not show pid 0, start from pid 1")
	fl.StringSliceVarP(&f.pids, "pid", "p", nil, "Select these pids instead of searching")
	fl.String("search-engine", "auto", "Search with auto, builtin or pgrep")
	fl.Duration("watch", 0, "Refresh the display at this interval")
	fl.String("metrics-addr", "", "Serve prometheus metrics on this address")
	fl.Bool("audit-stdout", false, "Log signal attempts as JSON on stderr")
	fl.String("audit-csv", "", "Append signal attempts to this CSV file")

	fl.BoolVarP(&f.search.Full, "full", "f", false, "pgrep: match against full args")
	fl.BoolVarP(&f.search.Exact, "exact", "x", false, "pgrep: match exactly")
	fl.BoolVarP(&f.search.Invert, "inverse", "v", false, "pgrep: negate the match")
	fl.BoolVarP(&f.search.IgnoreCase, "ignore-case", "i", false, "pgrep: case insensitive match")
	fl.BoolVarP(&f.search.Newest, "newest", "n", false, "pgrep: select the newest process only")
	fl.BoolVarP(&f.search.Oldest, "oldest", "o", false, "pgrep: select the oldest process only")
	fl.StringSliceVarP(&f.search.Users, "euid", "u", nil, "pgrep: effective user names or ids")
	fl.StringSliceVarP(&f.search.RealUsers, "real-uid", "U", nil, "pgrep: real user names or ids")
	fl.StringSliceVarP(&f.search.PGroups, "pgroup", "g", nil, "pgrep: process group ids")
	fl.StringSliceVarP(&f.search.Groups, "group", "G", nil, "pgrep: real group names or ids")
	fl.StringSliceVarP(&f.search.Parents, "parent", "P", nil, "pgrep: parent pids")
	fl.StringSliceVarP(&f.search.Sessions, "session", "s", nil, "pgrep: session ids")
	fl.StringSliceVarP(&f.search.Terminals, "terminal", "t", nil, "pgrep: terminals")
	fl.StringVarP(&f.search.PidFile, "pidfile", "F", "", "pgrep: read pids from file")
	fl.StringVar(&f.search.Ns, "ns", "", "pgrep: match namespaces of this pid")
	fl.StringSliceVar(&f.search.NsList, "nslist", nil, "pgrep: namespaces considered by --ns")

	rootCmd.MarkFlagsMutuallyExclusive("term", "kill")
	rootCmd.AddCommand(newSnapshotCmd(st, &f))
	return rootCmd
}

func newSnapshotCmd(st streams, f *flags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Write the current process table as YAML for later --snapshot-file replay",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(f.configDir, cmd.Flags())
			if err != nil {
				return err
			}
			source, err := newSource(cfg)
			if err != nil {
				return err
			}
			rows, err := source.Snapshot(cmd.Context())
			if err != nil {
				return err
			}
			rows = pslist.WithIdleRow(rows)

			out := st.out
			if f.output != "" && f.output != "-" {
				file, err := afero.NewOsFs().Create(f.output)
				if err != nil {
					return fmt.Errorf("creating snapshot file: %w", err)
				}
				defer file.Close()
				out = file
			}
			if err := pslist.WriteSnapshot(out, rows); err != nil {
				return err
			}
			logger.L().Info("snapshot written", helpers.Int("processes", len(rows)), helpers.String("output", f.output))
			return nil
		},
	}
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "Output file, stdout by default")
	return cmd
}

func loadConfig(dir string, fs *pflag.FlagSet) (config.Config, error) {
	cfg, err := config.LoadConfig(dir, fs)
	if err != nil {
		return cfg, usageError(err)
	}
	if err := logger.L().SetLevel(cfg.LogLevel); err != nil {
		logger.L().Warning("invalid log level", helpers.String("logLevel", cfg.LogLevel), helpers.Error(err))
	}
	return cfg, nil
}

func newSource(cfg config.Config) (pslist.Source, error) {
	return pslist.NewSource(pslist.Options{
		Kind:         cfg.Source,
		Fields:       cfg.Fields,
		UseUID:       cfg.UseUID,
		ProcfsPath:   cfg.ProcfsPath,
		SnapshotFile: cfg.SnapshotFile,
		Fs:           afero.NewOsFs(),
	})
}

func runTree(cmd *cobra.Command, st streams, f flags) error {
	ctx := cmd.Context()
	cfg, err := loadConfig(f.configDir, cmd.Flags())
	if err != nil {
		return err
	}

	sig, err := killer.ParseSignal(cfg.Signal)
	if err != nil {
		return usageError(err)
	}
	switch {
	case f.term:
		sig = unix.SIGTERM
	case f.kill:
		sig = unix.SIGKILL
	}
	if sig != 0 && cfg.WatchInterval > 0 {
		return usageError(errors.New("watch cannot be combined with a kill signal"))
	}

	runID := uuid.NewString()
	source, err := newSource(cfg)
	if err != nil {
		return err
	}
	var matcher pgrep.Matcher
	if !f.search.Empty() {
		if matcher, err = pgrep.NewMatcher(cfg.Search.Engine); err != nil {
			return err
		}
	}

	var metrics metricsmanager.MetricsManager
	if cfg.MetricsAddr != "" {
		metrics = metricprometheus.NewPrometheusMetric(cfg.MetricsAddr)
	} else {
		metrics = metricsmanager.NewMetricsMock()
	}
	metrics.Start()
	defer metrics.Destroy()

	bus := exporters.InitExporters(cfg.Exporters, afero.NewOsFs())
	renderer := render.NewRenderer(render.NewTheme(cfg.ASCII, cfg.UseColor(st.terminal)), st.out)
	dispatcher := killer.NewDispatcher(renderer, st.out, killer.UnixSignaler{},
		killer.NewPromptConfirmer(st.in, st.out), bus, metrics, os.Getpid(), runID)
	r := runner.NewRunner(source, matcher, dispatcher, metrics, runID)

	req := runner.Request{
		Pids:   f.pids,
		Search: f.search,
		Load:   store.LoadOptions{ExcludeIdle: cfg.ExcludeIdle},
		Dispatch: killer.Options{
			Render: render.Options{
				ChildrenOnly: cfg.ChildrenOnly,
				Fields:       cfg.Fields,
				MaxArgsWidth: cfg.MaxArgsWidth,
			},
			Signal:    sig,
			Confirmed: cfg.Confirmed,
			KillSelf:  cfg.KillSelf,
			Wait:      cfg.WaitTimeout,
		},
	}
	logger.L().Debug("starting run", helpers.String("runID", runID), helpers.Interface("request", req))

	restoreWrap := utils.NoWrap(st.out, !cfg.Wrap && st.terminal)
	defer restoreWrap()

	if cfg.WatchInterval > 0 {
		return watch.NewWatcher(cfg.WatchInterval, st.out).Run(ctx, func(ctx context.Context) error {
			_, err := r.Run(ctx, req)
			if errors.Is(err, runner.ErrNoMatch) {
				return nil
			}
			return err
		})
	}

	result, err := r.Run(ctx, req)
	if err != nil {
		return err
	}
	if result.Outcome.Aborted {
		return &exitError{code: utils.ExitCodeAborted, err: errors.New("kill aborted")}
	}
	if len(result.Outcome.Survivors) > 0 {
		return fmt.Errorf("processes still running after %s: %v", cfg.WaitTimeout, result.Outcome.Survivors)
	}
	return nil
}

func defaultConfigDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "pgtree")
}
