package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	httpadapter "github.com/aretw0/stepwise/internal/adapters/http"
	"github.com/aretw0/stepwise/internal/config"
	"github.com/aretw0/stepwise/internal/presentation/tui"
	"github.com/aretw0/stepwise/pkg/domain"
	"github.com/aretw0/stepwise/pkg/observability"
	"github.com/aretw0/stepwise/pkg/runner"
	"github.com/aretw0/stepwise/pkg/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"
)

// RunOptions carries the process-level dependencies of the run command.
type RunOptions struct {
	In     io.Reader
	Out    io.Writer
	ErrOut io.Writer

	// Terminal enables the banner and markdown rendering.
	Terminal bool
	Version  string

	// NewPlanner defaults to NewPlanner.
	NewPlanner PlannerFactory

	// Registry receives the run metrics; a fresh one is created when nil.
	Registry *prometheus.Registry
}

// DefaultRunOptions wires the standard streams.
func DefaultRunOptions(version string) RunOptions {
	return RunOptions{
		In:       os.Stdin,
		Out:      os.Stdout,
		ErrOut:   os.Stderr,
		Terminal: tui.IsTerminal(os.Stdout) && tui.IsTerminal(os.Stdin),
		Version:  version,
	}
}

func (o *RunOptions) setDefaults() {
	if o.In == nil {
		o.In = os.Stdin
	}
	if o.Out == nil {
		o.Out = os.Stdout
	}
	if o.ErrOut == nil {
		o.ErrOut = os.Stderr
	}
	if o.NewPlanner == nil {
		o.NewPlanner = NewPlanner
	}
	if o.Registry == nil {
		o.Registry = prometheus.NewRegistry()
	}
}

// Execute runs one plan session under a signal-aware context.
func Execute(cfg *config.Config, opts RunOptions) error {
	sigCtx := NewSignalContext(context.Background())
	defer sigCtx.Cancel()

	err := Run(sigCtx, cfg, opts)
	if sig := sigCtx.Signal(); sig != nil && isInterrupted(err) {
		fmt.Fprintln(opts.Out)
		printSystemMessage(opts.Out, "Interrupted (%s).", sig)
	}
	return handleExecutionError(err, sigCtx.Signal())
}

// Run resolves the domain and goal, builds the planner and engine, and
// drives the session interactively or autonomously.
func Run(ctx context.Context, cfg *config.Config, opts RunOptions) error {
	opts.setDefaults()
	logger := createLogger(cfg, opts.ErrOut)

	if opts.Terminal && cfg.Interactive() {
		tui.PrintBanner(opts.Out, opts.Version)
	}

	var prompter runner.Prompter
	if cfg.CanPrompt() {
		prompter = runner.NewTextPrompter(opts.In, opts.Out)
	}

	var manager *session.Manager
	if cfg.Session != "" {
		m, closeStore, err := OpenSessions(cfg, logger)
		if err != nil {
			return err
		}
		defer closeStore()
		manager = m
	}

	console := opts.Out
	if !cfg.CanPrompt() {
		console = io.Discard
	}
	state, err := resume(ctx, cfg, manager, console, logger)
	if err != nil {
		return err
	}

	d := cfg.ParsedDomain()
	goal := cfg.Goal
	if state != nil {
		d, goal = state.Domain, state.Goal
	} else {
		if d, goal, err = resolveInputs(ctx, cfg, prompter); err != nil {
			return err
		}
	}

	p, err := opts.NewPlanner(d, cfg, logger)
	if err != nil {
		return err
	}

	metrics, err := observability.NewMetrics(opts.Registry)
	if err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}
	bus := observability.NewBus()
	bus.Subscribe(observability.LogObserver(logger))
	bus.Subscribe(metrics)
	styles := runner.NewStyles(opts.Out)
	if cfg.CanPrompt() {
		bus.Subscribe(runner.ConsoleObserver(opts.Out, styles))
	}

	engine := createEngine(p, cfg, bus, logger)

	g, gctx := errgroup.WithContext(ctx)
	srvCtx, stopServer := context.WithCancel(gctx)
	defer stopServer()
	if cfg.MetricsAddr != "" {
		startMetricsServer(srvCtx, g, cfg, opts, manager, logger)
	}

	runErr := func() error {
		if state == nil {
			state, err = engine.Start(gctx, cfg.Session, d, goal, cfg.PlannerConfig())
			if err != nil {
				return err
			}
			if manager != nil {
				if err := manager.Save(gctx, cfg.Session, state); err != nil {
					logger.Warn("Initial checkpoint failed", "session_id", cfg.Session, "error", err)
				}
			}
		}

		r := runner.New(engine, runnerOptions(cfg, opts, prompter, styles, manager, bus, logger)...)
		if cfg.Interactive() {
			_, err := r.RunInteractive(gctx, state)
			return err
		}
		_, err := r.RunAuto(gctx, state)
		return err
	}()

	stopServer()
	if err := g.Wait(); err != nil && (runErr == nil || errors.Is(runErr, context.Canceled)) {
		runErr = err
	}
	return runErr
}

// resume loads the checkpoint of the configured session, if any.
func resume(ctx context.Context, cfg *config.Config, manager *session.Manager, out io.Writer, logger *slog.Logger) (*domain.ExecutionState, error) {
	if manager == nil {
		return nil, nil
	}
	if cfg.Fresh {
		if err := manager.Delete(ctx, cfg.Session); err != nil {
			return nil, fmt.Errorf("failed to reset session %s: %w", cfg.Session, err)
		}
		logger.Info("Session Reset", "session_id", cfg.Session)
	}

	state, found, err := manager.Resume(ctx, cfg.Session)
	if err != nil || !found {
		if err == nil {
			logger.Info("Session Created", "session_id", cfg.Session)
		}
		return nil, err
	}

	logger.Info("Session Resumed", "session_id", cfg.Session, "steps", len(state.Plan.Steps))
	if step, ok := state.Plan.Current(); ok {
		printSystemMessage(out, "Resuming session '%s' at step %d.", cfg.Session, step.Number)
	} else {
		printSystemMessage(out, "Session '%s' has no pending step.", cfg.Session)
	}
	return state, nil
}

// resolveInputs fills the domain and goal, prompting when allowed.
// A missing goal without a prompt is a configuration error raised before
// any planner exists.
func resolveInputs(ctx context.Context, cfg *config.Config, prompter runner.Prompter) (domain.Domain, string, error) {
	d := cfg.ParsedDomain()
	if d == "" {
		if prompter == nil {
			d = domain.DomainCustom
		} else {
			domains := domain.Domains()
			labels := make([]string, len(domains))
			for i, known := range domains {
				labels[i] = known.Label()
			}
			idx, err := prompter.Select(ctx, "Domain", labels, 0)
			if err != nil {
				return "", "", fmt.Errorf("no domain selected: %w", err)
			}
			d = domains[idx]
		}
	}

	goal := cfg.Goal
	if goal == "" {
		if prompter == nil {
			return "", "", &config.Error{Field: "goal", Err: domain.ErrMissingGoal}
		}
		answer, err := prompter.Input(ctx, "Goal", d.ExampleGoal())
		if err != nil {
			return "", "", fmt.Errorf("no goal entered: %w", err)
		}
		goal = answer
	}
	return d, goal, nil
}

func runnerOptions(cfg *config.Config, opts RunOptions, prompter runner.Prompter, styles runner.Styles, manager *session.Manager, bus *observability.Bus, logger *slog.Logger) []runner.Option {
	ropts := []runner.Option{
		runner.WithWriter(opts.Out),
		runner.WithStyles(styles),
		runner.WithBus(bus),
		runner.WithLogger(logger),
		runner.WithOutput(cfg.Output),
		runner.WithQuiet(!cfg.CanPrompt()),
	}
	if prompter != nil {
		ropts = append(ropts, runner.WithPrompter(prompter))
	}
	if manager != nil {
		ropts = append(ropts, runner.WithStore(manager), runner.WithSessionID(cfg.Session))
	}
	if opts.Terminal {
		render, err := tui.NewRenderer(0)
		if err != nil {
			logger.Warn("Markdown rendering disabled", "error", err)
		} else {
			ropts = append(ropts, runner.WithRenderer(render))
		}
	}
	return ropts
}

func startMetricsServer(ctx context.Context, g *errgroup.Group, cfg *config.Config, opts RunOptions, manager *session.Manager, logger *slog.Logger) {
	if err := opts.Registry.Register(collectors.NewGoCollector()); err != nil {
		var already prometheus.AlreadyRegisteredError
		if !errors.As(err, &already) {
			logger.Warn("Go collector not registered", "error", err)
		}
	}

	hopts := []httpadapter.Option{
		httpadapter.WithGatherer(opts.Registry),
		httpadapter.WithVersion(opts.Version),
		httpadapter.WithLogger(logger),
	}
	if manager != nil {
		hopts = append(hopts, httpadapter.WithStore(manager))
	}
	handler := httpadapter.NewHandler(hopts...)

	logger.Info("Serving metrics", "addr", cfg.MetricsAddr)
	g.Go(func() error {
		if err := httpadapter.Serve(ctx, cfg.MetricsAddr, handler); err != nil {
			return fmt.Errorf("metrics server: %w", err)
		}
		return nil
	})
}
