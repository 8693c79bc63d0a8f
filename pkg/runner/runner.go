package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/aretw0/stepwise/internal/adapters/file"
	"github.com/aretw0/stepwise/internal/logging"
	"github.com/aretw0/stepwise/internal/runtime"
	"github.com/aretw0/stepwise/pkg/domain"
	"github.com/aretw0/stepwise/pkg/observability"
	"github.com/aretw0/stepwise/pkg/ports"
)

// Runner owns the execution state of one session and drives the engine,
// either turn by turn under user control or unattended.
type Runner struct {
	Engine    *runtime.Engine
	Prompter  Prompter
	Writer    io.Writer
	Styles    Styles
	Store     ports.StateStore
	SessionID string
	Output    string
	Export    Exporter
	Renderer  ContentRenderer
	Bus       *observability.Bus
	Logger    *slog.Logger

	// Quiet suppresses console output of unattended runs.
	Quiet bool
}

// Result is what a run leaves behind.
type Result struct {
	State *domain.ExecutionState

	// Exited is set when the user chose Exit before the plan finished.
	Exited bool

	// Saved lists the files the state was written to.
	Saved []string
}

// New creates a runner for engine.
func New(engine *runtime.Engine, opts ...Option) *Runner {
	r := &Runner{
		Engine: engine,
		Writer: os.Stdout,
		Export: file.Export,
		Logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.Prompter == nil {
		r.Prompter = NewTextPrompter(os.Stdin, r.Writer)
	}
	if r.Styles.out == nil {
		r.Styles = NewStyles(r.Writer)
	}
	return r
}

func (r *Runner) printf(format string, args ...any) {
	fmt.Fprintf(r.Writer, format, args...)
}

// checkpoint saves the state to the store when a session is configured.
// Failures are reported but never end the session.
func (r *Runner) checkpoint(ctx context.Context, state *domain.ExecutionState) {
	if r.Store == nil || r.SessionID == "" {
		return
	}
	if err := r.Store.Save(ctx, r.SessionID, state); err != nil {
		r.Logger.Warn("Checkpoint failed", "session_id", r.SessionID, "error", err)
		if r.Quiet {
			return
		}
		r.printf("%s\n", r.Styles.Error(fmt.Sprintf("Warning: checkpoint failed: %v", err)))
		return
	}
	r.Logger.Debug("Checkpoint saved", "session_id", r.SessionID)
}

func (r *Runner) save(ctx context.Context, path string, state *domain.ExecutionState, result *Result) error {
	if err := r.Export(path, state); err != nil {
		return err
	}
	result.Saved = append(result.Saved, path)

	ev := domain.NewEvent(domain.EventStateSaved, state.SessionID)
	ev.Message = path
	r.Bus.Publish(ctx, ev)
	return nil
}

func (r *Runner) defaultSavePath(state *domain.ExecutionState) string {
	if r.Output != "" {
		return r.Output
	}
	if state.SessionID != "" {
		return "stepwise-" + state.SessionID + ".json"
	}
	return "stepwise-result.json"
}

func (r *Runner) printMenu(step *domain.Step) {
	r.printf("\n%s %s\n", r.Styles.bold(fmt.Sprintf("Step %d:", step.Number)), step.Description)
	var items []string
	for i, a := range Actions() {
		items = append(items, fmt.Sprintf("%d) %s [%s]", i+1, a, a.Key()))
	}
	r.printf("%s\n", r.Styles.faint(strings.Join(items, "  ")))
}

func (r *Runner) askAction(ctx context.Context) (Action, error) {
	for {
		answer, err := r.Prompter.Input(ctx, "Action", ActionExecute.Key())
		if err != nil {
			return 0, err
		}
		action, err := ParseAction(answer)
		if err == nil {
			return action, nil
		}
		r.printf("%v\n", err)
	}
}

// RunInteractive loops over pending steps, asking the user what to do with
// each. It returns when no pending step remains (after the final summary and
// save offer) or immediately when the user exits.
func (r *Runner) RunInteractive(ctx context.Context, state *domain.ExecutionState) (*Result, error) {
	result := &Result{State: state}

	RenderPlan(r.Writer, r.Styles, state.Plan)

	for {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		step, ok := state.Plan.Current()
		if !ok {
			break
		}

		r.printMenu(step)
		action, err := r.askAction(ctx)
		if err != nil {
			return result, fmt.Errorf("interactive session ended: %w", err)
		}

		next, err := r.dispatch(ctx, action, state, step, result)
		if errors.Is(err, errExit) {
			r.printf("Exiting without saving.\n")
			result.Exited = true
			return result, nil
		}
		// Progress made before an error or cancellation is kept.
		if next != nil && next != state {
			state = next
			result.State = state
			r.checkpoint(context.WithoutCancel(ctx), state)
		}
		if err != nil {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			r.printf("%s\n", r.Styles.Error("Error: "+err.Error()))
		}
	}

	return r.finishInteractive(ctx, state, result)
}

var errExit = errors.New("exit requested")

// dispatch applies one action. A nil state means nothing changed.
func (r *Runner) dispatch(ctx context.Context, action Action, state *domain.ExecutionState, step *domain.Step, result *Result) (*domain.ExecutionState, error) {
	switch action {
	case ActionExecute:
		next, err := r.Engine.Execute(ctx, state)
		if err != nil {
			return nil, fmt.Errorf("%w (the step is still pending: retry, skip or revise it)", err)
		}
		return next, nil

	case ActionSkip:
		return r.Engine.Skip(ctx, state)

	case ActionRevise:
		desc, err := r.Prompter.Input(ctx, "New description", step.Description)
		if err != nil {
			return nil, err
		}
		if desc == step.Description {
			r.printf("Description unchanged.\n")
			return nil, nil
		}
		return r.Engine.Revise(ctx, state, step.Number, desc)

	case ActionContinue:
		next, _, err := r.Engine.Continue(ctx, state)
		return next, err

	case ActionShowPlan:
		RenderPlan(r.Writer, r.Styles, state.Plan)
		return nil, nil

	case ActionSummary:
		next, err := r.Engine.Summarize(ctx, state)
		if err != nil {
			return nil, err
		}
		RenderSummary(r.Writer, r.Renderer, next.ExecutionResult.Summary)
		return next, nil

	case ActionAutoRemainder:
		next, err := r.Engine.RunAll(ctx, state)
		return next, err

	case ActionSave:
		path, err := r.Prompter.Input(ctx, "Save to", r.defaultSavePath(state))
		if err != nil {
			return nil, err
		}
		return nil, r.save(ctx, path, state, result)

	case ActionExit:
		return nil, errExit
	}
	return nil, fmt.Errorf("unhandled action %v", action)
}

func (r *Runner) finishInteractive(ctx context.Context, state *domain.ExecutionState, result *Result) (*Result, error) {
	final, err := r.Engine.Complete(ctx, state)
	if err != nil {
		r.printf("%s\n", r.Styles.Error("Could not generate the final summary: "+err.Error()))
	} else {
		state = final
		result.State = state
		r.checkpoint(ctx, state)
	}

	r.printf("\n%s\n", r.Styles.bold("Summary"))
	RenderSummary(r.Writer, r.Renderer, state.ExecutionResult.Summary)

	if r.Output != "" {
		if err := r.save(ctx, r.Output, state, result); err != nil {
			return result, fmt.Errorf("failed to write output: %w", err)
		}
		return result, nil
	}

	for {
		ok, err := r.Prompter.Confirm(ctx, "Save the results to a file?", false)
		if err != nil || !ok {
			return result, nil
		}
		path, err := r.Prompter.Input(ctx, "Save to", r.defaultSavePath(state))
		if err != nil {
			return result, nil
		}
		if err := r.save(ctx, path, state, result); err != nil {
			r.printf("%s\n", r.Styles.Error("Error: "+err.Error()))
			continue
		}
		return result, nil
	}
}

// RunAuto executes every pending step unattended, then produces the final
// summary and writes the output file when configured. A halted run still
// writes the output so the failure can be inspected.
func (r *Runner) RunAuto(ctx context.Context, state *domain.ExecutionState) (*Result, error) {
	result := &Result{State: state}

	final, runErr := r.Engine.RunAll(ctx, state)
	result.State = final
	r.checkpoint(ctx, final)

	summarized, err := r.Engine.Complete(ctx, final)
	if err != nil {
		r.Logger.Warn("Summary failed", "error", err)
		if runErr == nil {
			runErr = err
		}
	} else {
		final = summarized
		result.State = final
		r.checkpoint(ctx, final)
	}

	if !r.Quiet {
		RenderSummary(r.Writer, r.Renderer, final.ExecutionResult.Summary)
	}

	if r.Output != "" {
		if err := r.save(ctx, r.Output, final, result); err != nil {
			err = fmt.Errorf("failed to write output: %w", err)
			if runErr == nil {
				return result, err
			}
			return result, errors.Join(runErr, err)
		}
	}
	return result, runErr
}
