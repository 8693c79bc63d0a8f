package runner

import (
	"io"
	"log/slog"

	"github.com/aretw0/stepwise/pkg/domain"
	"github.com/aretw0/stepwise/pkg/observability"
	"github.com/aretw0/stepwise/pkg/ports"
)

// Exporter writes a state to a file path.
type Exporter func(path string, state *domain.ExecutionState) error

// Option defines a functional option for configuring the Runner.
type Option func(*Runner)

// WithPrompter sets how the user is asked for actions and answers.
func WithPrompter(p Prompter) Option {
	return func(r *Runner) {
		r.Prompter = p
	}
}

// WithWriter sets where menus, plans and summaries are printed.
func WithWriter(w io.Writer) Option {
	return func(r *Runner) {
		r.Writer = w
	}
}

// WithStyles sets the console colours.
func WithStyles(s Styles) Option {
	return func(r *Runner) {
		r.Styles = s
	}
}

// WithStore checkpoints the state after every change.
// Requires WithSessionID.
func WithStore(store ports.StateStore) Option {
	return func(r *Runner) {
		r.Store = store
	}
}

// WithSessionID sets the checkpoint key.
func WithSessionID(id string) Option {
	return func(r *Runner) {
		r.SessionID = id
	}
}

// WithOutput sets the file the final state is written to.
func WithOutput(path string) Option {
	return func(r *Runner) {
		r.Output = path
	}
}

// WithExporter replaces the file writer.
func WithExporter(e Exporter) Option {
	return func(r *Runner) {
		r.Export = e
	}
}

// WithRenderer configures the markdown renderer for summaries.
func WithRenderer(renderer ContentRenderer) Option {
	return func(r *Runner) {
		r.Renderer = renderer
	}
}

// WithBus publishes state_saved events.
func WithBus(bus *observability.Bus) Option {
	return func(r *Runner) {
		r.Bus = bus
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.Logger = logger
	}
}

// WithQuiet keeps RunAuto from printing the summary and checkpoint warnings.
func WithQuiet(quiet bool) Option {
	return func(r *Runner) {
		r.Quiet = quiet
	}
}
