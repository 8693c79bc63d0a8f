package cli

import (
	"log/slog"

	"github.com/aretw0/stepwise/internal/config"
	"github.com/aretw0/stepwise/internal/runtime"
	"github.com/aretw0/stepwise/pkg/domain"
	"github.com/aretw0/stepwise/pkg/observability"
	"github.com/aretw0/stepwise/pkg/planner"
	"github.com/aretw0/stepwise/pkg/ports"
)

// PlannerFactory builds the planner for a resolved domain.
type PlannerFactory func(d domain.Domain, cfg *config.Config, logger *slog.Logger) (ports.Planner, error)

// NewPlanner is the default PlannerFactory: offline templates with
// --fallback, otherwise an OpenAI-compatible model.
func NewPlanner(d domain.Domain, cfg *config.Config, logger *slog.Logger) (ports.Planner, error) {
	return planner.New(d, cfg.PlannerConfig(),
		planner.WithLogger(logger),
		planner.WithTemplates(cfg.Templates),
		planner.WithOpenAI(cfg.Model, cfg.BaseURL, cfg.APIKey),
	)
}

// createEngine initializes an engine with standard CLI conventions.
func createEngine(p ports.Planner, cfg *config.Config, bus *observability.Bus, logger *slog.Logger) *runtime.Engine {
	return runtime.NewEngine(p,
		runtime.WithBus(bus),
		runtime.WithLogger(logger),
		runtime.WithFailurePolicy(cfg.FailurePolicy()),
	)
}
