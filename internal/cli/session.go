package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/stepwise/internal/adapters"
	"github.com/aretw0/stepwise/internal/config"
	"github.com/aretw0/stepwise/internal/presentation/graph"
	"github.com/aretw0/stepwise/pkg/domain"
	"github.com/aretw0/stepwise/pkg/persistence/middleware"
	"github.com/aretw0/stepwise/pkg/ports"
	"github.com/aretw0/stepwise/pkg/runner"
	"github.com/aretw0/stepwise/pkg/session"
)

// Inspect output formats.
const (
	FormatPlan    = "plan"
	FormatJSON    = "json"
	FormatMermaid = "mermaid"
)

// OpenSessions opens the configured checkpoint store behind a session
// manager. The returned function closes the store.
func OpenSessions(cfg *config.Config, logger *slog.Logger) (*session.Manager, func(), error) {
	mws, err := cfg.StoreMiddlewares()
	if err != nil {
		return nil, nil, err
	}
	backend, err := adapters.Open(cfg.Store, adapters.OpenOptions{TTL: cfg.StoreTTL})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open store: %w", err)
	}
	closeFn := func() {
		if err := backend.Close(); err != nil {
			logger.Warn("Failed to close store", "store", backend.Kind, "error", err)
		}
	}

	opts := []session.Option{session.WithLogger(logger)}
	if backend.Locker != nil {
		opts = append(opts, session.WithLocker(backend.Locker))
	}
	// An encrypted store only indexes sealed envelopes.
	if index, ok := backend.Store.(ports.SessionIndex); ok && cfg.StoreKey == "" {
		opts = append(opts, session.WithIndex(index))
	}
	store := middleware.Chain(backend.Store, mws...)
	return session.NewManager(store, opts...), closeFn, nil
}

// ListSessions prints the checkpointed session IDs with their progress.
func ListSessions(ctx context.Context, cfg *config.Config, w io.Writer) error {
	logger := createLogger(cfg, io.Discard)
	manager, closeFn, err := OpenSessions(cfg, logger)
	if err != nil {
		return err
	}
	defer closeFn()

	infos, err := manager.Index(ctx)
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}
	if len(infos) == 0 {
		fmt.Fprintln(w, "No sessions found.")
		return nil
	}
	for _, info := range infos {
		if info.Err != nil {
			fmt.Fprintf(w, "%s\t(unreadable: %v)\n", info.ID, info.Err)
			continue
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", info.ID, info.Domain, info.Progress(), info.Goal)
	}
	return nil
}

// InspectSession prints one session as a plan listing, JSON or a Mermaid graph.
func InspectSession(ctx context.Context, cfg *config.Config, id, format string, w io.Writer) error {
	logger := createLogger(cfg, io.Discard)
	manager, closeFn, err := OpenSessions(cfg, logger)
	if err != nil {
		return err
	}
	defer closeFn()

	state, err := manager.Load(ctx, id)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return fmt.Errorf("session %q not found in %s", id, cfg.Store)
	}
	if err != nil {
		return err
	}

	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(state, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(data))
	case FormatMermaid:
		fmt.Fprint(w, graph.GenerateMermaid(state.Plan))
	case FormatPlan, "":
		runner.RenderPlan(w, runner.NewStyles(w), state.Plan)
		if state.ExecutionResult.Summary != "" {
			fmt.Fprintf(w, "\n%s\n", state.ExecutionResult.Summary)
		}
	default:
		return fmt.Errorf("unknown format %q (expected plan, json or mermaid)", format)
	}
	return nil
}

// RemoveSession deletes checkpoints.
func RemoveSession(ctx context.Context, cfg *config.Config, ids []string, w io.Writer) error {
	logger := createLogger(cfg, io.Discard)
	manager, closeFn, err := OpenSessions(cfg, logger)
	if err != nil {
		return err
	}
	defer closeFn()

	for _, id := range ids {
		if err := manager.Delete(ctx, id); err != nil {
			return fmt.Errorf("failed to delete session %s: %w", id, err)
		}
		fmt.Fprintf(w, "Deleted session '%s'.\n", id)
	}
	return nil
}
