package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/stepwise/pkg/domain"
)

// LogObserver writes one structured log record per event.
func LogObserver(logger *slog.Logger) Observer {
	return ObserverFunc(func(ctx context.Context, e domain.Event) {
		attrs := []any{"event", string(e.Type)}
		if e.SessionID != "" {
			attrs = append(attrs, "session_id", e.SessionID)
		}
		if e.Step != nil {
			attrs = append(attrs, "step", e.Step.Number, "status", string(e.Step.Status))
		}
		if e.Count > 0 {
			attrs = append(attrs, "count", e.Count)
		}
		if e.Duration > 0 {
			attrs = append(attrs, "duration", e.Duration)
		}
		if e.Err != nil {
			logger.WarnContext(ctx, "Lifecycle Event", append(attrs, "error", e.Err)...)
			return
		}
		logger.DebugContext(ctx, "Lifecycle Event", attrs...)
	})
}
