package observability_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/aretw0/stepwise/pkg/domain"
	"github.com/aretw0/stepwise/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_FanOutInOrder(t *testing.T) {
	bus := observability.NewBus()
	var got []string

	bus.Subscribe(observability.ObserverFunc(func(ctx context.Context, e domain.Event) {
		got = append(got, "a:"+string(e.Type))
	}))
	bus.Subscribe(observability.ObserverFunc(func(ctx context.Context, e domain.Event) {
		got = append(got, "b:"+string(e.Type))
	}))

	bus.Publish(context.Background(), domain.NewEvent(domain.EventPlanStart, "s"))

	assert.Equal(t, []string{"a:plan_start", "b:plan_start"}, got)
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := observability.NewBus()
	calls := 0
	unsubscribe := bus.Subscribe(observability.ObserverFunc(func(ctx context.Context, e domain.Event) {
		calls++
	}))

	bus.Publish(context.Background(), domain.NewEvent(domain.EventPlanStart, ""))
	unsubscribe()
	unsubscribe() // idempotent
	bus.Publish(context.Background(), domain.NewEvent(domain.EventPlanStart, ""))

	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, bus.Len())
}

func TestBus_NilIsNoop(t *testing.T) {
	var bus *observability.Bus
	assert.NotPanics(t, func() {
		bus.Publish(context.Background(), domain.NewEvent(domain.EventPlanStart, ""))
	})
}

func TestLogObserver(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	obs := observability.LogObserver(logger)

	e := domain.NewEvent(domain.EventStepSkipped, "sess-1")
	e.Step = &domain.Step{Number: 2, Status: domain.StepSkipped}
	obs.OnEvent(context.Background(), e)

	out := buf.String()
	assert.Contains(t, out, "event=step_skipped")
	assert.Contains(t, out, "session_id=sess-1")
	assert.Contains(t, out, "step=2")
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := observability.NewMetrics(reg)
	require.NoError(t, err)

	bus := observability.NewBus()
	bus.Subscribe(m)

	ctx := context.Background()
	executed := domain.NewEvent(domain.EventStepExecuted, "")
	executed.Step = &domain.Step{Number: 1, Status: domain.StepCompleted}
	executed.Duration = 200 * time.Millisecond
	bus.Publish(ctx, executed)

	skipped := domain.NewEvent(domain.EventStepSkipped, "")
	skipped.Step = &domain.Step{Number: 2, Status: domain.StepSkipped}
	bus.Publish(ctx, skipped)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Events.WithLabelValues("step_executed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Steps.WithLabelValues("completed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Steps.WithLabelValues("skipped")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.StepDuration))

	_, err = observability.NewMetrics(reg)
	assert.Error(t, err, "registering twice on the same registry fails")
}
