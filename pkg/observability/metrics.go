package observability

import (
	"context"

	"github.com/aretw0/stepwise/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes lifecycle events as Prometheus collectors.
type Metrics struct {
	Events       *prometheus.CounterVec
	Steps        *prometheus.CounterVec
	StepDuration prometheus.Histogram
}

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stepwise_events_total",
				Help: "Total number of lifecycle events by type",
			},
			[]string{"type"},
		),
		Steps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stepwise_steps_total",
				Help: "Total number of steps reaching a terminal status",
			},
			[]string{"status"},
		),
		StepDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "stepwise_step_duration_seconds",
				Help:    "Duration of planner step executions",
				Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
			},
		),
	}

	for _, c := range []prometheus.Collector{m.Events, m.Steps, m.StepDuration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// OnEvent implements Observer.
func (m *Metrics) OnEvent(ctx context.Context, e domain.Event) {
	m.Events.WithLabelValues(string(e.Type)).Inc()

	switch e.Type {
	case domain.EventStepExecuted:
		if e.Duration > 0 {
			m.StepDuration.Observe(e.Duration.Seconds())
		}
		if e.Step != nil && e.Step.Status.IsTerminal() {
			m.Steps.WithLabelValues(string(e.Step.Status)).Inc()
		}
	case domain.EventStepSkipped:
		m.Steps.WithLabelValues(string(domain.StepSkipped)).Inc()
	}
}
