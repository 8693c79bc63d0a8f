package domain

import (
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventPlanStart        EventType = "plan_start"
	EventPlanGenerated    EventType = "plan_generated"
	EventStepExecuteStart EventType = "step_execute_start"
	EventStepExecuted     EventType = "step_executed"
	EventStepSkipped      EventType = "step_skipped"
	EventStepRevised      EventType = "step_revised"
	EventPlanContinued    EventType = "plan_continued"
	EventSummaryGenerated EventType = "summary_generated"
	EventPlanComplete     EventType = "plan_complete"
	EventStateSaved       EventType = "state_saved"
)

// Event is a lifecycle notification emitted by the engine and the runner.
// Events are informational; no consumer may alter the state through them.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id,omitempty"`

	// Step is set for step-scoped events.
	Step *Step `json:"step,omitempty"`

	// Count is the number of steps concerned (generated, appended).
	Count int `json:"count,omitempty"`

	// Duration is set on step_executed.
	Duration time.Duration `json:"duration,omitempty"`

	Message string `json:"message,omitempty"`
	Err     error  `json:"-"`
}

// NewEvent stamps an event with the current time.
func NewEvent(t EventType, sessionID string) Event {
	return Event{
		Timestamp: time.Now().UTC(),
		Type:      t,
		SessionID: sessionID,
	}
}
