package domain

import "time"

// ExecutionResult is the rolling synthesis of a session.
type ExecutionResult struct {
	// Summary is populated on demand and at completion.
	Summary string `json:"summary"`

	// CompletedAt is set once the plan has no pending step and the final
	// summary was produced.
	CompletedAt time.Time `json:"completed_at,omitzero"`
}

// ExecutionState is the full snapshot of a session.
// It is the unit written to storage on save.
type ExecutionState struct {
	SessionID string `json:"session_id,omitempty"`

	Domain Domain        `json:"domain"`
	Goal   string        `json:"goal"`
	Config PlannerConfig `json:"config"`

	Plan            *Plan           `json:"plan"`
	ExecutionResult ExecutionResult `json:"execution_result"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Sealed carries the encrypted state when checkpoints are encrypted at
	// rest; the other content fields are then empty.
	Sealed string `json:"sealed,omitempty"`
}

// NewState creates an empty state for a session.
func NewState(sessionID string, d Domain, goal string) *ExecutionState {
	now := time.Now().UTC()
	return &ExecutionState{
		SessionID: sessionID,
		Domain:    d,
		Goal:      goal,
		Config:    DefaultPlannerConfig(),
		Plan:      &Plan{Goal: goal, Domain: d},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Clone returns a deep copy of the state.
func (s *ExecutionState) Clone() *ExecutionState {
	if s == nil {
		return nil
	}
	out := *s
	out.Plan = s.Plan.Clone()
	return &out
}

// IsComplete reports whether the plan has no pending step left.
func (s *ExecutionState) IsComplete() bool {
	return s.Plan == nil || s.Plan.IsComplete()
}
