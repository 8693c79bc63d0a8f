package domain

import (
	"time"
)

// StepStatus is the lifecycle position of a single step.
type StepStatus string

const (
	StepPending   StepStatus = "pending"   // Not acted upon yet (the only revisable status)
	StepCompleted StepStatus = "completed" // Executed successfully
	StepSkipped   StepStatus = "skipped"   // Passed over by the user
	StepFailed    StepStatus = "failed"    // Executed, planner reported a terminal failure
)

// IsTerminal reports whether no further transition may leave this status.
func (s StepStatus) IsTerminal() bool {
	return s == StepCompleted || s == StepSkipped || s == StepFailed
}

// StepResult describes the outcome of an executed step.
type StepResult struct {
	// Summary is a one-line description of the outcome.
	Summary string `json:"summary"`

	// Output holds the long-form result, if the planner produced any.
	Output string `json:"output,omitempty"`

	// Error carries the failure reason for failed steps.
	Error string `json:"error,omitempty"`

	StartedAt  time.Time `json:"started_at,omitzero"`
	FinishedAt time.Time `json:"finished_at,omitzero"`
}

// Step is one unit of planned work.
type Step struct {
	// Number is the 1-based position in the plan. Stable once assigned.
	Number int `json:"number"`

	Description string     `json:"description"`
	Status      StepStatus `json:"status"`

	// Result is nil while the step is pending and after a skip.
	Result *StepResult `json:"result,omitempty"`
}

// StepOutcome is what a planner reports after executing a step.
type StepOutcome struct {
	Status  StepStatus `json:"status"` // StepCompleted or StepFailed
	Summary string     `json:"summary"`
	Output  string     `json:"output,omitempty"`
}

// Plan is the ordered sequence of steps produced for a goal.
// Order is execution order.
type Plan struct {
	Goal   string `json:"goal"`
	Domain Domain `json:"domain"`
	Steps  []Step `json:"steps"`
}

// NewPlan numbers the given descriptions starting at 1.
func NewPlan(d Domain, goal string, descriptions []string) *Plan {
	p := &Plan{Goal: goal, Domain: d}
	p.Append(descriptions)
	return p
}

// Append adds pending steps numbered after the current maximum and
// returns the appended steps.
func (p *Plan) Append(descriptions []string) []Step {
	next := p.MaxNumber() + 1
	added := make([]Step, 0, len(descriptions))
	for _, desc := range descriptions {
		step := Step{
			Number:      next,
			Description: desc,
			Status:      StepPending,
		}
		p.Steps = append(p.Steps, step)
		added = append(added, step)
		next++
	}
	return added
}

// Current returns the first pending step, if any.
func (p *Plan) Current() (*Step, bool) {
	for i := range p.Steps {
		if p.Steps[i].Status == StepPending {
			return &p.Steps[i], true
		}
	}
	return nil, false
}

// IsComplete reports whether no pending step remains.
func (p *Plan) IsComplete() bool {
	_, ok := p.Current()
	return !ok
}

// Step looks up a step by its number.
func (p *Plan) Step(number int) (*Step, bool) {
	for i := range p.Steps {
		if p.Steps[i].Number == number {
			return &p.Steps[i], true
		}
	}
	return nil, false
}

// MaxNumber returns the largest assigned step number, or 0 for an empty plan.
func (p *Plan) MaxNumber() int {
	highest := 0
	for _, s := range p.Steps {
		if s.Number > highest {
			highest = s.Number
		}
	}
	return highest
}

// Counts tallies steps by status.
func (p *Plan) Counts() map[StepStatus]int {
	counts := map[StepStatus]int{
		StepPending:   0,
		StepCompleted: 0,
		StepSkipped:   0,
		StepFailed:    0,
	}
	for _, s := range p.Steps {
		counts[s.Status]++
	}
	return counts
}

// Clone returns a deep copy of the plan.
func (p *Plan) Clone() *Plan {
	if p == nil {
		return nil
	}
	out := &Plan{
		Goal:   p.Goal,
		Domain: p.Domain,
		Steps:  make([]Step, len(p.Steps)),
	}
	for i, s := range p.Steps {
		out.Steps[i] = s
		if s.Result != nil {
			r := *s.Result
			out.Steps[i].Result = &r
		}
	}
	return out
}
