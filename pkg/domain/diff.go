package domain

import (
	"reflect"
)

// StateDiff represents the changes between two execution states.
// It is designed to be serialized to JSON for partial updates on the client.
type StateDiff struct {
	// SessionID is always present to identify the target.
	SessionID string `json:"session_id"`

	// Changed holds steps that existed before and differ now.
	Changed []Step `json:"changed,omitempty"`

	// Appended holds steps numbered beyond the old maximum.
	Appended []Step `json:"appended,omitempty"`

	// Summary is set when the rolling summary changed.
	Summary *string `json:"summary,omitempty"`
}

// Diff calculates the difference between oldState and newState.
// If oldState is nil, every step of newState is reported as appended.
// Returns nil when nothing changed.
func Diff(oldState, newState *ExecutionState) *StateDiff {
	if newState == nil {
		return nil
	}

	diff := &StateDiff{
		SessionID: newState.SessionID,
	}

	var oldPlan *Plan
	if oldState != nil {
		oldPlan = oldState.Plan
	}
	diff.Changed, diff.Appended = diffSteps(oldPlan, newState.Plan)

	if oldState == nil {
		if newState.ExecutionResult.Summary != "" {
			diff.Summary = &newState.ExecutionResult.Summary
		}
	} else if oldState.ExecutionResult.Summary != newState.ExecutionResult.Summary {
		diff.Summary = &newState.ExecutionResult.Summary
	}

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

// diffSteps matches steps by number; numbers are stable once assigned.
func diffSteps(old, new *Plan) (changed, appended []Step) {
	if new == nil {
		return nil, nil
	}
	if old == nil {
		return nil, append([]Step(nil), new.Steps...)
	}

	oldMax := old.MaxNumber()
	for _, s := range new.Steps {
		prev, ok := old.Step(s.Number)
		switch {
		case !ok && s.Number > oldMax:
			appended = append(appended, s)
		case !ok:
			changed = append(changed, s)
		case !reflect.DeepEqual(*prev, s):
			changed = append(changed, s)
		}
	}
	return changed, appended
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *StateDiff) IsEmpty() bool {
	return len(d.Changed) == 0 &&
		len(d.Appended) == 0 &&
		d.Summary == nil
}
