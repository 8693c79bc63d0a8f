package domain

import (
	"fmt"
	"time"
)

// SessionInfo is the listing view of a stored session.
type SessionInfo struct {
	ID        string    `json:"id"`
	Domain    Domain    `json:"domain"`
	Goal      string    `json:"goal"`
	Done      int       `json:"done"`
	Total     int       `json:"total"`
	UpdatedAt time.Time `json:"updated_at"`

	// Err is set when the session could not be read.
	Err error `json:"-"`
}

// NewSessionInfo summarizes state for listings. Done counts every step
// that is no longer pending.
func NewSessionInfo(id string, state *ExecutionState) SessionInfo {
	info := SessionInfo{
		ID:        id,
		Domain:    state.Domain,
		Goal:      state.Goal,
		UpdatedAt: state.UpdatedAt,
	}
	if state.Plan != nil {
		info.Total = len(state.Plan.Steps)
		info.Done = info.Total - state.Plan.Counts()[StepPending]
	}
	return info
}

// Progress renders done/total, marking finished plans.
func (i SessionInfo) Progress() string {
	switch {
	case i.Total == 0:
		return "empty"
	case i.Done == i.Total:
		return fmt.Sprintf("complete %d/%d", i.Done, i.Total)
	default:
		return fmt.Sprintf("%d/%d", i.Done, i.Total)
	}
}
