package runner

import (
	"fmt"
	"strconv"
	"strings"
)

// Action is a choice offered in the interactive menu.
type Action int

const (
	ActionExecute Action = iota
	ActionSkip
	ActionRevise
	ActionContinue
	ActionShowPlan
	ActionSummary
	ActionAutoRemainder
	ActionSave
	ActionExit
)

// Actions returns the menu in display order.
func Actions() []Action {
	return []Action{
		ActionExecute,
		ActionSkip,
		ActionRevise,
		ActionContinue,
		ActionShowPlan,
		ActionSummary,
		ActionAutoRemainder,
		ActionSave,
		ActionExit,
	}
}

func (a Action) String() string {
	switch a {
	case ActionExecute:
		return "Execute"
	case ActionSkip:
		return "Skip"
	case ActionRevise:
		return "Revise"
	case ActionContinue:
		return "Continue plan"
	case ActionShowPlan:
		return "Show plan"
	case ActionSummary:
		return "Generate summary"
	case ActionAutoRemainder:
		return "Auto-execute remainder"
	case ActionSave:
		return "Save"
	case ActionExit:
		return "Exit"
	}
	return fmt.Sprintf("Action(%d)", int(a))
}

// Key is the single-letter shortcut.
func (a Action) Key() string {
	switch a {
	case ActionExecute:
		return "e"
	case ActionSkip:
		return "s"
	case ActionRevise:
		return "r"
	case ActionContinue:
		return "c"
	case ActionShowPlan:
		return "p"
	case ActionSummary:
		return "g"
	case ActionAutoRemainder:
		return "a"
	case ActionSave:
		return "w"
	case ActionExit:
		return "q"
	}
	return ""
}

// ParseAction accepts a menu number (1-based), a shortcut or a label.
func ParseAction(s string) (Action, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if n, err := strconv.Atoi(s); err == nil {
		all := Actions()
		if n >= 1 && n <= len(all) {
			return all[n-1], nil
		}
		return 0, fmt.Errorf("no action numbered %d", n)
	}
	for _, a := range Actions() {
		if s == a.Key() || s == strings.ToLower(a.String()) {
			return a, nil
		}
	}
	return 0, fmt.Errorf("unknown action %q", s)
}
