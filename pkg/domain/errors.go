package domain

import "errors"

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrNoPendingStep is returned when an operation needs a current step but the plan is complete.
var ErrNoPendingStep = errors.New("no pending step")

// ErrStepNotFound is returned when a step number does not exist in the plan.
var ErrStepNotFound = errors.New("step not found")

// ErrStepNotPending is returned when revising a step that was already acted upon.
var ErrStepNotPending = errors.New("step is not pending")

// ErrEmptyPlan is returned when the planner produced no steps.
var ErrEmptyPlan = errors.New("planner returned an empty plan")

// ErrInvalidDomain is returned for unknown domain names.
var ErrInvalidDomain = errors.New("invalid domain")

// ErrInvalidDepth is returned for unknown depth names.
var ErrInvalidDepth = errors.New("invalid depth")

// ErrMissingGoal is returned when no goal was supplied and none can be prompted for.
var ErrMissingGoal = errors.New("goal is required")

// ErrPlannerUnavailable is returned when the planner backend cannot be reached or configured.
var ErrPlannerUnavailable = errors.New("planner unavailable")
