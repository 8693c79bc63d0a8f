package domain

import (
	"fmt"
	"strings"
)

// Domain selects the planner specialisation and default examples.
type Domain string

const (
	DomainDocumentation Domain = "documentation"
	DomainCICD          Domain = "cicd"
	DomainData          Domain = "data"
	DomainCustom        Domain = "custom"
)

// Domains returns the known domains in menu order.
func Domains() []Domain {
	return []Domain{DomainDocumentation, DomainCICD, DomainData, DomainCustom}
}

// ParseDomain resolves a domain name (case-insensitive).
func ParseDomain(s string) (Domain, error) {
	d := Domain(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Domains() {
		if d == known {
			return d, nil
		}
	}
	return "", fmt.Errorf("%w: %q (expected one of documentation, cicd, data, custom)", ErrInvalidDomain, s)
}

// ExampleGoal returns the placeholder goal offered when none was given.
func (d Domain) ExampleGoal() string {
	switch d {
	case DomainDocumentation:
		return "Document the public API of my-project"
	case DomainCICD:
		return "Build and deploy my-app to staging"
	case DomainData:
		return "Clean and aggregate sales.csv into a monthly report"
	default:
		return "Describe what you want to accomplish"
	}
}

// Label is the human-readable name used in menus.
func (d Domain) Label() string {
	switch d {
	case DomainDocumentation:
		return "Documentation"
	case DomainCICD:
		return "CI/CD pipeline"
	case DomainData:
		return "Data processing"
	default:
		return "Custom"
	}
}

// Depth is the requested planning thoroughness.
type Depth string

const (
	DepthShallow Depth = "shallow"
	DepthMedium  Depth = "medium"
	DepthDeep    Depth = "deep"
)

// ParseDepth resolves a depth name (case-insensitive).
func ParseDepth(s string) (Depth, error) {
	switch d := Depth(strings.ToLower(strings.TrimSpace(s))); d {
	case DepthShallow, DepthMedium, DepthDeep:
		return d, nil
	}
	return "", fmt.Errorf("%w: %q (expected shallow, medium or deep)", ErrInvalidDepth, s)
}

// FailurePolicy decides what an autonomous run does after a failed step.
type FailurePolicy string

const (
	// FailHalt stops the run at the first failed step.
	FailHalt FailurePolicy = "halt"
	// FailContinue records the failure and moves on.
	FailContinue FailurePolicy = "continue"
)

// ParseFailurePolicy resolves a policy name.
func ParseFailurePolicy(s string) (FailurePolicy, error) {
	switch p := FailurePolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case FailHalt, FailContinue:
		return p, nil
	case "":
		return FailHalt, nil
	}
	return "", fmt.Errorf("invalid failure policy %q (expected halt or continue)", s)
}

// DefaultMaxSteps bounds plan length when nothing else was requested.
const DefaultMaxSteps = 20

// PlannerConfig is the planning request configuration.
type PlannerConfig struct {
	MaxSteps int   `json:"max_steps"`
	Depth    Depth `json:"depth"`
	Fallback bool  `json:"fallback"`
}

// DefaultPlannerConfig returns the documented defaults.
func DefaultPlannerConfig() PlannerConfig {
	return PlannerConfig{
		MaxSteps: DefaultMaxSteps,
		Depth:    DepthMedium,
	}
}
