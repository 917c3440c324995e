package simrun

import "strings"

// ValidationError reports every structural violation found in a Config.
// Violations accumulate — callers get the full list, not just the first.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return "simrun: invalid config: " + strings.Join(e.Violations, "; ")
}

// Validate checks a Config structurally before it may initialize an engine.
// It is side-effect free and does not short-circuit: all violations are
// collected and returned together as a *ValidationError. Returns nil when
// the config is acceptable.
//
// Checks run in a fixed order: maxSteps, populationSize, seed.
func (c Config) Validate() error {
	var violations []string

	if c.MaxSteps <= 0 {
		violations = append(violations, "maxSteps must be > 0")
	}
	if c.PopulationSize <= 0 {
		violations = append(violations, "populationSize must be > 0")
	}
	if c.Seed < 0 {
		violations = append(violations, "seed must not be negative")
	}

	if len(violations) > 0 {
		return &ValidationError{Violations: violations}
	}
	return nil
}
