package simrun

import (
	"errors"
	"strings"
	"testing"
)

func TestValidate_Valid(t *testing.T) {
	cfg := Config{MaxSteps: 100, PopulationSize: 50, Seed: 42}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}

func TestValidate_ZeroSeedIsValid(t *testing.T) {
	cfg := Config{MaxSteps: 1, PopulationSize: 1}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil (zero seed defaults)", err)
	}
}

func TestValidate_AccumulatesAllViolations(t *testing.T) {
	cfg := Config{MaxSteps: 0, PopulationSize: -3, Seed: -1}
	err := cfg.Validate()

	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("Validate() = %v, want *ValidationError", err)
	}
	want := []string{
		"maxSteps must be > 0",
		"populationSize must be > 0",
		"seed must not be negative",
	}
	if len(ve.Violations) != len(want) {
		t.Fatalf("Violations = %v, want %v", ve.Violations, want)
	}
	for i, w := range want {
		if ve.Violations[i] != w {
			t.Errorf("Violations[%d] = %q, want %q", i, ve.Violations[i], w)
		}
	}
}

func TestValidate_SingleViolation(t *testing.T) {
	cfg := Config{MaxSteps: 10, PopulationSize: 5, Seed: -7}
	err := cfg.Validate()

	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("Validate() = %v, want *ValidationError", err)
	}
	if len(ve.Violations) != 1 || ve.Violations[0] != "seed must not be negative" {
		t.Errorf("Violations = %v", ve.Violations)
	}
}

func TestValidationError_MessageJoinsViolations(t *testing.T) {
	err := (Config{}).Validate()
	if !strings.Contains(err.Error(), "maxSteps must be > 0; populationSize must be > 0") {
		t.Errorf("Error() = %q, want joined violations", err.Error())
	}
}
