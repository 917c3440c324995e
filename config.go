package simrun

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the structural configuration for a simulation run.
//
// Config is a value type: it carries the fields the supervisor checks before
// init plus an opaque parameter block the engine interprets on its own.
// Once handed to [Session.Init] it must not be mutated.
type Config struct {
	// MaxSteps is the planned number of simulation steps. Must be positive.
	MaxSteps int `json:"maxSteps" yaml:"maxSteps"`

	// PopulationSize is the initial agent population. Must be positive.
	PopulationSize int `json:"populationSize" yaml:"populationSize"`

	// Seed seeds the engine's RNG streams. Zero means "use DefaultSeed" —
	// engines reject a missing seed, so init never sends zero.
	Seed int64 `json:"seed,omitempty" yaml:"seed,omitempty"`

	// Params holds domain fields (disease, environment, agent attributes)
	// that the supervisor forwards verbatim and never interprets.
	Params map[string]any `json:"params,omitempty" yaml:"params,omitempty"`
}

// DefaultSeed is substituted for Config.Seed when the caller leaves it zero.
const DefaultSeed int64 = 1

// EffectiveSeed returns Seed, or DefaultSeed when Seed is zero.
func (c Config) EffectiveSeed() int64 {
	if c.Seed == 0 {
		return DefaultSeed
	}
	return c.Seed
}

// LoadConfig reads a Config from a JSON (.json) or YAML (.yaml, .yml) file.
// The loaded config is returned unvalidated — callers pass it to
// [Session.Init], which validates, or call [Config.Validate] directly.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("simrun: read config: %w", err)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("simrun: parse yaml config %s: %w", path, err)
		}
	case ".json":
		if err := json.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("simrun: parse json config %s: %w", path, err)
		}
	default:
		return Config{}, fmt.Errorf("simrun: config %s: unsupported extension (want .json, .yaml or .yml)", path)
	}
	return cfg, nil
}
