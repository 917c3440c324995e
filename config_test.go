package simrun

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfig_JSON(t *testing.T) {
	path := writeConfig(t, "sim.json", `{
		"maxSteps": 500,
		"populationSize": 200,
		"seed": 7,
		"params": {"infectionRate": 0.25}
	}`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.MaxSteps != 500 || cfg.PopulationSize != 200 || cfg.Seed != 7 {
		t.Errorf("cfg = %+v", cfg)
	}
	if rate, ok := cfg.Params["infectionRate"].(float64); !ok || rate != 0.25 {
		t.Errorf("Params[infectionRate] = %v", cfg.Params["infectionRate"])
	}
}

func TestLoadConfig_YAML(t *testing.T) {
	path := writeConfig(t, "sim.yaml", `
maxSteps: 100
populationSize: 50
params:
  gridWidth: 40
  gridHeight: 40
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.MaxSteps != 100 || cfg.PopulationSize != 50 {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Seed != 0 {
		t.Errorf("Seed = %d, want 0 (unset)", cfg.Seed)
	}
}

func TestLoadConfig_UnsupportedExtension(t *testing.T) {
	path := writeConfig(t, "sim.toml", `maxSteps = 5`)
	if _, err := LoadConfig(path); err == nil || !strings.Contains(err.Error(), "unsupported extension") {
		t.Errorf("LoadConfig(.toml) error = %v", err)
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Error("LoadConfig of a missing file should fail")
	}
}

func TestLoadConfig_MalformedYAML(t *testing.T) {
	path := writeConfig(t, "bad.yml", "maxSteps: [unclosed")
	if _, err := LoadConfig(path); err == nil {
		t.Error("LoadConfig of malformed YAML should fail")
	}
}

func TestEffectiveSeed(t *testing.T) {
	if got := (Config{}).EffectiveSeed(); got != DefaultSeed {
		t.Errorf("zero seed → %d, want DefaultSeed %d", got, DefaultSeed)
	}
	if got := (Config{Seed: 99}).EffectiveSeed(); got != 99 {
		t.Errorf("explicit seed → %d, want 99", got)
	}
}
