package sidecar

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ecosysx/simrun"
)

// defaultCandidates are the relative locations searched for the sidecar
// script, in order. The list tolerates being launched from a build
// directory, the repository root, or a sibling checkout.
var defaultCandidates = []string{
	"services/mesa-sidecar/main.py",
	"mesa-sidecar/main.py",
	"sidecar/main.py",
}

// locateScript resolves the sidecar script path. An explicit override wins
// but must exist; otherwise each candidate is tried relative to the working
// directory and then to its parent. Failure is a wrapped simrun.ErrSpawn,
// surfaced before any attempt to spawn.
func locateScript(override string, candidates []string) (string, error) {
	if override != "" {
		if fileExists(override) {
			return override, nil
		}
		return "", fmt.Errorf("%w: sidecar script not found: %s", simrun.ErrSpawn, override)
	}

	if len(candidates) == 0 {
		candidates = defaultCandidates
	}
	for _, rel := range candidates {
		if fileExists(rel) {
			return rel, nil
		}
		parent := filepath.Join("..", rel)
		if fileExists(parent) {
			return parent, nil
		}
	}
	return "", fmt.Errorf("%w: no sidecar script found in %d candidate locations (set WithScript)",
		simrun.ErrSpawn, len(candidates))
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
