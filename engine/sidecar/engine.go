//go:build !windows

package sidecar

import (
	"fmt"
	"os/exec"

	"github.com/ecosysx/simrun"
)

// Engine locates the simulation sidecar and opens supervised sessions over
// its stdin/stdout.
type Engine struct {
	opts EngineOptions
}

var _ simrun.Engine = (*Engine)(nil)

// New creates a sidecar engine. Use EngineOption functions to customize the
// interpreter, script discovery, buffer sizes, and timeouts.
func New(opts ...EngineOption) *Engine {
	return &Engine{opts: resolveEngineOptions(opts...)}
}

// Validate checks that the engine executable can be resolved: a direct
// command on PATH, or an interpreter plus a discoverable sidecar script.
func (e *Engine) Validate() error {
	_, _, err := resolveCommand(e.opts)
	return err
}

// Open creates a new session in the Idle state. The process is not spawned
// until Session.Start; executable resolution failures surface there as
// wrapped simrun.ErrSpawn.
func (e *Engine) Open() (simrun.Session, error) {
	return newSession(e.opts), nil
}

// resolveCommand resolves the binary and argument list used to spawn the
// engine process. With Command set, the script machinery is bypassed.
func resolveCommand(opts EngineOptions) (string, []string, error) {
	if opts.Command != "" {
		resolved, err := exec.LookPath(opts.Command)
		if err != nil {
			return "", nil, fmt.Errorf("%w: %s: %w", simrun.ErrSpawn, opts.Command, err)
		}
		return resolved, opts.Args, nil
	}

	interp, err := exec.LookPath(opts.Interpreter)
	if err != nil {
		return "", nil, fmt.Errorf("%w: interpreter %s: %w", simrun.ErrSpawn, opts.Interpreter, err)
	}
	script, err := locateScript(opts.Script, opts.Candidates)
	if err != nil {
		return "", nil, err
	}
	args := append([]string{script}, opts.Args...)
	return interp, args, nil
}
