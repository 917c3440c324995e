package sidecar

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
)

// Default engine configuration values.
const (
	defaultInterpreter    = "python3"
	defaultEventBuffer    = 256       // events per session before emit blocks
	defaultLogBuffer      = 512       // diagnostic lines buffered before drop
	defaultMaxRecordSize  = 1 << 20   // 1 MB per inbound record
	defaultStartupTimeout = 10 * time.Second
	defaultStopGraceFast  = 100 * time.Millisecond // nothing stepped, nothing to flush
	defaultStopGraceFull  = 2 * time.Second        // let the engine persist state
	recordQueueSize       = 64        // inbound records buffered ahead of the run loop
	callQueueSize         = 16        // caller commands buffered ahead of the run loop
	killGrace             = 250 * time.Millisecond // SIGTERM → SIGKILL beat on escalation
)

// EngineOptions holds resolved construction-time configuration.
type EngineOptions struct {
	// Command is a direct path to an engine executable. When set, the
	// interpreter and script discovery are bypassed entirely.
	Command string

	// Interpreter runs the sidecar script (default "python3").
	Interpreter string

	// Script is an explicit sidecar script path, overriding discovery.
	Script string

	// Candidates are the relative script locations searched in order when
	// Script is empty. Defaults to the standard sidecar layout.
	Candidates []string

	// Args are extra arguments appended after the script path.
	Args []string

	// WorkDir is the child process working directory ("" = inherit).
	WorkDir string

	// EventBuffer is the Events channel buffer size.
	EventBuffer int

	// LogBuffer is the Logs channel buffer size. Diagnostic lines are
	// dropped, never blocked on, when the buffer is full.
	LogBuffer int

	// MaxRecordSize caps a single inbound record, in bytes.
	MaxRecordSize int

	// StartupTimeout bounds the wait for the engine's started event. On
	// expiry the process is killed and the session enters the Error state.
	StartupTimeout time.Duration

	// StopGraceFast is the stop deadline when no step ever completed.
	StopGraceFast time.Duration

	// StopGraceFull is the stop deadline after at least one completed step.
	StopGraceFull time.Duration

	// Logger receives structured diagnostics. Nil means slog.Default().
	Logger *slog.Logger
}

// EngineOption configures an Engine at construction time.
type EngineOption func(*EngineOptions)

// WithCommand sets a direct engine executable, bypassing script discovery.
func WithCommand(path string) EngineOption {
	return func(o *EngineOptions) {
		o.Command = path
	}
}

// WithInterpreter sets the interpreter that runs the sidecar script.
func WithInterpreter(path string) EngineOption {
	return func(o *EngineOptions) {
		if path != "" {
			o.Interpreter = path
		}
	}
}

// WithScript sets an explicit sidecar script path.
func WithScript(path string) EngineOption {
	return func(o *EngineOptions) {
		o.Script = path
	}
}

// WithCandidates replaces the relative script locations searched in order.
func WithCandidates(paths ...string) EngineOption {
	return func(o *EngineOptions) {
		o.Candidates = paths
	}
}

// WithArgs sets extra arguments appended after the script path.
func WithArgs(args ...string) EngineOption {
	return func(o *EngineOptions) {
		o.Args = args
	}
}

// WithWorkDir sets the child process working directory.
func WithWorkDir(dir string) EngineOption {
	return func(o *EngineOptions) {
		o.WorkDir = dir
	}
}

// WithEventBuffer sets the Events channel buffer size. Values <= 0 are ignored.
func WithEventBuffer(size int) EngineOption {
	return func(o *EngineOptions) {
		if size > 0 {
			o.EventBuffer = size
		}
	}
}

// WithStartupTimeout bounds the wait for the engine's started event.
// Values <= 0 are ignored.
func WithStartupTimeout(d time.Duration) EngineOption {
	return func(o *EngineOptions) {
		if d > 0 {
			o.StartupTimeout = d
		}
	}
}

// WithStopGrace sets the stop deadlines: fast applies when no step ever
// completed, full after at least one. Values <= 0 are ignored individually.
func WithStopGrace(fast, full time.Duration) EngineOption {
	return func(o *EngineOptions) {
		if fast > 0 {
			o.StopGraceFast = fast
		}
		if full > 0 {
			o.StopGraceFull = full
		}
	}
}

// WithLogger sets the structured logger for session diagnostics.
func WithLogger(l *slog.Logger) EngineOption {
	return func(o *EngineOptions) {
		o.Logger = l
	}
}

// envOverrides maps SIMRUN_* environment variables onto engine options.
type envOverrides struct {
	Command        string        `env:"SIMRUN_COMMAND"`
	Interpreter    string        `env:"SIMRUN_INTERPRETER"`
	Script         string        `env:"SIMRUN_SCRIPT"`
	StartupTimeout time.Duration `env:"SIMRUN_STARTUP_TIMEOUT"`
	StopGraceFast  time.Duration `env:"SIMRUN_STOP_GRACE_FAST"`
	StopGraceFull  time.Duration `env:"SIMRUN_STOP_GRACE_FULL"`
	EventBuffer    int           `env:"SIMRUN_EVENT_BUFFER"`
}

// FromEnv returns an option applying SIMRUN_* environment overrides. Unset
// variables leave the corresponding option untouched.
func FromEnv() (EngineOption, error) {
	var o envOverrides
	if err := env.Parse(&o); err != nil {
		return nil, fmt.Errorf("sidecar: parse env: %w", err)
	}
	return func(target *EngineOptions) {
		if o.Command != "" {
			target.Command = o.Command
		}
		if o.Interpreter != "" {
			target.Interpreter = o.Interpreter
		}
		if o.Script != "" {
			target.Script = o.Script
		}
		if o.StartupTimeout > 0 {
			target.StartupTimeout = o.StartupTimeout
		}
		if o.StopGraceFast > 0 {
			target.StopGraceFast = o.StopGraceFast
		}
		if o.StopGraceFull > 0 {
			target.StopGraceFull = o.StopGraceFull
		}
		if o.EventBuffer > 0 {
			target.EventBuffer = o.EventBuffer
		}
	}, nil
}

func resolveEngineOptions(opts ...EngineOption) EngineOptions {
	o := EngineOptions{
		Interpreter:    defaultInterpreter,
		EventBuffer:    defaultEventBuffer,
		LogBuffer:      defaultLogBuffer,
		MaxRecordSize:  defaultMaxRecordSize,
		StartupTimeout: defaultStartupTimeout,
		StopGraceFast:  defaultStopGraceFast,
		StopGraceFull:  defaultStopGraceFull,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}
