package simrun

import "context"

// Engine locates a simulation engine executable and opens supervised sessions.
//
// Implementations own discovery and spawning policy; the stdio sidecar engine
// lives in engine/sidecar. Use Validate to check prerequisites before Open.
type Engine interface {
	// Open creates a new session in the Idle state. No process is spawned
	// until the caller invokes Session.Start.
	Open() (Session, error)

	// Validate checks that the engine executable can be resolved.
	Validate() error
}

// Session is one supervised engine run.
//
// All command methods are asynchronous: they hand the command to the
// session's owning goroutine and return its synchronous accept/reject
// verdict without waiting for the engine's reply. Outcomes arrive on the
// Events channel, tagged with the correlation ID of the causing command.
//
// A session owns its process handle exclusively. Command methods are safe to
// call from any goroutine.
type Session interface {
	// Start spawns the engine process. Idempotent: calling it again while
	// the session is Starting, Ready, or Stepping is a no-op. Returns
	// ErrSpawn (wrapped) if the executable cannot be located or started.
	Start() error

	// Init validates cfg and submits it to the engine. Called before
	// readiness, the command queues and is flushed once the engine signals
	// Started. A second init after the engine is initialized is a no-op.
	// Returns a *ValidationError before any bytes reach the wire when cfg
	// is structurally invalid.
	Init(cfg Config) error

	// Step advances the simulation by n ticks. Rejected with ErrNotReady
	// unless the session is Ready or Stepping — stepping an uninitialized
	// engine is a caller bug, not a timing race to paper over.
	Step(n int) error

	// Reset rewinds the engine to its initial configuration and clears the
	// session's step history. Gated like Step.
	Reset() error

	// Snapshot requests an engine state snapshot of the given kind, delivered
	// as an EventSnapshot. Gated like Step.
	Snapshot(kind string) error

	// Stop shuts the session down. Idempotent. A stop issued before
	// readiness queues behind earlier commands and short-circuits anything
	// submitted after it. The deadline is short when no step ever completed
	// and generous otherwise; on expiry the process is killed and the exit
	// is reported as Terminated, never Crashed.
	Stop(ctx context.Context) error

	// Events returns the event stream. Closed when the session ends.
	Events() <-chan Event

	// Logs returns the diagnostic line stream. Closed when the session ends.
	Logs() <-chan LogLine

	// State returns the session's current state.
	State() State

	// Wait blocks until the session reaches a terminal state and returns the
	// terminal error: nil after a clean stop, *ExitError or another cause
	// otherwise.
	Wait() error
}
