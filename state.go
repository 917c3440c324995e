package simrun

// State is the session state machine's current state. Exactly one session
// owns one supervised process; every state+call pair has a defined outcome
// (accept, queue, reject, or no-op) — see engine/sidecar for the table.
type State string

const (
	// StateIdle is the initial state: no process exists yet.
	StateIdle State = "idle"

	// StateStarting means the process was spawned but has not signaled
	// readiness. Init and stop calls queue; step calls are rejected.
	StateStarting State = "starting"

	// StateInitPending means readiness arrived with a queued init in flight.
	StateInitPending State = "init_pending"

	// StateReady means the engine accepts commands.
	StateReady State = "ready"

	// StateStepping means at least one step command is in flight.
	StateStepping State = "stepping"

	// StateStopping means a stop is in progress, deadline armed.
	StateStopping State = "stopping"

	// StateStopped is terminal: the process exited after a requested stop.
	StateStopped State = "stopped"

	// StateCrashed is terminal: the process exited unexpectedly.
	StateCrashed State = "crashed"

	// StateError is terminal: the session failed before or during startup
	// (spawn failure, startup timeout).
	StateError State = "error"
)

// Terminal reports whether s is a state the session never leaves.
func (s State) Terminal() bool {
	switch s {
	case StateStopped, StateCrashed, StateError:
		return true
	}
	return false
}
