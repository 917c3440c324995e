package simrun

import (
	"encoding/json"
	"time"
)

// EventType identifies the kind of event emitted by a session.
type EventType string

const (
	// EventStarted means the engine process signaled readiness.
	EventStarted EventType = "started"

	// EventInitialized means the engine accepted the configuration.
	EventInitialized EventType = "initialized"

	// EventStepped reports a completed step batch.
	EventStepped EventType = "stepped"

	// EventStopped means the session reached the Stopped state.
	EventStopped EventType = "stopped"

	// EventSnapshot carries an engine state snapshot payload.
	EventSnapshot EventType = "snapshot"

	// EventError reports a validation, protocol, spawn, or engine error.
	EventError EventType = "error"

	// EventCrashed means the process exited without the supervisor asking.
	EventCrashed EventType = "crashed"

	// EventTerminated means the process exited after a supervisor-requested
	// stop (graceful or escalated to a kill). Never conflated with crashed.
	EventTerminated EventType = "terminated"
)

// ErrorKind classifies an EventError.
type ErrorKind string

const (
	// ErrorValidation is a malformed Config, caught before any process I/O.
	ErrorValidation ErrorKind = "validation"

	// ErrorProtocol is a malformed record or a short write on the wire.
	ErrorProtocol ErrorKind = "protocol"

	// ErrorSpawn means the engine executable could not be located or started.
	ErrorSpawn ErrorKind = "spawn"

	// ErrorNotReady means a command was issued in a state that cannot accept it.
	ErrorNotReady ErrorKind = "not_ready"

	// ErrorEngine is an error reply from the engine itself.
	ErrorEngine ErrorKind = "engine"
)

// StopReason says how a stopped session came down.
type StopReason string

const (
	// StopGraceful means the engine acknowledged stop and exited in time.
	StopGraceful StopReason = "graceful"

	// StopForced means the stop deadline elapsed and the supervisor killed
	// the process.
	StopForced StopReason = "forced"
)

// Event is a lifecycle or error event emitted by a session.
//
// CorrelationID links the event to the command that caused it; zero means
// the event was unsolicited (for example a process exit).
type Event struct {
	// Type identifies the kind of event.
	Type EventType `json:"type"`

	// CorrelationID is the id of the originating command, or 0 if unsolicited.
	CorrelationID int64 `json:"correlation_id,omitempty"`

	// PlannedSteps is the run's step budget (Initialized, Stepped).
	PlannedSteps int `json:"planned_steps,omitempty"`

	// Tick is the engine's current tick (Stepped).
	Tick int `json:"tick,omitempty"`

	// Reason says how the session came down (Stopped).
	Reason StopReason `json:"reason,omitempty"`

	// ExitCode is the process exit code (Crashed, Terminated).
	ExitCode int `json:"exit_code,omitempty"`

	// Kind classifies the error (Error).
	Kind ErrorKind `json:"kind,omitempty"`

	// Message is the human-readable error text (Error).
	Message string `json:"message,omitempty"`

	// Payload is the raw engine payload (Snapshot).
	Payload json.RawMessage `json:"payload,omitempty"`

	// Timestamp is when the session observed the event.
	Timestamp time.Time `json:"timestamp"`
}

// LogLine is one human-readable diagnostic line from a session. Every line
// carries the correlation ID of the command it concerns so command/response
// pairs stay traceable under concurrent submission.
type LogLine struct {
	// Seq orders lines within a session, starting at 1.
	Seq int64 `json:"seq"`

	// CorrelationID is the related command id, or 0 for unsolicited activity.
	CorrelationID int64 `json:"correlation_id,omitempty"`

	// Text is the diagnostic message.
	Text string `json:"text"`

	// Timestamp is when the line was produced.
	Timestamp time.Time `json:"timestamp"`
}
