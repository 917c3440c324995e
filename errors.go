package simrun

import (
	"errors"
	"strconv"
)

// Sentinel errors for session operations.
var (
	// ErrSpawn indicates the engine executable could not be located or
	// started. Fatal to the session; callers must retry Start on a fresh one.
	ErrSpawn = errors.New("simrun: engine spawn failed")

	// ErrNotReady indicates a command was issued in a state that structurally
	// cannot accept it (for example step before the engine is ready). The
	// command is rejected synchronously; nothing reaches the wire.
	ErrNotReady = errors.New("simrun: engine not ready")

	// ErrTerminated indicates the session has ended and accepts no further
	// commands.
	ErrTerminated = errors.New("simrun: session terminated")
)

// ExitError represents an engine process that exited with a non-zero status.
// Wraps the underlying error to preserve the chain — consumers can errors.As
// to *exec.ExitError for OS-level detail.
//
// Code semantics: positive = exit status, negative (-1) = signal-killed.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return "simrun: exit status " + strconv.Itoa(e.Code)
}

func (e *ExitError) Unwrap() error { return e.Err }

// ExitCode extracts the exit code from an error chain containing *ExitError.
// Returns (0, false) if the error does not contain one.
func ExitCode(err error) (int, bool) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code, true
	}
	return 0, false
}

// ProtocolError is a wire-level failure: an undecodable inbound record or a
// short write of an outbound one. A bad inbound record is recoverable (the
// stream continues); a short write is fatal to the in-flight command.
type ProtocolError struct {
	// Op is the failing operation: "read" or "write".
	Op string

	// Line is the offending inbound record, when Op is "read".
	Line string

	// Err is the underlying cause, if any.
	Err error
}

func (e *ProtocolError) Error() string {
	msg := "simrun: protocol error on " + e.Op
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ProtocolError) Unwrap() error { return e.Err }
