// Package sidecar supervises a simulation engine process over newline-
// delimited JSON on the child's stdin/stdout.
//
// The package splits the problem the way the wire does:
//
//   - Engine resolves the sidecar executable (candidate-path search or
//     explicit override) and opens sessions.
//   - session is the state machine. A single run-loop goroutine owns all
//     state and all writes; callers hand commands across a channel and get
//     the accept/reject verdict back synchronously.
//   - transport frames outbound commands as one-line JSON records and
//     decodes inbound lines, one record per line.
//   - supervisor owns the process handle and reports its exit, flagging
//     whether the exit was supervisor-requested.
//   - commandQueue buffers commands issued before the engine signals
//     readiness and flushes them in submission order.
package sidecar
