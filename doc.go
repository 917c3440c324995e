// Package simrun supervises external simulation engine processes.
//
// simrun owns the lifetime of a long-running engine sidecar and talks to it
// over line-delimited JSON on the child's stdin/stdout. It gets the lifecycle
// protocol right under concurrency and partial failure: commands are never
// sent before the engine signals readiness, duplicate control calls are
// no-ops instead of corruption, and a supervisor-requested teardown is never
// reported as a crash.
//
// # Core Types
//
//   - [Engine] — locates the sidecar executable and opens sessions
//   - [Session] — one supervised engine run: start, init, step, stop
//   - [Config] — structural simulation configuration handed to Init
//   - [Event] — lifecycle and error events emitted by a session
//   - [State] — the session state machine's current state
//
// # Vocabulary
//
// The root package defines the shared vocabulary; engine backends translate
// it into their wire format. The stdio sidecar backend lives in
// engine/sidecar.
//
// # Quick Start
//
//	eng := sidecar.New()
//	sess, err := eng.Open()
//	if err != nil { log.Fatal(err) }
//	sess.Start()
//	sess.Init(simrun.Config{MaxSteps: 10000, PopulationSize: 100})
//	for ev := range sess.Events() {
//	    fmt.Println(ev.Type)
//	}
package simrun
