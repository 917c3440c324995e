//go:build !windows

package sidecar

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/ecosysx/simrun"
	"github.com/ecosysx/simrun/engine/internal/errfmt"
)

// emitDeadline bounds how long the run loop waits to deliver an event to a
// subscriber that is not draining. Nothing on the owning goroutine may block
// without a deadline.
const emitDeadline = 5 * time.Second

// drainDeadline bounds the wait for straggler records after the process
// exits (the stop acknowledgement can race the exit status).
const drainDeadline = 200 * time.Millisecond

type callKind int

const (
	callStart callKind = iota
	callInit
	callStep
	callReset
	callSnapshot
	callStop
)

// sessionCall is one caller command handed to the run loop. The run loop
// replies with the synchronous accept/reject verdict.
type sessionCall struct {
	kind  callKind
	cfg   simrun.Config
	count int
	snap  string
	reply chan error
}

// session implements simrun.Session for a stdio sidecar process.
//
// All state mutation and all writes to the process's stdin happen on the
// run-loop goroutine. Callers hand commands across the calls channel;
// inbound records and the process exit status arrive on their own channels
// and are folded into the same loop, so an event and an outgoing command can
// never interleave unsafely.
type session struct {
	opts EngineOptions
	log  *slog.Logger

	calls  chan sessionCall
	events chan simrun.Event
	logs   chan simrun.LogLine
	done   chan struct{}

	state atomic.Value // simrun.State, published by the run loop

	// Everything below is owned exclusively by the run loop.
	sup      *supervisor
	tr       *transport
	queue    commandQueue
	recs     <-chan record
	exitCh   <-chan exitStatus
	startupC <-chan time.Time

	corr          int64
	logSeq        int64
	everStepped   bool
	initAccepted  bool
	initialized   bool
	stepsInFlight int
	pending       map[int64]string // correlation ID → method
	queuedInit    bool
	stopQueued    bool
	stopCorr      int64
	stopReason    simrun.StopReason
	lastTick      int
	plannedSteps  int

	termErr error
	closing bool // set by handlers that end the session without a process exit
}

var _ simrun.Session = (*session)(nil)

// newSession creates an Idle session and starts its run loop.
func newSession(opts EngineOptions) *session {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &session{
		opts:    opts,
		log:     logger,
		calls:   make(chan sessionCall, callQueueSize),
		events:  make(chan simrun.Event, opts.EventBuffer),
		logs:    make(chan simrun.LogLine, opts.LogBuffer),
		done:    make(chan struct{}),
		pending: make(map[int64]string),
	}
	s.state.Store(simrun.StateIdle)
	go s.run()
	return s
}

// --- Caller-facing API ---

// Start spawns the engine process. Idempotent while the session is live.
func (s *session) Start() error {
	return s.submit(sessionCall{kind: callStart})
}

// Init validates cfg and submits it; before readiness the command queues.
func (s *session) Init(cfg simrun.Config) error {
	return s.submit(sessionCall{kind: callInit, cfg: cfg})
}

// Step advances the simulation by n ticks.
func (s *session) Step(n int) error {
	if n <= 0 {
		return fmt.Errorf("sidecar: step count must be > 0, got %d", n)
	}
	return s.submit(sessionCall{kind: callStep, count: n})
}

// Reset rewinds the engine to its initial configuration.
func (s *session) Reset() error {
	return s.submit(sessionCall{kind: callReset})
}

// Snapshot requests an engine state snapshot. Empty kind means "full".
func (s *session) Snapshot(kind string) error {
	if kind == "" {
		kind = "full"
	}
	return s.submit(sessionCall{kind: callSnapshot, snap: kind})
}

// Stop shuts the session down. ctx bounds only the caller's wait for the
// verdict; the shutdown itself runs on its everStepped-derived deadline.
func (s *session) Stop(ctx context.Context) error {
	c := sessionCall{kind: callStop, reply: make(chan error, 1)}
	select {
	case s.calls <- c:
	case <-s.done:
		return nil // already down — stop is idempotent
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-c.reply:
		return err
	case <-s.done:
		return s.collectReply(c)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Events returns the event stream. Callers must drain it: the session
// delivers in order and, if nobody is reading, drops an event only after a
// bounded wait, with a logged warning.
func (s *session) Events() <-chan simrun.Event {
	return s.events
}

// Logs returns the diagnostic line stream. Lines are dropped, never blocked
// on, when the buffer is full.
func (s *session) Logs() <-chan simrun.LogLine {
	return s.logs
}

// State returns the current state as last published by the run loop.
func (s *session) State() simrun.State {
	return s.state.Load().(simrun.State)
}

// Wait blocks until the session reaches a terminal state.
func (s *session) Wait() error {
	<-s.done
	return s.termErr
}

// submit hands a call to the run loop and returns its verdict.
func (s *session) submit(c sessionCall) error {
	c.reply = make(chan error, 1)
	select {
	case s.calls <- c:
	case <-s.done:
		return simrun.ErrTerminated
	}
	select {
	case err := <-c.reply:
		return err
	case <-s.done:
		return s.collectReply(c)
	}
}

// collectReply picks up a verdict that raced with session shutdown.
func (s *session) collectReply(c sessionCall) error {
	select {
	case err := <-c.reply:
		return err
	default:
		return simrun.ErrTerminated
	}
}

// --- Run loop ---

func (s *session) run() {
	defer func() {
		if s.tr != nil {
			s.tr.close()
		}
		close(s.events)
		close(s.logs)
		close(s.done)
	}()

	for {
		select {
		case c := <-s.calls:
			s.handleCall(c)
		case rec, ok := <-s.recs:
			if !ok {
				s.recs = nil // EOF; the exit status is on its way
				continue
			}
			s.handleRecord(rec)
		case exit := <-s.exitCh:
			s.handleExit(exit)
			return
		case <-s.startupC:
			s.handleStartupTimeout()
		}
		if s.closing {
			return
		}
	}
}

func (s *session) handleCall(c sessionCall) {
	var err error
	switch c.kind {
	case callStart:
		err = s.handleStart()
	case callInit:
		err = s.handleInit(c.cfg)
	case callStep:
		err = s.handleStep(c.count)
	case callReset:
		err = s.handleWireCall(MethodReset, resetParams{})
	case callSnapshot:
		err = s.handleWireCall(MethodSnapshot, snapshotParams{Kind: c.snap})
	case callStop:
		err = s.handleStop()
	}
	c.reply <- err
}

// handleStart spawns the process. Idle → Starting; live states are a no-op;
// terminal states reject.
func (s *session) handleStart() error {
	st := s.State()
	if st.Terminal() {
		return simrun.ErrTerminated
	}
	if st != simrun.StateIdle {
		s.logf(0, "start ignored: session already %s", st)
		return nil
	}

	binary, args, err := resolveCommand(s.opts)
	if err != nil {
		return s.failStartup(err)
	}
	sup, err := spawnSupervisor(binary, args, s.opts.WorkDir)
	if err != nil {
		return s.failStartup(err)
	}

	s.sup = sup
	s.tr = newTransport(sup.stdout, sup.stdin, s.opts.MaxRecordSize)
	s.recs = s.tr.records()
	s.exitCh = sup.exits()

	// The read loop is the sole precursor to cmd.Wait: the exit status is
	// reported only after stdout has been drained to EOF.
	go func(tr *transport, sup *supervisor) {
		tr.readLoop()
		sup.reportExit()
	}(s.tr, s.sup)

	s.setState(simrun.StateStarting)
	s.startupC = time.After(s.opts.StartupTimeout)
	s.logf(0, "starting engine: %s %s", binary, strings.Join(args, " "))
	return nil
}

// failStartup records a spawn failure and ends the session in Error.
func (s *session) failStartup(err error) error {
	s.setState(simrun.StateError)
	s.emit(simrun.Event{Type: simrun.EventError, Kind: simrun.ErrorSpawn, Message: err.Error()})
	s.logf(0, "spawn failed: %v", err)
	s.termErr = err
	s.closing = true
	return err
}

// handleInit validates and routes an init command: queued before readiness,
// sent directly after, a no-op once an init has been accepted.
func (s *session) handleInit(cfg simrun.Config) error {
	st := s.State()
	if st.Terminal() {
		return simrun.ErrTerminated
	}
	if st == simrun.StateStopping || s.stopQueued {
		return s.rejectNotReady(0, "init refused: session is stopping")
	}

	if err := cfg.Validate(); err != nil {
		s.emit(simrun.Event{Type: simrun.EventError, Kind: simrun.ErrorValidation, Message: err.Error()})
		s.logf(0, "init rejected: %v", err)
		return err
	}
	if s.initAccepted {
		s.logf(0, "init ignored: configuration already submitted")
		return nil
	}
	s.initAccepted = true

	cmd := command{
		ID:     s.nextCorr(),
		Method: MethodInit,
		Params: initParams{
			MaxSteps:       cfg.MaxSteps,
			PopulationSize: cfg.PopulationSize,
			Seed:           cfg.EffectiveSeed(),
			Params:         cfg.Params,
		},
	}

	switch st {
	case simrun.StateIdle, simrun.StateStarting:
		s.queue.enqueue(cmd)
		s.queuedInit = true
		s.logf(cmd.ID, "init queued: engine not ready")
		return nil
	default: // Ready, Stepping — InitPending implies initAccepted already
		if err := s.sendCommand(cmd); err != nil {
			s.initAccepted = false
			return err
		}
		return nil
	}
}

// handleStep sends a step command. Only Ready and Stepping accept it;
// anything else is a caller bug, rejected outright rather than queued.
func (s *session) handleStep(n int) error {
	st := s.State()
	if st != simrun.StateReady && st != simrun.StateStepping {
		return s.rejectNotReady(0, fmt.Sprintf("step refused in state %s", st))
	}
	cmd := command{ID: s.nextCorr(), Method: MethodStep, Params: stepParams{Count: n}}
	if err := s.sendCommand(cmd); err != nil {
		return err
	}
	s.stepsInFlight++
	s.setState(simrun.StateStepping)
	return nil
}

// handleWireCall sends a reset or snapshot command, gated like step.
func (s *session) handleWireCall(method string, params any) error {
	st := s.State()
	if st != simrun.StateReady && st != simrun.StateStepping {
		return s.rejectNotReady(0, fmt.Sprintf("%s refused in state %s", method, st))
	}
	return s.sendCommand(command{ID: s.nextCorr(), Method: method, Params: params})
}

// handleStop routes a stop: immediate from a live state, queued before
// readiness, a direct transition from Idle, a no-op when already stopping
// or down.
func (s *session) handleStop() error {
	st := s.State()
	if st.Terminal() || st == simrun.StateStopping || s.stopQueued {
		return nil
	}

	switch st {
	case simrun.StateIdle:
		// Nothing was ever spawned.
		s.setState(simrun.StateStopped)
		s.emit(simrun.Event{Type: simrun.EventStopped, Reason: simrun.StopGraceful})
		s.logf(0, "stopped: no engine process was running")
		s.closing = true
		return nil

	case simrun.StateStarting:
		id := s.nextCorr()
		s.queue.enqueue(command{ID: id, Method: MethodStop, Params: stopParams{}})
		s.stopQueued = true
		s.stopCorr = id
		s.logf(id, "stop queued behind %d earlier command(s)", s.queue.len()-1)
		return nil

	default: // InitPending, Ready, Stepping
		return s.beginStop(s.nextCorr())
	}
}

// beginStop puts the stop command on the wire and arms the termination
// deadline: ~100ms when no step ever completed, ~2s otherwise.
func (s *session) beginStop(id int64) error {
	s.stopCorr = id
	grace := s.stopGrace()

	cmd := command{ID: id, Method: MethodStop, Params: stopParams{}}
	if err := s.sendCommand(cmd); err != nil {
		// The engine is unreachable; force the exit. Still a requested
		// teardown — the exit must classify as Terminated, not Crashed.
		s.stopReason = simrun.StopForced
		s.sup.terminate(false, 0)
	} else {
		s.sup.terminate(true, grace)
	}

	s.setState(simrun.StateStopping)
	s.logf(id, "stopping engine (grace %s, everStepped=%t)", grace, s.everStepped)
	return nil
}

func (s *session) stopGrace() time.Duration {
	if s.everStepped {
		return s.opts.StopGraceFull
	}
	return s.opts.StopGraceFast
}

// rejectNotReady surfaces a NotReady rejection as an event and an error.
func (s *session) rejectNotReady(corr int64, msg string) error {
	s.emit(simrun.Event{Type: simrun.EventError, CorrelationID: corr, Kind: simrun.ErrorNotReady, Message: msg})
	s.logf(corr, "%s", msg)
	return simrun.ErrNotReady
}

// sendCommand writes cmd to the transport and registers it in-flight.
// A write failure is fatal to this command: reported, never retried.
func (s *session) sendCommand(cmd command) error {
	if err := s.tr.send(cmd); err != nil {
		s.emit(simrun.Event{Type: simrun.EventError, CorrelationID: cmd.ID, Kind: simrun.ErrorProtocol, Message: err.Error()})
		s.logf(cmd.ID, "send %s failed: %v", cmd.Method, err)
		return err
	}
	s.pending[cmd.ID] = cmd.Method
	s.logf(cmd.ID, "sent %s", cmd.Method)
	return nil
}

// --- Inbound handling ---

func (s *session) handleRecord(rec record) {
	switch {
	case rec.err != nil:
		// One bad record does not kill the stream.
		s.emit(simrun.Event{Type: simrun.EventError, Kind: simrun.ErrorProtocol, Message: rec.err.Error()})
		s.logf(0, "protocol error: %v", rec.err)
	case rec.resp != nil:
		s.handleResponse(rec.resp)
	case rec.event != nil:
		s.handleEngineEvent(rec.event)
	}
}

func (s *session) handleResponse(resp *response) {
	method, ok := s.pending[resp.ID]
	if !ok {
		s.logf(resp.ID, "response %d matches no in-flight command", resp.ID)
		return
	}
	delete(s.pending, resp.ID)

	if resp.Error != nil {
		s.handleErrorReply(resp.ID, method, resp.Error)
		return
	}

	switch method {
	case MethodInit:
		var res initializedResult
		if err := json.Unmarshal(resp.Result, &res); err != nil {
			s.protocolEvent(resp.ID, fmt.Errorf("decode initialized result: %w", err))
			return
		}
		s.markInitialized(resp.ID, res.PlannedSteps)

	case MethodStep:
		var res steppedResult
		if err := json.Unmarshal(resp.Result, &res); err != nil {
			s.protocolEvent(resp.ID, fmt.Errorf("decode stepped result: %w", err))
			return
		}
		s.stepsInFlight--
		s.everStepped = true
		s.lastTick = res.Tick
		planned := res.PlannedSteps
		if planned == 0 {
			planned = s.plannedSteps
		}
		if s.stepsInFlight <= 0 && s.State() == simrun.StateStepping {
			s.stepsInFlight = 0
			s.setState(simrun.StateReady)
		}
		s.emit(simrun.Event{Type: simrun.EventStepped, CorrelationID: resp.ID, Tick: res.Tick, PlannedSteps: planned})
		s.logf(resp.ID, "stepped to tick %d of %d", res.Tick, planned)

	case MethodReset:
		s.everStepped = false
		s.lastTick = 0
		s.logf(resp.ID, "engine reset to initial configuration")

	case MethodStop:
		var res stoppedResult
		_ = json.Unmarshal(resp.Result, &res)
		if reason := errfmt.SanitizeReason(res.Reason); reason != "" {
			s.stopReason = simrun.StopReason(reason)
		} else {
			s.stopReason = simrun.StopGraceful
		}
		s.logf(resp.ID, "engine acknowledged stop (%s)", s.stopReason)

	case MethodSnapshot:
		s.emit(simrun.Event{Type: simrun.EventSnapshot, CorrelationID: resp.ID, Payload: resp.Result})
		s.logf(resp.ID, "snapshot received (%d bytes)", len(resp.Result))
	}
}

// handleErrorReply surfaces an engine error response for the command it
// correlates with and unwinds any state the command had claimed.
func (s *session) handleErrorReply(id int64, method string, we *wireError) {
	switch method {
	case MethodInit:
		// Let the caller retry with a corrected configuration.
		s.initAccepted = false
		if s.State() == simrun.StateInitPending {
			s.setState(simrun.StateReady)
		}
	case MethodStep:
		s.stepsInFlight--
		if s.stepsInFlight <= 0 && s.State() == simrun.StateStepping {
			s.stepsInFlight = 0
			s.setState(simrun.StateReady)
		}
	}

	msg := errfmt.Truncate(we.Message)
	if kind := errfmt.SanitizeKind(we.Kind); kind != "" {
		msg = kind + ": " + msg
	}
	s.emit(simrun.Event{Type: simrun.EventError, CorrelationID: id, Kind: simrun.ErrorEngine, Message: msg})
	s.logf(id, "engine rejected %s: %s", method, msg)
}

func (s *session) handleEngineEvent(ev *engineEvent) {
	switch ev.Event {
	case eventStarted:
		s.handleStarted()

	case eventInitialized:
		var p initializedResult
		_ = json.Unmarshal(ev.Payload, &p)
		s.markInitialized(0, p.PlannedSteps)

	case eventStepped:
		var p steppedPayload
		if err := json.Unmarshal(ev.Payload, &p); err != nil {
			s.protocolEvent(0, fmt.Errorf("decode stepped payload: %w", err))
			return
		}
		s.lastTick = p.Tick
		planned := p.PlannedSteps
		if planned == 0 {
			planned = s.plannedSteps
		}
		s.emit(simrun.Event{Type: simrun.EventStepped, Tick: p.Tick, PlannedSteps: planned})

	case eventStopped:
		var res stoppedResult
		_ = json.Unmarshal(ev.Payload, &res)
		if reason := errfmt.SanitizeReason(res.Reason); reason != "" {
			s.stopReason = simrun.StopReason(reason)
		}
		s.logf(0, "engine announced stop (%s)", s.stopReason)

	case eventCrashed:
		var p crashedPayload
		_ = json.Unmarshal(ev.Payload, &p)
		msg := errfmt.Truncate(p.Message)
		s.emit(simrun.Event{Type: simrun.EventError, Kind: simrun.ErrorEngine, Message: msg})
		s.logf(0, "engine reported internal failure: %s", msg)

	default:
		s.protocolEvent(0, fmt.Errorf("unknown event %q", ev.Event))
	}
}

// handleStarted reacts to the engine's readiness signal: disarm the startup
// deadline, flush everything queued in submission order, and land in
// InitPending, Ready, or Stopping depending on what was queued.
func (s *session) handleStarted() {
	if s.State() != simrun.StateStarting {
		s.logf(0, "unexpected started event in state %s", s.State())
		return
	}
	s.startupC = nil
	s.emit(simrun.Event{Type: simrun.EventStarted})
	s.logf(0, "engine ready")

	err := s.queue.flush(func(c command) error {
		if err := s.tr.send(c); err != nil {
			return err
		}
		s.pending[c.ID] = c.Method
		s.logf(c.ID, "sent %s (flushed)", c.Method)
		if c.Method == MethodStop {
			s.stopQueued = false
			grace := s.stopGrace()
			s.sup.terminate(true, grace)
			s.setState(simrun.StateStopping)
			s.logf(c.ID, "stopping engine (grace %s, everStepped=%t)", grace, s.everStepped)
		}
		return nil
	})
	if err != nil {
		s.emit(simrun.Event{Type: simrun.EventError, Kind: simrun.ErrorProtocol, Message: err.Error()})
		s.logf(0, "flush failed: %v", err)
		s.failQueued()
		if s.stopQueued {
			// The engine is unreachable but the caller asked for a teardown;
			// force the exit. Still a requested stop — the exit classifies as
			// Terminated, never Crashed.
			s.stopQueued = false
			s.stopReason = simrun.StopForced
			s.sup.terminate(false, 0)
			s.setState(simrun.StateStopping)
			s.logf(s.stopCorr, "stop could not reach the engine, killing process")
		}
	}

	if s.State() == simrun.StateStarting {
		if s.queuedInit && !s.initialized {
			s.setState(simrun.StateInitPending)
		} else {
			s.setState(simrun.StateReady)
		}
	}
}

// failQueued reports every undelivered queued command on its correlation ID
// and empties the queue. A failed flush is never retried; the commands are
// dead and subscribers need to know which ones. The stop command is excluded:
// its outcome is the forced teardown that follows.
func (s *session) failQueued() {
	for _, c := range s.queue.drain() {
		switch c.Method {
		case MethodInit:
			s.initAccepted = false
			s.queuedInit = false
		case MethodStop:
			continue
		}
		s.emit(simrun.Event{Type: simrun.EventError, CorrelationID: c.ID, Kind: simrun.ErrorProtocol,
			Message: fmt.Sprintf("%s was never delivered: engine unreachable", c.Method)})
		s.logf(c.ID, "%s dropped: engine unreachable", c.Method)
	}
}

// markInitialized records init completion. Exactly one Initialized event is
// emitted per session, whether the engine replies or announces it.
func (s *session) markInitialized(corr int64, plannedSteps int) {
	if s.State() == simrun.StateInitPending {
		s.setState(simrun.StateReady)
	}
	if s.initialized {
		return
	}
	s.initialized = true
	if plannedSteps > 0 {
		s.plannedSteps = plannedSteps
	}
	s.emit(simrun.Event{Type: simrun.EventInitialized, CorrelationID: corr, PlannedSteps: s.plannedSteps})
	s.logf(corr, "engine initialized (planned steps %d)", s.plannedSteps)
}

// --- Exit handling ---

// handleExit classifies the process exit and ends the session. A
// supervisor-requested exit is Terminated then Stopped; anything else is
// Crashed. The two are never conflated.
func (s *session) handleExit(exit exitStatus) {
	s.drainRecords()

	switch {
	case s.State() == simrun.StateError:
		// Startup failure already recorded; the exit just confirms it.
		s.logf(0, "engine process exited after startup failure (code %d)", exit.code)

	case exit.requested:
		reason := s.stopReason
		if reason == "" {
			reason = simrun.StopGraceful
		}
		if s.sup.escalatedKill() {
			reason = simrun.StopForced
		}
		s.emit(simrun.Event{Type: simrun.EventTerminated, CorrelationID: s.stopCorr, ExitCode: exit.code})
		s.setState(simrun.StateStopped)
		s.emit(simrun.Event{Type: simrun.EventStopped, CorrelationID: s.stopCorr, Reason: reason})
		s.logf(s.stopCorr, "engine terminated by supervisor (exit code %d, %s)", exit.code, reason)
		s.termErr = nil

	default:
		s.setState(simrun.StateCrashed)
		s.emit(simrun.Event{Type: simrun.EventCrashed, ExitCode: exit.code})
		if s.everStepped {
			s.logf(0, "engine crashed at tick %d (exit code %d)", s.lastTick, exit.code)
		} else {
			s.logf(0, "engine crashed before completing any step (exit code %d)", exit.code)
		}
		if exit.err != nil {
			s.termErr = exit.err
		} else {
			s.termErr = fmt.Errorf("sidecar: engine exited unexpectedly (code %d)", exit.code)
		}
	}
}

// drainRecords consumes records that raced the exit status — typically the
// stop acknowledgement — until the stream closes or the deadline passes.
func (s *session) drainRecords() {
	deadline := time.After(drainDeadline)
	for s.recs != nil {
		select {
		case rec, ok := <-s.recs:
			if !ok {
				s.recs = nil
				return
			}
			s.handleRecord(rec)
		case <-deadline:
			return
		}
	}
}

// handleStartupTimeout kills an engine that never signaled readiness. The
// session lands in Error (a startup defect), never Crashed.
func (s *session) handleStartupTimeout() {
	if s.State() != simrun.StateStarting {
		return
	}
	err := fmt.Errorf("%w: engine did not signal readiness within %s", simrun.ErrSpawn, s.opts.StartupTimeout)
	s.setState(simrun.StateError)
	s.emit(simrun.Event{Type: simrun.EventError, Kind: simrun.ErrorSpawn, Message: err.Error()})
	s.logf(0, "startup timeout: killing engine process")
	s.termErr = err
	s.sup.terminate(false, 0)
	// The exit status arrives next and ends the loop.
}

// --- Plumbing ---

func (s *session) nextCorr() int64 {
	s.corr++
	return s.corr
}

func (s *session) setState(st simrun.State) {
	prev := s.State()
	if prev == st {
		return
	}
	s.state.Store(st)
	s.log.Info("session state", "from", string(prev), "to", string(st))
}

func (s *session) protocolEvent(corr int64, err error) {
	s.emit(simrun.Event{Type: simrun.EventError, CorrelationID: corr, Kind: simrun.ErrorProtocol, Message: err.Error()})
	s.logf(corr, "protocol error: %v", err)
}

// emit delivers an event to the subscriber, in order, waiting at most
// emitDeadline before dropping it with a warning. The run loop never blocks
// without a deadline.
func (s *session) emit(ev simrun.Event) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	select {
	case s.events <- ev:
	default:
		select {
		case s.events <- ev:
		case <-time.After(emitDeadline):
			s.log.Warn("event dropped: subscriber not draining", "type", string(ev.Type), "corr", ev.CorrelationID)
		}
	}
}

// logf pushes a diagnostic line to the Logs stream and the structured
// logger. Lines are dropped when the buffer is full; diagnostics must never
// stall the run loop.
func (s *session) logf(corr int64, format string, args ...any) {
	s.logSeq++
	line := simrun.LogLine{
		Seq:           s.logSeq,
		CorrelationID: corr,
		Text:          fmt.Sprintf(format, args...),
		Timestamp:     time.Now(),
	}
	select {
	case s.logs <- line:
	default:
	}
	s.log.Debug(line.Text, "corr", corr, "seq", line.Seq)
}
