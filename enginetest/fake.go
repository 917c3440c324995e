package enginetest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ecosysx/simrun"
)

// Fake is an in-memory simrun.Engine for testing consumers of the API.
// Sessions it opens run no process: Start emits a started event followed by
// the scripted sequence, and every call is recorded for assertion.
type Fake struct {
	// Script is the event sequence emitted after the started event.
	Script []simrun.Event

	// StartErr, when set, is returned by Session.Start and fails the session.
	StartErr error

	mu   sync.Mutex
	last *FakeSession
}

var _ simrun.Engine = (*Fake)(nil)

// Open returns a fresh fake session.
func (f *Fake) Open() (simrun.Session, error) {
	s := newFakeSession(f.Script, f.StartErr)
	f.mu.Lock()
	f.last = s
	f.mu.Unlock()
	return s, nil
}

// Validate always succeeds: a fake has nothing to resolve.
func (f *Fake) Validate() error { return nil }

// Session returns the most recently opened session, for assertions.
func (f *Fake) Session() *FakeSession {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.last
}

// FakeSession is the scripted session handed out by Fake.
type FakeSession struct {
	mu      sync.Mutex
	state   simrun.State
	calls   []string
	tick    int
	corr    int64
	waitErr error
	closed  bool

	script   []simrun.Event
	startErr error

	events chan simrun.Event
	logs   chan simrun.LogLine
	done   chan struct{}
}

var _ simrun.Session = (*FakeSession)(nil)

func newFakeSession(script []simrun.Event, startErr error) *FakeSession {
	return &FakeSession{
		state:    simrun.StateIdle,
		script:   script,
		startErr: startErr,
		events:   make(chan simrun.Event, len(script)+16),
		logs:     make(chan simrun.LogLine, 16),
		done:     make(chan struct{}),
	}
}

// Calls returns the recorded operation names in call order.
func (s *FakeSession) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

func (s *FakeSession) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("start")
	if s.closed {
		return simrun.ErrTerminated
	}
	if s.startErr != nil {
		s.state = simrun.StateError
		s.waitErr = s.startErr
		s.close()
		return s.startErr
	}
	if s.state != simrun.StateIdle {
		return nil
	}
	s.state = simrun.StateReady
	s.emit(simrun.Event{Type: simrun.EventStarted})
	for _, ev := range s.script {
		s.emit(ev)
	}
	return nil
}

func (s *FakeSession) Init(cfg simrun.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("init")
	if s.closed {
		return simrun.ErrTerminated
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	s.corr++
	s.emit(simrun.Event{Type: simrun.EventInitialized, CorrelationID: s.corr, PlannedSteps: cfg.MaxSteps})
	return nil
}

func (s *FakeSession) Step(n int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record(fmt.Sprintf("step %d", n))
	if s.state != simrun.StateReady && s.state != simrun.StateStepping {
		return simrun.ErrNotReady
	}
	s.tick += n
	s.corr++
	s.emit(simrun.Event{Type: simrun.EventStepped, CorrelationID: s.corr, Tick: s.tick})
	return nil
}

func (s *FakeSession) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("reset")
	if s.state != simrun.StateReady && s.state != simrun.StateStepping {
		return simrun.ErrNotReady
	}
	s.tick = 0
	return nil
}

func (s *FakeSession) Snapshot(kind string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("snapshot " + kind)
	if s.state != simrun.StateReady && s.state != simrun.StateStepping {
		return simrun.ErrNotReady
	}
	s.corr++
	s.emit(simrun.Event{Type: simrun.EventSnapshot, CorrelationID: s.corr})
	return nil
}

func (s *FakeSession) Stop(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("stop")
	if s.closed {
		return nil
	}
	s.state = simrun.StateStopped
	s.emit(simrun.Event{Type: simrun.EventStopped, Reason: simrun.StopGraceful})
	s.close()
	return nil
}

func (s *FakeSession) Events() <-chan simrun.Event { return s.events }

func (s *FakeSession) Logs() <-chan simrun.LogLine { return s.logs }

func (s *FakeSession) State() simrun.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *FakeSession) Wait() error {
	<-s.done
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.waitErr
}

// record and emit require s.mu held.

func (s *FakeSession) record(call string) {
	s.calls = append(s.calls, call)
}

func (s *FakeSession) emit(ev simrun.Event) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	select {
	case s.events <- ev:
	default:
	}
}

func (s *FakeSession) close() {
	if s.closed {
		return
	}
	s.closed = true
	close(s.events)
	close(s.logs)
	close(s.done)
}
