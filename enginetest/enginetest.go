package enginetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ecosysx/simrun"
)

// RunEngineTests runs the behavioral contract every simrun.Engine must
// satisfy. None of the subtests require a functioning engine binary: they
// exercise the session lifecycle rules that hold before any process is
// spawned. The factory is called once per subtest for fresh session state.
func RunEngineTests(t *testing.T, factory func() simrun.Engine) {
	t.Helper()

	t.Run("OpenIsIdle", func(t *testing.T) {
		sess := open(t, factory())
		defer stop(sess)
		if got := sess.State(); got != simrun.StateIdle {
			t.Errorf("State() = %q, want %q", got, simrun.StateIdle)
		}
	})

	t.Run("StepBeforeStartRejected", func(t *testing.T) {
		sess := open(t, factory())
		defer stop(sess)
		if err := sess.Step(1); !errors.Is(err, simrun.ErrNotReady) {
			t.Errorf("Step() error = %v, want ErrNotReady", err)
		}
	})

	t.Run("ResetBeforeStartRejected", func(t *testing.T) {
		sess := open(t, factory())
		defer stop(sess)
		if err := sess.Reset(); !errors.Is(err, simrun.ErrNotReady) {
			t.Errorf("Reset() error = %v, want ErrNotReady", err)
		}
	})

	t.Run("InvalidConfigRejected", func(t *testing.T) {
		sess := open(t, factory())
		defer stop(sess)
		err := sess.Init(simrun.Config{MaxSteps: -1, PopulationSize: 0})
		var ve *simrun.ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("Init() error = %v, want *ValidationError", err)
		}
		if len(ve.Violations) < 2 {
			t.Errorf("got %d violations, want every invalid field reported", len(ve.Violations))
		}
	})

	t.Run("StopFromIdleIsStopped", func(t *testing.T) {
		sess := open(t, factory())
		if err := sess.Stop(context.Background()); err != nil {
			t.Fatalf("Stop() error = %v", err)
		}
		if err := sess.Wait(); err != nil {
			t.Errorf("Wait() error = %v, want nil for a clean stop", err)
		}
		if got := sess.State(); got != simrun.StateStopped {
			t.Errorf("State() = %q, want %q", got, simrun.StateStopped)
		}
		assertEvent(t, sess.Events(), simrun.EventStopped)
	})

	t.Run("StopIsIdempotent", func(t *testing.T) {
		sess := open(t, factory())
		ctx := context.Background()
		if err := sess.Stop(ctx); err != nil {
			t.Fatalf("first Stop() error = %v", err)
		}
		_ = sess.Wait()
		if err := sess.Stop(ctx); err != nil {
			t.Errorf("second Stop() error = %v, want nil", err)
		}
	})

	t.Run("CallsAfterTerminalRejected", func(t *testing.T) {
		sess := open(t, factory())
		_ = sess.Stop(context.Background())
		_ = sess.Wait()
		if err := sess.Start(); !errors.Is(err, simrun.ErrTerminated) {
			t.Errorf("Start() after stop error = %v, want ErrTerminated", err)
		}
		if err := sess.Init(simrun.Config{MaxSteps: 1, PopulationSize: 1}); !errors.Is(err, simrun.ErrTerminated) {
			t.Errorf("Init() after stop error = %v, want ErrTerminated", err)
		}
	})

	t.Run("EventsCloseOnTerminal", func(t *testing.T) {
		sess := open(t, factory())
		_ = sess.Stop(context.Background())
		_ = sess.Wait()
		deadline := time.After(2 * time.Second)
		for {
			select {
			case _, ok := <-sess.Events():
				if !ok {
					return
				}
			case <-deadline:
				t.Fatal("Events() not closed after terminal state")
			}
		}
	})
}

func open(t *testing.T, e simrun.Engine) simrun.Session {
	t.Helper()
	sess, err := e.Open()
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	return sess
}

func stop(sess simrun.Session) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = sess.Stop(ctx)
	_ = sess.Wait()
}

// assertEvent drains events until one of the wanted type arrives or the
// stream closes.
func assertEvent(t *testing.T, ch <-chan simrun.Event, want simrun.EventType) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				t.Fatalf("event stream closed without %q", want)
			}
			if ev.Type == want {
				return
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %q", want)
		}
	}
}
