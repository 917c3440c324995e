package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/ecosysx/simrun"
	"github.com/ecosysx/simrun/internal/logging"
)

// runOptions configures one driven simulation run.
type runOptions struct {
	Config    simrun.Config
	BatchSize int  // ticks requested per step command
	Snapshot  bool // take a final snapshot before stopping
	JSONOut   bool
	Out       io.Writer
	ErrOut    io.Writer
	Trace     *logging.TraceLogger
}

// runSimulation drives a session from start through completion: start the
// engine, submit the configuration, step in batches until the planned step
// count is reached, optionally snapshot, then stop. Cancelling ctx stops the
// session early. The returned error is the session's terminal verdict.
func runSimulation(ctx context.Context, eng simrun.Engine, opts runOptions) error {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 1
	}

	sess, err := eng.Open()
	if err != nil {
		return fmt.Errorf("open session: %w", err)
	}

	// A cancelled ctx turns into a stop request; the session enforces its
	// own shutdown deadline from there.
	stopped := make(chan struct{})
	defer close(stopped)
	go func() {
		select {
		case <-ctx.Done():
			_ = sess.Stop(context.Background())
		case <-stopped:
		}
	}()

	if err := sess.Start(); err != nil {
		return fmt.Errorf("start engine: %w", err)
	}
	if err := sess.Init(opts.Config); err != nil {
		_ = sess.Stop(context.Background())
		_ = sess.Wait()
		return fmt.Errorf("init: %w", err)
	}

	planned := opts.Config.MaxSteps
	finishing := false
	var runErr error

	for ev := range sess.Events() {
		emitEvent(opts, ev)

		switch ev.Type {
		case simrun.EventInitialized:
			if finishing {
				continue
			}
			if ev.PlannedSteps > 0 {
				planned = ev.PlannedSteps
			}
			if err := stepNext(sess, 0, planned, opts.BatchSize); err != nil {
				finishing = true
				_ = sess.Stop(context.Background())
			}

		case simrun.EventStepped:
			// Progress events carry no correlation ID; only batch
			// completions drive the next request.
			if ev.CorrelationID == 0 || finishing {
				continue
			}
			if ev.Tick >= planned {
				finishing = true
				if opts.Snapshot {
					if err := sess.Snapshot("full"); err == nil {
						continue
					}
				}
				_ = sess.Stop(context.Background())
				continue
			}
			if err := stepNext(sess, ev.Tick, planned, opts.BatchSize); err != nil {
				finishing = true
				_ = sess.Stop(context.Background())
			}

		case simrun.EventSnapshot:
			if finishing {
				_ = sess.Stop(context.Background())
			}

		case simrun.EventError:
			fmt.Fprintf(opts.ErrOut, "engine error [%s]: %s\n", ev.Kind, ev.Message)
			// A correlated failure means the command driving the run is dead
			// and nothing further will arrive: stop rather than wait forever.
			// Uncorrelated protocol errors (a garbage line) are recoverable.
			fatal := ev.Kind == simrun.ErrorEngine ||
				(ev.Kind == simrun.ErrorProtocol && ev.CorrelationID != 0)
			if fatal && !finishing {
				finishing = true
				runErr = fmt.Errorf("engine error [%s]: %s", ev.Kind, ev.Message)
				_ = sess.Stop(context.Background())
			}
		}
	}

	if err := sess.Wait(); err != nil {
		return err
	}
	return runErr
}

// stepNext requests the next batch, clamped to the remaining step budget.
func stepNext(sess simrun.Session, tick, planned, batch int) error {
	n := batch
	if planned > 0 && tick+n > planned {
		n = planned - tick
	}
	if n <= 0 {
		n = 1
	}
	return sess.Step(n)
}

// emitEvent writes one event to the output stream and the trace log.
func emitEvent(opts runOptions, ev simrun.Event) {
	opts.Trace.Log(map[string]any{
		"type": string(ev.Type),
		"corr": ev.CorrelationID,
		"tick": ev.Tick,
	})

	if opts.JSONOut {
		json.NewEncoder(opts.Out).Encode(ev)
		return
	}

	switch ev.Type {
	case simrun.EventStarted:
		fmt.Fprintln(opts.Out, "engine started")
	case simrun.EventInitialized:
		fmt.Fprintf(opts.Out, "initialized: %d planned steps\n", ev.PlannedSteps)
	case simrun.EventStepped:
		fmt.Fprintf(opts.Out, "tick %d/%d\n", ev.Tick, ev.PlannedSteps)
	case simrun.EventSnapshot:
		fmt.Fprintf(opts.Out, "snapshot: %d bytes\n", len(ev.Payload))
	case simrun.EventTerminated:
		fmt.Fprintf(opts.Out, "engine exited (code %d)\n", ev.ExitCode)
	case simrun.EventStopped:
		fmt.Fprintf(opts.Out, "stopped (%s)\n", ev.Reason)
	case simrun.EventCrashed:
		fmt.Fprintf(opts.Out, "crashed (exit code %d)\n", ev.ExitCode)
	case simrun.EventError:
		fmt.Fprintf(opts.Out, "error [%s]: %s\n", ev.Kind, ev.Message)
	}
}
