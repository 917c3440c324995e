// Package filter provides composable channel middleware for filtering
// simrun event streams. Consumers wrap Session.Events() with these
// functions to select the event granularity they need.
package filter

import (
	"context"

	"github.com/ecosysx/simrun"
)

// Filter returns a channel that only passes events of the given types.
// Spawns a goroutine that exits when ctx is cancelled or ch is closed.
// The returned channel is closed when the goroutine exits.
func Filter(ctx context.Context, ch <-chan simrun.Event, types ...simrun.EventType) <-chan simrun.Event {
	allowed := make(map[simrun.EventType]struct{}, len(types))
	for _, t := range types {
		allowed[t] = struct{}{}
	}
	return pipe(ctx, ch, func(ev simrun.Event) bool {
		_, ok := allowed[ev.Type]
		return ok
	})
}

// Progress returns a channel that drops per-tick stepped events, passing
// only lifecycle transitions and errors. Spawns a goroutine that exits when
// ctx is cancelled or ch is closed.
func Progress(ctx context.Context, ch <-chan simrun.Event) <-chan simrun.Event {
	return pipe(ctx, ch, func(ev simrun.Event) bool {
		return ev.Type != simrun.EventStepped
	})
}

// ErrorsOnly returns a channel that passes only EventError.
// Spawns a goroutine that exits when ctx is cancelled or ch is closed.
func ErrorsOnly(ctx context.Context, ch <-chan simrun.Event) <-chan simrun.Event {
	return pipe(ctx, ch, func(ev simrun.Event) bool {
		return ev.Type == simrun.EventError
	})
}

// Terminal returns a channel that passes only the events announcing the end
// of a session: stopped, crashed, and terminated.
func Terminal(ctx context.Context, ch <-chan simrun.Event) <-chan simrun.Event {
	return pipe(ctx, ch, func(ev simrun.Event) bool {
		return IsTerminal(ev.Type)
	})
}

// IsTerminal reports whether t announces the end of a session.
func IsTerminal(t simrun.EventType) bool {
	switch t {
	case simrun.EventStopped, simrun.EventCrashed, simrun.EventTerminated:
		return true
	}
	return false
}

// pipe spawns a goroutine that reads from ch, passes events matching
// the predicate to the returned channel, and closes it when ch closes
// or ctx is cancelled. Callers must either drain the returned channel
// or cancel ctx to avoid goroutine leaks. Events accepted by the
// predicate may be silently dropped if ctx is cancelled mid-send.
func pipe(ctx context.Context, ch <-chan simrun.Event, accept func(simrun.Event) bool) <-chan simrun.Event {
	out := make(chan simrun.Event)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-ch:
				if !ok {
					return
				}
				if accept(ev) && !trySend(ctx, out, ev) {
					return
				}
			}
		}
	}()
	return out
}

// trySend sends ev on out, returning true on success.
// Returns false if ctx is cancelled before the send completes.
func trySend(ctx context.Context, out chan<- simrun.Event, ev simrun.Event) bool {
	select {
	case out <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
