//go:build !windows

package sidecar

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/ecosysx/simrun"
)

// exitStatus describes a finished engine process.
type exitStatus struct {
	// code is the exit status; -1 means signal-killed.
	code int

	// requested reports whether the supervisor asked for this exit. This
	// flag is what separates "terminated by supervisor" from "crashed".
	requested bool

	// err is the terminal error: nil for a clean exit, *simrun.ExitError
	// otherwise.
	err error
}

// supervisor owns the engine process handle: it spawns the child with its
// standard streams connected for framed I/O, reports its exit exactly once,
// and escalates a graceful termination to a forced kill when the deadline
// elapses.
type supervisor struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.ReadCloser

	requested atomic.Bool // an exit was asked for (stop, kill, timeout)
	escalated atomic.Bool // the graceful deadline elapsed and we killed

	exitCh chan exitStatus // buffered(1); receives exactly one status
	done   chan struct{}   // closed by reportExit after cmd.Wait returns
}

// spawnSupervisor launches the engine process. Failures wrap simrun.ErrSpawn.
func spawnSupervisor(binary string, args []string, dir string) (*supervisor, error) {
	cmd := exec.Command(binary, args...)
	if dir != "" {
		cmd.Dir = dir
	}
	// Engine diagnostics go to stderr; stdout is reserved for the protocol.
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: stdin pipe: %w", simrun.ErrSpawn, err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: stdout pipe: %w", simrun.ErrSpawn, err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", simrun.ErrSpawn, binary, err)
	}

	return &supervisor{
		cmd:    cmd,
		stdin:  stdin,
		stdout: stdout,
		exitCh: make(chan exitStatus, 1),
		done:   make(chan struct{}),
	}, nil
}

// exits returns the channel delivering the process's single exit status.
func (s *supervisor) exits() <-chan exitStatus {
	return s.exitCh
}

// reportExit waits for the process and publishes its exit status. It must be
// called exactly once, after the stdout reader has reached EOF — cmd.Wait
// closes the pipes, so calling it while the read loop is still draining
// races with the scanner.
func (s *supervisor) reportExit() {
	waitErr := s.cmd.Wait()
	code := 0
	err := wrapExit(waitErr)
	if err != nil {
		if c, ok := simrun.ExitCode(err); ok {
			code = c
		}
	}

	close(s.done)
	s.exitCh <- exitStatus{
		code:      code,
		requested: s.requested.Load(),
		err:       err,
	}
}

// terminate asks the process to exit. With graceful=false the process is
// killed immediately. With graceful=true the transport's stop command is
// expected to be on the wire already; terminate only enforces the deadline,
// escalating to a forced kill if the process has not exited by then. Either
// way the eventual exit is flagged as supervisor-requested.
func (s *supervisor) terminate(graceful bool, grace time.Duration) {
	s.requested.Store(true)

	if !graceful {
		_ = signalProcess(s.cmd.Process, os.Kill)
		return
	}

	go func() {
		select {
		case <-s.done:
			return
		case <-time.After(grace):
		}

		// Deadline elapsed: SIGTERM, then SIGKILL after a short beat.
		s.escalated.Store(true)
		_ = signalProcess(s.cmd.Process, syscall.SIGTERM)
		select {
		case <-s.done:
		case <-time.After(killGrace):
			_ = signalProcess(s.cmd.Process, os.Kill)
		}
	}()
}

// escalatedKill reports whether a graceful terminate ran out its deadline.
func (s *supervisor) escalatedKill() bool {
	return s.escalated.Load()
}

// signalProcess sends sig to a process, returning nil if the process has
// already exited (os.ErrProcessDone).
func signalProcess(proc *os.Process, sig os.Signal) error {
	err := proc.Signal(sig)
	if errors.Is(err, os.ErrProcessDone) {
		return nil
	}
	return err
}

// wrapExit converts a non-zero *exec.ExitError to *simrun.ExitError.
// nil → nil, non-ExitError → passthrough, code 0 → nil (clean exit).
func wrapExit(err error) error {
	if err == nil {
		return nil
	}
	var ee *exec.ExitError
	if !errors.As(err, &ee) {
		return err
	}
	code := ee.ExitCode()
	if code == 0 {
		return nil
	}
	return &simrun.ExitError{Code: code, Err: err}
}
