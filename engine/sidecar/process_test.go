//go:build !windows

package sidecar

import (
	"errors"
	"io"
	"os/exec"
	"syscall"
	"testing"
	"time"

	"github.com/ecosysx/simrun"
)

func TestWrapExit(t *testing.T) {
	if err := wrapExit(nil); err != nil {
		t.Errorf("wrapExit(nil) = %v, want nil", err)
	}

	plain := errors.New("pipe closed")
	if err := wrapExit(plain); !errors.Is(err, plain) {
		t.Errorf("wrapExit(plain) = %v, want passthrough", err)
	}

	cmd := exec.Command("sh", "-c", "exit 5")
	runErr := cmd.Run()
	wrapped := wrapExit(runErr)
	code, ok := simrun.ExitCode(wrapped)
	if !ok || code != 5 {
		t.Errorf("wrapExit(exit 5) = %v, want ExitError code 5", wrapped)
	}
	var ee *exec.ExitError
	if !errors.As(wrapped, &ee) {
		t.Error("wrapped error must preserve *exec.ExitError in the chain")
	}
}

func TestSignalProcess_AlreadyExited(t *testing.T) {
	cmd := exec.Command("true")
	if err := cmd.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := cmd.Wait(); err != nil {
		t.Fatalf("wait: %v", err)
	}
	if err := signalProcess(cmd.Process, syscall.SIGTERM); err != nil {
		t.Errorf("signalProcess after exit = %v, want nil", err)
	}
}

func TestSupervisor_ReportExitAfterEOF(t *testing.T) {
	sup, err := spawnSupervisor("sh", []string{"-c", "exit 4"}, "")
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}

	// Drain stdout to EOF first; reportExit owns cmd.Wait.
	if _, err := io.ReadAll(sup.stdout); err != nil {
		t.Fatalf("drain stdout: %v", err)
	}
	go sup.reportExit()

	select {
	case exit := <-sup.exits():
		if exit.code != 4 {
			t.Errorf("code = %d, want 4", exit.code)
		}
		if exit.requested {
			t.Error("requested = true, want false for a spontaneous exit")
		}
		if code, ok := simrun.ExitCode(exit.err); !ok || code != 4 {
			t.Errorf("err = %v, want ExitError code 4", exit.err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no exit status")
	}
}

func TestSupervisor_ForcedTerminate(t *testing.T) {
	sup, err := spawnSupervisor("sleep", []string{"30"}, "")
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}

	sup.terminate(false, 0)
	if _, err := io.ReadAll(sup.stdout); err != nil {
		t.Fatalf("drain stdout: %v", err)
	}
	go sup.reportExit()

	select {
	case exit := <-sup.exits():
		if !exit.requested {
			t.Error("requested = false, want true")
		}
		if exit.code != -1 {
			t.Errorf("code = %d, want -1 for signal kill", exit.code)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no exit status")
	}
}

func TestSupervisor_GracefulEscalation(t *testing.T) {
	// Never exits on its own; the deadline must escalate.
	sup, err := spawnSupervisor("sleep", []string{"30"}, "")
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}

	sup.terminate(true, 50*time.Millisecond)
	if _, err := io.ReadAll(sup.stdout); err != nil {
		t.Fatalf("drain stdout: %v", err)
	}
	go sup.reportExit()

	select {
	case exit := <-sup.exits():
		if !exit.requested {
			t.Error("requested = false, want true")
		}
		if !sup.escalatedKill() {
			t.Error("escalatedKill() = false, want true after deadline")
		}
		_ = exit
	case <-time.After(10 * time.Second):
		t.Fatal("no exit status")
	}
}

func TestSpawnSupervisor_MissingBinary(t *testing.T) {
	_, err := spawnSupervisor("/nonexistent/engine-binary", nil, "")
	if !errors.Is(err, simrun.ErrSpawn) {
		t.Errorf("error = %v, want ErrSpawn", err)
	}
}
