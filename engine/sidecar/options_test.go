package sidecar

import (
	"testing"
	"time"
)

func TestResolveEngineOptions_Defaults(t *testing.T) {
	o := resolveEngineOptions()
	if o.Interpreter != defaultInterpreter {
		t.Errorf("Interpreter = %q, want %q", o.Interpreter, defaultInterpreter)
	}
	if o.EventBuffer != defaultEventBuffer {
		t.Errorf("EventBuffer = %d, want %d", o.EventBuffer, defaultEventBuffer)
	}
	if o.StartupTimeout != defaultStartupTimeout {
		t.Errorf("StartupTimeout = %v, want %v", o.StartupTimeout, defaultStartupTimeout)
	}
	if o.StopGraceFast != defaultStopGraceFast || o.StopGraceFull != defaultStopGraceFull {
		t.Errorf("stop grace = %v/%v, want %v/%v",
			o.StopGraceFast, o.StopGraceFull, defaultStopGraceFast, defaultStopGraceFull)
	}
}

func TestResolveEngineOptions_Overrides(t *testing.T) {
	o := resolveEngineOptions(
		WithCommand("/usr/bin/engine"),
		WithInterpreter("python3.12"),
		WithScript("sim/main.py"),
		WithArgs("--fast"),
		WithWorkDir("/tmp"),
		WithEventBuffer(8),
		WithStartupTimeout(time.Second),
		WithStopGrace(10*time.Millisecond, 20*time.Millisecond),
	)
	if o.Command != "/usr/bin/engine" {
		t.Errorf("Command = %q", o.Command)
	}
	if o.Interpreter != "python3.12" {
		t.Errorf("Interpreter = %q", o.Interpreter)
	}
	if o.Script != "sim/main.py" {
		t.Errorf("Script = %q", o.Script)
	}
	if len(o.Args) != 1 || o.Args[0] != "--fast" {
		t.Errorf("Args = %v", o.Args)
	}
	if o.EventBuffer != 8 {
		t.Errorf("EventBuffer = %d", o.EventBuffer)
	}
	if o.StopGraceFast != 10*time.Millisecond || o.StopGraceFull != 20*time.Millisecond {
		t.Errorf("stop grace = %v/%v", o.StopGraceFast, o.StopGraceFull)
	}
}

func TestResolveEngineOptions_IgnoresInvalidValues(t *testing.T) {
	o := resolveEngineOptions(
		WithInterpreter(""),
		WithEventBuffer(0),
		WithStartupTimeout(-time.Second),
		WithStopGrace(0, 0),
	)
	if o.Interpreter != defaultInterpreter {
		t.Errorf("empty interpreter must keep default, got %q", o.Interpreter)
	}
	if o.EventBuffer != defaultEventBuffer {
		t.Errorf("EventBuffer = %d, want default", o.EventBuffer)
	}
	if o.StartupTimeout != defaultStartupTimeout {
		t.Errorf("StartupTimeout = %v, want default", o.StartupTimeout)
	}
}

func TestFromEnv_AppliesOverrides(t *testing.T) {
	t.Setenv("SIMRUN_COMMAND", "/opt/engine")
	t.Setenv("SIMRUN_STARTUP_TIMEOUT", "3s")
	t.Setenv("SIMRUN_EVENT_BUFFER", "32")

	opt, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	o := resolveEngineOptions(opt)
	if o.Command != "/opt/engine" {
		t.Errorf("Command = %q", o.Command)
	}
	if o.StartupTimeout != 3*time.Second {
		t.Errorf("StartupTimeout = %v", o.StartupTimeout)
	}
	if o.EventBuffer != 32 {
		t.Errorf("EventBuffer = %d", o.EventBuffer)
	}
}

func TestFromEnv_UnsetLeavesDefaults(t *testing.T) {
	opt, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	o := resolveEngineOptions(opt)
	if o.Interpreter != defaultInterpreter {
		t.Errorf("Interpreter = %q, want default", o.Interpreter)
	}
	if o.StartupTimeout != defaultStartupTimeout {
		t.Errorf("StartupTimeout = %v, want default", o.StartupTimeout)
	}
}

func TestFromEnv_InvalidDuration(t *testing.T) {
	t.Setenv("SIMRUN_STARTUP_TIMEOUT", "not-a-duration")
	if _, err := FromEnv(); err == nil {
		t.Error("FromEnv with invalid duration should fail")
	}
}
