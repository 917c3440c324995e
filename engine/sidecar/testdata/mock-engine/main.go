//go:build ignore

// Command mock-engine simulates a simulation engine sidecar for integration
// tests. It speaks the line-delimited JSON protocol over stdin/stdout:
// init, step, reset, stop, snapshot.
//
// Environment variables control failure modes:
//
//	ENGINE_MOCK_MODE=silent            — never emit the started event (startup timeout)
//	ENGINE_MOCK_MODE=crash-after-start — emit started, then exit 7
//	ENGINE_MOCK_MODE=crash-on-step     — exit 3 when the first step arrives
//	ENGINE_MOCK_MODE=init-error        — reply to init with an error object
//	ENGINE_MOCK_MODE=ignore-stop       — never reply to stop, ignore SIGTERM (escalation)
//	ENGINE_MOCK_MODE=garbage           — emit an undecodable line after started
//	ENGINE_MOCK_MODE=progress          — emit a stepped progress event before each reply
//	ENGINE_MOCK_MODE=close-stdin       — close stdin before started (writes to the engine fail)
package main

import (
	"bufio"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"
	"time"
)

type request struct {
	ID     int64           `json:"id"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
}

type response struct {
	ID     int64          `json:"id"`
	Result any            `json:"result,omitempty"`
	Error  *responseError `json:"error,omitempty"`
}

type responseError struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type event struct {
	Event   string `json:"event"`
	Payload any    `json:"payload,omitempty"`
}

var (
	enc     = json.NewEncoder(os.Stdout)
	mode    = os.Getenv("ENGINE_MOCK_MODE")
	tick    int
	planned int
)

func main() {
	if mode == "ignore-stop" {
		signal.Ignore(syscall.SIGTERM)
	}

	if mode == "close-stdin" {
		// Give the supervisor time to queue commands while Starting, then
		// make the write side of the pipe fail before readiness arrives.
		time.Sleep(200 * time.Millisecond)
		os.Stdin.Close()
		enc.Encode(event{Event: "started"})
		select {}
	}

	if mode != "silent" {
		enc.Encode(event{Event: "started"})
	}
	if mode == "crash-after-start" {
		os.Exit(7)
	}
	if mode == "garbage" {
		os.Stdout.WriteString("{{{not json\n")
	}

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 4096), 1<<20)
	for scanner.Scan() {
		var req request
		if err := json.Unmarshal(scanner.Bytes(), &req); err != nil {
			continue
		}
		handle(&req)
	}
	// stdin closed without a stop command
	if mode == "ignore-stop" {
		select {}
	}
}

func handle(req *request) {
	switch req.Method {
	case "init":
		if mode == "init-error" {
			enc.Encode(response{ID: req.ID, Error: &responseError{
				Kind: "validation", Message: "population exceeds grid capacity",
			}})
			return
		}
		var params struct {
			MaxSteps int `json:"maxSteps"`
		}
		json.Unmarshal(req.Params, &params)
		planned = params.MaxSteps
		tick = 0
		enc.Encode(response{ID: req.ID, Result: map[string]any{"plannedSteps": planned}})

	case "step":
		if mode == "crash-on-step" {
			os.Exit(3)
		}
		var params struct {
			Count int `json:"count"`
		}
		json.Unmarshal(req.Params, &params)
		if params.Count <= 0 {
			params.Count = 1
		}
		tick += params.Count
		if mode == "progress" {
			enc.Encode(event{Event: "stepped", Payload: map[string]any{"tick": tick, "plannedSteps": planned}})
		}
		enc.Encode(response{ID: req.ID, Result: map[string]any{"tick": tick, "plannedSteps": planned}})

	case "reset":
		tick = 0
		enc.Encode(response{ID: req.ID, Result: map[string]any{}})

	case "snapshot":
		enc.Encode(response{ID: req.ID, Result: map[string]any{"tick": tick, "agents": []any{}}})

	case "stop":
		if mode == "ignore-stop" {
			return
		}
		enc.Encode(response{ID: req.ID, Result: map[string]any{"reason": "graceful"}})
		os.Exit(0)
	}
}
