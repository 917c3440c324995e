package sidecar

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/ecosysx/simrun"
)

// Wire method constants for the engine protocol.
const (
	MethodInit     = "init"
	MethodStep     = "step"
	MethodReset    = "reset"
	MethodStop     = "stop"
	MethodSnapshot = "snapshot"
)

// Engine event names arriving in the "event" field of unsolicited records.
const (
	eventStarted     = "started"
	eventInitialized = "initialized"
	eventStepped     = "stepped"
	eventStopped     = "stopped"
	eventCrashed     = "crashed"
)

// command is the outbound envelope: one JSON object per line.
type command struct {
	ID     int64  `json:"id"`
	Method string `json:"method"`
	Params any    `json:"params,omitempty"`
}

// initParams carries the validated configuration to the engine.
type initParams struct {
	MaxSteps       int            `json:"maxSteps"`
	PopulationSize int            `json:"populationSize"`
	Seed           int64          `json:"seed"`
	Params         map[string]any `json:"params,omitempty"`
}

// stepParams advances the simulation by Count ticks.
type stepParams struct {
	Count int `json:"count"`
}

// resetParams rewinds the engine to its initial configuration.
type resetParams struct{}

// stopParams signals the engine to flush and exit.
type stopParams struct{}

// snapshotParams requests a state snapshot of the given kind.
type snapshotParams struct {
	Kind string `json:"kind"`
}

// response is a correlated inbound record: result or error, never both.
type response struct {
	ID     int64           `json:"id"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *wireError      `json:"error,omitempty"`
}

// wireError is the engine's error object inside a correlated response.
type wireError struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// engineEvent is an unsolicited inbound record.
type engineEvent struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Result payloads for the fixed method vocabulary.
type initializedResult struct {
	PlannedSteps int `json:"plannedSteps"`
}

type steppedResult struct {
	Tick         int `json:"tick"`
	PlannedSteps int `json:"plannedSteps"`
}

type stoppedResult struct {
	Reason string `json:"reason"`
}

// steppedPayload is the payload of an unsolicited "stepped" progress event.
type steppedPayload struct {
	Tick         int `json:"tick"`
	PlannedSteps int `json:"plannedSteps"`
}

// crashedPayload is the payload of an engine-announced internal failure.
type crashedPayload struct {
	Message string `json:"message"`
}

// record is one classified inbound line. Exactly one of resp, event, or err
// is set; err carries a *simrun.ProtocolError for undecodable lines.
type record struct {
	resp  *response
	event *engineEvent
	err   error
}

// classifyLine decodes one inbound line into a record. The discriminator is
// probed with gjson before the full decode: a record with an "id" field is a
// correlated response, one with an "event" field is an unsolicited event,
// anything else is a ProtocolError. Malformed shapes are reported, never
// coerced or dropped.
func classifyLine(line []byte) record {
	if !gjson.ValidBytes(line) {
		return protocolRecord(line, fmt.Errorf("not valid JSON"))
	}
	root := gjson.ParseBytes(line)
	if !root.IsObject() {
		return protocolRecord(line, fmt.Errorf("record is not a JSON object"))
	}

	switch {
	case root.Get("id").Exists():
		if root.Get("id").Type != gjson.Number {
			return protocolRecord(line, fmt.Errorf("id is not a number"))
		}
		var resp response
		if err := json.Unmarshal(line, &resp); err != nil {
			return protocolRecord(line, err)
		}
		if resp.Result == nil && resp.Error == nil {
			return protocolRecord(line, fmt.Errorf("response %d has neither result nor error", resp.ID))
		}
		return record{resp: &resp}

	case root.Get("event").Exists():
		if root.Get("event").Type != gjson.String || root.Get("event").String() == "" {
			return protocolRecord(line, fmt.Errorf("event name is not a non-empty string"))
		}
		var ev engineEvent
		if err := json.Unmarshal(line, &ev); err != nil {
			return protocolRecord(line, err)
		}
		return record{event: &ev}

	default:
		return protocolRecord(line, fmt.Errorf("record has neither id nor event"))
	}
}

func protocolRecord(line []byte, cause error) record {
	return record{err: &simrun.ProtocolError{
		Op:   "read",
		Line: string(line),
		Err:  cause,
	}}
}
