package stream

import "encoding/json"

// EventKind discriminates the normalized event union.
type EventKind string

const (
	// EventNone is an ignored event (unrecognized discriminator).
	EventNone       EventKind = ""
	EventMessage    EventKind = "message"
	EventThinking   EventKind = "thinking"
	EventToolCall   EventKind = "tool_call"
	EventToolResult EventKind = "tool_result"
	EventError      EventKind = "error"
	// EventDone is synthesized by callers when the decoder reports the
	// terminal sentinel; Interpret never produces it from a payload.
	EventDone EventKind = "done"
)

// StepData carries the fields of a thinking event.
type StepData struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Status  string `json:"status"`
	Content string `json:"content"`
	Group   string `json:"group"`
}

// ToolCall carries the fields of a tool_call event.
type ToolCall struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// ToolResult carries the fields of a tool_result event.
type ToolResult struct {
	ID      string          `json:"id"`
	Success bool            `json:"success"`
	Result  json.RawMessage `json:"result"`
	Error   string          `json:"error"`
}

// ResultText renders the result for display: unquoted when it is a JSON
// string, raw JSON otherwise.
func (t ToolResult) ResultText() string {
	var s string
	if json.Unmarshal(t.Result, &s) == nil {
		return s
	}
	return string(t.Result)
}

// Event is the normalized form of one frame payload. Exactly one of the
// kind-specific fields is meaningful, selected by Kind.
type Event struct {
	Kind   EventKind
	Text   string // message delta, or error message
	Step   *StepData
	Call   *ToolCall
	Result *ToolResult
}

// envelope is the JSON shape of structured payloads. Older servers use
// "type" where newer ones use "event".
type envelope struct {
	Event string          `json:"event"`
	Type  string          `json:"type"`
	Data  json.RawMessage `json:"data"`
}

// Interpret classifies one frame payload into exactly one Event. It never
// fails: anything that cannot be understood as a structured event degrades
// to a plain-text message delta (legacy plain-text streaming mode), and an
// unrecognized discriminator becomes an ignored EventNone.
func Interpret(payload string) Event {
	var env envelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		return Event{Kind: EventMessage, Text: payload}
	}

	kind := env.Event
	if kind == "" {
		kind = env.Type
	}
	if kind == "" {
		// A JSON value without a discriminator is legacy text.
		return Event{Kind: EventMessage, Text: payload}
	}

	switch EventKind(kind) {
	case EventMessage:
		return Event{Kind: EventMessage, Text: dataText(env.Data)}
	case EventThinking:
		var step StepData
		if !decodeData(env.Data, &step) {
			return Event{Kind: EventMessage, Text: dataText(env.Data)}
		}
		return Event{Kind: EventThinking, Step: &step}
	case EventToolCall:
		var call ToolCall
		if !decodeData(env.Data, &call) {
			return Event{Kind: EventMessage, Text: dataText(env.Data)}
		}
		return Event{Kind: EventToolCall, Call: &call}
	case EventToolResult:
		var result ToolResult
		if !decodeData(env.Data, &result) {
			return Event{Kind: EventMessage, Text: dataText(env.Data)}
		}
		return Event{Kind: EventToolResult, Result: &result}
	case EventError:
		return Event{Kind: EventError, Text: errorText(env.Data)}
	default:
		return Event{Kind: EventNone}
	}
}

// decodeData unmarshals a kind-specific object from the envelope's data
// field, tolerating double encoding: the field may be a JSON object, or a
// JSON string that itself contains JSON.
func decodeData(data json.RawMessage, v any) bool {
	if len(data) == 0 {
		return false
	}
	raw := data
	var inner string
	if json.Unmarshal(data, &inner) == nil {
		// Double-encoded: parse the wrapped document instead. If the
		// second parse fails the string is opaque text, not an object.
		raw = json.RawMessage(inner)
	}
	return json.Unmarshal(raw, v) == nil
}

// dataText extracts the textual form of a data field: the unquoted string
// when it is one, the raw JSON otherwise.
func dataText(data json.RawMessage) string {
	if len(data) == 0 {
		return ""
	}
	var s string
	if json.Unmarshal(data, &s) == nil {
		return s
	}
	return string(data)
}

// errorText pulls a human-readable message out of an error payload, which
// may be a bare string or an object with a message field.
func errorText(data json.RawMessage) string {
	if len(data) == 0 {
		return "unknown stream error"
	}
	var s string
	if json.Unmarshal(data, &s) == nil {
		return s
	}
	var obj struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(data, &obj) == nil {
		if obj.Message != "" {
			return obj.Message
		}
		if obj.Error != "" {
			return obj.Error
		}
	}
	return string(data)
}
