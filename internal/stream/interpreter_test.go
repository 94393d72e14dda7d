package stream

import "testing"

func TestInterpretPlainText(t *testing.T) {
	ev := Interpret("just some tokens")
	if ev.Kind != EventMessage || ev.Text != "just some tokens" {
		t.Fatalf("got %+v", ev)
	}
}

func TestInterpretMessageEnvelope(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    string
	}{
		{"event discriminator", `{"event":"message","data":"Hel"}`, "Hel"},
		{"type discriminator", `{"type":"message","data":"lo"}`, "lo"},
		{"empty data", `{"event":"message"}`, ""},
		{"non-string data kept raw", `{"event":"message","data":42}`, "42"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := Interpret(tt.payload)
			if ev.Kind != EventMessage || ev.Text != tt.want {
				t.Fatalf("got %+v, want message %q", ev, tt.want)
			}
		})
	}
}

func TestInterpretThinking(t *testing.T) {
	ev := Interpret(`{"event":"thinking","data":{"id":"s1","title":"Reading docs","status":"in-progress","group":"research"}}`)
	if ev.Kind != EventThinking {
		t.Fatalf("got %+v", ev)
	}
	if ev.Step.ID != "s1" || ev.Step.Title != "Reading docs" || ev.Step.Status != "in-progress" || ev.Step.Group != "research" {
		t.Fatalf("step = %+v", ev.Step)
	}
}

func TestInterpretDoubleEncodedData(t *testing.T) {
	// The data field is a JSON string wrapping a JSON object.
	ev := Interpret(`{"event":"thinking","data":"{\"id\":\"s2\",\"title\":\"Planning\",\"status\":\"pending\"}"}`)
	if ev.Kind != EventThinking || ev.Step == nil || ev.Step.ID != "s2" {
		t.Fatalf("got %+v", ev)
	}
}

func TestInterpretDoubleEncodedGarbageDegradesToText(t *testing.T) {
	// Second parse fails: the wrapped string is opaque text.
	ev := Interpret(`{"event":"thinking","data":"not json at all"}`)
	if ev.Kind != EventMessage || ev.Text != "not json at all" {
		t.Fatalf("got %+v", ev)
	}
}

func TestInterpretToolCall(t *testing.T) {
	ev := Interpret(`{"event":"tool_call","data":{"id":"t1","name":"lookup","arguments":{"q":"answer"}}}`)
	if ev.Kind != EventToolCall || ev.Call.ID != "t1" || ev.Call.Name != "lookup" {
		t.Fatalf("got %+v", ev)
	}
	if string(ev.Call.Arguments) != `{"q":"answer"}` {
		t.Fatalf("arguments = %s", ev.Call.Arguments)
	}
}

func TestInterpretToolResult(t *testing.T) {
	ev := Interpret(`{"event":"tool_result","data":{"id":"t1","success":true,"result":"42"}}`)
	if ev.Kind != EventToolResult || !ev.Result.Success || ev.Result.ID != "t1" {
		t.Fatalf("got %+v", ev)
	}
	if ev.Result.ResultText() != "42" {
		t.Fatalf("result text = %q", ev.Result.ResultText())
	}

	ev = Interpret(`{"event":"tool_result","data":{"id":"t2","success":false,"error":"timeout"}}`)
	if ev.Kind != EventToolResult || ev.Result.Success || ev.Result.Error != "timeout" {
		t.Fatalf("got %+v", ev)
	}
}

func TestInterpretToolResultNonStringResult(t *testing.T) {
	ev := Interpret(`{"event":"tool_result","data":{"id":"t3","success":true,"result":{"rows":3}}}`)
	if ev.Kind != EventToolResult {
		t.Fatalf("got %+v", ev)
	}
	if ev.Result.ResultText() != `{"rows":3}` {
		t.Fatalf("result text = %q", ev.Result.ResultText())
	}
}

func TestInterpretError(t *testing.T) {
	ev := Interpret(`{"event":"error","data":"model overloaded"}`)
	if ev.Kind != EventError || ev.Text != "model overloaded" {
		t.Fatalf("got %+v", ev)
	}

	ev = Interpret(`{"event":"error","data":{"message":"upstream 502"}}`)
	if ev.Kind != EventError || ev.Text != "upstream 502" {
		t.Fatalf("got %+v", ev)
	}
}

func TestInterpretUnknownKindIgnored(t *testing.T) {
	ev := Interpret(`{"event":"usage","data":{"tokens":12}}`)
	if ev.Kind != EventNone {
		t.Fatalf("unknown event kind should be a no-op, got %+v", ev)
	}
}

func TestInterpretObjectWithoutDiscriminator(t *testing.T) {
	// No event/type field: legacy text passthrough of the whole payload.
	payload := `{"token":"hi"}`
	ev := Interpret(payload)
	if ev.Kind != EventMessage || ev.Text != payload {
		t.Fatalf("got %+v", ev)
	}
}
