package protocol

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseEnvelope(t *testing.T) {
	raw := []byte(`{"channel":"session-1","type":"message-delta","data":{"message_id":"m1","content":"hi"}}`)

	env, err := ParseEnvelope(raw)
	if err != nil {
		t.Fatalf("ParseEnvelope failed: %v", err)
	}
	if env.Channel != "session-1" {
		t.Errorf("channel = %q, want session-1", env.Channel)
	}
	if env.Type != "message-delta" {
		t.Errorf("type = %q, want message-delta", env.Type)
	}

	ev := env.Event()
	if ev.Type != env.Type {
		t.Errorf("Event type = %q, want %q", ev.Type, env.Type)
	}
}

func TestParseEnvelope_MalformedJSON(t *testing.T) {
	_, err := ParseEnvelope([]byte(`{"channel": "x",`))
	if !errors.Is(err, ErrMalformedFrame) {
		t.Errorf("expected ErrMalformedFrame, got %v", err)
	}
}

func TestParseEnvelope_InvalidShape(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"missing channel", `{"type":"x","data":{}}`},
		{"missing type", `{"channel":"x","data":{}}`},
		{"missing data", `{"channel":"x","type":"y"}`},
		{"empty object", `{}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseEnvelope([]byte(tc.raw))
			if !errors.Is(err, ErrInvalidShape) {
				t.Errorf("expected ErrInvalidShape, got %v", err)
			}
		})
	}
}

func TestNewSubscribe(t *testing.T) {
	env, err := NewSubscribe("session-42")
	if err != nil {
		t.Fatalf("NewSubscribe failed: %v", err)
	}
	if env.Channel != "session-42" {
		t.Errorf("channel = %q, want session-42", env.Channel)
	}
	if env.Type != TypeSubscribe {
		t.Errorf("type = %q, want %q", env.Type, TypeSubscribe)
	}

	var data SubscribeData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("unmarshal subscribe data: %v", err)
	}
	if len(data.Channels) != 1 || data.Channels[0] != "session-42" {
		t.Errorf("channels = %v, want [session-42]", data.Channels)
	}
}

func TestTerminalCloseCode(t *testing.T) {
	if !TerminalCloseCode(1008) {
		t.Error("1008 should be terminal")
	}
	for _, code := range []int{1000, 1001, 1006, 1011} {
		if TerminalCloseCode(code) {
			t.Errorf("%d should not be terminal", code)
		}
	}
}
