package protocol

import (
	"encoding/json"
	"fmt"
)

// Typed views of the opaque {type, data} payloads, one tagged union per
// channel family. The decode switches are exhaustive: an unknown type is
// an error, so new server events fail loudly instead of being guessed at.

// GlobalEvent is a lifecycle or error event on the reserved channel.
type GlobalEvent interface{ isGlobalEvent() }

// ConnectedEvent is the handshake-complete signal.
type ConnectedEvent struct {
	SessionID string `json:"session_id"`
}

// ErrorEvent is a connection-level error broadcast to subscribers.
type ErrorEvent struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Terminal bool   `json:"terminal"`
}

func (ConnectedEvent) isGlobalEvent() {}
func (ErrorEvent) isGlobalEvent()     {}

// DecodeGlobal decodes an event received on the global channel.
func DecodeGlobal(ev Event) (GlobalEvent, error) {
	switch ev.Type {
	case TypeConnected:
		var e ConnectedEvent
		if err := json.Unmarshal(ev.Data, &e); err != nil {
			return nil, fmt.Errorf("decode connected: %w", err)
		}
		return e, nil
	case TypeError:
		var e ErrorEvent
		if err := json.Unmarshal(ev.Data, &e); err != nil {
			return nil, fmt.Errorf("decode error event: %w", err)
		}
		return e, nil
	default:
		return nil, fmt.Errorf("unknown global event type %q", ev.Type)
	}
}

// SessionEvent is a chat-session streaming event.
type SessionEvent interface{ isSessionEvent() }

// MessageDelta is an incremental chunk of a streamed assistant message.
type MessageDelta struct {
	MessageID string `json:"message_id"`
	Content   string `json:"content"`
}

// MessageComplete marks the end of a streamed message.
type MessageComplete struct {
	MessageID string `json:"message_id"`
}

// SessionError reports a failure within one session.
type SessionError struct {
	Message string `json:"message"`
}

func (MessageDelta) isSessionEvent()    {}
func (MessageComplete) isSessionEvent() {}
func (SessionError) isSessionEvent()    {}

// DecodeSession decodes an event received on a session channel.
func DecodeSession(ev Event) (SessionEvent, error) {
	switch ev.Type {
	case "message-delta":
		var e MessageDelta
		if err := json.Unmarshal(ev.Data, &e); err != nil {
			return nil, fmt.Errorf("decode message-delta: %w", err)
		}
		return e, nil
	case "message-complete":
		var e MessageComplete
		if err := json.Unmarshal(ev.Data, &e); err != nil {
			return nil, fmt.Errorf("decode message-complete: %w", err)
		}
		return e, nil
	case "session-error":
		var e SessionError
		if err := json.Unmarshal(ev.Data, &e); err != nil {
			return nil, fmt.Errorf("decode session-error: %w", err)
		}
		return e, nil
	default:
		return nil, fmt.Errorf("unknown session event type %q", ev.Type)
	}
}

// ShellEvent is terminal I/O on a shell channel.
type ShellEvent interface{ isShellEvent() }

// ShellOutput is a chunk of terminal output.
type ShellOutput struct {
	Data string `json:"data"`
}

// ShellExit reports process termination.
type ShellExit struct {
	Code int `json:"code"`
}

func (ShellOutput) isShellEvent() {}
func (ShellExit) isShellEvent()   {}

// DecodeShell decodes an event received on a shell channel.
func DecodeShell(ev Event) (ShellEvent, error) {
	switch ev.Type {
	case "output":
		var e ShellOutput
		if err := json.Unmarshal(ev.Data, &e); err != nil {
			return nil, fmt.Errorf("decode shell output: %w", err)
		}
		return e, nil
	case "exit":
		var e ShellExit
		if err := json.Unmarshal(ev.Data, &e); err != nil {
			return nil, fmt.Errorf("decode shell exit: %w", err)
		}
		return e, nil
	default:
		return nil, fmt.Errorf("unknown shell event type %q", ev.Type)
	}
}

// WorkflowEvent is workflow progress on a workflow channel.
type WorkflowEvent interface{ isWorkflowEvent() }

// WorkflowProgress reports step completion within a running workflow.
type WorkflowProgress struct {
	Step  int    `json:"step"`
	Total int    `json:"total"`
	Label string `json:"label"`
}

// WorkflowCompleted marks a workflow as finished.
type WorkflowCompleted struct {
	WorkflowID string `json:"workflow_id"`
}

// WorkflowFailed marks a workflow as failed.
type WorkflowFailed struct {
	WorkflowID string `json:"workflow_id"`
	Reason     string `json:"reason"`
}

func (WorkflowProgress) isWorkflowEvent()  {}
func (WorkflowCompleted) isWorkflowEvent() {}
func (WorkflowFailed) isWorkflowEvent()    {}

// DecodeWorkflow decodes an event received on a workflow channel.
func DecodeWorkflow(ev Event) (WorkflowEvent, error) {
	switch ev.Type {
	case "progress":
		var e WorkflowProgress
		if err := json.Unmarshal(ev.Data, &e); err != nil {
			return nil, fmt.Errorf("decode workflow progress: %w", err)
		}
		return e, nil
	case "completed":
		var e WorkflowCompleted
		if err := json.Unmarshal(ev.Data, &e); err != nil {
			return nil, fmt.Errorf("decode workflow completed: %w", err)
		}
		return e, nil
	case "failed":
		var e WorkflowFailed
		if err := json.Unmarshal(ev.Data, &e); err != nil {
			return nil, fmt.Errorf("decode workflow failed: %w", err)
		}
		return e, nil
	default:
		return nil, fmt.Errorf("unknown workflow event type %q", ev.Type)
	}
}
