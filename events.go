package agentcore

import (
	"context"
	"errors"
)

// Agent event types - the ordered notification stream a renderer consumes.
const (
	AgentEventTurnStarted        = "turn_started"
	AgentEventReasoningDelta     = "reasoning_delta"     // Incremental thinking text
	AgentEventReasoningCompleted = "reasoning_completed" // One thinking block finished
	AgentEventAssistantDelta     = "assistant_delta"     // Incremental response text
	AgentEventAssistantCompleted = "assistant_completed" // One text block finished
	AgentEventToolRequested      = "tool_requested"      // Model opened a tool invocation (id, name)
	AgentEventToolInputDelta     = "tool_input_delta"    // Partial tool input for progressive rendering
	AgentEventToolInputCompleted = "tool_input_completed"
	AgentEventToolStarted        = "tool_started"   // Coordinator dispatched the invocation
	AgentEventToolCompleted      = "tool_completed" // Invocation resolved (real, failed, or cancelled)
	AgentEventUsage              = "usage"
	AgentEventError              = "error"
	AgentEventInterrupted        = "interrupted"
	AgentEventTurnCompleted      = "turn_completed"
)

// ErrorKind classifies errors surfaced on the event stream.
type ErrorKind string

const (
	ErrorKindHTTPStatus ErrorKind = "http_status" // Non-2xx response from the provider
	ErrorKindTimeout    ErrorKind = "timeout"     // Deadline or cancellation at the transport
	ErrorKindParse      ErrorKind = "parse"       // Unparseable or unexpected frame
	ErrorKindAPIError   ErrorKind = "api_error"   // Provider-reported in-band error
	ErrorKindInternal   ErrorKind = "internal"    // Everything else
)

// AgentEvent is one notification from the turn engine to its renderer.
// Fields are populated per Type; unset fields are zero.
type AgentEvent struct {
	// Type is one of the AgentEvent* constants
	Type string `json:"type"`

	// Text carries delta content, completed block text, or interrupted
	// partial content
	Text string `json:"text,omitempty"`

	// ToolUseID and ToolName identify the invocation for tool events
	ToolUseID string `json:"tool_use_id,omitempty"`
	ToolName  string `json:"tool_name,omitempty"`

	// ToolInput is the parsed invocation input (tool_input_completed, tool_started)
	ToolInput map[string]interface{} `json:"tool_input,omitempty"`

	// Output is the resolved envelope (tool_completed)
	Output *ToolOutput `json:"output,omitempty"`

	// Usage is the per-request token delta (usage events)
	Usage *Usage `json:"usage,omitempty"`

	// ErrKind, Message and Details describe error events
	ErrKind ErrorKind `json:"error_kind,omitempty"`
	Message string    `json:"message,omitempty"`
	Details string    `json:"details,omitempty"`

	// StopReason is why the final response stopped (turn_completed)
	StopReason string `json:"stop_reason,omitempty"`
}

// ClassifyError maps an engine error to an ErrorKind for the event stream.
func ClassifyError(err error) ErrorKind {
	if err == nil {
		return ErrorKindInternal
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorKindTimeout
	}

	if errors.Is(err, ErrMalformedFrame) {
		return ErrorKindParse
	}

	var providerErr *ProviderError
	if errors.As(err, &providerErr) {
		if providerErr.StatusCode > 0 {
			return ErrorKindHTTPStatus
		}
		return ErrorKindAPIError
	}

	return ErrorKindInternal
}

// EventSender delivers AgentEvents to the renderer's channel.
//
// Deltas are fire-and-forget: when the sink is full they are dropped so a
// slow renderer can never stall the stream reader. Lifecycle events (tool
// started/completed, errors, turn boundaries) block until delivered because
// consumers rely on seeing every one exactly once.
type EventSender struct {
	ch chan<- AgentEvent
}

// NewEventSender wraps a renderer channel. A nil channel discards everything,
// which keeps headless callers free of event plumbing.
func NewEventSender(ch chan<- AgentEvent) *EventSender {
	return &EventSender{ch: ch}
}

// SendDelta delivers a delta event best-effort.
func (s *EventSender) SendDelta(event AgentEvent) {
	if s == nil || s.ch == nil {
		return
	}
	select {
	case s.ch <- event:
	default:
		// Renderer is behind; dropping a delta only coarsens the animation.
	}
}

// Send delivers a lifecycle event, blocking until the renderer accepts it
// or ctx is done.
func (s *EventSender) Send(ctx context.Context, event AgentEvent) {
	if s == nil || s.ch == nil {
		return
	}
	select {
	case s.ch <- event:
	case <-ctx.Done():
	}
}
