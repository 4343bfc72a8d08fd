// Package session persists agent turns as an append-only JSONL event log.
//
// One file per session. The first line is a meta event; every later line is
// one event in causal order. Nothing already written is ever mutated - the
// sole exception is renaming the session title, which rewrites the file via
// a temp file and an atomic rename. The log is the ground truth: transcripts
// and usage aggregates are rebuilt by replaying it, never read from a
// separately persisted aggregate.
package session

import (
	"time"

	agentcore "github.com/haowjy/meridian-agent-go"
)

// SchemaVersion is written into every meta event. Bump on breaking changes
// to the event shapes.
const SchemaVersion = 1

// Event type constants
const (
	EventTypeMeta        = "meta"
	EventTypeMessage     = "message"
	EventTypeThinking    = "thinking"
	EventTypeToolUse     = "tool_use"
	EventTypeToolResult  = "tool_result"
	EventTypeUsage       = "usage"
	EventTypeInterrupted = "interrupted"
)

// Event is one persisted log record. A single tagged struct rather than a
// type per variant: every line carries "type" plus the fields that variant
// uses, and decoding stays a single json.Unmarshal.
type Event struct {
	// Type is one of the EventType* constants
	Type string `json:"type"`

	// TS is the event creation time (RFC 3339)
	TS time.Time `json:"ts"`

	// Meta fields
	SchemaVersion int    `json:"schema_version,omitempty"`
	SessionID     string `json:"session_id,omitempty"`
	Title         string `json:"title,omitempty"`

	// Message fields
	Role    string `json:"role,omitempty"`
	Content string `json:"content,omitempty"`

	// Thinking fields (Content carries the text)
	Signature string `json:"signature,omitempty"`

	// Tool fields
	ToolUseID string                 `json:"tool_use_id,omitempty"`
	ToolName  string                 `json:"tool_name,omitempty"`
	ToolInput map[string]interface{} `json:"tool_input,omitempty"`

	// Output is the resolved envelope (tool_result)
	Output *agentcore.ToolOutput `json:"output,omitempty"`

	// Usage is one per-request token delta (usage).
	// Logs written before delta accounting stored cumulative values here;
	// ExtractUsage detects and handles those.
	Usage *agentcore.Usage `json:"usage,omitempty"`
}
