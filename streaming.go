package agentcore

// Canonical stream event types. Every provider adapter rewrites its wire
// format into this set; nothing downstream of an adapter is provider-aware.
const (
	StreamEventBlockStart     = "block_start"      // New text/thinking block opened at BlockIndex
	StreamEventTextDelta      = "text_delta"       // Incremental text content
	StreamEventThinkingDelta  = "thinking_delta"   // Incremental thinking content
	StreamEventSignatureDelta = "signature_delta"  // Incremental thinking signature
	StreamEventToolStart      = "tool_start"       // Tool invocation block opened (carries id + name)
	StreamEventToolInputDelta = "tool_input_delta" // Partial JSON fragment of tool input
	StreamEventBlockStop      = "block_stop"       // Block at BlockIndex is complete
	StreamEventMessageDelta   = "message_delta"    // Message-level update (stop reason)
	StreamEventUsage          = "usage"            // Token usage update
	StreamEventError          = "error"            // Stream failed; followed by stream_end
	StreamEventEnd            = "stream_end"       // Channel closes after this event
)

// StreamEvent is one canonical event in a streaming response.
// Events for one request arrive in network order on a single channel that the
// adapter closes after stream_end.
type StreamEvent struct {
	// Type is one of the StreamEvent* constants
	Type string

	// BlockIndex identifies which block this event belongs to (0-indexed).
	// Meaningful for block/delta events only.
	BlockIndex int

	// BlockType is set on block_start ("text" or "thinking")
	BlockType string

	// Text carries content for text_delta, thinking_delta and signature_delta
	Text string

	// ToolCallID and ToolCallName are set on tool_start
	ToolCallID   string
	ToolCallName string

	// JSONFragment carries a partial tool-input fragment (tool_input_delta).
	// Fragments are only parseable once the block seals.
	JSONFragment string

	// StopReason is set on message_delta (e.g. "end_turn", "tool_use", "max_tokens")
	StopReason string

	// Usage is set on usage events
	Usage *Usage

	// Err is set on error events
	Err error
}

// Usage tracks token consumption for exactly one request.
// Deltas are summed across requests for cumulative display; the most recent
// value alone describes the current context window.
type Usage struct {
	InputTokens      int `json:"input_tokens"`
	OutputTokens     int `json:"output_tokens"`
	CacheReadTokens  int `json:"cache_read_input_tokens"`
	CacheWriteTokens int `json:"cache_creation_input_tokens"`
}

// Add accumulates other into u in place.
func (u *Usage) Add(other Usage) {
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
	u.CacheReadTokens += other.CacheReadTokens
	u.CacheWriteTokens += other.CacheWriteTokens
}

// Plus returns the element-wise sum of u and other.
func (u Usage) Plus(other Usage) Usage {
	u.Add(other)
	return u
}

// TotalTokens returns the full context footprint of the request:
// everything read (fresh or cached) plus everything generated.
func (u Usage) TotalTokens() int {
	return u.InputTokens + u.OutputTokens + u.CacheReadTokens + u.CacheWriteTokens
}

// IsZero reports whether no counter has been set.
func (u Usage) IsZero() bool {
	return u == Usage{}
}
