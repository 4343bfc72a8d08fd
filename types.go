package agentcore

import "fmt"

// Block type constants
const (
	BlockTypeText       = "text"
	BlockTypeThinking   = "thinking"    // Claude extended thinking
	BlockTypeToolUse    = "tool_use"    // Client-executed tool invocation requested by the model
	BlockTypeToolResult = "tool_result" // Result sent back for a tool_use block
	BlockTypeImage      = "image"       // Image content inside a tool result
)

// Block represents one finalized content block of a conversation message.
//
// Assistant blocks: text, thinking, tool_use
// User blocks: text, tool_result, image
//
// A thinking block without a Signature is never sent back to a provider as
// thinking; history builders degrade it to a wrapped text block first
// (see WrappedThinkingText).
type Block struct {
	// BlockType indicates the type of block
	// Values: "text", "thinking", "tool_use", "tool_result", "image"
	BlockType string `json:"block_type"`

	// Sequence indicates the position of this block in the response (0-indexed)
	Sequence int `json:"sequence"`

	// Text contains the content for text/thinking blocks
	Text string `json:"text,omitempty"`

	// Signature is the provider-issued token proving a thinking block is
	// unmodified. Empty when the stream never supplied one.
	Signature string `json:"signature,omitempty"`

	// ToolUseID identifies a tool_use or tool_result block.
	// Unique within one turn.
	ToolUseID string `json:"tool_use_id,omitempty"`

	// ToolName is the tool being invoked (tool_use blocks)
	ToolName string `json:"tool_name,omitempty"`

	// ToolInput is the parsed invocation input (tool_use blocks).
	// Always fully parsed JSON; partial fragments never escape the accumulator.
	ToolInput map[string]interface{} `json:"tool_input,omitempty"`

	// ResultContent is the serialized tool output (tool_result blocks)
	ResultContent string `json:"result_content,omitempty"`

	// IsError marks a failed tool_result block
	IsError bool `json:"is_error,omitempty"`

	// MimeType and Data carry image content (image blocks, base64 payload)
	MimeType string `json:"mime_type,omitempty"`
	Data     string `json:"data,omitempty"`
}

// NewTextBlock creates a text block.
func NewTextBlock(text string) Block {
	return Block{BlockType: BlockTypeText, Text: text}
}

// NewThinkingBlock creates a thinking block. signature may be empty for
// in-memory accumulation but must be non-empty before replay.
func NewThinkingBlock(text, signature string) Block {
	return Block{BlockType: BlockTypeThinking, Text: text, Signature: signature}
}

// NewToolUseBlock creates a tool invocation block with parsed input.
func NewToolUseBlock(id, name string, input map[string]interface{}) Block {
	return Block{BlockType: BlockTypeToolUse, ToolUseID: id, ToolName: name, ToolInput: input}
}

// NewToolResultBlock creates a tool result block for the given invocation id.
func NewToolResultBlock(toolUseID, content string, isError bool) Block {
	return Block{BlockType: BlockTypeToolResult, ToolUseID: toolUseID, ResultContent: content, IsError: isError}
}

// IsToolUseBlock returns true if this is a tool_use block
func (b *Block) IsToolUseBlock() bool {
	return b.BlockType == BlockTypeToolUse
}

// IsToolResultBlock returns true if this is a tool_result block
func (b *Block) IsToolResultBlock() bool {
	return b.BlockType == BlockTypeToolResult
}

// IsAssistantBlock returns true if this block can appear in an assistant message
func (b *Block) IsAssistantBlock() bool {
	return b.BlockType == BlockTypeText ||
		b.BlockType == BlockTypeThinking ||
		b.BlockType == BlockTypeToolUse
}

// HasSignature returns true if a thinking block carries a verifiable signature
func (b *Block) HasSignature() bool {
	return b.BlockType == BlockTypeThinking && b.Signature != ""
}

// WrappedThinkingText returns thinking text wrapped in unambiguous markers.
// Used when a thinking block finalized without a signature and must be
// replayed as plain text.
func WrappedThinkingText(text string) string {
	return fmt.Sprintf("<thinking>\n%s\n</thinking>", text)
}

// ToolInvocations extracts the tool_use blocks from a finalized response,
// preserving order.
func ToolInvocations(blocks []Block) []Block {
	var invocations []Block
	for _, b := range blocks {
		if b.IsToolUseBlock() {
			invocations = append(invocations, b)
		}
	}
	return invocations
}
