package agentcore

// Role constants for Message.Role
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// GenerateRequest contains the parameters for one streaming request.
// One request is one round trip; a turn may issue several because of the
// tool loop.
type GenerateRequest struct {
	// Messages contains the conversation history.
	// Each message has a Role (user/assistant) and Blocks.
	Messages []Message

	// Model is the model identifier (e.g., "claude-opus-4-6")
	Model string

	// System is the system prompt, if any
	System string

	// Tools lists the tool definitions the model may invoke
	Tools []ToolDefinition

	// Params contains request parameters (max_tokens, thinking, effort, ...)
	Params *RequestParams
}

// Message represents a single message in the conversation.
// All finalized blocks from one assistant response form exactly one
// assistant message, however many stream events produced them.
type Message struct {
	// Role is either "user" or "assistant"
	Role string

	// Blocks is the list of content blocks for this message
	Blocks []Block
}

// NewUserTextMessage wraps plain text in a user message.
func NewUserTextMessage(text string) Message {
	return Message{Role: RoleUser, Blocks: []Block{NewTextBlock(text)}}
}

// NewAssistantMessage groups finalized response blocks into one message.
func NewAssistantMessage(blocks []Block) Message {
	return Message{Role: RoleAssistant, Blocks: blocks}
}

// NewToolResultsMessage packages tool results as the user message that
// answers an assistant's tool invocations. Results must already be in
// invocation order.
func NewToolResultsMessage(results []Block) Message {
	return Message{Role: RoleUser, Blocks: results}
}
