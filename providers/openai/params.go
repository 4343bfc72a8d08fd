package openai

import (
	"fmt"

	agentcore "github.com/haowjy/meridian-agent-go"
)

// chatCompletionRequest is the OpenAI-compatible chat completion request.
type chatCompletionRequest struct {
	Model         string         `json:"model"`
	Messages      []chatMessage  `json:"messages"`
	MaxTokens     *int           `json:"max_completion_tokens,omitempty"`
	Temperature   *float64       `json:"temperature,omitempty"`
	TopP          *float64       `json:"top_p,omitempty"`
	Stop          []string       `json:"stop,omitempty"`
	Stream        bool           `json:"stream"`
	StreamOptions *streamOptions `json:"stream_options,omitempty"`
	Tools         []chatTool     `json:"tools,omitempty"`
}

// streamOptions requests the trailing usage chunk on streaming responses.
type streamOptions struct {
	IncludeUsage bool `json:"include_usage"`
}

// chatMessage is a message in the OpenAI wire format: a single content
// string plus an optional tool_calls array, with tool results carried in
// separate role:"tool" messages.
type chatMessage struct {
	Role       string     `json:"role"` // "system", "user", "assistant", "tool"
	Content    string     `json:"content,omitempty"`
	ToolCalls  []toolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"` // role:"tool" only
}

// toolCall is a function call attached to an assistant message.
type toolCall struct {
	Index    *int         `json:"index,omitempty"` // streaming deltas only
	ID       string       `json:"id,omitempty"`
	Type     string       `json:"type,omitempty"` // "function"
	Function functionCall `json:"function"`
}

// functionCall carries the function name and JSON-encoded arguments.
type functionCall struct {
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments,omitempty"`
}

// chatTool is a function tool definition.
type chatTool struct {
	Type     string             `json:"type"` // "function"
	Function functionDefinition `json:"function"`
}

type functionDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters"`
}

// chatCompletionChunk is one streaming SSE frame.
type chatCompletionChunk struct {
	ID      string        `json:"id"`
	Object  string        `json:"object"` // "chat.completion.chunk"
	Created int64         `json:"created"`
	Model   string        `json:"model"`
	Choices []chunkChoice `json:"choices"`
	Usage   *chunkUsage   `json:"usage,omitempty"` // trailing chunk when include_usage is set
}

type chunkChoice struct {
	Index        int        `json:"index"`
	Delta        chunkDelta `json:"delta"`
	FinishReason *string    `json:"finish_reason"`
}

// chunkDelta is the flat incremental update. Unlike Anthropic's indexed
// block events, everything arrives in one structure and block boundaries
// must be inferred.
type chunkDelta struct {
	Role    *string `json:"role,omitempty"`
	Content *string `json:"content,omitempty"`

	// Reasoning keys vary by gateway; both map to thinking deltas.
	Reasoning        *string `json:"reasoning,omitempty"`
	ReasoningContent *string `json:"reasoning_content,omitempty"`

	ToolCalls []toolCall `json:"tool_calls,omitempty"`
}

// reasoningDelta returns the reasoning fragment under whichever key the
// endpoint uses.
func (d *chunkDelta) reasoningDelta() string {
	if d.Reasoning != nil && *d.Reasoning != "" {
		return *d.Reasoning
	}
	if d.ReasoningContent != nil {
		return *d.ReasoningContent
	}
	return ""
}

// chunkUsage is the trailing usage frame sent when include_usage is set.
type chunkUsage struct {
	PromptTokens        int `json:"prompt_tokens"`
	CompletionTokens    int `json:"completion_tokens"`
	TotalTokens         int `json:"total_tokens"`
	PromptTokensDetails struct {
		CachedTokens int `json:"cached_tokens"`
	} `json:"prompt_tokens_details"`
}

// buildChatCompletionRequest constructs the wire request from a canonical
// GenerateRequest.
func buildChatCompletionRequest(req *agentcore.GenerateRequest) (*chatCompletionRequest, error) {
	messages, err := convertToChatMessages(req)
	if err != nil {
		return nil, fmt.Errorf("failed to convert messages: %w", err)
	}

	params := req.Params
	if params == nil {
		params = &agentcore.RequestParams{}
	}

	chatReq := &chatCompletionRequest{
		Model:    req.Model,
		Messages: messages,
	}

	if params.MaxTokens != nil {
		chatReq.MaxTokens = params.MaxTokens
	}
	if params.Temperature != nil {
		chatReq.Temperature = params.Temperature
	}
	if params.TopP != nil {
		chatReq.TopP = params.TopP
	}
	if len(params.Stop) > 0 {
		chatReq.Stop = params.Stop
	}

	if len(req.Tools) > 0 {
		chatReq.Tools = convertToChatTools(req.Tools)
	}

	return chatReq, nil
}

// mapFinishReason maps an OpenAI finish_reason to the canonical stop_reason.
func mapFinishReason(finishReason string) string {
	switch finishReason {
	case "stop":
		return "end_turn"
	case "length":
		return "max_tokens"
	case "tool_calls":
		return "tool_use"
	case "content_filter":
		return "stop_sequence"
	default:
		return finishReason
	}
}
