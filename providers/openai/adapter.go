package openai

import (
	"encoding/json"
	"fmt"
	"strings"

	agentcore "github.com/haowjy/meridian-agent-go"
)

// convertToChatMessages converts canonical history to the OpenAI wire shape.
//
// The format has no block structure: text and thinking flatten into a single
// content string per message, tool_use blocks become a tool_calls array, and
// tool_result blocks split off into role:"tool" messages. Thinking text is
// degraded to wrapped text; the chat-completions API has no way to carry it
// back verifiably.
func convertToChatMessages(req *agentcore.GenerateRequest) ([]chatMessage, error) {
	result := make([]chatMessage, 0, len(req.Messages)+1)

	if req.System != "" {
		result = append(result, chatMessage{Role: "system", Content: req.System})
	}

	for i, msg := range req.Messages {
		converted, err := convertMessage(msg, i)
		if err != nil {
			return nil, err
		}
		result = append(result, converted...)
	}

	return result, nil
}

// convertMessage converts one canonical message. May return multiple wire
// messages when tool results are present.
func convertMessage(msg agentcore.Message, msgIndex int) ([]chatMessage, error) {
	var result []chatMessage
	var contentParts []string
	var toolCalls []toolCall

	for j, block := range msg.Blocks {
		switch block.BlockType {
		case agentcore.BlockTypeText:
			contentParts = append(contentParts, block.Text)

		case agentcore.BlockTypeThinking:
			contentParts = append(contentParts, agentcore.WrappedThinkingText(block.Text))

		case agentcore.BlockTypeToolUse:
			if msg.Role != agentcore.RoleAssistant {
				return nil, fmt.Errorf("message %d, block %d: tool_use block on non-assistant message", msgIndex, j)
			}
			call, err := convertToolUseBlock(block, msgIndex, j)
			if err != nil {
				return nil, err
			}
			toolCalls = append(toolCalls, call)

		case agentcore.BlockTypeToolResult:
			if block.ToolUseID == "" {
				return nil, fmt.Errorf("message %d, block %d: tool_result block missing tool_use_id", msgIndex, j)
			}
			result = append(result, chatMessage{
				Role:       "tool",
				Content:    block.ResultContent,
				ToolCallID: block.ToolUseID,
			})

		default:
			return nil, fmt.Errorf("message %d, block %d: unsupported block type '%s'", msgIndex, j, block.BlockType)
		}
	}

	var role string
	switch msg.Role {
	case agentcore.RoleUser:
		role = "user"
	case agentcore.RoleAssistant:
		role = "assistant"
	default:
		return nil, fmt.Errorf("message %d: unsupported role '%s'", msgIndex, msg.Role)
	}

	if len(contentParts) > 0 || len(toolCalls) > 0 {
		result = append(result, chatMessage{
			Role:      role,
			Content:   strings.Join(contentParts, "\n\n"),
			ToolCalls: toolCalls,
		})
	}

	return result, nil
}

// convertToolUseBlock converts a tool_use block to a wire tool call.
func convertToolUseBlock(block agentcore.Block, msgIndex, blockIndex int) (toolCall, error) {
	if block.ToolUseID == "" {
		return toolCall{}, fmt.Errorf("message %d, block %d: tool_use block missing tool_use_id", msgIndex, blockIndex)
	}
	if block.ToolName == "" {
		return toolCall{}, fmt.Errorf("message %d, block %d: tool_use block missing tool_name", msgIndex, blockIndex)
	}

	input := block.ToolInput
	if input == nil {
		input = map[string]interface{}{}
	}
	arguments, err := json.Marshal(input)
	if err != nil {
		return toolCall{}, fmt.Errorf("message %d, block %d: failed to marshal tool input: %w", msgIndex, blockIndex, err)
	}

	return toolCall{
		ID:   block.ToolUseID,
		Type: "function",
		Function: functionCall{
			Name:      block.ToolName,
			Arguments: string(arguments),
		},
	}, nil
}
