package anthropic

import (
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"

	agentcore "github.com/haowjy/meridian-agent-go"
)

// convertToAnthropicMessages converts conversation history to Anthropic SDK format.
//
// Thinking blocks without a signature are degraded to wrapped text before
// transmission: the API rejects unverifiable thinking, and the wrapper keeps
// the content visible to the model without pretending it is still thinking.
func convertToAnthropicMessages(messages []agentcore.Message) ([]anthropic.MessageParam, error) {
	result := make([]anthropic.MessageParam, 0, len(messages))

	for i, msg := range messages {
		blocks := make([]anthropic.ContentBlockParamUnion, 0, len(msg.Blocks))

		for j, block := range msg.Blocks {
			switch block.BlockType {
			case agentcore.BlockTypeText:
				blocks = append(blocks, anthropic.NewTextBlock(block.Text))

			case agentcore.BlockTypeThinking:
				if block.Signature == "" {
					blocks = append(blocks, anthropic.NewTextBlock(agentcore.WrappedThinkingText(block.Text)))
					continue
				}
				blocks = append(blocks, anthropic.NewThinkingBlock(block.Signature, block.Text))

			case agentcore.BlockTypeToolUse:
				if block.ToolUseID == "" {
					return nil, fmt.Errorf("message %d, block %d: tool_use block missing tool_use_id", i, j)
				}
				if block.ToolName == "" {
					return nil, fmt.Errorf("message %d, block %d: tool_use block missing tool_name", i, j)
				}
				input := block.ToolInput
				if input == nil {
					input = map[string]interface{}{}
				}
				blocks = append(blocks, anthropic.NewToolUseBlock(block.ToolUseID, input, block.ToolName))

			case agentcore.BlockTypeToolResult:
				if block.ToolUseID == "" {
					return nil, fmt.Errorf("message %d, block %d: tool_result block missing tool_use_id", i, j)
				}
				blocks = append(blocks, anthropic.NewToolResultBlock(block.ToolUseID, block.ResultContent, block.IsError))

			case agentcore.BlockTypeImage:
				blocks = append(blocks, anthropic.NewImageBlockBase64(block.MimeType, block.Data))

			default:
				return nil, fmt.Errorf("message %d, block %d: unsupported block type '%s'", i, j, block.BlockType)
			}
		}

		switch msg.Role {
		case agentcore.RoleUser:
			result = append(result, anthropic.NewUserMessage(blocks...))
		case agentcore.RoleAssistant:
			result = append(result, anthropic.NewAssistantMessage(blocks...))
		default:
			return nil, fmt.Errorf("message %d: unsupported role '%s'", i, msg.Role)
		}
	}

	return result, nil
}
