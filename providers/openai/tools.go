package openai

import (
	agentcore "github.com/haowjy/meridian-agent-go"
)

// convertToChatTools converts tool definitions to the OpenAI function-tool
// shape. The input schema passes through directly; both sides speak JSON
// Schema under a different key.
func convertToChatTools(tools []agentcore.ToolDefinition) []chatTool {
	result := make([]chatTool, 0, len(tools))

	for _, tool := range tools {
		parameters := tool.InputSchema
		if parameters == nil {
			parameters = map[string]any{"type": "object", "properties": map[string]any{}}
		}

		result = append(result, chatTool{
			Type: "function",
			Function: functionDefinition{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters:  parameters,
			},
		})
	}

	return result
}
