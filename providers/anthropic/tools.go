package anthropic

import (
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"

	agentcore "github.com/haowjy/meridian-agent-go"
)

// convertToolsToAnthropicTools converts tool definitions to Anthropic SDK format.
// Every tool is a client-executed custom tool; the coordinator runs them all
// uniformly.
func convertToolsToAnthropicTools(tools []agentcore.ToolDefinition) ([]anthropic.ToolUnionParam, error) {
	if len(tools) == 0 {
		return nil, nil
	}

	result := make([]anthropic.ToolUnionParam, 0, len(tools))

	for i, tool := range tools {
		anthropicTool, err := convertTool(&tool)
		if err != nil {
			return nil, fmt.Errorf("tool %d (%s): %w", i, tool.Name, err)
		}
		result = append(result, anthropicTool)
	}

	return result, nil
}

// convertTool maps one definition's JSON schema into the SDK's
// input_schema shape.
func convertTool(tool *agentcore.ToolDefinition) (anthropic.ToolUnionParam, error) {
	if err := tool.Validate(); err != nil {
		return anthropic.ToolUnionParam{}, err
	}

	// Anthropic wants the schema decomposed:
	// - Properties: just the properties object (not the full schema)
	// - Required: direct field
	// - ExtraFields: anything else (additionalProperties, etc.)
	properties := tool.InputSchema["properties"]

	schema := anthropic.ToolInputSchemaParam{
		Properties:  properties,
		ExtraFields: make(map[string]any),
	}

	if required, ok := tool.InputSchema["required"].([]interface{}); ok {
		schema.Required = make([]string, len(required))
		for i, v := range required {
			if str, ok := v.(string); ok {
				schema.Required[i] = str
			}
		}
	}

	for key, value := range tool.InputSchema {
		if key != "type" && key != "properties" && key != "required" {
			schema.ExtraFields[key] = value
		}
	}

	toolParam := anthropic.ToolUnionParamOfTool(schema, tool.Name)

	if tool.Description != "" {
		if toolParam.OfTool == nil {
			toolParam.OfTool = &anthropic.ToolParam{}
		}
		toolParam.OfTool.Description = anthropic.String(tool.Description)
	}

	return toolParam, nil
}
