package anthropic

import (
	"strings"
	"testing"

	agentcore "github.com/haowjy/meridian-agent-go"
)

func TestConvertToAnthropicMessages(t *testing.T) {
	messages := []agentcore.Message{
		agentcore.NewUserTextMessage("read the config"),
		agentcore.NewAssistantMessage([]agentcore.Block{
			agentcore.NewThinkingBlock("need the file first", "sig_9"),
			agentcore.NewToolUseBlock("toolu_1", "read_file", map[string]interface{}{"path": "config.yaml"}),
		}),
		agentcore.NewToolResultsMessage([]agentcore.Block{
			agentcore.NewToolResultBlock("toolu_1", `{"ok":true}`, false),
		}),
		agentcore.NewAssistantMessage([]agentcore.Block{
			agentcore.NewTextBlock("The config sets port 8080."),
		}),
	}

	converted, err := convertToAnthropicMessages(messages)
	if err != nil {
		t.Fatalf("convertToAnthropicMessages() error: %v", err)
	}
	if len(converted) != 4 {
		t.Fatalf("got %d messages, want 4", len(converted))
	}

	if converted[0].Role != "user" || converted[1].Role != "assistant" {
		t.Errorf("roles = %s, %s", converted[0].Role, converted[1].Role)
	}
	if converted[2].Role != "user" {
		t.Errorf("tool results role = %s, want user", converted[2].Role)
	}

	assistant := converted[1].Content
	if len(assistant) != 2 {
		t.Fatalf("assistant blocks = %d, want 2", len(assistant))
	}
	thinking := assistant[0].OfThinking
	if thinking == nil || thinking.Signature != "sig_9" || thinking.Thinking != "need the file first" {
		t.Errorf("thinking block = %+v", assistant[0])
	}
	toolUse := assistant[1].OfToolUse
	if toolUse == nil || toolUse.ID != "toolu_1" || toolUse.Name != "read_file" {
		t.Errorf("tool_use block = %+v", assistant[1])
	}

	result := converted[2].Content[0].OfToolResult
	if result == nil || result.ToolUseID != "toolu_1" {
		t.Errorf("tool_result block = %+v", converted[2].Content[0])
	}
}

func TestConvertToAnthropicMessages_SignaturelessThinkingDegrades(t *testing.T) {
	messages := []agentcore.Message{
		agentcore.NewAssistantMessage([]agentcore.Block{
			agentcore.NewThinkingBlock("interrupted reasoning", ""),
		}),
	}

	converted, err := convertToAnthropicMessages(messages)
	if err != nil {
		t.Fatalf("convertToAnthropicMessages() error: %v", err)
	}

	block := converted[0].Content[0]
	if block.OfThinking != nil {
		t.Fatal("signatureless thinking sent as a thinking block")
	}
	text := block.OfText
	if text == nil {
		t.Fatalf("degraded block = %+v, want text", block)
	}
	if !strings.Contains(text.Text, "interrupted reasoning") {
		t.Errorf("wrapped text = %q, content lost", text.Text)
	}
	if text.Text != agentcore.WrappedThinkingText("interrupted reasoning") {
		t.Errorf("wrapped text = %q, want delimiter wrapper", text.Text)
	}
}

func TestConvertToAnthropicMessages_NilToolInput(t *testing.T) {
	messages := []agentcore.Message{
		agentcore.NewAssistantMessage([]agentcore.Block{
			agentcore.NewToolUseBlock("toolu_1", "ping", nil),
		}),
	}

	converted, err := convertToAnthropicMessages(messages)
	if err != nil {
		t.Fatalf("convertToAnthropicMessages() error: %v", err)
	}
	toolUse := converted[0].Content[0].OfToolUse
	if toolUse == nil || toolUse.Input == nil {
		t.Errorf("nil input not normalized to an empty object: %+v", converted[0].Content[0])
	}
}

func TestConvertToAnthropicMessages_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		messages []agentcore.Message
	}{
		{
			name: "tool_use missing id",
			messages: []agentcore.Message{
				agentcore.NewAssistantMessage([]agentcore.Block{
					{BlockType: agentcore.BlockTypeToolUse, ToolName: "search"},
				}),
			},
		},
		{
			name: "tool_use missing name",
			messages: []agentcore.Message{
				agentcore.NewAssistantMessage([]agentcore.Block{
					{BlockType: agentcore.BlockTypeToolUse, ToolUseID: "toolu_1"},
				}),
			},
		},
		{
			name: "tool_result missing id",
			messages: []agentcore.Message{
				agentcore.NewToolResultsMessage([]agentcore.Block{
					{BlockType: agentcore.BlockTypeToolResult, ResultContent: "x"},
				}),
			},
		},
		{
			name: "unsupported block type",
			messages: []agentcore.Message{
				agentcore.NewAssistantMessage([]agentcore.Block{
					{BlockType: "video"},
				}),
			},
		},
		{
			name: "unsupported role",
			messages: []agentcore.Message{
				{Role: "system", Blocks: []agentcore.Block{agentcore.NewTextBlock("x")}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := convertToAnthropicMessages(tt.messages); err == nil {
				t.Error("conversion accepted invalid input")
			}
		})
	}
}

func TestConvertToolsToAnthropicTools(t *testing.T) {
	tools := []agentcore.ToolDefinition{
		{
			Name:        "search",
			Description: "Full-text search",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"query": map[string]interface{}{"type": "string"},
					"limit": map[string]interface{}{"type": "integer"},
				},
				"required":             []interface{}{"query"},
				"additionalProperties": false,
			},
		},
	}

	converted, err := convertToolsToAnthropicTools(tools)
	if err != nil {
		t.Fatalf("convertToolsToAnthropicTools() error: %v", err)
	}
	if len(converted) != 1 {
		t.Fatalf("got %d tools, want 1", len(converted))
	}

	tool := converted[0].OfTool
	if tool == nil || tool.Name != "search" {
		t.Fatalf("tool = %+v", converted[0])
	}
	if tool.Description.Value != "Full-text search" {
		t.Errorf("description = %q", tool.Description.Value)
	}
	if len(tool.InputSchema.Required) != 1 || tool.InputSchema.Required[0] != "query" {
		t.Errorf("required = %v", tool.InputSchema.Required)
	}
	if _, ok := tool.InputSchema.ExtraFields["additionalProperties"]; !ok {
		t.Error("additionalProperties not carried into extra fields")
	}
	if _, ok := tool.InputSchema.ExtraFields["properties"]; ok {
		t.Error("properties duplicated into extra fields")
	}

	if _, err := convertToolsToAnthropicTools([]agentcore.ToolDefinition{{Name: ""}}); err == nil {
		t.Error("invalid definition accepted")
	}

	empty, err := convertToolsToAnthropicTools(nil)
	if err != nil || empty != nil {
		t.Errorf("nil tools: got (%v, %v), want (nil, nil)", empty, err)
	}
}
