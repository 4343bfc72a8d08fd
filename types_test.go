package agentcore

import "testing"

func TestBlock_Predicates(t *testing.T) {
	tests := []struct {
		name         string
		block        Block
		isToolUse    bool
		isToolResult bool
		isAssistant  bool
	}{
		{
			name:        "text block",
			block:       NewTextBlock("hello"),
			isAssistant: true,
		},
		{
			name:        "thinking block",
			block:       NewThinkingBlock("hmm", "sig_abc"),
			isAssistant: true,
		},
		{
			name:        "tool_use block",
			block:       NewToolUseBlock("toolu_1", "search", map[string]interface{}{"query": "x"}),
			isToolUse:   true,
			isAssistant: true,
		},
		{
			name:         "tool_result block",
			block:        NewToolResultBlock("toolu_1", `{"ok":true}`, false),
			isToolResult: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.block.IsToolUseBlock(); got != tt.isToolUse {
				t.Errorf("IsToolUseBlock() = %v, want %v", got, tt.isToolUse)
			}
			if got := tt.block.IsToolResultBlock(); got != tt.isToolResult {
				t.Errorf("IsToolResultBlock() = %v, want %v", got, tt.isToolResult)
			}
			if got := tt.block.IsAssistantBlock(); got != tt.isAssistant {
				t.Errorf("IsAssistantBlock() = %v, want %v", got, tt.isAssistant)
			}
		})
	}
}

func TestBlock_HasSignature(t *testing.T) {
	signed := NewThinkingBlock("reasoning", "sig_abc")
	if !signed.HasSignature() {
		t.Error("thinking block with signature: HasSignature() = false, want true")
	}

	unsigned := NewThinkingBlock("reasoning", "")
	if unsigned.HasSignature() {
		t.Error("thinking block without signature: HasSignature() = true, want false")
	}

	text := NewTextBlock("hello")
	text.Signature = "sig_abc"
	if text.HasSignature() {
		t.Error("text block: HasSignature() = true, want false")
	}
}

func TestWrappedThinkingText(t *testing.T) {
	got := WrappedThinkingText("inner reasoning")
	want := "<thinking>\ninner reasoning\n</thinking>"
	if got != want {
		t.Errorf("WrappedThinkingText() = %q, want %q", got, want)
	}
}

func TestToolInvocations(t *testing.T) {
	blocks := []Block{
		NewTextBlock("let me check"),
		NewToolUseBlock("toolu_1", "search", map[string]interface{}{"query": "a"}),
		NewThinkingBlock("hmm", "sig"),
		NewToolUseBlock("toolu_2", "read_file", map[string]interface{}{"path": "b"}),
	}

	invocations := ToolInvocations(blocks)
	if len(invocations) != 2 {
		t.Fatalf("ToolInvocations() returned %d blocks, want 2", len(invocations))
	}
	if invocations[0].ToolUseID != "toolu_1" || invocations[1].ToolUseID != "toolu_2" {
		t.Errorf("ToolInvocations() order = [%s, %s], want [toolu_1, toolu_2]",
			invocations[0].ToolUseID, invocations[1].ToolUseID)
	}

	if got := ToolInvocations([]Block{NewTextBlock("no tools")}); got != nil {
		t.Errorf("ToolInvocations() with no tool blocks = %v, want nil", got)
	}
}

func TestUsage_Add(t *testing.T) {
	u := Usage{InputTokens: 100, OutputTokens: 20}
	u.Add(Usage{InputTokens: 50, OutputTokens: 30, CacheReadTokens: 10})

	if u.InputTokens != 150 || u.OutputTokens != 50 || u.CacheReadTokens != 10 {
		t.Errorf("Add() = %+v, want {150 50 10 0}", u)
	}
	if u.TotalTokens() != 210 {
		t.Errorf("TotalTokens() = %d, want 210", u.TotalTokens())
	}
}

func TestUsage_Plus(t *testing.T) {
	a := Usage{InputTokens: 100, OutputTokens: 20}
	sum := a.Plus(Usage{InputTokens: 50, CacheWriteTokens: 5})

	want := Usage{InputTokens: 150, OutputTokens: 20, CacheWriteTokens: 5}
	if sum != want {
		t.Errorf("Plus() = %+v, want %+v", sum, want)
	}
	if a.InputTokens != 100 {
		t.Errorf("Plus() mutated receiver: %+v", a)
	}
}

func TestUsage_IsZero(t *testing.T) {
	if !(Usage{}).IsZero() {
		t.Error("empty Usage: IsZero() = false, want true")
	}
	if (Usage{CacheWriteTokens: 1}).IsZero() {
		t.Error("nonzero Usage: IsZero() = true, want false")
	}
}
