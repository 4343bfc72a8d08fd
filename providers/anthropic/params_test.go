package anthropic

import (
	"testing"

	agentcore "github.com/haowjy/meridian-agent-go"
)

func strPtr(s string) *string { return &s }

func f64Ptr(f float64) *float64 { return &f }

func intPtr(i int) *int { return &i }

func registry() *agentcore.CapabilityRegistry { return agentcore.GetCapabilityRegistry() }

func TestPlanRequest(t *testing.T) {
	tests := []struct {
		name            string
		model           string
		params          *agentcore.RequestParams
		wantAdaptive    bool
		wantTypedBudget bool
		wantEffort      string
		wantBetaHeader  string
	}{
		{
			name:   "nil params",
			model:  "claude-opus-4-5",
			params: nil,
		},
		{
			name:       "effort without thinking",
			model:      "claude-opus-4-5",
			params:     &agentcore.RequestParams{Effort: strPtr(agentcore.EffortHigh)},
			wantEffort: agentcore.EffortHigh,
		},
		{
			name:         "adaptive thinking",
			model:        "claude-opus-4-6",
			params:       &agentcore.RequestParams{Thinking: agentcore.ThinkingAdaptive()},
			wantAdaptive: true,
		},
		{
			name:            "budget thinking on legacy model",
			model:           "claude-opus-4-5",
			params:          &agentcore.RequestParams{Thinking: agentcore.ThinkingWithBudget(8000)},
			wantTypedBudget: true,
			wantBetaHeader:  interleavedThinkingBeta,
		},
		{
			name:         "budget config on adaptive model upgrades to adaptive",
			model:        "claude-opus-4-6-20260115",
			params:       &agentcore.RequestParams{Thinking: agentcore.ThinkingWithBudget(8000)},
			wantAdaptive: true,
		},
		{
			name:  "adaptive with max effort",
			model: "claude-opus-4-6",
			params: &agentcore.RequestParams{
				Thinking: agentcore.ThinkingAdaptive(),
				Effort:   strPtr(agentcore.EffortMax),
			},
			wantAdaptive: true,
			wantEffort:   agentcore.EffortMax,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := planRequest(tt.model, tt.params, registry())

			if plan.AdaptiveThinking != tt.wantAdaptive {
				t.Errorf("AdaptiveThinking = %v, want %v", plan.AdaptiveThinking, tt.wantAdaptive)
			}
			if (plan.Thinking != nil) != tt.wantTypedBudget {
				t.Errorf("Thinking typed param present = %v, want %v", plan.Thinking != nil, tt.wantTypedBudget)
			}
			if plan.Effort != tt.wantEffort {
				t.Errorf("Effort = %q, want %q", plan.Effort, tt.wantEffort)
			}
			if plan.BetaHeader != tt.wantBetaHeader {
				t.Errorf("BetaHeader = %q, want %q", plan.BetaHeader, tt.wantBetaHeader)
			}

			// Adaptive and typed budget are mutually exclusive wire shapes.
			if plan.AdaptiveThinking && plan.Thinking != nil {
				t.Error("plan carries both adaptive override and typed budget config")
			}
			// The interleaved beta belongs to budget mode only.
			if plan.AdaptiveThinking && plan.BetaHeader != "" {
				t.Error("adaptive plan carries a beta header")
			}
		})
	}
}

func TestRequestPlan_RequestOptions(t *testing.T) {
	tests := []struct {
		name string
		plan requestPlan
		want int
	}{
		{name: "empty plan", plan: requestPlan{}, want: 0},
		{name: "adaptive only", plan: requestPlan{AdaptiveThinking: true}, want: 1},
		{name: "effort only", plan: requestPlan{Effort: agentcore.EffortLow}, want: 1},
		{
			name: "budget beta header",
			plan: requestPlan{BetaHeader: interleavedThinkingBeta},
			want: 1,
		},
		{
			name: "adaptive with effort",
			plan: requestPlan{AdaptiveThinking: true, Effort: agentcore.EffortMax},
			want: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := len(tt.plan.requestOptions()); got != tt.want {
				t.Errorf("got %d request options, want %d", got, tt.want)
			}
		})
	}
}

func TestBuildMessageParams(t *testing.T) {
	req := &agentcore.GenerateRequest{
		Model:  "claude-opus-4-5",
		System: "You are terse.",
		Messages: []agentcore.Message{
			agentcore.NewUserTextMessage("list the files"),
		},
		Tools: []agentcore.ToolDefinition{
			{
				Name:        "list_files",
				Description: "List directory entries",
				InputSchema: map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"path": map[string]interface{}{"type": "string"},
					},
					"required": []interface{}{"path"},
				},
			},
		},
		Params: &agentcore.RequestParams{
			MaxTokens:   intPtr(2048),
			Temperature: f64Ptr(0.5),
			TopK:        intPtr(40),
			Stop:        []string{"END"},
			Thinking:    agentcore.ThinkingWithBudget(4000),
		},
	}

	plan := planRequest(req.Model, req.Params, registry())
	apiParams, err := buildMessageParams(req, plan)
	if err != nil {
		t.Fatalf("buildMessageParams() error: %v", err)
	}

	if string(apiParams.Model) != "claude-opus-4-5" {
		t.Errorf("model = %s", apiParams.Model)
	}
	if apiParams.MaxTokens != 2048 {
		t.Errorf("max_tokens = %d, want 2048", apiParams.MaxTokens)
	}
	if len(apiParams.Messages) != 1 {
		t.Fatalf("got %d messages, want 1", len(apiParams.Messages))
	}
	if len(apiParams.System) != 1 || apiParams.System[0].Text != "You are terse." {
		t.Errorf("system = %+v", apiParams.System)
	}
	if len(apiParams.Tools) != 1 {
		t.Fatalf("got %d tools, want 1", len(apiParams.Tools))
	}
	tool := apiParams.Tools[0].OfTool
	if tool == nil || tool.Name != "list_files" {
		t.Fatalf("tool param = %+v", apiParams.Tools[0])
	}
	if len(tool.InputSchema.Required) != 1 || tool.InputSchema.Required[0] != "path" {
		t.Errorf("tool required = %v", tool.InputSchema.Required)
	}
	if len(apiParams.StopSequences) != 1 || apiParams.StopSequences[0] != "END" {
		t.Errorf("stop sequences = %v", apiParams.StopSequences)
	}
	if apiParams.Temperature.Value != 0.5 {
		t.Errorf("temperature = %v, want 0.5", apiParams.Temperature.Value)
	}
	if apiParams.TopK.Value != 40 {
		t.Errorf("top_k = %v, want 40", apiParams.TopK.Value)
	}
	if apiParams.Thinking.OfEnabled == nil || apiParams.Thinking.OfEnabled.BudgetTokens != 4000 {
		t.Errorf("thinking param = %+v", apiParams.Thinking)
	}
}

func TestBuildMessageParams_Defaults(t *testing.T) {
	req := &agentcore.GenerateRequest{
		Model:    "claude-opus-4-6",
		Messages: []agentcore.Message{agentcore.NewUserTextMessage("hi")},
	}

	apiParams, err := buildMessageParams(req, requestPlan{})
	if err != nil {
		t.Fatalf("buildMessageParams() error: %v", err)
	}
	if apiParams.MaxTokens != 4096 {
		t.Errorf("default max_tokens = %d, want 4096", apiParams.MaxTokens)
	}
	if len(apiParams.System) != 0 {
		t.Errorf("system = %+v, want empty", apiParams.System)
	}
	if len(apiParams.Tools) != 0 {
		t.Errorf("tools = %+v, want none", apiParams.Tools)
	}
}
