package anthropic

import (
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	agentcore "github.com/haowjy/meridian-agent-go"
)

// interleavedThinkingBeta is the capability header legacy (budget-thinking)
// models need for thinking between tool calls. Adaptive-thinking models must
// never receive it.
const interleavedThinkingBeta = "interleaved-thinking-2025-05-14"

// requestPlan captures everything about thinking and effort that cannot be
// expressed purely through the SDK's typed params: adaptive thinking and
// output_config ride in as JSON overrides, the interleaved beta as a header.
// Split out from request building so the variance matrix is testable without
// a network.
type requestPlan struct {
	// Thinking is the typed control for budget mode (nil when off/adaptive)
	Thinking *anthropic.ThinkingConfigParamUnion

	// AdaptiveThinking requests {"type":"adaptive"} via JSON override
	AdaptiveThinking bool

	// Effort serializes under output_config.effort ("" when unset)
	Effort string

	// BetaHeader is the anthropic-beta value to attach ("" for none)
	BetaHeader string
}

// planRequest resolves the thinking/effort configuration for a model.
// Validation has already rejected unsupported combinations; this only
// decides the wire shape.
func planRequest(model string, params *agentcore.RequestParams, registry *agentcore.CapabilityRegistry) requestPlan {
	plan := requestPlan{Effort: params.GetEffort()}

	thinking := params.GetThinking()
	if !thinking.IsEnabled() {
		return plan
	}

	if thinking.IsAdaptive() || registry.SupportsAdaptiveThinking(agentcore.ProviderAnthropic.String(), model) {
		plan.AdaptiveThinking = true
		return plan
	}

	typed := anthropic.ThinkingConfigParamOfEnabled(int64(thinking.BudgetTokens))
	plan.Thinking = &typed
	plan.BetaHeader = interleavedThinkingBeta
	return plan
}

// requestOptions converts the plan's JSON overrides and headers into
// per-request options.
func (plan requestPlan) requestOptions() []option.RequestOption {
	var opts []option.RequestOption
	if plan.AdaptiveThinking {
		opts = append(opts, option.WithJSONSet("thinking", map[string]interface{}{"type": "adaptive"}))
	}
	if plan.Effort != "" {
		opts = append(opts, option.WithJSONSet("output_config", map[string]interface{}{"effort": plan.Effort}))
	}
	if plan.BetaHeader != "" {
		opts = append(opts, option.WithHeader("anthropic-beta", plan.BetaHeader))
	}
	return opts
}

// buildMessageParams constructs the typed Anthropic API parameters.
func buildMessageParams(req *agentcore.GenerateRequest, plan requestPlan) (anthropic.MessageNewParams, error) {
	messages, err := convertToAnthropicMessages(req.Messages)
	if err != nil {
		return anthropic.MessageNewParams{}, fmt.Errorf("failed to convert messages: %w", err)
	}

	params := req.Params
	if params == nil {
		params = &agentcore.RequestParams{}
	}

	apiParams := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		Messages:  messages,
		MaxTokens: int64(params.GetMaxTokens(4096)),
	}

	if params.Temperature != nil {
		apiParams.Temperature = anthropic.Float(*params.Temperature)
	}

	if params.TopP != nil {
		apiParams.TopP = anthropic.Float(*params.TopP)
	}

	if params.TopK != nil {
		apiParams.TopK = anthropic.Int(int64(*params.TopK))
	}

	if len(params.Stop) > 0 {
		apiParams.StopSequences = params.Stop
	}

	if req.System != "" {
		apiParams.System = []anthropic.TextBlockParam{
			{
				Type: "text",
				Text: req.System,
			},
		}
	}

	if len(req.Tools) > 0 {
		tools, err := convertToolsToAnthropicTools(req.Tools)
		if err != nil {
			return anthropic.MessageNewParams{}, err
		}
		apiParams.Tools = tools
	}

	if plan.Thinking != nil {
		apiParams.Thinking = *plan.Thinking
	}

	return apiParams, nil
}
