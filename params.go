package agentcore

import "fmt"

// Thinking mode constants for ThinkingConfig.Mode
const (
	ThinkingModeOff      = "off"
	ThinkingModeEnabled  = "enabled"  // Explicit token budget (legacy model families)
	ThinkingModeAdaptive = "adaptive" // Model decides; newest family only
)

// ThinkingConfig is the thinking control union: off, enabled with a token
// budget, or adaptive. Adaptive mode must never carry the legacy capability
// header that enabled mode requires; adapters enforce that split.
type ThinkingConfig struct {
	// Mode is one of the ThinkingMode* constants
	Mode string `json:"type"`

	// BudgetTokens is the thinking token budget.
	// Required for enabled mode, ignored otherwise.
	BudgetTokens int `json:"budget_tokens,omitempty"`
}

// ThinkingOff returns a disabled thinking control.
func ThinkingOff() *ThinkingConfig {
	return &ThinkingConfig{Mode: ThinkingModeOff}
}

// ThinkingWithBudget returns a budget-thinking control.
func ThinkingWithBudget(tokens int) *ThinkingConfig {
	return &ThinkingConfig{Mode: ThinkingModeEnabled, BudgetTokens: tokens}
}

// ThinkingAdaptive returns an adaptive thinking control.
func ThinkingAdaptive() *ThinkingConfig {
	return &ThinkingConfig{Mode: ThinkingModeAdaptive}
}

// IsEnabled reports whether any form of thinking is on.
func (tc *ThinkingConfig) IsEnabled() bool {
	return tc != nil && tc.Mode != "" && tc.Mode != ThinkingModeOff
}

// IsAdaptive reports whether the model chooses its own thinking depth.
func (tc *ThinkingConfig) IsAdaptive() bool {
	return tc != nil && tc.Mode == ThinkingModeAdaptive
}

// Effort level constants. Effort is a cost/quality control independent of the
// thinking mode; it serializes in its own request section (output_config),
// never inside the thinking control.
const (
	EffortLow    = "low"
	EffortMedium = "medium"
	EffortHigh   = "high"
	EffortMax    = "max" // Newest model family only
)

// ValidEffort returns true for a known effort level.
func ValidEffort(effort string) bool {
	switch effort {
	case EffortLow, EffortMedium, EffortHigh, EffortMax:
		return true
	default:
		return false
	}
}

// RequestParams represents all request parameters the engine understands.
// Optional fields are pointers to distinguish "not set" from "set to zero value".
type RequestParams struct {
	// MaxTokens sets the maximum number of tokens to generate
	MaxTokens *int `json:"max_tokens,omitempty"`

	// Temperature controls randomness (0.0-1.0)
	Temperature *float64 `json:"temperature,omitempty"`

	// TopP (nucleus sampling) - cumulative probability cutoff (0.0-1.0)
	TopP *float64 `json:"top_p,omitempty"`

	// TopK limits sampling to top K tokens
	TopK *int `json:"top_k,omitempty"`

	// Stop sequences - generation stops if any of these are generated
	Stop []string `json:"stop,omitempty"`

	// Thinking is the thinking control union (nil means off)
	Thinking *ThinkingConfig `json:"thinking,omitempty"`

	// Effort is the cost/quality level ("low", "medium", "high", "max").
	// Serialized under output_config in outgoing requests, never inside Thinking.
	Effort *string `json:"effort,omitempty"`
}

// ValidateRequestParams checks parameter ranges.
// Model-capability interactions (adaptive support, max effort, thinking
// budgets) are checked by ValidateRequest with the capability registry.
func ValidateRequestParams(params *RequestParams) error {
	if params == nil {
		return nil // nil params is valid
	}

	if params.Temperature != nil {
		if *params.Temperature < 0.0 || *params.Temperature > 2.0 {
			return &ValidationError{
				Field:  "temperature",
				Value:  *params.Temperature,
				Reason: "must be between 0.0 and 2.0",
				Err:    ErrInvalidRequest,
			}
		}
	}

	if params.TopP != nil {
		if *params.TopP < 0.0 || *params.TopP > 1.0 {
			return &ValidationError{
				Field:  "top_p",
				Value:  *params.TopP,
				Reason: "must be between 0.0 and 1.0",
				Err:    ErrInvalidRequest,
			}
		}
	}

	if params.TopK != nil {
		if *params.TopK < 0 {
			return &ValidationError{
				Field:  "top_k",
				Value:  *params.TopK,
				Reason: "must be non-negative",
				Err:    ErrInvalidRequest,
			}
		}
	}

	if params.MaxTokens != nil {
		if *params.MaxTokens < 1 {
			return &ValidationError{
				Field:  "max_tokens",
				Value:  *params.MaxTokens,
				Reason: "must be positive",
				Err:    ErrInvalidRequest,
			}
		}
	}

	if params.Thinking != nil {
		switch params.Thinking.Mode {
		case ThinkingModeOff, ThinkingModeAdaptive:
			// No budget expected
		case ThinkingModeEnabled:
			if params.Thinking.BudgetTokens < 1 {
				return &ValidationError{
					Field:  "thinking.budget_tokens",
					Value:  params.Thinking.BudgetTokens,
					Reason: "enabled thinking requires a positive token budget",
					Err:    ErrInvalidRequest,
				}
			}
		default:
			return &ValidationError{
				Field:  "thinking.type",
				Value:  params.Thinking.Mode,
				Reason: fmt.Sprintf("must be '%s', '%s', or '%s'", ThinkingModeOff, ThinkingModeEnabled, ThinkingModeAdaptive),
				Err:    ErrInvalidRequest,
			}
		}
	}

	if params.Effort != nil && !ValidEffort(*params.Effort) {
		return &ValidationError{
			Field:  "effort",
			Value:  *params.Effort,
			Reason: "must be 'low', 'medium', 'high', or 'max'",
			Err:    ErrInvalidRequest,
		}
	}

	return nil
}

// GetMaxTokens returns max_tokens with default fallback
func (rp *RequestParams) GetMaxTokens(defaultValue int) int {
	if rp != nil && rp.MaxTokens != nil {
		return *rp.MaxTokens
	}
	return defaultValue
}

// GetTemperature returns temperature with default fallback
func (rp *RequestParams) GetTemperature(defaultValue float64) float64 {
	if rp != nil && rp.Temperature != nil {
		return *rp.Temperature
	}
	return defaultValue
}

// GetEffort returns the effort level, or empty string when unset.
func (rp *RequestParams) GetEffort() string {
	if rp != nil && rp.Effort != nil {
		return *rp.Effort
	}
	return ""
}

// GetThinking returns the thinking control, defaulting to off.
func (rp *RequestParams) GetThinking() *ThinkingConfig {
	if rp != nil && rp.Thinking != nil {
		return rp.Thinking
	}
	return ThinkingOff()
}
