package agentcore

import (
	"errors"
	"testing"
)

func validationRequest(model string, params *RequestParams) *GenerateRequest {
	return &GenerateRequest{
		Messages: []Message{NewUserTextMessage("hello")},
		Model:    model,
		Params:   params,
	}
}

func TestValidateRequest_HardFailures(t *testing.T) {
	tests := []struct {
		name   string
		model  string
		params *RequestParams
	}{
		{
			name:   "adaptive thinking on budget model",
			model:  "claude-opus-4-5-20251101",
			params: &RequestParams{Thinking: ThinkingAdaptive()},
		},
		{
			name:   "budget thinking on adaptive model",
			model:  "claude-opus-4-6",
			params: &RequestParams{Thinking: ThinkingWithBudget(5000)},
		},
		{
			name:   "budget above family maximum",
			model:  "claude-haiku-4-5",
			params: &RequestParams{Thinking: ThinkingWithBudget(50000)},
		},
		{
			name:   "max effort on legacy model",
			model:  "claude-sonnet-4-5",
			params: &RequestParams{Effort: stringPtr(EffortMax)},
		},
		{
			name:   "max effort on unknown model",
			model:  "claude-mystery-9",
			params: &RequestParams{Effort: stringPtr(EffortMax)},
		},
		{
			name:   "parameter range failure",
			model:  "claude-opus-4-6",
			params: &RequestParams{Temperature: float64Ptr(3.0)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateRequest("anthropic", validationRequest(tt.model, tt.params))
			if err == nil {
				t.Fatal("ValidateRequest() = nil, want hard failure")
			}
			var validationErr *ValidationError
			if !errors.As(err, &validationErr) {
				t.Errorf("error is %T, want *ValidationError", err)
			}
		})
	}
}

func TestValidateRequest_ValidCombinations(t *testing.T) {
	tests := []struct {
		name   string
		model  string
		params *RequestParams
	}{
		{
			name:   "no params",
			model:  "claude-opus-4-6",
			params: nil,
		},
		{
			name:   "adaptive thinking with max effort on newest family",
			model:  "claude-opus-4-6",
			params: &RequestParams{Thinking: ThinkingAdaptive(), Effort: stringPtr(EffortMax)},
		},
		{
			name:   "budget thinking on legacy family",
			model:  "claude-opus-4-5-20251101",
			params: &RequestParams{Thinking: ThinkingWithBudget(8000), Effort: stringPtr(EffortHigh)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			warnings, err := ValidateRequest("anthropic", validationRequest(tt.model, tt.params))
			if err != nil {
				t.Fatalf("ValidateRequest() error: %v", err)
			}
			if len(warnings) != 0 {
				t.Errorf("unexpected warnings: %+v", warnings)
			}
		})
	}
}

func TestValidateRequest_Warnings(t *testing.T) {
	// Unknown model without risky features warns instead of failing.
	warnings, err := ValidateRequest("anthropic", validationRequest("claude-mystery-9", nil))
	if err != nil {
		t.Fatalf("ValidateRequest() error: %v", err)
	}
	unknown := FilterWarningsByCode(warnings, WarningCodeModelUnknown)
	if len(unknown) != 1 {
		t.Fatalf("warnings = %+v, want one MODEL_UNKNOWN", warnings)
	}
	if unknown[0].Severity != SeverityWarning {
		t.Errorf("severity = %s, want warning", unknown[0].Severity)
	}

	// A budget below the family minimum is informational.
	warnings, err = ValidateRequest("anthropic", validationRequest("claude-opus-4-5",
		&RequestParams{Thinking: ThinkingWithBudget(512)}))
	if err != nil {
		t.Fatalf("ValidateRequest() error: %v", err)
	}
	low := FilterWarningsByCode(warnings, WarningCodeThinkingBudgetTooLow)
	if len(low) != 1 {
		t.Fatalf("warnings = %+v, want one THINKING_BUDGET_TOO_LOW", warnings)
	}

	// Provider-specific ranges warn even when globally valid.
	warnings, err = ValidateRequest("anthropic", validationRequest("claude-opus-4-6",
		&RequestParams{Temperature: float64Ptr(1.5)}))
	if err != nil {
		t.Fatalf("ValidateRequest() error: %v", err)
	}
	temp := FilterWarningsByCode(warnings, WarningCodeTemperatureOutOfRange)
	if len(temp) != 1 {
		t.Fatalf("warnings = %+v, want one TEMPERATURE_OUT_OF_RANGE", warnings)
	}
}

func TestFilterWarningsBySeverity(t *testing.T) {
	warnings := []ValidationWarning{
		{Code: WarningCodeModelUnknown, Severity: SeverityWarning},
		{Code: WarningCodeThinkingBudgetTooLow, Severity: SeverityInfo},
		{Code: WarningCodeTopKOutOfRange, Severity: SeverityWarning},
	}

	filtered := FilterWarningsBySeverity(warnings, SeverityWarning)
	if len(filtered) != 2 {
		t.Errorf("got %d warnings, want 2", len(filtered))
	}

	filtered = FilterWarningsBySeverity(warnings, SeverityError)
	if len(filtered) != 0 {
		t.Errorf("got %d warnings, want 0", len(filtered))
	}
}
