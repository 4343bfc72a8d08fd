package agentcore

import (
	"fmt"
)

// ModelValidationRule checks model-related warnings
type ModelValidationRule struct {
	registry *CapabilityRegistry
}

func (r *ModelValidationRule) Name() string {
	return "Model Validation"
}

func (r *ModelValidationRule) Check(provider string, req *GenerateRequest) ([]ValidationWarning, error) {
	var warnings []ValidationWarning

	// Unknown models are a warning, not an error: capabilities may simply
	// be older than the model.
	if !r.registry.SupportsModel(provider, req.Model) {
		warnings = append(warnings, ValidationWarning{
			Code:     WarningCodeModelUnknown,
			Category: "model",
			Field:    "model",
			Value:    req.Model,
			Message:  fmt.Sprintf("Model %s not found in %s capabilities (capabilities may be outdated)", req.Model, provider),
			Severity: SeverityWarning,
		})
	}

	return warnings, nil
}

// ThinkingValidationRule checks the thinking control against model capabilities.
// Combinations the provider is known to reject fail hard, before any network call.
type ThinkingValidationRule struct {
	registry *CapabilityRegistry
}

func (r *ThinkingValidationRule) Name() string {
	return "Thinking Validation"
}

func (r *ThinkingValidationRule) Check(provider string, req *GenerateRequest) ([]ValidationWarning, error) {
	var warnings []ValidationWarning

	thinking := req.Params.GetThinking()
	if !thinking.IsEnabled() {
		return warnings, nil
	}

	modelCap, err := r.registry.GetModelCapability(provider, req.Model)
	if err != nil {
		// Can't check without capabilities
		return warnings, nil
	}

	if !modelCap.Thinking.Supported {
		warnings = append(warnings, ValidationWarning{
			Code:     WarningCodeThinkingUnsupported,
			Category: "thinking",
			Field:    "thinking",
			Value:    thinking.Mode,
			Message:  fmt.Sprintf("Model %s might not support extended thinking", req.Model),
			Severity: SeverityWarning,
		})
		return warnings, nil
	}

	if thinking.IsAdaptive() && !modelCap.Thinking.Adaptive {
		return warnings, &ValidationError{
			Field:  "thinking.type",
			Value:  ThinkingModeAdaptive,
			Reason: fmt.Sprintf("model %s requires an explicit thinking budget; adaptive thinking is not available", req.Model),
			Err:    ErrUnsupportedFeature,
		}
	}

	if thinking.Mode == ThinkingModeEnabled && modelCap.Thinking.Adaptive {
		return warnings, &ValidationError{
			Field:  "thinking.type",
			Value:  ThinkingModeEnabled,
			Reason: fmt.Sprintf("model %s manages its own thinking; use adaptive mode instead of a budget", req.Model),
			Err:    ErrUnsupportedFeature,
		}
	}

	if thinking.Mode == ThinkingModeEnabled {
		budget := thinking.BudgetTokens
		min, max := modelCap.Thinking.MinBudget, modelCap.Thinking.MaxBudget

		if budget < min {
			warnings = append(warnings, ValidationWarning{
				Code:     WarningCodeThinkingBudgetTooLow,
				Category: "thinking",
				Field:    "thinking.budget_tokens",
				Value:    budget,
				Message:  fmt.Sprintf("Thinking budget %d below recommended minimum %d", budget, min),
				Severity: SeverityInfo,
			})
		}

		if max > 0 && budget > max {
			return warnings, &ValidationError{
				Field:  "thinking.budget_tokens",
				Value:  budget,
				Reason: fmt.Sprintf("thinking budget exceeds maximum %d for model %s", max, req.Model),
				Err:    ErrInvalidRequest,
			}
		}
	}

	return warnings, nil
}

// EffortValidationRule checks the effort level against model capabilities.
type EffortValidationRule struct {
	registry *CapabilityRegistry
}

func (r *EffortValidationRule) Name() string {
	return "Effort Validation"
}

func (r *EffortValidationRule) Check(provider string, req *GenerateRequest) ([]ValidationWarning, error) {
	effort := req.Params.GetEffort()
	if effort == "" {
		return nil, nil
	}

	if !ValidEffort(effort) {
		return nil, &ValidationError{
			Field:  "effort",
			Value:  effort,
			Reason: "must be 'low', 'medium', 'high', or 'max'",
			Err:    ErrInvalidRequest,
		}
	}

	if effort == EffortMax {
		modelCap, err := r.registry.GetModelCapability(provider, req.Model)
		// Unknown model with "max" requested still fails: "max" is only
		// known to work on families explicitly flagged for it.
		if err != nil || !modelCap.SupportsMaxEffort {
			return nil, &ValidationError{
				Field:  "effort",
				Value:  EffortMax,
				Reason: fmt.Sprintf("'max' effort is not supported by model %s", req.Model),
				Err:    ErrUnsupportedFeature,
			}
		}
	}

	return nil, nil
}

// ParameterValidationRule checks parameter range warnings against
// provider-wide constraints.
type ParameterValidationRule struct {
	registry *CapabilityRegistry
}

func (r *ParameterValidationRule) Name() string {
	return "Parameter Validation"
}

func (r *ParameterValidationRule) Check(provider string, req *GenerateRequest) ([]ValidationWarning, error) {
	var warnings []ValidationWarning

	if req.Params == nil {
		return warnings, nil
	}

	providerCaps, err := r.registry.GetProviderCapabilities(provider)
	if err != nil {
		// Can't check without capabilities
		return warnings, nil
	}

	constraints := providerCaps.Constraints

	if req.Params.Temperature != nil {
		temp := *req.Params.Temperature
		if temp < constraints.TemperatureMin || temp > constraints.TemperatureMax {
			warnings = append(warnings, ValidationWarning{
				Code:     WarningCodeTemperatureOutOfRange,
				Category: "parameter",
				Field:    "temperature",
				Value:    temp,
				Message:  fmt.Sprintf("Temperature %.2f outside recommended range [%.2f, %.2f]", temp, constraints.TemperatureMin, constraints.TemperatureMax),
				Severity: SeverityWarning,
			})
		}
	}

	if req.Params.TopP != nil {
		topP := *req.Params.TopP
		if topP < constraints.TopPMin || topP > constraints.TopPMax {
			warnings = append(warnings, ValidationWarning{
				Code:     WarningCodeTopPOutOfRange,
				Category: "parameter",
				Field:    "top_p",
				Value:    topP,
				Message:  fmt.Sprintf("TopP %.2f outside recommended range [%.2f, %.2f]", topP, constraints.TopPMin, constraints.TopPMax),
				Severity: SeverityWarning,
			})
		}
	}

	if req.Params.TopK != nil {
		topK := *req.Params.TopK
		if topK < constraints.TopKMin || topK > constraints.TopKMax {
			warnings = append(warnings, ValidationWarning{
				Code:     WarningCodeTopKOutOfRange,
				Category: "parameter",
				Field:    "top_k",
				Value:    topK,
				Message:  fmt.Sprintf("TopK %d outside recommended range [%d, %d]", topK, constraints.TopKMin, constraints.TopKMax),
				Severity: SeverityWarning,
			})
		}
	}

	return warnings, nil
}
