package agentcore

import (
	"sync"
)

// ValidationEngine manages validation rules and executes them
type ValidationEngine struct {
	rules []ValidationRule
	mu    sync.RWMutex
}

var (
	globalValidationEngine     *ValidationEngine
	globalValidationEngineOnce sync.Once
)

// GetValidationEngine returns the global validation engine (singleton)
func GetValidationEngine() *ValidationEngine {
	globalValidationEngineOnce.Do(func() {
		globalValidationEngine = &ValidationEngine{
			rules: make([]ValidationRule, 0),
		}
		// Register default rules
		globalValidationEngine.registerDefaultRules()
	})
	return globalValidationEngine
}

// registerDefaultRules registers the built-in validation rules
func (ve *ValidationEngine) registerDefaultRules() {
	registry := GetCapabilityRegistry()

	ve.AddRule(&ModelValidationRule{registry: registry})
	ve.AddRule(&ThinkingValidationRule{registry: registry})
	ve.AddRule(&EffortValidationRule{registry: registry})
	ve.AddRule(&ParameterValidationRule{registry: registry})
}

// AddRule adds a validation rule to the engine
func (ve *ValidationEngine) AddRule(rule ValidationRule) {
	ve.mu.Lock()
	defer ve.mu.Unlock()
	ve.rules = append(ve.rules, rule)
}

// RemoveRule removes a validation rule by name
func (ve *ValidationEngine) RemoveRule(name string) bool {
	ve.mu.Lock()
	defer ve.mu.Unlock()

	for i, rule := range ve.rules {
		if rule.Name() == name {
			ve.rules = append(ve.rules[:i], ve.rules[i+1:]...)
			return true
		}
	}
	return false
}

// Validate runs all rules against a request. The first hard failure stops
// evaluation and is returned along with any warnings collected so far.
// Parameter-range checks run first so a malformed request never reaches
// capability rules.
func (ve *ValidationEngine) Validate(provider string, req *GenerateRequest) ([]ValidationWarning, error) {
	ve.mu.RLock()
	defer ve.mu.RUnlock()

	if err := ValidateRequestParams(req.Params); err != nil {
		return nil, err
	}

	var warnings []ValidationWarning
	for _, rule := range ve.rules {
		ruleWarnings, err := rule.Check(provider, req)
		warnings = append(warnings, ruleWarnings...)
		if err != nil {
			return warnings, err
		}
	}
	return warnings, nil
}

// ValidateRequest is the main validation entry point, run by the engine
// before any network call. A non-nil error means the request would be
// rejected by the provider; the error names the offending field.
func ValidateRequest(provider string, req *GenerateRequest) ([]ValidationWarning, error) {
	return GetValidationEngine().Validate(provider, req)
}

// FilterWarningsBySeverity returns warnings matching the specified severities
func FilterWarningsBySeverity(warnings []ValidationWarning, severities ...Severity) []ValidationWarning {
	filtered := make([]ValidationWarning, 0)
	severityMap := make(map[Severity]bool)
	for _, s := range severities {
		severityMap[s] = true
	}

	for _, w := range warnings {
		if severityMap[w.Severity] {
			filtered = append(filtered, w)
		}
	}
	return filtered
}

// FilterWarningsByCode returns warnings matching the specified codes
func FilterWarningsByCode(warnings []ValidationWarning, codes ...WarningCode) []ValidationWarning {
	filtered := make([]ValidationWarning, 0)
	codeMap := make(map[WarningCode]bool)
	for _, c := range codes {
		codeMap[c] = true
	}

	for _, w := range warnings {
		if codeMap[w.Code] {
			filtered = append(filtered, w)
		}
	}
	return filtered
}
