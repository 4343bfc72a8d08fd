package agentcore

// Severity indicates how serious a validation warning is
type Severity string

const (
	SeverityInfo    Severity = "info"    // Informational (might be expected)
	SeverityWarning Severity = "warning" // Potentially problematic
	SeverityError   Severity = "error"   // Likely to cause API failure
)

// WarningCode is a machine-readable identifier for validation warnings
type WarningCode string

const (
	// Model warnings
	WarningCodeModelUnknown WarningCode = "MODEL_UNKNOWN"

	// Thinking warnings
	WarningCodeThinkingUnsupported  WarningCode = "THINKING_UNSUPPORTED"
	WarningCodeThinkingBudgetTooLow WarningCode = "THINKING_BUDGET_TOO_LOW"

	// Parameter warnings
	WarningCodeTemperatureOutOfRange WarningCode = "TEMPERATURE_OUT_OF_RANGE"
	WarningCodeTopPOutOfRange        WarningCode = "TOP_P_OUT_OF_RANGE"
	WarningCodeTopKOutOfRange        WarningCode = "TOP_K_OUT_OF_RANGE"
)

// ValidationWarning represents a soft issue that might degrade the request
// but will not certainly be rejected. Hard failures - combinations the
// provider is known to reject, like "max" effort outside the newest family -
// are returned as ValidationError from rule Check calls instead, and abort
// before any network call.
type ValidationWarning struct {
	Code     WarningCode // Machine-readable code
	Category string      // "model", "thinking", "parameter"
	Field    string      // Field that might cause issues
	Value    any         // The potentially problematic value
	Message  string      // Human-readable warning
	Severity Severity    // How serious this warning is
}

// ValidationRule interface allows adding custom validation logic
type ValidationRule interface {
	// Name returns a human-readable name for this rule
	Name() string

	// Check validates a request. A non-nil error is a hard local failure;
	// warnings are informational.
	Check(provider string, req *GenerateRequest) ([]ValidationWarning, error)
}
