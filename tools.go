package agentcore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Well-known tool output error codes
const (
	// ToolErrorCodeCanceled marks a result synthesized for an invocation that
	// was cancelled before it completed. Cancellation is not a failure, but
	// it shares the failure envelope so providers see a uniform shape.
	ToolErrorCodeCanceled = "canceled"

	// ToolErrorCodeFault marks a crash inside a tool body (panic), as opposed
	// to a tool-level business failure.
	ToolErrorCodeFault = "internal_fault"

	// ToolErrorCodeExecution marks a tool body that returned an error instead
	// of a structured failure.
	ToolErrorCodeExecution = "execution_error"

	// ToolErrorCodeInvalidJSON marks an invocation whose streamed input never
	// parsed as JSON. The raw fragment is preserved for the model to see.
	ToolErrorCodeInvalidJSON = "invalid_json"

	// ToolErrorCodeUnknownTool marks an invocation of a tool that is not registered.
	ToolErrorCodeUnknownTool = "unknown_tool"
)

// RawMalformedInputKey is where the unparseable input fragment is preserved
// when a tool invocation seals with invalid JSON.
const RawMalformedInputKey = "_raw_malformed"

// ToolError describes a failed (or cancelled) tool invocation.
type ToolError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// ToolOutput is the uniform envelope every tool invocation resolves to.
// Success: {ok:true, data:...}. Failure: {ok:false, error:{code, message}}.
type ToolOutput struct {
	OK    bool        `json:"ok"`
	Data  interface{} `json:"data,omitempty"`
	Error *ToolError  `json:"error,omitempty"`
}

// ToolSuccess wraps a successful tool payload.
func ToolSuccess(data interface{}) ToolOutput {
	return ToolOutput{OK: true, Data: data}
}

// ToolFailure wraps a tool-level failure with a machine-readable code.
func ToolFailure(code, message string) ToolOutput {
	return ToolOutput{OK: false, Error: &ToolError{Code: code, Message: message}}
}

// ToolCanceled wraps a cancellation outcome for an invocation that never completed.
func ToolCanceled(message string) ToolOutput {
	return ToolFailure(ToolErrorCodeCanceled, message)
}

// ToolFault wraps a crash inside a tool body.
func ToolFault(message string) ToolOutput {
	return ToolFailure(ToolErrorCodeFault, message)
}

// IsCanceled reports whether this output was synthesized for a cancelled invocation.
func (o ToolOutput) IsCanceled() bool {
	return !o.OK && o.Error != nil && o.Error.Code == ToolErrorCodeCanceled
}

// IsFailure reports whether the tool reported (or was assigned) a failure.
func (o ToolOutput) IsFailure() bool {
	return !o.OK
}

// Serialize renders the envelope as JSON for persistence and replay.
func (o ToolOutput) Serialize() string {
	data, err := json.Marshal(o)
	if err != nil {
		// Data payloads are caller-supplied; an unmarshalable one degrades
		// to a failure envelope rather than losing the record.
		fallback, _ := json.Marshal(ToolFailure(ToolErrorCodeExecution, fmt.Sprintf("unserializable tool output: %v", err)))
		return string(fallback)
	}
	return string(data)
}

// ToolDefinition is a named, schema-described operation the model can invoke.
type ToolDefinition struct {
	Name        string                 `json:"name"`                  // Unique tool name (required)
	Description string                 `json:"description,omitempty"` // What the tool does
	InputSchema map[string]interface{} `json:"input_schema"`          // JSON Schema for the input
}

// Validate checks if the ToolDefinition is properly configured
func (t *ToolDefinition) Validate() error {
	if t.Name == "" {
		return errors.New("tool name is required")
	}

	if t.InputSchema == nil {
		return errors.New("tool input schema is required")
	}

	if schemaType, ok := t.InputSchema["type"].(string); !ok || schemaType != "object" {
		return errors.New("tool input schema must be a JSON schema with type 'object'")
	}

	return nil
}

// ToolExecutor is the boundary between the coordinator and a tool body.
// Execute may block on external I/O; it should honor ctx cancellation, but
// cancellation is best-effort - work past a point of no return may still
// land after the coordinator has reported the invocation as cancelled.
//
// A returned ToolOutput failure is a business failure the model should see.
// A returned error is an execution fault and maps to an execution_error
// failure; a panic maps to internal_fault. Neither crashes the coordinator.
type ToolExecutor interface {
	Definition() ToolDefinition
	Execute(ctx context.Context, input map[string]interface{}) (ToolOutput, error)
}

// ToolFunc adapts a plain function into a ToolExecutor.
type ToolFunc struct {
	Def ToolDefinition
	Fn  func(ctx context.Context, input map[string]interface{}) (ToolOutput, error)
}

func (t ToolFunc) Definition() ToolDefinition {
	return t.Def
}

func (t ToolFunc) Execute(ctx context.Context, input map[string]interface{}) (ToolOutput, error) {
	return t.Fn(ctx, input)
}

// NewTool builds a ToolExecutor from a definition and a function.
func NewTool(name, description string, schema map[string]interface{}, fn func(ctx context.Context, input map[string]interface{}) (ToolOutput, error)) ToolExecutor {
	return ToolFunc{
		Def: ToolDefinition{Name: name, Description: description, InputSchema: schema},
		Fn:  fn,
	}
}
