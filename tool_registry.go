package agentcore

import (
	"fmt"
	"sort"
	"sync"
)

// ToolRegistry manages the executable tools available to a turn engine.
// The coordinator treats every registered tool uniformly regardless of what
// it does internally.
type ToolRegistry struct {
	tools map[string]ToolExecutor
	mu    sync.RWMutex
}

// NewToolRegistry creates an empty tool registry.
func NewToolRegistry() *ToolRegistry {
	return &ToolRegistry{
		tools: make(map[string]ToolExecutor),
	}
}

// Register adds a tool executor to the registry
func (r *ToolRegistry) Register(tool ToolExecutor) error {
	def := tool.Definition()
	if err := def.Validate(); err != nil {
		return fmt.Errorf("invalid tool definition: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[def.Name]; exists {
		return fmt.Errorf("tool %s is already registered", def.Name)
	}

	r.tools[def.Name] = tool
	return nil
}

// Unregister removes a tool from the registry
// This is useful for testing or replacing tool implementations
func (r *ToolRegistry) Unregister(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[name]; !exists {
		return fmt.Errorf("tool %s is not registered", name)
	}

	delete(r.tools, name)
	return nil
}

// Get retrieves a tool executor by name
func (r *ToolRegistry) Get(name string) (ToolExecutor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tool, exists := r.tools[name]
	if !exists {
		return nil, fmt.Errorf("unknown tool: %s", name)
	}

	return tool, nil
}

// IsRegistered checks if a tool is registered
func (r *ToolRegistry) IsRegistered(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.tools[name]
	return exists
}

// List returns all registered tool names, sorted
func (r *ToolRegistry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Definitions returns the tool definitions to attach to an outgoing request,
// sorted by name for a stable request shape.
func (r *ToolRegistry) Definitions() []ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)

	defs := make([]ToolDefinition, 0, len(names))
	for _, name := range names {
		defs = append(defs, r.tools[name].Definition())
	}
	return defs
}
