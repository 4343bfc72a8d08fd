package agentcore

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed config/capabilities/anthropic.yaml
var anthropicCapabilitiesYAML []byte

// The capability registry carries the model metadata that request building
// and validation key off: thinking support (budget vs adaptive), effort
// levels, budget ranges, context windows. Entries are keyed by model family
// and matched by ID prefix, so dated releases of a family resolve without
// per-release entries.
//
// Library users can override the embedded data by:
//  1. Calling LoadCapabilitiesFromFile() with custom YAML
//  2. Calling RegisterProviderCapabilities() programmatically

// ProviderCapabilities represents the full capability configuration for a provider
type ProviderCapabilities struct {
	Version     string                     `yaml:"version"`      // Semantic version (e.g., "1.0.0")
	LastUpdated string                     `yaml:"last_updated"` // ISO 8601 date (e.g., "2025-08-15")
	Provider    string                     `yaml:"provider"`
	Models      map[string]ModelCapability `yaml:"models"`
	Constraints ProviderConstraints        `yaml:"constraints"`
}

// ModelCapability represents the capabilities of a model family
type ModelCapability struct {
	// MatchPrefixes lists model ID prefixes that resolve to this family
	MatchPrefixes []string `yaml:"match_prefixes"`

	ContextWindow   int `yaml:"context_window"`
	MaxOutputTokens int `yaml:"max_output_tokens"`

	Thinking ThinkingCapability `yaml:"thinking"`

	// SupportsMaxEffort is true only for the newest model family;
	// "max" effort on any other family fails validation locally.
	SupportsMaxEffort bool `yaml:"supports_max_effort"`
}

// ThinkingCapability defines thinking/reasoning constraints for a family
type ThinkingCapability struct {
	// Supported is false for families without extended thinking
	Supported bool `yaml:"supported"`

	// Adaptive is true when the family chooses its own thinking depth.
	// Adaptive families must never receive the legacy interleaved-thinking
	// capability header; budget families with thinking enabled must.
	Adaptive bool `yaml:"adaptive"`

	MinBudget int `yaml:"min_budget"`
	MaxBudget int `yaml:"max_budget"`

	// EffortToBudget maps effort levels to budgets for budget families
	EffortToBudget map[string]int `yaml:"effort_to_budget"`
}

// ProviderConstraints defines provider-wide parameter limits
type ProviderConstraints struct {
	TemperatureMin float64 `yaml:"temperature_min"`
	TemperatureMax float64 `yaml:"temperature_max"`
	TopPMin        float64 `yaml:"top_p_min"`
	TopPMax        float64 `yaml:"top_p_max"`
	TopKMin        int     `yaml:"top_k_min"`
	TopKMax        int     `yaml:"top_k_max"`
}

// CapabilityRegistry manages provider capabilities
type CapabilityRegistry struct {
	capabilities map[string]*ProviderCapabilities
	mu           sync.RWMutex
}

var (
	globalRegistry     *CapabilityRegistry
	globalRegistryOnce sync.Once
)

// GetCapabilityRegistry returns the global capability registry (singleton)
func GetCapabilityRegistry() *CapabilityRegistry {
	globalRegistryOnce.Do(func() {
		globalRegistry = &CapabilityRegistry{
			capabilities: make(map[string]*ProviderCapabilities),
		}
		// Load embedded Anthropic capabilities
		if err := globalRegistry.loadAnthropicCapabilities(); err != nil {
			// Log error but don't panic - validation will catch missing capabilities
			fmt.Printf("Warning: failed to load Anthropic capabilities: %v\n", err)
		}
	})
	return globalRegistry
}

// loadAnthropicCapabilities loads the embedded Anthropic YAML
func (r *CapabilityRegistry) loadAnthropicCapabilities() error {
	var caps ProviderCapabilities
	if err := yaml.Unmarshal(anthropicCapabilitiesYAML, &caps); err != nil {
		return fmt.Errorf("failed to unmarshal Anthropic capabilities: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.capabilities["anthropic"] = &caps

	return nil
}

// GetProviderCapabilities returns capabilities for a provider
func (r *CapabilityRegistry) GetProviderCapabilities(provider string) (*ProviderCapabilities, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	caps, ok := r.capabilities[provider]
	if !ok {
		return nil, fmt.Errorf("no capabilities found for provider: %s", provider)
	}
	return caps, nil
}

// GetModelCapability resolves a model ID to its family capability.
// Exact family names match first, then the longest matching prefix.
func (r *CapabilityRegistry) GetModelCapability(provider, model string) (*ModelCapability, error) {
	providerCaps, err := r.GetProviderCapabilities(provider)
	if err != nil {
		return nil, err
	}

	if modelCap, ok := providerCaps.Models[model]; ok {
		return &modelCap, nil
	}

	var best *ModelCapability
	bestLen := 0
	for name := range providerCaps.Models {
		modelCap := providerCaps.Models[name]
		for _, prefix := range modelCap.MatchPrefixes {
			if strings.HasPrefix(model, prefix) && len(prefix) > bestLen {
				c := modelCap
				best = &c
				bestLen = len(prefix)
			}
		}
	}
	if best == nil {
		return nil, fmt.Errorf("model %s not found for provider %s", model, provider)
	}
	return best, nil
}

// SupportsModel checks if a provider supports a specific model
func (r *CapabilityRegistry) SupportsModel(provider, model string) bool {
	_, err := r.GetModelCapability(provider, model)
	return err == nil
}

// SupportsThinking checks if a model supports extended thinking
func (r *CapabilityRegistry) SupportsThinking(provider, model string) bool {
	modelCap, err := r.GetModelCapability(provider, model)
	if err != nil {
		return false
	}
	return modelCap.Thinking.Supported
}

// SupportsAdaptiveThinking checks if a model chooses its own thinking depth
func (r *CapabilityRegistry) SupportsAdaptiveThinking(provider, model string) bool {
	modelCap, err := r.GetModelCapability(provider, model)
	if err != nil {
		return false
	}
	return modelCap.Thinking.Adaptive
}

// SupportsMaxEffort checks if a model accepts "max" effort
func (r *CapabilityRegistry) SupportsMaxEffort(provider, model string) bool {
	modelCap, err := r.GetModelCapability(provider, model)
	if err != nil {
		return false
	}
	return modelCap.SupportsMaxEffort
}

// GetThinkingBudgetRange returns the valid thinking budget range for a model
func (r *CapabilityRegistry) GetThinkingBudgetRange(provider, model string) (min int, max int, err error) {
	modelCap, err := r.GetModelCapability(provider, model)
	if err != nil {
		return 0, 0, err
	}
	return modelCap.Thinking.MinBudget, modelCap.Thinking.MaxBudget, nil
}

// ConvertEffortToBudget converts an effort level to a token budget for
// budget-thinking families. Falls back to defaults if the model is unknown.
func (r *CapabilityRegistry) ConvertEffortToBudget(provider, model, effort string) (int, error) {
	// Default thinking budgets (used when model not in registry)
	defaultBudgets := map[string]int{
		EffortLow:    2000,
		EffortMedium: 5000,
		EffortHigh:   12000,
	}

	modelCap, err := r.GetModelCapability(provider, model)
	if err != nil {
		budget, ok := defaultBudgets[effort]
		if !ok {
			return 0, fmt.Errorf("unknown effort level: %s (valid: low, medium, high)", effort)
		}
		return budget, nil
	}

	budget, ok := modelCap.Thinking.EffortToBudget[effort]
	if !ok {
		defaultBudget, defaultOk := defaultBudgets[effort]
		if !defaultOk {
			return 0, fmt.Errorf("unknown effort level: %s (valid: low, medium, high)", effort)
		}
		return defaultBudget, nil
	}
	return budget, nil
}

// LoadCapabilitiesFromFile loads provider capabilities from a YAML file.
// This allows library users to override embedded capabilities with custom data.
// The file format should match the embedded YAML structure.
func (r *CapabilityRegistry) LoadCapabilitiesFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read capabilities file: %w", err)
	}

	var caps ProviderCapabilities
	if err := yaml.Unmarshal(data, &caps); err != nil {
		return fmt.Errorf("failed to unmarshal capabilities: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.capabilities[caps.Provider] = &caps

	return nil
}

// RegisterProviderCapabilities programmatically registers provider capabilities.
// This allows library users to define capabilities in code rather than YAML.
func (r *CapabilityRegistry) RegisterProviderCapabilities(provider string, caps *ProviderCapabilities) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.capabilities[provider] = caps
}

// LoadCapabilitiesFromFile is a convenience function that calls the global registry's LoadCapabilitiesFromFile.
func LoadCapabilitiesFromFile(path string) error {
	return GetCapabilityRegistry().LoadCapabilitiesFromFile(path)
}

// RegisterProviderCapabilities is a convenience function that calls the global registry's RegisterProviderCapabilities.
func RegisterProviderCapabilities(provider string, caps *ProviderCapabilities) {
	GetCapabilityRegistry().RegisterProviderCapabilities(provider, caps)
}
