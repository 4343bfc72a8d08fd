// Package anthropic adapts the Anthropic Messages API to the canonical
// stream event set.
package anthropic

import (
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	agentcore "github.com/haowjy/meridian-agent-go"
)

// Provider implements agentcore.Provider for Anthropic (Claude) models.
type Provider struct {
	client       *anthropic.Client
	capabilities *agentcore.CapabilityRegistry
}

// NewProvider creates a new Anthropic provider with the given API key.
func NewProvider(apiKey string, opts ...option.RequestOption) (*Provider, error) {
	if apiKey == "" {
		return nil, agentcore.ErrInvalidAPIKey
	}

	client := anthropic.NewClient(append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)...)

	return &Provider{
		client:       &client,
		capabilities: agentcore.GetCapabilityRegistry(),
	}, nil
}

// Name returns the provider identifier.
func (p *Provider) Name() string {
	return agentcore.ProviderAnthropic.String()
}

// SupportsModel returns true if this provider supports the given model.
// Anthropic models start with "claude-"
func (p *Provider) SupportsModel(model string) bool {
	return strings.HasPrefix(model, "claude-")
}
