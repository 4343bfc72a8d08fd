// Package openai adapts OpenAI-compatible chat-completions endpoints to the
// canonical stream event set. The wire format is the flat-delta SSE shape
// used by OpenAI and the gateways that mimic it.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	agentcore "github.com/haowjy/meridian-agent-go"
)

// Provider implements agentcore.Provider for OpenAI-compatible APIs.
type Provider struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
}

// Option configures a Provider.
type Option func(*Provider)

// WithBaseURL overrides the API endpoint. Useful for gateways and tests.
func WithBaseURL(url string) Option {
	return func(p *Provider) {
		p.baseURL = strings.TrimSuffix(url, "/")
	}
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(p *Provider) {
		p.httpClient = client
	}
}

// NewProvider creates a new OpenAI provider with the given API key.
func NewProvider(apiKey string, opts ...Option) (*Provider, error) {
	if apiKey == "" {
		return nil, agentcore.ErrInvalidAPIKey
	}

	p := &Provider{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 120 * time.Second},
		baseURL:    "https://api.openai.com/v1",
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Name returns the provider identifier.
func (p *Provider) Name() string {
	return agentcore.ProviderOpenAI.String()
}

// SupportsModel returns true if this provider supports the given model.
// OpenAI models start with "gpt-" or an o-series prefix ("o1", "o3", ...).
func (p *Provider) SupportsModel(model string) bool {
	if strings.HasPrefix(model, "gpt-") {
		return true
	}
	for _, prefix := range []string{"o1", "o3", "o4"} {
		if model == prefix || strings.HasPrefix(model, prefix+"-") {
			return true
		}
	}
	return false
}

// buildHTTPRequest creates an HTTP request for the chat-completions endpoint.
func (p *Provider) buildHTTPRequest(ctx context.Context, req *chatCompletionRequest) (*http.Request, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	return httpReq, nil
}

// handleErrorResponse parses a non-200 response into a library error.
func (p *Provider) handleErrorResponse(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	var errResp struct {
		Error struct {
			Type    string `json:"type"`
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}

	message := ""
	if err := json.Unmarshal(body, &errResp); err == nil {
		message = errResp.Error.Message
	}
	if message == "" {
		message = fmt.Sprintf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return agentcore.ErrInvalidAPIKey
	case http.StatusTooManyRequests:
		return &agentcore.ProviderError{
			Provider:   p.Name(),
			StatusCode: resp.StatusCode,
			Message:    message,
			Retryable:  true,
			Err:        agentcore.ErrRateLimited,
		}
	case http.StatusNotFound:
		return &agentcore.ModelError{
			Provider: p.Name(),
			Reason:   message,
			Err:      agentcore.ErrInvalidModel,
		}
	default:
		return &agentcore.ProviderError{
			Provider:   p.Name(),
			StatusCode: resp.StatusCode,
			Message:    message,
			Retryable:  resp.StatusCode == http.StatusRequestTimeout || resp.StatusCode >= 500,
			Err:        agentcore.ErrProviderUnavailable,
		}
	}
}
