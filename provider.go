package agentcore

import (
	"context"
)

// Provider defines the interface every streaming LLM provider implements.
// The engine is provider-agnostic: adapters absorb all wire-format variance
// and emit the canonical StreamEvent set.
type Provider interface {
	// StreamResponse opens one streaming request.
	// Returns a channel that emits canonical StreamEvents in network arrival
	// order. The adapter closes the channel after stream_end. Mid-stream
	// failures surface as an error event followed by stream_end; the adapter
	// never retries on its own.
	//
	// Usage:
	//   eventChan, err := provider.StreamResponse(ctx, req)
	//   if err != nil { return err }
	//   for event := range eventChan {
	//     switch event.Type { ... }
	//   }
	StreamResponse(ctx context.Context, req *GenerateRequest) (<-chan StreamEvent, error)

	// Name returns the provider name (e.g., "anthropic", "openai", "lorem")
	Name() string

	// SupportsModel returns true if the provider supports the given model.
	SupportsModel(model string) bool
}
