// Package lorem is a mock provider that streams lorem ipsum content.
// It exists for development and tests that need a full streaming turn,
// tool calls included, without network access or API keys.
package lorem

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	loremgen "github.com/bozaro/golorem"

	agentcore "github.com/haowjy/meridian-agent-go"
)

// Provider implements agentcore.Provider with generated text.
type Provider struct {
	generator *loremgen.Lorem
}

// NewProvider creates a new lorem ipsum provider.
func NewProvider() *Provider {
	return &Provider{
		generator: loremgen.New(),
	}
}

// Name returns the provider identifier.
func (p *Provider) Name() string {
	return agentcore.ProviderLorem.String()
}

// SupportsModel returns true if the model name starts with "lorem-".
// Example models: "lorem-fast", "lorem-slow", "lorem-cutoff"
func (p *Provider) SupportsModel(model string) bool {
	return strings.HasPrefix(model, "lorem-")
}

// getStreamDelay returns the delay between words based on the model name.
// - lorem-slow: 2 words/second
// - lorem-fast: 30 words/second
// - default: 10 words/second
func getStreamDelay(model string) time.Duration {
	if strings.Contains(model, "slow") {
		return 500 * time.Millisecond
	}
	if strings.Contains(model, "fast") {
		return 33 * time.Millisecond
	}
	if strings.Contains(model, "instant") {
		return 0
	}
	return 100 * time.Millisecond
}

// isCutoffModel returns true if the model should simulate a max_tokens stop.
func isCutoffModel(model string) bool {
	return strings.Contains(model, "cutoff") || strings.Contains(model, "small")
}

// StreamResponse streams a generated response with rotating block types:
// text, then thinking (when enabled), then a tool call (when tools are
// present), repeating until the token budget runs out.
func (p *Provider) StreamResponse(ctx context.Context, req *agentcore.GenerateRequest) (<-chan agentcore.StreamEvent, error) {
	if !p.SupportsModel(req.Model) {
		return nil, &agentcore.ModelError{
			Model:    req.Model,
			Provider: p.Name(),
			Reason:   "model not supported by Lorem provider (must start with 'lorem-')",
			Err:      agentcore.ErrInvalidModel,
		}
	}

	params := req.Params
	if params == nil {
		params = &agentcore.RequestParams{}
	}
	maxTokens := params.GetMaxTokens(4096)
	thinkingEnabled := params.GetThinking().IsEnabled()
	toolsEnabled := len(req.Tools) > 0

	eventChan := make(chan agentcore.StreamEvent, 10)

	go func() {
		defer close(eventChan)

		send := func(event agentcore.StreamEvent) bool {
			select {
			case eventChan <- event:
				return true
			case <-ctx.Done():
				return false
			}
		}
		fail := func(err error) {
			send(agentcore.StreamEvent{Type: agentcore.StreamEventError, Err: err})
			send(agentcore.StreamEvent{Type: agentcore.StreamEventEnd})
		}

		blockIndex := 0
		totalOutputTokens := 0
		stopReason := "end_turn"
		toolIndex := 0

		for totalOutputTokens < maxTokens {
			remainingTokens := maxTokens - totalOutputTokens

			if blockIndex%3 == 0 || (blockIndex%3 == 1 && !thinkingEnabled) {
				targetWords := 20
				if remainingTokens < targetWords {
					targetWords = remainingTokens
				}

				outputTokens, cutoff, err := p.streamTextBlock(ctx, send, blockIndex, targetWords, req.Model)
				if err != nil {
					fail(err)
					return
				}
				totalOutputTokens += outputTokens
				blockIndex++

				if cutoff {
					stopReason = "max_tokens"
					break
				}
			} else if blockIndex%3 == 1 && thinkingEnabled {
				targetWords := 20
				if remainingTokens < targetWords {
					targetWords = remainingTokens
				}

				outputTokens, err := p.streamThinkingBlock(ctx, send, blockIndex, targetWords, req.Model)
				if err != nil {
					fail(err)
					return
				}
				totalOutputTokens += outputTokens
				blockIndex++
			} else if toolsEnabled {
				if remainingTokens < 20 {
					break
				}

				tool := req.Tools[toolIndex%len(req.Tools)]
				outputTokens, err := p.streamToolUseBlock(ctx, send, blockIndex, &tool, req.Model)
				if err != nil {
					fail(err)
					return
				}
				totalOutputTokens += outputTokens
				blockIndex++
				toolIndex++

				// One tool round per response; a real model stops to let
				// the client execute.
				stopReason = "tool_use"
				break
			} else {
				blockIndex++
			}

			if blockIndex > 100 {
				break
			}
		}

		if totalOutputTokens >= maxTokens {
			stopReason = "max_tokens"
		}

		send(agentcore.StreamEvent{
			Type:       agentcore.StreamEventMessageDelta,
			StopReason: stopReason,
		})
		send(agentcore.StreamEvent{
			Type: agentcore.StreamEventUsage,
			Usage: &agentcore.Usage{
				InputTokens:  p.estimateTokens(req.Messages),
				OutputTokens: totalOutputTokens,
			},
		})
		send(agentcore.StreamEvent{Type: agentcore.StreamEventEnd})
	}()

	return eventChan, nil
}

// streamTextBlock streams one text block of up to maxTokens words.
// Cutoff models generate extra words and stop mid-block to simulate
// hitting the output limit. Returns (word count, cutoff flag, error).
func (p *Provider) streamTextBlock(ctx context.Context, send func(agentcore.StreamEvent) bool, blockIndex int, maxTokens int, model string) (int, bool, error) {
	send(agentcore.StreamEvent{
		Type:       agentcore.StreamEventBlockStart,
		BlockIndex: blockIndex,
		BlockType:  agentcore.BlockTypeText,
	})

	targetWords := maxTokens
	cutoffModel := isCutoffModel(model)
	if cutoffModel {
		targetWords = maxTokens + (maxTokens / 2)
	}

	words := strings.Fields(p.generateTextWords(targetWords))
	delay := getStreamDelay(model)

	wordsSent := 0
	for _, word := range words {
		select {
		case <-ctx.Done():
			return wordsSent, false, ctx.Err()
		default:
		}

		if cutoffModel && wordsSent >= maxTokens {
			return wordsSent, true, nil
		}

		send(agentcore.StreamEvent{
			Type:       agentcore.StreamEventTextDelta,
			BlockIndex: blockIndex,
			Text:       word + " ",
		})

		time.Sleep(delay)
		wordsSent++
	}

	send(agentcore.StreamEvent{
		Type:       agentcore.StreamEventBlockStop,
		BlockIndex: blockIndex,
	})

	return wordsSent, false, nil
}

// streamThinkingBlock streams one thinking block. The signature arrives as
// the final delta, after all thinking text, matching real provider order.
func (p *Provider) streamThinkingBlock(ctx context.Context, send func(agentcore.StreamEvent) bool, blockIndex int, targetWords int, model string) (int, error) {
	send(agentcore.StreamEvent{
		Type:       agentcore.StreamEventBlockStart,
		BlockIndex: blockIndex,
		BlockType:  agentcore.BlockTypeThinking,
	})

	words := strings.Fields(p.generateTextWords(targetWords))
	delay := getStreamDelay(model)

	wordsSent := 0
	for _, word := range words {
		select {
		case <-ctx.Done():
			return wordsSent, ctx.Err()
		default:
		}

		send(agentcore.StreamEvent{
			Type:       agentcore.StreamEventThinkingDelta,
			BlockIndex: blockIndex,
			Text:       word + " ",
		})

		time.Sleep(delay)
		wordsSent++
	}

	send(agentcore.StreamEvent{
		Type:       agentcore.StreamEventSignatureDelta,
		BlockIndex: blockIndex,
		Text:       "sig_lorem_mock",
	})
	send(agentcore.StreamEvent{
		Type:       agentcore.StreamEventBlockStop,
		BlockIndex: blockIndex,
	})

	return wordsSent, nil
}

// streamToolUseBlock streams one tool call against a requested definition,
// feeding the input JSON out in small fragments.
func (p *Provider) streamToolUseBlock(ctx context.Context, send func(agentcore.StreamEvent) bool, blockIndex int, tool *agentcore.ToolDefinition, model string) (int, error) {
	input := mockToolInput(tool)

	jsonBytes, err := json.Marshal(input)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal tool input: %w", err)
	}
	jsonStr := string(jsonBytes)

	send(agentcore.StreamEvent{
		Type:         agentcore.StreamEventToolStart,
		BlockIndex:   blockIndex,
		ToolCallID:   fmt.Sprintf("toolu_%s_%d", tool.Name, blockIndex),
		ToolCallName: tool.Name,
	})

	delay := getStreamDelay(model)

	// Fragments split mid-token to exercise incremental JSON assembly.
	const fragmentSize = 7
	for i := 0; i < len(jsonStr); i += fragmentSize {
		select {
		case <-ctx.Done():
			return i / 4, ctx.Err()
		default:
		}

		end := i + fragmentSize
		if end > len(jsonStr) {
			end = len(jsonStr)
		}
		send(agentcore.StreamEvent{
			Type:         agentcore.StreamEventToolInputDelta,
			BlockIndex:   blockIndex,
			JSONFragment: jsonStr[i:end],
		})

		time.Sleep(delay / 10)
	}

	send(agentcore.StreamEvent{
		Type:       agentcore.StreamEventBlockStop,
		BlockIndex: blockIndex,
	})

	return len(jsonStr) / 4, nil
}

// mockToolInput fabricates a plausible input for a tool definition.
func mockToolInput(tool *agentcore.ToolDefinition) map[string]interface{} {
	switch tool.Name {
	case "search":
		return map[string]interface{}{
			"query": "lorem ipsum dolor sit amet",
		}
	case "bash":
		return map[string]interface{}{
			"command": "echo 'lorem ipsum'",
		}
	case "text_editor":
		return map[string]interface{}{
			"command":   "str_replace",
			"file_path": "/path/to/file.txt",
			"old_str":   "consectetur",
			"new_str":   "adipiscing",
		}
	}

	input := map[string]interface{}{}
	if properties, ok := tool.InputSchema["properties"].(map[string]interface{}); ok {
		for key := range properties {
			input[key] = "lorem"
		}
	}
	if len(input) == 0 {
		input["data"] = "mock input for " + tool.Name
	}
	return input
}

// generateTextWords generates lorem ipsum text with approximately
// targetWords words.
func (p *Provider) generateTextWords(targetWords int) string {
	var sb strings.Builder
	wordCount := 0

	for wordCount < targetWords {
		sentence := p.generator.Sentence(5, 15)
		sb.WriteString(sentence)
		sb.WriteString(" ")

		wordCount += len(strings.Fields(sentence))
	}

	return strings.TrimSpace(sb.String())
}

// estimateTokens estimates the token count for a list of messages.
// Word count stands in for real tokenization.
func (p *Provider) estimateTokens(messages []agentcore.Message) int {
	totalWords := 0
	for _, msg := range messages {
		for _, block := range msg.Blocks {
			totalWords += len(strings.Fields(block.Text))
		}
	}
	return totalWords
}
