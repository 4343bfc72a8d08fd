package anthropic

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"

	agentcore "github.com/haowjy/meridian-agent-go"
)

// StreamResponse opens one streaming request against the Messages API.
// Returns a channel of canonical events closed after stream_end.
func (p *Provider) StreamResponse(ctx context.Context, req *agentcore.GenerateRequest) (<-chan agentcore.StreamEvent, error) {
	if !p.SupportsModel(req.Model) {
		return nil, &agentcore.ModelError{
			Model:    req.Model,
			Provider: p.Name(),
			Reason:   "model not supported by Anthropic (must start with 'claude-')",
			Err:      agentcore.ErrInvalidModel,
		}
	}

	plan := planRequest(req.Model, req.Params, p.capabilities)

	apiParams, err := buildMessageParams(req, plan)
	if err != nil {
		return nil, err
	}

	eventChan := make(chan agentcore.StreamEvent, 10) // Buffered to prevent blocking

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
		finish := func(err error) {
			if err != nil {
				send(agentcore.StreamEvent{Type: agentcore.StreamEventError, Err: err})
			}
			send(agentcore.StreamEvent{Type: agentcore.StreamEventEnd})
		}

		stream := p.client.Messages.NewStreaming(ctx, apiParams, plan.requestOptions()...)

		for stream.Next() {
			events, err := transformAnthropicStreamEvent(stream.Current())
			if err != nil {
				finish(err)
				return
			}
			for _, event := range events {
				if !send(event) {
					return
				}
			}
		}

		if err := stream.Err(); err != nil {
			finish(&agentcore.ProviderError{
				Provider: p.Name(),
				Message:  fmt.Sprintf("streaming failed: %v", err),
				Err:      err,
			})
			return
		}

		finish(nil)
	}()

	return eventChan, nil
}

// transformAnthropicStreamEvent rewrites one Anthropic SSE event into
// canonical events. Unrecognized frames are a hard error with the raw
// payload retained - the adapter never guesses intent or silently skips.
func transformAnthropicStreamEvent(event anthropic.MessageStreamEventUnion) ([]agentcore.StreamEvent, error) {
	switch e := event.AsAny().(type) {
	case anthropic.MessageStartEvent:
		// Input-side usage (including cache counters) is known up front.
		return []agentcore.StreamEvent{{
			Type: agentcore.StreamEventUsage,
			Usage: &agentcore.Usage{
				InputTokens:      int(e.Message.Usage.InputTokens),
				OutputTokens:     int(e.Message.Usage.OutputTokens),
				CacheReadTokens:  int(e.Message.Usage.CacheReadInputTokens),
				CacheWriteTokens: int(e.Message.Usage.CacheCreationInputTokens),
			},
		}}, nil

	case anthropic.ContentBlockStartEvent:
		switch e.ContentBlock.Type {
		case "text":
			return []agentcore.StreamEvent{{
				Type:       agentcore.StreamEventBlockStart,
				BlockIndex: int(e.Index),
				BlockType:  agentcore.BlockTypeText,
			}}, nil

		case "thinking":
			// The initial signature field is empty here; real signatures
			// arrive via signature_delta.
			return []agentcore.StreamEvent{{
				Type:       agentcore.StreamEventBlockStart,
				BlockIndex: int(e.Index),
				BlockType:  agentcore.BlockTypeThinking,
			}}, nil

		case "tool_use":
			return []agentcore.StreamEvent{{
				Type:         agentcore.StreamEventToolStart,
				BlockIndex:   int(e.Index),
				ToolCallID:   e.ContentBlock.ID,
				ToolCallName: e.ContentBlock.Name,
			}}, nil

		default:
			return nil, rawFrameError(fmt.Sprintf("unexpected content block type %q", e.ContentBlock.Type), e.RawJSON())
		}

	case anthropic.ContentBlockDeltaEvent:
		switch e.Delta.Type {
		case "text_delta":
			return []agentcore.StreamEvent{{
				Type:       agentcore.StreamEventTextDelta,
				BlockIndex: int(e.Index),
				Text:       e.Delta.Text,
			}}, nil

		case "thinking_delta":
			return []agentcore.StreamEvent{{
				Type:       agentcore.StreamEventThinkingDelta,
				BlockIndex: int(e.Index),
				Text:       e.Delta.Thinking,
			}}, nil

		case "signature_delta":
			return []agentcore.StreamEvent{{
				Type:       agentcore.StreamEventSignatureDelta,
				BlockIndex: int(e.Index),
				Text:       e.Delta.Signature,
			}}, nil

		case "input_json_delta":
			return []agentcore.StreamEvent{{
				Type:         agentcore.StreamEventToolInputDelta,
				BlockIndex:   int(e.Index),
				JSONFragment: e.Delta.PartialJSON,
			}}, nil

		default:
			return nil, rawFrameError(fmt.Sprintf("unexpected delta type %q", e.Delta.Type), e.RawJSON())
		}

	case anthropic.ContentBlockStopEvent:
		return []agentcore.StreamEvent{{
			Type:       agentcore.StreamEventBlockStop,
			BlockIndex: int(e.Index),
		}}, nil

	case anthropic.MessageDeltaEvent:
		return []agentcore.StreamEvent{
			{
				Type:       agentcore.StreamEventMessageDelta,
				StopReason: string(e.Delta.StopReason),
			},
			{
				Type:  agentcore.StreamEventUsage,
				Usage: &agentcore.Usage{OutputTokens: int(e.Usage.OutputTokens)},
			},
		}, nil

	case anthropic.MessageStopEvent:
		// stream_end is emitted once the SSE iterator drains.
		return nil, nil

	default:
		return nil, rawFrameError("unrecognized stream event", event.RawJSON())
	}
}

func rawFrameError(message, raw string) error {
	return &agentcore.ProviderError{
		Provider:   agentcore.ProviderAnthropic.String(),
		Message:    message,
		RawPayload: raw,
		Err:        agentcore.ErrMalformedFrame,
	}
}
