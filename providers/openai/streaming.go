package openai

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	agentcore "github.com/haowjy/meridian-agent-go"
)

// StreamResponse opens one streaming request against the chat-completions
// endpoint. Returns a channel of canonical events closed after stream_end.
func (p *Provider) StreamResponse(ctx context.Context, req *agentcore.GenerateRequest) (<-chan agentcore.StreamEvent, error) {
	if !p.SupportsModel(req.Model) {
		return nil, &agentcore.ModelError{
			Model:    req.Model,
			Provider: p.Name(),
			Reason:   "model not supported by OpenAI (must be a gpt- or o-series model)",
			Err:      agentcore.ErrInvalidModel,
		}
	}

	chatReq, err := buildChatCompletionRequest(req)
	if err != nil {
		return nil, err
	}
	chatReq.Stream = true
	chatReq.StreamOptions = &streamOptions{IncludeUsage: true}

	httpReq, err := p.buildHTTPRequest(ctx, chatReq)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("openai HTTP request failed: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, p.handleErrorResponse(resp)
	}

	eventChan := make(chan agentcore.StreamEvent, 10) // Buffered to prevent blocking

	go func() {
		defer close(eventChan)
		defer resp.Body.Close()

		send := func(event agentcore.StreamEvent) bool {
			select {
			case eventChan <- event:
				return true
			case <-ctx.Done():
				return false
			}
		}

		if err := p.streamEvents(resp.Body, send); err != nil {
			send(agentcore.StreamEvent{Type: agentcore.StreamEventError, Err: err})
		}
		send(agentcore.StreamEvent{Type: agentcore.StreamEventEnd})
	}()

	return eventChan, nil
}

// blockTracker infers canonical block boundaries from the flat delta
// stream. The wire format interleaves reasoning, text, and tool-call
// fragments without indexed blocks; the tracker assigns canonical indices
// and emits block_start/block_stop at type transitions.
type blockTracker struct {
	send func(agentcore.StreamEvent) bool

	nextIndex int
	openType  string // block type constant, "" when no block is open
	openIndex int

	calls       map[int]*openToolCall // wire tool-call index -> state
	currentWire int                   // wire index of the open tool block (-1 when none)
}

// openToolCall tracks one wire tool call through its fragments.
type openToolCall struct {
	blockIndex int
	id         string
	name       string
}

func newBlockTracker(send func(agentcore.StreamEvent) bool) *blockTracker {
	return &blockTracker{
		send:        send,
		calls:       make(map[int]*openToolCall),
		currentWire: -1,
	}
}

// closeOpen emits block_stop for the open block, if any.
func (t *blockTracker) closeOpen() {
	if t.openType == "" {
		return
	}
	t.send(agentcore.StreamEvent{
		Type:       agentcore.StreamEventBlockStop,
		BlockIndex: t.openIndex,
	})
	t.openType = ""
	t.currentWire = -1
}

// ensureBlock opens a text or thinking block at a fresh index unless one of
// the same type is already open.
func (t *blockTracker) ensureBlock(blockType string) {
	if t.openType == blockType {
		return
	}
	t.closeOpen()

	t.openType = blockType
	t.openIndex = t.nextIndex
	t.nextIndex++
	t.send(agentcore.StreamEvent{
		Type:       agentcore.StreamEventBlockStart,
		BlockIndex: t.openIndex,
		BlockType:  blockType,
	})
}

// text handles a content fragment.
func (t *blockTracker) text(fragment string) {
	t.ensureBlock(agentcore.BlockTypeText)
	t.send(agentcore.StreamEvent{
		Type:       agentcore.StreamEventTextDelta,
		BlockIndex: t.openIndex,
		Text:       fragment,
	})
}

// thinking handles a reasoning fragment. The wire carries no signature, so
// the accumulator will later degrade these blocks to wrapped text.
func (t *blockTracker) thinking(fragment string) {
	t.ensureBlock(agentcore.BlockTypeThinking)
	t.send(agentcore.StreamEvent{
		Type:       agentcore.StreamEventThinkingDelta,
		BlockIndex: t.openIndex,
		Text:       fragment,
	})
}

// toolCall handles one tool-call fragment. The first fragment for a wire
// index carries the id and name and opens a tool block; later fragments
// append argument JSON.
func (t *blockTracker) toolCall(tc toolCall) {
	wireIdx := t.resolveWireIndex(tc)

	call, exists := t.calls[wireIdx]
	if !exists {
		t.closeOpen()

		call = &openToolCall{blockIndex: t.nextIndex}
		t.calls[wireIdx] = call
		t.nextIndex++

		t.openType = agentcore.BlockTypeToolUse
		t.openIndex = call.blockIndex
		t.currentWire = wireIdx
	}

	if tc.ID != "" {
		call.id = tc.ID
	}
	if tc.Function.Name != "" {
		call.name = tc.Function.Name
	}

	if !exists {
		t.send(agentcore.StreamEvent{
			Type:         agentcore.StreamEventToolStart,
			BlockIndex:   call.blockIndex,
			ToolCallID:   call.id,
			ToolCallName: call.name,
		})
	}

	if tc.Function.Arguments != "" {
		t.send(agentcore.StreamEvent{
			Type:         agentcore.StreamEventToolInputDelta,
			BlockIndex:   call.blockIndex,
			JSONFragment: tc.Function.Arguments,
		})
	}
}

// resolveWireIndex picks the wire index for a tool-call fragment: the
// explicit index when present, then an ID match, then the next slot.
func (t *blockTracker) resolveWireIndex(tc toolCall) int {
	if tc.Index != nil {
		return *tc.Index
	}
	if tc.ID != "" {
		for idx, call := range t.calls {
			if call.id == tc.ID {
				return idx
			}
		}
	}
	if t.currentWire >= 0 && tc.ID == "" {
		return t.currentWire
	}
	return len(t.calls)
}

// streamEvents reads SSE frames and emits canonical events via send.
func (p *Provider) streamEvents(body io.Reader, send func(agentcore.StreamEvent) bool) error {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	tracker := newBlockTracker(send)
	var stopReason string
	var usage *agentcore.Usage

	for scanner.Scan() {
		line := scanner.Text()

		// SSE framing: skip blank lines and comments.
		if line == "" || strings.HasPrefix(line, ":") {
			continue
		}
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))

		if data == "[DONE]" {
			break
		}

		var chunk chatCompletionChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			return p.rawFrameError(fmt.Sprintf("undecodable stream frame: %v", err), data)
		}
		if chunk.Object != "" && chunk.Object != "chat.completion.chunk" {
			return p.rawFrameError(fmt.Sprintf("unexpected frame object %q", chunk.Object), data)
		}

		if chunk.Usage != nil {
			usage = &agentcore.Usage{
				InputTokens:     chunk.Usage.PromptTokens,
				OutputTokens:    chunk.Usage.CompletionTokens,
				CacheReadTokens: chunk.Usage.PromptTokensDetails.CachedTokens,
			}
		}

		if len(chunk.Choices) == 0 {
			continue
		}
		choice := chunk.Choices[0]

		if reasoning := choice.Delta.reasoningDelta(); reasoning != "" {
			tracker.thinking(reasoning)
		}
		if choice.Delta.Content != nil && *choice.Delta.Content != "" {
			tracker.text(*choice.Delta.Content)
		}
		for _, tc := range choice.Delta.ToolCalls {
			tracker.toolCall(tc)
		}

		if choice.FinishReason != nil && *choice.FinishReason != "" {
			stopReason = mapFinishReason(*choice.FinishReason)
		}
	}

	if err := scanner.Err(); err != nil {
		return &agentcore.ProviderError{
			Provider: p.Name(),
			Message:  fmt.Sprintf("error reading stream: %v", err),
			Err:      err,
		}
	}

	tracker.closeOpen()

	send(agentcore.StreamEvent{
		Type:       agentcore.StreamEventMessageDelta,
		StopReason: stopReason,
	})
	if usage != nil {
		send(agentcore.StreamEvent{
			Type:  agentcore.StreamEventUsage,
			Usage: usage,
		})
	}

	return nil
}

func (p *Provider) rawFrameError(message, raw string) error {
	return &agentcore.ProviderError{
		Provider:   p.Name(),
		Message:    message,
		RawPayload: raw,
		Err:        agentcore.ErrMalformedFrame,
	}
}
