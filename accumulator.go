package agentcore

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Accumulator folds the canonical event sequence for one request into
// finalized, ordered content blocks, emitting renderer deltas as it goes.
//
// Builders are tracked by block index, not a single cursor: interleaved
// thinking can leave several indices open at once. Tool input fragments are
// buffered raw and parsed exactly once, at seal - partial JSON is never
// parsed. A thinking builder that seals without a signature converts to a
// text block before it ever leaves the accumulator.
type Accumulator struct {
	builders map[int]*blockBuilder
	order    []int // block indices in start order
	sealed   map[int]Block

	stopReason string
	usage      Usage
	sawUsage   bool

	sender *EventSender
}

type blockBuilder struct {
	kind      string
	text      strings.Builder
	signature strings.Builder

	toolID    string
	toolName  string
	inputJSON strings.Builder
}

// NewAccumulator creates an accumulator for one request.
// sender may be nil for callers that only want the finalized blocks.
func NewAccumulator(sender *EventSender) *Accumulator {
	return &Accumulator{
		builders: make(map[int]*blockBuilder),
		sealed:   make(map[int]Block),
		sender:   sender,
	}
}

// Apply folds one canonical event into the accumulator.
// Events must arrive in network order. A non-nil error means the stream
// violated the block protocol; the request should hard-fail.
func (a *Accumulator) Apply(event StreamEvent) error {
	switch event.Type {
	case StreamEventBlockStart:
		if event.BlockType != BlockTypeText && event.BlockType != BlockTypeThinking {
			return fmt.Errorf("block_start with unexpected kind %q at index %d", event.BlockType, event.BlockIndex)
		}
		return a.open(event.BlockIndex, &blockBuilder{kind: event.BlockType})

	case StreamEventToolStart:
		if err := a.open(event.BlockIndex, &blockBuilder{
			kind:     BlockTypeToolUse,
			toolID:   event.ToolCallID,
			toolName: event.ToolCallName,
		}); err != nil {
			return err
		}
		a.sender.SendDelta(AgentEvent{
			Type:      AgentEventToolRequested,
			ToolUseID: event.ToolCallID,
			ToolName:  event.ToolCallName,
		})
		return nil

	case StreamEventTextDelta:
		b, err := a.openBuilder(event.BlockIndex, BlockTypeText)
		if err != nil {
			return err
		}
		b.text.WriteString(event.Text)
		a.sender.SendDelta(AgentEvent{Type: AgentEventAssistantDelta, Text: event.Text})
		return nil

	case StreamEventThinkingDelta:
		b, err := a.openBuilder(event.BlockIndex, BlockTypeThinking)
		if err != nil {
			return err
		}
		b.text.WriteString(event.Text)
		a.sender.SendDelta(AgentEvent{Type: AgentEventReasoningDelta, Text: event.Text})
		return nil

	case StreamEventSignatureDelta:
		b, err := a.openBuilder(event.BlockIndex, BlockTypeThinking)
		if err != nil {
			return err
		}
		b.signature.WriteString(event.Text)
		return nil

	case StreamEventToolInputDelta:
		b, err := a.openBuilder(event.BlockIndex, BlockTypeToolUse)
		if err != nil {
			return err
		}
		b.inputJSON.WriteString(event.JSONFragment)
		a.sender.SendDelta(AgentEvent{
			Type:      AgentEventToolInputDelta,
			ToolUseID: b.toolID,
			ToolName:  b.toolName,
			Text:      event.JSONFragment,
		})
		return nil

	case StreamEventBlockStop:
		return a.seal(event.BlockIndex)

	case StreamEventMessageDelta:
		if event.StopReason != "" {
			a.stopReason = event.StopReason
		}
		return nil

	case StreamEventUsage:
		if event.Usage != nil {
			a.mergeUsage(*event.Usage)
		}
		return nil

	case StreamEventError, StreamEventEnd:
		// Terminal events carry no block content; the engine handles them.
		return nil

	default:
		return fmt.Errorf("unknown stream event type %q", event.Type)
	}
}

func (a *Accumulator) open(index int, b *blockBuilder) error {
	if _, exists := a.builders[index]; exists {
		return fmt.Errorf("block index %d started twice", index)
	}
	if _, exists := a.sealed[index]; exists {
		return fmt.Errorf("block index %d restarted after stop", index)
	}
	a.builders[index] = b
	a.order = append(a.order, index)
	return nil
}

func (a *Accumulator) openBuilder(index int, kind string) (*blockBuilder, error) {
	b, ok := a.builders[index]
	if !ok {
		return nil, fmt.Errorf("delta for unopened block index %d", index)
	}
	if b.kind != kind {
		return nil, fmt.Errorf("delta kind mismatch at index %d: block is %s", index, b.kind)
	}
	return b, nil
}

// seal freezes the builder at index into a finalized block.
func (a *Accumulator) seal(index int) error {
	b, ok := a.builders[index]
	if !ok {
		return fmt.Errorf("block_stop for unopened block index %d", index)
	}
	delete(a.builders, index)

	var block Block
	switch b.kind {
	case BlockTypeText:
		block = NewTextBlock(b.text.String())
		a.sender.SendDelta(AgentEvent{Type: AgentEventAssistantCompleted, Text: block.Text})

	case BlockTypeThinking:
		if sig := b.signature.String(); sig != "" {
			block = NewThinkingBlock(b.text.String(), sig)
		} else {
			// No signature means the provider will reject this block on
			// replay; it degrades to marked plain text here and now.
			block = NewTextBlock(WrappedThinkingText(b.text.String()))
		}
		a.sender.SendDelta(AgentEvent{Type: AgentEventReasoningCompleted, Text: b.text.String()})

	case BlockTypeToolUse:
		input := parseToolInput(b.inputJSON.String())
		block = NewToolUseBlock(b.toolID, b.toolName, input)
		a.sender.SendDelta(AgentEvent{
			Type:      AgentEventToolInputCompleted,
			ToolUseID: b.toolID,
			ToolName:  b.toolName,
			ToolInput: input,
		})
	}

	a.sealed[index] = block
	return nil
}

// parseToolInput parses a complete tool input fragment. An empty fragment is
// a tool with no arguments. A fragment that never became valid JSON is
// preserved verbatim so the model can see its own malformed output.
func parseToolInput(raw string) map[string]interface{} {
	if strings.TrimSpace(raw) == "" {
		return map[string]interface{}{}
	}
	var input map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &input); err != nil {
		return map[string]interface{}{RawMalformedInputKey: raw}
	}
	return input
}

// IsMalformedToolInput reports whether a tool_use block sealed with input
// that never parsed as JSON.
func IsMalformedToolInput(input map[string]interface{}) bool {
	_, ok := input[RawMalformedInputKey]
	return ok
}

func (a *Accumulator) mergeUsage(u Usage) {
	// Adapters report running totals; later nonzero counters supersede.
	if u.InputTokens != 0 {
		a.usage.InputTokens = u.InputTokens
	}
	if u.OutputTokens != 0 {
		a.usage.OutputTokens = u.OutputTokens
	}
	if u.CacheReadTokens != 0 {
		a.usage.CacheReadTokens = u.CacheReadTokens
	}
	if u.CacheWriteTokens != 0 {
		a.usage.CacheWriteTokens = u.CacheWriteTokens
	}
	a.sawUsage = true
}

// Blocks returns the finalized blocks in block start order.
// Builders still open (disconnect, interruption) seal as they stand, so a
// partially streamed response is never lost.
func (a *Accumulator) Blocks() []Block {
	for index := range a.builders {
		// Ignoring the error: the index is known open.
		_ = a.seal(index)
	}

	blocks := make([]Block, 0, len(a.order))
	for _, index := range a.order {
		block, ok := a.sealed[index]
		if !ok {
			continue
		}
		block.Sequence = len(blocks)
		blocks = append(blocks, block)
	}
	return blocks
}

// PartialText returns the plain text accumulated so far, for the
// interrupted event's partial content.
func (a *Accumulator) PartialText() string {
	var sb strings.Builder
	for _, index := range a.order {
		if block, ok := a.sealed[index]; ok && block.BlockType == BlockTypeText {
			sb.WriteString(block.Text)
			continue
		}
		if b, ok := a.builders[index]; ok && b.kind == BlockTypeText {
			sb.WriteString(b.text.String())
		}
	}
	return sb.String()
}

// StopReason returns the stop reason from message_delta, if any arrived.
func (a *Accumulator) StopReason() string {
	return a.stopReason
}

// Usage returns the merged usage for this request and whether any usage
// event arrived at all.
func (a *Accumulator) Usage() (Usage, bool) {
	return a.usage, a.sawUsage
}

// HasOutput reports whether any content block has been opened - the signal
// that output generation began, which triggers usage recording.
func (a *Accumulator) HasOutput() bool {
	return len(a.order) > 0
}
