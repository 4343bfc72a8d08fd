package agentcore

import (
	"context"
	"fmt"
	"sync"
)

// Engine states
const (
	StateIdle          = "idle"
	StateRequesting    = "requesting"
	StateStreaming     = "streaming"
	StateToolExecuting = "tool_executing"
	StateInterrupted   = "interrupted"
	StateCompleting    = "completing"
)

// maxConsecutiveMalformedToolTurns bounds retries when a model keeps
// producing tool invocations whose input never parses. Each malformed turn
// already feeds the raw fragment back as a failed result; three in a row
// means the model is stuck and the turn aborts.
const maxConsecutiveMalformedToolTurns = 3

// TurnRecorder persists what happened during a turn. session.Log implements
// it; a nil recorder runs the engine without persistence.
type TurnRecorder interface {
	RecordUserMessage(text string) error
	RecordAssistantText(text string) error
	RecordThinking(text, signature string) error
	RecordToolUse(id, name string, input map[string]interface{}) error
	RecordToolResult(id string, output ToolOutput) error
	RecordUsage(u Usage) error
	RecordInterrupted() error
}

// EngineConfig assembles a turn engine.
type EngineConfig struct {
	Provider Provider
	Model    string
	System   string
	Params   *RequestParams

	// Tools may be nil for a tool-less engine.
	Tools *ToolRegistry

	// Recorder may be nil to skip persistence.
	Recorder TurnRecorder

	// Events receives the ordered notification stream. May be nil.
	Events chan<- AgentEvent
}

// Engine drives conversational turns: it opens streaming requests, folds
// events into content blocks, executes requested tools, and loops until a
// response carries no further tool invocations.
//
// One engine owns one session's history and log for the duration of a turn.
// Engines for different sessions are fully independent.
type Engine struct {
	provider  Provider
	model     string
	system    string
	params    *RequestParams
	tools     *ToolRegistry
	recorder  TurnRecorder
	sender    *EventSender
	interrupt *InterruptController

	mu      sync.Mutex
	state   string
	history []Message
}

// NewEngine creates an engine in the Idle state with empty history.
func NewEngine(cfg EngineConfig) *Engine {
	tools := cfg.Tools
	if tools == nil {
		tools = NewToolRegistry()
	}
	return &Engine{
		provider:  cfg.Provider,
		model:     cfg.Model,
		system:    cfg.System,
		params:    cfg.Params,
		tools:     tools,
		recorder:  cfg.Recorder,
		sender:    NewEventSender(cfg.Events),
		interrupt: NewInterruptController(),
		state:     StateIdle,
	}
}

// Interrupt requests cooperative cancellation of the active turn.
// A second call escalates; see InterruptController.
func (e *Engine) Interrupt() {
	e.interrupt.Interrupt()
}

// InterruptController exposes the controller for signal-handler wiring.
func (e *Engine) InterruptController() *InterruptController {
	return e.interrupt
}

// State returns the current engine state.
func (e *Engine) State() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *Engine) setState(state string) {
	e.mu.Lock()
	e.state = state
	e.mu.Unlock()
}

// History returns a copy of the conversation history.
func (e *Engine) History() []Message {
	e.mu.Lock()
	defer e.mu.Unlock()
	history := make([]Message, len(e.history))
	copy(history, e.history)
	return history
}

// SetHistory replaces the conversation history, e.g. when resuming a
// persisted session. Only valid while Idle.
func (e *Engine) SetHistory(history []Message) {
	e.mu.Lock()
	e.history = history
	e.mu.Unlock()
}

func (e *Engine) appendHistory(msg Message) {
	e.mu.Lock()
	e.history = append(e.history, msg)
	e.mu.Unlock()
}

// RunTurn drives one user turn to completion: one or more request/response
// round trips, with tool invocations executed between them.
//
// Returns nil on normal completion, ErrInterrupted when cancelled, and the
// underlying error when a request fails. A failing request aborts only
// itself: results from earlier round trips of the same turn stay in history
// and in the log.
func (e *Engine) RunTurn(ctx context.Context, userMessage string) error {
	e.interrupt.Reset()
	e.setState(StateRequesting)
	defer e.setState(StateIdle)

	e.sender.Send(ctx, AgentEvent{Type: AgentEventTurnStarted})

	e.appendHistory(NewUserTextMessage(userMessage))
	if err := e.record(func(r TurnRecorder) error { return r.RecordUserMessage(userMessage) }); err != nil {
		return err
	}

	consecutiveMalformed := 0
	for {
		if e.interrupt.Interrupted() {
			return e.finishInterrupted(ctx, "")
		}

		req := &GenerateRequest{
			Messages: e.History(),
			Model:    e.model,
			System:   e.system,
			Tools:    e.tools.Definitions(),
			Params:   e.params,
		}

		// Unsupported field combinations fail here, before any network call.
		if _, err := ValidateRequest(e.provider.Name(), req); err != nil {
			return e.failTurn(ctx, err)
		}

		acc, streamErr := e.streamOneRequest(ctx, req)

		// Exactly one usage delta per request. Recorded after the stream
		// ends (whatever way it ended) so the delta carries final counts;
		// a request that died before any output still captures its
		// input-token cost.
		usage, _ := acc.Usage()
		if err := e.record(func(r TurnRecorder) error { return r.RecordUsage(usage) }); err != nil {
			return err
		}
		e.sender.Send(ctx, AgentEvent{Type: AgentEventUsage, Usage: &usage})

		blocks := acc.Blocks()
		if len(blocks) > 0 {
			e.appendHistory(NewAssistantMessage(blocks))
			if err := e.recordAssistantBlocks(blocks); err != nil {
				return err
			}
		}

		if e.interrupt.Interrupted() {
			if err := e.cancelPendingInvocations(blocks, "Interrupted by user"); err != nil {
				return err
			}
			return e.finishInterrupted(ctx, acc.PartialText())
		}

		if streamErr != nil {
			if err := e.cancelPendingInvocations(blocks, "Request failed before tool execution"); err != nil {
				return err
			}
			return e.failTurn(ctx, streamErr)
		}

		invocations := ToolInvocations(blocks)
		if len(invocations) == 0 {
			e.setState(StateCompleting)
			e.sender.Send(ctx, AgentEvent{Type: AgentEventTurnCompleted, StopReason: acc.StopReason()})
			return nil
		}

		if allMalformed(invocations) {
			consecutiveMalformed++
		} else {
			consecutiveMalformed = 0
		}

		e.setState(StateToolExecuting)
		outputs := ExecuteTools(ctx, invocations, e.tools, e.interrupt, e.sender)

		resultBlocks := ToolResultBlocks(invocations, outputs)
		e.appendHistory(NewToolResultsMessage(resultBlocks))
		for i, inv := range invocations {
			output := outputs[i]
			if err := e.record(func(r TurnRecorder) error { return r.RecordToolResult(inv.ToolUseID, output) }); err != nil {
				return err
			}
		}

		if e.interrupt.Interrupted() {
			return e.finishInterrupted(ctx, "")
		}

		if consecutiveMalformed >= maxConsecutiveMalformedToolTurns {
			return e.failTurn(ctx, fmt.Errorf("model produced malformed tool input %d times in a row", consecutiveMalformed))
		}

		e.setState(StateRequesting)
	}
}

// streamOneRequest performs one Requesting -> Streaming pass. It returns the
// accumulator (always usable, even after errors or interruption) and the
// stream error, if any. The interrupt controller is observed between events;
// cancelling the request context unwinds the adapter goroutine.
func (e *Engine) streamOneRequest(ctx context.Context, req *GenerateRequest) (*Accumulator, error) {
	acc := NewAccumulator(e.sender)

	reqCtx, cancelReq := context.WithCancel(ctx)
	defer cancelReq()

	eventChan, err := e.provider.StreamResponse(reqCtx, req)
	if err != nil {
		return acc, err
	}

	e.setState(StateStreaming)

	var streamErr error
	interrupted := false
	for {
		select {
		case event, ok := <-eventChan:
			if !ok {
				return acc, streamErr
			}
			switch event.Type {
			case StreamEventError:
				if streamErr == nil {
					streamErr = event.Err
				}
			case StreamEventEnd:
				// Channel closes right after; keep draining.
			default:
				if err := acc.Apply(event); err != nil {
					if streamErr == nil {
						streamErr = &ProviderError{
							Provider: e.provider.Name(),
							Message:  err.Error(),
							Err:      ErrMalformedFrame,
						}
					}
					cancelReq()
				}
			}

		case <-e.interrupt.Done():
			if !interrupted {
				interrupted = true
				e.setState(StateInterrupted)
				cancelReq()
			}
			// Keep draining until the adapter closes the channel so its
			// goroutine never blocks on an abandoned send.
		}
	}
}

// cancelPendingInvocations resolves tool invocations that will never reach
// the coordinator. Once an assistant message carrying tool_use blocks is in
// history, every invocation must be paired with a result before the next
// request goes upstream; when the request was interrupted or failed, those
// slots are filled with canceled results.
func (e *Engine) cancelPendingInvocations(blocks []Block, message string) error {
	invocations := ToolInvocations(blocks)
	if len(invocations) == 0 {
		return nil
	}

	outputs := make([]ToolOutput, len(invocations))
	for i := range outputs {
		outputs[i] = ToolCanceled(message)
	}

	e.appendHistory(NewToolResultsMessage(ToolResultBlocks(invocations, outputs)))
	for i, inv := range invocations {
		output := outputs[i]
		if err := e.record(func(r TurnRecorder) error { return r.RecordToolResult(inv.ToolUseID, output) }); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) finishInterrupted(ctx context.Context, partialContent string) error {
	e.setState(StateInterrupted)
	if err := e.record(func(r TurnRecorder) error { return r.RecordInterrupted() }); err != nil {
		return err
	}
	e.sender.Send(ctx, AgentEvent{Type: AgentEventInterrupted, Text: partialContent})
	e.setState(StateCompleting)
	return ErrInterrupted
}

func (e *Engine) failTurn(ctx context.Context, err error) error {
	e.sender.Send(ctx, AgentEvent{
		Type:    AgentEventError,
		ErrKind: ClassifyError(err),
		Message: err.Error(),
	})
	e.setState(StateCompleting)
	return err
}

func (e *Engine) recordAssistantBlocks(blocks []Block) error {
	for _, block := range blocks {
		var err error
		switch block.BlockType {
		case BlockTypeText:
			err = e.record(func(r TurnRecorder) error { return r.RecordAssistantText(block.Text) })
		case BlockTypeThinking:
			err = e.record(func(r TurnRecorder) error { return r.RecordThinking(block.Text, block.Signature) })
		case BlockTypeToolUse:
			err = e.record(func(r TurnRecorder) error { return r.RecordToolUse(block.ToolUseID, block.ToolName, block.ToolInput) })
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) record(fn func(TurnRecorder) error) error {
	if e.recorder == nil {
		return nil
	}
	return fn(e.recorder)
}

func allMalformed(invocations []Block) bool {
	for _, inv := range invocations {
		if !IsMalformedToolInput(inv.ToolInput) {
			return false
		}
	}
	return len(invocations) > 0
}
