package agentcore

import (
	"context"
	"fmt"
)

// ExecuteTools runs all tool invocations from one finalized response
// concurrently and returns one output per invocation, in input order.
// Order is load-bearing: providers accept results as a set, but replay and
// rendering depend on deterministic sequencing.
//
// Emission contract: every invocation gets exactly one tool_started event,
// all emitted in input order before any execution is dispatched, and exactly
// one tool_completed event, always emitted by this coordinator - never from
// inside an executing goroutine.
//
// Cancellation is best-effort. When the controller trips, execution contexts
// are cancelled and every invocation without a recorded outcome resolves to
// a canceled result; an external side effect already past its point of no
// return may still land after the invocation was reported cancelled.
func ExecuteTools(ctx context.Context, invocations []Block, registry *ToolRegistry, interrupt *InterruptController, sender *EventSender) []ToolOutput {
	n := len(invocations)
	if n == 0 {
		return nil
	}

	// Started notifications first, synchronously, in input order. This keeps
	// observed start ordering stable even though work runs concurrently.
	for _, inv := range invocations {
		sender.Send(ctx, AgentEvent{
			Type:      AgentEventToolStarted,
			ToolUseID: inv.ToolUseID,
			ToolName:  inv.ToolName,
			ToolInput: inv.ToolInput,
		})
	}

	type unitResult struct {
		index  int
		output ToolOutput
	}

	// Buffered to n so abandoned units can finish without a receiver.
	completions := make(chan unitResult, n)

	execCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	for i, inv := range invocations {
		// Invocations that can never execute resolve immediately, but their
		// finished notification still comes from the collect loop below so
		// the one-start-one-finish contract has a single emission path.
		if IsMalformedToolInput(inv.ToolInput) {
			completions <- unitResult{i, ToolFailure(ToolErrorCodeInvalidJSON,
				fmt.Sprintf("tool %s input was not valid JSON", inv.ToolName))}
			continue
		}

		tool, err := registry.Get(inv.ToolName)
		if err != nil {
			completions <- unitResult{i, ToolFailure(ToolErrorCodeUnknownTool,
				fmt.Sprintf("unknown tool: %s", inv.ToolName))}
			continue
		}

		go func(index int, tool ToolExecutor, input map[string]interface{}) {
			defer func() {
				if r := recover(); r != nil {
					completions <- unitResult{index, ToolFault(fmt.Sprintf("tool panicked: %v", r))}
				}
			}()

			output, err := tool.Execute(execCtx, input)
			if err != nil {
				output = ToolFailure(ToolErrorCodeExecution, err.Error())
			}
			completions <- unitResult{index, output}
		}(i, tool, inv.ToolInput)
	}

	results := make([]*ToolOutput, n)

	finish := func(index int, output ToolOutput) {
		results[index] = &output
		sender.Send(ctx, AgentEvent{
			Type:      AgentEventToolCompleted,
			ToolUseID: invocations[index].ToolUseID,
			ToolName:  invocations[index].ToolName,
			Output:    &output,
		})
	}

	remaining := n
	for remaining > 0 {
		select {
		case r := <-completions:
			if results[r.index] != nil {
				continue
			}
			finish(r.index, r.output)
			remaining--

		case <-interrupt.Done():
			cancel()

			// Collect whatever already finished so completed invocations
			// keep their real outcome.
			drained := true
			for drained {
				select {
				case r := <-completions:
					if results[r.index] == nil {
						finish(r.index, r.output)
						remaining--
					}
				default:
					drained = false
				}
			}

			for i := range results {
				if results[i] == nil {
					finish(i, ToolCanceled("Interrupted by user"))
					remaining--
				}
			}

		case <-ctx.Done():
			cancel()
			for i := range results {
				if results[i] == nil {
					finish(i, ToolCanceled(ctx.Err().Error()))
					remaining--
				}
			}
		}
	}

	outputs := make([]ToolOutput, n)
	for i, r := range results {
		outputs[i] = *r
	}
	return outputs
}

// ToolResultBlocks pairs coordinator outputs back with their invocations as
// tool_result blocks, preserving invocation order.
func ToolResultBlocks(invocations []Block, outputs []ToolOutput) []Block {
	blocks := make([]Block, 0, len(invocations))
	for i, inv := range invocations {
		output := outputs[i]
		blocks = append(blocks, NewToolResultBlock(inv.ToolUseID, output.Serialize(), output.IsFailure()))
	}
	return blocks
}
