package session

import (
	agentcore "github.com/haowjy/meridian-agent-go"
)

// Replay folds a session's events back into conversation messages.
//
// Grouping mirrors how the events were produced: every assistant-side event
// (thinking, tool invocations, assistant text) from one response joins a
// single assistant message; tool results between responses form one user
// message; user text stands alone. Meta, usage and interrupted events do not
// shape the transcript.
func Replay(events []Event) []agentcore.Message {
	var messages []agentcore.Message
	var assistantBlocks []agentcore.Block
	var resultBlocks []agentcore.Block

	flushAssistant := func() {
		if len(assistantBlocks) > 0 {
			messages = append(messages, agentcore.NewAssistantMessage(assistantBlocks))
			assistantBlocks = nil
		}
	}
	flushResults := func() {
		if len(resultBlocks) > 0 {
			messages = append(messages, agentcore.NewToolResultsMessage(resultBlocks))
			resultBlocks = nil
		}
	}

	appendAssistant := func(block agentcore.Block) {
		// A tool result stream ends when the next response begins.
		flushResults()
		assistantBlocks = append(assistantBlocks, block)
	}

	for _, event := range events {
		switch event.Type {
		case EventTypeMessage:
			if event.Role == agentcore.RoleUser {
				flushAssistant()
				flushResults()
				messages = append(messages, agentcore.NewUserTextMessage(event.Content))
				continue
			}
			appendAssistant(agentcore.NewTextBlock(event.Content))

		case EventTypeThinking:
			appendAssistant(agentcore.NewThinkingBlock(event.Content, event.Signature))

		case EventTypeToolUse:
			appendAssistant(agentcore.NewToolUseBlock(event.ToolUseID, event.ToolName, event.ToolInput))

		case EventTypeToolResult:
			flushAssistant()
			output := agentcore.ToolOutput{}
			if event.Output != nil {
				output = *event.Output
			}
			resultBlocks = append(resultBlocks, agentcore.NewToolResultBlock(
				event.ToolUseID, output.Serialize(), output.IsFailure()))
		}
	}

	flushAssistant()
	flushResults()
	return messages
}

// ExtractUsage rebuilds usage aggregates from the log.
//
// cumulative is the sum of all per-request deltas; latest is the most recent
// single event, which alone describes the current context window.
//
// Logs written before delta accounting stored running cumulative values per
// event. Those are detected by every counter being non-decreasing across
// every successive pair of events, in which case the last event already is
// the cumulative total and summing would double count. The check is
// explicitly approximate: a genuine delta log can trip it, and a one-event
// log is treated as already-delta (both readings coincide). It never fails -
// old data always loads.
func ExtractUsage(events []Event) (cumulative, latest agentcore.Usage) {
	var usages []agentcore.Usage
	for _, event := range events {
		if event.Type == EventTypeUsage && event.Usage != nil {
			usages = append(usages, *event.Usage)
		}
	}
	if len(usages) == 0 {
		return agentcore.Usage{}, agentcore.Usage{}
	}

	latest = usages[len(usages)-1]

	if len(usages) >= 2 && looksCumulative(usages) {
		return latest, latest
	}

	for _, u := range usages {
		cumulative = cumulative.Plus(u)
	}
	return cumulative, latest
}

// looksCumulative reports whether every counter is non-decreasing across
// every successive pair.
func looksCumulative(usages []agentcore.Usage) bool {
	for i := 1; i < len(usages); i++ {
		prev, cur := usages[i-1], usages[i]
		if cur.InputTokens < prev.InputTokens ||
			cur.OutputTokens < prev.OutputTokens ||
			cur.CacheReadTokens < prev.CacheReadTokens ||
			cur.CacheWriteTokens < prev.CacheWriteTokens {
			return false
		}
	}
	return true
}
