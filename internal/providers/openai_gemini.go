package providers

// collapseToolCallsWithoutSig drops tool_call turns missing thought_signature
// before a request reaches a Gemini model over the OpenAI-compatible
// endpoint. XIA's orchestrator and profiler both replay session history
// through OpenAIProvider when the provider name contains "gemini"
// (spec §4.6/§4.5 LLM round-trips); a history turn recorded before
// thought_signature capture existed has none, and Gemini 2.5+ rejects the
// whole request with HTTP 400 rather than just ignoring that turn.
//
// Any assistant text content in a collapsed turn is kept; only the
// tool_calls and their matching tool-result messages are removed, so the
// model still sees what it said, just not the now-invalid call.
func collapseToolCallsWithoutSig(msgs []Message) []Message {
	collapseIDs := make(map[string]bool)
	for _, m := range msgs {
		if m.Role != "assistant" || len(m.ToolCalls) == 0 {
			continue
		}
		for _, tc := range m.ToolCalls {
			if tc.Metadata["thought_signature"] == "" {
				for _, sibling := range m.ToolCalls {
					collapseIDs[sibling.ID] = true
				}
				break
			}
		}
	}
	if len(collapseIDs) == 0 {
		return msgs
	}

	result := make([]Message, 0, len(msgs))
	for i := 0; i < len(msgs); i++ {
		m := msgs[i]

		if m.Role == "assistant" && len(m.ToolCalls) > 0 && collapseIDs[m.ToolCalls[0].ID] {
			if m.Content != "" {
				result = append(result, Message{Role: "assistant", Content: m.Content})
			}
			for i+1 < len(msgs) && msgs[i+1].Role == "tool" && collapseIDs[msgs[i+1].ToolCallID] {
				i++
			}
			continue
		}

		if m.Role == "tool" && collapseIDs[m.ToolCallID] {
			continue
		}

		result = append(result, m)
	}
	return result
}
