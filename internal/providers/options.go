package providers

// Option keys recognized in ChatRequest.Options. Using string constants
// instead of raw literals keeps every provider's Options[...] lookups in
// sync without a shared enum type getting in the way of the passthrough
// DashScope/OpenAI-specific keys.
const (
	OptMaxTokens       = "max_tokens"
	OptTemperature     = "temperature"
	OptThinkingLevel   = "thinking_level" // "off" | "low" | "medium" | "high"
	OptReasoningEffort = "reasoning_effort"
	OptEnableThinking  = "enable_thinking"
	OptThinkingBudget  = "thinking_budget"

	// OptJSONMode forces a structured/JSON-only completion, used by every
	// XIA call site (C6, C9, C10, C11) that parses the reply as JSON.
	OptJSONMode = "json_mode"
)
