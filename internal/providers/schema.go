package providers

// CleanSchemaForProvider strips JSON-schema keywords a given provider's tool
// API rejects. Anthropic and OpenAI both reject "additionalProperties" on
// some older models and "$schema"; Gemini (served through the OpenAI-compat
// path) additionally rejects "format" on string properties it doesn't
// recognize. The cleaning is shallow-recursive over "properties"/"items" so
// nested object/array schemas are sanitized too.
func CleanSchemaForProvider(provider string, schema map[string]interface{}) map[string]interface{} {
	if schema == nil {
		return nil
	}
	out := make(map[string]interface{}, len(schema))
	for k, v := range schema {
		switch k {
		case "$schema", "additionalProperties":
			continue
		case "format":
			if isGeminiLike(provider) {
				continue
			}
		}
		out[k] = v
	}
	if props, ok := out["properties"].(map[string]interface{}); ok {
		cleaned := make(map[string]interface{}, len(props))
		for name, raw := range props {
			if sub, ok := raw.(map[string]interface{}); ok {
				cleaned[name] = CleanSchemaForProvider(provider, sub)
			} else {
				cleaned[name] = raw
			}
		}
		out["properties"] = cleaned
	}
	if items, ok := out["items"].(map[string]interface{}); ok {
		out["items"] = CleanSchemaForProvider(provider, items)
	}
	return out
}

// CleanToolSchemas runs CleanSchemaForProvider over a full tool list and
// returns the OpenAI wire-format tool array.
func CleanToolSchemas(provider string, tools []ToolDefinition) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(tools))
	for _, t := range tools {
		out = append(out, map[string]interface{}{
			"type": "function",
			"function": map[string]interface{}{
				"name":        t.Function.Name,
				"description": t.Function.Description,
				"parameters":  CleanSchemaForProvider(provider, t.Function.Parameters),
			},
		})
	}
	return out
}

func isGeminiLike(provider string) bool {
	return len(provider) >= 6 && provider[:6] == "gemini"
}
