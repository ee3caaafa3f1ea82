package providers

import "testing"

func TestCleanSchemaForProvider_StripsDisallowedKeywords(t *testing.T) {
	schema := map[string]interface{}{
		"$schema":              "http://json-schema.org/draft-07/schema#",
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]interface{}{
			"name": map[string]interface{}{"type": "string", "format": "uri"},
		},
	}
	got := CleanSchemaForProvider("anthropic", schema)
	if _, ok := got["$schema"]; ok {
		t.Error("expected $schema stripped")
	}
	if _, ok := got["additionalProperties"]; ok {
		t.Error("expected additionalProperties stripped")
	}
	props := got["properties"].(map[string]interface{})
	name := props["name"].(map[string]interface{})
	if _, ok := name["format"]; !ok {
		t.Error("expected format kept for a non-Gemini provider")
	}
}

func TestCleanSchemaForProvider_GeminiStripsFormat(t *testing.T) {
	schema := map[string]interface{}{
		"properties": map[string]interface{}{
			"url": map[string]interface{}{"type": "string", "format": "uri"},
		},
	}
	got := CleanSchemaForProvider("gemini-2.5-pro", schema)
	props := got["properties"].(map[string]interface{})
	url := props["url"].(map[string]interface{})
	if _, ok := url["format"]; ok {
		t.Error("expected format stripped for a gemini-like provider")
	}
}

func TestCleanSchemaForProvider_NilSchema(t *testing.T) {
	if got := CleanSchemaForProvider("openai", nil); got != nil {
		t.Errorf("got %v, want nil", got)
	}
}

func TestCleanSchemaForProvider_RecursesIntoItems(t *testing.T) {
	schema := map[string]interface{}{
		"type": "array",
		"items": map[string]interface{}{
			"type":                 "object",
			"additionalProperties": true,
		},
	}
	got := CleanSchemaForProvider("openai", schema)
	items := got["items"].(map[string]interface{})
	if _, ok := items["additionalProperties"]; ok {
		t.Error("expected additionalProperties stripped inside items")
	}
}

func TestCleanToolSchemas(t *testing.T) {
	tools := []ToolDefinition{
		{Type: "function", Function: ToolFunctionSchema{
			Name:        "search",
			Description: "search the web",
			Parameters: map[string]interface{}{
				"$schema": "x",
				"type":    "object",
			},
		}},
	}
	out := CleanToolSchemas("anthropic", tools)
	if len(out) != 1 {
		t.Fatalf("got %d tools, want 1", len(out))
	}
	fn := out[0]["function"].(map[string]interface{})
	if fn["name"] != "search" {
		t.Errorf("name = %v, want search", fn["name"])
	}
	params := fn["parameters"].(map[string]interface{})
	if _, ok := params["$schema"]; ok {
		t.Error("expected $schema stripped from tool parameters")
	}
}
