package xia

import (
	"encoding/json"
	"regexp"
	"strings"
)

var jsonFence = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*\\})\\s*```")

// parseJSONStrict defensively extracts and unmarshals a JSON object from an
// LLM response, tolerating a markdown code fence around it (spec §4.6: "All
// LLM responses are parsed defensively"). Mirrors internal/profiler's
// parseJSON — duplicated rather than exported across packages since each
// call site's fallback-on-failure behavior is package-local.
func parseJSONStrict(content string, out interface{}) error {
	trimmed := strings.TrimSpace(content)
	if m := jsonFence.FindStringSubmatch(trimmed); m != nil {
		trimmed = m[1]
	}
	return json.Unmarshal([]byte(trimmed), out)
}
