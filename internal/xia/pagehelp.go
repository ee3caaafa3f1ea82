package xia

import (
	"context"
	"fmt"

	"github.com/fazal-lab/xia/internal/domain"
	"github.com/fazal-lab/xia/internal/providers"
)

// PageHelp runs the Live Mode context-help call (C9c): answers a user's
// question about the UI page they're currently on, optionally suggesting a
// navigation redirect.
type PageHelp struct {
	provider providers.Provider
}

func NewPageHelp(p providers.Provider) *PageHelp {
	return &PageHelp{provider: p}
}

// Redirect is an optional navigation suggestion Live Mode help may return.
type Redirect struct {
	Path  string `json:"path"`
	Label string `json:"label"`
}

// PageHelpOutput is the strict JSON contract this call returns.
type PageHelpOutput struct {
	Reply    string    `json:"reply"`
	Redirect *Redirect `json:"redirect,omitempty"`
}

func fallbackPageHelp() PageHelpOutput {
	return PageHelpOutput{Reply: "I'm not sure about that page right now — try checking the help docs or asking me about screen discovery instead."}
}

// Run answers the Live Mode help question. Never errors to the caller.
func (h *PageHelp) Run(ctx context.Context, page domain.PageContext, question string) (PageHelpOutput, CallMeta) {
	meta := CallMeta{Call: "page_help"}
	if h.provider == nil {
		meta.Fallback = true
		meta.Error = "no_provider_configured"
		return fallbackPageHelp(), meta
	}

	systemPrompt := fmt.Sprintf(
		"You give short contextual help about a specific UI page in a DOOH ad-campaign platform. Current page: %s (%s). "+
			"If the user's question is better answered on a different page, suggest it via redirect. Respond with strict JSON only: "+
			"{\"reply\": string, \"redirect\": {\"path\": string, \"label\": string} | null}.",
		page.Path, page.Label,
	)
	messages := []providers.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: question},
	}
	meta.SystemPrompt = systemPrompt
	meta.SentMessages = messages

	resp, err := h.provider.Chat(ctx, providers.ChatRequest{
		Messages: messages,
		Options: map[string]interface{}{
			providers.OptJSONMode:    true,
			providers.OptTemperature: 0.5,
			providers.OptMaxTokens:   1024,
		},
	})
	if err != nil {
		meta.Fallback = true
		meta.Error = err.Error()
		return fallbackPageHelp(), meta
	}
	meta.RawResponse = resp.Content

	var out PageHelpOutput
	if err := parseJSONStrict(resp.Content, &out); err != nil {
		meta.Fallback = true
		meta.Error = "parse_failure: " + err.Error()
		return fallbackPageHelp(), meta
	}
	return out, meta
}
