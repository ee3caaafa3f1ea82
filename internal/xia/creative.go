package xia

import (
	"context"
	"fmt"

	"github.com/fazal-lab/xia/internal/domain"
	"github.com/fazal-lab/xia/internal/providers"
)

// CreativeSuggestion runs the supplemental Creative Suggestion call (C11b):
// a standalone, history-free call that proposes ad-creative direction for a
// campaign given its context and the screens selected for it.
type CreativeSuggestion struct {
	provider providers.Provider
}

func NewCreativeSuggestion(p providers.Provider) *CreativeSuggestion {
	return &CreativeSuggestion{provider: p}
}

// CreativeSuggestionOutput is the strict JSON contract this call returns.
type CreativeSuggestionOutput struct {
	Headline    string   `json:"headline"`
	Tagline     string   `json:"tagline"`
	VisualIdeas []string `json:"visual_ideas"`
	CTA         string   `json:"cta"`
}

func fallbackCreativeSuggestion() CreativeSuggestionOutput {
	return CreativeSuggestionOutput{
		Headline: "Your brand, right where your customers are.",
		CTA:      "Visit us today",
	}
}

// Run generates a creative suggestion. Never errors to the caller: a
// transport or parse failure yields a generic fallback suggestion.
func (c *CreativeSuggestion) Run(ctx context.Context, campaign domain.CampaignContext, screenContexts []string) (CreativeSuggestionOutput, CallMeta) {
	meta := CallMeta{Call: "creative_suggestion"}
	if c.provider == nil {
		meta.Fallback = true
		meta.Error = "no_provider_configured"
		return fallbackCreativeSuggestion(), meta
	}

	prompt := fmt.Sprintf(
		"Propose a short DOOH ad creative direction. Campaign: category=%s, objective=%s, audience=%s. Screen contexts: %v. "+
			"Respond with strict JSON only: {\"headline\": string, \"tagline\": string, \"visual_ideas\": [string], \"cta\": string}.",
		campaign.AdCategory, campaign.BrandObjective, campaign.TargetAudience, screenContexts,
	)
	meta.SystemPrompt = prompt
	messages := []providers.Message{{Role: "user", Content: prompt}}
	meta.SentMessages = messages

	resp, err := c.provider.Chat(ctx, providers.ChatRequest{
		Messages: messages,
		Options: map[string]interface{}{
			providers.OptJSONMode:    true,
			providers.OptTemperature: 0.7,
			providers.OptMaxTokens:   4096,
		},
	})
	if err != nil {
		meta.Fallback = true
		meta.Error = err.Error()
		return fallbackCreativeSuggestion(), meta
	}
	meta.RawResponse = resp.Content

	var out CreativeSuggestionOutput
	if err := parseJSONStrict(resp.Content, &out); err != nil {
		meta.Fallback = true
		meta.Error = "parse_failure: " + err.Error()
		return fallbackCreativeSuggestion(), meta
	}
	return out, meta
}
