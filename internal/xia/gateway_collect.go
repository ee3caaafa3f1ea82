package xia

import (
	"context"
	"fmt"
	"strings"

	"github.com/fazal-lab/xia/internal/domain"
	"github.com/fazal-lab/xia/internal/providers"
)

// GatewayCollect runs the supplemental Gateway Collection call (C9b): before
// the first discovery turn, the gateway (locations, dates, budget) is
// incomplete, and this call extracts whatever of it the user's message
// supplies, asking for the rest conversationally rather than via the main
// Understanding Call's stricter schema.
type GatewayCollect struct {
	provider providers.Provider
}

func NewGatewayCollect(p providers.Provider) *GatewayCollect {
	return &GatewayCollect{provider: p}
}

// GatewayCollectOutput is the strict JSON contract this call returns.
type GatewayCollectOutput struct {
	Gateway domain.GatewayEdits `json:"gateway"`
	Reply   string              `json:"reply"`
}

func fallbackGatewayCollect() GatewayCollectOutput {
	return GatewayCollectOutput{
		Reply: "To get started, where would you like your ads to run, and what are your campaign dates and budget?",
	}
}

// Run extracts gateway fields from the message. Never errors to the caller:
// a transport or parse failure yields the fallback prompt.
func (g *GatewayCollect) Run(ctx context.Context, session *domain.ChatSession, message string) (GatewayCollectOutput, CallMeta) {
	meta := CallMeta{Call: "gateway_collect"}
	if g.provider == nil {
		meta.Fallback = true
		meta.Error = "no_provider_configured"
		return fallbackGatewayCollect(), meta
	}

	var b strings.Builder
	b.WriteString("You collect campaign gateway fields (locations, start_date, end_date, budget_range) conversationally. Respond with strict JSON only: {\"gateway\": {\"gateway_location_add\": [string], \"gateway_start_date\": string, \"gateway_end_date\": string, \"gateway_budget_range\": string}, \"reply\": string}.\n")
	if session != nil {
		fmt.Fprintf(&b, "Already known: %+v\n", session.Gateway)
	}
	systemPrompt := b.String()
	messages := []providers.Message{{Role: "system", Content: systemPrompt}}
	messages = append(messages, historyMessages(session, 10)...)
	messages = append(messages, providers.Message{Role: "user", Content: message})
	meta.SystemPrompt = systemPrompt
	meta.SentMessages = messages

	resp, err := g.provider.Chat(ctx, providers.ChatRequest{
		Messages: messages,
		Options: map[string]interface{}{
			providers.OptJSONMode:    true,
			providers.OptTemperature: 0.3,
			providers.OptMaxTokens:   1024,
		},
	})
	if err != nil {
		meta.Fallback = true
		meta.Error = err.Error()
		return fallbackGatewayCollect(), meta
	}
	meta.RawResponse = resp.Content

	var out GatewayCollectOutput
	if err := parseJSONStrict(resp.Content, &out); err != nil {
		meta.Fallback = true
		meta.Error = "parse_failure: " + err.Error()
		return fallbackGatewayCollect(), meta
	}
	return out, meta
}
