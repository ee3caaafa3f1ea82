package xia

import (
	"context"
	"testing"

	"github.com/fazal-lab/xia/internal/domain"
)

func TestCreativeSuggestion_Run_NoProviderReturnsFallback(t *testing.T) {
	c := NewCreativeSuggestion(nil)
	out, meta := c.Run(context.Background(), domain.CampaignContext{AdCategory: "retail"}, nil)
	if out.Headline == "" {
		t.Error("expected a non-empty fallback headline")
	}
	if !meta.Fallback {
		t.Error("expected meta.Fallback = true")
	}
}

func TestCreativeSuggestion_Run_ParsesLLMOutput(t *testing.T) {
	c := NewCreativeSuggestion(&fakeChatProvider{content: `{"headline": "Shine Bright", "tagline": "Every commute, every eye", "visual_ideas": ["neon sign"], "cta": "Shop now"}`})
	out, meta := c.Run(context.Background(), domain.CampaignContext{AdCategory: "retail"}, []string{"retail area near a mall"})
	if meta.Fallback {
		t.Error("expected a successful, non-fallback response")
	}
	if out.Headline != "Shine Bright" {
		t.Errorf("headline = %q, want Shine Bright", out.Headline)
	}
	if len(out.VisualIdeas) != 1 {
		t.Errorf("visual ideas = %v, want one idea", out.VisualIdeas)
	}
}

func TestCreativeSuggestion_Run_ParseFailureFallsBack(t *testing.T) {
	c := NewCreativeSuggestion(&fakeChatProvider{content: "not json"})
	out, meta := c.Run(context.Background(), domain.CampaignContext{}, nil)
	if !meta.Fallback {
		t.Error("expected meta.Fallback = true on an unparseable response")
	}
	if out.Headline == "" {
		t.Error("expected a non-empty fallback headline")
	}
}
