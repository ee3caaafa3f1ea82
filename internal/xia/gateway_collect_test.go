package xia

import (
	"context"
	"testing"

	"github.com/fazal-lab/xia/internal/domain"
)

func TestGatewayCollect_Run_NoProviderReturnsFallback(t *testing.T) {
	g := NewGatewayCollect(nil)
	out, meta := g.Run(context.Background(), &domain.ChatSession{}, "hi")
	if out.Reply == "" {
		t.Error("expected a non-empty fallback reply")
	}
	if !meta.Fallback {
		t.Error("expected meta.Fallback = true")
	}
}

func TestGatewayCollect_Run_ParsesExtractedGatewayFields(t *testing.T) {
	g := NewGatewayCollect(&fakeChatProvider{content: `{"gateway": {"gateway_location_add": ["Pune"], "gateway_budget_range": "50000-100000"}, "reply": "Got it, Pune it is."}`})
	out, meta := g.Run(context.Background(), &domain.ChatSession{}, "I want to run ads in Pune, budget 50k to 1 lakh")
	if meta.Fallback {
		t.Error("expected a successful, non-fallback response")
	}
	if len(out.Gateway.GatewayLocationAdd) != 1 || out.Gateway.GatewayLocationAdd[0] != "Pune" {
		t.Errorf("gateway location add = %v, want [Pune]", out.Gateway.GatewayLocationAdd)
	}
}

func TestGatewayCollect_Run_TransportErrorFallsBack(t *testing.T) {
	g := NewGatewayCollect(&fakeChatProvider{err: context.DeadlineExceeded})
	out, meta := g.Run(context.Background(), &domain.ChatSession{}, "hi")
	if !meta.Fallback || out.Reply == "" {
		t.Errorf("got (%+v, %+v), want a fallback reply with meta.Fallback=true", out, meta)
	}
}
