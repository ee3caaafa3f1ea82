package profiler

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/fazal-lab/xia/internal/domain"
	"github.com/fazal-lab/xia/internal/maps"
	"github.com/fazal-lab/xia/internal/providers"
	"github.com/fazal-lab/xia/internal/ringengine"
	"github.com/fazal-lab/xia/internal/rules"
)

type fakeProvider struct {
	content string
	err     error
	calls   int
}

func (f *fakeProvider) Chat(ctx context.Context, req providers.ChatRequest) (*providers.ChatResponse, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &providers.ChatResponse{Content: f.content}, nil
}
func (f *fakeProvider) DefaultModel() string { return "fake-model" }
func (f *fakeProvider) Name() string         { return "fake" }

func newDisabledRingEngine() *ringengine.Engine {
	mapsClient := maps.New("", time.Hour, time.Hour) // no API key: pure rules-only, no network
	return ringengine.New(mapsClient, rules.Default())
}

func TestRouter_ModeRules_NeverCallsProvider(t *testing.T) {
	p := &fakeProvider{content: `{"should_override": true}`}
	r := New(newDisabledRingEngine(), p, rules.Default(), slog.Default())
	profile, err := r.Profile(context.Background(), 12.9, 77.5, ModeRules)
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if p.calls != 0 {
		t.Errorf("provider calls = %d, want 0 for rules mode", p.calls)
	}
	if profile.Metadata.LLMUsed {
		t.Error("expected llm_used = false for rules mode")
	}
}

func TestRouter_ModeHybrid_AppliesOverrideOnLowConfidence(t *testing.T) {
	p := &fakeProvider{content: `{"should_override": true, "final_type": "retail", "context": "Busy market", "rationale": "mixed signals resolved by context"}`}
	r := New(newDisabledRingEngine(), p, rules.Default(), slog.Default())
	profile, err := r.Profile(context.Background(), 12.9, 77.5, ModeHybrid)
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if p.calls != 1 {
		t.Fatalf("provider calls = %d, want 1 (empty rings yield low confidence, triggering hybrid)", p.calls)
	}
	if !profile.Metadata.LLMUsed {
		t.Error("expected llm_used = true")
	}
	if profile.Area.PrimaryType != "retail" {
		t.Errorf("primary type = %q, want retail (override applied)", profile.Area.PrimaryType)
	}
	if profile.Area.ClassificationDetail != "LLM_OVERRIDE" {
		t.Errorf("classification detail = %q, want LLM_OVERRIDE", profile.Area.ClassificationDetail)
	}
}

func TestRouter_ModeHybrid_LLMFailureDegradesSilently(t *testing.T) {
	p := &fakeProvider{err: errors.New("upstream down")}
	r := New(newDisabledRingEngine(), p, rules.Default(), slog.Default())
	profile, err := r.Profile(context.Background(), 12.9, 77.5, ModeHybrid)
	if err != nil {
		t.Fatalf("Profile() returned an error, want the rules-only result with a metadata marker: %v", err)
	}
	if profile.Metadata.LLMUsed {
		t.Error("expected llm_used = false after an LLM failure")
	}
	if profile.Metadata.Error == "" {
		t.Error("expected a metadata error marker recorded")
	}
}

func TestRouter_ModeHybrid_NoProviderSkipsOverride(t *testing.T) {
	r := New(newDisabledRingEngine(), nil, rules.Default(), slog.Default())
	profile, err := r.Profile(context.Background(), 12.9, 77.5, ModeHybrid)
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if profile.Metadata.LLMUsed {
		t.Error("expected llm_used = false with no provider configured")
	}
}

func TestRouter_ModeFullLLM_AppliesClassification(t *testing.T) {
	p := &fakeProvider{content: "```json\n{\"primary_type\": \"HEALTHCARE\", \"context\": \"Hospital district\", \"confidence\": \"high\", \"rationale\": \"dominant hospital presence\"}\n```"}
	r := New(newDisabledRingEngine(), p, rules.Default(), slog.Default())
	profile, err := r.Profile(context.Background(), 12.9, 77.5, ModeFullLLM)
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if profile.Area.PrimaryType != domain.GroupHealthcare {
		t.Errorf("primary type = %q, want healthcare", profile.Area.PrimaryType)
	}
	if profile.Area.ClassificationDetail != "FULL_LLM_CLASSIFICATION" {
		t.Errorf("classification detail = %q", profile.Area.ClassificationDetail)
	}
}

func TestRouter_EmptyModeDefaultsToHybrid(t *testing.T) {
	p := &fakeProvider{content: `{"should_override": false, "rationale": "rules result looks fine"}`}
	r := New(newDisabledRingEngine(), p, rules.Default(), slog.Default())
	if _, err := r.Profile(context.Background(), 12.9, 77.5, ""); err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if p.calls != 1 {
		t.Errorf("provider calls = %d, want 1 (empty mode should default to hybrid)", p.calls)
	}
}

func TestParseJSON_StripsMarkdownFence(t *testing.T) {
	var out map[string]any
	err := parseJSON("```json\n{\"a\": 1}\n```", &out)
	if err != nil {
		t.Fatalf("parseJSON: %v", err)
	}
	if out["a"] != float64(1) {
		t.Errorf("got %v, want a=1", out)
	}
}
