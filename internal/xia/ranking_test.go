package xia

import (
	"context"
	"errors"
	"testing"

	"github.com/fazal-lab/xia/internal/discover"
	"github.com/fazal-lab/xia/internal/domain"
	"github.com/fazal-lab/xia/internal/providers"
)

type fakeChatProvider struct {
	content string
	err     error
	calls   int
}

func (f *fakeChatProvider) Chat(ctx context.Context, req providers.ChatRequest) (*providers.ChatResponse, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &providers.ChatResponse{Content: f.content}, nil
}
func (f *fakeChatProvider) DefaultModel() string { return "fake-model" }
func (f *fakeChatProvider) Name() string         { return "fake" }

func screenResults(ids ...string) []discover.ScreenResult {
	out := make([]discover.ScreenResult, 0, len(ids))
	for _, id := range ids {
		out = append(out, discover.ScreenResult{Screen: domain.Screen{ID: id}, IsAvailable: true})
	}
	return out
}

func TestRanking_Run_SkipsLLMForSkipIntents(t *testing.T) {
	p := &fakeChatProvider{content: `{"scores": []}`}
	r := NewRanking(p)
	ranked, _ := r.Run(context.Background(), domain.IntentGreeting, domain.CampaignContext{}, domain.PersonaBusinessOwner, screenResults("a", "b"))
	if p.calls != 0 {
		t.Errorf("provider calls = %d, want 0 for a skip-ranking intent", p.calls)
	}
	if len(ranked) != 2 || ranked[0].Score.Total != 0 {
		t.Errorf("got %+v, want passthrough scores of 0", ranked)
	}
}

func TestRanking_Run_SingleScreenBypassesLLMWithScore100(t *testing.T) {
	p := &fakeChatProvider{content: `{"scores": []}`}
	r := NewRanking(p)
	ranked, _ := r.Run(context.Background(), domain.IntentScreenSearch, domain.CampaignContext{}, domain.PersonaBusinessOwner, screenResults("a"))
	if p.calls != 0 {
		t.Errorf("provider calls = %d, want 0 for a single candidate", p.calls)
	}
	if len(ranked) != 1 || ranked[0].Score.Total != 100 {
		t.Errorf("got %+v, want a fixed score of 100", ranked)
	}
}

func TestRanking_Run_NoProviderYieldsPassthrough50(t *testing.T) {
	r := NewRanking(nil)
	ranked, meta := r.Run(context.Background(), domain.IntentScreenSearch, domain.CampaignContext{}, domain.PersonaBusinessOwner, screenResults("a", "b"))
	if len(ranked) != 2 || ranked[0].Score.Total != 50 {
		t.Errorf("got %+v, want passthrough scores of 50", ranked)
	}
	if !meta.Fallback {
		t.Error("expected meta.Fallback = true")
	}
}

func TestRanking_Run_SortsByScoreDescending(t *testing.T) {
	p := &fakeChatProvider{content: `{"scores": [{"screen_id": "a", "total": 40}, {"screen_id": "b", "total": 90}]}`}
	r := NewRanking(p)
	ranked, _ := r.Run(context.Background(), domain.IntentScreenSearch, domain.CampaignContext{}, domain.PersonaBusinessOwner, screenResults("a", "b"))
	if ranked[0].Screen.ID != "b" || ranked[1].Screen.ID != "a" {
		t.Errorf("ranked order = [%s, %s], want [b, a] (descending by score)", ranked[0].Screen.ID, ranked[1].Screen.ID)
	}
}

func TestRanking_Run_BatchFailureScoresZeroButContinuesOtherBatches(t *testing.T) {
	p := &fakeChatProvider{err: errors.New("llm down")}
	r := NewRanking(p)
	ranked, _ := r.Run(context.Background(), domain.IntentScreenSearch, domain.CampaignContext{}, domain.PersonaBusinessOwner, screenResults("a", "b", "c"))
	if len(ranked) != 3 {
		t.Fatalf("got %d ranked screens, want 3 (failed batch still yields zero-scored entries)", len(ranked))
	}
	for _, r := range ranked {
		if r.Score.Total != 0 || r.Score.Summary == "" {
			t.Errorf("screen %s: total=%d summary=%q, want total=0 and a non-empty failure summary", r.Screen.ID, r.Score.Total, r.Score.Summary)
		}
	}
}

func TestRanking_Run_UnscoredScreenDefaultsToZero(t *testing.T) {
	p := &fakeChatProvider{content: `{"scores": [{"screen_id": "a", "total": 80}]}`}
	r := NewRanking(p)
	ranked, _ := r.Run(context.Background(), domain.IntentScreenSearch, domain.CampaignContext{}, domain.PersonaBusinessOwner, screenResults("a", "b"))
	var bScore int
	for _, rk := range ranked {
		if rk.Screen.ID == "b" {
			bScore = rk.Score.Total
		}
	}
	if bScore != 0 {
		t.Errorf("unscored screen b total = %d, want 0", bScore)
	}
}
