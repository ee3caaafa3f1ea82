package xia

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/fazal-lab/xia/internal/discover"
	"github.com/fazal-lab/xia/internal/domain"
	"github.com/fazal-lab/xia/internal/rules"
)

type fakeSessionStore struct {
	sessions map[string]*domain.ChatSession
	saves    int
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: make(map[string]*domain.ChatSession)}
}

func (f *fakeSessionStore) Get(ctx context.Context, id string) (*domain.ChatSession, error) {
	return f.sessions[id], nil
}

func (f *fakeSessionStore) Save(ctx context.Context, s *domain.ChatSession) error {
	f.saves++
	f.sessions[s.ID] = s
	return nil
}

type fakeInventoryStore struct {
	screens []domain.Screen
}

func (f *fakeInventoryStore) ListDiscoverable(ctx context.Context) ([]domain.Screen, error) {
	return f.screens, nil
}
func (f *fakeInventoryStore) ListBookings(ctx context.Context, screenID string) ([]domain.SlotBooking, error) {
	return nil, nil
}
func (f *fakeInventoryStore) ExpireStaleHolds(ctx context.Context, maxAge time.Duration) (int, error) {
	return 0, nil
}

func newTestOrchestratorFull(sessions *fakeSessionStore, provider *fakeChatProvider, screens []domain.Screen) *Orchestrator {
	inv := &fakeInventoryStore{screens: screens}
	menu := NewFilterMenu(inv)
	discoverEng := discover.New(inv, rules.Default())
	return NewOrchestrator(sessions, menu, provider, discoverEng, rules.Default(), slog.Default())
}

func completeGateway() *domain.Gateway {
	return &domain.Gateway{Locations: []string{"Pune"}, StartDate: "2026-08-01", EndDate: "2026-08-30", BudgetRange: "50000-100000"}
}

func TestOrchestrator_Run_RequiresCampaignIDAndCompleteGatewayOnFirstTurn(t *testing.T) {
	o := newTestOrchestratorFull(newFakeSessionStore(), &fakeChatProvider{content: `{"intent": "greeting"}`}, nil)
	_, err := o.Run(context.Background(), Request{UserID: "u1", Message: "hi"})
	if err == nil || !ErrInputInvalid(err) {
		t.Fatalf("err = %v, want an ErrInputInvalid", err)
	}
}

func TestOrchestrator_Run_CreatesSessionOnFirstTurn(t *testing.T) {
	sessions := newFakeSessionStore()
	provider := &fakeChatProvider{content: `{"intent": "greeting", "detected_persona": "business_owner", "persona_confidence": 0.6}`}
	o := newTestOrchestratorFull(sessions, provider, nil)

	turn, err := o.Run(context.Background(), Request{UserID: "u1", CampaignID: "c1", Gateway: completeGateway(), Message: "hi there"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if turn.SessionID == "" {
		t.Error("expected a minted session id")
	}
	if sessions.saves != 1 {
		t.Errorf("saves = %d, want 1", sessions.saves)
	}
	if len(turn.QuickReplies) != 3 {
		t.Errorf("quick replies = %v, want exactly 3", turn.QuickReplies)
	}
}

func TestOrchestrator_Run_UnknownSessionIDReturnsNotFound(t *testing.T) {
	o := newTestOrchestratorFull(newFakeSessionStore(), &fakeChatProvider{}, nil)
	_, err := o.Run(context.Background(), Request{SessionID: "nope", Message: "hi"})
	if err == nil || !ErrSessionNotFound(err) {
		t.Fatalf("err = %v, want ErrSessionNotFound", err)
	}
}

func TestOrchestrator_Run_ExpiredSessionReturnsNotFound(t *testing.T) {
	sessions := newFakeSessionStore()
	sessions.sessions["old"] = &domain.ChatSession{ID: "old", UpdatedAt: time.Now().Add(-48 * time.Hour)}
	o := newTestOrchestratorFull(sessions, &fakeChatProvider{}, nil)
	_, err := o.Run(context.Background(), Request{SessionID: "old", Message: "hi"})
	if err == nil || !ErrSessionNotFound(err) {
		t.Fatalf("err = %v, want ErrSessionNotFound for an expired session", err)
	}
}

func TestOrchestrator_Run_RateLimitThrottlesAfterMax(t *testing.T) {
	sessions := newFakeSessionStore()
	session := &domain.ChatSession{
		ID: "s1", Gateway: *completeGateway(), ActiveFilters: map[string]any{}, PreviousFilters: map[string]any{},
		QuestionAttempts: map[string]int{}, UpdatedAt: time.Now(),
	}
	now := time.Now()
	for i := 0; i < rateLimitMax; i++ {
		session.Messages = append(session.Messages, domain.Message{Role: "user", Timestamp: now})
	}
	sessions.sessions["s1"] = session

	provider := &fakeChatProvider{content: `{"intent": "greeting"}`}
	o := newTestOrchestratorFull(sessions, provider, nil)
	turn, err := o.Run(context.Background(), Request{SessionID: "s1", Message: "one more"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if turn.Intent != domain.IntentClarification {
		t.Errorf("intent = %q, want clarification (rate-limited)", turn.Intent)
	}
	if provider.calls != 0 {
		t.Errorf("provider calls = %d, want 0 when rate-limited", provider.calls)
	}
}

func TestOrchestrator_Run_SkipsRankingForSingleScreen(t *testing.T) {
	sessions := newFakeSessionStore()
	screens := []domain.Screen{
		{ID: "s1", SpecCity: "Pune", Status: domain.ScreenVerified, ProfileStatus: domain.ProfileProfiled, BasePricePerSlotINR: 100},
	}
	provider := &fakeChatProvider{content: `{"intent": "screen_search"}`}
	o := newTestOrchestratorFull(sessions, provider, screens)
	turn, err := o.Run(context.Background(), Request{UserID: "u1", CampaignID: "c1", Gateway: completeGateway(), Message: "show me screens"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(turn.Screens) != 1 {
		t.Errorf("screens = %v, want one discovered screen", turn.Screens)
	}
	if provider.calls != 2 {
		t.Errorf("provider calls = %d, want 2 (Call-1 and Call-3 only; no ranking call for a single screen)", provider.calls)
	}
}

func TestOrchestrator_Restore_ReloadsWithoutLLMCall(t *testing.T) {
	sessions := newFakeSessionStore()
	session := &domain.ChatSession{
		ID: "s1", Gateway: *completeGateway(), ActiveFilters: map[string]any{}, UpdatedAt: time.Now(),
		Messages: []domain.Message{{Role: "assistant", Content: "last reply"}},
	}
	sessions.sessions["s1"] = session
	provider := &fakeChatProvider{content: `{"intent": "greeting"}`}
	o := newTestOrchestratorFull(sessions, provider, nil)

	turn, err := o.Restore(context.Background(), "s1")
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if turn.Reply != "last reply" {
		t.Errorf("reply = %q, want the session's last message", turn.Reply)
	}
	if provider.calls != 0 {
		t.Errorf("provider calls = %d, want 0 (Restore never invokes an LLM call)", provider.calls)
	}
}

func TestOrchestrator_Restore_UnknownSessionReturnsNotFound(t *testing.T) {
	o := newTestOrchestratorFull(newFakeSessionStore(), &fakeChatProvider{}, nil)
	_, err := o.Restore(context.Background(), "missing")
	if err == nil || !ErrSessionNotFound(err) {
		t.Fatalf("err = %v, want ErrSessionNotFound", err)
	}
}

func TestSanitize_StripsTagsAndTruncates(t *testing.T) {
	got := sanitize("  <b>hello</b> &amp; <i>world</i>  ")
	if got != "hello & world" {
		t.Errorf("sanitize = %q, want %q", got, "hello & world")
	}

	long := make([]byte, maxMessageChars+100)
	for i := range long {
		long[i] = 'a'
	}
	if got := sanitize(string(long)); len(got) != maxMessageChars {
		t.Errorf("sanitize truncated length = %d, want %d", len(got), maxMessageChars)
	}
}

func TestIsPlaceholder(t *testing.T) {
	for _, v := range []string{"Not Specified", "unknown", "N/A", "none", "any", "", "  "} {
		if !isPlaceholder(v) {
			t.Errorf("isPlaceholder(%q) = false, want true", v)
		}
	}
	if isPlaceholder("Pune") {
		t.Error("isPlaceholder(\"Pune\") = true, want false")
	}
}

func TestParseBudget(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"50000", 50000},
		{"₹50,000", 50000},
		{"50000.50", 50000.50},
		{"no digits here", 0},
	}
	for _, tt := range tests {
		if got := parseBudget(tt.in); got != tt.want {
			t.Errorf("parseBudget(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseDate(t *testing.T) {
	if got := parseDate("2026-08-01"); got.IsZero() {
		t.Error("expected a parsed date for 2006-01-02 layout")
	}
	if got := parseDate("not a date"); !got.IsZero() {
		t.Errorf("parseDate(invalid) = %v, want zero time", got)
	}
}
