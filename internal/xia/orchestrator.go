package xia

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fazal-lab/xia/internal/discover"
	"github.com/fazal-lab/xia/internal/domain"
	"github.com/fazal-lab/xia/internal/providers"
	"github.com/fazal-lab/xia/internal/rules"
)

// SessionStore is the collaborator contract over persisted ChatSessions
// (file/pg backends live in internal/chatsession). Get returns
// (nil, nil) for an unknown id rather than an error, so the orchestrator
// can distinguish "create a new session" from a transport failure.
type SessionStore interface {
	Get(ctx context.Context, id string) (*domain.ChatSession, error)
	Save(ctx context.Context, s *domain.ChatSession) error
}

const (
	sessionTTL          = 24 * time.Hour
	rateLimitWindow     = 15 * time.Minute
	rateLimitMax        = 50
	maxMessageChars     = 2000
	questionAttemptCap  = 2
)

var errSessionNotFound = fmt.Errorf("xia: session not found or expired")
var errInputInvalid = fmt.Errorf("xia: invalid input")

// ErrSessionNotFound reports whether err denotes a missing or expired
// session, for HTTP handlers to map to a 404.
func ErrSessionNotFound(err error) bool { return errors.Is(err, errSessionNotFound) }

// ErrInputInvalid reports whether err denotes a client input error, for
// HTTP handlers to map to a 400.
func ErrInputInvalid(err error) bool { return errors.Is(err, errInputInvalid) }

var htmlTagRe = regexp.MustCompile(`<[^>]*>`)

var placeholderValues = map[string]bool{
	"not specified": true, "unknown": true, "n/a": true, "none": true, "any": true, "": true,
}

// Orchestrator runs the Session Orchestrator (C12): the per-turn pipeline
// that composes the Understanding/Discover/Ranking/Response calls and holds
// every code-level invariant from spec §4.12.
type Orchestrator struct {
	sessions      SessionStore
	menu          *FilterMenu
	understanding *Understanding
	discoverEng   *discover.Engine
	ranking       *Ranking
	response      *Response
	gatewayCollect *GatewayCollect
	pageHelp      *PageHelp
	rules         *rules.Rules
	logger        *slog.Logger

	mu      sync.Mutex
	locks   map[string]*sync.Mutex
}

func NewOrchestrator(sessions SessionStore, menu *FilterMenu, provider providers.Provider, discoverEng *discover.Engine, r *rules.Rules, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		sessions:       sessions,
		menu:           menu,
		understanding:  NewUnderstanding(provider),
		pageHelp:       NewPageHelp(provider),
		discoverEng:    discoverEng,
		ranking:        NewRanking(provider),
		response:       NewResponse(provider),
		gatewayCollect: NewGatewayCollect(provider),
		rules:          r,
		logger:         logger,
		locks:          make(map[string]*sync.Mutex),
	}
}

// Request is one /chat turn's input.
type Request struct {
	SessionID  string
	UserID     string
	CampaignID string
	Gateway    *domain.Gateway
	Message    string
	Debug      bool
}

// Turn is the orchestrator's output for one turn.
type Turn struct {
	SessionID           string
	Reply               string
	QuickReplies        []string
	Intent              domain.Intent
	Persona             domain.Persona
	Screens             []discover.ScreenResult
	Discover            discover.Result
	Gateway             domain.Gateway
	XiaFilters          map[string]any
	GatewayEditPending  bool
	PendingGatewayEdits *domain.GatewayEdits
	QuestionToAsk       string
	History             []domain.Message
	Warnings            []string
	DebugMeta           map[string]any
}

// Run executes one full turn: session resolution, sanitization, rate
// limiting, Call-1, the fourteen code-enforced steps, Discover, Rank,
// Respond, and an exactly-once session save. Per-session-id serialization
// (spec §5) is enforced via a keyed mutex.
func (o *Orchestrator) Run(ctx context.Context, req Request) (Turn, error) {
	unlock := o.lockSession(o.lockKey(req))
	defer unlock()

	session, _, err := o.resolveSession(ctx, req)
	if err != nil {
		return Turn{}, err
	}

	if throttled, turn := o.checkRateLimit(session); throttled {
		return turn, nil
	}

	message := sanitize(req.Message)

	nextTopic := NextQuestionTopic(session.CampaignContext)
	menu := o.menu.Build(ctx)

	out, call1Meta := o.understanding.Run(ctx, session, message, menu, nextTopic)

	o.step1PlaceholderCleanup(&out)
	o.step2Revert(session, &out)
	o.step3ShowAllSafetyNet(&out)
	o.step4FilterRemoval(session, &out)
	o.step5NonGatewayCity(session, &out)
	o.step6EnumValidity(menu, &out)
	o.step7BudgetInterceptor(session, message, &out)
	o.step8FilterStacking(session, &out)
	o.step9GatewayEditStateMachine(session, message, &out)
	skipRanking, suppressScreens := o.step10PipelineFlags(out.Intent)
	o.step11CampaignContext(session, &out)
	o.step12PersonaAntiFlicker(session, out)
	questionToAsk := o.step13QuestionThrottle(session, out.QuestionToAsk, out.PendingQuestions)
	if out.Intent == domain.IntentStartOver {
		o.step14StartOver(session)
	}

	query := discover.Query{
		Locations:        session.Gateway.Locations,
		Start:            parseDate(session.Gateway.StartDate),
		End:              parseDate(session.Gateway.EndDate),
		Budget:           parseBudget(session.Gateway.BudgetRange),
		XiaFilters:       session.ActiveFilters,
		Excludes:         out.Exclude,
		TextSearch:       out.TextSearch,
		TextSearchFields: menu.TextSearchFields,
	}
	var warnings []string
	discoverResult, err := o.discoverEng.Discover(ctx, query)
	if err != nil {
		o.logger.Warn("discover failed", "error", err, "session_id", session.ID)
		warnings = append(warnings, "location and availability results are temporarily unavailable")
	}

	var ranked []RankedScreen
	var rankMeta CallMeta
	if !skipRanking && len(discoverResult.Screens) >= 2 {
		ranked, rankMeta = o.ranking.Run(ctx, out.Intent, session.CampaignContext, session.Persona, discoverResult.Screens)
	}

	screensForReply := discoverResult.Screens
	if suppressScreens {
		screensForReply = nil
		ranked = nil
	}

	respOut, respMeta := o.response.Run(ctx, ResponseInput{
		Intent:                  out.Intent,
		Persona:                 session.Persona,
		Ranked:                  ranked,
		UserMessage:             message,
		Session:                 session,
		QuestionToAsk:           questionToAsk,
		DiscoveryComplete:       session.DiscoveryComplete,
		TotalFound:              discoverResult.TotalScreensFound,
		AvailableCount:          discoverResult.AvailableScreens,
		Gateway:                 session.Gateway,
		UnavailabilityBreakdown: discoverResult.UnavailabilityBreakdown,
		GatewayEditPending:      session.PendingGatewayEdits != nil,
		PendingGatewayEdits:     session.PendingGatewayEdits,
	})

	screenIDs := make([]string, 0, len(screensForReply))
	for _, s := range screensForReply {
		screenIDs = append(screenIDs, s.Screen.ID)
	}

	session.LastIntent = out.Intent
	session.LastQuickReplies = respOut.QuickReplies
	session.LastQuestion = questionToAsk
	if req.Debug {
		session.LastDebugMeta = map[string]any{
			"call1": call1Meta, "call2": rankMeta, "call3": respMeta,
		}
	}
	session.Messages = append(session.Messages,
		domain.Message{Role: "user", Content: message, Timestamp: now(), Intent: out.Intent},
		domain.Message{Role: "assistant", Content: respOut.Reply, Timestamp: now(), ScreensReturned: screenIDs, FiltersSnapshot: session.ActiveFilters},
	)
	session.UpdatedAt = now()

	if err := o.sessions.Save(ctx, session); err != nil {
		return Turn{}, err
	}

	turn := Turn{
		SessionID:           session.ID,
		Reply:               respOut.Reply,
		QuickReplies:        respOut.QuickReplies,
		Intent:              out.Intent,
		Persona:             session.Persona,
		Screens:             screensForReply,
		Discover:            discoverResult,
		Gateway:             session.Gateway,
		XiaFilters:          session.ActiveFilters,
		GatewayEditPending:  session.PendingGatewayEdits != nil,
		PendingGatewayEdits: session.PendingGatewayEdits,
		QuestionToAsk:       questionToAsk,
		History:             session.Messages,
		Warnings:            warnings,
	}
	if req.Debug {
		turn.DebugMeta = session.LastDebugMeta
	}
	return turn, nil
}

// Restore reloads a session and re-runs Discover against its saved gateway
// and filters, without invoking any LLM call — used by GET /chat/{session_id}
// (spec §6) to rebuild a session's screen results after a client reconnect.
func (o *Orchestrator) Restore(ctx context.Context, sessionID string) (Turn, error) {
	session, err := o.sessions.Get(ctx, sessionID)
	if err != nil {
		return Turn{}, err
	}
	if session == nil {
		return Turn{}, errSessionNotFound
	}
	if session.Expired(now(), sessionTTL) {
		return Turn{}, errSessionNotFound
	}

	query := discover.Query{
		Locations:        session.Gateway.Locations,
		Start:            parseDate(session.Gateway.StartDate),
		End:              parseDate(session.Gateway.EndDate),
		Budget:           parseBudget(session.Gateway.BudgetRange),
		XiaFilters:       session.ActiveFilters,
		TextSearchFields: o.menu.Build(ctx).TextSearchFields,
	}
	discoverResult, err := o.discoverEng.Discover(ctx, query)
	if err != nil {
		o.logger.Warn("discover failed on restore", "error", err, "session_id", session.ID)
	}

	lastReply := ""
	if n := len(session.Messages); n > 0 {
		lastReply = session.Messages[n-1].Content
	}

	return Turn{
		SessionID:           session.ID,
		Reply:               lastReply,
		QuickReplies:        session.LastQuickReplies,
		Intent:              session.LastIntent,
		Persona:             session.Persona,
		Screens:             discoverResult.Screens,
		Discover:            discoverResult,
		Gateway:             session.Gateway,
		XiaFilters:          session.ActiveFilters,
		GatewayEditPending:  session.PendingGatewayEdits != nil,
		PendingGatewayEdits: session.PendingGatewayEdits,
		QuestionToAsk:       session.LastQuestion,
		History:             session.Messages,
	}, nil
}

func (o *Orchestrator) lockKey(req Request) string {
	if req.SessionID != "" {
		return req.SessionID
	}
	return req.UserID + ":" + req.CampaignID
}

func (o *Orchestrator) lockSession(key string) func() {
	o.mu.Lock()
	l, ok := o.locks[key]
	if !ok {
		l = &sync.Mutex{}
		o.locks[key] = l
	}
	o.mu.Unlock()
	l.Lock()
	return l.Unlock
}

// resolveSession implements session creation: on first turn, campaign_id
// and a complete gateway are required and an opaque session id is minted.
func (o *Orchestrator) resolveSession(ctx context.Context, req Request) (*domain.ChatSession, bool, error) {
	if req.SessionID != "" {
		s, err := o.sessions.Get(ctx, req.SessionID)
		if err != nil {
			return nil, false, err
		}
		if s == nil || s.Expired(now(), sessionTTL) {
			return nil, false, errSessionNotFound
		}
		return s, false, nil
	}

	gw := domain.Gateway{}
	if req.Gateway != nil {
		gw = *req.Gateway
	}
	if req.CampaignID == "" || !gw.Complete() {
		return nil, false, fmt.Errorf("%w: campaign_id and a complete gateway are required to start a session", errInputInvalid)
	}

	s := &domain.ChatSession{
		ID:               newSessionID(),
		UserID:           req.UserID,
		CampaignID:       req.CampaignID,
		Mode:             domain.ModeNormal,
		Gateway:          gw,
		ActiveFilters:    map[string]any{},
		PreviousFilters:  map[string]any{},
		QuestionAttempts: map[string]int{},
		Debug:            req.Debug,
		CreatedAt:        now(),
		UpdatedAt:        now(),
	}
	return s, true, nil
}

func newSessionID() string {
	return uuid.NewString()
}

// checkRateLimit implements the 50-messages/15-minutes throttle (spec
// §4.12). Only Run (/chat) applies it; OpenNormal and OpenLive (/chat-open)
// do not call it.
func (o *Orchestrator) checkRateLimit(session *domain.ChatSession) (bool, Turn) {
	since := now().Add(-rateLimitWindow)
	if session.UserMessageCountSince(since) < rateLimitMax {
		return false, Turn{}
	}
	return true, Turn{
		SessionID:    session.ID,
		Reply:        "You're sending messages too quickly. Please wait a moment and try again.",
		QuickReplies: []string{"Okay"},
		Intent:       domain.IntentClarification,
	}
}

// sanitize strips HTML-like tags and truncates to the message cap (spec
// §4.12 "Input sanitization").
func sanitize(msg string) string {
	msg = htmlTagRe.ReplaceAllString(msg, "")
	msg = html.UnescapeString(msg)
	msg = strings.TrimSpace(msg)
	if len(msg) > maxMessageChars {
		msg = msg[:maxMessageChars]
	}
	return msg
}

func now() time.Time { return time.Now() }

func parseDate(s string) time.Time {
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func isPlaceholder(v string) bool {
	return placeholderValues[strings.ToLower(strings.TrimSpace(v))]
}

func parseBudget(s string) float64 {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' || r == '.' {
			return r
		}
		return -1
	}, s)
	var f float64
	_, _ = fmt.Sscanf(digits, "%f", &f)
	return f
}
