package xia

import (
	"context"

	"github.com/fazal-lab/xia/internal/domain"
)

// OpenRequest is one POST /chat-open turn's input (spec §6).
type OpenRequest struct {
	SessionID   string
	UserID      string
	CampaignID  string
	Message     string
	PageContext *domain.PageContext
}

// OpenTurn is the dual-mode entry's output.
type OpenTurn struct {
	SessionID string
	Reply     string
	Gateway   domain.Gateway
	Redirect  *Redirect
}

// OpenNormal handles chat-open in normal mode: gateway collection (C9b).
// It loads or creates the session, merges whatever gateway fields Call C9b
// extracted from the message, and persists the session.
func (o *Orchestrator) OpenNormal(ctx context.Context, req OpenRequest) (OpenTurn, error) {
	unlock := o.lockSession(o.lockKey(Request{SessionID: req.SessionID, UserID: req.UserID, CampaignID: req.CampaignID}))
	defer unlock()

	session, err := o.loadOrCreateOpenSession(ctx, req)
	if err != nil {
		return OpenTurn{}, err
	}

	message := sanitize(req.Message)
	out, _ := o.gatewayCollect.Run(ctx, session, message)
	mergeGatewayEdits(&session.Gateway, out.Gateway)

	session.Messages = append(session.Messages,
		domain.Message{Role: "user", Content: message, Timestamp: now()},
		domain.Message{Role: "assistant", Content: out.Reply, Timestamp: now()},
	)
	session.UpdatedAt = now()

	if err := o.sessions.Save(ctx, session); err != nil {
		return OpenTurn{}, err
	}

	return OpenTurn{SessionID: session.ID, Reply: out.Reply, Gateway: session.Gateway}, nil
}

// OpenLive handles chat-open in live mode: context-aware page help (C9c).
// Live-mode turns are stateless for discovery purposes: only the page
// context drives the answer, though the session is still loaded/created so
// a client's live conversation has a stable id to reference.
func (o *Orchestrator) OpenLive(ctx context.Context, req OpenRequest) (OpenTurn, error) {
	unlock := o.lockSession(o.lockKey(Request{SessionID: req.SessionID, UserID: req.UserID, CampaignID: req.CampaignID}))
	defer unlock()

	session, err := o.loadOrCreateOpenSession(ctx, req)
	if err != nil {
		return OpenTurn{}, err
	}
	session.Mode = domain.ModeLive

	page := domain.PageContext{}
	if req.PageContext != nil {
		page = *req.PageContext
		session.LastPageContext = req.PageContext
	}

	message := sanitize(req.Message)
	out, _ := o.pageHelp.Run(ctx, page, message)

	session.Messages = append(session.Messages,
		domain.Message{Role: "user", Content: message, Timestamp: now()},
		domain.Message{Role: "assistant", Content: out.Reply, Timestamp: now()},
	)
	session.UpdatedAt = now()

	if err := o.sessions.Save(ctx, session); err != nil {
		return OpenTurn{}, err
	}

	return OpenTurn{SessionID: session.ID, Reply: out.Reply, Redirect: out.Redirect}, nil
}

func (o *Orchestrator) loadOrCreateOpenSession(ctx context.Context, req OpenRequest) (*domain.ChatSession, error) {
	if req.SessionID != "" {
		s, err := o.sessions.Get(ctx, req.SessionID)
		if err != nil {
			return nil, err
		}
		if s != nil && !s.Expired(now(), sessionTTL) {
			return s, nil
		}
	}
	return &domain.ChatSession{
		ID:               newSessionID(),
		UserID:           req.UserID,
		CampaignID:       req.CampaignID,
		Mode:             domain.ModeNormal,
		ActiveFilters:    map[string]any{},
		PreviousFilters:  map[string]any{},
		QuestionAttempts: map[string]int{},
		CreatedAt:        now(),
		UpdatedAt:        now(),
	}, nil
}

// mergeGatewayEdits applies non-empty fields from edits onto gw in place: a
// non-empty GatewayLocation replaces the location list, then each
// GatewayLocationAdd entry not already present is appended.
func mergeGatewayEdits(gw *domain.Gateway, edits domain.GatewayEdits) {
	if len(edits.GatewayLocation) > 0 {
		gw.Locations = edits.GatewayLocation
	}
	for _, loc := range edits.GatewayLocationAdd {
		if !contains(gw.Locations, loc) {
			gw.Locations = append(gw.Locations, loc)
		}
	}
	if edits.GatewayStartDate != "" {
		gw.StartDate = edits.GatewayStartDate
	}
	if edits.GatewayEndDate != "" {
		gw.EndDate = edits.GatewayEndDate
	}
	if edits.GatewayBudgetRange != "" {
		gw.BudgetRange = edits.GatewayBudgetRange
	}
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
