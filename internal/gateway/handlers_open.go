package gateway

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/fazal-lab/xia/internal/discover"
	"github.com/fazal-lab/xia/internal/domain"
	"github.com/fazal-lab/xia/internal/xia"
)

type chatOpenRequest struct {
	SessionID   string             `json:"session_id,omitempty"`
	UserID      string             `json:"user_id"`
	CampaignID  string             `json:"campaign_id"`
	Message     string             `json:"message"`
	Mode        domain.SessionMode `json:"mode"`
	PageContext *domain.PageContext `json:"page_context,omitempty"`
}

type chatOpenResponse struct {
	SessionID string         `json:"session_id"`
	Reply     string         `json:"reply"`
	Gateway   *domain.Gateway `json:"gateway,omitempty"`
	Redirect  *xia.Redirect  `json:"redirect,omitempty"`
}

// handleChatOpen serves POST /chat-open: normal mode runs gateway
// collection, live mode runs context-aware page help.
func (s *Server) handleChatOpen(w http.ResponseWriter, r *http.Request) {
	var req chatOpenRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if req.UserID == "" || req.Message == "" {
		writeError(w, http.StatusBadRequest, "user_id and message are required")
		return
	}

	openReq := xia.OpenRequest{
		SessionID:   req.SessionID,
		UserID:      req.UserID,
		CampaignID:  req.CampaignID,
		Message:     req.Message,
		PageContext: req.PageContext,
	}

	var turn xia.OpenTurn
	var err error
	if req.Mode == domain.ModeLive {
		turn, err = s.orchestrator.OpenLive(r.Context(), openReq)
	} else {
		turn, err = s.orchestrator.OpenNormal(r.Context(), openReq)
	}
	if err != nil {
		s.writeOrchestratorError(w, err)
		return
	}

	resp := chatOpenResponse{SessionID: turn.SessionID, Reply: turn.Reply, Redirect: turn.Redirect}
	if req.Mode != domain.ModeLive {
		gw := turn.Gateway
		resp.Gateway = &gw
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleDiscover serves POST /discover: stateless discover, same payload
// shape as the gateway portion of /chat with no session or filters.
func (s *Server) handleDiscover(w http.ResponseWriter, r *http.Request) {
	var req struct {
		domain.Gateway
		TextSearch string `json:"text_search,omitempty"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if !req.Gateway.Complete() {
		writeError(w, http.StatusBadRequest, "location, start_date, end_date and budget_range are required")
		return
	}

	result, err := s.discoverEngine.Discover(r.Context(), buildDiscoverQuery(r.Context(), req.Gateway, req.TextSearch, s.menu))
	if err != nil {
		s.logger.Error("gateway: discover failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// buildDiscoverQuery translates a gateway into a discover.Query with no
// session-scoped filters, for the stateless /discover and normal-mode
// /chat-open paths.
func buildDiscoverQuery(ctx context.Context, gw domain.Gateway, textSearch string, menu *xia.FilterMenu) discover.Query {
	return discover.Query{
		Locations:        gw.Locations,
		Start:            parseISODate(gw.StartDate),
		End:              parseISODate(gw.EndDate),
		Budget:           parseBudgetAmount(gw.BudgetRange),
		TextSearch:       textSearch,
		TextSearchFields: menu.Build(ctx).TextSearchFields,
	}
}

func parseISODate(s string) time.Time {
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func parseBudgetAmount(s string) float64 {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' || r == '.' {
			return r
		}
		return -1
	}, s)
	f, _ := strconv.ParseFloat(digits, 64)
	return f
}
