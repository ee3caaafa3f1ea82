package gateway

import (
	"net/http"

	"github.com/fazal-lab/xia/internal/discover"
	"github.com/fazal-lab/xia/internal/domain"
	"github.com/fazal-lab/xia/internal/xia"
)

type chatRequest struct {
	SessionID  string          `json:"session_id,omitempty"`
	UserID     string          `json:"user_id"`
	CampaignID string          `json:"campaign_id"`
	Gateway    *domain.Gateway `json:"gateway,omitempty"`
	Message    string          `json:"message"`
	Debug      bool            `json:"debug,omitempty"`
}

// chatResponse is the POST /chat and GET /chat/{id} response body (spec §6).
type chatResponse struct {
	SessionID           string                  `json:"session_id"`
	Reply               string                  `json:"reply"`
	QuickReplies        []string                `json:"quick_replies"`
	Intent              domain.Intent           `json:"intent"`
	DetectedPersona     domain.Persona          `json:"detected_persona,omitempty"`
	Screens             []discover.ScreenResult `json:"screens"`
	TotalScreensFound   int                     `json:"total_screens_found"`
	AvailableScreens    int                     `json:"available_screens"`
	UnavailableScreens  int                     `json:"unavailable_screens"`
	FiltersApplied      filtersApplied          `json:"filters_applied"`
	GatewayEditPending  bool                    `json:"gateway_edit_pending"`
	PendingGatewayEdits *domain.GatewayEdits    `json:"pending_gateway_edits,omitempty"`
	QuestionToAsk       string                  `json:"question_to_ask,omitempty"`
	History             []domain.Message        `json:"history"`
	Warnings            []string                `json:"warnings"`
	Call1Meta           any                     `json:"call1_meta,omitempty"`
	Call2Meta           any                     `json:"call2_meta,omitempty"`
	Call3Meta           any                     `json:"call3_meta,omitempty"`
	DiscoverMeta        *discoverMeta           `json:"discover_meta,omitempty"`
}

type filtersApplied struct {
	Gateway    domain.Gateway `json:"gateway"`
	XiaFilters map[string]any `json:"xia_filters"`
}

type discoverMeta struct {
	UnavailabilityBreakdown map[string]int `json:"unavailability_breakdown"`
	NotAvailableLocations   []string       `json:"not_available_locations"`
}

func turnToResponse(turn xia.Turn) chatResponse {
	resp := chatResponse{
		SessionID:           turn.SessionID,
		Reply:               turn.Reply,
		QuickReplies:        turn.QuickReplies,
		Intent:              turn.Intent,
		DetectedPersona:     turn.Persona,
		Screens:             turn.Screens,
		TotalScreensFound:   turn.Discover.TotalScreensFound,
		AvailableScreens:    turn.Discover.AvailableScreens,
		UnavailableScreens:  turn.Discover.UnavailableScreens,
		FiltersApplied:      filtersApplied{Gateway: turn.Gateway, XiaFilters: turn.XiaFilters},
		GatewayEditPending:  turn.GatewayEditPending,
		PendingGatewayEdits: turn.PendingGatewayEdits,
		QuestionToAsk:       turn.QuestionToAsk,
		History:             turn.History,
		Warnings:            turn.Warnings,
		DiscoverMeta: &discoverMeta{
			UnavailabilityBreakdown: turn.Discover.UnavailabilityBreakdown,
			NotAvailableLocations:   turn.Discover.NotAvailableLocations,
		},
	}
	if turn.DebugMeta != nil {
		resp.Call1Meta = turn.DebugMeta["call1"]
		resp.Call2Meta = turn.DebugMeta["call2"]
		resp.Call3Meta = turn.DebugMeta["call3"]
	}
	if resp.QuickReplies == nil {
		resp.QuickReplies = []string{}
	}
	if resp.History == nil {
		resp.History = []domain.Message{}
	}
	if resp.Warnings == nil {
		resp.Warnings = []string{}
	}
	if resp.Screens == nil {
		resp.Screens = []discover.ScreenResult{}
	}
	return resp
}

// handleChat serves POST /chat: one conversational discovery turn.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if req.UserID == "" || req.Message == "" {
		writeError(w, http.StatusBadRequest, "user_id and message are required")
		return
	}

	turn, err := s.orchestrator.Run(r.Context(), xia.Request{
		SessionID:  req.SessionID,
		UserID:     req.UserID,
		CampaignID: req.CampaignID,
		Gateway:    req.Gateway,
		Message:    req.Message,
		Debug:      req.Debug,
	})
	if err != nil {
		s.writeOrchestratorError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, turnToResponse(turn))
}

// handleChatGet serves GET /chat/{session_id}: session restore.
func (s *Server) handleChatGet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	turn, err := s.orchestrator.Restore(r.Context(), id)
	if err != nil {
		s.writeOrchestratorError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, turnToResponse(turn))
}

// writeOrchestratorError maps orchestrator errors to the HTTP status codes
// spec §7's error taxonomy assigns them.
func (s *Server) writeOrchestratorError(w http.ResponseWriter, err error) {
	switch {
	case xia.ErrSessionNotFound(err):
		writeError(w, http.StatusNotFound, "session not found")
	case xia.ErrInputInvalid(err):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error("gateway: internal error", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
