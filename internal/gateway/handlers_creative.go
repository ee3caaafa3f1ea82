package gateway

import (
	"fmt"
	"net/http"

	"github.com/fazal-lab/xia/internal/domain"
	"github.com/fazal-lab/xia/internal/xia"
)

type creativeSuggestionRequest struct {
	SessionID string   `json:"session_id"`
	ScreenIDs []string `json:"screen_ids"`
}

type creativeSuggestionResponse struct {
	Suggestions map[string]xia.CreativeSuggestionOutput `json:"suggestions"`
	Warnings    []string                                `json:"warnings,omitempty"`
}

// handleCreativeSuggestion serves POST /creative-suggestion: one creative
// brief per requested screen, built from the session's campaign context and
// a one-line summary of each screen (screenContextSummary); the screen's full
// spec and area profile are not sent to the model.
func (s *Server) handleCreativeSuggestion(w http.ResponseWriter, r *http.Request) {
	var req creativeSuggestionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if req.SessionID == "" || len(req.ScreenIDs) == 0 {
		writeError(w, http.StatusBadRequest, "session_id and screen_ids are required")
		return
	}

	session, err := s.sessions.Get(r.Context(), req.SessionID)
	if err != nil {
		s.logger.Error("gateway: session lookup failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if session == nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	resp := creativeSuggestionResponse{Suggestions: make(map[string]xia.CreativeSuggestionOutput, len(req.ScreenIDs))}
	for _, id := range req.ScreenIDs {
		screen, err := s.screens.GetByID(r.Context(), id)
		if err != nil {
			resp.Warnings = append(resp.Warnings, fmt.Sprintf("screen %s not found", id))
			continue
		}
		context := []string{screenContextSummary(screen)}
		out, _ := s.creative.Run(r.Context(), session.CampaignContext, context)
		resp.Suggestions[id] = out
	}

	writeJSON(w, http.StatusOK, resp)
}

// screenContextSummary is the short textual context the creative call
// prompts against: the screen's area and placement, not its full spec.
func screenContextSummary(screen domain.Screen) string {
	return fmt.Sprintf("%s in %s: %s (%s, %s environment)",
		screen.Name, screen.SpecCity, screen.Profile.Area.Context, screen.Profile.DwellCategory, screen.Environment)
}
