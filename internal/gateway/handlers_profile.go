package gateway

import (
	"net/http"

	"github.com/fazal-lab/xia/internal/profiler"
)

type screenProfileRequest struct {
	Latitude  float64       `json:"latitude"`
	Longitude float64       `json:"longitude"`
	Mode      profiler.Mode `json:"mode,omitempty"`
}

// handleScreenProfile serves POST /screen-profile: a one-shot area profile
// for an arbitrary coordinate pair.
func (s *Server) handleScreenProfile(w http.ResponseWriter, r *http.Request) {
	var req screenProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if req.Latitude == 0 && req.Longitude == 0 {
		writeError(w, http.StatusBadRequest, "latitude and longitude are required")
		return
	}

	profile, err := s.profiler.Profile(r.Context(), req.Latitude, req.Longitude, publicMode(req.Mode))
	if err != nil {
		s.logger.Error("gateway: profile failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// handleScreenProfileGet serves GET /screen-profile/{id}: profiles the
// coordinates of an already-registered screen.
func (s *Server) handleScreenProfileGet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	screen, err := s.screens.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusNotFound, "screen not found")
		return
	}

	mode := profiler.ModeHybrid
	if m := r.URL.Query().Get("mode"); m != "" {
		mode = publicMode(profiler.Mode(m))
	}

	profile, err := s.profiler.Profile(r.Context(), screen.SpecLatitude, screen.SpecLongitude, mode)
	if err != nil {
		s.logger.Error("gateway: profile failed", "error", err, "screen_id", id)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// publicMode restricts the externally-reachable mode values to rules and
// hybrid; full_llm and research_agent are only ever selected internally
// (spec §6).
func publicMode(m profiler.Mode) profiler.Mode {
	if m == profiler.ModeRules {
		return profiler.ModeRules
	}
	return profiler.ModeHybrid
}
