package gateway

import (
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/fazal-lab/xia/internal/domain"
	"github.com/fazal-lab/xia/internal/xia"
)

var liveUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type liveMessage struct {
	SessionID   string              `json:"session_id,omitempty"`
	UserID      string              `json:"user_id"`
	Message     string              `json:"message"`
	PageContext *domain.PageContext `json:"page_context,omitempty"`
}

// handleLiveWS serves GET /live/ws: a push channel for Live Mode context
// help, one page-help turn per inbound message.
func (s *Server) handleLiveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := liveUpgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("live ws upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	for {
		var msg liveMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		if msg.Message == "" {
			continue
		}

		turn, err := s.orchestrator.OpenLive(r.Context(), xia.OpenRequest{
			SessionID:   msg.SessionID,
			UserID:      msg.UserID,
			Message:     msg.Message,
			PageContext: msg.PageContext,
		})
		if err != nil {
			if writeErr := conn.WriteJSON(map[string]any{"error": err.Error()}); writeErr != nil {
				return
			}
			continue
		}

		if err := conn.WriteJSON(chatOpenResponse{SessionID: turn.SessionID, Reply: turn.Reply, Redirect: turn.Redirect}); err != nil {
			return
		}
	}
}
