// Package gateway exposes the XIA HTTP surface (spec §6): conversational
// discovery (/chat, /chat-open), stateless discovery (/discover), the Area
// Profiler (/screen-profile), creative suggestions (/creative-suggestion),
// and an optional Live Mode push channel (/live/ws). Grounded on the
// teacher's internal/gateway.Server: a single net/http.ServeMux built once,
// a RateLimiter guarding the conversational endpoints, graceful shutdown via
// context cancellation.
package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/fazal-lab/xia/internal/config"
	"github.com/fazal-lab/xia/internal/discover"
	"github.com/fazal-lab/xia/internal/domain"
	"github.com/fazal-lab/xia/internal/profiler"
	"github.com/fazal-lab/xia/internal/xia"
)

// ScreenStore is what the profile and creative-suggestion handlers need
// beyond the Discover Engine's read path: a point lookup by id.
type ScreenStore interface {
	GetByID(ctx context.Context, id string) (domain.Screen, error)
}

// Server wires the profiler, the session orchestrator, and a screen/session
// lookup surface into a single HTTP listener.
type Server struct {
	cfg            *config.Config
	profiler       *profiler.Router
	orchestrator   *xia.Orchestrator
	discoverEngine *discover.Engine
	menu           *xia.FilterMenu
	screens        ScreenStore
	sessions       xia.SessionStore
	creative       *xia.CreativeSuggestion
	logger         *slog.Logger

	rateLimiter *RateLimiter
	mux         *http.ServeMux
	httpServer  *http.Server
}

func NewServer(cfg *config.Config, profilerRouter *profiler.Router, orchestrator *xia.Orchestrator, discoverEngine *discover.Engine, menu *xia.FilterMenu, screens ScreenStore, sessions xia.SessionStore, creative *xia.CreativeSuggestion, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		cfg:            cfg,
		profiler:       profilerRouter,
		orchestrator:   orchestrator,
		discoverEngine: discoverEngine,
		menu:           menu,
		screens:        screens,
		sessions:       sessions,
		creative:       creative,
		logger:         logger,
		rateLimiter:    NewRateLimiter(cfg.Gateway.RateLimitRPM, 5),
	}
}

// BuildMux creates and caches the HTTP mux with every route registered.
func (s *Server) BuildMux() *http.ServeMux {
	if s.mux != nil {
		return s.mux
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)

	chat := s.withRateLimit(s.handleChat)
	mux.HandleFunc("POST /chat", chat)
	mux.HandleFunc("GET /chat/{id}", s.handleChatGet)
	mux.HandleFunc("POST /chat-open", s.withRateLimit(s.handleChatOpen))

	mux.HandleFunc("POST /discover", s.handleDiscover)
	mux.HandleFunc("POST /screen-profile", s.handleScreenProfile)
	mux.HandleFunc("GET /screen-profile/{id}", s.handleScreenProfileGet)
	mux.HandleFunc("POST /creative-suggestion", s.handleCreativeSuggestion)

	if s.cfg.Gateway.LiveWS {
		mux.HandleFunc("GET /live/ws", s.handleLiveWS)
	}

	s.mux = mux
	return mux
}

func (s *Server) withRateLimit(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.rateLimiter.Allow(clientKey(r)) {
			writeJSON(w, http.StatusTooManyRequests, map[string]any{
				"reply": "You're sending requests too quickly. Please wait a moment and try again.",
			})
			return
		}
		h(w, r)
	}
}

func clientKey(r *http.Request) string {
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		return ip
	}
	return r.RemoteAddr
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

// Start begins listening; it blocks until ctx is cancelled or the server
// errors, matching the teacher's context-driven graceful shutdown.
func (s *Server) Start(ctx context.Context) error {
	mux := s.BuildMux()

	addr := fmt.Sprintf("%s:%d", s.cfg.Gateway.Host, s.cfg.Gateway.Port)
	s.httpServer = &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.httpServer.Shutdown(shutdownCtx)
	}()

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("gateway server: %w", err)
	}
	return nil
}
