// Package server assembles the gateway: routes, middleware chain, and
// the drain state used during graceful shutdown.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"sync/atomic"

	"github.com/vango-go/voicebridge/pkg/gateway/auth"
	"github.com/vango-go/voicebridge/pkg/gateway/config"
	"github.com/vango-go/voicebridge/pkg/gateway/handlers"
	"github.com/vango-go/voicebridge/pkg/gateway/live/bridge"
	"github.com/vango-go/voicebridge/pkg/gateway/live/sessions"
	"github.com/vango-go/voicebridge/pkg/gateway/mw"
	"github.com/vango-go/voicebridge/pkg/gateway/upstream"
)

type Server struct {
	cfg    config.Config
	logger *slog.Logger
	mux    *http.ServeMux

	store   *auth.Store
	bridges *sessions.Tracker

	voiceDial upstream.Dialer
	ttsDial   upstream.Dialer

	draining atomic.Bool
}

func New(cfg config.Config, logger *slog.Logger, voiceDial, ttsDial upstream.Dialer) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		cfg:       cfg,
		logger:    logger,
		mux:       http.NewServeMux(),
		store:     auth.NewStore(cfg.SessionTTL, nil),
		bridges:   sessions.NewTracker(),
		voiceDial: voiceDial,
		ttsDial:   ttsDial,
	}

	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.Handle("/api/health", handlers.HealthHandler{Model: s.cfg.Model})
	s.mux.Handle("/readyz", handlers.ReadyHandler{Config: s.cfg})

	s.mux.Handle("/api/login", handlers.LoginHandler{Config: s.cfg, Store: s.store})
	s.mux.Handle("/api/logout", handlers.LogoutHandler{Store: s.store})
	s.mux.Handle("/api/me", handlers.MeHandler{Store: s.store})

	s.mux.Handle("/ws", handlers.LiveHandler{
		Config:   s.cfg,
		Logger:   s.logger,
		Dial:     s.voiceDial,
		Mode:     bridge.ModeVoice,
		Bridges:  s.bridges,
		Draining: s.draining.Load,
	})

	// The TTS route sits behind the session gate; the voice route does
	// not require login.
	gate := auth.Gate{Store: s.store, Required: s.cfg.AuthMode == config.AuthModeRequired}
	s.mux.Handle("/ws/tts", mw.Auth(gate, handlers.LiveHandler{
		Config:   s.cfg,
		Logger:   s.logger,
		Dial:     s.ttsDial,
		Mode:     bridge.ModeTTS,
		Bridges:  s.bridges,
		Draining: s.draining.Load,
	}))
}

func (s *Server) Handler() http.Handler {
	var h http.Handler = s.mux
	h = mw.CORS(s.cfg, h)
	h = mw.Recover(s.logger, h)
	h = mw.AccessLog(s.logger, h)
	h = mw.RequestID(h)
	return h
}

// Sessions exposes the session store, mainly for tests.
func (s *Server) Sessions() *auth.Store {
	return s.store
}

// SetDraining flips the drain flag; new WebSocket connects get 529
// while existing bridges keep running through the grace period.
func (s *Server) SetDraining(v bool) {
	s.draining.Store(v)
}

func (s *Server) IsDraining() bool {
	return s.draining.Load()
}

// WarnLiveBridges notifies every live bridge that shutdown is coming.
func (s *Server) WarnLiveBridges(message string) int {
	return s.bridges.WarnAll(message)
}

// WaitLiveBridges blocks until every bridge has unregistered or ctx
// ends, reporting whether the gateway fully drained.
func (s *Server) WaitLiveBridges(ctx context.Context) bool {
	return s.bridges.Wait(ctx)
}

// CancelLiveBridges force-closes whatever is still running.
func (s *Server) CancelLiveBridges() int {
	return s.bridges.CancelAll()
}

func (s *Server) LiveBridgeCount() int {
	return s.bridges.Count()
}
