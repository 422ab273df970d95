package handlers

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/vango-go/voicebridge/pkg/core"
	"github.com/vango-go/voicebridge/pkg/gateway/config"
	"github.com/vango-go/voicebridge/pkg/gateway/live/bridge"
	"github.com/vango-go/voicebridge/pkg/gateway/live/sessions"
	"github.com/vango-go/voicebridge/pkg/gateway/mw"
	"github.com/vango-go/voicebridge/pkg/gateway/upstream"
)

// LiveHandler upgrades one WebSocket and hands it to a bridge. The
// same handler serves both modes; session gating happens in the
// middleware wrapping the route, before the upgrade, so a rejected
// client gets a clean 401 instead of a dropped socket.
type LiveHandler struct {
	Config   config.Config
	Logger   *slog.Logger
	Dial     upstream.Dialer
	Mode     bridge.Mode
	Bridges  *sessions.Tracker
	Draining func() bool
}

func (h LiveHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	reqID, _ := mw.RequestIDFrom(r.Context())

	if r.Method != http.MethodGet {
		writeCoreErrorJSON(w, reqID, &core.Error{Type: core.ErrInvalidRequest, Message: "method not allowed", Code: "method_not_allowed"}, http.StatusMethodNotAllowed)
		return
	}
	if h.Draining != nil && h.Draining() {
		writeCoreErrorJSON(w, reqID, &core.Error{Type: core.ErrOverloaded, Message: "gateway is draining", Code: "draining"}, 529)
		return
	}
	if !h.originAllowed(r) {
		writeCoreErrorJSON(w, reqID, &core.Error{Type: core.ErrAuthentication, Message: "origin is not allowed", Param: "Origin"}, http.StatusForbidden)
		return
	}

	upgrader := websocket.Upgrader{
		HandshakeTimeout: h.Config.WSHandshakeTimeout,
		CheckOrigin:      func(*http.Request) bool { return true },
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	if h.Config.WSMaxMessageBytes > 0 {
		conn.SetReadLimit(h.Config.WSMaxMessageBytes)
	}

	connID := "c_" + uuid.NewString()

	b, err := bridge.New(bridge.Dependencies{
		Conn:   conn,
		Logger: h.Logger,
		Dial:   h.Dial,
		ConnID: connID,
		Config: bridge.Config{
			Mode:          h.Mode,
			PingInterval:  h.Config.WSPingInterval,
			WriteTimeout:  h.Config.WSWriteTimeout,
			QueueSize:     h.Config.InboundQueueSize,
			MaxChunkChars: h.Config.TTSMaxChunkChars,
		},
	})
	if err != nil {
		return
	}

	unregister := func() {}
	if h.Bridges != nil {
		unregister = h.Bridges.Register(connID, sessions.Handle{
			Cancel: b.Cancel,
			Warn:   b.SendWarning,
		})
	}
	defer unregister()

	if err := b.Run(r.Context()); err != nil {
		if h.Logger != nil {
			h.Logger.Warn("bridge ended with error", "conn_id", connID, "request_id", reqID, "error", err)
		}
	}
}

// originAllowed accepts same-host browsers (the gateway serves its own
// pages) plus anything on the configured allowlist.
func (h LiveHandler) originAllowed(r *http.Request) bool {
	origin := strings.TrimSpace(r.Header.Get("Origin"))
	if origin == "" {
		return true
	}
	if u, err := url.Parse(origin); err == nil && u.Host == r.Host {
		return true
	}
	_, ok := h.Config.CORSAllowedOrigins[origin]
	return ok
}
