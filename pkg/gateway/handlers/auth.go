package handlers

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"

	"github.com/vango-go/voicebridge/pkg/core"
	"github.com/vango-go/voicebridge/pkg/gateway/auth"
	"github.com/vango-go/voicebridge/pkg/gateway/config"
	"github.com/vango-go/voicebridge/pkg/gateway/mw"
)

type loginResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// LoginHandler handles POST /api/login against the configured admin
// credential and mints a session on success.
type LoginHandler struct {
	Config config.Config
	Store  *auth.Store
}

func (h LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	reqID, _ := mw.RequestIDFrom(r.Context())
	if r.Method != http.MethodPost {
		writeCoreErrorJSON(w, reqID, &core.Error{Type: core.ErrInvalidRequest, Message: "method not allowed", Code: "method_not_allowed"}, http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeCoreErrorJSON(w, reqID, core.NewInvalidRequestError("invalid json body"), http.StatusBadRequest)
		return
	}

	userOK := subtle.ConstantTimeCompare([]byte(req.Username), []byte(h.Config.AdminUsername)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(req.Password), []byte(h.Config.AdminPassword)) == 1
	if !userOK || !passOK {
		writeJSON(w, http.StatusUnauthorized, loginResponse{Success: false, Message: "invalid username or password"})
		return
	}

	token := h.Store.Create(req.Username)
	auth.SetSessionCookie(w, token, h.Config.SessionTTL)
	writeJSON(w, http.StatusOK, loginResponse{Success: true})
}

// LogoutHandler revokes the presented session, if any, and clears the
// cookie. Always succeeds.
type LogoutHandler struct {
	Store *auth.Store
}

func (h LogoutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	reqID, _ := mw.RequestIDFrom(r.Context())
	if r.Method != http.MethodPost {
		writeCoreErrorJSON(w, reqID, &core.Error{Type: core.ErrInvalidRequest, Message: "method not allowed", Code: "method_not_allowed"}, http.StatusMethodNotAllowed)
		return
	}

	if token, ok := auth.TokenFrom(r); ok && h.Store != nil {
		h.Store.Revoke(token)
	}
	auth.ClearSessionCookie(w)
	writeJSON(w, http.StatusOK, loginResponse{Success: true})
}

// MeHandler reports the login state behind the presented cookie.
type MeHandler struct {
	Store *auth.Store
}

func (h MeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	type meResponse struct {
		LoggedIn bool   `json:"logged_in"`
		Username string `json:"username,omitempty"`
	}

	token, ok := auth.TokenFrom(r)
	if !ok || h.Store == nil {
		writeJSON(w, http.StatusOK, meResponse{LoggedIn: false})
		return
	}
	owner, ok := h.Store.Verify(token)
	if !ok {
		writeJSON(w, http.StatusOK, meResponse{LoggedIn: false})
		return
	}
	writeJSON(w, http.StatusOK, meResponse{LoggedIn: true, Username: owner})
}
