package auth

import (
	"context"
	"net/http"
	"time"
)

// SessionCookie is the cookie carrying the opaque session token.
const SessionCookie = "session_token"

type Principal struct {
	Username string
}

type ctxKey struct{}

func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

func PrincipalFrom(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(ctxKey{}).(*Principal)
	return p, ok && p != nil
}

// Gate authorizes access to protected routes by delegating to the
// session store. When Required is false the gate is a no-op that
// always authorizes.
type Gate struct {
	Store    *Store
	Required bool
}

// Authorize resolves the session cookie on r. A denied result on a
// protected route means 401 (or redirect) instead of serving, never a
// crash.
func (g Gate) Authorize(r *http.Request) (owner string, ok bool) {
	if !g.Required {
		return "", true
	}
	if g.Store == nil {
		return "", false
	}
	token, ok := TokenFrom(r)
	if !ok {
		return "", false
	}
	return g.Store.Verify(token)
}

// TokenFrom extracts the raw session token from the request cookie.
func TokenFrom(r *http.Request) (string, bool) {
	c, err := r.Cookie(SessionCookie)
	if err != nil || c.Value == "" {
		return "", false
	}
	return c.Value, true
}

// SetSessionCookie attaches the session token to the response.
// HTTP-only with a lax same-site policy, expiring alongside the
// server-side session.
func SetSessionCookie(w http.ResponseWriter, token string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl / time.Second),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie expires the session cookie on the client.
func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
