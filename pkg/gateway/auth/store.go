// Package auth holds the in-memory session store and the access gate
// that authorizes protected routes and WebSocket upgrades.
package auth

import (
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"
)

// Session is an immutable server-side record authorizing one owner for
// a bounded time via an opaque token.
type Session struct {
	Owner     string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Store is a concurrency-safe in-memory session store. Sessions do not
// survive a process restart; construct one per process (or per test).
type Store struct {
	mu       sync.Mutex
	sessions map[string]Session
	ttl      time.Duration
	now      func() time.Time
}

func NewStore(ttl time.Duration, now func() time.Time) *Store {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if now == nil {
		now = time.Now
	}
	return &Store{
		sessions: make(map[string]Session),
		ttl:      ttl,
		now:      now,
	}
}

// Create mints an unguessable token (256 bits of entropy, hex encoded)
// and records a session for owner.
func (s *Store) Create(owner string) string {
	token := newToken()
	createdAt := s.now()

	s.mu.Lock()
	s.sessions[token] = Session{
		Owner:     owner,
		CreatedAt: createdAt,
		ExpiresAt: createdAt.Add(s.ttl),
	}
	s.mu.Unlock()

	return token
}

// Verify reports the owner for a valid token. Expired entries are
// removed lazily here; unknown or expired tokens return ok=false and
// never an error.
func (s *Store) Verify(token string) (owner string, ok bool) {
	if token == "" {
		return "", false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	session, exists := s.sessions[token]
	if !exists {
		return "", false
	}
	if !s.now().Before(session.ExpiresAt) {
		delete(s.sessions, token)
		return "", false
	}
	return session.Owner, true
}

// Revoke removes the token unconditionally. Revoking an absent token
// is a no-op.
func (s *Store) Revoke(token string) {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
}

// Len reports the number of stored sessions, expired or not.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func newToken() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand should not fail in practice; fall back to time-based entropy.
		return hex.EncodeToString([]byte(time.Now().Format("20060102150405.000000000")))
	}
	return hex.EncodeToString(b)
}
