package auth

import (
	"net/http"
	"sync"
	"time"
)

// SessionTokenCookieName carries the opaque session id between requests.
const SessionTokenCookieName = "lbf_session"

// MemoryBackend is an in-process SessionBackend. Sessions live until the
// process exits or their idle deadline passes. Suitable for single-instance
// deployments and tests.
type MemoryBackend struct {
	mu       sync.RWMutex
	sessions map[string]*memorySession
	idle     time.Duration
	now      func() time.Time
}

type memorySession struct {
	values   map[string]any
	lastSeen time.Time
}

// NewMemoryBackend returns a backend that expires sessions idle longer than
// idle. An idle of zero disables expiry.
func NewMemoryBackend(idle time.Duration) *MemoryBackend {
	return &MemoryBackend{
		sessions: make(map[string]*memorySession),
		idle:     idle,
		now:      time.Now,
	}
}

// Load restores the session identified by the request's session token cookie.
func (b *MemoryBackend) Load(r *http.Request) (string, map[string]any, bool) {
	c, err := r.Cookie(SessionTokenCookieName)
	if err != nil || c.Value == "" {
		return "", nil, false
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	s, ok := b.sessions[c.Value]
	if !ok {
		return "", nil, false
	}
	if b.idle > 0 && b.now().Sub(s.lastSeen) > b.idle {
		delete(b.sessions, c.Value)

		return "", nil, false
	}
	s.lastSeen = b.now()

	values := make(map[string]any, len(s.values))
	for k, v := range s.values {
		values[k] = v
	}

	return c.Value, values, true
}

// Save persists the session values and sets the session token cookie. An
// empty values map removes the stored session.
func (b *MemoryBackend) Save(w http.ResponseWriter, id string, values map[string]any) {
	if id == "" {
		return
	}

	if len(values) == 0 {
		b.mu.Lock()
		delete(b.sessions, id)
		b.mu.Unlock()

		return
	}

	b.mu.Lock()
	stored := make(map[string]any, len(values))
	for k, v := range values {
		stored[k] = v
	}
	b.sessions[id] = &memorySession{values: stored, lastSeen: b.now()}
	b.mu.Unlock()

	http.SetCookie(w, &http.Cookie{
		Name:     SessionTokenCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
	})
}

// Len reports the number of live sessions.
func (b *MemoryBackend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return len(b.sessions)
}
