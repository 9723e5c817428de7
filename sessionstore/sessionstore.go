// Package sessionstore implements the server-side per-client key/value store
// keyed by an opaque session identifier owned by the transport.
package sessionstore

import (
	"fmt"

	"github.com/go-playground/errors/v5"
	"github.com/projector22/lbf-auth/cookie"
)

// Conventional keys used by the permission gate. The store itself does not
// enforce them.
const (
	KeyLogin       = "login"
	KeyUserData    = "user_data"
	KeyPermissions = "permissions"
	KeyTenant      = "tenant_config"
)

// KeyNotFoundError is returned by Destroy in strict mode for an absent key.
type KeyNotFoundError struct {
	Key string
}

func (e *KeyNotFoundError) Error() string {
	return fmt.Sprintf("session key %q not found", e.Key)
}

// IsKeyNotFound reports whether err is a KeyNotFoundError.
func IsKeyNotFound(err error) bool {
	knf := &KeyNotFoundError{}

	return errors.As(err, &knf)
}

// Store holds the key/value pairs for one session. A Store is scoped to one
// request evaluation and is not safe for concurrent use.
type Store struct {
	id      string
	values  map[string]any
	state   *cookie.ResponseState
	started bool
}

// New returns an unstarted Store bound to the response state.
func New(state *cookie.ResponseState) *Store {
	return &Store{state: state}
}

// Start activates the session. It is a no-op when the session is already
// active or when the response body has started.
func (s *Store) Start() {
	if s.started || s.state.Started() {
		return
	}

	s.id = newSessionToken()
	s.values = make(map[string]any)
	s.started = true
}

// Restore activates the session under an existing id with previously stored
// values, as handed over by the transport's session backend.
func (s *Store) Restore(id string, values map[string]any) {
	if values == nil {
		values = make(map[string]any)
	}

	s.id = id
	s.values = values
	s.started = true
}

// HasStarted reports whether a session id is active and the value map is
// initialized.
func (s *Store) HasStarted() bool {
	return s.started && s.values != nil
}

// ID returns the opaque session token, or "" before Start.
func (s *Store) ID() string {
	return s.id
}

// Values returns the underlying value map for handover to a session backend.
func (s *Store) Values() map[string]any {
	return s.values
}

// Set stores value under key, starting the session if needed.
func (s *Store) Set(key string, value any) {
	s.Start()
	if !s.started {
		return
	}

	s.values[key] = value
}

// Get returns the value stored under key, or nil when absent. When subkeys are
// given and the value is a map, one level of nested lookup is applied; if the
// nested key is absent the whole value is returned unchanged. That fallback
// mirrors the historical behavior and is deliberate; callers that need a hard
// failure should check Exists first.
func (s *Store) Get(key string, subkeys ...string) any {
	if !s.started {
		return nil
	}

	value, ok := s.values[key]
	if !ok {
		return nil
	}

	if len(subkeys) == 0 {
		return value
	}

	nested, ok := value.(map[string]any)
	if !ok {
		return value
	}
	sub, ok := nested[subkeys[0]]
	if !ok {
		return value
	}

	return sub
}

// Exists reports whether key is present in the session.
func (s *Store) Exists(key string) bool {
	if !s.started {
		return false
	}
	_, ok := s.values[key]

	return ok
}

// Destroy removes key from the session. Removing an absent key is a no-op
// unless strict is set, in which case it fails with KeyNotFoundError.
func (s *Store) Destroy(key string, strict bool) error {
	if !s.started || !s.Exists(key) {
		if strict {
			return errors.Wrap(&KeyNotFoundError{Key: key}, "sessionstore.Store.Destroy()")
		}

		return nil
	}

	delete(s.values, key)

	return nil
}

// DestroyAll clears every key. It is a no-op if the session never started.
func (s *Store) DestroyAll() {
	if !s.started {
		return
	}

	s.values = make(map[string]any)
}
