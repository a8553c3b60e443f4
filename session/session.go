// Package session provides the per-user container that holds in-flight
// authorization state between the login redirect and the callback.
package session

import (
	"maps"
	"net/http"
	"sync"

	"github.com/go-playground/errors/v5"
)

// Session is a set of values belonging to one user agent. It is safe for concurrent use.
type Session struct {
	id string

	mu       sync.Mutex
	values   map[string]any
	modified bool
}

// New returns an empty session that has not been persisted.
func New() *Session {
	return &Session{values: make(map[string]any)}
}

// Restore returns a session loaded from storage.
func Restore(id string, values map[string]any) *Session {
	if values == nil {
		values = make(map[string]any)
	}

	return &Session{id: id, values: values}
}

// ID returns the storage identifier, or "" for stores that keep no server side state.
func (s *Session) ID() string {
	return s.id
}

// SetID assigns the storage identifier.
func (s *Session) SetID(id string) {
	s.id = id
}

// Get returns the value stored under key.
func (s *Session) Get(key string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.values[key]

	return v, ok
}

// Set stores value under key.
func (s *Session) Set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = value
	s.modified = true

	return nil
}

// Delete removes key. It returns an error when key is not present.
func (s *Session) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.values[key]; !ok {
		return errors.Newf("session key %q not found", key)
	}
	delete(s.values, key)
	s.modified = true

	return nil
}

// Modified reports whether the session changed since it was loaded.
func (s *Session) Modified() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.modified
}

// Values returns a copy of the stored values.
func (s *Session) Values() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()

	return maps.Clone(s.values)
}

// MarkSaved clears the modified flag after the session was persisted.
func (s *Session) MarkSaved() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.modified = false
}

// Store loads and saves sessions for requests.
type Store interface {
	// Load returns the session of r, or a new session when r carries none.
	Load(r *http.Request) (*Session, error)
	// Save persists s and writes whatever the user agent needs to present it again.
	Save(w http.ResponseWriter, r *http.Request, s *Session) error
}
