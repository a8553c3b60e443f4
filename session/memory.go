package session

import (
	"context"
	"maps"
	"net/http"
	"sync"
	"time"

	"github.com/go-playground/errors/v5"
	"github.com/gofrs/uuid"
)

const defaultMemoryTTL = time.Hour

var _ Store = &MemoryStore{}

type memoryEntry struct {
	values  map[string]any
	updated time.Time
}

// MemoryStore keeps sessions in process memory, keyed by an identifier carried in an IDCookie.
// Sessions idle for longer than the TTL are not loaded and are removed by DeleteExpired.
type MemoryStore struct {
	cookie *IDCookie
	ttl    time.Duration
	now    func() time.Time

	mu       sync.RWMutex
	sessions map[string]memoryEntry
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithMemoryTTL sets how long an idle session stays loadable. The default is one hour.
func WithMemoryTTL(ttl time.Duration) MemoryOption {
	return MemoryOption(func(m *MemoryStore) {
		m.ttl = ttl
	})
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore(cookie *IDCookie, opts ...MemoryOption) *MemoryStore {
	m := &MemoryStore{
		cookie:   cookie,
		ttl:      defaultMemoryTTL,
		now:      time.Now,
		sessions: make(map[string]memoryEntry),
	}
	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Load returns the session identified by the request cookie, or a new session.
func (m *MemoryStore) Load(r *http.Request) (*Session, error) {
	id, ok := m.cookie.Read(r)
	if !ok {
		return New(), nil
	}

	m.mu.RLock()
	entry, found := m.sessions[id]
	m.mu.RUnlock()
	if !found || m.expired(entry) {
		return New(), nil
	}

	return Restore(id, maps.Clone(entry.values)), nil
}

// Save stores the session when it changed, assigning an identifier on first save.
// A session left empty is removed and its cookie cleared.
func (m *MemoryStore) Save(w http.ResponseWriter, _ *http.Request, s *Session) error {
	if !s.Modified() {
		return nil
	}

	values := s.Values()
	if len(values) == 0 {
		if s.ID() != "" {
			m.mu.Lock()
			delete(m.sessions, s.ID())
			m.mu.Unlock()
		}
		m.cookie.Clear(w)
		s.MarkSaved()

		return nil
	}

	if s.ID() == "" {
		id, err := uuid.NewV4()
		if err != nil {
			return errors.Wrap(err, "uuid.NewV4()")
		}
		s.SetID(id.String())
	}

	m.mu.Lock()
	m.sessions[s.ID()] = memoryEntry{values: values, updated: m.now()}
	m.mu.Unlock()

	if err := m.cookie.Write(w, s.ID()); err != nil {
		return errors.Wrap(err, "IDCookie.Write()")
	}
	s.MarkSaved()

	return nil
}

// DeleteExpired removes sessions idle for longer than the TTL and returns how many were removed.
func (m *MemoryStore) DeleteExpired(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for id, entry := range m.sessions {
		if m.expired(entry) {
			delete(m.sessions, id)
			n++
		}
	}

	return n, nil
}

// Len returns the number of stored sessions.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.sessions)
}

func (m *MemoryStore) expired(entry memoryEntry) bool {
	return !m.now().Before(entry.updated.Add(m.ttl))
}
