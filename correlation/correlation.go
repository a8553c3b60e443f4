// Package correlation keeps the values that tie an authorization request to
// its callback in the user's session, and hands each entry out at most once.
package correlation

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/cccteam/logger"
	"github.com/go-playground/errors/v5"
)

// Session is the per-user key/value container the caller provides.
type Session interface {
	Get(key string) (any, bool)
	Set(key string, value any) error
	Delete(key string) error
}

// Entry is the correlation state of one in-flight authorization request.
type Entry struct {
	State        string `json:"state"`
	Nonce        string `json:"nonce,omitempty"`
	CodeVerifier string `json:"code_verifier,omitempty"`
}

// Key returns the session key for the issuer and client pair: oidc:<issuer-host>:<client-id>.
func Key(issuer, clientID string) string {
	host := issuer
	if u, err := url.Parse(issuer); err == nil && u.Hostname() != "" {
		host = u.Hostname()
	}

	return fmt.Sprintf("oidc:%s:%s", host, clientID)
}

// Store reads and writes entries in a Session.
type Store struct {
	session Session
}

// NewStore returns a Store backed by session.
func NewStore(session Session) *Store {
	return &Store{session: session}
}

// Put saves entry under key, replacing any previous entry.
func (s *Store) Put(key string, entry Entry) error {
	if err := s.session.Set(key, entry); err != nil {
		return errors.Wrap(err, "correlation.Session.Set()")
	}

	return nil
}

// TakeOnce returns the entry stored under key and removes it from the session.
// The removal is attempted whether or not an entry exists, and a failed removal
// is logged and otherwise ignored. A missing or unreadable entry returns false.
func (s *Store) TakeOnce(ctx context.Context, key string) (Entry, bool) {
	value, found := s.session.Get(key)

	if err := s.session.Delete(key); err != nil {
		logger.Ctx(ctx).Infof("correlation entry %s not removed: %v", key, err)
	}

	if !found {
		return Entry{}, false
	}

	entry, err := decode(value)
	if err != nil {
		logger.Ctx(ctx).Error(errors.Wrapf(err, "correlation entry %s", key))

		return Entry{}, false
	}

	return entry, true
}

// decode accepts an Entry as stored, or the generic form a serializing
// session hands back after a round trip.
func decode(value any) (Entry, error) {
	switch v := value.(type) {
	case Entry:
		return v, nil
	case *Entry:
		if v == nil {
			return Entry{}, errors.New("nil entry")
		}

		return *v, nil
	case []byte:
		return unmarshal(v)
	case string:
		return unmarshal([]byte(v))
	}

	b, err := json.Marshal(value)
	if err != nil {
		return Entry{}, errors.Wrap(err, "json.Marshal()")
	}

	return unmarshal(b)
}

func unmarshal(b []byte) (Entry, error) {
	var entry Entry
	if err := json.Unmarshal(b, &entry); err != nil {
		return Entry{}, errors.Wrap(err, "json.Unmarshal()")
	}

	return entry, nil
}
