// Package postgres implements a server side session.Store on PostgreSQL.
package postgres

import (
	"context"
	"embed"
	"encoding/json"
	"net/http"
	"time"

	"github.com/cccteam/ccc"
	"github.com/cccteam/logger"
	"github.com/cccteam/oidcrp/session"
	"github.com/go-playground/errors/v5"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
)

const (
	name       = "github.com/cccteam/oidcrp/session/postgres"
	defaultTTL = time.Hour
)

// Migrations holds the schema of the sessions table.
//
//go:embed migrations/*.sql
var Migrations embed.FS

var _ session.Store = &Store{}

// Store keeps session values in the "RelyingPartySessions" table. The
// session identifier travels in a session.IDCookie.
type Store struct {
	conn   Queryer
	cookie *session.IDCookie
	ttl    time.Duration
	now    func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithTTL sets how long an idle session stays loadable. The default is one hour.
func WithTTL(ttl time.Duration) Option {
	return Option(func(s *Store) {
		s.ttl = ttl
	})
}

// New returns a Store using conn.
func New(conn Queryer, cookie *session.IDCookie, opts ...Option) *Store {
	s := &Store{
		conn:   conn,
		cookie: cookie,
		ttl:    defaultTTL,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// CreateSchema creates the sessions table if it does not exist.
func CreateSchema(ctx context.Context, conn Queryer) error {
	schema, err := Migrations.ReadFile("migrations/000001_relying_party_sessions.up.sql")
	if err != nil {
		return errors.Wrap(err, "embed.FS.ReadFile()")
	}

	if _, err := conn.Exec(ctx, string(schema)); err != nil {
		return errors.Wrap(err, "Queryer.Exec()")
	}

	return nil
}

// Load returns the session identified by the request cookie. Unknown,
// expired or malformed identifiers yield a new session.
func (s *Store) Load(r *http.Request) (*session.Session, error) {
	ctx, span := otel.Tracer(name).Start(r.Context(), "Store.Load()")
	defer span.End()

	cookieID, ok := s.cookie.Read(r)
	if !ok {
		return session.New(), nil
	}

	id, err := ccc.UUIDFromString(cookieID)
	if err != nil {
		logger.Req(r).Infof("invalid session id in cookie: %v", err)

		return session.New(), nil
	}

	query := `
		SELECT "Values"
		FROM "RelyingPartySessions"
		WHERE "Id" = $1 AND "UpdatedAt" > $2`

	var raw []byte
	if err := s.conn.QueryRow(ctx, query, id.String(), s.now().Add(-s.ttl)).Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return session.New(), nil
		}

		return nil, errors.Wrapf(err, "failed to load session %s", id)
	}

	values := make(map[string]any)
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil, errors.Wrapf(err, "failed to decode session %s", id)
	}

	return session.Restore(id.String(), values), nil
}

// Save upserts the session when it changed and refreshes the cookie.
func (s *Store) Save(w http.ResponseWriter, r *http.Request, sess *session.Session) error {
	ctx, span := otel.Tracer(name).Start(r.Context(), "Store.Save()")
	defer span.End()

	if !sess.Modified() {
		return nil
	}

	if sess.ID() == "" {
		id, err := ccc.NewUUID()
		if err != nil {
			return errors.Wrap(err, "ccc.NewUUID()")
		}
		sess.SetID(id.String())
	}

	raw, err := json.Marshal(sess.Values())
	if err != nil {
		return errors.Wrap(err, "json.Marshal()")
	}

	query := `
		INSERT INTO "RelyingPartySessions" ("Id", "Values", "CreatedAt", "UpdatedAt")
		VALUES ($1, $2, $3, $3)
		ON CONFLICT ("Id") DO UPDATE
		SET "Values" = EXCLUDED."Values", "UpdatedAt" = EXCLUDED."UpdatedAt"`

	if _, err := s.conn.Exec(ctx, query, sess.ID(), raw, s.now()); err != nil {
		return errors.Wrapf(err, "failed to save session %s", sess.ID())
	}

	if err := s.cookie.Write(w, sess.ID()); err != nil {
		return errors.Wrap(err, "session.IDCookie.Write()")
	}
	sess.MarkSaved()

	return nil
}

// DeleteExpired removes sessions idle for longer than the TTL and returns how many were removed.
func (s *Store) DeleteExpired(ctx context.Context) (int64, error) {
	ctx, span := otel.Tracer(name).Start(ctx, "Store.DeleteExpired()")
	defer span.End()

	query := `
		DELETE FROM "RelyingPartySessions"
		WHERE "UpdatedAt" <= $1`

	res, err := s.conn.Exec(ctx, query, s.now().Add(-s.ttl))
	if err != nil {
		return 0, errors.Wrap(err, "failed to delete expired sessions")
	}

	return res.RowsAffected(), nil
}
