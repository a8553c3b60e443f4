package main

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/cccteam/httpio"
	"github.com/cccteam/logger"
	"github.com/cccteam/oidcrp"
	"github.com/cccteam/oidcrp/client"
	"github.com/cccteam/oidcrp/config"
	"github.com/cccteam/oidcrp/session"
	"github.com/cccteam/oidcrp/session/postgres"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/errors/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const sweepInterval = 10 * time.Minute

type app struct {
	registry   *client.Registry
	httpClient *http.Client
	store      session.Store
	pool       *pgxpool.Pool
	handlers   map[string]*oidcrp.Handler
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	sc, err := session.NewSecureCookie(cfg.CookieKey)
	if err != nil {
		return nil, err
	}

	httpClient := &http.Client{Timeout: 30 * time.Second}
	a := &app{
		registry:   client.NewRegistry(httpClient),
		httpClient: httpClient,
		handlers:   make(map[string]*oidcrp.Handler),
	}

	switch cfg.Session.Store {
	case config.StoreMemory:
		var opts []session.MemoryOption
		if cfg.Session.TTL > 0 {
			opts = append(opts, session.WithMemoryTTL(cfg.Session.TTL))
		}
		store := session.NewMemoryStore(session.NewIDCookie(sc), opts...)
		go sweep(ctx, store)
		a.store = store
	case config.StorePostgres:
		a.pool, err = pgxpool.New(ctx, cfg.Session.PostgresURL)
		if err != nil {
			return nil, errors.Wrap(err, "pgxpool.New()")
		}
		if err := postgres.CreateSchema(ctx, a.pool); err != nil {
			a.pool.Close()

			return nil, err
		}

		var opts []postgres.Option
		if cfg.Session.TTL > 0 {
			opts = append(opts, postgres.WithTTL(cfg.Session.TTL))
		}
		store := postgres.New(a.pool, session.NewIDCookie(sc), opts...)
		go sweep(ctx, store)
		a.store = store
	default:
		a.store = session.NewCookieStore(sc)
	}

	for _, t := range cfg.Tenants {
		h, err := a.handler(t)
		if err != nil {
			a.close()

			return nil, errors.Wrapf(err, "tenant %s", t.Name)
		}
		a.handlers[t.Name] = h
	}

	return a, nil
}

func (a *app) close() {
	if a.pool != nil {
		a.pool.Close()
	}
}

func (a *app) routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Route("/{tenant}", func(r chi.Router) {
		r.Get("/login", a.authenticate)
		r.Get("/callback", a.authenticate)
		r.Post("/callback", a.authenticate)
	})

	return r
}

func (a *app) authenticate(w http.ResponseWriter, r *http.Request) {
	tenant := chi.URLParam(r, "tenant")
	h, ok := a.handlers[tenant]
	if !ok {
		_ = httpio.NewEncoder(w).ClientMessage(r.Context(), httpio.NewNotFoundMessagef("unknown tenant %q", tenant))

		return
	}

	h.ServeHTTP(w, r)
}

func (a *app) handler(t config.Tenant) (*oidcrp.Handler, error) {
	var opts []oidcrp.Option
	if t.PKCE {
		opts = append(opts, oidcrp.WithPKCE())
	}
	if len(t.AuthParams) > 0 {
		opts = append(opts, oidcrp.WithAuthParams(t.AuthParams))
	}

	var (
		s   *oidcrp.Strategy
		err error
	)
	if t.Claims {
		s, err = oidcrp.NewWithClaims(verifyClaims, opts...)
	} else {
		s, err = oidcrp.New(verifyToken, opts...)
	}
	if err != nil {
		return nil, err
	}

	return oidcrp.NewHandler(s, a.resolver(t), a.store), nil
}

// resolver discovers the tenant's issuer on first use and keeps the client.
func (a *app) resolver(t config.Tenant) oidcrp.ClientResolver {
	var (
		mu sync.Mutex
		c  *client.Client
	)

	return func(r *http.Request) (oidcrp.Client, error) {
		mu.Lock()
		defer mu.Unlock()

		if c != nil {
			return c, nil
		}

		issuer, err := a.registry.Issuer(r.Context(), t.Issuer)
		if err != nil {
			return nil, httpio.NewInternalServerErrorMessageWithError(err, "identity provider unavailable")
		}

		nc, err := client.New(issuer, t.Metadata(), client.WithHTTPClient(a.httpClient))
		if err != nil {
			return nil, httpio.NewInternalServerErrorMessageWithError(err, "invalid client configuration")
		}
		c = nc

		return c, nil
	}
}

type expirer interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

func sweep(ctx context.Context, store expirer) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := store.DeleteExpired(ctx)
			if err != nil {
				logger.Ctx(ctx).Error(err)

				continue
			}
			if n > 0 {
				logger.Ctx(ctx).Infof("removed %d expired sessions", n)
			}
		}
	}
}
