package oidcrp

import (
	"net/http"

	"github.com/cccteam/httpio"
	"github.com/cccteam/oidcrp/session"
	"github.com/go-playground/errors/v5"
	"go.opentelemetry.io/otel"
)

// ClientResolver picks the Client for a request, for example by tenant.
// Errors are written to the response with httpio, so resolvers can return
// httpio messages such as httpio.NewNotFoundMessagef.
type ClientResolver func(r *http.Request) (Client, error)

// StaticClient resolves every request to c.
func StaticClient(c Client) ClientResolver {
	return func(*http.Request) (Client, error) {
		return c, nil
	}
}

// Handler serves both the login and the callback route. It loads the user
// session, runs the Strategy, saves the session and reports the Outcome.
type Handler struct {
	strategy *Strategy
	resolve  ClientResolver
	sessions session.Store
	reporter Reporter
	handle   LogHandler
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithReporter replaces DefaultReporter.
func WithReporter(rep Reporter) HandlerOption {
	return HandlerOption(func(h *Handler) {
		h.reporter = rep
	})
}

// WithLogHandler replaces the wrapper that logs handler errors.
func WithLogHandler(handle LogHandler) HandlerOption {
	return HandlerOption(func(h *Handler) {
		h.handle = handle
	})
}

// NewHandler returns a Handler for strategy.
func NewHandler(strategy *Strategy, resolve ClientResolver, sessions session.Store, opts ...HandlerOption) *Handler {
	h := &Handler{
		strategy: strategy,
		resolve:  resolve,
		sessions: sessions,
		reporter: DefaultReporter{},
		handle:   logErrors,
	}
	for _, opt := range opts {
		opt(h)
	}

	return h
}

// ServeHTTP implements http.Handler
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.handle(h.authenticate).ServeHTTP(w, r)
}

func (h *Handler) authenticate(w http.ResponseWriter, r *http.Request) error {
	ctx, span := otel.Tracer(name).Start(r.Context(), "Handler.authenticate()")
	defer span.End()

	c, err := h.resolve(r)
	if err != nil {
		return httpio.NewEncoder(w).ClientMessage(ctx, err)
	}

	sess, err := h.sessions.Load(r)
	if err != nil {
		return httpio.NewEncoder(w).ClientMessage(ctx, httpio.NewInternalServerErrorMessageWithError(errors.Wrap(err, "session.Store.Load()"), "failed to load session"))
	}

	ctx = WithSession(WithClient(ctx, c), sess)
	r = r.WithContext(ctx)

	outcome := h.strategy.Authenticate(r)

	// headers must be written before the outcome is reported
	if err := h.sessions.Save(w, r, sess); err != nil {
		return httpio.NewEncoder(w).ClientMessage(ctx, httpio.NewInternalServerErrorMessageWithError(errors.Wrap(err, "session.Store.Save()"), "failed to save session"))
	}

	Report(w, r, outcome, h.reporter)

	return nil
}
