// Package oidcrp implements the OpenID Connect relying party side of the
// authorization code flow (and the implicit and hybrid variants) as a
// per-request controller.
//
// A Strategy is stateless. Each call to Authenticate reads the Client and the
// user session from the request context, decides from the request whether it
// is starting a login or handling the provider's callback, and returns a single
// Outcome.
package oidcrp

import (
	"context"
	"maps"
	"net/http"
	"slices"
	"strings"

	"github.com/cccteam/oidcrp/client"
	"github.com/cccteam/oidcrp/correlation"
	"github.com/go-playground/errors/v5"
	"github.com/gofrs/uuid"
	"go.opentelemetry.io/otel"
	"golang.org/x/oauth2"
)

const name = "github.com/cccteam/oidcrp"

const (
	defaultResponseType = "code"
	defaultScope        = "openid"
)

// Strategy runs the authentication flow for the Client found on each request.
type Strategy struct {
	mode         VerifyMode
	verify       VerifyFunc
	verifyClaims VerifyClaimsFunc

	pkce       bool
	authParams map[string]string
}

// New returns a Strategy whose verify function receives only the token set.
func New(verify VerifyFunc, opts ...Option) (*Strategy, error) {
	if verify == nil {
		return nil, errors.New("verify function is required")
	}

	return newStrategy(&Strategy{mode: TokenOnly, verify: verify}, opts), nil
}

// NewWithClaims returns a Strategy whose verify function also receives the userinfo claims.
func NewWithClaims(verify VerifyClaimsFunc, opts ...Option) (*Strategy, error) {
	if verify == nil {
		return nil, errors.New("verify function is required")
	}

	return newStrategy(&Strategy{mode: TokenAndClaims, verifyClaims: verify}, opts), nil
}

func newStrategy(s *Strategy, opts []Option) *Strategy {
	s.authParams = make(map[string]string)
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Mode returns the verify mode chosen at construction.
func (s *Strategy) Mode() VerifyMode {
	return s.mode
}

type settings struct {
	responseType string
	redirectURI  string
	scope        string
	responseMode string
}

func settingsFor(m client.Metadata) settings {
	st := settings{
		responseType: defaultResponseType,
		scope:        defaultScope,
		responseMode: m.ResponseMode,
	}
	if len(m.ResponseTypes) > 0 && m.ResponseTypes[0] != "" {
		st.responseType = m.ResponseTypes[0]
	}
	if len(m.RedirectURIs) > 0 {
		st.redirectURI = m.RedirectURIs[0]
	}
	if len(m.Scopes) > 0 && m.Scopes[0] != "" {
		st.scope = m.Scopes[0]
	}

	return st
}

// Authenticate runs one step of the flow for r. A request without callback
// parameters starts a login and yields Redirect. Otherwise the callback is
// validated, userinfo is fetched when the mode asks for it, and the verify
// function decides between Success and Fail.
func (s *Strategy) Authenticate(r *http.Request) Outcome {
	ctx, span := otel.Tracer(name).Start(r.Context(), "Strategy.Authenticate()")
	defer span.End()

	c, ok := ClientFromContext(ctx)
	if !ok {
		return errored(ErrMissingClient)
	}
	st := settingsFor(c.Metadata())

	sess, ok := SessionFromContext(ctx)
	if !ok {
		return errored(ErrSessionRequired)
	}
	store := correlation.NewStore(sess)
	key := correlation.Key(c.IssuerIdentifier(), c.Metadata().ClientID)

	params, err := c.CallbackParams(r)
	if err != nil {
		return errored(errors.Wrap(err, "Client.CallbackParams()"))
	}

	if len(params) == 0 {
		return s.initiate(c, store, key, st)
	}

	return s.complete(ctx, c, store, key, st, params)
}

func (s *Strategy) initiate(c Client, store *correlation.Store, key string, st settings) Outcome {
	state, err := uuid.NewV4()
	if err != nil {
		return errored(errors.Wrap(err, "uuid.NewV4()"))
	}
	entry := correlation.Entry{State: state.String()}

	extra := maps.Clone(s.authParams)
	if nonce, ok := extra["nonce"]; ok {
		entry.Nonce = nonce
		delete(extra, "nonce")
	} else if slices.Contains(strings.Fields(st.responseType), "id_token") {
		nonce, err := uuid.NewV4()
		if err != nil {
			return errored(errors.Wrap(err, "uuid.NewV4()"))
		}
		entry.Nonce = nonce.String()
	}

	if s.pkce {
		entry.CodeVerifier = oauth2.GenerateVerifier()
	}

	if err := store.Put(key, entry); err != nil {
		return errored(errors.Wrap(err, "correlation.Store.Put()"))
	}

	return redirectTo(c.AuthorizationURL(client.AuthorizationParams{
		ResponseType: st.responseType,
		RedirectURI:  st.redirectURI,
		Scope:        st.scope,
		ResponseMode: st.responseMode,
		State:        entry.State,
		Nonce:        entry.Nonce,
		CodeVerifier: entry.CodeVerifier,
		Extra:        extra,
	}))
}

func (s *Strategy) complete(ctx context.Context, c Client, store *correlation.Store, key string, st settings, params client.Params) Outcome {
	entry, _ := store.TakeOnce(ctx, key)

	tokens, err := c.AuthorizationCallback(ctx, st.redirectURI, params, client.Checks{
		State:        entry.State,
		Nonce:        entry.Nonce,
		ResponseType: st.responseType,
		CodeVerifier: entry.CodeVerifier,
	})
	if err != nil {
		return classify(err)
	}

	var claims client.Claims
	if s.mode == TokenAndClaims && c.HasUserinfoEndpoint() && tokens.HasAccessToken() {
		claims, err = c.Userinfo(ctx, tokens)
		if err != nil {
			return errored(err)
		}
	}

	return s.dispatch(ctx, tokens, claims)
}

// classify routes provider refusals to Fail. Provider errors that point at
// the relying party or the provider itself (server_error, invalid_*) and all
// other failures are routed to Error.
func classify(err error) Outcome {
	var pErr *client.ProtocolError
	if !errors.As(err, &pErr) {
		return errored(err)
	}

	if pErr.Code == "server_error" || strings.HasPrefix(pErr.Code, "invalid") {
		return errored(pErr)
	}

	info := Info{"message": pErr.Code}
	if pErr.Description != "" {
		info["description"] = pErr.Description
	}

	return fail(info, pErr)
}
