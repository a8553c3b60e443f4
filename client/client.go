// Package client implements an OpenID Connect relying party client for a single
// registration with an issuer: authorization URLs, callback validation, code
// exchange, ID token verification and userinfo requests.
package client

import (
	"context"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/go-playground/errors/v5"
	"go.opentelemetry.io/otel"
	"golang.org/x/oauth2"
)

const name = "github.com/cccteam/oidcrp/client"

// reservedAuthParams are set from the registration and AuthorizationParams only.
var reservedAuthParams = []string{
	"client_id",
	"state",
	"nonce",
	"response_type",
	"redirect_uri",
	"scope",
	"response_mode",
	"code_challenge",
	"code_challenge_method",
}

// Client is a relying party registered with an Issuer.
type Client struct {
	issuer   *Issuer
	metadata Metadata
	config   oauth2.Config
	verifier *oidc.IDTokenVerifier

	httpClient       *http.Client
	timeout          time.Duration
	now              func() time.Time
	skipSubjectCheck bool
}

// New returns a Client for the registration described by metadata.
func New(issuer *Issuer, metadata Metadata, opts ...Option) (*Client, error) {
	if issuer == nil {
		return nil, errors.New("issuer is required")
	}
	if metadata.ClientID == "" {
		return nil, errors.New("client_id is required")
	}

	c := &Client{
		issuer:   issuer,
		metadata: metadata,
		timeout:  defaultTimeout,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.config = oauth2.Config{
		ClientID:     metadata.ClientID,
		ClientSecret: metadata.ClientSecret,
		Endpoint:     issuer.provider.Endpoint(),
	}
	c.verifier = issuer.provider.Verifier(&oidc.Config{
		ClientID: metadata.ClientID,
		Now:      c.now,
	})

	return c, nil
}

// Metadata returns the client registration.
func (c *Client) Metadata() Metadata {
	return c.metadata
}

// IssuerIdentifier returns the identifier URL of the issuer.
func (c *Client) IssuerIdentifier() string {
	return c.issuer.Identifier()
}

// HasUserinfoEndpoint reports whether the issuer publishes a userinfo endpoint.
func (c *Client) HasUserinfoEndpoint() bool {
	return c.issuer.UserinfoEndpoint() != ""
}

// AuthorizationURL returns the URL of the authorization request described by p.
// Extra parameters never replace the ones derived from the registration or p.
func (c *Client) AuthorizationURL(p AuthorizationParams) string {
	opts := make([]oauth2.AuthCodeOption, 0, len(p.Extra)+6)
	for k, v := range p.Extra {
		if slices.Contains(reservedAuthParams, k) {
			continue
		}
		opts = append(opts, oauth2.SetAuthURLParam(k, v))
	}

	opts = append(opts,
		oauth2.SetAuthURLParam("response_type", p.ResponseType),
		oauth2.SetAuthURLParam("redirect_uri", p.RedirectURI),
		oauth2.SetAuthURLParam("scope", p.Scope),
	)
	if p.ResponseMode != "" {
		opts = append(opts, oauth2.SetAuthURLParam("response_mode", p.ResponseMode))
	}
	if p.Nonce != "" {
		opts = append(opts, oidc.Nonce(p.Nonce))
	}
	if p.CodeVerifier != "" {
		opts = append(opts, oauth2.S256ChallengeOption(p.CodeVerifier))
	}

	return c.config.AuthCodeURL(p.State, opts...)
}

// CallbackParams extracts the authorization response parameters from r.
func (c *Client) CallbackParams(r *http.Request) (Params, error) {
	return CallbackParams(r)
}

// AuthorizationCallback validates the authorization response params against checks
// and completes the flow. Errors reported by the provider are returned as *ProtocolError.
func (c *Client) AuthorizationCallback(ctx context.Context, redirectURI string, params Params, checks Checks) (*TokenSet, error) {
	ctx, span := otel.Tracer(name).Start(ctx, "Client.AuthorizationCallback()")
	defer span.End()

	if params.Get(ParamState) != checks.State {
		return nil, ErrStateMismatch
	}
	if params.Has(ParamError) {
		return nil, protocolErrorFromParams(params)
	}
	if checks.State == "" {
		return nil, ErrStateMissing
	}

	responseType := checks.ResponseType
	if responseType == "" {
		responseType = "code"
	}
	if responseTypeHas(responseType, "code") && !params.Has(ParamCode) {
		return nil, ErrCodeMissing
	}
	if responseTypeHas(responseType, "id_token") && !params.Has(ParamIDToken) {
		return nil, ErrIDTokenMissing
	}
	if responseTypeHas(responseType, "token") && !params.Has(ParamAccessToken) {
		return nil, ErrAccessTokenMissing
	}

	tokens := &TokenSet{
		AccessToken:  params.Get(ParamAccessToken),
		TokenType:    params.Get(ParamTokenType),
		IDToken:      params.Get(ParamIDToken),
		SessionState: params.Get(ParamSessionState),
	}
	if s := params.Get(ParamExpiresIn); s != "" {
		if secs, err := strconv.Atoi(s); err == nil {
			tokens.Expiry = c.now().Add(time.Duration(secs) * time.Second)
		}
	}

	if tokens.IDToken != "" {
		idToken, err := c.verifyIDToken(ctx, tokens.IDToken, checks.Nonce)
		if err != nil {
			return nil, err
		}
		if tokens.AccessToken != "" && idToken.AccessTokenHash != "" {
			if err := idToken.VerifyAccessToken(tokens.AccessToken); err != nil {
				return nil, errors.Wrap(err, "oidc.IDToken.VerifyAccessToken()")
			}
		}
		tokens.idToken = idToken
	}

	if !params.Has(ParamCode) {
		return tokens, nil
	}

	exchanged, err := c.exchange(ctx, redirectURI, params.Get(ParamCode), checks)
	if err != nil {
		return nil, err
	}
	exchanged.SessionState = tokens.SessionState
	if exchanged.idToken == nil {
		exchanged.IDToken, exchanged.idToken = tokens.IDToken, tokens.idToken
	}

	return exchanged, nil
}

// Userinfo requests the claims of the subject the access token was issued for.
func (c *Client) Userinfo(ctx context.Context, tokens *TokenSet) (Claims, error) {
	ctx, span := otel.Tracer(name).Start(ctx, "Client.Userinfo()")
	defer span.End()

	if !c.HasUserinfoEndpoint() {
		return nil, ErrNoUserinfoEndpoint
	}
	if !tokens.HasAccessToken() {
		return nil, ErrAccessTokenMissing
	}

	expire, cancel := context.WithTimeoutCause(c.clientContext(ctx), c.timeout, errors.New("oidc.Provider.UserInfo() timeout"))
	defer cancel()

	info, err := c.issuer.provider.UserInfo(expire, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: tokens.AccessToken,
		TokenType:   tokens.TokenType,
	}))
	if err != nil {
		return nil, errors.Wrap(err, "oidc.Provider.UserInfo()")
	}

	claims := make(Claims)
	if err := info.Claims(&claims); err != nil {
		return nil, errors.Wrap(err, "oidc.UserInfo.Claims()")
	}

	if !c.skipSubjectCheck {
		if sub := tokens.Subject(); sub != "" && claims.Subject() != sub {
			return nil, ErrSubjectMismatch
		}
	}

	return claims, nil
}

func (c *Client) exchange(ctx context.Context, redirectURI, code string, checks Checks) (*TokenSet, error) {
	opts := []oauth2.AuthCodeOption{oauth2.SetAuthURLParam("redirect_uri", redirectURI)}
	if checks.CodeVerifier != "" {
		opts = append(opts, oauth2.VerifierOption(checks.CodeVerifier))
	}

	expire, cancel := context.WithTimeoutCause(c.clientContext(ctx), c.timeout, errors.New("oauth2.Config.Exchange() timeout"))
	defer cancel()

	token, err := c.config.Exchange(expire, code, opts...)
	if err != nil {
		var rErr *oauth2.RetrieveError
		if errors.As(err, &rErr) && rErr.ErrorCode != "" {
			return nil, &ProtocolError{
				Code:        rErr.ErrorCode,
				Description: rErr.ErrorDescription,
				URI:         rErr.ErrorURI,
			}
		}

		return nil, errors.Wrap(err, "oauth2.Config.Exchange()")
	}

	tokens := &TokenSet{
		AccessToken:  token.AccessToken,
		TokenType:    token.TokenType,
		RefreshToken: token.RefreshToken,
		Expiry:       token.Expiry,
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return tokens, nil
	}

	idToken, err := c.verifyIDToken(ctx, rawIDToken, checks.Nonce)
	if err != nil {
		return nil, err
	}
	tokens.IDToken, tokens.idToken = rawIDToken, idToken

	return tokens, nil
}

func (c *Client) verifyIDToken(ctx context.Context, rawIDToken, nonce string) (*oidc.IDToken, error) {
	expire, cancel := context.WithTimeoutCause(c.clientContext(ctx), c.timeout, errors.New("oidc.IDTokenVerifier.Verify() timeout"))
	defer cancel()

	idToken, err := c.verifier.Verify(expire, rawIDToken)
	if err != nil {
		return nil, errors.Wrap(err, "oidc.IDTokenVerifier.Verify()")
	}

	if idToken.Nonce != nonce {
		return nil, ErrNonceMismatch
	}

	return idToken, nil
}

func (c *Client) clientContext(ctx context.Context) context.Context {
	if c.httpClient == nil {
		return ctx
	}

	return oidc.ClientContext(ctx, c.httpClient)
}
