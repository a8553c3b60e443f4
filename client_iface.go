package oidcrp

import (
	"context"
	"net/http"

	"github.com/cccteam/oidcrp/client"
)

var _ Client = &client.Client{}

// Client is the relying party client the Strategy drives. *client.Client implements it.
type Client interface {
	// Metadata returns the client registration.
	Metadata() client.Metadata

	// IssuerIdentifier returns the identifier URL of the issuer.
	IssuerIdentifier() string

	// HasUserinfoEndpoint reports whether the issuer publishes a userinfo endpoint.
	HasUserinfoEndpoint() bool

	// AuthorizationURL returns the URL of the authorization request described by params.
	AuthorizationURL(params client.AuthorizationParams) string

	// CallbackParams extracts the authorization response parameters from r.
	CallbackParams(r *http.Request) (client.Params, error)

	// AuthorizationCallback validates params against checks and completes the flow.
	AuthorizationCallback(ctx context.Context, redirectURI string, params client.Params, checks client.Checks) (*client.TokenSet, error)

	// Userinfo requests claims with the access token in tokens.
	Userinfo(ctx context.Context, tokens *client.TokenSet) (client.Claims, error)
}
