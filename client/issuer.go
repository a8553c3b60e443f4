package client

import (
	"context"
	"net/http"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/go-playground/errors/v5"
)

const defaultTimeout = 5 * time.Second

// Issuer is an OpenID Provider known by its discovered or configured endpoints.
type Issuer struct {
	provider   *oidc.Provider
	identifier string
}

// Discover fetches the provider configuration of issuerURL. A nil httpClient
// uses http.DefaultClient. The same client is later used to fetch signing keys.
func Discover(ctx context.Context, issuerURL string, httpClient *http.Client) (*Issuer, error) {
	if httpClient != nil {
		ctx = oidc.ClientContext(ctx, httpClient)
	}

	expire, cancel := context.WithTimeoutCause(ctx, defaultTimeout, errors.New("oidc.NewProvider() timeout"))
	defer cancel()

	provider, err := oidc.NewProvider(expire, issuerURL)
	if err != nil {
		return nil, errors.Wrap(err, "oidc.NewProvider()")
	}

	return &Issuer{
		provider:   provider,
		identifier: issuerURL,
	}, nil
}

// NewIssuer builds an Issuer from statically configured endpoints, skipping discovery.
func NewIssuer(ctx context.Context, config *oidc.ProviderConfig, httpClient *http.Client) *Issuer {
	if httpClient != nil {
		ctx = oidc.ClientContext(ctx, httpClient)
	}

	return &Issuer{
		provider:   config.NewProvider(ctx),
		identifier: config.IssuerURL,
	}
}

// Identifier returns the issuer identifier URL.
func (i *Issuer) Identifier() string {
	return i.identifier
}

// UserinfoEndpoint returns the userinfo endpoint, or "" when the issuer has none.
func (i *Issuer) UserinfoEndpoint() string {
	return i.provider.UserInfoEndpoint()
}
