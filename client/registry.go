package client

import (
	"context"
	"net/http"
	"sync"

	"github.com/go-playground/errors/v5"
)

// Registry caches discovered issuers by issuer URL. Discovery happens
// on first use and is not retried once it succeeds.
type Registry struct {
	httpClient *http.Client

	mu      sync.RWMutex
	issuers map[string]*Issuer
}

// NewRegistry returns an empty Registry. A nil httpClient uses http.DefaultClient.
func NewRegistry(httpClient *http.Client) *Registry {
	return &Registry{
		httpClient: httpClient,
		issuers:    make(map[string]*Issuer),
	}
}

// Issuer returns the issuer for issuerURL, discovering it if needed.
func (r *Registry) Issuer(ctx context.Context, issuerURL string) (*Issuer, error) {
	r.mu.RLock()
	if issuer, ok := r.issuers[issuerURL]; ok {
		r.mu.RUnlock()

		return issuer, nil
	}

	r.mu.RUnlock()
	r.mu.Lock()
	defer r.mu.Unlock()

	if issuer, ok := r.issuers[issuerURL]; ok {
		return issuer, nil
	}

	issuer, err := Discover(ctx, issuerURL, r.httpClient)
	if err != nil {
		return nil, errors.Wrap(err, "client.Discover()")
	}
	r.issuers[issuerURL] = issuer

	return issuer, nil
}

// Add registers an issuer, replacing any previous one with the same identifier.
func (r *Registry) Add(issuer *Issuer) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.issuers[issuer.Identifier()] = issuer
}

// Len returns the number of cached issuers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.issuers)
}
