// Package oidctest runs an in-process OpenID Provider for tests.
package oidctest

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-jose/go-jose/v4"
)

// Registration of the single client the provider accepts.
const (
	ClientID     = "test-client"
	ClientSecret = "test-secret"
	keyID        = "test-key"
)

// Option configures a Provider.
type Option func(*Provider)

// WithoutUserinfo omits the userinfo endpoint from discovery.
func WithoutUserinfo() Option {
	return Option(func(p *Provider) {
		p.noUserinfo = true
	})
}

// WithSubject sets the subject of issued tokens.
func WithSubject(sub string) Option {
	return Option(func(p *Provider) {
		p.subject = sub
	})
}

// WithoutIDTokenOnExchange makes the token endpoint omit the id_token.
func WithoutIDTokenOnExchange() Option {
	return Option(func(p *Provider) {
		p.noExchangeIDToken = true
	})
}

type grant struct {
	nonce     string
	challenge string
}

// Provider is an OpenID Provider backed by an httptest.Server.
type Provider struct {
	server *httptest.Server
	key    *rsa.PrivateKey

	subject           string
	noUserinfo        bool
	noExchangeIDToken bool

	mu          sync.Mutex
	codes       map[string]grant
	tokenError  string
	userinfoSub string
	exchanges   int
}

// NewProvider starts a provider that is closed when the test ends.
func NewProvider(t testing.TB, opts ...Option) *Provider {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("rsa.GenerateKey() error = %v", err)
	}

	p := &Provider{
		key:     key,
		subject: "user-1",
		codes:   make(map[string]grant),
	}
	for _, opt := range opts {
		opt(p)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /.well-known/openid-configuration", p.discovery)
	mux.HandleFunc("GET /jwks", p.jwks)
	mux.HandleFunc("GET /authorize", p.authorize)
	mux.HandleFunc("POST /token", p.token)
	mux.HandleFunc("GET /userinfo", p.userinfo)

	p.server = httptest.NewServer(mux)
	t.Cleanup(p.server.Close)

	return p
}

// Issuer returns the issuer identifier.
func (p *Provider) Issuer() string {
	return p.server.URL
}

// Client returns an HTTP client for talking to the provider.
func (p *Provider) Client() *http.Client {
	return p.server.Client()
}

// Subject returns the subject of issued tokens.
func (p *Provider) Subject() string {
	return p.subject
}

// SetTokenError makes the token endpoint reject every exchange with code.
func (p *Provider) SetTokenError(code string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.tokenError = code
}

// SetUserinfoSubject makes the userinfo endpoint report sub instead of the token subject.
func (p *Provider) SetUserinfoSubject(sub string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.userinfoSub = sub
}

// Exchanges returns the number of successful code exchanges.
func (p *Provider) Exchanges() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.exchanges
}

// IssueCode registers an authorization code bound to nonce and an optional PKCE challenge.
func (p *Provider) IssueCode(nonce, challenge string) string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	code := "code-" + base64.RawURLEncoding.EncodeToString(b)

	p.mu.Lock()
	defer p.mu.Unlock()

	p.codes[code] = grant{nonce: nonce, challenge: challenge}

	return code
}

// IDToken returns a signed ID token for the provider subject.
func (p *Provider) IDToken(t testing.TB, nonce string) string {
	t.Helper()

	raw, err := p.signIDToken(nonce, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("signIDToken() error = %v", err)
	}

	return raw
}

// ExpiredIDToken returns a signed ID token that expired an hour ago.
func (p *Provider) ExpiredIDToken(t testing.TB, nonce string) string {
	t.Helper()

	raw, err := p.signIDToken(nonce, time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("signIDToken() error = %v", err)
	}

	return raw
}

// AccessToken is the access token issued for every exchange.
func (p *Provider) AccessToken() string {
	return "access-" + p.subject
}

func (p *Provider) signIDToken(nonce string, exp time.Time) (string, error) {
	signer, err := jose.NewSigner(
		jose.SigningKey{Algorithm: jose.RS256, Key: p.key},
		(&jose.SignerOptions{}).WithType("JWT").WithHeader("kid", keyID),
	)
	if err != nil {
		return "", err
	}

	claims := map[string]any{
		"iss": p.Issuer(),
		"sub": p.subject,
		"aud": ClientID,
		"exp": exp.Unix(),
		"iat": time.Now().Unix(),
	}
	if nonce != "" {
		claims["nonce"] = nonce
	}

	payload, err := json.Marshal(claims)
	if err != nil {
		return "", err
	}

	jws, err := signer.Sign(payload)
	if err != nil {
		return "", err
	}

	return jws.CompactSerialize()
}

func (p *Provider) discovery(w http.ResponseWriter, _ *http.Request) {
	doc := map[string]any{
		"issuer":                                p.Issuer(),
		"authorization_endpoint":                p.Issuer() + "/authorize",
		"token_endpoint":                        p.Issuer() + "/token",
		"jwks_uri":                              p.Issuer() + "/jwks",
		"id_token_signing_alg_values_supported": []string{"RS256"},
		"response_types_supported":              []string{"code", "id_token", "code id_token", "id_token token", "code id_token token"},
		"response_modes_supported":              []string{"query", "fragment", "form_post"},
	}
	if !p.noUserinfo {
		doc["userinfo_endpoint"] = p.Issuer() + "/userinfo"
	}

	writeJSON(w, http.StatusOK, doc)
}

func (p *Provider) jwks(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, jose.JSONWebKeySet{
		Keys: []jose.JSONWebKey{{
			Key:       &p.key.PublicKey,
			KeyID:     keyID,
			Algorithm: string(jose.RS256),
			Use:       "sig",
		}},
	})
}

// authorize approves every request and redirects back with a code and,
// for id_token response types, an ID token.
func (p *Provider) authorize(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("client_id") != ClientID {
		http.Error(w, "unknown client", http.StatusBadRequest)

		return
	}

	redirect, err := url.Parse(q.Get("redirect_uri"))
	if err != nil || redirect.Host == "" {
		http.Error(w, "invalid redirect_uri", http.StatusBadRequest)

		return
	}

	values := redirect.Query()
	values.Set("state", q.Get("state"))
	responseType := strings.Fields(q.Get("response_type"))
	for _, part := range responseType {
		switch part {
		case "code":
			values.Set("code", p.IssueCode(q.Get("nonce"), q.Get("code_challenge")))
		case "id_token":
			raw, err := p.signIDToken(q.Get("nonce"), time.Now().Add(time.Hour))
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)

				return
			}
			values.Set("id_token", raw)
		case "token":
			values.Set("access_token", p.AccessToken())
			values.Set("token_type", "Bearer")
		}
	}
	redirect.RawQuery = values.Encode()

	http.Redirect(w, r, redirect.String(), http.StatusFound)
}

func (p *Provider) token(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_request"})

		return
	}

	id, secret, ok := r.BasicAuth()
	if !ok {
		id, secret = r.PostForm.Get("client_id"), r.PostForm.Get("client_secret")
	}
	if id != ClientID || secret != ClientSecret {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid_client"})

		return
	}

	p.mu.Lock()
	tokenError := p.tokenError
	g, found := p.codes[r.PostForm.Get("code")]
	delete(p.codes, r.PostForm.Get("code"))
	p.mu.Unlock()

	if tokenError != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": tokenError, "error_description": "rejected by test provider"})

		return
	}
	if !found || r.PostForm.Get("grant_type") != "authorization_code" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_grant"})

		return
	}
	if g.challenge != "" {
		sum := sha256.Sum256([]byte(r.PostForm.Get("code_verifier")))
		if base64.RawURLEncoding.EncodeToString(sum[:]) != g.challenge {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_grant", "error_description": "code_verifier mismatch"})

			return
		}
	}

	resp := map[string]any{
		"access_token": p.AccessToken(),
		"token_type":   "Bearer",
		"expires_in":   3600,
	}
	if !p.noExchangeIDToken {
		raw, err := p.signIDToken(g.nonce, time.Now().Add(time.Hour))
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "server_error"})

			return
		}
		resp["id_token"] = raw
	}

	p.mu.Lock()
	p.exchanges++
	p.mu.Unlock()

	writeJSON(w, http.StatusOK, resp)
}

func (p *Provider) userinfo(w http.ResponseWriter, r *http.Request) {
	if p.noUserinfo {
		http.NotFound(w, r)

		return
	}
	if r.Header.Get("Authorization") != "Bearer "+p.AccessToken() {
		w.WriteHeader(http.StatusUnauthorized)

		return
	}

	p.mu.Lock()
	sub := p.userinfoSub
	p.mu.Unlock()
	if sub == "" {
		sub = p.subject
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"sub":   sub,
		"email": sub + "@example.com",
		"name":  "Test User",
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
