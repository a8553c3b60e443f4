package oidcrp

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/cccteam/httpio"
	"github.com/cccteam/oidcrp/client"
	"github.com/cccteam/oidcrp/internal/oidctest"
	"github.com/cccteam/oidcrp/session"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/errors/v5"
	"github.com/google/go-cmp/cmp"
	"github.com/gorilla/securecookie"
)

type recordingReporter struct {
	mu       sync.Mutex
	outcomes []Outcome
}

func (rr *recordingReporter) record(w http.ResponseWriter, o Outcome, status int) {
	rr.mu.Lock()
	rr.outcomes = append(rr.outcomes, o)
	rr.mu.Unlock()

	w.WriteHeader(status)
}

func (rr *recordingReporter) Success(w http.ResponseWriter, _ *http.Request, user any, info Info) {
	rr.record(w, Outcome{Result: Success, User: user, Info: info}, http.StatusOK)
}

func (rr *recordingReporter) Fail(w http.ResponseWriter, _ *http.Request, info Info, err error) {
	rr.record(w, Outcome{Result: Fail, Info: info, Err: err}, http.StatusUnauthorized)
}

func (rr *recordingReporter) Error(w http.ResponseWriter, _ *http.Request, err error) {
	rr.record(w, Outcome{Result: Error, Err: err}, http.StatusInternalServerError)
}

func (rr *recordingReporter) last(t *testing.T) Outcome {
	t.Helper()

	rr.mu.Lock()
	defer rr.mu.Unlock()

	if len(rr.outcomes) == 0 {
		t.Fatalf("no outcome reported")
	}

	return rr.outcomes[len(rr.outcomes)-1]
}

type e2e struct {
	provider *oidctest.Provider
	reporter *recordingReporter
	router   chi.Router
}

func newE2E(t *testing.T, store func(sc *securecookie.SecureCookie) session.Store, strategyOpts ...Option) *e2e {
	t.Helper()

	p := oidctest.NewProvider(t)
	issuer, err := client.Discover(context.Background(), p.Issuer(), p.Client())
	if err != nil {
		t.Fatalf("client.Discover() error = %v", err)
	}
	c, err := client.New(issuer, client.Metadata{
		ClientID:     oidctest.ClientID,
		ClientSecret: oidctest.ClientSecret,
		RedirectURIs: []string{testRedirectURI},
	}, client.WithHTTPClient(p.Client()))
	if err != nil {
		t.Fatalf("client.New() error = %v", err)
	}

	s, err := NewWithClaims(func(_ context.Context, tokens *client.TokenSet, claims client.Claims) (any, Info, error) {
		if claims == nil {
			return nil, Info{"message": "no claims"}, nil
		}

		return tokens.Subject(), Info{"email": claims["email"]}, nil
	}, strategyOpts...)
	if err != nil {
		t.Fatalf("NewWithClaims() error = %v", err)
	}

	sc, err := session.NewSecureCookie(base64.StdEncoding.EncodeToString(securecookie.GenerateRandomKey(32)))
	if err != nil {
		t.Fatalf("session.NewSecureCookie() error = %v", err)
	}

	rep := &recordingReporter{}
	resolve := func(r *http.Request) (Client, error) {
		if tenant := chi.URLParam(r, "tenant"); tenant != "acme" {
			return nil, httpio.NewNotFoundMessagef("unknown tenant %q", tenant)
		}

		return c, nil
	}
	h := NewHandler(s, resolve, store(sc), WithReporter(rep))

	router := chi.NewRouter()
	router.Get("/{tenant}/login", h.ServeHTTP)
	router.Get("/{tenant}/callback", h.ServeHTTP)
	router.Post("/{tenant}/callback", h.ServeHTTP)

	return &e2e{provider: p, reporter: rep, router: router}
}

func (e *e2e) serve(t *testing.T, r *http.Request, cookies []*http.Cookie) *http.Response {
	t.Helper()

	for _, c := range cookies {
		r.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, r)

	return rec.Result()
}

// login starts a login and follows the redirect to the provider, returning
// the session cookies and the provider's redirect back to the callback.
func (e *e2e) login(t *testing.T) ([]*http.Cookie, *url.URL) {
	t.Helper()

	resp := e.serve(t, httptest.NewRequest(http.MethodGet, "/acme/login", http.NoBody), nil)
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("login status = %d, want %d", resp.StatusCode, http.StatusFound)
	}
	location := resp.Header.Get("Location")
	if !strings.HasPrefix(location, e.provider.Issuer()+"/authorize?") {
		t.Fatalf("login Location = %q, want provider authorization endpoint", location)
	}
	cookies := resp.Cookies()
	if len(cookies) == 0 {
		t.Fatalf("login set no session cookie")
	}

	httpClient := *e.provider.Client()
	httpClient.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	opResp, err := httpClient.Get(location)
	if err != nil {
		t.Fatalf("authorize request error = %v", err)
	}
	defer opResp.Body.Close()

	callback, err := url.Parse(opResp.Header.Get("Location"))
	if err != nil {
		t.Fatalf("url.Parse() error = %v", err)
	}

	return cookies, callback
}

func callbackRequest(callback *url.URL) *http.Request {
	return httptest.NewRequest(http.MethodGet, "/acme/callback?"+callback.RawQuery, http.NoBody)
}

func stores() map[string]func(sc *securecookie.SecureCookie) session.Store {
	return map[string]func(sc *securecookie.SecureCookie) session.Store{
		"memory": func(sc *securecookie.SecureCookie) session.Store {
			return session.NewMemoryStore(session.NewIDCookie(sc))
		},
		"cookie": func(sc *securecookie.SecureCookie) session.Store {
			return session.NewCookieStore(sc)
		},
	}
}

func TestHandler_codeFlow(t *testing.T) {
	t.Parallel()

	for name, store := range stores() {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			e := newE2E(t, store, WithPKCE())
			cookies, callback := e.login(t)

			resp := e.serve(t, callbackRequest(callback), cookies)
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("callback status = %d, want %d", resp.StatusCode, http.StatusOK)
			}
			want := Outcome{
				Result: Success,
				User:   e.provider.Subject(),
				Info:   Info{"email": e.provider.Subject() + "@example.com"},
			}
			if diff := cmp.Diff(want, e.reporter.last(t)); diff != "" {
				t.Errorf("callback outcome mismatch (-want +got):\n%s", diff)
			}
			if got := e.provider.Exchanges(); got != 1 {
				t.Errorf("provider exchanges = %d, want 1", got)
			}

			// the same response cannot be used twice
			if len(resp.Cookies()) > 0 {
				cookies = resp.Cookies()
			}
			resp = e.serve(t, callbackRequest(callback), cookies)
			if resp.StatusCode != http.StatusInternalServerError {
				t.Fatalf("replay status = %d, want %d", resp.StatusCode, http.StatusInternalServerError)
			}
			if got := e.reporter.last(t); !errors.Is(got.Err, client.ErrStateMismatch) {
				t.Errorf("replay error = %v, want %v", got.Err, client.ErrStateMismatch)
			}
			if got := e.provider.Exchanges(); got != 1 {
				t.Errorf("provider exchanges after replay = %d, want 1", got)
			}
		})
	}
}

func TestHandler_callbackWithoutSession(t *testing.T) {
	t.Parallel()

	e := newE2E(t, stores()["memory"])
	_, callback := e.login(t)

	resp := e.serve(t, callbackRequest(callback), nil)
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("callback status = %d, want %d", resp.StatusCode, http.StatusInternalServerError)
	}
	if got := e.reporter.last(t); !errors.Is(got.Err, client.ErrStateMismatch) {
		t.Errorf("callback error = %v, want %v", got.Err, client.ErrStateMismatch)
	}
	if got := e.provider.Exchanges(); got != 0 {
		t.Errorf("provider exchanges = %d, want 0", got)
	}
}

func TestHandler_providerRefusal(t *testing.T) {
	t.Parallel()

	e := newE2E(t, stores()["memory"])
	cookies, callback := e.login(t)

	q := url.Values{}
	q.Set("error", "access_denied")
	q.Set("error_description", "user cancelled")
	q.Set("state", callback.Query().Get("state"))
	callback.RawQuery = q.Encode()

	resp := e.serve(t, callbackRequest(callback), cookies)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("callback status = %d, want %d", resp.StatusCode, http.StatusUnauthorized)
	}
	got := e.reporter.last(t)
	if diff := cmp.Diff(Info{"message": "access_denied", "description": "user cancelled"}, got.Info); diff != "" {
		t.Errorf("callback info mismatch (-want +got):\n%s", diff)
	}
	var pErr *client.ProtocolError
	if !errors.As(got.Err, &pErr) || pErr.Code != "access_denied" {
		t.Errorf("callback error = %v, want access_denied protocol error", got.Err)
	}
}

func TestHandler_unknownTenant(t *testing.T) {
	t.Parallel()

	e := newE2E(t, stores()["memory"])

	resp := e.serve(t, httptest.NewRequest(http.MethodGet, "/other/login", http.NoBody), nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
	if len(resp.Cookies()) != 0 {
		t.Errorf("unknown tenant set cookies %v", resp.Cookies())
	}
}

func TestReport(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		outcome      Outcome
		wantStatus   int
		wantLocation string
	}{
		{
			name:         "redirect",
			outcome:      Outcome{Result: Redirect, RedirectURL: testAuthURL},
			wantStatus:   http.StatusFound,
			wantLocation: testAuthURL,
		},
		{
			name:       "success",
			outcome:    Outcome{Result: Success, User: map[string]string{"id": "alice"}, Info: Info{}},
			wantStatus: http.StatusOK,
		},
		{
			name:       "fail",
			outcome:    Outcome{Result: Fail, Info: Info{"message": "login_required"}, Err: &client.ProtocolError{Code: "login_required"}},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "fail from verify",
			outcome:    Outcome{Result: Fail, Info: Info{}},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "error",
			outcome:    Outcome{Result: Error, Err: client.ErrNonceMismatch},
			wantStatus: http.StatusInternalServerError,
		},
		{
			name:       "zero outcome",
			wantStatus: http.StatusInternalServerError,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := httptest.NewRecorder()
			Report(rec, httptest.NewRequest(http.MethodGet, "/callback", http.NoBody), tt.outcome, DefaultReporter{})

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if got := rec.Header().Get("Location"); got != tt.wantLocation {
				t.Errorf("Location = %q, want %q", got, tt.wantLocation)
			}
		})
	}
}

func TestLogErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
	}{
		{name: "no error"},
		{name: "server fault", err: httpio.NewInternalServerErrorMessageWithError(errors.New("token endpoint down"), "identity provider unavailable")},
		{name: "client failure", err: httpio.NewUnauthorizedMessage("state mismatch")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var called bool
			h := logErrors(func(w http.ResponseWriter, _ *http.Request) error {
				called = true
				w.WriteHeader(http.StatusTeapot)

				return tt.err
			})

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/acme/callback", http.NoBody))

			if !called {
				t.Fatal("logErrors() did not call the wrapped handler")
			}
			if rec.Code != http.StatusTeapot {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusTeapot)
			}
		})
	}
}
