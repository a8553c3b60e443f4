package session

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cccteam/logger"
	"github.com/go-playground/errors/v5"
	"github.com/gorilla/securecookie"
	"golang.org/x/crypto/hkdf"
)

const (
	defaultCookieName = "oidcrp"
	minKeyLength      = 32
)

var keySalt = []byte("oidcrp-session-cookie")

// NewSecureCookie returns a codec that signs and encrypts cookie values.
// key is a Base64-encoded string of at least 32 bytes of random data.
// An empty key generates a random one, which does not survive a restart.
func NewSecureCookie(key string) (*securecookie.SecureCookie, error) {
	if key == "" {
		rKey := securecookie.GenerateRandomKey(minKeyLength)
		if rKey == nil {
			return nil, errors.New("failed to generate random key")
		}
		key = base64.StdEncoding.EncodeToString(rKey)

		fmt.Printf("Using random cookie key: %s\n", key)
	}

	k, err := base64.StdEncoding.DecodeString(key)
	if err != nil {
		return nil, errors.Wrap(err, "base64.StdEncoding.DecodeString()")
	}
	if len(k) < minKeyLength {
		return nil, errors.Newf("cookie key too short. Expect minimum of %d bytes", minKeyLength)
	}

	kdf := hkdf.New(sha256.New, k, keySalt, nil)
	hashKey := make([]byte, 64)
	if _, err := io.ReadFull(kdf, hashKey); err != nil {
		return nil, errors.Wrap(err, "hkdf.Read()")
	}
	blockKey := make([]byte, 32)
	if _, err := io.ReadFull(kdf, blockKey); err != nil {
		return nil, errors.Wrap(err, "hkdf.Read()")
	}

	sc := securecookie.New(hashKey, blockKey)
	sc.SetSerializer(securecookie.JSONEncoder{})

	return sc, nil
}

type cookieConfig struct {
	name     string
	domain   string
	maxAge   time.Duration
	sameSite http.SameSite
}

func newCookieConfig(opts []CookieOption) cookieConfig {
	cfg := cookieConfig{
		name:     defaultCookieName,
		sameSite: http.SameSiteLaxMode,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return cfg
}

func (c cookieConfig) cookie(value string) *http.Cookie {
	cookie := &http.Cookie{
		Name:     c.name,
		Value:    value,
		Path:     "/",
		Domain:   c.domain,
		Secure:   secureCookie(),
		HttpOnly: true,
		SameSite: c.sameSite,
	}
	if c.sameSite == http.SameSiteNoneMode {
		cookie.Secure = true
	}
	if c.maxAge > 0 {
		cookie.MaxAge = int(c.maxAge.Seconds())
		cookie.Expires = time.Now().Add(c.maxAge)
	}

	return cookie
}

func (c cookieConfig) expired() *http.Cookie {
	cookie := c.cookie("")
	cookie.MaxAge = -1
	cookie.Expires = time.Unix(0, 0)

	return cookie
}

// CookieOption configures the cookie written by a Store.
type CookieOption func(*cookieConfig)

// WithCookieName sets the cookie name.
func WithCookieName(name string) CookieOption {
	return CookieOption(func(c *cookieConfig) {
		c.name = name
	})
}

// WithCookieDomain sets the cookie domain.
func WithCookieDomain(domain string) CookieOption {
	return CookieOption(func(c *cookieConfig) {
		c.domain = domain
	})
}

// WithMaxAge makes the cookie persistent for d. By default it lasts for the browser session.
func WithMaxAge(d time.Duration) CookieOption {
	return CookieOption(func(c *cookieConfig) {
		c.maxAge = d
	})
}

// WithSameSite sets the SameSite attribute. Providers that answer with
// response_mode=form_post post cross site, which needs http.SameSiteNoneMode.
func WithSameSite(mode http.SameSite) CookieOption {
	return CookieOption(func(c *cookieConfig) {
		c.sameSite = mode
	})
}

// IDCookie carries the identifier of a server side session.
type IDCookie struct {
	sc  *securecookie.SecureCookie
	cfg cookieConfig
}

// NewIDCookie returns an IDCookie encoded with sc.
func NewIDCookie(sc *securecookie.SecureCookie, opts ...CookieOption) *IDCookie {
	return &IDCookie{sc: sc, cfg: newCookieConfig(opts)}
}

// Read returns the session identifier carried by r.
func (c *IDCookie) Read(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(c.cfg.name)
	if err != nil {
		return "", false
	}

	var id string
	if err := c.sc.Decode(c.cfg.name, cookie.Value, &id); err != nil {
		logger.Req(r).Error(errors.Wrap(err, "securecookie.Decode()"))

		return "", false
	}

	return id, id != ""
}

// Write sets the cookie to id.
func (c *IDCookie) Write(w http.ResponseWriter, id string) error {
	encoded, err := c.sc.Encode(c.cfg.name, id)
	if err != nil {
		return errors.Wrap(err, "securecookie.Encode()")
	}

	http.SetCookie(w, c.cfg.cookie(encoded))

	return nil
}

// Clear expires the cookie.
func (c *IDCookie) Clear(w http.ResponseWriter) {
	http.SetCookie(w, c.cfg.expired())
}

var _ Store = &CookieStore{}

// CookieStore keeps the whole session in an encrypted cookie.
type CookieStore struct {
	sc  *securecookie.SecureCookie
	cfg cookieConfig
}

// NewCookieStore returns a CookieStore encoded with sc.
func NewCookieStore(sc *securecookie.SecureCookie, opts ...CookieOption) *CookieStore {
	return &CookieStore{sc: sc, cfg: newCookieConfig(opts)}
}

// Load decodes the session cookie. A missing or undecodable cookie yields a new session.
func (c *CookieStore) Load(r *http.Request) (*Session, error) {
	cookie, err := r.Cookie(c.cfg.name)
	if err != nil {
		return New(), nil
	}

	values := make(map[string]any)
	if err := c.sc.Decode(c.cfg.name, cookie.Value, &values); err != nil {
		logger.Req(r).Error(errors.Wrap(err, "securecookie.Decode()"))

		return New(), nil
	}

	return Restore("", values), nil
}

// Save writes the session cookie when the session changed. An empty session expires the cookie.
func (c *CookieStore) Save(w http.ResponseWriter, _ *http.Request, s *Session) error {
	if !s.Modified() {
		return nil
	}

	values := s.Values()
	if len(values) == 0 {
		http.SetCookie(w, c.cfg.expired())
		s.MarkSaved()

		return nil
	}

	encoded, err := c.sc.Encode(c.cfg.name, values)
	if err != nil {
		return errors.Wrap(err, "securecookie.Encode()")
	}

	http.SetCookie(w, c.cfg.cookie(encoded))
	s.MarkSaved()

	return nil
}
