package client

import (
	"net/http"
	"time"
)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the client used for token, userinfo and key requests.
func WithHTTPClient(httpClient *http.Client) Option {
	return Option(func(c *Client) {
		c.httpClient = httpClient
	})
}

// WithTimeout bounds each call to the provider. The default is 5 seconds.
func WithTimeout(d time.Duration) Option {
	return Option(func(c *Client) {
		c.timeout = d
	})
}

// WithClock overrides the time source used when validating ID tokens.
func WithClock(now func() time.Time) Option {
	return Option(func(c *Client) {
		c.now = now
	})
}

// WithSkipUserinfoSubjectCheck disables the check that the userinfo sub
// matches the ID token subject.
func WithSkipUserinfoSubjectCheck() Option {
	return Option(func(c *Client) {
		c.skipSubjectCheck = true
	})
}
