package oidcrp

// Option configures a Strategy.
type Option func(*Strategy)

// WithPKCE adds a PKCE code challenge to every authorization request and
// keeps the verifier with the state until the callback.
func WithPKCE() Option {
	return Option(func(s *Strategy) {
		s.pkce = true
	})
}

// WithAuthParams adds parameters to every authorization request, for example
// prompt, login_hint, max_age or acr_values. A nonce given here replaces the
// generated one. client_id, state, response_type, redirect_uri, scope,
// response_mode and the PKCE parameters are dropped by Client.AuthorizationURL.
func WithAuthParams(params map[string]string) Option {
	return Option(func(s *Strategy) {
		for k, v := range params {
			s.authParams[k] = v
		}
	})
}
