package client

// Metadata is the registration of a relying party with an issuer.
type Metadata struct {
	ClientID      string
	ClientSecret  string
	ResponseTypes []string
	RedirectURIs  []string
	Scopes        []string
	ResponseMode  string
}

// AuthorizationParams are the parameters of an authorization request.
type AuthorizationParams struct {
	ResponseType string
	RedirectURI  string
	Scope        string
	ResponseMode string
	State        string
	Nonce        string
	CodeVerifier string

	// Extra holds additional parameters such as prompt or login_hint.
	Extra map[string]string
}

// Checks are the values the callback response is validated against.
type Checks struct {
	State        string
	Nonce        string
	ResponseType string
	CodeVerifier string
}
