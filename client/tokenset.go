package client

import (
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/go-playground/errors/v5"
)

// Claims is a set of claims about the authenticated subject.
type Claims map[string]any

// Subject returns the sub claim.
func (c Claims) Subject() string {
	sub, _ := c["sub"].(string)

	return sub
}

// TokenSet is the result of a successful authorization callback.
type TokenSet struct {
	AccessToken  string
	TokenType    string
	RefreshToken string
	IDToken      string
	Expiry       time.Time
	SessionState string

	idToken *oidc.IDToken
}

// HasAccessToken reports whether the token set carries an access token.
func (t *TokenSet) HasAccessToken() bool {
	return t != nil && t.AccessToken != ""
}

// Subject returns the subject of the verified ID token.
func (t *TokenSet) Subject() string {
	if t == nil || t.idToken == nil {
		return ""
	}

	return t.idToken.Subject
}

// Claims unmarshals the verified ID token claims into v.
func (t *TokenSet) Claims(v any) error {
	if t == nil || t.idToken == nil {
		return errors.New("token set has no verified id_token")
	}

	if err := t.idToken.Claims(v); err != nil {
		return errors.Wrap(err, "oidc.IDToken.Claims()")
	}

	return nil
}

// IDTokenClaims returns the verified ID token claims as a map.
func (t *TokenSet) IDTokenClaims() (Claims, error) {
	claims := make(Claims)
	if err := t.Claims(&claims); err != nil {
		return nil, err
	}

	return claims, nil
}
