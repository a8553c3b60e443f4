package oidcrp

import (
	"context"

	"github.com/cccteam/oidcrp/client"
)

// VerifyMode selects which arguments the verify function receives.
type VerifyMode int

const (
	// TokenOnly passes the token set.
	TokenOnly VerifyMode = iota + 1
	// TokenAndClaims passes the token set and the userinfo claims.
	TokenAndClaims
)

func (m VerifyMode) String() string {
	switch m {
	case TokenOnly:
		return "token-only"
	case TokenAndClaims:
		return "token-and-claims"
	}

	return "unknown"
}

// VerifyFunc maps an authenticated token set to an application user.
// Returning a non-nil error ends the attempt with Error and that error.
// Returning a nil user ends it with Fail and info.
type VerifyFunc func(ctx context.Context, tokens *client.TokenSet) (user any, info Info, err error)

// VerifyClaimsFunc is a VerifyFunc that also receives the userinfo claims.
// claims is nil when the issuer has no userinfo endpoint or the token set
// carries no access token.
type VerifyClaimsFunc func(ctx context.Context, tokens *client.TokenSet, claims client.Claims) (user any, info Info, err error)

// dispatch calls the configured verify function and shapes its answer into an Outcome.
func (s *Strategy) dispatch(ctx context.Context, tokens *client.TokenSet, claims client.Claims) Outcome {
	var (
		user any
		info Info
		err  error
	)
	switch s.mode {
	case TokenAndClaims:
		user, info, err = s.verifyClaims(ctx, tokens, claims)
	default:
		user, info, err = s.verify(ctx, tokens)
	}

	if err != nil {
		return errored(err)
	}
	if user == nil {
		return fail(info, nil)
	}

	return succeed(user, info)
}
