package main

import (
	"context"

	"github.com/cccteam/oidcrp"
	"github.com/cccteam/oidcrp/client"
	"github.com/go-playground/errors/v5"
)

var (
	_ oidcrp.VerifyFunc       = verifyToken
	_ oidcrp.VerifyClaimsFunc = verifyClaims
)

type user struct {
	Subject string `json:"sub"`
	Email   string `json:"email,omitempty"`
	Name    string `json:"name,omitempty"`
}

func verifyToken(_ context.Context, tokens *client.TokenSet) (any, oidcrp.Info, error) {
	if tokens.Subject() == "" {
		return nil, oidcrp.Info{"message": "id_token required"}, nil
	}

	var u user
	if err := tokens.Claims(&u); err != nil {
		return nil, nil, errors.Wrap(err, "client.TokenSet.Claims()")
	}

	return u, oidcrp.Info{"expires": tokens.Expiry}, nil
}

func verifyClaims(ctx context.Context, tokens *client.TokenSet, claims client.Claims) (any, oidcrp.Info, error) {
	u, info, err := verifyToken(ctx, tokens)
	if err != nil || u == nil {
		return u, info, err
	}

	usr := u.(user)
	if email, ok := claims["email"].(string); ok {
		usr.Email = email
	}
	if name, ok := claims["name"].(string); ok {
		usr.Name = name
	}

	return usr, info, nil
}
