package main

import (
	"context"
	"testing"

	"github.com/cccteam/oidcrp/client"
)

func TestVerifyToken_noIDToken(t *testing.T) {
	t.Parallel()

	u, info, err := verifyToken(context.Background(), &client.TokenSet{AccessToken: "at"})
	if err != nil {
		t.Fatalf("verifyToken() error = %v", err)
	}
	if u != nil {
		t.Errorf("verifyToken() user = %v, want nil", u)
	}
	if info["message"] != "id_token required" {
		t.Errorf("verifyToken() info = %v", info)
	}

	u, _, err = verifyClaims(context.Background(), &client.TokenSet{}, client.Claims{"email": "a@example.com"})
	if err != nil || u != nil {
		t.Errorf("verifyClaims() = %v, %v, want nil user", u, err)
	}
}
