package client

import (
	"context"
	"sync"
	"testing"

	"github.com/cccteam/oidcrp/internal/oidctest"
	"github.com/coreos/go-oidc/v3/oidc"
)

func TestRegistry_Issuer(t *testing.T) {
	t.Parallel()

	p := oidctest.NewProvider(t)
	r := NewRegistry(p.Client())

	var wg sync.WaitGroup
	issuers := make([]*Issuer, 8)
	for i := range issuers {
		wg.Add(1)
		go func() {
			defer wg.Done()

			issuer, err := r.Issuer(context.Background(), p.Issuer())
			if err != nil {
				t.Errorf("Registry.Issuer() error = %v", err)

				return
			}
			issuers[i] = issuer
		}()
	}
	wg.Wait()

	for i := range issuers {
		if issuers[i] != issuers[0] {
			t.Fatalf("Registry.Issuer() returned different issuers for the same url")
		}
	}
	if got := r.Len(); got != 1 {
		t.Errorf("Registry.Len() = %d, want 1", got)
	}
	if got := issuers[0].UserinfoEndpoint(); got != p.Issuer()+"/userinfo" {
		t.Errorf("Issuer.UserinfoEndpoint() = %q", got)
	}
}

func TestRegistry_IssuerError(t *testing.T) {
	t.Parallel()

	p := oidctest.NewProvider(t)
	r := NewRegistry(p.Client())

	if _, err := r.Issuer(context.Background(), p.Issuer()+"/unknown"); err == nil {
		t.Fatal("Registry.Issuer() expected error for unknown issuer")
	}
	if got := r.Len(); got != 0 {
		t.Errorf("Registry.Len() = %d, want 0", got)
	}
}

func TestRegistry_Add(t *testing.T) {
	t.Parallel()

	r := NewRegistry(nil)
	static := NewIssuer(context.Background(), &oidc.ProviderConfig{IssuerURL: "https://op.example.com"}, nil)
	r.Add(static)

	got, err := r.Issuer(context.Background(), "https://op.example.com")
	if err != nil {
		t.Fatalf("Registry.Issuer() error = %v", err)
	}
	if got != static {
		t.Errorf("Registry.Issuer() did not return the added issuer")
	}
}
