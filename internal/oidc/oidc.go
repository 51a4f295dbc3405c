package oidc

import (
	"context"
	"errors"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/promptshare/promptshare/backend/go-services/pkg/middleware"
)

// Verifier checks Keycloak-issued tokens. Browser clients send access
// tokens whose audience is usually "account", so the client is matched on
// either "aud" or "azp" instead of go-oidc's audience-only check.
type Verifier struct {
	verifier *oidc.IDTokenVerifier
	clientID string
}

// NewVerifier creates a new OIDC verifier for the given issuer and client ID
func NewVerifier(ctx context.Context, issuer, clientID string) (*Verifier, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to discover OIDC provider: %w", err)
	}
	verifier := provider.Verifier(&oidc.Config{SkipClientIDCheck: true})
	return &Verifier{verifier: verifier, clientID: clientID}, nil
}

// Verify checks signature, issuer and expiry, then the client binding.
func (v *Verifier) Verify(ctx context.Context, raw string) (middleware.Token, error) {
	idToken, err := v.verifier.Verify(ctx, raw)
	if err != nil {
		return nil, err
	}
	var claims struct {
		Azp string `json:"azp"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, err
	}
	if !issuedFor(v.clientID, idToken.Audience, claims.Azp) {
		return nil, errors.New("token was not issued for this client")
	}
	return idToken, nil
}

func issuedFor(clientID string, audience []string, azp string) bool {
	if clientID == "" || azp == clientID {
		return true
	}
	for _, a := range audience {
		if a == clientID {
			return true
		}
	}
	return false
}
