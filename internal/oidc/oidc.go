package oidc

import (
	"context"
	"errors"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"

	"github.com/yanote/notes/backend/go-services/pkg/middleware"
)

// ErrNoSubject is returned when a verified id token carries no "sub" claim.
var ErrNoSubject = errors.New("id token has no subject")

// Verifier checks Keycloak id tokens against the issuer's published keys.
type Verifier struct {
	provider *oidc.Provider
	verifier *oidc.IDTokenVerifier
}

// NewVerifier discovers the issuer and returns a verifier for tokens issued to clientID.
func NewVerifier(ctx context.Context, issuer, clientID string) (*Verifier, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to discover OIDC provider: %w", err)
	}
	return &Verifier{provider: provider, verifier: provider.Verifier(&oidc.Config{ClientID: clientID})}, nil
}

func (v *Verifier) Verify(ctx context.Context, raw string) (middleware.Token, error) {
	idToken, err := v.verifier.Verify(ctx, raw)
	if err != nil {
		return nil, err
	}
	return idToken, nil
}

// TokenURL is the provider's token endpoint, used for the password and code grants.
func (v *Verifier) TokenURL() string {
	return v.provider.Endpoint().TokenURL
}

// VerifyClaims verifies raw with ver and returns its claims, which must include a subject.
func VerifyClaims(ctx context.Context, ver middleware.Verifier, raw string) (map[string]interface{}, error) {
	tok, err := ver.Verify(ctx, raw)
	if err != nil {
		return nil, err
	}
	var claims map[string]interface{}
	if err := tok.Claims(&claims); err != nil {
		return nil, fmt.Errorf("parse id token claims: %w", err)
	}
	if sub, _ := claims["sub"].(string); sub == "" {
		return nil, ErrNoSubject
	}
	return claims, nil
}
