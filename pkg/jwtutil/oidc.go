package jwtutil

import (
	"context"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
)

// OIDCConfig holds the external issuer settings
type OIDCConfig struct {
	Authority string
	Audience  string
}

// OIDCVerifier verifies tokens issued by an external OpenID Connect provider.
// The audience is checked, the issuer is not.
type OIDCVerifier struct {
	verifier *oidc.IDTokenVerifier
}

// NewOIDCVerifier discovers the provider at the authority and builds a verifier
func NewOIDCVerifier(ctx context.Context, config OIDCConfig) (*OIDCVerifier, error) {
	provider, err := oidc.NewProvider(ctx, config.Authority)
	if err != nil {
		return nil, fmt.Errorf("oidc discovery for %s failed: %w", config.Authority, err)
	}

	return &OIDCVerifier{verifier: provider.Verifier(verifierConfig(config))}, nil
}

// NewOIDCVerifierWithKeys builds a verifier that checks signatures against a fixed key set
// instead of the provider's discovered JWKS
func NewOIDCVerifierWithKeys(config OIDCConfig, keySet oidc.KeySet) *OIDCVerifier {
	return &OIDCVerifier{verifier: oidc.NewVerifier(config.Authority, keySet, verifierConfig(config))}
}

func verifierConfig(config OIDCConfig) *oidc.Config {
	return &oidc.Config{
		ClientID:        config.Audience,
		SkipIssuerCheck: true,
	}
}

// Verify implements Verifier
func (v *OIDCVerifier) Verify(ctx context.Context, rawToken string) (Claims, error) {
	token, err := v.verifier.Verify(ctx, rawToken)
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	var claims struct {
		Email *string `json:"email"`
	}
	if err := token.Claims(&claims); err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	out := Claims{Subject: token.Subject}
	if claims.Email != nil {
		out.Email = *claims.Email
		out.HasEmail = true
	}
	return out, nil
}
