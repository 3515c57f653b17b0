// Package google verifies Google-issued OIDC ID tokens and maps them to the
// normalized profile the root package reconciles against.
package google

import (
	"context"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/goliatone/go-errors"
	storefront "github.com/goliatone/go-storefront"
)

// DefaultIssuer is Google's OIDC issuer.
const DefaultIssuer = "https://accounts.google.com"

// Config holds the verifier options.
type Config struct {
	// ClientID is the OAuth client the ID token must be issued for.
	ClientID string

	// Issuer overrides the token issuer, mostly for tests against a local
	// OIDC stub. Defaults to Google.
	Issuer string
}

// Verifier validates raw Google ID tokens. Discovery runs once at
// construction; per-credential verification is a signature and claims check
// against the cached JWKS.
type Verifier struct {
	verifier *oidc.IDTokenVerifier
}

// Verify interface compliance
var _ storefront.IdentityVerifier = (*Verifier)(nil)

// NewVerifier discovers the issuer's OIDC configuration and returns a
// credential verifier.
func NewVerifier(ctx context.Context, cfg Config) (*Verifier, error) {
	if cfg.ClientID == "" {
		return nil, errors.New("client ID is required", errors.CategoryBadInput).
			WithCode(errors.CodeBadRequest)
	}

	issuer := cfg.Issuer
	if issuer == "" {
		issuer = DefaultIssuer
	}

	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, errors.Wrap(err, storefront.ErrUpstreamFailure.Category, "failed to discover OIDC provider").
			WithTextCode(storefront.ErrUpstreamFailure.TextCode).
			WithMetadata(map[string]any{"issuer": issuer})
	}

	return &Verifier{
		verifier: provider.Verifier(&oidc.Config{ClientID: cfg.ClientID}),
	}, nil
}

// VerifyCredential checks the raw ID token's signature, issuer, audience and
// expiry, then maps the standard claims onto a Profile. The caller never sees
// provider-specific claim names.
func (v *Verifier) VerifyCredential(ctx context.Context, rawCredential string) (*storefront.Profile, error) {
	if rawCredential == "" {
		return nil, storefront.ErrInvalidCredential
	}

	idToken, err := v.verifier.Verify(ctx, rawCredential)
	if err != nil {
		return nil, errors.Wrap(err, storefront.ErrInvalidCredential.Category, storefront.ErrInvalidCredential.Message).
			WithTextCode(storefront.ErrInvalidCredential.TextCode)
	}

	var claims struct {
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
		Name          string `json:"name"`
		Picture       string `json:"picture"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, errors.Wrap(err, storefront.ErrInvalidCredential.Category, "failed to parse ID token claims").
			WithTextCode(storefront.ErrInvalidCredential.TextCode)
	}

	return &storefront.Profile{
		Subject:       idToken.Subject,
		Email:         claims.Email,
		EmailVerified: claims.EmailVerified,
		Name:          claims.Name,
		AvatarURL:     claims.Picture,
	}, nil
}
