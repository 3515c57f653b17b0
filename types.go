package storefront

import (
	"context"
	"fmt"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Identity holds the attributes of an identity used when minting tokens
type Identity interface {
	ID() string
	Email() string
	DisplayName() string
	Avatar() string
	Role() string
}

// Profile is the normalized identity claim returned by an external verifier.
type Profile struct {
	Subject       string `json:"subject"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	AvatarURL     string `json:"avatar_url"`
}

// IdentityVerifier verifies a raw credential against an external identity
// provider and returns the verified profile. The provider's own verification
// internals are a black box to this package.
type IdentityVerifier interface {
	VerifyCredential(ctx context.Context, rawCredential string) (*Profile, error)
}

// Config holds auth options
type Config interface {
	GetSigningKey() string
	GetContextKey() string
	GetTokenExpiration() int
	GetRefreshExpiration() int
	GetIssuer() string
	GetAudience() []string
}

// NewDefaultLogger returns the stdout printf logger used when no logger is
// injected.
func NewDefaultLogger() Logger {
	return defLogger{}
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] STOREFRONT "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] STOREFRONT "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] STOREFRONT "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] STOREFRONT "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
