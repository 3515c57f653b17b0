package storefront

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenPurpose tags a token with its intended use so refresh tokens can never
// stand in for session tokens, or the other way around.
type TokenPurpose = string

const (
	// PurposeSession tokens authenticate regular API requests
	PurposeSession TokenPurpose = "session"
	// PurposeRefresh tokens are only exchangeable for a new session token
	PurposeRefresh TokenPurpose = "refresh"
)

// AuthClaims represents structured JWT claims with role checking
type AuthClaims interface {
	Subject() string
	UserID() string
	Email() string
	DisplayName() string
	Avatar() string
	Role() string
	Purpose() TokenPurpose
	HasRole(role string) bool
	IsAtLeast(minRole string) bool
	Expires() time.Time
	IssuedAt() time.Time
}

// SessionClaims is the concrete implementation of AuthClaims
type SessionClaims struct {
	jwt.RegisteredClaims
	UID          string         `json:"uid,omitempty"`
	UserRole     string         `json:"role,omitempty"`
	UserEmail    string         `json:"email,omitempty"`
	Name         string         `json:"name,omitempty"`
	AvatarURL    string         `json:"avatar,omitempty"`
	TokenPurpose TokenPurpose   `json:"purpose,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"` // extension payload
}

// Verify interface compliance
var _ AuthClaims = (*SessionClaims)(nil)

// Subject returns the subject claim
func (c *SessionClaims) Subject() string {
	return c.RegisteredClaims.Subject
}

// UserID returns the user ID
func (c *SessionClaims) UserID() string {
	if c.UID != "" {
		return c.UID
	}
	return c.Subject()
}

// Email returns the email claim
func (c *SessionClaims) Email() string {
	return c.UserEmail
}

// DisplayName returns the display name claim
func (c *SessionClaims) DisplayName() string {
	return c.Name
}

// Avatar returns the avatar URL claim
func (c *SessionClaims) Avatar() string {
	return c.AvatarURL
}

// Role returns the global role
func (c *SessionClaims) Role() string {
	return c.UserRole
}

// Purpose returns the purpose tag. Tokens minted before the tag existed
// default to session purpose.
func (c *SessionClaims) Purpose() TokenPurpose {
	if c.TokenPurpose == "" {
		return PurposeSession
	}
	return c.TokenPurpose
}

// ClaimsMetadata exposes metadata extensions for optional context enrichment.
func (c *SessionClaims) ClaimsMetadata() map[string]any {
	return c.Metadata
}

// HasRole checks if the user has a specific role
func (c *SessionClaims) HasRole(role string) bool {
	return c.UserRole == role
}

// IsAtLeast checks if the user's role is at least the minimum required role
func (c *SessionClaims) IsAtLeast(minRole string) bool {
	return IsAtLeast(c.UserRole, minRole)
}

// Expires returns the expiration time
func (c *SessionClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// IssuedAt returns the issued at time
func (c *SessionClaims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}
