package storefront

import (
	"time"

	"github.com/goliatone/go-storefront/assets"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// UserRole is the user's role
type UserRole = string

const (
	// RoleUser is the default role assigned on first login
	RoleUser UserRole = "user"
	// RoleAdmin can manage catalog content and other users' roles
	RoleAdmin UserRole = "admin"
)

// User is the user model. Subject is the stable identifier issued by the
// external identity provider; it never changes across logins.
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	ID            uuid.UUID      `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Subject       string         `bun:"subject,notnull,unique" json:"subject,omitempty"`
	Role          UserRole       `bun:"user_role,notnull" json:"user_role,omitempty"`
	Name          string         `bun:"name,notnull" json:"name,omitempty"`
	Email         string         `bun:"email,notnull,unique" json:"email,omitempty"`
	EmailVerified bool           `bun:"is_email_verified" json:"is_email_verified,omitempty"`
	AvatarURL     string         `bun:"avatar_url" json:"avatar_url,omitempty"`
	AvatarOrigin  assets.Origin  `bun:"avatar_origin" json:"avatar_origin,omitempty"`
	AvatarID      string         `bun:"avatar_external_id" json:"avatar_external_id,omitempty"`
	Metadata      map[string]any `bun:"metadata" json:"metadata,omitempty"`
	LastLoginAt   *time.Time     `bun:"last_login_at,nullzero" json:"last_login_at,omitempty"`
	CreatedAt     *time.Time     `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time     `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt     *time.Time     `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// HasManagedAvatar reports whether the stored avatar was uploaded through
// this system, as opposed to the picture mirrored from the identity provider.
// Rows written before the origin column existed fall back to URL-shape
// inference.
func (u *User) HasManagedAvatar() bool {
	if u.AvatarURL == "" {
		return false
	}
	if u.AvatarOrigin != "" {
		return u.AvatarOrigin == assets.OriginUploaded
	}
	return assets.InferOrigin(u.AvatarURL) == assets.OriginUploaded
}

// AvatarReference builds the asset reference for the stored avatar so the
// lifecycle coordinator can replace or delete it.
func (u *User) AvatarReference() assets.Reference {
	origin := u.AvatarOrigin
	if origin == "" {
		origin = assets.InferOrigin(u.AvatarURL)
	}
	return assets.Reference{
		URL:        u.AvatarURL,
		ExternalID: u.AvatarID,
		Namespace:  assets.NamespaceAvatars,
		Origin:     origin,
	}
}

// AddMetadata will append information to a metadata attribute
func (u *User) AddMetadata(key string, val any) *User {
	if u.Metadata == nil {
		u.Metadata = make(map[string]any)
	}
	u.Metadata[key] = val
	return u
}

// Verify interface compliance
var _ Identity = identityAdapter{}

// identityAdapter presents a User through the Identity interface used when
// minting tokens.
type identityAdapter struct {
	user *User
}

// NewIdentity wraps a user record for token minting.
func NewIdentity(user *User) Identity {
	return identityAdapter{user: user}
}

func (a identityAdapter) ID() string          { return a.user.ID.String() }
func (a identityAdapter) Email() string       { return a.user.Email }
func (a identityAdapter) DisplayName() string { return a.user.Name }
func (a identityAdapter) Avatar() string      { return a.user.AvatarURL }
func (a identityAdapter) Role() string        { return a.user.Role }
