package storefront

import (
	"context"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// Capability names an action class a handler wants to perform. The model is
// deliberately small: a user acting on their own resources, or an admin.
type Capability = string

const (
	// CapabilitySelf allows any authenticated user to act on resources they own
	CapabilitySelf Capability = "self"
	// CapabilityAdmin requires the admin role
	CapabilityAdmin Capability = "admin"
)

// Guard turns (claims, capability) into an allow or deny decision. It is the
// single gate privileged handlers run before performing any I/O; it never
// touches the store itself.
type Guard struct{}

// NewGuard creates a Guard.
func NewGuard() *Guard {
	return &Guard{}
}

// Authorize checks that claims are present, current, session-purposed, and
// carry a role sufficient for the capability. Denials carry category only,
// never detail about which accounts exist.
func (g *Guard) Authorize(claims AuthClaims, capability Capability) error {
	if err := g.authenticate(claims); err != nil {
		return err
	}

	switch capability {
	case CapabilitySelf:
		return nil
	case CapabilityAdmin:
		if !claims.HasRole(RoleAdmin) {
			return ErrForbidden
		}
		return nil
	default:
		return ErrForbidden
	}
}

// AuthorizeOwner allows admins unconditionally and other users only when they
// are acting on their own resource.
func (g *Guard) AuthorizeOwner(claims AuthClaims, ownerID string) error {
	if err := g.authenticate(claims); err != nil {
		return err
	}

	if claims.HasRole(RoleAdmin) {
		return nil
	}

	if claims.UserID() != ownerID {
		return ErrForbidden
	}

	return nil
}

func (g *Guard) authenticate(claims AuthClaims) error {
	if claims == nil {
		return ErrUnauthenticated
	}

	if claims.Purpose() != PurposeSession {
		return ErrTokenPurpose
	}

	if exp := claims.Expires(); !exp.IsZero() && time.Now().After(exp) {
		return ErrTokenExpired
	}

	return nil
}

// RoleStore is the slice of the users repository the role manager needs.
type RoleStore interface {
	UpdateRole(ctx context.Context, id uuid.UUID, role UserRole) (*User, error)
}

// RoleManager owns the only code path that mutates a user's role.
type RoleManager struct {
	repo   RoleStore
	guard  *Guard
	logger Logger
}

// NewRoleManager creates a RoleManager.
func NewRoleManager(repo RoleStore, guard *Guard, logger Logger) *RoleManager {
	if guard == nil {
		guard = NewGuard()
	}
	if logger == nil {
		logger = defLogger{}
	}
	return &RoleManager{
		repo:   repo,
		guard:  guard,
		logger: logger,
	}
}

// Grant promotes the target user to admin. Actor must be an admin.
func (m *RoleManager) Grant(ctx context.Context, actor AuthClaims, targetID uuid.UUID) (*User, error) {
	if err := m.guard.Authorize(actor, CapabilityAdmin); err != nil {
		return nil, err
	}

	user, err := m.repo.UpdateRole(ctx, targetID, RoleAdmin)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, errors.Wrap(err, errors.CategoryOperation, "failed to grant role")
	}

	m.logger.Info("role granted: actor=%s target=%s role=%s", actor.UserID(), targetID, RoleAdmin)

	return user, nil
}

// Revoke demotes the target user back to the default role. An admin revoking
// their own admin role is rejected: it takes effect on the very next request
// (stateless tokens are re-checked against the store) and could lock the
// system out of its last granting path.
func (m *RoleManager) Revoke(ctx context.Context, actor AuthClaims, targetID uuid.UUID) (*User, error) {
	if err := m.guard.Authorize(actor, CapabilityAdmin); err != nil {
		return nil, err
	}

	if actor.UserID() == targetID.String() {
		return nil, ErrSelfRevocation
	}

	user, err := m.repo.UpdateRole(ctx, targetID, RoleUser)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, errors.Wrap(err, errors.CategoryOperation, "failed to revoke role")
	}

	m.logger.Info("role revoked: actor=%s target=%s", actor.UserID(), targetID)

	return user, nil
}
