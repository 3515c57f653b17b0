package storefront

import (
	"context"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-storefront/assets"
	"github.com/google/uuid"
)

// UserStore is the slice of the users repository the reconciler needs.
type UserStore interface {
	GetBySubject(ctx context.Context, subject string) (*User, error)
	GetByID(ctx context.Context, id string, criteria ...repository.SelectCriteria) (*User, error)
	Create(ctx context.Context, record *User, criteria ...repository.InsertCriteria) (*User, error)
	Update(ctx context.Context, record *User, criteria ...repository.UpdateCriteria) (*User, error)
	TouchLastLogin(ctx context.Context, user *User) error
}

// Reconciler merges a freshly verified provider profile into the stored user
// record on every login. The merge is asymmetric on purpose: identity fields
// (name, email) follow the provider, while an avatar the user uploaded here
// belongs to them and the provider never overwrites it. Role is not a login
// concern and this path never writes it.
type Reconciler struct {
	repo   UserStore
	logger Logger
}

// NewReconciler creates a Reconciler over the users repository.
func NewReconciler(repo UserStore, logger Logger) *Reconciler {
	if logger == nil {
		logger = defLogger{}
	}
	return &Reconciler{
		repo:   repo,
		logger: logger,
	}
}

// Reconcile upserts the user record for the given verified profile and
// returns the post-merge record. First login creates the record with the
// default role; this is the only place a default role is assigned.
func (r *Reconciler) Reconcile(ctx context.Context, profile *Profile) (*User, error) {
	if profile == nil || profile.Subject == "" {
		return nil, errors.New("profile subject must not be empty", errors.CategoryBadInput).
			WithCode(errors.CodeBadRequest)
	}

	existing, err := r.repo.GetBySubject(ctx, profile.Subject)
	if err != nil {
		if !errors.IsNotFound(err) {
			return nil, errors.Wrap(err, errors.CategoryOperation, "failed to load user for reconciliation")
		}
		return r.createFromProfile(ctx, profile)
	}

	return r.mergeProfile(ctx, existing, profile)
}

func (r *Reconciler) createFromProfile(ctx context.Context, profile *Profile) (*User, error) {
	record := &User{
		Subject:       profile.Subject,
		Role:          RoleUser,
		Name:          profile.Name,
		Email:         profile.Email,
		EmailVerified: profile.EmailVerified,
		AvatarURL:     profile.AvatarURL,
	}
	if profile.AvatarURL != "" {
		record.AvatarOrigin = assets.OriginExternal
	}

	user, err := r.repo.Create(ctx, record)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryOperation, "failed to create user on first login")
	}

	if err := r.repo.TouchLastLogin(ctx, user); err != nil {
		r.logger.Warn("reconcile could not stamp first login: user=%s err=%v", user.ID, err)
	}

	r.logger.Info("reconcile created user on first login: user=%s", user.ID)

	return user, nil
}

func (r *Reconciler) mergeProfile(ctx context.Context, existing *User, profile *Profile) (*User, error) {
	// Merge into the fetched record and write it back whole. A sparse record
	// would zero the columns the merge must not touch, Role above all.
	existing.Name = profile.Name
	existing.Email = profile.Email
	existing.EmailVerified = profile.EmailVerified

	if existing.HasManagedAvatar() {
		// uploaded avatars are user property, keep them
	} else if profile.AvatarURL != "" {
		existing.AvatarURL = profile.AvatarURL
		existing.AvatarOrigin = assets.OriginExternal
		existing.AvatarID = ""
	}

	user, err := r.repo.Update(ctx, existing, repository.UpdateByID(existing.ID.String()))
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryOperation, "failed to merge provider profile")
	}

	if err := r.repo.TouchLastLogin(ctx, user); err != nil {
		r.logger.Warn("reconcile could not stamp login: user=%s err=%v", user.ID, err)
	}

	return user, nil
}

// VerifyUser re-fetches the user record referenced by a validated session
// token. When the store is unreachable (anything but a clean not-found) it
// falls back to a record synthesized from the token's own claims, flags the
// result as degraded, and logs it so the condition is observable.
func (r *Reconciler) VerifyUser(ctx context.Context, claims AuthClaims) (*User, bool, error) {
	if claims == nil {
		return nil, false, ErrUnauthenticated
	}

	id, err := uuid.Parse(claims.UserID())
	if err != nil {
		return nil, false, ErrTokenMalformed
	}

	user, err := r.repo.GetByID(ctx, id.String())
	if err == nil {
		return user, false, nil
	}

	if errors.IsNotFound(err) {
		return nil, false, ErrUserNotFound
	}

	r.logger.Warn("user verification degraded, serving claims snapshot: user=%s err=%v", id, err)

	return &User{
		ID:        id,
		Role:      claims.Role(),
		Name:      claims.DisplayName(),
		Email:     claims.Email(),
		AvatarURL: claims.Avatar(),
	}, true, nil
}
