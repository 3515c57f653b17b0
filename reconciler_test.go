package storefront_test

import (
	"context"
	"errors"
	"testing"

	storefront "github.com/goliatone/go-storefront"
	"github.com/goliatone/go-storefront/assets"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconcileFirstLogin(t *testing.T) {
	store := &stubUserStore{}
	logger := newRecordingLogger()
	reconciler := storefront.NewReconciler(store, logger)

	profile := &storefront.Profile{
		Subject:       "google-oauth2|1001",
		Email:         "new@example.com",
		EmailVerified: true,
		Name:          "New User",
		AvatarURL:     "https://lh3.example.com/photo.jpg",
	}

	user, err := reconciler.Reconcile(context.Background(), profile)
	require.NoError(t, err)
	require.NotNil(t, user)

	assert.Equal(t, storefront.RoleUser, user.Role)
	assert.Equal(t, "google-oauth2|1001", user.Subject)
	assert.Equal(t, "new@example.com", user.Email)
	assert.True(t, user.EmailVerified)
	assert.Equal(t, "https://lh3.example.com/photo.jpg", user.AvatarURL)
	assert.Equal(t, assets.OriginExternal, user.AvatarOrigin)

	require.Len(t, store.created, 1)
	assert.Empty(t, store.updated)
	assert.Len(t, store.touched, 1)
}

func TestReconcileMissingSubject(t *testing.T) {
	reconciler := storefront.NewReconciler(&stubUserStore{}, newRecordingLogger())

	user, err := reconciler.Reconcile(context.Background(), &storefront.Profile{})
	assert.Nil(t, user)
	assert.Error(t, err)

	user, err = reconciler.Reconcile(context.Background(), nil)
	assert.Nil(t, user)
	assert.Error(t, err)
}

func TestReconcileProviderFieldsWin(t *testing.T) {
	existing := &storefront.User{
		ID:      uuid.New(),
		Subject: "google-oauth2|1001",
		Role:    storefront.RoleAdmin,
		Name:    "Old Name",
		Email:   "old@example.com",
	}
	store := &stubUserStore{}
	store.index(existing)

	reconciler := storefront.NewReconciler(store, newRecordingLogger())

	user, err := reconciler.Reconcile(context.Background(), &storefront.Profile{
		Subject:       "google-oauth2|1001",
		Email:         "renamed@example.com",
		EmailVerified: true,
		Name:          "Renamed User",
	})
	require.NoError(t, err)

	assert.Equal(t, "Renamed User", user.Name)
	assert.Equal(t, "renamed@example.com", user.Email)
	assert.True(t, user.EmailVerified)

	// login carries the stored role through unchanged
	require.Len(t, store.updated, 1)
	assert.Equal(t, storefront.RoleAdmin, store.updated[0].Role)
	assert.Equal(t, storefront.RoleAdmin, user.Role)
	assert.Empty(t, store.created)
}

func TestReconcileKeepsUploadedAvatar(t *testing.T) {
	existing := &storefront.User{
		ID:           uuid.New(),
		Subject:      "google-oauth2|1001",
		Name:         "User",
		AvatarURL:    "https://cdn.example.com/storefront/avatars/abc.png",
		AvatarOrigin: assets.OriginUploaded,
		AvatarID:     "avatars/abc",
	}
	store := &stubUserStore{}
	store.index(existing)

	reconciler := storefront.NewReconciler(store, newRecordingLogger())

	user, err := reconciler.Reconcile(context.Background(), &storefront.Profile{
		Subject:   "google-oauth2|1001",
		Name:      "User",
		AvatarURL: "https://lh3.example.com/fresh-provider-photo.jpg",
	})
	require.NoError(t, err)

	assert.Equal(t, "https://cdn.example.com/storefront/avatars/abc.png", user.AvatarURL)
	assert.Equal(t, assets.OriginUploaded, user.AvatarOrigin)
	assert.Equal(t, "avatars/abc", user.AvatarID)
}

func TestReconcileRefreshesExternalAvatar(t *testing.T) {
	existing := &storefront.User{
		ID:           uuid.New(),
		Subject:      "google-oauth2|1001",
		AvatarURL:    "https://lh3.example.com/stale.jpg",
		AvatarOrigin: assets.OriginExternal,
	}
	store := &stubUserStore{}
	store.index(existing)

	reconciler := storefront.NewReconciler(store, newRecordingLogger())

	user, err := reconciler.Reconcile(context.Background(), &storefront.Profile{
		Subject:   "google-oauth2|1001",
		AvatarURL: "https://lh3.example.com/fresh.jpg",
	})
	require.NoError(t, err)

	assert.Equal(t, "https://lh3.example.com/fresh.jpg", user.AvatarURL)
	assert.Equal(t, assets.OriginExternal, user.AvatarOrigin)
}

func TestReconcileKeepsAvatarWhenProviderOmitsIt(t *testing.T) {
	existing := &storefront.User{
		ID:           uuid.New(),
		Subject:      "google-oauth2|1001",
		AvatarURL:    "https://lh3.example.com/current.jpg",
		AvatarOrigin: assets.OriginExternal,
	}
	store := &stubUserStore{}
	store.index(existing)

	reconciler := storefront.NewReconciler(store, newRecordingLogger())

	user, err := reconciler.Reconcile(context.Background(), &storefront.Profile{
		Subject: "google-oauth2|1001",
	})
	require.NoError(t, err)

	assert.Equal(t, "https://lh3.example.com/current.jpg", user.AvatarURL)
}

func TestVerifyUser(t *testing.T) {
	userID := uuid.New()

	t.Run("returns the stored record", func(t *testing.T) {
		stored := &storefront.User{
			ID:      userID,
			Subject: "google-oauth2|1001",
			Role:    storefront.RoleAdmin,
			Name:    "Stored User",
		}
		store := &stubUserStore{}
		store.index(stored)

		reconciler := storefront.NewReconciler(store, newRecordingLogger())

		claims := sessionClaimsFor(userID.String(), storefront.RoleUser)
		user, degraded, err := reconciler.VerifyUser(context.Background(), claims)
		require.NoError(t, err)
		assert.False(t, degraded)
		assert.Equal(t, stored, user)
	})

	t.Run("nil claims are unauthenticated", func(t *testing.T) {
		reconciler := storefront.NewReconciler(&stubUserStore{}, newRecordingLogger())

		user, degraded, err := reconciler.VerifyUser(context.Background(), nil)
		assert.Nil(t, user)
		assert.False(t, degraded)
		assert.ErrorIs(t, err, storefront.ErrUnauthenticated)
	})

	t.Run("non uuid subject is malformed", func(t *testing.T) {
		reconciler := storefront.NewReconciler(&stubUserStore{}, newRecordingLogger())

		claims := sessionClaimsFor("not-a-uuid", storefront.RoleUser)
		user, degraded, err := reconciler.VerifyUser(context.Background(), claims)
		assert.Nil(t, user)
		assert.False(t, degraded)
		assert.ErrorIs(t, err, storefront.ErrTokenMalformed)
	})

	t.Run("deleted user is not found", func(t *testing.T) {
		reconciler := storefront.NewReconciler(&stubUserStore{}, newRecordingLogger())

		claims := sessionClaimsFor(userID.String(), storefront.RoleUser)
		user, degraded, err := reconciler.VerifyUser(context.Background(), claims)
		assert.Nil(t, user)
		assert.False(t, degraded)
		assert.ErrorIs(t, err, storefront.ErrUserNotFound)
	})

	t.Run("store outage serves the claims snapshot", func(t *testing.T) {
		store := &stubUserStore{
			getByIDErr: errors.New("connection refused"),
		}
		logger := newRecordingLogger()
		reconciler := storefront.NewReconciler(store, logger)

		claims := sessionClaimsFor(userID.String(), storefront.RoleUser)
		claims.Name = "Snapshot User"
		claims.UserEmail = "snapshot@example.com"
		claims.AvatarURL = "https://lh3.example.com/snapshot.jpg"

		user, degraded, err := reconciler.VerifyUser(context.Background(), claims)
		require.NoError(t, err)
		assert.True(t, degraded)

		assert.Equal(t, userID, user.ID)
		assert.Equal(t, storefront.RoleUser, user.Role)
		assert.Equal(t, "Snapshot User", user.Name)
		assert.Equal(t, "snapshot@example.com", user.Email)
		assert.Equal(t, "https://lh3.example.com/snapshot.jpg", user.AvatarURL)

		assert.True(t, logger.has("warn", "degraded"))
	})
}
