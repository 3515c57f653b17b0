package storefront_test

import (
	"context"
	"database/sql"
	"io/fs"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	storefront "github.com/goliatone/go-storefront"
	"github.com/goliatone/go-storefront/assets"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/migrate"
)

// setupUsersStore runs the real migrations against an in-memory sqlite
// database and returns a repository backed by it. A single connection keeps
// the :memory: database alive for the length of the test.
func setupUsersStore(t *testing.T) storefront.Users {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { db.Close() })

	dir, err := fs.Sub(storefront.GetMigrationsFS(), "data/sql/migrations")
	require.NoError(t, err)

	migrations := migrate.NewMigrations()
	require.NoError(t, migrations.Discover(dir))

	ctx := context.Background()
	migrator := migrate.NewMigrator(db, migrations)
	require.NoError(t, migrator.Init(ctx))

	_, err = migrator.Migrate(ctx)
	require.NoError(t, err)

	return storefront.NewUsersRepository(db)
}

func TestReconcileMergeAgainstStore(t *testing.T) {
	ctx := context.Background()
	users := setupUsersStore(t)

	seeded, err := users.Create(ctx, &storefront.User{
		Subject: "google-oauth2|9001",
		Role:    storefront.RoleAdmin,
		Name:    "Admin User",
		Email:   "admin@example.com",
	})
	require.NoError(t, err)

	reconciler := storefront.NewReconciler(users, newRecordingLogger())

	merged, err := reconciler.Reconcile(ctx, &storefront.Profile{
		Subject:       "google-oauth2|9001",
		Name:          "Renamed Admin",
		Email:         "renamed@example.com",
		EmailVerified: true,
	})
	require.NoError(t, err)
	assert.Equal(t, storefront.RoleAdmin, merged.Role)

	stored, err := users.GetBySubject(ctx, "google-oauth2|9001")
	require.NoError(t, err)

	assert.Equal(t, seeded.ID, stored.ID)
	assert.Equal(t, storefront.RoleAdmin, stored.Role)
	assert.Equal(t, "Renamed Admin", stored.Name)
	assert.Equal(t, "renamed@example.com", stored.Email)
	assert.True(t, stored.EmailVerified)
	assert.NotNil(t, stored.LastLoginAt)
}

func TestAvatarUpdateAgainstStore(t *testing.T) {
	ctx := context.Background()
	users := setupUsersStore(t)

	first, err := users.Create(ctx, &storefront.User{
		Subject: "google-oauth2|9002",
		Name:    "First User",
		Email:   "first@example.com",
	})
	require.NoError(t, err)

	second, err := users.Create(ctx, &storefront.User{
		Subject: "google-oauth2|9003",
		Name:    "Second User",
		Email:   "second@example.com",
	})
	require.NoError(t, err)

	ref := assets.Reference{
		URL:        "https://cdn.example.com/storefront/avatars/abc.png",
		ExternalID: "avatars/abc",
		Namespace:  assets.NamespaceAvatars,
		Origin:     assets.OriginUploaded,
	}

	updated, err := users.UpdateAvatar(ctx, first.ID, ref)
	require.NoError(t, err)
	assert.Equal(t, ref.URL, updated.AvatarURL)

	stored, err := users.GetBySubject(ctx, "google-oauth2|9002")
	require.NoError(t, err)

	assert.Equal(t, "google-oauth2|9002", stored.Subject)
	assert.Equal(t, "first@example.com", stored.Email)
	assert.Equal(t, storefront.RoleUser, stored.Role)
	assert.Equal(t, ref.URL, stored.AvatarURL)
	assert.Equal(t, assets.OriginUploaded, stored.AvatarOrigin)
	assert.Equal(t, "avatars/abc", stored.AvatarID)

	// a second account swapping its avatar must not collide with the first
	otherRef := assets.Reference{
		URL:        "https://cdn.example.com/storefront/avatars/def.png",
		ExternalID: "avatars/def",
		Namespace:  assets.NamespaceAvatars,
		Origin:     assets.OriginUploaded,
	}
	_, err = users.UpdateAvatar(ctx, second.ID, otherRef)
	require.NoError(t, err)

	other, err := users.GetBySubject(ctx, "google-oauth2|9003")
	require.NoError(t, err)
	assert.Equal(t, "second@example.com", other.Email)
	assert.Equal(t, "avatars/def", other.AvatarID)

	t.Run("unknown user is not found", func(t *testing.T) {
		_, err := users.UpdateAvatar(ctx, uuid.New(), ref)
		assert.True(t, goerrors.IsNotFound(err))
	})

	t.Run("later logins keep the uploaded avatar", func(t *testing.T) {
		reconciler := storefront.NewReconciler(users, newRecordingLogger())

		_, err := reconciler.Reconcile(ctx, &storefront.Profile{
			Subject:   "google-oauth2|9002",
			Name:      "First User",
			Email:     "first@example.com",
			AvatarURL: "https://lh3.example.com/fresh-provider-photo.jpg",
		})
		require.NoError(t, err)

		stored, err := users.GetBySubject(ctx, "google-oauth2|9002")
		require.NoError(t, err)
		assert.Equal(t, ref.URL, stored.AvatarURL)
		assert.Equal(t, assets.OriginUploaded, stored.AvatarOrigin)
		assert.Equal(t, storefront.RoleUser, stored.Role)
	})
}
