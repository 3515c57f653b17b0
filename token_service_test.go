package storefront_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	storefront "github.com/goliatone/go-storefront"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSigningKey = []byte("test-signing-key")

func newTestTokenService() storefront.TokenService {
	return storefront.NewTokenService(
		testSigningKey,
		24,
		720,
		"test-issuer",
		jwt.ClaimStrings{"test-audience"},
		newRecordingLogger(),
	)
}

func newTestIdentity() *MockIdentity {
	identity := &MockIdentity{}
	identity.On("ID").Return("b9b527b2-1f13-4b74-9df0-524c0eafc7a4")
	identity.On("Email").Return("user@example.com")
	identity.On("DisplayName").Return("Test User")
	identity.On("Avatar").Return("https://provider.example.com/avatar.png")
	identity.On("Role").Return(storefront.RoleUser)
	return identity
}

func TestMintSessionToken(t *testing.T) {
	svc := newTestTokenService()
	identity := newTestIdentity()

	tokenString, err := svc.Mint(identity)
	require.NoError(t, err)
	require.NotEmpty(t, tokenString)

	parsed, err := jwt.ParseWithClaims(tokenString, &storefront.SessionClaims{}, func(token *jwt.Token) (any, error) {
		return testSigningKey, nil
	})
	require.NoError(t, err)
	require.True(t, parsed.Valid)

	claims, ok := parsed.Claims.(*storefront.SessionClaims)
	require.True(t, ok)

	assert.Equal(t, "b9b527b2-1f13-4b74-9df0-524c0eafc7a4", claims.UserID())
	assert.Equal(t, "user@example.com", claims.Email())
	assert.Equal(t, "Test User", claims.DisplayName())
	assert.Equal(t, "https://provider.example.com/avatar.png", claims.Avatar())
	assert.Equal(t, storefront.RoleUser, claims.Role())
	assert.Equal(t, storefront.PurposeSession, claims.Purpose())
	assert.Equal(t, "test-issuer", claims.RegisteredClaims.Issuer)
	assert.Contains(t, claims.RegisteredClaims.Audience, "test-audience")
	assert.NotEmpty(t, claims.RegisteredClaims.ID)

	assert.WithinDuration(t, time.Now().Add(24*time.Hour), claims.Expires(), time.Minute)
}

func TestMintNilIdentity(t *testing.T) {
	svc := newTestTokenService()

	tokenString, err := svc.Mint(nil)
	assert.Error(t, err)
	assert.Empty(t, tokenString)
}

func TestMintRefreshToken(t *testing.T) {
	svc := newTestTokenService()

	tokenString, err := svc.MintRefresh("b9b527b2-1f13-4b74-9df0-524c0eafc7a4")
	require.NoError(t, err)

	claims, err := svc.ValidateRefresh(tokenString)
	require.NoError(t, err)

	assert.Equal(t, "b9b527b2-1f13-4b74-9df0-524c0eafc7a4", claims.Subject())
	assert.Equal(t, storefront.PurposeRefresh, claims.Purpose())

	// refresh tokens carry no profile snapshot
	assert.Empty(t, claims.Email())
	assert.Empty(t, claims.DisplayName())
	assert.Empty(t, claims.Role())

	assert.WithinDuration(t, time.Now().Add(720*time.Hour), claims.Expires(), time.Minute)
}

func TestMintRefreshEmptySubject(t *testing.T) {
	svc := newTestTokenService()

	tokenString, err := svc.MintRefresh("")
	assert.Error(t, err)
	assert.Empty(t, tokenString)
}

func TestValidateSessionToken(t *testing.T) {
	svc := newTestTokenService()

	tokenString, err := svc.Mint(newTestIdentity())
	require.NoError(t, err)

	claims, err := svc.Validate(tokenString)
	require.NoError(t, err)

	assert.Equal(t, "b9b527b2-1f13-4b74-9df0-524c0eafc7a4", claims.UserID())
	assert.Equal(t, storefront.PurposeSession, claims.Purpose())
	assert.True(t, claims.HasRole(storefront.RoleUser))
	assert.False(t, claims.HasRole(storefront.RoleAdmin))
}

func TestTokenPurposeCrossUse(t *testing.T) {
	svc := newTestTokenService()

	t.Run("refresh token rejected as session token", func(t *testing.T) {
		tokenString, err := svc.MintRefresh("b9b527b2-1f13-4b74-9df0-524c0eafc7a4")
		require.NoError(t, err)

		claims, err := svc.Validate(tokenString)
		assert.Nil(t, claims)
		assert.ErrorIs(t, err, storefront.ErrTokenPurpose)
	})

	t.Run("session token rejected as refresh token", func(t *testing.T) {
		tokenString, err := svc.Mint(newTestIdentity())
		require.NoError(t, err)

		claims, err := svc.ValidateRefresh(tokenString)
		assert.Nil(t, claims)
		assert.ErrorIs(t, err, storefront.ErrTokenPurpose)
	})
}

func TestValidateExpiredToken(t *testing.T) {
	svc := newTestTokenService()

	claims := jwt.MapClaims{
		"iss":     "test-issuer",
		"aud":     "test-audience",
		"sub":     "b9b527b2-1f13-4b74-9df0-524c0eafc7a4",
		"purpose": storefront.PurposeSession,
		"iat":     time.Now().Add(-2 * time.Hour).Unix(),
		"exp":     time.Now().Add(-time.Hour).Unix(),
	}

	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSigningKey)
	require.NoError(t, err)

	parsed, err := svc.Validate(tokenString)
	assert.Nil(t, parsed)
	assert.ErrorIs(t, err, storefront.ErrTokenExpired)
	assert.True(t, storefront.IsTokenExpiredError(err))
}

func TestValidateMalformedToken(t *testing.T) {
	svc := newTestTokenService()

	claims, err := svc.Validate("not.a.token")
	assert.Nil(t, claims)
	assert.Error(t, err)
	assert.True(t, storefront.IsMalformedError(err))
	assert.Contains(t, err.Error(), "token is malformed")
}

func TestValidateWrongSigningKey(t *testing.T) {
	svc := newTestTokenService()

	other := storefront.NewTokenService(
		[]byte("some-other-key"),
		24,
		720,
		"test-issuer",
		jwt.ClaimStrings{"test-audience"},
		newRecordingLogger(),
	)

	tokenString, err := other.Mint(newTestIdentity())
	require.NoError(t, err)

	claims, err := svc.Validate(tokenString)
	assert.Nil(t, claims)
	assert.True(t, storefront.IsMalformedError(err))
}

func TestValidateIssuerMismatch(t *testing.T) {
	svc := newTestTokenService()

	other := storefront.NewTokenService(
		testSigningKey,
		24,
		720,
		"other-issuer",
		jwt.ClaimStrings{"test-audience"},
		newRecordingLogger(),
	)

	tokenString, err := other.Mint(newTestIdentity())
	require.NoError(t, err)

	claims, err := svc.Validate(tokenString)
	assert.Nil(t, claims)
	assert.Contains(t, err.Error(), storefront.ErrIssuerMismatch.Message)
}

func TestValidateAudienceMismatch(t *testing.T) {
	svc := newTestTokenService()

	other := storefront.NewTokenService(
		testSigningKey,
		24,
		720,
		"test-issuer",
		jwt.ClaimStrings{"other-audience"},
		newRecordingLogger(),
	)

	tokenString, err := other.Mint(newTestIdentity())
	require.NoError(t, err)

	claims, err := svc.Validate(tokenString)
	assert.Nil(t, claims)
	assert.Contains(t, err.Error(), storefront.ErrIssuerMismatch.Message)
}

func TestExtractBearerToken(t *testing.T) {
	testCases := []struct {
		name   string
		header string
		token  string
		ok     bool
	}{
		{"standard bearer", "Bearer abc123", "abc123", true},
		{"lowercase scheme", "bearer abc123", "abc123", true},
		{"uppercase scheme", "BEARER abc123", "abc123", true},
		{"extra whitespace", "Bearer  abc123", "abc123", true},
		{"wrong scheme", "Basic abc123", "", false},
		{"scheme only", "Bearer", "", false},
		{"empty token", "Bearer ", "", false},
		{"empty header", "", "", false},
		{"bare token", "abc123", "", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			token, ok := storefront.ExtractBearerToken(tc.header)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.token, token)
		})
	}
}
