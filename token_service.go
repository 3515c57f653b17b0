package storefront

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-storefront/middleware/authware"
	"github.com/google/uuid"
)

// TokenService mints and validates self-contained session and refresh tokens.
// Validation is a pure function of the token and the shared signing key; there
// is no session table and no per-request store lookup.
type TokenService interface {
	Mint(identity Identity) (string, error)
	MintRefresh(subjectID string) (string, error)
	Validate(tokenString string) (*SessionClaims, error)
	ValidateRefresh(tokenString string) (*SessionClaims, error)
}

// TokenServiceImpl implements the TokenService interface
type TokenServiceImpl struct {
	signingKey        []byte
	tokenExpiration   int
	refreshExpiration int
	issuer            string
	audience          jwt.ClaimStrings
	logger            Logger
}

// NewTokenService creates a new TokenService instance. Expirations are in
// hours.
func NewTokenService(signingKey []byte, tokenExpiration, refreshExpiration int, issuer string, audience jwt.ClaimStrings, logger Logger) TokenService {
	if logger == nil {
		logger = defLogger{}
	}
	return &TokenServiceImpl{
		signingKey:        signingKey,
		tokenExpiration:   tokenExpiration,
		refreshExpiration: refreshExpiration,
		issuer:            issuer,
		audience:          audience,
		logger:            logger,
	}
}

// Mint creates a session JWT carrying the identity snapshot
func (ts *TokenServiceImpl) Mint(identity Identity) (string, error) {
	if identity == nil {
		return "", errors.New("identity must not be nil", errors.CategoryInternal)
	}

	now := time.Now()
	claims := &SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ts.issuer,
			Subject:   identity.ID(),
			Audience:  ts.audience,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(ts.tokenExpiration) * time.Hour)),
		},
		UID:          identity.ID(),
		UserRole:     identity.Role(),
		UserEmail:    identity.Email(),
		Name:         identity.DisplayName(),
		AvatarURL:    identity.Avatar(),
		TokenPurpose: PurposeSession,
	}

	ensureTokenID(&claims.RegisteredClaims)

	return ts.SignClaims(claims)
}

// MintRefresh creates a refresh token. It carries only the subject so a
// leaked refresh token exposes no profile data.
func (ts *TokenServiceImpl) MintRefresh(subjectID string) (string, error) {
	if subjectID == "" {
		return "", errors.New("subject must not be empty", errors.CategoryInternal)
	}

	now := time.Now()
	claims := &SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ts.issuer,
			Subject:   subjectID,
			Audience:  ts.audience,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(ts.refreshExpiration) * time.Hour)),
		},
		TokenPurpose: PurposeRefresh,
	}

	ensureTokenID(&claims.RegisteredClaims)

	return ts.SignClaims(claims)
}

// SignClaims signs arbitrary JWT claims using the configured signing key.
func (ts *TokenServiceImpl) SignClaims(claims *SessionClaims) (string, error) {
	if claims == nil {
		return "", errors.New("claims must not be nil", errors.CategoryInternal)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signedString, err := token.SignedString(ts.signingKey)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to sign JWT")
	}

	return signedString, nil
}

// Validate parses and validates a session token, returning structured claims
func (ts *TokenServiceImpl) Validate(tokenString string) (*SessionClaims, error) {
	return ts.validate(tokenString, PurposeSession)
}

// ValidateRefresh parses and validates a refresh token
func (ts *TokenServiceImpl) ValidateRefresh(tokenString string) (*SessionClaims, error) {
	return ts.validate(tokenString, PurposeRefresh)
}

func (ts *TokenServiceImpl) validate(tokenString string, purpose TokenPurpose) (*SessionClaims, error) {
	parserOptions := make([]jwt.ParserOption, 0, 2)
	if ts.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(ts.issuer))
	}
	if len(ts.audience) > 0 {
		parserOptions = append(parserOptions, jwt.WithAudience(ts.audience...))
	}

	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			ts.logger.Error("TokenService validate encountered unexpected signing method: %v", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ts.signingKey, nil
	}, parserOptions...)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		if errors.Is(err, jwt.ErrTokenInvalidIssuer) || errors.Is(err, jwt.ErrTokenInvalidAudience) {
			return nil, errors.Wrap(err, ErrIssuerMismatch.Category, ErrIssuerMismatch.Message).WithTextCode(ErrIssuerMismatch.TextCode)
		}
		return nil, errors.Wrap(err, ErrTokenMalformed.Category, ErrTokenMalformed.Message).WithTextCode(ErrTokenMalformed.TextCode)
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		ts.logger.Error("TokenService validate could not decode or validate claims")
		return nil, ErrTokenMalformed
	}

	if claims.Purpose() != purpose {
		return nil, ErrTokenPurpose
	}

	return claims, nil
}

// ExtractBearerToken pulls the token out of an Authorization header value.
// Only the `Bearer <token>` shape matches; anything else reports absence
// rather than an error so callers can fall through to other carriers. The
// shape itself lives with the middleware extractors so there is one parser.
func ExtractBearerToken(headerValue string) (string, bool) {
	return authware.ExtractSchemeToken(headerValue, "Bearer")
}

func ensureTokenID(claims *jwt.RegisteredClaims) {
	if claims.ID == "" {
		claims.ID = uuid.NewString()
	}
}
