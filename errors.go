package storefront

import (
	"strings"

	"github.com/goliatone/go-errors"
)

const (
	TextCodeUnauthenticated   = "unauthenticated"
	TextCodeTokenExpired      = "token_expired"
	TextCodeTokenMalformed    = "token_malformed"
	TextCodeIssuerMismatch    = "token_issuer_mismatch"
	TextCodeTokenPurpose      = "token_purpose_mismatch"
	TextCodeForbidden         = "forbidden"
	TextCodeSelfRevocation    = "self_revocation_blocked"
	TextCodeInvalidCredential = "invalid_credential"
	TextCodeUpstreamFailure   = "upstream_failure"
	TextCodeUserNotFound      = "user_not_found"
)

// ErrUnauthenticated is returned when a request carries no usable credential.
// The message stays role and account agnostic.
var ErrUnauthenticated = errors.New("authentication required", errors.CategoryAuth).
	WithTextCode(TextCodeUnauthenticated).
	WithCode(errors.CodeUnauthorized)

// ErrTokenExpired is returned once the clock passes the token's expiry.
var ErrTokenExpired = errors.New("token is expired", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(errors.CodeUnauthorized)

// ErrTokenMalformed is returned for tokens with a bad signature or structure.
var ErrTokenMalformed = errors.New("token is malformed", errors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(errors.CodeUnauthorized)

// ErrIssuerMismatch is returned when issuer or audience do not match the
// configured values.
var ErrIssuerMismatch = errors.New("token issuer or audience mismatch", errors.CategoryAuth).
	WithTextCode(TextCodeIssuerMismatch).
	WithCode(errors.CodeUnauthorized)

// ErrTokenPurpose is returned when a refresh token is presented as a session
// token or the other way around.
var ErrTokenPurpose = errors.New("token purpose mismatch", errors.CategoryAuth).
	WithTextCode(TextCodeTokenPurpose).
	WithCode(errors.CodeUnauthorized)

// ErrForbidden is returned for a valid identity with an insufficient role.
var ErrForbidden = errors.New("insufficient permissions", errors.CategoryAuthz).
	WithTextCode(TextCodeForbidden).
	WithCode(errors.CodeForbidden)

// ErrSelfRevocation is returned when an admin tries to revoke their own admin
// role. Blocking it prevents accidental lockout of the last granting path.
var ErrSelfRevocation = errors.New("cannot revoke own admin role", errors.CategoryConflict).
	WithTextCode(TextCodeSelfRevocation).
	WithCode(errors.CodeConflict)

// ErrInvalidCredential is returned when the identity provider rejects the
// presented credential.
var ErrInvalidCredential = errors.New("invalid identity credential", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredential).
	WithCode(errors.CodeUnauthorized)

// ErrUpstreamFailure is returned when the identity provider or object store
// is unreachable.
var ErrUpstreamFailure = errors.New("upstream service failure", errors.CategoryOperation).
	WithTextCode(TextCodeUpstreamFailure).
	WithCode(errors.CodeInternal)

// ErrUserNotFound is returned when a referenced user record is absent.
var ErrUserNotFound = errors.New("user not found", errors.CategoryNotFound).
	WithTextCode(TextCodeUserNotFound).
	WithCode(errors.CodeNotFound)

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed bearer token")
}
