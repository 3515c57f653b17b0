package storefront

import (
	"context"
	"net/http"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
	"github.com/goliatone/go-storefront/middleware/authware"
)

// RouteAuthenticator wires the token service and the guard into router
// middleware. Every protected route flows through the same validation and
// authorization gate.
type RouteAuthenticator struct {
	tokens       TokenService
	guard        *Guard
	cfg          Config
	Logger       Logger
	ErrorHandler func(c router.Context, err error) error
}

// NewHTTPAuthenticator creates a RouteAuthenticator.
func NewHTTPAuthenticator(tokens TokenService, guard *Guard, cfg Config) (*RouteAuthenticator, error) {
	if guard == nil {
		guard = NewGuard()
	}

	a := &RouteAuthenticator{
		tokens: tokens,
		guard:  guard,
		cfg:    cfg,
		Logger: defLogger{},
	}

	a.ErrorHandler = a.defaultErrHandler

	return a, nil
}

// tokenValidatorAdapter lets the middleware validate through TokenService
// without importing the root package.
type tokenValidatorAdapter struct {
	tokens TokenService
}

func (v tokenValidatorAdapter) Validate(tokenString string) (authware.AuthClaims, error) {
	claims, err := v.tokens.Validate(tokenString)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// ProtectedRoute requires a valid session token and an allow decision from
// the guard for the given capability.
func (a *RouteAuthenticator) ProtectedRoute(capability Capability, errorHandler func(router.Context, error) error) router.MiddlewareFunc {
	if errorHandler == nil {
		errorHandler = a.MakeRouteAuthErrorHandler(false)
	}

	return authware.New(authware.Config{
		ErrorHandler:   errorHandler,
		ContextKey:     a.cfg.GetContextKey(),
		TokenValidator: tokenValidatorAdapter{tokens: a.tokens},
		Authorizer: func(claims authware.AuthClaims) error {
			sc, ok := claims.(AuthClaims)
			if !ok {
				return ErrUnauthenticated
			}
			return a.guard.Authorize(sc, capability)
		},
		ContextEnricher: func(c context.Context, claims authware.AuthClaims) context.Context {
			if sc, ok := claims.(AuthClaims); ok {
				return WithClaimsContext(c, sc)
			}
			return c
		},
	})
}

// MakeRouteAuthErrorHandler builds the error handler protected routes use.
// With optional set, failed auth falls through to the handler with no claims
// in context instead of failing the request.
func (a *RouteAuthenticator) MakeRouteAuthErrorHandler(optional bool) func(router.Context, error) error {
	return func(ctx router.Context, err error) error {
		var richErr *errors.Error

		if IsTokenExpiredError(err) {
			richErr = ErrTokenExpired
		} else if IsMalformedError(err) {
			richErr = ErrTokenMalformed
		} else if !errors.As(err, &richErr) {
			richErr = errors.Wrap(err, errors.CategoryAuth, "invalid authentication token").
				WithCode(errors.CodeUnauthorized)
		}

		if optional {
			a.Logger.Info("optional auth failed, proceeding: error=%s", richErr.Message)
			return ctx.Next()
		}

		return a.ErrorHandler(ctx, richErr)
	}
}

// RequireClaims pulls validated claims from the router context; handlers call
// it after ProtectedRoute has run.
func (a *RouteAuthenticator) RequireClaims(ctx router.Context) (AuthClaims, error) {
	claims, ok := GetRouterClaims(ctx, a.cfg.GetContextKey())
	if !ok {
		return nil, ErrUnauthenticated
	}
	return claims, nil
}

func (a *RouteAuthenticator) defaultErrHandler(c router.Context, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryInternal, "An unexpected server error occurred").
			WithCode(errors.CodeInternal)
	}

	a.Logger.Info(
		"request error: category=%s text_code=%s path=%s details=%s",
		richErr.Category,
		richErr.TextCode,
		c.OriginalURL(),
		print.MaybePrettyJSON(richErr.Metadata),
	)

	return WriteError(c, richErr)
}

// WriteError renders a rich error as the API's JSON error envelope. The body
// carries category and text code only, never account detail.
func WriteError(c router.Context, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryInternal, "An unexpected server error occurred").
			WithCode(errors.CodeInternal)
	}

	status := richErr.Code
	if status == 0 {
		status = http.StatusInternalServerError
	}

	return c.JSON(status, map[string]any{
		"error": map[string]any{
			"category":  string(richErr.Category),
			"text_code": richErr.TextCode,
			"message":   richErr.Message,
		},
	})
}
