package storefront

import (
	"bytes"
	"context"
	"encoding/base64"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
	"github.com/goliatone/go-storefront/assets"
	"github.com/google/uuid"
)

// RouteRegistrar captures the router methods used by the controller.
type RouteRegistrar interface {
	Get(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Post(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Put(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Delete(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
}

// AuthController handles login, refresh, profile and role administration.
type AuthController struct {
	Logger      Logger
	Verifier    IdentityVerifier
	Reconciler  *Reconciler
	Tokens      TokenService
	Roles       *RoleManager
	Users       Users
	Coordinator *assets.Coordinator
	Auther      *RouteAuthenticator

	ErrorHandler router.ErrorHandler
}

type AuthControllerOption func(*AuthController) *AuthController

func WithVerifier(v IdentityVerifier) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Verifier = v
		return c
	}
}

func WithReconciler(r *Reconciler) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Reconciler = r
		return c
	}
}

func WithTokens(t TokenService) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Tokens = t
		return c
	}
}

func WithRoles(r *RoleManager) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Roles = r
		return c
	}
}

func WithUsers(u Users) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Users = u
		return c
	}
}

func WithCoordinator(co *assets.Coordinator) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Coordinator = co
		return c
	}
}

func WithAuther(a *RouteAuthenticator) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Auther = a
		return c
	}
}

func WithControllerLogger(l Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Logger = l
		return c
	}
}

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger:       defLogger{},
		ErrorHandler: WriteError,
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Verifier == nil {
		panic("Missing IdentityVerifier in auth controller...")
	}

	if c.Reconciler == nil {
		panic("Missing Reconciler in auth controller...")
	}

	if c.Tokens == nil {
		panic("Missing TokenService in auth controller...")
	}

	if c.Auther == nil {
		panic("Missing RouteAuthenticator in auth controller...")
	}

	return c
}

// RegisterRoutes registers the auth surface. Protected routes run through the
// authenticator middleware before the handler sees the request.
func (a *AuthController) RegisterRoutes(app RouteRegistrar) {
	app.Post("/auth/login", a.Login)
	app.Post("/auth/refresh", a.Refresh)

	protected := a.Auther.ProtectedRoute(CapabilitySelf, nil)
	admin := a.Auther.ProtectedRoute(CapabilityAdmin, nil)

	app.Get("/auth/me", a.Me, protected)
	app.Put("/me/avatar", a.UpdateAvatar, protected)

	app.Post("/admin/users/:id/role", a.GrantRole, admin)
	app.Delete("/admin/users/:id/role", a.RevokeRole, admin)
}

// LoginRequest carries the provider-issued credential.
type LoginRequest struct {
	Credential string `form:"credential" json:"credential"`
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Credential,
			validation.Required,
		),
	)
}

// TokenPairResponse is the login and refresh response body.
type TokenPairResponse struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token"`
	User         *User  `json:"user"`
}

// Login verifies the credential with the identity provider, reconciles the
// profile into the store, and mints a session and refresh token pair.
func (a *AuthController) Login(ctx router.Context) error {
	payload := new(LoginRequest)

	if err := ctx.Bind(payload); err != nil {
		return a.ErrorHandler(ctx, errors.Wrap(err, errors.CategoryBadInput, "failed to parse login payload").
			WithCode(errors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		return a.ErrorHandler(ctx, errors.Wrap(err, errors.CategoryValidation, "invalid login payload").
			WithCode(errors.CodeBadRequest))
	}

	profile, err := a.Verifier.VerifyCredential(ctx.Context(), payload.Credential)
	if err != nil {
		a.Logger.Error("login credential verification failed: %v", err)
		return a.ErrorHandler(ctx, err)
	}

	user, err := a.Reconciler.Reconcile(ctx.Context(), profile)
	if err != nil {
		a.Logger.Error("login reconciliation failed: %v", err)
		return a.ErrorHandler(ctx, err)
	}

	token, err := a.Tokens.Mint(NewIdentity(user))
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	refresh, err := a.Tokens.MintRefresh(user.ID.String())
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, TokenPairResponse{
		Token:        token,
		RefreshToken: refresh,
		User:         user,
	})
}

// RefreshRequest carries the refresh token.
type RefreshRequest struct {
	RefreshToken string `form:"refresh_token" json:"refresh_token"`
}

// Validate will run validation rules
func (r RefreshRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.RefreshToken,
			validation.Required,
		),
	)
}

// Refresh exchanges a refresh token for a new session token pair. The user
// record is re-fetched so a role change since mint takes effect here.
func (a *AuthController) Refresh(ctx router.Context) error {
	payload := new(RefreshRequest)

	if err := ctx.Bind(payload); err != nil {
		return a.ErrorHandler(ctx, errors.Wrap(err, errors.CategoryBadInput, "failed to parse refresh payload").
			WithCode(errors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		return a.ErrorHandler(ctx, errors.Wrap(err, errors.CategoryValidation, "invalid refresh payload").
			WithCode(errors.CodeBadRequest))
	}

	claims, err := a.Tokens.ValidateRefresh(payload.RefreshToken)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	user, err := a.Users.GetByID(ctx.Context(), claims.Subject())
	if err != nil {
		if errors.IsNotFound(err) {
			return a.ErrorHandler(ctx, ErrUnauthenticated)
		}
		return a.ErrorHandler(ctx, errors.Wrap(err, errors.CategoryOperation, "failed to load user for refresh"))
	}

	token, err := a.Tokens.Mint(NewIdentity(user))
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	refresh, err := a.Tokens.MintRefresh(user.ID.String())
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, TokenPairResponse{
		Token:        token,
		RefreshToken: refresh,
		User:         user,
	})
}

// MeResponse is the profile body. Degraded marks responses served from the
// token snapshot because the store was unavailable.
type MeResponse struct {
	User     *User `json:"user"`
	Degraded bool  `json:"degraded,omitempty"`
}

// Me returns the caller's current record.
func (a *AuthController) Me(ctx router.Context) error {
	claims, err := a.Auther.RequireClaims(ctx)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	user, degraded, err := a.Reconciler.VerifyUser(ctx.Context(), claims)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, MeResponse{
		User:     user,
		Degraded: degraded,
	})
}

// AssetPayload carries an uploaded file as base64 plus its content type.
type AssetPayload struct {
	Data        string `form:"data" json:"data"`
	ContentType string `form:"content_type" json:"content_type"`
}

// Validate will run validation rules
func (r AssetPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Data,
			validation.Required,
		),
		validation.Field(
			&r.ContentType,
			validation.Required,
		),
	)
}

// Decode returns the raw bytes.
func (r AssetPayload) Decode() ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(r.Data)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryBadInput, "asset data is not valid base64").
			WithCode(errors.CodeBadRequest)
	}
	return raw, nil
}

// UpdateAvatar uploads a new avatar through the lifecycle coordinator and
// stamps the row with the uploaded origin so reconciliation keeps it.
func (a *AuthController) UpdateAvatar(ctx router.Context) error {
	claims, err := a.Auther.RequireClaims(ctx)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	payload := new(AssetPayload)
	if err := ctx.Bind(payload); err != nil {
		return a.ErrorHandler(ctx, errors.Wrap(err, errors.CategoryBadInput, "failed to parse avatar payload").
			WithCode(errors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		return a.ErrorHandler(ctx, errors.Wrap(err, errors.CategoryValidation, "invalid avatar payload").
			WithCode(errors.CodeBadRequest))
	}

	raw, err := payload.Decode()
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	user, err := a.Users.GetByID(ctx.Context(), claims.UserID())
	if err != nil {
		if errors.IsNotFound(err) {
			return a.ErrorHandler(ctx, ErrUserNotFound)
		}
		return a.ErrorHandler(ctx, errors.Wrap(err, errors.CategoryOperation, "failed to load user"))
	}

	previous := user.AvatarReference()

	ref, err := a.Coordinator.Replace(ctx.Context(), assets.NamespaceAvatars, payload.ContentType,
		bytes.NewReader(raw), int64(len(raw)), previous,
		func(c context.Context, newRef assets.Reference) error {
			updated, uerr := a.Users.UpdateAvatar(c, user.ID, newRef)
			if uerr != nil {
				return uerr
			}
			user = updated
			return nil
		})
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	a.Logger.Info("avatar updated: user=%s external_id=%s", user.ID, ref.ExternalID)

	return ctx.JSON(router.StatusOK, MeResponse{User: user})
}

// GrantRole promotes the target user to admin.
func (a *AuthController) GrantRole(ctx router.Context) error {
	claims, err := a.Auther.RequireClaims(ctx)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	targetID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return a.ErrorHandler(ctx, errors.New("invalid user id", errors.CategoryBadInput).
			WithCode(errors.CodeBadRequest))
	}

	user, err := a.Roles.Grant(ctx.Context(), claims, targetID)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{"user": user})
}

// RevokeRole demotes the target user to the default role.
func (a *AuthController) RevokeRole(ctx router.Context) error {
	claims, err := a.Auther.RequireClaims(ctx)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	targetID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return a.ErrorHandler(ctx, errors.New("invalid user id", errors.CategoryBadInput).
			WithCode(errors.CodeBadRequest))
	}

	user, err := a.Roles.Revoke(ctx.Context(), claims, targetID)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{"user": user})
}
