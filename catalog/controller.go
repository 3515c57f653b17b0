// Package catalog exposes the storefront content surface: category, banner
// and product administration, plus the public homepage, search, and the
// admin dashboard. Every asset-bearing write runs through the lifecycle
// coordinator so rows and objects stay consistent.
package catalog

import (
	"github.com/goliatone/go-router"
	storefront "github.com/goliatone/go-storefront"
	"github.com/goliatone/go-storefront/assets"
	"github.com/goliatone/go-storefront/repository"
)

// Controller handles catalog HTTP routes.
type Controller struct {
	Logger      storefront.Logger
	Repo        repository.Manager
	Coordinator *assets.Coordinator
	Auther      *storefront.RouteAuthenticator

	ErrorHandler router.ErrorHandler
}

type ControllerOption func(*Controller) *Controller

func WithRepo(r repository.Manager) ControllerOption {
	return func(c *Controller) *Controller {
		c.Repo = r
		return c
	}
}

func WithCoordinator(co *assets.Coordinator) ControllerOption {
	return func(c *Controller) *Controller {
		c.Coordinator = co
		return c
	}
}

func WithAuther(a *storefront.RouteAuthenticator) ControllerOption {
	return func(c *Controller) *Controller {
		c.Auther = a
		return c
	}
}

func WithLogger(l storefront.Logger) ControllerOption {
	return func(c *Controller) *Controller {
		c.Logger = l
		return c
	}
}

func NewController(opts ...ControllerOption) *Controller {
	c := &Controller{
		ErrorHandler: storefront.WriteError,
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing repository manager in catalog controller...")
	}

	if c.Coordinator == nil {
		panic("Missing asset coordinator in catalog controller...")
	}

	if c.Auther == nil {
		panic("Missing RouteAuthenticator in catalog controller...")
	}

	if c.Logger == nil {
		c.Logger = storefront.NewDefaultLogger()
	}

	return c
}

// RegisterRoutes registers public reads and admin-gated writes.
func (c *Controller) RegisterRoutes(app storefront.RouteRegistrar) {
	admin := c.Auther.ProtectedRoute(storefront.CapabilityAdmin, nil)

	app.Get("/home", c.Home)
	app.Get("/search", c.Search)
	app.Get("/categories", c.ListCategories)
	app.Get("/categories/:id/products", c.ListCategoryProducts)

	app.Get("/admin/dashboard", c.Dashboard, admin)

	app.Post("/admin/categories", c.CreateCategory, admin)
	app.Put("/admin/categories/:id", c.UpdateCategory, admin)
	app.Delete("/admin/categories/:id", c.DeleteCategory, admin)

	app.Post("/admin/banners", c.CreateBanner, admin)
	app.Put("/admin/banners/:id", c.UpdateBanner, admin)
	app.Delete("/admin/banners/:id", c.DeleteBanner, admin)

	app.Post("/admin/products", c.CreateProduct, admin)
	app.Put("/admin/products/:id", c.UpdateProduct, admin)
	app.Delete("/admin/products/:id", c.DeleteProduct, admin)
}

// Home aggregates everything the storefront landing page needs in one call.
func (c *Controller) Home(ctx router.Context) error {
	banners, err := c.Repo.Banners().ListActive(ctx.Context())
	if err != nil {
		return c.ErrorHandler(ctx, err)
	}

	categories, err := c.Repo.Categories().ListOrdered(ctx.Context())
	if err != nil {
		return c.ErrorHandler(ctx, err)
	}

	featured, err := c.Repo.Products().ListFeatured(ctx.Context(), 8)
	if err != nil {
		return c.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"banners":    banners,
		"categories": categories,
		"featured":   featured,
	})
}

// Search matches products by name or description.
func (c *Controller) Search(ctx router.Context) error {
	query := ctx.Query("q", "")
	if query == "" {
		return ctx.JSON(router.StatusOK, map[string]any{
			"products": []any{},
		})
	}

	products, err := c.Repo.Products().Search(ctx.Context(), query, 25)
	if err != nil {
		return c.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"products": products,
	})
}

// Display-only factors the dashboard applies to inventory value. They model
// typical sell-through and conversion and feed no business logic.
const (
	estimatedRevenueFactor = 0.6
	conversionRateFactor   = 0.023
)

// Dashboard returns content counts and derived display estimates.
func (c *Controller) Dashboard(ctx router.Context) error {
	stats, err := c.Repo.Products().Stats(ctx.Context())
	if err != nil {
		return c.ErrorHandler(ctx, err)
	}

	estimatedRevenueCents := int64(float64(stats.InventoryCents) * estimatedRevenueFactor)

	return ctx.JSON(router.StatusOK, map[string]any{
		"stats":                   stats,
		"estimated_revenue_cents": estimatedRevenueCents,
		"conversion_rate":         conversionRateFactor,
	})
}
