package catalog

import (
	"bytes"
	"context"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-router"
	storefront "github.com/goliatone/go-storefront"
	"github.com/goliatone/go-storefront/assets"
	catalogrepo "github.com/goliatone/go-storefront/repository"
	"github.com/google/uuid"
)

// ProductPayload is the create/update body.
type ProductPayload struct {
	CategoryID  string                   `form:"category_id" json:"category_id"`
	Name        string                   `form:"name" json:"name"`
	Description string                   `form:"description" json:"description"`
	PriceCents  int64                    `form:"price_cents" json:"price_cents"`
	Stock       int                      `form:"stock" json:"stock"`
	Featured    bool                     `form:"is_featured" json:"is_featured"`
	Image       *storefront.AssetPayload `form:"image" json:"image"`
}

// Validate will run validation rules
func (r ProductPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.CategoryID, validation.Required, is.UUID),
		validation.Field(&r.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Description, validation.Length(0, 5000)),
		validation.Field(&r.PriceCents, validation.Min(int64(0))),
		validation.Field(&r.Stock, validation.Min(0)),
	)
}

// CreateProduct writes a product under an existing category.
func (c *Controller) CreateProduct(ctx router.Context) error {
	payload := new(ProductPayload)
	if err := c.bindAndValidate(ctx, payload, payload.Validate); err != nil {
		return c.ErrorHandler(ctx, err)
	}

	categoryID, _ := uuid.Parse(payload.CategoryID)
	if _, err := c.Repo.Categories().GetByID(ctx.Context(), categoryID.String()); err != nil {
		return c.ErrorHandler(ctx, notFoundOr(err, "category"))
	}

	record := &catalogrepo.Product{
		CategoryID:  categoryID,
		Name:        payload.Name,
		Description: payload.Description,
		PriceCents:  payload.PriceCents,
		Stock:       payload.Stock,
		Featured:    payload.Featured,
	}

	if payload.Image == nil {
		created, err := c.Repo.Products().Create(ctx.Context(), record)
		if err != nil {
			return c.ErrorHandler(ctx, err)
		}
		return ctx.JSON(router.StatusCreated, map[string]any{"product": created})
	}

	raw, contentType, err := decodeAsset(payload.Image)
	if err != nil {
		return c.ErrorHandler(ctx, err)
	}

	var created *catalogrepo.Product
	_, err = c.Coordinator.Create(ctx.Context(), assets.NamespaceProducts, contentType,
		bytes.NewReader(raw), int64(len(raw)),
		func(cc context.Context, ref assets.Reference) error {
			record.ImageURL = ref.URL
			record.ImageOrigin = ref.Origin
			record.ImageID = ref.ExternalID
			var cerr error
			created, cerr = c.Repo.Products().Create(cc, record)
			return cerr
		})
	if err != nil {
		return c.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusCreated, map[string]any{"product": created})
}

// UpdateProduct updates fields and optionally replaces the image.
func (c *Controller) UpdateProduct(ctx router.Context) error {
	id, err := parseID(ctx)
	if err != nil {
		return c.ErrorHandler(ctx, err)
	}

	payload := new(ProductPayload)
	if err := c.bindAndValidate(ctx, payload, payload.Validate); err != nil {
		return c.ErrorHandler(ctx, err)
	}

	existing, err := c.Repo.Products().GetByID(ctx.Context(), id.String())
	if err != nil {
		return c.ErrorHandler(ctx, notFoundOr(err, "product"))
	}

	categoryID, _ := uuid.Parse(payload.CategoryID)

	record := &catalogrepo.Product{
		ID:          id,
		CategoryID:  categoryID,
		Name:        payload.Name,
		Description: payload.Description,
		PriceCents:  payload.PriceCents,
		Stock:       payload.Stock,
		Featured:    payload.Featured,
		ImageURL:    existing.ImageURL,
		ImageOrigin: existing.ImageOrigin,
		ImageID:     existing.ImageID,
	}

	if payload.Image == nil {
		updated, uerr := c.Repo.Products().Update(ctx.Context(), record, repository.UpdateByID(id.String()))
		if uerr != nil {
			return c.ErrorHandler(ctx, uerr)
		}
		return ctx.JSON(router.StatusOK, map[string]any{"product": updated})
	}

	raw, contentType, err := decodeAsset(payload.Image)
	if err != nil {
		return c.ErrorHandler(ctx, err)
	}

	var updated *catalogrepo.Product
	_, err = c.Coordinator.Replace(ctx.Context(), assets.NamespaceProducts, contentType,
		bytes.NewReader(raw), int64(len(raw)), existing.ImageReference(),
		func(cc context.Context, ref assets.Reference) error {
			record.ImageURL = ref.URL
			record.ImageOrigin = ref.Origin
			record.ImageID = ref.ExternalID
			var uerr error
			updated, uerr = c.Repo.Products().Update(cc, record, repository.UpdateByID(id.String()))
			return uerr
		})
	if err != nil {
		return c.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{"product": updated})
}

// DeleteProduct releases the product image and removes the row.
func (c *Controller) DeleteProduct(ctx router.Context) error {
	id, err := parseID(ctx)
	if err != nil {
		return c.ErrorHandler(ctx, err)
	}

	existing, err := c.Repo.Products().GetByID(ctx.Context(), id.String())
	if err != nil {
		return c.ErrorHandler(ctx, notFoundOr(err, "product"))
	}

	err = c.Coordinator.Delete(ctx.Context(), existing.ImageReference(), func(cc context.Context) error {
		return c.Repo.Products().DeleteByID(cc, id)
	})
	if err != nil {
		return c.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{"status": "deleted"})
}
