package catalog

import (
	"bytes"
	"context"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-router"
	storefront "github.com/goliatone/go-storefront"
	"github.com/goliatone/go-storefront/assets"
	catalogrepo "github.com/goliatone/go-storefront/repository"
	"github.com/google/uuid"
)

// CategoryPayload is the create/update body. Image is optional; when present
// it is uploaded before the row is written.
type CategoryPayload struct {
	Name        string                   `form:"name" json:"name"`
	Description string                   `form:"description" json:"description"`
	Position    int                      `form:"position" json:"position"`
	Image       *storefront.AssetPayload `form:"image" json:"image"`
}

// Validate will run validation rules
func (r CategoryPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Description, validation.Length(0, 2000)),
	)
}

// CreateCategory writes a category, uploading its image first so a failed
// insert never leaves a row pointing at nothing.
func (c *Controller) CreateCategory(ctx router.Context) error {
	payload := new(CategoryPayload)
	if err := c.bindAndValidate(ctx, payload, payload.Validate); err != nil {
		return c.ErrorHandler(ctx, err)
	}

	record := &catalogrepo.Category{
		Name:        payload.Name,
		Description: payload.Description,
		Position:    payload.Position,
	}

	if payload.Image == nil {
		created, err := c.Repo.Categories().Create(ctx.Context(), record)
		if err != nil {
			return c.ErrorHandler(ctx, err)
		}
		return ctx.JSON(router.StatusCreated, map[string]any{"category": created})
	}

	raw, contentType, err := decodeAsset(payload.Image)
	if err != nil {
		return c.ErrorHandler(ctx, err)
	}

	var created *catalogrepo.Category
	_, err = c.Coordinator.Create(ctx.Context(), assets.NamespaceCategories, contentType,
		bytes.NewReader(raw), int64(len(raw)),
		func(cc context.Context, ref assets.Reference) error {
			record.ImageURL = ref.URL
			record.ImageOrigin = ref.Origin
			record.ImageID = ref.ExternalID
			var cerr error
			created, cerr = c.Repo.Categories().Create(cc, record)
			return cerr
		})
	if err != nil {
		return c.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusCreated, map[string]any{"category": created})
}

// UpdateCategory updates fields and optionally replaces the image. The new
// image lands before the row changes; the old object is removed only after.
func (c *Controller) UpdateCategory(ctx router.Context) error {
	id, err := parseID(ctx)
	if err != nil {
		return c.ErrorHandler(ctx, err)
	}

	payload := new(CategoryPayload)
	if err := c.bindAndValidate(ctx, payload, payload.Validate); err != nil {
		return c.ErrorHandler(ctx, err)
	}

	existing, err := c.Repo.Categories().GetByID(ctx.Context(), id.String())
	if err != nil {
		return c.ErrorHandler(ctx, notFoundOr(err, "category"))
	}

	record := &catalogrepo.Category{
		ID:          id,
		Name:        payload.Name,
		Description: payload.Description,
		Position:    payload.Position,
		ImageURL:    existing.ImageURL,
		ImageOrigin: existing.ImageOrigin,
		ImageID:     existing.ImageID,
	}

	if payload.Image == nil {
		updated, uerr := c.Repo.Categories().Update(ctx.Context(), record, repository.UpdateByID(id.String()))
		if uerr != nil {
			return c.ErrorHandler(ctx, uerr)
		}
		return ctx.JSON(router.StatusOK, map[string]any{"category": updated})
	}

	raw, contentType, err := decodeAsset(payload.Image)
	if err != nil {
		return c.ErrorHandler(ctx, err)
	}

	var updated *catalogrepo.Category
	_, err = c.Coordinator.Replace(ctx.Context(), assets.NamespaceCategories, contentType,
		bytes.NewReader(raw), int64(len(raw)), existing.ImageReference(),
		func(cc context.Context, ref assets.Reference) error {
			record.ImageURL = ref.URL
			record.ImageOrigin = ref.Origin
			record.ImageID = ref.ExternalID
			var uerr error
			updated, uerr = c.Repo.Categories().Update(cc, record, repository.UpdateByID(id.String()))
			return uerr
		})
	if err != nil {
		return c.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{"category": updated})
}

// DeleteCategory releases the category image and the images of its products,
// then removes the rows. Row removal happens regardless of object-store
// outcome.
func (c *Controller) DeleteCategory(ctx router.Context) error {
	id, err := parseID(ctx)
	if err != nil {
		return c.ErrorHandler(ctx, err)
	}

	existing, err := c.Repo.Categories().GetByID(ctx.Context(), id.String())
	if err != nil {
		return c.ErrorHandler(ctx, notFoundOr(err, "category"))
	}

	products, err := c.Repo.Products().CollectByCategory(ctx.Context(), id)
	if err != nil {
		return c.ErrorHandler(ctx, err)
	}

	for _, p := range products {
		c.releaseAsset(ctx, p.ImageReference())
	}

	err = c.Coordinator.Delete(ctx.Context(), existing.ImageReference(), func(cc context.Context) error {
		return c.Repo.Categories().DeleteCascade(cc, id)
	})
	if err != nil {
		return c.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{"status": "deleted"})
}

// ListCategories returns all categories in display order.
func (c *Controller) ListCategories(ctx router.Context) error {
	categories, err := c.Repo.Categories().ListOrdered(ctx.Context())
	if err != nil {
		return c.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{"categories": categories})
}

// ListCategoryProducts returns the category's products.
func (c *Controller) ListCategoryProducts(ctx router.Context) error {
	id, err := parseID(ctx)
	if err != nil {
		return c.ErrorHandler(ctx, err)
	}

	products, err := c.Repo.Products().ListByCategory(ctx.Context(), id)
	if err != nil {
		return c.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{"products": products})
}

func (c *Controller) bindAndValidate(ctx router.Context, payload any, validate func() error) error {
	if err := ctx.Bind(payload); err != nil {
		return errors.Wrap(err, errors.CategoryBadInput, "failed to parse payload").
			WithCode(errors.CodeBadRequest)
	}

	if err := validate(); err != nil {
		return errors.Wrap(err, errors.CategoryValidation, "invalid payload").
			WithCode(errors.CodeBadRequest)
	}

	return nil
}

// releaseAsset best-effort deletes a managed object whose row is about to go
// away. Failures are logged, never fatal.
func (c *Controller) releaseAsset(ctx router.Context, ref assets.Reference) {
	err := c.Coordinator.Delete(ctx.Context(), ref, func(context.Context) error { return nil })
	if err != nil {
		c.Logger.Warn("failed to release asset: external_id=%s err=%v", ref.ExternalID, err)
	}
}

func decodeAsset(p *storefront.AssetPayload) ([]byte, string, error) {
	if err := p.Validate(); err != nil {
		return nil, "", errors.Wrap(err, errors.CategoryValidation, "invalid asset payload").
			WithCode(errors.CodeBadRequest)
	}

	raw, err := p.Decode()
	if err != nil {
		return nil, "", err
	}

	return raw, p.ContentType, nil
}

func parseID(ctx router.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return uuid.Nil, errors.New("invalid id", errors.CategoryBadInput).
			WithCode(errors.CodeBadRequest)
	}
	return id, nil
}

func missingAsset(what string) error {
	return errors.New(what+" is required", errors.CategoryValidation).
		WithCode(errors.CodeBadRequest)
}

func notFoundOr(err error, resource string) error {
	if errors.IsNotFound(err) {
		return errors.New(resource+" not found", errors.CategoryNotFound).
			WithCode(errors.CodeNotFound)
	}
	return err
}
