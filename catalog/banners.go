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
)

// BannerPayload is the create/update body.
type BannerPayload struct {
	Title    string                   `form:"title" json:"title"`
	Subtitle string                   `form:"subtitle" json:"subtitle"`
	LinkURL  string                   `form:"link_url" json:"link_url"`
	Active   bool                     `form:"is_active" json:"is_active"`
	Position int                      `form:"position" json:"position"`
	Image    *storefront.AssetPayload `form:"image" json:"image"`
}

// Validate will run validation rules
func (r BannerPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Subtitle, validation.Length(0, 500)),
		validation.Field(&r.LinkURL, is.URL),
	)
}

// CreateBanner writes a banner; banners always carry an image.
func (c *Controller) CreateBanner(ctx router.Context) error {
	payload := new(BannerPayload)
	if err := c.bindAndValidate(ctx, payload, payload.Validate); err != nil {
		return c.ErrorHandler(ctx, err)
	}

	if payload.Image == nil {
		return c.ErrorHandler(ctx, missingAsset("banner image"))
	}

	raw, contentType, err := decodeAsset(payload.Image)
	if err != nil {
		return c.ErrorHandler(ctx, err)
	}

	record := &catalogrepo.Banner{
		Title:    payload.Title,
		Subtitle: payload.Subtitle,
		LinkURL:  payload.LinkURL,
		Active:   payload.Active,
		Position: payload.Position,
	}

	var created *catalogrepo.Banner
	_, err = c.Coordinator.Create(ctx.Context(), assets.NamespaceBanners, contentType,
		bytes.NewReader(raw), int64(len(raw)),
		func(cc context.Context, ref assets.Reference) error {
			record.ImageURL = ref.URL
			record.ImageOrigin = ref.Origin
			record.ImageID = ref.ExternalID
			var cerr error
			created, cerr = c.Repo.Banners().Create(cc, record)
			return cerr
		})
	if err != nil {
		return c.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusCreated, map[string]any{"banner": created})
}

// UpdateBanner updates fields and optionally replaces the image.
func (c *Controller) UpdateBanner(ctx router.Context) error {
	id, err := parseID(ctx)
	if err != nil {
		return c.ErrorHandler(ctx, err)
	}

	payload := new(BannerPayload)
	if err := c.bindAndValidate(ctx, payload, payload.Validate); err != nil {
		return c.ErrorHandler(ctx, err)
	}

	existing, err := c.Repo.Banners().GetByID(ctx.Context(), id.String())
	if err != nil {
		return c.ErrorHandler(ctx, notFoundOr(err, "banner"))
	}

	record := &catalogrepo.Banner{
		ID:          id,
		Title:       payload.Title,
		Subtitle:    payload.Subtitle,
		LinkURL:     payload.LinkURL,
		Active:      payload.Active,
		Position:    payload.Position,
		ImageURL:    existing.ImageURL,
		ImageOrigin: existing.ImageOrigin,
		ImageID:     existing.ImageID,
	}

	if payload.Image == nil {
		updated, uerr := c.Repo.Banners().Update(ctx.Context(), record, repository.UpdateByID(id.String()))
		if uerr != nil {
			return c.ErrorHandler(ctx, uerr)
		}
		return ctx.JSON(router.StatusOK, map[string]any{"banner": updated})
	}

	raw, contentType, err := decodeAsset(payload.Image)
	if err != nil {
		return c.ErrorHandler(ctx, err)
	}

	var updated *catalogrepo.Banner
	_, err = c.Coordinator.Replace(ctx.Context(), assets.NamespaceBanners, contentType,
		bytes.NewReader(raw), int64(len(raw)), existing.ImageReference(),
		func(cc context.Context, ref assets.Reference) error {
			record.ImageURL = ref.URL
			record.ImageOrigin = ref.Origin
			record.ImageID = ref.ExternalID
			var uerr error
			updated, uerr = c.Repo.Banners().Update(cc, record, repository.UpdateByID(id.String()))
			return uerr
		})
	if err != nil {
		return c.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{"banner": updated})
}

// DeleteBanner releases the banner image and removes the row.
func (c *Controller) DeleteBanner(ctx router.Context) error {
	id, err := parseID(ctx)
	if err != nil {
		return c.ErrorHandler(ctx, err)
	}

	existing, err := c.Repo.Banners().GetByID(ctx.Context(), id.String())
	if err != nil {
		return c.ErrorHandler(ctx, notFoundOr(err, "banner"))
	}

	err = c.Coordinator.Delete(ctx.Context(), existing.ImageReference(), func(cc context.Context) error {
		return c.Repo.Banners().DeleteByID(cc, id)
	})
	if err != nil {
		return c.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{"status": "deleted"})
}
