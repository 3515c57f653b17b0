package repository

import (
	"time"

	"github.com/goliatone/go-storefront/assets"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Category is a storefront category. Its image lives in the object store and
// the row carries the reference plus its origin tag.
type Category struct {
	bun.BaseModel `bun:"table:categories,alias:cat"`
	ID            uuid.UUID     `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Name          string        `bun:"name,notnull" json:"name,omitempty"`
	Description   string        `bun:"description" json:"description,omitempty"`
	ImageURL      string        `bun:"image_url" json:"image_url,omitempty"`
	ImageOrigin   assets.Origin `bun:"image_origin" json:"image_origin,omitempty"`
	ImageID       string        `bun:"image_external_id" json:"image_external_id,omitempty"`
	Position      int           `bun:"position" json:"position,omitempty"`
	CreatedAt     *time.Time    `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time    `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt     *time.Time    `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// ImageReference builds the asset reference for the category image.
func (c *Category) ImageReference() assets.Reference {
	return imageReference(c.ImageURL, c.ImageOrigin, c.ImageID, assets.NamespaceCategories)
}

// Banner is a homepage banner.
type Banner struct {
	bun.BaseModel `bun:"table:banners,alias:ban"`
	ID            uuid.UUID     `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Title         string        `bun:"title,notnull" json:"title,omitempty"`
	Subtitle      string        `bun:"subtitle" json:"subtitle,omitempty"`
	LinkURL       string        `bun:"link_url" json:"link_url,omitempty"`
	ImageURL      string        `bun:"image_url" json:"image_url,omitempty"`
	ImageOrigin   assets.Origin `bun:"image_origin" json:"image_origin,omitempty"`
	ImageID       string        `bun:"image_external_id" json:"image_external_id,omitempty"`
	Active        bool          `bun:"is_active" json:"is_active,omitempty"`
	Position      int           `bun:"position" json:"position,omitempty"`
	CreatedAt     *time.Time    `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time    `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt     *time.Time    `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// ImageReference builds the asset reference for the banner image.
func (b *Banner) ImageReference() assets.Reference {
	return imageReference(b.ImageURL, b.ImageOrigin, b.ImageID, assets.NamespaceBanners)
}

// Product is a storefront product. PriceCents avoids float money math.
type Product struct {
	bun.BaseModel `bun:"table:products,alias:prd"`
	ID            uuid.UUID     `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	CategoryID    uuid.UUID     `bun:"category_id,notnull,type:uuid" json:"category_id,omitempty"`
	Category      *Category     `bun:"rel:belongs-to,join:category_id=id" json:"category,omitempty"`
	Name          string        `bun:"name,notnull" json:"name,omitempty"`
	Description   string        `bun:"description" json:"description,omitempty"`
	PriceCents    int64         `bun:"price_cents,notnull" json:"price_cents,omitempty"`
	Stock         int           `bun:"stock" json:"stock,omitempty"`
	Featured      bool          `bun:"is_featured" json:"is_featured,omitempty"`
	ImageURL      string        `bun:"image_url" json:"image_url,omitempty"`
	ImageOrigin   assets.Origin `bun:"image_origin" json:"image_origin,omitempty"`
	ImageID       string        `bun:"image_external_id" json:"image_external_id,omitempty"`
	CreatedAt     *time.Time    `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time    `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt     *time.Time    `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// ImageReference builds the asset reference for the product image.
func (p *Product) ImageReference() assets.Reference {
	return imageReference(p.ImageURL, p.ImageOrigin, p.ImageID, assets.NamespaceProducts)
}

func imageReference(url string, origin assets.Origin, externalID, namespace string) assets.Reference {
	if origin == "" {
		origin = assets.InferOrigin(url)
	}
	return assets.Reference{
		URL:        url,
		ExternalID: externalID,
		Namespace:  namespace,
		Origin:     origin,
	}
}
