package repository

import (
	"context"
	"strings"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Products interface {
	repository.Repository[*Product]

	Create(ctx context.Context, record *Product, criteria ...repository.InsertCriteria) (*Product, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *Product, criteria ...repository.InsertCriteria) (*Product, error)
	ListByCategory(ctx context.Context, categoryID uuid.UUID) ([]*Product, error)
	ListFeatured(ctx context.Context, limit int) ([]*Product, error)
	Search(ctx context.Context, query string, limit int) ([]*Product, error)
	DeleteByID(ctx context.Context, id uuid.UUID) error
	DeleteByCategoryTx(ctx context.Context, tx bun.IDB, categoryID uuid.UUID) error
	CollectByCategory(ctx context.Context, categoryID uuid.UUID) ([]*Product, error)
	Stats(ctx context.Context) (ProductStats, error)
}

// ProductStats aggregates counts the dashboard reports.
type ProductStats struct {
	ProductCount   int   `json:"product_count"`
	CategoryCount  int   `json:"category_count"`
	BannerCount    int   `json:"banner_count"`
	StockUnits     int64 `json:"stock_units"`
	InventoryCents int64 `json:"inventory_cents"`
}

type products struct {
	repository.Repository[*Product]
	db *bun.DB
}

var _ Products = (*products)(nil)

func NewProductsRepository(db *bun.DB) Products {
	repo := repository.NewRepository[*Product](db, repository.ModelHandlers[*Product]{
		NewRecord: func() *Product { return &Product{} },
		GetID: func(p *Product) uuid.UUID {
			if p == nil {
				return uuid.Nil
			}
			return p.ID
		},
		SetID: func(p *Product, id uuid.UUID) {
			if p != nil {
				p.ID = id
			}
		},
	})

	return &products{
		Repository: repo,
		db:         db,
	}
}

func (r *products) Create(ctx context.Context, record *Product, criteria ...repository.InsertCriteria) (*Product, error) {
	return r.CreateTx(ctx, r.db, record, criteria...)
}

func (r *products) CreateTx(ctx context.Context, tx bun.IDB, record *Product, criteria ...repository.InsertCriteria) (*Product, error) {
	if record != nil && record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	return r.Repository.CreateTx(ctx, tx, record, criteria...)
}

func (r *products) ListByCategory(ctx context.Context, categoryID uuid.UUID) ([]*Product, error) {
	var records []*Product
	err := r.db.NewSelect().Model(&records).
		Where("?TableAlias.category_id = ?", categoryID).
		Order("name ASC").
		Scan(ctx)
	return records, err
}

func (r *products) ListFeatured(ctx context.Context, limit int) ([]*Product, error) {
	if limit <= 0 {
		limit = 8
	}
	var records []*Product
	err := r.db.NewSelect().Model(&records).
		Where("?TableAlias.is_featured = ?", true).
		Order("updated_at DESC").
		Limit(limit).
		Scan(ctx)
	return records, err
}

func (r *products) Search(ctx context.Context, query string, limit int) ([]*Product, error) {
	if limit <= 0 {
		limit = 25
	}

	term := "%" + strings.ToLower(strings.TrimSpace(query)) + "%"

	var records []*Product
	err := r.db.NewSelect().Model(&records).
		WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				Where("LOWER(?TableAlias.name) LIKE ?", term).
				WhereOr("LOWER(?TableAlias.description) LIKE ?", term)
		}).
		Order("name ASC").
		Limit(limit).
		Scan(ctx)
	return records, err
}

// CollectByCategory loads the category's products so callers can release
// their assets before the rows go away.
func (r *products) CollectByCategory(ctx context.Context, categoryID uuid.UUID) ([]*Product, error) {
	return r.ListByCategory(ctx, categoryID)
}

func (r *products) DeleteByID(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.NewDelete().Model((*Product)(nil)).
		Where("?TableAlias.id = ?", id).
		Exec(ctx)
	return err
}

func (r *products) DeleteByCategoryTx(ctx context.Context, tx bun.IDB, categoryID uuid.UUID) error {
	_, err := tx.NewDelete().Model((*Product)(nil)).
		Where("?TableAlias.category_id = ?", categoryID).
		Exec(ctx)
	return err
}

func (r *products) Stats(ctx context.Context) (ProductStats, error) {
	stats := ProductStats{}

	count, err := r.db.NewSelect().Model((*Product)(nil)).Count(ctx)
	if err != nil {
		return stats, err
	}
	stats.ProductCount = count

	count, err = r.db.NewSelect().Model((*Category)(nil)).Count(ctx)
	if err != nil {
		return stats, err
	}
	stats.CategoryCount = count

	count, err = r.db.NewSelect().Model((*Banner)(nil)).Count(ctx)
	if err != nil {
		return stats, err
	}
	stats.BannerCount = count

	err = r.db.NewSelect().Model((*Product)(nil)).
		ColumnExpr("COALESCE(SUM(stock), 0)").
		Scan(ctx, &stats.StockUnits)
	if err != nil {
		return stats, err
	}

	err = r.db.NewSelect().Model((*Product)(nil)).
		ColumnExpr("COALESCE(SUM(price_cents * stock), 0)").
		Scan(ctx, &stats.InventoryCents)
	if err != nil {
		return stats, err
	}

	return stats, nil
}
