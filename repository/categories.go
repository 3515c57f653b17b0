package repository

import (
	"context"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Categories interface {
	repository.Repository[*Category]

	Create(ctx context.Context, record *Category, criteria ...repository.InsertCriteria) (*Category, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *Category, criteria ...repository.InsertCriteria) (*Category, error)
	ListOrdered(ctx context.Context) ([]*Category, error)
	DeleteCascade(ctx context.Context, id uuid.UUID) error
	DeleteCascadeTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error
}

type categories struct {
	repository.Repository[*Category]
	db       *bun.DB
	products Products
}

var _ Categories = (*categories)(nil)

func NewCategoriesRepository(db *bun.DB, products Products) Categories {
	repo := repository.NewRepository[*Category](db, repository.ModelHandlers[*Category]{
		NewRecord: func() *Category { return &Category{} },
		GetID: func(c *Category) uuid.UUID {
			if c == nil {
				return uuid.Nil
			}
			return c.ID
		},
		SetID: func(c *Category, id uuid.UUID) {
			if c != nil {
				c.ID = id
			}
		},
	})

	return &categories{
		Repository: repo,
		db:         db,
		products:   products,
	}
}

func (r *categories) Create(ctx context.Context, record *Category, criteria ...repository.InsertCriteria) (*Category, error) {
	return r.CreateTx(ctx, r.db, record, criteria...)
}

func (r *categories) CreateTx(ctx context.Context, tx bun.IDB, record *Category, criteria ...repository.InsertCriteria) (*Category, error) {
	if record != nil && record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	return r.Repository.CreateTx(ctx, tx, record, criteria...)
}

func (r *categories) ListOrdered(ctx context.Context) ([]*Category, error) {
	var records []*Category
	err := r.db.NewSelect().Model(&records).
		Order("position ASC", "name ASC").
		Scan(ctx)
	return records, err
}

func (r *categories) DeleteCascade(ctx context.Context, id uuid.UUID) error {
	return r.DeleteCascadeTx(ctx, r.db, id)
}

// DeleteCascadeTx removes the category and its products in one transaction
// scope. Products go first so a failure never leaves products pointing at a
// deleted category.
func (r *categories) DeleteCascadeTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error {
	if err := r.products.DeleteByCategoryTx(ctx, tx, id); err != nil {
		return err
	}

	_, err := tx.NewDelete().Model((*Category)(nil)).
		Where("?TableAlias.id = ?", id).
		Exec(ctx)
	return err
}
