package repository

import (
	"context"
	"database/sql"
	"errors"
	"log"

	"github.com/uptrace/bun"
)

// Manager exposes the catalog repositories.
type Manager interface {
	Categories() Categories
	Banners() Banners
	Products() Products
	Validate() error
	MustValidate()
	RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error
}

type mngr struct {
	db         *bun.DB
	categories Categories
	banners    Banners
	products   Products
}

func NewManager(db *bun.DB) Manager {
	products := NewProductsRepository(db)
	return &mngr{
		db:         db,
		products:   products,
		categories: NewCategoriesRepository(db, products),
		banners:    NewBannersRepository(db),
	}
}

func (m mngr) Categories() Categories { return m.categories }
func (m mngr) Banners() Banners      { return m.banners }
func (m mngr) Products() Products    { return m.products }

func (m mngr) Validate() error {
	if m.categories == nil {
		return errors.New("repository categories should be initialized")
	}

	if m.banners == nil {
		return errors.New("repository banners should be initialized")
	}

	if m.products == nil {
		return errors.New("repository products should be initialized")
	}

	return nil
}

func (m mngr) MustValidate() {
	if err := m.Validate(); err != nil {
		log.Panic(err)
	}
}

func (m mngr) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return m.db.RunInTx(ctx, opts, f)
	}
}
