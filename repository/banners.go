package repository

import (
	"context"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Banners interface {
	repository.Repository[*Banner]

	Create(ctx context.Context, record *Banner, criteria ...repository.InsertCriteria) (*Banner, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *Banner, criteria ...repository.InsertCriteria) (*Banner, error)
	ListActive(ctx context.Context) ([]*Banner, error)
	DeleteByID(ctx context.Context, id uuid.UUID) error
}

type banners struct {
	repository.Repository[*Banner]
	db *bun.DB
}

var _ Banners = (*banners)(nil)

func NewBannersRepository(db *bun.DB) Banners {
	repo := repository.NewRepository[*Banner](db, repository.ModelHandlers[*Banner]{
		NewRecord: func() *Banner { return &Banner{} },
		GetID: func(b *Banner) uuid.UUID {
			if b == nil {
				return uuid.Nil
			}
			return b.ID
		},
		SetID: func(b *Banner, id uuid.UUID) {
			if b != nil {
				b.ID = id
			}
		},
	})

	return &banners{
		Repository: repo,
		db:         db,
	}
}

func (r *banners) Create(ctx context.Context, record *Banner, criteria ...repository.InsertCriteria) (*Banner, error) {
	return r.CreateTx(ctx, r.db, record, criteria...)
}

func (r *banners) CreateTx(ctx context.Context, tx bun.IDB, record *Banner, criteria ...repository.InsertCriteria) (*Banner, error) {
	if record != nil && record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	return r.Repository.CreateTx(ctx, tx, record, criteria...)
}

func (r *banners) DeleteByID(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.NewDelete().Model((*Banner)(nil)).
		Where("?TableAlias.id = ?", id).
		Exec(ctx)
	return err
}

func (r *banners) ListActive(ctx context.Context) ([]*Banner, error) {
	var records []*Banner
	err := r.db.NewSelect().Model(&records).
		Where("?TableAlias.is_active = ?", true).
		Order("position ASC").
		Scan(ctx)
	return records, err
}
