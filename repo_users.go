package storefront

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-storefront/assets"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

var UpdateUserRoleSQL = `UPDATE "users" AS "usr"
SET
	"user_role" = ?,
	"updated_at" = CURRENT_TIMESTAMP
WHERE
	"usr"."deleted_at" IS NULL
AND (
	"usr"."id" = ?
) RETURNING *;`

var UpdateUserAvatarSQL = `UPDATE "users" AS "usr"
SET
	"avatar_url" = ?,
	"avatar_origin" = ?,
	"avatar_external_id" = ?,
	"updated_at" = CURRENT_TIMESTAMP
WHERE
	"usr"."deleted_at" IS NULL
AND (
	"usr"."id" = ?
) RETURNING *;`

var TouchLastLoginSQL = `UPDATE "users" AS "usr"
SET
	"last_login_at" = ?
WHERE
	("usr".id = ?)
	AND "usr"."deleted_at" IS NULL;`

type Users interface {
	repository.Repository[*User]

	GetBySubject(ctx context.Context, subject string) (*User, error)
	GetBySubjectTx(ctx context.Context, tx bun.IDB, subject string) (*User, error)

	Create(ctx context.Context, record *User, criteria ...repository.InsertCriteria) (*User, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *User, criteria ...repository.InsertCriteria) (*User, error)

	TouchLastLogin(ctx context.Context, user *User) error
	TouchLastLoginTx(ctx context.Context, tx bun.IDB, user *User) error

	UpdateRole(ctx context.Context, id uuid.UUID, role UserRole) (*User, error)
	UpdateRoleTx(ctx context.Context, tx bun.IDB, id uuid.UUID, role UserRole) (*User, error)

	UpdateAvatar(ctx context.Context, id uuid.UUID, ref assets.Reference) (*User, error)
	UpdateAvatarTx(ctx context.Context, tx bun.IDB, id uuid.UUID, ref assets.Reference) (*User, error)
}

type users struct {
	repository.Repository[*User]
	db *bun.DB
}

var (
	_ Users                        = (*users)(nil)
	_ repository.Repository[*User] = (*users)(nil)
)

func NewUsersRepository(db *bun.DB) Users {
	repo := repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(u *User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
	})

	return &users{
		Repository: repo,
		db:         db,
	}
}

func (a *users) GetBySubject(ctx context.Context, subject string) (*User, error) {
	return a.GetBySubjectTx(ctx, a.db, subject)
}

func (a *users) GetBySubjectTx(ctx context.Context, tx bun.IDB, subject string) (*User, error) {
	record := &User{}
	err := tx.NewSelect().Model(record).
		Where("?TableAlias.subject = ?", strings.TrimSpace(subject)).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"subject": subject,
				})
		}
		return nil, err
	}

	return record, nil
}

func (a *users) GetByIdentifier(ctx context.Context, identifier string, criteria ...repository.SelectCriteria) (*User, error) {
	return a.GetByIdentifierTx(ctx, a.db, identifier, criteria...)
}

func (a *users) GetByIdentifierTx(ctx context.Context, tx bun.IDB, identifier string, criteria ...repository.SelectCriteria) (*User, error) {
	options := resolveUserIdentifier(identifier)
	if len(options) == 0 {
		options = []identifierOption{
			{
				column: "id",
				value:  strings.TrimSpace(identifier),
			},
		}
	}

	for _, opt := range options {
		record := &User{}
		q := tx.NewSelect().Model(record)

		for _, c := range criteria {
			q.Apply(c)
		}

		err := q.
			Where(fmt.Sprintf("?TableAlias.%s = ?", opt.column), opt.value).
			Limit(1).
			Scan(ctx)

		if err != nil {
			if repository.IsRecordNotFound(err) {
				continue
			}
			return nil, err
		}

		return record, nil
	}

	return nil, repository.NewRecordNotFound().
		WithMetadata(map[string]any{
			"identifier": identifier,
		})
}

func (a *users) Create(ctx context.Context, record *User, criteria ...repository.InsertCriteria) (*User, error) {
	return a.CreateTx(ctx, a.db, record, criteria...)
}

func (a *users) CreateTx(ctx context.Context, tx bun.IDB, record *User, criteria ...repository.InsertCriteria) (*User, error) {
	prepareUserDefaults(record)
	return a.Repository.CreateTx(ctx, tx, record, criteria...)
}

func (a *users) TouchLastLogin(ctx context.Context, user *User) error {
	return a.TouchLastLoginTx(ctx, a.db, user)
}

func (a *users) TouchLastLoginTx(ctx context.Context, tx bun.IDB, user *User) error {
	// NOTE: Updating using the ORM fails due to a bug, it wont reset
	// nullzero timestamp fields.
	lastLoginAt := time.Now()
	_, err := tx.NewRaw(TouchLastLoginSQL, lastLoginAt, user.ID).Exec(ctx)

	return err
}

func (a *users) UpdateRole(ctx context.Context, id uuid.UUID, role UserRole) (*User, error) {
	return a.UpdateRoleTx(ctx, a.db, id, role)
}

func (a *users) UpdateRoleTx(ctx context.Context, tx bun.IDB, id uuid.UUID, role UserRole) (*User, error) {
	res, err := a.Repository.RawTx(ctx, tx, UpdateUserRoleSQL, role, id.String())
	if err != nil {
		return nil, err
	}

	if len(res) == 0 {
		return nil, repository.NewRecordNotFound().
			WithMetadata(map[string]any{
				"id": id.String(),
			})
	}

	return res[0], nil
}

// UpdateAvatar writes the avatar columns and nothing else. The avatar swap
// must not touch identity or role columns, so it goes through explicit SQL
// instead of a record update.
func (a *users) UpdateAvatar(ctx context.Context, id uuid.UUID, ref assets.Reference) (*User, error) {
	return a.UpdateAvatarTx(ctx, a.db, id, ref)
}

func (a *users) UpdateAvatarTx(ctx context.Context, tx bun.IDB, id uuid.UUID, ref assets.Reference) (*User, error) {
	res, err := a.Repository.RawTx(ctx, tx, UpdateUserAvatarSQL, ref.URL, ref.Origin, ref.ExternalID, id.String())
	if err != nil {
		return nil, err
	}

	if len(res) == 0 {
		return nil, repository.NewRecordNotFound().
			WithMetadata(map[string]any{
				"id": id.String(),
			})
	}

	return res[0], nil
}

func prepareUserDefaults(record *User) {
	if record == nil {
		return
	}

	if record.Role == "" {
		record.Role = RoleUser
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
}

type identifierOption struct {
	column string
	value  string
}

func resolveUserIdentifier(identifier string) []identifierOption {
	trimmed := strings.TrimSpace(identifier)
	if trimmed == "" {
		return nil
	}

	options := make([]identifierOption, 0, 3)

	if isUUID(trimmed) {
		options = append(options, identifierOption{
			column: "id",
			value:  trimmed,
		})
	}

	if isEmail(trimmed) {
		options = append(options, identifierOption{
			column: "email",
			value:  trimmed,
		})
	}

	options = append(options, identifierOption{
		column: "subject",
		value:  trimmed,
	})

	return options
}

func isEmail(email string) bool {
	_, err := mail.ParseAddress(email)
	return err == nil
}

func isUUID(identifier string) bool {
	_, err := uuid.Parse(identifier)
	return err == nil
}
