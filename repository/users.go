package repository

import (
	"context"
	"database/sql"
	stderrors "errors"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-identity"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/uptrace/bun"
)

// UpsertByEmailSQL inserts a user or links the provider identity onto the
// row that owns the email. The update only applies when the row has no
// provider identity or already carries the same one; otherwise no row is
// returned. updated_at only moves when the identity is attached, which is
// how a link is told apart from a row that was already linked.
var UpsertByEmailSQL = `INSERT INTO "users" (
	"id", "email", "display_name", "avatar_url", "auth_provider", "provider_id", "created_at", "updated_at"
) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT ("email") DO UPDATE SET
	"auth_provider" = EXCLUDED."auth_provider",
	"provider_id" = EXCLUDED."provider_id",
	"avatar_url" = COALESCE("users"."avatar_url", EXCLUDED."avatar_url"),
	"updated_at" = CASE WHEN "users"."auth_provider" IS NULL
		THEN EXCLUDED."updated_at" ELSE "users"."updated_at" END
WHERE "users"."auth_provider" IS NULL
	OR ("users"."auth_provider" = EXCLUDED."auth_provider" AND "users"."provider_id" = EXCLUDED."provider_id")
RETURNING *;`

// UserRepository implements identity.Store using Bun.
type UserRepository struct {
	repository.Repository[*identity.User]
	db  *bun.DB
	now func() time.Time

	mu   sync.Mutex
	last time.Time
}

var _ identity.Store = (*UserRepository)(nil)

// NewUserRepository creates a new repository.
func NewUserRepository(db *bun.DB) *UserRepository {
	repo := repository.NewRepository[*identity.User](db, repository.ModelHandlers[*identity.User]{
		NewRecord: func() *identity.User { return &identity.User{} },
		GetID: func(u *identity.User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *identity.User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
	})

	return &UserRepository{
		Repository: repo,
		db:         db,
		now:        defaultNow,
	}
}

// timestamps are kept at microsecond precision so values read back from
// either dialect compare equal to the ones written
func defaultNow() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// stamp returns strictly increasing timestamps, so the updated_at an
// upsert writes is never one a concurrent caller wrote.
func (r *UserRepository) stamp() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if !now.After(r.last) {
		now = r.last.Add(time.Microsecond)
	}
	r.last = now
	return now
}

// FindByEmail implements identity.Store.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*identity.User, error) {
	return r.findOne(ctx, "?TableAlias.email = ?", identity.NormalizeEmail(email))
}

// FindByProviderIdentity implements identity.Store.
func (r *UserRepository) FindByProviderIdentity(ctx context.Context, provider, providerID string) (*identity.User, error) {
	return r.findOne(ctx, "?TableAlias.auth_provider = ? AND ?TableAlias.provider_id = ?", provider, providerID)
}

// FindByID implements identity.Store.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*identity.User, error) {
	user, err := r.Repository.GetByID(ctx, id)
	if err != nil {
		if identity.IsNotFound(err) {
			return nil, identity.ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

// UpsertByEmail implements identity.Store.
func (r *UserRepository) UpsertByEmail(ctx context.Context, email string, fields identity.UserFields) (*identity.User, identity.UpsertOutcome, error) {
	fields.Email = email
	candidate := identity.NewUser(fields, r.stamp())

	record := &identity.User{}
	err := r.db.NewRaw(UpsertByEmailSQL,
		candidate.ID,
		candidate.Email,
		candidate.DisplayName,
		nullString(candidate.AvatarURL),
		nullString(candidate.AuthProvider),
		nullString(candidate.ProviderID),
		candidate.CreatedAt,
		candidate.UpdatedAt,
	).Scan(ctx, record)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, identity.UpsertExisting, identity.ErrIdentityConflict
		}
		if isUniqueViolation(err) {
			// the email arbiter passed, so the provider identity is owned
			// by another email
			return nil, identity.UpsertExisting, identity.ErrIdentityConflict
		}
		return nil, identity.UpsertExisting, err
	}

	switch {
	case record.ID == candidate.ID:
		return record, identity.UpsertInserted, nil
	case record.UpdatedAt.Equal(candidate.UpdatedAt):
		return record, identity.UpsertLinked, nil
	default:
		return record, identity.UpsertExisting, nil
	}
}

// Insert implements identity.Store.
func (r *UserRepository) Insert(ctx context.Context, fields identity.UserFields) (*identity.User, error) {
	record := identity.NewUser(fields, r.now())

	_, err := r.db.NewInsert().
		Model(record).
		Exec(ctx)
	if err != nil {
		if isUniqueViolation(err) {
			if violatesEmail(err) {
				return nil, identity.ErrDuplicateEmail
			}
			return nil, identity.ErrIdentityConflict
		}
		return nil, err
	}

	return record, nil
}

// ListAll implements identity.Store.
func (r *UserRepository) ListAll(ctx context.Context) ([]*identity.User, error) {
	users := []*identity.User{}
	err := r.db.NewSelect().
		Model(&users).
		OrderExpr("?TableAlias.created_at ASC, ?TableAlias.email ASC").
		Scan(ctx)
	if err != nil && !stderrors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	return users, nil
}

// ListPage implements identity.Store.
func (r *UserRepository) ListPage(ctx context.Context, limit, offset int) ([]*identity.User, int, error) {
	if offset < 0 {
		offset = 0
	}
	return r.Repository.List(ctx,
		repository.Paginate(limit, offset),
		repository.OrderBy("created_at DESC", "email ASC"),
	)
}

// UpdateProfile implements identity.Store.
func (r *UserRepository) UpdateProfile(ctx context.Context, id, displayName, avatarURL string) (*identity.User, error) {
	record := &identity.User{}
	err := r.db.NewUpdate().
		Model(record).
		Set("display_name = ?", displayName).
		Set("avatar_url = ?", nullString(avatarURL)).
		Set("updated_at = ?", r.now()).
		Where("id = ?", id).
		Returning("*").
		Scan(ctx)
	if err != nil {
		if identity.IsNotFound(err) {
			return nil, identity.ErrNotFound
		}
		return nil, err
	}
	return record, nil
}

func (r *UserRepository) findOne(ctx context.Context, where string, args ...any) (*identity.User, error) {
	record := &identity.User{}
	err := r.db.NewSelect().
		Model(record).
		Where(where, args...).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if identity.IsNotFound(err) {
			return nil, identity.ErrNotFound
		}
		return nil, err
	}
	return record, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if stderrors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}

func violatesEmail(err error) bool {
	var pgErr *pgconn.PgError
	if stderrors.As(err, &pgErr) {
		return strings.Contains(pgErr.ConstraintName, "email")
	}
	return strings.Contains(strings.ToLower(err.Error()), "email")
}
