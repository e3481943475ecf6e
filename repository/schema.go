package repository

import (
	"context"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-identity"
	"github.com/uptrace/bun"
)

// ProviderIdentityIndex is the unique index over the provider identity pair.
const ProviderIdentityIndex = "uq_users_provider_identity"

// CreateSchema creates the users table and its indexes from the model when
// missing. The service applies the embedded SQL migrations instead.
func CreateSchema(ctx context.Context, db bun.IDB) error {
	if _, err := db.NewCreateTable().
		Model((*identity.User)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to create users table")
	}

	if _, err := db.NewCreateIndex().
		Model((*identity.User)(nil)).
		Index(ProviderIdentityIndex).
		Unique().
		IfNotExists().
		Column("auth_provider", "provider_id").
		Exec(ctx); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to create provider identity index")
	}

	return nil
}
