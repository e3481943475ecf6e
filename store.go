package identity

import "context"

// UpsertOutcome reports what UpsertByEmail did to the record it returns.
type UpsertOutcome int

const (
	// UpsertExisting means the record already carried the provider identity.
	UpsertExisting UpsertOutcome = iota
	// UpsertInserted means a new record was created.
	UpsertInserted
	// UpsertLinked means the provider identity was attached to a record
	// that already owned the email.
	UpsertLinked
)

func (o UpsertOutcome) String() string {
	switch o {
	case UpsertInserted:
		return "inserted"
	case UpsertLinked:
		return "linked"
	default:
		return "existing"
	}
}

// Store is the persistence boundary the Resolver depends on.
//
// Lookups report absence with ErrNotFound. Emails handed to a Store are
// already normalized.
type Store interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByProviderIdentity(ctx context.Context, provider, providerID string) (*User, error)
	FindByID(ctx context.Context, id string) (*User, error)

	// UpsertByEmail atomically inserts a record for email or links the
	// provider identity in fields onto the existing record. The existing
	// record is only updated when it has no provider identity or already
	// carries the same one, otherwise ErrIdentityConflict is returned.
	UpsertByEmail(ctx context.Context, email string, fields UserFields) (*User, UpsertOutcome, error)

	// Insert creates a record, failing with ErrDuplicateEmail when the
	// email is taken.
	Insert(ctx context.Context, fields UserFields) (*User, error)

	ListAll(ctx context.Context) ([]*User, error)

	// ListPage returns up to limit records, newest first, skipping offset
	// records, along with the total number of records.
	ListPage(ctx context.Context, limit, offset int) ([]*User, int, error)

	UpdateProfile(ctx context.Context, id, displayName, avatarURL string) (*User, error)
}
