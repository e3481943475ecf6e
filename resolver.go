package identity

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/google/uuid"
)

// Resolver maps verified identity claims onto canonical user records.
// It keeps no state between calls beyond what lives in the Store.
type Resolver struct {
	store          Store
	hasher         PasswordHasher
	refreshProfile bool
	activity       ActivitySink
	logger         Logger
	provider       LoggerProvider
	now            func() time.Time
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithPasswordHasher overrides the default bcrypt hasher.
func WithPasswordHasher(h PasswordHasher) ResolverOption {
	return func(r *Resolver) {
		if h != nil {
			r.hasher = h
		}
	}
}

// WithProfileRefresh makes provider logins refresh display name and
// avatar on an already linked record.
func WithProfileRefresh(enabled bool) ResolverOption {
	return func(r *Resolver) {
		r.refreshProfile = enabled
	}
}

// WithActivitySink registers a sink for resolution events.
func WithActivitySink(sink ActivitySink) ResolverOption {
	return func(r *Resolver) {
		r.activity = normalizeActivitySink(sink)
	}
}

// WithLogger sets the fallback logger, used when no provider is set or the
// provider returns nil.
func WithLogger(l Logger) ResolverOption {
	return func(r *Resolver) {
		r.logger = l
	}
}

// WithLoggerProvider resolves the resolver logger from provider.
func WithLoggerProvider(p LoggerProvider) ResolverOption {
	return func(r *Resolver) {
		r.provider = p
	}
}

// WithClock overrides the time source used for activity events.
func WithClock(now func() time.Time) ResolverOption {
	return func(r *Resolver) {
		if now != nil {
			r.now = now
		}
	}
}

// NewResolver creates a Resolver on top of store.
func NewResolver(store Store, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		store:    store,
		hasher:   NewBcryptHasher(DefaultPasswordCost),
		activity: noopActivitySink{},
		now:      time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	r.provider, r.logger = ResolveLogger("identity.resolver", r.provider, r.logger)
	return r
}

// ResolveByPassword returns the record for email when password matches
// its password credential.
func (r *Resolver) ResolveByPassword(ctx context.Context, email, password string) (*User, error) {
	email = NormalizeEmail(email)

	if err := requireFields(validation.Errors{
		"email":    validation.Validate(email, validation.Required),
		"password": validation.Validate(password, validation.Required),
	}); err != nil {
		r.logger.Debug("password resolution rejected", "error", err)
		return nil, err
	}

	user, err := r.store.FindByEmail(ctx, email)
	if err != nil {
		if IsNotFound(err) {
			r.recordFailure(ctx, email, ErrNotFound)
			return nil, ErrNotFound
		}
		r.logger.Error("password resolution lookup failed", "error", err)
		return nil, StorageError(err, "failed to find user by email")
	}

	if !user.HasPassword() {
		r.recordFailure(ctx, email, ErrNoPasswordCredential)
		return nil, ErrNoPasswordCredential
	}

	if err := r.hasher.ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		// a hash that cannot be compared never authenticates
		if !stderrors.Is(err, ErrInvalidCredential) {
			r.logger.Error("password comparison failed", "error", err, "user_id", user.ID.String())
		}
		r.recordFailure(ctx, email, ErrInvalidCredential)
		return nil, ErrInvalidCredential
	}

	r.record(ctx, ActivityEvent{
		EventType: ActivityEventPasswordSuccess,
		UserID:    user.ID.String(),
		Email:     user.Email,
	})

	return user, nil
}

// ResolveBySignup creates a password account.
func (r *Resolver) ResolveBySignup(ctx context.Context, email, displayName, password string) (*User, error) {
	email = NormalizeEmail(email)
	displayName = strings.TrimSpace(displayName)

	if err := requireFields(validation.Errors{
		"email":        validation.Validate(email, validation.Required),
		"display_name": validation.Validate(displayName, validation.Required),
		"password":     validation.Validate(password, validation.Required),
	}); err != nil {
		r.logger.Debug("signup rejected", "error", err)
		return nil, err
	}

	hash, err := r.hasher.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user, err := r.store.Insert(ctx, UserFields{
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: hash,
	})
	if err != nil {
		if stderrors.Is(err, ErrDuplicateEmail) {
			return nil, ErrDuplicateEmail
		}
		r.logger.Error("signup insert failed", "error", err)
		return nil, StorageError(err, "failed to create user")
	}

	r.record(ctx, ActivityEvent{
		EventType: ActivityEventUserCreated,
		UserID:    user.ID.String(),
		Email:     user.Email,
	})

	return user, nil
}

// ResolveByProvider resolves claims from an external identity provider.
//
// An exact provider identity match wins. Otherwise a single upsert keyed on
// email either creates the record or links the identity onto the record
// that already owns the email.
func (r *Resolver) ResolveByProvider(ctx context.Context, claims ProviderClaims) (*Resolution, error) {
	provider := strings.ToLower(strings.TrimSpace(claims.Provider))
	providerID := strings.TrimSpace(claims.ProviderID)
	email := NormalizeEmail(claims.Email)

	if err := requireFields(validation.Errors{
		"provider":    validation.Validate(provider, validation.Required),
		"provider_id": validation.Validate(providerID, validation.Required),
	}); err != nil {
		r.logger.Debug("provider resolution rejected", "error", err)
		return nil, err
	}

	if email == "" {
		return nil, ErrMissingEmail
	}

	displayName := strings.TrimSpace(claims.DisplayName)
	avatarURL := strings.TrimSpace(claims.AvatarURL)

	existing, err := r.store.FindByProviderIdentity(ctx, provider, providerID)
	if err == nil && existing != nil {
		user, err := r.maybeRefresh(ctx, existing, displayName, avatarURL)
		if err != nil {
			return nil, err
		}
		r.recordProviderLogin(ctx, user, provider)
		return &Resolution{User: user}, nil
	}
	if err != nil && !IsNotFound(err) {
		r.logger.Error("provider identity lookup failed", "error", err, "provider", provider)
		return nil, StorageError(err, "failed to find user by provider identity")
	}

	user, outcome, err := r.store.UpsertByEmail(ctx, email, UserFields{
		Email:        email,
		DisplayName:  displayNameFallback(displayName, email),
		AvatarURL:    avatarURL,
		AuthProvider: provider,
		ProviderID:   providerID,
	})
	if err != nil {
		if stderrors.Is(err, ErrIdentityConflict) {
			r.logger.Warn("provider identity conflicts with existing link", "provider", provider, "email", email)
			return nil, ErrIdentityConflict
		}
		r.logger.Error("provider upsert failed", "error", err, "provider", provider)
		return nil, StorageError(err, "failed to upsert user by email")
	}

	result := &Resolution{
		User:      user,
		IsNewUser: outcome == UpsertInserted,
		Linked:    outcome == UpsertLinked,
	}

	switch outcome {
	case UpsertInserted:
		r.record(ctx, ActivityEvent{
			EventType: ActivityEventUserCreated,
			UserID:    user.ID.String(),
			Email:     user.Email,
			Provider:  provider,
		})
	case UpsertLinked:
		r.record(ctx, ActivityEvent{
			EventType: ActivityEventIdentityLinked,
			UserID:    user.ID.String(),
			Email:     user.Email,
			Provider:  provider,
		})
	default:
		// a concurrent first login linked the identity between the
		// lookup and the upsert
		r.recordProviderLogin(ctx, user, provider)
	}

	return result, nil
}

// GetAllUsers lists every record.
func (r *Resolver) GetAllUsers(ctx context.Context) ([]*User, error) {
	users, err := r.store.ListAll(ctx)
	if err != nil {
		return nil, StorageError(err, "failed to list users")
	}
	if users == nil {
		users = []*User{}
	}
	return users, nil
}

// ListUsers returns one page of records, newest first. A limit outside
// 1..MaxPageLimit falls back to DefaultPageLimit or MaxPageLimit, and a
// negative offset is treated as zero.
func (r *Resolver) ListUsers(ctx context.Context, limit, offset int) (*UserPage, error) {
	switch {
	case limit <= 0:
		limit = DefaultPageLimit
	case limit > MaxPageLimit:
		limit = MaxPageLimit
	}
	if offset < 0 {
		offset = 0
	}

	users, total, err := r.store.ListPage(ctx, limit, offset)
	if err != nil {
		return nil, StorageError(err, "failed to list users")
	}
	if users == nil {
		users = []*User{}
	}
	return &UserPage{Users: users, Total: total, Limit: limit, Offset: offset}, nil
}

// GetUserByID returns the record with id.
func (r *Resolver) GetUserByID(ctx context.Context, id string) (*User, error) {
	id = strings.TrimSpace(id)
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}

	user, err := r.store.FindByID(ctx, id)
	if err != nil {
		if IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, StorageError(err, "failed to find user by id")
	}
	return user, nil
}

func (r *Resolver) maybeRefresh(ctx context.Context, user *User, displayName, avatarURL string) (*User, error) {
	if !r.refreshProfile {
		return user, nil
	}
	// empty claims keep the stored values
	if displayName == "" {
		displayName = user.DisplayName
	}
	if avatarURL == "" {
		avatarURL = user.AvatarURL
	}
	if user.DisplayName == displayName && user.AvatarURL == avatarURL {
		return user, nil
	}

	updated, err := r.store.UpdateProfile(ctx, user.ID.String(), displayName, avatarURL)
	if err != nil {
		r.logger.Error("profile refresh failed", "error", err, "user_id", user.ID.String())
		return nil, StorageError(err, "failed to refresh user profile")
	}
	return updated, nil
}

func (r *Resolver) recordProviderLogin(ctx context.Context, user *User, provider string) {
	r.record(ctx, ActivityEvent{
		EventType: ActivityEventProviderLogin,
		UserID:    user.ID.String(),
		Email:     user.Email,
		Provider:  provider,
	})
}

func (r *Resolver) recordFailure(ctx context.Context, email string, reason error) {
	r.record(ctx, ActivityEvent{
		EventType: ActivityEventPasswordFailure,
		Email:     email,
		Metadata:  map[string]any{"reason": reason.Error()},
	})
}

func (r *Resolver) record(ctx context.Context, event ActivityEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = r.now()
	}
	if err := r.activity.Record(ctx, event); err != nil {
		r.logger.Warn("activity sink error", "error", err, "event", string(event.EventType))
	}
}

// requireFields returns ErrMissingField carrying the failed fields, or nil.
func requireFields(errs validation.Errors) error {
	filtered, ok := errs.Filter().(validation.Errors)
	if !ok || len(filtered) == 0 {
		return nil
	}
	return missingFields(filtered)
}
