// Package memstore provides an in-memory identity.Store for tests and
// local development. Each Store is independent; there is no shared state.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/goliatone/go-identity"
	"github.com/google/uuid"
)

// Store keeps user records in maps guarded by a single mutex, so every
// operation, including UpsertByEmail, is atomic.
type Store struct {
	mu         sync.RWMutex
	byID       map[uuid.UUID]*identity.User
	byEmail    map[string]uuid.UUID
	byProvider map[string]uuid.UUID
	now        func() time.Time
}

var _ identity.Store = (*Store)(nil)

// New returns an empty Store.
func New() *Store {
	return &Store{
		byID:       map[uuid.UUID]*identity.User{},
		byEmail:    map[string]uuid.UUID{},
		byProvider: map[string]uuid.UUID{},
		now:        time.Now,
	}
}

// FindByEmail implements identity.Store.
func (s *Store) FindByEmail(ctx context.Context, email string) (*identity.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[identity.NormalizeEmail(email)]
	if !ok {
		return nil, identity.ErrNotFound
	}
	return clone(s.byID[id]), nil
}

// FindByProviderIdentity implements identity.Store.
func (s *Store) FindByProviderIdentity(ctx context.Context, provider, providerID string) (*identity.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byProvider[providerKey(provider, providerID)]
	if !ok {
		return nil, identity.ErrNotFound
	}
	return clone(s.byID[id]), nil
}

// FindByID implements identity.Store.
func (s *Store) FindByID(ctx context.Context, id string) (*identity.User, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, identity.ErrNotFound
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.byID[parsed]
	if !ok {
		return nil, identity.ErrNotFound
	}
	return clone(user), nil
}

// UpsertByEmail implements identity.Store.
func (s *Store) UpsertByEmail(ctx context.Context, email string, fields identity.UserFields) (*identity.User, identity.UpsertOutcome, error) {
	email = identity.NormalizeEmail(email)
	fields.Email = email

	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byEmail[email]
	if !ok {
		user, err := s.insertLocked(fields)
		if err != nil {
			return nil, identity.UpsertExisting, err
		}
		return user, identity.UpsertInserted, nil
	}

	user := s.byID[id]
	if user.HasProviderIdentity() {
		if !user.LinkedTo(fields.AuthProvider, fields.ProviderID) {
			return nil, identity.UpsertExisting, identity.ErrIdentityConflict
		}
		return clone(user), identity.UpsertExisting, nil
	}

	outcome := identity.UpsertExisting
	if fields.AuthProvider != "" {
		if _, taken := s.byProvider[providerKey(fields.AuthProvider, fields.ProviderID)]; taken {
			return nil, identity.UpsertExisting, identity.ErrIdentityConflict
		}
		user.AuthProvider = fields.AuthProvider
		user.ProviderID = fields.ProviderID
		s.byProvider[providerKey(user.AuthProvider, user.ProviderID)] = user.ID
		outcome = identity.UpsertLinked
	}
	if user.AvatarURL == "" {
		user.AvatarURL = fields.AvatarURL
	}
	user.UpdatedAt = s.now()
	return clone(user), outcome, nil
}

// Insert implements identity.Store.
func (s *Store) Insert(ctx context.Context, fields identity.UserFields) (*identity.User, error) {
	fields.Email = identity.NormalizeEmail(fields.Email)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byEmail[fields.Email]; ok {
		return nil, identity.ErrDuplicateEmail
	}
	return s.insertLocked(fields)
}

// ListAll implements identity.Store. Records are ordered by creation time.
func (s *Store) ListAll(ctx context.Context) ([]*identity.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]*identity.User, 0, len(s.byID))
	for _, user := range s.byID {
		users = append(users, clone(user))
	}
	sort.SliceStable(users, func(i, j int) bool {
		if users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].Email < users[j].Email
		}
		return users[i].CreatedAt.Before(users[j].CreatedAt)
	})
	return users, nil
}

// ListPage implements identity.Store. Ties on creation time are broken by
// email so pages are stable.
func (s *Store) ListPage(ctx context.Context, limit, offset int) ([]*identity.User, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]*identity.User, 0, len(s.byID))
	for _, user := range s.byID {
		users = append(users, user)
	}
	sort.SliceStable(users, func(i, j int) bool {
		if users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].Email < users[j].Email
		}
		return users[i].CreatedAt.After(users[j].CreatedAt)
	})

	total := len(users)
	if offset < 0 {
		offset = 0
	}
	if offset >= total {
		return []*identity.User{}, total, nil
	}
	end := total
	if limit > 0 && offset+limit < total {
		end = offset + limit
	}

	page := make([]*identity.User, 0, end-offset)
	for _, user := range users[offset:end] {
		page = append(page, clone(user))
	}
	return page, total, nil
}

// UpdateProfile implements identity.Store.
func (s *Store) UpdateProfile(ctx context.Context, id, displayName, avatarURL string) (*identity.User, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, identity.ErrNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.byID[parsed]
	if !ok {
		return nil, identity.ErrNotFound
	}
	user.DisplayName = displayName
	user.AvatarURL = avatarURL
	user.UpdatedAt = s.now()
	return clone(user), nil
}

// Len returns the number of stored records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

func (s *Store) insertLocked(fields identity.UserFields) (*identity.User, error) {
	if fields.AuthProvider != "" {
		if _, taken := s.byProvider[providerKey(fields.AuthProvider, fields.ProviderID)]; taken {
			return nil, identity.ErrIdentityConflict
		}
	}

	user := identity.NewUser(fields, s.now())
	s.byID[user.ID] = user
	s.byEmail[user.Email] = user.ID
	if user.HasProviderIdentity() {
		s.byProvider[providerKey(user.AuthProvider, user.ProviderID)] = user.ID
	}
	return clone(user), nil
}

func providerKey(provider, providerID string) string {
	return provider + "\x00" + providerID
}

func clone(u *identity.User) *identity.User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}
