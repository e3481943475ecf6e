package identity

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the canonical application user record.
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	ID            uuid.UUID `bun:"id,pk,type:uuid" json:"id"`
	Email         string    `bun:"email,notnull,unique" json:"email"`
	DisplayName   string    `bun:"display_name,notnull" json:"display_name"`
	AvatarURL     string    `bun:"avatar_url,nullzero" json:"avatar_url,omitempty"`
	PasswordHash  string    `bun:"password_hash,nullzero" json:"-"`
	AuthProvider  string    `bun:"auth_provider,nullzero" json:"auth_provider,omitempty"`
	ProviderID    string    `bun:"provider_id,nullzero" json:"provider_id,omitempty"`
	CreatedAt     time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt     time.Time `bun:"updated_at,notnull,default:current_timestamp" json:"updated_at"`
}

// HasPassword reports whether the record carries a password credential.
func (u *User) HasPassword() bool {
	return u != nil && u.PasswordHash != ""
}

// HasProviderIdentity reports whether an external identity is linked.
func (u *User) HasProviderIdentity() bool {
	return u != nil && u.AuthProvider != "" && u.ProviderID != ""
}

// LinkedTo reports whether the record is linked to the given provider identity.
func (u *User) LinkedTo(provider, providerID string) bool {
	if !u.HasProviderIdentity() {
		return false
	}
	return u.AuthProvider == provider && u.ProviderID == providerID
}

// UserFields are the writable attributes handed to a Store.
type UserFields struct {
	Email        string
	DisplayName  string
	AvatarURL    string
	PasswordHash string
	AuthProvider string
	ProviderID   string
}

// NewUser builds a record from fields with a fresh ID and timestamps.
func NewUser(fields UserFields, now time.Time) *User {
	return &User{
		ID:           uuid.New(),
		Email:        NormalizeEmail(fields.Email),
		DisplayName:  fields.DisplayName,
		AvatarURL:    fields.AvatarURL,
		PasswordHash: fields.PasswordHash,
		AuthProvider: fields.AuthProvider,
		ProviderID:   fields.ProviderID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// ProviderClaims are the verified identity claims asserted by an
// external identity provider.
type ProviderClaims struct {
	Provider    string
	ProviderID  string
	Email       string
	DisplayName string
	AvatarURL   string
}

// Resolution is the outcome of resolving provider claims.
type Resolution struct {
	User      *User
	IsNewUser bool
	// Linked is set when the provider identity was attached to a record
	// that already existed for the email.
	Linked bool
}

// Page size bounds for ListUsers.
const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

// UserPage is one window of a newest first user listing.
type UserPage struct {
	Users  []*User `json:"users"`
	Total  int     `json:"total"`
	Limit  int     `json:"limit"`
	Offset int     `json:"offset"`
}

// NormalizeEmail trims and lower cases an address. Emails are stored
// normalized so uniqueness and lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func displayNameFallback(name, email string) string {
	if name = strings.TrimSpace(name); name != "" {
		return name
	}
	if local, _, ok := strings.Cut(email, "@"); ok && local != "" {
		return local
	}
	return email
}
