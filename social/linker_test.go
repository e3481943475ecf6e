package social_test

import (
	"context"
	"testing"

	"github.com/goliatone/go-identity"
	"github.com/goliatone/go-identity/memstore"
	"github.com/goliatone/go-identity/social"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileDisplayNameFallbacks(t *testing.T) {
	tests := []struct {
		name    string
		profile *social.Profile
		want    string
	}{
		{name: "nil", profile: nil, want: ""},
		{name: "name", profile: &social.Profile{Name: " Jane Doe ", FirstName: "J", Username: "jd"}, want: "Jane Doe"},
		{name: "first and last", profile: &social.Profile{FirstName: "Jane", LastName: "Doe", Username: "jd"}, want: "Jane Doe"},
		{name: "first only", profile: &social.Profile{FirstName: "Jane"}, want: "Jane"},
		{name: "username", profile: &social.Profile{Username: "octo"}, want: "octo"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.profile.DisplayName())
		})
	}
}

func TestProfileClaims(t *testing.T) {
	profile := &social.Profile{
		Provider:       "google",
		ProviderUserID: "g123",
		Email:          "jane@example.com",
		EmailVerified:  true,
		FirstName:      "Jane",
		LastName:       "Doe",
		AvatarURL:      "https://example.com/a.png",
	}

	claims := profile.Claims()
	assert.Equal(t, identity.ProviderClaims{
		Provider:    "google",
		ProviderID:  "g123",
		Email:       "jane@example.com",
		DisplayName: "Jane Doe",
		AvatarURL:   "https://example.com/a.png",
	}, claims)
}

func TestLinkerRejectsNilProfile(t *testing.T) {
	linker := social.NewLinker(identity.NewResolver(memstore.New()), nil)

	_, err := linker.Resolve(context.Background(), nil)
	require.ErrorIs(t, err, social.ErrProfileRequired)
}

func TestLinkerRejectsUnverifiedEmail(t *testing.T) {
	store := memstore.New()
	linker := social.NewLinker(identity.NewResolver(store), nil)

	_, err := linker.Resolve(context.Background(), &social.Profile{
		Provider:       "github",
		ProviderUserID: "1",
		Email:          "octo@example.com",
	})
	require.ErrorIs(t, err, social.ErrEmailNotVerified)
	assert.Zero(t, store.Len())
}

func TestLinkerAllowsUnverifiedWhenDisabled(t *testing.T) {
	store := memstore.New()
	linker := social.NewLinker(identity.NewResolver(store), nil)
	linker.RequireEmailVerified = false

	res, err := linker.Resolve(context.Background(), &social.Profile{
		Provider:       "github",
		ProviderUserID: "1",
		Email:          "octo@example.com",
		Username:       "octo",
	})
	require.NoError(t, err)
	assert.True(t, res.IsNewUser)
	assert.Equal(t, "octo", res.User.DisplayName)
}

func TestLinkerMissingEmailSurfacesResolverError(t *testing.T) {
	linker := social.NewLinker(identity.NewResolver(memstore.New()), nil)

	_, err := linker.Resolve(context.Background(), &social.Profile{
		Provider:       "github",
		ProviderUserID: "1",
	})
	require.ErrorIs(t, err, identity.ErrMissingEmail)
}

func TestLinkerLinksOntoPasswordAccount(t *testing.T) {
	ctx := context.Background()
	resolver := identity.NewResolver(memstore.New(), identity.WithPasswordHasher(identity.NewBcryptHasher(4)))

	existing, err := resolver.ResolveBySignup(ctx, "jane@example.com", "Jane", "pw123")
	require.NoError(t, err)

	linker := social.NewLinker(resolver, nil)
	res, err := linker.Resolve(ctx, &social.Profile{
		Provider:       "google",
		ProviderUserID: "g123",
		Email:          "Jane@Example.com",
		EmailVerified:  true,
		Name:           "Jane G",
	})
	require.NoError(t, err)
	assert.False(t, res.IsNewUser)
	assert.True(t, res.Linked)
	assert.Equal(t, existing.ID, res.User.ID)
	assert.Equal(t, "google", res.User.AuthProvider)
	assert.Equal(t, "g123", res.User.ProviderID)
}
