package github

import (
	"testing"

	"github.com/goliatone/go-identity/social"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var octoUser = []byte(`{
	"id": 1234,
	"login": "octo",
	"name": "Octo Cat",
	"email": "",
	"avatar_url": "https://example.com/avatar.png",
	"html_url": "https://github.com/octo"
}`)

func TestParseUserPicksPrimaryVerifiedEmail(t *testing.T) {
	emails := []byte(`[
		{"email": "old@example.com", "primary": false, "verified": true},
		{"email": "octo@example.com", "primary": true, "verified": true}
	]`)

	profile, err := ParseUser(octoUser, emails)
	require.NoError(t, err)

	assert.Equal(t, "github", profile.Provider)
	assert.Equal(t, "1234", profile.ProviderUserID)
	assert.Equal(t, "octo@example.com", profile.Email)
	assert.True(t, profile.EmailVerified)
	assert.Equal(t, "Octo Cat", profile.Name)
	assert.Equal(t, "octo", profile.Username)
	assert.Equal(t, "https://example.com/avatar.png", profile.AvatarURL)
	assert.Equal(t, "https://github.com/octo", profile.Raw["html_url"])
}

func TestParseUserFallsBackToVerifiedEmail(t *testing.T) {
	emails := []byte(`[
		{"email": "primary@example.com", "primary": true, "verified": false},
		{"email": "verified@example.com", "primary": false, "verified": true}
	]`)

	profile, err := ParseUser(octoUser, emails)
	require.NoError(t, err)
	assert.Equal(t, "verified@example.com", profile.Email)
	assert.True(t, profile.EmailVerified)
}

func TestParseUserWithoutEmails(t *testing.T) {
	profile, err := ParseUser(octoUser, nil)
	require.NoError(t, err)
	assert.Empty(t, profile.Email)
	assert.False(t, profile.EmailVerified)

	public := []byte(`{"id": 7, "login": "pub", "email": "pub@example.com"}`)
	profile, err = ParseUser(public, nil)
	require.NoError(t, err)
	assert.Equal(t, "pub@example.com", profile.Email)
	assert.False(t, profile.EmailVerified)
	assert.Equal(t, "pub", profile.DisplayName())
}

func TestParseUserErrors(t *testing.T) {
	_, err := ParseUser([]byte(`nope`), nil)
	assert.True(t, social.IsMalformedProfile(err))

	_, err = ParseUser([]byte(`{"login":"octo"}`), nil)
	assert.ErrorIs(t, err, social.ErrProfileMalformed)

	_, err = ParseUser(octoUser, []byte(`{}`))
	assert.True(t, social.IsMalformedProfile(err))
}
