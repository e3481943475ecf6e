package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goliatone/go-identity/social"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadProfileGoogleFromStdin(t *testing.T) {
	stdin := strings.NewReader(`{"sub":"g1","email":"a@x.com","email_verified":true,"name":"A"}`)

	profile, err := readProfile("google", nil, stdin)
	require.NoError(t, err)
	assert.Equal(t, "google", profile.Provider)
	assert.Equal(t, "g1", profile.ProviderUserID)
	assert.True(t, profile.EmailVerified)
}

func TestReadProfileGithubFromFiles(t *testing.T) {
	dir := t.TempDir()
	userPath := filepath.Join(dir, "user.json")
	emailsPath := filepath.Join(dir, "emails.json")
	require.NoError(t, os.WriteFile(userPath, []byte(`{"id":9,"login":"octo"}`), 0o600))
	require.NoError(t, os.WriteFile(emailsPath, []byte(`[{"email":"octo@x.com","primary":true,"verified":true}]`), 0o600))

	profile, err := readProfile("github", []string{userPath, emailsPath}, strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, "9", profile.ProviderUserID)
	assert.Equal(t, "octo@x.com", profile.Email)
	assert.True(t, profile.EmailVerified)
}

func TestReadProfileErrors(t *testing.T) {
	_, err := readProfile("gitlab", nil, strings.NewReader("{}"))
	assert.Error(t, err)

	_, err = readProfile("google", nil, strings.NewReader("not json"))
	assert.True(t, social.IsMalformedProfile(err))

	_, err = readProfile("google", []string{filepath.Join(t.TempDir(), "missing.json")}, nil)
	assert.Error(t, err)
}
