package identity_test

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/goliatone/go-identity"
	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsNotFound(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{name: "Sentinel", err: identity.ErrNotFound, expected: true},
		{name: "Wrapped sentinel", err: fmt.Errorf("lookup: %w", identity.ErrNotFound), expected: true},
		{name: "No rows", err: sql.ErrNoRows, expected: true},
		{name: "Other error", err: errors.New("connection refused"), expected: false},
		{name: "Storage error", err: identity.StorageError(errors.New("boom"), "failed"), expected: false},
		{name: "Nil error", err: nil, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, identity.IsNotFound(tt.err))
		})
	}
}

func TestStorageError(t *testing.T) {
	cause := errors.New("connection reset")
	err := identity.StorageError(cause, "failed to find user by email")

	require.Error(t, err)
	assert.True(t, identity.IsStorageError(err))
	assert.ErrorIs(t, err, cause)

	var richErr *goerrors.Error
	require.True(t, goerrors.As(err, &richErr))
	assert.Equal(t, goerrors.CategoryInternal, richErr.Category)
	assert.Equal(t, identity.TextCodeStorage, richErr.TextCode)

	assert.Nil(t, identity.StorageError(nil, "unused"))
	assert.False(t, identity.IsStorageError(cause))
	assert.False(t, identity.IsStorageError(identity.ErrNotFound))
}

func TestErrorSentinels(t *testing.T) {
	tests := []struct {
		err      *goerrors.Error
		category any
		textCode string
	}{
		{identity.ErrMissingField, goerrors.CategoryValidation, identity.TextCodeMissingField},
		{identity.ErrMissingEmail, goerrors.CategoryValidation, identity.TextCodeMissingEmail},
		{identity.ErrDuplicateEmail, goerrors.CategoryConflict, identity.TextCodeDuplicateEmail},
		{identity.ErrNotFound, goerrors.CategoryNotFound, identity.TextCodeNotFound},
		{identity.ErrNoPasswordCredential, goerrors.CategoryAuth, identity.TextCodeNoPasswordCredential},
		{identity.ErrInvalidCredential, goerrors.CategoryAuth, identity.TextCodeInvalidCredential},
		{identity.ErrIdentityConflict, goerrors.CategoryConflict, identity.TextCodeIdentityConflict},
		{identity.ErrPasswordTooLong, goerrors.CategoryValidation, identity.TextCodePasswordTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.textCode, func(t *testing.T) {
			assert.Equal(t, tt.category, tt.err.Category)
			assert.Equal(t, tt.textCode, tt.err.TextCode)
		})
	}
}
