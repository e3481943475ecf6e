package identity

import (
	"database/sql"
	stderrors "errors"
	"sort"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
)

const (
	TextCodeMissingField         = "IDENTITY_MISSING_FIELD"
	TextCodeMissingEmail         = "IDENTITY_MISSING_EMAIL"
	TextCodeDuplicateEmail       = "IDENTITY_DUPLICATE_EMAIL"
	TextCodeNotFound             = "IDENTITY_NOT_FOUND"
	TextCodeNoPasswordCredential = "IDENTITY_NO_PASSWORD"
	TextCodeInvalidCredential    = "IDENTITY_INVALID_CREDENTIAL"
	TextCodeIdentityConflict     = "IDENTITY_CONFLICT"
	TextCodePasswordTooLong      = "IDENTITY_PASSWORD_TOO_LONG"
	TextCodeStorage              = "IDENTITY_STORAGE_ERROR"
)

// ErrMissingField is returned when a required input is empty.
var ErrMissingField = errors.New("missing required field", errors.CategoryValidation).
	WithTextCode(TextCodeMissingField).
	WithCode(errors.CodeBadRequest)

// ErrMissingEmail is returned when a provider did not supply a usable email claim.
var ErrMissingEmail = errors.New("identity provider did not supply an email", errors.CategoryValidation).
	WithTextCode(TextCodeMissingEmail).
	WithCode(errors.CodeBadRequest)

// ErrDuplicateEmail is returned when a record with the email already exists.
var ErrDuplicateEmail = errors.New("email already registered", errors.CategoryConflict).
	WithTextCode(TextCodeDuplicateEmail).
	WithCode(errors.CodeConflict)

// ErrNotFound is returned when no user record matches.
var ErrNotFound = errors.New("user not found", errors.CategoryNotFound).
	WithTextCode(TextCodeNotFound).
	WithCode(errors.CodeNotFound)

// ErrNoPasswordCredential is returned on password login against a
// provider-only account.
var ErrNoPasswordCredential = errors.New("account has no password credential", errors.CategoryAuth).
	WithTextCode(TextCodeNoPasswordCredential).
	WithCode(errors.CodeUnauthorized)

// ErrInvalidCredential is returned when the password does not match.
var ErrInvalidCredential = errors.New("invalid credentials", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredential).
	WithCode(errors.CodeUnauthorized)

// ErrIdentityConflict is returned when an email is already linked to a
// different provider identity, or a provider identity is already linked
// to a different email.
var ErrIdentityConflict = errors.New("conflicting identity link", errors.CategoryConflict).
	WithTextCode(TextCodeIdentityConflict).
	WithCode(errors.CodeConflict)

// ErrPasswordTooLong is returned when a password exceeds what bcrypt can hash.
var ErrPasswordTooLong = errors.New("password too long", errors.CategoryValidation).
	WithTextCode(TextCodePasswordTooLong).
	WithCode(errors.CodeBadRequest)

// missingFields builds a validation error for the failed fields that
// still matches ErrMissingField through errors.Is.
func missingFields(errs validation.Errors) error {
	names := make([]string, 0, len(errs))
	for name := range errs {
		names = append(names, name)
	}
	sort.Strings(names)

	fields := make(errors.ValidationErrors, 0, len(names))
	for _, name := range names {
		fields = append(fields, errors.FieldError{Field: name, Message: errs[name].Error()})
	}

	err := errors.NewValidation(ErrMissingField.Message, fields...).
		WithTextCode(TextCodeMissingField).
		WithCode(errors.CodeBadRequest)
	err.Source = ErrMissingField
	return err
}

// StorageError wraps a failure of the storage collaborator.
func StorageError(err error, message string) error {
	if err == nil {
		return nil
	}
	return errors.Wrap(err, errors.CategoryInternal, message).
		WithTextCode(TextCodeStorage)
}

// IsStorageError reports whether err was produced by StorageError.
func IsStorageError(err error) bool {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		return false
	}
	return richErr.TextCode == TextCodeStorage
}

// IsNotFound reports whether a store error means the record is absent.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	return stderrors.Is(err, ErrNotFound) ||
		stderrors.Is(err, sql.ErrNoRows) ||
		repository.IsRecordNotFound(err)
}
