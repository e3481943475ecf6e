package social

import "github.com/goliatone/go-errors"

const (
	TextCodeProfileRequired  = "social_profile_required"
	TextCodeProfileMalformed = "social_profile_malformed"
	TextCodeEmailNotVerified = "social_email_not_verified"
)

// ErrProfileRequired is returned when no provider profile was supplied.
var ErrProfileRequired = errors.New("social profile required", errors.CategoryBadInput).
	WithTextCode(TextCodeProfileRequired).
	WithCode(errors.CodeBadRequest)

// ErrProfileMalformed is returned when a provider payload cannot be decoded.
var ErrProfileMalformed = errors.New("malformed social profile", errors.CategoryBadInput).
	WithTextCode(TextCodeProfileMalformed).
	WithCode(errors.CodeBadRequest)

// ErrEmailNotVerified is returned when a provider email is not verified.
var ErrEmailNotVerified = errors.New("email not verified", errors.CategoryAuth).
	WithTextCode(TextCodeEmailNotVerified).
	WithCode(errors.CodeForbidden)

// MalformedProfile wraps a decoding failure for provider.
func MalformedProfile(err error, provider string) error {
	return errors.Wrap(err, errors.CategoryBadInput, "failed to decode "+provider+" profile").
		WithTextCode(TextCodeProfileMalformed).
		WithCode(errors.CodeBadRequest)
}

// IsMalformedProfile reports whether err is a provider payload decoding failure.
func IsMalformedProfile(err error) bool {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		return false
	}
	return richErr.TextCode == TextCodeProfileMalformed
}
