package social

import (
	"strings"

	"github.com/goliatone/go-identity"
)

// Profile represents normalized user information from a social provider.
type Profile struct {
	ProviderUserID string
	Provider       string
	Email          string
	EmailVerified  bool
	Name           string
	FirstName      string
	LastName       string
	Username       string
	AvatarURL      string
	Raw            map[string]any
}

// DisplayName returns the best available human readable name.
func (p *Profile) DisplayName() string {
	if p == nil {
		return ""
	}
	if name := strings.TrimSpace(p.Name); name != "" {
		return name
	}
	if full := strings.TrimSpace(strings.TrimSpace(p.FirstName) + " " + strings.TrimSpace(p.LastName)); full != "" {
		return full
	}
	return strings.TrimSpace(p.Username)
}

// Claims converts the profile into resolver claims.
func (p *Profile) Claims() identity.ProviderClaims {
	if p == nil {
		return identity.ProviderClaims{}
	}
	return identity.ProviderClaims{
		Provider:    p.Provider,
		ProviderID:  p.ProviderUserID,
		Email:       p.Email,
		DisplayName: p.DisplayName(),
		AvatarURL:   p.AvatarURL,
	}
}
