// Package google maps Google OpenID Connect userinfo documents onto
// social profiles.
package google

import (
	"encoding/json"

	"github.com/goliatone/go-identity/social"
)

// ProviderName is the provider key stored on linked records.
const ProviderName = "google"

type googleUserInfo struct {
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	GivenName     string `json:"given_name"`
	FamilyName    string `json:"family_name"`
	Picture       string `json:"picture"`
	Locale        string `json:"locale"`
}

// ParseUserInfo decodes a userinfo response body.
func ParseUserInfo(body []byte) (*social.Profile, error) {
	var info googleUserInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, social.MalformedProfile(err, ProviderName)
	}
	if info.Sub == "" {
		return nil, social.ErrProfileMalformed
	}
	return mapProfile(&info), nil
}

func mapProfile(info *googleUserInfo) *social.Profile {
	if info == nil {
		return nil
	}

	return &social.Profile{
		ProviderUserID: info.Sub,
		Provider:       ProviderName,
		Email:          info.Email,
		EmailVerified:  info.EmailVerified,
		Name:           info.Name,
		FirstName:      info.GivenName,
		LastName:       info.FamilyName,
		AvatarURL:      info.Picture,
		Raw: map[string]any{
			"sub":            info.Sub,
			"email":          info.Email,
			"email_verified": info.EmailVerified,
			"name":           info.Name,
			"given_name":     info.GivenName,
			"family_name":    info.FamilyName,
			"picture":        info.Picture,
			"locale":         info.Locale,
		},
	}
}
