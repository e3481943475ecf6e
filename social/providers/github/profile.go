// Package github maps GitHub REST API user documents onto social profiles.
package github

import (
	"encoding/json"
	"strconv"

	"github.com/goliatone/go-identity/social"
)

// ProviderName is the provider key stored on linked records.
const ProviderName = "github"

type githubUser struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url"`
	HTMLURL   string `json:"html_url"`
	Company   string `json:"company"`
	Blog      string `json:"blog"`
	Location  string `json:"location"`
	Bio       string `json:"bio"`
}

type githubEmail struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

// ParseUser decodes a /user body and, when present, the /user/emails body.
// The email comes from the emails list when one is given: the primary
// address first, then the first verified one. Without a list the public
// profile email is used and treated as unverified.
func ParseUser(userBody, emailsBody []byte) (*social.Profile, error) {
	var user githubUser
	if err := json.Unmarshal(userBody, &user); err != nil {
		return nil, social.MalformedProfile(err, ProviderName)
	}
	if user.ID == 0 {
		return nil, social.ErrProfileMalformed
	}

	email, verified := user.Email, false
	if len(emailsBody) > 0 {
		var emails []githubEmail
		if err := json.Unmarshal(emailsBody, &emails); err != nil {
			return nil, social.MalformedProfile(err, ProviderName)
		}
		if picked, ok := pickEmail(emails); ok {
			email, verified = picked.Email, picked.Verified
		}
	}

	return mapProfile(&user, email, verified), nil
}

func pickEmail(emails []githubEmail) (githubEmail, bool) {
	for _, e := range emails {
		if e.Primary && e.Verified {
			return e, true
		}
	}
	for _, e := range emails {
		if e.Verified {
			return e, true
		}
	}
	for _, e := range emails {
		if e.Primary {
			return e, true
		}
	}
	return githubEmail{}, false
}

func mapProfile(user *githubUser, email string, emailVerified bool) *social.Profile {
	if user == nil {
		return nil
	}

	return &social.Profile{
		ProviderUserID: strconv.FormatInt(user.ID, 10),
		Provider:       ProviderName,
		Email:          email,
		EmailVerified:  emailVerified,
		Name:           user.Name,
		Username:       user.Login,
		AvatarURL:      user.AvatarURL,
		Raw: map[string]any{
			"id":         user.ID,
			"login":      user.Login,
			"name":       user.Name,
			"email":      email,
			"avatar_url": user.AvatarURL,
			"html_url":   user.HTMLURL,
			"company":    user.Company,
			"blog":       user.Blog,
			"location":   user.Location,
			"bio":        user.Bio,
		},
	}
}
