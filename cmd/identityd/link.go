package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-identity/social"
	"github.com/goliatone/go-identity/social/providers/github"
	"github.com/goliatone/go-identity/social/providers/google"
	"github.com/goliatone/go-print"
)

// runLink resolves a provider profile document, read from the given files or
// stdin, creating or linking the matching user record.
//
//	identityd link google < userinfo.json
//	identityd link github user.json emails.json
func runLink(ctx context.Context, app *App, cmd command) error {
	profile, err := readProfile(cmd.provider, cmd.files, os.Stdin)
	if err != nil {
		return err
	}

	linker := social.NewLinker(app.resolver, identityLoggers(app))
	linker.RequireEmailVerified = app.config.RequireEmailVerified && !cmd.allowUnverified

	res, err := linker.Resolve(ctx, profile)
	if err != nil {
		return err
	}

	fmt.Println(print.MaybePrettyJSON(map[string]any{
		"user":     res.User,
		"new_user": res.IsNewUser,
		"linked":   res.Linked,
	}))
	return nil
}

func readProfile(provider string, files []string, stdin io.Reader) (*social.Profile, error) {
	read := func(i int) ([]byte, error) {
		if i < len(files) {
			return os.ReadFile(files[i])
		}
		if i == 0 {
			return io.ReadAll(stdin)
		}
		return nil, nil
	}

	first, err := read(0)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryBadInput, "failed to read profile document")
	}

	switch provider {
	case google.ProviderName:
		return google.ParseUserInfo(first)
	case github.ProviderName:
		emails, err := read(1)
		if err != nil {
			return nil, errors.Wrap(err, errors.CategoryBadInput, "failed to read emails document")
		}
		return github.ParseUser(first, emails)
	default:
		return nil, errors.New("unknown provider "+provider, errors.CategoryBadInput)
	}
}
