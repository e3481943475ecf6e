package social

import (
	"context"

	"github.com/goliatone/go-identity"
)

// ProviderResolver is the part of identity.Resolver the Linker needs.
type ProviderResolver interface {
	ResolveByProvider(ctx context.Context, claims identity.ProviderClaims) (*identity.Resolution, error)
}

// Linker turns provider profiles into canonical user records.
type Linker struct {
	Resolver ProviderResolver
	// RequireEmailVerified rejects profiles whose provider did not verify
	// the email address.
	RequireEmailVerified bool
	Logger               identity.Logger
}

// NewLinker creates a Linker that requires verified emails.
func NewLinker(resolver ProviderResolver, provider identity.LoggerProvider) *Linker {
	_, logger := identity.ResolveLogger("identity.social", provider, nil)
	return &Linker{
		Resolver:             resolver,
		RequireEmailVerified: true,
		Logger:               logger,
	}
}

// Resolve resolves profile through the identity resolver.
func (l *Linker) Resolve(ctx context.Context, profile *Profile) (*identity.Resolution, error) {
	if profile == nil {
		return nil, ErrProfileRequired
	}

	if l.RequireEmailVerified && profile.Email != "" && !profile.EmailVerified {
		l.logger().Warn("social profile email not verified",
			"provider", profile.Provider,
			"provider_user_id", profile.ProviderUserID,
		)
		return nil, ErrEmailNotVerified
	}

	res, err := l.Resolver.ResolveByProvider(ctx, profile.Claims())
	if err != nil {
		l.logger().Debug("social profile resolution failed", "provider", profile.Provider, "error", err)
		return nil, err
	}

	l.logger().Info("social profile resolved",
		"provider", profile.Provider,
		"user_id", res.User.ID.String(),
		"new_user", res.IsNewUser,
		"linked", res.Linked,
	)
	return res, nil
}

func (l *Linker) logger() identity.Logger {
	if l.Logger == nil {
		_, logger := identity.ResolveLogger("identity.social", nil, nil)
		return logger
	}
	return l.Logger
}
