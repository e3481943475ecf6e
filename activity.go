package identity

import (
	"context"
	"time"
)

// ActivityEventType enumerates supported activity categories.
type ActivityEventType string

const (
	ActivityEventUserCreated     ActivityEventType = "identity.user.created"
	ActivityEventIdentityLinked  ActivityEventType = "identity.provider.linked"
	ActivityEventProviderLogin   ActivityEventType = "identity.provider.login"
	ActivityEventPasswordSuccess ActivityEventType = "identity.password.success"
	ActivityEventPasswordFailure ActivityEventType = "identity.password.failure"
)

// ActivityEvent captures audit-friendly information about a resolution.
type ActivityEvent struct {
	EventType  ActivityEventType
	UserID     string
	Email      string
	Provider   string
	Metadata   map[string]any
	OccurredAt time.Time
}

// ActivitySink consumes activity events for auditing/telemetry purposes.
// Sinks run best effort: errors are logged, never returned to callers.
type ActivitySink interface {
	Record(ctx context.Context, event ActivityEvent) error
}

// ActivitySinkFunc adapts a function to the ActivitySink interface.
type ActivitySinkFunc func(ctx context.Context, event ActivityEvent) error

// Record implements ActivitySink.
func (f ActivitySinkFunc) Record(ctx context.Context, event ActivityEvent) error {
	if f == nil {
		return nil
	}
	return f(ctx, event)
}

type noopActivitySink struct{}

func (noopActivitySink) Record(context.Context, ActivityEvent) error {
	return nil
}

func normalizeActivitySink(s ActivitySink) ActivitySink {
	if s == nil {
		return noopActivitySink{}
	}
	return s
}

// MultiActivitySink fans events out to every sink in order. All sinks are
// called; the first error is returned.
func MultiActivitySink(sinks ...ActivitySink) ActivitySink {
	filtered := make([]ActivitySink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			filtered = append(filtered, s)
		}
	}
	return ActivitySinkFunc(func(ctx context.Context, event ActivityEvent) error {
		var first error
		for _, s := range filtered {
			if err := s.Record(ctx, event); err != nil && first == nil {
				first = err
			}
		}
		return first
	})
}
