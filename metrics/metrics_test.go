package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goliatone/go-identity"
	"github.com/goliatone/go-identity/memstore"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestSinkCountsEvents(t *testing.T) {
	sink := NewSink()
	ctx := context.Background()

	events := []identity.ActivityEvent{
		{EventType: identity.ActivityEventUserCreated},
		{EventType: identity.ActivityEventUserCreated, Provider: "google"},
		{EventType: identity.ActivityEventPasswordFailure},
		{EventType: identity.ActivityEventPasswordFailure},
		{EventType: identity.ActivityEventProviderLogin, Provider: "google"},
	}
	for _, event := range events {
		require.NoError(t, sink.Record(ctx, event))
	}

	assert.Equal(t, float64(1), testutil.ToFloat64(sink.UsersCreatedTotal.WithLabelValues("password")))
	assert.Equal(t, float64(1), testutil.ToFloat64(sink.UsersCreatedTotal.WithLabelValues("google")))
	assert.Equal(t, float64(2), testutil.ToFloat64(sink.PasswordFailuresTotal))
	assert.Equal(t, float64(1), testutil.ToFloat64(
		sink.EventsTotal.WithLabelValues(string(identity.ActivityEventProviderLogin), "google"),
	))
	assert.Equal(t, float64(2), testutil.ToFloat64(
		sink.EventsTotal.WithLabelValues(string(identity.ActivityEventPasswordFailure), "password"),
	))
}

func TestSinkWiredIntoResolver(t *testing.T) {
	sink := NewSink()
	resolver := identity.NewResolver(memstore.New(),
		identity.WithPasswordHasher(identity.NewBcryptHasher(bcrypt.MinCost)),
		identity.WithActivitySink(sink),
	)
	ctx := context.Background()

	_, err := resolver.ResolveBySignup(ctx, "u@e.com", "Jane", "pw123")
	require.NoError(t, err)
	_, err = resolver.ResolveByProvider(ctx, identity.ProviderClaims{Provider: "github", ProviderID: "7", Email: "u@e.com"})
	require.NoError(t, err)
	_, err = resolver.ResolveByPassword(ctx, "u@e.com", "nope")
	require.Error(t, err)

	assert.Equal(t, float64(1), testutil.ToFloat64(sink.UsersCreatedTotal.WithLabelValues("password")))
	assert.Equal(t, float64(1), testutil.ToFloat64(
		sink.EventsTotal.WithLabelValues(string(identity.ActivityEventIdentityLinked), "github"),
	))
	assert.Equal(t, float64(1), testutil.ToFloat64(sink.PasswordFailuresTotal))
}

func TestSinkHandlerExposesMetrics(t *testing.T) {
	sink := NewSink()
	require.NoError(t, sink.Record(context.Background(), identity.ActivityEvent{
		EventType: identity.ActivityEventUserCreated,
	}))

	srv := httptest.NewServer(sink.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "identity_users_created_total")
	assert.Contains(t, string(body), "identity_events_total")
}

func TestSinksAreIndependent(t *testing.T) {
	a := NewSink()
	b := NewSink()

	require.NoError(t, a.Record(context.Background(), identity.ActivityEvent{
		EventType: identity.ActivityEventPasswordFailure,
	}))

	assert.Equal(t, float64(1), testutil.ToFloat64(a.PasswordFailuresTotal))
	assert.Equal(t, float64(0), testutil.ToFloat64(b.PasswordFailuresTotal))
}
