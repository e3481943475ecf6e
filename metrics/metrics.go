// Package metrics exports identity resolution counters to Prometheus.
package metrics

import (
	"context"
	"net/http"

	"github.com/goliatone/go-identity"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// passwordProvider labels events that carry no federated provider.
const passwordProvider = "password"

// Sink counts activity events. It implements identity.ActivitySink.
type Sink struct {
	registry *prometheus.Registry

	// EventsTotal counts resolution events by type and provider.
	EventsTotal *prometheus.CounterVec

	// UsersCreatedTotal counts new user records by origin provider.
	UsersCreatedTotal *prometheus.CounterVec

	// PasswordFailuresTotal counts rejected password logins.
	PasswordFailuresTotal prometheus.Counter
}

// NewSink creates a Sink with its own registry.
func NewSink() *Sink {
	s := &Sink{
		registry: prometheus.NewRegistry(),
		EventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "identity_events_total",
				Help: "Identity resolution events",
			},
			[]string{"event", "provider"},
		),
		UsersCreatedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "identity_users_created_total",
				Help: "Users created",
			},
			[]string{"provider"},
		),
		PasswordFailuresTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "identity_password_failures_total",
				Help: "Rejected password logins",
			},
		),
	}

	s.registry.MustRegister(
		s.EventsTotal,
		s.UsersCreatedTotal,
		s.PasswordFailuresTotal,
	)
	return s
}

// Registry exposes the collectors for gathering.
func (s *Sink) Registry() *prometheus.Registry {
	return s.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (s *Sink) Handler() http.Handler {
	return promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})
}

// Record implements identity.ActivitySink.
func (s *Sink) Record(_ context.Context, event identity.ActivityEvent) error {
	provider := event.Provider
	if provider == "" {
		provider = passwordProvider
	}

	s.EventsTotal.WithLabelValues(string(event.EventType), provider).Inc()

	switch event.EventType {
	case identity.ActivityEventUserCreated:
		s.UsersCreatedTotal.WithLabelValues(provider).Inc()
	case identity.ActivityEventPasswordFailure:
		s.PasswordFailuresTotal.Inc()
	}
	return nil
}
