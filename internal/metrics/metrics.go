package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	LoginAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_login_attempts_total",
		Help: "Local credential login attempts by result.",
	}, []string{"result"})

	Registrations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_registrations_total",
		Help: "Registration attempts by result.",
	}, []string{"result"})

	OAuthCallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_oauth_callbacks_total",
		Help: "OAuth callback resolutions by result.",
	}, []string{"result"})

	SessionsEstablished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "auth_sessions_established_total",
		Help: "Sessions created after successful authentication.",
	})
)
