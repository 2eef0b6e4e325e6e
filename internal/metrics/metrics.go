// Package metrics exposes prometheus counters for tokens, logins and sessions.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry        *prometheus.Registry
	tokensIssued    *prometheus.CounterVec
	tokenRejections *prometheus.CounterVec
	loginAttempts   *prometheus.CounterVec
	sessionsEvicted prometheus.Counter
}

// New registers the application collectors on a fresh registry together with
// the Go runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		tokensIssued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "formgate",
			Name:      "tokens_issued_total",
			Help:      "Double-submit tokens issued, by trigger.",
		}, []string{"trigger"}),
		tokenRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "formgate",
			Name:      "token_rejections_total",
			Help:      "Submissions rejected by token validation, by reason.",
		}, []string{"reason"}),
		loginAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "formgate",
			Name:      "login_attempts_total",
			Help:      "Login attempts, by outcome.",
		}, []string{"outcome"}),
		sessionsEvicted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "formgate",
			Name:      "sessions_evicted_total",
			Help:      "Sessions expired because a user exceeded the concurrent session limit.",
		}),
	}

	reg.MustRegister(
		m.tokensIssued,
		m.tokenRejections,
		m.loginAttempts,
		m.sessionsEvicted,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the prometheus exposition format. A nil
// *Metrics serves 404.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry is exposed for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) TokenIssued(trigger string) {
	if m == nil {
		return
	}
	m.tokensIssued.WithLabelValues(trigger).Inc()
}

func (m *Metrics) TokenRejected(reason string) {
	if m == nil {
		return
	}
	m.tokenRejections.WithLabelValues(reason).Inc()
}

func (m *Metrics) LoginAttempt(outcome string) {
	if m == nil {
		return
	}
	m.loginAttempts.WithLabelValues(outcome).Inc()
}

func (m *Metrics) SessionEvicted() {
	if m == nil {
		return
	}
	m.sessionsEvicted.Inc()
}
