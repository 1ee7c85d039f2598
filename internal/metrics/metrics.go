package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Verification outcomes recorded per pipeline run.
const (
	OutcomeAuthorized = "authorized"
	OutcomeRejected   = "rejected"
	OutcomeError      = "error"
)

// Metrics tracks authentication activity.
type Metrics struct {
	verifications *prometheus.CounterVec
	issued        *prometheus.CounterVec
	logins        *prometheus.CounterVec
}

// New creates the metric set and registers it with the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		verifications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auth_verifications_total",
				Help: "Credential verification pipeline runs by credential type and outcome",
			},
			[]string{"credential_type", "outcome"},
		),
		issued: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auth_credentials_issued_total",
				Help: "Credentials issued by type",
			},
			[]string{"credential_type"},
		),
		logins: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auth_logins_total",
				Help: "Login attempts by method and outcome",
			},
			[]string{"method", "outcome"},
		),
	}
	reg.MustRegister(m.verifications, m.issued, m.logins)
	return m
}

// NewNoop returns a metric set that records into an unexported registry,
// for tests and callers that don't expose /metrics.
func NewNoop() *Metrics {
	return New(prometheus.NewRegistry())
}

func (m *Metrics) RecordVerification(credentialType, outcome string) {
	m.verifications.WithLabelValues(credentialType, outcome).Inc()
}

func (m *Metrics) RecordIssued(credentialType string) {
	m.issued.WithLabelValues(credentialType).Inc()
}

func (m *Metrics) RecordLogin(method, outcome string) {
	m.logins.WithLabelValues(method, outcome).Inc()
}
