// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package observability

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/holomush/formgate/internal/schema"
)

// Submission outcomes used as the "outcome" label.
const (
	OutcomeAccepted = "accepted"
	OutcomeRejected = "rejected"
)

// Metrics contains custom Prometheus metrics for formgate.
type Metrics struct {
	ConnectionsTotal *prometheus.CounterVec
	SubmissionsTotal *prometheus.CounterVec
	FieldErrorsTotal *prometheus.CounterVec
}

// NewMetrics creates and registers formgate metrics on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ConnectionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "formgate_connections_total",
				Help: "Total number of connections by type",
			},
			[]string{"type"},
		),
		SubmissionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "formgate_submissions_total",
				Help: "Total number of form submissions by form and outcome",
			},
			[]string{"form", "outcome"},
		),
		FieldErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "formgate_field_errors_total",
				Help: "Total number of field validation errors by form, field and code",
			},
			[]string{"form", "field", "code"},
		),
	}

	reg.MustRegister(m.ConnectionsTotal)
	reg.MustRegister(m.SubmissionsTotal)
	reg.MustRegister(m.FieldErrorsTotal)

	return m
}

// ObserveSubmit records one submit outcome. It satisfies forms.Observer.
func (m *Metrics) ObserveSubmit(form string, errs schema.Errors) {
	if len(errs) == 0 {
		m.SubmissionsTotal.WithLabelValues(form, OutcomeAccepted).Inc()
		return
	}
	m.SubmissionsTotal.WithLabelValues(form, OutcomeRejected).Inc()
	for field, issue := range errs {
		m.FieldErrorsTotal.WithLabelValues(form, field, string(issue.Code)).Inc()
	}
}

// ObserveConnection counts a new connection of the given type.
func (m *Metrics) ObserveConnection(kind string) {
	m.ConnectionsTotal.WithLabelValues(kind).Inc()
}
