package telemetry

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// AuthzMetrics exposes Prometheus collectors for authorization decisions.
type AuthzMetrics struct {
	Decisions *prometheus.CounterVec
}

// NewAuthzMetrics constructs and registers the decision counters. Re-registration
// reuses the existing collector so tests can build multiple instances.
func NewAuthzMetrics(reg prometheus.Registerer) (*AuthzMetrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	decisions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "authgate",
		Subsystem: "authz",
		Name:      "decisions_total",
		Help:      "Total number of authorization decisions partitioned by resource, action, and outcome.",
	}, []string{"resource", "action", "outcome"})

	if err := reg.Register(decisions); err != nil {
		if already, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := already.ExistingCollector.(*prometheus.CounterVec); ok {
				decisions = existing
			} else {
				return nil, fmt.Errorf("existing decisions collector has unexpected type %T", already.ExistingCollector)
			}
		} else {
			return nil, fmt.Errorf("register decisions collector: %w", err)
		}
	}

	return &AuthzMetrics{Decisions: decisions}, nil
}

// ObserveDecision increments the decision counter for one evaluation.
func (m *AuthzMetrics) ObserveDecision(resource, action, outcome string) {
	if m == nil || m.Decisions == nil {
		return
	}
	m.Decisions.WithLabelValues(resource, action, outcome).Inc()
}
