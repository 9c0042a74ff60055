package services

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors of the service. A nil *Metrics is valid and records nothing.
type Metrics struct {
	Claims           *prometheus.CounterVec
	GrantDeliveries  *prometheus.CounterVec
	RequestCounter   *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Claims: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "battlepass",
				Name:      "claims_total",
				Help:      "Claim attempts by outcome",
			},
			[]string{"result"},
		),
		GrantDeliveries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "battlepass",
				Name:      "grant_deliveries_total",
				Help:      "Benefit grant delivery attempts by outcome",
			},
			[]string{"outcome"},
		),
		RequestCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "battlepass",
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of requests",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "battlepass",
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		RequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "battlepass",
				Subsystem: "http",
				Name:      "requests_in_flight",
				Help:      "Number of requests currently being processed",
			},
		),
	}
}

// ObserveClaim counts one claim attempt, labelled by its ClaimError reason when it has one.
func (m *Metrics) ObserveClaim(err error) {
	if m == nil {
		return
	}
	result := "ok"
	var claimErr *ClaimError
	switch {
	case err == nil:
	case errors.As(err, &claimErr):
		result = string(claimErr.Reason)
	default:
		result = "error"
	}
	m.Claims.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveGrant(outcome string) {
	if m == nil {
		return
	}
	m.GrantDeliveries.WithLabelValues(outcome).Inc()
}
