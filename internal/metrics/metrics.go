// Package metrics defines the prometheus collectors for the request pipeline
// and notifications.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Pipeline holds the request pipeline collectors. A nil *Pipeline is valid
// and records nothing.
type Pipeline struct {
	// RequestsTotal counts finished API calls by method and outcome
	RequestsTotal *prometheus.CounterVec
	// RequestDuration tracks API call latency in seconds
	RequestDuration *prometheus.HistogramVec
	// InFlight tracks calls that have started and not yet settled
	InFlight prometheus.Gauge
	// NotificationsTotal counts notifications raised by level
	NotificationsTotal *prometheus.CounterVec
}

// New registers the collectors with reg. Pass prometheus.NewRegistry() in tests.
func New(reg prometheus.Registerer) *Pipeline {
	factory := promauto.With(reg)
	return &Pipeline{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "studyguide_api_requests_total",
				Help: "Total API calls by method and outcome",
			},
			[]string{"method", "outcome"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "studyguide_api_request_duration_seconds",
				Help:    "API call duration in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method"},
		),
		InFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "studyguide_api_requests_in_flight",
				Help: "API calls currently in flight",
			},
		),
		NotificationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "studyguide_notifications_total",
				Help: "Notifications raised by level",
			},
			[]string{"level"},
		),
	}
}

// Started marks a call as in flight.
func (p *Pipeline) Started() {
	if p == nil {
		return
	}
	p.InFlight.Inc()
}

// Finished records a settled call.
func (p *Pipeline) Finished(method, outcome string, d time.Duration) {
	if p == nil {
		return
	}
	p.InFlight.Dec()
	p.RequestsTotal.WithLabelValues(method, outcome).Inc()
	p.RequestDuration.WithLabelValues(method).Observe(d.Seconds())
}

// Notified records a raised notification.
func (p *Pipeline) Notified(level string) {
	if p == nil {
		return
	}
	p.NotificationsTotal.WithLabelValues(level).Inc()
}
