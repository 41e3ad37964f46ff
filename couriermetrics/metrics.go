// SPDX-FileCopyrightText: 2023 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package couriermetrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/xmidt-org/courier"
)

const (
	// DefaultNamespace is the metric namespace used when none is supplied.
	DefaultNamespace = "courier"

	MethodLabel  = "method"
	OutcomeLabel = "outcome"
)

// Outcome label values.
const (
	OutcomeSuccess  = "success"
	OutcomeFailure  = "failure"
	OutcomeTimeout  = "timeout"
	OutcomeCanceled = "canceled"
)

// Metrics records the lifecycle of every request sent by a Dispatcher.
// It is safe for concurrent use.
type Metrics struct {
	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	requestsInFlight *prometheus.GaugeVec
}

var _ courier.Observer = (*Metrics)(nil)

// New creates a Metrics whose collectors are registered with registerer.
// A nil registerer uses prometheus.DefaultRegisterer.  This function panics
// if the collectors are already registered, just as promauto does.
func New(registerer prometheus.Registerer, namespace string) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	if len(namespace) == 0 {
		namespace = DefaultNamespace
	}

	factory := promauto.With(registerer)
	return &Metrics{
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "requests_total",
				Help:      "Total number of settled requests",
			},
			[]string{MethodLabel, OutcomeLabel},
		),
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "request_duration_seconds",
				Help:      "Duration of requests in seconds, including all response interceptors",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{MethodLabel, OutcomeLabel},
		),
		requestsInFlight: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "requests_in_flight",
				Help:      "Number of requests currently in flight",
			},
			[]string{MethodLabel},
		),
	}
}

// Dispatched increments the in-flight gauge.
func (m *Metrics) Dispatched(d *courier.Descriptor) {
	m.requestsInFlight.WithLabelValues(d.Method).Inc()
}

// Settled decrements the in-flight gauge and records the outcome.
func (m *Metrics) Settled(d *courier.Descriptor, err error, elapsed time.Duration) {
	outcome := Outcome(err)
	m.requestsInFlight.WithLabelValues(d.Method).Dec()
	m.requestsTotal.WithLabelValues(d.Method, outcome).Inc()
	m.requestDuration.WithLabelValues(d.Method, outcome).Observe(elapsed.Seconds())
}

// Outcome returns the outcome label value for a request's final error.
func Outcome(err error) string {
	var te *courier.TransportError

	switch {
	case err == nil:
		return OutcomeSuccess

	case courier.IsCancelled(err):
		return OutcomeCanceled

	case errors.As(err, &te) && te.Timeout():
		return OutcomeTimeout

	default:
		return OutcomeFailure
	}
}
