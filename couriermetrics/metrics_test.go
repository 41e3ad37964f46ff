// SPDX-FileCopyrightText: 2023 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package couriermetrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"github.com/xmidt-org/courier"
	"github.com/xmidt-org/courier/couriertest"
)

func TestOutcome(t *testing.T) {
	testData := []struct {
		err      error
		expected string
	}{
		{
			err:      nil,
			expected: OutcomeSuccess,
		},
		{
			err:      &courier.CancellationError{URL: "/w"},
			expected: OutcomeCanceled,
		},
		{
			err:      &courier.TransportError{Err: context.DeadlineExceeded},
			expected: OutcomeTimeout,
		},
		{
			err:      fmt.Errorf("wrapped: %w", &courier.TransportError{Err: context.DeadlineExceeded}),
			expected: OutcomeTimeout,
		},
		{
			err:      &courier.TransportError{StatusCode: 500},
			expected: OutcomeFailure,
		},
		{
			err:      errors.New("expected"),
			expected: OutcomeFailure,
		},
		{
			err:      fmt.Errorf("%w: boom", courier.ErrPanic),
			expected: OutcomeFailure,
		},
	}

	for _, record := range testData {
		t.Run(record.expected, func(t *testing.T) {
			assert.Equal(t, record.expected, Outcome(record.err))
		})
	}
}

type MetricsSuite struct {
	suite.Suite
	registry *prometheus.Registry
	metrics  *Metrics
}

func (suite *MetricsSuite) SetupTest() {
	suite.registry = prometheus.NewRegistry()
	suite.metrics = New(suite.registry, "")
}

func (suite *MetricsSuite) TestDuplicateRegistration() {
	suite.Panics(func() {
		New(suite.registry, DefaultNamespace)
	})

	suite.NotPanics(func() {
		New(suite.registry, "other")
	})
}

func (suite *MetricsSuite) TestObserver() {
	d := &courier.Descriptor{Method: http.MethodGet, URL: "/a"}

	suite.metrics.Dispatched(d)
	suite.metrics.Dispatched(d)
	suite.Equal(2.0, testutil.ToFloat64(suite.metrics.requestsInFlight.WithLabelValues(http.MethodGet)))

	suite.metrics.Settled(d, nil, 10*time.Millisecond)
	suite.metrics.Settled(d, &courier.CancellationError{URL: "/a"}, time.Millisecond)
	suite.Equal(0.0, testutil.ToFloat64(suite.metrics.requestsInFlight.WithLabelValues(http.MethodGet)))
	suite.Equal(1.0, testutil.ToFloat64(suite.metrics.requestsTotal.WithLabelValues(http.MethodGet, OutcomeSuccess)))
	suite.Equal(1.0, testutil.ToFloat64(suite.metrics.requestsTotal.WithLabelValues(http.MethodGet, OutcomeCanceled)))
	suite.Equal(2, testutil.CollectAndCount(suite.metrics.requestDuration))
}

func (suite *MetricsSuite) TestDispatcher() {
	var transport couriertest.MockTransport
	transport.ExpectAny().Data(map[string]int{"x": 1}).Once()
	transport.ExpectAny().Error(errors.New("expected")).Once()

	d, err := courier.New(&transport, courier.Config{}, courier.WithObserver(suite.metrics))
	suite.Require().NoError(err)

	_, err = d.Do(context.Background(), courier.Descriptor{URL: "/ok"})
	suite.NoError(err)

	_, err = d.Do(context.Background(), courier.Descriptor{URL: "/fail", Method: http.MethodPost})
	suite.Error(err)

	suite.Equal(1.0, testutil.ToFloat64(suite.metrics.requestsTotal.WithLabelValues(http.MethodGet, OutcomeSuccess)))
	suite.Equal(1.0, testutil.ToFloat64(suite.metrics.requestsTotal.WithLabelValues(http.MethodPost, OutcomeFailure)))
	suite.Equal(0.0, testutil.ToFloat64(suite.metrics.requestsInFlight.WithLabelValues(http.MethodGet)))
	suite.Equal(0.0, testutil.ToFloat64(suite.metrics.requestsInFlight.WithLabelValues(http.MethodPost)))
	transport.AssertExpectations(suite.T())
}

func TestMetrics(t *testing.T) {
	suite.Run(t, new(MetricsSuite))
}
