// SPDX-FileCopyrightText: 2023 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package courier_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"github.com/xmidt-org/courier"
	"github.com/xmidt-org/courier/couriertest"
	"go.uber.org/zap/zaptest"
)

type point struct {
	X int `json:"x"`
}

type recordingObserver struct {
	lock       sync.Mutex
	dispatched []string
	settled    []error
}

func (ro *recordingObserver) Dispatched(d *courier.Descriptor) {
	ro.lock.Lock()
	ro.dispatched = append(ro.dispatched, d.URL)
	ro.lock.Unlock()
}

func (ro *recordingObserver) Settled(_ *courier.Descriptor, err error, _ time.Duration) {
	ro.lock.Lock()
	ro.settled = append(ro.settled, err)
	ro.lock.Unlock()
}

type DispatcherSuite struct {
	suite.Suite
	gate *couriertest.GateTransport
}

func (suite *DispatcherSuite) SetupTest() {
	suite.gate = couriertest.NewGateTransport(10)
}

func (suite *DispatcherSuite) newDispatcher(t courier.Transport, cfg courier.Config, opts ...courier.Option) *courier.Dispatcher {
	opts = append(opts, courier.WithLogger(zaptest.NewLogger(suite.T())))
	d, err := courier.New(t, cfg, opts...)
	suite.Require().NoError(err)
	suite.Require().NotNil(d)
	return d
}

// start issues a request through the gate and waits for it to reach the transport.
func (suite *DispatcherSuite) start(d *courier.Dispatcher, desc courier.Descriptor) (<-chan couriertest.Result[point], *couriertest.GateCall) {
	ch := couriertest.Async[point](context.Background(), d, desc)
	call := suite.gate.Next()
	suite.Require().NotNil(call, "the request never reached the transport")
	return ch, call
}

func (suite *DispatcherSuite) await(ch <-chan couriertest.Result[point]) couriertest.Result[point] {
	r, ok := couriertest.Await(ch)
	suite.Require().True(ok, "the request never settled")
	return r
}

func (suite *DispatcherSuite) TestNew() {
	suite.Run("NilTransport", func() {
		d, err := courier.New(nil, courier.Config{})
		suite.ErrorIs(err, courier.ErrNilTransport)
		suite.Nil(d)
	})

	suite.Run("NilLogger", func() {
		d, err := courier.New(suite.gate, courier.Config{}, courier.WithLogger(nil))
		suite.ErrorIs(err, courier.ErrNilLogger)
		suite.Nil(d)
	})
}

func (suite *DispatcherSuite) TestDefaults() {
	var (
		transport = new(couriertest.MockTransport)
		matcher   couriertest.DescriptorMatcher
	)

	matcher.URL("/test").Method(http.MethodGet).Match(func(d *courier.Descriptor) bool {
		return d.BaseURL == "http://example.com/api" && d.Timeout == courier.DefaultTimeout
	})

	transport.ExpectMatch(matcher).Data(point{X: 1}).Once()
	d := suite.newDispatcher(transport, courier.Config{BaseURL: "http://example.com/api"})

	p, err := courier.Request[point](context.Background(), d, courier.Descriptor{URL: "/test"})
	suite.NoError(err)
	suite.Equal(point{X: 1}, p)
	transport.AssertExpectations(suite.T())
}

func (suite *DispatcherSuite) TestOverrides() {
	var (
		transport = new(couriertest.MockTransport)
		matcher   couriertest.DescriptorMatcher
	)

	matcher.URL("/test").Method(http.MethodPost).Header("X-Test", "true").Match(func(d *courier.Descriptor) bool {
		return d.BaseURL == "http://override.net" && d.Timeout == 3*time.Second
	})

	transport.ExpectMatch(matcher).Data(nil).Once()
	d := suite.newDispatcher(transport, courier.Config{
		BaseURL: "http://example.com",
		Timeout: time.Minute,
	})

	p, err := courier.Request[point](context.Background(), d, courier.Descriptor{
		URL:     "/test",
		Method:  http.MethodPost,
		BaseURL: "http://override.net",
		Timeout: 3 * time.Second,
		Header:  http.Header{"X-Test": {"true"}},
	})

	suite.NoError(err)
	suite.Zero(p)
	transport.AssertExpectations(suite.T())
}

func (suite *DispatcherSuite) TestEnvelopeRoundTrip() {
	transport := new(couriertest.MockTransport)
	transport.ExpectAny().Response(&courier.Response{
		StatusCode: 200,
		Envelope: courier.Envelope{
			Code:    json.RawMessage("0"),
			Message: "ok",
			Data:    json.RawMessage(`{"x":1}`),
		},
	})

	d := suite.newDispatcher(transport, courier.Config{})

	raw, err := courier.Request[json.RawMessage](context.Background(), d, courier.Descriptor{URL: "/raw"})
	suite.NoError(err)
	suite.JSONEq(`{"x":1}`, string(raw))

	m, err := courier.Request[map[string]any](context.Background(), d, courier.Descriptor{URL: "/map"})
	suite.NoError(err)
	suite.Equal(map[string]any{"x": float64(1)}, m)

	p, err := courier.Request[point](context.Background(), d, courier.Descriptor{URL: "/point"})
	suite.NoError(err)
	suite.Equal(point{X: 1}, p)
}

func (suite *DispatcherSuite) TestDecodeFailure() {
	transport := new(couriertest.MockTransport)
	transport.ExpectAny().Data("not a point")

	d := suite.newDispatcher(transport, courier.Config{})
	_, err := courier.Request[point](context.Background(), d, courier.Descriptor{URL: "/test"})
	suite.Error(err)
	suite.Empty(d.Pending())
}

func (suite *DispatcherSuite) TestInterceptorOrder() {
	var (
		lock  sync.Mutex
		trace []string
		mark  = func(name string) courier.Interceptors {
			return courier.Interceptors{
				Request: func(_ context.Context, d *courier.Descriptor) (*courier.Descriptor, error) {
					lock.Lock()
					trace = append(trace, name)
					lock.Unlock()
					return d, nil
				},
				Response: func(_ context.Context, r *courier.Response) (*courier.Response, error) {
					lock.Lock()
					trace = append(trace, name)
					lock.Unlock()
					return r, nil
				},
			}
		}

		call      = mark("P")
		transport = new(couriertest.MockTransport)
	)

	transport.ExpectAny().Data(point{X: 1})
	d := suite.newDispatcher(
		transport,
		courier.Config{Interceptors: mark("I")},
		courier.WithGlobal(mark("G")),
	)

	_, err := courier.Request[point](context.Background(), d, courier.Descriptor{
		URL:          "/order",
		Interceptors: &call,
	})

	suite.NoError(err)
	suite.Equal([]string{"G", "I", "P", "P", "I", "G"}, trace)
}

func (suite *DispatcherSuite) TestRequestRejected() {
	var (
		expected  = errors.New("rejected")
		transport = new(couriertest.MockTransport)
		observer  = new(recordingObserver)
		d         = suite.newDispatcher(
			transport,
			courier.Config{
				Interceptors: courier.Interceptors{
					Request: func(context.Context, *courier.Descriptor) (*courier.Descriptor, error) {
						return nil, expected
					},
				},
			},
			courier.WithObserver(observer),
		)
	)

	_, err := courier.Request[point](context.Background(), d, courier.Descriptor{URL: "/test"})

	var ie *courier.InterceptorError
	suite.Require().ErrorAs(err, &ie)
	suite.Equal(courier.ScopeInstance, ie.Scope)
	suite.ErrorIs(err, expected)
	suite.Empty(d.Pending())
	suite.Empty(observer.dispatched)

	// no network call may happen
	transport.AssertNotCalled(suite.T(), "Send", mock.Anything, mock.Anything)
}

func (suite *DispatcherSuite) TestTransportFailure() {
	var (
		expected  = errors.New("connection refused")
		transport = new(couriertest.MockTransport)
		observer  = new(recordingObserver)
	)

	transport.ExpectAny().Error(expected).Once()
	d := suite.newDispatcher(transport, courier.Config{}, courier.WithObserver(observer))

	_, err := courier.Request[point](context.Background(), d, courier.Descriptor{URL: "/fail", Method: http.MethodPut})

	var te *courier.TransportError
	suite.Require().ErrorAs(err, &te)
	suite.Equal(http.MethodPut, te.Method)
	suite.Equal("/fail", te.URL)
	suite.ErrorIs(err, expected)
	suite.False(te.Timeout())
	suite.Empty(d.Pending())

	suite.Equal([]string{"/fail"}, observer.dispatched)
	suite.Require().Len(observer.settled, 1)
	suite.ErrorIs(observer.settled[0], expected)
}

func (suite *DispatcherSuite) TestTransportPanic() {
	var (
		observer = new(recordingObserver)
		d        = suite.newDispatcher(
			courier.TransportFunc(func(context.Context, *courier.Descriptor) (*courier.Response, error) {
				panic("transport exploded")
			}),
			courier.Config{},
			courier.WithObserver(observer),
		)
	)

	suite.PanicsWithValue("transport exploded", func() {
		d.Do(context.Background(), courier.Descriptor{URL: "/boom"})
	})

	suite.Empty(d.Pending())
	suite.Equal([]string{"/boom"}, observer.dispatched)
	suite.Require().Len(observer.settled, 1)
	suite.ErrorIs(observer.settled[0], courier.ErrPanic)
	suite.Contains(observer.settled[0].Error(), "transport exploded")
}

func (suite *DispatcherSuite) TestResponseStagePanic() {
	var (
		observer  = new(recordingObserver)
		transport = new(couriertest.MockTransport)
	)

	transport.ExpectAny().Data(point{X: 1}).Once()
	d := suite.newDispatcher(
		transport,
		courier.Config{
			Interceptors: courier.Interceptors{
				Response: func(context.Context, *courier.Response) (*courier.Response, error) {
					panic("stage exploded")
				},
			},
		},
		courier.WithObserver(observer),
	)

	suite.Panics(func() {
		d.Do(context.Background(), courier.Descriptor{URL: "/boom"})
	})

	suite.Empty(d.Pending())
	suite.Require().Len(observer.settled, 1)
	suite.ErrorIs(observer.settled[0], courier.ErrPanic)
}

func (suite *DispatcherSuite) TestTransportErrorPassThrough() {
	var (
		expected = &courier.TransportError{
			Method:     http.MethodGet,
			URL:        "/missing",
			StatusCode: http.StatusNotFound,
		}

		transport = new(couriertest.MockTransport)
	)

	transport.ExpectAny().Error(expected)
	d := suite.newDispatcher(transport, courier.Config{})

	_, err := courier.Request[point](context.Background(), d, courier.Descriptor{URL: "/missing"})
	suite.Same(expected, err)
}

func (suite *DispatcherSuite) TestTimeout() {
	d := suite.newDispatcher(
		courier.TransportFunc(func(ctx context.Context, desc *courier.Descriptor) (*courier.Response, error) {
			ctx, cancel := context.WithTimeout(ctx, desc.Timeout)
			defer cancel()
			<-ctx.Done()
			return nil, ctx.Err()
		}),
		courier.Config{Timeout: 10 * time.Millisecond},
	)

	_, err := courier.Request[point](context.Background(), d, courier.Descriptor{URL: "/slow"})

	var te *courier.TransportError
	suite.Require().ErrorAs(err, &te)
	suite.True(te.Timeout())
	suite.False(courier.IsCancelled(err))
	suite.Empty(d.Pending())
}

func (suite *DispatcherSuite) TestRecoverFromFailure() {
	var (
		call = courier.Interceptors{
			ResponseError: func(context.Context, error) (*courier.Response, error) {
				return courier.Recover(point{X: 42})
			},
		}

		observer  = new(recordingObserver)
		transport = new(couriertest.MockTransport)
	)

	transport.ExpectAny().Error(errors.New("boom"))
	d := suite.newDispatcher(transport, courier.Config{}, courier.WithObserver(observer))

	p, err := courier.Request[point](context.Background(), d, courier.Descriptor{
		URL:          "/recover",
		Interceptors: &call,
	})

	suite.NoError(err)
	suite.Equal(point{X: 42}, p)
	suite.Equal([]error{nil}, observer.settled)
}

func (suite *DispatcherSuite) TestResponseStageFailure() {
	var (
		expected = errors.New("unacceptable")
		call     = courier.Interceptors{
			Response: func(context.Context, *courier.Response) (*courier.Response, error) {
				return nil, expected
			},
		}

		transport = new(couriertest.MockTransport)
	)

	transport.ExpectAny().Data(point{X: 1})
	d := suite.newDispatcher(transport, courier.Config{})

	_, err := courier.Request[point](context.Background(), d, courier.Descriptor{
		URL:          "/test",
		Interceptors: &call,
	})

	suite.Same(expected, err)
	suite.Empty(d.Pending())
}

func (suite *DispatcherSuite) TestRequestID() {
	var ids []string
	d := suite.newDispatcher(
		courier.TransportFunc(func(ctx context.Context, _ *courier.Descriptor) (*courier.Response, error) {
			id, ok := courier.RequestID(ctx)
			if ok {
				ids = append(ids, id)
			}

			return nil, nil
		}),
		courier.Config{},
	)

	_, err := d.Do(context.Background(), courier.Descriptor{URL: "/a"})
	suite.NoError(err)
	_, err = d.Do(context.Background(), courier.Descriptor{URL: "/a"})
	suite.NoError(err)
	_, err = d.Do(context.Background(), courier.Descriptor{})
	suite.NoError(err)

	suite.Require().Len(ids, 2)
	suite.NotEqual(ids[0], ids[1])
}

func (suite *DispatcherSuite) TestCancelRequestDuplicates() {
	d := suite.newDispatcher(suite.gate, courier.Config{})

	first, _ := suite.start(d, courier.Descriptor{URL: "/w"})
	second, secondCall := suite.start(d, courier.Descriptor{URL: "/w"})
	third, thirdCall := suite.start(d, courier.Descriptor{URL: "/w"})
	suite.Equal([]string{"/w", "/w", "/w"}, d.Pending())

	suite.Equal(1, d.CancelRequest("/w"))

	r := suite.await(first)
	suite.True(courier.IsCancelled(r.Err))
	suite.ErrorIs(r.Err, context.Canceled)
	suite.Equal([]string{"/w", "/w"}, d.Pending())

	// the siblings are untouched
	suite.NoError(secondCall.Context().Err())
	suite.NoError(thirdCall.Context().Err())

	thirdCall.Data(point{X: 3})
	r = suite.await(third)
	suite.NoError(r.Err)
	suite.Equal(point{X: 3}, r.Value)

	secondCall.Data(point{X: 2})
	r = suite.await(second)
	suite.NoError(r.Err)
	suite.Equal(point{X: 2}, r.Value)

	suite.Empty(d.Pending())
}

func (suite *DispatcherSuite) TestCancelRequestMany() {
	d := suite.newDispatcher(suite.gate, courier.Config{})

	a, _ := suite.start(d, courier.Descriptor{URL: "/a"})
	b, _ := suite.start(d, courier.Descriptor{URL: "/b"})
	c, cCall := suite.start(d, courier.Descriptor{URL: "/c"})

	suite.Equal(2, d.CancelRequest("/a", "/b", "/missing"))
	suite.True(courier.IsCancelled(suite.await(a).Err))
	suite.True(courier.IsCancelled(suite.await(b).Err))

	suite.Equal([]string{"/c"}, d.Pending())
	cCall.Data(point{X: 1})
	suite.NoError(suite.await(c).Err)
	suite.Zero(d.CancelRequest())
}

func (suite *DispatcherSuite) TestCancelAllRequest() {
	var (
		cancelled []string
		lock      sync.Mutex
		observe   = courier.Interceptors{
			ResponseError: func(_ context.Context, err error) (*courier.Response, error) {
				var ce *courier.CancellationError
				if errors.As(err, &ce) {
					lock.Lock()
					cancelled = append(cancelled, ce.URL)
					lock.Unlock()
				}

				return nil, err
			},
		}
	)

	d := suite.newDispatcher(suite.gate, courier.Config{Interceptors: observe})

	a, _ := suite.start(d, courier.Descriptor{URL: "/a"})
	w1, _ := suite.start(d, courier.Descriptor{URL: "/w"})
	w2, _ := suite.start(d, courier.Descriptor{URL: "/w"})

	suite.Equal(3, d.CancelAllRequest())
	for _, ch := range []<-chan couriertest.Result[point]{a, w1, w2} {
		suite.True(courier.IsCancelled(suite.await(ch).Err))
	}

	suite.ElementsMatch([]string{"/a", "/w", "/w"}, cancelled)
	suite.Empty(d.Pending())

	// requests issued afterwards are unaffected
	late, lateCall := suite.start(d, courier.Descriptor{URL: "/a"})
	lateCall.Data(point{X: 7})
	r := suite.await(late)
	suite.NoError(r.Err)
	suite.Equal(point{X: 7}, r.Value)
}

func (suite *DispatcherSuite) TestUntrackedRequest() {
	d := suite.newDispatcher(suite.gate, courier.Config{})

	ch, call := suite.start(d, courier.Descriptor{})
	suite.Empty(d.Pending())
	suite.Zero(d.CancelAllRequest())

	call.Data(point{X: 5})
	r := suite.await(ch)
	suite.NoError(r.Err)
	suite.Equal(point{X: 5}, r.Value)
}

func (suite *DispatcherSuite) TestSettleWithoutLeaks() {
	d := suite.newDispatcher(suite.gate, courier.Config{})

	success, _ := suite.start(d, courier.Descriptor{URL: "/w"})
	failure, failureCall := suite.start(d, courier.Descriptor{URL: "/w"})
	cancelled, _ := suite.start(d, courier.Descriptor{URL: "/w"})
	suite.Len(d.Pending(), 3)

	// settle out of order:  the last one first
	failureCall.Fail(errors.New("boom"))
	suite.Error(suite.await(failure).Err)
	suite.Len(d.Pending(), 2)

	// the earliest outstanding entry is still the first request
	suite.Equal(1, d.CancelRequest("/w"))
	suite.True(courier.IsCancelled(suite.await(success).Err))
	suite.Len(d.Pending(), 1)

	suite.Equal(1, d.CancelRequest("/w"))
	suite.True(courier.IsCancelled(suite.await(cancelled).Err))
	suite.Empty(d.Pending())
}

func (suite *DispatcherSuite) TestClose() {
	d := suite.newDispatcher(suite.gate, courier.Config{})

	inflight, _ := suite.start(d, courier.Descriptor{URL: "/a"})
	suite.NoError(d.Close())
	suite.True(courier.IsCancelled(suite.await(inflight).Err))
	suite.Empty(d.Pending())

	_, err := d.Do(context.Background(), courier.Descriptor{URL: "/a"})
	suite.ErrorIs(err, courier.ErrClosed)

	_, err = d.Do(context.Background(), courier.Descriptor{})
	suite.ErrorIs(err, courier.ErrClosed)

	suite.NoError(d.Close())
}

func (suite *DispatcherSuite) TestCallerContextCancelled() {
	d := suite.newDispatcher(suite.gate, courier.Config{})

	ctx, cancel := context.WithCancel(context.Background())
	ch := couriertest.Async[point](ctx, d, courier.Descriptor{URL: "/a"})
	suite.Require().NotNil(suite.gate.Next())

	cancel()
	r := suite.await(ch)

	var te *courier.TransportError
	suite.Require().ErrorAs(r.Err, &te)
	suite.ErrorIs(r.Err, context.Canceled)
	suite.False(courier.IsCancelled(r.Err))
	suite.Empty(d.Pending())
}

func TestDispatcher(t *testing.T) {
	suite.Run(t, new(DispatcherSuite))
}
