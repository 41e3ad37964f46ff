// SPDX-FileCopyrightText: 2023 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package courier

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// DefaultTimeout is the timeout used when neither the Config nor a
// Descriptor supplies one.
const DefaultTimeout = 60 * time.Second

// Config is the externally configurable part of a Dispatcher.
type Config struct {
	// BaseURL is joined with each relative Descriptor URL by the Transport.
	BaseURL string

	// Timeout is the default per-request timeout.  If unset, DefaultTimeout is used.
	Timeout time.Duration

	// Interceptors are the instance-scope interceptors.
	Interceptors Interceptors `mapstructure:"-"`
}

// Dispatcher sends requests through a Transport, applying interceptors and
// tracking in-flight requests so that they can be cancelled.  A Dispatcher
// is safe for concurrent use.  Each Dispatcher owns its own registry of
// in-flight requests.
type Dispatcher struct {
	transport Transport
	baseURL   string
	timeout   time.Duration

	global   []Interceptors
	chained  Interceptors
	instance Interceptors

	logger    *zap.Logger
	observers observers
	registry  registry
}

// New creates a Dispatcher over the given Transport.
func New(t Transport, cfg Config, opts ...Option) (*Dispatcher, error) {
	if t == nil {
		return nil, ErrNilTransport
	}

	d := &Dispatcher{
		transport: t,
		baseURL:   cfg.BaseURL,
		timeout:   cfg.Timeout,
		instance:  cfg.Interceptors,
		logger:    zap.NewNop(),
	}

	if d.timeout <= 0 {
		d.timeout = DefaultTimeout
	}

	if err := Options(opts).Apply(d); err != nil {
		return nil, err
	}

	d.chained = ChainInterceptors(d.global...)
	return d, nil
}

// Do sends a single request and returns the final Response after all
// interceptors have run.
//
// If desc.URL is set, the request is registered before the Transport is
// invoked and released when Do returns, regardless of outcome.
func (d *Dispatcher) Do(ctx context.Context, desc Descriptor) (r *Response, err error) {
	if d.registry.isClosed() {
		return nil, ErrClosed
	}

	p := pipeline{ScopeGlobal: d.chained, ScopeInstance: d.instance}
	current, err := p.request(ctx, desc.clone())
	if err != nil {
		d.logger.Debug("request rejected", zap.String("url", desc.URL), zap.Error(err))
		return nil, err
	}

	d.applyDefaults(current)
	logger := d.logger.With(
		zap.String("method", current.Method),
		zap.String("url", current.URL),
	)

	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	if len(current.URL) > 0 {
		url := current.URL
		e := d.registry.register(url, func() {
			cancel(&CancellationError{URL: url})
		})

		if e == nil {
			return nil, ErrClosed
		}

		defer d.registry.release(e)
		ctx = withRequestID(ctx, e.id)
		logger = logger.With(zap.String("requestID", e.id))
	}

	start := time.Now()
	d.observers.Dispatched(current)
	defer func() {
		if p := recover(); p != nil {
			d.observers.Settled(current, fmt.Errorf("%w: %v", ErrPanic, p), time.Since(start))
			panic(p)
		}

		d.observers.Settled(current, err, time.Since(start))
	}()

	logger.Debug("request dispatched")
	r, err = d.transport.Send(ctx, current)
	if err != nil {
		err = classify(ctx, current, err)
	} else if r == nil {
		r = new(Response)
	}

	r, err = p.response(ctx, r, err)
	if err != nil {
		logger.Debug("request failed", zap.Error(err))
		return nil, err
	}

	logger.Debug("request settled", zap.Int("status", r.StatusCode))
	return r, nil
}

func (d *Dispatcher) applyDefaults(desc *Descriptor) {
	if len(desc.Method) == 0 {
		desc.Method = http.MethodGet
	}

	if len(desc.BaseURL) == 0 {
		desc.BaseURL = d.baseURL
	}

	if desc.Timeout <= 0 {
		desc.Timeout = d.timeout
	}
}

// classify turns a Transport failure into either a *CancellationError, when
// this request's cancel handle fired, or a *TransportError.
func classify(ctx context.Context, desc *Descriptor, err error) error {
	var ce *CancellationError
	if errors.As(context.Cause(ctx), &ce) {
		return ce
	}

	var te *TransportError
	if errors.As(err, &te) {
		return err
	}

	return &TransportError{
		Method: desc.Method,
		URL:    desc.URL,
		Err:    err,
	}
}

// CancelRequest cancels the earliest in-flight request for each of the given
// urls.  Other requests sharing a url are unaffected.  The count of requests
// actually cancelled is returned.
func (d *Dispatcher) CancelRequest(urls ...string) (count int) {
	for _, url := range urls {
		if d.registry.cancelOne(url) {
			count++
		}
	}

	d.logger.Info("requests cancelled", zap.Strings("urls", urls), zap.Int("count", count))
	return
}

// CancelAllRequest cancels every request currently in flight.  Requests made
// after this method returns are unaffected.
func (d *Dispatcher) CancelAllRequest() int {
	count := d.registry.cancelAll()
	d.logger.Info("all requests cancelled", zap.Int("count", count))
	return count
}

// Pending returns the urls of all in-flight requests in the order they were
// dispatched.  A url appears once per request.
func (d *Dispatcher) Pending() []string {
	return d.registry.pending()
}

// Close cancels all in-flight requests and causes subsequent requests to fail
// with ErrClosed.  Close is idempotent and always returns nil.
func (d *Dispatcher) Close() error {
	count := d.registry.close()
	d.logger.Info("dispatcher closed", zap.Int("cancelled", count))
	return nil
}

// Request sends a request through d and decodes the envelope data into a T.
// Only the envelope's data is delivered.
func Request[T any](ctx context.Context, d *Dispatcher, desc Descriptor) (result T, err error) {
	var r *Response
	if r, err = d.Do(ctx, desc); err == nil {
		if decodeErr := r.Decode(&result); decodeErr != nil {
			err = fmt.Errorf("courier: decoding data for %s: %w", desc.URL, decodeErr)
		}
	}

	return
}
