// SPDX-FileCopyrightText: 2023 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package courier

import (
	"context"
	"errors"
	"strconv"
	"strings"
)

var (
	// ErrNilTransport is returned by New when no Transport is supplied.
	ErrNilTransport = errors.New("courier: a Transport is required")

	// ErrClosed is returned for any request made after a Dispatcher has been closed.
	ErrClosed = errors.New("courier: dispatcher closed")

	// ErrPanic is reported to observers for a request whose Transport or
	// response stages panicked.  The panic itself is propagated to the caller.
	ErrPanic = errors.New("courier: request panicked")
)

// TransportError describes a failure of the Transport to produce a usable
// response.  This includes network errors, timeouts, unexpected status codes,
// and response bodies that could not be decoded.
type TransportError struct {
	// Method is the HTTP method of the failed request.
	Method string

	// URL is the request URL as it appeared on the Descriptor.
	URL string

	// StatusCode is the HTTP status code, if a response was received.  Zero
	// indicates no response was received at all.
	StatusCode int

	// Err is the underlying cause.
	Err error
}

func (te *TransportError) Error() string {
	var o strings.Builder
	o.WriteString("courier: ")
	o.WriteString(te.Method)
	o.WriteRune(' ')
	o.WriteString(te.URL)
	if te.StatusCode > 0 {
		o.WriteString(" [")
		o.WriteString(strconv.Itoa(te.StatusCode))
		o.WriteRune(']')
	}

	if te.Err != nil {
		o.WriteString(": ")
		o.WriteString(te.Err.Error())
	}

	return o.String()
}

func (te *TransportError) Unwrap() error {
	return te.Err
}

// Timeout reports whether this error was caused by an expired deadline.
func (te *TransportError) Timeout() bool {
	return errors.Is(te.Err, context.DeadlineExceeded)
}

// CancellationError is the failure reported for a request that settled
// because its cancellation handle was invoked, either through CancelRequest,
// CancelAllRequest, or Close.
//
// A CancellationError unwraps to context.Canceled.
type CancellationError struct {
	// URL is the request URL that was cancelled.
	URL string
}

func (ce *CancellationError) Error() string {
	return "courier: request cancelled: " + ce.URL
}

func (ce *CancellationError) Unwrap() error {
	return context.Canceled
}

// InterceptorError is returned when a request stage rejects a request.
// No network call is made in that case.
type InterceptorError struct {
	// Scope is the scope of the stage that failed.
	Scope Scope

	// Err is the error returned by the stage.
	Err error
}

func (ie *InterceptorError) Error() string {
	var o strings.Builder
	o.WriteString("courier: ")
	o.WriteString(ie.Scope.String())
	o.WriteString(" request interceptor failed")
	if ie.Err != nil {
		o.WriteString(": ")
		o.WriteString(ie.Err.Error())
	}

	return o.String()
}

func (ie *InterceptorError) Unwrap() error {
	return ie.Err
}

// IsCancelled tests if err is or wraps a *CancellationError.
func IsCancelled(err error) bool {
	var ce *CancellationError
	return errors.As(err, &ce)
}
