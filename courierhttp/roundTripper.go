// SPDX-FileCopyrightText: 2023 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package courierhttp

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/xmidt-org/courier"
	"golang.org/x/time/rate"
)

// DefaultRequestIDHeader is the header used by RequestID when no header
// name is configured.
const DefaultRequestIDHeader = "X-Request-Id"

// RoundTripperFunc is a function type that implements http.RoundTripper.
type RoundTripperFunc func(*http.Request) (*http.Response, error)

// RoundTrip implements http.RoundTripper
func (rtf RoundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return rtf(r)
}

// RoundTripperConstructor is a strategy for decorating an http.RoundTripper.
type RoundTripperConstructor func(http.RoundTripper) http.RoundTripper

// RoundTripperChain is a sequence of RoundTripperConstructors.  A RoundTripperChain is immutable,
// and will apply its constructors in order.  The zero value for this type is a valid,
// empty chain that will not decorate anything.
type RoundTripperChain struct {
	c []RoundTripperConstructor
}

// NewRoundTripperChain creates a chain from a sequence of constructors.  The constructors
// are always applied in the order presented here.  Nil constructors are skipped.
func NewRoundTripperChain(c ...RoundTripperConstructor) RoundTripperChain {
	return RoundTripperChain{}.Append(c...)
}

// Append adds additional RoundTripperConstructors to this chain, and returns the new chain.
// This chain is not modified.
func (rc RoundTripperChain) Append(more ...RoundTripperConstructor) RoundTripperChain {
	c := append([]RoundTripperConstructor{}, rc.c...)
	for _, m := range more {
		if m != nil {
			c = append(c, m)
		}
	}

	return RoundTripperChain{c: c}
}

// Then decorates next with all of the constructors applied, in the order
// they were presented to this chain.  If next is nil, a clone of
// http.DefaultTransport is decorated.
func (rc RoundTripperChain) Then(next http.RoundTripper) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport.(*http.Transport).Clone()
	}

	// apply in reverse order, so that the order of
	// execution matches the order supplied to this chain
	for i := len(rc.c) - 1; i >= 0; i-- {
		next = rc.c[i](next)
	}

	return next
}

// RequestID returns a RoundTripperConstructor that sets header on each
// outbound request.  The value is the id courier assigned to the tracked
// request, or a fresh UUID for untracked requests.  A request that already
// carries the header is left alone.
func RequestID(header string) RoundTripperConstructor {
	if len(header) == 0 {
		header = DefaultRequestIDHeader
	}

	header = http.CanonicalHeaderKey(header)
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(request *http.Request) (*http.Response, error) {
			if len(request.Header.Get(header)) == 0 {
				id, ok := courier.RequestID(request.Context())
				if !ok {
					id = uuid.NewString()
				}

				request = request.Clone(request.Context())
				if request.Header == nil {
					request.Header = make(http.Header, 1)
				}

				request.Header.Set(header, id)
			}

			return next.RoundTrip(request)
		})
	}
}

// RateLimit returns a RoundTripperConstructor that waits on limiter before
// each request.  Waiting honors the request's context, so a cancelled request
// stops waiting immediately.  A request whose deadline would pass before a
// token is available fails at once with an error that wraps
// context.DeadlineExceeded.  A nil limiter results in no decoration.
func RateLimit(limiter *rate.Limiter) RoundTripperConstructor {
	if limiter == nil {
		return nil
	}

	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(request *http.Request) (*http.Response, error) {
			ctx := request.Context()
			if err := limiter.Wait(ctx); err != nil {
				if _, ok := ctx.Deadline(); ok && ctx.Err() == nil {
					err = fmt.Errorf("%w: %v", context.DeadlineExceeded, err)
				}

				return nil, err
			}

			return next.RoundTrip(request)
		})
	}
}
