// SPDX-FileCopyrightText: 2023 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package courier

import (
	"context"
	"errors"
	"strconv"
)

// Scope identifies where an Interceptors set was installed.
type Scope int

const (
	// ScopeGlobal interceptors apply to every request of a Dispatcher and
	// usually come from the enclosing application.
	ScopeGlobal Scope = iota

	// ScopeInstance interceptors come from a Dispatcher's Config.
	ScopeInstance

	// ScopeCall interceptors come from an individual Descriptor.
	ScopeCall
)

func (s Scope) String() string {
	switch s {
	case ScopeGlobal:
		return "global"

	case ScopeInstance:
		return "instance"

	case ScopeCall:
		return "call"

	default:
		return "Scope(" + strconv.Itoa(int(s)) + ")"
	}
}

// RequestFunc transforms a Descriptor before it is sent.  Returning a nil
// *Descriptor with a nil error leaves the descriptor unchanged.  Returning
// an error rejects the request.
type RequestFunc func(context.Context, *Descriptor) (*Descriptor, error)

// ResponseFunc transforms a successful Response.  Returning a nil *Response
// with a nil error leaves the response unchanged.  Returning an error turns
// the outcome into a failure.
type ResponseFunc func(context.Context, *Response) (*Response, error)

// ResponseErrorFunc observes a failure.  Returning a non-nil error, typically
// the one passed in, keeps the outcome a failure.  Returning a non-nil
// *Response with a nil error recovers, and the outcome becomes a success.
// Returning (nil, nil) leaves the failure unchanged.
type ResponseErrorFunc func(context.Context, error) (*Response, error)

// Interceptors is the set of stages for one scope.  Every slot is optional.
// A nil slot is the identity transform.
type Interceptors struct {
	Request       RequestFunc
	Response      ResponseFunc
	ResponseError ResponseErrorFunc
}

// request applies the Request slot.
func (i Interceptors) request(ctx context.Context, d *Descriptor) (*Descriptor, error) {
	if i.Request == nil {
		return d, nil
	}

	next, err := i.Request(ctx, d)
	switch {
	case err != nil:
		return nil, err

	case next == nil:
		return d, nil

	default:
		return next, nil
	}
}

// response applies whichever slot matches the current outcome.
func (i Interceptors) response(ctx context.Context, r *Response, err error) (*Response, error) {
	if err != nil {
		if i.ResponseError == nil {
			return nil, err
		}

		recovered, stageErr := i.ResponseError(ctx, err)
		switch {
		case stageErr != nil:
			return nil, stageErr

		case recovered == nil:
			return nil, err

		default:
			return recovered, nil
		}
	}

	if i.Response == nil {
		return r, nil
	}

	next, stageErr := i.Response(ctx, r)
	switch {
	case stageErr != nil:
		return nil, stageErr

	case next == nil:
		return r, nil

	default:
		return next, nil
	}
}

// ChainInterceptors composes several Interceptors into one.  Request stages
// execute in the order given, and response stages execute in the reverse
// order, so that the first Interceptors given is the outermost.
//
// The zero-length chain is the identity.
func ChainInterceptors(chain ...Interceptors) Interceptors {
	switch len(chain) {
	case 0:
		return Interceptors{}

	case 1:
		return chain[0]
	}

	// safe copy
	chain = append([]Interceptors{}, chain...)
	return Interceptors{
		Request: func(ctx context.Context, d *Descriptor) (*Descriptor, error) {
			var err error
			for _, i := range chain {
				if d, err = i.request(ctx, d); err != nil {
					return nil, err
				}
			}

			return d, nil
		},
		Response: func(ctx context.Context, r *Response) (*Response, error) {
			return chainResponse(ctx, chain, r, nil)
		},
		ResponseError: func(ctx context.Context, err error) (*Response, error) {
			return chainResponse(ctx, chain, nil, err)
		},
	}
}

func chainResponse(ctx context.Context, chain []Interceptors, r *Response, err error) (*Response, error) {
	for i := len(chain) - 1; i >= 0; i-- {
		r, err = chain[i].response(ctx, r, err)
	}

	return r, err
}

// pipeline is the fully resolved set of scopes for a single request.
type pipeline [3]Interceptors

// request runs the request stages, global first.  The error returned is always
// an *InterceptorError.  The per-call slots are read from the descriptor as it
// stands when they are needed, so an earlier stage may replace them.
func (p *pipeline) request(ctx context.Context, d *Descriptor) (*Descriptor, error) {
	for s := ScopeGlobal; s <= ScopeCall; s++ {
		if s == ScopeCall {
			p[ScopeCall] = d.callInterceptors()
		}

		var err error
		d, err = p[s].request(ctx, d)
		if err != nil {
			var ie *InterceptorError
			if !errors.As(err, &ie) {
				ie = &InterceptorError{Scope: s, Err: err}
			}

			return nil, ie
		}
	}

	p[ScopeCall] = d.callInterceptors()
	return d, nil
}

// response runs the response stages, per-call first.
func (p pipeline) response(ctx context.Context, r *Response, err error) (*Response, error) {
	for s := ScopeCall; s >= ScopeGlobal; s-- {
		r, err = p[s].response(ctx, r, err)
	}

	return r, err
}
