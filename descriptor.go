// SPDX-FileCopyrightText: 2023 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package courier

import (
	"net/http"
	"time"
)

// Descriptor describes a single request.  A Descriptor is passed by value to
// a Dispatcher, which owns its copy until the request settles.
type Descriptor struct {
	// URL is the request target.  It may be relative to BaseURL.  A non-empty
	// URL is required for the request to be tracked for cancellation.
	URL string

	// Method is the HTTP method.  If unset, http.MethodGet is used.
	Method string

	// BaseURL is joined with URL by the Transport.  If unset, the Dispatcher's
	// configured base URL is used.
	BaseURL string

	// Params are the query parameters.  A Transport may accept url.Values,
	// maps, or structs.
	Params any

	// Body is the request payload.  For a GET request with no Params, the
	// HTTP transport sends Body as the query instead.
	Body any

	// Header holds request-specific headers.
	Header http.Header

	// Timeout overrides the Dispatcher's default timeout for this call.
	Timeout time.Duration

	// Interceptors are the optional per-call interceptors.
	Interceptors *Interceptors
}

// clone returns a copy that does not share the header map with d.
func (d Descriptor) clone() *Descriptor {
	c := d
	if d.Header != nil {
		c.Header = d.Header.Clone()
	}

	return &c
}

// callInterceptors returns the per-call slots, or the zero Interceptors if none.
func (d *Descriptor) callInterceptors() Interceptors {
	if d.Interceptors != nil {
		return *d.Interceptors
	}

	return Interceptors{}
}
