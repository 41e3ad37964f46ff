// SPDX-FileCopyrightText: 2023 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package courierhttp

import "net/http"

// Header holds the headers a client stamps onto every outbound request,
// such as ClientConfig.Header.  A Header never changes after NewHeader
// returns it, so one value can be shared by all requests of a client.
type Header struct {
	h http.Header
}

// NewHeader builds a Header from configuration.  Keys are canonicalized, so
// "x-custom" and "X-Custom" from a config file merge into one entry.  Blank
// keys and keys with no values are dropped.
func NewHeader(src http.Header) (h Header) {
	for key, values := range src {
		if len(key) == 0 || len(values) == 0 {
			continue
		}

		if h.h == nil {
			h.h = make(http.Header, len(src))
		}

		key = http.CanonicalHeaderKey(key)
		h.h[key] = append(h.h[key], values...)
	}

	return
}

// Len is the number of distinct header names.
func (h Header) Len() int {
	return len(h.h)
}

// AddTo appends every value to dst.
func (h Header) AddTo(dst http.Header) {
	for key, values := range h.h {
		dst[key] = append(dst[key], values...)
	}
}

// AddRequest is a RoundTripperConstructor.  Each request is cloned before
// the headers are added, so callers never see their request modified.  An
// empty Header returns next as is.
func (h Header) AddRequest(next http.RoundTripper) http.RoundTripper {
	if h.Len() == 0 {
		return next
	}

	return RoundTripperFunc(func(request *http.Request) (*http.Response, error) {
		request = request.Clone(request.Context())
		if request.Header == nil {
			request.Header = make(http.Header, h.Len())
		}

		h.AddTo(request.Header)
		return next.RoundTrip(request)
	})
}
