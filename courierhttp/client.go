// SPDX-FileCopyrightText: 2023 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package courierhttp

import (
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// TransportConfig holds the unmarshaled fields of an *http.Transport.
type TransportConfig struct {
	TLSHandshakeTimeout    time.Duration
	DisableKeepAlives      bool
	DisableCompression     bool
	MaxIdleConns           int
	MaxIdleConnsPerHost    int
	MaxConnsPerHost        int
	IdleConnTimeout        time.Duration
	ResponseHeaderTimeout  time.Duration
	ExpectContinueTimeout  time.Duration
	MaxResponseHeaderBytes int64
	WriteBufferSize        int
	ReadBufferSize         int
	ForceAttemptHTTP2      bool
}

// NewTransport creates an *http.Transport from this configuration.  The
// environment proxy settings are honored.
func (tc TransportConfig) NewTransport() *http.Transport {
	return &http.Transport{
		Proxy:                  http.ProxyFromEnvironment,
		TLSHandshakeTimeout:    tc.TLSHandshakeTimeout,
		DisableKeepAlives:      tc.DisableKeepAlives,
		DisableCompression:     tc.DisableCompression,
		MaxIdleConns:           tc.MaxIdleConns,
		MaxIdleConnsPerHost:    tc.MaxIdleConnsPerHost,
		MaxConnsPerHost:        tc.MaxConnsPerHost,
		IdleConnTimeout:        tc.IdleConnTimeout,
		ResponseHeaderTimeout:  tc.ResponseHeaderTimeout,
		ExpectContinueTimeout:  tc.ExpectContinueTimeout,
		MaxResponseHeaderBytes: tc.MaxResponseHeaderBytes,
		WriteBufferSize:        tc.WriteBufferSize,
		ReadBufferSize:         tc.ReadBufferSize,
		ForceAttemptHTTP2:      tc.ForceAttemptHTTP2,
	}
}

// RateLimitConfig configures client-side rate limiting.  A zero Rate
// disables rate limiting.
type RateLimitConfig struct {
	// Rate is the number of requests allowed per second.
	Rate float64

	// Burst is the maximum burst size.  If unset, 1 is used.
	Burst int
}

// NewLimiter creates the token bucket for this configuration, or returns nil
// if rate limiting is disabled.
func (rlc RateLimitConfig) NewLimiter() *rate.Limiter {
	if rlc.Rate <= 0 {
		return nil
	}

	burst := rlc.Burst
	if burst < 1 {
		burst = 1
	}

	return rate.NewLimiter(rate.Limit(rlc.Rate), burst)
}

// ClientConfig is the unmarshaled configuration for the *http.Client that
// backs a Transport.
type ClientConfig struct {
	// Timeout is the http.Client timeout.  Per-request timeouts are normally
	// controlled by courier instead, so this is usually left unset.
	Timeout time.Duration

	// Transport configures the underlying *http.Transport.
	Transport TransportConfig

	// Header is added to every outbound request.
	Header http.Header

	// RequestIDHeader, if set, names the header that carries each request's id.
	RequestIDHeader string

	// RateLimit configures client-side rate limiting.
	RateLimit RateLimitConfig
}

// NewClient creates an *http.Client from this configuration.
func (cc ClientConfig) NewClient() *http.Client {
	client := &http.Client{
		Transport: cc.Transport.NewTransport(),
	}

	cc.Apply(client)
	return client
}

// Apply decorates an existing client with this configuration.  The client's
// current Transport, or a clone of http.DefaultTransport if unset, is wrapped
// with the configured middleware.  TransportConfig is not used.
func (cc ClientConfig) Apply(client *http.Client) {
	client.Timeout = cc.Timeout
	client.Transport = NewRoundTripperChain(
		NewHeader(cc.Header).AddRequest,
		cc.requestID(),
		RateLimit(cc.RateLimit.NewLimiter()),
	).Then(client.Transport)
}

func (cc ClientConfig) requestID() RoundTripperConstructor {
	if len(cc.RequestIDHeader) == 0 {
		return nil
	}

	return RequestID(cc.RequestIDHeader)
}
