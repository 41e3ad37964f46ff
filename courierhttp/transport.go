// SPDX-FileCopyrightText: 2023 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package courierhttp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/xmidt-org/courier"
)

// ErrUnexpectedStatus is wrapped by the *courier.TransportError returned for
// any non-2xx response.
var ErrUnexpectedStatus = errors.New("unexpected status")

// Transport is the courier.Transport backed by an *http.Client.  Request
// bodies are sent as JSON, and response bodies are decoded as courier envelopes.
type Transport struct {
	client *http.Client
}

var _ courier.Transport = (*Transport)(nil)

// NewTransport creates a Transport around the given client.  A nil client
// is replaced with an empty *http.Client.
func NewTransport(client *http.Client) *Transport {
	if client == nil {
		client = new(http.Client)
	}

	return &Transport{
		client: client,
	}
}

// Send performs one HTTP exchange.  The descriptor's Timeout, if set, bounds
// the entire exchange including reading the body.
func (t *Transport) Send(ctx context.Context, d *courier.Descriptor) (*courier.Response, error) {
	if d.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.Timeout)
		defer cancel()
	}

	request, err := NewRequest(ctx, d)
	if err != nil {
		return nil, err
	}

	response, err := t.client.Do(request)
	if err != nil {
		return nil, err
	}

	defer response.Body.Close()
	body, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, err
	}

	if response.StatusCode < 200 || response.StatusCode > 299 {
		return nil, &courier.TransportError{
			Method:     d.Method,
			URL:        d.URL,
			StatusCode: response.StatusCode,
			Err:        ErrUnexpectedStatus,
		}
	}

	r := &courier.Response{
		StatusCode: response.StatusCode,
		Header:     response.Header,
	}

	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &r.Envelope); err != nil {
			return nil, &courier.TransportError{
				Method:     d.Method,
				URL:        d.URL,
				StatusCode: response.StatusCode,
				Err:        err,
			}
		}
	}

	return r, nil
}

// NewRequest translates a descriptor into an *http.Request.  For GET and
// HEAD requests without Params, Body is sent as the query instead of as a
// request body.
func NewRequest(ctx context.Context, d *courier.Descriptor) (*http.Request, error) {
	target, err := JoinURL(d.BaseURL, d.URL)
	if err != nil {
		return nil, err
	}

	method := d.Method
	if len(method) == 0 {
		method = http.MethodGet
	}

	params, payload := d.Params, d.Body
	if params == nil && (method == http.MethodGet || method == http.MethodHead) {
		params, payload = payload, nil
	}

	query, err := EncodeQuery(params)
	if err != nil {
		return nil, err
	}

	if len(query) > 0 {
		merged := target.Query()
		for k, v := range query {
			merged[k] = append(merged[k], v...)
		}

		target.RawQuery = merged.Encode()
	}

	body, contentType, err := encodeBody(payload)
	if err != nil {
		return nil, err
	}

	request, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return nil, err
	}

	for k, v := range d.Header {
		k = http.CanonicalHeaderKey(k)
		request.Header[k] = append(request.Header[k], v...)
	}

	if len(contentType) > 0 && len(request.Header.Get("Content-Type")) == 0 {
		request.Header.Set("Content-Type", contentType)
	}

	if len(request.Header.Get("Accept")) == 0 {
		request.Header.Set("Accept", "application/json")
	}

	return request, nil
}

// encodeBody returns the request body and its content type.  Readers, byte
// slices, and strings are sent as is.  Everything else is encoded as JSON.
func encodeBody(v any) (io.Reader, string, error) {
	switch t := v.(type) {
	case nil:
		return nil, "", nil

	case io.Reader:
		return t, "", nil

	case []byte:
		return bytes.NewReader(t), "", nil

	case string:
		return strings.NewReader(t), "", nil

	default:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, "", err
		}

		return bytes.NewReader(data), "application/json", nil
	}
}
