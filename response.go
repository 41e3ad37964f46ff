// SPDX-FileCopyrightText: 2023 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package courier

import (
	"bytes"
	"encoding/json"
	"net/http"
)

// Envelope is the wire wrapper around every response payload.  Only Data is
// delivered to callers of Request.  Code and Message are carried along but
// never inspected by a Dispatcher, so Code is kept as raw JSON and any
// value a server sends there is accepted.
type Envelope struct {
	Code    json.RawMessage `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Response is the settled result of a Transport call.
type Response struct {
	StatusCode int
	Header     http.Header
	Envelope   Envelope
}

var jsonNull = []byte("null")

// Decode unmarshals the envelope's Data into v.  An absent or null Data
// leaves v untouched.
func (r *Response) Decode(v any) error {
	data := bytes.TrimSpace(r.Envelope.Data)
	if len(data) == 0 || bytes.Equal(data, jsonNull) {
		return nil
	}

	return json.Unmarshal(data, v)
}

// Recover builds a Response whose envelope data is the JSON encoding of v.
// ResponseError stages use this to turn a failure into a success:
//
//	ResponseError: func(ctx context.Context, err error) (*courier.Response, error) {
//	  if courier.IsCancelled(err) {
//	    return nil, err // propagate
//	  }
//
//	  return courier.Recover(Forecast{})
//	}
func Recover(v any) (*Response, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	return &Response{
		StatusCode: http.StatusOK,
		Envelope: Envelope{
			Data: data,
		},
	}, nil
}
