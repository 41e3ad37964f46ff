// SPDX-FileCopyrightText: 2023 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package couriertest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/justinas/alice"
	"github.com/xmidt-org/courier"
)

// Server is an httptest.Server that speaks the courier envelope format.
// Routes are added to Router before any requests are made.
type Server struct {
	*httptest.Server

	// Router is the gorilla/mux router behind the server.
	Router *mux.Router
}

// NewServer starts a Server whose router is decorated by the given
// middleware, executed in order.
func NewServer(middleware ...alice.Constructor) *Server {
	router := mux.NewRouter()
	return &Server{
		Server: httptest.NewServer(
			alice.New(middleware...).Then(router),
		),
		Router: router,
	}
}

// WriteEnvelope writes a JSON envelope with the given status.
func WriteEnvelope(response http.ResponseWriter, status, code int, message string, data any) {
	raw, err := json.Marshal(data)
	if err != nil {
		http.Error(response, err.Error(), http.StatusInternalServerError)
		return
	}

	body, _ := json.Marshal(courier.Envelope{
		Code:    json.RawMessage(strconv.Itoa(code)),
		Message: message,
		Data:    raw,
	})

	response.Header().Set("Content-Type", "application/json")
	response.WriteHeader(status)
	response.Write(body)
}

// Envelope is an http.HandlerFunc that always writes a successful envelope
// carrying data.
func Envelope(data any) http.HandlerFunc {
	return func(response http.ResponseWriter, _ *http.Request) {
		WriteEnvelope(response, http.StatusOK, 0, "ok", data)
	}
}

// Hold is middleware that blocks every request until release is closed or
// the request's context is done.  The arrived channel, if not nil, receives
// each request's path as it arrives.
func Hold(release <-chan struct{}, arrived chan<- string) alice.Constructor {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(response http.ResponseWriter, request *http.Request) {
			if arrived != nil {
				arrived <- request.URL.Path
			}

			select {
			case <-release:
				next.ServeHTTP(response, request)

			case <-request.Context().Done():
			}
		})
	}
}
