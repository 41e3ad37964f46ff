// SPDX-FileCopyrightText: 2023 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

// ErrInvalidHeader indicates a --header value that was not of the form "Name: value".
var ErrInvalidHeader = errors.New("header must be of the form 'Name: value'")

// Options are the command line options, interpreted by github.com/jessevdk/go-flags.
type Options struct {
	Config  string   `short:"f" long:"config" description:"configuration file (YAML or JSON)"`
	Key     string   `short:"k" long:"key" default:"courier" description:"configuration key holding the dispatcher settings"`
	BaseURL string   `short:"b" long:"base-url" description:"base URL, overriding the configuration"`
	Method  string   `short:"X" long:"method" default:"GET" description:"HTTP method"`
	Data    string   `short:"d" long:"data" description:"JSON request data.  Sent as the query for GET requests."`
	Header  []string `short:"H" long:"header" description:"extra request header as 'Name: value'"`
	Output  string   `short:"o" long:"output" default:"json" choice:"json" choice:"yaml" description:"output format"`
	Verbose bool     `short:"v" long:"verbose" description:"log request lifecycle to stderr"`

	Args struct {
		URLs []string `positional-arg-name:"url" required:"1"`
	} `positional-args:"yes"`
}

// header parses the --header values.
func (o *Options) header() (http.Header, error) {
	if len(o.Header) == 0 {
		return nil, nil
	}

	h := make(http.Header, len(o.Header))
	for _, v := range o.Header {
		name, value, ok := strings.Cut(v, ":")
		name = strings.TrimSpace(name)
		if !ok || len(name) == 0 {
			return nil, ErrInvalidHeader
		}

		h.Add(name, strings.TrimSpace(value))
	}

	return h, nil
}

// data parses the --data value.
func (o *Options) data() (v any, err error) {
	if len(o.Data) > 0 {
		err = json.Unmarshal([]byte(o.Data), &v)
	}

	return
}
