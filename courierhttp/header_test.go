// SPDX-FileCopyrightText: 2023 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package courierhttp

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xmidt-org/httpaux/roundtrip"
)

func testHeaderBasic(f func() Header, expected http.Header, t *testing.T) {
	var (
		assert  = assert.New(t)
		require = require.New(t)

		header Header
		actual = make(http.Header)
	)

	require.NotPanics(func() {
		header = f()
	})

	assert.Equal(len(expected), header.Len())
	header.AddTo(actual)
	assert.Equal(expected, actual)
}

func testHeaderAddRequest(f func() Header, expected http.Header, t *testing.T) {
	var (
		assert  = assert.New(t)
		require = require.New(t)

		header  Header
		request = httptest.NewRequest("GET", "/", nil)

		roundTripper http.RoundTripper = roundtrip.Func(func(candidate *http.Request) (*http.Response, error) {
			if len(expected) == 0 {
				// a nil Header won't compare equal to an http.Header{}
				assert.Empty(candidate.Header)
			} else {
				assert.Equal(expected, candidate.Header)
				assert.NotSame(request, candidate)
			}

			return &http.Response{
				StatusCode: 276,
			}, nil
		})
	)

	require.NotPanics(func() {
		header = f()
	})

	decorated := header.AddRequest(roundTripper)
	require.NotNil(decorated)
	response, err := decorated.RoundTrip(request)
	assert.NoError(err)
	require.NotNil(response)
	assert.Equal(276, response.StatusCode)

	// the original request is never modified
	assert.Empty(request.Header)

	request.Header = nil
	response, err = decorated.RoundTrip(request)
	assert.NoError(err)
	require.NotNil(response)
	assert.Equal(276, response.StatusCode)
}

func TestNewHeader(t *testing.T) {
	testData := []struct {
		src      http.Header
		expected http.Header
	}{
		{
			src:      nil,
			expected: http.Header{},
		},
		{
			src:      http.Header{},
			expected: http.Header{},
		},
		{
			src: http.Header{
				"content-type": {"text/plain"},
				"MultiVAlUe":   {"value1", "value2"},
				"blaNK":        {""},
				"emPTy":        {},
				"":             {"this shouldn't show up"},
			},
			expected: http.Header{
				"Content-Type": {"text/plain"},
				"Multivalue":   {"value1", "value2"},
				"Blank":        {""},
			},
		},
	}

	for i, record := range testData {
		t.Run(strconv.Itoa(i), func(t *testing.T) {
			f := func() Header { return NewHeader(record.src) }
			t.Run("Basic", func(t *testing.T) {
				testHeaderBasic(f, record.expected, t)
			})

			t.Run("AddRequest", func(t *testing.T) {
				testHeaderAddRequest(f, record.expected, t)
			})
		})
	}
}
