// SPDX-FileCopyrightText: 2023 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package couriertest

import (
	"context"
	"encoding/json"

	"github.com/stretchr/testify/mock"
	"github.com/xmidt-org/courier"
)

// DescriptorMatcher is a Fluent Builder for a set of match criteria for a
// *courier.Descriptor.  Used with mock.MatchedBy to match descriptors by state
// rather than by identity.
type DescriptorMatcher struct {
	predicates []func(*courier.Descriptor) bool
}

// Match adds a predicate to this matcher, and returns this matcher for chaining.
func (dm *DescriptorMatcher) Match(p func(*courier.Descriptor) bool) *DescriptorMatcher {
	dm.predicates = append(dm.predicates, p)
	return dm
}

// Method matches on the descriptor method.
func (dm *DescriptorMatcher) Method(v string) *DescriptorMatcher {
	return dm.Match(func(d *courier.Descriptor) bool {
		return d.Method == v
	})
}

// URL matches on the descriptor URL.
func (dm *DescriptorMatcher) URL(v string) *DescriptorMatcher {
	return dm.Match(func(d *courier.Descriptor) bool {
		return d.URL == v
	})
}

// Header matches on a descriptor header.  For a multi-valued header,
// the expected value must appear in the actual list of values.
func (dm *DescriptorMatcher) Header(key, expected string) *DescriptorMatcher {
	return dm.Match(func(d *courier.Descriptor) bool {
		for _, v := range d.Header.Values(key) {
			if v == expected {
				return true
			}
		}

		return false
	})
}

// Matches may be passed to mock.MatchedBy.  This method returns
// true if and only if all the predicates return true.
func (dm DescriptorMatcher) Matches(candidate *courier.Descriptor) (matched bool) {
	matched = true
	for i := 0; matched && i < len(dm.predicates); i++ {
		matched = matched && dm.predicates[i](candidate)
	}

	return
}

// SendCall is a mocked Call that allows a clearer return declaration.
type SendCall struct {
	*mock.Call
}

// Response sets the Send return to the given response with no error.
func (sc SendCall) Response(r *courier.Response) *mock.Call {
	return sc.Call.Return(r, error(nil))
}

// Data sets the Send return to a response whose envelope carries the JSON
// encoding of data.  Encoding failures panic, since they indicate a broken test.
func (sc SendCall) Data(data any) *mock.Call {
	raw, err := json.Marshal(data)
	if err != nil {
		panic(err)
	}

	return sc.Response(&courier.Response{
		StatusCode: 200,
		Envelope: courier.Envelope{
			Message: "ok",
			Data:    raw,
		},
	})
}

// Error sets the Send return to the given error and a nil *courier.Response.
func (sc SendCall) Error(err error) *mock.Call {
	return sc.Call.Return((*courier.Response)(nil), err)
}

// MockTransport is a mocked courier.Transport.
type MockTransport struct {
	mock.Mock
}

var _ courier.Transport = (*MockTransport)(nil)

// Send executes the appropriate mocked call.
func (m *MockTransport) Send(ctx context.Context, d *courier.Descriptor) (*courier.Response, error) {
	args := m.Called(ctx, d)
	response, _ := args.Get(0).(*courier.Response)
	return response, args.Error(1)
}

// ExpectMatch sets an expectation for a descriptor matching the given criteria.
func (m *MockTransport) ExpectMatch(matcher DescriptorMatcher) SendCall {
	return SendCall{
		Call: m.On("Send", mock.Anything, mock.MatchedBy(matcher.Matches)),
	}
}

// ExpectAny sets an expectation for any descriptor at all.
func (m *MockTransport) ExpectAny() SendCall {
	return SendCall{
		Call: m.On("Send", mock.Anything, mock.Anything),
	}
}
