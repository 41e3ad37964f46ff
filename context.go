// SPDX-FileCopyrightText: 2023 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package courier

import "context"

type requestIDKey struct{}

// withRequestID associates a tracked request's registry id with a context.
func withRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the id a Dispatcher assigned to the tracked request
// running under ctx.  Transports use this to correlate outbound calls.
func RequestID(ctx context.Context) (id string, ok bool) {
	id, ok = ctx.Value(requestIDKey{}).(string)
	return
}
