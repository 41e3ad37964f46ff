// SPDX-FileCopyrightText: 2023 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package courier

import "context"

// Transport performs the actual I/O for a single request.  Cancelling the
// context is the cancellation primitive:  an implementation must return
// promptly once ctx is done.
//
// Implementations must be safe for concurrent use.
type Transport interface {
	Send(context.Context, *Descriptor) (*Response, error)
}

// TransportFunc is a closure type that implements Transport.
type TransportFunc func(context.Context, *Descriptor) (*Response, error)

func (tf TransportFunc) Send(ctx context.Context, d *Descriptor) (*Response, error) {
	return tf(ctx, d)
}
