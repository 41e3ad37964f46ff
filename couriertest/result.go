// SPDX-FileCopyrightText: 2023 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package couriertest

import (
	"context"
	"time"

	"github.com/xmidt-org/courier"
)

// Result is the outcome of an asynchronous request.
type Result[T any] struct {
	Value T
	Err   error
}

// Async runs courier.Request in its own goroutine and returns a channel that
// receives the single result.
func Async[T any](ctx context.Context, d *courier.Dispatcher, desc courier.Descriptor) <-chan Result[T] {
	ch := make(chan Result[T], 1)
	go func() {
		v, err := courier.Request[T](ctx, d, desc)
		ch <- Result[T]{Value: v, Err: err}
	}()

	return ch
}

// Await waits up to DefaultWait for a result.  The boolean is false if no
// result arrived in time.
func Await[T any](ch <-chan Result[T]) (r Result[T], ok bool) {
	select {
	case r = <-ch:
		ok = true

	case <-time.After(DefaultWait):
	}

	return
}
