// SPDX-FileCopyrightText: 2023 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

/*
Package courier dispatches client-side HTTP requests through a layered
interceptor pipeline while tracking every in-flight request by URL.

Interceptors

Interceptors exist at three scopes.  Global interceptors are shared by
every call a Dispatcher makes and are typically supplied by the enclosing
application.  Instance interceptors come from the Dispatcher's Config.
Per-call interceptors ride along on a Descriptor.  On the way in, request
stages run global, instance, then per-call.  On the way out, response stages
run in the reverse order.

Any slot may be nil, in which case it is the identity transform.  A
ResponseError slot that returns a non-nil *Response and a nil error recovers
from the failure, and the caller sees a success.  Recover is a convenience for
building such a response.

Cancellation

Each request with a non-empty URL is registered with its Dispatcher before
any I/O happens and is released, exactly once, when it settles.  Several
requests may share the same URL.  CancelRequest cancels the earliest
outstanding request for each URL given, while CancelAllRequest cancels
everything currently in flight.  A cancelled request fails with a
*CancellationError.
*/
package courier
