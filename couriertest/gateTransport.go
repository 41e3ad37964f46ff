// SPDX-FileCopyrightText: 2023 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package couriertest

import (
	"context"
	"encoding/json"
	"time"

	"github.com/xmidt-org/courier"
)

// DefaultWait is how long GateTransport.Next waits for a call.
const DefaultWait = 5 * time.Second

type outcome struct {
	r   *courier.Response
	err error
}

// GateCall is a single call held open by a GateTransport.  The call stays
// in flight until it is settled through one of its methods or its context
// is cancelled.
type GateCall struct {
	// Descriptor is the descriptor the Transport received.
	Descriptor *courier.Descriptor

	ctx  context.Context
	done chan outcome
}

// Context returns the context the Transport received.
func (gc *GateCall) Context() context.Context {
	return gc.ctx
}

// Respond settles the call successfully with r.
func (gc *GateCall) Respond(r *courier.Response) {
	gc.done <- outcome{r: r}
}

// Data settles the call successfully with an envelope carrying data.
func (gc *GateCall) Data(data any) {
	raw, err := json.Marshal(data)
	if err != nil {
		panic(err)
	}

	gc.Respond(&courier.Response{
		StatusCode: 200,
		Envelope: courier.Envelope{
			Message: "ok",
			Data:    raw,
		},
	})
}

// Fail settles the call with err.
func (gc *GateCall) Fail(err error) {
	gc.done <- outcome{err: err}
}

// GateTransport is a courier.Transport that holds every call open until the
// test settles it.  This gives tests full control over interleaving.
type GateTransport struct {
	calls chan *GateCall
}

var _ courier.Transport = (*GateTransport)(nil)

// NewGateTransport creates a GateTransport that can have up to capacity
// calls waiting to be picked up by Next.
func NewGateTransport(capacity int) *GateTransport {
	return &GateTransport{
		calls: make(chan *GateCall, capacity),
	}
}

// Send blocks until the call is settled or ctx is done.
func (gt *GateTransport) Send(ctx context.Context, d *courier.Descriptor) (*courier.Response, error) {
	gc := &GateCall{
		Descriptor: d,
		ctx:        ctx,
		done:       make(chan outcome, 1),
	}

	gt.calls <- gc
	select {
	case <-ctx.Done():
		return nil, ctx.Err()

	case o := <-gc.done:
		return o.r, o.err
	}
}

// Next returns the next call to arrive, waiting up to DefaultWait.  If no call
// arrives, this method returns nil.
func (gt *GateTransport) Next() *GateCall {
	select {
	case gc := <-gt.calls:
		return gc

	case <-time.After(DefaultWait):
		return nil
	}
}
