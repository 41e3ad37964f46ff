// SPDX-FileCopyrightText: 2023 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package courier

import "time"

// Observer receives lifecycle events for every request a Dispatcher sends
// to its Transport.  Requests rejected by a request stage are never
// observed.  Implementations must be safe for concurrent use.
type Observer interface {
	// Dispatched is called just before the Transport is invoked.
	Dispatched(d *Descriptor)

	// Settled is called once the outcome is final, after all response
	// stages have run.  err is nil for a success, including a recovered failure.
	Settled(d *Descriptor, err error, elapsed time.Duration)
}

type observers []Observer

func (os observers) Dispatched(d *Descriptor) {
	for _, o := range os {
		o.Dispatched(d)
	}
}

func (os observers) Settled(d *Descriptor, err error, elapsed time.Duration) {
	for _, o := range os {
		o.Settled(d, err, elapsed)
	}
}
