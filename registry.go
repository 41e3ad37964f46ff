// SPDX-FileCopyrightText: 2023 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package courier

import (
	"sync"

	"github.com/google/uuid"
)

// entry is a single in-flight request.  Entries are never merged, even when
// their urls are equal.
type entry struct {
	id     string
	url    string
	cancel func()
}

// registry tracks in-flight requests by url.  Entries are kept in
// registration order, and lookups are linear so that several requests for
// the same url stay distinct.
//
// Cancel handles are always invoked after the lock is released.
type registry struct {
	lock    sync.Mutex
	entries []*entry
	urls    []string
	closed  bool
}

// register appends a new entry.  If the registry is closed, this method
// returns nil and the caller must not proceed.
func (r *registry) register(url string, cancel func()) *entry {
	e := &entry{
		id:     uuid.NewString(),
		url:    url,
		cancel: cancel,
	}

	r.lock.Lock()
	defer r.lock.Unlock()
	if r.closed {
		return nil
	}

	r.entries = append(r.entries, e)
	r.urls = append(r.urls, url)
	return e
}

// findFirst returns the index of the earliest entry for url, or -1.
func (r *registry) findFirst(url string) int {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.indexOf(url)
}

func (r *registry) indexOf(url string) int {
	for i, e := range r.entries {
		if e.url == url {
			return i
		}
	}

	return -1
}

// cancelOne invokes the cancel handle of the earliest entry for url.  The
// entry stays registered until its request releases it.
func (r *registry) cancelOne(url string) bool {
	var cancel func()
	r.lock.Lock()
	if i := r.indexOf(url); i >= 0 {
		cancel = r.entries[i].cancel
	}

	r.lock.Unlock()
	if cancel == nil {
		return false
	}

	cancel()
	return true
}

// cancelAll invokes every current cancel handle in registration order.
// The registry is not cleared.
func (r *registry) cancelAll() int {
	r.lock.Lock()
	cancels := r.snapshot()
	r.lock.Unlock()

	for _, c := range cancels {
		c()
	}

	return len(cancels)
}

func (r *registry) snapshot() []func() {
	cancels := make([]func(), len(r.entries))
	for i, e := range r.entries {
		cancels[i] = e.cancel
	}

	return cancels
}

// deregister removes the earliest entry for url along with one matching
// pending url.
func (r *registry) deregister(url string) bool {
	r.lock.Lock()
	defer r.lock.Unlock()

	i := r.indexOf(url)
	if i < 0 {
		return false
	}

	r.removeAt(i)
	return true
}

// release removes exactly the given entry.  A request always releases its
// own entry this way, so a sibling sharing the url is never disturbed.
func (r *registry) release(e *entry) bool {
	if e == nil {
		return false
	}

	r.lock.Lock()
	defer r.lock.Unlock()
	for i, candidate := range r.entries {
		if candidate == e {
			r.removeAt(i)
			return true
		}
	}

	return false
}

// removeAt must be called under the lock.
func (r *registry) removeAt(i int) {
	url := r.entries[i].url
	r.entries = append(r.entries[:i], r.entries[i+1:]...)
	for j, u := range r.urls {
		if u == url {
			r.urls = append(r.urls[:j], r.urls[j+1:]...)
			break
		}
	}
}

// pending returns a copy of the urls with outstanding requests, in
// registration order.
func (r *registry) pending() []string {
	r.lock.Lock()
	defer r.lock.Unlock()
	return append([]string{}, r.urls...)
}

func (r *registry) len() int {
	r.lock.Lock()
	defer r.lock.Unlock()
	return len(r.entries)
}

func (r *registry) isClosed() bool {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.closed
}

// close prevents further registrations and cancels everything in flight.
// Only the first call cancels anything.
func (r *registry) close() int {
	r.lock.Lock()
	if r.closed {
		r.lock.Unlock()
		return 0
	}

	r.closed = true
	cancels := r.snapshot()
	r.lock.Unlock()

	for _, c := range cancels {
		c()
	}

	return len(cancels)
}
