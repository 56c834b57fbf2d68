// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package gohttpx

import (
	"sync"

	"github.com/rs/zerolog"
)

const (
	defaultMaxRequests        = 64
	defaultMaxRequestsPerHost = 5
)

// A Dispatcher schedules asynchronous (Enqueue'd) calls onto goroutines
// while bounding total and per-host concurrency, and tracks
// synchronous (Execute'd) calls for the same accounting (§4.9).
//
// The zero value is a valid Dispatcher: MaxRequests defaults to 64 and
// MaxRequestsPerHost to 5, matching the teacher's "zero value is a
// valid configuration" design point.
type Dispatcher struct {
	// MaxRequests caps the number of asynchronous calls running at
	// once across all hosts. Zero means the default of 64.
	MaxRequests int
	// MaxRequestsPerHost caps the number of asynchronous calls running
	// at once for a single host. Zero means the default of 5.
	MaxRequestsPerHost int
	// IdleCallback, if non-nil, is invoked whenever the ready queue,
	// the running-async queue, and the running-sync set all become
	// empty at the same time.
	IdleCallback func()
	// Logger, if non-nil, receives a debug-level log line for each
	// promotion decision (a ready call moving to running).
	Logger *zerolog.Logger

	mu           sync.Mutex
	readyAsync   []*AsyncCall
	runningAsync []*AsyncCall
	runningSync  []*Call
}

func (d *Dispatcher) maxRequests() int {
	if d.MaxRequests <= 0 {
		return defaultMaxRequests
	}
	return d.MaxRequests
}

func (d *Dispatcher) maxRequestsPerHost() int {
	if d.MaxRequestsPerHost <= 0 {
		return defaultMaxRequestsPerHost
	}
	return d.MaxRequestsPerHost
}

// enqueue adds an AsyncCall to the ready queue and runs the promotion
// rule.
func (d *Dispatcher) enqueue(c *AsyncCall) {
	d.mu.Lock()
	d.readyAsync = append(d.readyAsync, c)
	d.mu.Unlock()
	d.promote()
}

// executed registers a synchronously-executing call so IdleCallback
// accounting sees it while in flight. It does not count toward
// maxRequests/maxRequestsPerHost, which apply to asynchronous calls.
func (d *Dispatcher) executed(call *Call) {
	d.mu.Lock()
	d.runningSync = append(d.runningSync, call)
	d.mu.Unlock()
}

// finished removes call from whichever running set it belongs to,
// re-runs the promotion rule, and fires IdleCallback if all three
// queues are now empty.
func (d *Dispatcher) finished(call *Call) {
	d.mu.Lock()
	promoted := false
	for i, c := range d.runningAsync {
		if c.call == call {
			d.runningAsync = append(d.runningAsync[:i:i], d.runningAsync[i+1:]...)
			promoted = true
			break
		}
	}
	if !promoted {
		for i, c := range d.runningSync {
			if c == call {
				d.runningSync = append(d.runningSync[:i:i], d.runningSync[i+1:]...)
				break
			}
		}
	}
	idle := len(d.readyAsync) == 0 && len(d.runningAsync) == 0 && len(d.runningSync) == 0
	cb := d.IdleCallback
	d.mu.Unlock()

	if promoted {
		d.promote()
	}
	if idle && cb != nil {
		cb()
	}
}

// promote runs the promotion rule: while running.size() < maxRequests,
// pop the first ready call whose host has < maxRequestsPerHost running
// entries and submit it. Stops when ready is empty or no candidate
// qualifies.
func (d *Dispatcher) promote() {
	d.mu.Lock()
	var toRun []*AsyncCall
	for len(d.runningAsync) < d.maxRequests() {
		idx := d.nextCandidate()
		if idx < 0 {
			break
		}
		c := d.readyAsync[idx]
		d.readyAsync = append(d.readyAsync[:idx:idx], d.readyAsync[idx+1:]...)
		d.runningAsync = append(d.runningAsync, c)
		toRun = append(toRun, c)
	}
	logger := d.Logger
	d.mu.Unlock()

	for _, c := range toRun {
		if logger != nil {
			logger.Debug().Str("host", c.Host()).Msg("gohttpx: dispatcher promoting call")
		}
		go c.Run()
	}
}

// nextCandidate returns the index in readyAsync of the first call
// whose host is under its per-host cap, or -1. Must be called with
// d.mu held.
func (d *Dispatcher) nextCandidate() int {
	for i, c := range d.readyAsync {
		if d.runningForHost(c.Host()) < d.maxRequestsPerHost() {
			return i
		}
	}
	return -1
}

func (d *Dispatcher) runningForHost(host string) int {
	n := 0
	for _, c := range d.runningAsync {
		if c.Host() == host {
			n++
		}
	}
	return n
}
