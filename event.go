// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package gohttpx

import "github.com/jasoncfpl/gohttpx/internal/lifecycle"

// An Event identifies a point in a Call's lifecycle at which a
// Handler may be invoked. Install event handlers on a Client's
// HandlerGroup to observe or extend the engine's behavior without
// modifying the interceptor pipeline.
//
// Event is defined in internal/lifecycle, where interceptors deep in
// the pipeline (Connect, Cache, RetryAndFollowUp) fire it without
// importing this package, and aliased here for a single type from the
// caller's perspective.
type Event = lifecycle.Event

const (
	CallStart               = lifecycle.CallStart
	CallFailed              = lifecycle.CallFailed
	CallEnd                 = lifecycle.CallEnd
	ConnectionAcquired      = lifecycle.ConnectionAcquired
	ConnectionReleased      = lifecycle.ConnectionReleased
	CacheHit                = lifecycle.CacheHit
	CacheMiss               = lifecycle.CacheMiss
	CacheConditionalHit     = lifecycle.CacheConditionalHit
	FollowUpStart           = lifecycle.FollowUpStart
	RequestHeadersSent      = lifecycle.RequestHeadersSent
	RequestBodySent         = lifecycle.RequestBodySent
	ResponseHeadersReceived = lifecycle.ResponseHeadersReceived
	ResponseBodyReceived    = lifecycle.ResponseBodyReceived
)

// Events returns every Event, in declaration order.
func Events() []Event {
	out := make([]Event, lifecycle.NumEvents)
	for i := range out {
		out[i] = Event(i)
	}
	return out
}
