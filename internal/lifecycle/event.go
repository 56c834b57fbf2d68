// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package lifecycle defines the Call lifecycle Event set and the Info
// payload fired alongside it. It exists as its own package, beneath
// both the root gohttpx package and internal/interceptor, so that
// interceptors deep in the pipeline (Connect, Cache, RetryAndFollowUp)
// can fire events without the root package needing to import
// internal/interceptor's Chain/CallHandle machinery or vice versa. The
// root package re-exports the Event values and defines its own Info
// (which adds the Call) so callers never see this package directly.
package lifecycle

import (
	"github.com/jasoncfpl/gohttpx/message"
)

// An Event identifies a point in a Call's lifecycle at which a
// Handler may be invoked.
type Event int

const (
	// CallStart fires once, synchronously, before the interceptor
	// chain runs for a Call.
	CallStart Event = iota
	// CallFailed fires when a Call terminates in error, after all
	// RetryAndFollowUp recovery has been exhausted.
	CallFailed
	// CallEnd fires once a Call has a terminal outcome, whether
	// success or failure. CallEnd always fires after CallFailed when
	// both apply.
	CallEnd
	// ConnectionAcquired fires when the Connect interceptor binds a
	// Connection for an attempt (pooled or freshly dialed).
	ConnectionAcquired
	// ConnectionReleased fires when a Connection is returned to the
	// pool or closed at the end of a stream.
	ConnectionReleased
	// CacheHit fires when the Cache interceptor serves a response
	// entirely from the store with no network request issued.
	CacheHit
	// CacheMiss fires when the Cache interceptor finds no usable
	// stored candidate and issues an unconditional network request.
	CacheMiss
	// CacheConditionalHit fires when the Cache interceptor issues a
	// conditional request and the network returns 304, reusing the
	// stored body.
	CacheConditionalHit
	// FollowUpStart fires before RetryAndFollowUp issues a follow-up
	// request (redirect, auth challenge retry, 408/503/421 recovery).
	FollowUpStart
	// RequestHeadersSent fires after CallServer has written the
	// request line and headers to the wire.
	RequestHeadersSent
	// RequestBodySent fires after CallServer has finished writing the
	// request body, if any.
	RequestBodySent
	// ResponseHeadersReceived fires after CallServer has parsed the
	// response status line and headers.
	ResponseHeadersReceived
	// ResponseBodyReceived fires when the response body is closed,
	// whether or not it was read to the end.
	ResponseBodyReceived

	eventSentinel

	// NumEvents is the total number of distinct Event values.
	NumEvents = int(eventSentinel)
)

var eventNames = []string{
	"CallStart",
	"CallFailed",
	"CallEnd",
	"ConnectionAcquired",
	"ConnectionReleased",
	"CacheHit",
	"CacheMiss",
	"CacheConditionalHit",
	"FollowUpStart",
	"RequestHeadersSent",
	"RequestBodySent",
	"ResponseHeadersReceived",
	"ResponseBodyReceived",
}

// Name returns the name of the event.
func (evt Event) Name() string {
	if int(evt) < 0 || int(evt) >= len(eventNames) {
		return "Unknown"
	}
	return eventNames[evt]
}

// String returns the name of the event.
func (evt Event) String() string { return evt.Name() }

// Info is the payload fired alongside an Event. Which fields are
// populated depends on the Event.
type Info struct {
	Request  *message.Request
	Response *message.Response
	Err      error
}

// Sink is the narrow view of a Call that an interceptor deep in the
// pipeline needs in order to fire lifecycle events, without seeing the
// rest of the Call's API.
type Sink interface {
	Fire(evt Event, info Info)
}
