// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package gohttpx

import (
	"github.com/jasoncfpl/gohttpx/internal/lifecycle"
	"github.com/jasoncfpl/gohttpx/message"
)

// Info is the payload passed to a Handler when an Event fires. Which
// fields are populated depends on the Event: see the Event constants
// for what is guaranteed set at each point.
type Info struct {
	// Call is the Call the event occurred on. Always set.
	Call *Call
	// Request is the request associated with the event: the
	// outermost user request for CallStart/CallEnd/CallFailed, or the
	// specific wire-level request for RequestHeadersSent,
	// RequestBodySent, FollowUpStart, and the cache events.
	Request *message.Request
	// Response is set for ResponseHeadersReceived, CacheHit,
	// CacheConditionalHit, and CallEnd (on success). It is not set for
	// ResponseBodyReceived, CacheMiss, or CallFailed (CallFailed means
	// no usable response exists).
	Response *message.Response
	// Err is set for CallFailed.
	Err error
}

// A HandlerGroup is a group of event handler chains that can be
// installed on a Client via Client.Handlers.
type HandlerGroup struct {
	handlers [][]Handler
}

// PushBack adds an event handler to the back of the event handler
// chain for a specific event type.
func (g *HandlerGroup) PushBack(evt Event, h Handler) {
	if h == nil {
		panic("gohttpx: nil handler")
	}

	if g.handlers == nil {
		g.handlers = make([][]Handler, lifecycle.NumEvents)
	}

	g.handlers[evt] = append(g.handlers[evt], h)
}

func (g *HandlerGroup) run(evt Event, info *Info) {
	if g == nil {
		return
	}
	i := int(evt)
	if i < len(g.handlers) {
		run(g.handlers[i], evt, info)
	}
}

func run(chain []Handler, evt Event, info *Info) {
	for _, h := range chain {
		h.Handle(evt, info)
	}
}

// A Handler handles the occurrence of an Event during a Call.
type Handler interface {
	Handle(Event, *Info)
}

// The HandlerFunc type is an adapter to allow the use of ordinary
// functions as event handlers.
type HandlerFunc func(Event, *Info)

// Handle calls f(evt, info).
func (f HandlerFunc) Handle(evt Event, info *Info) {
	f(evt, info)
}
