// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package obslog is a default gohttpx.Handler that emits structured
// log events via github.com/rs/zerolog for every lifecycle Event a
// Call fires. It is opt-in: the zero-value Client installs no
// handlers and logs nothing.
package obslog

import (
	"github.com/rs/zerolog"

	"github.com/jasoncfpl/gohttpx"
)

// handler adapts a zerolog.Logger to gohttpx.Handler.
type handler struct {
	logger zerolog.Logger
}

// New returns a gohttpx.Handler that logs every Event at a level
// appropriate to its severity: CallFailed at Error, the cache/
// follow-up/connection and request/response events at Debug, and
// CallStart and CallEnd at Info.
//
// Install it on whichever events are interesting, e.g.:
//
//	handlers := &gohttpx.HandlerGroup{}
//	for _, evt := range gohttpx.Events() {
//		handlers.PushBack(evt, obslog.New(logger))
//	}
func New(logger zerolog.Logger) gohttpx.Handler {
	return &handler{logger: logger}
}

func (h *handler) Handle(evt gohttpx.Event, info *gohttpx.Info) {
	ev := h.eventAt(evt)
	if info.Call != nil {
		ev = ev.Str("call", info.Call.String())
	}
	if info.Request != nil {
		ev = ev.Str("method", info.Request.Method()).Str("url", info.Request.URL().Redacted())
	}
	if info.Response != nil {
		ev = ev.Int("status", info.Response.Code())
	}
	if info.Err != nil {
		ev = ev.Err(info.Err)
	}
	ev.Msg(evt.Name())
}

func (h *handler) eventAt(evt gohttpx.Event) *zerolog.Event {
	switch evt {
	case gohttpx.CallFailed:
		return h.logger.Error()
	case gohttpx.CacheHit, gohttpx.CacheMiss, gohttpx.CacheConditionalHit,
		gohttpx.ConnectionAcquired, gohttpx.ConnectionReleased,
		gohttpx.FollowUpStart,
		gohttpx.RequestHeadersSent, gohttpx.RequestBodySent,
		gohttpx.ResponseHeadersReceived, gohttpx.ResponseBodyReceived:
		return h.logger.Debug()
	default:
		return h.logger.Info()
	}
}
