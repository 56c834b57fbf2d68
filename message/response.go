// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package message

import (
	"sync"
	"time"
)

// Response is an immutable record of a completed or cached HTTP
// exchange (§3). Its Body, if any, is a one-shot stream: it can be
// read exactly once and must be closed by whoever consumes it.
//
// A Response may chain to up to three related responses: NetworkResponse
// (the raw response the Connect/CallServer interceptors produced, before
// the Cache interceptor combined it with a cached entry), CacheResponse
// (the stored response it was validated or combined against), and
// PriorResponse (the previous response in a redirect or auth retry
// chain). These mirror OkHttp's Response.networkResponse/cacheResponse/
// priorResponse fields exactly, letting an Event.Handler or a custom
// interceptor walk the full exchange history.
type Response struct {
	request         *Request
	protocol        string
	code            int
	message         string
	header          Headers
	body            *ResponseBody
	networkResponse *Response
	cacheResponse   *Response
	priorResponse   *Response
	sentAt          time.Time
	receivedAt      time.Time

	ccOnce sync.Once
	cc     CacheControl
}

// Request returns the request that produced this response.
func (r *Response) Request() *Request { return r.request }

// Protocol returns the negotiated protocol string, e.g. "HTTP/1.1".
func (r *Response) Protocol() string { return r.protocol }

// Code returns the HTTP status code.
func (r *Response) Code() int { return r.code }

// Message returns the status line's reason phrase.
func (r *Response) Message() string { return r.message }

// Header returns the response's header set.
func (r *Response) Header() Headers { return r.header }

// Body returns the one-shot response body, or nil if this response
// was built with no body (e.g. an intermediate in a chain).
func (r *Response) Body() *ResponseBody { return r.body }

// NetworkResponse returns the raw response this one was derived from
// by validating or combining with a cached entry, or nil if this
// response did not involve the cache.
func (r *Response) NetworkResponse() *Response { return r.networkResponse }

// CacheResponse returns the stored response this one was validated or
// combined against, or nil if no cache entry was involved.
func (r *Response) CacheResponse() *Response { return r.cacheResponse }

// PriorResponse returns the previous response in a redirect or
// authentication retry chain, or nil if this is the first response.
func (r *Response) PriorResponse() *Response { return r.priorResponse }

// SentAt returns when the request that produced this response was sent.
func (r *Response) SentAt() time.Time { return r.sentAt }

// ReceivedAt returns when this response's headers finished arriving.
func (r *Response) ReceivedAt() time.Time { return r.receivedAt }

// IsSuccessful reports whether the status code is in [200, 300).
func (r *Response) IsSuccessful() bool { return r.code >= 200 && r.code < 300 }

// IsRedirect reports whether the status code is 300, 301, 302, 303,
// 307, or 308, matching §4.3's follow-up table.
func (r *Response) IsRedirect() bool {
	switch r.code {
	case 300, 301, 302, 303, 307, 308:
		return true
	default:
		return false
	}
}

// CacheControl parses and memoizes the response's Cache-Control
// header, mirroring Request.CacheControl's one-shot, concurrency-safe
// memoization (Design Note 9).
func (r *Response) CacheControl() CacheControl {
	r.ccOnce.Do(func() {
		r.cc = ParseCacheControl(r.header.Values("Cache-Control"))
	})
	return r.cc
}

// NewBuilder returns a Builder seeded with this Response's fields, so
// r.NewBuilder().Build() reproduces an equivalent Response (§8).
func (r *Response) NewBuilder() *ResponseBuilder {
	return &ResponseBuilder{
		request:         r.request,
		protocol:        r.protocol,
		code:            r.code,
		message:         r.message,
		header:          r.header.NewBuilder(),
		body:            r.body,
		networkResponse: r.networkResponse,
		cacheResponse:   r.cacheResponse,
		priorResponse:   r.priorResponse,
		sentAt:          r.sentAt,
		receivedAt:      r.receivedAt,
	}
}

// A ResponseBuilder accumulates mutable response state and produces an
// immutable Response via Build.
type ResponseBuilder struct {
	request         *Request
	protocol        string
	code            int
	message         string
	header          *HeadersBuilder
	body            *ResponseBody
	networkResponse *Response
	cacheResponse   *Response
	priorResponse   *Response
	sentAt          time.Time
	receivedAt      time.Time
}

// NewResponseBuilder returns an empty builder with no headers set.
func NewResponseBuilder() *ResponseBuilder {
	return &ResponseBuilder{header: &HeadersBuilder{}}
}

// Request sets the originating request.
func (b *ResponseBuilder) Request(req *Request) *ResponseBuilder { b.request = req; return b }

// Protocol sets the negotiated protocol string.
func (b *ResponseBuilder) Protocol(protocol string) *ResponseBuilder { b.protocol = protocol; return b }

// Code sets the status code.
func (b *ResponseBuilder) Code(code int) *ResponseBuilder { b.code = code; return b }

// Message sets the status line's reason phrase.
func (b *ResponseBuilder) Message(message string) *ResponseBuilder { b.message = message; return b }

// Header replaces every existing entry named name with a single entry
// holding value.
func (b *ResponseBuilder) Header(name, value string) *ResponseBuilder {
	b.header.Set(name, value)
	return b
}

// AddHeader appends a header entry, leaving existing entries with the
// same name untouched.
func (b *ResponseBuilder) AddHeader(name, value string) *ResponseBuilder {
	b.header.Add(name, value)
	return b
}

// RemoveHeader removes every entry named name.
func (b *ResponseBuilder) RemoveHeader(name string) *ResponseBuilder {
	b.header.RemoveAll(name)
	return b
}

// Headers discards every existing header and replaces them wholesale.
func (b *ResponseBuilder) Headers(h Headers) *ResponseBuilder {
	b.header = h.NewBuilder()
	return b
}

// Body sets the one-shot response body.
func (b *ResponseBuilder) Body(body *ResponseBody) *ResponseBuilder { b.body = body; return b }

// NetworkResponse sets the raw, pre-cache-combination response this
// one derives from. Per the original implementation's invariant, a
// network response carried here must itself have no body of its own
// attached (the body belongs to exactly one Response in the chain);
// callers should pass a response built with Body(nil).
func (b *ResponseBuilder) NetworkResponse(r *Response) *ResponseBuilder {
	b.networkResponse = r
	return b
}

// CacheResponse sets the stored response this one was validated or
// combined against. Same no-body constraint as NetworkResponse.
func (b *ResponseBuilder) CacheResponse(r *Response) *ResponseBuilder {
	b.cacheResponse = r
	return b
}

// PriorResponse sets the previous response in a redirect or
// authentication retry chain. Same no-body constraint as NetworkResponse.
func (b *ResponseBuilder) PriorResponse(r *Response) *ResponseBuilder {
	b.priorResponse = r
	return b
}

// SentAt sets when the request was sent.
func (b *ResponseBuilder) SentAt(t time.Time) *ResponseBuilder { b.sentAt = t; return b }

// ReceivedAt sets when the response headers finished arriving.
func (b *ResponseBuilder) ReceivedAt(t time.Time) *ResponseBuilder { b.receivedAt = t; return b }

// Build produces an immutable Response from the accumulated state. It
// panics if request is unset, protocol is empty, or code is negative.
// An empty message and a zero code are accepted.
func (b *ResponseBuilder) Build() *Response {
	if b.request == nil {
		panic("gohttpx: response builder has no request")
	}
	if b.protocol == "" {
		panic("gohttpx: response builder has no protocol")
	}
	if b.code < 0 {
		panic("gohttpx: response builder has invalid code")
	}
	return &Response{
		request:         b.request,
		protocol:        b.protocol,
		code:            b.code,
		message:         b.message,
		header:          b.header.Build(),
		body:            b.body,
		networkResponse: b.networkResponse,
		cacheResponse:   b.cacheResponse,
		priorResponse:   b.priorResponse,
		sentAt:          b.sentAt,
		receivedAt:      b.receivedAt,
	}
}
