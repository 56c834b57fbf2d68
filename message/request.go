// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package message

import (
	"fmt"
	"sync"
)

// Request is an immutable description of an outgoing HTTP request: a
// URL, a method, a header set, an optional body, and an opaque tag the
// application can use to correlate a Request with its Call (§3).
//
// A Request is immutable only if its Body is; byteBody-backed bodies
// are immutable, so a Request built from one is safe to retry, follow
// up, or share across goroutines. A Request carrying a streamBody is
// not, since the body can be consumed at most once.
type Request struct {
	url    URL
	method string
	header Headers
	body   RequestBody
	tag    interface{}

	ccOnce sync.Once
	cc     CacheControl
}

// URL returns the request's target URL.
func (r *Request) URL() URL { return r.url }

// Method returns the request's HTTP method, e.g. "GET".
func (r *Request) Method() string { return r.method }

// Header returns the request's header set.
func (r *Request) Header() Headers { return r.header }

// Body returns the request's body, or nil if it has none.
func (r *Request) Body() RequestBody { return r.body }

// Tag returns the application-supplied correlation value attached at
// build time, or the Request itself if none was set.
func (r *Request) Tag() interface{} { return r.tag }

// CacheControl parses and memoizes the request's Cache-Control header.
// The parse happens at most once per Request, on first access, guarded
// by a sync.Once so concurrent readers (e.g. the Cache interceptor
// inspecting a request already in flight to a second goroutine) never
// race and never re-parse (Design Note 9).
func (r *Request) CacheControl() CacheControl {
	r.ccOnce.Do(func() {
		r.cc = ParseCacheControl(r.header.Values("Cache-Control"))
	})
	return r.cc
}

// NewBuilder returns a Builder seeded with this Request's fields, so
// that r.NewBuilder().Build() reproduces an equivalent Request (§8's
// round-trip invariant).
func (r *Request) NewBuilder() *RequestBuilder {
	return &RequestBuilder{
		url:    r.url,
		hasURL: true,
		method: r.method,
		header: r.header.NewBuilder(),
		body:   r.body,
		tag:    r.tag,
	}
}

// A RequestBuilder accumulates mutable request state and produces an
// immutable Request via Build (§4.1).
type RequestBuilder struct {
	url    URL
	hasURL bool
	method string
	header *HeadersBuilder
	body   RequestBody
	tag    interface{}
}

// NewRequestBuilder returns an empty builder defaulted to method GET
// with no body and no headers.
func NewRequestBuilder() *RequestBuilder {
	return &RequestBuilder{
		method: "GET",
		header: (&HeadersBuilder{}),
	}
}

// URL sets the target URL from a raw string, normalizing ws/wss to
// http/https (URL.go's ParseURL). It panics if rawURL does not parse.
func (b *RequestBuilder) URL(rawURL string) *RequestBuilder {
	u, err := ParseURL(rawURL)
	if err != nil {
		panic(err)
	}
	b.url, b.hasURL = u, true
	return b
}

// SetURL sets the target URL from an already-parsed URL value.
func (b *RequestBuilder) SetURL(u URL) *RequestBuilder {
	b.url, b.hasURL = u, true
	return b
}

// Header replaces every existing entry named name with a single entry
// holding value.
func (b *RequestBuilder) Header(name, value string) *RequestBuilder {
	b.header.Set(name, value)
	return b
}

// AddHeader appends a header entry, leaving existing entries with the
// same name untouched.
func (b *RequestBuilder) AddHeader(name, value string) *RequestBuilder {
	b.header.Add(name, value)
	return b
}

// RemoveHeader removes every entry named name.
func (b *RequestBuilder) RemoveHeader(name string) *RequestBuilder {
	b.header.RemoveAll(name)
	return b
}

// Headers discards every existing header and replaces them wholesale.
func (b *RequestBuilder) Headers(h Headers) *RequestBuilder {
	b.header = h.NewBuilder()
	return b
}

// CacheControl sets the Cache-Control header from a directive set,
// removing the header entirely when cc is empty.
func (b *RequestBuilder) CacheControl(cc CacheControl) *RequestBuilder {
	if cc.IsEmpty() {
		return b.RemoveHeader("Cache-Control")
	}
	return b.Header("Cache-Control", cc.String())
}

// Tag attaches an application-defined correlation value, retrievable
// later via Request.Tag.
func (b *RequestBuilder) Tag(tag interface{}) *RequestBuilder {
	b.tag = tag
	return b
}

// Method sets the request method and body. Per §3's permits/requires
// table: GET and HEAD must not carry a body; POST, PUT, PATCH,
// PROPPATCH, and REPORT must. Method panics if the table is violated.
func (b *RequestBuilder) Method(method string, body RequestBody) *RequestBuilder {
	if !ValidMethod(method) {
		panic(fmt.Sprintf("gohttpx: invalid method %q", method))
	}
	if body != nil && !MethodPermitsBody(method) {
		panic(fmt.Sprintf("gohttpx: method %s must not have a request body", method))
	}
	if body == nil && MethodRequiresBody(method) {
		panic(fmt.Sprintf("gohttpx: method %s must have a request body", method))
	}
	b.method, b.body = method, body
	return b
}

// Get sets the method to GET and removes any body.
func (b *RequestBuilder) Get() *RequestBuilder { return b.Method("GET", nil) }

// Head sets the method to HEAD and removes any body.
func (b *RequestBuilder) Head() *RequestBuilder { return b.Method("HEAD", nil) }

// Post sets the method to POST with the given body.
func (b *RequestBuilder) Post(body RequestBody) *RequestBuilder { return b.Method("POST", body) }

// Put sets the method to PUT with the given body.
func (b *RequestBuilder) Put(body RequestBody) *RequestBuilder { return b.Method("PUT", body) }

// Patch sets the method to PATCH with the given body.
func (b *RequestBuilder) Patch(body RequestBody) *RequestBuilder { return b.Method("PATCH", body) }

// Delete sets the method to DELETE. If body is nil, the zero-length
// EmptyBody sentinel is used instead, so the wire still carries
// "Content-Length: 0" (§12's recorded open-question resolution).
func (b *RequestBuilder) Delete(body RequestBody) *RequestBuilder {
	if body == nil {
		body = EmptyBody
	}
	b.method, b.body = "DELETE", body
	return b
}

// Build produces an immutable Request from the accumulated state. It
// panics if no URL has been set.
func (b *RequestBuilder) Build() *Request {
	if !b.hasURL {
		panic("gohttpx: request builder has no url")
	}
	method := b.method
	if method == "" {
		method = "GET"
	}
	req := &Request{
		url:    b.url,
		method: method,
		header: b.header.Build(),
		body:   b.body,
		tag:    b.tag,
	}
	if req.tag == nil {
		// Default the tag to the request's own identity, so
		// cancellation keying has something stable to hang off of
		// even when the caller never set one (§3).
		req.tag = req
	}
	return req
}
