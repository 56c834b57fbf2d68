// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package interceptor implements the ordered pipeline that turns an
// application Request into a Response: a fixed list of Interceptors,
// each given a Chain representing the remaining tail of the pipeline
// plus the request currently in flight.
package interceptor

import (
	"time"

	"github.com/jasoncfpl/gohttpx/internal/lifecycle"
	"github.com/jasoncfpl/gohttpx/internal/streamalloc"
	"github.com/jasoncfpl/gohttpx/message"
)

// An Interceptor observes and may rewrite a request on its way out, a
// response on its way back, or both. It may also short-circuit the
// chain by synthesizing a Response without calling chain.Proceed, or
// fail the call by returning a non-nil error.
//
// Built-in interceptors are unexported concrete types; Interceptor
// exists as a single-method interface purely so user-supplied
// interceptors (installed at the two fixed positions named in the
// assembly order) and the five built-ins are interchangeable pipeline
// elements, not subclasses of one another.
type Interceptor interface {
	Intercept(c *Chain) (*message.Response, error)
}

// InterceptorFunc adapts an ordinary function to the Interceptor
// interface.
type InterceptorFunc func(c *Chain) (*message.Response, error)

// Intercept calls f(c).
func (f InterceptorFunc) Intercept(c *Chain) (*message.Response, error) {
	return f(c)
}

// CallHandle is the narrow view of the owning Call that interceptors
// need: cancellation observation and lifecycle event reporting.
// It is satisfied by gohttpx.Call; defined here to avoid an import
// cycle between the root package and this one.
type CallHandle interface {
	IsCanceled() bool
	lifecycle.Sink
}

// A Chain is the remaining tail of the interceptor pipeline plus the
// request currently in flight. Proceed advances to the next
// interceptor; each Chain instance permits exactly one Proceed call.
// The chain handed to the final interceptor in the list is terminal:
// calling Proceed on it panics.
type Chain struct {
	interceptors []Interceptor
	index        int
	request      *message.Request
	call         CallHandle

	connectTimeout time.Duration
	readTimeout    time.Duration
	writeTimeout   time.Duration

	allocation *streamalloc.StreamAllocation
	codec      streamalloc.HttpCodec
	connection *streamalloc.Connection

	proceeded bool
}

// New builds the initial Chain for a call: index 0, positioned before
// the first interceptor in the list.
func New(interceptors []Interceptor, call CallHandle, connectTimeout, readTimeout, writeTimeout time.Duration) *Chain {
	return &Chain{
		interceptors:   interceptors,
		index:          0,
		call:           call,
		connectTimeout: connectTimeout,
		readTimeout:    readTimeout,
		writeTimeout:   writeTimeout,
	}
}

// Request returns the request this chain will forward on Proceed.
func (c *Chain) Request() *message.Request { return c.request }

// Call returns the narrow call handle, primarily for checking
// cancellation.
func (c *Chain) Call() CallHandle { return c.call }

// Fire reports a lifecycle event to whatever Handlers the owning Call
// has installed. It is a no-op if the chain was built without a call
// handle (as in tests that drive a Chain directly).
func (c *Chain) Fire(evt lifecycle.Event, info lifecycle.Info) {
	if c.call != nil {
		c.call.Fire(evt, info)
	}
}

// ConnectTimeout, ReadTimeout, and WriteTimeout return the per-attempt
// timeouts configured on the owning Client (§6's
// connectTimeoutMs/readTimeoutMs/writeTimeoutMs).
func (c *Chain) ConnectTimeout() time.Duration { return c.connectTimeout }
func (c *Chain) ReadTimeout() time.Duration    { return c.readTimeout }
func (c *Chain) WriteTimeout() time.Duration   { return c.writeTimeout }

// WithConnectTimeout, WithReadTimeout, and WithWriteTimeout return a
// copy of the chain with one timeout overridden, leaving the original
// chain unchanged.
func (c *Chain) WithConnectTimeout(d time.Duration) *Chain { cp := *c; cp.connectTimeout = d; return &cp }
func (c *Chain) WithReadTimeout(d time.Duration) *Chain    { cp := *c; cp.readTimeout = d; return &cp }
func (c *Chain) WithWriteTimeout(d time.Duration) *Chain   { cp := *c; cp.writeTimeout = d; return &cp }

// StreamAllocation returns the per-call resource claim against the
// connection pool, set once RetryAndFollowUp has established one.
func (c *Chain) StreamAllocation() *streamalloc.StreamAllocation { return c.allocation }

// Codec returns the protocol codec bound by the Connect interceptor,
// or nil before Connect has run.
func (c *Chain) Codec() streamalloc.HttpCodec { return c.codec }

// Connection returns the pooled connection bound by the Connect
// interceptor, or nil before Connect has run.
func (c *Chain) Connection() *streamalloc.Connection { return c.connection }

// withState returns a copy of the chain carrying allocation/codec/
// connection, used by RetryAndFollowUp and Connect to make their
// resource bindings visible to interceptors further down the chain
// without mutating the Chain a predecessor is still holding.
func (c *Chain) withState(allocation *streamalloc.StreamAllocation, codec streamalloc.HttpCodec, conn *streamalloc.Connection) *Chain {
	cp := *c
	cp.allocation, cp.codec, cp.connection = allocation, codec, conn
	return &cp
}

// WithAllocation returns a copy of the chain bound to allocation,
// leaving codec/connection as-is.
func (c *Chain) WithAllocation(allocation *streamalloc.StreamAllocation) *Chain {
	return c.withState(allocation, c.codec, c.connection)
}

// WithConnection returns a copy of the chain bound to codec and conn,
// leaving the allocation as-is.
func (c *Chain) WithConnection(codec streamalloc.HttpCodec, conn *streamalloc.Connection) *Chain {
	return c.withState(c.allocation, codec, conn)
}

// Proceed advances the chain to the next interceptor with request as
// the (possibly rewritten) request to forward. It panics if called
// more than once on the same Chain instance, or if this Chain is
// terminal (positioned after the last interceptor in the list) — both
// are programmer errors in an Interceptor implementation, not
// operational failures (§7's IllegalState vocabulary).
func (c *Chain) Proceed(request *message.Request) (*message.Response, error) {
	if c.proceeded {
		panic("gohttpx: interceptor chain already proceeded")
	}
	if c.index >= len(c.interceptors) {
		panic("gohttpx: proceed called on terminal chain")
	}
	c.proceeded = true

	next := &Chain{
		interceptors:   c.interceptors,
		index:          c.index + 1,
		request:        request,
		call:           c.call,
		connectTimeout: c.connectTimeout,
		readTimeout:    c.readTimeout,
		writeTimeout:   c.writeTimeout,
		allocation:     c.allocation,
		codec:          c.codec,
		connection:     c.connection,
	}
	interceptor := c.interceptors[c.index]
	resp, err := interceptor.Intercept(next)
	if err != nil {
		return nil, err
	}
	if resp == nil {
		panic("gohttpx: interceptor returned nil response and nil error")
	}
	if resp.Body() == nil {
		panic("gohttpx: interceptor returned response with nil body")
	}
	return resp, nil
}

// Run starts the pipeline: it seeds a chain positioned just before the
// first interceptor and proceeds into it with request.
func Run(interceptors []Interceptor, request *message.Request, call CallHandle, connectTimeout, readTimeout, writeTimeout time.Duration) (*message.Response, error) {
	first := &Chain{
		interceptors:   interceptors,
		index:          0,
		call:           call,
		connectTimeout: connectTimeout,
		readTimeout:    readTimeout,
		writeTimeout:   writeTimeout,
	}
	return first.proceedFrom(request)
}

// proceedFrom is Proceed without the single-use guard, used only to
// seed the very first interceptor call from Run.
func (c *Chain) proceedFrom(request *message.Request) (*message.Response, error) {
	next := &Chain{
		interceptors:   c.interceptors,
		index:          c.index + 1,
		request:        request,
		call:           c.call,
		connectTimeout: c.connectTimeout,
		readTimeout:    c.readTimeout,
		writeTimeout:   c.writeTimeout,
	}
	if c.index >= len(c.interceptors) {
		panic("gohttpx: empty interceptor chain")
	}
	interceptor := c.interceptors[c.index]
	resp, err := interceptor.Intercept(next)
	if err != nil {
		return nil, err
	}
	if resp == nil {
		panic("gohttpx: interceptor returned nil response and nil error")
	}
	if resp.Body() == nil {
		panic("gohttpx: interceptor returned response with nil body")
	}
	return resp, nil
}
