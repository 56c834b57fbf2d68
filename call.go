// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package gohttpx

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/jasoncfpl/gohttpx/internal/lifecycle"
	"github.com/jasoncfpl/gohttpx/message"
)

// A Callback receives the outcome of an asynchronously executed Call.
// Exactly one of OnResponse or OnFailure is invoked, exactly once, on
// the Dispatcher's executor.
type Callback interface {
	OnResponse(call *Call, response *message.Response)
	OnFailure(call *Call, err error)
}

// CallbackFuncs adapts a pair of ordinary functions to the Callback
// interface.
type CallbackFuncs struct {
	OnResponseFunc func(call *Call, response *message.Response)
	OnFailureFunc  func(call *Call, err error)
}

func (f CallbackFuncs) OnResponse(call *Call, response *message.Response) {
	if f.OnResponseFunc != nil {
		f.OnResponseFunc(call, response)
	}
}

func (f CallbackFuncs) OnFailure(call *Call, err error) {
	if f.OnFailureFunc != nil {
		f.OnFailureFunc(call, err)
	}
}

// A Call is a one-shot execution binding of (client, request). It can
// be run synchronously with Execute or asynchronously with Enqueue,
// but not both, and not more than once — use Clone to retry.
//
// Call's zero value is not usable; obtain one from Client.NewCall.
type Call struct {
	client  *Client
	request *message.Request

	mu       sync.Mutex
	executed bool

	canceled int32 // atomic bool

	leakTrace string

	handlers *HandlerGroup
}

// newCall constructs a Call bound to client and request. It captures a
// call-stack snippet immediately, mirroring OkHttp's
// "captureCallStackTrace" diagnostic for response bodies a caller
// forgets to close (RealCall.java).
func newCall(client *Client, request *message.Request) *Call {
	c := &Call{
		client:    client,
		request:   request,
		leakTrace: captureStack(),
	}
	c.handlers = client.handlersForCall(c)
	return c
}

func captureStack() string {
	buf := make([]byte, 4096)
	n := runtime.Stack(buf, false)
	return "response body not closed; Call created here:\n" + string(buf[:n])
}

// Request returns the request this Call was created with.
func (c *Call) Request() *message.Request { return c.request }

// IsExecuted reports whether Execute or Enqueue has already been
// called on this Call.
func (c *Call) IsExecuted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.executed
}

// IsCanceled reports whether Cancel has been called on this Call. It
// satisfies internal/interceptor.CallHandle.
func (c *Call) IsCanceled() bool {
	return atomic.LoadInt32(&c.canceled) != 0
}

// Fire reports a lifecycle event to the HandlerGroup chosen for this
// Call when it was created, from Client.EventListenerFactory or
// Client.Handlers. It
// satisfies internal/interceptor.CallHandle (by way of
// internal/lifecycle.Sink), letting interceptors deep in the pipeline
// (Connect, Cache, RetryAndFollowUp) report events without this
// package and internal/interceptor importing one another.
func (c *Call) Fire(evt lifecycle.Event, li lifecycle.Info) {
	c.handlers.run(Event(evt), &Info{
		Call:     c,
		Request:  li.Request,
		Response: li.Response,
		Err:      li.Err,
	})
}

// Cancel marks the call canceled. It is idempotent and safe to call
// from any goroutine, including concurrently with Execute or while an
// Enqueue'd call is in flight. RetryAndFollowUp checks the mark before
// each attempt; once it sees it, it cancels the call's stream
// allocation, which closes the bound connection, fails the call, and
// does not return that connection to the pool. An I/O operation that
// is already blocked when Cancel is called is not interrupted by
// Cancel itself.
func (c *Call) Cancel() {
	atomic.StoreInt32(&c.canceled, 1)
}

// Clone returns a fresh Call bound to the same client and request. The
// executed flag is not copied, so the clone may be run even if the
// original has already run or failed.
func (c *Call) Clone() *Call {
	return newCall(c.client, c.request)
}

// LeakTrace returns a call-stack snippet captured when the Call was
// created, intended for diagnosing a response body that a caller
// forgot to close.
func (c *Call) LeakTrace() string { return c.leakTrace }

// String returns a diagnostic representation of the call. It never
// includes the full request URL, only a redacted scheme://host/...,
// to avoid leaking query-string secrets into logs.
func (c *Call) String() string {
	return fmt.Sprintf("Call{method=%s, url=%s}", c.request.Method(), c.request.URL().Redacted())
}

func (c *Call) markExecuted() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.executed {
		return ErrAlreadyExecuted
	}
	c.executed = true
	return nil
}

// Execute runs the call synchronously on the calling goroutine,
// registering with the Dispatcher's sync queue for the duration so
// that IdleCallback accounting covers synchronous calls too, and
// returns the final Response or error. Synchronous calls do not count
// toward the Dispatcher's maxRequests/maxRequestsPerHost limits.
func (c *Call) Execute() (*message.Response, error) {
	if err := c.markExecuted(); err != nil {
		return nil, err
	}

	d := c.client.dispatcher()
	d.executed(c)
	defer d.finished(c)

	c.Fire(CallStart, lifecycle.Info{Request: c.request})

	resp, err := c.client.runChain(c, c.request)
	if err != nil {
		err = urlErrorWrap(c.request.Method(), c.request.URL().String(), err)
		c.Fire(CallFailed, lifecycle.Info{Request: c.request, Err: err})
		c.Fire(CallEnd, lifecycle.Info{Request: c.request, Err: err})
		return nil, err
	}

	c.Fire(CallEnd, lifecycle.Info{Request: c.request, Response: resp})
	return resp, nil
}

// AsyncCall is the unit of work the Dispatcher schedules for an
// Enqueue'd Call.
type AsyncCall struct {
	call     *Call
	callback Callback
}

// Host returns the target host, used by the Dispatcher's
// per-host concurrency accounting.
func (a *AsyncCall) Host() string { return a.call.request.URL().Host() }

// Run executes the call and invokes exactly one Callback method. It
// is invoked by the Dispatcher's executor, never directly.
func (a *AsyncCall) Run() {
	var resp *message.Response
	var err error
	func() {
		defer a.call.client.dispatcher().finished(a.call)
		a.call.Fire(CallStart, lifecycle.Info{Request: a.call.request})
		resp, err = a.call.client.runChain(a.call, a.call.request)
	}()

	if err == nil && a.call.IsCanceled() {
		// The network returned a response, but cancellation landed in
		// the narrow window before this callback fired: report
		// Canceled rather than the response the caller no longer
		// wants (§4.8).
		if resp != nil {
			if body := resp.Body(); body != nil {
				body.Close()
			}
		}
		err = urlErrorWrap(a.call.request.Method(), a.call.request.URL().String(), errors.New("Canceled"))
		a.call.Fire(CallFailed, lifecycle.Info{Request: a.call.request, Err: err})
		a.call.Fire(CallEnd, lifecycle.Info{Request: a.call.request, Err: err})
		a.callback.OnFailure(a.call, err)
		return
	}

	if err != nil {
		if a.call.IsCanceled() {
			err = urlErrorWrap(a.call.request.Method(), a.call.request.URL().String(), fmt.Errorf("Canceled: %w", err))
		} else {
			err = urlErrorWrap(a.call.request.Method(), a.call.request.URL().String(), err)
		}
		a.call.Fire(CallFailed, lifecycle.Info{Request: a.call.request, Err: err})
		a.call.Fire(CallEnd, lifecycle.Info{Request: a.call.request, Err: err})
		a.callback.OnFailure(a.call, err)
		return
	}

	a.call.Fire(CallEnd, lifecycle.Info{Request: a.call.request, Response: resp})
	a.callback.OnResponse(a.call, resp)
}

// Enqueue schedules the call to run asynchronously on the Client's
// Dispatcher. Exactly one of cb's methods is invoked exactly once,
// from the dispatcher's executor, once the call reaches a terminal
// outcome.
func (c *Call) Enqueue(cb Callback) error {
	if err := c.markExecuted(); err != nil {
		return err
	}
	if cb == nil {
		panic("gohttpx: nil callback")
	}
	c.client.dispatcher().enqueue(&AsyncCall{call: c, callback: cb})
	return nil
}
