// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package gohttpx

import (
	"net/url"
	"sync"
	"time"

	"github.com/jasoncfpl/gohttpx/cache"
	"github.com/jasoncfpl/gohttpx/cookiejar"
	"github.com/jasoncfpl/gohttpx/internal/interceptor"
	"github.com/jasoncfpl/gohttpx/internal/streamalloc"
	"github.com/jasoncfpl/gohttpx/message"
)

const (
	defaultConnectTimeout = 10 * time.Second
	defaultReadTimeout    = 30 * time.Second
	defaultWriteTimeout   = 10 * time.Second

	defaultMaxIdlePerRoute = 5
	defaultMaxIdleDuration = 5 * time.Minute
)

// A Client executes Requests through the interceptor pipeline (§4.2).
// Its zero value is a valid configuration: it follows redirects,
// retries on connection failure, disables its own cache and cookie
// jar, and dials fresh TCP/TLS connections through a pool it creates
// on first use — the same "plain struct, no chaining builder"
// treatment the teacher gives Client (Design Note 9).
//
// A Client's connection pool and dispatcher accumulate state across
// calls, so a Client should be constructed once and reused, and must
// not be copied after first use, matching the teacher's Client and
// the standard library's http.Client and sync.Mutex.
type Client struct {
	// Interceptors run first, wrapping the entire call once per
	// Execute/Enqueue (§4.2 step 1).
	Interceptors []interceptor.Interceptor
	// NetworkInterceptors run immediately before CallServer, observing
	// exactly the bytes that go on the wire; they may run more than
	// once per call across redirects and retries (§4.2 step 6).
	NetworkInterceptors []interceptor.Interceptor

	// Dispatcher schedules asynchronous calls and bounds concurrency.
	// If nil, an internal Dispatcher with default limits is used.
	Dispatcher *Dispatcher
	// ConnectionPool backs connection reuse across calls. If nil, an
	// internal Pool is created lazily on first use.
	ConnectionPool *streamalloc.Pool
	// Cache backs the Cache interceptor. If nil, caching is disabled
	// and every request goes to the network, matching OkHttp's
	// no-cache-configured default.
	Cache cache.Store
	// CookieJar backs the Bridge interceptor's cookie read/write. If
	// nil, no cookies are sent or stored, matching OkHttp's
	// CookieJar.NO_COOKIES default.
	CookieJar cookiejar.Jar

	// Authenticator responds to 401 challenges. If nil, 401 responses
	// are returned to the caller as-is.
	Authenticator interceptor.Authenticator
	// ProxyAuthenticator responds to 407 challenges. If nil, 407
	// responses are returned to the caller as-is.
	ProxyAuthenticator interceptor.Authenticator

	// DisableFollowRedirects, if true, returns 3xx responses to the
	// caller unfollowed.
	DisableFollowRedirects bool
	// AllowInsecureRedirects opts in to following an https->http
	// redirect, which is refused by default (§4.3).
	AllowInsecureRedirects bool
	// DisableRetryOnConnectionFailure, if true, disables §4.3's
	// retry-on-failure policy entirely.
	DisableRetryOnConnectionFailure bool

	// ConnectTimeout bounds establishing each new connection.
	// ReadTimeout and WriteTimeout are passed down the interceptor
	// chain (Chain.ReadTimeout, Chain.WriteTimeout) for interceptors to
	// read; the built-in interceptors do not set socket read or write
	// deadlines from them (§6's
	// connectTimeoutMs/readTimeoutMs/writeTimeoutMs). Zero means the
	// package default.
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration

	// Handlers receives lifecycle events for every Call, unless
	// EventListenerFactory is set.
	Handlers *HandlerGroup
	// EventListenerFactory, if non-nil, is invoked once per Call, when
	// the Call is created, to
	// produce a call-scoped HandlerGroup, realizing the two-phase
	// Call<->EventListener init: the Call already exists (so the
	// factory may read its request), but its listener reference is
	// fixed for the Call's lifetime once assigned (§9's Design Notes,
	// "Call<->EventListener cycle").
	EventListenerFactory func(*Call) *HandlerGroup

	poolOnce sync.Once
	lazyPool *streamalloc.Pool

	lazyDispatcher Dispatcher
}

// NewCall binds request to a fresh Call on this Client.
func (c *Client) NewCall(request *message.Request) *Call {
	return newCall(c, request)
}

// Do executes request synchronously via a fresh Call, following the
// same policies as Call.Execute on a Call built from request.
func (c *Client) Do(request *message.Request) (*message.Response, error) {
	return c.NewCall(request).Execute()
}

// Get issues a GET to rawURL.
func (c *Client) Get(rawURL string) (*message.Response, error) {
	req := message.NewRequestBuilder().URL(rawURL).Get().Build()
	return c.Do(req)
}

// Head issues a HEAD to rawURL.
func (c *Client) Head(rawURL string) (*message.Response, error) {
	req := message.NewRequestBuilder().URL(rawURL).Head().Build()
	return c.Do(req)
}

// Post issues a POST to rawURL with the given content type and body.
// body may be nil.
func (c *Client) Post(rawURL, contentType string, body []byte) (*message.Response, error) {
	rb := message.NewRequestBuilder().URL(rawURL)
	var reqBody message.RequestBody
	if body != nil {
		mt, err := message.ParseMediaType(contentType)
		if err != nil {
			return nil, err
		}
		reqBody = message.NewBody(mt, body)
	}
	rb.Post(reqBody)
	return c.Do(rb.Build())
}

// PostForm issues a POST to rawURL with data URL-encoded as the
// request body and Content-Type set to
// application/x-www-form-urlencoded.
func (c *Client) PostForm(rawURL string, data url.Values) (*message.Response, error) {
	return c.Post(rawURL, "application/x-www-form-urlencoded", []byte(data.Encode()))
}

// CloseIdleConnections closes any pooled connections that are
// currently idle. It does not interrupt connections in use.
func (c *Client) CloseIdleConnections() {
	c.pool().CloseIdle()
}

func (c *Client) pool() *streamalloc.Pool {
	if c.ConnectionPool != nil {
		return c.ConnectionPool
	}
	c.poolOnce.Do(func() {
		c.lazyPool = streamalloc.NewPool(defaultMaxIdlePerRoute, defaultMaxIdleDuration, streamalloc.DefaultDialer)
	})
	return c.lazyPool
}

func (c *Client) dispatcher() *Dispatcher {
	if c.Dispatcher != nil {
		return c.Dispatcher
	}
	return &c.lazyDispatcher
}

func (c *Client) handlers() *HandlerGroup {
	if c.Handlers != nil {
		return c.Handlers
	}
	return &emptyHandlers
}

func (c *Client) handlersForCall(call *Call) *HandlerGroup {
	if c.EventListenerFactory != nil {
		if g := c.EventListenerFactory(call); g != nil {
			return g
		}
	}
	return c.handlers()
}

func (c *Client) connectTimeout() time.Duration {
	if c.ConnectTimeout > 0 {
		return c.ConnectTimeout
	}
	return defaultConnectTimeout
}

func (c *Client) readTimeout() time.Duration {
	if c.ReadTimeout > 0 {
		return c.ReadTimeout
	}
	return defaultReadTimeout
}

func (c *Client) writeTimeout() time.Duration {
	if c.WriteTimeout > 0 {
		return c.WriteTimeout
	}
	return defaultWriteTimeout
}

var emptyHandlers = HandlerGroup{}

// runChain assembles the fixed interceptor list (§4.2) around the
// Client's configuration and runs it for a single call.
func (c *Client) runChain(call *Call, req *message.Request) (*message.Response, error) {
	list := make([]interceptor.Interceptor, 0, 5+len(c.Interceptors)+len(c.NetworkInterceptors))
	list = append(list, c.Interceptors...)
	list = append(list, interceptor.NewRetryAndFollowUp(interceptor.Config{
		Pool:                     c.pool(),
		Authenticator:            c.Authenticator,
		ProxyAuthenticator:       c.ProxyAuthenticator,
		FollowRedirects:          !c.DisableFollowRedirects,
		FollowSSLRedirects:       c.AllowInsecureRedirects,
		RetryOnConnectionFailure: !c.DisableRetryOnConnectionFailure,
	}))
	list = append(list, interceptor.NewBridge(c.CookieJar))
	list = append(list, interceptor.NewCache(c.Cache))
	list = append(list, interceptor.NewConnect())
	list = append(list, c.NetworkInterceptors...)
	list = append(list, interceptor.NewCallServer())

	return interceptor.Run(list, req, call, c.connectTimeout(), c.readTimeout(), c.writeTimeout())
}
