// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package interceptor

import (
	"context"

	"github.com/jasoncfpl/gohttpx/internal/lifecycle"
	"github.com/jasoncfpl/gohttpx/internal/streamalloc"
	"github.com/jasoncfpl/gohttpx/message"
)

// connect delegates to the call's StreamAllocation to acquire a
// Connection (matched by route) and an HttpCodec bound to it, then
// passes both down the chain (§4.6). It performs no header
// manipulation; HTTP/2 multiplexing-capacity matching is not
// implemented since HTTP/2 framing is out of scope (§10.7 of
// SPEC_FULL.md) — every acquired connection gets a fresh HTTP/1.1
// codec.
type connect struct{}

// NewConnect returns the Connect interceptor.
func NewConnect() Interceptor { return &connect{} }

func (cn *connect) Intercept(c *Chain) (*message.Response, error) {
	allocation := c.StreamAllocation()
	if allocation == nil {
		panic("gohttpx: connect interceptor run without a stream allocation")
	}
	u := c.Request().URL()
	route := streamalloc.Route{Host: u.Host(), Port: u.Port(), HTTPS: u.IsHTTPS()}

	ctx := context.Background()
	if d := c.ConnectTimeout(); d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}
	conn, err := allocation.Connect(ctx, route)
	if err != nil {
		return nil, err
	}
	codec := streamalloc.NewHTTP1Codec(conn)
	c.Fire(lifecycle.ConnectionAcquired, lifecycle.Info{Request: c.Request()})

	return c.WithConnection(codec, conn).Proceed(c.Request())
}
