// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package streamalloc implements the connection-pool and wire-codec
// collaborators the base spec treats as external: a route-keyed TCP/TLS
// connection pool with idle eviction, an HTTP/1.1 HttpCodec, and the
// StreamAllocation handle that binds a call's in-flight resource claim
// against both.
package streamalloc

import (
	"context"
	"crypto/tls"
	"net"
	"sync"
	"time"
)

// Route identifies a connection's endpoint for pooling purposes: host,
// port, and whether TLS is used. Two requests sharing a Route may reuse
// the same pooled Connection.
type Route struct {
	Host  string
	Port  string
	HTTPS bool
}

// Addr returns the host:port dial target for the route.
func (r Route) Addr() string { return net.JoinHostPort(r.Host, r.Port) }

// Connection wraps a pooled net.Conn together with the bookkeeping the
// pool needs to decide whether it is still eligible for reuse.
type Connection struct {
	Route Route
	raw   net.Conn

	mu          sync.Mutex
	lastIdle    time.Time
	idle        bool
	noNewStream bool // set by CallServer on Connection: close or HTTP/1.0
}

// Raw returns the underlying net.Conn.
func (c *Connection) Raw() net.Conn { return c.raw }

// MarkIdle returns the connection to the idle state, recording the
// time so the pool's eviction sweep can expire it later.
func (c *Connection) MarkIdle() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.idle = true
	c.lastIdle = time.Now()
}

// MarkInUse clears the idle state.
func (c *Connection) MarkInUse() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.idle = false
}

// MarkNoNewStreams flags the connection non-reusable, per §4.7's
// "Connection: close" / protocol < 1.1 rule.
func (c *Connection) MarkNoNewStreams() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.noNewStream = true
}

// Reusable reports whether the connection is still eligible for the
// pool to hand out again.
func (c *Connection) Reusable() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.noNewStream
}

func (c *Connection) idleExpired(maxIdle time.Duration) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.idle && maxIdle > 0 && time.Since(c.lastIdle) > maxIdle
}

func (c *Connection) Close() error { return c.raw.Close() }

// Dialer opens a new connection for a route. The default dials TCP,
// wrapping in TLS when Route.HTTPS is set.
type Dialer func(ctx context.Context, route Route) (net.Conn, error)

// DefaultDialer dials plain TCP or TLS depending on the route.
func DefaultDialer(ctx context.Context, route Route) (net.Conn, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", route.Addr())
	if err != nil {
		return nil, err
	}
	if !route.HTTPS {
		return conn, nil
	}
	tlsConn := tls.Client(conn, &tls.Config{ServerName: route.Host})
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	return tlsConn, nil
}

// Pool is a route-keyed connection pool: one bounded idle set per
// Route, with an LRU-ish eviction sweep on a timer. Grounded on
// frankli0324-go-http's netpool.Pool/PoolGroup, generalized from a
// ticket-channel design to an explicit idle map since this pool needs
// to expose individual Connections (for RealConnection-level state
// such as MarkNoNewStreams) rather than opaque io.ReadWriteClosers.
type Pool struct {
	maxIdlePerRoute int
	maxIdleDuration time.Duration
	dial            Dialer

	mu   sync.Mutex
	idle map[Route][]*Connection

	stop chan struct{}
}

// NewPool creates a Pool. maxIdlePerRoute bounds how many idle
// connections are retained per Route; maxIdleDuration bounds how long
// an idle connection is kept before the eviction sweep closes it.
func NewPool(maxIdlePerRoute int, maxIdleDuration time.Duration, dial Dialer) *Pool {
	if dial == nil {
		dial = DefaultDialer
	}
	p := &Pool{
		maxIdlePerRoute: maxIdlePerRoute,
		maxIdleDuration: maxIdleDuration,
		dial:            dial,
		idle:            make(map[Route][]*Connection),
		stop:            make(chan struct{}),
	}
	go p.evictLoop()
	return p
}

// Get returns a reusable idle connection for route if one is available,
// or nil.
func (p *Pool) Get(route Route) *Connection {
	p.mu.Lock()
	defer p.mu.Unlock()
	conns := p.idle[route]
	for len(conns) > 0 {
		c := conns[len(conns)-1]
		conns = conns[:len(conns)-1]
		p.idle[route] = conns
		if c.Reusable() && !c.idleExpired(p.maxIdleDuration) {
			c.MarkInUse()
			return c
		}
		c.Close()
	}
	return nil
}

// Dial establishes a new connection for route, bypassing the idle set.
func (p *Pool) Dial(ctx context.Context, route Route) (*Connection, error) {
	raw, err := p.dial(ctx, route)
	if err != nil {
		return nil, err
	}
	return &Connection{Route: route, raw: raw}, nil
}

// Put returns c to the idle set for later reuse, or closes it if the
// route's idle set is full or c is no longer reusable.
func (p *Pool) Put(c *Connection) {
	if !c.Reusable() {
		c.Close()
		return
	}
	c.MarkIdle()
	p.mu.Lock()
	defer p.mu.Unlock()
	conns := p.idle[c.Route]
	if len(conns) >= p.maxIdlePerRoute {
		c.Close()
		return
	}
	p.idle[c.Route] = append(conns, c)
}

// CloseIdle closes every currently idle connection, across all routes.
func (p *Pool) CloseIdle() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for route, conns := range p.idle {
		for _, c := range conns {
			c.Close()
		}
		delete(p.idle, route)
	}
}

// Shutdown stops the eviction sweep and closes every idle connection.
func (p *Pool) Shutdown() {
	close(p.stop)
	p.CloseIdle()
}

func (p *Pool) evictLoop() {
	if p.maxIdleDuration <= 0 {
		return
	}
	ticker := time.NewTicker(p.maxIdleDuration / 2)
	defer ticker.Stop()
	for {
		select {
		case <-p.stop:
			return
		case <-ticker.C:
			p.sweep()
		}
	}
}

func (p *Pool) sweep() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for route, conns := range p.idle {
		kept := conns[:0]
		for _, c := range conns {
			if c.idleExpired(p.maxIdleDuration) {
				c.Close()
			} else {
				kept = append(kept, c)
			}
		}
		p.idle[route] = kept
	}
}
