// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package streamalloc

import (
	"context"
	"sync"
	"time"
)

// StreamAllocation is the per-call handle against the connection pool
// representing one logical hop's resource claim (§4.3, §4.6). It
// carries the cancellation latch: Cancel closes any connection
// currently bound to this allocation, which unblocks in-progress I/O
// with an error RetryAndFollowUp classifies as non-recoverable
// (§5's cancellation model).
type StreamAllocation struct {
	pool *Pool

	mu       sync.Mutex
	route    Route
	conn     *Connection
	canceled bool
	released bool
}

// New returns a StreamAllocation drawing connections from pool.
func New(pool *Pool) *StreamAllocation {
	return &StreamAllocation{pool: pool}
}

// Connect acquires a connection for route: reusing a pooled idle
// connection when one is available and still eligible, dialing a new
// one otherwise. The acquired connection is remembered so Cancel can
// close it and StreamFinished can return it to the pool.
func (s *StreamAllocation) Connect(ctx context.Context, route Route) (*Connection, error) {
	s.mu.Lock()
	if s.canceled {
		s.mu.Unlock()
		return nil, &connectFailedError{cause: context.Canceled}
	}
	s.mu.Unlock()

	if c := s.pool.Get(route); c != nil {
		s.bind(route, c)
		return c, nil
	}
	dialCtx := ctx
	var cancel context.CancelFunc
	if _, ok := ctx.Deadline(); !ok {
		dialCtx, cancel = context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
	}
	conn, err := s.pool.Dial(dialCtx, route)
	if err != nil {
		return nil, &connectFailedError{cause: err}
	}
	s.bind(route, conn)
	return conn, nil
}

func (s *StreamAllocation) bind(route Route, conn *Connection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.route, s.conn = route, conn
	if s.canceled {
		conn.Close()
	}
}

// Cancel marks the allocation canceled and closes any bound connection,
// idempotently and safely from any goroutine (§5).
func (s *StreamAllocation) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.canceled {
		return
	}
	s.canceled = true
	if s.conn != nil {
		s.conn.Close()
	}
}

// Canceled reports whether Cancel has been called.
func (s *StreamAllocation) Canceled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.canceled
}

// StreamFinished releases the bound connection back to the pool
// (reusable) or closes it (not reusable), and marks this allocation
// released. Called once the response body has been fully consumed and
// closed, or immediately on a non-recoverable error.
func (s *StreamAllocation) StreamFinished(reusable bool) {
	s.mu.Lock()
	conn := s.conn
	s.conn = nil
	alreadyReleased := s.released
	s.released = true
	canceled := s.canceled
	s.mu.Unlock()

	if conn == nil || alreadyReleased {
		return
	}
	if reusable && !canceled && conn.Reusable() {
		s.pool.Put(conn)
	} else {
		conn.Close()
	}
}

// NoNewStreams releases without returning the connection to the pool,
// used when RetryAndFollowUp needs a fresh connection for the same
// host (e.g. after a 421 misdirected-request response).
func (s *StreamAllocation) NoNewStreams() {
	s.mu.Lock()
	conn := s.conn
	s.conn = nil
	s.mu.Unlock()
	if conn != nil {
		conn.Close()
	}
}

type connectFailedError struct {
	cause error
}

func (e *connectFailedError) Error() string {
	return "gohttpx: connect failed: " + e.cause.Error()
}

func (e *connectFailedError) Unwrap() error { return e.cause }

// ConnectFailed reports true, letting the transient package classify
// this as the ConnectFailed category (§10.4 of SPEC_FULL.md).
func (e *connectFailedError) ConnectFailed() bool { return true }
