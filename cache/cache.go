// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package cache implements the cache Store collaborator the Cache
// interceptor reads from and writes to (§4.5), plus a default
// in-memory implementation. The on-disk journaled format is out of
// scope (§1) — Store is the narrow seam a persistent implementation
// would sit behind.
package cache

import (
	"sync"
	"time"

	"github.com/jasoncfpl/gohttpx/message"
)

// Entry is a stored response candidate, keyed by request URL and
// (eventually) the Vary-selected request headers. It holds enough to
// reconstruct a Response without re-fetching the body from the wire.
type Entry struct {
	Request    *message.Request
	Protocol   string
	Code       int
	Message    string
	Header     message.Headers
	Body       []byte
	RequestSentAt, ResponseReceivedAt time.Time
}

// Store is the narrow persistence interface the Cache interceptor
// depends on. A real implementation is free to be backed by disk, a
// database, or (as here) memory; single-writer-per-key discipline for
// concurrent Put calls to the same key is the store's responsibility
// (§5).
type Store interface {
	Get(key string) (Entry, bool)
	Put(key string, e Entry)
	Remove(key string)
}

// Stats mirrors §4.5's "statistics counters (hit/network/conditional)
// updated under a lock".
type Stats struct {
	mu         sync.Mutex
	Hit        int
	Network    int
	Conditional int
}

func (s *Stats) recordHit()         { s.mu.Lock(); s.Hit++; s.mu.Unlock() }
func (s *Stats) recordNetwork()     { s.mu.Lock(); s.Network++; s.mu.Unlock() }
func (s *Stats) recordConditional() { s.mu.Lock(); s.Conditional++; s.mu.Unlock() }

// Snapshot returns a copy of the current counters.
func (s *Stats) Snapshot() (hit, network, conditional int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Hit, s.Network, s.Conditional
}

// StatsRecorder is implemented by Store implementations that track
// the hit/network/conditional counters of §4.5. The Cache interceptor
// checks for it via a type assertion on the Store it was given, so a
// custom Store can opt in without Store itself growing these methods.
type StatsRecorder interface {
	RecordHit()
	RecordNetwork()
	RecordConditional()
}

// RecordHit, RecordNetwork, and RecordConditional satisfy
// StatsRecorder for MemoryCache by delegating to its embedded Stats.
func (c *MemoryCache) RecordHit()         { c.Stats.recordHit() }
func (c *MemoryCache) RecordNetwork()     { c.Stats.recordNetwork() }
func (c *MemoryCache) RecordConditional() { c.Stats.recordConditional() }

// MemoryCache is the default Store, an in-memory map guarded by a
// mutex. Grounded on the teacher corpus's preference for a small,
// obviously-correct default over a full LRU (klayengo's
// cache.go/cache_provider.go map-of-entries shape, simplified since
// eviction policy is not part of this spec).
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]Entry
	Stats   Stats
}

// NewMemoryCache returns an empty MemoryCache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]Entry)}
}

func (c *MemoryCache) Get(key string) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	return e, ok
}

func (c *MemoryCache) Put(key string, e Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = e
}

func (c *MemoryCache) Remove(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Key returns the cache key for a request: method and URL. Varying
// request headers are not yet folded in (the base spec calls for
// "URL + varying request headers"); MemoryCache's callers currently
// key on method+URL only, matching the simple default the base spec
// permits swapping out.
func Key(req *message.Request) string {
	return req.Method() + " " + req.URL().String()
}
