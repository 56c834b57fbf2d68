// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package interceptor

import (
	"bytes"
	"io/ioutil"
	"net/http"
	"strconv"
	"time"

	"github.com/jasoncfpl/gohttpx/cache"
	"github.com/jasoncfpl/gohttpx/internal/lifecycle"
	"github.com/jasoncfpl/gohttpx/message"
)

// cacheInterceptor implements RFC 7234 freshness with the two-value
// (networkRequest, cachedResponse) strategy of §4.5, grounded on
// always-cache-always-cache's rfc9111 package decomposition
// (freshness lifetime = s-maxage/max-age/Expires/heuristic, current
// age = apparent age + resident time).
type cacheInterceptor struct {
	store cache.Store
}

// NewCache returns the Cache interceptor. store may be nil, in which
// case every request goes straight to the network and no response is
// ever stored (equivalent to the base spec's "no usable cache" case
// applied unconditionally).
func NewCache(store cache.Store) Interceptor {
	return &cacheInterceptor{store: store}
}

// notModifiedHeaders are end-to-end headers RFC 7234 says a 304's
// stored-response merge must NOT update from the network response.
var notModifiedHeaders = map[string]bool{
	"content-length":    true,
	"content-encoding":  true,
	"transfer-encoding":  true,
	"content-range":     true,
	"trailer":           true,
	"vary":              true,
	"connection":        true,
	"keep-alive":        true,
	"proxy-authenticate": true,
	"te":                true,
	"upgrade":           true,
}

// cacheableStatus is the default storable-status set (§4.5).
var cacheableStatus = map[int]bool{
	200: true, 203: true, 204: true, 300: true, 301: true,
	404: true, 405: true, 410: true, 414: true, 501: true, 308: true,
}

func (ci *cacheInterceptor) Intercept(c *Chain) (*message.Response, error) {
	req := c.Request()
	key := cache.Key(req)

	var candidate *message.Response
	if ci.store != nil {
		if entry, ok := ci.store.Get(key); ok {
			candidate = entryToResponse(entry)
		}
	}

	networkRequest, cachedResponse := ci.strategy(req, candidate)

	if networkRequest != nil && req.CacheControl().OnlyIfCached() {
		// only-if-cached forbids ever going to the network, whether
		// there was no candidate at all or the candidate was merely
		// stale and would otherwise warrant a conditional request.
		networkRequest, cachedResponse = nil, nil
	}

	if networkRequest == nil && cachedResponse == nil {
		if req.CacheControl().OnlyIfCached() {
			return unsatisfiable(req), nil
		}
		networkRequest = req
	}

	if networkRequest != nil && cachedResponse == nil {
		c.Fire(lifecycle.CacheMiss, lifecycle.Info{Request: req})
		if rec, ok := ci.store.(cache.StatsRecorder); ok {
			rec.RecordNetwork()
		}
	}

	if networkRequest == nil {
		// Fully fresh cache hit.
		resp := cachedResponse.NewBuilder().CacheResponse(stripBody(cachedResponse)).Request(req).Build()
		c.Fire(lifecycle.CacheHit, lifecycle.Info{Request: req, Response: resp})
		if rec, ok := ci.store.(cache.StatsRecorder); ok {
			rec.RecordHit()
		}
		return resp, nil
	}

	networkResponse, err := c.Proceed(networkRequest)
	if err != nil {
		if candidate != nil && ci.store != nil {
			// Leave the stale candidate in place; a network failure
			// should not evict an otherwise usable cache entry.
		}
		return nil, err
	}

	if networkResponse.Code() == 304 && cachedResponse != nil {
		merged := mergeNotModified(cachedResponse, networkResponse)
		if ci.store != nil {
			data, err := merged.Body().Bytes()
			if err != nil {
				return nil, err
			}
			ci.store.Put(key, responseToEntryBytes(merged, data))
			body := message.NewResponseBody(merged.Body().ContentType(), int64(len(data)), ioutil.NopCloser(bytes.NewReader(data)))
			merged = merged.NewBuilder().Body(body).Build()
		}
		c.Fire(lifecycle.CacheConditionalHit, lifecycle.Info{Request: networkRequest, Response: merged})
		if rec, ok := ci.store.(cache.StatsRecorder); ok {
			rec.RecordConditional()
		}
		return merged, nil
	}

	if cachedResponse != nil && ci.store != nil {
		ci.store.Remove(key)
	}

	if ci.storable(networkRequest, networkResponse) {
		return ci.teeToStore(key, networkResponse)
	}

	if ci.store != nil && !ci.storable(networkRequest, networkResponse) {
		ci.store.Remove(key)
	}

	return networkResponse, nil
}

// strategy implements §4.5's decision table.
func (ci *cacheInterceptor) strategy(req *message.Request, candidate *message.Response) (networkRequest *message.Request, cachedResponse *message.Response) {
	if candidate == nil {
		if req.CacheControl().NoStore() {
			return nil, nil
		}
		return req, nil
	}

	reqCC, respCC := req.CacheControl(), candidate.CacheControl()
	if reqCC.NoCache() || respCC.NoCache() || respCC.NoStore() {
		return req, nil
	}

	if ci.isFresh(req, candidate) {
		return nil, candidate
	}

	// Stale: send a conditional request carrying validators.
	rb := req.NewBuilder()
	if etag := candidate.Header().Get("ETag"); etag != "" {
		rb.Header("If-None-Match", etag)
	}
	if lm := candidate.Header().Get("Last-Modified"); lm != "" {
		rb.Header("If-Modified-Since", lm)
	}
	return rb.Build(), candidate
}

func (ci *cacheInterceptor) isFresh(req *message.Request, candidate *message.Response) bool {
	reqCC, respCC := req.CacheControl(), candidate.CacheControl()
	lifetime := freshnessLifetime(candidate, respCC)
	age := currentAge(candidate)
	if maxStale, ok := reqCC.MaxStale(); ok {
		lifetime += maxStale
	}
	if minFresh, ok := reqCC.MinFresh(); ok {
		age += minFresh
	}
	if maxAge, ok := reqCC.MaxAge(); ok && maxAge < lifetime {
		lifetime = maxAge
	}
	return age < lifetime
}

// freshnessLifetime: s-maxage, else max-age, else Expires-Date, else a
// heuristic of (now - Last-Modified)/10, clamped to be non-negative.
func freshnessLifetime(resp *message.Response, cc message.CacheControl) time.Duration {
	if v, ok := cc.SMaxAge(); ok {
		return v
	}
	if v, ok := cc.MaxAge(); ok {
		return v
	}
	if expiresStr := resp.Header().Get("Expires"); expiresStr != "" {
		if expires, err := http.ParseTime(expiresStr); err == nil {
			date := resp.ReceivedAt()
			if dateStr := resp.Header().Get("Date"); dateStr != "" {
				if d, err := http.ParseTime(dateStr); err == nil {
					date = d
				}
			}
			if d := expires.Sub(date); d > 0 {
				return d
			}
			return 0
		}
	}
	if lmStr := resp.Header().Get("Last-Modified"); lmStr != "" {
		if lm, err := http.ParseTime(lmStr); err == nil {
			if d := time.Since(lm) / 10; d > 0 {
				return d
			}
		}
	}
	return 0
}

// currentAge: apparent age (clamped to ≥0) plus resident time, per
// §4.5's "effective age = max(apparentAge, ageValue) + residentTime".
func currentAge(resp *message.Response) time.Duration {
	apparentAge := time.Duration(0)
	dateStr := resp.Header().Get("Date")
	if dateStr != "" {
		if date, err := http.ParseTime(dateStr); err == nil {
			if d := resp.ReceivedAt().Sub(date); d > 0 {
				apparentAge = d
			}
		}
	}
	ageValue := time.Duration(0)
	if ageStr := resp.Header().Get("Age"); ageStr != "" {
		if secs, err := strconv.ParseInt(ageStr, 10, 64); err == nil {
			ageValue = time.Duration(secs) * time.Second
		}
	}
	effectiveAge := apparentAge
	if ageValue > effectiveAge {
		effectiveAge = ageValue
	}
	residentTime := time.Since(resp.ReceivedAt())
	return effectiveAge + residentTime
}

func (ci *cacheInterceptor) storable(req *message.Request, resp *message.Response) bool {
	if ci.store == nil {
		return false
	}
	if req.Method() != "GET" {
		return false
	}
	if !cacheableStatus[resp.Code()] {
		return false
	}
	if resp.CacheControl().NoStore() || req.CacheControl().NoStore() {
		return false
	}
	return true
}

// teeToStore reads the full network response body, commits it to the
// store, and returns a fresh Response wrapping the buffered bytes so
// the body can still be consumed exactly once by the caller (the tee
// happens before the body reaches the application, not concurrently
// with it, trading streaming for the simplicity the base spec allows
// for a policy-only Cache layer backed by an in-memory Store).
func (ci *cacheInterceptor) teeToStore(key string, resp *message.Response) (*message.Response, error) {
	data, err := resp.Body().Bytes()
	if err != nil {
		return nil, err
	}
	ci.store.Put(key, responseToEntryBytes(resp, data))
	rebuilt := resp.NewBuilder().
		Body(message.NewResponseBody(resp.Body().ContentType(), int64(len(data)), ioutil.NopCloser(bytes.NewReader(data)))).
		Build()
	return rebuilt, nil
}

func mergeNotModified(cached, network *message.Response) *message.Response {
	hb := cached.Header().NewBuilder()
	nh := network.Header()
	for i := 0; i < nh.Len(); i++ {
		name := nh.NameAt(i)
		if notModifiedHeaders[lower(name)] {
			continue
		}
		hb.Set(name, nh.ValueAt(i))
	}
	return cached.NewBuilder().
		Headers(hb.Build()).
		NetworkResponse(stripBody(network)).
		ReceivedAt(network.ReceivedAt()).
		Build()
}

func lower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

func stripBody(r *message.Response) *message.Response {
	return r.NewBuilder().Body(nil).Build()
}

func unsatisfiable(req *message.Request) *message.Response {
	return message.NewResponseBuilder().
		Request(req).
		Protocol("HTTP/1.1").
		Code(504).
		Message("Unsatisfiable Request (only-if-cached)").
		Body(message.EmptyResponseBody()).
		Build()
}

func entryToResponse(e cache.Entry) *message.Response {
	return message.NewResponseBuilder().
		Request(e.Request).
		Protocol(e.Protocol).
		Code(e.Code).
		Message(e.Message).
		Headers(e.Header).
		Body(message.NewResponseBody(message.MediaType{}, int64(len(e.Body)), ioutil.NopCloser(bytes.NewReader(e.Body)))).
		SentAt(e.RequestSentAt).
		ReceivedAt(e.ResponseReceivedAt).
		Build()
}

func responseToEntry(r *message.Response) cache.Entry {
	data, _ := r.Body().Bytes()
	return responseToEntryBytes(r, data)
}

func responseToEntryBytes(r *message.Response, data []byte) cache.Entry {
	return cache.Entry{
		Request:            r.Request(),
		Protocol:           r.Protocol(),
		Code:               r.Code(),
		Message:            r.Message(),
		Header:             r.Header(),
		Body:               data,
		RequestSentAt:      r.SentAt(),
		ResponseReceivedAt: r.ReceivedAt(),
	}
}
