// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package interceptor

import (
	"bytes"
	"io/ioutil"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jasoncfpl/gohttpx/cache"
	"github.com/jasoncfpl/gohttpx/message"
)

func getRequest(t *testing.T, rawURL string) *message.Request {
	t.Helper()
	return message.NewRequestBuilder().URL(rawURL).Get().Build()
}

func networkStub(code int, headers map[string]string, body string, calls *int) Interceptor {
	return InterceptorFunc(func(c *Chain) (*message.Response, error) {
		if calls != nil {
			*calls++
		}
		rb := message.NewResponseBuilder().
			Request(c.Request()).
			Protocol("HTTP/1.1").
			Code(code).
			Message("status").
			Body(message.NewResponseBody(message.MediaType{}, int64(len(body)), ioutil.NopCloser(bytes.NewReader([]byte(body))))).
			SentAt(time.Now()).
			ReceivedAt(time.Now())
		for k, v := range headers {
			rb.Header(k, v)
		}
		return rb.Build(), nil
	})
}

func runCache(t *testing.T, store cache.Store, req *message.Request, network Interceptor) (*message.Response, error) {
	t.Helper()
	chain := []Interceptor{NewCache(store), network}
	return Run(chain, req, nil, time.Second, time.Second, time.Second)
}

func TestCacheMissWithNoStoredCandidateGoesToNetwork(t *testing.T) {
	store := cache.NewMemoryCache()
	var networkCalls int
	req := getRequest(t, "https://example.com/a")

	resp, err := runCache(t, store, req, networkStub(200, map[string]string{"Cache-Control": "max-age=60"}, "body", &networkCalls))
	require.NoError(t, err)
	assert.Equal(t, 1, networkCalls)
	assert.Equal(t, 200, resp.Code())

	hit, network, conditional := store.Stats.Snapshot()
	assert.Equal(t, 0, hit)
	assert.Equal(t, 1, network)
	assert.Equal(t, 0, conditional)

	_, ok := store.Get(cache.Key(req))
	assert.True(t, ok)
}

func TestCacheFreshEntryServedWithoutNetworkCall(t *testing.T) {
	store := cache.NewMemoryCache()
	req := getRequest(t, "https://example.com/b")
	key := cache.Key(req)
	store.Put(key, cache.Entry{
		Request:            req,
		Protocol:           "HTTP/1.1",
		Code:               200,
		Message:            "OK",
		Header:             message.Headers{}.NewBuilder().Set("Cache-Control", "max-age=3600").Set("Date", time.Now().Format(time.RFC1123)).Build(),
		Body:               []byte("cached"),
		RequestSentAt:      time.Now(),
		ResponseReceivedAt: time.Now(),
	})

	var networkCalls int
	resp, err := runCache(t, store, req, networkStub(200, nil, "fresh-from-net", &networkCalls))
	require.NoError(t, err)
	assert.Equal(t, 0, networkCalls)
	assert.Equal(t, 200, resp.Code())
	assert.NotNil(t, resp.CacheResponse())

	hit, _, _ := store.Stats.Snapshot()
	assert.Equal(t, 1, hit)
}

func TestCacheStaleEntrySendsConditionalRequestWithValidators(t *testing.T) {
	store := cache.NewMemoryCache()
	req := getRequest(t, "https://example.com/c")
	key := cache.Key(req)
	old := time.Now().Add(-2 * time.Hour)
	store.Put(key, cache.Entry{
		Request: req,
		Protocol: "HTTP/1.1",
		Code:     200,
		Message:  "OK",
		Header: message.Headers{}.NewBuilder().
			Set("Cache-Control", "max-age=60").
			Set("Date", old.Format(time.RFC1123)).
			Set("ETag", `"v1"`).
			Build(),
		Body:               []byte("stale-body"),
		RequestSentAt:       old,
		ResponseReceivedAt:  old,
	})

	var seenIfNoneMatch string
	chain := []Interceptor{NewCache(store), InterceptorFunc(func(c *Chain) (*message.Response, error) {
		seenIfNoneMatch = c.Request().Header().Get("If-None-Match")
		return message.NewResponseBuilder().
			Request(c.Request()).Protocol("HTTP/1.1").Code(304).Message("Not Modified").
			Body(message.EmptyResponseBody()).
			SentAt(time.Now()).ReceivedAt(time.Now()).Build(), nil
	})}

	resp, err := Run(chain, req, nil, time.Second, time.Second, time.Second)
	require.NoError(t, err)
	assert.Equal(t, `"v1"`, seenIfNoneMatch)
	assert.Equal(t, 200, resp.Code())
	assert.NotNil(t, resp.NetworkResponse())

	_, _, conditional := store.Stats.Snapshot()
	assert.Equal(t, 1, conditional)

	entry, ok := store.Get(key)
	require.True(t, ok)
	assert.Equal(t, "stale-body", string(entry.Body))
}

func TestCacheStaleEntryReplacedWhenNetworkReturnsFreshBody(t *testing.T) {
	store := cache.NewMemoryCache()
	req := getRequest(t, "https://example.com/d")
	key := cache.Key(req)
	old := time.Now().Add(-2 * time.Hour)
	store.Put(key, cache.Entry{
		Request: req, Protocol: "HTTP/1.1", Code: 200, Message: "OK",
		Header: message.Headers{}.NewBuilder().Set("Cache-Control", "max-age=60").Set("Date", old.Format(time.RFC1123)).Build(),
		Body:   []byte("old-body"),
	})

	resp, err := runCache(t, store, req, networkStub(200, map[string]string{"Cache-Control": "max-age=60"}, "new-body", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.Code())

	data, err := resp.Body().Bytes()
	require.NoError(t, err)
	assert.Equal(t, "new-body", string(data))

	entry, ok := store.Get(key)
	require.True(t, ok)
	assert.Equal(t, "new-body", string(entry.Body))
}

func TestCacheNoStoreResponseIsNotPersisted(t *testing.T) {
	store := cache.NewMemoryCache()
	req := getRequest(t, "https://example.com/e")

	_, err := runCache(t, store, req, networkStub(200, map[string]string{"Cache-Control": "no-store"}, "body", nil))
	require.NoError(t, err)

	_, ok := store.Get(cache.Key(req))
	assert.False(t, ok)
}

func TestCacheNonCacheableStatusIsNotPersisted(t *testing.T) {
	store := cache.NewMemoryCache()
	req := getRequest(t, "https://example.com/f")

	_, err := runCache(t, store, req, networkStub(500, nil, "boom", nil))
	require.NoError(t, err)

	_, ok := store.Get(cache.Key(req))
	assert.False(t, ok)
}

func TestCachePostResponseIsNotPersisted(t *testing.T) {
	store := cache.NewMemoryCache()
	req := message.NewRequestBuilder().URL("https://example.com/g").Method("POST", message.NewBody(message.MediaType{}, []byte("x"))).Build()

	_, err := runCache(t, store, req, networkStub(200, map[string]string{"Cache-Control": "max-age=60"}, "body", nil))
	require.NoError(t, err)

	_, ok := store.Get(cache.Key(req))
	assert.False(t, ok)
}

func TestCacheOnlyIfCachedWithNoCandidateReturns504(t *testing.T) {
	store := cache.NewMemoryCache()
	req := message.NewRequestBuilder().URL("https://example.com/h").Header("Cache-Control", "only-if-cached").Get().Build()

	var networkCalls int
	resp, err := runCache(t, store, req, networkStub(200, nil, "body", &networkCalls))
	require.NoError(t, err)
	assert.Equal(t, 0, networkCalls)
	assert.Equal(t, 504, resp.Code())
}

func TestCacheNilStoreAlwaysGoesToNetwork(t *testing.T) {
	var networkCalls int
	req := getRequest(t, "https://example.com/i")
	resp, err := runCache(t, nil, req, networkStub(200, nil, "body", &networkCalls))
	require.NoError(t, err)
	assert.Equal(t, 1, networkCalls)
	assert.Equal(t, 200, resp.Code())
}
