// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package message

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func req(t *testing.T) *Request {
	return NewRequestBuilder().URL("https://example.com/").Build()
}

func TestResponseBuilderPanicsWithoutRequest(t *testing.T) {
	assert.Panics(t, func() {
		NewResponseBuilder().Protocol("HTTP/1.1").Code(200).Build()
	})
}

func TestResponseBuilderPanicsWithoutProtocol(t *testing.T) {
	assert.Panics(t, func() {
		NewResponseBuilder().Request(req(t)).Code(200).Build()
	})
}

func TestResponseIsSuccessfulAndIsRedirect(t *testing.T) {
	ok := NewResponseBuilder().Request(req(t)).Protocol("HTTP/1.1").Code(204).Message("No Content").Build()
	assert.True(t, ok.IsSuccessful())
	assert.False(t, ok.IsRedirect())

	redirect := NewResponseBuilder().Request(req(t)).Protocol("HTTP/1.1").Code(302).Message("Found").Build()
	assert.False(t, redirect.IsSuccessful())
	assert.True(t, redirect.IsRedirect())
}

func TestResponseCacheControlMemoizesParse(t *testing.T) {
	resp := NewResponseBuilder().Request(req(t)).Protocol("HTTP/1.1").Code(200).Message("OK").
		Header("Cache-Control", "max-age=60").Build()
	maxAge, ok := resp.CacheControl().MaxAge()
	require.True(t, ok)
	assert.Equal(t, int64(60), int64(maxAge.Seconds()))
}

func TestResponseChainFields(t *testing.T) {
	cached := NewResponseBuilder().Request(req(t)).Protocol("HTTP/1.1").Code(200).Message("OK").Build()
	network := NewResponseBuilder().Request(req(t)).Protocol("HTTP/1.1").Code(304).Message("Not Modified").Build()

	merged := NewResponseBuilder().Request(req(t)).Protocol("HTTP/1.1").Code(200).Message("OK").
		CacheResponse(cached).
		NetworkResponse(network).
		Build()

	assert.Same(t, cached, merged.CacheResponse())
	assert.Same(t, network, merged.NetworkResponse())
	assert.Nil(t, merged.PriorResponse())
}

func TestResponseNewBuilderRoundTrips(t *testing.T) {
	resp := NewResponseBuilder().Request(req(t)).Protocol("HTTP/1.1").Code(200).Message("OK").
		Header("X-Foo", "bar").Build()
	rebuilt := resp.NewBuilder().Build()
	assert.Equal(t, resp.Code(), rebuilt.Code())
	assert.Equal(t, "bar", rebuilt.Header().Get("X-Foo"))
}
