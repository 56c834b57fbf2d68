// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package message

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestBuilderDefaultsToGET(t *testing.T) {
	req := NewRequestBuilder().URL("https://example.com/").Build()
	assert.Equal(t, "GET", req.Method())
	assert.Nil(t, req.Body())
}

func TestRequestBuilderPanicsWithoutURL(t *testing.T) {
	assert.Panics(t, func() {
		NewRequestBuilder().Build()
	})
}

func TestRequestBuilderGetForbidsBody(t *testing.T) {
	assert.Panics(t, func() {
		NewRequestBuilder().URL("https://example.com/").Method("GET", NewBody(MediaType{}, []byte("x")))
	})
}

func TestRequestBuilderPostRequiresBody(t *testing.T) {
	assert.Panics(t, func() {
		NewRequestBuilder().URL("https://example.com/").Method("POST", nil)
	})
}

func TestRequestBuilderDeleteDefaultsToEmptyBody(t *testing.T) {
	req := NewRequestBuilder().URL("https://example.com/").Delete(nil).Build()
	require.NotNil(t, req.Body())
	assert.Equal(t, int64(0), req.Body().ContentLength())
}

func TestRequestCacheControlMemoizesParse(t *testing.T) {
	req := NewRequestBuilder().URL("https://example.com/").Header("Cache-Control", "no-cache, max-age=0").Build()
	cc := req.CacheControl()
	assert.True(t, cc.NoCache())
	maxAge, ok := cc.MaxAge()
	assert.True(t, ok)
	assert.Zero(t, maxAge)
	// Second call returns the same memoized value.
	assert.Equal(t, cc, req.CacheControl())
}

func TestRequestNewBuilderRoundTrips(t *testing.T) {
	req := NewRequestBuilder().URL("https://example.com/path").
		Header("X-Foo", "bar").
		Tag("correlation-id").
		Build()

	rebuilt := req.NewBuilder().Build()
	assert.Equal(t, req.URL().String(), rebuilt.URL().String())
	assert.Equal(t, req.Method(), rebuilt.Method())
	assert.Equal(t, "bar", rebuilt.Header().Get("X-Foo"))
	assert.Equal(t, "correlation-id", rebuilt.Tag())
}

func TestRequestBuilderCacheControlRemovesHeaderWhenEmpty(t *testing.T) {
	req := NewRequestBuilder().URL("https://example.com/").
		Header("Cache-Control", "no-cache").
		CacheControl(CacheControl{}).
		Build()
	assert.Equal(t, "", req.Header().Get("Cache-Control"))
}
