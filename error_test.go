// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package gohttpx

import (
	"errors"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUrlErrorWrapWrapsPlainError(t *testing.T) {
	err := urlErrorWrap("GET", "https://example.com/", errors.New("boom"))
	var urlErr *url.Error
	require.True(t, errors.As(err, &urlErr))
	assert.Equal(t, "Get", urlErr.Op)
	assert.Equal(t, "https://example.com/", urlErr.URL)
}

func TestUrlErrorWrapPassesThroughExistingUrlError(t *testing.T) {
	original := &url.Error{Op: "Post", URL: "https://example.com/", Err: errors.New("boom")}
	wrapped := urlErrorWrap("GET", "https://example.com/", original)
	assert.Same(t, original, wrapped)
}

func TestUrlErrorOpCapitalizesMethod(t *testing.T) {
	assert.Equal(t, "Get", urlErrorOp("GET"))
	assert.Equal(t, "Post", urlErrorOp("POST"))
	assert.Equal(t, "Get", urlErrorOp(""))
}
