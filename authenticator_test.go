// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package gohttpx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jasoncfpl/gohttpx/message"
)

func TestBasicAuthenticatorAddsAuthorizationHeader(t *testing.T) {
	req := message.NewRequestBuilder().URL("https://example.com/").Build()
	resp := message.NewResponseBuilder().Request(req).Protocol("HTTP/1.1").Code(401).Message("Unauthorized").Build()

	auth := BasicAuthenticator{Username: "alice", Password: "secret"}
	next, err := auth.Authenticate(resp)
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, "Basic YWxpY2U6c2VjcmV0", next.Header().Get("Authorization"))
}

func TestBasicAuthenticatorGivesUpIfAlreadyAttempted(t *testing.T) {
	req := message.NewRequestBuilder().URL("https://example.com/").
		Header("Authorization", "Basic stale").Build()
	resp := message.NewResponseBuilder().Request(req).Protocol("HTTP/1.1").Code(401).Message("Unauthorized").Build()

	auth := BasicAuthenticator{Username: "alice", Password: "secret"}
	next, err := auth.Authenticate(resp)
	require.NoError(t, err)
	assert.Nil(t, next)
}
