// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package message

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestByteBodyIsReplayable(t *testing.T) {
	body := NewBody(MediaType{Type: "text", Subtype: "plain"}, []byte("hello"))
	assert.True(t, body.IsReplayable())

	var buf1, buf2 bytes.Buffer
	require.NoError(t, body.WriteTo(&buf1))
	require.NoError(t, body.WriteTo(&buf2))
	assert.Equal(t, "hello", buf1.String())
	assert.Equal(t, "hello", buf2.String())
}

func TestStreamBodyIsNotReplayable(t *testing.T) {
	body := NewStreamBody(MediaType{}, -1, strings.NewReader("stream me"))
	assert.False(t, body.IsReplayable())

	var buf bytes.Buffer
	require.NoError(t, body.WriteTo(&buf))
	assert.Equal(t, "stream me", buf.String())

	err := body.WriteTo(&buf)
	assert.Error(t, err)
}

func TestBodyBytesAcceptsVariousInputTypes(t *testing.T) {
	b, err := BodyBytes(MediaType{}, "a string")
	require.NoError(t, err)
	data, ok := b.(*byteBody)
	require.True(t, ok)
	assert.Equal(t, "a string", string(data.data))

	b2, err := BodyBytes(MediaType{}, []byte("raw bytes"))
	require.NoError(t, err)
	assert.Equal(t, int64(len("raw bytes")), b2.ContentLength())

	nilBody, err := BodyBytes(MediaType{}, nil)
	require.NoError(t, err)
	assert.Nil(t, nilBody)

	_, err = BodyBytes(MediaType{}, 42)
	assert.Error(t, err)
}

func TestResponseBodyCloseIsIdempotentAndBlocksFurtherReads(t *testing.T) {
	rb := NewResponseBody(MediaType{}, 5, readCloser{strings.NewReader("hello")})
	require.NoError(t, rb.Close())
	require.NoError(t, rb.Close())

	buf := make([]byte, 1)
	_, err := rb.Read(buf)
	assert.Error(t, err)
}

func TestResponseBodyBytesReadsAndCloses(t *testing.T) {
	rb := NewResponseBody(MediaType{}, -1, readCloser{strings.NewReader("payload")})
	data, err := rb.Bytes()
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))
}

type readCloser struct{ *strings.Reader }

func (readCloser) Close() error { return nil }
