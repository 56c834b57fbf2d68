// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package interceptor

import (
	"bytes"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jasoncfpl/gohttpx/internal/lifecycle"
	"github.com/jasoncfpl/gohttpx/internal/streamalloc"
	"github.com/jasoncfpl/gohttpx/message"
)

type recordingCallHandle struct {
	events []lifecycle.Event
}

func (r *recordingCallHandle) IsCanceled() bool { return false }
func (r *recordingCallHandle) Fire(evt lifecycle.Event, info lifecycle.Info) {
	r.events = append(r.events, evt)
}

func TestConnectBindsCodecAndConnectionAndFiresEvent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	pool := streamalloc.NewPool(1, time.Minute, nil)
	defer pool.Shutdown()

	req := getRequest(t, srv.URL)
	allocation := streamalloc.New(pool)
	rec := &recordingCallHandle{}

	terminal := InterceptorFunc(func(c *Chain) (*message.Response, error) {
		require.NotNil(t, c.Codec())
		require.NotNil(t, c.Connection())
		return message.NewResponseBuilder().
			Request(c.Request()).Protocol("HTTP/1.1").Code(200).Message("OK").
			Body(message.NewResponseBody(message.MediaType{}, 2, ioutil.NopCloser(bytes.NewReader([]byte("ok"))))).
			SentAt(time.Now()).ReceivedAt(time.Now()).Build(), nil
	})

	chain := New([]Interceptor{NewConnect(), terminal}, rec, time.Second, time.Second, time.Second)
	resp, err := chain.WithAllocation(allocation).Proceed(req)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.Code())
	assert.Contains(t, rec.events, lifecycle.ConnectionAcquired)
}

func TestConnectPanicsWithoutStreamAllocation(t *testing.T) {
	req := getRequest(t, "http://example.com/")
	terminal := InterceptorFunc(func(c *Chain) (*message.Response, error) {
		t.Fatal("should not reach terminal interceptor")
		return nil, nil
	})
	chain := New([]Interceptor{NewConnect(), terminal}, nil, time.Second, time.Second, time.Second)
	assert.Panics(t, func() { chain.Proceed(req) })
}
