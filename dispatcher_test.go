// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package gohttpx

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jasoncfpl/gohttpx/message"
)

func TestDispatcherZeroValueUsesDefaultLimits(t *testing.T) {
	var d Dispatcher
	assert.Equal(t, defaultMaxRequests, d.maxRequests())
	assert.Equal(t, defaultMaxRequestsPerHost, d.maxRequestsPerHost())
}

func TestDispatcherFinishedFiresIdleCallbackWhenAllQueuesEmpty(t *testing.T) {
	idled := make(chan struct{})
	d := &Dispatcher{IdleCallback: func() { close(idled) }}

	call := &Call{client: &Client{}}
	d.executed(call)
	d.finished(call)

	select {
	case <-idled:
	case <-time.After(time.Second):
		t.Fatal("idle callback never fired")
	}
}

func TestDispatcherFinishedIsNoopForUnknownCall(t *testing.T) {
	d := &Dispatcher{}
	assert.NotPanics(t, func() { d.finished(&Call{client: &Client{}}) })
}

func TestDispatcherEnforcesMaxRequestsPerHost(t *testing.T) {
	const perHostCap = 2
	const totalCalls = 5

	release := make(chan struct{})
	var inFlight, maxInFlight int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			cur := atomic.LoadInt32(&maxInFlight)
			if n <= cur || atomic.CompareAndSwapInt32(&maxInFlight, cur, n) {
				break
			}
		}
		<-release
		atomic.AddInt32(&inFlight, -1)
		w.WriteHeader(200)
	}))
	defer srv.Close()

	d := &Dispatcher{MaxRequests: 10, MaxRequestsPerHost: perHostCap}
	c := &Client{Dispatcher: d}

	var wg sync.WaitGroup
	wg.Add(totalCalls)
	for i := 0; i < totalCalls; i++ {
		req := message.NewRequestBuilder().URL(srv.URL).Get().Build()
		err := c.NewCall(req).Enqueue(CallbackFuncs{
			OnResponseFunc: func(call *Call, resp *message.Response) {
				resp.Body().Close()
				wg.Done()
			},
			OnFailureFunc: func(call *Call, err error) {
				wg.Done()
			},
		})
		require.NoError(t, err)
	}

	time.Sleep(100 * time.Millisecond)
	close(release)

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for enqueued calls")
	}

	assert.LessOrEqual(t, int(atomic.LoadInt32(&maxInFlight)), perHostCap)
}
