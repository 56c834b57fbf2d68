// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package gohttpx is a client-side HTTP/1.1 request execution engine: an
immutable Request/Response value model, an ordered interceptor chain
(RetryAndFollowUp, Bridge, Cache, Connect, CallServer), and a
Call/Dispatcher execution layer on top.

Create a Client to begin making requests. The zero value is usable:

	client := &gohttpx.Client{}
	resp, err := client.Get("https://www.example.com")
	...
	resp, err := client.Post("https://www.example.com/upload",
		"application/json", body)
	...
	resp, err := client.PostForm("http://example.com/form",
		url.Values{"key": {"value"}, "id": {"123"}})

For full control over a request (headers, cache-control, tag), build one
with message.NewRequestBuilder and call Client.Do or Client.NewCall:

	req := message.NewRequestBuilder().
		URL("https://www.example.com").
		Header("Accept", "application/json").
		Build()
	resp, err := client.Do(req)

To run a call asynchronously, use Call.Enqueue instead of Call.Execute:

	client.NewCall(req).Enqueue(gohttpx.CallbackFuncs{
		OnResponseFunc: func(call *gohttpx.Call, resp *message.Response) { ... },
		OnFailureFunc:  func(call *gohttpx.Call, err error) { ... },
	})

To observe or extend the engine's behavior at fixed lifecycle points,
install a Handler:

	handlers := &gohttpx.HandlerGroup{}
	handlers.PushBack(gohttpx.CallStart, gohttpx.HandlerFunc(
		func(_ gohttpx.Event, info *gohttpx.Info) {
			log.Printf("starting %s", info.Request.URL())
		},
	))
	client := &gohttpx.Client{Handlers: handlers}

Package gohttpx provides basic interfaces for each method of the
client (Doer, Getter, Header, Poster, FormPoster, and IdleCloser); a
combined interface that composes all the basic methods (Executor); and
utility functions for working with a Doer (Inflate, Get, Head, Post,
and PostForm).
*/
package gohttpx
