// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package gohttpx

import (
	"net/url"

	"github.com/jasoncfpl/gohttpx/message"
)

// Doer is the interface that wraps the basic Do method.
//
// Do executes a Request and returns the final Response (and error, if
// any). Client implements the Doer interface, and any other Doer
// implementation must behave substantially the same as Client.Do.
//
// Any Doer can be converted into an Executor via Inflate.
type Doer interface {
	Do(r *message.Request) (*message.Response, error)
}

// Getter is the interface that wraps the basic Get method.
//
// Any Doer can be used to emulate a Getter via the Get function.
type Getter interface {
	Get(url string) (*message.Response, error)
}

// Header is the interface that wraps the basic Head method.
//
// Any Doer can be used to emulate a Header via the Head function.
type Header interface {
	Head(url string) (*message.Response, error)
}

// Poster is the interface that wraps the basic Post method.
//
// Any Doer can be used to emulate a Poster via the Post function.
type Poster interface {
	Post(url, contentType string, body []byte) (*message.Response, error)
}

// FormPoster is the interface that wraps the basic PostForm method.
//
// Any Doer can be used to emulate a FormPoster via the PostForm
// function.
type FormPoster interface {
	PostForm(url string, data url.Values) (*message.Response, error)
}

// IdleCloser is the interface that wraps the basic
// CloseIdleConnections method.
type IdleCloser interface {
	CloseIdleConnections()
}

// Executor is the interface that groups the basic Do, Get, Head, Post,
// PostForm, and CloseIdleConnections methods.
//
// Any Doer can be converted into an Executor via Inflate.
type Executor interface {
	Doer
	Getter
	Header
	Poster
	FormPoster
	IdleCloser
}

// Get uses d to issue a GET to rawURL, using the same policies as d.Do.
func Get(d Doer, rawURL string) (*message.Response, error) {
	return d.Do(message.NewRequestBuilder().URL(rawURL).Get().Build())
}

// Head uses d to issue a HEAD to rawURL, using the same policies as
// d.Do.
func Head(d Doer, rawURL string) (*message.Response, error) {
	return d.Do(message.NewRequestBuilder().URL(rawURL).Head().Build())
}

// Post uses d to issue a POST to rawURL, using the same policies as
// d.Do. body may be nil for an empty body.
func Post(d Doer, rawURL, contentType string, body []byte) (*message.Response, error) {
	rb := message.NewRequestBuilder().URL(rawURL)
	var reqBody message.RequestBody
	if body != nil {
		mt, err := message.ParseMediaType(contentType)
		if err != nil {
			return nil, err
		}
		reqBody = message.NewBody(mt, body)
	}
	rb.Post(reqBody)
	return d.Do(rb.Build())
}

// PostForm uses d to issue a POST to rawURL, with data's keys and
// values URL-encoded as the request body and Content-Type set to
// application/x-www-form-urlencoded.
func PostForm(d Doer, rawURL string, data url.Values) (*message.Response, error) {
	return Post(d, rawURL, "application/x-www-form-urlencoded", []byte(data.Encode()))
}

// Inflate converts any non-nil Doer into an Executor, for interop
// across library boundaries when code that only has access to a Doer
// needs to call a function requiring an Executor.
func Inflate(d Doer) Executor {
	if d == nil {
		panic("gohttpx: nil doer")
	}

	if e, ok := d.(Executor); ok {
		return e
	}

	return inflated{d}
}

type inflated struct {
	doer Doer
}

func (i inflated) Do(r *message.Request) (*message.Response, error) { return i.doer.Do(r) }

func (i inflated) Get(url string) (*message.Response, error) { return Get(i.doer, url) }

func (i inflated) Head(url string) (*message.Response, error) { return Head(i.doer, url) }

func (i inflated) Post(url, contentType string, body []byte) (*message.Response, error) {
	return Post(i.doer, url, contentType, body)
}

func (i inflated) PostForm(url string, data url.Values) (*message.Response, error) {
	return PostForm(i.doer, url, data)
}

func (i inflated) CloseIdleConnections() {
	if ic, ok := i.doer.(IdleCloser); ok {
		ic.CloseIdleConnections()
	}
}
