// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package interceptor

import (
	"bytes"
	"errors"
	"io/ioutil"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jasoncfpl/gohttpx/message"
)

type connectFailedStub struct{ err error }

func (e *connectFailedStub) Error() string       { return e.err.Error() }
func (e *connectFailedStub) ConnectFailed() bool { return true }

func respFor(req *message.Request, code int, headers map[string]string) *message.Response {
	rb := message.NewResponseBuilder().
		Request(req).Protocol("HTTP/1.1").Code(code).Message("status").
		Body(message.NewResponseBody(message.MediaType{}, 0, ioutil.NopCloser(bytes.NewReader(nil)))).
		SentAt(time.Now()).ReceivedAt(time.Now())
	for k, v := range headers {
		rb.Header(k, v)
	}
	return rb.Build()
}

func runRetryFollowUp(t *testing.T, cfg Config, req *message.Request, network Interceptor) (*message.Response, error) {
	t.Helper()
	return Run([]Interceptor{NewRetryAndFollowUp(cfg), network}, req, nil, time.Second, time.Second, time.Second)
}

func TestRetryFollowUpFollowsRedirectWithFollowRedirectsEnabled(t *testing.T) {
	req := getRequest(t, "http://example.com/start")
	var seen []string
	network := InterceptorFunc(func(c *Chain) (*message.Response, error) {
		seen = append(seen, c.Request().URL().String())
		if c.Request().URL().Path() == "/start" {
			return respFor(c.Request(), 302, map[string]string{"Location": "/next"}), nil
		}
		return respFor(c.Request(), 200, nil), nil
	})

	resp, err := runRetryFollowUp(t, Config{FollowRedirects: true}, req, network)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.Code())
	assert.Equal(t, []string{"http://example.com/start", "http://example.com/next"}, seen)
	assert.NotNil(t, resp.PriorResponse())
}

func TestRetryFollowUpDoesNotFollowRedirectWhenDisabled(t *testing.T) {
	req := getRequest(t, "http://example.com/start")
	network := InterceptorFunc(func(c *Chain) (*message.Response, error) {
		return respFor(c.Request(), 302, map[string]string{"Location": "/next"}), nil
	})

	resp, err := runRetryFollowUp(t, Config{FollowRedirects: false}, req, network)
	require.NoError(t, err)
	assert.Equal(t, 302, resp.Code())
}

func TestRetryFollowUp303ChangesMethodToGetAndDropsBody(t *testing.T) {
	req := message.NewRequestBuilder().URL("http://example.com/start").
		Method("POST", message.NewBody(message.MediaType{}, []byte("payload"))).Build()

	var seenMethod string
	network := InterceptorFunc(func(c *Chain) (*message.Response, error) {
		if c.Request().URL().Path() == "/start" {
			return respFor(c.Request(), 303, map[string]string{"Location": "/next"}), nil
		}
		seenMethod = c.Request().Method()
		return respFor(c.Request(), 200, nil), nil
	})

	_, err := runRetryFollowUp(t, Config{FollowRedirects: true}, req, network)
	require.NoError(t, err)
	assert.Equal(t, "GET", seenMethod)
}

func TestRetryFollowUpStripsAuthorizationOnCrossHostRedirect(t *testing.T) {
	req := message.NewRequestBuilder().URL("http://a.example.com/start").
		Header("Authorization", "Bearer secret").Get().Build()

	var seenAuth string
	network := InterceptorFunc(func(c *Chain) (*message.Response, error) {
		if c.Request().URL().Host() == "a.example.com" {
			return respFor(c.Request(), 302, map[string]string{"Location": "http://b.example.com/next"}), nil
		}
		seenAuth = c.Request().Header().Get("Authorization")
		return respFor(c.Request(), 200, nil), nil
	})

	_, err := runRetryFollowUp(t, Config{FollowRedirects: true}, req, network)
	require.NoError(t, err)
	assert.Empty(t, seenAuth)
}

func TestRetryFollowUpRefusesSchemeDowngradeWithoutOptIn(t *testing.T) {
	req := getRequest(t, "https://example.com/start")
	network := InterceptorFunc(func(c *Chain) (*message.Response, error) {
		return respFor(c.Request(), 302, map[string]string{"Location": "http://example.com/next"}), nil
	})

	resp, err := runRetryFollowUp(t, Config{FollowRedirects: true, FollowSSLRedirects: false}, req, network)
	require.NoError(t, err)
	assert.Equal(t, 302, resp.Code())
}

func TestRetryFollowUpAllowsSchemeDowngradeWithOptIn(t *testing.T) {
	req := getRequest(t, "https://example.com/start")
	var followedTo string
	network := InterceptorFunc(func(c *Chain) (*message.Response, error) {
		if c.Request().URL().IsHTTPS() {
			return respFor(c.Request(), 302, map[string]string{"Location": "http://example.com/next"}), nil
		}
		followedTo = c.Request().URL().String()
		return respFor(c.Request(), 200, nil), nil
	})

	resp, err := runRetryFollowUp(t, Config{FollowRedirects: true, FollowSSLRedirects: true}, req, network)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.Code())
	assert.Equal(t, "http://example.com/next", followedTo)
}

func TestRetryFollowUpAuthenticates401(t *testing.T) {
	req := getRequest(t, "http://example.com/secret")
	auth := authFunc(func(resp *message.Response) (*message.Request, error) {
		return resp.Request().NewBuilder().Header("Authorization", "Bearer token").Build(), nil
	})

	var seenAuth string
	var calls int
	network := InterceptorFunc(func(c *Chain) (*message.Response, error) {
		calls++
		if c.Request().Header().Get("Authorization") == "" {
			return respFor(c.Request(), 401, nil), nil
		}
		seenAuth = c.Request().Header().Get("Authorization")
		return respFor(c.Request(), 200, nil), nil
	})

	resp, err := runRetryFollowUp(t, Config{Authenticator: auth}, req, network)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.Code())
	assert.Equal(t, "Bearer token", seenAuth)
	assert.Equal(t, 2, calls)
}

func TestRetryFollowUpGivesUpWhenAuthenticatorReturnsNil(t *testing.T) {
	req := getRequest(t, "http://example.com/secret")
	auth := authFunc(func(resp *message.Response) (*message.Request, error) { return nil, nil })

	network := InterceptorFunc(func(c *Chain) (*message.Response, error) {
		return respFor(c.Request(), 401, nil), nil
	})

	resp, err := runRetryFollowUp(t, Config{Authenticator: auth}, req, network)
	require.NoError(t, err)
	assert.Equal(t, 401, resp.Code())
}

func TestRetryFollowUpExceedingMaxFollowUpsReturnsProtocolError(t *testing.T) {
	req := getRequest(t, "http://example.com/loop")
	network := InterceptorFunc(func(c *Chain) (*message.Response, error) {
		return respFor(c.Request(), 302, map[string]string{"Location": "/loop"}), nil
	})

	_, err := runRetryFollowUp(t, Config{FollowRedirects: true}, req, network)
	require.Error(t, err)
	var protoErr *ProtocolError
	assert.ErrorAs(t, err, &protoErr)
}

func TestRetryFollowUpRetriesConnectFailedWhenEnabled(t *testing.T) {
	req := getRequest(t, "http://example.com/")
	var calls int
	network := InterceptorFunc(func(c *Chain) (*message.Response, error) {
		calls++
		if calls == 1 {
			return nil, &connectFailedStub{err: errors.New("dial failed")}
		}
		return respFor(c.Request(), 200, nil), nil
	})

	resp, err := runRetryFollowUp(t, Config{RetryOnConnectionFailure: true}, req, network)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.Code())
	assert.Equal(t, 2, calls)
}

func TestRetryFollowUpDoesNotRetryConnectFailedWhenDisabled(t *testing.T) {
	req := getRequest(t, "http://example.com/")
	network := InterceptorFunc(func(c *Chain) (*message.Response, error) {
		return nil, &connectFailedStub{err: errors.New("dial failed")}
	})

	_, err := runRetryFollowUp(t, Config{RetryOnConnectionFailure: false}, req, network)
	require.Error(t, err)
}

type authFunc func(resp *message.Response) (*message.Request, error)

func (f authFunc) Authenticate(resp *message.Response) (*message.Request, error) { return f(resp) }
