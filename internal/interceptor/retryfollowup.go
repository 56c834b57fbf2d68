// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package interceptor

import (
	"errors"
	"strings"

	"github.com/jasoncfpl/gohttpx/internal/lifecycle"
	"github.com/jasoncfpl/gohttpx/internal/streamalloc"
	"github.com/jasoncfpl/gohttpx/message"
	"github.com/jasoncfpl/gohttpx/transient"
)

// maxFollowUps is the hard cap on engine-initiated follow-up requests
// within a single call (§4.3).
const maxFollowUps = 20

// ProtocolError reports a failure in the HTTP exchange itself, as
// opposed to a transport-level IO failure: too many follow-ups, a
// redirect response missing Location, or similar (§7).
type ProtocolError struct {
	Message string
}

func (e *ProtocolError) Error() string { return "gohttpx: " + e.Message }

// Authenticator produces a follow-up request carrying credentials in
// response to a 401 or 407, or returns (nil, nil) to give up and
// return the challenge response as-is (§6's authenticator/
// proxyAuthenticator options).
type Authenticator interface {
	Authenticate(response *message.Response) (*message.Request, error)
}

// Config carries the subset of client configuration the
// RetryAndFollowUp interceptor needs: redirect/retry policy switches
// and the two authenticators (§6).
type Config struct {
	Pool                     *streamalloc.Pool
	Authenticator            Authenticator
	ProxyAuthenticator       Authenticator
	FollowRedirects          bool
	FollowSSLRedirects       bool
	RetryOnConnectionFailure bool
}

// retryAndFollowUp owns the per-call StreamAllocation and drives the
// attempt loop: on I/O failure it classifies recoverability; on a
// response it consults the follow-up policy (§4.3).
type retryAndFollowUp struct {
	cfg Config
}

// NewRetryAndFollowUp returns the RetryAndFollowUp interceptor.
func NewRetryAndFollowUp(cfg Config) Interceptor {
	return &retryAndFollowUp{cfg: cfg}
}

func (r *retryAndFollowUp) Intercept(c *Chain) (*message.Response, error) {
	request := c.Request()
	allocation := streamalloc.New(r.cfg.Pool)
	defer func() {
		allocation.StreamFinished(true)
		c.Fire(lifecycle.ConnectionReleased, lifecycle.Info{Request: request})
	}()

	var priorResponse *message.Response
	followUpCount := 0

	for {
		if c.Call() != nil && c.Call().IsCanceled() {
			allocation.Cancel()
			return nil, errors.New("gohttpx: Canceled")
		}

		response, err := c.WithAllocation(allocation).Proceed(request)
		if err != nil {
			if !r.recover(allocation, request, err, followUpCount == 0) {
				return nil, err
			}
			followUpCount++
			if followUpCount > maxFollowUps {
				return nil, &ProtocolError{Message: "too many follow-up attempts"}
			}
			continue
		}

		if priorResponse != nil {
			response = response.NewBuilder().PriorResponse(stripBody(priorResponse)).Build()
		}

		followUp, releaseForNewRoute, err := r.followUp(request, response)
		if err != nil {
			return nil, err
		}
		if followUp == nil {
			return response, nil
		}

		if body := response.Body(); body != nil {
			body.Close()
		}
		if releaseForNewRoute {
			allocation.NoNewStreams()
		}

		followUpCount++
		if followUpCount > maxFollowUps {
			return nil, &ProtocolError{Message: "too many follow-up attempts"}
		}
		c.Fire(lifecycle.FollowUpStart, lifecycle.Info{Request: followUp})
		request = followUp
		priorResponse = response
	}
}

// recover implements §4.3's retry-on-failure policy.
func (r *retryAndFollowUp) recover(allocation *streamalloc.StreamAllocation, request *message.Request, err error, firstAttempt bool) bool {
	if allocation.Canceled() {
		return false
	}
	if !r.cfg.RetryOnConnectionFailure {
		return false
	}
	if body := request.Body(); body != nil && !body.IsReplayable() {
		return false
	}
	switch transient.Categorize(err) {
	case transient.NoRoute, transient.ConnectFailed, transient.ConnReset, transient.SameConnectionOnly, transient.ConnRefused:
		return true
	default:
		return false
	}
}

// followUp implements §4.3's follow-up table. It returns the next
// request to send, or nil if the response should be returned as-is.
// releaseForNewRoute is true for 421, where the current connection
// must not be reused for the retry.
func (r *retryAndFollowUp) followUp(request *message.Request, response *message.Response) (followUp *message.Request, releaseForNewRoute bool, err error) {
	switch response.Code() {
	case 407:
		if r.cfg.ProxyAuthenticator == nil {
			return nil, false, nil
		}
		next, err := r.cfg.ProxyAuthenticator.Authenticate(response)
		if err != nil {
			return nil, false, err
		}
		return next, false, nil

	case 401:
		if r.cfg.Authenticator == nil {
			return nil, false, nil
		}
		next, err := r.cfg.Authenticator.Authenticate(response)
		if err != nil {
			return nil, false, err
		}
		return next, false, nil

	case 300, 301, 302, 303, 307, 308:
		if !r.cfg.FollowRedirects {
			return nil, false, nil
		}
		return r.redirect(request, response)

	case 408:
		if response.PriorResponse() != nil && response.PriorResponse().Code() == 408 {
			return nil, false, nil
		}
		if body := request.Body(); body != nil && !body.IsReplayable() {
			return nil, false, nil
		}
		return request, false, nil

	case 503:
		if response.Header().Get("Retry-After") == "0" &&
			(response.PriorResponse() == nil || response.PriorResponse().Code() != 503) {
			return request, false, nil
		}
		return nil, false, nil

	case 421:
		return request, true, nil

	default:
		return nil, false, nil
	}
}

func (r *retryAndFollowUp) redirect(request *message.Request, response *message.Response) (*message.Request, bool, error) {
	location := response.Header().Get("Location")
	if location == "" {
		return nil, false, &ProtocolError{Message: "redirect response missing Location"}
	}
	target, err := request.URL().ResolveReference(location)
	if err != nil {
		return nil, false, nil
	}

	sameScheme := strings.EqualFold(target.NetURL().Scheme, request.URL().NetURL().Scheme)
	if !sameScheme && target.IsHTTPS() != request.URL().IsHTTPS() {
		// Scheme downgrade (https -> http) requires explicit opt-in.
		if request.URL().IsHTTPS() && !target.IsHTTPS() && !r.cfg.FollowSSLRedirects {
			return nil, false, nil
		}
	}

	rb := request.NewBuilder().SetURL(target)

	method, body := request.Method(), request.Body()
	if response.Code() == 307 || response.Code() == 308 {
		// Method and body preserved.
	} else {
		method = "GET"
		body = nil
		rb.RemoveHeader("Transfer-Encoding")
		rb.RemoveHeader("Content-Length")
		rb.RemoveHeader("Content-Type")
	}
	rb.Method(method, body)

	if !request.URL().SameHost(target) {
		rb.RemoveHeader("Authorization")
	}

	return rb.Build(), false, nil
}
