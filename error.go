// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package gohttpx

import (
	"errors"
	"net/url"
	"strings"

	"github.com/jasoncfpl/gohttpx/internal/interceptor"
)

// ErrAlreadyExecuted is returned by Call.Execute or Call.Enqueue when
// the Call has already been executed or enqueued once. A Call is a
// one-shot execution binding; use Call.Clone to retry the same
// request.
var ErrAlreadyExecuted = errors.New("gohttpx: already executed")

// ProtocolError reports a failure in the HTTP exchange itself rather
// than a transport-level IO failure: too many follow-up requests, or a
// redirect response with no Location. A malformed status line is not
// reported as a ProtocolError; the HTTP/1.1 codec returns it as a plain
// error.
//
// ProtocolError is defined in internal/interceptor, where
// RetryAndFollowUp constructs it, and aliased here to keep it a
// single type from the caller's perspective while avoiding an import
// cycle between this package and internal/interceptor.
type ProtocolError = interceptor.ProtocolError

// urlErrorWrap wraps err as a *url.Error carrying op and rawURL,
// unless err is already a *url.Error, matching net/http.Client's
// convention so callers doing errors.As for *url.Error keep working
// uniformly regardless of which layer produced the failure.
func urlErrorWrap(method, rawURL string, err error) error {
	if _, ok := err.(*url.Error); ok {
		return err
	}
	return &url.Error{
		Op:  urlErrorOp(method),
		URL: rawURL,
		Err: err,
	}
}

// urlErrorOp is lifted from net/http/client.go: "Get", "Post", etc.
func urlErrorOp(method string) string {
	if method == "" {
		return "Get"
	}
	return method[:1] + strings.ToLower(method[1:])
}
