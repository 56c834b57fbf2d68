// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package interceptor

import (
	"compress/gzip"
	"strconv"
	"strings"

	"github.com/jasoncfpl/gohttpx/cookiejar"
	"github.com/jasoncfpl/gohttpx/message"
)

// UserAgent is the default User-Agent sent when the application did
// not set one, analogous to OkHttp's Version.userAgent().
const UserAgent = "gohttpx/1.0"

// bridge translates an application Request into a network Request,
// and a network Response back into an application Response, per
// §4.4: Content-Type/Content-Length/Transfer-Encoding derivation from
// the body, Host/Connection/Accept-Encoding/User-Agent defaulting,
// cookie jar read on the way out and write on the way back, and
// transparent gzip decompression when the engine itself requested it.
// Grounded on BridgeInterceptor.java.
type bridge struct {
	jar cookiejar.Jar
}

// NewBridge returns the Bridge interceptor. jar may be nil, in which
// case no cookies are sent or stored.
func NewBridge(jar cookiejar.Jar) Interceptor {
	return &bridge{jar: jar}
}

func (b *bridge) Intercept(c *Chain) (*message.Response, error) {
	userRequest := c.Request()
	rb := userRequest.NewBuilder()

	if body := userRequest.Body(); body != nil {
		if ct := body.ContentType(); ct.Type != "" {
			rb.Header("Content-Type", ct.String())
		}
		if cl := body.ContentLength(); cl != -1 {
			rb.Header("Content-Length", strconv.FormatInt(cl, 10))
			rb.RemoveHeader("Transfer-Encoding")
		} else {
			rb.Header("Transfer-Encoding", "chunked")
			rb.RemoveHeader("Content-Length")
		}
	}

	if userRequest.Header().Get("Host") == "" {
		rb.Header("Host", userRequest.URL().HostHeader())
	}
	if userRequest.Header().Get("Connection") == "" {
		rb.Header("Connection", "Keep-Alive")
	}

	transparentGzip := false
	if userRequest.Header().Get("Accept-Encoding") == "" && userRequest.Header().Get("Range") == "" {
		transparentGzip = true
		rb.Header("Accept-Encoding", "gzip")
	}

	if b.jar != nil {
		if cookies := b.jar.CookiesForRequest(userRequest.URL()); len(cookies) > 0 {
			rb.Header("Cookie", cookieHeader(cookies))
		}
	}

	if userRequest.Header().Get("User-Agent") == "" {
		rb.Header("User-Agent", UserAgent)
	}

	networkResponse, err := c.Proceed(rb.Build())
	if err != nil {
		return nil, err
	}

	if b.jar != nil {
		if setCookie := networkResponse.Header().Values("Set-Cookie"); len(setCookie) > 0 {
			b.jar.SaveFromResponse(userRequest.URL(), setCookie)
		}
	}

	respBuilder := networkResponse.NewBuilder().Request(userRequest)

	if transparentGzip &&
		strings.EqualFold(networkResponse.Header().Get("Content-Encoding"), "gzip") &&
		hasBody(networkResponse) {
		gz, err := gzip.NewReader(networkResponse.Body())
		if err != nil {
			return nil, err
		}
		strippedHeaders := networkResponse.Header().NewBuilder().
			RemoveAll("Content-Encoding").
			RemoveAll("Content-Length").
			Build()
		respBuilder.Headers(strippedHeaders)
		contentType, _ := message.ParseMediaType(networkResponse.Header().Get("Content-Type"))
		respBuilder.Body(message.NewResponseBody(contentType, -1, gzipReadCloser{gz, networkResponse.Body()}))
	}

	return respBuilder.Build(), nil
}

// gzipReadCloser closes both the gzip reader and the underlying
// response body it wraps.
type gzipReadCloser struct {
	gz  *gzip.Reader
	src interface{ Close() error }
}

func (g gzipReadCloser) Read(p []byte) (int, error) { return g.gz.Read(p) }
func (g gzipReadCloser) Close() error {
	err := g.gz.Close()
	if srcErr := g.src.Close(); err == nil {
		err = srcErr
	}
	return err
}

// hasBody reports whether a response of this status/request shape is
// permitted a body per HTTP semantics; HEAD and 1xx/204/304 have none.
func hasBody(r *message.Response) bool {
	if r.Request().Method() == "HEAD" {
		return false
	}
	code := r.Code()
	if code >= 100 && code < 200 {
		return false
	}
	switch code {
	case 204, 304:
		return false
	}
	return true
}

func cookieHeader(cookies []cookiejar.Cookie) string {
	var sb strings.Builder
	for i, c := range cookies {
		if i > 0 {
			sb.WriteString("; ")
		}
		sb.WriteString(c.Name)
		sb.WriteByte('=')
		sb.WriteString(c.Value)
	}
	return sb.String()
}
