// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package interceptor

import (
	"io"
	"strings"
	"time"

	"github.com/jasoncfpl/gohttpx/internal/lifecycle"
	"github.com/jasoncfpl/gohttpx/internal/streamalloc"
	"github.com/jasoncfpl/gohttpx/message"
)

// callServer is the terminal interceptor: it drives a single
// request/response exchange over the codec and connection Connect
// bound further up the chain (§4.7). It never calls Proceed — it is
// always the last interceptor in the assembled list.
type callServer struct{}

// NewCallServer returns the CallServer interceptor.
func NewCallServer() Interceptor { return &callServer{} }

func (cs *callServer) Intercept(c *Chain) (*message.Response, error) {
	req := c.Request()
	codec := c.Codec()
	conn := c.Connection()
	if codec == nil || conn == nil {
		panic("gohttpx: callserver interceptor run without a bound connection")
	}

	sentAt := time.Now()

	if err := codec.WriteRequestHeaders(req); err != nil {
		return nil, err
	}
	c.Fire(lifecycle.RequestHeadersSent, lifecycle.Info{Request: req})

	body := req.Body()
	expectContinue := strings.EqualFold(req.Header().Get("Expect"), "100-continue")
	if body != nil && !expectContinue {
		if err := codec.WriteRequestBody(req); err != nil {
			return nil, err
		}
		c.Fire(lifecycle.RequestBodySent, lifecycle.Info{Request: req})
	}

	if expectContinue {
		protocol, code, reasonMsg, header, err := codec.ReadResponseHeaders()
		if err != nil {
			return nil, err
		}
		if code != 100 {
			return cs.finish(c, req, codec, conn, protocol, code, reasonMsg, header, sentAt)
		}
		if body != nil {
			if err := codec.WriteRequestBody(req); err != nil {
				return nil, err
			}
			c.Fire(lifecycle.RequestBodySent, lifecycle.Info{Request: req})
		}
	}

	if err := codec.FinishRequest(); err != nil {
		return nil, err
	}

	protocol, code, reasonMsg, header, err := codec.ReadResponseHeaders()
	if err != nil {
		return nil, err
	}
	// A second unexpected 100-continue before the final response: drain
	// and re-read once, per §4.7's "if 100 arrived unexpectedly, consume
	// and re-read" rule.
	if code == 100 {
		protocol, code, reasonMsg, header, err = codec.ReadResponseHeaders()
		if err != nil {
			return nil, err
		}
	}

	return cs.finish(c, req, codec, conn, protocol, code, reasonMsg, header, sentAt)
}

func (cs *callServer) finish(
	c *Chain,
	req *message.Request,
	codec streamalloc.HttpCodec,
	conn *streamalloc.Connection,
	protocol string,
	code int,
	reasonMsg string,
	header message.Headers,
	sentAt time.Time,
) (*message.Response, error) {
	if shouldCloseConnection(protocol, header) {
		conn.MarkNoNewStreams()
	}

	hasBody := !zeroLengthStatus(req, code)
	if hasBody && header.Get("Content-Length") == "" && !strings.EqualFold(header.Get("Transfer-Encoding"), "chunked") {
		// The body is delimited by connection close, so the connection
		// cannot carry another exchange.
		conn.MarkNoNewStreams()
	}
	stream, err := codec.OpenResponseBody(header, hasBody)
	if err != nil {
		return nil, err
	}
	contentType, _ := message.ParseMediaType(header.Get("Content-Type"))
	contentLength := int64(-1)
	if cl := header.Get("Content-Length"); cl != "" {
		contentLength = parseContentLength(cl)
	}
	if !hasBody {
		contentLength = 0
	}

	resp := message.NewResponseBuilder().
		Request(req).
		Protocol(protocol).
		Code(code).
		Message(reasonMsg).
		Headers(header).
		Body(message.NewResponseBody(contentType, contentLength, &bodyReceivedStream{ReadCloser: stream, chain: c, req: req})).
		SentAt(sentAt).
		ReceivedAt(time.Now()).
		Build()
	c.Fire(lifecycle.ResponseHeadersReceived, lifecycle.Info{Request: req, Response: resp})
	return resp, nil
}

// bodyReceivedStream wraps the codec's response body stream so closing
// it — the point at which the caller has finished (or abandoned)
// reading — fires ResponseBodyReceived exactly once.
type bodyReceivedStream struct {
	io.ReadCloser
	chain  *Chain
	req    *message.Request
	closed bool
}

func (s *bodyReceivedStream) Close() error {
	err := s.ReadCloser.Close()
	if !s.closed {
		s.closed = true
		s.chain.Fire(lifecycle.ResponseBodyReceived, lifecycle.Info{Request: s.req})
	}
	return err
}

func parseContentLength(s string) int64 {
	var n int64
	for _, c := range s {
		if c < '0' || c > '9' {
			return -1
		}
		n = n*10 + int64(c-'0')
	}
	return n
}

func shouldCloseConnection(protocol string, header message.Headers) bool {
	if strings.EqualFold(header.Get("Connection"), "close") {
		return true
	}
	if !strings.EqualFold(protocol, "HTTP/1.1") && !strings.EqualFold(header.Get("Connection"), "keep-alive") {
		return true
	}
	return false
}

func zeroLengthStatus(req *message.Request, code int) bool {
	if req.Method() == "HEAD" {
		return true
	}
	switch code {
	case 204, 205:
		return true
	}
	return false
}
