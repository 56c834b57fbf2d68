// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package streamalloc

import (
	"bufio"
	"fmt"
	"io"
	"net/textproto"
	"strconv"
	"strings"

	"github.com/jasoncfpl/gohttpx/message"
)

// HttpCodec is a protocol-version-specific request writer / response
// reader, bound to one Connection for the duration of an exchange
// (§4.6). Only HTTP/1.1 is implemented; HTTP/2 framing is out of
// scope (§10.7 of SPEC_FULL.md).
type HttpCodec interface {
	// WriteRequestHeaders writes the request line and headers, but not
	// the body (§4.7's write phase separates the two so
	// Expect:100-continue can flush headers alone).
	WriteRequestHeaders(req *message.Request) error
	// WriteRequestBody streams the request body, chunked if its
	// content length is unknown.
	WriteRequestBody(req *message.Request) error
	// FinishRequest completes the request stream (writes the final
	// chunk terminator when chunked).
	FinishRequest() error
	// ReadResponseHeaders parses the status line and headers of the
	// next response on the wire.
	ReadResponseHeaders() (protocol string, code int, message string, header message.Headers, err error)
	// OpenResponseBody binds and returns the response body reader,
	// applying Content-Length/chunked framing.
	OpenResponseBody(header message.Headers, hasBody bool) (io.ReadCloser, error)
}

// http1Codec implements HttpCodec over a single Connection using
// HTTP/1.1 framing, grounded on frankli0324-go-http's
// internal/transport.http1 (request-line/header writer, textproto
// status-line and MIME header reader, Content-Length/chunked
// dispatch).
type http1Codec struct {
	conn   *Connection
	br     *bufio.Reader
	bw     *bufio.Writer
	chunked bool
}

// NewHTTP1Codec binds an HttpCodec to conn.
func NewHTTP1Codec(conn *Connection) HttpCodec {
	return &http1Codec{
		conn: conn,
		br:   bufio.NewReader(conn.Raw()),
		bw:   bufio.NewWriter(conn.Raw()),
	}
}

func (c *http1Codec) WriteRequestHeaders(req *message.Request) error {
	u := req.URL()
	if _, err := fmt.Fprintf(c.bw, "%s %s HTTP/1.1\r\n", req.Method(), u.RequestURI()); err != nil {
		return err
	}
	h := req.Header()
	for i := 0; i < h.Len(); i++ {
		if _, err := fmt.Fprintf(c.bw, "%s: %s\r\n", h.NameAt(i), h.ValueAt(i)); err != nil {
			return err
		}
	}
	if _, err := c.bw.WriteString("\r\n"); err != nil {
		return err
	}
	c.chunked = strings.EqualFold(h.Get("Transfer-Encoding"), "chunked")
	return c.bw.Flush()
}

func (c *http1Codec) WriteRequestBody(req *message.Request) error {
	body := req.Body()
	if body == nil {
		return nil
	}
	if !c.chunked {
		if err := body.WriteTo(c.bw); err != nil {
			return err
		}
		return c.bw.Flush()
	}
	cw := newChunkedWriter(c.bw)
	if err := body.WriteTo(cw); err != nil {
		return err
	}
	if err := cw.Close(); err != nil {
		return err
	}
	return c.bw.Flush()
}

func (c *http1Codec) FinishRequest() error {
	return c.bw.Flush()
}

func (c *http1Codec) ReadResponseHeaders() (string, int, string, message.Headers, error) {
	tp := textproto.NewReader(c.br)
	line, err := tp.ReadLine()
	if err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return "", 0, "", message.Headers{}, err
	}
	proto, rest, ok := strings.Cut(line, " ")
	if !ok {
		return "", 0, "", message.Headers{}, fmt.Errorf("gohttpx: malformed status line %q", line)
	}
	codeStr, reason, _ := strings.Cut(strings.TrimLeft(rest, " "), " ")
	code, err := strconv.Atoi(codeStr)
	if err != nil {
		return "", 0, "", message.Headers{}, fmt.Errorf("gohttpx: malformed status code %q", codeStr)
	}
	mimeHeader, err := tp.ReadMIMEHeader()
	if err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return "", 0, "", message.Headers{}, err
	}
	hb := (&message.HeadersBuilder{})
	for name, values := range mimeHeader {
		for _, v := range values {
			hb.Add(name, v)
		}
	}
	return proto, code, reason, hb.Build(), nil
}

func (c *http1Codec) OpenResponseBody(header message.Headers, hasBody bool) (io.ReadCloser, error) {
	if !hasBody {
		return io.NopCloser(strings.NewReader("")), nil
	}
	if strings.EqualFold(header.Get("Transfer-Encoding"), "chunked") {
		return io.NopCloser(newChunkedReader(c.br)), nil
	}
	cl := header.Get("Content-Length")
	if cl == "" {
		// No framing information: read until connection close, per
		// RFC 7230 §3.3.3 rule 7. The connection is not reusable
		// afterward; CallServer marks it so when it opens such a body.
		return io.NopCloser(c.br), nil
	}
	n, err := strconv.ParseInt(cl, 10, 64)
	if err != nil || n < 0 {
		return nil, fmt.Errorf("gohttpx: malformed Content-Length %q", cl)
	}
	return io.NopCloser(io.LimitReader(c.br, n)), nil
}
