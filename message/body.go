// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package message

import (
	"bytes"
	"errors"
	"io"
	"io/ioutil"
)

// RequestBody is an outgoing request body. Implementations report
// their content type and length (-1 if unknown, in which case the
// Bridge interceptor sends chunked transfer encoding) and whether they
// can be re-transmitted, which governs whether RetryAndFollowUp is
// allowed to retry or follow up a request carrying this body (Design
// Note 9: "request body re-transmission" — streaming sinks return
// false, byte-backed bodies return true).
type RequestBody interface {
	// ContentType returns the body's declared media type, or the zero
	// MediaType if none is declared.
	ContentType() MediaType
	// ContentLength returns the body size in bytes, or -1 if unknown
	// ahead of time.
	ContentLength() int64
	// IsReplayable reports whether WriteTo can be called more than
	// once (e.g. after a redirect or a retried attempt).
	IsReplayable() bool
	// WriteTo streams the body to w.
	WriteTo(w io.Writer) error
}

// byteBody is a RequestBody backed by an in-memory byte slice. It is
// always replayable.
type byteBody struct {
	contentType MediaType
	data        []byte
}

// NewBody returns a RequestBody backed by data, with the given media
// type (pass the zero MediaType for none). The returned body is
// replayable.
func NewBody(contentType MediaType, data []byte) RequestBody {
	return &byteBody{contentType: contentType, data: data}
}

// EmptyBody is the zero-length sentinel body used for DELETE requests
// that specify no explicit body, so the wire still carries
// "Content-Length: 0" (Design Note 9's recorded open-question
// resolution) rather than omitting the header entirely.
var EmptyBody RequestBody = &byteBody{data: []byte{}}

func (b *byteBody) ContentType() MediaType  { return b.contentType }
func (b *byteBody) ContentLength() int64    { return int64(len(b.data)) }
func (b *byteBody) IsReplayable() bool      { return true }
func (b *byteBody) WriteTo(w io.Writer) error {
	_, err := w.Write(b.data)
	return err
}

// streamBody is a RequestBody backed by a single-use io.Reader. It is
// never replayable: once WriteTo has consumed the reader, a retry or
// follow-up carrying this body cannot be attempted (§4.3).
type streamBody struct {
	contentType   MediaType
	contentLength int64
	source        io.Reader
	consumed      bool
}

// NewStreamBody returns a RequestBody that streams from source exactly
// once. contentLength may be -1 if unknown.
func NewStreamBody(contentType MediaType, contentLength int64, source io.Reader) RequestBody {
	return &streamBody{contentType: contentType, contentLength: contentLength, source: source}
}

func (b *streamBody) ContentType() MediaType { return b.contentType }
func (b *streamBody) ContentLength() int64   { return b.contentLength }
func (b *streamBody) IsReplayable() bool     { return false }

func (b *streamBody) WriteTo(w io.Writer) error {
	if b.consumed {
		return errors.New("gohttpx: streaming request body already consumed")
	}
	b.consumed = true
	_, err := io.Copy(w, b.source)
	return err
}

// BodyBytes converts a generic application-supplied body value into a
// RequestBody. body may be nil (no body), string, []byte, io.Reader, or
// io.ReadCloser. Readers are buffered eagerly so the resulting body is
// replayable, matching the teacher library's request.BodyBytes; use
// NewStreamBody directly to opt into single-use streaming semantics.
func BodyBytes(contentType MediaType, body interface{}) (RequestBody, error) {
	switch v := body.(type) {
	case nil:
		return nil, nil
	case RequestBody:
		return v, nil
	case string:
		return NewBody(contentType, []byte(v)), nil
	case []byte:
		return NewBody(contentType, v), nil
	case io.ReadCloser:
		b, err := ioutil.ReadAll(v)
		if err != nil {
			return nil, err
		}
		if err := v.Close(); err != nil {
			return nil, err
		}
		return NewBody(contentType, b), nil
	case io.Reader:
		b, err := ioutil.ReadAll(v)
		if err != nil {
			return nil, err
		}
		return NewBody(contentType, b), nil
	default:
		return nil, errors.New("gohttpx: invalid body type (use nil, string, []byte, io.Reader, io.ReadCloser, or RequestBody)")
	}
}

// ResponseBody is the one-shot, single-consumption response body
// stream (§3: "body is a one-shot stream"). Once Close has been
// called, Read returns io.ErrClosedPipe.
type ResponseBody struct {
	contentType   MediaType
	contentLength int64
	r             io.ReadCloser
	closed        bool
}

// NewResponseBody wraps r as a ResponseBody. contentLength is -1 if
// unknown (e.g. after transparent gzip decompression strips it).
func NewResponseBody(contentType MediaType, contentLength int64, r io.ReadCloser) *ResponseBody {
	return &ResponseBody{contentType: contentType, contentLength: contentLength, r: r}
}

// EmptyResponseBody returns a zero-length, already-closed-on-read
// ResponseBody, used for HEAD responses and statuses that forbid a body.
func EmptyResponseBody() *ResponseBody {
	return NewResponseBody(MediaType{}, 0, ioutil.NopCloser(bytes.NewReader(nil)))
}

func (b *ResponseBody) ContentType() MediaType { return b.contentType }
func (b *ResponseBody) ContentLength() int64   { return b.contentLength }

func (b *ResponseBody) Read(p []byte) (int, error) {
	if b.closed {
		return 0, io.ErrClosedPipe
	}
	return b.r.Read(p)
}

func (b *ResponseBody) Close() error {
	if b.closed {
		return nil
	}
	b.closed = true
	return b.r.Close()
}

// Bytes fully reads and closes the body, returning its contents. It is
// a convenience for tests and for callers who don't need streaming.
func (b *ResponseBody) Bytes() ([]byte, error) {
	defer b.Close()
	return ioutil.ReadAll(b)
}
