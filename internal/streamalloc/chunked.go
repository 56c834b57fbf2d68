// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package streamalloc

import (
	"bufio"
	"errors"
	"fmt"
	"io"
)

// chunkedWriter implements the wire encoding for "Transfer-Encoding:
// chunked" request bodies, grounded on frankli0324-go-http's
// internal/transport/chunked.chunkedWriter (itself lifted from
// net/http/internal/chunked.go).
type chunkedWriter struct {
	w io.Writer
}

func newChunkedWriter(w io.Writer) *chunkedWriter { return &chunkedWriter{w} }

func (cw *chunkedWriter) Write(data []byte) (int, error) {
	if len(data) == 0 {
		return 0, nil
	}
	if _, err := fmt.Fprintf(cw.w, "%x\r\n", len(data)); err != nil {
		return 0, err
	}
	n, err := cw.w.Write(data)
	if err != nil {
		return n, err
	}
	if n != len(data) {
		return n, io.ErrShortWrite
	}
	if _, err := io.WriteString(cw.w, "\r\n"); err != nil {
		return n, err
	}
	return n, nil
}

func (cw *chunkedWriter) Close() error {
	n, err := io.WriteString(cw.w, "0\r\n\r\n")
	if err == nil && n != 5 {
		return io.ErrShortWrite
	}
	return err
}

// chunkedReader implements the wire decoding half, grounded on the
// same source file's chunkedReader.
type chunkedReader struct {
	r                               *bufio.Reader
	currentChunk                    io.Reader
	currentCount, currentChunkSize  int64
}

func newChunkedReader(r *bufio.Reader) io.Reader {
	return &chunkedReader{r: r}
}

func (c *chunkedReader) readChunkHeader() (uint64, error) {
	var length uint64
	cnt := 0
	for {
		line, isPrefix, err := c.r.ReadLine()
		if err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return 0, err
		}
		for _, b := range line {
			cnt++
			switch {
			case '0' <= b && b <= '9':
				b = b - '0'
			case 'a' <= b && b <= 'f':
				b = b - 'a' + 10
			case 'A' <= b && b <= 'F':
				b = b - 'A' + 10
			default:
				return 0, errors.New("gohttpx: invalid byte in chunk length")
			}
			length <<= 4
			length |= uint64(b)
		}
		if cnt >= 16 {
			return 0, errors.New("gohttpx: chunk length too large")
		}
		if !isPrefix {
			break
		}
	}
	return length, nil
}

func (c *chunkedReader) Read(p []byte) (n int, err error) {
	if c.currentChunk == nil {
		l, err := c.readChunkHeader()
		if err != nil {
			return 0, err
		}
		if l == 0 {
			return 0, io.EOF
		}
		c.currentChunk = io.LimitReader(c.r, int64(l))
		c.currentChunkSize = int64(l)
		c.currentCount = 0
	}
	n, err = c.currentChunk.Read(p)
	c.currentCount += int64(n)
	if err == io.EOF {
		if c.currentCount != c.currentChunkSize {
			return n, io.ErrUnexpectedEOF
		}
		cr, e1 := c.r.ReadByte()
		lf, e2 := c.r.ReadByte()
		if e1 != nil || e2 != nil {
			return n, io.ErrUnexpectedEOF
		}
		if cr != '\r' || lf != '\n' {
			return n, errors.New("gohttpx: malformed chunked encoding")
		}
		c.currentChunk = nil
		err = nil
	}
	return n, err
}
