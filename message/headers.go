// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package message

import (
	"fmt"
	"strings"

	"golang.org/x/net/http/httpguts"
)

// Headers is an immutable, ordered collection of HTTP header fields.
// Lookups are case-insensitive. A name may occur more than once; each
// occurrence is preserved in insertion order.
type Headers struct {
	names  []string
	values []string
}

// Get returns the first value associated with name, or "" if none is
// present. Use Values to retrieve every occurrence of a multi-valued
// header.
func (h Headers) Get(name string) string {
	for i, n := range h.names {
		if strings.EqualFold(n, name) {
			return h.values[i]
		}
	}
	return ""
}

// Values returns every value associated with name, in insertion order.
// The returned slice is a copy and is safe for the caller to retain.
func (h Headers) Values(name string) []string {
	var out []string
	for i, n := range h.names {
		if strings.EqualFold(n, name) {
			out = append(out, h.values[i])
		}
	}
	return out
}

// Names returns the distinct header names present, in the order each
// first appeared.
func (h Headers) Names() []string {
	seen := make(map[string]bool, len(h.names))
	var out []string
	for _, n := range h.names {
		lower := strings.ToLower(n)
		if !seen[lower] {
			seen[lower] = true
			out = append(out, n)
		}
	}
	return out
}

// Len returns the number of name/value pairs, counting repeated names
// once per occurrence.
func (h Headers) Len() int {
	return len(h.names)
}

// NameAt and ValueAt expose the raw entry list for iteration, e.g. to
// write headers onto the wire in the order they were set.
func (h Headers) NameAt(i int) string  { return h.names[i] }
func (h Headers) ValueAt(i int) string { return h.values[i] }

// NewBuilder returns a Builder seeded with this Headers' entries.
func (h Headers) NewBuilder() *HeadersBuilder {
	b := &HeadersBuilder{}
	b.names = append(b.names, h.names...)
	b.values = append(b.values, h.values...)
	return b
}

// String renders the headers in "Name: value" lines, one per entry,
// matching the wire representation order.
func (h Headers) String() string {
	var sb strings.Builder
	for i := range h.names {
		fmt.Fprintf(&sb, "%s: %s\n", h.names[i], h.values[i])
	}
	return sb.String()
}

// A HeadersBuilder accumulates header entries before producing an
// immutable Headers via Build.
type HeadersBuilder struct {
	names  []string
	values []string
}

// Set replaces every existing entry named name (case-insensitively)
// with a single entry holding value.
func (b *HeadersBuilder) Set(name, value string) *HeadersBuilder {
	checkNameAndValue(name, value)
	b.removeAll(name)
	return b.Add(name, value)
}

// Add appends a new entry, leaving any existing entries with the same
// name untouched. Prefer Add for multiply-valued headers such as
// "Cookie" or "Set-Cookie".
func (b *HeadersBuilder) Add(name, value string) *HeadersBuilder {
	checkNameAndValue(name, value)
	b.names = append(b.names, name)
	b.values = append(b.values, value)
	return b
}

// RemoveAll removes every entry named name, case-insensitively.
func (b *HeadersBuilder) RemoveAll(name string) *HeadersBuilder {
	b.removeAll(name)
	return b
}

func (b *HeadersBuilder) removeAll(name string) {
	names := b.names[:0]
	values := b.values[:0]
	for i, n := range b.names {
		if !strings.EqualFold(n, name) {
			names = append(names, n)
			values = append(values, b.values[i])
		}
	}
	b.names, b.values = names, values
}

// Get returns the first value currently set for name, mirroring
// Headers.Get, so callers can implement "set only if absent" logic
// while building.
func (b *HeadersBuilder) Get(name string) string {
	for i, n := range b.names {
		if strings.EqualFold(n, name) {
			return b.values[i]
		}
	}
	return ""
}

// Build returns the accumulated entries as an immutable Headers.
func (b *HeadersBuilder) Build() Headers {
	names := make([]string, len(b.names))
	values := make([]string, len(b.values))
	copy(names, b.names)
	copy(values, b.values)
	return Headers{names: names, values: values}
}

func checkNameAndValue(name, value string) {
	if name == "" {
		panic("gohttpx: header name must not be empty")
	}
	if !httpguts.ValidHeaderFieldName(name) {
		panic(fmt.Sprintf("gohttpx: invalid header name: %q", name))
	}
	if !httpguts.ValidHeaderFieldValue(value) {
		panic(fmt.Sprintf("gohttpx: unexpected char in header %s value: %q", name, value))
	}
}
