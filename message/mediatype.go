// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package message

import (
	"fmt"
	"mime"
	"strings"
)

// MediaType is a parsed MIME media type, e.g. "text/plain;
// charset=utf-8", split into its type, subtype, and parameters.
type MediaType struct {
	Type       string
	Subtype    string
	Parameters map[string]string
}

// ParseMediaType parses s (the value of a Content-Type header) into a
// MediaType. An empty or malformed s yields the zero MediaType and an
// error.
func ParseMediaType(s string) (MediaType, error) {
	full, params, err := mime.ParseMediaType(s)
	if err != nil {
		return MediaType{}, fmt.Errorf("gohttpx: invalid media type %q: %w", s, err)
	}
	parts := strings.SplitN(full, "/", 2)
	mt := MediaType{Type: parts[0], Parameters: params}
	if len(parts) == 2 {
		mt.Subtype = parts[1]
	}
	return mt, nil
}

// String renders the media type back to its wire form.
func (m MediaType) String() string {
	if m.Type == "" {
		return ""
	}
	base := m.Type
	if m.Subtype != "" {
		base += "/" + m.Subtype
	}
	if len(m.Parameters) == 0 {
		return base
	}
	return mime.FormatMediaType(base, m.Parameters)
}
