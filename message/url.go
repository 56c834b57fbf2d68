// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package message

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// URL wraps a parsed, validated net/url.URL restricted to the http and
// https schemes. Request.Builder.URL silently rewrites ws/wss input to
// http/https respectively before parsing, per the original library's
// behavior for the non-WebSocket request path (see Design Note 9 of
// SPEC_FULL.md).
type URL struct {
	u *url.URL
}

// ParseURL parses rawURL as an HTTP or HTTPS URL. A ws:// or wss://
// scheme is silently rewritten to http:// or https:// before parsing.
// Any other scheme, or a URL net/url.Parse itself rejects, is an error.
func ParseURL(rawURL string) (URL, error) {
	rawURL = normalizeWebSocketScheme(rawURL)
	u, err := url.Parse(rawURL)
	if err != nil {
		return URL{}, fmt.Errorf("gohttpx: invalid url %q: %w", rawURL, err)
	}
	return FromNetURL(u)
}

// FromNetURL validates an already-parsed net/url.URL and wraps it. The
// scheme must be http or https (case-insensitively); ws/wss are not
// rewritten here since the caller already has a structured URL.
func FromNetURL(u *url.URL) (URL, error) {
	if u == nil {
		return URL{}, fmt.Errorf("gohttpx: nil url")
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return URL{}, fmt.Errorf("gohttpx: unexpected url scheme %q, want http or https", u.Scheme)
	}
	u2 := *u
	u2.Scheme = scheme
	return URL{u: &u2}, nil
}

func normalizeWebSocketScheme(rawURL string) string {
	switch {
	case hasSchemeFold(rawURL, "ws:"):
		return "http:" + rawURL[3:]
	case hasSchemeFold(rawURL, "wss:"):
		return "https:" + rawURL[4:]
	default:
		return rawURL
	}
}

func hasSchemeFold(s, scheme string) bool {
	return len(s) >= len(scheme) && strings.EqualFold(s[:len(scheme)], scheme)
}

// IsHTTPS reports whether the URL's scheme is https.
func (u URL) IsHTTPS() bool { return u.u != nil && u.u.Scheme == "https" }

// Host returns the URL's host, without port.
func (u URL) Host() string { return u.u.Hostname() }

// Port returns the URL's port, or the scheme default ("80"/"443") if
// none was specified.
func (u URL) Port() string {
	if p := u.u.Port(); p != "" {
		return p
	}
	if u.IsHTTPS() {
		return "443"
	}
	return "80"
}

// HostHeader returns the value to send in the Host request header:
// host[:port], omitting the port when it is the scheme default.
func (u URL) HostHeader() string {
	host := u.u.Hostname()
	port := u.u.Port()
	defaultPort := "80"
	if u.IsHTTPS() {
		defaultPort = "443"
	}
	if port == "" || port == defaultPort {
		return host
	}
	return net.JoinHostPort(host, port)
}

// Path returns the URL's path, defaulting to "/" when empty.
func (u URL) Path() string {
	if u.u.Path == "" {
		return "/"
	}
	return u.u.Path
}

// RequestURI returns the path plus any query string, as sent on the
// request line.
func (u URL) RequestURI() string {
	r := u.Path()
	if u.u.RawQuery != "" {
		r += "?" + u.u.RawQuery
	}
	return r
}

// String returns the URL's full, unredacted string form.
func (u URL) String() string {
	if u.u == nil {
		return ""
	}
	return u.u.String()
}

// Redacted returns "scheme://host/..." without query string or
// userinfo, suitable for inclusion in logs (RealCall.redactedUrl in
// the original implementation).
func (u URL) Redacted() string {
	if u.u == nil {
		return ""
	}
	return fmt.Sprintf("%s://%s/...", u.u.Scheme, u.u.Host)
}

// NetURL returns the underlying net/url.URL. Callers must not mutate
// the returned value; URL is otherwise immutable.
func (u URL) NetURL() *url.URL { return u.u }

// ResolveReference resolves ref (typically from a Location header)
// against this URL, returning a validated URL.
func (u URL) ResolveReference(ref string) (URL, error) {
	parsed, err := url.Parse(ref)
	if err != nil {
		return URL{}, fmt.Errorf("gohttpx: invalid Location %q: %w", ref, err)
	}
	return FromNetURL(u.u.ResolveReference(parsed))
}

// SameHost reports whether u and other share scheme, host, and port.
func (u URL) SameHost(other URL) bool {
	return u.u.Scheme == other.u.Scheme && u.u.Host == other.u.Host
}
