// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package cookiejar implements the CookieJar collaborator the Bridge
// interceptor reads from and writes to (§4.4), plus a default
// in-memory implementation. The persistence store itself is out of
// scope (§1), same as the base spec's cache store.
package cookiejar

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/publicsuffix"

	"github.com/jasoncfpl/gohttpx/message"
)

// Cookie is one entry in the jar: a name/value pair plus the
// attributes needed to decide which requests it applies to.
type Cookie struct {
	Name     string
	Value    string
	Domain   string
	Path     string
	Expires  time.Time
	Secure   bool
	HostOnly bool
}

func (c Cookie) expired(now time.Time) bool {
	return !c.Expires.IsZero() && now.After(c.Expires)
}

// Jar is the narrow interface the Bridge interceptor depends on:
// load cookies applicable to an outgoing request, and save cookies a
// response's Set-Cookie headers asked to persist.
type Jar interface {
	CookiesForRequest(u message.URL) []Cookie
	SaveFromResponse(u message.URL, setCookie []string)
}

// MemoryJar is the default in-memory Jar, using
// golang.org/x/net/publicsuffix for the same domain-matching algorithm
// net/http/cookiejar is built on (§10.2 of SPEC_FULL.md).
type MemoryJar struct {
	mu      sync.Mutex
	entries map[string][]Cookie // keyed by registrable domain
}

// NewMemoryJar returns an empty MemoryJar.
func NewMemoryJar() *MemoryJar {
	return &MemoryJar{entries: make(map[string][]Cookie)}
}

func (j *MemoryJar) key(host string) string {
	if suffix, ok := publicsuffix.PublicSuffix(strings.ToLower(host)); ok || suffix != "" {
		if d, err := publicsuffix.EffectiveTLDPlusOne(host); err == nil {
			return d
		}
	}
	return strings.ToLower(host)
}

// CookiesForRequest returns every stored cookie eligible for u: domain
// match (or host-only exact match), path match, not expired, and
// Secure only sent over https.
func (j *MemoryJar) CookiesForRequest(u message.URL) []Cookie {
	j.mu.Lock()
	defer j.mu.Unlock()

	host := u.Host()
	now := time.Now()
	var out []Cookie
	for _, c := range j.entries[j.key(host)] {
		if c.expired(now) {
			continue
		}
		if c.HostOnly && !strings.EqualFold(c.Domain, host) {
			continue
		}
		if !c.HostOnly && !domainMatch(host, c.Domain) {
			continue
		}
		if !pathMatch(u.Path(), c.Path) {
			continue
		}
		if c.Secure && !u.IsHTTPS() {
			continue
		}
		out = append(out, c)
	}
	return out
}

// SaveFromResponse parses each Set-Cookie header value and stores the
// resulting cookie, keyed by the response URL's registrable domain.
func (j *MemoryJar) SaveFromResponse(u message.URL, setCookie []string) {
	if len(setCookie) == 0 {
		return
	}
	host := u.Host()
	j.mu.Lock()
	defer j.mu.Unlock()
	key := j.key(host)
	for _, raw := range setCookie {
		c, ok := parseSetCookie(raw, host)
		if !ok {
			continue
		}
		entries := j.entries[key]
		replaced := false
		for i, existing := range entries {
			if existing.Name == c.Name && existing.Domain == c.Domain && existing.Path == c.Path {
				entries[i] = c
				replaced = true
				break
			}
		}
		if !replaced {
			entries = append(entries, c)
		}
		j.entries[key] = entries
	}
}

func domainMatch(host, domain string) bool {
	host, domain = strings.ToLower(host), strings.ToLower(strings.TrimPrefix(domain, "."))
	if host == domain {
		return true
	}
	return strings.HasSuffix(host, "."+domain)
}

func pathMatch(requestPath, cookiePath string) bool {
	if cookiePath == "" || cookiePath == "/" {
		return true
	}
	if requestPath == cookiePath {
		return true
	}
	if strings.HasPrefix(requestPath, cookiePath) {
		return cookiePath[len(cookiePath)-1] == '/' || requestPath[len(cookiePath)] == '/'
	}
	return false
}

// parseSetCookie uses net/http's cookie parser (the same grammar
// net/http/cookiejar relies on) rather than hand-rolling attribute
// parsing.
func parseSetCookie(raw, defaultHost string) (Cookie, bool) {
	header := http.Header{"Set-Cookie": []string{raw}}
	resp := http.Response{Header: header}
	cookies := resp.Cookies()
	if len(cookies) == 0 {
		return Cookie{}, false
	}
	hc := cookies[0]
	c := Cookie{
		Name:     hc.Name,
		Value:    hc.Value,
		Path:     hc.Path,
		Secure:   hc.Secure,
		HostOnly: hc.Domain == "",
	}
	if hc.Domain != "" {
		c.Domain = strings.TrimPrefix(strings.ToLower(hc.Domain), ".")
	} else {
		c.Domain = strings.ToLower(defaultHost)
	}
	if c.Path == "" {
		c.Path = "/"
	}
	if !hc.Expires.IsZero() {
		c.Expires = hc.Expires
	} else if hc.MaxAge > 0 {
		c.Expires = time.Now().Add(time.Duration(hc.MaxAge) * time.Second)
	} else if hc.MaxAge < 0 {
		c.Expires = time.Unix(0, 0)
	}
	return c, true
}
