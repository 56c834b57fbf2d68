// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package cookiejar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jasoncfpl/gohttpx/message"
)

func mustURL(t *testing.T, raw string) message.URL {
	u, err := message.ParseURL(raw)
	require.NoError(t, err)
	return u
}

func TestMemoryJarRoundTrip(t *testing.T) {
	j := NewMemoryJar()
	u := mustURL(t, "https://example.com/")
	j.SaveFromResponse(u, []string{"session=abc123; Path=/"})

	cookies := j.CookiesForRequest(u)
	require.Len(t, cookies, 1)
	assert.Equal(t, "session", cookies[0].Name)
	assert.Equal(t, "abc123", cookies[0].Value)
}

func TestMemoryJarDomainMatchingExcludesUnrelatedHost(t *testing.T) {
	j := NewMemoryJar()
	j.SaveFromResponse(mustURL(t, "https://example.com/"), []string{"a=1; Domain=example.com"})

	other := mustURL(t, "https://other.com/")
	assert.Empty(t, j.CookiesForRequest(other))

	sub := mustURL(t, "https://sub.example.com/")
	assert.Len(t, j.CookiesForRequest(sub), 1)
}

func TestMemoryJarHostOnlyCookieRequiresExactHost(t *testing.T) {
	j := NewMemoryJar()
	// No Domain attribute: host-only cookie.
	j.SaveFromResponse(mustURL(t, "https://example.com/"), []string{"a=1"})

	sub := mustURL(t, "https://sub.example.com/")
	assert.Empty(t, j.CookiesForRequest(sub))

	same := mustURL(t, "https://example.com/other")
	assert.Len(t, j.CookiesForRequest(same), 1)
}

func TestMemoryJarSecureCookieNotSentOverPlainHTTP(t *testing.T) {
	j := NewMemoryJar()
	j.SaveFromResponse(mustURL(t, "https://example.com/"), []string{"a=1; Secure"})

	plain := mustURL(t, "http://example.com/")
	assert.Empty(t, j.CookiesForRequest(plain))

	secure := mustURL(t, "https://example.com/")
	assert.Len(t, j.CookiesForRequest(secure), 1)
}

func TestMemoryJarExpiredCookieIsNotReturned(t *testing.T) {
	j := NewMemoryJar()
	j.SaveFromResponse(mustURL(t, "https://example.com/"), []string{"a=1; Max-Age=-1"})
	assert.Empty(t, j.CookiesForRequest(mustURL(t, "https://example.com/")))
}

func TestMemoryJarPathMatching(t *testing.T) {
	j := NewMemoryJar()
	j.SaveFromResponse(mustURL(t, "https://example.com/admin/"), []string{"a=1; Path=/admin"})

	assert.Len(t, j.CookiesForRequest(mustURL(t, "https://example.com/admin/page")), 1)
	assert.Empty(t, j.CookiesForRequest(mustURL(t, "https://example.com/other")))
}

func TestMemoryJarSaveReplacesSameNameDomainPath(t *testing.T) {
	j := NewMemoryJar()
	u := mustURL(t, "https://example.com/")
	j.SaveFromResponse(u, []string{"a=1; Path=/"})
	j.SaveFromResponse(u, []string{"a=2; Path=/"})

	cookies := j.CookiesForRequest(u)
	require.Len(t, cookies, 1)
	assert.Equal(t, "2", cookies[0].Value)
}
