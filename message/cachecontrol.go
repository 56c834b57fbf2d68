// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package message

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// CacheControl is a parsed "Cache-Control" directive set. It is
// immutable; use CacheControlBuilder to construct one.
type CacheControl struct {
	noCache        bool
	noStore        bool
	maxAge         time.Duration
	hasMaxAge      bool
	sMaxAge        time.Duration
	hasSMaxAge     bool
	private        bool
	public         bool
	mustRevalidate bool
	maxStale       time.Duration
	hasMaxStale    bool
	minFresh       time.Duration
	hasMinFresh    bool
	onlyIfCached   bool
	noTransform    bool
	immutable      bool
}

// ForceNetwork is the canonical directive set meaning "no-cache": the
// cache must revalidate with the origin before reuse.
var ForceNetwork = CacheControl{noCache: true}

// ForceCache is the canonical directive set meaning "only-if-cached,
// max-stale=<infinite>": accept any cached response, however stale,
// and never contact the network.
var ForceCache = CacheControl{onlyIfCached: true, maxStale: math.MaxInt64, hasMaxStale: true}

// NoCache reports whether the no-cache directive is present.
func (c CacheControl) NoCache() bool { return c.noCache }

// NoStore reports whether the no-store directive is present.
func (c CacheControl) NoStore() bool { return c.noStore }

// MaxAge returns the max-age directive's value and whether it was present.
func (c CacheControl) MaxAge() (time.Duration, bool) { return c.maxAge, c.hasMaxAge }

// SMaxAge returns the s-maxage directive's value and whether it was present.
func (c CacheControl) SMaxAge() (time.Duration, bool) { return c.sMaxAge, c.hasSMaxAge }

// Private reports whether the private directive is present.
func (c CacheControl) Private() bool { return c.private }

// Public reports whether the public directive is present.
func (c CacheControl) Public() bool { return c.public }

// MustRevalidate reports whether the must-revalidate directive is present.
func (c CacheControl) MustRevalidate() bool { return c.mustRevalidate }

// MaxStale returns the max-stale directive's value and whether it was present.
func (c CacheControl) MaxStale() (time.Duration, bool) { return c.maxStale, c.hasMaxStale }

// MinFresh returns the min-fresh directive's value and whether it was present.
func (c CacheControl) MinFresh() (time.Duration, bool) { return c.minFresh, c.hasMinFresh }

// OnlyIfCached reports whether the only-if-cached directive is present.
func (c CacheControl) OnlyIfCached() bool { return c.onlyIfCached }

// NoTransform reports whether the no-transform directive is present.
func (c CacheControl) NoTransform() bool { return c.noTransform }

// Immutable reports whether the immutable directive is present.
func (c CacheControl) Immutable() bool { return c.immutable }

// IsEmpty reports whether no directive is set, in which case a Request
// or Response builder should remove the Cache-Control header entirely
// rather than emit an empty value.
func (c CacheControl) IsEmpty() bool {
	return c == CacheControl{}
}

// ParseCacheControl parses the Cache-Control header values (there may
// be more than one occurrence) into a directive set. Unknown or
// malformed directives are ignored, matching the tolerant parsing the
// original library applies.
func ParseCacheControl(values []string) CacheControl {
	var cc CacheControl
	for _, v := range values {
		for _, directive := range strings.Split(v, ",") {
			name, arg, hasArg := splitDirective(directive)
			switch name {
			case "no-cache":
				cc.noCache = true
			case "no-store":
				cc.noStore = true
			case "private":
				cc.private = true
			case "public":
				cc.public = true
			case "must-revalidate":
				cc.mustRevalidate = true
			case "only-if-cached":
				cc.onlyIfCached = true
			case "no-transform":
				cc.noTransform = true
			case "immutable":
				cc.immutable = true
			case "max-age":
				if d, ok := parseSeconds(arg, hasArg); ok {
					cc.maxAge, cc.hasMaxAge = d, true
				}
			case "s-maxage":
				if d, ok := parseSeconds(arg, hasArg); ok {
					cc.sMaxAge, cc.hasSMaxAge = d, true
				}
			case "max-stale":
				if !hasArg {
					cc.maxStale, cc.hasMaxStale = time.Duration(math.MaxInt64), true
				} else if d, ok := parseSeconds(arg, hasArg); ok {
					cc.maxStale, cc.hasMaxStale = d, true
				}
			case "min-fresh":
				if d, ok := parseSeconds(arg, hasArg); ok {
					cc.minFresh, cc.hasMinFresh = d, true
				}
			}
		}
	}
	return cc
}

func splitDirective(s string) (name, arg string, hasArg bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", "", false
	}
	parts := strings.SplitN(s, "=", 2)
	name = strings.ToLower(strings.TrimSpace(parts[0]))
	if len(parts) == 1 {
		return name, "", false
	}
	return name, strings.Trim(strings.TrimSpace(parts[1]), `"`), true
}

func parseSeconds(arg string, hasArg bool) (time.Duration, bool) {
	if !hasArg {
		return 0, false
	}
	n, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || n < 0 {
		return 0, false
	}
	return time.Duration(n) * time.Second, true
}

// String serializes the directive set into the form suitable for a
// single Cache-Control header value. An empty directive set serializes
// to "".
func (c CacheControl) String() string {
	if c.IsEmpty() {
		return ""
	}
	var parts []string
	add := func(s string) { parts = append(parts, s) }
	if c.noCache {
		add("no-cache")
	}
	if c.noStore {
		add("no-store")
	}
	if c.hasMaxAge {
		add("max-age=" + strconv.FormatInt(int64(c.maxAge/time.Second), 10))
	}
	if c.hasSMaxAge {
		add("s-maxage=" + strconv.FormatInt(int64(c.sMaxAge/time.Second), 10))
	}
	if c.private {
		add("private")
	}
	if c.public {
		add("public")
	}
	if c.mustRevalidate {
		add("must-revalidate")
	}
	if c.hasMaxStale {
		if c.maxStale == time.Duration(math.MaxInt64) {
			add("max-stale")
		} else {
			add("max-stale=" + strconv.FormatInt(int64(c.maxStale/time.Second), 10))
		}
	}
	if c.hasMinFresh {
		add("min-fresh=" + strconv.FormatInt(int64(c.minFresh/time.Second), 10))
	}
	if c.onlyIfCached {
		add("only-if-cached")
	}
	if c.noTransform {
		add("no-transform")
	}
	if c.immutable {
		add("immutable")
	}
	return strings.Join(parts, ", ")
}

// A CacheControlBuilder accumulates directives before producing an
// immutable CacheControl via Build.
type CacheControlBuilder struct {
	cc CacheControl
}

func (b *CacheControlBuilder) NoCache() *CacheControlBuilder        { b.cc.noCache = true; return b }
func (b *CacheControlBuilder) NoStore() *CacheControlBuilder        { b.cc.noStore = true; return b }
func (b *CacheControlBuilder) Private() *CacheControlBuilder        { b.cc.private = true; return b }
func (b *CacheControlBuilder) Public() *CacheControlBuilder         { b.cc.public = true; return b }
func (b *CacheControlBuilder) MustRevalidate() *CacheControlBuilder { b.cc.mustRevalidate = true; return b }
func (b *CacheControlBuilder) OnlyIfCached() *CacheControlBuilder   { b.cc.onlyIfCached = true; return b }
func (b *CacheControlBuilder) NoTransform() *CacheControlBuilder    { b.cc.noTransform = true; return b }
func (b *CacheControlBuilder) Immutable() *CacheControlBuilder      { b.cc.immutable = true; return b }

func (b *CacheControlBuilder) MaxAge(d time.Duration) *CacheControlBuilder {
	b.cc.maxAge, b.cc.hasMaxAge = d, true
	return b
}

func (b *CacheControlBuilder) MaxStale(d time.Duration) *CacheControlBuilder {
	b.cc.maxStale, b.cc.hasMaxStale = d, true
	return b
}

func (b *CacheControlBuilder) MinFresh(d time.Duration) *CacheControlBuilder {
	b.cc.minFresh, b.cc.hasMinFresh = d, true
	return b
}

func (b *CacheControlBuilder) Build() CacheControl { return b.cc }
