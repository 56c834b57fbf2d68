// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package gohttpx

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jasoncfpl/gohttpx/internal/lifecycle"
)

func TestEventsReturnsEveryEventInOrder(t *testing.T) {
	events := Events()
	assert.Len(t, events, lifecycle.NumEvents)
	assert.Equal(t, CallStart, events[0])
	assert.Equal(t, ResponseBodyReceived, events[len(events)-1])
}

func TestEventAliasesMatchLifecyclePackage(t *testing.T) {
	assert.Equal(t, lifecycle.ConnectionAcquired, ConnectionAcquired)
	assert.Equal(t, lifecycle.CacheHit, CacheHit)
}
