// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package lifecycle

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEventNameCoversEveryDefinedEvent(t *testing.T) {
	for i := 0; i < NumEvents; i++ {
		assert.NotEqual(t, "Unknown", Event(i).Name(), "event %d has no name", i)
	}
}

func TestEventNameOutOfRangeIsUnknown(t *testing.T) {
	assert.Equal(t, "Unknown", Event(NumEvents).Name())
	assert.Equal(t, "Unknown", Event(-1).Name())
}

func TestEventStringMatchesName(t *testing.T) {
	assert.Equal(t, CallStart.Name(), CallStart.String())
}
