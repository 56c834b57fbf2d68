// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package message

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMediaTypeSplitsTypeAndSubtype(t *testing.T) {
	mt, err := ParseMediaType("text/plain; charset=utf-8")
	require.NoError(t, err)
	assert.Equal(t, "text", mt.Type)
	assert.Equal(t, "plain", mt.Subtype)
	assert.Equal(t, "utf-8", mt.Parameters["charset"])
}

func TestParseMediaTypeRejectsMalformed(t *testing.T) {
	_, err := ParseMediaType("not a media type;;;")
	assert.Error(t, err)
}

func TestMediaTypeStringRendersWireForm(t *testing.T) {
	mt := MediaType{Type: "application", Subtype: "json"}
	assert.Equal(t, "application/json", mt.String())
}

func TestMediaTypeStringEmptyWhenNoType(t *testing.T) {
	assert.Equal(t, "", MediaType{}.String())
}
