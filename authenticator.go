// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package gohttpx

import (
	"encoding/base64"

	"github.com/jasoncfpl/gohttpx/internal/interceptor"
	"github.com/jasoncfpl/gohttpx/message"
)

// Authenticator responds to a 401 or 407 challenge by producing a
// follow-up request carrying credentials, or returning (nil, nil) to
// give up and let the challenge response pass through to the caller
// unmodified (§6's authenticator/proxyAuthenticator options).
//
// Defined in internal/interceptor, where RetryAndFollowUp consults it,
// and aliased here for the same reason as ProtocolError.
type Authenticator = interceptor.Authenticator

// BasicAuthenticator is an Authenticator that retries a 401 challenge
// once with an Authorization: Basic header, then gives up if the
// credentials were already present (avoiding an infinite retry loop
// against a server that keeps rejecting them).
type BasicAuthenticator struct {
	Username, Password string
}

// Authenticate implements Authenticator.
func (a BasicAuthenticator) Authenticate(response *message.Response) (*message.Request, error) {
	req := response.Request()
	if req.Header().Get("Authorization") != "" {
		return nil, nil
	}
	return req.NewBuilder().Header("Authorization", "Basic "+basicCredentials(a.Username, a.Password)).Build(), nil
}

func basicCredentials(username, password string) string {
	return base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
}
