// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package message

import "strings"

// methodPermitsBody and methodRequiresBody implement the permits/requires
// tables from §3: GET and HEAD forbid a request body; POST, PUT, PATCH,
// PROPPATCH, and REPORT require one. Every other token is assumed to
// permit, but not require, a body.
var methodForbidsBody = map[string]bool{
	"GET":  true,
	"HEAD": true,
}

var methodRequiresBody = map[string]bool{
	"POST":      true,
	"PUT":       true,
	"PATCH":     true,
	"PROPPATCH": true,
	"REPORT":    true,
}

// MethodPermitsBody reports whether method is allowed to carry a
// request body.
func MethodPermitsBody(method string) bool {
	return !methodForbidsBody[strings.ToUpper(method)]
}

// MethodRequiresBody reports whether method must carry a request body.
func MethodRequiresBody(method string) bool {
	return methodRequiresBody[strings.ToUpper(method)]
}

// ValidMethod reports whether method is a non-empty ASCII token, per
// §3's Request invariant on the method field.
func ValidMethod(method string) bool {
	if method == "" {
		return false
	}
	for i := 0; i < len(method); i++ {
		c := method[i]
		if c <= ' ' || c >= 0x7f {
			return false
		}
		switch c {
		case '"', '(', ')', ',', '/', ':', ';', '<', '=', '>', '?', '@', '[', ']', '\\', '{', '}':
			return false
		}
	}
	return true
}
