// Copyright 2026 The Quire Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package http

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/quirelab/quire/internal/token"
)

// =============================================================================
// TOKEN VERIFICATION BOUNDARY TESTS
// Category: Auth Middleware - Token Handling
// Type: Unit Test (UT)
// =============================================================================

// TestPurpose: Validates that a tampered token is refused and the client copy discarded.
// Scope: Unit Test
// Security: Signature verification boundary; a modified payload must never authenticate.
// Expected: Returns HTTP 401 with a cookie-clearing Set-Cookie.
// Test Case ID: MW-01
func TestMiddleware_TamperedToken(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "mira", "correct-horse", false)
	cookie := env.login(t, "mira", "correct-horse")

	// Flip one character of the signed payload.
	tampered := []byte(cookie.Value)
	if tampered[0] == 'A' {
		tampered[0] = 'B'
	} else {
		tampered[0] = 'A'
	}
	cookie.Value = string(tampered)

	w := env.do(t, "GET", "/api/auth/id", nil, cookie)

	assert.Equal(t, http.StatusUnauthorized, w.Code, "MW-01: tampered token must be refused")
	assert.Equal(t, "not authenticated", decodeError(t, w), "MW-01: every auth failure shares one message")
	assert.True(t, clearsCookie(w), "MW-01: tampered cookie must be cleared")
}

// TestPurpose: Validates that an authentic but lapsed token no longer authenticates.
// Scope: Unit Test
// Security: Expiry enforcement on verification, independent of cookie lifetime.
// Expected: Returns HTTP 401 with a cookie-clearing Set-Cookie.
// Test Case ID: MW-02
func TestMiddleware_ExpiredToken(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "mira", "correct-horse", false)

	lapsed, err := env.handler.codec.Encode(token.Claim{
		Subject: user.ID,
		Expires: time.Now().Add(-time.Hour).Unix(),
	})
	assert.NoError(t, err, "MW-02: encoding a lapsed claim must work")

	w := env.do(t, "GET", "/api/auth/id", nil, &http.Cookie{Name: testCookieName, Value: lapsed})

	assert.Equal(t, http.StatusUnauthorized, w.Code, "MW-02: lapsed token must be refused")
	assert.True(t, clearsCookie(w), "MW-02: the client copy is worthless and must go")
}

// TestPurpose: Validates that malformed token shapes are all refused the same way.
// Scope: Unit Test
// Security: Parser boundary; segment count and encoding errors must not leak detail.
// Expected: Returns HTTP 401 with a cookie-clearing Set-Cookie for every shape.
// Test Case ID: MW-03
func TestMiddleware_MalformedTokens(t *testing.T) {
	env := newTestEnv(t)

	shapes := map[string]string{
		"empty value":      "",
		"no separator":     "c2VnbWVudA",
		"three segments":   "YQ.Yg.Yw",
		"invalid base64":   "!!!.???",
		"empty signature":  "YQ.",
		"random signature": "YQ.c2ln",
	}

	for name, value := range shapes {
		w := env.do(t, "GET", "/api/auth/id", nil, &http.Cookie{Name: testCookieName, Value: value})

		assert.Equal(t, http.StatusUnauthorized, w.Code, "MW-03 %s: must be refused", name)
		assert.Equal(t, "not authenticated", decodeError(t, w), "MW-03 %s: uniform error body", name)
		assert.True(t, clearsCookie(w), "MW-03 %s: unverifiable cookie must be cleared", name)
	}
}

// TestPurpose: Validates that read endpoints serve guests without any token.
// Scope: Unit Test
// Security: Soft authentication; absence of credentials is not an error on reads.
// Expected: Returns HTTP 200 and never touches the token cookie.
// Test Case ID: MW-04
func TestMiddleware_SoftAuth_Guest(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, "GET", "/api/projects", nil)

	assert.Equal(t, http.StatusOK, w.Code, "MW-04: guests can read")
	assert.JSONEq(t, "[]", w.Body.String(), "MW-04: empty listing serializes as an array")
	assert.Nil(t, tokenCookie(w), "MW-04: no Set-Cookie without a presented token")
}

// TestPurpose: Validates that a corrupt token downgrades reads to guest instead of blocking them.
// Scope: Unit Test
// Security: Soft authentication still discards unverifiable cookies.
// Expected: Returns HTTP 200 with a cookie-clearing Set-Cookie.
// Test Case ID: MW-05
func TestMiddleware_SoftAuth_PoisonedCookie(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, "GET", "/api/projects", nil, &http.Cookie{Name: testCookieName, Value: "garbage"})

	assert.Equal(t, http.StatusOK, w.Code, "MW-05: the read still succeeds as guest")
	assert.True(t, clearsCookie(w), "MW-05: the dead cookie is cleared in passing")
}

// TestPurpose: Validates that a valid token on a read endpoint passes through untouched.
// Scope: Unit Test
// Security: Successful verification must not churn the client's cookie.
// Expected: Returns HTTP 200 and no Set-Cookie.
// Test Case ID: MW-06
func TestMiddleware_SoftAuth_ValidToken(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "mira", "correct-horse", false)
	cookie := env.login(t, "mira", "correct-horse")

	w := env.do(t, "GET", "/api/projects", nil, cookie)

	assert.Equal(t, http.StatusOK, w.Code, "MW-06: authenticated read succeeds")
	assert.Nil(t, tokenCookie(w), "MW-06: a healthy cookie is left alone")
}

// TestPurpose: Validates that non-admins and guests get byte-identical answers on admin routes.
// Scope: Unit Test
// Security: Admin endpoints must not reveal whether credentials were valid.
// Expected: Both requests return the same HTTP 401 body.
// Test Case ID: MW-07
func TestMiddleware_AdminIndistinguishable(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "mira", "correct-horse", false)
	cookie := env.login(t, "mira", "correct-horse")

	payload := map[string]string{"name": "pyotr", "pass": "long-enough-pass"}
	asGuest := env.do(t, "POST", "/api/auth/users", payload)
	asNonAdmin := env.do(t, "POST", "/api/auth/users", payload, cookie)

	assert.Equal(t, http.StatusUnauthorized, asGuest.Code, "MW-07: guests are refused")
	assert.Equal(t, http.StatusUnauthorized, asNonAdmin.Code, "MW-07: non-admins are refused")
	assert.Equal(t, asGuest.Body.String(), asNonAdmin.Body.String(),
		"MW-07: the two refusals must be indistinguishable")
}
