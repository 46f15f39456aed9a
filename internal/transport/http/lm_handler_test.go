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
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func TestLMProxy_ForwardsWithServiceCredentials(t *testing.T) {
	var got struct {
		path   string
		query  string
		auth   string
		cookie string
		body   []byte
	}
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.path = r.URL.Path
		got.query = r.URL.RawQuery
		got.auth = r.Header.Get("Authorization")
		got.cookie = r.Header.Get("Cookie")
		got.body, _ = io.ReadAll(r.Body)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer upstream.Close()

	env := newTestEnvWithLM(t, upstream.URL+"/v1", "upstream-secret")
	env.seedUser(t, "mira", "correct-horse", false)
	cookie := env.login(t, "mira", "correct-horse")

	w := env.do(t, "POST", "/api/lm/chat/completions?probe=1", map[string]any{"model": "small"}, cookie)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if w.Body.String() != `{"choices":[]}` {
		t.Errorf("upstream body not relayed: %q", w.Body.String())
	}

	if got.path != "/v1/chat/completions" {
		t.Errorf("expected upstream path /v1/chat/completions, got %q", got.path)
	}
	if got.query != "probe=1" {
		t.Errorf("expected query to pass through, got %q", got.query)
	}

	// The service key replaces whatever the client sent; the session
	// cookie never leaves this process.
	if got.auth != "Bearer upstream-secret" {
		t.Errorf("expected service bearer key, got %q", got.auth)
	}
	if got.cookie != "" {
		t.Errorf("session cookie leaked upstream: %q", got.cookie)
	}

	var payload map[string]any
	if err := json.Unmarshal(got.body, &payload); err != nil {
		t.Fatalf("upstream received a mangled body: %v", err)
	}
	if payload["model"] != "small" {
		t.Errorf("request body not relayed: %v", payload)
	}
}

func TestLMProxy_RequiresAuth(t *testing.T) {
	var hits atomic.Int64
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer upstream.Close()

	env := newTestEnvWithLM(t, upstream.URL, "upstream-secret")

	w := env.do(t, "POST", "/api/lm/chat/completions", map[string]any{"model": "small"})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401 for guest, got %d", w.Code)
	}
	if hits.Load() != 0 {
		t.Error("unauthenticated request reached the upstream")
	}
}

func TestLMProxy_UpstreamUnavailable(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "mira", "correct-horse", false)
	cookie := env.login(t, "mira", "correct-horse")

	w := env.do(t, "POST", "/api/lm/chat/completions", map[string]any{"model": "small"}, cookie)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", w.Code)
	}
	if msg := decodeError(t, w); msg != "The chat service is not available" {
		t.Errorf("expected chat unavailability message, got %q", msg)
	}
}

func TestNewLMProxy_RejectsRelativeBase(t *testing.T) {
	if _, err := NewLMProxy("not-a-url", "key"); err == nil {
		t.Error("expected an error for a relative base URL")
	}
	if _, err := NewLMProxy("", "key"); err == nil {
		t.Error("expected an error for an empty base URL")
	}
}
