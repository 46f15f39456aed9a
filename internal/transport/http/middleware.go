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
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/quirelab/quire/internal/audit"
	"github.com/quirelab/quire/internal/observability/logger"
	"github.com/quirelab/quire/internal/observability/metrics"
	"github.com/quirelab/quire/internal/token"
)

// Authentication principles:
// 1. Tokens are self-contained; no session lookup happens on any request
// 2. Every failure mode answers the same way: 401 "not authenticated".
//    The client never learns whether a token was absent, forged, or stale
// 3. A cookie that can never verify again is cleared, so clients don't
//    keep retrying a poisoned token

// LoggingMiddleware logs HTTP requests
func LoggingMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			slog.InfoContext(r.Context(), "http_request_start",
				logger.RequestID(middleware.GetReqID(r.Context())),
				logger.Method(r.Method),
				logger.Path(r.URL.Path),
				logger.RemoteAddr(r.RemoteAddr),
			)

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				slog.InfoContext(r.Context(), "http_request_end",
					logger.RequestID(middleware.GetReqID(r.Context())),
					logger.Method(r.Method),
					logger.Path(r.URL.Path),
					logger.RemoteAddr(r.RemoteAddr),
					logger.UserAgent(r.UserAgent()),
					logger.StatusCode(ww.Status()),
					logger.Duration(time.Since(start).Milliseconds()),
				)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}

// CORSMiddleware mirrors the request origin and allows credentialed
// GET/POST calls, so a browser frontend served from another origin can
// talk to the API with its token cookie.
func CORSMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		w.Header().Add("Vary", "Origin")
		w.Header().Add("Vary", "Access-Control-Request-Headers")

		if origin != "" {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Set("Access-Control-Allow-Methods", "GET, POST")
			if reqHeaders := r.Header.Get("Access-Control-Request-Headers"); reqHeaders != "" {
				h.Set("Access-Control-Allow-Headers", reqHeaders)
			}
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// claimFromRequest extracts and verifies the token cookie. The returned
// outcome drives both the metrics label and the caller's decision. A
// cookie that failed verification is cleared on the spot; it can never
// become valid again.
func (h *Handler) claimFromRequest(w http.ResponseWriter, r *http.Request) (token.Claim, string) {
	cookie, err := r.Cookie(h.authConfig.CookieName)
	if err != nil {
		return token.Claim{}, metrics.OutcomeGuest
	}

	claim, err := h.codec.Decode(cookie.Value)
	if err != nil {
		h.clearTokenCookie(w)

		if errors.Is(err, token.ErrTokenExpired) {
			return token.Claim{}, metrics.OutcomeExpired
		}

		h.auditLogger.Log(r.Context(), audit.Event{
			Type:      audit.TypeTokenRejected,
			Resource:  "token",
			IPAddress: getIPAddress(r),
			UserAgent: r.UserAgent(),
		})
		return token.Claim{}, metrics.OutcomeRejected
	}

	return claim, metrics.OutcomeAccepted
}

// RequireAuth admits only requests carrying a valid token
func (h *Handler) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claim, outcome := h.claimFromRequest(w, r)
		h.authMetrics.Request(r.Context(), outcome)

		if outcome != metrics.OutcomeAccepted {
			respondError(w, http.StatusUnauthorized, "not authenticated")
			return
		}

		next.ServeHTTP(w, r.WithContext(withClaim(r.Context(), claim)))
	})
}

// RequireAdmin admits only requests carrying a valid token with the admin
// flag. Non-admins get the same answer as unauthenticated callers.
func (h *Handler) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claim, outcome := h.claimFromRequest(w, r)
		h.authMetrics.Request(r.Context(), outcome)

		if outcome != metrics.OutcomeAccepted || !claim.Admin {
			respondError(w, http.StatusUnauthorized, "not authenticated")
			return
		}

		next.ServeHTTP(w, r.WithContext(withClaim(r.Context(), claim)))
	})
}

// OptionalAuth attaches the claim when a valid token is present and lets
// everything else through as a guest
func (h *Handler) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claim, outcome := h.claimFromRequest(w, r)
		h.authMetrics.Request(r.Context(), outcome)

		if outcome == metrics.OutcomeAccepted {
			r = r.WithContext(withClaim(r.Context(), claim))
		}

		next.ServeHTTP(w, r)
	})
}
