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
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"github.com/quirelab/quire/internal/observability/logger"
)

// lmMountPath is where the router mounts the proxy; the Director strips
// it before forwarding.
const lmMountPath = "/api/lm/"

// LMProxy forwards chat requests to the upstream language model API with
// the server-held API key. The caller's own credentials never leave this
// process: the token cookie is dropped and the Authorization header is
// overwritten.
type LMProxy struct {
	proxy *httputil.ReverseProxy
}

// NewLMProxy creates a proxy for the LM API at baseURL
func NewLMProxy(baseURL, apiKey string) (*LMProxy, error) {
	target, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse LM base URL: %w", err)
	}
	if target.Scheme == "" || target.Host == "" {
		return nil, fmt.Errorf("LM base URL must be absolute: %q", baseURL)
	}

	proxy := &httputil.ReverseProxy{
		Director: func(req *http.Request) {
			suffix := strings.TrimPrefix(req.URL.Path, lmMountPath)

			req.URL.Scheme = target.Scheme
			req.URL.Host = target.Host
			req.URL.Path = joinURLPath(target.Path, suffix)
			req.URL.RawPath = ""
			req.Host = target.Host

			req.Header.Del("Cookie")
			req.Header.Set("Authorization", "Bearer "+apiKey)
		},
		// Chat completions stream; don't buffer the response.
		FlushInterval: -1,
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			slog.WarnContext(r.Context(), "LM upstream unreachable", logger.Error(err))
			respondError(w, http.StatusServiceUnavailable, "The chat service is not available")
		},
	}

	return &LMProxy{proxy: proxy}, nil
}

// ServeHTTP forwards the request upstream
func (p *LMProxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p.proxy.ServeHTTP(w, r)
}

func joinURLPath(base, suffix string) string {
	if base == "" {
		base = "/"
	}
	if strings.HasSuffix(base, "/") {
		return base + suffix
	}
	return base + "/" + suffix
}
