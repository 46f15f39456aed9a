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
	"context"

	"github.com/quirelab/quire/internal/token"
)

type contextKey string

const claimKey contextKey = "claim"

func withClaim(ctx context.Context, claim token.Claim) context.Context {
	return context.WithValue(ctx, claimKey, claim)
}

// GetClaim retrieves the authenticated claim from context. The second
// return is false for guest requests.
func GetClaim(ctx context.Context) (token.Claim, bool) {
	claim, ok := ctx.Value(claimKey).(token.Claim)
	return claim, ok
}
