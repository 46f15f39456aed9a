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

package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/fxamacker/cbor/v2"
)

// Claims travel as two base64 segments joined by a dot: the CBOR claim
// bytes, then an HMAC-SHA256 over those exact bytes. Both ends must use
// the same deterministic encoding, so the modes are fixed here once.
var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("token: invalid encode options: %v", err))
	}
	decMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("token: invalid decode options: %v", err))
	}
}

// Codec signs claims into tokens and verifies tokens back into claims
// against a shared keyring.
type Codec struct {
	ring *Keyring
}

// NewCodec creates a codec over the given keyring.
func NewCodec(ring *Keyring) *Codec {
	return &Codec{ring: ring}
}

// Encode serializes the claim and signs it under the current key, rotating
// the keyring first if the claim would outlive every retained key.
func (c *Codec) Encode(claim Claim) (string, error) {
	payload, err := encMode.Marshal(claim)
	if err != nil {
		return "", fmt.Errorf("encoding claim: %w", err)
	}

	key, err := c.ring.rotate(claim.ExpiresAt())
	if err != nil {
		return "", err
	}

	sig := seal(key, payload)
	return base64.StdEncoding.EncodeToString(payload) + "." + base64.StdEncoding.EncodeToString(sig), nil
}

// Decode verifies a token and returns its claim. Malformed input, unknown
// signatures, and garbled payloads all come back as ErrTokenInvalid;
// authentic but lapsed claims come back as ErrTokenExpired. It never
// panics on untrusted data.
func (c *Codec) Decode(tok string) (Claim, error) {
	parts := strings.Split(tok, ".")
	if len(parts) != 2 {
		return Claim{}, ErrTokenInvalid
	}
	payload, err := base64.StdEncoding.DecodeString(parts[0])
	if err != nil {
		return Claim{}, ErrTokenInvalid
	}
	sig, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return Claim{}, ErrTokenInvalid
	}

	now := c.ring.now()

	// Newest key first: fresh tokens are the common case. The MACs are
	// computed on a snapshot, outside the keyring lock.
	keys := c.ring.verifiers(now)
	authentic := false
	for i := len(keys) - 1; i >= 0; i-- {
		if hmac.Equal(sig, seal(keys[i], payload)) {
			authentic = true
			break
		}
	}
	if !authentic {
		return Claim{}, ErrTokenInvalid
	}

	var claim Claim
	if err := decMode.Unmarshal(payload, &claim); err != nil {
		return Claim{}, ErrTokenInvalid
	}
	if claim.expired(now) {
		return Claim{}, ErrTokenExpired
	}
	return claim, nil
}

func seal(key signingKey, payload []byte) []byte {
	mac := hmac.New(sha256.New, key.secret[:])
	mac.Write(payload)
	return mac.Sum(nil)
}
