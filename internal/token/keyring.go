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
	"crypto/rand"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// signingKey is one HMAC secret with an absolute lifetime. The secret is
// random at mint time and immutable afterwards; it is never serialized,
// persisted, or logged.
type signingKey struct {
	secret  [KeySize]byte
	expires time.Time
}

// live reports whether the key may still verify tokens at the given time.
func (k signingKey) live(at time.Time) bool {
	return k.expires.After(at)
}

func mintKey(expires time.Time) (signingKey, error) {
	k := signingKey{expires: expires}
	if _, err := rand.Read(k.secret[:]); err != nil {
		return signingKey{}, fmt.Errorf("generating signing key: %w", err)
	}
	return k, nil
}

// Keyring holds the ordered signing keys, oldest first; the last entry is
// the current signer. It is safe for one writer and many readers: rotation
// takes the write lock, verification only ever reads. Construct one per
// process with NewKeyring and share it by pointer.
type Keyring struct {
	mu   sync.RWMutex
	keys []signingKey

	now func() time.Time
}

// NewKeyring creates an empty keyring. The first Encode mints the first key.
func NewKeyring() *Keyring {
	return &Keyring{now: time.Now}
}

// rotate returns the key that will sign a claim expiring at until, minting
// a fresh one when no retained key covers it. Keys whose lifetime has
// lapsed are dropped from the front here, and nowhere else.
func (r *Keyring) rotate(until time.Time) (signingKey, error) {
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()

	stale := 0
	for stale < len(r.keys) && !r.keys[stale].live(now) {
		stale++
	}
	if stale > 0 {
		r.keys = append(r.keys[:0], r.keys[stale:]...)
	}

	if n := len(r.keys); n > 0 && !r.keys[n-1].expires.Before(until) {
		return r.keys[n-1], nil
	}

	key, err := mintKey(now.Add(KeyWindow))
	if err != nil {
		return signingKey{}, err
	}
	r.keys = append(r.keys, key)
	slog.Debug("minted signing key", "expires", key.expires, "retained", len(r.keys))

	return key, nil
}

// verifiers returns a copy of every key still usable at the given time,
// oldest first. The copy lets callers compute MACs without holding the
// lock.
func (r *Keyring) verifiers(at time.Time) []signingKey {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]signingKey, 0, len(r.keys))
	for _, k := range r.keys {
		if k.live(at) {
			keys = append(keys, k)
		}
	}
	return keys
}
