package token

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

const (
	// TokenDuration is how long an issued claim stays valid.
	TokenDuration = 48 * time.Hour

	// KeyWindow is how long a signing key stays usable for verification.
	// Twice the claim lifetime, so every claim a key signs expires before
	// the key itself does.
	KeyWindow = 2 * TokenDuration

	// KeySize is the signing secret length in bytes.
	KeySize = 32
)

// Domain errors
var (
	// ErrTokenInvalid covers malformed tokens and signature mismatches.
	// The two cases are deliberately indistinguishable to callers.
	ErrTokenInvalid = errors.New("token invalid")

	// ErrTokenExpired means the token was authentic but its claim has
	// lapsed. The client copy is worthless and should be discarded.
	ErrTokenExpired = errors.New("token expired")
)

// Claim is the authenticated identity carried inside a token.
type Claim struct {
	Subject uuid.UUID `cbor:"id"`
	Expires int64     `cbor:"expires"`
	Admin   bool      `cbor:"is_admin"`
}

// NewClaim builds a claim for subject expiring TokenDuration from now.
func NewClaim(subject uuid.UUID, admin bool) Claim {
	return Claim{
		Subject: subject,
		Expires: time.Now().Add(TokenDuration).Unix(),
		Admin:   admin,
	}
}

// ExpiresAt returns the claim expiry as a time.Time, for cookie lifetimes
// and logging.
func (c Claim) ExpiresAt() time.Time {
	return time.Unix(c.Expires, 0)
}

func (c Claim) expired(at time.Time) bool {
	return c.Expires <= at.Unix()
}
