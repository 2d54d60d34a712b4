package port

import (
	"context"
	"time"

	"github.com/UsmanFarooq46/e-commerce-backend/internal/core/domain"
)

// Argon2Params captures tunable parameters for the Argon2id hashing algorithm.
type Argon2Params struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// PasswordHasher hashes and verifies secrets using the configured algorithm.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password string, encoded string) (bool, error)
}

// PasswordPolicy rejects unacceptable raw credentials with a validation error.
type PasswordPolicy interface {
	Validate(password string, userInputs ...string) error
}

// TokenClaims is what a verified token yields.
type TokenClaims struct {
	AccountID string
	Role      domain.Role
	Email     string
	Date      string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenIssuer signs and verifies stateless access tokens.
type TokenIssuer interface {
	Issue(ctx context.Context, account domain.Account, now time.Time) (string, time.Time, error)
	Parse(ctx context.Context, token string) (*TokenClaims, error)
}

// TextSanitizer strips markup from free-text fields.
type TextSanitizer interface {
	Sanitize(input string) string
}

// AvatarStorage validates and stores profile images, returning a public reference.
type AvatarStorage interface {
	Store(ctx context.Context, accountID string, upload domain.ImageUpload) (string, error)
}
