package security

import (
	"fmt"
	"strings"

	"github.com/UsmanFarooq46/e-commerce-backend/internal/core/port"
	"github.com/UsmanFarooq46/e-commerce-backend/internal/infra/config"
)

// Hasher hashes new credentials with the configured algorithm and verifies
// either format by inspecting the hash prefix.
type Hasher struct {
	primary port.PasswordHasher
	argon2  *Argon2Hasher
	bcrypt  *BcryptHasher
}

// NewHasher builds the hasher from password and argon2 settings.
func NewHasher(pw config.PasswordSettings, a config.Argon2Settings) (*Hasher, error) {
	params := port.Argon2Params{
		Memory:      a.Memory,
		Iterations:  a.Iterations,
		Parallelism: a.Parallelism,
		SaltLength:  a.SaltLength,
		KeyLength:   a.KeyLength,
	}
	if params == (port.Argon2Params{}) {
		params = DefaultArgon2Params()
	}
	argon, err := NewArgon2Hasher(params)
	if err != nil {
		return nil, err
	}
	h := &Hasher{argon2: argon, bcrypt: NewBcryptHasher(pw.BcryptCost)}

	switch strings.ToLower(pw.Algorithm) {
	case "", "bcrypt":
		h.primary = h.bcrypt
	case "argon2id":
		h.primary = h.argon2
	default:
		return nil, fmt.Errorf("unsupported password algorithm %q", pw.Algorithm)
	}
	return h, nil
}

func (h *Hasher) Hash(password string) (string, error) {
	return h.primary.Hash(password)
}

func (h *Hasher) Verify(password, encoded string) (bool, error) {
	switch {
	case strings.HasPrefix(encoded, argon2Prefix):
		return h.argon2.Verify(password, encoded)
	case isBcryptHash(encoded):
		return h.bcrypt.Verify(password, encoded)
	default:
		return false, errInvalidHashFormat
	}
}

var _ port.PasswordHasher = (*Hasher)(nil)
