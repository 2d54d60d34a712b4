package security

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const referralAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// ReferralCodeLength is the length of generated referral codes.
const ReferralCodeLength = 6

// GenerateReferralCode returns a random upper-case alphanumeric code.
func GenerateReferralCode() (string, error) {
	return randomString(ReferralCodeLength, referralAlphabet)
}

func randomString(length int, alphabet string) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("length must be positive")
	}
	limit := big.NewInt(int64(len(alphabet)))
	out := make([]byte, length)
	for i := range out {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("generate code: %w", err)
		}
		out[i] = alphabet[n.Int64()]
	}
	return string(out), nil
}
