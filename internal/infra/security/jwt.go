package security

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	uuid "github.com/google/uuid"

	"github.com/UsmanFarooq46/e-commerce-backend/internal/core/domain"
	"github.com/UsmanFarooq46/e-commerce-backend/internal/core/port"
	"github.com/UsmanFarooq46/e-commerce-backend/internal/infra/config"
)

// DefaultTokenTTL is the fixed validity of access tokens.
const DefaultTokenTTL = 14 * 24 * time.Hour

var (
	// ErrInvalidToken covers malformed tokens and signature failures.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken indicates the token is past its expiry.
	ErrExpiredToken = errors.New("token expired")
)

// AccessClaims is the token body. The field names are part of the client contract.
type AccessClaims struct {
	AccountID string `json:"_id"`
	Role      string `json:"role"`
	Email     string `json:"email"`
	Date      string `json:"date"`
	jwt.RegisteredClaims
}

// JWTIssuer signs with HS256 and a shared secret, or RS256 with a KeyProvider.
type JWTIssuer struct {
	method jwt.SigningMethod
	secret []byte
	keys   KeyProvider
	issuer string
	ttl    time.Duration
}

// NewJWTIssuer builds the issuer for the configured algorithm.
func NewJWTIssuer(cfg config.JWTSettings, keys KeyProvider) (*JWTIssuer, error) {
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	issuer := &JWTIssuer{issuer: strings.TrimSpace(cfg.Issuer), ttl: ttl}

	switch strings.ToUpper(cfg.Algorithm) {
	case "", "HS256":
		if cfg.Secret == "" {
			return nil, fmt.Errorf("jwt: secret is required for HS256")
		}
		issuer.method = jwt.SigningMethodHS256
		issuer.secret = []byte(cfg.Secret)
	case "RS256":
		if keys == nil {
			return nil, fmt.Errorf("jwt: key provider is required for RS256")
		}
		issuer.method = jwt.SigningMethodRS256
		issuer.keys = keys
	default:
		return nil, fmt.Errorf("jwt: unsupported algorithm %q", cfg.Algorithm)
	}
	return issuer, nil
}

// Issue signs a token for account valid from now for the configured TTL.
func (j *JWTIssuer) Issue(_ context.Context, account domain.Account, now time.Time) (string, time.Time, error) {
	if account.ID == "" {
		return "", time.Time{}, fmt.Errorf("jwt: account id is required")
	}
	now = now.UTC()
	expiresAt := now.Add(j.ttl)

	claims := AccessClaims{
		AccountID: account.ID,
		Role:      string(account.Role),
		Email:     account.Email,
		Date:      DateMarker(now),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   account.ID,
			Issuer:    j.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(j.method, claims)

	var key any = j.secret
	if j.keys != nil {
		kid, private, err := j.keys.SigningKey()
		if err != nil {
			return "", time.Time{}, fmt.Errorf("jwt: get signing key: %w", err)
		}
		token.Header["kid"] = kid
		key = private
	}

	signed, err := token.SignedString(key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("jwt: sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Parse verifies signature and expiry only.
func (j *JWTIssuer) Parse(_ context.Context, raw string) (*port.TokenClaims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrInvalidToken
	}

	claims := &AccessClaims{}
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{j.method.Alg()})}
	if j.issuer != "" {
		opts = append(opts, jwt.WithIssuer(j.issuer))
	}
	_, err := jwt.ParseWithClaims(raw, claims, j.keyFunc, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.AccountID == "" {
		return nil, ErrInvalidToken
	}

	out := &port.TokenClaims{
		AccountID: claims.AccountID,
		Role:      domain.Role(claims.Role),
		Email:     claims.Email,
		Date:      claims.Date,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}

func (j *JWTIssuer) keyFunc(token *jwt.Token) (any, error) {
	if j.keys == nil {
		return j.secret, nil
	}
	kid, _ := token.Header["kid"].(string)
	if kid == "" {
		return nil, fmt.Errorf("jwt: missing key identifier")
	}
	return j.keys.VerificationKey(kid)
}

// DateMarker renders the issue date as "Mon Jan 02 2006".
func DateMarker(t time.Time) string {
	return t.Format("Mon Jan 02 2006")
}

var _ port.TokenIssuer = (*JWTIssuer)(nil)
