package auth

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/playdepot/playdepot-backend/pkg/config"
)

// clockSkew is tolerated on exp/iat when parsing.
const clockSkew = 30 * time.Second

var (
	ErrMissingSecret = errors.New("jwt secret is required")
	ErrNoUser        = errors.New("token does not identify a user")
)

var signingMethod = jwt.SigningMethodHS256

// MintAccessToken signs an HS256 access token for payload valid from now
// for cfg.Expiration(). Login happens elsewhere; this backs cmd/devtoken and
// tests.
func MintAccessToken(cfg config.JWTConfig, now time.Time, payload AccessTokenPayload) (string, error) {
	switch {
	case cfg.Secret == "":
		return "", ErrMissingSecret
	case cfg.Issuer == "":
		return "", errors.New("jwt issuer is required")
	case cfg.Expiration() <= 0:
		return "", errors.New("jwt expiration must be positive")
	case payload.UserID == 0:
		return "", ErrNoUser
	}

	id := strings.TrimSpace(payload.JTI)
	if id == "" {
		id = uuid.NewString()
	}
	claims := AccessTokenClaims{
		UserID:   payload.UserID,
		Username: payload.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        id,
			Issuer:    cfg.Issuer,
			Subject:   strconv.FormatUint(uint64(payload.UserID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(cfg.Expiration())),
		},
	}

	signed, err := jwt.NewWithClaims(signingMethod, claims).SignedString([]byte(cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return signed, nil
}

// ParseAccessToken verifies signature, algorithm, expiry and (when
// configured) issuer. A token without a user_id claim falls back to a
// numeric sub.
func ParseAccessToken(cfg config.JWTConfig, raw string) (*AccessTokenClaims, error) {
	if cfg.Secret == "" {
		return nil, ErrMissingSecret
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(clockSkew),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}

	claims := &AccessTokenClaims{}
	secret := []byte(cfg.Secret)
	if _, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) { return secret, nil }, opts...); err != nil {
		return nil, err
	}

	if claims.UserID == 0 {
		id, err := strconv.ParseUint(claims.Subject, 10, 0)
		if err != nil || id == 0 {
			return nil, ErrNoUser
		}
		claims.UserID = uint(id)
	}
	return claims, nil
}
