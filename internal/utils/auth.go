package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/yungbote/pulsecrm-backend/internal/types"
)

// HashPassword returns the bcrypt hash of a plaintext password.
func HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether plain matches the stored bcrypt hash.
func CheckPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// SessionClaims carries the signed-in identity inside a session token.
type SessionClaims struct {
	FullName      string `json:"full_name,omitempty"`
	Avatar        string `json:"avatar,omitempty"`
	Administrator bool   `json:"administrator"`
	jwt.RegisteredClaims
}

func GenerateSessionToken(secret string, identity types.Identity, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := SessionClaims{
		FullName:      identity.FullName,
		Avatar:        identity.Avatar,
		Administrator: identity.Administrator,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func ParseSessionToken(secret, tokenString string) (types.Identity, error) {
	if strings.TrimSpace(tokenString) == "" {
		return types.Identity{}, fmt.Errorf("empty session token")
	}
	parsed, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return types.Identity{}, fmt.Errorf("parse session token: %w", err)
	}
	claims, ok := parsed.Claims.(*SessionClaims)
	if !ok || !parsed.Valid {
		return types.Identity{}, fmt.Errorf("invalid session token claims")
	}
	return types.Identity{
		ID:            claims.Subject,
		FullName:      claims.FullName,
		Avatar:        claims.Avatar,
		Administrator: claims.Administrator,
	}, nil
}
