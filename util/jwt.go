package util

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	jwtSecretByte = []byte(os.Getenv("JWTSECRET"))
	jwtMutex      sync.RWMutex
)

// SetJWTSecret replaces the HMAC key used to sign and verify tokens.
func SetJWTSecret(secret string) {
	jwtMutex.Lock()
	defer jwtMutex.Unlock()
	jwtSecretByte = []byte(secret)
}

// GetJWTSecretByte returns a copy of the current JWT secret bytes in a thread-safe manner.
func GetJWTSecretByte() []byte {
	jwtMutex.RLock()
	defer jwtMutex.RUnlock()
	return append([]byte(nil), jwtSecretByte...)
}

// Claims carried by every access token.
type Claims struct {
	UserID    uint   `json:"user_id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      string `json:"role"`
	RoleID    uint   `json:"role_id"`
	jwt.RegisteredClaims
}

// TokenSubject is what GenerateToken needs to know about the user.
type TokenSubject struct {
	UserID    uint
	FirstName string
	LastName  string
	Role      string
	RoleID    uint
}

// GenerateToken signs an HS256 token valid for ttl. It returns the token and
// its unique id (jti) so the caller can record the session.
func GenerateToken(sub TokenSubject, ttl time.Duration) (string, *Claims, error) {
	secret := GetJWTSecretByte()
	if len(secret) == 0 {
		return "", nil, errors.New("jwt secret is not configured")
	}

	now := time.Now()
	claims := &Claims{
		UserID:    sub.UserID,
		FirstName: sub.FirstName,
		LastName:  sub.LastName,
		Role:      sub.Role,
		RoleID:    sub.RoleID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   fmt.Sprintf("%d", sub.UserID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", nil, err
	}
	return signed, claims, nil
}

// ParseToken validates signature and expiry and returns the claims.
func ParseToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return GetJWTSecretByte(), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}
