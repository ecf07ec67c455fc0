// Bearer token issuance and verification.

package handlers

import (
	"fmt"
	"time"

	"github.com/atelierhq/atelier/internal/server/reqctx"
	"github.com/atelierhq/atelier/internal/storage"
	"github.com/golang-jwt/jwt/v5"
)

// Claims is the JWT payload identifying a member.
type Claims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// GenerateToken signs a bearer token for user.
func GenerateToken(secret []byte, user *storage.User, expiry time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// ParseToken verifies a bearer token and returns the caller identity.
func ParseToken(secret []byte, tokenString string) (*reqctx.Identity, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return &reqctx.Identity{UserID: claims.UserID, Email: claims.Email, Role: claims.Role}, nil
}
