// Package token issues the signed access tokens checked by httpkit.AuthRequired.
package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenType is the "type" claim of access tokens.
const AccessTokenType = "access"

// SignAccess returns an HS256 access token for the user.
func SignAccess(userID uuid.UUID, username string, ttl time.Duration, secret string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":      userID.String(),
		"username": username,
		"type":     AccessTokenType,
		"iat":      now.Unix(),
		"exp":      now.Add(ttl).Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(secret))
}
