package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the subset of session token claims the client cares about.
// The token is verified server-side; locally it is only decoded to know
// who the session belongs to and when it runs out.
type Claims struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
	jwt.RegisteredClaims
}

// DecodeClaims parses a session token without verifying its signature.
func DecodeClaims(tokenString string) (*Claims, error) {
	parser := jwt.NewParser()
	claims := &Claims{}
	if _, _, err := parser.ParseUnverified(tokenString, claims); err != nil {
		return nil, fmt.Errorf("decode token: %w", err)
	}
	return claims, nil
}

// Expired reports whether the token carries an exp claim in the past.
// Malformed tokens count as expired; tokens without exp never expire.
func Expired(tokenString string, now time.Time) bool {
	claims, err := DecodeClaims(tokenString)
	if err != nil {
		return true
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return claims.ExpiresAt.Before(now)
}
