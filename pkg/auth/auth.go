// Package auth provides bcrypt key hashing and JWT session-token
// generation/parsing. This is a leaf package with no domain dependencies.
// Used by internal/api/middleware and the scheme ingest handler.
package auth

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// ===== CONSTANTS =====

// BCryptCost is the work factor for bcrypt. 12 is a good balance of security
// vs performance for an admin key that is checked rarely.
const BCryptCost = 12

// DefaultTokenExpiry is the default session-token expiration in hours if not set via env.
const DefaultTokenExpiry = 24

const (
	envJWTSecret = "JWT_SECRET"
	envJWTExpiry = "JWT_EXPIRY"
)

// ===== ENVIRONMENT VARIABLES =====

// getJWTSecret reads JWT_SECRET from environment. Panics if not set.
// This ensures auth cannot be initialized without a secret configured.
func getJWTSecret() []byte {
	secret := os.Getenv(envJWTSecret)
	if secret == "" {
		panic(envJWTSecret + " environment variable not set — cannot initialize auth")
	}
	return []byte(secret)
}

// parseTokenExpiry parses an expiry string (hours) into a Duration.
// Extracted for testability — getTokenExpiry is the env-reading wrapper.
// Returns DefaultTokenExpiry if empty string or invalid number (graceful degradation).
func parseTokenExpiry(expiryStr string) time.Duration {
	if expiryStr == "" {
		return time.Duration(DefaultTokenExpiry) * time.Hour
	}

	hours, err := strconv.Atoi(expiryStr)
	if err != nil {
		return time.Duration(DefaultTokenExpiry) * time.Hour
	}

	return time.Duration(hours) * time.Hour
}

// getTokenExpiry reads JWT_EXPIRY from environment in hours. Defaults to DefaultTokenExpiry.
func getTokenExpiry() time.Duration {
	return parseTokenExpiry(os.Getenv(envJWTExpiry))
}

// ===== BCRYPT FUNCTIONS =====

// HashKey hashes a plaintext key (e.g. the scheme-ingest admin key) using bcrypt.
func HashKey(key string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(key), BCryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash key: %w", err)
	}
	return string(hash), nil
}

// VerifyKey verifies a plaintext key against a bcrypt hash.
// Returns false (not error) for invalid hashes to avoid leaking hash format
// info in responses.
func VerifyKey(hash, key string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(key))
	return err == nil
}

// ===== JWT FUNCTIONS =====

// Claims represents the JWT claims for an AgriGPT session token.
// SessionID is the only custom claim; the rest are standard JWT claims.
type Claims struct {
	SessionID string `json:"session_id"`
	jwt.RegisteredClaims
}

// GenerateSessionToken creates a signed JWT carrying the session id.
// Uses JWT_SECRET from env and JWT_EXPIRY (default 24 hours).
// Panics if JWT_SECRET is not set (fail-fast for configuration errors).
func GenerateSessionToken(sessionID string) (string, error) {
	now := time.Now()
	expiresAt := now.Add(getTokenExpiry())

	claims := &Claims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(getJWTSecret())
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}

	return signedToken, nil
}

// ParseSessionToken validates and parses a session token, extracting claims.
// Returns error if token is invalid, expired, or malformed.
// Does NOT return error for missing JWT_SECRET — that's a startup failure.
func ParseSessionToken(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, fmt.Errorf("token is empty")
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		// Verify signing method is HMAC-SHA256 (prevent algorithm substitution attacks)
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return getJWTSecret(), nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to parse session token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid session token claims or signature")
	}

	return claims, nil
}
