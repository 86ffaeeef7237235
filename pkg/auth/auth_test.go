// Tests for bcrypt key hashing and session-token generation/parsing.
package auth

import (
	"os"
	"strings"
	"testing"
	"time"
)

// TestMain sets JWT_SECRET before any test runs.
// GenerateSessionToken panics if JWT_SECRET is not set in the environment.
// Using os.Setenv (not t.Setenv) here because TestMain runs before t is available.
func TestMain(m *testing.M) {
	os.Setenv("JWT_SECRET", "test-secret-key-32-chars-min!!!") //nolint:errcheck
	os.Exit(m.Run())
}

// ===== BCRYPT TESTS =====

func TestHashKey(t *testing.T) {
	t.Parallel()

	key := "super-secret-admin-key"
	hash, err := HashKey(key)

	if err != nil {
		t.Fatalf("HashKey failed: %v", err)
	}
	if hash == "" {
		t.Error("HashKey returned empty hash")
	}
	if hash == key {
		t.Error("hash should not equal plaintext key")
	}
	if !isValidBcryptHash(hash) {
		t.Errorf("hash format is invalid: %s", hash)
	}
}

func TestVerifyKey_Correct(t *testing.T) {
	t.Parallel()

	key := "super-secret-admin-key"
	hash, _ := HashKey(key)

	if !VerifyKey(hash, key) {
		t.Error("VerifyKey rejected the correct key")
	}
}

func TestVerifyKey_Wrong(t *testing.T) {
	t.Parallel()

	hash, _ := HashKey("correct-key")

	if VerifyKey(hash, "wrong-key") {
		t.Error("VerifyKey accepted a wrong key")
	}
}

func TestVerifyKey_InvalidHash_ReturnsFalse(t *testing.T) {
	t.Parallel()

	// Not a bcrypt hash at all — must return false, not panic or error.
	if VerifyKey("not-a-hash", "anything") {
		t.Error("VerifyKey accepted an invalid hash")
	}
}

// ===== JWT TESTS =====

func TestGenerateSessionToken_And_Parse(t *testing.T) {
	t.Parallel()

	token, err := GenerateSessionToken("sess-123")
	if err != nil {
		t.Fatalf("GenerateSessionToken failed: %v", err)
	}
	if token == "" {
		t.Fatal("GenerateSessionToken returned empty token")
	}

	claims, err := ParseSessionToken(token)
	if err != nil {
		t.Fatalf("ParseSessionToken failed: %v", err)
	}
	if claims.SessionID != "sess-123" {
		t.Errorf("SessionID = %q; want 'sess-123'", claims.SessionID)
	}
}

func TestParseSessionToken_Empty(t *testing.T) {
	t.Parallel()

	if _, err := ParseSessionToken(""); err == nil {
		t.Error("expected error for empty token, got nil")
	}
}

func TestParseSessionToken_Garbage(t *testing.T) {
	t.Parallel()

	if _, err := ParseSessionToken("not.a.jwt"); err == nil {
		t.Error("expected error for malformed token, got nil")
	}
}

func TestParseSessionToken_Expiry(t *testing.T) {
	t.Parallel()

	token, err := GenerateSessionToken("sess-exp")
	if err != nil {
		t.Fatalf("GenerateSessionToken failed: %v", err)
	}

	claims, err := ParseSessionToken(token)
	if err != nil {
		t.Fatalf("ParseSessionToken failed: %v", err)
	}

	// Default expiry is 24h; allow a minute of slack for test runtime.
	expectedExpiry := time.Now().Add(time.Duration(DefaultTokenExpiry) * time.Hour)
	if claims.ExpiresAt.Time.Before(expectedExpiry.Add(-time.Minute)) ||
		claims.ExpiresAt.Time.After(expectedExpiry.Add(time.Minute)) {
		t.Errorf("ExpiresAt = %v; want ~%v", claims.ExpiresAt.Time, expectedExpiry)
	}
}

func TestParseTokenExpiry(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want time.Duration
	}{
		{"", time.Duration(DefaultTokenExpiry) * time.Hour},
		{"notanumber", time.Duration(DefaultTokenExpiry) * time.Hour},
		{"1", time.Hour},
		{"72", 72 * time.Hour},
	}
	for _, c := range cases {
		if got := parseTokenExpiry(c.in); got != c.want {
			t.Errorf("parseTokenExpiry(%q) = %v; want %v", c.in, got, c.want)
		}
	}
}

// isValidBcryptHash checks the standard bcrypt prefix.
func isValidBcryptHash(hash string) bool {
	return strings.HasPrefix(hash, "$2a$") ||
		strings.HasPrefix(hash, "$2b$") ||
		strings.HasPrefix(hash, "$2y$")
}
