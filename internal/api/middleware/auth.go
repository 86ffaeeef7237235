// Bearer JWT session middleware.
// Reads Authorization: Bearer <token>, validates it, injects session_id into context.
package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/agrigpt/agrigpt/internal/api/ctxkeys"
	"github.com/agrigpt/agrigpt/pkg/auth"
)

// SessionMiddleware validates the Bearer session token and injects the
// session id into context. Used on all /api/v1/* routes; POST /sessions is
// the public endpoint that mints tokens.
//
// Flow:
//  1. Read "Authorization: Bearer <token>" header
//  2. Reject if missing or not Bearer scheme → 401
//  3. Parse + validate JWT → 401 on invalid/expired
//  4. Inject ctxkeys.SessionID into context
//  5. Call next handler
func SessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString := extractBearerToken(r)
		if tokenString == "" {
			writeUnauthorized(w, "missing or invalid Authorization header")
			return
		}

		claims, err := auth.ParseSessionToken(tokenString)
		if err != nil {
			writeUnauthorized(w, "invalid or expired token")
			return
		}

		ctx := ctxkeys.WithSessionID(r.Context(), claims.SessionID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// extractBearerToken extracts the token from "Authorization: Bearer <token>".
// Returns empty string if the header is missing, uses a different scheme, or
// carries an empty token.
func extractBearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}

	// Must start with "Bearer " (case-sensitive per RFC 7235)
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, prefix))
}

// writeUnauthorized writes a 401 JSON response, same shape as the handlers'
// writeError.
func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": message}) //nolint:errcheck
}
