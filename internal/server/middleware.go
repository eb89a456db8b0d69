package server

import (
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// JWTAuth validates the Bearer token on protected routes. The secret is the
// base64-encoded HS512 key shared with the backend; a secret that is not
// valid base64 is used as raw bytes.
func JWTAuth(secret string) func(http.Handler) http.Handler {
	key, err := base64.StdEncoding.DecodeString(secret)
	if err != nil {
		key = []byte(secret)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(key) == 0 {
				respondError(w, http.StatusUnauthorized, "authentication not configured")
				return
			}

			raw := bearerToken(r)
			if raw == "" {
				respondError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			_, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
				return key, nil
			}, jwt.WithValidMethods([]string{"HS512"}))
			if err != nil {
				respondError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// bearerToken extracts the raw token from the Authorization header.
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
