package server

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"
)

// TokenQueryParam carries the secret for clients that cannot set headers on
// a WebSocket handshake.
const TokenQueryParam = "token"

// requireToken rejects requests that do not present the secret, either as
// "Authorization: Bearer <secret>" or as the token query parameter. Failures
// are answered with a JSON-RPC error body.
//
// An empty secret rejects everything.
func requireToken(secret string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !authorized(secret, r) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"jsonrpc": "2.0",
				"error": map[string]any{
					"code":    -32600,
					"message": "Unauthorized",
				},
				"id": nil,
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func authorized(secret string, r *http.Request) bool {
	if h := r.Header.Get("Authorization"); h != "" {
		return validToken(secret, h)
	}
	return validQueryToken(secret, r.URL.Query().Get(TokenQueryParam))
}

// validToken checks an Authorization header value against the secret.
// The "Bearer " prefix is required.
func validToken(secret, authHeader string) bool {
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return false
	}
	return validQueryToken(secret, strings.TrimPrefix(authHeader, "Bearer "))
}

func validQueryToken(secret, token string) bool {
	if secret == "" || token == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(secret)) == 1
}
