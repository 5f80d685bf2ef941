package auth

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
)

// APIKey returns middleware that enforces a shared-secret header on every
// request passed to next.
//
// Behaviour:
//   - If mode != "apikey", all requests are allowed (pass-through).
//   - Otherwise the value of header must equal key. An empty key matches
//     nothing, so every request is refused.
//   - A missing, empty, or incorrect value returns 401 with a JSON error body.
func APIKey(mode, header, key string, next http.Handler) http.Handler {
	if mode != "apikey" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got := r.Header.Get(header)
		if key == "" || got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{ //nolint:errcheck
				"status":  "error",
				"message": "invalid api key",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}
