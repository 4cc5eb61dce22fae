package middleware

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
)

// RequireAPIKey guards the dashboard routes. The key is read from the X-API-Key header
// or, failing that, the api_key query parameter.
func RequireAPIKey(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get("X-API-Key")
			if got == "" {
				got = r.URL.Query().Get("api_key")
			}

			if key == "" || subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				json.NewEncoder(w).Encode(map[string]string{"error": "Unauthorized"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
