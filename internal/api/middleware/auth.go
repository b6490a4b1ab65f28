package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/studiumlab/tutor-backend/internal/pkg/response"
)

// APIKeyAuth rejects requests whose Authorization header does not carry the
// configured platform API key.
func APIKeyAuth(apiKey string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			provided := r.Header.Get("Authorization")
			if subtle.ConstantTimeCompare([]byte(provided), []byte(apiKey)) != 1 {
				response.Error(w, http.StatusUnauthorized, "invalid API key")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
