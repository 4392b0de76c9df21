package middleware

import (
	"net/http"

	"github.com/MrEthical07/sessiongate"
)

// RequireAuthenticated answers 401 unless [Authenticate] bound an
// authenticated identity for the request.
func RequireAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !sessiongate.Authenticated(r.Context()) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
