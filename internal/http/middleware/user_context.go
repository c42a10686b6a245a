package middleware

import (
	"net/http"

	"github.com/hearthlabs/hearth-assistant/internal/tenancy"
)

// UserContext copies the X-User-Id header into the request context so
// handlers can resolve the acting user without re-reading headers.
func UserContext() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if userID := r.Header.Get("X-User-Id"); userID != "" {
				r = r.WithContext(tenancy.WithUserID(r.Context(), userID))
			}
			next.ServeHTTP(w, r)
		})
	}
}
