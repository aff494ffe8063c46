package middleware

import (
	"context"
	"net/http"
	"time"
)

const timeoutBody = `{"success":false,"error":{"code":"TIMEOUT","message":"Request timeout"}}`

// Timeout bounds every request by d. Handlers still running when d elapses
// see a cancelled context and the client gets a 503 with the JSON envelope.
func Timeout(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()

			w.Header().Set("Content-Type", "application/json")
			http.TimeoutHandler(next, d, timeoutBody).ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
