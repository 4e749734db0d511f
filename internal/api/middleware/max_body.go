package middleware

import (
	"net/http"

	"github.com/cloo-solutions/geotrack/internal/api"
)

// DefaultMaxBodyBytes bounds request bodies. Answers posted to the analyze
// endpoints are the largest payloads.
const DefaultMaxBodyBytes int64 = 2 << 20

// MaxBodyBytes limits request body size.
func MaxBodyBytes(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limit <= 0 || r.Body == nil || r.Body == http.NoBody {
				next.ServeHTTP(w, r)
				return
			}

			if r.ContentLength > limit {
				api.Error(w, http.StatusRequestEntityTooLarge, "request body too large")
				return
			}

			r.Body = http.MaxBytesReader(w, r.Body, limit)
			next.ServeHTTP(w, r)
		})
	}
}
