package middleware

import "net/http"

// DefaultMaxBodyBytes fits a phone photo after base64 inflation.
const DefaultMaxBodyBytes int64 = 10 << 20

// MaxBody caps request bodies at n bytes. Reads past the limit fail with
// *http.MaxBytesError, which handlers report as a validation error.
func MaxBody(n int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, n)
			}
			next.ServeHTTP(w, r)
		})
	}
}
