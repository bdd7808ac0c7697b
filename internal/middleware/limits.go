package middleware

import (
	"net/http"
)

// Common size limits
const (
	KB = 1024
	MB = 1024 * KB

	// DefaultMaxBodySize covers every configurator request body.
	DefaultMaxBodySize = 64 * KB
)

// MaxBodySize limits request bodies to maxBytes, or DefaultMaxBodySize when
// no size is given. Bodies that announce a larger Content-Length are
// refused with 413 before the handler runs; the rest are wrapped in
// http.MaxBytesReader so handlers see *http.MaxBytesError on overflow.
func MaxBodySize(maxBytes ...int64) func(http.Handler) http.Handler {
	limit := int64(DefaultMaxBodySize)
	if len(maxBytes) > 0 && maxBytes[0] > 0 {
		limit = maxBytes[0]
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > limit {
				respondTooLarge(w, r)
				return
			}
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, limit)
			}
			next.ServeHTTP(w, r)
		})
	}
}
