package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"origen/pkg/requestcontext"
)

// RequestID assigns each request a correlation ID (honoring an inbound
// X-Request-ID header) and stamps the request-scoped time so services share
// one clock reading per request.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		ctx := requestcontext.WithRequestID(r.Context(), requestID)
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
