package middleware

import (
	"net/http"
	"time"

	"origen/pkg/requestcontext"
)

// RequestTime freezes the clock for the duration of a request. Every service
// call in the request observes the same now, which keeps timestamps on the
// mutation and its audit records identical.
func RequestTime(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now().UTC())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
