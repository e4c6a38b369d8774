package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/salesdeck/insight-console/pkg/requestid"
)

// RequestID copies the request id into the context under the requestid
// package key. The id comes from the X-Request-Id header, then from chi's
// RequestID middleware, and is generated as a last resort. Backend calls made
// while serving the request forward the same id.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(middleware.RequestIDHeader)
		if requestID == "" {
			requestID = middleware.GetReqID(r.Context())
		}
		if requestID == "" {
			requestID = requestid.Generate()
		}

		w.Header().Set(middleware.RequestIDHeader, requestID)
		next.ServeHTTP(w, r.WithContext(requestid.ToContext(r.Context(), requestID)))
	})
}
