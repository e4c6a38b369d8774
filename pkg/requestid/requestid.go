package requestid

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

type contextKey string

const RequestIDKey contextKey = "request_id"

func Generate() string {
	return uuid.New().String()
}

func ToContext(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// FromContext returns the request id carried by ctx, or an empty string.
func FromContext(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// FromContextOrNew returns the request id carried by ctx. Outgoing calls made
// outside of an inbound request, such as poll ticks, get a fresh one.
func FromContextOrNew(ctx context.Context) string {
	if requestID := FromContext(ctx); requestID != "" {
		return requestID
	}
	return Generate()
}

func FromRequest(r *http.Request) string {
	return FromContext(r.Context())
}
