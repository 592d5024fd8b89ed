package request_id

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// Header carries the request ID in both directions.
const Header = "X-Request-ID"

type ctxRequestIDKey struct{}

func With(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ctxRequestIDKey{}, requestID)
}

// FromContext returns the request ID, or "" outside a request.
func FromContext(ctx context.Context) string {
	if requestID, ok := ctx.Value(ctxRequestIDKey{}).(string); ok {
		return requestID
	}
	return ""
}

// Generate attaches a fresh time-ordered request ID to ctx.
func Generate(ctx context.Context) (context.Context, string) {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return With(ctx, id.String()), id.String()
}

// FromRequest reuses the caller's request ID when it is a UUID and
// generates one otherwise.
func FromRequest(r *http.Request) (context.Context, string) {
	if v := r.Header.Get(Header); v != "" {
		if id, err := uuid.Parse(v); err == nil {
			return With(r.Context(), id.String()), id.String()
		}
	}
	return Generate(r.Context())
}
