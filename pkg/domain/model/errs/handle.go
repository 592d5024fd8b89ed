package errs

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/getsentry/sentry-go"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/notifyme/pkg/utils/logging"
	"github.com/secmon-lab/notifyme/pkg/utils/request_id"
)

// IsClientError reports whether err was caused by the caller's input rather
// than by the system. Auth failures count as client errors except network ones.
func IsClientError(err error) bool {
	if err == nil {
		return false
	}
	switch {
	case goerr.HasTag(err, TagValidation),
		goerr.HasTag(err, TagInvalidRequest),
		goerr.HasTag(err, TagNotFound),
		goerr.HasTag(err, TagUnauthorized),
		goerr.HasTag(err, TagForbidden),
		goerr.HasTag(err, TagConflict):
		return true
	}
	if kind, ok := AuthKindOf(err); ok {
		return kind != AuthNetwork
	}
	return false
}

// Handle logs err. System errors are also reported to Sentry when it is
// configured; client errors only produce a warning. It never panics.
func Handle(ctx context.Context, err error) {
	if err == nil {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "[CRITICAL] logger crashed while handling error: error=%s, panic=%v\n", err.Error(), r)
		}
	}()

	logger := logging.From(ctx)
	if IsClientError(err) {
		logger.Warn("Rejected: "+err.Error(), logging.ErrAttr(err))
		return
	}

	attrs := []any{logging.ErrAttr(err)}

	hub := sentry.CurrentHub().Clone()
	hub.ConfigureScope(func(scope *sentry.Scope) {
		if reqID := request_id.FromContext(ctx); reqID != "" {
			scope.SetTag("request_id", reqID)
		}
		if kind, ok := AuthKindOf(err); ok {
			scope.SetTag("auth_kind", string(kind))
		}
		if kind, ok := goerr.GetTypedValue(err, FeedKindKey); ok {
			scope.SetTag("feed_kind", string(kind))
		}
		for k, v := range goerr.Values(err) {
			scope.SetExtra(k, v)
		}
	})
	if evID := hub.CaptureException(err); evID != nil {
		attrs = append(attrs, slog.Any("sentry.id", *evID))
	}

	logger.Error("Error: "+err.Error(), attrs...)
}
