package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/secmon-lab/notifyme/pkg/utils/logging"
	"github.com/secmon-lab/notifyme/pkg/utils/request_id"
)

type statusResponseWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusResponseWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, reqID := request_id.FromRequest(r)
		w.Header().Set(request_id.Header, reqID)
		ctx = logging.Attach(ctx, "request_id", reqID)
		logger := logging.From(ctx)
		started := time.Now()

		sw := &statusResponseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r.WithContext(ctx))

		logger.Info("Access Log",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Any("query", r.URL.Query()),
			slog.Int("status", sw.status),
			slog.Duration("elapsed", time.Since(started)),
		)
	})
}
