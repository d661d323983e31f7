package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/dom/coursemarket/internal/metrics"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// requestInfo is filled in by inner middleware so the request log can
// report who made the request.
type requestInfo struct {
	principalID string
}

const requestInfoKey contextKey = "requestInfo"

func setLoggedPrincipal(ctx context.Context, principalID string) {
	if info, ok := ctx.Value(requestInfoKey).(*requestInfo); ok {
		info.principalID = principalID
	}
}

// RequestLogger emits one structured line per request and counts responses
// by status. The level follows the status class.
func RequestLogger(logger *slog.Logger, recorder metrics.Recorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			info := &requestInfo{}

			next.ServeHTTP(ww, r.WithContext(context.WithValue(r.Context(), requestInfoKey, info)))

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			recorder.RecordHTTPStatus(status)

			level := slog.LevelInfo
			if status >= 500 {
				level = slog.LevelError
			} else if status >= 400 {
				level = slog.LevelWarn
			}

			attrs := []slog.Attr{
				slog.String("request_id", chiMiddleware.GetReqID(r.Context())),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", status),
				slog.Int("bytes", ww.BytesWritten()),
				slog.Float64("duration_ms", float64(time.Since(start).Microseconds())/1000),
			}
			if info.principalID != "" {
				attrs = append(attrs, slog.String("principal_id", info.principalID))
			}
			logger.LogAttrs(r.Context(), level, "http_request", attrs...)
		})
	}
}
