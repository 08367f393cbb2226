// Package httplog writes one zap line per HTTP request.
package httplog

import (
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Middleware logs method, path, status, response size and duration for every
// request. Server errors log at Error, client errors at Warn, everything
// else at Info.
func Middleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				status := ww.Status()
				if status == 0 {
					status = http.StatusOK
				}
				fields := []zap.Field{
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", status),
					zap.Int("bytes", ww.BytesWritten()),
					zap.Duration("duration", time.Since(start)),
					zap.String("ip", r.RemoteAddr),
				}
				if id := chimw.GetReqID(r.Context()); id != "" {
					fields = append(fields, zap.String("request_id", id))
				}
				if ce := logger.Check(levelFor(status), "http request"); ce != nil {
					ce.Write(fields...)
				}
			}()

			next.ServeHTTP(ww, r)
		})
	}
}

func levelFor(status int) zapcore.Level {
	switch {
	case status >= 500:
		return zapcore.ErrorLevel
	case status >= 400:
		return zapcore.WarnLevel
	default:
		return zapcore.InfoLevel
	}
}
