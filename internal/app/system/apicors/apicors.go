// Package apicors provides CORS middleware for the JSON API.
//
// The browser app lives on its own origin and authenticates with HttpOnly
// cookies, so:
//   - Only configured origins are echoed back; "*" is never sent
//   - Credentials are allowed
//   - Preflight OPTIONS requests are answered here and never reach handlers
package apicors

import (
	"net/http"

	"github.com/rs/cors"
	"go.uber.org/zap"
)

// MaxAge is how long browsers may cache a preflight answer, in seconds.
const MaxAge = 86400

// Middleware returns credentialed CORS middleware that allows the given
// origins.
//
// Usage in routes.go:
//
//	r.Use(apicors.Middleware(appCfg.CORSOrigins, logger))
func Middleware(allowedOrigins []string, logger *zap.Logger) func(http.Handler) http.Handler {
	if len(allowedOrigins) == 0 {
		logger.Warn("no CORS origins configured; cross-origin browser requests will be refused")
	}
	c := cors.New(Options(allowedOrigins))
	return c.Handler
}

// Options returns the CORS options used by Middleware.
func Options(allowedOrigins []string) cors.Options {
	return cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut,
			http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposedHeaders:   []string{"Retry-After", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           MaxAge,
	}
}
