// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"
	"time"

	accountfeature "github.com/dalemusser/stratadaily/internal/app/features/account"
	authgooglefeature "github.com/dalemusser/stratadaily/internal/app/features/authgoogle"
	bookmarksfeature "github.com/dalemusser/stratadaily/internal/app/features/bookmarks"
	budgetfeature "github.com/dalemusser/stratadaily/internal/app/features/budget"
	errorsfeature "github.com/dalemusser/stratadaily/internal/app/features/errors"
	eventsfeature "github.com/dalemusser/stratadaily/internal/app/features/events"
	expensesfeature "github.com/dalemusser/stratadaily/internal/app/features/expenses"
	explorerfeature "github.com/dalemusser/stratadaily/internal/app/features/explorer"
	healthfeature "github.com/dalemusser/stratadaily/internal/app/features/health"
	labelsfeature "github.com/dalemusser/stratadaily/internal/app/features/labels"
	playlistsfeature "github.com/dalemusser/stratadaily/internal/app/features/playlists"
	projectsfeature "github.com/dalemusser/stratadaily/internal/app/features/projects"
	songsfeature "github.com/dalemusser/stratadaily/internal/app/features/songs"
	todosfeature "github.com/dalemusser/stratadaily/internal/app/features/todos"
	"github.com/dalemusser/stratadaily/internal/app/store/passwordreset"
	"github.com/dalemusser/stratadaily/internal/app/store/ratelimit"
	"github.com/dalemusser/stratadaily/internal/app/system/apicors"
	"github.com/dalemusser/stratadaily/internal/app/system/auth"
	"github.com/dalemusser/stratadaily/internal/app/system/httplog"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/middleware"
	"github.com/dalemusser/waffle/pantry/fileserver"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// APIPrefix is where the JSON API is mounted.
const APIPrefix = "/api/v1"

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// the Startup hook have completed.
//
// Layout:
//   - /health, /ready, /live: unauthenticated, unthrottled
//   - StorageLocalURL/*: uploaded songs when storage is local
//   - /api/v1/user, /api/v1/auth/google: public auth endpoints
//   - every other /api/v1 resource: behind auth.RequireUser
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	db := deps.MongoDatabase
	dev := coreCfg.Env == "dev"

	tokens, err := auth.NewTokenManager(auth.TokenConfig{
		AccessSecret:  appCfg.JWTAccessSecret,
		RefreshSecret: appCfg.JWTRefreshSecret,
		AccessTTL:     appCfg.JWTAccessTTL,
		RefreshTTL:    appCfg.JWTRefreshTTL,
		Secure:        coreCfg.Env == "prod",
	}, logger)
	if err != nil {
		logger.Error("token manager init failed", zap.Error(err))
		return nil, err
	}
	cookies := auth.CookieConfig{Domain: appCfg.CookieDomain, Secure: appCfg.CookieSecure}
	requireUser := auth.RequireUser(tokens, logger)

	// Login lockout (nil if disabled)
	var attempts *ratelimit.Store
	if appCfg.RateLimitEnabled {
		attempts = ratelimit.New(db,
			appCfg.RateLimitLoginAttempts,
			appCfg.RateLimitLoginWindow,
			appCfg.RateLimitLoginLockout,
		)
	}

	r := chi.NewRouter()

	// ─────────────────────────────────────────────────────────────────────────────
	// Global Middleware (applies to ALL routes)
	// ─────────────────────────────────────────────────────────────────────────────
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(httplog.Middleware(logger))
	r.Use(chimw.Recoverer)

	// Request timeout middleware: prevents requests from hanging indefinitely.
	r.Use(chimw.Timeout(30 * time.Second))

	// CORS must run before auth so preflight requests are answered.
	r.Use(apicors.Middleware(appCfg.CORSOrigins, logger))

	// Security headers middleware: adds X-Frame-Options, X-Content-Type-Options, etc.
	r.Use(middleware.SecurityHeadersFromConfig(coreCfg))

	// Health check endpoints for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	healthfeature.MountRootEndpoints(r, healthHandler)

	// Uploaded songs (local storage only)
	if appCfg.StorageType == "local" || appCfg.StorageType == "" {
		r.Handle(appCfg.StorageLocalURL+"/*", fileserver.Handler(appCfg.StorageLocalURL, appCfg.StorageLocalPath))
	}

	// ─────────────────────────────────────────────────────────────────────────────
	// JSON API
	// ─────────────────────────────────────────────────────────────────────────────
	r.Route(APIPrefix, func(api chi.Router) {
		if requestThrottle != nil {
			api.Use(requestThrottle.Middleware)
		}

		// Users and sessions. Public endpoints live beside authenticated
		// ones, so the account router applies requireUser itself.
		accountHandler := accountfeature.NewHandler(
			db,
			deps.Tree,
			tokens,
			cookies,
			attempts,
			passwordreset.New(db, appCfg.PasswordResetExpiry),
			deps.Mailer,
			accountfeature.Config{
				AppName:     deps.Mailer.FromName(),
				FrontendURL: appCfg.FrontendURL,
				ResetExpiry: appCfg.PasswordResetExpiry,
				Dev:         dev,
			},
			logger,
		)
		api.Mount("/user", accountfeature.Routes(accountHandler, requireUser))

		// Google OAuth (only mount if configured)
		if appCfg.GoogleEnabled() {
			redirectURL := appCfg.APIBaseURL + APIPrefix + "/auth/google/callback"
			googleHandler := authgooglefeature.NewHandler(db, tokens, cookies, authgooglefeature.Config{
				ClientID:     appCfg.GoogleClientID,
				ClientSecret: appCfg.GoogleClientSecret,
				RedirectURL:  redirectURL,
				FrontendURL:  appCfg.FrontendURL,
			}, logger)
			api.Mount("/auth/google", authgooglefeature.Routes(googleHandler))
			logger.Info("Google OAuth enabled", zap.String("redirect_url", redirectURL))
		}

		// Everything below acts for the signed-in user.
		api.Group(func(pr chi.Router) {
			pr.Use(requireUser)

			explorerHandler := explorerfeature.NewHandler(deps.Tree, logger, dev)
			pr.Mount("/folders", explorerfeature.FolderRoutes(explorerHandler))
			pr.Mount("/files", explorerfeature.FileRoutes(explorerHandler))

			pr.Mount("/label", labelsfeature.Routes(labelsfeature.NewHandler(db, logger, dev)))
			pr.Mount("/todos", todosfeature.Routes(todosfeature.NewHandler(db, logger, dev)))
			pr.Mount("/project", projectsfeature.Routes(projectsfeature.NewHandler(db, logger, dev)))
			pr.Mount("/event", eventsfeature.Routes(eventsfeature.NewHandler(db, logger, dev)))
			pr.Mount("/expense", expensesfeature.Routes(expensesfeature.NewHandler(db, logger, dev)))
			pr.Mount("/budget", budgetfeature.Routes(budgetfeature.NewHandler(db, logger, dev)))
			pr.Mount("/bookmarks", bookmarksfeature.Routes(bookmarksfeature.NewHandler(db, logger, dev)))

			pr.Mount("/songs", songsfeature.Routes(songsfeature.NewHandler(db, deps.FileStorage, logger, dev)))
			pr.Mount("/playlists", playlistsfeature.Routes(playlistsfeature.NewHandler(db, logger, dev)))
		})
	})

	// Unmatched routes answer in the API's error envelope.
	errorsHandler := errorsfeature.NewHandler()
	r.NotFound(errorsHandler.NotFound)
	r.MethodNotAllowed(errorsHandler.MethodNotAllowed)

	return r, nil
}
