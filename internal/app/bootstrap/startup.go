// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/stratadaily/internal/app/store/oauthstate"
	"github.com/dalemusser/stratadaily/internal/app/store/passwordreset"
	"github.com/dalemusser/stratadaily/internal/app/store/ratelimit"
	"github.com/dalemusser/stratadaily/internal/app/system/tasks"
	"github.com/dalemusser/stratadaily/internal/app/system/throttle"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs once after DB connections and schema/index setup are complete,
// but before the HTTP handler is built and requests are served.
//
// It builds the request throttle and starts the background task runner.
// Returning a non-nil error aborts startup.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	requestThrottle = throttle.New(appCfg.ThrottleRequests, appCfg.ThrottleWindow, logger)
	if !requestThrottle.Enabled() {
		logger.Warn("request throttle disabled")
	}

	startTaskRunner(appCfg, deps, logger)
	return nil
}

// taskRunner is the global task runner instance, used for graceful shutdown.
var taskRunner *tasks.Runner

// requestThrottle limits requests per client IP. BuildHandler installs its
// middleware; the task runner sweeps it.
var requestThrottle *throttle.Limiter

// startTaskRunner initializes and starts the background task runner.
func startTaskRunner(appCfg AppConfig, deps DBDeps, logger *zap.Logger) {
	db := deps.MongoDatabase
	taskRunner = tasks.New(logger)

	// Cleanup jobs
	taskRunner.Register(tasks.PasswordResetCleanupJob(passwordreset.New(db, appCfg.PasswordResetExpiry), logger))
	taskRunner.Register(tasks.OAuthStateCleanupJob(oauthstate.New(db), logger))
	taskRunner.Register(tasks.LoginAttemptCleanupJob(
		ratelimit.New(db, appCfg.RateLimitLoginAttempts, appCfg.RateLimitLoginWindow, appCfg.RateLimitLoginLockout),
		logger,
	))

	// Explorer maintenance
	taskRunner.Register(tasks.ContainmentReconcileJob(deps.Tree, appCfg.ReconcileInterval))

	if requestThrottle.Enabled() {
		taskRunner.Register(tasks.ThrottleSweepJob(requestThrottle, appCfg.ThrottleWindow, logger))
	}

	taskRunner.Start()
}
