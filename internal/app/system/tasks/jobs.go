// internal/app/system/tasks/jobs.go
package tasks

import (
	"context"
	"time"

	"github.com/dalemusser/stratadaily/internal/app/store/oauthstate"
	"github.com/dalemusser/stratadaily/internal/app/store/passwordreset"
	"github.com/dalemusser/stratadaily/internal/app/store/ratelimit"
	"github.com/dalemusser/stratadaily/internal/app/system/fstree"
	"github.com/dalemusser/stratadaily/internal/app/system/throttle"
	"go.uber.org/zap"
)

// Job names, usable with Runner.RunOnce.
const (
	PasswordResetCleanup = "password-reset-cleanup"
	OAuthStateCleanup    = "oauth-state-cleanup"
	LoginAttemptCleanup  = "login-attempt-cleanup"
	ContainmentReconcile = "containment-reconcile"
	ThrottleSweep        = "throttle-sweep"
)

// PasswordResetCleanupJob creates a job that removes expired and used password reset tokens.
func PasswordResetCleanupJob(resets *passwordreset.Store, logger *zap.Logger) Job {
	return Job{
		Name:     PasswordResetCleanup,
		Interval: 1 * time.Hour,
		Timeout:  time.Minute,
		Run: func(ctx context.Context) error {
			n, err := resets.DeleteStale(ctx)
			if err != nil {
				return err
			}
			if n > 0 {
				logger.Info("cleaned up stale password reset tokens",
					zap.Int64("deleted", n))
			}
			return nil
		},
	}
}

// OAuthStateCleanupJob creates a job that removes expired OAuth state tokens.
func OAuthStateCleanupJob(states *oauthstate.Store, logger *zap.Logger) Job {
	return Job{
		Name:     OAuthStateCleanup,
		Interval: 1 * time.Hour,
		Timeout:  time.Minute,
		Run: func(ctx context.Context) error {
			n, err := states.DeleteExpired(ctx)
			if err != nil {
				return err
			}
			if n > 0 {
				logger.Info("cleaned up expired oauth states",
					zap.Int64("deleted", n))
			}
			return nil
		},
	}
}

// LoginAttemptCleanupJob creates a job that forgets failed sign-ins older
// than a day. The TTL index does the same on servers that run the TTL
// monitor; this covers those that do not.
func LoginAttemptCleanupJob(attempts *ratelimit.Store, logger *zap.Logger) Job {
	return Job{
		Name:     LoginAttemptCleanup,
		Interval: 6 * time.Hour,
		Timeout:  time.Minute,
		Run: func(ctx context.Context) error {
			n, err := attempts.DeleteStale(ctx, 24*time.Hour)
			if err != nil {
				return err
			}
			if n > 0 {
				logger.Info("cleaned up old login attempts",
					zap.Int64("deleted", n))
			}
			return nil
		},
	}
}

// ContainmentReconcileJob creates a job that repairs explorer containment
// drift across all users.
func ContainmentReconcileJob(engine *fstree.Engine, interval time.Duration) Job {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	return Job{
		Name:     ContainmentReconcile,
		Interval: interval,
		Delay:    time.Minute,
		Timeout:  interval,
		Run: func(ctx context.Context) error {
			// The engine logs its own report.
			_, err := engine.Reconcile(ctx)
			return err
		},
	}
}

// ThrottleSweepJob creates a job that forgets clients idle for longer than
// the throttle window.
func ThrottleSweepJob(l *throttle.Limiter, window time.Duration, logger *zap.Logger) Job {
	if window <= 0 {
		window = 10 * time.Minute
	}
	return Job{
		Name:     ThrottleSweep,
		Interval: window,
		Run: func(ctx context.Context) error {
			if n := l.Sweep(); n > 0 {
				logger.Debug("throttle swept idle clients", zap.Int("removed", n))
			}
			return nil
		},
	}
}
