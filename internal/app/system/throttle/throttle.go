// Package throttle limits how many requests one client IP can make in a
// window. Each client gets a token bucket that refills at requests/window
// and holds a full window's worth, so a quiet client can burst.
package throttle

import (
	"math"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/dalemusser/stratadaily/internal/app/system/jsonutil"
	"github.com/dalemusser/stratadaily/internal/app/system/network"
	"github.com/puzpuzpuz/xsync/v4"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Message is the body text of a throttled response.
const Message = "Too many requests, please try again later."

type visitor struct {
	lim      *rate.Limiter
	lastSeen atomic.Int64 // unix nanos
}

// Limiter tracks one token bucket per client key.
type Limiter struct {
	every    rate.Limit
	burst    int
	window   time.Duration
	visitors *xsync.Map[string, *visitor]
	now      func() time.Time
	logger   *zap.Logger
}

// New creates a limiter that allows requests per window for each client.
// A non-positive requests or window disables limiting.
func New(requests int, window time.Duration, logger *zap.Logger) *Limiter {
	l := &Limiter{
		burst:    requests,
		window:   window,
		visitors: xsync.NewMap[string, *visitor](),
		now:      time.Now,
		logger:   logger,
	}
	if requests > 0 && window > 0 {
		l.every = rate.Every(window / time.Duration(requests))
	}
	return l
}

// Enabled reports whether the limiter restricts anything.
func (l *Limiter) Enabled() bool {
	return l.every > 0
}

// Allow consumes one token for key and reports whether the request may
// proceed. When it may not, wait is how long until a token is available.
func (l *Limiter) Allow(key string) (ok bool, wait time.Duration) {
	if !l.Enabled() {
		return true, 0
	}
	now := l.now()
	v, _ := l.visitors.Compute(key, func(old *visitor, loaded bool) (*visitor, xsync.ComputeOp) {
		if !loaded {
			old = &visitor{lim: rate.NewLimiter(l.every, l.burst)}
		}
		return old, xsync.UpdateOp
	})
	v.lastSeen.Store(now.UnixNano())

	r := v.lim.ReserveN(now, 1)
	if !r.OK() {
		return false, l.window
	}
	if d := r.DelayFrom(now); d > 0 {
		r.CancelAt(now)
		return false, d
	}
	return true, 0
}

// Sweep forgets clients idle for longer than the window. An idle client's
// bucket is full again, so dropping it changes nothing it can observe.
func (l *Limiter) Sweep() int {
	cutoff := l.now().Add(-l.window).UnixNano()
	removed := 0
	l.visitors.Range(func(key string, v *visitor) bool {
		if v.lastSeen.Load() < cutoff {
			l.visitors.Delete(key)
			removed++
		}
		return true
	})
	return removed
}

// Middleware rejects requests over the limit with 429 and a Retry-After
// header, keyed by client IP (IPv6 by /64).
func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := network.ThrottleKey(r)
		ok, wait := l.Allow(ip)
		if !ok {
			secs := int(math.Ceil(wait.Seconds()))
			if secs < 1 {
				secs = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(secs))
			if l.logger != nil {
				l.logger.Warn("request throttled",
					zap.String("ip", ip),
					zap.String("path", r.URL.Path))
			}
			jsonutil.Error(w, http.StatusTooManyRequests, Message)
			return
		}
		next.ServeHTTP(w, r)
	})
}
