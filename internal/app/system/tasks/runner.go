// internal/app/system/tasks/runner.go

// Package tasks runs the server's periodic maintenance: token and state
// cleanup, login-attempt expiry, throttle sweeping and explorer
// containment reconciliation.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/puzpuzpuz/xsync/v4"
	"go.uber.org/zap"
)

// ErrUnknownJob is returned by RunOnce for a name that was never registered.
var ErrUnknownJob = errors.New("unknown job")

// Job is one periodic task. It runs after Delay, then every Interval.
type Job struct {
	Name     string
	Interval time.Duration
	Delay    time.Duration // before the first run; zero runs at Start
	Timeout  time.Duration // per run; zero means none
	Run      func(ctx context.Context) error
}

// Stats describes a job's history since Start.
type Stats struct {
	Runs     int
	Failures int
	LastRun  time.Time
	LastErr  error
}

type Runner struct {
	logger *zap.Logger
	jobs   []Job

	wg     sync.WaitGroup
	cancel context.CancelFunc

	inFlight *xsync.Map[string, time.Time]
	stats    *xsync.Map[string, Stats]
}

func New(logger *zap.Logger) *Runner {
	return &Runner{
		logger:   logger,
		inFlight: xsync.NewMap[string, time.Time](),
		stats:    xsync.NewMap[string, Stats](),
	}
}

// Register adds a job. Jobs registered after Start are not scheduled.
func (r *Runner) Register(job Job) {
	r.jobs = append(r.jobs, job)
}

func (r *Runner) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel

	for _, job := range r.jobs {
		r.wg.Add(1)
		go r.loop(ctx, job)
	}
	r.logger.Info("task runner started", zap.Int("jobs", len(r.jobs)))
}

// Stop cancels every job and waits for in-flight runs until ctx is done.
// On timeout it logs the jobs still running and returns ctx.Err().
func (r *Runner) Stop(ctx context.Context) error {
	if r.cancel != nil {
		r.cancel()
	}

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.logger.Info("task runner stopped")
		return nil
	case <-ctx.Done():
		var pending []string
		r.inFlight.Range(func(name string, _ time.Time) bool {
			pending = append(pending, name)
			return true
		})
		r.logger.Warn("task runner stop timed out", zap.Strings("still_running", pending))
		return ctx.Err()
	}
}

// Stats returns the history of the named job.
func (r *Runner) Stats(name string) (Stats, bool) {
	return r.stats.Load(name)
}

// RunOnce runs the named job now, outside its schedule. The run counts
// toward Stats.
func (r *Runner) RunOnce(ctx context.Context, name string) error {
	for _, job := range r.jobs {
		if job.Name == name {
			return r.execute(ctx, job)
		}
	}
	return ErrUnknownJob
}

func (r *Runner) loop(ctx context.Context, job Job) {
	defer r.wg.Done()

	if job.Delay > 0 {
		t := time.NewTimer(job.Delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return
		case <-t.C:
		}
	}
	r.logResult(ctx, job, r.execute(ctx, job))

	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.logResult(ctx, job, r.execute(ctx, job))
		}
	}
}

// execute runs job once with its timeout. A panic is reported as an error
// so one bad job cannot take the server down.
func (r *Runner) execute(ctx context.Context, job Job) (err error) {
	if job.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, job.Timeout)
		defer cancel()
	}

	start := time.Now()
	r.inFlight.Store(job.Name, start)
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("job %s panicked: %v", job.Name, p)
		}
		r.inFlight.Delete(job.Name)
		r.stats.Compute(job.Name, func(s Stats, _ bool) (Stats, xsync.ComputeOp) {
			s.Runs++
			s.LastRun = start
			s.LastErr = err
			if err != nil {
				s.Failures++
			}
			return s, xsync.UpdateOp
		})
	}()

	return job.Run(ctx)
}

func (r *Runner) logResult(ctx context.Context, job Job, err error) {
	switch {
	case err == nil:
		r.logger.Debug("job done", zap.String("job", job.Name))
	case ctx.Err() != nil:
		r.logger.Debug("job cancelled", zap.String("job", job.Name))
	default:
		r.logger.Error("job failed", zap.String("job", job.Name), zap.Error(err))
	}
}
