package tasks_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dalemusser/stratadaily/internal/app/system/tasks"
	"go.uber.org/zap"
)

func stopRunner(t *testing.T, r *tasks.Runner) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.Stop(ctx); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestRunner_RunsAtStartAndOnInterval(t *testing.T) {
	r := tasks.New(zap.NewNop())
	var n atomic.Int32
	r.Register(tasks.Job{
		Name:     "tick",
		Interval: 20 * time.Millisecond,
		Run: func(context.Context) error {
			n.Add(1)
			return nil
		},
	})

	r.Start()
	waitFor(t, func() bool { return n.Load() >= 3 })
	stopRunner(t, r)

	st, ok := r.Stats("tick")
	if !ok || st.Runs < 3 || st.Failures != 0 {
		t.Errorf("Stats() = %+v, %v", st, ok)
	}
}

func TestRunner_Delay(t *testing.T) {
	r := tasks.New(zap.NewNop())
	var n atomic.Int32
	r.Register(tasks.Job{
		Name:     "later",
		Interval: time.Hour,
		Delay:    time.Hour,
		Run: func(context.Context) error {
			n.Add(1)
			return nil
		},
	})

	r.Start()
	time.Sleep(30 * time.Millisecond)
	stopRunner(t, r)

	if n.Load() != 0 {
		t.Errorf("delayed job ran %d times before its delay", n.Load())
	}
}

func TestRunner_StopTimesOutOnStuckJob(t *testing.T) {
	r := tasks.New(zap.NewNop())
	started := make(chan struct{})
	release := make(chan struct{})
	defer close(release)

	r.Register(tasks.Job{
		Name:     "stuck",
		Interval: time.Hour,
		Run: func(context.Context) error {
			close(started)
			<-release
			return nil
		},
	})

	r.Start()
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := r.Stop(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Stop() error = %v, want DeadlineExceeded", err)
	}
}

func TestRunner_CancelsJobsOnStop(t *testing.T) {
	r := tasks.New(zap.NewNop())
	started := make(chan struct{})
	var sawCancel atomic.Bool

	r.Register(tasks.Job{
		Name:     "waits",
		Interval: time.Hour,
		Run: func(ctx context.Context) error {
			close(started)
			<-ctx.Done()
			sawCancel.Store(true)
			return ctx.Err()
		},
	})

	r.Start()
	<-started
	stopRunner(t, r)

	if !sawCancel.Load() {
		t.Error("job context was not cancelled by Stop")
	}
}

func TestRunner_RunOnce(t *testing.T) {
	r := tasks.New(zap.NewNop())
	boom := errors.New("boom")
	r.Register(tasks.Job{Name: "ok", Interval: time.Hour, Run: func(context.Context) error { return nil }})
	r.Register(tasks.Job{Name: "fails", Interval: time.Hour, Run: func(context.Context) error { return boom }})

	ctx := context.Background()
	if err := r.RunOnce(ctx, "ok"); err != nil {
		t.Errorf("RunOnce(ok) error = %v", err)
	}
	if err := r.RunOnce(ctx, "fails"); !errors.Is(err, boom) {
		t.Errorf("RunOnce(fails) error = %v, want boom", err)
	}
	if err := r.RunOnce(ctx, "missing"); !errors.Is(err, tasks.ErrUnknownJob) {
		t.Errorf("RunOnce(missing) error = %v, want ErrUnknownJob", err)
	}

	st, _ := r.Stats("fails")
	if st.Runs != 1 || st.Failures != 1 || !errors.Is(st.LastErr, boom) {
		t.Errorf("Stats(fails) = %+v", st)
	}
	if _, ok := r.Stats("missing"); ok {
		t.Error("Stats(missing) should not exist")
	}
}

func TestRunner_RunOnceAppliesTimeout(t *testing.T) {
	r := tasks.New(zap.NewNop())
	r.Register(tasks.Job{
		Name:     "slow",
		Interval: time.Hour,
		Timeout:  10 * time.Millisecond,
		Run: func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		},
	})

	if err := r.RunOnce(context.Background(), "slow"); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("RunOnce(slow) error = %v, want DeadlineExceeded", err)
	}
}

func TestRunner_RecoversPanics(t *testing.T) {
	r := tasks.New(zap.NewNop())
	r.Register(tasks.Job{
		Name:     "panics",
		Interval: time.Hour,
		Run:      func(context.Context) error { panic("bad job") },
	})

	err := r.RunOnce(context.Background(), "panics")
	if err == nil {
		t.Fatal("RunOnce(panics) error = nil")
	}
	if st, _ := r.Stats("panics"); st.Failures != 1 {
		t.Errorf("Stats(panics) = %+v, want one failure", st)
	}
}
