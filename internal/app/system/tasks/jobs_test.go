package tasks_test

import (
	"context"
	"testing"
	"time"

	"github.com/dalemusser/stratadaily/internal/app/system/tasks"
	"github.com/dalemusser/stratadaily/internal/app/system/throttle"
	"go.uber.org/zap"
)

func TestThrottleSweepJob(t *testing.T) {
	l := throttle.New(10, time.Millisecond, zap.NewNop())
	l.Allow("10.0.0.1")
	l.Allow("10.0.0.2")
	time.Sleep(5 * time.Millisecond)

	job := tasks.ThrottleSweepJob(l, time.Millisecond, zap.NewNop())
	if job.Name != tasks.ThrottleSweep {
		t.Errorf("Name = %q", job.Name)
	}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if n := l.Sweep(); n != 0 {
		t.Errorf("Sweep() after job removed %d, want 0", n)
	}
}

func TestThrottleSweepJob_DefaultInterval(t *testing.T) {
	job := tasks.ThrottleSweepJob(throttle.New(0, 0, zap.NewNop()), 0, zap.NewNop())
	if job.Interval != 10*time.Minute {
		t.Errorf("Interval = %v, want 10m", job.Interval)
	}
}

func TestContainmentReconcileJob_Defaults(t *testing.T) {
	job := tasks.ContainmentReconcileJob(nil, 0)
	if job.Name != tasks.ContainmentReconcile {
		t.Errorf("Name = %q", job.Name)
	}
	if job.Interval != 15*time.Minute || job.Timeout != job.Interval {
		t.Errorf("Interval = %v, Timeout = %v", job.Interval, job.Timeout)
	}
	if job.Delay <= 0 {
		t.Error("reconcile should not run at boot")
	}
}
