// Package schedule drives the recurring broadcast triggers. A single minute
// ticker evaluates every registered job; jobs decide for themselves whether
// the current instant is one of their calendar slots.
package schedule

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

// Job defines a scheduled task.
type Job interface {
	Name() string
	ShouldFire(now time.Time) bool
	Run(ctx context.Context, now time.Time)
}

// BaseJob provides atomic running state to prevent re-entry.
type BaseJob struct {
	name    string
	running int32 // 1 if running, 0 otherwise
}

func NewBaseJob(name string) BaseJob {
	return BaseJob{name: name}
}

func (b *BaseJob) Name() string {
	return b.name
}

// TryLock attempts to set running to 1. Returns true if successful.
func (b *BaseJob) TryLock() bool {
	return atomic.CompareAndSwapInt32(&b.running, 0, 1)
}

func (b *BaseJob) Unlock() {
	atomic.StoreInt32(&b.running, 0)
}

// Scheduler manages the central heartbeat and scheduled jobs.
type Scheduler struct {
	interval time.Duration
	jobs     []Job
}

// NewScheduler creates a Scheduler. Calendar jobs key on the wall-clock
// minute, so the interval must stay under a minute; it defaults to 20s.
func NewScheduler(interval time.Duration) *Scheduler {
	if interval <= 0 || interval >= time.Minute {
		interval = 20 * time.Second
	}
	return &Scheduler{interval: interval}
}

// AddJob registers a job. Not safe to call after Start.
func (s *Scheduler) AddJob(j Job) {
	s.jobs = append(s.jobs, j)
}

// Start runs the main loop. It blocks until the context is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	slog.Info("scheduler started", "interval", s.interval, "jobs", len(s.jobs))

	for {
		select {
		case <-ctx.Done():
			slog.Info("scheduler stopped")
			return
		case now := <-ticker.C:
			s.tick(ctx, now)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context, now time.Time) {
	for _, job := range s.jobs {
		if job.ShouldFire(now) {
			slog.Info("trigger firing", "job", job.Name())
			// Fire and forget; the job's re-entry guard prevents overlap.
			go job.Run(ctx, now)
		}
	}
}
