package schedule

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// WeeklyJob fires once per week when the wall clock in the configured
// timezone reaches the configured weekday, hour and minute.
type WeeklyJob struct {
	BaseJob
	weekday  time.Weekday
	hour     int
	minute   int
	timezone string
	action   func(ctx context.Context)

	mu       sync.Mutex
	lastSlot time.Time
}

func NewWeeklyJob(name string, weekday time.Weekday, hour, minute int, timezone string, action func(ctx context.Context)) *WeeklyJob {
	return &WeeklyJob{
		BaseJob:  NewBaseJob(name),
		weekday:  weekday,
		hour:     hour,
		minute:   minute,
		timezone: timezone,
		action:   action,
	}
}

// ShouldFire matches the calendar slot and claims it, so each slot fires at
// most once regardless of how many scheduler ticks land inside the minute.
func (j *WeeklyJob) ShouldFire(now time.Time) bool {
	if atomic.LoadInt32(&j.running) == 1 {
		return false
	}

	local, ok := j.localTime(now)
	if !ok {
		return false
	}
	if local.Weekday() != j.weekday || local.Hour() != j.hour || local.Minute() != j.minute {
		return false
	}

	return j.claimSlot(local)
}

func (j *WeeklyJob) Run(ctx context.Context, _ time.Time) {
	if !j.TryLock() {
		return
	}
	defer j.Unlock()

	j.action(ctx)
}

// localTime resolves now in the job's timezone. A resolution failure skips
// this occurrence only; the job stays armed for the next check.
func (j *WeeklyJob) localTime(now time.Time) (time.Time, bool) {
	loc, err := time.LoadLocation(j.timezone)
	if err != nil {
		slog.Error("timezone resolution failed, skipping occurrence",
			"job", j.Name(), "timezone", j.timezone, "error", err)
		return time.Time{}, false
	}
	return now.In(loc), true
}

// claimSlot marks the current calendar minute as fired. Returns false if it
// was already claimed.
func (j *WeeklyJob) claimSlot(local time.Time) bool {
	slot := local.Truncate(time.Minute)

	j.mu.Lock()
	defer j.mu.Unlock()
	if slot.Equal(j.lastSlot) {
		return false
	}
	j.lastSlot = slot
	return true
}
