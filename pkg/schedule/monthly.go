package schedule

import (
	"context"
	"log/slog"
	"time"
)

// MonthlyPenultimateJob fires once per month, on the eve of the penultimate
// occurrence of the target weekday. The underlying weekly check runs the day
// before the target at the configured hour and minute; on non-matching weeks
// the date predicate turns the occurrence into a complete no-op.
type MonthlyPenultimateJob struct {
	weekly *WeeklyJob
	target time.Weekday
}

func NewMonthlyPenultimateJob(name string, target time.Weekday, hour, minute int, timezone string, action func(ctx context.Context)) *MonthlyPenultimateJob {
	checkDay := time.Weekday((int(target) + 6) % 7)
	return &MonthlyPenultimateJob{
		weekly: NewWeeklyJob(name, checkDay, hour, minute, timezone, action),
		target: target,
	}
}

func (j *MonthlyPenultimateJob) Name() string {
	return j.weekly.Name()
}

func (j *MonthlyPenultimateJob) ShouldFire(now time.Time) bool {
	local, ok := j.weekly.localTime(now)
	if !ok {
		return false
	}
	if local.Weekday() != j.weekly.weekday || local.Hour() != j.weekly.hour || local.Minute() != j.weekly.minute {
		return false
	}

	candidate := local.AddDate(0, 0, 1)
	if !IsPenultimateWeekday(candidate, j.target) {
		// Not this month's occurrence; nothing downstream is touched.
		slog.Debug("monthly trigger check did not match", "job", j.Name(),
			"candidate", candidate.Format("2006-01-02"))
		return false
	}

	return j.weekly.claimSlot(local)
}

func (j *MonthlyPenultimateJob) Run(ctx context.Context, now time.Time) {
	j.weekly.Run(ctx, now)
}
