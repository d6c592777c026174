package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeeklyJob_FiresOncePerSlot(t *testing.T) {
	fired := 0
	j := NewWeeklyJob("postcard", time.Wednesday, 9, 0, "UTC", func(context.Context) { fired++ })

	// Wednesday 2024-08-21 09:00 UTC.
	slot := time.Date(2024, 8, 21, 9, 0, 5, 0, time.UTC)

	require.True(t, j.ShouldFire(slot))
	j.Run(context.Background(), slot)

	// Second tick inside the same minute must not refire.
	assert.False(t, j.ShouldFire(slot.Add(20*time.Second)))

	// The following week's slot fires again.
	nextWeek := slot.AddDate(0, 0, 7)
	assert.True(t, j.ShouldFire(nextWeek))

	assert.Equal(t, 1, fired)
}

func TestWeeklyJob_NoMatch(t *testing.T) {
	j := NewWeeklyJob("postcard", time.Wednesday, 9, 0, "UTC", func(context.Context) {})

	// Right weekday, wrong minute.
	assert.False(t, j.ShouldFire(time.Date(2024, 8, 21, 9, 1, 0, 0, time.UTC)))
	// Wrong weekday.
	assert.False(t, j.ShouldFire(time.Date(2024, 8, 22, 9, 0, 0, 0, time.UTC)))
}

func TestWeeklyJob_TimezoneConversion(t *testing.T) {
	j := NewWeeklyJob("postcard", time.Wednesday, 9, 0, "Asia/Almaty", func(context.Context) {})

	// 04:00 UTC on Wednesday is 09:00 in Almaty (UTC+5).
	assert.True(t, j.ShouldFire(time.Date(2024, 8, 21, 4, 0, 0, 0, time.UTC)))
}

func TestWeeklyJob_BadTimezoneSkipsOccurrence(t *testing.T) {
	fired := 0
	j := NewWeeklyJob("postcard", time.Wednesday, 9, 0, "Mars/Olympus", func(context.Context) { fired++ })

	assert.False(t, j.ShouldFire(time.Date(2024, 8, 21, 9, 0, 0, 0, time.UTC)))
	assert.Equal(t, 0, fired)
}

func TestWeeklyJob_ReentryGuard(t *testing.T) {
	block := make(chan struct{})
	started := make(chan struct{})
	j := NewWeeklyJob("postcard", time.Wednesday, 9, 0, "UTC", func(context.Context) {
		close(started)
		<-block
	})

	slot := time.Date(2024, 8, 21, 9, 0, 0, 0, time.UTC)
	require.True(t, j.ShouldFire(slot))
	go j.Run(context.Background(), slot)
	<-started

	// While the action is in flight, the job must not be eligible again.
	assert.False(t, j.ShouldFire(slot.AddDate(0, 0, 7)))
	close(block)
}
