package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type countingJob struct {
	runs atomic.Int32
}

func (j *countingJob) Name() string { return "counting" }

func (j *countingJob) Run(ctx context.Context) error {
	j.runs.Add(1)
	return nil
}

func TestDailyScheduleMatches(t *testing.T) {
	s := DailySchedule{Hour: 6, Minute: 0}

	assert.True(t, s.Matches(time.Date(2025, 3, 5, 6, 0, 30, 0, time.UTC)))
	assert.False(t, s.Matches(time.Date(2025, 3, 5, 6, 1, 0, 0, time.UTC)))
	assert.False(t, s.Matches(time.Date(2025, 3, 5, 7, 0, 0, 0, time.UTC)))
}

func TestMonthlyScheduleMatches(t *testing.T) {
	s := MonthlySchedule{Day: 1, Hour: 7, Minute: 0}

	assert.True(t, s.Matches(time.Date(2025, 4, 1, 7, 0, 0, 0, time.UTC)))
	assert.False(t, s.Matches(time.Date(2025, 4, 2, 7, 0, 0, 0, time.UTC)))
}

func TestSchedulerFiresOnceWithFakeClock(t *testing.T) {
	job := &countingJob{}
	now := time.Date(2025, 3, 5, 5, 59, 0, 0, time.UTC)
	s := NewCronScheduler(DailySchedule{Hour: 6, Minute: 0}, job, zap.NewNop()).
		WithClock(func() time.Time { return now })

	s.Tick(context.Background())
	assert.Equal(t, int32(0), job.runs.Load(), "not due yet")

	now = time.Date(2025, 3, 5, 6, 0, 10, 0, time.UTC)
	s.Tick(context.Background())
	assert.Equal(t, int32(1), job.runs.Load())

	// a second tick inside the same minute must not double-fire
	now = time.Date(2025, 3, 5, 6, 0, 40, 0, time.UTC)
	s.Tick(context.Background())
	assert.Equal(t, int32(1), job.runs.Load())

	// next day fires again
	now = time.Date(2025, 3, 6, 6, 0, 0, 0, time.UTC)
	s.Tick(context.Background())
	assert.Equal(t, int32(2), job.runs.Load())
}

func TestSchedulerStartStop(t *testing.T) {
	job := &countingJob{}
	s := NewCronScheduler(DailySchedule{Hour: 0, Minute: 0}, job, zap.NewNop()).
		WithClock(func() time.Time { return time.Date(2025, 3, 5, 12, 0, 0, 0, time.UTC) }).
		WithInterval(time.Millisecond)

	s.Start()
	s.Start() // idempotent
	time.Sleep(20 * time.Millisecond)
	s.Stop()
	s.Stop() // idempotent

	assert.Equal(t, int32(0), job.runs.Load(), "schedule never matched")
}

func TestTriggerManualRun(t *testing.T) {
	job := &countingJob{}
	s := NewCronScheduler(DailySchedule{Hour: 6, Minute: 0}, job, zap.NewNop())

	require.NoError(t, s.TriggerManualRun(context.Background()))
	assert.Equal(t, int32(1), job.runs.Load())
}
