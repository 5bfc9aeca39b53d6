package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// tickerInterval is the interval at which the scheduler checks whether a
// run is due.
const tickerInterval = 1 * time.Minute

// Job is a unit of scheduled work. Run receives a background-derived
// context: a shutdown must not cancel a batch mid-flight.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Schedule decides whether a job fires at a given wall-clock minute
type Schedule interface {
	Matches(t time.Time) bool
}

// DailySchedule fires once a day at a fixed hour and minute
type DailySchedule struct {
	Hour   int
	Minute int
}

// Matches implements Schedule
func (s DailySchedule) Matches(t time.Time) bool {
	return t.Hour() == s.Hour && t.Minute() == s.Minute
}

// MonthlySchedule fires on one day of the month at a fixed hour and minute
type MonthlySchedule struct {
	Day    int
	Hour   int
	Minute int
}

// Matches implements Schedule
func (s MonthlySchedule) Matches(t time.Time) bool {
	return t.Day() == s.Day && t.Hour() == s.Hour && t.Minute() == s.Minute
}

// CronScheduler owns the lifecycle of one recurring job. It polls a clock
// once a minute and fires when the schedule matches; the clock is
// injectable so tests can drive it without waiting.
type CronScheduler struct {
	schedule Schedule
	job      Job
	logger   *zap.Logger

	clock    func() time.Time
	interval time.Duration

	mu        sync.Mutex
	running   bool
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	lastFired time.Time
}

// NewCronScheduler creates a scheduler for the job
func NewCronScheduler(schedule Schedule, job Job, logger *zap.Logger) *CronScheduler {
	return &CronScheduler{
		schedule: schedule,
		job:      job,
		logger:   logger,
		clock:    time.Now,
		interval: tickerInterval,
	}
}

// WithClock overrides the time source, for tests
func (s *CronScheduler) WithClock(clock func() time.Time) *CronScheduler {
	s.clock = clock
	return s
}

// WithInterval overrides the poll interval, for tests
func (s *CronScheduler) WithInterval(interval time.Duration) *CronScheduler {
	s.interval = interval
	return s
}

// Start begins the polling loop. Starting a running scheduler is a no-op.
func (s *CronScheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.wg.Add(1)
	go s.loop(ctx)

	s.logger.Info("scheduler started", zap.String("job", s.job.Name()))
}

// Stop terminates the polling loop and waits for it to exit. A job
// already in flight finishes.
func (s *CronScheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	cancel := s.cancel
	s.mu.Unlock()

	cancel()
	s.wg.Wait()
	s.logger.Info("scheduler stopped", zap.String("job", s.job.Name()))
}

// TriggerManualRun fires the job immediately, outside the schedule. Used
// by the manual automation endpoints.
func (s *CronScheduler) TriggerManualRun(ctx context.Context) error {
	s.logger.Info("manual run triggered", zap.String("job", s.job.Name()))
	return s.job.Run(ctx)
}

func (s *CronScheduler) loop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick checks the schedule once and runs the job when due. The minute
// guard keeps a sub-minute poll interval from double-firing.
func (s *CronScheduler) Tick(ctx context.Context) {
	now := s.clock()
	if !s.schedule.Matches(now) {
		return
	}

	s.mu.Lock()
	if sameMinute(s.lastFired, now) {
		s.mu.Unlock()
		return
	}
	s.lastFired = now
	s.mu.Unlock()

	if err := s.job.Run(ctx); err != nil {
		s.logger.Error("scheduled job failed",
			zap.String("job", s.job.Name()),
			zap.Error(err))
	}
}

func sameMinute(a, b time.Time) bool {
	return a.Truncate(time.Minute).Equal(b.Truncate(time.Minute))
}
