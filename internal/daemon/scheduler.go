package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"

	"git.home.luguber.info/inful/menusync/internal/logfields"
)

// Scheduler wraps a gocron scheduler running one periodic sync job.
type Scheduler struct {
	scheduler gocron.Scheduler
	running   atomic.Bool

	mu    sync.Mutex
	jobID uuid.UUID
	name  string
	task  func()
}

// NewScheduler creates a new scheduler instance.
func NewScheduler() (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	return &Scheduler{scheduler: s}, nil
}

// Start begins the scheduler.
func (s *Scheduler) Start(context.Context) error {
	slog.Info("Starting scheduler")
	s.scheduler.Start()
	s.running.Store(true)
	return nil
}

// Stop gracefully shuts down the scheduler, waiting for a running task.
func (s *Scheduler) Stop(context.Context) error {
	slog.Info("Stopping scheduler")
	s.running.Store(false)
	return s.scheduler.Shutdown()
}

// IsRunning reports whether Start was called and Stop was not.
func (s *Scheduler) IsRunning() bool { return s.running.Load() }

func jobOptions(name string) []gocron.JobOption {
	return []gocron.JobOption{
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	}
}

// ScheduleEvery runs task now and then every interval. A run that would
// overlap the previous one is skipped. It returns the job id.
func (s *Scheduler) ScheduleEvery(name string, interval time.Duration, task func()) (string, error) {
	if interval <= 0 {
		return "", fmt.Errorf("interval must be positive, got %s", interval)
	}
	job, err := s.scheduler.NewJob(gocron.DurationJob(interval), gocron.NewTask(task), jobOptions(name)...)
	if err != nil {
		return "", fmt.Errorf("failed to create periodic job: %w", err)
	}

	s.mu.Lock()
	s.jobID, s.name, s.task = job.ID(), name, task
	s.mu.Unlock()

	slog.Debug("Scheduled periodic job", logfields.JobID(job.ID().String()), slog.Duration("interval", interval))
	return job.ID().String(), nil
}

// Reschedule changes the interval of the job created by ScheduleEvery.
func (s *Scheduler) Reschedule(interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("interval must be positive, got %s", interval)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.task == nil {
		return fmt.Errorf("no job scheduled")
	}
	job, err := s.scheduler.Update(s.jobID, gocron.DurationJob(interval), gocron.NewTask(s.task), jobOptions(s.name)...)
	if err != nil {
		return fmt.Errorf("failed to reschedule job: %w", err)
	}
	s.jobID = job.ID()
	return nil
}

// Jobs returns the number of scheduled jobs.
func (s *Scheduler) Jobs() int {
	return len(s.scheduler.Jobs())
}
