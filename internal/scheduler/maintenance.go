package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Enqueuer hands maintenance work to the task queue.
type Enqueuer interface {
	EnqueueMaintenance(ctx context.Context, auditRetentionDays int) ([]string, error)
}

// cronParser accepts standard five-field schedules.
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ValidateCronSchedule validates a cron schedule string
func ValidateCronSchedule(schedule string) error {
	_, err := cronParser.Parse(schedule)
	return err
}

// MaintenanceScheduler periodically enqueues the audit cleanup and token
// purge tasks.
type MaintenanceScheduler struct {
	enqueuer      Enqueuer
	schedule      string
	retentionDays int
	log           zerolog.Logger

	cron       *cron.Cron
	entryID    cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	cancelFunc context.CancelFunc
}

// NewMaintenanceScheduler creates a new scheduler instance
func NewMaintenanceScheduler(enqueuer Enqueuer, schedule string, retentionDays int, log zerolog.Logger) *MaintenanceScheduler {
	return &MaintenanceScheduler{
		enqueuer:      enqueuer,
		schedule:      schedule,
		retentionDays: retentionDays,
		log:           log.With().Str("component", "scheduler").Logger(),
		cron:          cron.New(cron.WithParser(cronParser)),
	}
}

// Start registers the maintenance job and starts the cron loop. An empty
// schedule leaves the scheduler disabled.
func (s *MaintenanceScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	if s.schedule == "" {
		s.log.Info().Msg("Maintenance scheduler: disabled")
		return nil
	}

	if err := ValidateCronSchedule(s.schedule); err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", s.schedule, err)
	}

	entryID, err := s.cron.AddFunc(s.schedule, s.runMaintenance)
	if err != nil {
		return fmt.Errorf("failed to schedule maintenance job: %w", err)
	}
	s.entryID = entryID

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true

	s.log.Info().
		Str("schedule", s.schedule).
		Time("next_run", s.cron.Entry(entryID).Next).
		Msg("Maintenance scheduler: started")

	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop gracefully stops the scheduler
func (s *MaintenanceScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	// Stop accepting new jobs and wait for running jobs to complete
	ctx := s.cron.Stop()
	<-ctx.Done()

	s.cron.Remove(s.entryID)
	if s.cancelFunc != nil {
		s.cancelFunc()
		s.cancelFunc = nil
	}
	s.isRunning = false

	s.log.Info().Msg("Maintenance scheduler: stopped")
}

// RunNow enqueues maintenance immediately and returns the task ids.
func (s *MaintenanceScheduler) RunNow(ctx context.Context) ([]string, error) {
	return s.enqueuer.EnqueueMaintenance(ctx, s.retentionDays)
}

// IsRunning returns whether the scheduler is active
func (s *MaintenanceScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetNextRunTime returns when the next maintenance run will occur
func (s *MaintenanceScheduler) GetNextRunTime() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}

	entry := s.cron.Entry(s.entryID)
	if !entry.Valid() {
		return nil
	}
	t := entry.Next
	return &t
}

func (s *MaintenanceScheduler) runMaintenance() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	ids, err := s.RunNow(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("Maintenance: failed to enqueue tasks")
		return
	}
	s.log.Info().Strs("task_ids", ids).Msg("Maintenance: tasks enqueued")
}
