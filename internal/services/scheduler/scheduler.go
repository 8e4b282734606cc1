package scheduler

import (
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/argusintel/argus/internal/common"
	"github.com/argusintel/argus/internal/interfaces"
)

// jobEntry tracks one registered job and its live state
type jobEntry struct {
	name      string
	schedule  string
	handler   func() error
	enabled   bool
	cronID    cron.EntryID
	lastRun   *time.Time
	isRunning bool
	lastError string
}

// Service implements SchedulerService on top of robfig/cron. Jobs run one
// at a time; a tick that fires while a job is still running is skipped for
// that job rather than queued.
type Service struct {
	cron   *cron.Cron
	logger arbor.ILogger

	jobMu   sync.Mutex
	jobs    map[string]*jobEntry
	running bool
}

// NewService creates a scheduler in the given timezone. An empty or invalid
// timezone falls back to the host local time.
func NewService(timezone string) interfaces.SchedulerService {
	opts := []cron.Option{}
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err == nil {
			opts = append(opts, cron.WithLocation(loc))
		}
	}
	return &Service{
		cron:   cron.New(opts...),
		logger: common.GetLogger().WithPrefix("scheduler"),
		jobs:   make(map[string]*jobEntry),
	}
}

// Start begins firing registered jobs on their schedules
func (s *Service) Start() error {
	s.jobMu.Lock()
	defer s.jobMu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler already running")
	}

	s.cron.Start()
	s.running = true

	s.logger.Info().Int("jobs", len(s.jobs)).Msg("Scheduler started")
	return nil
}

// Stop halts the cron loop and waits for running jobs to finish
func (s *Service) Stop() error {
	s.jobMu.Lock()
	if !s.running {
		s.jobMu.Unlock()
		return nil
	}
	s.running = false
	s.jobMu.Unlock()

	ctx := s.cron.Stop()
	<-ctx.Done()

	s.logger.Info().Msg("Scheduler stopped")
	return nil
}

// IsRunning returns true if the scheduler is active
func (s *Service) IsRunning() bool {
	s.jobMu.Lock()
	defer s.jobMu.Unlock()
	return s.running
}

// RegisterJob adds a named job on the given cron expression
func (s *Service) RegisterJob(name, schedule string, handler func() error) error {
	if err := common.ValidateCronSchedule(schedule); err != nil {
		return err
	}

	s.jobMu.Lock()
	defer s.jobMu.Unlock()

	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job %s already registered", name)
	}

	entry := &jobEntry{
		name:     name,
		schedule: schedule,
		handler:  handler,
		enabled:  true,
	}

	cronID, err := s.cron.AddFunc(schedule, func() {
		s.executeJob(name)
	})
	if err != nil {
		return fmt.Errorf("failed to add job to cron: %w", err)
	}

	entry.cronID = cronID
	s.jobs[name] = entry

	s.logger.Info().
		Str("job_name", name).
		Str("schedule", schedule).
		Msg("Job registered")
	return nil
}

// TriggerNow runs a registered job out of schedule
func (s *Service) TriggerNow(name string) error {
	s.jobMu.Lock()
	entry, exists := s.jobs[name]
	if !exists {
		s.jobMu.Unlock()
		return fmt.Errorf("job %s not found", name)
	}
	if entry.isRunning {
		s.jobMu.Unlock()
		return fmt.Errorf("job %s is already running", name)
	}
	s.jobMu.Unlock()

	s.logger.Info().Str("job_name", name).Msg("Manual job trigger")
	go s.executeJob(name)
	return nil
}

// EnableJob re-adds a disabled job to the cron loop
func (s *Service) EnableJob(name string) error {
	s.jobMu.Lock()
	defer s.jobMu.Unlock()

	entry, exists := s.jobs[name]
	if !exists {
		return fmt.Errorf("job %s not found", name)
	}
	if entry.enabled {
		return nil
	}

	cronID, err := s.cron.AddFunc(entry.schedule, func() {
		s.executeJob(name)
	})
	if err != nil {
		return fmt.Errorf("failed to add job to cron: %w", err)
	}

	entry.cronID = cronID
	entry.enabled = true

	s.logger.Info().Str("job_name", name).Msg("Job enabled")
	return nil
}

// DisableJob removes a job from the cron loop without unregistering it
func (s *Service) DisableJob(name string) error {
	s.jobMu.Lock()
	defer s.jobMu.Unlock()

	entry, exists := s.jobs[name]
	if !exists {
		return fmt.Errorf("job %s not found", name)
	}
	if !entry.enabled {
		return nil
	}

	s.cron.Remove(entry.cronID)
	entry.enabled = false

	s.logger.Info().Str("job_name", name).Msg("Job disabled")
	return nil
}

// GetJobStatus returns the status of a specific job
func (s *Service) GetJobStatus(name string) (*interfaces.ScheduledJobStatus, error) {
	s.jobMu.Lock()
	defer s.jobMu.Unlock()

	entry, exists := s.jobs[name]
	if !exists {
		return nil, fmt.Errorf("job %s not found", name)
	}

	var nextRun *time.Time
	if entry.enabled {
		for _, cronEntry := range s.cron.Entries() {
			if cronEntry.ID == entry.cronID {
				next := cronEntry.Next
				nextRun = &next
				break
			}
		}
	}

	return &interfaces.ScheduledJobStatus{
		Name:      entry.name,
		Schedule:  entry.schedule,
		Enabled:   entry.enabled,
		IsRunning: entry.isRunning,
		LastRun:   entry.lastRun,
		NextRun:   nextRun,
		LastError: entry.lastError,
	}, nil
}

// GetAllJobStatuses returns all job statuses
func (s *Service) GetAllJobStatuses() map[string]*interfaces.ScheduledJobStatus {
	s.jobMu.Lock()
	names := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}
	s.jobMu.Unlock()

	statuses := make(map[string]*interfaces.ScheduledJobStatus, len(names))
	for _, name := range names {
		if status, err := s.GetJobStatus(name); err == nil {
			statuses[name] = status
		}
	}
	return statuses
}

// executeJob wraps job execution with overlap skipping, panic recovery,
// and status tracking.
func (s *Service) executeJob(name string) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().
				Str("job_name", name).
				Str("panic", fmt.Sprintf("%v", r)).
				Msg("Panic recovered in job execution")

			s.jobMu.Lock()
			if entry, exists := s.jobs[name]; exists {
				entry.isRunning = false
				entry.lastError = fmt.Sprintf("panic: %v", r)
			}
			s.jobMu.Unlock()
		}
	}()

	s.jobMu.Lock()
	entry, exists := s.jobs[name]
	if !exists {
		s.jobMu.Unlock()
		return
	}
	if entry.isRunning {
		s.jobMu.Unlock()
		s.logger.Debug().Str("job_name", name).Msg("Job still running, skipping tick")
		return
	}
	entry.isRunning = true
	handler := entry.handler
	s.jobMu.Unlock()

	started := time.Now()
	s.logger.Info().Str("job_name", name).Msg("Job execution started")

	err := handler()

	completed := time.Now()
	s.jobMu.Lock()
	entry.isRunning = false
	entry.lastRun = &completed
	if err != nil {
		entry.lastError = err.Error()
	} else {
		entry.lastError = ""
	}
	s.jobMu.Unlock()

	if err != nil {
		s.logger.Error().
			Str("job_name", name).
			Err(err).
			Dur("duration", time.Since(started)).
			Msg("Job execution failed")
	} else {
		s.logger.Info().
			Str("job_name", name).
			Dur("duration", time.Since(started)).
			Msg("Job execution completed")
	}
}
