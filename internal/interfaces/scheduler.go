package interfaces

import "time"

// ScheduledJobStatus reports the live state of one registered cron job
type ScheduledJobStatus struct {
	Name      string
	Schedule  string
	Enabled   bool
	IsRunning bool
	LastRun   *time.Time
	NextRun   *time.Time
	LastError string
}

// SchedulerService manages cron-based job registration and execution
type SchedulerService interface {
	Start() error
	Stop() error
	IsRunning() bool

	// RegisterJob adds a named job on the given cron expression
	RegisterJob(name, schedule string, handler func() error) error

	// TriggerNow runs a registered job out of schedule
	TriggerNow(name string) error

	EnableJob(name string) error
	DisableJob(name string) error

	GetJobStatus(name string) (*ScheduledJobStatus, error)
	GetAllJobStatuses() map[string]*ScheduledJobStatus
}
