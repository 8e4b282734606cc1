package models

import "time"

// JobStatus tracks one pipeline run
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

// JobExecution is the authoritative audit record for one coordinator-driven
// pipeline run. A row is opened on entry and closed on exit.
type JobExecution struct {
	ID         string    `json:"id" badgerhold:"key"`
	ScheduleID string    `json:"schedule_id,omitempty"`
	JobType    TaskKind  `json:"job_type"`
	Status     JobStatus `json:"status" badgerhold:"index"`

	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`

	ItemsCollected int `json:"items_collected"`
	ItemsSaved     int `json:"items_saved"`
	ItemsNotified  int `json:"items_notified"`

	ErrorMessage string `json:"error_message,omitempty"`
	RetryCount   int    `json:"retry_count"`

	Metadata map[string]interface{} `json:"metadata,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// NewJobExecution opens a running execution record
func NewJobExecution(jobType TaskKind, metadata map[string]interface{}) *JobExecution {
	now := time.Now()
	return &JobExecution{
		ID:        newID(),
		JobType:   jobType,
		Status:    JobStatusRunning,
		StartedAt: &now,
		Metadata:  metadata,
		CreatedAt: now,
	}
}

// Complete closes the execution as successful with final counters
func (j *JobExecution) Complete(collected, saved, notified int) {
	now := time.Now()
	j.Status = JobStatusCompleted
	j.FinishedAt = &now
	j.ItemsCollected = collected
	j.ItemsSaved = saved
	j.ItemsNotified = notified
}

// Fail closes the execution with an error message
func (j *JobExecution) Fail(errMsg string) {
	now := time.Now()
	j.Status = JobStatusFailed
	j.FinishedAt = &now
	j.ErrorMessage = errMsg
}

// Duration returns the wall-clock run time, zero when still open
func (j *JobExecution) Duration() time.Duration {
	if j.StartedAt == nil || j.FinishedAt == nil {
		return 0
	}
	return j.FinishedAt.Sub(*j.StartedAt)
}
