package models

import (
	"fmt"
	"time"
)

// TaskKind is the pipeline operation a schedule triggers
type TaskKind string

const (
	TaskKindCrawl   TaskKind = "crawl"
	TaskKindProcess TaskKind = "process"
	TaskKindNotify  TaskKind = "notify"
	TaskKindReport  TaskKind = "report"
)

// Schedule binds a cron expression to a task kind and a set of sources
type Schedule struct {
	ID          string `json:"id" badgerhold:"key"`
	Name        string `json:"name" validate:"required"`
	Description string `json:"description,omitempty"`

	CronExpression string   `json:"cron_expression" validate:"required"`
	Timezone       string   `json:"timezone"`
	TaskKind       TaskKind `json:"task_kind" validate:"required,oneof=crawl process notify report"`
	IsActive       bool     `json:"is_active"`

	// Sources this schedule drives; deleting a source detaches it
	SourceIDs       []string `json:"source_ids,omitempty"`
	KeywordGroupIDs []string `json:"keyword_group_ids,omitempty"`

	NextRunAt *time.Time `json:"next_run_at,omitempty"`
	LastRunAt *time.Time `json:"last_run_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewSchedule constructs an active schedule
func NewSchedule(name, cronExpr string, task TaskKind) *Schedule {
	now := time.Now()
	return &Schedule{
		ID:             newID(),
		Name:           name,
		CronExpression: cronExpr,
		Timezone:       "Asia/Seoul",
		TaskKind:       task,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// Validate checks the schedule before admission into storage
func (s *Schedule) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("invalid schedule: %w", err)
	}
	return nil
}

// DetachSource removes a source binding; used when a source is deleted
func (s *Schedule) DetachSource(sourceID string) {
	filtered := s.SourceIDs[:0]
	for _, id := range s.SourceIDs {
		if id != sourceID {
			filtered = append(filtered, id)
		}
	}
	s.SourceIDs = filtered
	s.UpdatedAt = time.Now()
}
