package models

import "time"

// ReportKind selects the aggregation window and prompt shape
type ReportKind string

const (
	ReportKindDaily  ReportKind = "daily"
	ReportKindWeekly ReportKind = "weekly"
	ReportKindCustom ReportKind = "custom"
)

// ReportPeriod is the inclusive window a report covers
type ReportPeriod struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// ReportSource is one cited item in the report envelope
type ReportSource struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Report is the stable envelope produced by the report generator
type Report struct {
	ID           string                 `json:"id" badgerhold:"key"`
	Kind         ReportKind             `json:"type"`
	Topic        string                 `json:"topic,omitempty"`
	Period       ReportPeriod           `json:"period"`
	GeneratedAt  time.Time              `json:"generated_at"`
	ContentCount int                    `json:"content_count"`
	Body         map[string]interface{} `json:"report"`
	Sources      []ReportSource         `json:"sources"`
}
