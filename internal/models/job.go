package models

import "time"

type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobSucceeded JobStatus = "succeeded"
	JobFailed    JobStatus = "failed"
)

// AnalysisJob tracks one LLM analysis run over a chat session.
type AnalysisJob struct {
	ID string `gorm:"primaryKey;size:26"` // ULID length

	ClientID      string `gorm:"size:64;index;not null"`
	ChatSessionID string `gorm:"size:26;index;not null"`

	Status JobStatus `gorm:"type:varchar(16);index;not null"`

	// Filled when failed
	Error *string `gorm:"type:text"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (AnalysisJob) TableName() string { return "analysis_jobs" }

// All lists every table the server migrates at startup.
func All() []any {
	return []any{
		&Client{}, &User{}, &Workspace{}, &Assistant{},
		&ChatSession{}, &BillingAccount{}, &Invoice{}, &AnalysisJob{},
	}
}
