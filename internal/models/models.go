package models

import (
	"time"

	"gorm.io/datatypes"
)

// Client is a tenant organization.
type Client struct {
	ID        string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Slug      string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"slug"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	Plan      string    `gorm:"type:varchar(32);not null;default:'starter'" json:"plan"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Client) TableName() string { return "clients" }

type User struct {
	ID                 string    `gorm:"primaryKey;type:varchar(26)" json:"id"`
	ClientID           string    `gorm:"type:varchar(64);index;not null" json:"client_id"`
	Email              string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash       string    `gorm:"type:varchar(255);not null" json:"-"`
	Role               string    `gorm:"type:varchar(16);not null" json:"role"`
	DefaultWorkspaceID *string   `gorm:"type:varchar(26)" json:"default_workspace_id,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func (User) TableName() string { return "users" }

type Workspace struct {
	ID        string    `gorm:"primaryKey;type:varchar(26)" json:"id"`
	ClientID  string    `gorm:"type:varchar(64);index;not null" json:"client_id"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

func (Workspace) TableName() string { return "workspaces" }

type Assistant struct {
	ID          string    `gorm:"primaryKey;type:varchar(26)" json:"id"`
	ClientID    string    `gorm:"type:varchar(64);index:idx_assistant_client_ws,priority:1;not null" json:"client_id"`
	WorkspaceID string    `gorm:"type:varchar(26);index:idx_assistant_client_ws,priority:2" json:"workspace_id"`
	Name        string    `gorm:"type:varchar(255);not null" json:"name"`
	Model       string    `gorm:"type:varchar(64)" json:"model"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Assistant) TableName() string { return "assistants" }

// Transcript authors.
const (
	AuthorUser      = "user"
	AuthorAssistant = "assistant"
)

type TranscriptEntry struct {
	Author  string `json:"author"`
	Message string `json:"message"`
}

// Analysis keys written by the analysis worker.
const (
	AnalysisSummary     = "summary"
	AnalysisSentiment   = "sentiment"
	AnalysisResolved    = "resolved"
	AnalysisRawResponse = "raw_response"
)

// ChatSession is one end-user interaction with an assistant.
type ChatSession struct {
	ID          string                               `gorm:"primaryKey;type:varchar(26)" json:"id"`
	ClientID    string                               `gorm:"type:varchar(64);index:idx_chat_session_client_started,priority:1;not null" json:"client_id"`
	AssistantID string                               `gorm:"type:varchar(26);index" json:"assistant_id"`
	VisitorID   string                               `gorm:"type:varchar(64)" json:"visitor_id"`
	StartedAt   time.Time                            `gorm:"index:idx_chat_session_client_started,priority:2" json:"started_at"`
	EndedAt     *time.Time                           `json:"ended_at,omitempty"`
	Transcript  datatypes.JSONSlice[TranscriptEntry] `json:"transcript"`
	Analysis    datatypes.JSONMap                    `json:"analysis"`
	CreatedAt   time.Time                            `json:"created_at"`
	UpdatedAt   time.Time                            `json:"updated_at"`
}

func (ChatSession) TableName() string { return "chat_sessions" }

// Conversation is the list view of a ChatSession.
type Conversation struct {
	ID           string    `json:"id"`
	AssistantID  string    `json:"assistant_id"`
	StartedAt    time.Time `json:"started_at"`
	MessageCount int       `json:"message_count"`
	Preview      string    `json:"preview"`
	Sentiment    string    `json:"sentiment,omitempty"`
}

type BillingAccount struct {
	ClientID     string    `gorm:"primaryKey;type:varchar(64)" json:"client_id"`
	Plan         string    `gorm:"type:varchar(32);not null" json:"plan"`
	MonthlyQuota int       `gorm:"not null" json:"monthly_quota"`
	PeriodStart  time.Time `json:"period_start"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (BillingAccount) TableName() string { return "billing_accounts" }

type Invoice struct {
	ID          string    `gorm:"primaryKey;type:varchar(26)" json:"id"`
	ClientID    string    `gorm:"type:varchar(64);index;not null" json:"client_id"`
	AmountCents int64     `gorm:"not null" json:"amount_cents"`
	Currency    string    `gorm:"type:varchar(3);not null" json:"currency"`
	Status      string    `gorm:"type:varchar(16);not null" json:"status"`
	IssuedAt    time.Time `gorm:"index" json:"issued_at"`
}

func (Invoice) TableName() string { return "invoices" }
