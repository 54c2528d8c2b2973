// Package store is the data access layer: a gorm repository and an in-memory
// mock used when no database is configured.
package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/datatypes"

	"github.com/notsoai/dashboard/internal/models"
)

var ErrNotFound = errors.New("store: not found")

type ChatSessionFilter struct {
	AssistantID string
	// Zero values leave the range open.
	From time.Time
	To   time.Time
	// Before is an id cursor; results have id < Before.
	Before string
	// Limit <= 0 returns every match.
	Limit int
}

// Store is implemented by *Repo and *Mock.
type Store interface {
	// GetClient looks a tenant up by id or slug.
	GetClient(ctx context.Context, ref string) (*models.Client, error)
	CreateClient(ctx context.Context, c *models.Client) error

	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	CreateUser(ctx context.Context, u *models.User) error

	ListWorkspaces(ctx context.Context, clientID string) ([]models.Workspace, error)
	CreateWorkspace(ctx context.Context, w *models.Workspace) error

	ListAssistants(ctx context.Context, clientID, workspaceID string) ([]models.Assistant, error)
	GetAssistant(ctx context.Context, clientID, id string) (*models.Assistant, error)
	CreateAssistant(ctx context.Context, a *models.Assistant) error

	// ListChatSessions returns sessions newest first.
	ListChatSessions(ctx context.Context, clientID string, f ChatSessionFilter) ([]models.ChatSession, error)
	GetChatSession(ctx context.Context, clientID, id string) (*models.ChatSession, error)
	CreateChatSession(ctx context.Context, cs *models.ChatSession) error
	UpdateChatSessionAnalysis(ctx context.Context, id string, analysis datatypes.JSONMap) error
	CountChatSessionsSince(ctx context.Context, clientID string, since time.Time) (int64, error)

	GetBilling(ctx context.Context, clientID string) (*models.BillingAccount, []models.Invoice, error)

	CreateJob(ctx context.Context, job *models.AnalysisJob) error
	GetJob(ctx context.Context, id string) (*models.AnalysisJob, error)
	UpdateJobStatusRunning(ctx context.Context, id string) error
	MarkJobSucceeded(ctx context.Context, id string) error
	MarkJobFailed(ctx context.Context, id string, errMsg string) error
}
