package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/notsoai/dashboard/internal/models"
)

type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

var _ Store = (*Repo)(nil)

func mapErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func (r *Repo) GetClient(ctx context.Context, ref string) (*models.Client, error) {
	if ref == "" {
		return nil, ErrNotFound
	}
	var c models.Client
	if err := r.db.WithContext(ctx).
		Where("id = ? OR slug = ?", ref, ref).
		First(&c).Error; err != nil {
		return nil, mapErr(err)
	}
	return &c, nil
}

func (r *Repo) CreateClient(ctx context.Context, c *models.Client) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *Repo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := r.db.WithContext(ctx).
		Where("email = ?", email).
		First(&u).Error; err != nil {
		return nil, mapErr(err)
	}
	return &u, nil
}

func (r *Repo) CreateUser(ctx context.Context, u *models.User) error {
	return r.db.WithContext(ctx).Create(u).Error
}

func (r *Repo) ListWorkspaces(ctx context.Context, clientID string) ([]models.Workspace, error) {
	var out []models.Workspace
	if err := r.db.WithContext(ctx).
		Where("client_id = ?", clientID).
		Order("name ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repo) CreateWorkspace(ctx context.Context, w *models.Workspace) error {
	return r.db.WithContext(ctx).Create(w).Error
}

func (r *Repo) ListAssistants(ctx context.Context, clientID, workspaceID string) ([]models.Assistant, error) {
	q := r.db.WithContext(ctx).Where("client_id = ?", clientID)
	if workspaceID != "" {
		q = q.Where("workspace_id = ?", workspaceID)
	}
	var out []models.Assistant
	if err := q.Order("created_at ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repo) GetAssistant(ctx context.Context, clientID, id string) (*models.Assistant, error) {
	var a models.Assistant
	if err := r.db.WithContext(ctx).
		Where("client_id = ? AND id = ?", clientID, id).
		First(&a).Error; err != nil {
		return nil, mapErr(err)
	}
	return &a, nil
}

func (r *Repo) CreateAssistant(ctx context.Context, a *models.Assistant) error {
	return r.db.WithContext(ctx).Create(a).Error
}

// ListChatSessions returns sessions in DESC id order (newest -> oldest).
func (r *Repo) ListChatSessions(ctx context.Context, clientID string, f ChatSessionFilter) ([]models.ChatSession, error) {
	q := r.db.WithContext(ctx).
		Where("client_id = ?", clientID).
		Order("id DESC")

	if f.AssistantID != "" {
		q = q.Where("assistant_id = ?", f.AssistantID)
	}
	if !f.From.IsZero() {
		q = q.Where("started_at >= ?", f.From)
	}
	if !f.To.IsZero() {
		q = q.Where("started_at < ?", f.To)
	}
	if f.Before != "" {
		q = q.Where("id < ?", f.Before)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}

	var out []models.ChatSession
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repo) GetChatSession(ctx context.Context, clientID, id string) (*models.ChatSession, error) {
	var cs models.ChatSession
	if err := r.db.WithContext(ctx).
		Where("client_id = ? AND id = ?", clientID, id).
		First(&cs).Error; err != nil {
		return nil, mapErr(err)
	}
	return &cs, nil
}

func (r *Repo) CreateChatSession(ctx context.Context, cs *models.ChatSession) error {
	return r.db.WithContext(ctx).Create(cs).Error
}

func (r *Repo) UpdateChatSessionAnalysis(ctx context.Context, id string, analysis datatypes.JSONMap) error {
	res := r.db.WithContext(ctx).Model(&models.ChatSession{}).
		Where("id = ?", id).
		Update("analysis", analysis)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repo) CountChatSessionsSince(ctx context.Context, clientID string, since time.Time) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.ChatSession{}).
		Where("client_id = ? AND started_at >= ?", clientID, since).
		Count(&n).Error
	return n, err
}

func (r *Repo) GetBilling(ctx context.Context, clientID string) (*models.BillingAccount, []models.Invoice, error) {
	var acct models.BillingAccount
	if err := r.db.WithContext(ctx).First(&acct, "client_id = ?", clientID).Error; err != nil {
		return nil, nil, mapErr(err)
	}
	var invoices []models.Invoice
	if err := r.db.WithContext(ctx).
		Where("client_id = ?", clientID).
		Order("issued_at DESC").
		Limit(24).
		Find(&invoices).Error; err != nil {
		return nil, nil, fmt.Errorf("list invoices: %w", err)
	}
	return &acct, invoices, nil
}

// Job CRUD
func (r *Repo) CreateJob(ctx context.Context, job *models.AnalysisJob) error {
	return r.db.WithContext(ctx).Create(job).Error
}

func (r *Repo) GetJob(ctx context.Context, id string) (*models.AnalysisJob, error) {
	var j models.AnalysisJob
	if err := r.db.WithContext(ctx).First(&j, "id = ?", id).Error; err != nil {
		return nil, mapErr(err)
	}
	return &j, nil
}

func (r *Repo) UpdateJobStatusRunning(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&models.AnalysisJob{}).
		Where("id = ? AND status IN ?", id, []models.JobStatus{models.JobQueued, models.JobFailed}).
		Update("status", models.JobRunning).Error
}

func (r *Repo) MarkJobSucceeded(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&models.AnalysisJob{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status": models.JobSucceeded,
			"error":  nil,
		}).Error
}

func (r *Repo) MarkJobFailed(ctx context.Context, id string, errMsg string) error {
	return r.db.WithContext(ctx).Model(&models.AnalysisJob{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status": models.JobFailed,
			"error":  errMsg,
		}).Error
}
